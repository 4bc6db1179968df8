// Package export renders job proposals as spreadsheets for offline review.
package export

import (
	"fmt"
	"io"

	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the proposals.
const SheetName = "Proposals"

// ContentType is the media type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Headers are the column titles, in order.
var Headers = []string{
	"Item ID",
	"Item Name",
	"Image Field",
	"Alt Text Field",
	"Image URL",
	"Current Alt Text",
	"Proposed Alt Text",
	"Confidence",
	"Model",
	"Generated At",
}

// Filename returns the download name for a job's workbook.
func Filename(job *domain.Job) string {
	return fmt.Sprintf("altscribe-proposals-%s.xlsx", job.ID)
}

// WriteProposals writes an XLSX workbook with one row per proposal.
func WriteProposals(w io.Writer, job *domain.Job, proposals []*domain.Proposal) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// Rename the default sheet rather than leaving an empty one behind.
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for idx, p := range proposals {
		row := idx + 2
		values := []any{
			p.ItemID,
			p.ItemName,
			p.ImageField,
			p.FieldName,
			p.ImageURL,
			p.CurrentText,
			p.ProposedText,
			p.ConfidenceScore,
			p.ModelUsed,
			p.GeneratedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("failed to write proposal %s: %w", p.ID, err)
			}
		}
	}

	_ = f.SetColWidth(SheetName, "A", "D", 18)
	_ = f.SetColWidth(SheetName, "E", "E", 48)
	_ = f.SetColWidth(SheetName, "F", "G", 60)
	_ = f.SetColWidth(SheetName, "H", "J", 16)

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       "Alt text proposals",
		Description: fmt.Sprintf("Job %s, collection %s", job.ID, job.CollectionID),
	}); err != nil {
		return fmt.Errorf("failed to set document properties: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
