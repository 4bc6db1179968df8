package generation

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"
)

// DefaultMaxLength is the alt-text length limit used when none is configured.
const DefaultMaxLength = 125

// Request describes one image to describe.
type Request struct {
	ImageURL    string
	ProjectName string
	ExistingAlt string
	FieldName   string
}

// Generator produces alt text for an image.
type Generator interface {
	// GenerateAltText returns alt text of at most the configured length.
	GenerateAltText(ctx context.Context, req Request) (string, error)

	// Model names the model that produced the text, recorded on proposals.
	Model() string
}

// SystemPrompt frames the model as an alt-text writer.
const SystemPrompt = "You are an expert at writing concise, SEO-friendly alt text for home renovation images " +
	"that balances accessibility and search optimization."

//go:embed prompt.tmpl
var promptText string

var promptTemplate = template.Must(template.New("alt_text").Parse(promptText))

type promptData struct {
	ProjectName string
	ExistingAlt string
	MaxLength   int
}

// BuildPrompt renders the user prompt for req.
func BuildPrompt(req Request, maxLength int) (string, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, promptData{
		ProjectName: req.ProjectName,
		ExistingAlt: req.ExistingAlt,
		MaxLength:   maxLength,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Truncate trims text to maxLength runes. Text that is too long is cut at
// the last space inside the limit and ends with "...".
func Truncate(text string, maxLength int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if maxLength <= 0 || len(runes) <= maxLength {
		return text
	}
	cut := string(runes[:maxLength])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ") + "..."
}
