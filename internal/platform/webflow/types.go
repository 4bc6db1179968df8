package webflow

import "context"

// Client is the CMS surface used by the job processor and the API.
type Client interface {
	// GetCollectionItems fetches one page of items.
	GetCollectionItems(ctx context.Context, collectionID string, limit, offset int) (*ItemsPage, error)

	// GetAllCollectionItems pages through the collection until every target
	// id has been seen or the collection is exhausted, returning the
	// matching items in target order.
	GetAllCollectionItems(ctx context.Context, collectionID string, targetIDs []string) ([]Item, error)

	// UpdateItem patches the given fields of one item.
	UpdateItem(ctx context.Context, collectionID, itemID string, fieldData map[string]any) (*Item, error)

	// Close releases the client's connections. It is safe to call more than once.
	Close() error
}

// Item is a CMS collection item.
type Item struct {
	ID        string         `json:"id"`
	FieldData map[string]any `json:"fieldData"`
}

// Pagination describes the window returned by a list call.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// ItemsPage is one page of collection items.
type ItemsPage struct {
	Items      []Item     `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Name returns the item's display name, or fallback when unset.
func (i Item) Name(fallback string) string {
	if s, ok := i.FieldData["name"].(string); ok && s != "" {
		return s
	}
	return fallback
}

// ImageURL returns the url of the image stored in field, if any.
func (i Item) ImageURL(field string) string {
	img, ok := i.FieldData[field].(map[string]any)
	if !ok {
		return ""
	}
	url, _ := img["url"].(string)
	return url
}

// Text returns a string field, or "" when absent or not a string.
func (i Item) Text(field string) string {
	s, _ := i.FieldData[field].(string)
	return s
}

// collectTargets drives fetch page by page and keeps the items named in
// targetIDs. It stops once all targets are found, a page comes back empty,
// or the offset reaches the reported total.
func collectTargets(ctx context.Context, targetIDs []string, pageSize int,
	fetch func(ctx context.Context, limit, offset int) (*ItemsPage, error),
) ([]Item, error) {
	wanted := make(map[string]struct{}, len(targetIDs))
	for _, id := range targetIDs {
		wanted[id] = struct{}{}
	}
	if len(wanted) == 0 {
		return []Item{}, nil
	}

	found := make(map[string]Item, len(wanted))
	offset := 0
	for len(found) < len(wanted) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := fetch(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}

		for _, item := range page.Items {
			if _, ok := wanted[item.ID]; ok {
				found[item.ID] = item
			}
		}

		offset += len(page.Items)
		if page.Pagination.Total > 0 && offset >= page.Pagination.Total {
			break
		}
	}

	items := make([]Item, 0, len(found))
	for _, id := range targetIDs {
		if item, ok := found[id]; ok {
			items = append(items, item)
			delete(found, id)
		}
	}
	return items, nil
}
