package webflow

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
)

// MockClient serves an in-memory collection. It is used when no API token
// is configured and by tests.
type MockClient struct {
	mu      sync.Mutex
	items   []Item
	updates []Update
	closed  bool
	logger  *slog.Logger

	// FailItems makes UpdateItem fail for the listed item ids.
	FailItems map[string]error
	// ListErr, when set, is returned by GetCollectionItems.
	ListErr error
}

// Update records one UpdateItem call on a MockClient.
type Update struct {
	CollectionID string
	ItemID       string
	FieldData    map[string]any
}

var _ Client = (*MockClient)(nil)

// NewMockClient returns a mock holding the given items, or a small canned
// collection when none are given.
func NewMockClient(logger *slog.Logger, items ...Item) *MockClient {
	if logger == nil {
		logger = slog.Default()
	}
	if len(items) == 0 {
		items = sampleItems()
	}
	return &MockClient{
		items:  items,
		logger: logger.With("component", "webflow_mock"),
	}
}

// GetCollectionItems returns one window of the in-memory collection.
func (m *MockClient) GetCollectionItems(ctx context.Context, collectionID string, limit, offset int) (*ItemsPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}

	total := len(m.items)
	start := min(offset, total)
	end := min(start+limit, total)

	page := make([]Item, 0, end-start)
	for _, item := range m.items[start:end] {
		page = append(page, copyItem(item))
	}
	return &ItemsPage{
		Items:      page,
		Pagination: Pagination{Limit: limit, Offset: offset, Total: total},
	}, nil
}

// GetAllCollectionItems pages through the in-memory collection.
func (m *MockClient) GetAllCollectionItems(ctx context.Context, collectionID string, targetIDs []string) ([]Item, error) {
	return collectTargets(ctx, targetIDs, DefaultPageSize,
		func(ctx context.Context, limit, offset int) (*ItemsPage, error) {
			return m.GetCollectionItems(ctx, collectionID, limit, offset)
		})
}

// UpdateItem merges fieldData into the stored item and records the call.
func (m *MockClient) UpdateItem(ctx context.Context, collectionID, itemID string, fieldData map[string]any) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updates = append(m.updates, Update{
		CollectionID: collectionID,
		ItemID:       itemID,
		FieldData:    maps.Clone(fieldData),
	})

	if err, ok := m.FailItems[itemID]; ok {
		return nil, err
	}

	for i := range m.items {
		if m.items[i].ID != itemID {
			continue
		}
		if m.items[i].FieldData == nil {
			m.items[i].FieldData = map[string]any{}
		}
		maps.Copy(m.items[i].FieldData, fieldData)
		m.logger.InfoContext(ctx, "mock item updated",
			"collection_id", collectionID,
			"item_id", itemID,
			"field_count", len(fieldData))
		item := copyItem(m.items[i])
		return &item, nil
	}
	return nil, &APIError{StatusCode: 404, Message: fmt.Sprintf("item %s not found", itemID)}
}

// Close marks the mock closed.
func (m *MockClient) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Closed reports whether Close has been called.
func (m *MockClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Updates returns the UpdateItem calls received so far.
func (m *MockClient) Updates() []Update {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Update(nil), m.updates...)
}

func copyItem(item Item) Item {
	return Item{ID: item.ID, FieldData: maps.Clone(item.FieldData)}
}

func sampleItems() []Item {
	return []Item{
		{
			ID: "item_001",
			FieldData: map[string]any{
				"name":             "Test Project 1",
				"slug":             "test-project-1",
				"1-after":          map[string]any{"url": "https://example.com/image1.jpg"},
				"1-after-alt-text": "Old alt text",
				"2-after":          map[string]any{"url": "https://example.com/image2.jpg"},
			},
		},
		{
			ID: "item_002",
			FieldData: map[string]any{
				"name":    "Test Project 2",
				"slug":    "test-project-2",
				"1-after": map[string]any{"url": "https://example.com/image3.jpg"},
			},
		},
	}
}
