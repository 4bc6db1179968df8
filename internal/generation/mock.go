package generation

import (
	"context"
	"fmt"
	"sync"
)

// MockModel is the model name reported by MockGenerator.
const MockModel = "mock"

// MockGenerator returns deterministic alt text without calling a model.
type MockGenerator struct {
	// GenerateFn overrides the default behaviour when set.
	GenerateFn func(ctx context.Context, req Request) (string, error)

	mu    sync.Mutex
	calls []Request
}

var _ Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a MockGenerator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// GenerateAltText records the call and returns canned text.
func (m *MockGenerator) GenerateAltText(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, req)
	}
	if req.ImageURL == "" {
		return "", ErrEmptyImageURL
	}

	name := req.ProjectName
	if name == "" {
		name = "Project"
	}
	return Truncate(fmt.Sprintf("Mock alt text for %s - professionally remodeled space with modern finishes and custom design features.", name), DefaultMaxLength), nil
}

// Model returns MockModel.
func (m *MockGenerator) Model() string {
	return MockModel
}

// Calls returns the requests received so far.
func (m *MockGenerator) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}
