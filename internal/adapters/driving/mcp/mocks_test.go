package mcp

import (
	"context"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driving"
)

// mockCatalog is a programmable Catalog implementation.
type mockCatalog struct {
	docs   []driving.DocumentSummary
	byID   map[string]*domain.Document
	err    error
	counts map[string]int
}

var _ driving.Catalog = (*mockCatalog)(nil)

func (m *mockCatalog) ListDocuments(context.Context) ([]driving.DocumentSummary, error) {
	return m.docs, m.err
}

func (m *mockCatalog) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	doc, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *mockCatalog) DeleteAll(context.Context) error {
	return m.err
}

func (m *mockCatalog) CountObjectsPerClass(context.Context) (map[string]int, error) {
	return m.counts, m.err
}

// mockIngestor is a programmable Ingestor implementation.
type mockIngestor struct {
	result  *domain.ImportResult
	err     error
	lastReq driving.ImportRequest
}

var _ driving.Ingestor = (*mockIngestor)(nil)

func (m *mockIngestor) ImportBatch(_ context.Context, req driving.ImportRequest) (*domain.ImportResult, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}
