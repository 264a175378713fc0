package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driven"
	"github.com/loomworks/corpus-cli/internal/core/ports/driving"
	"github.com/loomworks/corpus-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Catalog = (*RetrievalService)(nil)

// listPageLimit bounds a single ListDocuments call. A single unbounded
// call is a known scaling limit, not a correctness bug; callers
// needing more must paginate.
const listPageLimit = 10000

// RetrievalService is the thin read side over the store, layered on
// the schema coordinator's naming rule.
type RetrievalService struct {
	store     driven.StoreClient
	embedders *Registry[driven.Embedder]
}

// NewRetrievalService creates the retrieval facade.
func NewRetrievalService(store driven.StoreClient, embedders *Registry[driven.Embedder]) *RetrievalService {
	return &RetrievalService{
		store:     store,
		embedders: embedders,
	}
}

// activeClass resolves the active embedder's document class name.
func (s *RetrievalService) activeClass() (string, error) {
	embedder, err := s.embedders.Active()
	if err != nil {
		return "", err
	}
	return ClassNameFor(embedder.VectorizerID()), nil
}

// ListDocuments returns document summaries from the active embedder's
// storage class, bounded by listPageLimit.
func (s *RetrievalService) ListDocuments(ctx context.Context) ([]driving.DocumentSummary, error) {
	class, err := s.activeClass()
	if err != nil {
		return nil, err
	}

	objects, err := s.store.QueryObjects(ctx, class, []string{"doc_name", "doc_type", "doc_link"}, listPageLimit)
	if err != nil {
		// A class that was never created (or was reset away) holds no
		// documents; that is an empty listing, not a failure.
		if errors.Is(err, domain.ErrNotFound) {
			return []driving.DocumentSummary{}, nil
		}
		return nil, fmt.Errorf("query %s: %w", class, err)
	}

	summaries := make([]driving.DocumentSummary, 0, len(objects))
	for _, obj := range objects {
		summaries = append(summaries, driving.DocumentSummary{
			ID:   obj.ID,
			Name: propString(obj, "doc_name"),
			Type: domain.DocumentType(propString(obj, "doc_type")),
			Link: propString(obj, "doc_link"),
		})
	}
	return summaries, nil
}

// GetDocument fetches one document by its store ID.
func (s *RetrievalService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	class, err := s.activeClass()
	if err != nil {
		return nil, err
	}

	obj, err := s.store.GetObjectByID(ctx, class, id)
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		ID:   obj.ID,
		Name: propString(*obj, "doc_name"),
		Type: domain.DocumentType(propString(*obj, "doc_type")),
		Link: propString(*obj, "doc_link"),
		Text: propString(*obj, "text"),
	}
	if ts, err := time.Parse(time.RFC3339, propString(*obj, "timestamp")); err == nil {
		doc.Timestamp = ts
	}
	return doc, nil
}

// DeleteAll removes every storage class. Irreversible.
func (s *RetrievalService) DeleteAll(ctx context.Context) error {
	logger.Warn("Deleting all storage classes")
	return s.store.DeleteAllClasses(ctx)
}

// CountObjectsPerClass enumerates all classes and counts objects in
// each. Administrative use only.
func (s *RetrievalService) CountObjectsPerClass(ctx context.Context) (map[string]int, error) {
	classes, err := s.store.ListClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}

	counts := make(map[string]int, len(classes))
	for _, class := range classes {
		n, err := s.store.CountObjects(ctx, class)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", class, err)
		}
		counts[class] = n
	}
	return counts, nil
}

// propString reads a string property, tolerating absent values.
func propString(obj driven.StoredObject, name string) string {
	if v, ok := obj.Properties[name].(string); ok {
		return v
	}
	return ""
}
