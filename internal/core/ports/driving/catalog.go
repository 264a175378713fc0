package driving

import (
	"context"

	"github.com/loomworks/corpus-cli/internal/core/domain"
)

// DocumentSummary is the read-side listing projection of a document.
type DocumentSummary struct {
	// ID is the store identifier.
	ID string

	// Name is the document name.
	Name string

	// Type is the document type tag.
	Type domain.DocumentType

	// Link is the origin path or URL.
	Link string
}

// Catalog is the thin read-side facade over the document store.
type Catalog interface {
	// ListDocuments returns summaries from the active embedder's
	// storage class, bounded by a fixed page size. Callers needing
	// more must paginate.
	ListDocuments(ctx context.Context) ([]DocumentSummary, error)

	// GetDocument fetches one document by store ID.
	// Returns domain.ErrNotFound if absent.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteAll removes every storage class. Destructive and
	// irreversible; intended for test/reset use.
	DeleteAll(ctx context.Context) error

	// CountObjectsPerClass returns the object count for every
	// existing class. Cost scales with classes times objects;
	// administrative use only.
	CountObjectsPerClass(ctx context.Context) (map[string]int, error)
}
