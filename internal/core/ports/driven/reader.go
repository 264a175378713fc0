package driven

import (
	"context"

	"github.com/loomworks/corpus-cli/internal/core/domain"
)

// Reader converts a raw input into a document.
// Each reader handles the input kinds it supports; a malformed input
// fails that single document without affecting the rest of the batch.
type Reader interface {
	// Name returns the registry name of this reader.
	Name() string

	// Read converts one raw input into a document of the given type.
	// The returned document has Text populated and no chunks.
	Read(ctx context.Context, input domain.RawInput, docType domain.DocumentType) (*domain.Document, error)
}
