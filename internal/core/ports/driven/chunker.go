package driven

import (
	"context"

	"github.com/loomworks/corpus-cli/internal/core/domain"
)

// Chunker splits a document's text into overlapping chunks.
// Chunking never drops content: concatenating the chunk spans with the
// overlap trimmed reconstructs the original text. Boundary chunks may
// be shorter than the requested unit count.
type Chunker interface {
	// Name returns the registry name of this chunker.
	Name() string

	// Chunk populates doc.Chunks in source order, with approximately
	// units units per chunk and overlap units shared between
	// consecutive chunks. The document is mutated in place.
	Chunk(ctx context.Context, doc *domain.Document, units, overlap int) error
}
