// Package word provides a chunker that windows documents by words.
package word

import (
	"context"
	"fmt"
	"strings"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// Chunker splits a document into overlapping windows of whitespace
// separated words. With units=100 and overlap=50 the windows start at
// 0, 50, 100, ... so every word except the edges appears in exactly
// two chunks.
type Chunker struct{}

// New creates a new word chunker.
func New() *Chunker {
	return &Chunker{}
}

// Name returns the registry name of this chunker.
func (c *Chunker) Name() string {
	return "word"
}

// Chunk populates doc.Chunks in source order. The final window may be
// shorter than units; a document shorter than one window becomes a
// single chunk.
func (c *Chunker) Chunk(_ context.Context, doc *domain.Document, units, overlap int) error {
	if units <= 0 {
		return fmt.Errorf("%w: units must be positive, got %d", domain.ErrInvalidInput, units)
	}
	if overlap < 0 || overlap >= units {
		return fmt.Errorf("%w: overlap %d must be in [0, units)", domain.ErrInvalidInput, overlap)
	}

	words := strings.Fields(doc.Text)
	if len(words) == 0 {
		doc.Chunks = nil
		return nil
	}

	stride := units - overlap
	chunks := make([]domain.Chunk, 0, len(words)/stride+1)

	for start := 0; start < len(words); start += stride {
		end := start + units
		if end > len(words) {
			end = len(words)
		}

		chunks = append(chunks, domain.Chunk{
			Text:    strings.Join(words[start:end], " "),
			DocName: doc.Name,
			DocType: doc.Type,
			Index:   len(chunks),
			Start:   start,
			End:     end,
		})

		// The last window reaching the end of the document stops the
		// walk; a further window would only repeat covered words.
		if end == len(words) {
			break
		}
	}

	doc.Chunks = chunks
	return nil
}
