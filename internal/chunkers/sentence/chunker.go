// Package sentence provides a chunker that windows documents by
// sentences.
package sentence

import (
	"context"
	"fmt"
	"strings"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// Chunker splits a document into overlapping windows of sentences.
// Sentence boundaries are terminal punctuation followed by whitespace;
// this is deliberately simple and language-naive.
type Chunker struct{}

// New creates a new sentence chunker.
func New() *Chunker {
	return &Chunker{}
}

// Name returns the registry name of this chunker.
func (c *Chunker) Name() string {
	return "sentence"
}

// Chunk populates doc.Chunks in source order, same windowing rule as
// the word chunker but with sentences as the unit.
func (c *Chunker) Chunk(_ context.Context, doc *domain.Document, units, overlap int) error {
	if units <= 0 {
		return fmt.Errorf("%w: units must be positive, got %d", domain.ErrInvalidInput, units)
	}
	if overlap < 0 || overlap >= units {
		return fmt.Errorf("%w: overlap %d must be in [0, units)", domain.ErrInvalidInput, overlap)
	}

	sentences := splitSentences(doc.Text)
	if len(sentences) == 0 {
		doc.Chunks = nil
		return nil
	}

	stride := units - overlap
	chunks := make([]domain.Chunk, 0, len(sentences)/stride+1)

	for start := 0; start < len(sentences); start += stride {
		end := start + units
		if end > len(sentences) {
			end = len(sentences)
		}

		chunks = append(chunks, domain.Chunk{
			Text:    strings.Join(sentences[start:end], " "),
			DocName: doc.Name,
			DocType: doc.Type,
			Index:   len(chunks),
			Start:   start,
			End:     end,
		})

		if end == len(sentences) {
			break
		}
	}

	doc.Chunks = chunks
	return nil
}

// splitSentences breaks text on terminal punctuation. Trailing text
// without punctuation still counts as a sentence.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		b.WriteRune(runes[i])

		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			// Only break when punctuation ends the text or precedes
			// whitespace, so "3.14" stays together.
			if i+1 == len(runes) || isSpace(runes[i+1]) {
				if s := strings.TrimSpace(b.String()); s != "" {
					sentences = append(sentences, s)
				}
				b.Reset()
			}
		}
	}

	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// isSpace reports whether r is ASCII whitespace.
func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
