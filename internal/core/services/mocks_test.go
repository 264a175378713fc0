package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/loomworks/corpus-cli/internal/core/domain"
)

// stubReader turns text and bytes inputs into documents verbatim and
// fails inputs whose name matches failOn.
type stubReader struct {
	failOn map[string]error
}

func (r *stubReader) Name() string { return "stub" }

func (r *stubReader) Read(_ context.Context, input domain.RawInput, docType domain.DocumentType) (*domain.Document, error) {
	if err, ok := r.failOn[input.DisplayName()]; ok {
		return nil, err
	}

	text := input.Text
	if input.Kind == domain.InputBytes {
		text = string(input.Data)
	}
	return &domain.Document{
		Name:      input.DisplayName(),
		Type:      docType,
		Text:      text,
		Timestamp: time.Now(),
	}, nil
}

// stubChunker produces one chunk per whitespace-free word slice of
// exactly units words, ignoring overlap. failOn fails named documents.
type stubChunker struct {
	failOn map[string]error
	// chunksPer fixes the number of chunks per document. Zero means one.
	chunksPer int
}

func (c *stubChunker) Name() string { return "stub" }

func (c *stubChunker) Chunk(_ context.Context, doc *domain.Document, units, overlap int) error {
	if err, ok := c.failOn[doc.Name]; ok {
		return err
	}

	n := c.chunksPer
	if n <= 0 {
		n = 1
	}
	doc.Chunks = make([]domain.Chunk, 0, n)
	for i := 0; i < n; i++ {
		doc.Chunks = append(doc.Chunks, domain.Chunk{
			Text:    fmt.Sprintf("%s [%d]", doc.Text, i),
			DocName: doc.Name,
			DocType: doc.Type,
			Index:   i,
			Start:   i * (units - overlap),
			End:     i*(units-overlap) + units,
		})
	}
	return nil
}

// stubEmbedder returns constant vectors of a fixed dimensionality and
// can be programmed to fail the first failures calls.
type stubEmbedder struct {
	mu       sync.Mutex
	id       string
	dims     int
	failures int
	calls    int
	// failOnCall fails exactly the Nth call (1-based) when non-zero.
	failOnCall int
	// badDims makes every returned vector the wrong size.
	badDims bool
}

func newStubEmbedder(id string, dims int) *stubEmbedder {
	return &stubEmbedder{id: id, dims: dims}
}

func (e *stubEmbedder) Name() string         { return e.id }
func (e *stubEmbedder) VectorizerID() string { return e.id }
func (e *stubEmbedder) Dimensions() int      { return e.dims }

func (e *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls++
	if e.failures > 0 {
		e.failures--
		return nil, fmt.Errorf("backend unavailable")
	}
	if e.failOnCall != 0 && e.calls == e.failOnCall {
		return nil, fmt.Errorf("backend timeout")
	}

	dims := e.dims
	if e.badDims {
		dims++
	}
	vectors := make([][]float32, 0, len(texts))
	for range texts {
		vec := make([]float32, dims)
		for i := range vec {
			vec[i] = 0.5
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

func (e *stubEmbedder) Ping(context.Context) error { return nil }

func (e *stubEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
