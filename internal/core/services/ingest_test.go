package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomworks/corpus-cli/internal/adapters/driven/store/memory"
	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driven"
	"github.com/loomworks/corpus-cli/internal/core/ports/driving"
)

// ingestFixture wires an ingest service over the in-memory store with
// stub strategies, all pre-selected.
type ingestFixture struct {
	service  *IngestService
	store    *memory.Store
	reader   *stubReader
	chunker  *stubChunker
	embedder *stubEmbedder
}

func newIngestFixture(t *testing.T, opts ...IngestOption) *ingestFixture {
	t.Helper()

	reader := &stubReader{failOn: map[string]error{}}
	chunker := &stubChunker{failOn: map[string]error{}}
	embedder := newStubEmbedder("nomic-embed-text", 4)

	readers := NewRegistry[driven.Reader]("reader")
	readers.Register("stub", reader)
	require.NoError(t, readers.Select("stub"))

	chunkers := NewRegistry[driven.Chunker]("chunker")
	chunkers.Register("stub", chunker)
	require.NoError(t, chunkers.Select("stub"))

	embedders := NewRegistry[driven.Embedder]("embedder")
	embedders.Register("stub", embedder)
	require.NoError(t, embedders.Select("stub"))

	store := memory.NewStore()
	schema := NewSchemaCoordinator(store, embedders)

	base := []IngestOption{
		WithEmbedRate(10000),
		WithEmbedTimeout(time.Second),
	}
	service := NewIngestService(readers, chunkers, embedders, store, schema, append(base, opts...)...)

	return &ingestFixture{
		service:  service,
		store:    store,
		reader:   reader,
		chunker:  chunker,
		embedder: embedder,
	}
}

func textRequest(names ...string) driving.ImportRequest {
	inputs := make([]domain.RawInput, 0, len(names))
	for _, name := range names {
		inputs = append(inputs, domain.TextInput(name, "content of "+name))
	}
	return driving.ImportRequest{
		Inputs:       inputs,
		Type:         domain.DocTypePlain,
		ChunkUnits:   100,
		ChunkOverlap: 50,
	}
}

func TestImportBatchValidation(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	_, err := f.service.ImportBatch(ctx, driving.ImportRequest{
		Type: domain.DocTypePlain, ChunkUnits: 100,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "empty batch")

	req := textRequest("a")
	req.ChunkUnits = 0
	_, err = f.service.ImportBatch(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "zero units")

	req = textRequest("a")
	req.ChunkOverlap = req.ChunkUnits
	_, err = f.service.ImportBatch(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "overlap == units")

	req = textRequest("a")
	req.Type = "pdf"
	_, err = f.service.ImportBatch(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "unknown type")
}

func TestImportBatchRequiresSelectedStrategies(t *testing.T) {
	readers := NewRegistry[driven.Reader]("reader")
	chunkers := NewRegistry[driven.Chunker]("chunker")
	embedders := NewRegistry[driven.Embedder]("embedder")
	store := memory.NewStore()
	schema := NewSchemaCoordinator(store, embedders)
	service := NewIngestService(readers, chunkers, embedders, store, schema)

	_, err := service.ImportBatch(context.Background(), textRequest("a"))
	assert.ErrorIs(t, err, domain.ErrNoStrategySelected)
}

func TestImportBatchHappyPath(t *testing.T) {
	f := newIngestFixture(t)
	f.chunker.chunksPer = 3
	ctx := context.Background()

	result, err := f.service.ImportBatch(ctx, textRequest("alpha", "beta"))
	require.NoError(t, err)

	require.Len(t, result.Documents, 2)
	assert.Empty(t, result.ReadFailures)
	assert.Empty(t, result.ChunkFailures)

	for _, doc := range result.Documents {
		assert.NotEmpty(t, doc.ID)
		require.Len(t, doc.Chunks, 3)
		for _, chunk := range doc.Chunks {
			assert.True(t, chunk.Embedded())
			assert.Equal(t, doc.ID, chunk.DocUUID)
		}
	}

	docCount, err := f.store.CountObjects(ctx, ClassNameFor("nomic-embed-text"))
	require.NoError(t, err)
	assert.Equal(t, 2, docCount)

	chunkCount, err := f.store.CountObjects(ctx, ChunkClassNameFor("nomic-embed-text"))
	require.NoError(t, err)
	assert.Equal(t, 6, chunkCount)
}

func TestImportBatchReadFailureIsNonFatal(t *testing.T) {
	f := newIngestFixture(t)
	f.reader.failOn["beta"] = fmt.Errorf("%w: not valid UTF-8", domain.ErrInvalidInput)
	ctx := context.Background()

	result, err := f.service.ImportBatch(ctx, textRequest("alpha", "beta", "gamma"))
	require.NoError(t, err)

	assert.Len(t, result.Documents, 2)
	require.Len(t, result.ReadFailures, 1)
	assert.Equal(t, "beta", result.ReadFailures[0].Input)
	assert.ErrorIs(t, result.ReadFailures[0].Err, domain.ErrInvalidInput)

	docCount, err := f.store.CountObjects(ctx, ClassNameFor("nomic-embed-text"))
	require.NoError(t, err)
	assert.Equal(t, 2, docCount)
}

func TestImportBatchChunkFailureIsNonFatal(t *testing.T) {
	f := newIngestFixture(t)
	f.chunker.failOn["beta"] = errors.New("degenerate document")

	result, err := f.service.ImportBatch(context.Background(), textRequest("alpha", "beta"))
	require.NoError(t, err)

	assert.Len(t, result.Documents, 1)
	require.Len(t, result.ChunkFailures, 1)
	assert.Equal(t, "beta", result.ChunkFailures[0].Document)
}

func TestImportBatchEmbedFailureFailsBatch(t *testing.T) {
	f := newIngestFixture(t, WithEmbedAttempts(1), WithEmbedWorkers(1))
	f.embedder.failures = 1
	ctx := context.Background()

	_, err := f.service.ImportBatch(ctx, textRequest("alpha"))
	require.Error(t, err)

	var batchErr *domain.BatchError
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.DocumentFailures, 1)
	assert.Equal(t, "alpha", batchErr.DocumentFailures[0].Document)
	assert.ErrorIs(t, err, domain.ErrEmbeddingBackend)
}

func TestImportBatchFailureLeavesEarlierDocuments(t *testing.T) {
	f := newIngestFixture(t, WithEmbedAttempts(1), WithEmbedWorkers(1))
	ctx := context.Background()

	result, err := f.service.ImportBatch(ctx, textRequest("alpha"))
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)

	f.embedder.failures = 1
	_, err = f.service.ImportBatch(ctx, textRequest("beta"))
	require.Error(t, err)

	// The first batch's document survives; no rollback is attempted.
	docCount, countErr := f.store.CountObjects(ctx, ClassNameFor("nomic-embed-text"))
	require.NoError(t, countErr)
	assert.Equal(t, 1, docCount)
}

func TestImportBatchPartialChunkEmbedFailureFailsDocument(t *testing.T) {
	// 10 chunks at batch size 4 means 3 embedding calls; the last one
	// fails. The 8 embedded chunks must not turn into a partial
	// success: the document fails and nothing of it is persisted.
	f := newIngestFixture(t, WithEmbedAttempts(1), WithEmbedBatchSize(4))
	f.chunker.chunksPer = 10
	f.embedder.failOnCall = 3
	ctx := context.Background()

	_, err := f.service.ImportBatch(ctx, textRequest("alpha"))
	require.Error(t, err)

	var batchErr *domain.BatchError
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.DocumentFailures, 1)
	assert.Equal(t, "alpha", batchErr.DocumentFailures[0].Document)

	docCount, countErr := f.store.CountObjects(ctx, ClassNameFor("nomic-embed-text"))
	require.NoError(t, countErr)
	assert.Zero(t, docCount)

	chunkCount, countErr := f.store.CountObjects(ctx, ChunkClassNameFor("nomic-embed-text"))
	require.NoError(t, countErr)
	assert.Zero(t, chunkCount)
}

func TestImportThenFetchRoundTrip(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	req := driving.ImportRequest{
		Inputs:       []domain.RawInput{domain.TextInput("alpha", "content of alpha")},
		Type:         domain.DocTypeMarkdown,
		ChunkUnits:   100,
		ChunkOverlap: 50,
	}
	result, err := f.service.ImportBatch(ctx, req)
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)

	catalog := NewRetrievalService(f.store, f.service.embedders)

	doc, err := catalog.GetDocument(ctx, result.Documents[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "alpha", doc.Name)
	assert.Equal(t, domain.DocTypeMarkdown, doc.Type)
	assert.Equal(t, "content of alpha", doc.Text)
}

func TestImportBatchRetriesEmbedding(t *testing.T) {
	f := newIngestFixture(t, WithEmbedAttempts(3))
	f.embedder.failures = 2

	result, err := f.service.ImportBatch(context.Background(), textRequest("alpha"))
	require.NoError(t, err)
	assert.Len(t, result.Documents, 1)
	assert.Equal(t, 3, f.embedder.callCount())
}

func TestImportBatchRejectsWrongDimensionality(t *testing.T) {
	f := newIngestFixture(t)
	f.embedder.badDims = true

	_, err := f.service.ImportBatch(context.Background(), textRequest("alpha"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingBackend)
}

func TestImportBatchSplitsEmbedCalls(t *testing.T) {
	f := newIngestFixture(t, WithEmbedBatchSize(2))
	f.chunker.chunksPer = 5

	result, err := f.service.ImportBatch(context.Background(), textRequest("alpha"))
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	// 5 chunks at batch size 2 means 3 embedding calls.
	assert.Equal(t, 3, f.embedder.callCount())
}

func TestImportBatchHonoursCancellation(t *testing.T) {
	f := newIngestFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.ImportBatch(ctx, textRequest("alpha"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImportBatchEnsuresSchemaBeforePersist(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	exists, err := f.store.ClassExists(ctx, ChunkClassNameFor("nomic-embed-text"))
	require.NoError(t, err)
	require.False(t, exists)

	_, err = f.service.ImportBatch(ctx, textRequest("alpha"))
	require.NoError(t, err)

	exists, err = f.store.ClassExists(ctx, ChunkClassNameFor("nomic-embed-text"))
	require.NoError(t, err)
	assert.True(t, exists)
}
