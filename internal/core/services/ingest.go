package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driven"
	"github.com/loomworks/corpus-cli/internal/core/ports/driving"
	"github.com/loomworks/corpus-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// Default pipeline tuning.
const (
	// DefaultEmbedWorkers bounds concurrent per-document embed work.
	DefaultEmbedWorkers = 4

	// DefaultEmbedRate is the embedding-call rate limit per second.
	DefaultEmbedRate = 5

	// DefaultEmbedTimeout bounds a single embedding call.
	DefaultEmbedTimeout = 60 * time.Second

	// DefaultEmbedAttempts bounds retries per embedding call.
	DefaultEmbedAttempts = 3

	// DefaultEmbedBatchSize is the number of chunk texts per
	// embedding call.
	DefaultEmbedBatchSize = 32

	// retryBackoffBase is the first retry delay; it doubles per attempt.
	retryBackoffBase = 500 * time.Millisecond
)

// IngestService runs the four-stage import pipeline: read, chunk,
// embed, persist. Stages are strictly sequential per batch; the embed
// stage fans out across a bounded worker pool.
type IngestService struct {
	readers   *Registry[driven.Reader]
	chunkers  *Registry[driven.Chunker]
	embedders *Registry[driven.Embedder]
	store     driven.StoreClient
	schema    *SchemaCoordinator

	workers      int
	ratePerSec   float64
	limiter      *rate.Limiter
	embedTimeout time.Duration
	maxAttempts  int
	batchSize    int
}

// IngestOption configures the ingest service.
type IngestOption func(*IngestService)

// WithEmbedWorkers sets the embed-stage worker pool size.
func WithEmbedWorkers(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithEmbedRate sets the embedding-call rate limit per second.
// Uncontrolled fan-out against a third-party API is the principal
// resource-exhaustion risk, so the limit is never unlimited.
func WithEmbedRate(perSecond float64) IngestOption {
	return func(s *IngestService) {
		if perSecond > 0 {
			s.ratePerSec = perSecond
		}
	}
}

// WithEmbedTimeout sets the per-call embedding timeout.
func WithEmbedTimeout(d time.Duration) IngestOption {
	return func(s *IngestService) {
		if d > 0 {
			s.embedTimeout = d
		}
	}
}

// WithEmbedAttempts sets the bounded retry count per embedding call.
func WithEmbedAttempts(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithEmbedBatchSize sets the number of chunk texts per embedding call.
func WithEmbedBatchSize(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewIngestService creates the pipeline service.
func NewIngestService(
	readers *Registry[driven.Reader],
	chunkers *Registry[driven.Chunker],
	embedders *Registry[driven.Embedder],
	store driven.StoreClient,
	schema *SchemaCoordinator,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		readers:      readers,
		chunkers:     chunkers,
		embedders:    embedders,
		store:        store,
		schema:       schema,
		workers:      DefaultEmbedWorkers,
		ratePerSec:   DefaultEmbedRate,
		embedTimeout: DefaultEmbedTimeout,
		maxAttempts:  DefaultEmbedAttempts,
		batchSize:    DefaultEmbedBatchSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Burst tracks the pool size so a full fan-out can start without
	// exceeding the sustained rate.
	s.limiter = rate.NewLimiter(rate.Limit(s.ratePerSec), s.workers)

	return s
}

// ImportBatch runs the pipeline over a batch of inputs.
//
// Read and chunk failures are recorded per unit and do not fail the
// batch. Any embed/persist failure fails the whole batch with a
// *domain.BatchError; documents persisted before the failure remain in
// the store (at-least-once, no rollback).
func (s *IngestService) ImportBatch(ctx context.Context, req driving.ImportRequest) (*domain.ImportResult, error) {
	if len(req.Inputs) == 0 {
		return nil, fmt.Errorf("%w: empty batch", domain.ErrInvalidInput)
	}
	if req.ChunkUnits <= 0 {
		return nil, fmt.Errorf("%w: chunk units must be positive", domain.ErrInvalidInput)
	}
	if req.ChunkOverlap < 0 || req.ChunkOverlap >= req.ChunkUnits {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, units)", domain.ErrInvalidInput)
	}
	if _, err := domain.ParseDocumentType(string(req.Type)); err != nil {
		return nil, err
	}

	reader, err := s.readers.Active()
	if err != nil {
		return nil, err
	}
	chunker, err := s.chunkers.Active()
	if err != nil {
		return nil, err
	}
	embedder, err := s.embedders.Active()
	if err != nil {
		return nil, err
	}

	logger.Info("Importing batch of %d input(s) (reader=%s chunker=%s embedder=%s)",
		len(req.Inputs), reader.Name(), chunker.Name(), embedder.Name())

	// 1. READ. Per-input failures are recorded, not fatal.
	docs, readFails := s.readStage(ctx, reader, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2. CHUNK. Per-document failures are recorded, not fatal.
	docs, chunkFails := s.chunkStage(ctx, chunker, docs, req.ChunkUnits, req.ChunkOverlap)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3. EMBED + PERSIST. The schema guarantee must hold before any
	// write targets the vectorizer's classes.
	if err := s.schema.EnsureSchema(ctx, embedder.VectorizerID(), embedder.Dimensions(), false); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	docFails := s.embedStage(ctx, embedder, docs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 4. RESULT. Any embed-stage failure fails the batch.
	if len(docFails) > 0 {
		return nil, &domain.BatchError{
			ReadFailures:     readFails,
			ChunkFailures:    chunkFails,
			DocumentFailures: docFails,
		}
	}

	logger.Info("Batch complete: %d document(s), %d read failure(s), %d chunk failure(s)",
		len(docs), len(readFails), len(chunkFails))

	return &domain.ImportResult{
		Documents:     docs,
		ReadFailures:  readFails,
		ChunkFailures: chunkFails,
	}, nil
}

// readStage converts inputs into documents, accumulating per-input
// failures without aborting the batch.
func (s *IngestService) readStage(ctx context.Context, reader driven.Reader, req driving.ImportRequest) ([]*domain.Document, []domain.ReadFailure) {
	docs := make([]*domain.Document, 0, len(req.Inputs))
	var fails []domain.ReadFailure

	for _, input := range req.Inputs {
		doc, err := reader.Read(ctx, input, req.Type)
		if err != nil {
			logger.Debug("Read failed for %s: %v", input.DisplayName(), err)
			fails = append(fails, domain.ReadFailure{Input: input.DisplayName(), Err: err})
			continue
		}
		docs = append(docs, doc)
	}

	return docs, fails
}

// chunkStage splits each surviving document, accumulating per-document
// failures without aborting the batch.
func (s *IngestService) chunkStage(ctx context.Context, chunker driven.Chunker, docs []*domain.Document, units, overlap int) ([]*domain.Document, []domain.DocumentFailure) {
	survivors := make([]*domain.Document, 0, len(docs))
	var fails []domain.DocumentFailure

	for _, doc := range docs {
		if err := chunker.Chunk(ctx, doc, units, overlap); err != nil {
			logger.Debug("Chunking failed for %s: %v", doc.Name, err)
			fails = append(fails, domain.DocumentFailure{Document: doc.Name, Err: err})
			continue
		}
		survivors = append(survivors, doc)
	}

	return survivors, fails
}

// embedStage embeds and persists each document across a bounded worker
// pool. A document is persisted only after every chunk holds a vector,
// so cancellation never leaves a half-written chunk.
func (s *IngestService) embedStage(ctx context.Context, embedder driven.Embedder, docs []*domain.Document) []domain.DocumentFailure {
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var fails []domain.DocumentFailure

	for _, doc := range docs {
		wg.Add(1)
		go func(doc *domain.Document) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := s.embedAndPersist(ctx, embedder, doc); err != nil {
				mu.Lock()
				fails = append(fails, domain.DocumentFailure{Document: doc.Name, Err: err})
				mu.Unlock()
			}
		}(doc)
	}
	wg.Wait()

	return fails
}

// embedAndPersist attaches a vector to every chunk of one document,
// then writes the document and its chunks to the store.
func (s *IngestService) embedAndPersist(ctx context.Context, embedder driven.Embedder, doc *domain.Document) error {
	for start := 0; start < len(doc.Chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(doc.Chunks) {
			end = len(doc.Chunks)
		}

		texts := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			texts = append(texts, doc.Chunks[i].Text)
		}

		vectors, err := s.embedWithRetry(ctx, embedder, texts)
		if err != nil {
			return fmt.Errorf("embed chunks [%d,%d): %w", start, end, err)
		}

		for i, vec := range vectors {
			if len(vec) != embedder.Dimensions() {
				return fmt.Errorf("%w: got %d-dimensional vector, want %d",
					domain.ErrEmbeddingBackend, len(vec), embedder.Dimensions())
			}
			doc.Chunks[start+i].Vector = vec
		}
	}

	return s.persistDocument(ctx, embedder.VectorizerID(), doc)
}

// embedWithRetry calls the embedding backend with the rate limit, a
// per-call timeout and bounded exponential backoff. On exhaustion the
// error wraps domain.ErrEmbeddingBackend.
func (s *IngestService) embedWithRetry(ctx context.Context, embedder driven.Embedder, texts []string) ([][]float32, error) {
	var lastErr error

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := retryBackoffBase << (attempt - 1)
			logger.Debug("Retrying embedding call in %s (attempt %d/%d)", backoff, attempt+1, s.maxAttempts)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		callCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
		vectors, err := embedder.EmbedBatch(callCtx, texts)
		cancel()

		if err == nil {
			if len(vectors) != len(texts) {
				return nil, fmt.Errorf("%w: got %d vectors for %d texts",
					domain.ErrEmbeddingBackend, len(vectors), len(texts))
			}
			return vectors, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w: %d attempt(s) exhausted: %w", domain.ErrEmbeddingBackend, s.maxAttempts, lastErr)
}

// persistDocument writes the document object and its chunk objects
// into the vectorizer's classes. The store assigns the document ID.
func (s *IngestService) persistDocument(ctx context.Context, vectorizerID string, doc *domain.Document) error {
	ids, err := s.store.UpsertObjects(ctx, ClassNameFor(vectorizerID), []driven.StoredObject{{
		Properties: map[string]any{
			"text":      doc.Text,
			"doc_name":  doc.Name,
			"doc_type":  string(doc.Type),
			"doc_link":  doc.Link,
			"timestamp": doc.Timestamp.UTC().Format(time.RFC3339),
		},
	}})
	if err != nil {
		return fmt.Errorf("persist document: %w", err)
	}
	doc.ID = ids[0]

	if len(doc.Chunks) == 0 {
		return nil
	}

	objects := make([]driven.StoredObject, 0, len(doc.Chunks))
	for i := range doc.Chunks {
		doc.Chunks[i].DocUUID = doc.ID
		objects = append(objects, driven.StoredObject{
			Properties: map[string]any{
				"text":     doc.Chunks[i].Text,
				"doc_name": doc.Chunks[i].DocName,
				"doc_type": string(doc.Chunks[i].DocType),
				"doc_uuid": doc.Chunks[i].DocUUID,
				"chunk_id": doc.Chunks[i].Index,
			},
			Vector: doc.Chunks[i].Vector,
		})
	}

	if _, err := s.store.UpsertObjects(ctx, ChunkClassNameFor(vectorizerID), objects); err != nil {
		return fmt.Errorf("persist chunks: %w", err)
	}

	logger.Debug("Persisted %s (%d chunk(s)) as %s", doc.Name, len(doc.Chunks), doc.ID)
	return nil
}
