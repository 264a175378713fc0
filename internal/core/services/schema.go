package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driven"
	"github.com/loomworks/corpus-cli/internal/logger"
)

// Class name prefixes. Every component that names a class goes through
// ClassNameFor/ChunkClassNameFor so reader and writer agree.
const (
	documentClassPrefix = "Document_"
	chunkClassPrefix    = "Chunk_"
)

// StripNonLetters removes every character that is not an ASCII letter,
// preserving case and order. It is the sanitisation rule of the class
// naming contract.
func StripNonLetters(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ClassNameFor returns the document class name for a vectorizer.
// Pure and deterministic.
func ClassNameFor(vectorizerID string) string {
	return documentClassPrefix + StripNonLetters(vectorizerID)
}

// ChunkClassNameFor returns the chunk class name for a vectorizer.
// Chunk objects carry the vectors; the document class holds metadata.
func ChunkClassNameFor(vectorizerID string) string {
	return chunkClassPrefix + StripNonLetters(vectorizerID)
}

// documentClassSchema is the property layout of a document class.
func documentClassSchema(vectorizerID string) driven.ClassSchema {
	return driven.ClassSchema{
		Class:       ClassNameFor(vectorizerID),
		Description: "Document metadata for vectorizer " + vectorizerID,
		Vectorizer:  vectorizerID,
		Properties: []driven.Property{
			{Name: "text", DataType: "text", Description: "Full document content"},
			{Name: "doc_name", DataType: "text", Description: "Document name"},
			{Name: "doc_type", DataType: "text", Description: "Document type"},
			{Name: "doc_link", DataType: "text", Description: "Origin path or URL"},
			{Name: "timestamp", DataType: "date", Description: "Ingestion time"},
		},
	}
}

// chunkClassSchema is the property layout of a chunk class, including
// the vector field sized to the embedder.
func chunkClassSchema(vectorizerID string, dimensions int) driven.ClassSchema {
	return driven.ClassSchema{
		Class:            ChunkClassNameFor(vectorizerID),
		Description:      "Chunks for vectorizer " + vectorizerID,
		Vectorizer:       vectorizerID,
		VectorDimensions: dimensions,
		Properties: []driven.Property{
			{Name: "text", DataType: "text", Description: "Chunk content"},
			{Name: "doc_name", DataType: "text", Description: "Document name"},
			{Name: "doc_type", DataType: "text", Description: "Document type"},
			{Name: "doc_uuid", DataType: "text", Description: "Parent document ID"},
			{Name: "chunk_id", DataType: "int", Description: "Position within the document"},
		},
	}
}

// SchemaCoordinator guarantees that the storage classes for a
// vectorizer exist with the correct layout before any write targets
// them. Creation is idempotent: an existing class is success, never a
// conflict, including under concurrent first-use.
type SchemaCoordinator struct {
	store     driven.StoreClient
	embedders *Registry[driven.Embedder]

	// mu guards locks; each class pair gets its own mutex so
	// concurrent EnsureSchema calls for the same vectorizer serialise
	// without blocking other vectorizers.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSchemaCoordinator creates a schema coordinator. The embedder
// registry supplies the closed set of known vectorizers.
func NewSchemaCoordinator(store driven.StoreClient, embedders *Registry[driven.Embedder]) *SchemaCoordinator {
	return &SchemaCoordinator{
		store:     store,
		embedders: embedders,
		locks:     make(map[string]*sync.Mutex),
	}
}

// lockFor returns the per-vectorizer mutex, creating it on first use.
func (c *SchemaCoordinator) lockFor(vectorizerID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.locks[vectorizerID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[vectorizerID] = l
	}
	return l
}

// EnsureSchema makes sure both classes for a vectorizer exist.
// Safe to call repeatedly and concurrently for the same vectorizer:
// the second caller observes "already exists" as success. With
// forceRecreate the classes are dropped and recreated.
func (c *SchemaCoordinator) EnsureSchema(ctx context.Context, vectorizerID string, dimensions int, forceRecreate bool) error {
	l := c.lockFor(vectorizerID)
	l.Lock()
	defer l.Unlock()

	schemas := []driven.ClassSchema{
		documentClassSchema(vectorizerID),
		chunkClassSchema(vectorizerID, dimensions),
	}

	for _, schema := range schemas {
		if err := c.ensureClass(ctx, schema, forceRecreate); err != nil {
			return fmt.Errorf("ensure class %s: %w", schema.Class, err)
		}
	}
	return nil
}

// ensureClass creates one class if absent, verifying the layout when
// it already exists.
func (c *SchemaCoordinator) ensureClass(ctx context.Context, schema driven.ClassSchema, forceRecreate bool) error {
	exists, err := c.store.ClassExists(ctx, schema.Class)
	if err != nil {
		return fmt.Errorf("check existence: %w", err)
	}

	if exists && forceRecreate {
		logger.Info("Recreating class %s", schema.Class)
		if err := c.store.DeleteClass(ctx, schema.Class); err != nil {
			return fmt.Errorf("delete for recreate: %w", err)
		}
		exists = false
	}

	if exists {
		return c.verifyLayout(ctx, schema)
	}

	logger.Debug("Creating class %s", schema.Class)
	if err := c.store.CreateClass(ctx, schema); err != nil {
		// A concurrent creator may have won the race; that is success.
		if errors.Is(err, domain.ErrAlreadyExists) {
			return c.verifyLayout(ctx, schema)
		}
		return fmt.Errorf("create: %w", err)
	}
	return nil
}

// verifyLayout compares the stored class layout against the requested
// one. A mismatch is a schema conflict for this vectorizer only.
func (c *SchemaCoordinator) verifyLayout(ctx context.Context, want driven.ClassSchema) error {
	got, err := c.store.GetClass(ctx, want.Class)
	if err != nil {
		return fmt.Errorf("get class: %w", err)
	}

	if got.VectorDimensions != 0 && want.VectorDimensions != 0 &&
		got.VectorDimensions != want.VectorDimensions {
		return fmt.Errorf("%w: class %s has %d vector dimensions, want %d",
			domain.ErrSchemaConflict, want.Class, got.VectorDimensions, want.VectorDimensions)
	}

	have := make(map[string]bool, len(got.Properties))
	for _, p := range got.Properties {
		have[p.Name] = true
	}
	for _, p := range want.Properties {
		if !have[p.Name] {
			return fmt.Errorf("%w: class %s is missing property %q",
				domain.ErrSchemaConflict, want.Class, p.Name)
		}
	}
	return nil
}

// EnsureAllKnownSchemas runs EnsureSchema for every registered
// embedding backend, accumulating per-vectorizer failures instead of
// aborting on the first one.
func (c *SchemaCoordinator) EnsureAllKnownSchemas(ctx context.Context) error {
	var errs []error
	for name, emb := range c.embedders.Available() {
		if err := c.EnsureSchema(ctx, emb.VectorizerID(), emb.Dimensions(), false); err != nil {
			errs = append(errs, fmt.Errorf("vectorizer %s (%s): %w", emb.VectorizerID(), name, err))
			continue
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
