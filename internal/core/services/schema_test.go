package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomworks/corpus-cli/internal/adapters/driven/store/memory"
	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driven"
)

func TestStripNonLetters(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"text2vec-openai", "textvecopenai"},
		{"nomic-embed-text", "nomicembedtext"},
		{"all-minilm:v2", "allminilmv"},
		{"ABCdef", "ABCdef"},
		{"123-_.", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripNonLetters(tt.in), "input %q", tt.in)
	}
}

func TestClassNaming(t *testing.T) {
	assert.Equal(t, "Document_textvecopenai", ClassNameFor("text2vec-openai"))
	assert.Equal(t, "Chunk_textvecopenai", ChunkClassNameFor("text2vec-openai"))

	// Distinct vectorizers with identical letter sequences collide by
	// construction; the naming rule is deterministic either way.
	assert.Equal(t, ClassNameFor("abc-123"), ClassNameFor("a1b2c3"))
}

func newTestCoordinator(store driven.StoreClient, embs ...driven.Embedder) *SchemaCoordinator {
	registry := NewRegistry[driven.Embedder]("embedder")
	for _, e := range embs {
		registry.Register(e.Name(), e)
	}
	return NewSchemaCoordinator(store, registry)
}

func TestEnsureSchemaCreatesBothClasses(t *testing.T) {
	store := memory.NewStore()
	coord := newTestCoordinator(store)
	ctx := context.Background()

	require.NoError(t, coord.EnsureSchema(ctx, "nomic-embed-text", 768, false))

	classes, err := store.ListClasses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Chunk_nomicembedtext", "Document_nomicembedtext"}, classes)

	chunkClass, err := store.GetClass(ctx, "Chunk_nomicembedtext")
	require.NoError(t, err)
	assert.Equal(t, 768, chunkClass.VectorDimensions)
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	coord := newTestCoordinator(store)
	ctx := context.Background()

	require.NoError(t, coord.EnsureSchema(ctx, "text2vec-openai", 1536, false))
	require.NoError(t, coord.EnsureSchema(ctx, "text2vec-openai", 1536, false))

	classes, err := store.ListClasses(ctx)
	require.NoError(t, err)
	assert.Len(t, classes, 2)
}

func TestEnsureSchemaConcurrent(t *testing.T) {
	store := memory.NewStore()
	coord := newTestCoordinator(store)
	ctx := context.Background()

	const goroutines = 16
	var wg sync.WaitGroup
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = coord.EnsureSchema(ctx, "nomic-embed-text", 768, false)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "goroutine %d", i)
	}

	classes, err := store.ListClasses(ctx)
	require.NoError(t, err)
	assert.Len(t, classes, 2)
}

func TestEnsureSchemaDimensionConflict(t *testing.T) {
	store := memory.NewStore()
	coord := newTestCoordinator(store)
	ctx := context.Background()

	require.NoError(t, coord.EnsureSchema(ctx, "nomic-embed-text", 768, false))

	err := coord.EnsureSchema(ctx, "nomic-embed-text", 384, false)
	require.ErrorIs(t, err, domain.ErrSchemaConflict)
}

func TestEnsureSchemaMissingPropertyConflict(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	// A pre-existing class without the required properties is a layout
	// conflict, not a silent success.
	require.NoError(t, store.CreateClass(ctx, driven.ClassSchema{
		Class:      ClassNameFor("nomic-embed-text"),
		Vectorizer: "nomic-embed-text",
		Properties: []driven.Property{{Name: "text", DataType: "text"}},
	}))

	coord := newTestCoordinator(store)
	err := coord.EnsureSchema(ctx, "nomic-embed-text", 768, false)
	require.ErrorIs(t, err, domain.ErrSchemaConflict)
	assert.Contains(t, err.Error(), "doc_name")
}

func TestEnsureSchemaForceRecreate(t *testing.T) {
	store := memory.NewStore()
	coord := newTestCoordinator(store)
	ctx := context.Background()

	require.NoError(t, coord.EnsureSchema(ctx, "nomic-embed-text", 768, false))

	// Seed an object, then force; the recreated class must be empty.
	_, err := store.UpsertObjects(ctx, ClassNameFor("nomic-embed-text"), []driven.StoredObject{
		{Properties: map[string]any{"doc_name": "stale"}},
	})
	require.NoError(t, err)

	require.NoError(t, coord.EnsureSchema(ctx, "nomic-embed-text", 768, true))

	n, err := store.CountObjects(ctx, ClassNameFor("nomic-embed-text"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEnsureSchemaForceResolvesDimensionChange(t *testing.T) {
	store := memory.NewStore()
	coord := newTestCoordinator(store)
	ctx := context.Background()

	require.NoError(t, coord.EnsureSchema(ctx, "nomic-embed-text", 768, false))
	require.NoError(t, coord.EnsureSchema(ctx, "nomic-embed-text", 384, true))

	chunkClass, err := store.GetClass(ctx, ChunkClassNameFor("nomic-embed-text"))
	require.NoError(t, err)
	assert.Equal(t, 384, chunkClass.VectorDimensions)
}

func TestEnsureAllKnownSchemas(t *testing.T) {
	store := memory.NewStore()
	coord := newTestCoordinator(store,
		newStubEmbedder("text2vec-openai", 1536),
		newStubEmbedder("nomic-embed-text", 768),
	)

	require.NoError(t, coord.EnsureAllKnownSchemas(context.Background()))

	classes, err := store.ListClasses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Chunk_nomicembedtext", "Chunk_textvecopenai",
		"Document_nomicembedtext", "Document_textvecopenai",
	}, classes)
}

func TestEnsureAllKnownSchemasAccumulatesFailures(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	// One vectorizer has a conflicting pre-existing layout; the other
	// must still be ensured.
	require.NoError(t, store.CreateClass(ctx, driven.ClassSchema{
		Class:      ClassNameFor("nomic-embed-text"),
		Vectorizer: "nomic-embed-text",
		Properties: []driven.Property{{Name: "wrong", DataType: "text"}},
	}))

	coord := newTestCoordinator(store,
		newStubEmbedder("nomic-embed-text", 768),
		newStubEmbedder("text2vec-openai", 1536),
	)

	err := coord.EnsureAllKnownSchemas(ctx)
	require.ErrorIs(t, err, domain.ErrSchemaConflict)

	exists, lookupErr := store.ClassExists(ctx, ClassNameFor("text2vec-openai"))
	require.NoError(t, lookupErr)
	assert.True(t, exists)
}
