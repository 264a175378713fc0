package embedded

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func chunkClass() driven.ClassSchema {
	return driven.ClassSchema{
		Class:            "Chunk_test",
		Description:      "test chunks",
		Vectorizer:       "test",
		VectorDimensions: 4,
		Properties: []driven.Property{
			{Name: "text", DataType: "text"},
			{Name: "chunk_id", DataType: "int"},
		},
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.CreateClass(ctx, chunkClass()))
	_, err = store.UpsertObjects(ctx, "Chunk_test", []driven.StoredObject{
		{ID: "c1", Properties: map[string]any{"text": "hello"}},
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopen: migrations are already applied, data survives.
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	obj, err := store.GetObjectByID(ctx, "Chunk_test", "c1")
	require.NoError(t, err)
	assert.Equal(t, "hello", obj.Properties["text"])
}

func TestCreateClassConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateClass(ctx, chunkClass()))
	assert.ErrorIs(t, store.CreateClass(ctx, chunkClass()), domain.ErrAlreadyExists)
}

func TestGetClassRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateClass(ctx, chunkClass()))

	got, err := store.GetClass(ctx, "Chunk_test")
	require.NoError(t, err)
	assert.Equal(t, "Chunk_test", got.Class)
	assert.Equal(t, "test", got.Vectorizer)
	assert.Equal(t, 4, got.VectorDimensions)
	require.Len(t, got.Properties, 2)
	assert.Equal(t, "text", got.Properties[0].Name)

	_, err = store.GetClass(ctx, "Missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVectorRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateClass(ctx, chunkClass()))

	vector := []float32{0.25, -1.5, 3.14159, 0}
	ids, err := store.UpsertObjects(ctx, "Chunk_test", []driven.StoredObject{
		{Properties: map[string]any{"text": "v"}, Vector: vector},
	})
	require.NoError(t, err)

	obj, err := store.GetObjectByID(ctx, "Chunk_test", ids[0])
	require.NoError(t, err)
	assert.Equal(t, vector, obj.Vector)
}

func TestUpsertOverwritesSameID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateClass(ctx, chunkClass()))

	_, err := store.UpsertObjects(ctx, "Chunk_test", []driven.StoredObject{
		{ID: "c1", Properties: map[string]any{"text": "old"}},
	})
	require.NoError(t, err)

	_, err = store.UpsertObjects(ctx, "Chunk_test", []driven.StoredObject{
		{ID: "c1", Properties: map[string]any{"text": "new"}, Vector: []float32{1}},
	})
	require.NoError(t, err)

	n, err := store.CountObjects(ctx, "Chunk_test")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	obj, err := store.GetObjectByID(ctx, "Chunk_test", "c1")
	require.NoError(t, err)
	assert.Equal(t, "new", obj.Properties["text"])
	assert.Equal(t, []float32{1}, obj.Vector)
}

func TestUpsertMissingClass(t *testing.T) {
	store := newTestStore(t)

	_, err := store.UpsertObjects(context.Background(), "Nope", []driven.StoredObject{
		{Properties: map[string]any{}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQueryObjectsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateClass(ctx, chunkClass()))

	objects := make([]driven.StoredObject, 0, 5)
	for i := 0; i < 5; i++ {
		objects = append(objects, driven.StoredObject{
			Properties: map[string]any{"chunk_id": i},
		})
	}
	_, err := store.UpsertObjects(ctx, "Chunk_test", objects)
	require.NoError(t, err)

	limited, err := store.QueryObjects(ctx, "Chunk_test", nil, 3)
	require.NoError(t, err)
	assert.Len(t, limited, 3)

	all, err := store.QueryObjects(ctx, "Chunk_test", nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestDeleteClassCascadesObjects(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateClass(ctx, chunkClass()))

	_, err := store.UpsertObjects(ctx, "Chunk_test", []driven.StoredObject{
		{ID: "c1", Properties: map[string]any{"text": "x"}},
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteClass(ctx, "Chunk_test"))

	// Recreating the class must not resurrect the old object.
	require.NoError(t, store.CreateClass(ctx, chunkClass()))
	n, err := store.CountObjects(ctx, "Chunk_test")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteAllClasses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateClass(ctx, chunkClass()))

	require.NoError(t, store.DeleteAllClasses(ctx))

	names, err := store.ListClasses(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFloat32Codec(t *testing.T) {
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))

	in := []float32{1.5, -2.25, 0}
	out := bytesToFloat32Slice(float32SliceToBytes(in))
	assert.Equal(t, in, out)
}
