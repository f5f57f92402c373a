package chromem

import (
	"context"
	"errors"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saucier-dev/saucier/internal/vectorstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(chromem.NewDB(), "test")
	require.NoError(t, err)
	return store
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, vectorstore.ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestUpsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := vectorstore.Record{
		ID:        "r1",
		Text:      "tomato soup",
		Data:      []byte(`{"name":"tomato soup"}`),
		Embedding: []float32{1, 0, 0},
	}
	require.NoError(t, store.Upsert(ctx, rec))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "tomato soup", got.Text)
	assert.Equal(t, rec.Data, got.Data)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestUpsertOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := vectorstore.Record{ID: "r1", Text: "old", Data: []byte(`{}`), Embedding: []float32{1, 0}}
	require.NoError(t, store.Upsert(ctx, rec))
	first, err := store.Get(ctx, "r1")
	require.NoError(t, err)

	rec.Text = "new"
	require.NoError(t, store.Upsert(ctx, rec))
	second, err := store.Get(ctx, "r1")
	require.NoError(t, err)

	assert.Equal(t, "new", second.Text)
	assert.Equal(t, first.CreatedAt, second.CreatedAt, "CreatedAt must survive overwrites")

	n, err := vectorstore.CountKeys(store.Keys(ctx, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "overwriting must not duplicate the key")
}

func TestSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, vectorstore.Record{ID: "near", Data: []byte(`{}`), Embedding: []float32{1, 0}}))
	require.NoError(t, store.Upsert(ctx, vectorstore.Record{ID: "far", Data: []byte(`{}`), Embedding: []float32{0, 1}}))

	matches, err := store.Search(ctx, vectorstore.Query{Vector: []float32{1, 0}, Limit: 5})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "near", matches[0].Record.ID)
	assert.Less(t, matches[0].Distance, matches[1].Distance)

	matches, err = store.Search(ctx, vectorstore.Query{
		Vector:      []float32{1, 0},
		Limit:       5,
		MaxDistance: 0.25,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1, "threshold should exclude the orthogonal record")
	assert.Equal(t, "near", matches[0].Record.ID)
}

func TestSearchEmptyCollection(t *testing.T) {
	store := newTestStore(t)

	matches, err := store.Search(context.Background(), vectorstore.Query{Vector: []float32{1, 0}, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Upsert(ctx, vectorstore.Record{ID: id, Data: []byte(`{}`), Embedding: []float32{1, 0}}))
	}

	seen := make(map[string]bool)
	for id, err := range store.Keys(ctx, 2) {
		require.NoError(t, err)
		seen[id] = true
	}
	assert.Len(t, seen, 3)
}
