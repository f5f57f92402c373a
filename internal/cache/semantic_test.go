package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saucier-dev/saucier/internal/vectorstore"
	"github.com/saucier-dev/saucier/internal/vectorstore/memory"
)

// stubEmbedder returns fixed vectors per text, so tests control proximity
// exactly. Unknown texts panic to surface typos in test setup.
type stubEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	vec, ok := e.vectors[text]
	if !ok {
		panic("no stub vector for " + text)
	}
	return vec, nil
}

// fakeClock is an injectable clock advanced manually by tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCache(t *testing.T, emb *stubEmbedder, clock *fakeClock, maxDistance float64) *Semantic {
	t.Helper()
	return NewSemantic(emb, memory.New(), Options{
		MaxDistance: maxDistance,
		Now:         clock.Now,
	})
}

func TestStoreAndGetSimilar(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"pasta recipes":      {1, 0},
		"noodle recipes":     {0.99, 0.14},
		"chocolate desserts": {0, 1},
	}}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	sc := newTestCache(t, emb, clock, 0.25)
	ctx := context.Background()

	require.NoError(t, sc.Store(ctx, "pasta recipes", []byte(`["spaghetti"]`), time.Hour))

	// A semantically close query is a hit.
	entries, err := sc.GetSimilar(ctx, "noodle recipes")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "pasta recipes", entries[0].Key)
	assert.Equal(t, []byte(`["spaghetti"]`), entries[0].Payload)

	// A distant query is a miss.
	entries, err = sc.GetSimilar(ctx, "chocolate desserts")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTTLExpiry(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"pasta recipes": {1, 0},
	}}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	sc := newTestCache(t, emb, clock, 0.25)
	ctx := context.Background()

	require.NoError(t, sc.Store(ctx, "pasta recipes", []byte(`[]`), 30*time.Minute))

	entries, err := sc.GetSimilar(ctx, "pasta recipes")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "fresh entry should be a hit")

	clock.Advance(29 * time.Minute)
	entries, err = sc.GetSimilar(ctx, "pasta recipes")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "entry within TTL should still be a hit")

	clock.Advance(2 * time.Minute)
	entries, err = sc.GetSimilar(ctx, "pasta recipes")
	require.NoError(t, err)
	assert.Empty(t, entries, "expired entry must not be served")
}

func TestZeroTTLNeverExpires(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"pasta recipes": {1, 0},
	}}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	sc := newTestCache(t, emb, clock, 0.25)
	ctx := context.Background()

	require.NoError(t, sc.Store(ctx, "pasta recipes", []byte(`[]`), 0))

	clock.Advance(1000 * time.Hour)
	entries, err := sc.GetSimilar(ctx, "pasta recipes")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreOverwritesSameKey(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"pasta recipes": {1, 0},
	}}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	sc := newTestCache(t, emb, clock, 0.25)
	ctx := context.Background()

	require.NoError(t, sc.Store(ctx, "pasta recipes", []byte(`["old"]`), time.Hour))
	require.NoError(t, sc.Store(ctx, "pasta recipes", []byte(`["new"]`), time.Hour))

	entries, err := sc.GetSimilar(ctx, "pasta recipes")
	require.NoError(t, err)
	require.Len(t, entries, 1, "same key must occupy a single slot")
	assert.Equal(t, []byte(`["new"]`), entries[0].Payload)
}

func TestCorruptEntryIsSkipped(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"pasta recipes": {1, 0},
	}}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.New()
	sc := NewSemantic(emb, store, Options{MaxDistance: 0.25, Now: clock.Now})
	ctx := context.Background()

	// Write a record whose data is not a valid Entry.
	require.NoError(t, store.Upsert(ctx, vectorstore.Record{
		ID:        RecordID("pasta recipes"),
		Text:      "pasta recipes",
		Data:      []byte("not json"),
		Embedding: []float32{1, 0},
	}))

	entries, err := sc.GetSimilar(ctx, "pasta recipes")
	require.NoError(t, err, "a corrupt entry must never fail the lookup")
	assert.Empty(t, entries)
}

func TestRecordIDDeterministic(t *testing.T) {
	assert.Equal(t, RecordID("a|range"), RecordID("a|range"))
	assert.NotEqual(t, RecordID("a|range"), RecordID("a|nearest"))
}

func TestEntryExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := Entry{StoredAt: now, TTL: time.Minute}

	assert.False(t, e.Expired(now))
	assert.False(t, e.Expired(now.Add(time.Minute-time.Nanosecond)))
	assert.True(t, e.Expired(now.Add(time.Minute)), "entry expires at exactly StoredAt+TTL")
}
