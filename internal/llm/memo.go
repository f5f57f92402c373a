package llm

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// memoCacheMaxCost bounds the memoization cache at roughly 64 MiB of
// vector data.
const memoCacheMaxCost = 64 << 20

// MemoEmbedder wraps an Embedder with a ristretto cache so embedding the
// same text twice within a process hits upstream only once. Admission is
// best-effort: a rejected entry just means the next call embeds again.
type MemoEmbedder struct {
	inner Embedder
	cache *ristretto.Cache
}

var _ Embedder = (*MemoEmbedder)(nil)

// NewMemoEmbedder wraps inner with memoization.
func NewMemoEmbedder(inner Embedder) (*MemoEmbedder, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     memoCacheMaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &MemoEmbedder{inner: inner, cache: cache}, nil
}

func (m *MemoEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := m.inner.Model() + "\x00" + text
	if cached, ok := m.cache.Get(key); ok {
		if vec, ok := cached.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := m.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	m.cache.Set(key, vec, int64(len(vec)*4))
	return vec, nil
}

func (m *MemoEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed %d: %w", i, err)
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

func (m *MemoEmbedder) Model() string {
	return m.inner.Model()
}

func (m *MemoEmbedder) Dimension() int {
	return m.inner.Dimension()
}

// Wait blocks until pending cache writes are applied. Tests use it to make
// admission deterministic.
func (m *MemoEmbedder) Wait() {
	m.cache.Wait()
}
