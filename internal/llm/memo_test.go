package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder counts upstream calls and returns a vector derived from
// the text length.
type countingEmbedder struct {
	model string
	calls int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return []float32{float32(len(text)), 1}, nil
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, _ := e.Embed(ctx, t)
		out = append(out, v)
	}
	return out, nil
}

func (e *countingEmbedder) Model() string { return e.model }

func (e *countingEmbedder) Dimension() int { return 2 }

func TestMemoEmbedderHitsUpstreamOnce(t *testing.T) {
	inner := &countingEmbedder{model: "test-model"}
	memo, err := NewMemoEmbedder(inner)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := memo.Embed(ctx, "tomato soup")
	require.NoError(t, err)
	memo.Wait()

	second, err := memo.Embed(ctx, "tomato soup")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls, "repeated text must be served from the cache")
}

func TestMemoEmbedderDistinctTexts(t *testing.T) {
	inner := &countingEmbedder{model: "test-model"}
	memo, err := NewMemoEmbedder(inner)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = memo.Embed(ctx, "tomato soup")
	require.NoError(t, err)
	_, err = memo.Embed(ctx, "chocolate cake")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestMemoEmbedderDelegatesMetadata(t *testing.T) {
	inner := &countingEmbedder{model: "test-model"}
	memo, err := NewMemoEmbedder(inner)
	require.NoError(t, err)

	assert.Equal(t, "test-model", memo.Model())
	assert.Equal(t, 2, memo.Dimension())
}
