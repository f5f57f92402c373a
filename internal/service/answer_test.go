package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saucier-dev/saucier/internal/models"
	"github.com/saucier-dev/saucier/internal/service"
	"github.com/saucier-dev/saucier/internal/vectorstore"
	"github.com/saucier-dev/saucier/internal/vectorstore/memory"
)

// stubCompleter returns a canned reply and counts invocations.
type stubCompleter struct {
	reply     string
	generates int
	completes int
}

func (c *stubCompleter) Generate(ctx context.Context, prompt string) (string, error) {
	c.generates++
	return c.reply, nil
}

func (c *stubCompleter) Complete(ctx context.Context, transcript []models.ChatMessage) (string, error) {
	c.completes++
	return c.reply, nil
}

func TestAnswerMissThenHit(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"how do I peel garlic fast":  {1, 0},
		"quickest way to peel garlic": {0.99, 0.14},
		"how long to boil an egg":     {0, 1},
	}}
	model := &stubCompleter{reply: "Crush the clove with the flat of a knife."}
	svc := service.NewAnswerService(memory.New(), emb, model, service.AnswerOptions{MaxDistance: 0.25})
	ctx := context.Background()

	first, err := svc.Answer(ctx, "how do I peel garlic fast")
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, model.reply, first.AssistantMessage)
	assert.Equal(t, 1, model.generates)

	// A semantically close question reuses the stored reply.
	second, err := svc.Answer(ctx, "quickest way to peel garlic")
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.AssistantMessage, second.AssistantMessage)
	assert.Equal(t, "quickest way to peel garlic", second.UserMessage)
	assert.Equal(t, 1, model.generates, "a cache hit must not invoke the model")

	// A distant question generates fresh.
	third, err := svc.Answer(ctx, "how long to boil an egg")
	require.NoError(t, err)
	assert.False(t, third.FromCache)
	assert.Equal(t, 2, model.generates)
}

func TestAnswerCorruptExchangeRegenerates(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"how do I peel garlic fast": {1, 0},
	}}
	model := &stubCompleter{reply: "Crush the clove."}
	store := memory.New()
	svc := service.NewAnswerService(store, emb, model, service.AnswerOptions{MaxDistance: 0.25})
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, vectorstore.Record{
		ID:        "bad",
		Text:      "how do I peel garlic fast",
		Data:      []byte("not json"),
		Embedding: []float32{1, 0},
	}))

	answer, err := svc.Answer(ctx, "how do I peel garlic fast")
	require.NoError(t, err, "a corrupt stored pair must never fail the request")
	assert.False(t, answer.FromCache)
	assert.Equal(t, 1, model.generates)
}
