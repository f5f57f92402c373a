package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saucier-dev/saucier/internal/config"
	"github.com/saucier-dev/saucier/internal/models"
	"github.com/saucier-dev/saucier/internal/service"
	"github.com/saucier-dev/saucier/internal/vectorstore/memory"
)

// echoEmbedder embeds any text as a fixed vector; chat tests only care
// about persistence, not proximity.
type echoEmbedder struct {
	lastText string
}

func (e *echoEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.lastText = text
	return []float32{1, 0}, nil
}

func loadSession(t *testing.T, store *memory.Store, id string) models.ChatSession {
	t.Helper()
	rec, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	var session models.ChatSession
	require.NoError(t, json.Unmarshal(rec.Data, &session))
	return session
}

func TestConverseNewSession(t *testing.T) {
	store := memory.New()
	model := &stubCompleter{reply: "Use arborio rice."}
	svc := service.NewChatService(store, &echoEmbedder{}, model, service.ChatOptions{
		SystemPrompt: "You are a cooking assistant.",
	})

	reply, err := svc.Converse(context.Background(), "", "what rice for risotto?")
	require.NoError(t, err)
	require.NotEmpty(t, reply.SessionID)
	assert.Equal(t, "what rice for risotto?", reply.UserMessage)
	assert.Equal(t, "Use arborio rice.", reply.AssistantMessage)

	session := loadSession(t, store, reply.SessionID)
	require.Len(t, session.Transcript, 3, "system seed, user message, assistant reply")
	assert.Equal(t, models.RoleSystem, session.Transcript[0].Role)
	assert.Equal(t, "You are a cooking assistant.", session.Transcript[0].Content)
	assert.Equal(t, models.RoleUser, session.Transcript[1].Role)
	assert.Equal(t, models.RoleAssistant, session.Transcript[2].Role)
}

func TestConverseResumesSession(t *testing.T) {
	store := memory.New()
	model := &stubCompleter{reply: "Stir constantly."}
	svc := service.NewChatService(store, &echoEmbedder{}, model, service.ChatOptions{})
	ctx := context.Background()

	first, err := svc.Converse(ctx, "", "what rice for risotto?")
	require.NoError(t, err)

	second, err := svc.Converse(ctx, first.SessionID, "and how do I keep it creamy?")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID, "a known session keeps its ID")

	session := loadSession(t, store, first.SessionID)
	assert.Len(t, session.Transcript, 5, "both turns accumulate on one transcript")
	assert.Equal(t, 2, model.completes)
	assert.Equal(t, "and how do I keep it creamy?", session.LatestMessage)
}

func TestConverseUnknownSessionStartsFresh(t *testing.T) {
	store := memory.New()
	svc := service.NewChatService(store, &echoEmbedder{}, &stubCompleter{reply: "ok"}, service.ChatOptions{})

	reply, err := svc.Converse(context.Background(), "no-such-session", "hello")
	require.NoError(t, err)
	assert.NotEqual(t, "no-such-session", reply.SessionID, "unknown IDs get a fresh session key")
}

func TestConverseEmptyMessage(t *testing.T) {
	svc := service.NewChatService(memory.New(), &echoEmbedder{}, &stubCompleter{}, service.ChatOptions{})

	_, err := svc.Converse(context.Background(), "", "   ")
	assert.Error(t, err)
}

func TestConverseEmbedScope(t *testing.T) {
	t.Run("latest message", func(t *testing.T) {
		emb := &echoEmbedder{}
		svc := service.NewChatService(memory.New(), emb, &stubCompleter{reply: "ok"}, service.ChatOptions{
			EmbedScope: config.EmbedScopeLatestMessage,
		})

		_, err := svc.Converse(context.Background(), "", "what rice for risotto?")
		require.NoError(t, err)
		assert.Equal(t, "what rice for risotto?", emb.lastText)
	})

	t.Run("full transcript", func(t *testing.T) {
		emb := &echoEmbedder{}
		svc := service.NewChatService(memory.New(), emb, &stubCompleter{reply: "ok"}, service.ChatOptions{
			EmbedScope: config.EmbedScopeFullTranscript,
		})

		_, err := svc.Converse(context.Background(), "", "what rice for risotto?")
		require.NoError(t, err)
		assert.Contains(t, emb.lastText, models.RoleSystem+": ")
		assert.Contains(t, emb.lastText, models.RoleUser+": what rice for risotto?")
		assert.Contains(t, emb.lastText, models.RoleAssistant+": ok")
	})
}
