package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/saucier-dev/saucier/internal/config"
	"github.com/saucier-dev/saucier/internal/models"
	"github.com/saucier-dev/saucier/internal/vectorstore"
)

// ChatOptions tune conversational memory.
type ChatOptions struct {
	// SystemPrompt seeds the transcript of every new session.
	SystemPrompt string

	// EmbedScope selects what the session embedding represents:
	// config.EmbedScopeLatestMessage embeds only the newest user message
	// (cheap recompute, recall reflects the last turn only);
	// config.EmbedScopeFullTranscript re-embeds the whole transcript
	// each turn (costlier, recall reflects cumulative context).
	EmbedScope string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// ChatService maintains per-session conversational memory: a growing
// transcript plus one embedding vector per session, persisted in a
// dedicated collection. Sessions are never closed or evicted here;
// retention is someone else's policy.
type ChatService struct {
	store    vectorstore.Store
	embedder Embedder
	model    Completer
	opts     ChatOptions
	logger   *slog.Logger
}

// NewChatService creates the conversational memory service. store must be
// a collection dedicated to chat sessions.
func NewChatService(store vectorstore.Store, embedder Embedder, model Completer, opts ChatOptions) *ChatService {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = config.DefaultChatSystemPrompt
	}
	if opts.EmbedScope == "" {
		opts.EmbedScope = config.EmbedScopeLatestMessage
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &ChatService{
		store:    store,
		embedder: embedder,
		model:    model,
		opts:     opts,
		logger:   opts.Logger,
	}
}

// Converse runs one conversational turn. An empty or unknown sessionID
// starts a new session under a fresh key with the seeded system message;
// a known sessionID loads and extends the existing transcript. The session
// record is re-persisted with a recomputed embedding after every turn.
func (s *ChatService) Converse(ctx context.Context, sessionID, message string) (*models.ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message is required")
	}

	session, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.Transcript = append(session.Transcript, models.ChatMessage{
		Role:    models.RoleUser,
		Content: message,
	})
	session.LatestMessage = message

	reply, err := s.model.Complete(ctx, session.Transcript)
	if err != nil {
		return nil, fmt.Errorf("complete transcript: %w", err)
	}
	session.Transcript = append(session.Transcript, models.ChatMessage{
		Role:    models.RoleAssistant,
		Content: reply,
	})

	embedText := s.embedText(session)
	vec, err := s.embedder.Embed(ctx, embedText)
	if err != nil {
		return nil, fmt.Errorf("embed session: %w", err)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := s.store.Upsert(ctx, vectorstore.Record{
		ID:        session.Key,
		Text:      embedText,
		Data:      data,
		Embedding: vec,
	}); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &models.ChatReply{
		SessionID:        session.Key,
		UserMessage:      message,
		AssistantMessage: reply,
	}, nil
}

// loadOrCreate fetches the session record, or builds a fresh session with
// a new key and the system seed when the ID is empty or unknown.
func (s *ChatService) loadOrCreate(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	if sessionID != "" {
		rec, err := s.store.Get(ctx, sessionID)
		if err == nil {
			var session models.ChatSession
			if uerr := json.Unmarshal(rec.Data, &session); uerr != nil {
				return nil, fmt.Errorf("decode session %s: %w", sessionID, uerr)
			}
			s.logger.Debug("resuming session", "session", session.Key, "messages", len(session.Transcript))
			return &session, nil
		}
		if !errors.Is(err, vectorstore.ErrNotFound) {
			return nil, fmt.Errorf("load session %s: %w", sessionID, err)
		}
		s.logger.Debug("unknown session, starting fresh", "session", sessionID)
	}

	return &models.ChatSession{
		Key: uuid.NewString(),
		Transcript: []models.ChatMessage{
			{Role: models.RoleSystem, Content: s.opts.SystemPrompt},
		},
	}, nil
}

func (s *ChatService) embedText(session *models.ChatSession) string {
	if s.opts.EmbedScope == config.EmbedScopeFullTranscript {
		parts := make([]string, 0, len(session.Transcript))
		for _, msg := range session.Transcript {
			parts = append(parts, msg.Role+": "+msg.Content)
		}
		return strings.Join(parts, "\n")
	}
	return session.LatestMessage
}
