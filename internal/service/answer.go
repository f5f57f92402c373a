package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/saucier-dev/saucier/internal/models"
	"github.com/saucier-dev/saucier/internal/vectorstore"
)

// Completer is the slice of the completion model the chat services need.
type Completer interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Complete(ctx context.Context, transcript []models.ChatMessage) (string, error)
}

// AnswerOptions tune the single-turn answer cache.
type AnswerOptions struct {
	// MaxDistance gates cache hits: a top-1 neighbor farther than this
	// is not a hit. Without the gate every question after the first
	// would be answered with a stale cached response.
	MaxDistance float64

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Answer is the result of a single-turn chat message.
type Answer struct {
	UserMessage      string `json:"user_message"`
	AssistantMessage string `json:"assistant_message"`
	FromCache        bool   `json:"from_cache"`
}

// AnswerService answers single-turn chat messages, caching (message, reply)
// pairs in a dedicated collection and reusing them for semantically close
// follow-up questions.
type AnswerService struct {
	store    vectorstore.Store
	embedder Embedder
	model    Completer
	opts     AnswerOptions
	logger   *slog.Logger
}

// NewAnswerService creates the single-turn answer service. store must be a
// collection dedicated to chat exchanges.
func NewAnswerService(store vectorstore.Store, embedder Embedder, model Completer, opts AnswerOptions) *AnswerService {
	if opts.MaxDistance <= 0 {
		opts.MaxDistance = 0.25
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &AnswerService{
		store:    store,
		embedder: embedder,
		model:    model,
		opts:     opts,
		logger:   opts.Logger,
	}
}

// Answer embeds message and looks for the closest prior exchange. Within
// the distance gate it is a hit and the stored reply comes back unchanged;
// otherwise the model is invoked and the new pair is stored before
// returning.
func (s *AnswerService) Answer(ctx context.Context, message string) (*Answer, error) {
	vec, err := s.embedder.Embed(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("embed message: %w", err)
	}

	matches, err := s.store.Search(ctx, vectorstore.Query{
		Vector:      vec,
		Limit:       1,
		MaxDistance: s.opts.MaxDistance,
	})
	if err != nil {
		return nil, fmt.Errorf("search exchanges: %w", err)
	}

	if len(matches) > 0 {
		var exchange models.ChatExchange
		if err := json.Unmarshal(matches[0].Record.Data, &exchange); err != nil {
			// A corrupt pair must not fail the request; fall through
			// to a fresh completion.
			s.logger.Warn("undecodable chat exchange, regenerating", "id", matches[0].Record.ID, "error", err)
		} else {
			s.logger.Debug("answer cache hit", "distance", matches[0].Distance)
			return &Answer{
				UserMessage:      message,
				AssistantMessage: exchange.AssistantMessage,
				FromCache:        true,
			}, nil
		}
	}

	reply, err := s.model.Generate(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("generate reply: %w", err)
	}

	exchange := models.ChatExchange{
		Key:              uuid.NewString(),
		UserMessage:      message,
		AssistantMessage: reply,
	}
	data, err := json.Marshal(exchange)
	if err != nil {
		return nil, fmt.Errorf("encode exchange: %w", err)
	}

	if err := s.store.Upsert(ctx, vectorstore.Record{
		ID:        exchange.Key,
		Text:      message,
		Data:      data,
		Embedding: vec,
	}); err != nil {
		return nil, fmt.Errorf("store exchange: %w", err)
	}

	return &Answer{
		UserMessage:      message,
		AssistantMessage: reply,
		FromCache:        false,
	}, nil
}
