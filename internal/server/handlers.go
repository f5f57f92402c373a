package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/saucier-dev/saucier/internal/metrics"
	"github.com/saucier-dev/saucier/internal/models"
	"github.com/saucier-dev/saucier/internal/service"
	"github.com/saucier-dev/saucier/internal/vectorstore"
)

// SearchAPI is the retrieval surface the server fronts.
type SearchAPI interface {
	Search(ctx context.Context, query string, strategy vectorstore.Strategy) ([]models.RecipeMatch, error)
	Get(ctx context.Context, key string) (*models.Recipe, error)
	List(ctx context.Context, limit int) ([]models.Recipe, error)
	Count(ctx context.Context) (int, error)
}

// IngestAPI uploads recipes into the search index.
type IngestAPI interface {
	Upload(ctx context.Context, recipes []models.Recipe, progress service.Progress) error
}

// AnswerAPI produces single-turn answers backed by the answer cache.
type AnswerAPI interface {
	Answer(ctx context.Context, message string) (*service.Answer, error)
}

// ChatAPI holds multi-turn conversations.
type ChatAPI interface {
	Converse(ctx context.Context, sessionID, message string) (*models.ChatReply, error)
}

// defaultStrategy is used when the request does not pick an approach; the
// original UI defaulted to range ("VectorRange") search.
const defaultStrategy = vectorstore.StrategyRange

type handlers struct {
	svcs   Services
	logger *slog.Logger
	stats  *metrics.Collector
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) searchRecipes(w http.ResponseWriter, r *http.Request) {
	query := mux.Vars(r)["query"]
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	strategy := defaultStrategy
	if approach := r.URL.Query().Get("approach"); approach != "" {
		parsed, err := vectorstore.ParseStrategy(approach)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		strategy = parsed
	}

	start := time.Now()
	results, err := h.svcs.Search.Search(r.Context(), query, strategy)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.stats.RecordTiming(metrics.OpSearch, time.Since(start))
	h.stats.RecordCache(metrics.CacheSearch, len(results) > 0 && results[0].FromCache)
	writeJSON(w, http.StatusOK, results)
}

func (h *handlers) getRecipe(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	recipe, err := h.svcs.Search.Get(r.Context(), key)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (h *handlers) listRecipes(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	recipes, err := h.svcs.Search.List(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (h *handlers) countRecipes(w http.ResponseWriter, r *http.Request) {
	count, err := h.svcs.Search.Count(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *handlers) createRecipes(w http.ResponseWriter, r *http.Request) {
	var recipes []models.Recipe
	if err := json.NewDecoder(r.Body).Decode(&recipes); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a recipe array")
		return
	}

	start := time.Now()
	if err := h.svcs.Ingest.Upload(r.Context(), recipes, nil); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.stats.RecordTiming(metrics.OpIngest, time.Since(start))
	writeJSON(w, http.StatusCreated, map[string]int{"uploaded": len(recipes)})
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

func (h *handlers) answer(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	start := time.Now()
	answer, err := h.svcs.Answer.Answer(r.Context(), req.Message)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.stats.RecordTiming(metrics.OpAnswer, time.Since(start))
	h.stats.RecordCache(metrics.CacheAnswer, answer.FromCache)
	writeJSON(w, http.StatusOK, answer)
}

func (h *handlers) converse(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	start := time.Now()
	reply, err := h.svcs.Chat.Converse(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.stats.RecordTiming(metrics.OpChat, time.Since(start))
	writeJSON(w, http.StatusOK, reply)
}

func (h *handlers) statsSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Snapshot())
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps service errors onto status codes: invalid input is
// the caller's fault, absent records are 404, anything else is upstream.
func (h *handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vectorstore.ErrInvalidStrategy):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, vectorstore.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusBadGateway, "upstream failure")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
