// Package service holds the retrieval orchestration: cache-first recipe
// search, single-turn answer caching, conversational memory, and bulk
// ingest. Transport layers stay thin; the decisions live here.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saucier-dev/saucier/internal/cache"
	"github.com/saucier-dev/saucier/internal/models"
	"github.com/saucier-dev/saucier/internal/vectorstore"
)

// Embedder is the slice of the embedding service the orchestrators need.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// cacheKeySeparator joins query text and strategy name into the composite
// cache signature, so the same query under different strategies occupies
// independent cache slots.
const cacheKeySeparator = "|"

// keyPageSize is the page size used for lazy key enumeration.
const keyPageSize = 100

// SearchOptions tune the search orchestrator.
type SearchOptions struct {
	// Limit caps results for both strategies. Defaults to 3.
	Limit int

	// RangeMaxDistance is the distance threshold for StrategyRange.
	// Defaults to 0.25.
	RangeMaxDistance float64

	// CacheTTL is the lifetime of cache entries written on a miss.
	CacheTTL time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// SearchService orchestrates recipe retrieval: semantic cache first, then
// the selected similarity search strategy over the vector store.
type SearchService struct {
	store    vectorstore.Store
	embedder Embedder
	cache    cache.Cache
	opts     SearchOptions
	logger   *slog.Logger
}

// NewSearchService creates the search orchestrator.
func NewSearchService(store vectorstore.Store, embedder Embedder, sc cache.Cache, opts SearchOptions) *SearchService {
	if opts.Limit < 1 {
		opts.Limit = 3
	}
	if opts.RangeMaxDistance <= 0 {
		opts.RangeMaxDistance = 0.25
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &SearchService{
		store:    store,
		embedder: embedder,
		cache:    sc,
		opts:     opts,
		logger:   opts.Logger,
	}
}

// CacheKey returns the composite cache signature for a query under a
// strategy.
func CacheKey(query string, strategy vectorstore.Strategy) string {
	return query + cacheKeySeparator + strategy.String()
}

// Search answers a recipe query. The strategy is validated before anything
// else; then the semantic cache is consulted, and only on a miss does an
// embedding call and a vector search happen. The cache write on the miss
// path is synchronous, so an identical query immediately after is a hit.
func (s *SearchService) Search(ctx context.Context, query string, strategy vectorstore.Strategy) ([]models.RecipeMatch, error) {
	if !strategy.Valid() {
		return nil, fmt.Errorf("%w: %s", vectorstore.ErrInvalidStrategy, strategy)
	}

	entries, err := s.cache.GetSimilar(ctx, CacheKey(query, strategy))
	if err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}

	if cached, ok := s.decodeEntries(entries, strategy); ok {
		s.logger.Debug("cache hit", "query", query, "strategy", strategy.String(), "results", len(cached))
		return cached, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.store.Search(ctx, s.buildQuery(vec, strategy))
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]models.RecipeMatch, 0, len(matches))
	for _, m := range matches {
		var recipe models.Recipe
		if err := json.Unmarshal(m.Record.Data, &recipe); err != nil {
			return nil, fmt.Errorf("decode recipe %s: %w", m.Record.ID, err)
		}
		results = append(results, models.RecipeMatch{
			Recipe: recipe,
			Score:  m.Distance,
		})
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	if err := s.cache.Store(ctx, CacheKey(query, strategy), payload, s.opts.CacheTTL); err != nil {
		return nil, fmt.Errorf("cache store: %w", err)
	}

	s.logger.Debug("cache miss", "query", query, "strategy", strategy.String(), "results", len(results))
	return results, nil
}

// decodeEntries turns cache entries into cache-flagged results. Entries
// stored under a different strategy never serve a hit, even when their
// signatures embed close together. Entries whose payload does not decode
// are skipped; if nothing decodes, the lookup counts as a miss so a corrupt
// entry never makes a query unanswerable.
func (s *SearchService) decodeEntries(entries []cache.Entry, strategy vectorstore.Strategy) ([]models.RecipeMatch, bool) {
	if len(entries) == 0 {
		return nil, false
	}

	suffix := cacheKeySeparator + strategy.String()
	var results []models.RecipeMatch
	decoded := false
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Key, suffix) {
			continue
		}
		var matches []models.RecipeMatch
		if err := json.Unmarshal(entry.Payload, &matches); err != nil {
			s.logger.Warn("undecodable cache payload, treating as miss", "key", entry.Key, "error", err)
			continue
		}
		decoded = true
		for i := range matches {
			matches[i].FromCache = true
		}
		results = append(results, matches...)
	}
	return results, decoded
}

func (s *SearchService) buildQuery(vec []float32, strategy vectorstore.Strategy) vectorstore.Query {
	q := vectorstore.Query{
		Vector: vec,
		Limit:  s.opts.Limit,
	}
	if strategy == vectorstore.StrategyRange {
		q.MaxDistance = s.opts.RangeMaxDistance
	}
	return q
}

// Get returns the recipe stored under key, or vectorstore.ErrNotFound.
func (s *SearchService) Get(ctx context.Context, key string) (*models.Recipe, error) {
	rec, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var recipe models.Recipe
	if err := json.Unmarshal(rec.Data, &recipe); err != nil {
		return nil, fmt.Errorf("decode recipe %s: %w", key, err)
	}
	return &recipe, nil
}

// List returns up to limit recipes, enumerated lazily by key.
func (s *SearchService) List(ctx context.Context, limit int) ([]models.Recipe, error) {
	if limit < 1 {
		limit = 10
	}

	recipes := make([]models.Recipe, 0, limit)
	for key, err := range s.store.Keys(ctx, keyPageSize) {
		if err != nil {
			return nil, fmt.Errorf("list keys: %w", err)
		}
		recipe, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *recipe)
		if len(recipes) >= limit {
			break
		}
	}
	return recipes, nil
}

// Count returns the number of stored recipes by draining the lazy key
// sequence; nothing is materialized.
func (s *SearchService) Count(ctx context.Context) (int, error) {
	return vectorstore.CountKeys(s.store.Keys(ctx, keyPageSize))
}
