package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/saucier-dev/saucier/internal/models"
	"github.com/saucier-dev/saucier/internal/vectorstore"
)

// IngestOptions tune the bulk upload path.
type IngestOptions struct {
	// Concurrency bounds parallel embed+upsert workers. Defaults to 4.
	Concurrency int

	// RateLimit caps embedding calls per second across all workers.
	// Zero means unlimited.
	RateLimit float64

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Progress reports ingest completion. done counts records fully upserted.
type Progress func(done, total int)

// IngestService embeds and upserts recipe batches. Records are independent,
// so they are processed in parallel with no ordering between them; only the
// embedding service's rate limit bounds throughput.
type IngestService struct {
	store    vectorstore.Store
	embedder Embedder
	limiter  *rate.Limiter
	opts     IngestOptions
	logger   *slog.Logger
}

// NewIngestService creates the bulk ingest service.
func NewIngestService(store vectorstore.Store, embedder Embedder, opts IngestOptions) *IngestService {
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return &IngestService{
		store:    store,
		embedder: embedder,
		limiter:  limiter,
		opts:     opts,
		logger:   opts.Logger,
	}
}

// Upload embeds every recipe's textual projection and upserts the records.
// progress may be nil. The first failure cancels the remaining work.
func (s *IngestService) Upload(ctx context.Context, recipes []models.Recipe, progress Progress) error {
	total := len(recipes)
	if total == 0 {
		return nil
	}

	var done atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for _, recipe := range recipes {
		g.Go(func() error {
			if recipe.Key == "" {
				return fmt.Errorf("recipe without key: %q", recipe.Name)
			}

			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}

			text := recipe.EmbeddingText()
			vec, err := s.embedder.Embed(ctx, text)
			if err != nil {
				return fmt.Errorf("embed recipe %s: %w", recipe.Key, err)
			}

			data, err := json.Marshal(recipe)
			if err != nil {
				return fmt.Errorf("encode recipe %s: %w", recipe.Key, err)
			}

			if err := s.store.Upsert(ctx, vectorstore.Record{
				ID:        recipe.Key,
				Text:      text,
				Data:      data,
				Embedding: vec,
			}); err != nil {
				return fmt.Errorf("upsert recipe %s: %w", recipe.Key, err)
			}

			n := int(done.Add(1))
			s.logger.Debug("recipe upserted", "key", recipe.Key, "done", n, "total", total)
			if progress != nil {
				progress(n, total)
			}
			return nil
		})
	}

	return g.Wait()
}
