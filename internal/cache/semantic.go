package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saucier-dev/saucier/internal/vectorstore"
)

// Embedder is the slice of the embedding service the cache needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Options tune a semantic cache instance.
type Options struct {
	// MaxDistance is the similarity tolerance for GetSimilar. Entries
	// farther than this from the query embedding are not hits.
	MaxDistance float64

	// Limit caps how many entries GetSimilar returns. Defaults to 1.
	Limit int

	// Now is the clock used for expiry checks. Defaults to time.Now.
	// Tests inject a fake here.
	Now func() time.Time

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Semantic is a Cache backed by its own embedder and its own dedicated
// vector store collection, independent of the primary store.
type Semantic struct {
	embedder    Embedder
	store       vectorstore.Store
	maxDistance float64
	limit       int
	now         func() time.Time
	logger      *slog.Logger
}

var _ Cache = (*Semantic)(nil)

// NewSemantic creates a semantic cache over the given embedder and store.
func NewSemantic(embedder Embedder, store vectorstore.Store, opts Options) *Semantic {
	if opts.Limit < 1 {
		opts.Limit = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Semantic{
		embedder:    embedder,
		store:       store,
		maxDistance: opts.MaxDistance,
		limit:       opts.Limit,
		now:         opts.Now,
		logger:      opts.Logger,
	}
}

// GetSimilar embeds query and returns stored entries within the configured
// distance, skipping expired ones. Entries that fail to deserialize are
// skipped with a warning; a corrupt entry must never fail the request.
func (s *Semantic) GetSimilar(ctx context.Context, query string) ([]Entry, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed cache query: %w", err)
	}

	matches, err := s.store.Search(ctx, vectorstore.Query{
		Vector:      vec,
		Limit:       s.limit,
		MaxDistance: s.maxDistance,
	})
	if err != nil {
		return nil, fmt.Errorf("search cache: %w", err)
	}

	now := s.now()
	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		var entry Entry
		if err := json.Unmarshal(m.Record.Data, &entry); err != nil {
			s.logger.Warn("skipping undecodable cache entry", "id", m.Record.ID, "error", err)
			continue
		}
		if entry.Expired(now) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Store embeds key and upserts the entry under a deterministic record ID
// derived from the key, so storing the same signature twice overwrites.
func (s *Semantic) Store(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	vec, err := s.embedder.Embed(ctx, key)
	if err != nil {
		return fmt.Errorf("embed cache key: %w", err)
	}

	entry := Entry{
		Key:      key,
		Payload:  payload,
		StoredAt: s.now(),
		TTL:      ttl,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	rec := vectorstore.Record{
		ID:        RecordID(key),
		Text:      key,
		Data:      data,
		Embedding: vec,
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// RecordID derives the deterministic store ID for a cache key.
func RecordID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}
