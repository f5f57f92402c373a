// Package cache implements the semantic cache: a secondary store keyed by
// embedding-space proximity rather than exact string match, with per-entry
// time-to-live.
package cache

import (
	"context"
	"time"
)

// Entry is one cached result set. Key is the normalized query signature it
// was stored under; Payload is an opaque serialized result sequence.
type Entry struct {
	Key      string        `json:"key"`
	Payload  []byte        `json:"payload"`
	StoredAt time.Time     `json:"stored_at"`
	TTL      time.Duration `json:"ttl"`
}

// Expired reports whether the entry is logically absent at now. A
// non-positive TTL never expires.
func (e Entry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return !now.Before(e.StoredAt.Add(e.TTL))
}

// Cache is the semantic cache contract. GetSimilar never errors on a plain
// miss; an empty result means "no usable cached entry".
type Cache interface {
	// GetSimilar returns unexpired entries whose key embedding is within
	// the cache's similarity tolerance of query. The cache embeds the
	// query itself; callers pass raw text.
	GetSimilar(ctx context.Context, query string) ([]Entry, error)

	// Store inserts or overwrites the entry for key, embedding key
	// internally. The TTL clock starts now; reads never extend it.
	Store(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}
