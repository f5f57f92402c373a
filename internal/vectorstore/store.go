// Package vectorstore defines the contract every vector store backend
// implements. A store holds keyed records with a single embedding each and
// answers similarity queries over them; the index internals are the
// backend's business.
package vectorstore

import (
	"context"
	"errors"
	"iter"
	"sort"
	"time"
)

// ErrNotFound indicates a point lookup for a key with no matching record.
// Check with errors.Is.
var ErrNotFound = errors.New("record not found")

// Record is a stored entity: an opaque JSON payload plus the text it was
// embedded from and the embedding itself.
type Record struct {
	ID        string
	Text      string
	Data      []byte
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Match is a record annotated with its distance to the query vector.
// Lower distance means more similar.
type Match struct {
	Record   Record
	Distance float64
}

// Query describes a similarity search. Limit caps the result count.
// MaxDistance, when positive, excludes matches farther than the threshold;
// zero means unbounded.
type Query struct {
	Vector      []float32
	Limit       int
	MaxDistance float64
}

// Store is a collection-scoped vector store. Implementations must be safe
// for concurrent use; none of them enforce timeouts, so callers bound every
// call through ctx.
type Store interface {
	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Upsert inserts or overwrites the record under its ID.
	Upsert(ctx context.Context, rec Record) error

	// Search returns matches ordered by increasing distance, honoring
	// Query.Limit and Query.MaxDistance. Fewer than Limit matches is not
	// an error.
	Search(ctx context.Context, q Query) ([]Match, error)

	// Keys returns a restartable lazy sequence over all record IDs,
	// fetched from the backend in pages of pageSize. Ranging over it
	// again restarts the enumeration.
	Keys(ctx context.Context, pageSize int) iter.Seq2[string, error]
}

// ApplyThreshold drops matches whose distance exceeds max. A non-positive
// max disables filtering. Matches are assumed ordered by distance, so the
// result is the ordered prefix within the threshold.
func ApplyThreshold(matches []Match, max float64) []Match {
	if max <= 0 {
		return matches
	}
	i := sort.Search(len(matches), func(i int) bool {
		return matches[i].Distance > max
	})
	return matches[:i]
}

// CountKeys drains a key sequence and returns the number of keys seen.
func CountKeys(keys iter.Seq2[string, error]) (int, error) {
	n := 0
	for _, err := range keys {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}
