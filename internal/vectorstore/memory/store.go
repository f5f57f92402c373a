// Package memory provides a mutex-guarded in-process vector store. It does
// an exact cosine scan over all records, which is fine for tests and small
// local datasets.
package memory

import (
	"context"
	"fmt"
	"iter"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/saucier-dev/saucier/internal/vectorstore"
)

// Store is an in-memory vectorstore.Store. The zero value is not usable;
// call New.
type Store struct {
	mu      sync.RWMutex
	records map[string]vectorstore.Record
	now     func() time.Time
}

var _ vectorstore.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		records: make(map[string]vectorstore.Record),
		now:     time.Now,
	}
}

// Get returns the record for id, or vectorstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*vectorstore.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vectorstore.ErrNotFound, id)
	}
	out := cloneRecord(rec)
	return &out, nil
}

// Upsert inserts or overwrites the record under rec.ID, stamping timestamps.
func (s *Store) Upsert(ctx context.Context, rec vectorstore.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("upsert: empty record ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if prev, ok := s.records[rec.ID]; ok {
		rec.CreatedAt = prev.CreatedAt
	} else {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

// Search scans every record, orders by cosine distance, and applies the
// query's limit and threshold.
func (s *Store) Search(ctx context.Context, q vectorstore.Query) ([]vectorstore.Match, error) {
	if q.Limit < 1 {
		return nil, nil
	}

	s.mu.RLock()
	matches := make([]vectorstore.Match, 0, len(s.records))
	for _, rec := range s.records {
		d, err := cosineDistance(q.Vector, rec.Embedding)
		if err != nil {
			s.mu.RUnlock()
			return nil, fmt.Errorf("search %s: %w", rec.ID, err)
		}
		matches = append(matches, vectorstore.Match{Record: cloneRecord(rec), Distance: d})
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Record.ID < matches[j].Record.ID
	})

	matches = vectorstore.ApplyThreshold(matches, q.MaxDistance)
	if len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}
	return matches, nil
}

// Keys returns a restartable sequence over a sorted snapshot of record IDs.
// pageSize is irrelevant for an in-memory map but kept for contract parity.
func (s *Store) Keys(ctx context.Context, pageSize int) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		s.mu.RLock()
		ids := make([]string, 0, len(s.records))
		for id := range s.records {
			ids = append(ids, id)
		}
		s.mu.RUnlock()

		sort.Strings(ids)
		for _, id := range ids {
			if ctx.Err() != nil {
				yield("", ctx.Err())
				return
			}
			if !yield(id, nil) {
				return
			}
		}
	}
}

// Len returns the current record count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneRecord(rec vectorstore.Record) vectorstore.Record {
	out := rec
	out.Data = append([]byte(nil), rec.Data...)
	out.Embedding = append([]float32(nil), rec.Embedding...)
	return out
}

// cosineDistance returns 1 - cos(a, b). Zero-magnitude vectors are treated
// as maximally distant rather than erroring, matching the behavior of the
// server-side backends.
func cosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 1, nil
	}
	return 1 - dot/(math.Sqrt(magA)*math.Sqrt(magB)), nil
}
