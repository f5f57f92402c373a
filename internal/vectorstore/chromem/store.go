// Package chromem backs the vector store contract with chromem-go, a pure
// Go embedded vector database. It is the single-binary local mode: no
// server, everything in process.
package chromem

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/saucier-dev/saucier/internal/vectorstore"
)

const (
	metaText      = "text"
	metaCreatedAt = "created_at"
	metaUpdatedAt = "updated_at"
)

// Store is a chromem-backed vectorstore.Store bound to one collection.
type Store struct {
	col *chromem.Collection
	now func() time.Time

	// chromem does not expose key enumeration, so the wrapper tracks IDs.
	mu  sync.RWMutex
	ids map[string]struct{}
}

var _ vectorstore.Store = (*Store)(nil)

// New creates (or reopens) the named collection on db. Embeddings are always
// supplied by the caller, so no embedding function is registered.
func New(db *chromem.DB, collection string) (*Store, error) {
	col, err := db.GetOrCreateCollection(collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection %s: %w", collection, err)
	}
	return &Store{
		col: col,
		now: time.Now,
		ids: make(map[string]struct{}),
	}, nil
}

func (s *Store) Get(ctx context.Context, id string) (*vectorstore.Record, error) {
	doc, err := s.col.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", vectorstore.ErrNotFound, id)
	}
	rec := docToRecord(doc)
	return &rec, nil
}

func (s *Store) Upsert(ctx context.Context, rec vectorstore.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("upsert: empty record ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	createdAt := now
	if _, exists := s.ids[rec.ID]; exists {
		if prev, err := s.col.GetByID(ctx, rec.ID); err == nil {
			if t, perr := time.Parse(time.RFC3339Nano, prev.Metadata[metaCreatedAt]); perr == nil {
				createdAt = t
			}
		}
		if err := s.col.Delete(ctx, nil, nil, rec.ID); err != nil {
			return fmt.Errorf("replace %s: %w", rec.ID, err)
		}
	}

	doc := chromem.Document{
		ID:        rec.ID,
		Content:   string(rec.Data),
		Embedding: rec.Embedding,
		Metadata: map[string]string{
			metaText:      rec.Text,
			metaCreatedAt: createdAt.Format(time.RFC3339Nano),
			metaUpdatedAt: now.Format(time.RFC3339Nano),
		},
	}
	if err := s.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document %s: %w", rec.ID, err)
	}
	s.ids[rec.ID] = struct{}{}
	return nil
}

func (s *Store) Search(ctx context.Context, q vectorstore.Query) ([]vectorstore.Match, error) {
	if q.Limit < 1 {
		return nil, nil
	}

	// chromem rejects nResults larger than the collection size.
	n := q.Limit
	if count := s.col.Count(); count < n {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	results, err := s.col.QueryEmbedding(ctx, q.Vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	matches := make([]vectorstore.Match, 0, len(results))
	for _, res := range results {
		matches = append(matches, vectorstore.Match{
			Record: docToRecord(chromem.Document{
				ID:        res.ID,
				Content:   res.Content,
				Embedding: res.Embedding,
				Metadata:  res.Metadata,
			}),
			// chromem reports cosine similarity; the contract is distance.
			Distance: 1 - float64(res.Similarity),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	return vectorstore.ApplyThreshold(matches, q.MaxDistance), nil
}

func (s *Store) Keys(ctx context.Context, pageSize int) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		s.mu.RLock()
		ids := make([]string, 0, len(s.ids))
		for id := range s.ids {
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

func docToRecord(doc chromem.Document) vectorstore.Record {
	rec := vectorstore.Record{
		ID:        doc.ID,
		Text:      doc.Metadata[metaText],
		Data:      []byte(doc.Content),
		Embedding: doc.Embedding,
	}
	if t, err := time.Parse(time.RFC3339Nano, doc.Metadata[metaCreatedAt]); err == nil {
		rec.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, doc.Metadata[metaUpdatedAt]); err == nil {
		rec.UpdatedAt = t
	}
	return rec
}
