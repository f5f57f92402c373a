package surreal

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/saucier-dev/saucier/internal/vectorstore"
)

// hnswEF controls search-time recall of the HNSW index.
const hnswEF = 40

// Store is a SurrealDB-backed vectorstore.Store bound to a single table.
type Store struct {
	client *Client
	table  string
}

var _ vectorstore.Store = (*Store)(nil)

// recordRow is the wire shape of a stored record.
type recordRow struct {
	ID        surrealmodels.RecordID `json:"id"`
	Text      string                 `json:"text"`
	Data      string                 `json:"data"`
	Embedding []float32              `json:"embedding,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	Distance  float64                `json:"distance,omitempty"`
}

// NewStore binds a table on the shared client and ensures its schema and
// HNSW index exist. dimension must match the embedder's output dimension.
func NewStore(ctx context.Context, client *Client, table string, dimension int) (*Store, error) {
	schema := fmt.Sprintf(`
		DEFINE TABLE IF NOT EXISTS %[1]s SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS text ON %[1]s TYPE string;
		DEFINE FIELD IF NOT EXISTS data ON %[1]s TYPE string;
		DEFINE FIELD IF NOT EXISTS embedding ON %[1]s TYPE array<float>;
		DEFINE FIELD IF NOT EXISTS created_at ON %[1]s TYPE datetime DEFAULT time::now() READONLY;
		DEFINE FIELD IF NOT EXISTS updated_at ON %[1]s TYPE datetime VALUE time::now();
		DEFINE INDEX IF NOT EXISTS %[1]s_embedding ON %[1]s FIELDS embedding HNSW DIMENSION %[2]d DIST COSINE TYPE F32;
	`, table, dimension)

	if _, err := surrealdb.Query[any](ctx, client.db, schema, nil); err != nil {
		return nil, fmt.Errorf("init schema for %s: %w", table, err)
	}
	return &Store{client: client, table: table}, nil
}

func (s *Store) Get(ctx context.Context, id string) (*vectorstore.Record, error) {
	sql := `SELECT * FROM type::thing($tb, $id)`
	results, err := surrealdb.Query[[]recordRow](ctx, s.client.db, sql, map[string]any{
		"tb": s.table,
		"id": id,
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}

	rows := firstResult(results)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", vectorstore.ErrNotFound, id)
	}
	rec := rowToRecord(rows[0])
	return &rec, nil
}

func (s *Store) Upsert(ctx context.Context, rec vectorstore.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("upsert: empty record ID")
	}

	sql := `
		UPSERT type::thing($tb, $id) SET
			text = $text,
			data = $data,
			embedding = $embedding
	`
	_, err := surrealdb.Query[any](ctx, s.client.db, sql, map[string]any{
		"tb":        s.table,
		"id":        rec.ID,
		"text":      rec.Text,
		"data":      string(rec.Data),
		"embedding": rec.Embedding,
	})
	if err != nil {
		return fmt.Errorf("upsert %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, q vectorstore.Query) ([]vectorstore.Match, error) {
	if q.Limit < 1 {
		return nil, nil
	}

	// The KNN operator needs literal table and parameters to hit the index.
	sql := fmt.Sprintf(`
		SELECT id, text, data, created_at, updated_at,
			vector::distance::knn() AS distance
		FROM %s
		WHERE embedding <|%d,%d|> $vec
		ORDER BY distance ASC
	`, s.table, q.Limit, hnswEF)

	results, err := surrealdb.Query[[]recordRow](ctx, s.client.db, sql, map[string]any{
		"vec": q.Vector,
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.table, err)
	}

	rows := firstResult(results)
	matches := make([]vectorstore.Match, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, vectorstore.Match{
			Record:   rowToRecord(row),
			Distance: row.Distance,
		})
	}
	return vectorstore.ApplyThreshold(matches, q.MaxDistance), nil
}

// Keys pages through record IDs with LIMIT/START. Each range over the
// returned sequence restarts from the first page.
func (s *Store) Keys(ctx context.Context, pageSize int) iter.Seq2[string, error] {
	if pageSize < 1 {
		pageSize = 100
	}
	return func(yield func(string, error) bool) {
		sql := fmt.Sprintf(`SELECT VALUE id FROM %s ORDER BY id LIMIT $limit START $start`, s.table)
		for start := 0; ; start += pageSize {
			results, err := surrealdb.Query[[]surrealmodels.RecordID](ctx, s.client.db, sql, map[string]any{
				"limit": pageSize,
				"start": start,
			})
			if err != nil {
				yield("", fmt.Errorf("list keys %s: %w", s.table, err))
				return
			}
			ids := firstResult(results)
			for _, rid := range ids {
				if !yield(fmt.Sprintf("%v", rid.ID), nil) {
					return
				}
			}
			if len(ids) < pageSize {
				return
			}
		}
	}
}

func rowToRecord(row recordRow) vectorstore.Record {
	return vectorstore.Record{
		ID:        fmt.Sprintf("%v", row.ID.ID),
		Text:      row.Text,
		Data:      []byte(row.Data),
		Embedding: row.Embedding,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func firstResult[T any](results *[]surrealdb.QueryResult[T]) T {
	var zero T
	if results == nil || len(*results) == 0 {
		return zero
	}
	return (*results)[0].Result
}
