// Package postgres backs the vector store contract with pgvector. The SQL
// driver is registered through otelsql so every query is traced.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"go.nhat.io/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"

	"github.com/saucier-dev/saucier/internal/vectorstore"
)

var driver string

func init() {
	name, err := otelsql.Register(
		"postgres",
		otelsql.TraceQueryWithoutArgs(),
		otelsql.TraceRowsClose(),
		otelsql.TraceRowsAffected(),
		otelsql.WithSystem(semconv.DBSystemPostgreSQL),
	)
	if err != nil {
		detail := "failed to register postgres driver with otel"
		slog.Error(detail, "error", err)
		panic(detail)
	}
	driver = name
}

// Store is a pgvector-backed vectorstore.Store bound to a single table.
type Store struct {
	conn  *sql.DB
	table string
}

var _ vectorstore.Store = (*Store)(nil)

// Open connects to the database. The returned handle is shared by every
// table-scoped store created with NewStore.
func Open(dsn string) (*sql.DB, error) {
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return conn, nil
}

// NewStore ensures the table, the pgvector extension, and the embedding
// index exist, then binds the store to the table. The table name comes from
// configuration, not user input.
func NewStore(ctx context.Context, conn *sql.DB, table string, dimension int) (*Store, error) {
	ddl := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
				id TEXT PRIMARY KEY,
				text TEXT NOT NULL,
				data JSONB NOT NULL,
				embedding vector(%[2]d) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`, table, dimension),
		fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS %[1]s_embedding_idx ON %[1]s USING hnsw (embedding vector_cosine_ops)`,
			table,
		),
	}
	for _, stmt := range ddl {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("init table %s: %w", table, err)
		}
	}
	return &Store{conn: conn, table: table}, nil
}

func (s *Store) Get(ctx context.Context, id string) (*vectorstore.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, text, data, embedding, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, s.table)

	var rec vectorstore.Record
	var emb pgvector.Vector
	err := s.conn.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Text, &rec.Data, &emb, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", vectorstore.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	rec.Embedding = emb.Slice()
	return &rec, nil
}

func (s *Store) Upsert(ctx context.Context, rec vectorstore.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("upsert: empty record ID")
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, text, data, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			data = EXCLUDED.data,
			embedding = EXCLUDED.embedding,
			updated_at = now()
	`, s.table)

	if _, err := s.conn.ExecContext(
		ctx, query,
		rec.ID, rec.Text, rec.Data, pgvector.NewVector(rec.Embedding),
	); err != nil {
		return fmt.Errorf("upsert %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, q vectorstore.Query) ([]vectorstore.Match, error) {
	if q.Limit < 1 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, text, data, embedding, created_at, updated_at,
			embedding <=> $1 AS distance
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, s.table)

	rows, err := s.conn.QueryContext(ctx, query, pgvector.NewVector(q.Vector), q.Limit)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.table, err)
	}
	defer rows.Close()

	var matches []vectorstore.Match
	for rows.Next() {
		var rec vectorstore.Record
		var emb pgvector.Vector
		var distance float64
		if err := rows.Scan(
			&rec.ID, &rec.Text, &rec.Data, &emb, &rec.CreatedAt, &rec.UpdatedAt, &distance,
		); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		rec.Embedding = emb.Slice()
		matches = append(matches, vectorstore.Match{Record: rec, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return vectorstore.ApplyThreshold(matches, q.MaxDistance), nil
}

// Keys pages through IDs ordered by id, re-querying per page so the
// sequence stays lazy and restartable.
func (s *Store) Keys(ctx context.Context, pageSize int) iter.Seq2[string, error] {
	if pageSize < 1 {
		pageSize = 100
	}
	return func(yield func(string, error) bool) {
		query := fmt.Sprintf(`SELECT id FROM %s WHERE id > $1 ORDER BY id LIMIT $2`, s.table)
		after := ""
		for {
			ids, err := s.keyPage(ctx, query, after, pageSize)
			if err != nil {
				yield("", err)
				return
			}
			for _, id := range ids {
				if !yield(id, nil) {
					return
				}
				after = id
			}
			if len(ids) < pageSize {
				return
			}
		}
	}
}

func (s *Store) keyPage(ctx context.Context, query, after string, pageSize int) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, query, after, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list keys %s: %w", s.table, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return ids, nil
}
