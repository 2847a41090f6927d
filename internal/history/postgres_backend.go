package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const entriesTable = "storage_entries"

// PostgresBackend keeps entries in a single key/value table.
type PostgresBackend struct {
	db     *sql.DB
	schema lazyInit
}

func NewPostgresBackend(ctx context.Context, dsn string) (*PostgresBackend, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresBackend{db: db}, nil
}

func (p *PostgresBackend) ensureSchema(ctx context.Context) error {
	return p.schema.Do(ctx, func(ctx context.Context) error {
		_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS storage_entries (
  name TEXT PRIMARY KEY,
  payload BYTEA NOT NULL,
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);`)
		return err
	})
}

func (p *PostgresBackend) Read(ctx context.Context, key string) ([]byte, error) {
	if err := p.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	query, args := selectPayload(key)
	var payload []byte
	err := p.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (p *PostgresBackend) Write(ctx context.Context, key string, value []byte) error {
	if err := p.ensureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	query, args := upsertPayload(key, value, time.Now().UTC())
	_, err := p.db.ExecContext(ctx, query, args...)
	return err
}

func (p *PostgresBackend) Close() error { return p.db.Close() }

func selectPayload(key string) (string, []any) {
	return entsql.Dialect(dialect.Postgres).
		Select("payload").
		From(entsql.Table(entriesTable)).
		Where(entsql.EQ("name", key)).
		Query()
}

func upsertPayload(key string, value []byte, at time.Time) (string, []any) {
	if value == nil {
		value = []byte{}
	}
	return entsql.Dialect(dialect.Postgres).
		Insert(entriesTable).
		Columns("name", "payload", "updated_at").
		Values(key, value, at).
		OnConflict(
			entsql.ConflictColumns("name"),
			entsql.ResolveWithNewValues(),
		).
		Query()
}
