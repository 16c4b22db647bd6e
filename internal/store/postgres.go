package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/eventstats-api/internal/dataset"
)

// PostgresStore is a PostgreSQL implementation of dataset.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed query store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Rows runs q and returns every row keyed by column name. An empty result is
// an empty, non-nil slice so it encodes as [].
func (p *PostgresStore) Rows(ctx context.Context, q dataset.Query) ([]dataset.Row, error) {
	rows, err := p.pool.Query(ctx, q.SQL)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Name, err)
	}

	result, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", q.Name, err)
	}

	if result == nil {
		result = []dataset.Row{}
	}

	return result, nil
}

// Ping checks PostgreSQL connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

// Compile-time check.
var _ dataset.Repository = (*PostgresStore)(nil)
