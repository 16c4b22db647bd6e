package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/eventstats-api/internal/analytics"
)

const createEventsTable = `
	CREATE TABLE IF NOT EXISTS rate_limit_events (
		id           BIGSERIAL PRIMARY KEY,
		request_id   TEXT NOT NULL,
		client_key   TEXT NOT NULL,
		client_ip    TEXT NOT NULL,
		user_agent   TEXT,
		method       TEXT NOT NULL,
		path         TEXT NOT NULL,
		algorithm    TEXT NOT NULL,
		rate_limit   INTEGER NOT NULL,
		retry_after  INTERVAL NOT NULL,
		occurred_at  TIMESTAMPTZ NOT NULL
	)
`

// Postgres persists analytics events to PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates the events table if needed and returns the store.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if _, err := pool.Exec(ctx, createEventsTable); err != nil {
		return nil, fmt.Errorf("cannot ensure rate_limit_events table: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (p *Postgres) SaveRateLimited(ctx context.Context, event *analytics.RateLimitedEvent) error {
	query := `
		INSERT INTO rate_limit_events
			(request_id, client_key, client_ip, user_agent, method, path, algorithm, rate_limit, retry_after, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := p.pool.Exec(ctx, query,
		event.RequestID,
		event.ClientKey,
		event.ClientIP,
		event.UserAgent,
		event.Method,
		event.Path,
		event.Algorithm,
		event.Limit,
		event.RetryAfter,
		event.OccurredAt,
	)

	return err
}

// Shutdown closes the connection pool.
func (p *Postgres) Shutdown() error {
	p.pool.Close()

	return nil
}

// Compile-time check.
var _ analytics.Store = (*Postgres)(nil)
