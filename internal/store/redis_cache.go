package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/eventstats-api/internal/dataset"
	"go.uber.org/zap"
)

// RedisCacheRepository wraps a Repository with Redis caching for reads.
// Results are cached per query name for ttl; cache errors fall through to the
// wrapped repository.
type RedisCacheRepository struct {
	store  dataset.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store dataset.Repository, client *redis.Client, ttl time.Duration, logger *zap.Logger,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "query:",
		ttl:    ttl,
		logger: logger,
	}
}

// Rows returns the cached rows for q, querying the wrapped store on a miss.
func (r *RedisCacheRepository) Rows(ctx context.Context, q dataset.Query) ([]dataset.Row, error) {
	if rows, err := r.getFromCache(ctx, q); err == nil {
		return rows, nil
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("query cache read failed", zap.String("query", q.Name), zap.Error(err))
	}

	rows, err := r.store.Rows(ctx, q)
	if err != nil {
		return nil, err
	}

	r.cacheRows(ctx, q, rows)

	return rows, nil
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, q dataset.Query) ([]dataset.Row, error) {
	payload, err := r.client.Get(ctx, r.prefix+q.Name).Bytes()
	if err != nil {
		return nil, err
	}

	var rows []dataset.Row
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *RedisCacheRepository) cacheRows(ctx context.Context, q dataset.Query, rows []dataset.Row) {
	payload, err := json.Marshal(rows)
	if err != nil {
		r.logger.Warn("query result not cacheable", zap.String("query", q.Name), zap.Error(err))

		return
	}

	if err := r.client.Set(ctx, r.prefix+q.Name, payload, r.ttl).Err(); err != nil {
		r.logger.Warn("query cache write failed", zap.String("query", q.Name), zap.Error(err))
	}
}

// Shutdown is a no-op for RedisCacheRepository (client managed externally).
func (r *RedisCacheRepository) Shutdown() error {
	return nil
}

// Compile-time check.
var _ dataset.Repository = (*RedisCacheRepository)(nil)
