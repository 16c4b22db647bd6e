package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper reclaims records of clients that have been idle for longer than the
// idle TTL, so the store does not grow with every client ever seen.
type Sweeper struct {
	store    *Store
	idleTTL  time.Duration
	interval time.Duration
	clock    Clock
	logger   *zap.Logger
	metrics  *Metrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
	done    chan struct{}
}

// NewSweeper creates a sweeper for store. It fails with ErrMisconfiguredLimit when cfg is invalid.
func NewSweeper(store *Store, cfg Config, opts ...Option) (*Sweeper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg = cfg.withDefaults()
	o := newOptions(opts)

	return &Sweeper{
		store:    store,
		idleTTL:  cfg.IdleTTL,
		interval: cfg.SweepInterval,
		clock:    o.clock,
		logger:   o.logger,
		metrics:  o.metrics,
		done:     make(chan struct{}),
	}, nil
}

// Sweep evicts every record idle for longer than the idle TTL and returns how
// many were removed. Only one record is locked at a time.
func (s *Sweeper) Sweep() int {
	now := s.clock.Now()
	evicted := 0

	for _, key := range s.store.Keys() {
		rec, ok := s.store.Load(key)
		if !ok {
			continue
		}

		rec.mu.Lock()
		if now.Sub(rec.lastSeen) > s.idleTTL && s.store.evictLocked(rec) {
			evicted++
		}
		rec.mu.Unlock()
	}

	s.metrics.observeEvictions(evicted)

	return evicted
}

// Start runs Sweep every interval in the background until ctx is cancelled or
// Shutdown is called. Calls after the first, or after Shutdown, are no-ops.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil || s.stopped {
		return nil
	}

	ctx, s.cancel = context.WithCancel(ctx)

	go s.run(ctx)

	return nil
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	s.logger.Info("starting idle client sweeper",
		zap.Duration("interval", s.interval),
		zap.Duration("idle_ttl", s.idleTTL),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping idle client sweeper")

			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("evicted idle clients",
					zap.Int("evicted", n),
					zap.Int("remaining", s.store.Len()),
				)
			}
		}
	}
}

// Shutdown stops the background loop and waits for it to exit.
func (s *Sweeper) Shutdown() error {
	s.mu.Lock()
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	<-s.done

	return nil
}
