package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow decides whether a request from the given key is admitted and records its effect.
	Allow(ctx context.Context, key string) (Decision, error)
}

// RejectKind classifies a rejected decision.
type RejectKind string

// RejectRateLimited means the client exhausted its quota for the current window.
const RejectRateLimited RejectKind = "rate_limited"

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool
	// Reject is empty for admitted requests.
	Reject RejectKind
	// Limit is the configured number of requests per window.
	Limit int
	// Remaining is how many more requests the client may make right now.
	Remaining int
	// RetryAfter estimates when the client can next be admitted. Zero when admitted.
	RetryAfter time.Duration
}

// Option configures limiter components during initialization.
type Option func(o *options)

type options struct {
	clock   Clock
	logger  *zap.Logger
	metrics *Metrics
}

// WithClock replaces the system clock, typically with a synthetic one in tests.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger used by the component.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l.Named("ratelimit")
	}
}

// WithMetrics records decisions and evictions into m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func newOptions(opts []Option) options {
	o := options{
		clock:  SystemClock(),
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WindowLimiter is the admission decision engine. Every key is accounted
// under its own record lock, so requests from one client are serialized
// while different clients proceed independently.
type WindowLimiter struct {
	store   *Store
	cfg     Config
	account accountFunc
	clock   Clock
	metrics *Metrics
}

// NewWindowLimiter creates a limiter over store. It fails with
// ErrMisconfiguredLimit when cfg is invalid.
func NewWindowLimiter(store *Store, cfg Config, opts ...Option) (*WindowLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg = cfg.withDefaults()
	o := newOptions(opts)

	return &WindowLimiter{
		store:   store,
		cfg:     cfg,
		account: newAccountFunc(cfg),
		clock:   o.clock,
		metrics: o.metrics,
	}, nil
}

// Allow never returns an error; the signature leaves room for limiters backed by I/O.
func (l *WindowLimiter) Allow(_ context.Context, key string) (Decision, error) {
	for {
		rec := l.store.GetOrCreate(key)

		rec.mu.Lock()
		if rec.evicted {
			// Lost a race with the sweeper; the next lookup creates a fresh record.
			rec.mu.Unlock()

			continue
		}

		now := l.clock.Now()
		decision := l.account(rec, now)
		rec.lastSeen = now
		rec.mu.Unlock()

		l.metrics.observeDecision(decision)

		return decision, nil
	}
}

// Config returns the effective configuration, defaults applied.
func (l *WindowLimiter) Config() Config {
	return l.cfg
}
