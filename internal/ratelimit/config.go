package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// ErrMisconfiguredLimit is returned when a Config cannot produce defined limiting behavior.
var ErrMisconfiguredLimit = errors.New("misconfigured rate limit")

// Algorithm selects how requests are accounted within a window.
type Algorithm string

const (
	// AlgorithmSliding counts the exact number of admitted requests in the
	// trailing window. This is the default.
	AlgorithmSliding Algorithm = "sliding"
	// AlgorithmFixedWindow counts requests in a window opened by the first
	// request once the previous one has elapsed. It allows bursts of up to
	// twice the limit across a window boundary.
	AlgorithmFixedWindow Algorithm = "fixed"
	// AlgorithmTokenBucket refills limit tokens per window with a burst of limit.
	AlgorithmTokenBucket Algorithm = "token_bucket"
)

const (
	defaultShards = 64
	minSweepEvery = time.Second
)

// Config is the single per-client policy applied to every request.
type Config struct {
	// Limit is the maximum number of admitted requests per window.
	Limit int
	// Window is the accounting window length.
	Window time.Duration
	// IdleTTL is how long a client may stay silent before its record is reclaimed.
	// It must not be shorter than Window.
	IdleTTL time.Duration
	// SweepInterval is how often idle records are reclaimed. Defaults to IdleTTL/2.
	SweepInterval time.Duration
	// Algorithm defaults to AlgorithmSliding.
	Algorithm Algorithm
	// Shards is the number of independently locked partitions of the store.
	Shards int
}

// Validate reports every constraint the configuration violates, wrapped in ErrMisconfiguredLimit.
func (c Config) Validate() error {
	var errs []error

	if c.Limit <= 0 {
		errs = append(errs, fmt.Errorf("limit must be positive, got %d", c.Limit))
	}

	if c.Window <= 0 {
		errs = append(errs, fmt.Errorf("window must be positive, got %s", c.Window))
	}

	if c.IdleTTL < c.Window {
		errs = append(errs, fmt.Errorf("idle ttl %s must not be shorter than window %s", c.IdleTTL, c.Window))
	}

	if c.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("sweep interval must not be negative, got %s", c.SweepInterval))
	}

	if c.Shards < 0 {
		errs = append(errs, fmt.Errorf("shards must not be negative, got %d", c.Shards))
	}

	switch c.Algorithm {
	case "", AlgorithmSliding, AlgorithmFixedWindow:
	case AlgorithmTokenBucket:
		// One token is refilled every Window/Limit; it must not round to zero.
		if c.Limit > 0 && c.Window > 0 && c.Window/time.Duration(c.Limit) == 0 {
			errs = append(errs, fmt.Errorf("window %s is too short to refill %d tokens", c.Window, c.Limit))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown algorithm %q", c.Algorithm))
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrMisconfiguredLimit, errors.Join(errs...))
}

func (c Config) withDefaults() Config {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmSliding
	}

	if c.Shards == 0 {
		c.Shards = defaultShards
	}

	if c.SweepInterval == 0 {
		c.SweepInterval = max(c.IdleTTL/2, minSweepEvery)
	}

	return c
}
