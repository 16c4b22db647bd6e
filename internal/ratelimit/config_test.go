package ratelimit_test

import (
	"testing"
	"time"

	"github.com/serroba/eventstats-api/internal/ratelimit"
	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     ratelimit.Config
		wantErr string
	}{
		{
			name: "valid sliding window",
			cfg:  ratelimit.Config{Limit: 10, Window: time.Minute, IdleTTL: time.Minute},
		},
		{
			name: "valid fixed window",
			cfg:  ratelimit.Config{Limit: 10, Window: time.Minute, IdleTTL: time.Hour, Algorithm: ratelimit.AlgorithmFixedWindow},
		},
		{
			name:    "zero limit",
			cfg:     ratelimit.Config{Limit: 0, Window: time.Minute, IdleTTL: time.Minute},
			wantErr: "limit must be positive",
		},
		{
			name:    "negative window",
			cfg:     ratelimit.Config{Limit: 1, Window: -time.Second, IdleTTL: time.Minute},
			wantErr: "window must be positive",
		},
		{
			name:    "idle ttl shorter than window",
			cfg:     ratelimit.Config{Limit: 1, Window: time.Minute, IdleTTL: time.Second},
			wantErr: "must not be shorter than window",
		},
		{
			name:    "unknown algorithm",
			cfg:     ratelimit.Config{Limit: 1, Window: time.Minute, IdleTTL: time.Minute, Algorithm: "leaky"},
			wantErr: `unknown algorithm "leaky"`,
		},
		{
			name: "valid token bucket",
			cfg:  ratelimit.Config{Limit: 10, Window: time.Minute, IdleTTL: time.Minute, Algorithm: ratelimit.AlgorithmTokenBucket},
		},
		{
			name: "token bucket refill interval rounds to zero",
			cfg: ratelimit.Config{
				Limit: 1000, Window: 999 * time.Nanosecond, IdleTTL: time.Minute,
				Algorithm: ratelimit.AlgorithmTokenBucket,
			},
			wantErr: "too short to refill 1000 tokens",
		},
		{
			name: "sliding window accepts a limit above the window in nanoseconds",
			cfg:  ratelimit.Config{Limit: 1000, Window: 999 * time.Nanosecond, IdleTTL: time.Minute},
		},
		{
			name:    "negative sweep interval",
			cfg:     ratelimit.Config{Limit: 1, Window: time.Minute, IdleTTL: time.Minute, SweepInterval: -1},
			wantErr: "sweep interval must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			assert.ErrorIs(t, err, ratelimit.ErrMisconfiguredLimit)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_ReportsEveryViolation(t *testing.T) {
	err := ratelimit.Config{}.Validate()

	assert.ErrorContains(t, err, "limit must be positive")
	assert.ErrorContains(t, err, "window must be positive")
}

func TestWindowLimiter_ConfigDefaults(t *testing.T) {
	limiter, err := ratelimit.NewWindowLimiter(ratelimit.NewStore(0), ratelimit.Config{
		Limit: 5, Window: time.Second, IdleTTL: 10 * time.Second,
	})

	assert.NoError(t, err)
	assert.Equal(t, ratelimit.AlgorithmSliding, limiter.Config().Algorithm)
	assert.Equal(t, 5*time.Second, limiter.Config().SweepInterval)
}
