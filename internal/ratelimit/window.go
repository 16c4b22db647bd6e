package ratelimit

import (
	"sort"
	"time"

	"golang.org/x/time/rate"
)

// accountFunc applies one request at now to rec and returns the decision.
// It runs with rec.mu held and must not block.
type accountFunc func(rec *ClientRecord, now time.Time) Decision

func newAccountFunc(cfg Config) accountFunc {
	switch cfg.Algorithm {
	case AlgorithmFixedWindow:
		return fixedWindow(cfg.Limit, cfg.Window)
	case AlgorithmTokenBucket:
		return tokenBucket(cfg.Limit, cfg.Window)
	default:
		return slidingWindow(cfg.Limit, cfg.Window)
	}
}

// slidingWindow keeps the admitted instants of the trailing window. An instant
// at exactly now-window has left the window.
func slidingWindow(limit int, window time.Duration) accountFunc {
	return func(rec *ClientRecord, now time.Time) Decision {
		cutoff := now.Add(-window)

		live := rec.timestamps[rec.head:]
		rec.head += sort.Search(len(live), func(i int) bool {
			return live[i].After(cutoff)
		})

		// Reclaim the dropped prefix once it dominates the slice.
		if rec.head > 0 && rec.head*2 >= len(rec.timestamps) {
			n := copy(rec.timestamps, rec.timestamps[rec.head:])
			clear(rec.timestamps[n:])
			rec.timestamps = rec.timestamps[:n]
			rec.head = 0
		}

		count := len(rec.timestamps) - rec.head
		if count >= limit {
			oldest := rec.timestamps[rec.head]

			return rejected(limit, oldest.Add(window).Sub(now))
		}

		rec.timestamps = append(rec.timestamps, now)

		return admitted(limit, limit-count-1)
	}
}

// fixedWindow counts requests in a window opened by the first request after
// the previous one has fully elapsed. Rejections report the whole window as
// retry-after.
func fixedWindow(limit int, window time.Duration) accountFunc {
	return func(rec *ClientRecord, now time.Time) Decision {
		if rec.windowStart.IsZero() || now.Sub(rec.windowStart) >= window {
			rec.windowStart = now
			rec.count = 0
		}

		if rec.count >= limit {
			return rejected(limit, window)
		}

		rec.count++

		return admitted(limit, limit-rec.count)
	}
}

// tokenBucket refills limit tokens per window and holds at most limit.
func tokenBucket(limit int, window time.Duration) accountFunc {
	every := rate.Every(window / time.Duration(limit))

	return func(rec *ClientRecord, now time.Time) Decision {
		if rec.bucket == nil {
			rec.bucket = rate.NewLimiter(every, limit)
		}

		if rec.bucket.AllowN(now, 1) {
			return admitted(limit, int(rec.bucket.TokensAt(now)))
		}

		missing := 1 - rec.bucket.TokensAt(now)
		wait := time.Duration(missing / float64(rec.bucket.Limit()) * float64(time.Second))

		return rejected(limit, wait)
	}
}

func admitted(limit, remaining int) Decision {
	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: max(remaining, 0),
	}
}

func rejected(limit int, retryAfter time.Duration) Decision {
	return Decision{
		Reject:     RejectRateLimited,
		Limit:      limit,
		RetryAfter: max(retryAfter, 0),
	}
}
