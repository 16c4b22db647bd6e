package analytics

import "time"

// TopicRateLimited is the topic rejected admissions are published to.
const TopicRateLimited = "ratelimit.rejected"

// RateLimitedEvent represents a request rejected by the rate limiter.
type RateLimitedEvent struct {
	RequestID  string        `json:"requestId"`
	ClientKey  string        `json:"clientKey"`
	ClientIP   string        `json:"clientIp"`
	UserAgent  string        `json:"userAgent,omitempty"`
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	Algorithm  string        `json:"algorithm"`
	Limit      int           `json:"limit"`
	RetryAfter time.Duration `json:"retryAfter"`
	OccurredAt time.Time     `json:"occurredAt"`
}
