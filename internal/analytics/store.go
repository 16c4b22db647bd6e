package analytics

import "context"

// Store defines the interface for persisting analytics events.
type Store interface {
	SaveRateLimited(ctx context.Context, event *RateLimitedEvent) error
}
