package analytics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/serroba/eventstats-api/internal/messaging"
	"github.com/serroba/eventstats-api/internal/metrics"
	"go.uber.org/zap"
)

// Recorder buffers events in memory and publishes them from a background
// goroutine, so callers on the request path never wait on the broker.
// When the buffer is full new events are dropped.
type Recorder struct {
	publish messaging.Publish[RateLimitedEvent]
	events  chan *RateLimitedEvent
	dropped prometheus.Counter
	logger  *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
	done    chan struct{}
}

// NewRecorder creates a recorder holding up to buffer pending events.
func NewRecorder(
	publish messaging.Publish[RateLimitedEvent],
	buffer int,
	registerer prometheus.Registerer,
	logger *zap.Logger,
) (*Recorder, error) {
	dropped, err := metrics.Register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: "analytics",
		Name:      "events_dropped_total",
		Help:      "Total number of analytics events dropped because the buffer was full.",
	}))
	if err != nil {
		return nil, err
	}

	return &Recorder{
		publish: publish,
		events:  make(chan *RateLimitedEvent, max(buffer, 1)),
		dropped: dropped,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Record enqueues event without blocking. It reports false when the event was dropped.
func (r *Recorder) Record(event *RateLimitedEvent) bool {
	select {
	case r.events <- event:
		return true
	default:
		r.dropped.Inc()

		return false
	}
}

// Start begins publishing buffered events. It is a no-op once the recorder
// has been started or shut down.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil || r.stopped {
		return nil
	}

	ctx, r.cancel = context.WithCancel(ctx)

	go r.publishLoop(ctx)

	return nil
}

func (r *Recorder) publishLoop(ctx context.Context) {
	defer close(r.done)

	for {
		select {
		case <-ctx.Done():
			r.flush()

			return
		case event := <-r.events:
			r.send(event)
		}
	}
}

// flush publishes whatever is still buffered.
func (r *Recorder) flush() {
	for {
		select {
		case event := <-r.events:
			r.send(event)
		default:
			return
		}
	}
}

func (r *Recorder) send(event *RateLimitedEvent) {
	if err := r.publish(event); err != nil {
		r.logger.Error("failed to publish rate limited event",
			zap.String("request_id", event.RequestID),
			zap.Error(err),
		)
	}
}

// Shutdown stops the publish loop after flushing buffered events.
func (r *Recorder) Shutdown() error {
	r.mu.Lock()
	r.stopped = true
	cancel := r.cancel
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	<-r.done

	return nil
}
