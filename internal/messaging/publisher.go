package messaging

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// Publish is a function that publishes a typed event.
type Publish[T any] func(event *T) error

// CorrelationFunc extracts the id that ties an event to the request that caused it.
type CorrelationFunc[T any] func(event *T) string

// NewPublishFunc creates a typed publish function for a specific topic.
// When correlate is not nil its result is attached as the message correlation id.
func NewPublishFunc[T any](publisher message.Publisher, topic string, correlate CorrelationFunc[T]) Publish[T] {
	return func(event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)

		if correlate != nil {
			if id := correlate(event); id != "" {
				middleware.SetCorrelationID(id, msg)
			}
		}

		return publisher.Publish(topic, msg)
	}
}
