// Package metrics holds Prometheus helpers shared by the service components.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Register registers c with r. When an identical collector is already
// registered the existing one is returned, so components built twice against
// one registry share their series. Any other registration failure is returned.
func Register[T prometheus.Collector](r prometheus.Registerer, c T) (T, error) {
	err := r.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}

	return c, fmt.Errorf("cannot register collector: %w", err)
}
