package messaging

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Runnable represents a component that can be started and shutdown.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// Group runs background components with a unified lifecycle and closes the
// resources they depend on (publishers, subscribers) once they have stopped.
type Group struct {
	name      string
	runnables []Runnable
	closers   []io.Closer
	logger    *zap.Logger
}

// NewGroup creates a new group. Closers are closed in order after every
// runnable has been shut down.
func NewGroup(name string, logger *zap.Logger, closers ...io.Closer) *Group {
	return &Group{
		name:    name,
		closers: closers,
		logger:  logger,
	}
}

// Add registers a runnable to the group.
func (g *Group) Add(r Runnable) {
	g.runnables = append(g.runnables, r)
}

// Start starts all runnables in registration order.
func (g *Group) Start(ctx context.Context) error {
	for i, r := range g.runnables {
		if err := r.Start(ctx); err != nil {
			// Shutdown already started runnables on failure
			for j := i - 1; j >= 0; j-- {
				_ = g.runnables[j].Shutdown()
			}

			return fmt.Errorf("failed to start %s runnable %d: %w", g.name, i, err)
		}
	}

	g.logger.Info("group started", zap.String("group", g.name), zap.Int("count", len(g.runnables)))

	return nil
}

// Shutdown stops runnables in reverse order, then closes the resources.
// It returns the first error encountered.
func (g *Group) Shutdown() error {
	g.logger.Info("shutting down group", zap.String("group", g.name))

	var firstErr error

	for i := len(g.runnables) - 1; i >= 0; i-- {
		if err := g.runnables[i].Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, c := range g.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
