package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/eventstats-api/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRunnable struct {
	name        string
	order       *[]string
	started     bool
	shutdown    bool
	startErr    error
	shutdownErr error
}

func (m *mockRunnable) Start(_ context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}

	m.started = true

	return nil
}

func (m *mockRunnable) Shutdown() error {
	m.shutdown = true

	if m.order != nil {
		*m.order = append(*m.order, m.name)
	}

	return m.shutdownErr
}

type mockCloser struct {
	order *[]string
	err   error
}

func (m *mockCloser) Close() error {
	*m.order = append(*m.order, "closer")

	return m.err
}

func TestGroup_Start(t *testing.T) {
	t.Run("starts all runnables", func(t *testing.T) {
		group := messaging.NewGroup("test", zap.NewNop())
		r1 := &mockRunnable{}
		r2 := &mockRunnable{}

		group.Add(r1)
		group.Add(r2)

		err := group.Start(context.Background())

		require.NoError(t, err)
		assert.True(t, r1.started)
		assert.True(t, r2.started)
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		group := messaging.NewGroup("test", zap.NewNop())
		r1 := &mockRunnable{}
		r2 := &mockRunnable{startErr: errors.New("start error")}

		group.Add(r1)
		group.Add(r2)

		err := group.Start(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "test runnable 1")
		assert.True(t, r1.started)
		assert.True(t, r1.shutdown) // Should be rolled back
		assert.False(t, r2.started)
	})
}

func TestGroup_Shutdown(t *testing.T) {
	t.Run("stops runnables in reverse order before closing resources", func(t *testing.T) {
		var order []string

		group := messaging.NewGroup("test", zap.NewNop(), &mockCloser{order: &order})
		group.Add(&mockRunnable{name: "first", order: &order})
		group.Add(&mockRunnable{name: "second", order: &order})
		_ = group.Start(context.Background())

		err := group.Shutdown()

		require.NoError(t, err)
		assert.Equal(t, []string{"second", "first", "closer"}, order)
	})

	t.Run("returns first error but shuts down all", func(t *testing.T) {
		var order []string

		group := messaging.NewGroup("test", zap.NewNop(), &mockCloser{order: &order, err: errors.New("close error")})
		r1 := &mockRunnable{shutdownErr: errors.New("shutdown error 1")}
		r2 := &mockRunnable{shutdownErr: errors.New("shutdown error 2")}

		group.Add(r1)
		group.Add(r2)
		_ = group.Start(context.Background())

		err := group.Shutdown()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "shutdown error 2")
		assert.True(t, r1.shutdown) // Still attempted
		assert.True(t, r2.shutdown)
		assert.Equal(t, []string{"closer"}, order)
	})
}
