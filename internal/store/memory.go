package store

import (
	"context"
	"sync"

	"github.com/serroba/eventstats-api/internal/dataset"
)

// MemoryRepository is an in-memory implementation of dataset.Repository.
// Rows are served by query name; unknown queries yield no rows.
type MemoryRepository struct {
	mu    sync.RWMutex
	rows  map[string][]dataset.Row
	calls map[string]int
}

// NewMemoryRepository creates a new in-memory query store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rows:  make(map[string][]dataset.Row),
		calls: make(map[string]int),
	}
}

// Set replaces the rows served for the named query.
func (m *MemoryRepository) Set(name string, rows []dataset.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows[name] = rows
}

func (m *MemoryRepository) Rows(_ context.Context, q dataset.Query) ([]dataset.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls[q.Name]++

	rows, ok := m.rows[q.Name]
	if !ok {
		return []dataset.Row{}, nil
	}

	return rows, nil
}

// Calls returns how many times the named query has been run.
func (m *MemoryRepository) Calls(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.calls[name]
}

// Compile-time check.
var _ dataset.Repository = (*MemoryRepository)(nil)
