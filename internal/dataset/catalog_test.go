package dataset_test

import (
	"strings"
	"testing"

	"github.com/serroba/eventstats-api/internal/dataset"
	"github.com/stretchr/testify/assert"
)

func TestCatalog(t *testing.T) {
	t.Run("names and paths are unique", func(t *testing.T) {
		names := map[string]bool{}
		paths := map[string]bool{}

		for _, q := range dataset.Catalog {
			assert.False(t, names[q.Name], "duplicate name %s", q.Name)
			assert.False(t, paths[q.Path], "duplicate path %s", q.Path)
			assert.True(t, strings.HasPrefix(q.Path, "/"), "path %s must be absolute", q.Path)
			assert.NotEmpty(t, strings.TrimSpace(q.SQL))

			names[q.Name] = true
			paths[q.Path] = true
		}

		assert.Len(t, dataset.Catalog, 10)
	})
}
