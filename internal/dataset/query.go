package dataset

import "context"

// Row is one result row keyed by column name.
type Row = map[string]any

// Query is a fixed, parameterless SQL statement exposed under an HTTP path.
type Query struct {
	Name    string
	Path    string
	Summary string
	SQL     string
}

// Repository runs catalog queries.
type Repository interface {
	Rows(ctx context.Context, q Query) ([]Row, error)
}
