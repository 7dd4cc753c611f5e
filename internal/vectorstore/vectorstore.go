package vectorstore

import (
	"context"
	"errors"
)

// Record is one entry in the vector index.
type Record struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// Match is one ranked similarity-search hit.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// ErrDimensionMismatch means the index was built with a different embedding
// dimension than the one configured. That is a configuration error, fatal
// at startup, never retried silently.
var ErrDimensionMismatch = errors.New("index vector dimension does not match configured embedding dimension")

// Store is the external vector index. Upserts are idempotent by ID; the
// index is the single source of truth for similarity search.
type Store interface {
	// EnsureCollection verifies the index exists with the given dimension,
	// creating it when missing.
	EnsureCollection(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
}
