package vectorstore

import (
	"context"
	"io"
)

// VectorStore holds word vectors keyed by word and answers cosine
// nearest-neighbor queries
type VectorStore interface {
	Store(id string, text string, vector []float32) error
	Get(id string) (VectorEntry, bool)
	SearchWithFilter(ctx context.Context, vector []float32, topK int, filter func(VectorEntry) bool) ([]SearchResult, error)
	Size() int
	ExportToWriter(w io.Writer) error
}

var _ VectorStore = (*MemoryStore)(nil)

// SearchResult is one scored entry, most similar first in result slices
type SearchResult struct {
	ID     string    `json:"id"`
	Score  float32   `json:"score"`
	Text   string    `json:"text,omitempty"`
	Vector []float32 `json:"-"`
}
