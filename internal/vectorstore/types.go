package vectorstore

import (
	"sync"
	"time"
)

// VectorEntry is one stored vector keyed by ID
type VectorEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Vector    []float32 `json:"vector"`
	Timestamp time.Time `json:"timestamp"`
}

// MemoryStoreOptions configures the in-memory vector store
type MemoryStoreOptions struct {
	Dimension         int
	CancelCheckPeriod int
}

// MemoryStoreOption is a function type for configuring MemoryStore
type MemoryStoreOption func(*MemoryStoreOptions)

// WithDimension rejects vectors whose length differs from dim
func WithDimension(dim int) MemoryStoreOption {
	return func(opts *MemoryStoreOptions) {
		opts.Dimension = dim
	}
}

// WithCancelCheckPeriod sets how many entries are scored between context checks
func WithCancelCheckPeriod(n int) MemoryStoreOption {
	return func(opts *MemoryStoreOptions) {
		opts.CancelCheckPeriod = n
	}
}

// MemoryStore keeps vectors in a map guarded by a RWMutex
type MemoryStore struct {
	mu      sync.RWMutex
	vectors map[string]VectorEntry
	options MemoryStoreOptions
}
