package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// NewMemoryStore creates a new in-memory vector store
func NewMemoryStore(options ...MemoryStoreOption) *MemoryStore {
	opts := MemoryStoreOptions{CancelCheckPeriod: 1024}
	for _, option := range options {
		option(&opts)
	}
	if opts.CancelCheckPeriod < 1 {
		opts.CancelCheckPeriod = 1
	}

	return &MemoryStore{
		vectors: make(map[string]VectorEntry),
		options: opts,
	}
}

// Store adds or replaces a vector
func (ms *MemoryStore) Store(id, text string, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("vector for %q is empty", id)
	}
	if ms.options.Dimension > 0 && len(vector) != ms.options.Dimension {
		return fmt.Errorf("vector for %q has dimension %d, store expects %d: %w",
			id, len(vector), ms.options.Dimension, ErrDimensionMismatch)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.vectors[id] = VectorEntry{
		ID:        id,
		Text:      text,
		Vector:    vector,
		Timestamp: time.Now(),
	}
	return nil
}

// SearchWithFilter scores every entry accepted by filter and returns the topK
// by descending cosine similarity. Ties are broken by ID so results are stable.
// A topK <= 0 returns every accepted entry; a nil filter accepts everything.
func (ms *MemoryStore) SearchWithFilter(ctx context.Context, vector []float32, topK int, filter func(VectorEntry) bool) ([]SearchResult, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	results := make([]SearchResult, 0, len(ms.vectors))
	scanned := 0
	for _, entry := range ms.vectors {
		scanned++
		if scanned%ms.options.CancelCheckPeriod == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if filter != nil && !filter(entry) {
			continue
		}
		results = append(results, SearchResult{
			ID:     entry.ID,
			Score:  CosineSimilarity(vector, entry.Vector),
			Text:   entry.Text,
			Vector: entry.Vector,
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// ExportToWriter writes every entry as one JSON object keyed by ID
func (ms *MemoryStore) ExportToWriter(w io.Writer) error {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(ms.vectors); err != nil {
		return fmt.Errorf("failed to encode vectors: %w", err)
	}
	return nil
}

// ImportFromReader merges the entries of a JSON snapshot. Entries whose
// dimension does not match the store are rejected and nothing is merged.
func (ms *MemoryStore) ImportFromReader(r io.Reader) error {
	vectors := make(map[string]VectorEntry)
	if err := json.NewDecoder(r).Decode(&vectors); err != nil {
		return fmt.Errorf("failed to decode vectors: %w", err)
	}
	for id, entry := range vectors {
		if ms.options.Dimension > 0 && len(entry.Vector) != ms.options.Dimension {
			return fmt.Errorf("snapshot vector %q has dimension %d: %w", id, len(entry.Vector), ErrDimensionMismatch)
		}
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	for id, entry := range vectors {
		entry.ID = id
		ms.vectors[id] = entry
	}
	return nil
}

// Size returns the number of vectors in the store
func (ms *MemoryStore) Size() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.vectors)
}

// Get retrieves a vector entry by ID
func (ms *MemoryStore) Get(id string) (VectorEntry, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	entry, exists := ms.vectors[id]
	return entry, exists
}

// List returns all IDs in sorted order
func (ms *MemoryStore) List() []string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	ids := make([]string, 0, len(ms.vectors))
	for id := range ms.vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
