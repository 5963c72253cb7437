package embedding

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yildizm/wordbias/internal/vectorstore"
)

// Table is a static word to vector lookup backed by a vector store.
// Reads are safe for concurrent use once loading is done; Add is not.
type Table struct {
	name  string
	dim   int
	store *vectorstore.MemoryStore
	words []string
	lower map[string]string
}

// NewTable creates an empty table of the given dimension. Store options
// tune the backing vector store.
func NewTable(name string, dim int, opts ...vectorstore.MemoryStoreOption) *Table {
	opts = append([]vectorstore.MemoryStoreOption{vectorstore.WithDimension(dim)}, opts...)
	return &Table{
		name:  name,
		dim:   dim,
		store: vectorstore.NewMemoryStore(opts...),
		lower: make(map[string]string),
	}
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Dimension() int {
	return t.dim
}

// Len returns the vocabulary size
func (t *Table) Len() int {
	return len(t.words)
}

// Add inserts or replaces a word's vector
func (t *Table) Add(word string, vector []float32) error {
	if word == "" {
		return errors.New("empty word")
	}
	_, exists := t.store.Get(word)
	if err := t.store.Store(word, word, vector); err != nil {
		return fmt.Errorf("add %q: %w", word, err)
	}
	if !exists {
		t.words = append(t.words, word)
		lw := strings.ToLower(word)
		if _, ok := t.lower[lw]; !ok {
			t.lower[lw] = word
		}
	}
	return nil
}

// Has reports whether the word resolves, case-insensitively as a fallback
func (t *Table) Has(word string) bool {
	_, ok := t.resolve(word)
	return ok
}

func (t *Table) resolve(word string) (string, bool) {
	if _, ok := t.store.Get(word); ok {
		return word, true
	}
	w, ok := t.lower[strings.ToLower(word)]
	return w, ok
}

// Vector returns the exact match, or the first word equal under lower-casing
func (t *Table) Vector(ctx context.Context, word string) ([]float32, error) {
	key, ok := t.resolve(word)
	if !ok {
		return nil, unknownWord(word)
	}
	entry, _ := t.store.Get(key)
	return entry.Vector, nil
}

// Vocabulary returns words in insertion order (file order for loaded tables)
func (t *Table) Vocabulary() []string {
	out := make([]string, len(t.words))
	copy(out, t.words)
	return out
}

// Nearest returns the k words most similar to vector, skipping exclude.
// Excluded words match case-insensitively.
func (t *Table) Nearest(ctx context.Context, vector []float32, k int, exclude ...string) ([]Neighbor, error) {
	skip := make(map[string]bool, len(exclude))
	for _, w := range exclude {
		skip[strings.ToLower(w)] = true
	}

	results, err := t.store.SearchWithFilter(ctx, vector, k, func(e vectorstore.VectorEntry) bool {
		return !skip[strings.ToLower(e.ID)]
	})
	if err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, len(results))
	for i, r := range results {
		neighbors[i] = Neighbor{Word: r.ID, Score: r.Score}
	}
	return neighbors, nil
}

// WriteText writes the table in word2vec text format
func (t *Table) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", len(t.words), t.dim); err != nil {
		return err
	}

	buf := make([]byte, 0, 16*t.dim)
	for _, word := range t.words {
		entry, _ := t.store.Get(word)
		buf = append(buf[:0], word...)
		for _, x := range entry.Vector {
			buf = append(buf, ' ')
			buf = strconv.AppendFloat(buf, float64(x), 'f', 6, 32)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}
