// Package embedding resolves words to vectors. Static tables come from
// word2vec or GloVe files; contextual models come from embedding providers.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownWord is returned when a model has no vector for a word
var ErrUnknownWord = errors.New("unknown word")

// Model maps words to vectors of a fixed dimension
type Model interface {
	Name() string

	// Dimension is 0 until an open-vocabulary model has produced a vector
	Dimension() int

	Vector(ctx context.Context, word string) ([]float32, error)

	// Vocabulary is empty for open-vocabulary models
	Vocabulary() []string
}

// BatchModel embeds many words in one round trip
type BatchModel interface {
	Model
	Vectors(ctx context.Context, words []string) ([][]float32, error)
}

// Searcher finds the words closest to a vector
type Searcher interface {
	Nearest(ctx context.Context, vector []float32, k int, exclude ...string) ([]Neighbor, error)
}

// Neighbor is a word and its cosine similarity to a query
type Neighbor struct {
	Word  string  `json:"word"`
	Score float32 `json:"score"`
}

func unknownWord(word string) error {
	return fmt.Errorf("%w: %q", ErrUnknownWord, word)
}

// Lookup resolves words against m. Words the model does not know are
// returned in unknown, in input order; any other failure aborts.
func Lookup(ctx context.Context, m Model, words []string) (map[string][]float32, []string, error) {
	vectors := make(map[string][]float32, len(words))
	var unknown []string

	if bm, ok := m.(BatchModel); ok {
		var pending []string
		for _, w := range words {
			if strings.TrimSpace(w) == "" {
				unknown = append(unknown, w)
				continue
			}
			pending = append(pending, w)
		}
		if len(pending) == 0 {
			return vectors, unknown, nil
		}
		vecs, err := bm.Vectors(ctx, pending)
		if err != nil {
			return nil, nil, err
		}
		for i, w := range pending {
			vectors[w] = vecs[i]
		}
		return vectors, unknown, nil
	}

	for _, w := range words {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		v, err := m.Vector(ctx, w)
		if errors.Is(err, ErrUnknownWord) {
			unknown = append(unknown, w)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("vector for %q: %w", w, err)
		}
		vectors[w] = v
	}
	return vectors, unknown, nil
}
