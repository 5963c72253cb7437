package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yildizm/wordbias/internal/analogy"
	"github.com/yildizm/wordbias/internal/embedding"
	"github.com/yildizm/wordbias/internal/subspace"
	"github.com/yildizm/wordbias/internal/vectorstore"
	"github.com/yildizm/wordbias/internal/wordlist"
)

// Inspector answers explorer queries against one model and gender subspace
type Inspector struct {
	Model    embedding.Model
	Subspace *subspace.Subspace
	Pairs    []wordlist.Pair
	TopK     int
}

// Inspection is everything the explorer shows for one word
type Inspection struct {
	Word       string
	Projection subspace.Projection
	Neighbors  []embedding.Neighbor
	Comparison *analogy.Comparison
}

// Inspect projects word on the subspace and collects its neighbors and
// pair gaps. Open-vocabulary models have no neighbors.
func (in *Inspector) Inspect(ctx context.Context, word string) (*Inspection, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, fmt.Errorf("empty word")
	}
	if in.Model == nil || in.Subspace == nil {
		return nil, fmt.Errorf("inspector has no model or subspace")
	}

	v, err := in.Model.Vector(ctx, word)
	if err != nil {
		return nil, err
	}
	if len(v) != in.Subspace.Dimension {
		return nil, fmt.Errorf("inspect %q: dimension %d, subspace has %d: %w",
			word, len(v), in.Subspace.Dimension, vectorstore.ErrDimensionMismatch)
	}

	result := &Inspection{Word: word, Projection: in.Subspace.ProjectVector(v)}
	result.Projection.Word = word

	k := in.TopK
	if k < 1 {
		k = 10
	}
	ranking, err := analogy.Similar(ctx, in.Model, word, k)
	switch {
	case err == nil:
		result.Neighbors = ranking.Results
	case errors.Is(err, analogy.ErrNoVocabulary):
	default:
		return nil, err
	}

	if len(in.Pairs) > 0 {
		cmp, err := analogy.Compare(ctx, in.Model, word, in.Pairs)
		if err != nil {
			return nil, err
		}
		result.Comparison = cmp
	}

	return result, nil
}
