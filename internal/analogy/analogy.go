// Package analogy runs vector analogies and cosine similarity scans.
package analogy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yildizm/wordbias/internal/embedding"
	"github.com/yildizm/wordbias/internal/vectorstore"
	"github.com/yildizm/wordbias/internal/wordlist"
)

// ErrNoVocabulary is returned when a search needs a closed vocabulary
var ErrNoVocabulary = errors.New("model has no vocabulary to search")

// Result answers "A is to B as C is to ?"
type Result struct {
	A          string               `json:"a"`
	B          string               `json:"b"`
	C          string               `json:"c"`
	Candidates []embedding.Neighbor `json:"candidates"`
}

// Best returns the top candidate, or "" when there is none
func (r *Result) Best() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	return r.Candidates[0].Word
}

// Ranking is a list of candidates sorted by similarity to a query word
type Ranking struct {
	Query   string               `json:"query"`
	Results []embedding.Neighbor `json:"results"`
	Skipped []string             `json:"skipped,omitempty"`
}

// PairGap is cos(word, A) - cos(word, B) for one pair
type PairGap struct {
	Pair wordlist.Pair `json:"pair"`
	SimA float32       `json:"sim_a"`
	SimB float32       `json:"sim_b"`
	Gap  float32       `json:"gap"`
}

// Comparison holds a word's similarity gaps across pairs
type Comparison struct {
	Word    string          `json:"word"`
	Gaps    []PairGap       `json:"gaps"`
	MeanGap float32         `json:"mean_gap"`
	Skipped []wordlist.Pair `json:"skipped,omitempty"`
}

func target(ctx context.Context, m embedding.Model, a, b, c string) ([]float32, error) {
	vecs := make([][]float32, 3)
	for i, w := range []string{a, b, c} {
		v, err := m.Vector(ctx, w)
		if err != nil {
			return nil, err
		}
		vecs[i] = vectorstore.NormalizeVector(v)
	}

	diff, err := vectorstore.Subtract(vecs[1], vecs[0])
	if err != nil {
		return nil, err
	}
	return vectorstore.Add(diff, vecs[2])
}

// Solve returns the k words nearest to b - a + c, excluding a, b and c.
// The model must be searchable.
func Solve(ctx context.Context, m embedding.Model, a, b, c string, k int) (*Result, error) {
	searcher, ok := m.(embedding.Searcher)
	if !ok {
		return nil, fmt.Errorf("%s: %w; pass candidates instead", m.Name(), ErrNoVocabulary)
	}

	t, err := target(ctx, m, a, b, c)
	if err != nil {
		return nil, err
	}

	neighbors, err := searcher.Nearest(ctx, t, k, a, b, c)
	if err != nil {
		return nil, err
	}
	return &Result{A: a, B: b, C: c, Candidates: neighbors}, nil
}

// SolveAmong is Solve restricted to an explicit candidate list, for
// open-vocabulary models
func SolveAmong(ctx context.Context, m embedding.Model, a, b, c string, candidates []string, k int) (*Result, error) {
	t, err := target(ctx, m, a, b, c)
	if err != nil {
		return nil, err
	}

	exclude := []string{a, b, c}
	var pool []string
	for _, w := range candidates {
		if !containsFold(exclude, w) {
			pool = append(pool, w)
		}
	}

	ranked, _, err := rankVector(ctx, m, t, pool)
	if err != nil {
		return nil, err
	}
	if k > 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return &Result{A: a, B: b, C: c, Candidates: ranked}, nil
}

// Rank sorts candidates by cosine similarity to query, most similar first.
// Candidates the model does not know are listed in Skipped.
func Rank(ctx context.Context, m embedding.Model, query string, candidates []string) (*Ranking, error) {
	qv, err := m.Vector(ctx, query)
	if err != nil {
		return nil, err
	}

	var pool []string
	for _, w := range candidates {
		if !strings.EqualFold(w, query) {
			pool = append(pool, w)
		}
	}

	ranked, skipped, err := rankVector(ctx, m, qv, pool)
	if err != nil {
		return nil, err
	}
	return &Ranking{Query: query, Results: ranked, Skipped: skipped}, nil
}

// Similar returns the k nearest vocabulary words to query
func Similar(ctx context.Context, m embedding.Model, query string, k int) (*Ranking, error) {
	searcher, ok := m.(embedding.Searcher)
	if !ok {
		return nil, fmt.Errorf("%s: %w; pass candidates instead", m.Name(), ErrNoVocabulary)
	}

	qv, err := m.Vector(ctx, query)
	if err != nil {
		return nil, err
	}
	neighbors, err := searcher.Nearest(ctx, qv, k, query)
	if err != nil {
		return nil, err
	}
	return &Ranking{Query: query, Results: neighbors}, nil
}

// Compare computes cos(word, A) - cos(word, B) for each pair. Pairs with
// an unknown word are skipped.
func Compare(ctx context.Context, m embedding.Model, word string, pairs []wordlist.Pair) (*Comparison, error) {
	wv, err := m.Vector(ctx, word)
	if err != nil {
		return nil, err
	}

	words := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		words = append(words, p.A, p.B)
	}
	vecs, _, err := embedding.Lookup(ctx, m, words)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{Word: word, Gaps: []PairGap{}}
	var sum float64
	for _, p := range pairs {
		va, okA := vecs[p.A]
		vb, okB := vecs[p.B]
		if !okA || !okB {
			cmp.Skipped = append(cmp.Skipped, p)
			continue
		}
		g := PairGap{
			Pair: p,
			SimA: vectorstore.CosineSimilarity(wv, va),
			SimB: vectorstore.CosineSimilarity(wv, vb),
		}
		g.Gap = g.SimA - g.SimB
		sum += float64(g.Gap)
		cmp.Gaps = append(cmp.Gaps, g)
	}

	if len(cmp.Gaps) > 0 {
		cmp.MeanGap = float32(sum / float64(len(cmp.Gaps)))
	}
	return cmp, nil
}

func rankVector(ctx context.Context, m embedding.Model, query []float32, candidates []string) ([]embedding.Neighbor, []string, error) {
	vecs, skipped, err := embedding.Lookup(ctx, m, candidates)
	if err != nil {
		return nil, nil, err
	}

	ranked := make([]embedding.Neighbor, 0, len(vecs))
	for _, w := range candidates {
		v, ok := vecs[w]
		if !ok {
			continue
		}
		ranked = append(ranked, embedding.Neighbor{Word: w, Score: vectorstore.CosineSimilarity(query, v)})
		delete(vecs, w)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Word < ranked[j].Word
	})
	return ranked, skipped, nil
}

func containsFold(list []string, w string) bool {
	for _, x := range list {
		if strings.EqualFold(x, w) {
			return true
		}
	}
	return false
}
