// Package subspace derives a gender subspace from definitional word pairs
// with PCA and measures how far other words lean along it.
package subspace

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/yildizm/wordbias/internal/embedding"
	"github.com/yildizm/wordbias/internal/vectorstore"
	"github.com/yildizm/wordbias/internal/wordlist"
)

// DefaultComponents is the number of components kept when none is requested
const DefaultComponents = 10

// ErrTooFewPairs is returned when fewer than two pairs resolve
var ErrTooFewPairs = errors.New("at least 2 usable pairs are required")

// Subspace is the result of PCA over centered pair vectors. Components are
// unit length; the first is oriented so that the A words project positively.
type Subspace struct {
	Model             string          `json:"model"`
	Dimension         int             `json:"dimension"`
	Components        [][]float32     `json:"-"`
	ExplainedVariance []float64       `json:"explained_variance"`
	ExplainedRatio    []float64       `json:"explained_ratio"`
	Pairs             []wordlist.Pair `json:"pairs"`
	Skipped           []wordlist.Pair `json:"skipped,omitempty"`
}

// Direction returns the first component, the gender direction
func (s *Subspace) Direction() []float32 {
	return s.Components[0]
}

// Projection is a word's position on the first two components
type Projection struct {
	Word   string  `json:"word"`
	Gender float32 `json:"gender"`
	Second float32 `json:"second"`
}

// Fit runs PCA over the pairs. For each pair with center mu = (A+B)/2 the
// rows A-mu and B-mu are added, so the pair direction survives the mean
// centering PCA applies. Word vectors are unit-normalized first.
func Fit(ctx context.Context, m embedding.Model, pairs []wordlist.Pair, components int) (*Subspace, error) {
	if components <= 0 {
		components = DefaultComponents
	}

	words := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		words = append(words, p.A, p.B)
	}
	vecs, _, err := embedding.Lookup(ctx, m, words)
	if err != nil {
		return nil, err
	}

	sub := &Subspace{Model: m.Name()}
	var rows [][]float32
	var femaleSide [][]float32
	var diffs [][]float32
	for _, p := range pairs {
		va, okA := vecs[p.A]
		vb, okB := vecs[p.B]
		if !okA || !okB || len(va) != len(vb) || len(va) == 0 {
			sub.Skipped = append(sub.Skipped, p)
			continue
		}

		a := vectorstore.NormalizeVector(va)
		b := vectorstore.NormalizeVector(vb)
		mu, err := vectorstore.Mean(a, b)
		if err != nil {
			return nil, err
		}
		da, _ := vectorstore.Subtract(a, mu)
		db, _ := vectorstore.Subtract(b, mu)
		rows = append(rows, da, db)
		femaleSide = append(femaleSide, a)
		diffs = append(diffs, da)
		sub.Pairs = append(sub.Pairs, p)
	}

	if len(sub.Pairs) < 2 {
		return nil, fmt.Errorf("fit subspace over %d pairs: %w", len(sub.Pairs), ErrTooFewPairs)
	}

	dim := len(rows[0])
	for _, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("fit subspace: %w", vectorstore.ErrDimensionMismatch)
		}
	}
	sub.Dimension = dim

	x := mat.NewDense(len(rows), dim, nil)
	for i, r := range rows {
		for j, v := range r {
			x.Set(i, j, float64(v))
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, errors.New("fit subspace: PCA did not converge")
	}

	var vectors mat.Dense
	pc.VectorsTo(&vectors)
	vars := pc.VarsTo(nil)

	_, available := vectors.Dims()
	if components > available {
		components = available
	}

	var total float64
	for _, v := range vars {
		if v > 0 {
			total += v
		}
	}

	for k := 0; k < components; k++ {
		comp := make([]float32, dim)
		for j := 0; j < dim; j++ {
			comp[j] = float32(vectors.At(j, k))
		}
		sub.Components = append(sub.Components, vectorstore.NormalizeVector(comp))

		v := math.Max(vars[k], 0)
		sub.ExplainedVariance = append(sub.ExplainedVariance, v)
		ratio := 0.0
		if total > 0 {
			ratio = v / total
		}
		sub.ExplainedRatio = append(sub.ExplainedRatio, ratio)
	}

	orient(sub, femaleSide, diffs)
	return sub, nil
}

// orient flips the first component so the unit A vectors project positively
// on average. An exact tie falls back to the A-mu differences.
func orient(sub *Subspace, femaleSide, diffs [][]float32) {
	g := sub.Components[0]
	mean := meanProjection(femaleSide, g)
	if mean == 0 {
		mean = meanProjection(diffs, g)
	}
	if mean < 0 {
		sub.Components[0] = vectorstore.Scale(g, -1)
	}
}

func meanProjection(vs [][]float32, g []float32) float64 {
	var sum float64
	for _, v := range vs {
		sum += float64(vectorstore.DotProduct(v, g))
	}
	return sum / float64(len(vs))
}

// ProjectVector returns the scalar projections of the unit-normalized
// vector on the first two components
func (s *Subspace) ProjectVector(v []float32) Projection {
	u := vectorstore.NormalizeVector(v)
	p := Projection{Gender: vectorstore.DotProduct(u, s.Components[0])}
	if len(s.Components) > 1 {
		p.Second = vectorstore.DotProduct(u, s.Components[1])
	}
	return p
}

// Project places each known word on the first two components, in input
// order. Unknown words are returned separately.
func Project(ctx context.Context, m embedding.Model, sub *Subspace, words []string) ([]Projection, []string, error) {
	vecs, unknown, err := embedding.Lookup(ctx, m, words)
	if err != nil {
		return nil, nil, err
	}

	out := make([]Projection, 0, len(vecs))
	seen := make(map[string]bool, len(vecs))
	for _, w := range words {
		v, ok := vecs[w]
		if !ok || seen[w] {
			continue
		}
		seen[w] = true
		if len(v) != sub.Dimension {
			return nil, nil, fmt.Errorf("project %q: dimension %d, subspace has %d: %w",
				w, len(v), sub.Dimension, vectorstore.ErrDimensionMismatch)
		}
		p := sub.ProjectVector(v)
		p.Word = w
		out = append(out, p)
	}
	return out, unknown, nil
}

// SortByGender orders projections from most female to most male leaning
func SortByGender(projs []Projection) {
	sort.SliceStable(projs, func(i, j int) bool {
		if projs[i].Gender != projs[j].Gender {
			return projs[i].Gender > projs[j].Gender
		}
		return projs[i].Word < projs[j].Word
	})
}

// DirectBias is the mean of |projection|^c over the given words, the
// direct bias measure for gender-neutral words. c <= 0 means 1.
func DirectBias(projs []Projection, c float64) float64 {
	if len(projs) == 0 {
		return 0
	}
	if c <= 0 {
		c = 1
	}
	var sum float64
	for _, p := range projs {
		sum += math.Pow(math.Abs(float64(p.Gender)), c)
	}
	return sum / float64(len(projs))
}

// Neutralize removes the gender direction from v and renormalizes
func Neutralize(v []float32, sub *Subspace) ([]float32, error) {
	if len(v) != sub.Dimension {
		return nil, fmt.Errorf("neutralize: %w", vectorstore.ErrDimensionMismatch)
	}
	u := vectorstore.NormalizeVector(v)
	g := sub.Direction()
	out, err := vectorstore.Subtract(u, vectorstore.Scale(g, vectorstore.DotProduct(u, g)))
	if err != nil {
		return nil, err
	}
	return vectorstore.NormalizeVector(out), nil
}

// Neutralized is a word's gender projection before and after Neutralize.
// Retained is the cosine similarity between the original and neutralized
// vectors.
type Neutralized struct {
	Word     string  `json:"word"`
	Before   float32 `json:"before"`
	After    float32 `json:"after"`
	Retained float32 `json:"retained"`
}

// NeutralizeWords neutralizes each known word in input order. Unknown words
// are returned separately.
func NeutralizeWords(ctx context.Context, m embedding.Model, sub *Subspace, words []string) ([]Neutralized, []string, error) {
	vecs, unknown, err := embedding.Lookup(ctx, m, words)
	if err != nil {
		return nil, nil, err
	}

	g := sub.Direction()
	out := make([]Neutralized, 0, len(vecs))
	seen := make(map[string]bool, len(vecs))
	for _, w := range words {
		v, ok := vecs[w]
		if !ok || seen[w] {
			continue
		}
		seen[w] = true
		n, err := Neutralize(v, sub)
		if err != nil {
			return nil, nil, fmt.Errorf("neutralize %q: %w", w, err)
		}
		out = append(out, Neutralized{
			Word:     w,
			Before:   vectorstore.DotProduct(vectorstore.NormalizeVector(v), g),
			After:    vectorstore.DotProduct(n, g),
			Retained: vectorstore.CosineSimilarity(v, n),
		})
	}
	return out, unknown, nil
}
