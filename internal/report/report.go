// Package report collects the results of a wordbias run for the formatters.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/yildizm/wordbias/internal/analogy"
	"github.com/yildizm/wordbias/internal/cache"
	"github.com/yildizm/wordbias/internal/probe"
	"github.com/yildizm/wordbias/internal/subspace"
	"github.com/yildizm/wordbias/internal/word2vec"
)

// Report is one run. Every section is optional; a command fills in the
// ones it produced.
type Report struct {
	ID        string    `json:"id"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Words       []string              `json:"words,omitempty"`
	Analogies   []*analogy.Result     `json:"analogies,omitempty"`
	Rankings    []*analogy.Ranking    `json:"rankings,omitempty"`
	Comparisons []*analogy.Comparison `json:"comparisons,omitempty"`

	Subspace    *subspace.Subspace     `json:"subspace,omitempty"`
	Projections []subspace.Projection  `json:"projections,omitempty"`
	DirectBias  *DirectBias            `json:"direct_bias,omitempty"`
	Neutralized []subspace.Neutralized `json:"neutralized,omitempty"`
	Unknown     []string               `json:"unknown,omitempty"`
	Plots       []string               `json:"plots,omitempty"`

	Probe    *probe.Result   `json:"probe,omitempty"`
	Training *word2vec.Stats `json:"training,omitempty"`
	Cache    *cache.Stats    `json:"cache,omitempty"`
}

// DirectBias is the direct bias score over a word list
type DirectBias struct {
	C     float64 `json:"c"`
	Words int     `json:"words"`
	Value float64 `json:"value"`
}

// New starts a report with a fresh run id
func New(model string) *Report {
	return &Report{
		ID:        uuid.NewString(),
		Model:     model,
		CreatedAt: time.Now(),
	}
}

// Empty reports whether no section was filled
func (r *Report) Empty() bool {
	return len(r.Words) == 0 && len(r.Analogies) == 0 && len(r.Rankings) == 0 &&
		len(r.Comparisons) == 0 && r.Subspace == nil && len(r.Projections) == 0 &&
		len(r.Neutralized) == 0 && r.Probe == nil && r.Training == nil && r.Cache == nil
}

// AddDirectBias scores the current projections
func (r *Report) AddDirectBias(c float64) {
	if c <= 0 {
		c = 1
	}
	r.DirectBias = &DirectBias{
		C:     c,
		Words: len(r.Projections),
		Value: subspace.DirectBias(r.Projections, c),
	}
}
