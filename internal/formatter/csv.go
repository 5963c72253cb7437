package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/yildizm/wordbias/internal/report"
)

// csvFormatter flattens every section into section,word,other,value rows
type csvFormatter struct{}

// NewCSV creates a new CSV formatter
func NewCSV() Formatter {
	return &csvFormatter{}
}

func (f *csvFormatter) Format(r *report.Report) ([]byte, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	rows := [][]string{{"section", "word", "other", "value"}}

	for _, w := range r.Words {
		rows = append(rows, []string{"word", w, "", ""})
	}
	for _, a := range r.Analogies {
		query := fmt.Sprintf("%s:%s::%s", a.A, a.B, a.C)
		for _, c := range a.Candidates {
			rows = append(rows, []string{"analogy", query, c.Word, formatFloat(float64(c.Score))})
		}
	}
	for _, rk := range r.Rankings {
		for _, n := range rk.Results {
			rows = append(rows, []string{"similarity", rk.Query, n.Word, formatFloat(float64(n.Score))})
		}
	}
	for _, c := range r.Comparisons {
		for _, g := range c.Gaps {
			rows = append(rows, []string{"pair_gap", c.Word, g.Pair.String(), formatFloat(float64(g.Gap))})
		}
	}
	if s := r.Subspace; s != nil {
		for i, ratio := range s.ExplainedRatio {
			rows = append(rows, []string{"explained_ratio", "", fmt.Sprintf("PC%d", i+1), formatFloat(ratio)})
		}
	}
	for _, p := range r.Projections {
		rows = append(rows,
			[]string{"projection", p.Word, "gender", formatFloat(float64(p.Gender))},
			[]string{"projection", p.Word, "second", formatFloat(float64(p.Second))},
		)
	}
	if d := r.DirectBias; d != nil {
		rows = append(rows, []string{"direct_bias", "", "c=" + formatFloat(d.C), formatFloat(d.Value)})
	}
	for _, n := range r.Neutralized {
		rows = append(rows,
			[]string{"neutralized", n.Word, "after", formatFloat(float64(n.After))},
			[]string{"neutralized", n.Word, "retained", formatFloat(float64(n.Retained))},
		)
	}
	if p := r.Probe; p != nil {
		for _, w := range p.Words {
			if w.Error != "" {
				rows = append(rows, []string{"probe", w.Word, "error", singleLine(w.Error)})
				continue
			}
			rows = append(rows, []string{"probe", w.Word, "female_ratio", formatFloat(w.FemaleRatio)})
		}
	}
	if t := r.Training; t != nil {
		rows = append(rows,
			[]string{"training", "", "vocabulary", strconv.Itoa(t.Vocabulary)},
			[]string{"training", "", "tokens", strconv.Itoa(t.Tokens)},
			[]string{"training", "", "loss", formatFloat(t.Loss)},
		)
	}
	if c := r.Cache; c != nil {
		for _, m := range c.Models {
			rows = append(rows, []string{"cache", "", m.Model, strconv.FormatInt(m.Entries, 10)})
		}
	}
	for _, w := range r.Unknown {
		rows = append(rows, []string{"unknown", w, "", ""})
	}

	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	return b.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
