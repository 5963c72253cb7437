package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/yildizm/wordbias/internal/report"
)

// markdownFormatter formats output as Markdown
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) Format(r *report.Report) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# Gender Bias Report\n\n")
	fmt.Fprintf(&b, "Model: `%s`  \nRun: `%s`  \nGenerated: %s\n\n", valueOr(r.Model, "n/a"), r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"))

	if len(r.Words) > 0 {
		listed, more := truncateList(r.Words, 50)
		b.WriteString("## Word List\n\n")
		fmt.Fprintf(&b, "%d words: %s", len(r.Words), strings.Join(listed, ", "))
		if more > 0 {
			fmt.Fprintf(&b, " and %d more", more)
		}
		b.WriteString("\n\n")
	}

	if len(r.Analogies) > 0 {
		b.WriteString("## Analogies\n\n")
		for _, a := range r.Analogies {
			fmt.Fprintf(&b, "### %s : %s :: %s : %s\n\n", a.A, a.B, a.C, valueOr(a.Best(), "?"))
			b.WriteString("| Rank | Word | Similarity |\n|------|------|------------|\n")
			for i, c := range a.Candidates {
				fmt.Fprintf(&b, "| %d | %s | %.4f |\n", i+1, c.Word, c.Score)
			}
			b.WriteString("\n")
		}
	}

	if len(r.Rankings) > 0 {
		b.WriteString("## Similarity\n\n")
		for _, rk := range r.Rankings {
			fmt.Fprintf(&b, "### %s\n\n", rk.Query)
			b.WriteString("| Rank | Word | Similarity |\n|------|------|------------|\n")
			for i, n := range rk.Results {
				fmt.Fprintf(&b, "| %d | %s | %.4f |\n", i+1, n.Word, n.Score)
			}
			if len(rk.Skipped) > 0 {
				fmt.Fprintf(&b, "\nSkipped: %s\n", strings.Join(rk.Skipped, ", "))
			}
			b.WriteString("\n")
		}
	}

	if len(r.Comparisons) > 0 {
		b.WriteString("## Pair Gaps\n\n")
		b.WriteString("| Word | Pair | cos(A) | cos(B) | Gap |\n|------|------|--------|--------|-----|\n")
		for _, c := range r.Comparisons {
			for _, g := range c.Gaps {
				fmt.Fprintf(&b, "| %s | %s | %.3f | %.3f | %s |\n", c.Word, g.Pair, g.SimA, g.SimB, formatScore(g.Gap))
			}
			fmt.Fprintf(&b, "| %s | **mean** | | | **%s** |\n", c.Word, formatScore(c.MeanGap))
		}
		b.WriteString("\n")
	}

	if s := r.Training; s != nil {
		b.WriteString("## Training\n\n| Metric | Value |\n|--------|-------|\n")
		fmt.Fprintf(&b, "| Vocabulary | %s |\n", formatNumber(int64(s.Vocabulary)))
		fmt.Fprintf(&b, "| Sentences | %s |\n", formatNumber(int64(s.Sentences)))
		fmt.Fprintf(&b, "| Tokens | %s |\n", formatNumber(int64(s.Tokens)))
		fmt.Fprintf(&b, "| Epochs | %d |\n", s.Epochs)
		fmt.Fprintf(&b, "| Final loss | %.4f |\n", s.Loss)
		fmt.Fprintf(&b, "| Duration | %s |\n\n", s.Duration.Round(time.Millisecond))
	}

	if s := r.Subspace; s != nil {
		b.WriteString("## Gender Subspace\n\n")
		pairs := make([]string, len(s.Pairs))
		for i, p := range s.Pairs {
			pairs[i] = "`" + p.String() + "`"
		}
		fmt.Fprintf(&b, "Fitted on %d pairs: %s\n\n", len(s.Pairs), strings.Join(pairs, ", "))
		b.WriteString("| Component | Variance | Ratio |\n|-----------|----------|-------|\n")
		for i := range s.ExplainedRatio {
			fmt.Fprintf(&b, "| PC%d | %.4f | %.1f%% |\n", i+1, s.ExplainedVariance[i], s.ExplainedRatio[i]*100)
		}
		b.WriteString("\n")
	}

	if len(r.Projections) > 0 {
		b.WriteString("## Projections\n\n| Word | Gender | Second |\n|------|--------|--------|\n")
		for _, p := range r.Projections {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", p.Word, formatScore(p.Gender), formatScore(p.Second))
		}
		b.WriteString("\n")
		if r.DirectBias != nil {
			fmt.Fprintf(&b, "**Direct bias** (c=%g, %d words): %.4f\n\n", r.DirectBias.C, r.DirectBias.Words, r.DirectBias.Value)
		}
	}

	if len(r.Neutralized) > 0 {
		b.WriteString("## Neutralized\n\n| Word | Before | After | Retained |\n|------|--------|-------|----------|\n")
		for _, n := range r.Neutralized {
			fmt.Fprintf(&b, "| %s | %s | %s | %.3f |\n", n.Word, formatScore(n.Before), formatScore(n.After), n.Retained)
		}
		b.WriteString("\n")
	}

	if p := r.Probe; p != nil {
		b.WriteString("## Generative Probe\n\n")
		fmt.Fprintf(&b, "Provider `%s`, overall female ratio %.2f\n\n", valueOr(p.Model, p.Provider), p.FemaleRatio)
		b.WriteString("| Word | Female | Male | Neutral | Female ratio |\n|------|--------|------|---------|--------------|\n")
		for _, w := range p.Words {
			if w.Error != "" {
				fmt.Fprintf(&b, "| %s | | | | error: %s |\n", w.Word, singleLine(w.Error))
				continue
			}
			fmt.Fprintf(&b, "| %s | %d | %d | %d | %.2f |\n", w.Word, w.Female, w.Male, w.Neutral, w.FemaleRatio)
		}
		b.WriteString("\n")
	}

	if c := r.Cache; c != nil {
		b.WriteString("## Embedding Cache\n\n")
		fmt.Fprintf(&b, "`%s`: %s vectors, %s\n\n", c.Path, formatNumber(c.Entries), formatBytes(c.Bytes))
		for _, m := range c.Models {
			fmt.Fprintf(&b, "- `%s`: %s vectors\n", m.Model, formatNumber(m.Entries))
		}
		b.WriteString("\n")
	}

	if len(r.Unknown) > 0 {
		fmt.Fprintf(&b, "Not in vocabulary: %s\n\n", strings.Join(r.Unknown, ", "))
	}
	for _, p := range r.Plots {
		fmt.Fprintf(&b, "![plot](%s)\n\n", p)
	}

	return []byte(strings.TrimRight(b.String(), "\n") + "\n"), nil
}
