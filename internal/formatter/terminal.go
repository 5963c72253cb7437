package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/wordbias/internal/analogy"
	"github.com/yildizm/wordbias/internal/emoji"
	"github.com/yildizm/wordbias/internal/report"
)

const maxListedWords = 20

// terminalFormatter formats output as text for terminal display using go-termfmt
type terminalFormatter struct {
	opts   *termfmt.TerminalOptions
	header lipgloss.Style
}

// NewTerminal creates a new terminal formatter with optional color support
func NewTerminal(color bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = !emoji.IsEmojiDisabled()

	header := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.DoubleBorder())
	if color {
		header = header.
			Foreground(lipgloss.Color("#FAFAFA")).
			BorderForeground(lipgloss.Color("#7D56F4"))
	}

	return &terminalFormatter{opts: opts, header: header}
}

func (f *terminalFormatter) Format(r *report.Report) ([]byte, error) {
	var b strings.Builder

	f.writeHeader(&b, r)

	if len(r.Words) > 0 {
		f.writeWords(&b, r.Words)
	}
	for _, res := range r.Analogies {
		f.writeAnalogy(&b, res)
	}
	for _, rk := range r.Rankings {
		f.writeRanking(&b, rk)
	}
	if len(r.Comparisons) > 0 {
		f.writeComparisons(&b, r.Comparisons)
	}
	if r.Training != nil {
		f.writeTraining(&b, r)
	}
	if r.Subspace != nil {
		f.writeSubspace(&b, r)
	}
	if len(r.Projections) > 0 {
		f.writeProjections(&b, r)
	}
	if len(r.Neutralized) > 0 {
		f.writeNeutralized(&b, r)
	}
	if r.Probe != nil {
		f.writeProbe(&b, r)
	}
	if r.Cache != nil {
		f.writeCache(&b, r)
	}
	if len(r.Unknown) > 0 {
		listed, more := truncateList(r.Unknown, maxListedWords)
		line := strings.Join(listed, ", ")
		if more > 0 {
			line += fmt.Sprintf(" and %d more", more)
		}
		fmt.Fprintf(&b, "%s Not in vocabulary: %s\n\n", emoji.GetEmoji("warning"), line)
	}
	for _, p := range r.Plots {
		fmt.Fprintf(&b, "%s Plot written to %s\n", emoji.GetEmoji("plot"), p)
	}

	return []byte(strings.TrimRight(b.String(), "\n") + "\n"), nil
}

// writeHeader writes a boxed title and the run details
func (f *terminalFormatter) writeHeader(b *strings.Builder, r *report.Report) {
	b.WriteString(f.header.Render("Gender Bias Report") + "\n\n")

	items := []termfmt.TreeItem{
		{Label: "Model", Value: valueOr(r.Model, "n/a")},
		{Label: "Run", Value: r.ID},
		{Label: "Created", Value: r.CreatedAt.Format(time.RFC3339), Last: true},
	}
	b.WriteString(emoji.GetEmoji("run") + " Run\n")
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeWords(b *strings.Builder, words []string) {
	listed, more := truncateList(words, maxListedWords)
	fmt.Fprintf(b, "%s Word list (%s words)\n", emoji.GetEmoji("words"), formatNumber(int64(len(words))))

	items := make([]termfmt.TreeItem, 0, len(listed)+1)
	for _, w := range listed {
		items = append(items, termfmt.TreeItem{Label: w})
	}
	if more > 0 {
		items = append(items, termfmt.TreeItem{Label: fmt.Sprintf("... and %d more", more)})
	}
	items[len(items)-1].Last = true
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeAnalogy(b *strings.Builder, res *analogy.Result) {
	fmt.Fprintf(b, "%s %s is to %s as %s is to %s\n", emoji.GetEmoji("analogy"), res.A, res.B, res.C, valueOr(res.Best(), "?"))
	if len(res.Candidates) == 0 {
		b.WriteString("└─ no candidates\n\n")
		return
	}

	items := make([]termfmt.TreeItem, len(res.Candidates))
	for i, c := range res.Candidates {
		items[i] = termfmt.TreeItem{
			Label: c.Word,
			Value: fmt.Sprintf("%.4f", c.Score),
			Last:  i == len(res.Candidates)-1,
		}
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeRanking(b *strings.Builder, rk *analogy.Ranking) {
	fmt.Fprintf(b, "%s Most similar to %q\n", emoji.GetEmoji("ranking"), rk.Query)
	if len(rk.Results) == 0 {
		b.WriteString("└─ no known candidates\n\n")
		return
	}

	items := make([]termfmt.TreeItem, len(rk.Results))
	for i, n := range rk.Results {
		items[i] = termfmt.TreeItem{
			Label: n.Word,
			Value: fmt.Sprintf("%.4f", n.Score),
			Last:  i == len(rk.Results)-1,
		}
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n")
	if len(rk.Skipped) > 0 {
		fmt.Fprintf(b, "   skipped: %s\n", strings.Join(rk.Skipped, ", "))
	}
	b.WriteString("\n")
}

func (f *terminalFormatter) writeComparisons(b *strings.Builder, comps []*analogy.Comparison) {
	fmt.Fprintf(b, "%s Pair similarity gaps (positive leans toward the first word)\n", emoji.GetEmoji("pairs"))

	items := make([]termfmt.TreeItem, 0, len(comps))
	for i, c := range comps {
		children := make([]termfmt.TreeItem, 0, len(c.Gaps))
		for j, g := range c.Gaps {
			children = append(children, termfmt.TreeItem{
				Label: fmt.Sprintf("%s %s", emoji.ForScore(float64(g.Gap)), g.Pair),
				Value: fmt.Sprintf("%s (%.3f vs %.3f)", formatScore(g.Gap), g.SimA, g.SimB),
				Last:  j == len(c.Gaps)-1,
			})
		}
		items = append(items, termfmt.TreeItem{
			Label:    fmt.Sprintf("%s %s", emoji.ForScore(float64(c.MeanGap)), c.Word),
			Value:    "mean " + formatScore(c.MeanGap),
			Children: children,
			Last:     i == len(comps)-1,
		})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeTraining(b *strings.Builder, r *report.Report) {
	s := r.Training
	fmt.Fprintf(b, "%s Training\n", emoji.GetEmoji("training"))
	items := []termfmt.TreeItem{
		{Label: "Vocabulary", Value: formatNumber(int64(s.Vocabulary))},
		{Label: "Sentences", Value: formatNumber(int64(s.Sentences))},
		{Label: "Tokens", Value: formatNumber(int64(s.Tokens))},
		{Label: "Epochs", Value: fmt.Sprintf("%d", s.Epochs)},
		{Label: "Final loss", Value: fmt.Sprintf("%.4f", s.Loss)},
		{Label: "Duration", Value: s.Duration.Round(time.Millisecond).String(), Last: true},
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeSubspace(b *strings.Builder, r *report.Report) {
	s := r.Subspace
	fmt.Fprintf(b, "%s Gender subspace (%d pairs, dimension %d)\n", emoji.GetEmoji("subspace"), len(s.Pairs), s.Dimension)

	components := make([]termfmt.TreeItem, len(s.ExplainedRatio))
	for i, ratio := range s.ExplainedRatio {
		components[i] = termfmt.TreeItem{
			Label: fmt.Sprintf("PC%d %s", i+1, termfmt.CreateConfidenceBar(ratio, f.opts)),
			Value: fmt.Sprintf("%.1f%%", ratio*100),
			Last:  i == len(s.ExplainedRatio)-1,
		}
	}

	pairs := make([]string, len(s.Pairs))
	for i, p := range s.Pairs {
		pairs[i] = p.String()
	}

	items := []termfmt.TreeItem{
		{Label: "Pairs", Value: strings.Join(pairs, " ")},
	}
	if len(s.Skipped) > 0 {
		skipped := make([]string, len(s.Skipped))
		for i, p := range s.Skipped {
			skipped[i] = p.String()
		}
		items = append(items, termfmt.TreeItem{Label: "Skipped", Value: strings.Join(skipped, " ")})
	}
	items = append(items, termfmt.TreeItem{Label: "Explained variance", Children: components, Last: true})
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeProjections(b *strings.Builder, r *report.Report) {
	fmt.Fprintf(b, "%s Projections on the gender direction (male | female)\n", emoji.GetEmoji("projection"))

	width := 0
	for _, p := range r.Projections {
		if len(p.Word) > width {
			width = len(p.Word)
		}
	}
	for _, p := range r.Projections {
		fmt.Fprintf(b, "  %s %-*s %s %s\n", emoji.ForScore(float64(p.Gender)), width, p.Word, ProjectionBar(p.Gender), formatScore(p.Gender))
	}
	b.WriteString("\n")

	if r.DirectBias != nil {
		fmt.Fprintf(b, "Direct bias (c=%g) over %d words: %.4f\n\n", r.DirectBias.C, r.DirectBias.Words, r.DirectBias.Value)
	}
}

func (f *terminalFormatter) writeNeutralized(b *strings.Builder, r *report.Report) {
	fmt.Fprintf(b, "%s Neutralized along the gender direction\n", emoji.GetEmoji("projection"))

	items := make([]termfmt.TreeItem, len(r.Neutralized))
	for i, n := range r.Neutralized {
		items[i] = termfmt.TreeItem{
			Label: n.Word,
			Value: fmt.Sprintf("%s -> %s (retains %.3f)", formatScore(n.Before), formatScore(n.After), n.Retained),
			Last:  i == len(r.Neutralized)-1,
		}
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeProbe(b *strings.Builder, r *report.Report) {
	p := r.Probe
	fmt.Fprintf(b, "%s Generative probe via %s (female ratio %.2f)\n", emoji.GetEmoji("probe"), valueOr(p.Model, p.Provider), p.FemaleRatio)

	items := make([]termfmt.TreeItem, len(p.Words))
	for i, w := range p.Words {
		item := termfmt.TreeItem{Last: i == len(p.Words)-1}
		if w.Error != "" {
			item.Label = fmt.Sprintf("%s %s", emoji.GetEmoji("error"), w.Word)
			item.Value = w.Error
		} else {
			item.Label = fmt.Sprintf("%s %s %s", emoji.ForScore(w.FemaleRatio-0.5), w.Word, termfmt.CreateConfidenceBar(w.FemaleRatio, f.opts))
			item.Value = fmt.Sprintf("%.0f%% female (%d female, %d male, %d neutral)", w.FemaleRatio*100, w.Female, w.Male, w.Neutral)
		}
		items[i] = item
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeCache(b *strings.Builder, r *report.Report) {
	c := r.Cache
	fmt.Fprintf(b, "%s Embedding cache\n", emoji.GetEmoji("cache"))

	items := []termfmt.TreeItem{
		{Label: "Path", Value: c.Path},
		{Label: "Entries", Value: formatNumber(c.Entries)},
		{Label: "Size", Value: formatBytes(c.Bytes)},
	}
	models := make([]termfmt.TreeItem, len(c.Models))
	for i, m := range c.Models {
		models[i] = termfmt.TreeItem{
			Label: m.Model,
			Value: fmt.Sprintf("%s vectors, %s", formatNumber(m.Entries), formatBytes(m.Bytes)),
			Last:  i == len(c.Models)-1,
		}
	}
	items = append(items, termfmt.TreeItem{Label: "Models", Value: fmt.Sprintf("%d", len(c.Models)), Children: models, Last: true})
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
