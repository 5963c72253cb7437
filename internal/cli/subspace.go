package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yildizm/wordbias/internal/config"
	"github.com/yildizm/wordbias/internal/embedding"
	"github.com/yildizm/wordbias/internal/emoji"
	"github.com/yildizm/wordbias/internal/plot"
	"github.com/yildizm/wordbias/internal/report"
	"github.com/yildizm/wordbias/internal/subspace"
	"github.com/yildizm/wordbias/internal/wordlist"
	"gonum.org/v1/plot/vg"
)

// subspaceOptions are the knobs shared by subspace and train
type subspaceOptions struct {
	pairs      string
	words      string
	components int
	biasC      float64
	neutralize bool
	scatter    string
	bar        string
	title      string
}

func (o *subspaceOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.pairs, "pairs", "", "definitional pairs as a:b,c:d or a pairs file (default: built-in pairs)")
	cmd.Flags().StringVarP(&o.words, "words", "w", "", "words to project: URL, file, or comma list (default: wordlists.professions)")
	cmd.Flags().IntVar(&o.components, "components", 0, "principal components to fit (default: analysis.components)")
	cmd.Flags().Float64Var(&o.biasC, "bias-c", 0, "direct bias exponent c (default: analysis.bias_exponent)")
	cmd.Flags().BoolVar(&o.neutralize, "neutralize", false, "remove the gender direction from each projected word and report what is left")
	cmd.Flags().StringVar(&o.scatter, "plot", "", "write a scatter plot of the projections (png, svg, pdf)")
	cmd.Flags().StringVar(&o.bar, "bar", "", "write a bar chart of the projections (png, svg, pdf)")
	cmd.Flags().StringVar(&o.title, "title", "", "plot title")
}

func (o *subspaceOptions) withDefaults(cfg *config.Config) error {
	if o.components <= 0 {
		o.components = cfg.Analysis.Components
	}
	if o.biasC <= 0 {
		o.biasC = cfg.Analysis.BiasExponent
	}
	for _, path := range []string{o.scatter, o.bar} {
		if path == "" {
			continue
		}
		if err := plot.CheckPath(path); err != nil {
			return err
		}
	}
	return nil
}

func newSubspaceCommand() *cobra.Command {
	opts := &subspaceOptions{}

	cmd := &cobra.Command{
		Use:   "subspace",
		Short: "Fit the gender subspace and project a word list on it",
		Long: `Fit a gender subspace with PCA over the centered definitional pairs,
then project a word list on its first two components.

Reports the explained variance of each component, every word's
projection (positive leans female), and the direct bias of the list.
--neutralize also removes the gender direction from every projected word.
--plot and --bar render the projections with gonum/plot.`,
		Example: `  # Professions list from the default URL
  wordbias subspace --model table:GoogleNews-vectors-negative300.bin.gz

  # Inline list and a scatter plot
  wordbias subspace --words nurse,engineer,librarian,pilot --plot bias.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig()
			if err := opts.withDefaults(cfg); err != nil {
				return err
			}

			ctx, cancel := analysisContext(cmd)
			defer cancel()

			s, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			m, err := s.openModel(ctx)
			if err != nil {
				return err
			}

			src := opts.words
			if src == "" {
				src = cfg.Wordlists.Professions
			}
			words, err := resolveWords(ctx, cfg, src)
			if err != nil {
				return err
			}

			rep := report.New(m.Name())
			if err := runSubspace(ctx, cfg, m, words, opts, rep); err != nil {
				return err
			}
			return writeReport(cmd, rep)
		},
	}

	opts.addFlags(cmd)
	return cmd
}

// runSubspace fits the subspace, projects words and renders the plots
// into rep
func runSubspace(ctx context.Context, cfg *config.Config, m embedding.Model, words []string, opts *subspaceOptions, rep *report.Report) error {
	log := GetLogger("subspace")

	pairs, err := resolvePairs(cfg, opts.pairs)
	if err != nil {
		return err
	}

	sub, err := subspace.Fit(ctx, m, pairs, opts.components)
	if err != nil {
		return fmt.Errorf("fit gender subspace: %w", err)
	}
	if len(sub.Skipped) > 0 {
		log.Warn("%d of %d pairs skipped for unknown words", len(sub.Skipped), len(pairs))
	}
	rep.Subspace = sub

	projs, unknown, err := subspace.Project(ctx, m, sub, words)
	if err != nil {
		return err
	}
	subspace.SortByGender(projs)
	rep.Words = words
	rep.Projections = projs
	rep.Unknown = append(rep.Unknown, unknown...)
	if len(unknown) > 0 {
		log.Info("%d of %d words unknown to %s", len(unknown), len(words), m.Name())
	}
	rep.AddDirectBias(opts.biasC)

	if opts.neutralize {
		known := make([]string, len(projs))
		for i, p := range projs {
			known[i] = p.Word
		}
		if rep.Neutralized, _, err = subspace.NeutralizeWords(ctx, m, sub, known); err != nil {
			return fmt.Errorf("neutralize: %w", err)
		}
	}

	plotOpts := plotOptions(cfg, opts.title)
	if opts.scatter != "" {
		if err := plot.Scatter(opts.scatter, projs, plotOpts); err != nil {
			return fmt.Errorf("scatter plot: %w", err)
		}
		rep.Plots = append(rep.Plots, opts.scatter)
	}
	if opts.bar != "" {
		if err := plot.Bar(opts.bar, projs, plotOpts); err != nil {
			return fmt.Errorf("bar chart: %w", err)
		}
		rep.Plots = append(rep.Plots, opts.bar)
	}
	return nil
}

func plotOptions(cfg *config.Config, title string) plot.Options {
	return plot.Options{
		Title:       title,
		Width:       vg.Length(cfg.Output.PlotWidth) * vg.Inch,
		Height:      vg.Length(cfg.Output.PlotHeight) * vg.Inch,
		NeutralBand: emoji.NeutralBand,
	}
}

// vocabularyWords lists a closed model's vocabulary without the pair words
func vocabularyWords(m embedding.Model, pairs []wordlist.Pair) []string {
	skip := make(map[string]bool, 2*len(pairs))
	for _, p := range pairs {
		skip[p.A] = true
		skip[p.B] = true
	}
	var words []string
	for _, w := range m.Vocabulary() {
		if !skip[w] {
			words = append(words, w)
		}
	}
	return words
}
