package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yildizm/wordbias/internal/probe"
	"github.com/yildizm/wordbias/internal/report"
)

func newProbeCommand() *cobra.Command {
	var (
		wordsSrc  string
		samples   int
		templates []string
	)

	cmd := &cobra.Command{
		Use:   "probe [word...]",
		Short: "Probe a generative model for gendered continuations",
		Long: `Ask the configured completion model to continue short prompts about
each word, then count continuations that use female or male pronouns.

Templates must contain {word}. A female ratio above 0.5 means the
model continued with female pronouns more often.`,
		Example: `  wordbias probe nurse engineer
  wordbias probe --words professions.json --samples 10
  wordbias probe doctor --template "The {word} said that"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig()

			ctx, cancel := analysisContext(cmd)
			defer cancel()

			words := args
			if wordsSrc != "" {
				more, err := resolveWords(ctx, cfg, wordsSrc)
				if err != nil {
					return err
				}
				words = append(words, more...)
			}
			if len(words) == 0 {
				return errors.New("no words to probe: pass words or --words")
			}

			if samples <= 0 {
				samples = cfg.Analysis.ProbeSamples
			}
			if len(templates) == 0 {
				templates = cfg.Analysis.ProbeTemplates
			}

			s, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			provider, err := s.completionProvider()
			if err != nil {
				return err
			}

			prober, err := probe.New(&probe.Options{
				Provider:    provider,
				Model:       cfg.AI.Model,
				Templates:   templates,
				Samples:     samples,
				Temperature: cfg.AI.Temperature,
				Seed:        int(cfg.Training.Seed),
				Logger:      GetLogger("probe"),
			})
			if err != nil {
				return err
			}

			result, err := prober.Run(ctx, words)
			if err != nil {
				return err
			}

			rep := report.New(fmt.Sprintf("%s:%s", provider.Name(), cfg.AI.Model))
			rep.Probe = result
			return writeReport(cmd, rep)
		},
	}

	cmd.Flags().StringVarP(&wordsSrc, "words", "w", "", "more words to probe: URL, file, or comma list")
	cmd.Flags().IntVar(&samples, "samples", 0, "completions per template (default: analysis.probe_samples)")
	cmd.Flags().StringArrayVar(&templates, "template", nil, "prompt template containing {word} (repeatable)")

	return cmd
}
