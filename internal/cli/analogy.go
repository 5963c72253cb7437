package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yildizm/wordbias/internal/analogy"
	"github.com/yildizm/wordbias/internal/embedding"
	"github.com/yildizm/wordbias/internal/report"
)

func newAnalogyCommand() *cobra.Command {
	var (
		candidates string
		topK       int
	)

	cmd := &cobra.Command{
		Use:   "analogy A B C [A B C ...]",
		Short: `Solve "A is to B as C is to ?"`,
		Long: `Solve word analogies by vector arithmetic: the answer is the word
nearest to B - A + C, excluding A, B and C.

Open-vocabulary models (ollama:, openai:) cannot search a vocabulary and
need --candidates.`,
		Example: `  # man is to king as woman is to ?
  wordbias analogy man king woman

  # Two analogies against a word2vec table
  wordbias analogy man doctor woman man programmer woman --model table:vectors.bin

  # Contextual embeddings with an explicit answer list
  wordbias analogy he doctor she --model ollama:nomic-embed-text --candidates nurse,doctor,surgeon`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%3 != 0 {
				return fmt.Errorf("expected words in groups of three, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig()
			if !cmd.Flags().Changed("top") {
				topK = cfg.Analysis.TopK
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

			var pool []string
			if candidates != "" {
				if pool, err = resolveWords(ctx, cfg, candidates); err != nil {
					return err
				}
			}

			rep := report.New(m.Name())
			for i := 0; i < len(args); i += 3 {
				a, b, c := args[i], args[i+1], args[i+2]

				var res *analogy.Result
				if pool != nil {
					res, err = analogy.SolveAmong(ctx, m, a, b, c, pool, topK)
				} else {
					res, err = analogy.Solve(ctx, m, a, b, c, topK)
				}
				if err != nil {
					if isUnknownWord(err) {
						s.log.Warn("skipping %s:%s::%s:? (%v)", a, b, c, err)
						rep.Unknown = append(rep.Unknown, a+" "+b+" "+c)
						continue
					}
					return err
				}
				rep.Analogies = append(rep.Analogies, res)
			}

			if len(rep.Analogies) == 0 {
				return fmt.Errorf("no analogy could be solved with %s", m.Name())
			}
			return writeReport(cmd, rep)
		},
	}

	cmd.Flags().StringVar(&candidates, "candidates", "", "restrict answers to a word list (URL, file, or comma list)")
	cmd.Flags().IntVarP(&topK, "top", "k", 10, "number of answers per analogy")

	return cmd
}

func newSimilarCommand() *cobra.Command {
	var (
		candidates string
		topK       int
	)

	cmd := &cobra.Command{
		Use:   "similar WORD [WORD...]",
		Short: "Rank words by cosine similarity",
		Long: `Rank words by cosine similarity to each query word.

Without --candidates the model vocabulary is searched for the nearest
words. With --candidates every candidate is ranked.`,
		Example: `  wordbias similar nurse
  wordbias similar she he --candidates https://example.com/professions.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig()
			if !cmd.Flags().Changed("top") {
				topK = cfg.Analysis.TopK
				if candidates != "" {
					topK = 0
				}
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

			var pool []string
			if candidates != "" {
				if pool, err = resolveWords(ctx, cfg, candidates); err != nil {
					return err
				}
			}

			rep := report.New(m.Name())
			for _, word := range args {
				var ranking *analogy.Ranking
				if pool != nil {
					ranking, err = analogy.Rank(ctx, m, word, pool)
					if err == nil && topK > 0 && topK < len(ranking.Results) {
						ranking.Results = ranking.Results[:topK]
					}
				} else {
					ranking, err = analogy.Similar(ctx, m, word, topK)
				}
				if err != nil {
					if isUnknownWord(err) {
						rep.Unknown = append(rep.Unknown, word)
						continue
					}
					return err
				}
				rep.Rankings = append(rep.Rankings, ranking)
			}

			if len(rep.Rankings) == 0 {
				return fmt.Errorf("none of %v is known to %s", args, m.Name())
			}
			return writeReport(cmd, rep)
		},
	}

	cmd.Flags().StringVar(&candidates, "candidates", "", "rank this word list (URL, file, or comma list) instead of the vocabulary")
	cmd.Flags().IntVarP(&topK, "top", "k", 10, "number of results per word (0 for all candidates)")

	return cmd
}

func newCompareCommand() *cobra.Command {
	var pairs string

	cmd := &cobra.Command{
		Use:   "compare WORD [WORD...]",
		Short: "Compare words against gendered pairs",
		Long: `For each word and each definitional pair (A, B), report
cos(word, A) - cos(word, B). Positive gaps lean towards A, which is the
female word in the built-in pairs.`,
		Example: `  wordbias compare nurse engineer
  wordbias compare doctor --pairs she:he,mother:father`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig()

			ctx, cancel := analysisContext(cmd)
			defer cancel()

			pairList, err := resolvePairs(cfg, pairs)
			if err != nil {
				return err
			}

			s, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			m, err := s.openModel(ctx)
			if err != nil {
				return err
			}

			rep := report.New(m.Name())
			for _, word := range args {
				cmp, err := analogy.Compare(ctx, m, word, pairList)
				if err != nil {
					if isUnknownWord(err) {
						rep.Unknown = append(rep.Unknown, word)
						continue
					}
					return err
				}
				if len(cmp.Skipped) > 0 {
					s.log.Warn("%s: %d pairs skipped for unknown words", word, len(cmp.Skipped))
				}
				rep.Comparisons = append(rep.Comparisons, cmp)
			}

			if len(rep.Comparisons) == 0 {
				return fmt.Errorf("none of %v is known to %s", args, m.Name())
			}
			return writeReport(cmd, rep)
		},
	}

	cmd.Flags().StringVar(&pairs, "pairs", "", "definitional pairs as a:b,c:d or a pairs file (default: built-in pairs)")

	return cmd
}

func isUnknownWord(err error) bool {
	return errors.Is(err, embedding.ErrUnknownWord)
}
