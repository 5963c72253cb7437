package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yildizm/wordbias/internal/subspace"
	"github.com/yildizm/wordbias/internal/ui"
)

func newExploreCommand() *cobra.Command {
	var (
		pairsSrc   string
		components int
		theme      string
	)

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Explore word projections interactively",
		Long: `Open a terminal explorer over the selected model. Type a word to see
its projection on the gender direction, its nearest neighbors, and how
close it sits to each side of the definitional pairs.`,
		Example: `  wordbias explore
  wordbias explore --model table:vectors.txt --theme high-contrast`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig()

			if theme != "" && !ui.SetThemeByName(theme) {
				return fmt.Errorf("unknown theme: %s (available: %v)", theme, ui.GetAvailableThemes())
			}
			if components <= 0 {
				components = cfg.Analysis.Components
			}

			// setup is bounded by analysis.timeout, the session is not
			setupCtx, cancel := analysisContext(cmd)
			defer cancel()

			s, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			m, err := s.openModel(setupCtx)
			if err != nil {
				return err
			}
			pairs, err := resolvePairs(cfg, pairsSrc)
			if err != nil {
				return err
			}
			sub, err := subspace.Fit(setupCtx, m, pairs, components)
			if err != nil {
				return fmt.Errorf("fit gender subspace: %w", err)
			}

			return ui.RunExplorer(commandContext(cmd), &ui.Inspector{
				Model:    m,
				Subspace: sub,
				Pairs:    pairs,
				TopK:     cfg.Analysis.TopK,
			})
		},
	}

	cmd.Flags().StringVar(&pairsSrc, "pairs", "", "definitional pairs as a:b,c:d or a pairs file (default: built-in pairs)")
	cmd.Flags().IntVar(&components, "components", 0, "principal components to fit (default: analysis.components)")
	cmd.Flags().StringVar(&theme, "theme", "", "color theme (default, high-contrast, minimal)")

	return cmd
}
