package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yildizm/wordbias/internal/cache"
	"github.com/yildizm/wordbias/internal/report"
)

func newCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the embedding cache",
		Long: `Contextual embeddings fetched from a provider are cached in SQLite
under storage.cache_dir, keyed by model and text.`,
	}

	cacheCmd.AddCommand(newCacheStatsCommand())
	cacheCmd.AddCommand(newCachePurgeCommand())
	return cacheCmd
}

func newCacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cached entries per model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := analysisContext(cmd)
			defer cancel()

			store, err := cache.Open(ctx, GetGlobalConfig().CacheFile())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := store.Stats(ctx)
			if err != nil {
				return err
			}

			rep := report.New("")
			rep.Cache = stats
			return writeReport(cmd, rep)
		},
	}
}

func newCachePurgeCommand() *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete cached embeddings",
		Example: `  wordbias cache purge
  wordbias cache purge --model nomic-embed-text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := analysisContext(cmd)
			defer cancel()

			store, err := cache.Open(ctx, GetGlobalConfig().CacheFile())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := store.Purge(ctx, model)
			if err != nil {
				return err
			}

			what := "all models"
			if model != "" {
				what = model
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d cached embeddings for %s\n", n, what)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "only purge entries for this embedding model")
	return cmd
}
