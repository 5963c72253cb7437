package cli

import (
	"github.com/spf13/cobra"
	"github.com/yildizm/wordbias/internal/report"
)

func newFetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [url]",
		Short: "Fetch a JSON word list",
		Long: `Download a JSON word list and print its words.

The body may be a list of strings or a list of records whose first
element is the word, as in the debiaswe professions file. Without a URL
wordlists.professions is fetched.`,
		Example: `  wordbias fetch
  wordbias fetch https://example.com/words.json -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig()
			url := cfg.Wordlists.Professions
			if len(args) == 1 {
				url = args[0]
			}

			ctx, cancel := analysisContext(cmd)
			defer cancel()

			words, err := resolveWords(ctx, cfg, url)
			if err != nil {
				return err
			}
			GetLogger("fetch").Info("fetched %d words from %s", len(words), url)

			rep := report.New("")
			rep.Words = words
			return writeReport(cmd, rep)
		},
	}
}
