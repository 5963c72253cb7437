package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/yildizm/wordbias/internal/config"
	"github.com/yildizm/wordbias/internal/emoji"
	"github.com/yildizm/wordbias/internal/logger"
)

// commands annotated with this key still run when the config is invalid
const annotationTolerateConfig = "tolerate-config-errors"

var (
	cfgFile     string
	verbose     bool
	noColor     bool
	noEmoji     bool
	outputFmt   string
	outputFile  string
	modelSource string

	globalConfig *config.Config
)

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wordbias",
		Short: "Measure gender bias in word embeddings",
		Long: `wordbias measures gender bias in word and contextual embeddings.

It solves analogies, ranks words by cosine similarity, fits a gender
subspace with PCA over definitional pairs, projects word lists on it,
plots the result, trains toy Word2Vec models, and probes generative
models for gendered continuations.

Models are selected with --model:
  table:<path>       word2vec text or binary table, optionally gzipped
  trained:[corpus]   toy Word2Vec trained on a corpus, built-in when empty
  ollama:<model>     contextual embeddings from Ollama
  openai:<model>     contextual embeddings from OpenAI`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Auto-disable emojis on Windows if not explicitly set
			if runtime.GOOS == "windows" && !cmd.Flag("no-emoji").Changed {
				noEmoji = true
			}
			if err := loadGlobalConfig(cmd); err != nil {
				return err
			}
			emoji.SetEmojiDisabled(noEmoji)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noEmoji, "no-emoji", false, "disable emoji output (useful for Windows terminals)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "output format (text, json, markdown, csv)")
	rootCmd.PersistentFlags().StringVar(&outputFile, "output-file", "", "save output to file instead of stdout")
	rootCmd.PersistentFlags().StringVarP(&modelSource, "model", "m", "", "embedding model source (overrides model.source)")

	// Add subcommands
	rootCmd.AddCommand(newAnalogyCommand())
	rootCmd.AddCommand(newSimilarCommand())
	rootCmd.AddCommand(newCompareCommand())
	rootCmd.AddCommand(newSubspaceCommand())
	rootCmd.AddCommand(newFetchCommand())
	rootCmd.AddCommand(newTrainCommand())
	rootCmd.AddCommand(newProbeCommand())
	rootCmd.AddCommand(newExploreCommand())
	rootCmd.AddCommand(newCacheCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

// loadGlobalConfig loads the layered configuration and reconciles it with
// the global flags. Flags set on the command line win.
func loadGlobalConfig(cmd *cobra.Command) error {
	cfg, err := config.NewLoader().LoadConfig(cfgFile)
	if err != nil {
		if cmd.Annotations[annotationTolerateConfig] == "" {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Output.Verbose = verbose
	} else {
		verbose = cfg.Output.Verbose
	}
	if !flags.Changed("output") && cfg.Output.DefaultFormat != "" {
		outputFmt = cfg.Output.DefaultFormat
	}
	if !flags.Changed("no-color") && cfg.Output.ColorMode == "never" {
		noColor = true
	}
	if !flags.Changed("no-emoji") && cfg.Output.NoEmoji {
		noEmoji = true
	}
	if modelSource != "" {
		cfg.Model.Source = modelSource
	}

	globalConfig = cfg
	return nil
}

// GetGlobalConfig returns the configuration loaded for the running command
func GetGlobalConfig() *config.Config {
	if globalConfig == nil {
		globalConfig = config.DefaultConfig()
	}
	return globalConfig
}

// GetLogger returns a component logger gated on --verbose
func GetLogger(component string) *logger.Logger {
	return logger.NewWithCallback(component, isVerbose)
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version number, build commit, date, and runtime information",
		Annotations: map[string]string{
			annotationTolerateConfig: "true",
		},
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wordbias %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// Global helpers
func isVerbose() bool {
	return verbose
}

func getOutputFormat() string {
	return outputFmt
}
