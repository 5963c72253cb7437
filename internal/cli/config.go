package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/yildizm/wordbias/internal/config"
	"github.com/yildizm/wordbias/internal/emoji"
	"gopkg.in/yaml.v3"
)

var tolerateConfig = map[string]string{annotationTolerateConfig: "true"}

// newConfigCommand creates the config command with subcommands
func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage wordbias configuration",
		Long: `Manage wordbias configuration files and settings.

Settings are layered: built-in defaults, then config files from the
lowest to the highest priority path, then a .env file, then WORDBIAS_
environment variables. Command line flags win over all of them.`,
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())
	configCmd.AddCommand(newConfigValidateCommand())
	configCmd.AddCommand(newConfigPathCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		outputPath string
		minimal    bool
		force      bool
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new configuration file",
		Long: `Write a configuration file with the default values.

By default the file lists every option with comments. Use --minimal for
only the model and provider settings.`,
		Example: `  wordbias config init
  wordbias config init --minimal
  wordbias config init --path ~/.config/wordbias/config.yaml --force`,
		Annotations: tolerateConfig,
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				outputPath = ".wordbias.yaml"
			}
			outputPath = config.ExpandPath(outputPath)

			if !force && fileExists(outputPath) {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", outputPath)
			}

			dir := filepath.Dir(outputPath)
			if dir != "." && dir != "/" {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", dir, err)
				}
			}

			content := config.SampleConfig()
			if minimal {
				content = config.MinimalSampleConfig()
			}
			if err := os.WriteFile(outputPath, []byte(content), 0o600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Configuration file created at: %s\n", emoji.GetEmoji("success"), outputPath)
			if minimal {
				fmt.Fprintln(out, "Created minimal configuration with essential settings")
			} else {
				fmt.Fprintln(out, "Created full configuration with all options and documentation")
			}
			return nil
		},
	}

	// -o and -c are taken by the global flags
	initCmd.Flags().StringVar(&outputPath, "path", "", "where to write the config file (default: .wordbias.yaml)")
	initCmd.Flags().BoolVar(&minimal, "minimal", false, "create minimal configuration")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing config file")

	return initCmd
}

func newConfigShowCommand() *cobra.Command {
	var format string

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the configuration after merging defaults, config files,
.env and environment overrides. API keys are never printed.`,
		Example: `  wordbias config show
  wordbias config show --format json
  wordbias config show --config ./other.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig()
			shown := *cfg
			if shown.AI.APIKey != "" {
				shown.AI.APIKey = "********"
			}

			var data []byte
			var err error
			switch format {
			case "json":
				data, err = json.MarshalIndent(&shown, "", "  ")
				if err == nil {
					data = append(data, '\n')
				}
			case "yaml":
				data, err = yaml.Marshal(&shown)
			default:
				return fmt.Errorf("unsupported format: %s (use json or yaml)", format)
			}
			if err != nil {
				return fmt.Errorf("failed to marshal config to %s: %w", format, err)
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	showCmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format (yaml, json)")
	return showCmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long: `Load the configuration from every source and check it for YAML
syntax errors, unknown keys and out of range values.`,
		Example: `  wordbias config validate
  wordbias config validate --config /path/to/config.yaml`,
		Annotations: tolerateConfig,
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := config.NewLoader().LoadConfig(cfgFile)
			if err != nil {
				fmt.Fprintf(out, "%s Configuration validation failed:\n   %v\n", emoji.GetEmoji("error"), err)
				return err
			}

			fmt.Fprintf(out, "%s Configuration is valid\n", emoji.GetEmoji("success"))
			fmt.Fprintln(out, "Configuration summary:")
			fmt.Fprintf(out, "   Version: %s\n", cfg.Version)
			fmt.Fprintf(out, "   Model Source: %s\n", cfg.Model.Source)
			fmt.Fprintf(out, "   AI Provider: %s (%s)\n", cfg.AI.Provider, cfg.AI.Model)
			fmt.Fprintf(out, "   Output Format: %s\n", cfg.Output.DefaultFormat)
			fmt.Fprintf(out, "   Cache: %s\n", cacheDescription(cfg))
			return nil
		},
	}
}

func cacheDescription(cfg *config.Config) string {
	if cfg.Storage.DisableCache {
		return "disabled"
	}
	return cfg.CacheFile()
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file search paths",
		Long: `Display the paths wordbias searches for configuration files, in
priority order, and which of them exist.`,
		Annotations: tolerateConfig,
		Args:        cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration file search paths (in priority order):")
			fmt.Fprintln(out)

			priority := []string{"Highest", "Medium", "Lowest"}
			for i, path := range config.GetConfigPaths() {
				status := "(not found)"
				if fileExists(path) {
					status = "(exists)"
				}
				fmt.Fprintf(out, "  %d. %s %s\n", i+1, path, status)
				if i < len(priority) {
					fmt.Fprintf(out, "     Priority: %s\n", priority[i])
				}
			}
			fmt.Fprintln(out)

			if currentConfig, found := config.FindConfigFile(); found {
				fmt.Fprintf(out, "Current config file: %s\n", currentConfig)
			} else {
				fmt.Fprintln(out, "No config file found, using defaults")
			}
			fmt.Fprintf(out, "Environment variables with the %s prefix override file settings\n", config.EnvPrefix)
		},
	}
}

func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}
