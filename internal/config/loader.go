package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "WORDBIAS_"

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.wordbias.yaml",               // Project-specific config (highest priority)
	"~/.config/wordbias/config.yaml", // User config
	"/etc/wordbias/config.yaml",      // System config (lowest priority)
}

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
	envFile     string
	warn        io.Writer
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
		envFile:     ".env",
		warn:        os.Stderr,
	}
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables, including a local .env file
// 3. ./.wordbias.yaml
// 4. ~/.config/wordbias/config.yaml
// 5. /etc/wordbias/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	config := DefaultConfig()

	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, customPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// lowest priority first so later files win
		for i := len(l.configPaths) - 1; i >= 0; i-- {
			expandedPath := expandPath(l.configPaths[i])
			if !fileExists(expandedPath) {
				continue
			}
			if err := l.loadFromFile(config, expandedPath); err != nil {
				fmt.Fprintf(l.warn, "Warning: Failed to load config from %s: %v\n", expandedPath, err)
			}
		}
	}

	if l.envFile != "" && fileExists(l.envFile) {
		// existing environment variables take precedence over the file
		if err := godotenv.Load(l.envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", l.envFile, err)
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile decodes a YAML file over the existing config. Keys absent
// from the file keep their current value; unknown keys are rejected.
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() or comes from ConfigPaths
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// Model Config
		"MODEL_SOURCE":     func(v string) error { config.Model.Source = v; return nil },
		"MODEL_FORMAT":     func(v string) error { config.Model.Format = v; return nil },
		"MODEL_LIMIT":      func(v string) error { return parseInt(v, &config.Model.Limit) },
		"MODEL_NORMALIZE":  func(v string) error { return parseBool(v, &config.Model.Normalize) },
		"MODEL_TEMPLATE":   func(v string) error { config.Model.Template = v; return nil },
		"MODEL_BATCH_SIZE": func(v string) error { return parseInt(v, &config.Model.BatchSize) },

		// AI Config
		"AI_PROVIDER":        func(v string) error { config.AI.Provider = v; return nil },
		"AI_MODEL":           func(v string) error { config.AI.Model = v; return nil },
		"AI_EMBEDDING_MODEL": func(v string) error { config.AI.EmbeddingModel = v; return nil },
		"AI_ENDPOINT":        func(v string) error { config.AI.Endpoint = v; return nil },
		"AI_API_KEY":         func(v string) error { config.AI.APIKey = v; return nil },
		"AI_TIMEOUT":         func(v string) error { return parseDuration(v, &config.AI.Timeout) },
		"AI_MAX_RETRIES":     func(v string) error { return parseInt(v, &config.AI.MaxRetries) },
		"AI_TEMPERATURE":     func(v string) error { return parseFloat(v, &config.AI.Temperature) },

		// Storage Config
		"STORAGE_CACHE_DIR":     func(v string) error { config.Storage.CacheDir = v; return nil },
		"STORAGE_CACHE_PATH":    func(v string) error { config.Storage.CachePath = v; return nil },
		"STORAGE_DISABLE_CACHE": func(v string) error { return parseBool(v, &config.Storage.DisableCache) },

		// Output Config
		"OUTPUT_DEFAULT_FORMAT": func(v string) error { config.Output.DefaultFormat = v; return nil },
		"OUTPUT_COLOR_MODE":     func(v string) error { config.Output.ColorMode = v; return nil },
		"OUTPUT_VERBOSE":        func(v string) error { return parseBool(v, &config.Output.Verbose) },
		"OUTPUT_NO_EMOJI":       func(v string) error { return parseBool(v, &config.Output.NoEmoji) },

		// Analysis Config
		"ANALYSIS_TOP_K":         func(v string) error { return parseInt(v, &config.Analysis.TopK) },
		"ANALYSIS_COMPONENTS":    func(v string) error { return parseInt(v, &config.Analysis.Components) },
		"ANALYSIS_BIAS_EXPONENT": func(v string) error { return parseFloat(v, &config.Analysis.BiasExponent) },
		"ANALYSIS_TIMEOUT":       func(v string) error { return parseDuration(v, &config.Analysis.Timeout) },
		"ANALYSIS_PROBE_SAMPLES": func(v string) error { return parseInt(v, &config.Analysis.ProbeSamples) },

		// Training Config
		"TRAINING_CORPUS":    func(v string) error { config.Training.Corpus = v; return nil },
		"TRAINING_DIMENSION": func(v string) error { return parseInt(v, &config.Training.Dimension) },
		"TRAINING_EPOCHS":    func(v string) error { return parseInt(v, &config.Training.Epochs) },
		"TRAINING_SEED":      func(v string) error { return parseInt64(v, &config.Training.Seed) },
		"TRAINING_CBOW":      func(v string) error { return parseBool(v, &config.Training.CBOW) },

		// Wordlists Config
		"WORDLISTS_PROFESSIONS":   func(v string) error { config.Wordlists.Professions = v; return nil },
		"WORDLISTS_PAIRS":         func(v string) error { config.Wordlists.Pairs = v; return nil },
		"WORDLISTS_FETCH_TIMEOUT": func(v string) error { return parseDuration(v, &config.Wordlists.FetchTimeout) },
	}

	for key, setter := range envMappings {
		envVar := EnvPrefix + key
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	// Probe templates contain spaces, so they are separated by '|'
	if templates := os.Getenv(EnvPrefix + "ANALYSIS_PROBE_TEMPLATES"); templates != "" {
		config.Analysis.ProbeTemplates = nil
		for _, t := range strings.Split(templates, "|") {
			if t = strings.TrimSpace(t); t != "" {
				config.Analysis.ProbeTemplates = append(config.Analysis.ProbeTemplates, t)
			}
		}
	}

	if config.AI.APIKey == "" && config.AI.Provider == "openai" {
		config.AI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := expandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if strings.HasPrefix(absPath, "/proc/") || strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// ExpandPath is expandPath for callers outside the package
func ExpandPath(path string) string {
	return expandPath(path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseInt64(s string, dst *int64) error {
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseFloat(s string, dst *float64) error {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
