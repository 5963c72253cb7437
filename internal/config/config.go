package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the complete application configuration
type Config struct {
	Version   string          `yaml:"version" json:"version"`
	Model     ModelConfig     `yaml:"model" json:"model"`
	AI        AIConfig        `yaml:"ai" json:"ai"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Output    OutputConfig    `yaml:"output" json:"output"`
	Analysis  AnalysisConfig  `yaml:"analysis" json:"analysis"`
	Training  TrainingConfig  `yaml:"training" json:"training"`
	Wordlists WordlistsConfig `yaml:"wordlists" json:"wordlists"`
}

// ModelConfig selects the embedding model
type ModelConfig struct {
	Source    string `yaml:"source" json:"source"`         // table:<path>|trained:<corpus>|ollama:<model>|openai:<model>
	Format    string `yaml:"format" json:"format"`         // auto|text|binary|json, for table sources
	Limit     int    `yaml:"limit" json:"limit"`           // keep only the first N words of a table, 0 for all
	Normalize bool   `yaml:"normalize" json:"normalize"`   // unit-normalize table vectors on load
	Template  string `yaml:"template" json:"template"`     // sentence a word is embedded in for provider models
	BatchSize int    `yaml:"batch_size" json:"batch_size"` // words per embedding request
}

// AIConfig configures the providers used for contextual embeddings and the probe
type AIConfig struct {
	Provider       string        `yaml:"provider" json:"provider"`               // ollama|openai, used by probe
	Model          string        `yaml:"model" json:"model"`                     // completion model
	EmbeddingModel string        `yaml:"embedding_model" json:"embedding_model"` // default embedding model
	Endpoint       string        `yaml:"endpoint" json:"endpoint"`               // API base URL
	APIKey         string        `yaml:"api_key" json:"-"`                       // API key, never printed
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`
	Temperature    float64       `yaml:"temperature" json:"temperature"`
}

// StorageConfig configures the embedding cache
type StorageConfig struct {
	CacheDir     string `yaml:"cache_dir" json:"cache_dir"`
	CachePath    string `yaml:"cache_path" json:"cache_path"` // SQLite file, defaults to cache_dir/embeddings.db
	DisableCache bool   `yaml:"disable_cache" json:"disable_cache"`
}

// OutputConfig configures output formatting and plots
type OutputConfig struct {
	DefaultFormat string  `yaml:"default_format" json:"default_format"` // text|json|markdown|csv
	ColorMode     string  `yaml:"color_mode" json:"color_mode"`         // auto|always|never
	Verbose       bool    `yaml:"verbose" json:"verbose"`
	NoEmoji       bool    `yaml:"no_emoji" json:"no_emoji"`
	PlotWidth     float64 `yaml:"plot_width" json:"plot_width"`   // inches
	PlotHeight    float64 `yaml:"plot_height" json:"plot_height"` // inches
}

// AnalysisConfig configures the analyses
type AnalysisConfig struct {
	TopK           int           `yaml:"top_k" json:"top_k"`
	Components     int           `yaml:"components" json:"components"`
	BiasExponent   float64       `yaml:"bias_exponent" json:"bias_exponent"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	ProbeSamples   int           `yaml:"probe_samples" json:"probe_samples"`
	ProbeTemplates []string      `yaml:"probe_templates" json:"probe_templates"`

	CancelCheckPeriod int `yaml:"cancel_check_period" json:"cancel_check_period"` // vectors scanned between cancellation checks
}

// TrainingConfig configures toy Word2Vec training
type TrainingConfig struct {
	Corpus    string  `yaml:"corpus" json:"corpus"` // empty for the built-in corpus
	Dimension int     `yaml:"dimension" json:"dimension"`
	Window    int     `yaml:"window" json:"window"`
	MinCount  int     `yaml:"min_count" json:"min_count"`
	Sample    float64 `yaml:"sample" json:"sample"`
	Negative  int     `yaml:"negative" json:"negative"`
	Epochs    int     `yaml:"epochs" json:"epochs"`
	Alpha     float64 `yaml:"alpha" json:"alpha"`
	MinAlpha  float64 `yaml:"min_alpha" json:"min_alpha"`
	Seed      int64   `yaml:"seed" json:"seed"`
	CBOW      bool    `yaml:"cbow" json:"cbow"`
}

// WordlistsConfig points at the word lists used by the analyses
type WordlistsConfig struct {
	Professions  string        `yaml:"professions" json:"professions"` // URL, file, or comma list
	Pairs        string        `yaml:"pairs" json:"pairs"`             // file or a:b,c:d list, empty for the built-in pairs
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
}

// DefaultProfessionsURL is the public list of professions used by the
// debiasing literature
const DefaultProfessionsURL = "https://raw.githubusercontent.com/tolga-b/debiaswe/master/data/professions.json"

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Model: ModelConfig{
			Source:    "trained:",
			Format:    "auto",
			Template:  "{word}",
			BatchSize: 64,
		},
		AI: AIConfig{
			Provider:       "ollama",
			Model:          "llama3.2",
			EmbeddingModel: "nomic-embed-text",
			Endpoint:       "",
			Timeout:        60 * time.Second,
			MaxRetries:     3,
			Temperature:    0.9,
		},
		Storage: StorageConfig{
			CacheDir: "~/.cache/wordbias",
		},
		Output: OutputConfig{
			DefaultFormat: "text",
			ColorMode:     "auto",
			PlotWidth:     8,
			PlotHeight:    6,
		},
		Analysis: AnalysisConfig{
			TopK:              10,
			Components:        10,
			BiasExponent:      1,
			Timeout:           5 * time.Minute,
			ProbeSamples:      5,
			CancelCheckPeriod: 1024,
		},
		Training: TrainingConfig{
			Dimension: 50,
			Window:    5,
			MinCount:  1,
			Sample:    1e-3,
			Negative:  5,
			Epochs:    100,
			Alpha:     0.025,
			MinAlpha:  0.0001,
			Seed:      1,
		},
		Wordlists: WordlistsConfig{
			Professions:  DefaultProfessionsURL,
			FetchTimeout: 30 * time.Second,
		},
	}
}

// CacheFile returns the embedding cache location with ~ expanded
func (c *Config) CacheFile() string {
	if c.Storage.CachePath != "" {
		return expandPath(c.Storage.CachePath)
	}
	return expandPath(strings.TrimRight(c.Storage.CacheDir, "/") + "/embeddings.db")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateModelConfig(); err != nil {
		return err
	}
	if err := c.validateAIConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	if err := c.validateAnalysisConfig(); err != nil {
		return err
	}
	if err := c.validateTrainingConfig(); err != nil {
		return err
	}
	if c.Wordlists.FetchTimeout < 0 {
		return fmt.Errorf("fetch_timeout must be non-negative")
	}
	return nil
}

func (c *Config) validateModelConfig() error {
	if strings.TrimSpace(c.Model.Source) == "" {
		return fmt.Errorf("model source is required")
	}
	switch c.Model.Format {
	case "", "auto", "text", "binary", "json":
	default:
		return fmt.Errorf("invalid model format: %s (must be one of: auto, text, binary, json)", c.Model.Format)
	}
	if c.Model.Limit < 0 {
		return fmt.Errorf("model limit must be non-negative")
	}
	if c.Model.Template != "" && !strings.Contains(c.Model.Template, "{word}") {
		return fmt.Errorf("model template %q must contain {word}", c.Model.Template)
	}
	if c.Model.BatchSize < 1 {
		return fmt.Errorf("batch_size must be greater than 0")
	}
	return nil
}

// validateAIConfig validates AI-related configuration
func (c *Config) validateAIConfig() error {
	if c.AI.Provider != "" {
		validProviders := map[string]bool{
			"ollama": true,
			"openai": true,
		}
		if !validProviders[c.AI.Provider] {
			return fmt.Errorf("invalid AI provider: %s (must be one of: ollama, openai)", c.AI.Provider)
		}
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.AI.Timeout < 0 {
		return fmt.Errorf("ai timeout must be non-negative")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	return nil
}

// validateOutputConfig validates output-related configuration
func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"json":     true,
			"text":     true,
			"markdown": true,
			"csv":      true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: json, text, markdown, csv)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	if c.Output.PlotWidth <= 0 || c.Output.PlotHeight <= 0 {
		return fmt.Errorf("plot_width and plot_height must be greater than 0")
	}
	return nil
}

// validateAnalysisConfig validates analysis-related configuration
func (c *Config) validateAnalysisConfig() error {
	if c.Analysis.TopK < 1 {
		return fmt.Errorf("top_k must be greater than 0")
	}
	if c.Analysis.Components < 1 {
		return fmt.Errorf("components must be greater than 0")
	}
	if c.Analysis.BiasExponent <= 0 {
		return fmt.Errorf("bias_exponent must be greater than 0")
	}
	if c.Analysis.Timeout < 0 {
		return fmt.Errorf("analysis timeout must be non-negative")
	}
	if c.Analysis.ProbeSamples < 1 {
		return fmt.Errorf("probe_samples must be greater than 0")
	}
	for _, t := range c.Analysis.ProbeTemplates {
		if !strings.Contains(t, "{word}") {
			return fmt.Errorf("probe template %q must contain {word}", t)
		}
	}
	if c.Analysis.CancelCheckPeriod < 1 {
		return fmt.Errorf("cancel_check_period must be greater than 0")
	}
	return nil
}

func (c *Config) validateTrainingConfig() error {
	t := c.Training
	switch {
	case t.Dimension < 1:
		return fmt.Errorf("training dimension must be greater than 0")
	case t.Window < 1:
		return fmt.Errorf("training window must be greater than 0")
	case t.MinCount < 1:
		return fmt.Errorf("training min_count must be greater than 0")
	case t.Sample < 0:
		return fmt.Errorf("training sample must be non-negative")
	case t.Negative < 1:
		return fmt.Errorf("training negative must be greater than 0")
	case t.Epochs < 1:
		return fmt.Errorf("training epochs must be greater than 0")
	case t.Alpha <= 0 || t.MinAlpha < 0 || t.MinAlpha > t.Alpha:
		return fmt.Errorf("training learning rate must satisfy 0 <= min_alpha <= alpha and alpha > 0")
	}
	return nil
}
