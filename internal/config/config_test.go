package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", cfg.Version)
	}
	if cfg.Model.Source != "trained:" {
		t.Errorf("Expected model source trained:, got %s", cfg.Model.Source)
	}
	if cfg.AI.Provider != "ollama" {
		t.Errorf("Expected AI provider ollama, got %s", cfg.AI.Provider)
	}
	if cfg.Output.DefaultFormat != "text" {
		t.Errorf("Expected output format text, got %s", cfg.Output.DefaultFormat)
	}
	if cfg.Analysis.Components != 10 {
		t.Errorf("Expected 10 components, got %d", cfg.Analysis.Components)
	}
	if cfg.Training.Sample != 1e-3 {
		t.Errorf("Expected sample 1e-3, got %v", cfg.Training.Sample)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:   "missing model source",
			mutate: func(c *Config) { c.Model.Source = " " },
			errMsg: "model source is required",
		},
		{
			name:   "invalid model format",
			mutate: func(c *Config) { c.Model.Format = "glove" },
			errMsg: "invalid model format: glove (must be one of: auto, text, binary, json)",
		},
		{
			name:   "template without placeholder",
			mutate: func(c *Config) { c.Model.Template = "a word" },
			errMsg: `model template "a word" must contain {word}`,
		},
		{
			name:   "invalid AI provider",
			mutate: func(c *Config) { c.AI.Provider = "invalid" },
			errMsg: "invalid AI provider: invalid (must be one of: ollama, openai)",
		},
		{
			name:   "negative max retries",
			mutate: func(c *Config) { c.AI.MaxRetries = -1 },
			errMsg: "max_retries must be non-negative",
		},
		{
			name:   "temperature out of range",
			mutate: func(c *Config) { c.AI.Temperature = 2.5 },
			errMsg: "temperature must be between 0 and 2",
		},
		{
			name:   "invalid output format",
			mutate: func(c *Config) { c.Output.DefaultFormat = "invalid" },
			errMsg: "invalid output format: invalid (must be one of: json, text, markdown, csv)",
		},
		{
			name:   "invalid color mode",
			mutate: func(c *Config) { c.Output.ColorMode = "invalid" },
			errMsg: "invalid color mode: invalid (must be one of: auto, always, never)",
		},
		{
			name:   "zero plot size",
			mutate: func(c *Config) { c.Output.PlotWidth = 0 },
			errMsg: "plot_width and plot_height must be greater than 0",
		},
		{
			name:   "zero top k",
			mutate: func(c *Config) { c.Analysis.TopK = 0 },
			errMsg: "top_k must be greater than 0",
		},
		{
			name:   "zero bias exponent",
			mutate: func(c *Config) { c.Analysis.BiasExponent = 0 },
			errMsg: "bias_exponent must be greater than 0",
		},
		{
			name:   "probe template without placeholder",
			mutate: func(c *Config) { c.Analysis.ProbeTemplates = []string{"The doctor said"} },
			errMsg: `probe template "The doctor said" must contain {word}`,
		},
		{
			name:   "min alpha above alpha",
			mutate: func(c *Config) { c.Training.MinAlpha = 0.5 },
			errMsg: "training learning rate must satisfy 0 <= min_alpha <= alpha and alpha > 0",
		},
		{
			name:   "zero sample disables subsampling",
			mutate: func(c *Config) { c.Training.Sample = 0 },
		},
		{
			name:   "negative fetch timeout",
			mutate: func(c *Config) { c.Wordlists.FetchTimeout = -time.Second },
			errMsg: "fetch_timeout must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error %q but got none", tt.errMsg)
			}
			if err.Error() != tt.errMsg {
				t.Errorf("Expected error message '%s', got '%s'", tt.errMsg, err.Error())
			}
		})
	}
}

func TestCacheFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.CacheDir = "/var/cache/wordbias/"
	if got := cfg.CacheFile(); got != "/var/cache/wordbias/embeddings.db" {
		t.Errorf("CacheFile() = %s", got)
	}

	cfg.Storage.CachePath = "/tmp/e.db"
	if got := cfg.CacheFile(); got != "/tmp/e.db" {
		t.Errorf("CacheFile() with explicit path = %s", got)
	}

	cfg.Storage.CachePath = "~/e.db"
	if got := cfg.CacheFile(); strings.HasPrefix(got, "~") {
		t.Errorf("CacheFile() did not expand home: %s", got)
	}
}

func TestExpandPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "relative path", input: "./config.yaml", expected: "./config.yaml"},
		{name: "absolute path", input: "/etc/wordbias/config.yaml", expected: "/etc/wordbias/config.yaml"},
		{name: "tilde inside path", input: "/tmp/~/x", expected: "/tmp/~/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := ExpandPath(tt.input); result != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result)
			}
		})
	}

	if got := expandPath("~/.config/wordbias/config.yaml"); got == "~/.config/wordbias/config.yaml" {
		t.Error("Expected home directory path to be expanded")
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := GetConfigPaths()
	if len(paths) != 3 {
		t.Fatalf("Expected 3 config paths, got %d", len(paths))
	}
	if paths[0] != "./.wordbias.yaml" {
		t.Errorf("Expected ./.wordbias.yaml first, got %s", paths[0])
	}
	if strings.HasPrefix(paths[1], "~") {
		t.Errorf("Expected user path to be expanded, got %s", paths[1])
	}
	if paths[2] != "/etc/wordbias/config.yaml" {
		t.Errorf("Expected /etc/wordbias/config.yaml last, got %s", paths[2])
	}
}
