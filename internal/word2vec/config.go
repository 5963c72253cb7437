package word2vec

import (
	"fmt"

	"github.com/yildizm/wordbias/internal/logger"
)

// Config holds the training options. Zero fields are filled from
// DefaultConfig by Train.
type Config struct {
	// Name is reported by the trained model's Name method
	Name string `yaml:"name"`

	Dimension int `yaml:"dimension"`
	Window    int `yaml:"window"`

	// MinCount drops words seen fewer times than this
	MinCount int `yaml:"min_count"`

	// Sample is the sub-sampling threshold for frequent words; 0 disables it
	Sample float64 `yaml:"sample"`

	Negative int `yaml:"negative"`
	Epochs   int `yaml:"epochs"`

	// Alpha decays linearly to MinAlpha over the whole run
	Alpha    float64 `yaml:"alpha"`
	MinAlpha float64 `yaml:"min_alpha"`

	Seed int64 `yaml:"seed"`

	// CBOW switches from skip-gram to continuous bag of words
	CBOW bool `yaml:"cbow"`

	Logger *logger.Logger `yaml:"-"`
}

// DefaultConfig is sized for small corpora
func DefaultConfig() Config {
	return Config{
		Name:      "trained",
		Dimension: 50,
		Window:    5,
		MinCount:  1,
		Sample:    1e-3,
		Negative:  5,
		Epochs:    100,
		Alpha:     0.025,
		MinAlpha:  0.0001,
		Seed:      1,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.Dimension == 0 {
		c.Dimension = d.Dimension
	}
	if c.Window == 0 {
		c.Window = d.Window
	}
	if c.MinCount == 0 {
		c.MinCount = d.MinCount
	}
	if c.Negative == 0 {
		c.Negative = d.Negative
	}
	if c.Epochs == 0 {
		c.Epochs = d.Epochs
	}
	if c.Alpha == 0 {
		c.Alpha = d.Alpha
	}
	if c.MinAlpha == 0 {
		c.MinAlpha = d.MinAlpha
	}
	return c
}

// Validate checks ranges; call it after defaults are applied
func (c Config) Validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", c.Dimension)
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive, got %d", c.Window)
	}
	if c.MinCount < 1 {
		return fmt.Errorf("min_count must be at least 1, got %d", c.MinCount)
	}
	if c.Sample < 0 {
		return fmt.Errorf("sample must not be negative, got %g", c.Sample)
	}
	if c.Negative <= 0 {
		return fmt.Errorf("negative must be positive, got %d", c.Negative)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.Alpha <= 0 || c.MinAlpha < 0 || c.MinAlpha > c.Alpha {
		return fmt.Errorf("learning rate must satisfy 0 <= min_alpha <= alpha and alpha > 0, got alpha=%g min_alpha=%g", c.Alpha, c.MinAlpha)
	}
	return nil
}
