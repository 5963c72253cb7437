package openai

import (
	"github.com/yildizm/wordbias/internal/ai"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(config *ai.ProviderConfig) (ai.Provider, error) {
	if config == nil {
		config = f.DefaultConfig()
	}

	return New(FromProviderConfig(config))
}

func (f *Factory) Type() string {
	return "openai"
}

func (f *Factory) ValidateConfig(config *ai.ProviderConfig) error {
	if config == nil {
		return ai.NewConfigurationError("openai", "config", "configuration is required")
	}

	if config.Type != "" && config.Type != "openai" {
		return ai.NewConfigurationError("openai", "type", "invalid provider type: expected 'openai'")
	}

	return FromProviderConfig(config).Validate()
}

func (f *Factory) DefaultConfig() *ai.ProviderConfig {
	return DefaultConfig().ToProviderConfig()
}

// Register adds the OpenAI factory to a registry
func Register(r *ai.Registry) error {
	return r.Register("openai", NewFactory())
}
