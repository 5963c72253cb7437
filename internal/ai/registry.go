package ai

import (
	"errors"
	"sort"
	"sync"
)

// ProviderFactory creates provider instances
type ProviderFactory interface {
	// Create creates a new provider instance with the given config
	Create(config *ProviderConfig) (Provider, error)

	// Type returns the provider type this factory creates
	Type() string

	// ValidateConfig validates configuration for this provider type
	ValidateConfig(config *ProviderConfig) error

	// DefaultConfig returns a default configuration
	DefaultConfig() *ProviderConfig
}

// Registry maps provider names to factories. Built providers are cached per
// name and model pair, so an embedding client and a completion client for
// the same backend live side by side.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
	providers map[providerKey]Provider
}

type providerKey struct {
	name      string
	model     string
	embedding string
	baseURL   string
}

func keyFor(name string, config *ProviderConfig) providerKey {
	return providerKey{
		name:      name,
		model:     config.DefaultModel,
		embedding: config.EmbeddingModel,
		baseURL:   config.BaseURL,
	}
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]ProviderFactory),
		providers: make(map[providerKey]Provider),
	}
}

func notRegistered(name string) error {
	return NewProviderError(ErrTypeNotFound, "provider not registered", name)
}

// Register adds a provider factory to the registry
func (r *Registry) Register(name string, factory ProviderFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return NewProviderError(ErrTypeRegistration, "provider already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Get builds a provider from the factory defaults
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, notRegistered(name)
	}
	return r.GetWithConfig(name, factory.DefaultConfig())
}

// GetWithConfig returns the provider for config, building and caching it on
// first use
func (r *Registry) GetWithConfig(name string, config *ProviderConfig) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, notRegistered(name)
	}
	if err := factory.ValidateConfig(config); err != nil {
		return nil, err
	}

	key := keyFor(name, config)
	if provider, ok := r.providers[key]; ok {
		return provider, nil
	}

	provider, err := factory.Create(config)
	if err != nil {
		return nil, err
	}
	if provider != nil {
		r.providers[key] = provider
	}
	return provider, nil
}

// List returns all registered provider names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a provider is registered
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]
	return exists
}

// Close shuts down every built provider
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for key, provider := range r.providers {
		if err := provider.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.providers, key)
	}
	return errors.Join(errs...)
}
