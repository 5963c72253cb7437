package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yildizm/wordbias/internal/ai"
	"github.com/yildizm/wordbias/internal/ai/providers/ollama"
	"github.com/yildizm/wordbias/internal/ai/providers/openai"
	"github.com/yildizm/wordbias/internal/cache"
	"github.com/yildizm/wordbias/internal/config"
	"github.com/yildizm/wordbias/internal/corpus"
	"github.com/yildizm/wordbias/internal/embedding"
	"github.com/yildizm/wordbias/internal/logger"
	"github.com/yildizm/wordbias/internal/word2vec"
	"github.com/yildizm/wordbias/internal/wordlist"
)

// session holds what a command run shares: config, providers, the
// embedding cache and the model source registry
type session struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *ai.Registry
	sources  *embedding.Sources
	cache    *cache.Store
}

// newSession wires the provider registry and the model sources
func newSession(cfg *config.Config) (*session, error) {
	registry := ai.NewRegistry()
	if err := ollama.Register(registry); err != nil {
		return nil, err
	}
	if err := openai.Register(registry); err != nil {
		return nil, err
	}

	s := &session{
		cfg:      cfg,
		log:      GetLogger("session"),
		registry: registry,
		sources:  embedding.NewSources(),
	}
	s.sources.Register("table", s.openTable)
	s.sources.Register("trained", s.openTrained)
	s.sources.Register("ollama", s.contextualOpener("ollama"))
	s.sources.Register("openai", s.contextualOpener("openai"))
	return s, nil
}

// Close shuts down providers and the cache
func (s *session) Close() {
	if err := s.registry.Close(); err != nil {
		s.log.Warn("failed to close providers: %v", err)
	}
	if err := s.cache.Close(); err != nil {
		s.log.Warn("failed to close cache: %v", err)
	}
}

// openModel opens the configured model source
func (s *session) openModel(ctx context.Context) (embedding.Model, error) {
	start := time.Now()
	m, err := s.sources.Open(ctx, s.cfg.Model.Source)
	if err != nil {
		return nil, err
	}
	s.log.InfoWithFields("model ready", []logger.Field{logger.Model(m.Name()), logger.Duration(time.Since(start))})
	return m, nil
}

func (s *session) openTable(ctx context.Context, ref string) (embedding.Model, error) {
	path := config.ExpandPath(ref)
	table, err := embedding.LoadFile(path, embedding.LoadOptions{
		Name:      filepath.Base(path),
		Format:    embedding.Format(s.cfg.Model.Format),
		Limit:     s.cfg.Model.Limit,
		Normalize: s.cfg.Model.Normalize,
		Logger:    GetLogger("embedding"),

		CancelCheckPeriod: s.cfg.Analysis.CancelCheckPeriod,
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

func (s *session) openTrained(ctx context.Context, ref string) (embedding.Model, error) {
	if ref == "" {
		ref = s.cfg.Training.Corpus
	}
	m, err := trainModel(ctx, s.cfg, ref)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// contextualOpener embeds words through a provider, caching vectors
func (s *session) contextualOpener(name string) embedding.Opener {
	return func(ctx context.Context, ref string) (embedding.Model, error) {
		provider, err := s.provider(name, ref)
		if err != nil {
			return nil, err
		}

		opts := []embedding.ContextualOption{
			embedding.WithTemplate(s.cfg.Model.Template),
			embedding.WithBatchSize(s.cfg.Model.BatchSize),
			embedding.WithLogger(GetLogger("embedding")),
		}
		if ref != "" {
			opts = append(opts, embedding.WithModel(ref))
		}
		store, err := s.embeddingCache(ctx)
		if err != nil {
			return nil, err
		}
		if store != nil {
			opts = append(opts, embedding.WithCache(store))
		}
		return embedding.NewContextualModel(provider, opts...), nil
	}
}

// embeddingCache opens the SQLite cache once; nil when disabled
func (s *session) embeddingCache(ctx context.Context) (*cache.Store, error) {
	if s.cfg.Storage.DisableCache {
		return nil, nil
	}
	if s.cache != nil {
		return s.cache, nil
	}
	store, err := cache.Open(ctx, s.cfg.CacheFile())
	if err != nil {
		return nil, err
	}
	s.log.Debug("embedding cache at %s", store.Path())
	s.cache = store
	return store, nil
}

// completionProvider returns the provider named by ai.provider for the probe
func (s *session) completionProvider() (ai.Provider, error) {
	return s.provider(strings.ToLower(s.cfg.AI.Provider), "")
}

// provider builds a provider through the registry. embeddingModel
// overrides the configured one when set.
func (s *session) provider(name, embeddingModel string) (ai.Provider, error) {
	if !s.registry.IsRegistered(name) {
		return nil, fmt.Errorf("unsupported AI provider: %s (known: %s)", name, strings.Join(s.registry.List(), ", "))
	}
	provider, err := s.registry.GetWithConfig(name, providerConfig(name, &s.cfg.AI, embeddingModel))
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	return provider, nil
}

// providerConfig maps the ai config section onto a provider configuration.
// Endpoint, model and key only apply to the provider the section names.
func providerConfig(name string, aiConfig *config.AIConfig, embeddingModel string) *ai.ProviderConfig {
	pc := &ai.ProviderConfig{
		Name:               name,
		Type:               name,
		DefaultTemperature: aiConfig.Temperature,
		Timeout:            aiConfig.Timeout,
		RetryConfig: &ai.RetryConfig{
			MaxRetries:   aiConfig.MaxRetries,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
		},
	}

	if strings.EqualFold(aiConfig.Provider, name) {
		pc.APIKey = aiConfig.APIKey
		pc.BaseURL = aiConfig.Endpoint
		pc.DefaultModel = aiConfig.Model
		pc.EmbeddingModel = aiConfig.EmbeddingModel
	}
	if name == "openai" && pc.APIKey == "" {
		pc.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if embeddingModel != "" {
		pc.EmbeddingModel = embeddingModel
	}
	return pc
}

// trainingConfig converts the training section for the trainer
func trainingConfig(cfg *config.Config, name string) word2vec.Config {
	t := cfg.Training
	return word2vec.Config{
		Name:      name,
		Dimension: t.Dimension,
		Window:    t.Window,
		MinCount:  t.MinCount,
		Sample:    t.Sample,
		Negative:  t.Negative,
		Epochs:    t.Epochs,
		Alpha:     t.Alpha,
		MinAlpha:  t.MinAlpha,
		Seed:      t.Seed,
		CBOW:      t.CBOW,
		Logger:    GetLogger("word2vec"),
	}
}

// trainModel trains on a corpus file or directory, or the built-in corpus
// when path is empty
func trainModel(ctx context.Context, cfg *config.Config, path string) (*word2vec.Model, error) {
	text := word2vec.DefaultCorpus()
	name := "trained"
	if path != "" {
		path = config.ExpandPath(path)
		c, err := corpus.NewScanner(GetLogger("corpus")).Load(path)
		if err != nil {
			return nil, err
		}
		GetLogger("corpus").InfoWithFields("corpus loaded", []logger.Field{
			logger.Count(len(c.Documents)),
			logger.F("words", c.Words()),
		})
		text = c.Text()
		name = "trained:" + filepath.Base(path)
	}
	return word2vec.Train(ctx, text, trainingConfig(cfg, name))
}

// resolveWords reads a word list from a URL, a file or an inline list
func resolveWords(ctx context.Context, cfg *config.Config, src string) ([]string, error) {
	fetcher := wordlist.NewFetcher(cfg.Wordlists.FetchTimeout, GetLogger("wordlist"))
	return fetcher.Source(ctx, src)
}

// resolvePairs reads definitional pairs from the flag, then the config
func resolvePairs(cfg *config.Config, flagValue string) ([]wordlist.Pair, error) {
	if flagValue != "" {
		return wordlist.ResolvePairs(flagValue)
	}
	return wordlist.ResolvePairs(cfg.Wordlists.Pairs)
}
