package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yildizm/wordbias/internal/ai"
	"github.com/yildizm/wordbias/internal/logger"
)

// DefaultTemplate embeds the bare word
const DefaultTemplate = "{word}"

// VectorCache stores embeddings keyed by model and input text
type VectorCache interface {
	Get(ctx context.Context, model, text string) ([]float32, bool, error)
	Put(ctx context.Context, model, text string, vector []float32) error
}

// ContextualModel is an open-vocabulary model backed by an embedding provider.
// Each word is rendered into a template sentence before it is embedded.
type ContextualModel struct {
	provider  ai.EmbeddingProvider
	model     string
	template  string
	cache     VectorCache
	batchSize int
	log       *logger.Logger

	mu  sync.RWMutex
	dim int
}

// ContextualOption configures a ContextualModel
type ContextualOption func(*ContextualModel)

// WithModel overrides the provider's embedding model
func WithModel(name string) ContextualOption {
	return func(m *ContextualModel) {
		m.model = name
	}
}

// WithTemplate sets the sentence each word is embedded in; it must contain {word}
func WithTemplate(template string) ContextualOption {
	return func(m *ContextualModel) {
		if strings.Contains(template, "{word}") {
			m.template = template
		}
	}
}

// WithCache enables the embedding cache
func WithCache(c VectorCache) ContextualOption {
	return func(m *ContextualModel) {
		m.cache = c
	}
}

// WithBatchSize caps the inputs per provider request
func WithBatchSize(n int) ContextualOption {
	return func(m *ContextualModel) {
		if n > 0 {
			m.batchSize = n
		}
	}
}

// WithLogger sets the model's logger
func WithLogger(l *logger.Logger) ContextualOption {
	return func(m *ContextualModel) {
		m.log = l
	}
}

// NewContextualModel wraps an embedding provider as a Model
func NewContextualModel(provider ai.EmbeddingProvider, opts ...ContextualOption) *ContextualModel {
	m := &ContextualModel{
		provider:  provider,
		model:     provider.EmbeddingModel(),
		template:  DefaultTemplate,
		batchSize: 64,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *ContextualModel) Name() string {
	return m.provider.Name() + ":" + m.model
}

func (m *ContextualModel) Dimension() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dim
}

func (m *ContextualModel) Vocabulary() []string {
	return nil
}

// Render returns the text that is embedded for word
func (m *ContextualModel) Render(word string) string {
	return strings.ReplaceAll(m.template, "{word}", word)
}

func (m *ContextualModel) Vector(ctx context.Context, word string) ([]float32, error) {
	vecs, err := m.Vectors(ctx, []string{word})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Vectors embeds words in order, serving what it can from the cache
func (m *ContextualModel) Vectors(ctx context.Context, words []string) ([][]float32, error) {
	out := make([][]float32, len(words))
	cacheKey := m.Name()

	var missing []int
	for i, w := range words {
		if strings.TrimSpace(w) == "" {
			return nil, unknownWord(w)
		}
		if m.cache == nil {
			missing = append(missing, i)
			continue
		}
		vec, ok, err := m.cache.Get(ctx, cacheKey, m.Render(w))
		if err != nil {
			m.log.Warn("cache read failed for %q: %v", w, err)
		}
		if ok {
			out[i] = vec
			continue
		}
		missing = append(missing, i)
	}

	m.log.DebugWithFields("embedding words", []logger.Field{
		logger.Model(cacheKey),
		logger.Count(len(words)),
		logger.F("cached", len(words)-len(missing)),
	})

	for start := 0; start < len(missing); start += m.batchSize {
		end := start + m.batchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]

		inputs := make([]string, len(batch))
		for j, idx := range batch {
			inputs[j] = m.Render(words[idx])
		}

		resp, err := m.provider.Embed(ctx, &ai.EmbeddingRequest{Model: m.model, Input: inputs})
		if err != nil {
			return nil, fmt.Errorf("embed with %s: %w", cacheKey, err)
		}
		if len(resp.Embeddings) != len(inputs) {
			return nil, fmt.Errorf("embed with %s: got %d vectors for %d inputs", cacheKey, len(resp.Embeddings), len(inputs))
		}

		for j, idx := range batch {
			vec := resp.Embeddings[j]
			out[idx] = vec
			if m.cache != nil {
				if err := m.cache.Put(ctx, cacheKey, inputs[j], vec); err != nil {
					m.log.Warn("cache write failed for %q: %v", words[idx], err)
				}
			}
		}
	}

	for _, v := range out {
		if err := m.checkDimension(len(v)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (m *ContextualModel) checkDimension(n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dim == 0 {
		m.dim = n
		return nil
	}
	if n != m.dim {
		return fmt.Errorf("%s returned dimension %d, expected %d", m.Name(), n, m.dim)
	}
	return nil
}
