package embedding

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Opener builds a model from the reference part of a source string
type Opener func(ctx context.Context, ref string) (Model, error)

// Sources resolves "scheme:ref" strings such as "table:vectors.txt" or
// "ollama:nomic-embed-text" to models. A string without a known scheme
// is treated as a table path.
type Sources struct {
	mu      sync.RWMutex
	openers map[string]Opener
}

// NewSources creates an empty source registry
func NewSources() *Sources {
	return &Sources{openers: make(map[string]Opener)}
}

// Register binds a scheme to an opener, replacing any previous one
func (s *Sources) Register(scheme string, opener Opener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openers[scheme] = opener
}

// Schemes lists the registered schemes, sorted
func (s *Sources) Schemes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.openers))
	for k := range s.openers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ParseSource splits a source string into scheme and reference
func ParseSource(source string) (scheme, ref string) {
	if i := strings.Index(source, ":"); i > 0 {
		scheme, ref = source[:i], source[i+1:]
		// windows drive letters and URLs are paths, not schemes
		if len(scheme) > 1 && !strings.HasPrefix(ref, "//") {
			return scheme, ref
		}
	}
	return "table", source
}

// Open resolves source to a model
func (s *Sources) Open(ctx context.Context, source string) (Model, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("no model source given")
	}

	scheme, ref := ParseSource(source)

	s.mu.RLock()
	opener, ok := s.openers[scheme]
	if !ok {
		opener, ok = s.openers["table"]
		ref = source
	}
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown model source %q (known: %s)", scheme, strings.Join(s.Schemes(), ", "))
	}

	m, err := opener(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("open model %s: %w", source, err)
	}
	return m, nil
}
