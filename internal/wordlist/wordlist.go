// Package wordlist loads the word lists an analysis runs over: remote JSON
// lists, local files, inline lists and gendered word pairs.
package wordlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/yildizm/wordbias/internal/logger"
)

// DefaultProfessionsURL is the public professions list used for neutral words
const DefaultProfessionsURL = "https://raw.githubusercontent.com/tolga-b/debiaswe/master/data/professions.json"

const maxListBytes = 16 << 20

// Fetcher retrieves word lists over HTTP
type Fetcher struct {
	client    *http.Client
	userAgent string
	log       *logger.Logger
}

// NewFetcher creates a fetcher with the given request timeout
func NewFetcher(timeout time.Duration, log *logger.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: "wordbias",
		log:       log,
	}
}

// Fetch GETs url and parses the body as a JSON word list
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", url, err)
	}
	if len(body) > maxListBytes {
		return nil, fmt.Errorf("fetch %s: body exceeds %d bytes", url, maxListBytes)
	}

	words, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	f.log.InfoWithFields("fetched word list", []logger.Field{
		logger.F("url", url),
		logger.Count(len(words)),
		logger.Duration(time.Since(start)),
	})
	return words, nil
}

// Parse accepts a JSON array of strings, or an array of arrays whose first
// element is the word (the professions list shape). Either array may also
// be wrapped as {"words": [...]}.
func Parse(data []byte) ([]string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var wrapped struct {
			Words []json.RawMessage `json:"words"`
		}
		if werr := json.Unmarshal(data, &wrapped); werr != nil || wrapped.Words == nil {
			return nil, fmt.Errorf("parse word list: %w", err)
		}
		raw = wrapped.Words
	}

	words := make([]string, 0, len(raw))
	for i, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			words = append(words, s)
			continue
		}

		var row []json.RawMessage
		if err := json.Unmarshal(item, &row); err != nil || len(row) == 0 {
			return nil, fmt.Errorf("parse word list: element %d is neither a string nor a non-empty array", i)
		}
		if err := json.Unmarshal(row[0], &s); err != nil {
			return nil, fmt.Errorf("parse word list: element %d does not start with a string", i)
		}
		words = append(words, s)
	}

	words = Normalize(words)
	if len(words) == 0 {
		return nil, errors.New("word list is empty")
	}
	return words, nil
}

// Load reads a JSON word list from disk. Files that are not JSON are read
// as one word per line, with # comments.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the user
	if err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		words, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return words, nil
	}

	var words []string
	for _, line := range strings.Split(trimmed, "\n") {
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		words = append(words, line)
	}
	words = Normalize(words)
	if len(words) == 0 {
		return nil, fmt.Errorf("%s: word list is empty", path)
	}
	return words, nil
}

// Source resolves a list argument: an http(s) URL, an existing file, or
// an inline comma separated list.
func (f *Fetcher) Source(ctx context.Context, src string) ([]string, error) {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return nil, errors.New("empty word list source")
	case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
		return f.Fetch(ctx, src)
	}

	if info, err := os.Stat(src); err == nil && !info.IsDir() {
		return Load(src)
	}

	words := Normalize(strings.Split(src, ","))
	if len(words) == 0 {
		return nil, fmt.Errorf("no words in %q", src)
	}
	return words, nil
}

// Normalize trims words, drops empties and removes duplicates, keeping
// first occurrences in order.
func Normalize(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
