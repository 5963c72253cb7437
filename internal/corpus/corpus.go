// Package corpus collects training text from files and directories.
package corpus

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yildizm/wordbias/internal/logger"
	"gopkg.in/yaml.v3"
)

// ErrNoDocuments is returned when a directory holds no matching files
var ErrNoDocuments = errors.New("no corpus documents found")

// Document is one corpus file with its front matter removed
type Document struct {
	Path     string                 `json:"path"`
	Text     string                 `json:"-"`
	Words    int                    `json:"words"`
	Hash     string                 `json:"hash"`
	Modified time.Time              `json:"modified"`
	Meta     map[string]interface{} `json:"meta,omitempty"`
}

// Corpus is an ordered set of documents
type Corpus struct {
	Documents []*Document
}

// Text joins the documents, one blank line apart
func (c *Corpus) Text() string {
	parts := make([]string, 0, len(c.Documents))
	for _, d := range c.Documents {
		parts = append(parts, d.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Words counts whitespace separated tokens over every document
func (c *Corpus) Words() int {
	n := 0
	for _, d := range c.Documents {
		n += d.Words
	}
	return n
}

// Hash identifies the corpus content independent of modification times
func (c *Corpus) Hash() string {
	h := sha256.New()
	for _, d := range c.Documents {
		h.Write([]byte(d.Hash))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Scanner reads text and markdown corpus files
type Scanner struct {
	includePatterns []string
	excludePatterns []string
	log             *logger.Logger
}

// NewScanner creates a scanner for *.txt, *.md and *.markdown files
func NewScanner(log *logger.Logger) *Scanner {
	return &Scanner{
		includePatterns: []string{"*.txt", "*.md", "*.markdown"},
		excludePatterns: []string{"node_modules", "vendor"},
		log:             log,
	}
}

// WithPatterns replaces the include and exclude patterns when non-empty
func (s *Scanner) WithPatterns(include, exclude []string) *Scanner {
	if len(include) > 0 {
		s.includePatterns = include
	}
	if len(exclude) > 0 {
		s.excludePatterns = exclude
	}
	return s
}

// Load reads path as a single document, or every matching file below it
// when it is a directory
func (s *Scanner) Load(path string) (*Corpus, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	if !info.IsDir() {
		doc, err := s.ScanFile(path)
		if err != nil {
			return nil, err
		}
		return &Corpus{Documents: []*Document{doc}}, nil
	}

	docs, err := s.ScanDirectory(path)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoDocuments)
	}
	return &Corpus{Documents: docs}, nil
}

// ScanFile reads one file
func (s *Scanner) ScanFile(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}

	content, err := os.ReadFile(path) // #nosec G304 -- corpus path is supplied by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	meta, text, err := ExtractFrontMatter(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if isMarkdown(path) {
		text = stripHeadings(text)
	}

	sum := sha256.Sum256([]byte(text))
	return &Document{
		Path:     path,
		Text:     text,
		Words:    len(strings.Fields(text)),
		Hash:     fmt.Sprintf("%x", sum),
		Modified: info.ModTime(),
		Meta:     meta,
	}, nil
}

// ScanDirectory walks root for matching files, skipping hidden and excluded
// directories. Unreadable files are logged and skipped. Documents are
// ordered by path.
func (s *Scanner) ScanDirectory(root string) ([]*Document, error) {
	var docs []*Document

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || matchAny(s.excludePatterns, name)) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !matchAny(s.includePatterns, name) {
			return nil
		}

		doc, err := s.ScanFile(path)
		if err != nil {
			s.log.Warn("skipping corpus file: %v", err)
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", root, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// ExtractFrontMatter splits a leading "---" delimited YAML block from
// content. Content without front matter is returned unchanged.
func ExtractFrontMatter(content string) (map[string]interface{}, string, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, "---\n") {
		return nil, content, nil
	}

	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, content, nil
	}

	var meta map[string]interface{}
	if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return nil, "", fmt.Errorf("failed to parse YAML front matter: %w", err)
	}

	body := rest[end+len("\n---"):]
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}
	return meta, strings.TrimLeft(body, "\n"), nil
}

// stripHeadings drops ATX heading markers so "## Nurses" trains as "Nurses"
func stripHeadings(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if level := headingLevel(trimmed); level > 0 {
			lines[i] = strings.TrimSpace(trimmed[level:])
		}
	}
	return strings.Join(lines, "\n")
}

func headingLevel(line string) int {
	count := 0
	for _, r := range line {
		switch {
		case r == '#':
			count++
		case r == ' ' && count > 0 && count <= 6:
			return count
		default:
			return 0
		}
	}
	return 0
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".mdx", ".markdown":
		return true
	}
	return false
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}
