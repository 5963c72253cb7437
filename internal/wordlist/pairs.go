package wordlist

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pair is a gendered word pair, female first by convention
type Pair struct {
	A string `json:"a" yaml:"a"`
	B string `json:"b" yaml:"b"`
}

func (p Pair) String() string {
	return p.A + ":" + p.B
}

// DefaultPairs are the definitional pairs used to find the gender direction
func DefaultPairs() []Pair {
	return []Pair{
		{A: "she", B: "he"},
		{A: "her", B: "his"},
		{A: "woman", B: "man"},
		{A: "mary", B: "john"},
		{A: "herself", B: "himself"},
		{A: "daughter", B: "son"},
		{A: "mother", B: "father"},
		{A: "gal", B: "guy"},
		{A: "girl", B: "boy"},
		{A: "female", B: "male"},
	}
}

// ParsePairs parses "a:b,c:d"
func ParsePairs(s string) ([]Pair, error) {
	var pairs []Pair
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		a, b, ok := strings.Cut(item, ":")
		a, b = strings.TrimSpace(a), strings.TrimSpace(b)
		if !ok || a == "" || b == "" {
			return nil, fmt.Errorf("invalid pair %q: want a:b", item)
		}
		pairs = append(pairs, Pair{A: a, B: b})
	}
	if len(pairs) == 0 {
		return nil, errors.New("no pairs given")
	}
	return dedupePairs(pairs), nil
}

// LoadPairs reads pairs from a YAML or JSON file. Each entry is either a
// two element list or a mapping with a and b keys; a top-level "pairs"
// key is optional.
func LoadPairs(path string) ([]Pair, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the user
	if err != nil {
		return nil, fmt.Errorf("read pairs: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse pairs %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("%s: no pairs", path)
	}

	node := doc.Content[0]
	if node.Kind == yaml.MappingNode {
		var wrapped struct {
			Pairs yaml.Node `yaml:"pairs"`
		}
		if err := node.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("parse pairs %s: %w", path, err)
		}
		node = &wrapped.Pairs
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%s: expected a list of pairs", path)
	}

	pairs := make([]Pair, 0, len(node.Content))
	for i, item := range node.Content {
		var p Pair
		switch item.Kind {
		case yaml.SequenceNode:
			var two []string
			if err := item.Decode(&two); err != nil || len(two) != 2 {
				return nil, fmt.Errorf("%s: entry %d must have exactly two words", path, i)
			}
			p = Pair{A: two[0], B: two[1]}
		case yaml.MappingNode:
			if err := item.Decode(&p); err != nil {
				return nil, fmt.Errorf("%s: entry %d: %w", path, i, err)
			}
		case yaml.ScalarNode:
			parsed, err := ParsePairs(item.Value)
			if err != nil || len(parsed) != 1 {
				return nil, fmt.Errorf("%s: entry %d: invalid pair %q", path, i, item.Value)
			}
			p = parsed[0]
		default:
			return nil, fmt.Errorf("%s: entry %d has unsupported shape", path, i)
		}

		p.A, p.B = strings.TrimSpace(p.A), strings.TrimSpace(p.B)
		if p.A == "" || p.B == "" {
			return nil, fmt.Errorf("%s: entry %d has an empty word", path, i)
		}
		pairs = append(pairs, p)
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("%s: no pairs", path)
	}
	return dedupePairs(pairs), nil
}

// ResolvePairs accepts an inline "a:b,c:d" list or a pairs file; empty
// means the default pairs.
func ResolvePairs(src string) ([]Pair, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return DefaultPairs(), nil
	}
	if info, err := os.Stat(src); err == nil && !info.IsDir() {
		return LoadPairs(src)
	}
	return ParsePairs(src)
}

func dedupePairs(pairs []Pair) []Pair {
	seen := make(map[Pair]bool, len(pairs))
	out := pairs[:0]
	for _, p := range pairs {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
