package word2vec

import (
	_ "embed"
	"sort"
	"strings"
	"unicode"
)

//go:embed corpus/toy.txt
var toyCorpus string

// DefaultCorpus returns the built-in toy corpus. Its sentences pair
// occupations with gendered words the way stereotyped text does.
func DefaultCorpus() string {
	return toyCorpus
}

// Sentences splits text on . ! ? and newlines and tokenizes each piece.
// Empty sentences are dropped.
func Sentences(text string) [][]string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '.', '!', '?', '\n', '\r':
			return true
		}
		return false
	})

	var out [][]string
	for _, p := range parts {
		if toks := Tokenize(p); len(toks) > 0 {
			out = append(out, toks)
		}
	}
	return out
}

// Tokenize lower-cases s and splits it on anything that is not a letter
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

type vocab struct {
	words  []string
	index  map[string]int
	counts []int
	total  int
}

// buildVocab keeps words seen at least minCount times, ordered by
// descending count then alphabetically
func buildVocab(sentences [][]string, minCount int) *vocab {
	freq := make(map[string]int)
	for _, s := range sentences {
		for _, w := range s {
			freq[w]++
		}
	}

	words := make([]string, 0, len(freq))
	for w, n := range freq {
		if n >= minCount {
			words = append(words, w)
		}
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})

	v := &vocab{
		words:  words,
		index:  make(map[string]int, len(words)),
		counts: make([]int, len(words)),
	}
	for i, w := range words {
		v.index[w] = i
		v.counts[i] = freq[w]
		v.total += freq[w]
	}
	return v
}

// encode maps a sentence to vocabulary indices, dropping unknown words
func (v *vocab) encode(sentence []string) []int {
	ids := make([]int, 0, len(sentence))
	for _, w := range sentence {
		if i, ok := v.index[w]; ok {
			ids = append(ids, i)
		}
	}
	return ids
}
