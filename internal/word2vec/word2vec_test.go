package word2vec

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/yildizm/wordbias/internal/embedding"
	"github.com/yildizm/wordbias/internal/vectorstore"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want [][]string
	}{
		{
			name: "punctuation and newlines",
			text: "She is a Nurse! He's an engineer?\nThe end.",
			want: [][]string{{"she", "is", "a", "nurse"}, {"he", "s", "an", "engineer"}, {"the", "end"}},
		},
		{
			name: "empty pieces dropped",
			text: "...\n\n  !?",
			want: nil,
		},
		{
			name: "digits split words",
			text: "route66 runs",
			want: [][]string{{"route", "runs"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sentences(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Sentences() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildVocab(t *testing.T) {
	v := buildVocab([][]string{{"b", "a", "b"}, {"c", "b", "a"}}, 2)

	if !reflect.DeepEqual(v.words, []string{"b", "a"}) {
		t.Errorf("words = %v, want [b a]", v.words)
	}
	if v.total != 5 {
		t.Errorf("total = %d, want 5", v.total)
	}
	if got := v.encode([]string{"c", "a", "b"}); !reflect.DeepEqual(got, []int{1, 0}) {
		t.Errorf("encode() = %v", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "negative sample", mutate: func(c *Config) { c.Sample = -1 }, wantErr: true},
		{name: "min alpha above alpha", mutate: func(c *Config) { c.MinAlpha = 1 }, wantErr: true},
		{name: "zero min count", mutate: func(c *Config) { c.MinCount = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// two groups of words that never share a sentence
func groupedCorpus() string {
	var b strings.Builder
	groups := [][]string{
		{"alpha", "beta", "gamma", "delta"},
		{"one", "two", "three", "four"},
	}
	for i := 0; i < 40; i++ {
		for _, g := range groups {
			k := i % len(g)
			b.WriteString(strings.Join(append(append([]string{}, g[k:]...), g[:k]...), " "))
			b.WriteString(".\n")
		}
	}
	return b.String()
}

func meanSimilarity(t *testing.T, m *Model, pairs [][2]string) float64 {
	t.Helper()
	var sum float64
	for _, p := range pairs {
		a, err := m.Vector(context.Background(), p[0])
		if err != nil {
			t.Fatal(err)
		}
		b, err := m.Vector(context.Background(), p[1])
		if err != nil {
			t.Fatal(err)
		}
		sum += float64(vectorstore.CosineSimilarity(a, b))
	}
	return sum / float64(len(pairs))
}

func TestTrain_LearnsCooccurrence(t *testing.T) {
	for _, cbow := range []bool{false, true} {
		name := "skipgram"
		if cbow {
			name = "cbow"
		}
		t.Run(name, func(t *testing.T) {
			cfg := Config{Dimension: 16, Window: 3, Epochs: 150, Sample: 0, Seed: 7, CBOW: cbow}
			m, err := Train(context.Background(), groupedCorpus(), cfg)
			if err != nil {
				t.Fatalf("Train() error = %v", err)
			}

			within := meanSimilarity(t, m, [][2]string{
				{"alpha", "beta"}, {"gamma", "delta"}, {"one", "two"}, {"three", "four"},
			})
			across := meanSimilarity(t, m, [][2]string{
				{"alpha", "one"}, {"beta", "two"}, {"gamma", "three"}, {"delta", "four"},
			})
			if within <= across {
				t.Errorf("within-group similarity %.3f should exceed cross-group %.3f", within, across)
			}
		})
	}
}

func TestTrain_Deterministic(t *testing.T) {
	cfg := Config{Dimension: 8, Epochs: 5, Seed: 42}

	a, err := Train(context.Background(), DefaultCorpus(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Train(context.Background(), DefaultCorpus(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	va, _ := a.Vector(context.Background(), "nurse")
	vb, _ := b.Vector(context.Background(), "nurse")
	if !reflect.DeepEqual(va, vb) {
		t.Error("same seed produced different vectors")
	}
	if !reflect.DeepEqual(a.Vocabulary(), b.Vocabulary()) {
		t.Error("same corpus produced different vocabularies")
	}
}

func TestTrain_DefaultCorpus(t *testing.T) {
	m, err := Train(context.Background(), DefaultCorpus(), Config{Dimension: 10, Epochs: 3})
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	if m.Name() != "trained" || m.Dimension() != 10 {
		t.Errorf("Name() = %q Dimension() = %d", m.Name(), m.Dimension())
	}
	for _, w := range []string{"she", "he", "nurse", "engineer", "herself", "himself"} {
		if _, err := m.Vector(context.Background(), w); err != nil {
			t.Errorf("Vector(%q) error = %v", w, err)
		}
	}
	if m.Stats.Vocabulary != m.Len() || m.Stats.Tokens == 0 || m.Stats.Epochs != 3 {
		t.Errorf("Stats = %+v", m.Stats)
	}

	if _, err := m.Vector(context.Background(), "astronaut"); !errors.Is(err, embedding.ErrUnknownWord) {
		t.Errorf("unknown word error = %v", err)
	}
}

func TestTrain_Errors(t *testing.T) {
	if _, err := Train(context.Background(), "?!.", Config{}); !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("empty corpus error = %v", err)
	}
	if _, err := Train(context.Background(), "a b", Config{MinCount: 5}); !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("min count error = %v", err)
	}
	if _, err := Train(context.Background(), "a b", Config{Window: -1}); err == nil {
		t.Error("expected config error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Train(ctx, DefaultCorpus(), Config{}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled error = %v", err)
	}
}

func TestModel_SaveReload(t *testing.T) {
	m, err := Train(context.Background(), "she is a nurse. he is an engineer.", Config{Dimension: 4, Epochs: 2})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := m.Save(&buf); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "7 4\n") {
		t.Errorf("header = %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}

	reloaded, err := embedding.ReadText(&buf, embedding.LoadOptions{Name: "reloaded"})
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	if reloaded.Len() != m.Len() {
		t.Fatalf("reloaded %d words, want %d", reloaded.Len(), m.Len())
	}

	orig, _ := m.Vector(context.Background(), "nurse")
	got, _ := reloaded.Vector(context.Background(), "nurse")
	for i := range orig {
		if d := orig[i] - got[i]; d > 1e-6 || d < -1e-6 {
			t.Fatalf("component %d: %v vs %v", i, orig[i], got[i])
		}
	}
}
