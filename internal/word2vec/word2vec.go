// Package word2vec trains small skip-gram or CBOW models with negative
// sampling. It is meant for toy corpora: training is single threaded and
// fully deterministic for a given seed.
package word2vec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/yildizm/wordbias/internal/embedding"
	"github.com/yildizm/wordbias/internal/logger"
)

const (
	noiseTableSize = 1e6
	maxExp         = 6.0
)

// ErrEmptyCorpus is returned when no word survives tokenizing and MinCount
var ErrEmptyCorpus = errors.New("corpus has no trainable words")

// Stats summarizes a training run
type Stats struct {
	Vocabulary int           `json:"vocabulary"`
	Sentences  int           `json:"sentences"`
	Tokens     int           `json:"tokens"`
	Epochs     int           `json:"epochs"`
	Loss       float64       `json:"loss"`
	Duration   time.Duration `json:"duration"`
}

// Model is a trained table of word vectors. It satisfies embedding.Model
// and embedding.Searcher through the embedded table.
type Model struct {
	*embedding.Table
	Stats Stats
}

// Save writes the vectors in word2vec text format
func (m *Model) Save(w io.Writer) error {
	return m.WriteText(w)
}

// SaveFile writes the vectors to path in the format its extension names:
// .json for a vector store snapshot, .bin for word2vec binary, else text
func (m *Model) SaveFile(path string) error {
	f, err := os.Create(path) // #nosec G304 -- output path comes from the user
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := m.Write(f, embedding.FormatForPath(path)); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// Train tokenizes corpus and trains on it
func Train(ctx context.Context, corpus string, cfg Config) (*Model, error) {
	return TrainSentences(ctx, Sentences(corpus), cfg)
}

// TrainSentences trains on pre-tokenized sentences. The context is checked
// between sentences.
func TrainSentences(ctx context.Context, sentences [][]string, cfg Config) (*Model, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}

	v := buildVocab(sentences, cfg.MinCount)
	if len(v.words) == 0 {
		return nil, ErrEmptyCorpus
	}

	t := newTrainer(v, cfg)
	start := time.Now()
	encoded := make([][]int, len(sentences))
	for i, s := range sentences {
		encoded[i] = v.encode(s)
	}

	var loss float64
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		var err error
		loss, err = t.epoch(ctx, encoded)
		if err != nil {
			return nil, err
		}
		if epoch == 0 || (epoch+1)%10 == 0 || epoch+1 == cfg.Epochs {
			cfg.Logger.DebugWithFields("epoch done", []logger.Field{
				logger.F("epoch", epoch+1),
				logger.F("alpha", fmt.Sprintf("%.5f", t.alpha())),
				logger.F("loss", fmt.Sprintf("%.4f", loss)),
			})
		}
	}

	table := embedding.NewTable(cfg.Name, cfg.Dimension)
	for i, w := range v.words {
		vec := make([]float32, cfg.Dimension)
		copy(vec, t.syn0[i*cfg.Dimension:(i+1)*cfg.Dimension])
		if err := table.Add(w, vec); err != nil {
			return nil, err
		}
	}

	m := &Model{
		Table: table,
		Stats: Stats{
			Vocabulary: len(v.words),
			Sentences:  len(sentences),
			Tokens:     v.total,
			Epochs:     cfg.Epochs,
			Loss:       loss,
			Duration:   time.Since(start),
		},
	}
	cfg.Logger.InfoWithFields("training complete", []logger.Field{
		logger.Count(m.Stats.Vocabulary),
		logger.F("tokens", m.Stats.Tokens),
		logger.Duration(m.Stats.Duration),
	})
	return m, nil
}

type trainer struct {
	cfg   Config
	vocab *vocab
	rng   *rand.Rand

	syn0  []float32
	syn1  []float32
	noise []int32
	keep  []float64

	processed int
	planned   int
}

func newTrainer(v *vocab, cfg Config) *trainer {
	t := &trainer{
		cfg:     cfg,
		vocab:   v,
		rng:     rand.New(rand.NewSource(cfg.Seed)), // #nosec G404 -- reproducible training, not security
		planned: cfg.Epochs * v.total,
	}

	dim := cfg.Dimension
	t.syn0 = make([]float32, len(v.words)*dim)
	for i := range t.syn0 {
		t.syn0[i] = (t.rng.Float32() - 0.5) / float32(dim)
	}
	t.syn1 = make([]float32, len(v.words)*dim)

	t.buildNoiseTable()
	t.buildKeepProbs()
	return t
}

// buildNoiseTable fills the negative sampling table so each word appears
// in proportion to count^0.75
func (t *trainer) buildNoiseTable() {
	var norm float64
	for _, c := range t.vocab.counts {
		norm += math.Pow(float64(c), 0.75)
	}

	t.noise = make([]int32, int(noiseTableSize))
	i := 0
	cum := math.Pow(float64(t.vocab.counts[0]), 0.75) / norm
	for a := range t.noise {
		t.noise[a] = int32(i)
		if float64(a)/noiseTableSize > cum && i < len(t.vocab.counts)-1 {
			i++
			cum += math.Pow(float64(t.vocab.counts[i]), 0.75) / norm
		}
	}
}

func (t *trainer) buildKeepProbs() {
	t.keep = make([]float64, len(t.vocab.counts))
	threshold := t.cfg.Sample * float64(t.vocab.total)
	for i, c := range t.vocab.counts {
		if t.cfg.Sample <= 0 {
			t.keep[i] = 1
			continue
		}
		f := float64(c)
		t.keep[i] = (math.Sqrt(f/threshold) + 1) * threshold / f
	}
}

func (t *trainer) alpha() float64 {
	progress := float64(t.processed) / float64(t.planned+1)
	a := t.cfg.Alpha - (t.cfg.Alpha-t.cfg.MinAlpha)*progress
	return math.Max(a, t.cfg.MinAlpha)
}

// epoch runs one pass and returns the mean loss per prediction
func (t *trainer) epoch(ctx context.Context, sentences [][]int) (float64, error) {
	var loss float64
	var steps int
	kept := make([]int, 0, 64)

	for _, s := range sentences {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		kept = kept[:0]
		for _, w := range s {
			if t.keep[w] < 1 && t.keep[w] < t.rng.Float64() {
				continue
			}
			kept = append(kept, w)
		}
		t.processed += len(s)
		alpha := float32(t.alpha())

		for pos, center := range kept {
			window := t.cfg.Window - t.rng.Intn(t.cfg.Window)
			lo, hi := pos-window, pos+window
			if lo < 0 {
				lo = 0
			}
			if hi >= len(kept) {
				hi = len(kept) - 1
			}

			if t.cfg.CBOW {
				l, n := t.cbow(kept, pos, lo, hi, center, alpha)
				loss += l
				steps += n
				continue
			}
			for c := lo; c <= hi; c++ {
				if c == pos {
					continue
				}
				loss += t.skipGram(kept[c], center, alpha)
				steps++
			}
		}
	}

	if steps == 0 {
		return 0, nil
	}
	return loss / float64(steps), nil
}

// skipGram predicts center from the context word
func (t *trainer) skipGram(context, center int, alpha float32) float64 {
	dim := t.cfg.Dimension
	in := t.syn0[context*dim : (context+1)*dim]
	grad := make([]float32, dim)
	loss := t.negativeSampling(in, grad, center, alpha)
	for i := range in {
		in[i] += grad[i]
	}
	return loss
}

// cbow predicts center from the mean of its window
func (t *trainer) cbow(sentence []int, pos, lo, hi, center int, alpha float32) (float64, int) {
	dim := t.cfg.Dimension
	hidden := make([]float32, dim)
	n := 0
	for c := lo; c <= hi; c++ {
		if c == pos {
			continue
		}
		row := t.syn0[sentence[c]*dim : (sentence[c]+1)*dim]
		for i := range hidden {
			hidden[i] += row[i]
		}
		n++
	}
	if n == 0 {
		return 0, 0
	}
	for i := range hidden {
		hidden[i] /= float32(n)
	}

	grad := make([]float32, dim)
	loss := t.negativeSampling(hidden, grad, center, alpha)
	for c := lo; c <= hi; c++ {
		if c == pos {
			continue
		}
		row := t.syn0[sentence[c]*dim : (sentence[c]+1)*dim]
		for i := range row {
			row[i] += grad[i]
		}
	}
	return loss, 1
}

// negativeSampling updates the output vectors for the target and the noise
// words and accumulates the input gradient into grad
func (t *trainer) negativeSampling(in, grad []float32, target int, alpha float32) float64 {
	dim := t.cfg.Dimension
	var loss float64

	for d := 0; d <= t.cfg.Negative; d++ {
		word, label := target, float32(1)
		if d > 0 {
			word = int(t.noise[t.rng.Intn(len(t.noise))])
			if word == target {
				continue
			}
			label = 0
		}

		out := t.syn1[word*dim : (word+1)*dim]
		var f float64
		for i := range in {
			f += float64(in[i]) * float64(out[i])
		}
		f = math.Max(-maxExp, math.Min(maxExp, f))
		sig := 1 / (1 + math.Exp(-f))

		if label == 1 {
			loss -= math.Log(sig)
		} else {
			loss -= math.Log(1 - sig)
		}

		g := (label - float32(sig)) * alpha
		for i := range out {
			grad[i] += g * out[i]
			out[i] += g * in[i]
		}
	}
	return loss
}
