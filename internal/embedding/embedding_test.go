package embedding

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/yildizm/wordbias/internal/ai"
)

const sampleText = `4 3
king 0.9 0.1 0.0
queen 0.85 0.2 0.1
Paris 0.0 0.9 0.1
apple 0.0 0.1 0.95
`

func mustReadText(t *testing.T, s string, opts LoadOptions) *Table {
	t.Helper()
	tbl, err := ReadText(strings.NewReader(s), opts)
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	return tbl
}

func TestReadText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    LoadOptions
		wantLen int
		wantDim int
		wantErr bool
	}{
		{name: "word2vec header", input: sampleText, wantLen: 4, wantDim: 3},
		{name: "glove without header", input: "he 1 0\nshe 0 1\n", wantLen: 2, wantDim: 2},
		{name: "no trailing newline", input: "he 1 0\nshe 0 1", wantLen: 2, wantDim: 2},
		{name: "limit", input: sampleText, opts: LoadOptions{Limit: 2}, wantLen: 2, wantDim: 3},
		{name: "duplicate keeps first", input: "he 1 0\nhe 0 1\n", wantLen: 1, wantDim: 2},
		{name: "ragged row", input: "3 2\nhe 1 0\nshe 0\n", wantErr: true},
		{name: "bad float", input: "he 1 x\n", wantErr: true},
		{name: "empty", input: "\n\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := ReadText(strings.NewReader(tt.input), tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadText() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tbl.Len() != tt.wantLen || tbl.Dimension() != tt.wantDim {
				t.Errorf("got len=%d dim=%d, want len=%d dim=%d", tbl.Len(), tbl.Dimension(), tt.wantLen, tt.wantDim)
			}
		})
	}
}

func TestTable_Vector(t *testing.T) {
	tbl := mustReadText(t, sampleText, LoadOptions{Name: "sample"})
	ctx := context.Background()

	v, err := tbl.Vector(ctx, "king")
	if err != nil || v[0] != 0.9 {
		t.Errorf("Vector(king) = %v, %v", v, err)
	}

	if _, err := tbl.Vector(ctx, "paris"); err != nil {
		t.Errorf("lower-case fallback failed: %v", err)
	}

	_, err = tbl.Vector(ctx, "nurse")
	if !errors.Is(err, ErrUnknownWord) {
		t.Errorf("Vector(nurse) error = %v, want ErrUnknownWord", err)
	}
	if !strings.Contains(err.Error(), `"nurse"`) {
		t.Errorf("error should name the word: %v", err)
	}

	vocab := tbl.Vocabulary()
	if len(vocab) != 4 || vocab[0] != "king" || vocab[2] != "Paris" {
		t.Errorf("Vocabulary() = %v, want file order", vocab)
	}
}

func TestTable_Nearest(t *testing.T) {
	tbl := mustReadText(t, sampleText, LoadOptions{})
	ctx := context.Background()

	king, _ := tbl.Vector(ctx, "king")
	got, err := tbl.Nearest(ctx, king, 2, "KING")
	if err != nil {
		t.Fatalf("Nearest() error = %v", err)
	}
	if len(got) != 2 || got[0].Word != "queen" {
		t.Errorf("Nearest() = %+v, want queen first", got)
	}
	for _, n := range got {
		if n.Word == "king" {
			t.Error("excluded word returned")
		}
	}
}

func TestNormalizeOnLoad(t *testing.T) {
	tbl := mustReadText(t, "he 3 4\n", LoadOptions{Normalize: true})
	v, _ := tbl.Vector(context.Background(), "he")
	if v[0] != 0.6 || v[1] != 0.8 {
		t.Errorf("normalized vector = %v, want [0.6 0.8]", v)
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	src := mustReadText(t, sampleText, LoadOptions{})

	var buf bytes.Buffer
	if err := src.WriteBinary(&buf); err != nil {
		t.Fatalf("WriteBinary() error = %v", err)
	}

	dst, err := ReadBinary(&buf, LoadOptions{Name: "bin"})
	if err != nil {
		t.Fatalf("ReadBinary() error = %v", err)
	}
	if dst.Len() != src.Len() {
		t.Fatalf("Len() = %d, want %d", dst.Len(), src.Len())
	}
	for _, w := range src.Vocabulary() {
		a, _ := src.Vector(context.Background(), w)
		b, _ := dst.Vector(context.Background(), w)
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("%s[%d] = %v, want %v", w, i, b[i], a[i])
			}
		}
	}
}

func TestReadBinary_Truncated(t *testing.T) {
	if _, err := ReadBinary(strings.NewReader("2 3\nhe \x00\x00"), LoadOptions{}); err == nil {
		t.Error("expected error for truncated input")
	}
	if _, err := ReadBinary(strings.NewReader("garbage\n"), LoadOptions{}); err == nil {
		t.Error("expected error for bad header")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	src := mustReadText(t, sampleText, LoadOptions{})

	textPath := filepath.Join(dir, "vectors.txt")
	var text bytes.Buffer
	if err := src.WriteText(&text); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(textPath, text.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	binPath := filepath.Join(dir, "vectors.bin.gz")
	f, err := os.Create(binPath)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if err := src.WriteBinary(gz); err != nil {
		t.Fatal(err)
	}
	_ = gz.Close()
	_ = f.Close()

	for _, path := range []string{textPath, binPath} {
		tbl, err := LoadFile(path, LoadOptions{})
		if err != nil {
			t.Fatalf("LoadFile(%s) error = %v", path, err)
		}
		if tbl.Len() != 4 {
			t.Errorf("LoadFile(%s) len = %d", path, tbl.Len())
		}
	}

	tbl, _ := LoadFile(textPath, LoadOptions{})
	if tbl.Name() != "vectors.txt" {
		t.Errorf("Name() = %q, want file base name", tbl.Name())
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.txt"), LoadOptions{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestJSONSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.json")
	src := mustReadText(t, sampleText, LoadOptions{})

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := src.Write(f, FormatForPath(path)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	_ = f.Close()

	tbl, err := LoadFile(path, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := strings.Join(tbl.Vocabulary(), " "); got != "Paris apple king queen" {
		t.Errorf("Vocabulary() = %q, want sorted words", got)
	}
	if tbl.Dimension() != 3 {
		t.Errorf("Dimension() = %d, want 3", tbl.Dimension())
	}
	want, _ := src.Vector(context.Background(), "queen")
	got, _ := tbl.Vector(context.Background(), "queen")
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("queen[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	limited, err := LoadFile(path, LoadOptions{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if limited.Len() != 2 {
		t.Errorf("limited Len() = %d, want 2", limited.Len())
	}

	if _, err := ReadJSON(strings.NewReader("{}"), LoadOptions{}); err == nil {
		t.Error("expected error for empty snapshot")
	}
	if err := src.Write(&bytes.Buffer{}, Format("glove")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"vectors.txt", FormatText},
		{"vectors.bin", FormatBinary},
		{"vectors.bin.gz", FormatBinary},
		{"store.JSON", FormatJSON},
		{"glove.6B.50d", FormatText},
	}
	for _, tt := range tests {
		if got := FormatForPath(tt.path); got != tt.want {
			t.Errorf("FormatForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	seen  []string
	dim   int
}

func (f *fakeProvider) Name() string           { return "fake" }
func (f *fakeProvider) EmbeddingModel() string { return "fake-embed" }
func (f *fakeProvider) Close() error           { return nil }

func (f *fakeProvider) Embed(ctx context.Context, req *ai.EmbeddingRequest) (*ai.EmbeddingResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.seen = append(f.seen, req.Input...)

	out := make([][]float32, len(req.Input))
	for i, in := range req.Input {
		v := make([]float32, f.dim)
		v[0] = float32(len(in))
		out[i] = v
	}
	return &ai.EmbeddingResponse{Model: req.Model, Embeddings: out}, nil
}

type mapCache struct {
	mu sync.Mutex
	m  map[string][]float32
}

func (c *mapCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[model+"|"+text]
	return v, ok, nil
}

func (c *mapCache) Put(ctx context.Context, model, text string, v []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[model+"|"+text] = v
	return nil
}

func TestContextualModel(t *testing.T) {
	p := &fakeProvider{dim: 4}
	cache := &mapCache{m: map[string][]float32{}}
	m := NewContextualModel(p, WithTemplate("The {word} said"), WithCache(cache), WithBatchSize(2))
	ctx := context.Background()

	if m.Name() != "fake:fake-embed" {
		t.Errorf("Name() = %q", m.Name())
	}
	if m.Dimension() != 0 {
		t.Error("dimension should be unknown before the first call")
	}

	vecs, err := m.Vectors(ctx, []string{"nurse", "engineer", "doctor"})
	if err != nil {
		t.Fatalf("Vectors() error = %v", err)
	}
	if len(vecs) != 3 || vecs[1][0] != float32(len("The engineer said")) {
		t.Errorf("unexpected vectors %v", vecs)
	}
	if p.calls != 2 {
		t.Errorf("provider calls = %d, want 2 batches", p.calls)
	}
	if p.seen[0] != "The nurse said" {
		t.Errorf("template not applied: %q", p.seen[0])
	}
	if m.Dimension() != 4 {
		t.Errorf("Dimension() = %d, want 4", m.Dimension())
	}

	if _, err := m.Vector(ctx, "nurse"); err != nil {
		t.Fatal(err)
	}
	if p.calls != 2 {
		t.Errorf("cached word hit the provider: calls = %d", p.calls)
	}

	if _, err := m.Vector(ctx, " "); !errors.Is(err, ErrUnknownWord) {
		t.Errorf("blank word error = %v, want ErrUnknownWord", err)
	}
}

func TestLookup(t *testing.T) {
	tbl := mustReadText(t, sampleText, LoadOptions{})
	vecs, unknown, err := Lookup(context.Background(), tbl, []string{"king", "nurse", "queen"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 2 || len(unknown) != 1 || unknown[0] != "nurse" {
		t.Errorf("Lookup() = %d vectors, unknown %v", len(vecs), unknown)
	}

	m := NewContextualModel(&fakeProvider{dim: 2})
	vecs, unknown, err = Lookup(context.Background(), m, []string{"a", "", "  ", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 2 || len(unknown) != 2 {
		t.Errorf("batch Lookup() = %d vectors, unknown %v", len(vecs), unknown)
	}
}

func TestSources(t *testing.T) {
	s := NewSources()
	var gotRef string
	s.Register("table", func(ctx context.Context, ref string) (Model, error) {
		gotRef = ref
		return NewTable(ref, 2), nil
	})
	s.Register("ollama", func(ctx context.Context, ref string) (Model, error) {
		return nil, errors.New("offline")
	})

	tests := []struct {
		source  string
		wantRef string
		wantErr bool
	}{
		{source: "table:vectors.txt", wantRef: "vectors.txt"},
		{source: "vectors.txt", wantRef: "vectors.txt"},
		{source: `C:\models\glove.txt`, wantRef: `C:\models\glove.txt`},
		{source: "unknown:thing", wantRef: "unknown:thing"},
		{source: "ollama:nomic-embed-text", wantErr: true},
		{source: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			gotRef = ""
			_, err := s.Open(context.Background(), tt.source)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && gotRef != tt.wantRef {
				t.Errorf("ref = %q, want %q", gotRef, tt.wantRef)
			}
		})
	}

	if got := s.Schemes(); len(got) != 2 || got[0] != "ollama" {
		t.Errorf("Schemes() = %v", got)
	}
}
