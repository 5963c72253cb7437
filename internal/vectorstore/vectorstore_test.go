package vectorstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
)

// TestCosineSimilarity tests the cosine similarity function
func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 2, 3},
			b:        []float32{1, 2, 3},
			expected: 1.0,
		},
		{
			name:     "scaled vectors",
			a:        []float32{0.3, -1.2, 4},
			b:        []float32{0.6, -2.4, 8},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0},
			b:        []float32{0, 1},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 0},
			b:        []float32{-1, 0},
			expected: -1.0,
		},
		{
			name:     "different length vectors",
			a:        []float32{1, 2},
			b:        []float32{1, 2, 3},
			expected: 0.0,
		},
		{
			name:     "zero vector",
			a:        []float32{0, 0, 0},
			b:        []float32{1, 2, 3},
			expected: 0.0,
		},
		{
			name:     "empty vectors",
			a:        []float32{},
			b:        []float32{},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CosineSimilarity(tt.a, tt.b)
			if math.Abs(float64(result-tt.expected)) > 1e-6 {
				t.Errorf("CosineSimilarity() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	vectors := [][]float32{
		{0.1, 0.2, 0.3},
		{-5, 12, 0.0001},
		{1e-3, 1e-3},
		{300, -200, 100, 50},
	}

	for i, v := range vectors {
		if got := CosineSimilarity(v, v); math.Abs(float64(got-1)) > 1e-6 {
			t.Errorf("vector %d: self similarity = %v, want 1", i, got)
		}
	}
}

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	if math.Abs(float64(v[0]-0.6)) > 1e-6 || math.Abs(float64(v[1]-0.8)) > 1e-6 {
		t.Errorf("NormalizeVector() = %v, want [0.6 0.8]", v)
	}
	if m := Magnitude(v); math.Abs(float64(m-1)) > 1e-6 {
		t.Errorf("normalized magnitude = %v, want 1", m)
	}

	zero := []float32{0, 0}
	if got := NormalizeVector(zero); got[0] != 0 || got[1] != 0 {
		t.Errorf("zero vector should be unchanged, got %v", got)
	}
}

func TestArithmetic(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{0.5, 0.5, 0.5}

	sum, err := Add(a, b)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if sum[2] != 3.5 {
		t.Errorf("Add()[2] = %v, want 3.5", sum[2])
	}

	diff, err := Subtract(a, b)
	if err != nil {
		t.Fatalf("Subtract() error = %v", err)
	}
	if diff[0] != 0.5 {
		t.Errorf("Subtract()[0] = %v, want 0.5", diff[0])
	}

	if got := Scale(a, -2); got[1] != -4 {
		t.Errorf("Scale()[1] = %v, want -4", got[1])
	}

	mean, err := Mean(a, b)
	if err != nil {
		t.Fatalf("Mean() error = %v", err)
	}
	if mean[0] != 0.75 || mean[2] != 1.75 {
		t.Errorf("Mean() = %v, want [0.75 1.25 1.75]", mean)
	}

	if _, err := Add(a, []float32{1}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Add() mismatched error = %v, want ErrDimensionMismatch", err)
	}
	if _, err := Mean(a, []float32{1}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Mean() mismatched error = %v, want ErrDimensionMismatch", err)
	}
	if _, err := Mean(); err == nil {
		t.Error("Mean() of nothing should fail")
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	words := map[string][]float32{
		"king":  {0.9, 0.1, 0.0},
		"queen": {0.85, 0.2, 0.1},
		"apple": {0.0, 0.1, 0.95},
	}
	for w, v := range words {
		if err := store.Store(w, w, v); err != nil {
			t.Fatalf("Store(%s) error = %v", w, err)
		}
	}

	if store.Size() != 3 {
		t.Errorf("Size() = %d, want 3", store.Size())
	}
	if ids := store.List(); len(ids) != 3 || ids[0] != "apple" || ids[2] != "queen" {
		t.Errorf("List() = %v, want sorted ids", ids)
	}

	results, err := store.SearchWithFilter(ctx, []float32{1, 0.1, 0}, 2, nil)
	if err != nil {
		t.Fatalf("SearchWithFilter() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("SearchWithFilter() returned %d results, want 2", len(results))
	}
	if results[0].ID != "king" || results[1].ID != "queen" {
		t.Errorf("order = [%s %s], want [king queen]", results[0].ID, results[1].ID)
	}
	if results[0].Score < results[1].Score {
		t.Error("results not sorted by descending score")
	}

	all, err := store.SearchWithFilter(ctx, []float32{1, 0, 0}, 0, nil)
	if err != nil {
		t.Fatalf("SearchWithFilter() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("topK=0 returned %d results, want 3", len(all))
	}
}

func TestMemoryStoreDimension(t *testing.T) {
	store := NewMemoryStore(WithDimension(2))

	if err := store.Store("a", "a", []float32{3, 4}); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := store.Store("a", "a", []float32{1, 0, 0}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
	if err := store.Store("b", "b", nil); err == nil {
		t.Error("expected error for empty vector")
	}
	if entry, ok := store.Get("a"); !ok || entry.Vector[1] != 4 {
		t.Errorf("Get() = %+v, %v", entry, ok)
	}
}

func TestMemoryStoreTieBreak(t *testing.T) {
	store := NewMemoryStore()
	for _, id := range []string{"c", "a", "b"} {
		if err := store.Store(id, id, []float32{1, 1}); err != nil {
			t.Fatal(err)
		}
	}

	results, err := store.SearchWithFilter(context.Background(), []float32{1, 1}, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []string{"a", "b", "c"} {
		if results[i].ID != want {
			t.Errorf("result %d = %s, want %s", i, results[i].ID, want)
		}
	}
}

func TestMemoryStoreExportImport(t *testing.T) {
	src := NewMemoryStore()
	_ = src.Store("she", "she", []float32{0, 1})

	var buf bytes.Buffer
	if err := src.ExportToWriter(&buf); err != nil {
		t.Fatalf("ExportToWriter() error = %v", err)
	}

	dst := NewMemoryStore()
	_ = dst.Store("he", "he", []float32{1, 0})
	if err := dst.ImportFromReader(&buf); err != nil {
		t.Fatalf("ImportFromReader() error = %v", err)
	}
	if dst.Size() != 2 {
		t.Errorf("Size() after import = %d, want 2", dst.Size())
	}
	if entry, ok := dst.Get("she"); !ok || entry.ID != "she" || entry.Vector[1] != 1 {
		t.Errorf("imported entry = %+v, %v", entry, ok)
	}
}

func TestMemoryStoreImportRejectsDimension(t *testing.T) {
	store := NewMemoryStore(WithDimension(2))
	_ = store.Store("he", "he", []float32{1, 0})

	err := store.ImportFromReader(strings.NewReader(`{"she": {"id": "she", "vector": [0, 1, 0]}}`))
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("ImportFromReader() error = %v, want ErrDimensionMismatch", err)
	}
	if store.Size() != 1 {
		t.Errorf("rejected snapshot was merged, Size() = %d", store.Size())
	}
	if err := store.ImportFromReader(strings.NewReader("not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestMemoryStoreWithFilter(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Store("he", "he", []float32{1, 0})
	_ = store.Store("she", "she", []float32{0.9, 0.1})
	_ = store.Store("him", "him", []float32{0.95, 0})

	results, err := store.SearchWithFilter(context.Background(), []float32{1, 0}, 5, func(e VectorEntry) bool {
		return e.ID != "he"
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].ID != "him" {
		t.Errorf("filtered results = %+v", results)
	}
}

func TestMemoryStoreSearchCancelled(t *testing.T) {
	store := NewMemoryStore(WithCancelCheckPeriod(10))
	for i := 0; i < 200; i++ {
		_ = store.Store(fmt.Sprintf("w%d", i), "", []float32{float32(i), 1})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.SearchWithFilter(ctx, []float32{1, 1}, 5, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMemoryStoreConcurrency(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := fmt.Sprintf("w%d-%d", worker, j)
				_ = store.Store(id, id, []float32{float32(worker), float32(j) + 1})
				_, _ = store.SearchWithFilter(context.Background(), []float32{1, 1}, 3, nil)
			}
		}(i)
	}
	wg.Wait()

	if store.Size() != 400 {
		t.Errorf("Size() = %d, want 400", store.Size())
	}
}
