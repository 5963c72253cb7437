package plot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yildizm/wordbias/internal/subspace"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func sampleProjections() []subspace.Projection {
	return []subspace.Projection{
		{Word: "nurse", Gender: 0.41, Second: 0.12},
		{Word: "engineer", Gender: -0.33, Second: -0.08},
		{Word: "librarian", Gender: 0.02, Second: 0.3},
	}
}

func TestScatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scatter.png")
	if err := Scatter(path, sampleProjections(), Options{}); err != nil {
		t.Fatalf("Scatter() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Error("output is not a PNG")
	}
}

func TestBar_SVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.svg")
	if err := Bar(path, sampleProjections(), DefaultOptions()); err != nil {
		t.Fatalf("Bar() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("<svg")) || !bytes.Contains(data, []byte("engineer")) {
		t.Error("SVG output missing expected content")
	}
}

func TestPlotErrors(t *testing.T) {
	dir := t.TempDir()

	if err := Scatter(filepath.Join(dir, "x.png"), nil, Options{}); !errors.Is(err, ErrNoPoints) {
		t.Errorf("Scatter(nil) error = %v", err)
	}
	if err := Bar(filepath.Join(dir, "x.txt"), sampleProjections(), Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if err := CheckPath("plot.PDF"); err != nil {
		t.Errorf("CheckPath(plot.PDF) error = %v", err)
	}
}
