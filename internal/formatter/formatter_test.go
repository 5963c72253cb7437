package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/yildizm/wordbias/internal/analogy"
	"github.com/yildizm/wordbias/internal/embedding"
	"github.com/yildizm/wordbias/internal/emoji"
	"github.com/yildizm/wordbias/internal/probe"
	"github.com/yildizm/wordbias/internal/report"
	"github.com/yildizm/wordbias/internal/subspace"
	"github.com/yildizm/wordbias/internal/wordlist"
)

func sampleReport() *report.Report {
	r := report.New("glove-mini")
	r.Analogies = []*analogy.Result{{
		A: "man", B: "king", C: "woman",
		Candidates: []embedding.Neighbor{{Word: "queen", Score: 0.91}, {Word: "princess", Score: 0.7}},
	}}
	r.Rankings = []*analogy.Ranking{{
		Query:   "nurse",
		Results: []embedding.Neighbor{{Word: "she", Score: 0.6}, {Word: "he", Score: 0.2}},
		Skipped: []string{"astronaut"},
	}}
	r.Comparisons = []*analogy.Comparison{{
		Word:    "nurse",
		Gaps:    []analogy.PairGap{{Pair: wordlist.Pair{A: "she", B: "he"}, SimA: 0.6, SimB: 0.2, Gap: 0.4}},
		MeanGap: 0.4,
	}}
	r.Subspace = &subspace.Subspace{
		Model:             "glove-mini",
		Dimension:         4,
		ExplainedVariance: []float64{0.5, 0.1},
		ExplainedRatio:    []float64{0.8, 0.2},
		Pairs:             []wordlist.Pair{{A: "she", B: "he"}, {A: "her", B: "his"}},
	}
	r.Projections = []subspace.Projection{
		{Word: "nurse", Gender: 0.42, Second: 0.1},
		{Word: "engineer", Gender: -0.37, Second: -0.05},
	}
	r.AddDirectBias(1)
	r.Neutralized = []subspace.Neutralized{{Word: "nurse", Before: 0.42, After: 0, Retained: 0.907}}
	r.Probe = &probe.Result{
		Provider:    "ollama",
		Model:       "llama3.2",
		FemaleRatio: 0.5,
		Words: []probe.WordResult{
			{Word: "nurse", Female: 4, Male: 1, FemaleRatio: 0.8},
			{Word: "pilot", Error: "connection refused", FemaleRatio: 0.5},
		},
	}
	r.Unknown = []string{"astronaut"}
	return r
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", "text", "json", "markdown", "md", "csv", "JSON"} {
		if _, err := New(name, false); err != nil {
			t.Errorf("New(%q) error = %v", name, err)
		}
	}
	if _, err := New("xml", false); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestTerminalFormatter(t *testing.T) {
	emoji.SetEmojiDisabled(true)
	defer emoji.SetEmojiDisabled(false)

	out, err := NewTerminal(false).Format(sampleReport())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	text := string(out)

	for _, want := range []string{
		"Gender Bias Report",
		"glove-mini",
		"man is to king as woman is to queen",
		"Most similar to \"nurse\"",
		"skipped: astronaut",
		"she:he",
		"PC1",
		"80.0%",
		"[F] nurse",
		"[M] engineer",
		"Direct bias (c=1) over 2 words: 0.3950",
		"+0.420 -> +0.000 (retains 0.907)",
		"connection refused",
		"Not in vocabulary: astronaut",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q\n%s", want, text)
		}
	}

	if strings.Index(text, "nurse") > strings.Index(text, "engineer") {
		t.Error("projections should keep report order")
	}
}

func TestProjectionBar(t *testing.T) {
	emoji.SetEmojiDisabled(true)
	defer emoji.SetEmojiDisabled(false)

	tests := []struct {
		score float32
		want  string
	}{
		{0, "          |          "},
		{0.3, "          |###       "},
		{-0.5, "     #####|          "},
		{2, "          |##########"},
	}
	for _, tt := range tests {
		if got := ProjectionBar(tt.score); got != tt.want {
			t.Errorf("ProjectionBar(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestJSONFormatter(t *testing.T) {
	r := sampleReport()
	out, err := NewJSON().Format(r)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["id"] != r.ID {
		t.Errorf("id = %v, want %v", decoded["id"], r.ID)
	}
	if _, ok := decoded["training"]; ok {
		t.Error("empty sections should be omitted")
	}
	sub := decoded["subspace"].(map[string]interface{})
	if _, ok := sub["components"]; ok {
		t.Error("raw components should not be serialized")
	}
}

func TestMarkdownFormatter(t *testing.T) {
	out, err := NewMarkdown().Format(sampleReport())
	if err != nil {
		t.Fatal(err)
	}
	md := string(out)

	for _, want := range []string{
		"# Gender Bias Report",
		"### man : king :: woman : queen",
		"| 1 | queen | 0.9100 |",
		"| nurse | she:he | 0.600 | 0.200 | +0.400 |",
		"| PC1 | 0.5000 | 80.0% |",
		"| engineer | -0.370 | -0.050 |",
		"| nurse | +0.420 | +0.000 | 0.907 |",
		"| pilot | | | | error: connection refused |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}

func TestCSVFormatter(t *testing.T) {
	out, err := NewCSV().Format(sampleReport())
	if err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if strings.Join(records[0], ",") != "section,word,other,value" {
		t.Errorf("header = %v", records[0])
	}

	sections := make(map[string]int)
	for _, rec := range records[1:] {
		if len(rec) != 4 {
			t.Fatalf("record has %d fields: %v", len(rec), rec)
		}
		sections[rec[0]]++
	}
	want := map[string]int{
		"analogy": 2, "similarity": 2, "pair_gap": 1, "explained_ratio": 2,
		"projection": 4, "direct_bias": 1, "neutralized": 2, "probe": 2, "unknown": 1,
	}
	for section, n := range want {
		if sections[section] != n {
			t.Errorf("section %s has %d rows, want %d", section, sections[section], n)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[int64]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -4500: "-4,500"}
	for n, want := range tests {
		if got := formatNumber(n); got != want {
			t.Errorf("formatNumber(%d) = %q, want %q", n, got, want)
		}
	}
}
