package report

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/yildizm/wordbias/internal/subspace"
)

func TestNew(t *testing.T) {
	a := New("glove")
	b := New("glove")

	if _, err := uuid.Parse(a.ID); err != nil {
		t.Errorf("ID %q is not a uuid: %v", a.ID, err)
	}
	if a.ID == b.ID {
		t.Error("two reports share an id")
	}
	if !a.Empty() {
		t.Error("new report should be empty")
	}
	if a.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestAddDirectBias(t *testing.T) {
	r := New("toy")
	r.Projections = []subspace.Projection{{Word: "nurse", Gender: 0.4}, {Word: "pilot", Gender: -0.2}}
	r.AddDirectBias(0)

	if r.DirectBias.C != 1 || r.DirectBias.Words != 2 {
		t.Errorf("DirectBias = %+v", r.DirectBias)
	}
	if math.Abs(r.DirectBias.Value-0.3) > 1e-6 {
		t.Errorf("DirectBias.Value = %v, want 0.3", r.DirectBias.Value)
	}
	if r.Empty() {
		t.Error("report with projections is not empty")
	}
}
