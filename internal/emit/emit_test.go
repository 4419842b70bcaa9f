package emit

import (
	"strings"
	"testing"

	"github.com/phiguard/phiguard/internal/aggregate"
	"github.com/phiguard/phiguard/internal/classify"
	"github.com/phiguard/phiguard/internal/confidence"
	"github.com/phiguard/phiguard/internal/registry"
	"github.com/phiguard/phiguard/internal/risk"
	"github.com/phiguard/phiguard/internal/types"
)

func TestFindingID(t *testing.T) {
	id := FindingID("a.txt", 3, 6, "ssn")
	if !strings.HasPrefix(id, "F-") || len(id) != 2+16 {
		t.Fatalf("unexpected id shape: %q", id)
	}
	if id != FindingID("a.txt", 3, 6, "ssn") {
		t.Error("id should be stable across runs")
	}
	if id == FindingID("a.txt", 3, 7, "ssn") {
		t.Error("different locations should produce different ids")
	}
	if id == FindingID("a.txt", 3, 6, "mrn") {
		t.Error("different types should produce different ids")
	}
}

func TestBuild(t *testing.T) {
	reg, err := registry.Default()
	if err != nil {
		t.Fatal(err)
	}
	def, _ := reg.Lookup("ssn")
	d := aggregate.Deduped{
		Scored: confidence.Scored{
			Path:         "public/customers.txt",
			Line:         3,
			Column:       6,
			Definition:   def,
			ValueHash:    "sha256:abcdef0123456789",
			ValuePreview: "****6789",
			ValueLen:     11,
			Confidence:   0.85,
		},
		GroupID: "G-abc",
	}
	a := risk.Score(d, risk.Options{})
	o := classify.Resolve(def, a.Severity)
	f := Build(d, a, o)

	if f.TypeID != "ssn" || f.File != "public/customers.txt" || f.Line != 3 || f.Column != 6 {
		t.Fatalf("location fields: %+v", f)
	}
	if f.RiskScore != 90 {
		t.Errorf("risk score %d, want 90", f.RiskScore)
	}
	if f.Severity != types.SevCritical {
		t.Errorf("severity %s", f.Severity)
	}
	if f.ValueHash != "sha256:abcdef0123456789" || f.ValuePreview != "****6789" {
		t.Errorf("redaction fields: %q %q", f.ValueHash, f.ValuePreview)
	}
	if f.CombinationGroupID != "G-abc" {
		t.Errorf("group id %q", f.CombinationGroupID)
	}
	if len(f.RiskBreakdown.Factors) != 4 {
		t.Errorf("breakdown factors %d", len(f.RiskBreakdown.Factors))
	}
}

func TestFinalize(t *testing.T) {
	fs := []types.Finding{
		{File: "b.txt", Line: 1, Column: 1, TypeID: "ssn", Confidence: 0.8},
		{File: "a.txt", Line: 5, Column: 1, TypeID: "mrn", Confidence: 0.7},
		{File: "a.txt", Line: 5, Column: 1, TypeID: "dob", Confidence: 0},
		{File: "a.txt", Line: 2, Column: 9, TypeID: "zip", Confidence: 0.7},
	}
	out := Finalize(fs)
	if len(out) != 3 {
		t.Fatalf("expected zero-confidence finding dropped, got %d", len(out))
	}
	want := []string{"zip", "mrn", "ssn"}
	for i, f := range out {
		if f.TypeID != want[i] {
			t.Errorf("position %d: %s, want %s", i, f.TypeID, want[i])
		}
	}
}
