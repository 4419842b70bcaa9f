package confidence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phiguard/phiguard/internal/analyze"
	"github.com/phiguard/phiguard/internal/match"
	"github.com/phiguard/phiguard/internal/registry"
	"github.com/phiguard/phiguard/internal/validate"
)

func ssnCandidate(t *testing.T) match.Candidate {
	t.Helper()
	reg, err := registry.Default()
	if err != nil {
		t.Fatal(err)
	}
	def, _ := reg.Lookup("ssn")
	return match.Candidate{
		Path:       "records.txt",
		Line:       3,
		Column:     6,
		Definition: def,
		RuleName:   "standard",
		Raw:        "123-45-6789",
		LineText:   "ssn: 123-45-6789",
	}
}

func TestScoreFormula(t *testing.T) {
	c := ssnCandidate(t)
	tests := []struct {
		name string
		sig  analyze.ContextSignal
		want float64
	}{
		{"base only", analyze.ContextSignal{}, 0.70},
		{"label", analyze.ContextSignal{LabelPresent: true}, 0.85},
		{"label and keywords", analyze.ContextSignal{LabelPresent: true, KeywordHits: 2}, 0.95},
		{"keyword cap", analyze.ContextSignal{KeywordHits: 10}, 0.85},
		{"ceiling", analyze.ContextSignal{LabelPresent: true, KeywordHits: 3}, 0.99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Score(c, validate.ResultAccepted, tt.sig)
			assert.InDelta(t, tt.want, s.Confidence, 1e-9)
		})
	}
}

func TestScoreExclusion(t *testing.T) {
	s := Score(ssnCandidate(t), validate.ResultAccepted, analyze.ContextSignal{ExclusionHit: true})
	if s.Confidence != 0 {
		t.Fatalf("exclusion must force confidence 0, got %f", s.Confidence)
	}
	if !s.Excluded() {
		t.Fatal("Excluded() should report true")
	}
}

func TestScoreRejectedFloor(t *testing.T) {
	s := Score(ssnCandidate(t), validate.ResultRejected, analyze.ContextSignal{LabelPresent: true})
	if s.Confidence != 0.01 {
		t.Fatalf("rejected value must floor at 0.01, got %f", s.Confidence)
	}
}

func TestScoreRedacts(t *testing.T) {
	c := ssnCandidate(t)
	s := Score(c, validate.ResultAccepted, analyze.ContextSignal{})
	if strings.Contains(s.ValueHash, c.Raw) || strings.Contains(s.ValuePreview[:4], "123") {
		t.Fatal("raw value leaked into scored output")
	}
	if s.ValuePreview != "****6789" {
		t.Errorf("preview %q", s.ValuePreview)
	}
	if s.ValueLen != len(c.Raw) {
		t.Errorf("value length %d", s.ValueLen)
	}
}

func TestHashValue(t *testing.T) {
	h := HashValue("123-45-6789")
	if !strings.HasPrefix(h, "sha256:") {
		t.Fatalf("missing prefix: %q", h)
	}
	if len(h) != len("sha256:")+16 {
		t.Fatalf("unexpected hash length: %q", h)
	}
	if h != HashValue("123-45-6789") {
		t.Error("hash should be deterministic")
	}
	if h == HashValue("123-45-6780") {
		t.Error("different values should hash differently")
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123-45-6789", "****6789"},
		{"12345678", "********"},
		{"abc", "***"},
		{"", ""},
		{"ghp_abcdefghijklmnop", "****mnop"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Mask(tt.in), "Mask(%q)", tt.in)
	}
}
