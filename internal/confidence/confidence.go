// Package confidence scores candidates and redacts them. This is the only
// stage that reads the raw matched value; everything it exports carries a
// hash and a masked preview instead.
package confidence

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/phiguard/phiguard/internal/analyze"
	"github.com/phiguard/phiguard/internal/match"
	"github.com/phiguard/phiguard/internal/registry"
	"github.com/phiguard/phiguard/internal/validate"
)

// Scored is a candidate after confidence scoring and redaction. It no
// longer contains the matched value.
type Scored struct {
	Path       string
	Line       int
	Column     int
	Definition *registry.PatternDefinition
	RuleName   string

	ValueHash    string // "sha256:" + first 16 hex chars
	ValuePreview string // "****1234" style mask
	ValueLen     int

	Confidence float64
	Validation validate.Result
	Context    analyze.ContextSignal
}

// Excluded reports whether the candidate hit an exclusion and must be
// dropped before emission.
func (s Scored) Excluded() bool { return s.Confidence == 0 }

const (
	labelBonus      = 0.15
	keywordBonus    = 0.05
	maxKeywordBonus = 3
	ceiling         = 0.99
	rejectedFloor   = 0.01
)

// Score computes the confidence for one candidate and redacts it.
//
//	confidence = clamp(base + 0.15*label + 0.05*min(keywords,3), 0, 0.99)
//
// An exclusion hit forces 0.0; a structurally rejected value is floored at
// 0.01 so reviewers can opt in to near-misses. Default reporting filters
// sit above the floor, so rejected values stay out of normal output.
func Score(c match.Candidate, v validate.Result, sig analyze.ContextSignal) Scored {
	s := Scored{
		Path:         c.Path,
		Line:         c.Line,
		Column:       c.Column,
		Definition:   c.Definition,
		RuleName:     c.RuleName,
		ValueHash:    HashValue(c.Raw),
		ValuePreview: Mask(c.Raw),
		ValueLen:     len(c.Raw),
		Validation:   v,
		Context:      sig,
	}
	if sig.ExclusionHit {
		s.Confidence = 0
		return s
	}
	conf := c.Definition.BaseConfidence
	if sig.LabelPresent {
		conf += labelBonus
	}
	kw := sig.KeywordHits
	if kw > maxKeywordBonus {
		kw = maxKeywordBonus
	}
	conf += keywordBonus * float64(kw)
	if conf > ceiling {
		conf = ceiling
	}
	if conf < 0 {
		conf = 0
	}
	if v == validate.ResultRejected {
		conf = rejectedFloor
	}
	s.Confidence = conf
	return s
}

// HashValue produces the stable redacted identity of a matched value.
func HashValue(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return "sha256:" + hex.EncodeToString(sum[:])[:16]
}

// Mask keeps at most the last 4 characters of the value. Values of 8 chars
// or fewer are fully masked.
func Mask(raw string) string {
	if len(raw) <= 8 {
		return strings.Repeat("*", len(raw))
	}
	return "****" + raw[len(raw)-4:]
}
