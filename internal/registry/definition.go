package registry

import (
	"fmt"
	"regexp"

	"github.com/phiguard/phiguard/internal/types"
)

// IdentifierClass describes how strongly a matched value identifies a person.
// Direct identifiers pin down an individual on their own; quasi identifiers
// only do so in combination.
type IdentifierClass string

const (
	ClassDirect IdentifierClass = "direct"
	ClassQuasi  IdentifierClass = "quasi"
	ClassNone   IdentifierClass = ""
)

// Rule is one compiled matching expression of a definition. Definitions may
// carry several rule variants (labeled, spaced, ISO, ...) for one type.
type Rule struct {
	Name string
	RX   *regexp.Regexp
}

// PatternDefinition is an immutable detector definition loaded once at
// startup and never mutated during a scan.
type PatternDefinition struct {
	TypeID          string
	Name            string
	Category        types.Category
	Classification  types.Classification
	IdentifierClass IdentifierClass
	Rules           []Rule
	ValidatorRef    string
	BaseSensitivity int
	BaseConfidence  float64
	SeverityFloor   types.Severity
	// AllowOverlap lets this definition coexist with other definitions that
	// fired on the same span; the deduplicator otherwise keeps only the
	// highest-confidence one.
	AllowOverlap bool
	// ScopeBase overrides the default blast-radius base for secret types.
	ScopeBase int
	// Labels are field names that, when found immediately before a match,
	// raise confidence (e.g. "ssn:" or "api_key=").
	Labels []string

	exclusions []*regexp.Regexp
}

// Excluded reports whether the raw matched value is a documented placeholder
// or known-invalid value for this type. Exclusions always win over context
// boosts downstream.
func (d *PatternDefinition) Excluded(raw string) bool {
	for _, rx := range d.exclusions {
		if rx.MatchString(raw) {
			return true
		}
	}
	return false
}

// PatternDefinitionError reports a malformed registry entry. It is fatal at
// startup only; a loaded registry can never produce one mid-scan.
type PatternDefinitionError struct {
	TypeID string
	Reason string
	Err    error
}

func (e *PatternDefinitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pattern definition %q: %s: %v", e.TypeID, e.Reason, e.Err)
	}
	return fmt.Sprintf("pattern definition %q: %s", e.TypeID, e.Reason)
}

func (e *PatternDefinitionError) Unwrap() error { return e.Err }
