// Package types holds the data model shared by every pipeline stage:
// severities, classifications, and the Finding produced at the end of a scan.
package types

// Severity is a qualitative risk tier derived from the numeric risk score.
type Severity string

const (
	SevCritical Severity = "critical"
	SevHigh     Severity = "high"
	SevMedium   Severity = "medium"
	SevLow      Severity = "low"
	SevInfo     Severity = "info"
)

// Rank returns a comparable ordering for severities (higher = worse).
func (s Severity) Rank() int {
	switch s {
	case SevCritical:
		return 4
	case SevHigh:
		return 3
	case SevMedium:
		return 2
	case SevLow:
		return 1
	case SevInfo:
		return 0
	}
	return -1
}

// ParseSeverity maps a user-supplied string to a Severity, defaulting to low.
func ParseSeverity(s string) Severity {
	switch s {
	case "critical":
		return SevCritical
	case "high":
		return SevHigh
	case "medium":
		return SevMedium
	case "low":
		return SevLow
	case "info", "informational":
		return SevInfo
	}
	return SevLow
}

// Classification groups identifier types by regulatory treatment.
type Classification string

const (
	ClassPHI             Classification = "PHI"
	ClassPII             Classification = "PII"
	ClassSecret          Classification = "secret"
	ClassSensitiveNonPHI Classification = "sensitive_nonPHI"
)

// Category is the coarse detector family a pattern belongs to.
type Category string

const (
	CategoryPHI    Category = "phi"
	CategorySecret Category = "secret"
)

// RiskFactor is one weighted sub-score of a Finding's risk score.
type RiskFactor struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// RiskFactorBreakdown records how a risk score was composed so reviewers can
// audit the result. The weighted contributions sum to the final score before
// rounding.
type RiskFactorBreakdown struct {
	Factors []RiskFactor `json:"factors"`
}

// Finding is the durable, redacted output unit of a scan. It never carries
// the unredacted matched value; only a one-way hash and a masked preview
// survive the confidence stage.
type Finding struct {
	ID                 string              `json:"id"`
	File               string              `json:"file"`
	Line               int                 `json:"line"`
	Column             int                 `json:"column"`
	TypeID             string              `json:"type_id"`
	Classification     Classification      `json:"classification"`
	ValueHash          string              `json:"value_hash"`
	ValuePreview       string              `json:"value_preview"`
	Confidence         float64             `json:"confidence"`
	RiskScore          int                 `json:"risk_score"`
	Severity           Severity            `json:"severity"`
	CombinationGroupID string              `json:"combination_group_id,omitempty"`
	RegulatoryTags     []string            `json:"regulatory_tags"`
	Remediation        []string            `json:"remediation"`
	RiskBreakdown      RiskFactorBreakdown `json:"risk_breakdown,omitempty"`
}

// SkippedFile records a file the extractor chose not to scan and why.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ScanWarning records a per-file failure that did not abort the scan,
// realizing the partial-failure policy: one bad file never stops the rest.
type ScanWarning struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}
