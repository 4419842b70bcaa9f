package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/phiguard/phiguard/internal/types"
)

func sampleFindings() []types.Finding {
	return []types.Finding{
		{
			ID: "F-1111111111111111", File: "public/customers.txt", Line: 3, Column: 6,
			TypeID: "ssn", Classification: types.ClassPHI,
			ValueHash: "sha256:aaaaaaaaaaaaaaaa", ValuePreview: "****6789",
			Confidence: 0.85, RiskScore: 90, Severity: types.SevCritical,
			RegulatoryTags: []string{"HIPAA Privacy Rule 164.514(b)(2)"},
			Remediation:    []string{"URGENT: SSN requires immediate remediation"},
		},
		{
			ID: "F-2222222222222222", File: "src/db.go", Line: 12, Column: 1,
			TypeID: "email", Classification: types.ClassPII,
			ValueHash: "sha256:bbbbbbbbbbbbbbbb", ValuePreview: "****.com",
			Confidence: 0.7, RiskScore: 48, Severity: types.SevLow,
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleFindings(), PrintOptions{FilesScanned: 10, Duration: 2 * time.Second})
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.BySeverity["critical"])
	assert.Equal(t, 1, s.BySeverity["low"])
	assert.Equal(t, 1, s.ByType["ssn"])
	assert.Equal(t, 10, s.FilesScanned)
	assert.Equal(t, int64(2000), s.DurationMS)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	err := WriteJSON(&buf, sampleFindings(), nil, nil, PrintOptions{FilesScanned: 10})
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Summary  Summary         `json:"summary"`
		Findings []types.Finding `json:"findings"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if doc.Summary.Total != 2 || len(doc.Findings) != 2 {
		t.Fatalf("summary %+v findings %d", doc.Summary, len(doc.Findings))
	}
	if doc.Findings[0].ValueHash == "" || doc.Findings[0].ValuePreview == "" {
		t.Error("redacted fields missing from wire format")
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil, nil, nil, PrintOptions{}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), `"findings": null`) {
		t.Error("empty findings should marshal as [] not null")
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, sampleFindings(), PrintOptions{NoColor: true, Duration: time.Second, FilesScanned: 3})
	out := buf.String()
	for _, want := range []string{"ssn", "public/customers.txt:3:6", "****6789", "Findings: 2", "critical: 1", "Files scanned: 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q", want)
		}
	}

	buf.Reset()
	PrintTable(&buf, nil, PrintOptions{NoColor: true})
	if !strings.Contains(buf.String(), "No sensitive data found") {
		t.Error("empty result banner missing")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleFindings()); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "ssn", rows[1][4])
	assert.Equal(t, "90", rows[1][7])
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, sampleFindings(), PrintOptions{FilesScanned: 10}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"# Sensitive Data Scan Report",
		"| critical | ssn |",
		"## CRITICAL — ssn at public/customers.txt:3",
		"URGENT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	// Low findings get a table row but no remediation section.
	if strings.Contains(out, "## LOW") {
		t.Error("low findings should not get detail sections")
	}
}

func TestWriteSARIF(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, sampleFindings(), "0.1.0"); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name string `json:"name"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID  string `json:"ruleId"`
				Level   string `json:"level"`
				Message struct {
					Text string `json:"text"`
				} `json:"message"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid SARIF JSON: %v", err)
	}
	if doc.Version != "2.1.0" || len(doc.Runs) != 1 {
		t.Fatalf("doc shape: version %s, %d runs", doc.Version, len(doc.Runs))
	}
	results := doc.Runs[0].Results
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	assert.Equal(t, "ssn", results[0].RuleID)
	assert.Equal(t, "error", results[0].Level)
	assert.Equal(t, "note", results[1].Level)
	if !strings.Contains(results[0].Message.Text, "sha256:") {
		t.Error("message should reference the redacted hash")
	}
}

func TestBaselineRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phiguard.baseline.json")
	findings := sampleFindings()
	if err := SaveBaseline(path, findings[:1]); err != nil {
		t.Fatal(err)
	}
	base, err := LoadBaseline(path)
	if err != nil {
		t.Fatal(err)
	}
	fresh := FilterNewFindings(findings, base)
	if len(fresh) != 1 || fresh[0].TypeID != "email" {
		t.Fatalf("expected only the unbaselined finding, got %+v", fresh)
	}
}

func TestAcceptFindingGrowsBaseline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phiguard.baseline.json")
	findings := sampleFindings()

	// First accept creates the file.
	if err := AcceptFinding(path, findings[0]); err != nil {
		t.Fatal(err)
	}
	base, err := LoadBaseline(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := FilterNewFindings(findings, base); len(got) != 1 {
		t.Fatalf("expected one unaccepted finding, got %d", len(got))
	}

	// Second accept extends, not replaces.
	if err := AcceptFinding(path, findings[1]); err != nil {
		t.Fatal(err)
	}
	base, err = LoadBaseline(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := FilterNewFindings(findings, base); len(got) != 0 {
		t.Fatalf("expected all findings accepted, got %d new", len(got))
	}
}

func TestBaselineHoldsNoRawValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phiguard.baseline.json")
	if err := SaveBaseline(path, sampleFindings()); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	b := string(raw)
	// Keys are file|type|hash triples; previews and hashes are the only
	// value-derived content.
	if strings.Contains(b, "123-45-6789") {
		t.Fatal("baseline must not contain raw values")
	}
	if !strings.Contains(b, "sha256:") {
		t.Error("baseline keys should carry the value hash")
	}
}

func TestShouldFail(t *testing.T) {
	findings := sampleFindings()
	assert.True(t, ShouldFail(findings, types.SevCritical))
	assert.True(t, ShouldFail(findings, ""), "default threshold is high")
	assert.True(t, ShouldFail(findings, types.SevLow))
	assert.False(t, ShouldFail(findings[1:], types.SevHigh))
	assert.False(t, ShouldFail(nil, types.SevLow))
}
