package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/phiguard/phiguard/internal/types"
)

type sarif struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevCritical, types.SevHigh:
		return "error"
	case types.SevMedium:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF writes findings as SARIF 2.1.0. Messages carry the type and
// redacted hash only.
func WriteSARIF(w io.Writer, findings []types.Finding, version string) error {
	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{Name: "phiguard", Version: version}},
	}
	for _, f := range findings {
		run.Results = append(run.Results, sarifResult{
			RuleID:  f.TypeID,
			Level:   sevToLevel(f.Severity),
			Message: sarifMessage{Text: fmt.Sprintf("%s detected (risk %d, %s)", f.TypeID, f.RiskScore, f.ValueHash)},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: f.File},
					Region:           sarifRegion{StartLine: f.Line, StartColumn: f.Column},
				},
			}},
		})
	}
	doc := sarif{
		Version: "2.1.0",
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
