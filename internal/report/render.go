// Package report renders findings in the supported output formats and
// applies baseline filtering and fail thresholds. Findings arrive already
// redacted; nothing here ever sees a raw value.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/phiguard/phiguard/internal/types"
)

type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
	Truncated    bool
}

// Summary is the aggregate header of a JSON report.
type Summary struct {
	Total        int            `json:"total"`
	BySeverity   map[string]int `json:"by_severity"`
	ByType       map[string]int `json:"by_type"`
	FilesScanned int            `json:"files_scanned"`
	DurationMS   int64          `json:"duration_ms"`
	Truncated    bool           `json:"truncated,omitempty"`
}

type jsonReport struct {
	Summary  Summary              `json:"summary"`
	Findings []types.Finding      `json:"findings"`
	Skipped  []types.SkippedFile  `json:"skipped_files,omitempty"`
	Warnings []types.ScanWarning  `json:"warnings,omitempty"`
}

// Summarize computes the aggregate counts for a set of findings.
func Summarize(findings []types.Finding, opts PrintOptions) Summary {
	s := Summary{
		Total:        len(findings),
		BySeverity:   map[string]int{},
		ByType:       map[string]int{},
		FilesScanned: opts.FilesScanned,
		DurationMS:   opts.Duration.Milliseconds(),
		Truncated:    opts.Truncated,
	}
	for _, f := range findings {
		s.BySeverity[string(f.Severity)]++
		s.ByType[f.TypeID]++
	}
	return s
}

// WriteJSON writes the machine-readable report.
func WriteJSON(w io.Writer, findings []types.Finding, skipped []types.SkippedFile, warnings []types.ScanWarning, opts PrintOptions) error {
	doc := jsonReport{
		Summary:  Summarize(findings, opts),
		Findings: findings,
		Skipped:  skipped,
		Warnings: warnings,
	}
	if doc.Findings == nil {
		doc.Findings = []types.Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// PrintTable writes the human-readable table plus a summary footer.
func PrintTable(w io.Writer, findings []types.Finding, opts PrintOptions) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No sensitive data found ✅")
	} else {
		tbl := tablewriter.NewWriter(w)
		tbl.Header("SEVERITY", "TYPE", "LOCATION", "RISK", "CONF", "PREVIEW")
		for _, f := range findings {
			sev := string(f.Severity)
			if !opts.NoColor {
				sev = colorSeverity(f.Severity)
			}
			_ = tbl.Append([]string{
				sev,
				f.TypeID,
				fmt.Sprintf("%s:%d:%d", f.File, f.Line, f.Column),
				strconv.Itoa(f.RiskScore),
				fmt.Sprintf("%.2f", f.Confidence),
				f.ValuePreview,
			})
		}
		_ = tbl.Render()
	}

	counts := map[types.Severity]int{}
	for _, f := range findings {
		counts[f.Severity]++
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Findings: %d (critical: %d, high: %d, medium: %d, low: %d, info: %d)\n",
		len(findings), counts[types.SevCritical], counts[types.SevHigh],
		counts[types.SevMedium], counts[types.SevLow], counts[types.SevInfo])
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
	if opts.Truncated {
		fmt.Fprintln(w, "WARNING: scan truncated before completion; results are partial")
	}
}

func colorSeverity(s types.Severity) string {
	switch s {
	case types.SevCritical:
		return "\x1b[35mcritical\x1b[0m" // magenta
	case types.SevHigh:
		return "\x1b[31mhigh\x1b[0m" // red
	case types.SevMedium:
		return "\x1b[33mmedium\x1b[0m" // yellow
	case types.SevLow:
		return "\x1b[36mlow\x1b[0m" // cyan
	default:
		return string(s)
	}
}
