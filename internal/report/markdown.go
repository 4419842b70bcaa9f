package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/phiguard/phiguard/internal/types"
)

// WriteMarkdown writes a compliance-report style markdown document: a
// summary, a findings table, and per-finding remediation sections for
// anything high or critical.
func WriteMarkdown(w io.Writer, findings []types.Finding, opts PrintOptions) error {
	s := Summarize(findings, opts)
	fmt.Fprintln(w, "# Sensitive Data Scan Report")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "**Findings:** %d  \n", s.Total)
	fmt.Fprintf(w, "**Files scanned:** %d  \n", s.FilesScanned)
	for _, sev := range []types.Severity{types.SevCritical, types.SevHigh, types.SevMedium, types.SevLow, types.SevInfo} {
		if n := s.BySeverity[string(sev)]; n > 0 {
			fmt.Fprintf(w, "**%s:** %d  \n", capitalize(string(sev)), n)
		}
	}
	if opts.Truncated {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "> WARNING: the scan was truncated; results are partial.")
	}
	fmt.Fprintln(w)

	if len(findings) == 0 {
		fmt.Fprintln(w, "No sensitive data found.")
		return nil
	}

	fmt.Fprintln(w, "| Severity | Type | Location | Risk | Confidence | Preview |")
	fmt.Fprintln(w, "|----------|------|----------|------|------------|---------|")
	for _, f := range findings {
		fmt.Fprintf(w, "| %s | %s | %s:%d:%d | %d | %.2f | `%s` |\n",
			f.Severity, f.TypeID, f.File, f.Line, f.Column, f.RiskScore, f.Confidence, f.ValuePreview)
	}
	fmt.Fprintln(w)

	for _, f := range findings {
		if f.Severity != types.SevCritical && f.Severity != types.SevHigh {
			continue
		}
		fmt.Fprintf(w, "## %s — %s at %s:%d\n\n", strings.ToUpper(string(f.Severity)), f.TypeID, f.File, f.Line)
		fmt.Fprintf(w, "- Classification: %s\n", f.Classification)
		fmt.Fprintf(w, "- Risk score: %d\n", f.RiskScore)
		if f.CombinationGroupID != "" {
			fmt.Fprintf(w, "- Combination group: %s\n", f.CombinationGroupID)
		}
		if len(f.RegulatoryTags) > 0 {
			fmt.Fprintf(w, "- Regulatory: %s\n", strings.Join(f.RegulatoryTags, "; "))
		}
		if len(f.Remediation) > 0 {
			fmt.Fprintln(w, "- Remediation:")
			for _, step := range f.Remediation {
				fmt.Fprintf(w, "  1. %s\n", step)
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
