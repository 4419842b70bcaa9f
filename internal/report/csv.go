package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/phiguard/phiguard/internal/types"
)

// WriteCSV writes one row per finding for spreadsheet triage.
func WriteCSV(w io.Writer, findings []types.Finding) error {
	cw := csv.NewWriter(w)
	header := []string{
		"id", "file", "line", "column", "type_id", "classification",
		"severity", "risk_score", "confidence", "value_hash", "value_preview",
		"combination_group_id", "regulatory_tags",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, f := range findings {
		row := []string{
			f.ID,
			f.File,
			strconv.Itoa(f.Line),
			strconv.Itoa(f.Column),
			f.TypeID,
			string(f.Classification),
			string(f.Severity),
			strconv.Itoa(f.RiskScore),
			strconv.FormatFloat(f.Confidence, 'f', 2, 64),
			f.ValueHash,
			f.ValuePreview,
			f.CombinationGroupID,
			strings.Join(f.RegulatoryTags, "; "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
