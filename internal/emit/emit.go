// Package emit assembles the final Finding records: stable ids, stable
// ordering, exclusions dropped.
package emit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"github.com/phiguard/phiguard/internal/aggregate"
	"github.com/phiguard/phiguard/internal/classify"
	"github.com/phiguard/phiguard/internal/risk"
	"github.com/phiguard/phiguard/internal/types"
)

// Build turns one deduplicated, assessed finding into its wire form.
func Build(d aggregate.Deduped, a risk.Assessment, o classify.Outcome) types.Finding {
	return types.Finding{
		ID:                 FindingID(d.Path, d.Line, d.Column, d.Definition.TypeID),
		File:               d.Path,
		Line:               d.Line,
		Column:             d.Column,
		TypeID:             d.Definition.TypeID,
		Classification:     o.Classification,
		ValueHash:          d.ValueHash,
		ValuePreview:       d.ValuePreview,
		Confidence:         d.Confidence,
		RiskScore:          int(math.Round(a.Score)),
		Severity:           a.Severity,
		CombinationGroupID: d.GroupID,
		RegulatoryTags:     o.RegulatoryTags,
		Remediation:        o.Remediation,
		RiskBreakdown:      a.Breakdown,
	}
}

// Finalize drops excluded findings (confidence 0) and sorts the rest by
// file, line, column, then type id.
func Finalize(fs []types.Finding) []types.Finding {
	out := fs[:0]
	for _, f := range fs {
		if f.Confidence == 0 {
			continue
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.TypeID < b.TypeID
	})
	return out
}

// FindingID derives the stable id for a finding from its location and type.
// Re-scanning an unchanged tree yields identical ids.
func FindingID(file string, line, col int, typeID string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d|%s", file, line, col, typeID)))
	return "F-" + hex.EncodeToString(sum[:])[:16]
}
