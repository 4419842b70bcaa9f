// Package aggregate deduplicates overlapping hits and clusters co-occurring
// identifiers so the risk stage can reason about re-identification.
package aggregate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/phiguard/phiguard/internal/confidence"
	"github.com/phiguard/phiguard/internal/registry"
	"github.com/phiguard/phiguard/internal/types"
	"github.com/phiguard/phiguard/internal/validate"
)

// Deduped is a scored candidate surviving dedup, annotated with the cluster
// and volume facts risk scoring consumes.
type Deduped struct {
	confidence.Scored

	// GroupID ties together identifiers found within the proximity window
	// of each other in the same file. Empty when the finding stands alone.
	GroupID string
	// ClusterDirect reports a direct identifier in the same cluster.
	ClusterDirect bool
	// ClusterQuasi counts distinct quasi-identifier types in the cluster.
	ClusterQuasi int
	// FileTypeCount is how many findings of the same type the file holds.
	FileTypeCount int
}

func (d Deduped) end() int { return d.Column + d.ValueLen }

// ProximityLines is the clustering window: identifiers this many lines
// apart (or closer) in one file belong to the same cluster.
const ProximityLines = 10

// Reduce dedups overlapping spans and builds combination clusters. Input
// order does not matter; output is sorted by path, line, column, type id.
func Reduce(in []confidence.Scored) []Deduped {
	out := make([]Deduped, 0, len(in))
	for _, s := range in {
		out = append(out, Deduped{Scored: s})
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })

	out = dedupeOverlaps(out)
	countPerFileType(out)
	cluster(out)
	return out
}

// dedupeOverlaps drops the weaker of any two same-line overlapping spans
// unless both definitions opt into overlap.
func dedupeOverlaps(in []Deduped) []Deduped {
	drop := make([]bool, len(in))
	for i := 0; i < len(in); i++ {
		if drop[i] {
			continue
		}
		for j := i + 1; j < len(in); j++ {
			if drop[j] {
				continue
			}
			if in[j].Path != in[i].Path || in[j].Line != in[i].Line {
				break
			}
			if in[j].Column >= in[i].end() {
				continue
			}
			if in[i].Definition.AllowOverlap && in[j].Definition.AllowOverlap {
				continue
			}
			if in[i].Definition.TypeID == in[j].Definition.TypeID &&
				in[i].Column == in[j].Column && in[i].end() == in[j].end() {
				// Same span matched by two rules of one definition: keep one.
				drop[j] = true
				continue
			}
			if wins(in[i], in[j]) {
				drop[j] = true
			} else {
				drop[i] = true
				break
			}
		}
	}
	out := in[:0]
	for i, d := range in {
		if !drop[i] {
			out = append(out, d)
		}
	}
	return out
}

// wins decides which of two overlapping findings survives: structural
// validation first, then confidence, then the longer span, then the
// lexically smaller type id for determinism.
func wins(a, b Deduped) bool {
	av, bv := a.Validation == validate.ResultAccepted, b.Validation == validate.ResultAccepted
	if av != bv {
		return av
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.ValueLen != b.ValueLen {
		return a.ValueLen > b.ValueLen
	}
	return a.Definition.TypeID < b.Definition.TypeID
}

func countPerFileType(ds []Deduped) {
	counts := map[string]int{}
	for _, d := range ds {
		counts[d.Path+"\x00"+d.Definition.TypeID]++
	}
	for i := range ds {
		ds[i].FileTypeCount = counts[ds[i].Path+"\x00"+ds[i].Definition.TypeID]
	}
}

// cluster groups PHI-category identifiers within the proximity window of
// one another. Only accepted candidates take part: an exclusion hit or a
// validator-rejected near-miss must never raise a neighbor's
// identifiability. Only clusters spanning at least two distinct identifier
// types get a group id; a run of one repeated type is volume, not a
// combination.
func cluster(ds []Deduped) {
	idx := make([]int, 0, len(ds))
	for i, d := range ds {
		if clusterEligible(d) {
			idx = append(idx, i)
		}
	}
	start := 0
	for start < len(idx) {
		end := start + 1
		for end < len(idx) && sameCluster(ds[idx[end-1]], ds[idx[end]]) {
			end++
		}
		annotate(ds, idx[start:end])
		start = end
	}
}

func clusterEligible(d Deduped) bool {
	return !d.Excluded() && d.Validation != validate.ResultRejected
}

func sameCluster(a, b Deduped) bool {
	if a.Path != b.Path {
		return false
	}
	if a.Definition.Category != types.CategoryPHI || b.Definition.Category != types.CategoryPHI {
		return false
	}
	return b.Line-a.Line <= ProximityLines
}

func annotate(ds []Deduped, idx []int) {
	if len(idx) < 2 || ds[idx[0]].Definition.Category != types.CategoryPHI {
		return
	}
	typeIDs := map[string]bool{}
	quasi := map[string]bool{}
	direct := false
	for _, i := range idx {
		m := ds[i]
		typeIDs[m.Definition.TypeID] = true
		switch m.Definition.IdentifierClass {
		case registry.ClassDirect:
			direct = true
		case registry.ClassQuasi:
			quasi[m.Definition.TypeID] = true
		}
	}
	if len(typeIDs) < 2 {
		return
	}
	id := groupID(ds, idx)
	for _, i := range idx {
		ds[i].GroupID = id
		ds[i].ClusterDirect = direct
		ds[i].ClusterQuasi = len(quasi)
	}
}

// groupID derives a stable id from the cluster's membership, so re-scans of
// an unchanged file produce the same id regardless of findings elsewhere.
func groupID(ds []Deduped, idx []int) string {
	keys := make([]string, 0, len(idx))
	for _, i := range idx {
		m := ds[i]
		keys = append(keys, fmt.Sprintf("%s|%d|%d|%s", m.Path, m.Line, m.Column, m.Definition.TypeID))
	}
	sort.Strings(keys)
	sum := sha256.Sum256([]byte(strings.Join(keys, "\n")))
	return "G-" + hex.EncodeToString(sum[:])[:12]
}

func less(a, b Deduped) bool {
	if a.Path != b.Path {
		return a.Path < b.Path
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	if a.Column != b.Column {
		return a.Column < b.Column
	}
	return a.Definition.TypeID < b.Definition.TypeID
}
