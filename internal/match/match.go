// Package match runs the pattern table against content windows and emits
// raw candidates. Candidates still carry the matched text; everything
// downstream of the confidence stage sees only hashes and previews.
package match

import (
	"context"
	"sort"
	"strings"

	"github.com/phiguard/phiguard/internal/extract"
	"github.com/phiguard/phiguard/internal/registry"
)

// Candidate is one raw pattern hit, pre-validation. Raw holds the matched
// value and must never be serialized or logged.
type Candidate struct {
	Path       string
	Line       int // 1-based
	Column     int // 1-based byte offset of the value within the line
	Definition *registry.PatternDefinition
	RuleName   string
	Raw        string
	LineText   string // full source line, for context analysis only
	PrevText   string // line above, context analysis only
	NextText   string // line below, context analysis only
}

// End returns the exclusive end column of the matched value.
func (c Candidate) End() int { return c.Column + len(c.Raw) }

// Overlaps reports whether two candidates on the same line share any bytes.
func (c Candidate) Overlaps(o Candidate) bool {
	if c.Path != o.Path || c.Line != o.Line {
		return false
	}
	return c.Column < o.End() && o.Column < c.End()
}

const ctxCheckEvery = 256

// Scan matches every registry definition against the window, line by line.
// Inline markers suppress hits: "phiguard:ignore" for the current line,
// "phiguard:ignore-next-line", and "phiguard:ignore-start" ...
// "phiguard:ignore-end" regions. Results are ordered by line, then column,
// then type id.
func Scan(ctx context.Context, reg *registry.Registry, win extract.ContentWindow) ([]Candidate, error) {
	var out []Candidate
	defs := reg.All()

	lineNo := 0
	ignoreRegion := false
	skipNext := false
	lines := splitLines(win.Data)
	for li, text := range lines {
		lineNo++
		if lineNo%ctxCheckEvery == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if strings.Contains(text, "phiguard:ignore-start") {
			ignoreRegion = true
			continue
		}
		if strings.Contains(text, "phiguard:ignore-end") {
			ignoreRegion = false
			continue
		}
		if ignoreRegion {
			continue
		}
		if strings.Contains(text, "phiguard:ignore-next-line") {
			skipNext = true
			continue
		}
		if skipNext {
			skipNext = false
			continue
		}
		if strings.Contains(text, "phiguard:ignore") {
			continue
		}
		var prev, next string
		if li > 0 {
			prev = lines[li-1]
		}
		if li+1 < len(lines) {
			next = lines[li+1]
		}
		for _, def := range defs {
			for _, rule := range def.Rules {
				for _, hit := range matchLine(rule, text) {
					out = append(out, Candidate{
						Path:       win.Path,
						Line:       lineNo,
						Column:     hit.col + 1,
						Definition: def,
						RuleName:   rule.Name,
						Raw:        hit.value,
						LineText:   text,
						PrevText:   prev,
						NextText:   next,
					})
				}
			}
		}
	}
	sortCandidates(out)
	return out, nil
}

type lineHit struct {
	col   int // 0-based byte offset of the value
	value string
}

// matchLine extracts every non-overlapping hit of one rule from a line.
// When the rule names a capture group "v", that group is the value;
// otherwise the whole match is.
func matchLine(rule registry.Rule, text string) []lineHit {
	idxs := rule.RX.FindAllStringSubmatchIndex(text, -1)
	if idxs == nil {
		return nil
	}
	vi := valueGroupIndex(rule)
	hits := make([]lineHit, 0, len(idxs))
	for _, loc := range idxs {
		start, end := loc[0], loc[1]
		if vi > 0 && 2*vi+1 < len(loc) && loc[2*vi] >= 0 {
			start, end = loc[2*vi], loc[2*vi+1]
		}
		if start < 0 || end <= start {
			continue
		}
		hits = append(hits, lineHit{col: start, value: text[start:end]})
	}
	return hits
}

func valueGroupIndex(rule registry.Rule) int {
	for i, name := range rule.RX.SubexpNames() {
		if name == "v" {
			return i
		}
	}
	return 0
}

func splitLines(data []byte) []string {
	s := string(data)
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func sortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool { return less(cs[i], cs[j]) })
}

func less(a, b Candidate) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	if a.Column != b.Column {
		return a.Column < b.Column
	}
	if a.Definition.TypeID != b.Definition.TypeID {
		return a.Definition.TypeID < b.Definition.TypeID
	}
	return a.RuleName < b.RuleName
}
