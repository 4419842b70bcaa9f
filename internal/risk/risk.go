// Package risk turns a deduplicated finding into a 0-100 risk score, a
// factor breakdown, and a severity bucket.
package risk

import (
	"math"
	"strings"

	"github.com/phiguard/phiguard/internal/aggregate"
	"github.com/phiguard/phiguard/internal/registry"
	"github.com/phiguard/phiguard/internal/types"
)

// Weights for the two scoring models. Factors are 0-100; the weighted sum
// is too.
const (
	phiWSensitivity     = 0.35
	phiWExposure        = 0.25
	phiWVolume          = 0.20
	phiWIdentifiability = 0.20

	secretWSensitivity   = 0.40
	secretWExposure      = 0.30
	secretWVerifiability = 0.15
	secretWScope         = 0.15
)

// Options carries facts about the finding's provenance that the finding
// itself does not know.
type Options struct {
	// GitHistory marks a finding recovered from committed history rather
	// than the working tree. History exposure outlives the file.
	GitHistory bool
}

// Assessment is the scored outcome for one finding.
type Assessment struct {
	Score     float64
	Severity  types.Severity
	Breakdown types.RiskFactorBreakdown
}

// Score computes the risk assessment for one deduplicated finding.
func Score(d aggregate.Deduped, opts Options) Assessment {
	var factors []types.RiskFactor
	if d.Definition.Category == types.CategorySecret {
		factors = []types.RiskFactor{
			factor("sensitivity", float64(d.Definition.BaseSensitivity), secretWSensitivity),
			factor("exposure", Exposure(d.Path, opts.GitHistory), secretWExposure),
			factor("verifiability", d.Confidence*100, secretWVerifiability),
			factor("scope", scope(d), secretWScope),
		}
	} else {
		factors = []types.RiskFactor{
			factor("sensitivity", float64(d.Definition.BaseSensitivity), phiWSensitivity),
			factor("exposure", Exposure(d.Path, opts.GitHistory), phiWExposure),
			factor("volume", volume(d.FileTypeCount), phiWVolume),
			factor("identifiability", identifiability(d), phiWIdentifiability),
		}
	}
	score := 0.0
	for _, f := range factors {
		score += f.Weighted
	}
	score = clamp(score)
	sev := bucket(score)
	if floor := d.Definition.SeverityFloor; floor != "" && sev.Rank() < floor.Rank() {
		sev = floor
	}
	return Assessment{
		Score:     score,
		Severity:  sev,
		Breakdown: types.RiskFactorBreakdown{Factors: factors},
	}
}

func factor(name string, value, weight float64) types.RiskFactor {
	value = clamp(value)
	return types.RiskFactor{Name: name, Value: value, Weight: weight, Weighted: value * weight}
}

// Path segments that place a file in an exposure bucket. Checked in order;
// the first bucket hit wins, then modifiers apply one at a time with a
// clamp after each.
var (
	publicSegments     = []string{"public", "www", "static", "htdocs"}
	productionSegments = []string{"production", "prod", "live"}
	configSegments     = []string{".env", "secrets", "credentials", "config"}
	testSegments       = []string{"test", "tests", "spec", "mock", "mocks", "example", "examples", "sample", "samples", "fixture", "fixtures"}
)

// Exposure rates how reachable the file is, from its path alone.
func Exposure(path string, gitHistory bool) float64 {
	segs := pathSegments(path)
	base := lastSegment(strings.Split(strings.ToLower(strings.ReplaceAll(path, "\\", "/")), "/"))
	e := 50.0
	switch {
	case hasAny(segs, publicSegments):
		e = 100
	case hasAny(segs, productionSegments):
		e = 95
	case hasAny(segs, configSegments) || strings.HasPrefix(base, ".env") || strings.Contains(base, ".env."):
		e = 80
	case hasAny(segs, testSegments):
		e = 30
	}
	for _, mod := range []struct {
		marker string
		delta  float64
	}{
		{"encryption", -15}, {"kms", -15}, {"vault", -15},
		{"mfa", -10},
		{"audit-logging", -10},
	} {
		if hasAny(segs, []string{mod.marker}) {
			e = clamp(e + mod.delta)
		}
	}
	if gitHistory {
		e = clamp(e + 20)
	}
	return e
}

func volume(sameTypeInFile int) float64 {
	switch {
	case sameTypeInFile >= 20:
		return 90
	case sameTypeInFile >= 5:
		return 70
	default:
		return 50
	}
}

// identifiability follows the re-identification ladder: a direct identifier
// alone suffices, two or more co-located quasi identifiers nearly do, a
// lone quasi identifier does not.
func identifiability(d aggregate.Deduped) float64 {
	if d.Definition.IdentifierClass == registry.ClassDirect || d.ClusterDirect {
		return 100
	}
	if d.ClusterQuasi >= 2 {
		return 75
	}
	return 40
}

func scope(d aggregate.Deduped) float64 {
	if d.Definition.ScopeBase > 0 {
		return float64(d.Definition.ScopeBase)
	}
	return 60
}

// bucket maps a rounded score to a severity.
func bucket(score float64) types.Severity {
	r := math.Round(score)
	switch {
	case r >= 90:
		return types.SevCritical
	case r >= 70:
		return types.SevHigh
	case r >= 50:
		return types.SevMedium
	case r >= 25:
		return types.SevLow
	default:
		return types.SevInfo
	}
}

func pathSegments(path string) []string {
	segs := strings.Split(strings.ToLower(strings.ReplaceAll(path, "\\", "/")), "/")
	// Filename stems count too: "secrets.yaml" should hit the config bucket.
	if len(segs) > 0 {
		segs = append(segs, strings.Split(segs[len(segs)-1], ".")...)
	}
	return segs
}

func lastSegment(segs []string) string {
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

func hasAny(segs []string, wanted []string) bool {
	for _, s := range segs {
		for _, w := range wanted {
			if s == w {
				return true
			}
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
