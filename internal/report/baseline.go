package report

import (
	"encoding/json"
	"os"

	"github.com/phiguard/phiguard/internal/types"
)

// Baseline records accepted findings so CI only fails on new exposure.
// Keys are built from file, type, and value hash, so the baseline file
// itself contains no sensitive values.
type Baseline struct {
	Items map[string]bool `json:"items"`
}

func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	_ = json.Unmarshal(f, &b)
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

func SaveBaseline(path string, findings []types.Finding) error {
	b := Baseline{Items: map[string]bool{}}
	for _, f := range findings {
		b.Items[key(f)] = true
	}
	buf, _ := json.MarshalIndent(b, "", "  ")
	return os.WriteFile(path, buf, 0600)
}

// AcceptFinding adds a single finding to an existing baseline file,
// creating the file if it does not exist yet.
func AcceptFinding(path string, f types.Finding) error {
	b, err := LoadBaseline(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	b.Items[key(f)] = true
	buf, _ := json.MarshalIndent(b, "", "  ")
	return os.WriteFile(path, buf, 0600)
}

func FilterNewFindings(findings []types.Finding, base Baseline) []types.Finding {
	var out []types.Finding
	for _, f := range findings {
		if !base.Items[key(f)] {
			out = append(out, f)
		}
	}
	return out
}

func key(f types.Finding) string {
	return f.File + "|" + f.TypeID + "|" + f.ValueHash
}

// ShouldFail reports whether any finding meets the fail threshold.
func ShouldFail(findings []types.Finding, failOn types.Severity) bool {
	if failOn == "" {
		failOn = types.SevHigh
	}
	for _, f := range findings {
		if f.Severity.Rank() >= failOn.Rank() {
			return true
		}
	}
	return false
}
