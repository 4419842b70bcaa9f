package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/phiguard/phiguard/internal/types"
)

// ScanResults stores the findings and metadata from the last scan. The
// findings are already redacted, so caching them on disk is safe.
type ScanResults struct {
	Findings  []types.Finding `json:"findings"`
	Timestamp time.Time       `json:"timestamp"`
	Root      string          `json:"root"`
	Count     int             `json:"count"`
}

func resultsPath(root string) string {
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "phiguard_last_scan.json")
	}
	return filepath.Join(root, ".phiguard_last_scan.json")
}

// SaveResults saves scan results for later review.
func SaveResults(root string, findings []types.Finding) error {
	p := resultsPath(root)
	results := ScanResults{
		Findings:  findings,
		Timestamp: time.Now(),
		Root:      root,
		Count:     len(findings),
	}
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0600)
}

// LoadResults loads the last scan results.
func LoadResults(root string) (ScanResults, error) {
	var results ScanResults
	p := resultsPath(root)
	f, err := os.ReadFile(p)
	if err != nil {
		return results, err
	}
	if err := json.Unmarshal(f, &results); err != nil {
		return results, err
	}
	return results, nil
}
