// Package audit maintains the append-only JSONL log of scans. Findings in
// the log are already redacted; each record also chains to the previous
// one by hash so tampering is detectable.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/phiguard/phiguard/internal/types"
)

type ScanRecord struct {
	Timestamp      time.Time        `json:"timestamp"`
	ScanID         string           `json:"scan_id"`
	Root           string           `json:"root"`
	Repo           string           `json:"repo,omitempty"`
	Commit         string           `json:"commit,omitempty"`
	Branch         string           `json:"branch,omitempty"`
	TotalFindings  int              `json:"total_findings"`
	NewFindings    int              `json:"new_findings"`
	BaselinedCount int              `json:"baselined_count"`
	SeverityCounts map[string]int   `json:"severity_counts"`
	FilesScanned   int              `json:"files_scanned"`
	Duration       string           `json:"duration"`
	Truncated      bool             `json:"truncated,omitempty"`
	BaselineFile   string           `json:"baseline_file,omitempty"`
	TopFindings    []FindingSummary `json:"top_findings,omitempty"`
	AllFindings    []types.Finding  `json:"all_findings,omitempty"`

	// PrevHash chains this record to the one before it; the first record
	// carries "genesis".
	PrevHash string `json:"prev_hash"`
}

type FindingSummary struct {
	Path     string `json:"path"`
	TypeID   string `json:"type_id"`
	Severity string `json:"severity"`
	Line     int    `json:"line"`
}

type AuditLog struct {
	logPath string
}

func NewAuditLog(root string) *AuditLog {
	gitDir := filepath.Join(root, ".git")
	logPath := filepath.Join(root, ".phiguard_audit.jsonl")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		logPath = filepath.Join(gitDir, "phiguard_audit.jsonl")
	}
	return &AuditLog{logPath: logPath}
}

// NewAuditLogAt uses an explicit log path instead of the root-derived one.
func NewAuditLogAt(path string) *AuditLog {
	return &AuditLog{logPath: path}
}

// LoadHistory returns records newest-first.
func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record ScanRecord
		if err := decoder.Decode(&record); err != nil {
			continue
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// LogScan appends a record, filling the scan id and chain hash.
func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = "scan_" + uuid.NewString()
	}
	record.PrevHash = a.lastHash()

	// Owner-only: the log carries finding metadata.
	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	if err := encoder.Encode(record); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

// Verify walks the chain oldest-first and reports the first record whose
// prev_hash does not match its predecessor. -1 means the chain is intact.
func (a *AuditLog) Verify() (int, error) {
	records, err := a.LoadHistory()
	if err != nil {
		return -1, err
	}
	// oldest first
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	prev := "genesis"
	for i, r := range records {
		if r.PrevHash != prev {
			return i, nil
		}
		prev = recordHash(r)
	}
	return -1, nil
}

func (a *AuditLog) lastHash() string {
	records, err := a.LoadHistory()
	if err != nil || len(records) == 0 {
		return "genesis"
	}
	return recordHash(records[0])
}

func recordHash(r ScanRecord) string {
	b, _ := json.Marshal(r)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:16]
}

func CreateScanRecord(
	root string,
	allFindings []types.Finding,
	newFindings []types.Finding,
	filesScanned int,
	duration time.Duration,
	truncated bool,
	baselineFile string,
) ScanRecord {
	severityCounts := make(map[string]int)
	for _, f := range allFindings {
		severityCounts[string(f.Severity)]++
	}

	topFindings := make([]FindingSummary, 0, 10)
	for i, f := range newFindings {
		if i >= 10 {
			break
		}
		topFindings = append(topFindings, FindingSummary{
			Path:     f.File,
			TypeID:   f.TypeID,
			Severity: string(f.Severity),
			Line:     f.Line,
		})
	}

	return ScanRecord{
		Timestamp:      time.Now(),
		Root:           root,
		TotalFindings:  len(allFindings),
		NewFindings:    len(newFindings),
		BaselinedCount: len(allFindings) - len(newFindings),
		SeverityCounts: severityCounts,
		FilesScanned:   filesScanned,
		Duration:       duration.String(),
		Truncated:      truncated,
		BaselineFile:   baselineFile,
		TopFindings:    topFindings,
		AllFindings:    allFindings,
	}
}
