// Package config loads the on-disk and environment configuration. Pointer
// fields distinguish "unset" from zero so CLI flags can override file
// values, which override the global config.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape.
type FileConfig struct {
	Include         *string  `yaml:"include"`
	Exclude         *string  `yaml:"exclude"`
	MaxFileSize     *int64   `yaml:"max_file_size"`
	Enable          *string  `yaml:"enable"`
	Disable         *string  `yaml:"disable"`
	Workers         *int     `yaml:"workers"`
	MinConfidence   *float64 `yaml:"min_confidence"`
	Severity        *string  `yaml:"severity"`
	FailOn          *string  `yaml:"fail_on"`
	Format          *string  `yaml:"format"`
	NoColor         *bool    `yaml:"no_color"`
	DefaultExcludes *bool    `yaml:"default_excludes"`
	NoCache         *bool    `yaml:"no_cache"`
	HistoryCommits  *int     `yaml:"history_commits"`
	Budget          *string  `yaml:"budget"`
	Baseline        *string  `yaml:"baseline"`
	AuditLog        *string  `yaml:"audit_log"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
// It supports .phiguard.yml/.yaml and phiguard.yml/.yaml.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".phiguard.yml", ".phiguard.yaml", "phiguard.yml", "phiguard.yaml"} {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "phiguard", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// Merge layers b over a: any field set in b wins.
func Merge(a, b FileConfig) FileConfig {
	out := a
	if b.Include != nil {
		out.Include = b.Include
	}
	if b.Exclude != nil {
		out.Exclude = b.Exclude
	}
	if b.MaxFileSize != nil {
		out.MaxFileSize = b.MaxFileSize
	}
	if b.Enable != nil {
		out.Enable = b.Enable
	}
	if b.Disable != nil {
		out.Disable = b.Disable
	}
	if b.Workers != nil {
		out.Workers = b.Workers
	}
	if b.MinConfidence != nil {
		out.MinConfidence = b.MinConfidence
	}
	if b.Severity != nil {
		out.Severity = b.Severity
	}
	if b.FailOn != nil {
		out.FailOn = b.FailOn
	}
	if b.Format != nil {
		out.Format = b.Format
	}
	if b.NoColor != nil {
		out.NoColor = b.NoColor
	}
	if b.DefaultExcludes != nil {
		out.DefaultExcludes = b.DefaultExcludes
	}
	if b.NoCache != nil {
		out.NoCache = b.NoCache
	}
	if b.HistoryCommits != nil {
		out.HistoryCommits = b.HistoryCommits
	}
	if b.Budget != nil {
		out.Budget = b.Budget
	}
	if b.Baseline != nil {
		out.Baseline = b.Baseline
	}
	if b.AuditLog != nil {
		out.AuditLog = b.AuditLog
	}
	return out
}

// Policy is the CI blocking policy taken from the environment. Env always
// loses to an explicit --fail-on flag.
type Policy struct {
	BlockOnCritical bool
	BlockOnHigh     bool
}

// PolicyFromEnv reads PHIGUARD_BLOCK_ON_CRITICAL and PHIGUARD_BLOCK_ON_HIGH.
func PolicyFromEnv() Policy {
	return Policy{
		BlockOnCritical: envBool("PHIGUARD_BLOCK_ON_CRITICAL", true),
		BlockOnHigh:     envBool("PHIGUARD_BLOCK_ON_HIGH", false),
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// SplitList parses a comma-separated config value into trimmed entries.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
