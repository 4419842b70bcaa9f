package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strp(s string) *string   { return &s }
func intp(i int) *int         { return &i }
func boolp(b bool) *bool      { return &b }
func f64p(f float64) *float64 { return &f }

func TestLoadLocal(t *testing.T) {
	root := t.TempDir()
	data := []byte("include: \"**/*.go\"\nseverity: medium\nworkers: 4\nno_cache: true\n")
	if err := os.WriteFile(filepath.Join(root, ".phiguard.yml"), data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadLocal(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Include == nil || *cfg.Include != "**/*.go" {
		t.Errorf("include: %v", cfg.Include)
	}
	if cfg.Severity == nil || *cfg.Severity != "medium" {
		t.Errorf("severity: %v", cfg.Severity)
	}
	if cfg.Workers == nil || *cfg.Workers != 4 {
		t.Errorf("workers: %v", cfg.Workers)
	}
	if cfg.NoCache == nil || !*cfg.NoCache {
		t.Errorf("no_cache: %v", cfg.NoCache)
	}
	// Unset fields stay nil so later layers can tell unset from zero.
	if cfg.MinConfidence != nil {
		t.Error("min_confidence should be unset")
	}
}

func TestLoadLocalMissing(t *testing.T) {
	if _, err := LoadLocal(t.TempDir()); err == nil {
		t.Fatal("expected error for missing local config")
	}
}

func TestMergePrecedence(t *testing.T) {
	global := FileConfig{
		Severity:      strp("low"),
		Workers:       intp(2),
		MinConfidence: f64p(0.5),
	}
	local := FileConfig{
		Severity: strp("high"),
		NoColor:  boolp(true),
	}
	out := Merge(global, local)
	assert.Equal(t, "high", *out.Severity)   // local wins
	assert.Equal(t, 2, *out.Workers)         // global survives
	assert.Equal(t, 0.5, *out.MinConfidence) // global survives
	assert.Equal(t, true, *out.NoColor)      // local-only field
	if out.Format != nil {
		t.Error("unset everywhere should stay unset")
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ", []string{"a", "b"}},
		{"a,,b,", []string{"a", "b"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitList(tt.in), "input %q", tt.in)
	}
}

func TestPolicyFromEnv(t *testing.T) {
	t.Setenv("PHIGUARD_BLOCK_ON_CRITICAL", "")
	t.Setenv("PHIGUARD_BLOCK_ON_HIGH", "")
	p := PolicyFromEnv()
	assert.True(t, p.BlockOnCritical, "critical blocking defaults on")
	assert.False(t, p.BlockOnHigh, "high blocking defaults off")

	t.Setenv("PHIGUARD_BLOCK_ON_CRITICAL", "false")
	t.Setenv("PHIGUARD_BLOCK_ON_HIGH", "true")
	p = PolicyFromEnv()
	assert.False(t, p.BlockOnCritical)
	assert.True(t, p.BlockOnHigh)

	t.Setenv("PHIGUARD_BLOCK_ON_CRITICAL", "not-a-bool")
	p = PolicyFromEnv()
	assert.True(t, p.BlockOnCritical, "garbage falls back to the default")
}
