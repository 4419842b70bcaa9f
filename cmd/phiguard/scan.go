package phiguard

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/phiguard/phiguard/internal/audit"
	"github.com/phiguard/phiguard/internal/cache"
	"github.com/phiguard/phiguard/internal/config"
	"github.com/phiguard/phiguard/internal/engine"
	"github.com/phiguard/phiguard/internal/gitscan"
	"github.com/phiguard/phiguard/internal/report"
	"github.com/phiguard/phiguard/internal/types"
	"github.com/phiguard/phiguard/internal/update"
)

var (
	flagInclude     string
	flagExclude     string
	flagSeverity    string
	flagHistory     int
	flagMaxFileSize int64
	flagEnable      string
	flagDisable     string
	flagBudget      time.Duration
	flagBaseline    string
	flagNoAudit     bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a file tree for PHI and secrets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().StringVar(&flagSeverity, "severity", "low", "minimum severity to report: info|low|medium|high|critical")
	cmd.Flags().IntVar(&flagHistory, "history", 0, "also scan the last N git commits (0=off)")
	cmd.Flags().Int64Var(&flagMaxFileSize, "max-file-size", 1<<20, "skip files larger than this many bytes")
	cmd.Flags().StringVar(&flagEnable, "enable", "", "only match these pattern types (comma-separated IDs)")
	cmd.Flags().StringVar(&flagDisable, "disable", "", "skip these pattern types (comma-separated IDs)")
	cmd.Flags().DurationVar(&flagBudget, "budget", 0, "abort the scan after this duration (0=unbounded)")
	cmd.Flags().StringVar(&flagBaseline, "baseline", "phiguard.baseline.json", "baseline file for suppressing known findings")
	cmd.Flags().BoolVar(&flagNoAudit, "no-audit", false, "do not append a record to the audit log")
}

func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	// Config precedence: CLI > local > global.
	var fileCfg config.FileConfig
	if c, gerr := config.LoadGlobal(); gerr == nil {
		fileCfg = c
	}
	if c, lerr := config.LoadLocal(abs); lerr == nil {
		fileCfg = config.Merge(fileCfg, c)
	}

	minSev := types.ParseSeverity(pickString(cmd, "severity", flagSeverity, fileCfg.Severity))

	minConf := pickFloat(cmd, "min-confidence", flagMinConfidence, fileCfg.MinConfidence)
	if minConf == 0 && flagChanged(cmd, "min-confidence") {
		// An explicit zero asks for everything, near-misses included.
		minConf = -1
	}

	budget := flagBudget
	if !cmd.Flags().Changed("budget") && fileCfg.Budget != nil {
		if d, perr := time.ParseDuration(*fileCfg.Budget); perr == nil {
			budget = d
		}
	}

	cfg := engine.Config{
		Root:            abs,
		IncludeGlobs:    config.SplitList(pickString(cmd, "include", flagInclude, fileCfg.Include)),
		ExcludeGlobs:    config.SplitList(pickString(cmd, "exclude", flagExclude, fileCfg.Exclude)),
		MaxFileSize:     pickInt64(cmd, "max-file-size", flagMaxFileSize, fileCfg.MaxFileSize),
		Workers:         pickInt(cmd, "workers", flagWorkers, fileCfg.Workers),
		MinConfidence:   minConf,
		MinSeverity:     minSev,
		EnableTypes:     config.SplitList(pickString(cmd, "enable", flagEnable, fileCfg.Enable)),
		DisableTypes:    config.SplitList(pickString(cmd, "disable", flagDisable, fileCfg.Disable)),
		DefaultExcludes: flagDefaultExcludes,
		NoCache:         pickBool(cmd, "no-cache", flagNoCache, fileCfg.NoCache),
		HistoryCommits:  pickInt(cmd, "history", flagHistory, fileCfg.HistoryCommits),
		Budget:          budget,
	}

	format := pickString(cmd, "format", flagFormat, fileCfg.Format)
	humanOut := format == "table"

	if humanOut && !flagNoUpdateCheck {
		if latest, newer, _ := update.Check(version, false); newer && latest != "" {
			fmt.Fprintf(os.Stderr, "(new version available: v%s)  run 'phiguard update' to upgrade\n", latest)
		}
	}
	if humanOut {
		fmt.Fprintf(os.Stderr, "Scanning %s...\n", abs)
	}

	res, err := engine.Scan(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}

	baselinePath := pickString(cmd, "baseline", flagBaseline, fileCfg.Baseline)
	baseline, _ := report.LoadBaseline(baselinePath)
	newFindings := report.FilterNewFindings(res.Findings, baseline)
	if newFindings == nil {
		newFindings = []types.Finding{}
	}

	out, closeOut, err := openOutput(flagOutput)
	if err != nil {
		return err
	}
	defer closeOut()

	noColor := pickBool(cmd, "no-color", flagNoColor, fileCfg.NoColor)
	if flagOutput != "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		noColor = true
	}
	opts := report.PrintOptions{
		NoColor:      noColor,
		Duration:     res.Duration,
		FilesScanned: res.FilesScanned,
		Truncated:    res.Truncated,
	}
	switch format {
	case "json":
		err = report.WriteJSON(out, newFindings, res.Skipped, res.Warnings, opts)
	case "markdown":
		err = report.WriteMarkdown(out, newFindings, opts)
	case "csv":
		err = report.WriteCSV(out, newFindings)
	case "sarif":
		err = report.WriteSARIF(out, newFindings, version)
	case "table", "":
		report.PrintTable(out, newFindings, opts)
	default:
		return fmt.Errorf("unknown format %q (want table|json|markdown|csv|sarif)", format)
	}
	if err != nil {
		return fmt.Errorf("report error: %w", err)
	}

	// Make findings reviewable offline and append the audit record.
	_ = cache.SaveResults(abs, res.Findings)
	if !flagNoAudit {
		rec := audit.CreateScanRecord(abs, res.Findings, newFindings, res.FilesScanned, res.Duration, res.Truncated, baselinePath)
		rec.Repo, rec.Commit, rec.Branch = gitscan.Metadata(abs)
		if aerr := audit.NewAuditLog(abs).LogScan(rec); aerr != nil {
			fmt.Fprintln(os.Stderr, "audit warning:", aerr)
		}
	}

	// Pre-commit-hook contract: 2 when any finding meets the block
	// threshold, 1 when findings exist below it, 0 when clean.
	if shouldBlock(cmd, newFindings, fileCfg) {
		os.Exit(2)
	}
	if len(newFindings) > 0 {
		os.Exit(1)
	}
	return nil
}

// shouldBlock applies --fail-on when given, else the environment policy
// (PHIGUARD_BLOCK_ON_CRITICAL / PHIGUARD_BLOCK_ON_HIGH).
func shouldBlock(cmd *cobra.Command, findings []types.Finding, fileCfg config.FileConfig) bool {
	failOn := pickString(cmd, "fail-on", flagFailOn, fileCfg.FailOn)
	if failOn != "" {
		return report.ShouldFail(findings, types.ParseSeverity(failOn))
	}
	policy := config.PolicyFromEnv()
	if policy.BlockOnHigh && report.ShouldFail(findings, types.SevHigh) {
		return true
	}
	return policy.BlockOnCritical && report.ShouldFail(findings, types.SevCritical)
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
