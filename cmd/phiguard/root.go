package phiguard

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagFormat          string
	flagOutput          string
	flagWorkers         int
	flagFailOn          string
	flagNoColor         bool
	flagMinConfidence   float64
	flagNoCache         bool
	flagDefaultExcludes bool
	flagNoUpdateCheck   bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the phiguard CLI.
var rootCmd = &cobra.Command{
	Use:           "phiguard",
	Short:         "Find PHI and secrets in your file tree",
	Long:          "phiguard scans file trees for protected health information and credentials, scores each finding's risk, and reports redacted findings.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the phiguard CLI. It should be called by the main package.
// Exit codes: 0 clean, 1 findings below the block threshold, 2 findings
// at or above it, 3 operational error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(3)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "table", "output format: table|json|markdown|csv|sarif")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "write report to file instead of stdout")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "worker count (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().StringVar(&flagFailOn, "fail-on", "", "exit nonzero on findings at or above: low|medium|high|critical")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().Float64Var(&flagMinConfidence, "min-confidence", 0.0, "only show findings with confidence >= value; an explicit 0 includes validator-rejected near-misses")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "disable incremental scan cache")
	rootCmd.PersistentFlags().BoolVar(&flagDefaultExcludes, "default-excludes", true, "apply built-in exclude list (node_modules, dist, images, etc.)")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable update check")
}
