package phiguard

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phiguard/phiguard/internal/cache"
	"github.com/phiguard/phiguard/internal/engine"
	"github.com/phiguard/phiguard/internal/report"
	"github.com/phiguard/phiguard/internal/tui"
	"github.com/phiguard/phiguard/internal/types"
)

func init() {
	var cached bool
	cmd := &cobra.Command{
		Use:   "review [path]",
		Short: "Browse findings interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			abs, _ := filepath.Abs(root)

			rescan := func() ([]types.Finding, error) {
				res, err := engine.Scan(cmd.Context(), engine.Config{
					Root:            abs,
					Workers:         flagWorkers,
					DefaultExcludes: flagDefaultExcludes,
					NoCache:         true,
				})
				if err != nil {
					return nil, err
				}
				_ = cache.SaveResults(abs, res.Findings)
				return res.Findings, nil
			}

			accept := func(f types.Finding) error {
				return report.AcceptFinding(filepath.Join(abs, "phiguard.baseline.json"), f)
			}

			if cached {
				results, err := cache.LoadResults(abs)
				if err != nil {
					return fmt.Errorf("no cached results; run 'phiguard scan' first: %w", err)
				}
				return tui.Run(abs, results.Findings, rescan, accept)
			}
			findings, err := rescan()
			if err != nil {
				return err
			}
			return tui.Run(abs, findings, rescan, accept)
		},
	}
	cmd.Flags().BoolVar(&cached, "cached", false, "review the last scan's findings without re-scanning")
	rootCmd.AddCommand(cmd)
}
