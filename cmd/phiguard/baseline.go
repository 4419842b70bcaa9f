package phiguard

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phiguard/phiguard/internal/engine"
	"github.com/phiguard/phiguard/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines",
	}

	var baselinePath string
	update := &cobra.Command{
		Use:   "update [path]",
		Short: "Accept the current scan's findings as the new baseline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			abs, _ := filepath.Abs(root)
			res, err := engine.Scan(cmd.Context(), engine.Config{
				Root:            abs,
				Workers:         flagWorkers,
				DefaultExcludes: flagDefaultExcludes,
				NoCache:         true,
			})
			if err != nil {
				return err
			}
			if err := report.SaveBaseline(baselinePath, res.Findings); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Baseline updated with %d findings.\n", len(res.Findings))
			return nil
		},
	}
	update.Flags().StringVar(&baselinePath, "baseline", "phiguard.baseline.json", "baseline file to write")

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}
