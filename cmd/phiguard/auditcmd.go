package phiguard

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/phiguard/phiguard/internal/audit"
)

func init() {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the scan audit log",
	}

	history := &cobra.Command{
		Use:   "history [path]",
		Short: "Show past scans, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			abs, _ := filepath.Abs(root)
			records, err := audit.NewAuditLog(abs).LoadHistory()
			if err != nil {
				return err
			}
			tbl := tablewriter.NewWriter(os.Stdout)
			tbl.Header("WHEN", "SCAN ID", "FINDINGS", "NEW", "FILES", "DURATION")
			for _, r := range records {
				_ = tbl.Append([]string{
					r.Timestamp.Format("2006-01-02 15:04"),
					r.ScanID,
					fmt.Sprintf("%d", r.TotalFindings),
					fmt.Sprintf("%d", r.NewFindings),
					fmt.Sprintf("%d", r.FilesScanned),
					r.Duration,
				})
			}
			return tbl.Render()
		},
	}

	verify := &cobra.Command{
		Use:   "verify [path]",
		Short: "Check the audit log's hash chain",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			abs, _ := filepath.Abs(root)
			broken, err := audit.NewAuditLog(abs).Verify()
			if err != nil {
				return err
			}
			if broken >= 0 {
				return fmt.Errorf("audit chain broken at record %d", broken)
			}
			fmt.Fprintln(os.Stdout, "Audit chain intact.")
			return nil
		},
	}

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(history, verify)
}
