package phiguard

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phiguard/phiguard/internal/update"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update phiguard to the latest release",
		RunE: func(_ *cobra.Command, _ []string) error {
			latest, newer, err := update.Check(version, false)
			if err != nil {
				return err
			}
			if !newer {
				fmt.Fprintln(os.Stdout, "phiguard is up to date.")
				return nil
			}
			fmt.Fprintf(os.Stderr, "Updating to v%s...\n", latest)
			if err := selfUpdate(); err != nil {
				return fmt.Errorf("self-update failed: %w", err)
			}
			fmt.Fprintln(os.Stdout, "Updated.")
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
