package phiguard

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/phiguard/phiguard/internal/registry"
)

func init() {
	var long bool
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List the pattern types this build detects",
		RunE: func(_ *cobra.Command, _ []string) error {
			reg, err := registry.Default()
			if err != nil {
				return err
			}
			if !long {
				for _, id := range reg.TypeIDs() {
					fmt.Println(id)
				}
				return nil
			}
			tbl := tablewriter.NewWriter(os.Stdout)
			tbl.Header("TYPE", "CATEGORY", "CLASS", "SENSITIVITY", "VALIDATOR")
			for _, def := range reg.All() {
				v := def.ValidatorRef
				if v == "" {
					v = "-"
				}
				_ = tbl.Append([]string{
					def.TypeID,
					string(def.Category),
					string(def.Classification),
					fmt.Sprintf("%d", def.BaseSensitivity),
					v,
				})
			}
			return tbl.Render()
		},
	}
	cmd.Flags().BoolVarP(&long, "long", "l", false, "show category, classification, and validator columns")
	rootCmd.AddCommand(cmd)
}
