package pods

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the nutrient catalog",
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show catalog rows in display order",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			cat, err := loadCatalog(sqldb)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "LABEL\tGOAL\tUNIT\tSOURCE\tNAMES")
			for _, d := range cat.Rows() {
				source := d.Source.Kind.String()
				switch {
				case d.Source.Macro != "":
					source += ":" + string(d.Source.Macro)
				case d.Source.Computed != "":
					source += ":" + string(d.Source.Computed)
				case d.Source.Aggregation != "":
					source += ":" + string(d.Source.Aggregation)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n", d.Label, d.GoalSlug, d.DefaultUnit, source, strings.Join(d.Source.Names, ", "))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogShowCmd)
}
