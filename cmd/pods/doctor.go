package pods

import (
	"database/sql"
	"fmt"

	"github.com/Taycanstar/podsapp/internal/service"
	"github.com/spf13/cobra"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the food library for inconsistent rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.RunDoctor(sqldb, doctorFix)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Orphan measures: %d\n", report.OrphanMeasures)
			fmt.Fprintf(out, "Orphan nutrients: %d\n", report.OrphanNutrients)
			fmt.Fprintf(out, "Dangling baseline measures: %d\n", report.DanglingBaselineMeasure)
			fmt.Fprintf(out, "Duplicate food names: %d\n", report.DuplicateFoodNames)
			if doctorFix {
				fmt.Fprintf(out, "Fixed rows: %d\n", report.FixedRows)
				report, err = service.RunDoctor(sqldb, false)
				if err != nil {
					return err
				}
			}
			if report.Issues() > 0 {
				return fmt.Errorf("doctor found integrity issues")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Delete orphan rows and clear dangling baselines")
}
