package pods

import (
	"database/sql"
	"fmt"

	"github.com/Taycanstar/podsapp/internal/service"
	"github.com/spf13/cobra"
)

var nutrientGoalCmd = &cobra.Command{
	Use:   "nutrient-goal",
	Short: "Manage the per-nutrient goal catalog",
	Long:  "The nutrient goal catalog holds target, max and ideal max values per nutrient slug. An import replaces the whole catalog.",
}

var nutrientGoalImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Replace the nutrient goal catalog from JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := openInput(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		defer in.Close()
		goals, err := service.DecodeNutrientGoals(in)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.ReplaceNutrientGoals(sqldb, goals); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Replaced nutrient goals (%d entries)\n", len(goals))
			return nil
		})
	},
}

var nutrientGoalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List nutrient goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			goals, err := service.ListNutrientGoals(sqldb)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "SLUG\tTARGET\tMAX\tIDEAL_MAX\tUNIT")
			for _, g := range goals {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n", g.Slug, optionalAmount(g.Target), optionalAmount(g.Max), optionalAmount(g.IdealMax), g.Unit)
			}
			return nil
		})
	},
}

func optionalAmount(v *float64) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf("%g", *v)
}

func init() {
	rootCmd.AddCommand(nutrientGoalCmd)
	nutrientGoalCmd.AddCommand(nutrientGoalImportCmd, nutrientGoalListCmd)
}
