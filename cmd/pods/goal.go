package pods

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/Taycanstar/podsapp/internal/nutrition"
	"github.com/Taycanstar/podsapp/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage daily calorie and macro goals",
	Long:  "Daily calorie and macro goals are versioned by effective date. They are the fallback for the Calories, Protein, Carbs and Fat rows when the nutrient goal catalog has no entry for them.",
}

var (
	goalSet         nutrition.MacroGoals
	goalDate        string
	goalCurrentDate string
	goalCurrentJSON bool
	goalHistoryJSON bool
)

var goalSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set daily goals with an effective date",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			day, err := service.SaveMacroGoals(sqldb, service.MacroGoalVersion{EffectiveDate: goalDate, Goals: goalSet})
			if err != nil {
				return err
			}
			log().Debug("macro goals saved", zap.String("effective_date", day))
			fmt.Fprintf(cmd.OutOrStdout(), "Set goal effective %s\n", day)
			return nil
		})
	},
}

var goalCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the macro goals in effect on a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			asJSON, err := wantJSON(sqldb, cmd.Flags().Changed("json"), goalCurrentJSON)
			if err != nil {
				return err
			}
			goals, err := service.MacroGoalsAt(sqldb, goalCurrentDate)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), goals)
			}
			if goals == (nutrition.MacroGoals{}) {
				fmt.Fprintln(cmd.OutOrStdout(), "No goal configured")
				return nil
			}
			printMacroGoals(cmd.OutOrStdout(), goals)
			return nil
		})
	},
}

var goalHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show every goal version, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			asJSON, err := wantJSON(sqldb, cmd.Flags().Changed("json"), goalHistoryJSON)
			if err != nil {
				return err
			}
			versions, err := service.MacroGoalHistory(sqldb)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), versions)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "EFFECTIVE\tKCAL\tPROTEIN\tCARBS\tFAT")
			for _, v := range versions {
				g := v.Goals
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%sg\t%sg\t%sg\n", v.EffectiveDate,
					nutrition.FormatAmount(g.Calories), nutrition.FormatAmount(g.Protein),
					nutrition.FormatAmount(g.Carbs), nutrition.FormatAmount(g.Fat))
			}
			return nil
		})
	},
}

func printMacroGoals(w io.Writer, g nutrition.MacroGoals) {
	fmt.Fprintf(w, "Calories\t%skcal\n", nutrition.FormatAmount(g.Calories))
	fmt.Fprintf(w, "Protein\t%sg\n", nutrition.FormatAmount(g.Protein))
	fmt.Fprintf(w, "Carbs\t%sg\n", nutrition.FormatAmount(g.Carbs))
	fmt.Fprintf(w, "Fat\t%sg\n", nutrition.FormatAmount(g.Fat))
}

func init() {
	rootCmd.AddCommand(goalCmd)
	goalCmd.AddCommand(goalSetCmd, goalCurrentCmd, goalHistoryCmd)

	goalSetCmd.Flags().Float64Var(&goalSet.Calories, "calories", 0, "Daily calorie goal")
	goalSetCmd.Flags().Float64Var(&goalSet.Protein, "protein", 0, "Daily protein goal in grams")
	goalSetCmd.Flags().Float64Var(&goalSet.Carbs, "carbs", 0, "Daily carbs goal in grams")
	goalSetCmd.Flags().Float64Var(&goalSet.Fat, "fat", 0, "Daily fat goal in grams")
	goalSetCmd.Flags().StringVar(&goalDate, "effective-date", "", "Effective date YYYY-MM-DD (default today)")
	for _, name := range []string{"calories", "protein", "carbs", "fat"} {
		_ = goalSetCmd.MarkFlagRequired(name)
	}

	goalCurrentCmd.Flags().StringVar(&goalCurrentDate, "date", "", "Resolve goal at date YYYY-MM-DD (default today)")
	goalCurrentCmd.Flags().BoolVar(&goalCurrentJSON, "json", false, "Print JSON")
	goalHistoryCmd.Flags().BoolVar(&goalHistoryJSON, "json", false, "Print JSON")
}
