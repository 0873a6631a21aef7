package pods

import (
	"database/sql"
	"fmt"
	"io"
	"sort"

	"github.com/Taycanstar/podsapp/internal/nutrition"
	"github.com/Taycanstar/podsapp/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	plateServings []string
	plateMeasures []string
	plateRemoved  []string
	plateDate     string
	plateJSON     bool
)

var plateCmd = &cobra.Command{
	Use:   "plate <food-id>...",
	Short: "Total nutrients for a plate of library foods",
	Long: `Compose a plate from library foods and print the nutrient totals against your goals.

Servings accept decimals, fractions and mixed numbers:
  pods plate yogurt oats --serving yogurt="1 1/2" --measure oats=g --serving oats=60

A food listed twice gets a second entry named id#2:
  pods plate egg egg --serving egg#2=3`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		servings, err := parseAssignments("serving", plateServings)
		if err != nil {
			return err
		}
		measures, err := parseAssignments("measure", plateMeasures)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			asJSON, err := wantJSON(sqldb, cmd.Flags().Changed("json"), plateJSON)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(sqldb)
			if err != nil {
				return err
			}
			summary, err := service.ComposePlate(sqldb, cat, service.ComposePlateInput{
				FoodIDs:  args,
				Servings: servings,
				Measures: measures,
				Removed:  plateRemoved,
				Date:     plateDate,
			})
			if err != nil {
				return err
			}
			logPlateIssues(summary)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			printPlate(cmd.OutOrStdout(), summary)
			return nil
		})
	},
}

func logPlateIssues(summary service.PlateSummary) {
	for _, c := range summary.Conflicts {
		log().Warn("nutrient unit mismatch excluded from totals",
			zap.String("nutrient", c.Key),
			zap.String("item", c.ItemID),
			zap.String("unit", c.Unit),
			zap.String("want", c.Want),
		)
	}
	ids := make([]string, 0, len(summary.Ignored))
	for id := range summary.Ignored {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		log().Debug("serving text ignored", zap.String("item", id), zap.String("text", summary.Ignored[id]))
	}
}

func printPlate(w io.Writer, summary service.PlateSummary) {
	fmt.Fprintln(w, "ID\tITEM\tSERVING\tMEASURE\tSCALE")
	for _, it := range summary.Items {
		if it.Removed {
			continue
		}
		measure := it.Measure
		if measure == "" {
			measure = "--"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Name, nutrition.FormatServing(it.Serving), measure, nutrition.FormatAmount(it.Scale))
	}
	fmt.Fprintln(w, "\nNUTRIENT\tAMOUNT\tGOAL\t%")
	for _, r := range summary.Rows {
		fmt.Fprintf(w, "%s\t%s%s\t%s\t%s\n", r.Label, nutrition.FormatAmount(r.Value), r.Unit, r.GoalText(), r.Percentage)
	}
	if len(summary.Conflicts) > 0 {
		fmt.Fprintf(w, "\n%d nutrient value(s) skipped for unit mismatch; see log output for details\n", len(summary.Conflicts))
	}
}

func init() {
	rootCmd.AddCommand(plateCmd)

	plateCmd.Flags().StringArrayVar(&plateServings, "serving", nil, "Serving for an entry as id=amount (repeatable)")
	plateCmd.Flags().StringArrayVar(&plateMeasures, "measure", nil, "Measure for an entry as id=measure id or unit (repeatable)")
	plateCmd.Flags().StringSliceVar(&plateRemoved, "remove", nil, "Entry ids to leave out of the totals")
	plateCmd.Flags().StringVar(&plateDate, "date", "", "Resolve goals at date YYYY-MM-DD (default today)")
	plateCmd.Flags().BoolVar(&plateJSON, "json", false, "Print JSON")
}
