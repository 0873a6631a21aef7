package pods

import (
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/Taycanstar/podsapp/internal/model"
	"github.com/Taycanstar/podsapp/internal/nutrition"
	"github.com/Taycanstar/podsapp/internal/provider/openfoodfacts"
	"github.com/Taycanstar/podsapp/internal/provider/usda"
	"github.com/Taycanstar/podsapp/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	importFormatNative = "native"
	importFormatUSDA   = "usda"
	importFormatOFF    = "off"
)

var foodCmd = &cobra.Command{
	Use:   "food",
	Short: "Manage the local food library",
}

var importFormat string

var foodImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Import foods from a JSON file",
	Long: `Import foods into the library. Formats:
  native  a JSON array of foods (or one food object) in pods' own shape
  usda    one FoodData Central food document
  off     one Open Food Facts product (API response or dump line)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := openInput(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		defer in.Close()
		items, err := decodeFoods(importFormat, in)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			ids, err := service.ImportFoods(sqldb, items)
			if err != nil {
				return err
			}
			log().Info("foods imported", zap.String("format", importFormat), zap.Int("count", len(ids)))
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		})
	},
}

func decodeFoods(format string, r io.Reader) ([]model.FoodItem, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case importFormatNative, "":
		return service.DecodeFoods(r)
	case importFormatUSDA:
		item, err := usda.DecodeFood(r)
		if err != nil {
			return nil, err
		}
		return []model.FoodItem{item}, nil
	case importFormatOFF:
		item, err := openfoodfacts.DecodeProduct(r)
		if err != nil {
			return nil, err
		}
		return []model.FoodItem{item}, nil
	default:
		return nil, fmt.Errorf("unknown import format %q (expected %s, %s or %s)", format, importFormatNative, importFormatUSDA, importFormatOFF)
	}
}

var (
	fetchAPIKey  string
	fetchBaseURL string
)

var foodFetchCmd = &cobra.Command{
	Use:   "fetch <usda|off> <id>",
	Short: "Fetch a food from FoodData Central or Open Food Facts and save it",
	Long: `Fetch a food and save it to the library.
  usda  takes an FDC id and needs an API key (--api-key or ` + envUSDAAPIKey + `)
  off   takes a product barcode`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			item model.FoodItem
			err  error
		)
		switch strings.ToLower(args[0]) {
		case importFormatUSDA:
			c := &usda.Client{APIKey: resolveUSDAAPIKey(fetchAPIKey), BaseURL: fetchBaseURL}
			item, _, err = c.FetchFood(cmd.Context(), args[1])
		case importFormatOFF:
			c := &openfoodfacts.Client{BaseURL: fetchBaseURL}
			item, _, err = c.LookupBarcode(cmd.Context(), args[1])
		default:
			return fmt.Errorf("unknown provider %q (expected %s or %s)", args[0], importFormatUSDA, importFormatOFF)
		}
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			id, err := service.SaveFood(sqldb, item)
			if err != nil {
				return err
			}
			log().Debug("food fetched", zap.String("provider", args[0]), zap.String("id", id), zap.Int("nutrients", len(item.Nutrients)))
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", item.Name, id)
			return nil
		})
	},
}

var (
	foodListQuery string
	foodListLimit int
)

var foodListCmd = &cobra.Command{
	Use:   "list",
	Short: "List library foods",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			foods, err := service.ListFoods(sqldb, service.ListFoodsFilter{Query: foodListQuery, Limit: foodListLimit})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tBASELINE\tSOURCE")
			for _, f := range foods {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", f.ID, f.Name, baselineText(f), f.Source)
			}
			return nil
		})
	},
}

var foodShowJSON bool

var foodShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a food with its measures and nutrients",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			asJSON, err := wantJSON(sqldb, cmd.Flags().Changed("json"), foodShowJSON)
			if err != nil {
				return err
			}
			f, err := service.FoodByID(sqldb, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), f)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\nBaseline: %s\nSource: %s\n", f.Name, f.ID, baselineText(f), f.Source)
			if len(f.Measures) > 0 {
				fmt.Fprintln(out, "\nMEASURE\tUNIT\tGRAMS")
				for _, m := range f.Measures {
					grams := "--"
					if m.GramWeight > 0 {
						grams = nutrition.FormatAmount(m.GramWeight)
					}
					fmt.Fprintf(out, "%s\t%s\t%s\n", m.ID, m.Unit, grams)
				}
			}
			fmt.Fprintln(out, "\nNUTRIENT\tVALUE\tUNIT")
			for _, n := range f.Nutrients {
				fmt.Fprintf(out, "%s\t%s\t%s\n", n.RawName, nutrition.FormatAmount(n.Value), n.Unit)
			}
			return nil
		})
	},
}

func baselineText(f model.FoodItem) string {
	text := nutrition.FormatServing(f.BaselineServing)
	for _, m := range f.Measures {
		if m.ID == f.BaselineMeasureID {
			return text + " " + m.Unit
		}
	}
	return text
}

var foodDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a library food",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteFood(sqldb, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted food %s\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(foodCmd)
	foodCmd.AddCommand(foodImportCmd, foodFetchCmd, foodListCmd, foodShowCmd, foodDeleteCmd)

	foodImportCmd.Flags().StringVar(&importFormat, "format", importFormatNative, "Input format: native, usda or off")
	foodFetchCmd.Flags().StringVar(&fetchAPIKey, "api-key", "", "FoodData Central API key (default "+envUSDAAPIKey+")")
	foodFetchCmd.Flags().StringVar(&fetchBaseURL, "base-url", "", "Override the provider base URL")
	foodListCmd.Flags().StringVar(&foodListQuery, "query", "", "Filter by name")
	foodListCmd.Flags().IntVar(&foodListLimit, "limit", 0, "Maximum foods to list (0 = all)")
	foodShowCmd.Flags().BoolVar(&foodShowJSON, "json", false, "Print JSON")
}
