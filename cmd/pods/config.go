package pods

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/Taycanstar/podsapp/internal/service"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage pods local configuration",
}

var (
	cfgCatalogPath  string
	cfgOutputFormat string
)

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set configuration values",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			updates := 0
			if cmd.Flags().Changed("catalog-path") {
				if err := service.SetConfig(sqldb, service.ConfigCatalogPath, cfgCatalogPath); err != nil {
					return err
				}
				updates++
			}
			if cmd.Flags().Changed("output") {
				if err := service.SetConfig(sqldb, service.ConfigOutputFormat, cfgOutputFormat); err != nil {
					return err
				}
				updates++
			}
			if updates == 0 {
				return fmt.Errorf("set at least one flag")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d config value(s)\n", updates)
			return nil
		})
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			cfg, err := service.ListConfig(sqldb)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(cfg))
			for k := range cfg {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(cmd.OutOrStdout(), "KEY\tVALUE")
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", k, cfg[k])
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configGetCmd)

	configSetCmd.Flags().StringVar(&cfgCatalogPath, "catalog-path", "", "YAML nutrient catalog used instead of the built-in one (empty resets)")
	configSetCmd.Flags().StringVar(&cfgOutputFormat, "output", "", "Default output format: text or json")
}
