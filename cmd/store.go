package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetops/app"
	"github.com/kilianp07/fleetops/infra/logger"
	"github.com/kilianp07/fleetops/infra/seed"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(svc *app.Service) error {
			if err := svc.Store.Migrate(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s schema up to date\n", svc.Config.Storage.Type)
			return err
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed FILE",
	Short: "Load master data (tractors, drivers, references, templates) from YAML or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := seed.Load(args[0])
		if err != nil {
			return err
		}
		return withApp(func(svc *app.Service) error {
			sum, err := seed.Apply(cmd.Context(), svc.Store, f, logger.New("seed"))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sum)
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd)
}
