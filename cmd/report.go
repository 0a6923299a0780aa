package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetops/app"
	"github.com/kilianp07/fleetops/core/deviation"
	"github.com/kilianp07/fleetops/pkg/export"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Deviation and delay reports",
}

var (
	reportDate   string
	reportFrom   string
	reportTo     string
	reportWeekly bool
)

var reportDeviationCmd = &cobra.Command{
	Use:   "deviation",
	Short: "Compare planned lines with executed trips",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(svc *app.Service) error {
			date, err := dateArg(svc, reportDate)
			if err != nil {
				return err
			}
			a := deviation.NewAnalyzer(svc.Store)
			if reportWeekly {
				out, err := a.Weekly(cmd.Context(), date)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			out, err := a.Daily(cmd.Context(), date)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		})
	},
}

var reportDelaysCmd = &cobra.Command{
	Use:   "delays",
	Short: "Delay totals of a day, or per client over --from/--to",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(svc *app.Service) error {
			if reportFrom != "" || reportTo != "" {
				from, err := dateArg(svc, reportFrom)
				if err != nil {
					return err
				}
				to, err := dateArg(svc, reportTo)
				if err != nil {
					return err
				}
				out, err := svc.Ledger.DelaysByClient(cmd.Context(), from, to)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			date, err := dateArg(svc, reportDate)
			if err != nil {
				return err
			}
			out, err := svc.Ledger.DailyDelays(cmd.Context(), date)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		})
	},
}

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:       "export plan|trips|deviation",
	Short:     "Export a week listing as CSV, JSON or XLSX",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: export.Kinds,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		return withApp(func(svc *app.Service) error {
			date, err := dateArg(svc, reportDate)
			if err != nil {
				return err
			}
			tbl, err := export.Build(cmd.Context(), svc.Store, args[0], date)
			if err != nil {
				return err
			}
			var w io.Writer = cmd.OutOrStdout()
			if exportOut != "" {
				f, err := os.Create(exportOut)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := export.Write(w, format, tbl); err != nil {
				return fmt.Errorf("write %s: %w", format, err)
			}
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{reportDeviationCmd, reportDelaysCmd, exportCmd} {
		c.Flags().StringVar(&reportDate, "date", "", "YYYY-MM-DD (default today)")
	}
	reportDeviationCmd.Flags().BoolVar(&reportWeekly, "weekly", false, "summarize the week holding --date")
	reportDelaysCmd.Flags().StringVar(&reportFrom, "from", "", "first day of the client report")
	reportDelaysCmd.Flags().StringVar(&reportTo, "to", "", "last day of the client report")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "csv, json or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	reportCmd.AddCommand(reportDeviationCmd, reportDelaysCmd)
	rootCmd.AddCommand(reportCmd, exportCmd)
}
