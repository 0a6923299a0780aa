package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetops/app"
	"github.com/kilianp07/fleetops/core/planning"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Weekly plan commands",
}

var (
	planWeek     string
	planDrivers  string
	planWeekdays string
	planMaterial string
	planCounters bool
)

var planGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create PLAN lines for drivers on weekdays of a week",
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := requireActor()
		if err != nil {
			return err
		}
		days, err := planning.ParseWeekdays(planWeekdays)
		if err != nil {
			return err
		}
		return withApp(func(svc *app.Service) error {
			week, err := dateArg(svc, planWeek)
			if err != nil {
				return err
			}
			res, err := svc.Planning.Generate(cmd.Context(), planning.Request{
				WeekStart:  week,
				DriverIDs:  splitList(planDrivers),
				Weekdays:   days,
				MaterialID: planMaterial,
				Creator:    who,
			})
			if err != nil {
				return err
			}
			res.Lines = nil
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

var planFreezeCmd = &cobra.Command{
	Use:   "freeze",
	Short: "Confirm every pending PLAN line of a week and lock it",
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := requireActor()
		if err != nil {
			return err
		}
		return withApp(func(svc *app.Service) error {
			week, err := dateArg(svc, planWeek)
			if err != nil {
				return err
			}
			n, err := svc.Lines.FreezeWeek(cmd.Context(), week, who)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"week_start": week.WeekStart(), "frozen": n})
		})
	},
}

var planWeekCmd = &cobra.Command{
	Use:   "week",
	Short: "List the PLAN lines of a week",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(svc *app.Service) error {
			week, err := dateArg(svc, planWeek)
			if err != nil {
				return err
			}
			if planCounters {
				c, err := svc.Planning.Counters(cmd.Context(), week)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), c)
			}
			ls, err := svc.Planning.ListWeek(cmd.Context(), week)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ls)
		})
	},
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	for _, c := range []*cobra.Command{planGenerateCmd, planFreezeCmd, planWeekCmd} {
		c.Flags().StringVar(&planWeek, "week", "", "any date of the week, YYYY-MM-DD (default today)")
	}
	planGenerateCmd.Flags().StringVar(&planDrivers, "drivers", "", "comma separated driver ids")
	planGenerateCmd.Flags().StringVar(&planWeekdays, "weekdays", "mon,tue,wed,thu,fri", "comma separated weekdays")
	planGenerateCmd.Flags().StringVar(&planMaterial, "material", "", "material id")
	_ = planGenerateCmd.MarkFlagRequired("drivers")
	_ = planGenerateCmd.MarkFlagRequired("material")
	planWeekCmd.Flags().BoolVar(&planCounters, "counters", false, "print counters instead of lines")
	planCmd.AddCommand(planGenerateCmd, planFreezeCmd, planWeekCmd)
	rootCmd.AddCommand(planCmd)
}
