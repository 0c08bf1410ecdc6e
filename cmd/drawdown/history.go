package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rpgo/drawdown/internal/output"
	"github.com/spf13/cobra"
)

func (a *app) historyCmd() *cobra.Command {
	var (
		format string
		remove bool
	)

	cmd := &cobra.Command{
		Use:   "history [SCENARIO_ID]",
		Short: "List stored scenarios or print a stored ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()
			ctx := cmd.Context()

			if len(args) == 0 {
				if remove {
					return fmt.Errorf("--delete needs a scenario id")
				}
				scenarios, err := db.ListScenarios(ctx)
				if err != nil {
					return err
				}
				if len(scenarios) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No stored scenarios.")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tPLAN\tSTRATEGY\tYEARS\tFINAL NET WORTH\tMONTE CARLO\tUPDATED")
				for _, s := range scenarios {
					years := "-"
					if s.Years > 0 {
						years = fmt.Sprintf("%d-%d", s.FirstYear, s.LastYear)
					}
					mc := "no"
					if s.HasSummary {
						mc = "yes"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.PlanName, s.Strategy, years,
						output.FormatCurrency(s.FinalWealth), mc, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
				}
				return tw.Flush()
			}

			if remove {
				if err := db.DeleteScenario(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted scenario %s\n", args[0])
				return nil
			}

			report, err := db.LoadProjection(ctx, args[0])
			if err != nil {
				return err
			}
			return output.GenerateReport(report, format, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "console", "output format ("+formatList()+")")
	cmd.Flags().BoolVar(&remove, "delete", false, "delete the scenario instead of printing it")
	return cmd
}
