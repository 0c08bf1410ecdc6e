package main

import (
	"fmt"
	"strings"

	"github.com/rpgo/drawdown/internal/domain"
	"github.com/rpgo/drawdown/internal/output"
	"github.com/rpgo/drawdown/internal/store"
	"github.com/spf13/cobra"
)

func (a *app) projectCmd() *cobra.Command {
	var (
		format     string
		outputPath string
		save       bool
		scenarioID string
		strategy   string
	)

	cmd := &cobra.Command{
		Use:   "project PLAN.yaml",
		Short: "Run the deterministic year-by-year projection",
		Long: `Run the deterministic projection for a plan file and print the annual ledger.

With --save the ledger is stored under a scenario id so 'drawdown history' can
show it again later.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.loadPlan(args[0], strategy)
			if err != nil {
				return err
			}

			rows := a.engine().CalculateRetirementProjections(plan.ProjectionInput())
			report := &domain.Report{
				PlanName:    plan.Name,
				ScenarioID:  plan.ScenarioID,
				Strategy:    plan.Settings.Strategy.Type,
				Assumptions: output.GenerateAssumptions(plan.Settings),
				Projection:  rows,
			}
			a.logger.WithField("years", len(rows)).Info("projection complete")

			if save {
				report.ScenarioID = pickScenarioID(scenarioID, plan.ScenarioID)
				db, err := a.openStore()
				if err != nil {
					return err
				}
				defer db.Close()
				if err := db.SaveProjection(cmd.Context(), report.ScenarioID, report); err != nil {
					return err
				}
				a.logger.WithField("scenario_id", report.ScenarioID).Info("ledger saved")
			}

			return a.writeReport(cmd, report, format, outputPath)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "console", "output format ("+formatList()+")")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&save, "save", false, "store the ledger in the database")
	cmd.Flags().StringVar(&scenarioID, "scenario-id", "", "scenario id for --save (default: plan scenario_id or a new id)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "override the plan's withdrawal strategy")
	return cmd
}

// loadPlan reads and validates a plan, applying a strategy override.
func (a *app) loadPlan(path, strategy string) (*domain.Plan, error) {
	plan, err := a.parser.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if strategy == "" {
		return plan, nil
	}
	st, err := domain.ParseStrategyType(strategy)
	if err != nil {
		return nil, fmt.Errorf("--strategy: %w", err)
	}
	plan.Settings.Strategy.Type = st
	if err := a.parser.ValidatePlan(plan); err != nil {
		return nil, fmt.Errorf("plan validation failed: %w", err)
	}
	return plan, nil
}

func pickScenarioID(flag, fromPlan string) string {
	switch {
	case flag != "":
		return flag
	case fromPlan != "":
		return fromPlan
	default:
		return store.NewScenarioID()
	}
}

// writeReport renders to stdout, or to outputPath when one is given.
func (a *app) writeReport(cmd *cobra.Command, report *domain.Report, format, outputPath string) error {
	if outputPath == "" {
		return output.GenerateReport(report, format, cmd.OutOrStdout())
	}
	f, err := output.FormatterFor(report, format)
	if err != nil {
		return err
	}
	written, err := output.WriteFormatted(f, report, outputPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", written)
	return nil
}

func formatList() string {
	return strings.Join(output.AvailableFormatterNames(), ", ")
}
