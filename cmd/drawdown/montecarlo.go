package main

import (
	"github.com/rpgo/drawdown/internal/calculation"
	"github.com/rpgo/drawdown/internal/domain"
	"github.com/rpgo/drawdown/internal/output"
	"github.com/spf13/cobra"
)

func (a *app) monteCarloCmd() *cobra.Command {
	var (
		runs       int
		seed       int64
		format     string
		outputPath string
		save       bool
		scenarioID string
		strategy   string
	)

	cmd := &cobra.Command{
		Use:     "montecarlo PLAN.yaml",
		Aliases: []string{"mc"},
		Short:   "Run Monte Carlo simulations over perturbed growth rates",
		Long: `Repeat the projection with growth rates drawn around the plan's assumptions
and summarize the outcomes. Runs, seed and workers default to the plan's
monte_carlo section; a zero seed draws a fresh one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.loadPlan(args[0], strategy)
			if err != nil {
				return err
			}

			cfg := calculation.MonteCarloConfig{
				NumSimulations: plan.MonteCarlo.Simulations,
				Seed:           plan.MonteCarlo.Seed,
				Workers:        plan.MonteCarlo.Workers,
			}
			if runs > 0 {
				cfg.NumSimulations = runs
			}
			if seed != 0 {
				cfg.Seed = seed
			}
			if w := a.v.GetInt("montecarlo.workers"); w > 0 {
				cfg.Workers = w
			}

			result, err := a.engine().RunMonteCarloSimulation(cmd.Context(), plan.ProjectionInput(), cfg)
			if err != nil {
				return err
			}
			report := &domain.Report{
				PlanName:    plan.Name,
				ScenarioID:  plan.ScenarioID,
				Strategy:    plan.Settings.Strategy.Type,
				Assumptions: output.GenerateAssumptions(plan.Settings),
				MonteCarlo:  result,
			}

			if save {
				report.ScenarioID = pickScenarioID(scenarioID, plan.ScenarioID)
				db, err := a.openStore()
				if err != nil {
					return err
				}
				defer db.Close()
				if err := db.SaveMonteCarloSummary(cmd.Context(), report.ScenarioID, report.PlanName, report.Strategy, result.Summary); err != nil {
					return err
				}
				a.logger.WithField("scenario_id", report.ScenarioID).Info("Monte Carlo summary saved")
			}

			return a.writeReport(cmd, report, format, outputPath)
		},
	}

	cmd.Flags().IntVarP(&runs, "runs", "n", 0, "number of simulations (default: plan monte_carlo.simulations)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default: plan monte_carlo.seed)")
	cmd.Flags().Int("workers", 0, "parallel workers (default: plan monte_carlo.workers, then 8)")
	cmd.Flags().StringVarP(&format, "format", "f", "console", "output format ("+formatList()+")")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&save, "save", false, "store the summary in the database")
	cmd.Flags().StringVar(&scenarioID, "scenario-id", "", "scenario id for --save (default: plan scenario_id or a new id)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "override the plan's withdrawal strategy")

	_ = a.v.BindPFlag("montecarlo.workers", cmd.Flags().Lookup("workers"))
	return cmd
}
