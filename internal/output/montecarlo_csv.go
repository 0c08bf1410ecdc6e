package output

import (
	"strconv"

	"github.com/rpgo/drawdown/internal/domain"
)

// MonteCarloCSVFormatter exports one row per simulation run.
type MonteCarloCSVFormatter struct{}

func (m MonteCarloCSVFormatter) Name() string { return "montecarlo-csv" }

func (m MonteCarloCSVFormatter) Format(report *domain.Report) ([]byte, error) {
	if report.MonteCarlo == nil {
		return nil, ErrNoMonteCarlo
	}
	runs := report.MonteCarlo.Results
	if runs == nil {
		runs = []domain.MonteCarloRun{}
	}
	return marshalCSV(runs)
}

// summaryRow is one metric of the Monte Carlo summary export.
type summaryRow struct {
	Metric      string `csv:"metric"`
	Value       string `csv:"value"`
	Description string `csv:"description"`
}

// MonteCarloSummaryCSVFormatter exports the aggregate statistics as
// metric/value rows.
type MonteCarloSummaryCSVFormatter struct{}

func (m MonteCarloSummaryCSVFormatter) Name() string { return "montecarlo-summary-csv" }

func (m MonteCarloSummaryCSVFormatter) Format(report *domain.Report) ([]byte, error) {
	if report.MonteCarlo == nil {
		return nil, ErrNoMonteCarlo
	}
	s := report.MonteCarlo.Summary
	rows := []summaryRow{
		{"num_simulations", strconv.Itoa(s.NumSimulations), "Total number of simulations run"},
		{"seed", strconv.FormatInt(s.Seed, 10), "Seed that reproduces these draws"},
		{"success_rate", s.SuccessRate.StringFixed(4), "Fraction of runs ending solvent with few shortfall years"},
		{"mean_final_net_worth", s.MeanFinalNetWorth.StringFixed(2), "Mean net worth in the final year"},
		{"median_final_net_worth", s.MedianFinalNetWorth.StringFixed(2), "Median net worth in the final year"},
		{"min_final_net_worth", s.MinFinalNetWorth.StringFixed(2), "Worst final net worth"},
		{"max_final_net_worth", s.MaxFinalNetWorth.StringFixed(2), "Best final net worth"},
		{"p25_final_net_worth", s.Percentiles.P25.StringFixed(2), "25th percentile of final net worth"},
		{"p75_final_net_worth", s.Percentiles.P75.StringFixed(2), "75th percentile of final net worth"},
		{"p90_final_net_worth", s.Percentiles.P90.StringFixed(2), "90th percentile of final net worth"},
		{"p95_final_net_worth", s.Percentiles.P95.StringFixed(2), "95th percentile of final net worth"},
		{"mean_min_net_worth", s.MeanMinNetWorth.StringFixed(2), "Mean of each run's lowest net worth"},
		{"mean_negative_cash_flow_years", s.MeanNegativeCashFlowYears.StringFixed(2), "Mean number of shortfall years per run"},
		{"mean_total_taxes", s.MeanTotalTaxes.StringFixed(2), "Mean lifetime taxes per run"},
	}
	return marshalCSV(rows)
}
