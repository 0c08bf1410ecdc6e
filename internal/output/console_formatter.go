package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/rpgo/drawdown/internal/domain"
)

// ConsoleFormatter renders the ledger as an aligned table followed by a short
// analysis and, when present, the Monte Carlo summary.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(report *domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "RETIREMENT DRAWDOWN PROJECTION")
	fmt.Fprintln(&buf, "==============================")
	if report.PlanName != "" {
		fmt.Fprintf(&buf, "Plan: %s\n", report.PlanName)
	}
	if report.ScenarioID != "" {
		fmt.Fprintf(&buf, "Scenario: %s\n", report.ScenarioID)
	}
	fmt.Fprintf(&buf, "Strategy: %s\n", report.Strategy)

	if len(report.Projection) > 0 {
		fmt.Fprintln(&buf)
		if err := writeLedgerTable(&buf, report.Projection); err != nil {
			return nil, err
		}
		writeAnalysis(&buf, AnalyzeProjection(report.Projection))
	}
	if report.MonteCarlo != nil {
		writeMonteCarloSummary(&buf, report.MonteCarlo.Summary)
	}
	if len(report.Assumptions) > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "Assumptions:")
		for _, a := range report.Assumptions {
			fmt.Fprintf(&buf, "  - %s\n", a)
		}
	}
	return buf.Bytes(), nil
}

func writeLedgerTable(buf *bytes.Buffer, rows []domain.ProjectionDetail) error {
	tw := tabwriter.NewWriter(buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Year\tAge\tIncome\tTaxes\tAfter Tax\tExpenses\tGap\tNet Worth\tEvents")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Year, r.Age,
			FormatCurrency(r.TotalIncome),
			FormatCurrency(r.TaxOwed),
			FormatCurrency(r.AfterTaxIncome),
			FormatCurrency(r.TotalExpenses),
			FormatCurrency(r.GapExcess),
			FormatCurrency(r.NetWorth),
			r.LifeEvent,
		)
	}
	return tw.Flush()
}

func writeAnalysis(buf *bytes.Buffer, a LedgerAnalysis) {
	fmt.Fprintln(buf)
	fmt.Fprintf(buf, "Years projected: %d\n", a.Years)
	if a.RetirementYear != 0 {
		fmt.Fprintf(buf, "Retirement year: %d (after-tax income %s)\n", a.RetirementYear, FormatCurrency(a.FirstRetiredIncome))
	}
	fmt.Fprintf(buf, "Peak net worth: %s in %d\n", FormatCurrency(a.PeakNetWorth), a.PeakNetWorthYear)
	fmt.Fprintf(buf, "Final net worth: %s\n", FormatCurrency(a.FinalNetWorth))
	fmt.Fprintf(buf, "Total taxes: %s\n", FormatCurrency(a.TotalTaxes))
	if a.TotalRothConversion.IsPositive() {
		fmt.Fprintf(buf, "Roth conversions: %s\n", FormatCurrency(a.TotalRothConversion))
	}
	if a.TotalCharitable.IsPositive() {
		fmt.Fprintf(buf, "Charitable distributions: %s\n", FormatCurrency(a.TotalCharitable))
	}
	fmt.Fprintf(buf, "Years with a shortfall: %d\n", a.ShortfallYears)
	if a.DepletionYear != 0 {
		fmt.Fprintf(buf, "Portfolio depleted in %d\n", a.DepletionYear)
	}
	if a.FinalDebt.IsPositive() {
		fmt.Fprintf(buf, "Outstanding debt: %s\n", FormatCurrency(a.FinalDebt))
	}
	if a.FinalLiability.IsPositive() {
		fmt.Fprintf(buf, "Unfunded shortfall: %s\n", FormatCurrency(a.FinalLiability))
	}
	if a.UnconvergedYears > 0 {
		fmt.Fprintf(buf, "Warning: taxes could not be fully funded in %d year(s)\n", a.UnconvergedYears)
	}
}

func writeMonteCarloSummary(buf *bytes.Buffer, s domain.MonteCarloSummary) {
	fmt.Fprintln(buf)
	fmt.Fprintln(buf, "MONTE CARLO SUMMARY")
	fmt.Fprintln(buf, "===================")
	fmt.Fprintf(buf, "Simulations: %d (seed %d)\n", s.NumSimulations, s.Seed)
	fmt.Fprintf(buf, "Success rate: %s\n", FormatPercentage(s.SuccessRate))
	fmt.Fprintf(buf, "Median final net worth: %s\n", FormatCurrency(s.MedianFinalNetWorth))
	fmt.Fprintf(buf, "Mean final net worth: %s\n", FormatCurrency(s.MeanFinalNetWorth))
	fmt.Fprintf(buf, "Range: %s to %s\n", FormatCurrency(s.MinFinalNetWorth), FormatCurrency(s.MaxFinalNetWorth))
	fmt.Fprintf(buf, "Percentiles: P25 %s  P75 %s  P90 %s  P95 %s\n",
		FormatCurrency(s.Percentiles.P25), FormatCurrency(s.Percentiles.P75),
		FormatCurrency(s.Percentiles.P90), FormatCurrency(s.Percentiles.P95))
	fmt.Fprintf(buf, "Mean shortfall years: %s\n", s.MeanNegativeCashFlowYears.StringFixed(1))
	fmt.Fprintf(buf, "Mean lifetime taxes: %s\n", FormatCurrency(s.MeanTotalTaxes))
}
