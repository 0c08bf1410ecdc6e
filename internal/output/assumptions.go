package output

import (
	"fmt"

	"github.com/rpgo/drawdown/internal/domain"
)

// GenerateAssumptions lists the modeling assumptions behind a projection,
// rendered under the ledger by the console and HTML formatters.
func GenerateAssumptions(s domain.CalculatorSettings) []string {
	out := []string{
		fmt.Sprintf("Growth before retirement: %s annually", FormatPercentage(s.GrowthRateBeforeRetirement)),
		fmt.Sprintf("Growth during retirement: %s annually", FormatPercentage(s.GrowthRateDuringRetirement)),
		fmt.Sprintf("Inflation: %s annually", FormatPercentage(s.InflationRate)),
		fmt.Sprintf("Retirement age: %d; Social Security from age %d", s.RetirementAge, s.BenefitStartAge()),
		fmt.Sprintf("Filing status: %s; tax brackets held at 2024 levels", s.FilingStatus),
		fmt.Sprintf("Withdrawal strategy: %s", s.Strategy.Type),
	}
	if s.Strategy.Priority != "" && s.Strategy.Type == domain.StrategyGoalBased {
		out = append(out, fmt.Sprintf("Goal priority: %s", s.Strategy.Priority))
	}
	if s.EnableBorrowing {
		out = append(out, fmt.Sprintf("Shortfalls borrowed at %s", FormatPercentage(s.DebtRate())))
	}
	return out
}
