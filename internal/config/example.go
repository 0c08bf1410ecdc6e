package config

import (
	"fmt"
	"io"

	"github.com/rpgo/drawdown/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// CreateExamplePlan returns a married couple five years from retirement with
// every account category funded.
func (ip *InputParser) CreateExamplePlan() *domain.Plan {
	spouseLifeExpectancy := 92
	pensionStart := 2031
	taxableBasis := decimal.NewFromInt(120000)

	return &domain.Plan{
		Name:      "Example household",
		BirthYear: 1965,
		Spouse:    &domain.SpouseDetails{BirthYear: 1967, LifeExpectancy: &spouseLifeExpectancy},
		Accounts: []domain.Account{
			{ID: "401k-1", Name: "Employer 401(k)", Owner: domain.OwnerPlanner, Type: domain.AccountType401k,
				Balance: decimal.NewFromInt(650000), AnnualContribution: decimal.NewFromInt(23000)},
			{ID: "ira-1", Name: "Rollover IRA", Owner: domain.OwnerSpouse, Type: domain.AccountTypeIRA,
				Balance: decimal.NewFromInt(180000)},
			{ID: "roth-1", Name: "Roth IRA", Owner: domain.OwnerPlanner, Type: domain.AccountTypeRothIRA,
				Balance: decimal.NewFromInt(95000), AnnualContribution: decimal.NewFromInt(7000)},
			{ID: "hsa-1", Name: "HSA", Owner: domain.OwnerPlanner, Type: domain.AccountTypeHSA,
				Balance: decimal.NewFromInt(30000), AnnualContribution: decimal.NewFromInt(4000)},
			{ID: "brokerage-1", Name: "Joint brokerage", Owner: domain.OwnerPlanner, Type: domain.AccountTypeTaxable,
				Balance: decimal.NewFromInt(210000), CostBasis: &taxableBasis},
		},
		Expenses: []domain.Expense{
			{Name: "Housing", MonthlyBefore65: decimal.NewFromInt(2400), MonthlyAfter65: decimal.NewFromInt(2100)},
			{Name: "Living", MonthlyBefore65: decimal.NewFromInt(3200), MonthlyAfter65: decimal.NewFromInt(3000)},
			{Name: "Healthcare", MonthlyBefore65: decimal.NewFromInt(1400), MonthlyAfter65: decimal.NewFromInt(900)},
		},
		OtherIncome: []domain.OtherIncome{
			{Name: "Pension", AnnualAmount: decimal.NewFromInt(18000), StartYear: &pensionStart, InflationAdjusted: false},
		},
		Settings: domain.CalculatorSettings{
			CurrentYear:                2025,
			RetirementAge:              65,
			GrowthRateBeforeRetirement: decimal.NewFromFloat(0.06),
			GrowthRateDuringRetirement: decimal.NewFromFloat(0.045),
			InflationRate:              decimal.NewFromFloat(0.025),
			FilingStatus:               domain.FilingStatusMarriedFilingJointly,
			SocialSecurityStartAge:     67,
			Strategy: domain.StrategyConfig{
				Type:              domain.StrategyGoalBased,
				Priority:          domain.PrioritySequenceRisk,
				SecondaryPriority: domain.PriorityLegacy,
			},
		},
		TerminalAge: 95,
		MonteCarlo:  domain.MonteCarloSettings{Simulations: 1000, Seed: 20250101},
	}
}

// WriteExample writes the example plan as YAML.
func (ip *InputParser) WriteExample(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(ip.CreateExamplePlan()); err != nil {
		return fmt.Errorf("failed to encode example plan: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush example plan: %w", err)
	}
	return nil
}
