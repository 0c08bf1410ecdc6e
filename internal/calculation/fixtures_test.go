package calculation

import (
	"testing"

	"github.com/rpgo/drawdown/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(v int) *int {
	return &v
}

// baseInput is a single filer born in 1960 projecting from 2025 with no
// accounts, expenses or benefits.
func baseInput() domain.ProjectionInput {
	return domain.ProjectionInput{
		BirthYear: 1960,
		Settings: domain.CalculatorSettings{
			CurrentYear:                2025,
			RetirementAge:              65,
			GrowthRateBeforeRetirement: dec("0.05"),
			GrowthRateDuringRetirement: dec("0.04"),
			InflationRate:              dec("0.03"),
			FilingStatus:               domain.FilingStatusSingle,
			Strategy:                   domain.StrategyConfig{Type: domain.StrategyGoalBased, Priority: domain.PriorityDefault},
		},
		TerminalAge: 70,
	}
}

func account(t domain.AccountType, balance string) domain.Account {
	return domain.Account{ID: string(t), Name: string(t), Owner: domain.OwnerPlanner, Type: t, Balance: dec(balance)}
}

func monthly(amount string) domain.Expense {
	return domain.Expense{Name: "living", MonthlyBefore65: dec(amount), MonthlyAfter65: dec(amount)}
}

// richInput exercises every account category, both benefits, other income and
// a long retirement.
func richInput(strategy domain.StrategyType) domain.ProjectionInput {
	in := baseInput()
	in.BirthYear = 1962
	in.TerminalAge = 95
	in.Settings.FilingStatus = domain.FilingStatusMarriedFilingJointly
	in.Settings.Strategy = domain.StrategyConfig{Type: strategy, Priority: domain.PriorityDefault}
	taxable := account(domain.AccountTypeTaxable, "250000")
	taxable.CostBasis = decPtr("150000")
	in.Accounts = []domain.Account{
		account(domain.AccountType401k, "600000"),
		account(domain.AccountTypeIRA, "200000"),
		account(domain.AccountTypeRothIRA, "150000"),
		account(domain.AccountTypeHSA, "40000"),
		taxable,
		account(domain.AccountTypeOther, "20000"),
	}
	in.Expenses = []domain.Expense{monthly("6500")}
	in.OtherIncome = []domain.OtherIncome{{Name: "pension", AnnualAmount: dec("12000"), InflationAdjusted: true}}
	in.SpouseBirthYear = intPtr(1964)
	in.SpouseLifeExpectancy = intPtr(88)
	in.IncludePlannerBenefit = true
	in.IncludeSpouseBenefit = true
	return in
}

func assertDecimalEqual(t *testing.T, expected, actual decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, expected.Equal(actual), "%s: expected %s, got %s", msg, expected, actual)
}

func assertDecimalNear(t *testing.T, expected, actual, tolerance decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, expected.Sub(actual).Abs().LessThanOrEqual(tolerance),
		"%s: expected %s, got %s (tolerance %s)", msg, expected, actual, tolerance)
}
