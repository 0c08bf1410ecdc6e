package calculation

import (
	"github.com/rpgo/drawdown/internal/domain"
	"github.com/rpgo/drawdown/pkg/money"
	"github.com/shopspring/decimal"
)

// projection owns the running state of one deterministic simulation: category
// balances, the Taxable cost basis, the debt ledger and strategy memory.
type projection struct {
	in       domain.ProjectionInput
	strategy WithdrawalStrategy
	logger   Logger

	balances  domain.AccountBalances
	basis     domain.TaxableAccountBasis
	debt      decimal.Decimal
	liability decimal.Decimal
	history   strategyHistory

	planner        BenefitEstimate
	spouse         BenefitEstimate
	baseExpenses   decimal.Decimal
	retirementYear int
}

func newProjection(in domain.ProjectionInput, logger Logger) *projection {
	if logger == nil {
		logger = NopLogger{}
	}
	s := in.Settings
	startAge := s.CurrentYear - in.BirthYear
	retirementYear := in.BirthYear + s.RetirementAge
	if startAge >= s.RetirementAge {
		retirementYear = s.CurrentYear
	}
	return &projection{
		in:             in,
		strategy:       NewWithdrawalStrategy(s.Strategy, s.FilingStatus),
		logger:         logger,
		balances:       domain.NewAccountBalances(in.Accounts),
		basis:          domain.NewTaxableAccountBasis(in.Accounts),
		planner:        BenefitEstimate{Base: PlannerBaseBenefit, Override: in.PlannerBenefitOverride, StartAge: s.BenefitStartAge()},
		spouse:         BenefitEstimate{Base: SpouseBaseBenefit, Override: in.SpouseBenefitOverride, StartAge: s.BenefitStartAge()},
		baseExpenses:   annualExpenses(in.Expenses, s.RetirementAge),
		retirementYear: retirementYear,
	}
}

// annualExpenses sums the monthly amounts that apply at the configured
// retirement age and annualizes them.
func annualExpenses(expenses []domain.Expense, retirementAge int) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		monthly := e.MonthlyAfter65
		if retirementAge < 65 {
			monthly = e.MonthlyBefore65
		}
		total = total.Add(money.NonNegative(monthly))
	}
	return money.Annual(total)
}

// run simulates from the current age through the terminal age.
func (p *projection) run() []domain.ProjectionDetail {
	s := p.in.Settings
	age := s.CurrentYear - p.in.BirthYear
	last := p.in.LastAge()
	if age > last {
		return []domain.ProjectionDetail{}
	}
	rows := make([]domain.ProjectionDetail, 0, last-age+1)
	for year := s.CurrentYear; age <= last; year, age = year+1, age+1 {
		rows = append(rows, p.step(year, age))
	}
	return rows
}

// CalculateRetirementProjections runs a deterministic year-by-year projection
// and returns one ledger row per simulated year.
func CalculateRetirementProjections(in domain.ProjectionInput) []domain.ProjectionDetail {
	return newProjection(in, NopLogger{}).run()
}
