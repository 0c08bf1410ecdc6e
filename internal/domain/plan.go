package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountType is the tax category an account belongs to. The engine tracks one
// running balance per category once a projection starts.
type AccountType string

const (
	AccountType401k    AccountType = "401k"
	AccountTypeIRA     AccountType = "IRA"
	AccountTypeRothIRA AccountType = "RothIRA"
	AccountTypeHSA     AccountType = "HSA"
	AccountTypeTaxable AccountType = "Taxable"
	AccountTypeOther   AccountType = "Other"
)

// AccountTypes lists every category in ledger order.
var AccountTypes = []AccountType{
	AccountType401k,
	AccountTypeIRA,
	AccountTypeRothIRA,
	AccountTypeHSA,
	AccountTypeTaxable,
	AccountTypeOther,
}

// Valid reports whether t is one of the six known categories.
func (t AccountType) Valid() bool {
	for _, known := range AccountTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Traditional reports whether withdrawals from t are taxed as ordinary income
// and count toward required minimum distributions.
func (t AccountType) Traditional() bool {
	return t == AccountType401k || t == AccountTypeIRA
}

// Owner tags whose account it is.
type Owner string

const (
	OwnerPlanner Owner = "planner"
	OwnerSpouse  Owner = "spouse"
)

// FilingStatus selects the federal tax tables.
type FilingStatus string

const (
	FilingStatusSingle                  FilingStatus = "single"
	FilingStatusMarriedFilingJointly    FilingStatus = "married_filing_jointly"
	FilingStatusMarriedFilingSeparately FilingStatus = "married_filing_separately"
	FilingStatusHeadOfHousehold         FilingStatus = "head_of_household"
)

// FilingStatuses lists the supported filing statuses.
var FilingStatuses = []FilingStatus{
	FilingStatusSingle,
	FilingStatusMarriedFilingJointly,
	FilingStatusMarriedFilingSeparately,
	FilingStatusHeadOfHousehold,
}

// StrategyType identifies a withdrawal strategy.
type StrategyType string

const (
	StrategyGoalBased            StrategyType = "goal_based"
	StrategyFourPercentRule      StrategyType = "four_percent_rule"
	StrategyFixedPercentage      StrategyType = "fixed_percentage"
	StrategyFixedDollar          StrategyType = "fixed_dollar"
	StrategySystematicWithdrawal StrategyType = "systematic_withdrawal"
	StrategyGuardrails           StrategyType = "guardrails"
	StrategyProportional         StrategyType = "proportional"
	StrategyBracketTopping       StrategyType = "bracket_topping"
	StrategyBucket               StrategyType = "bucket"
	StrategyFloorUpside          StrategyType = "floor_upside"
	StrategyRothConversionBridge StrategyType = "roth_conversion_bridge"
	StrategyQCD                  StrategyType = "qcd"
)

// StrategyTypes lists every supported strategy.
var StrategyTypes = []StrategyType{
	StrategyGoalBased,
	StrategyFourPercentRule,
	StrategyFixedPercentage,
	StrategyFixedDollar,
	StrategySystematicWithdrawal,
	StrategyGuardrails,
	StrategyProportional,
	StrategyBracketTopping,
	StrategyBucket,
	StrategyFloorUpside,
	StrategyRothConversionBridge,
	StrategyQCD,
}

var strategyAliases = map[string]StrategyType{
	"sequence_based": StrategyProportional,
	"tax_based":      StrategyProportional,
	"market_based":   StrategyGuardrails,
	"4_percent_rule": StrategyFourPercentRule,
	"swp":            StrategySystematicWithdrawal,
}

// ParseStrategyType resolves a strategy name or alias.
func ParseStrategyType(s string) (StrategyType, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	if n == "" {
		return StrategyGoalBased, nil
	}
	if alias, ok := strategyAliases[n]; ok {
		return alias, nil
	}
	for _, known := range StrategyTypes {
		if string(known) == n {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown withdrawal strategy %q", s)
}

// GoalPriority selects the draw order of the goal-based strategy.
type GoalPriority string

const (
	PriorityDefault         GoalPriority = "default"
	PriorityLongevity       GoalPriority = "longevity"
	PriorityLegacy          GoalPriority = "legacy"
	PriorityTaxOptimization GoalPriority = "tax_optimization"
	PrioritySequenceRisk    GoalPriority = "sequence_risk"
	PriorityLiquidity       GoalPriority = "liquidity"
	PriorityHealthcare      GoalPriority = "healthcare"
)

// GoalPriorities lists every goal priority.
var GoalPriorities = []GoalPriority{
	PriorityDefault,
	PriorityLongevity,
	PriorityLegacy,
	PriorityTaxOptimization,
	PrioritySequenceRisk,
	PriorityLiquidity,
	PriorityHealthcare,
}

// Phase is the retirement phase of a simulated year.
type Phase string

const (
	PhasePreRetirement Phase = "pre_retirement"
	PhaseRetired       Phase = "retired"
)

// PhaseFor derives the phase from the planner's age.
func PhaseFor(age, retirementAge int) Phase {
	if age >= retirementAge {
		return PhaseRetired
	}
	return PhasePreRetirement
}

// Account is a single retirement or brokerage account.
type Account struct {
	ID                 string           `yaml:"id" json:"id"`
	Name               string           `yaml:"name" json:"name"`
	Owner              Owner            `yaml:"owner" json:"owner"`
	Type               AccountType      `yaml:"type" json:"type"`
	Balance            decimal.Decimal  `yaml:"balance" json:"balance"`
	AnnualContribution decimal.Decimal  `yaml:"annual_contribution,omitempty" json:"annual_contribution,omitempty"`
	CostBasis          *decimal.Decimal `yaml:"cost_basis,omitempty" json:"cost_basis,omitempty"` // Taxable only; defaults to balance
}

// Expense is a recurring living expense.
type Expense struct {
	Name            string          `yaml:"name" json:"name"`
	MonthlyBefore65 decimal.Decimal `yaml:"monthly_before_65" json:"monthly_before_65"`
	MonthlyAfter65  decimal.Decimal `yaml:"monthly_after_65" json:"monthly_after_65"`
}

// OtherIncome is a recurring income stream such as a pension, annuity or rent.
type OtherIncome struct {
	Name              string          `yaml:"name" json:"name"`
	AnnualAmount      decimal.Decimal `yaml:"annual_amount" json:"annual_amount"`
	StartYear         *int            `yaml:"start_year,omitempty" json:"start_year,omitempty"`
	EndYear           *int            `yaml:"end_year,omitempty" json:"end_year,omitempty"`
	InflationAdjusted bool            `yaml:"inflation_adjusted" json:"inflation_adjusted"`
}

// ActiveIn reports whether the income is paid in year.
func (o OtherIncome) ActiveIn(year int) bool {
	if o.StartYear != nil && year < *o.StartYear {
		return false
	}
	if o.EndYear != nil && year > *o.EndYear {
		return false
	}
	return true
}

// StrategyConfig holds the withdrawal strategy selection and every
// strategy-specific parameter. Only the fields used by Type are read.
type StrategyConfig struct {
	Type              StrategyType     `yaml:"type" json:"type"`
	Priority          GoalPriority     `yaml:"priority,omitempty" json:"priority,omitempty"`
	SecondaryPriority GoalPriority     `yaml:"secondary_priority,omitempty" json:"secondary_priority,omitempty"`
	FixedPercentage   *decimal.Decimal `yaml:"fixed_percentage,omitempty" json:"fixed_percentage,omitempty"`
	FixedDollarAmount *decimal.Decimal `yaml:"fixed_dollar_amount,omitempty" json:"fixed_dollar_amount,omitempty"`
	GuardrailCeiling  *decimal.Decimal `yaml:"guardrail_ceiling,omitempty" json:"guardrail_ceiling,omitempty"`
	GuardrailFloor    *decimal.Decimal `yaml:"guardrail_floor,omitempty" json:"guardrail_floor,omitempty"`
	BracketThreshold  *decimal.Decimal `yaml:"bracket_threshold,omitempty" json:"bracket_threshold,omitempty"`
}

// CalculatorSettings are the economic and tax assumptions for one run.
type CalculatorSettings struct {
	CurrentYear                int              `yaml:"current_year" json:"current_year"`
	RetirementAge              int              `yaml:"retirement_age" json:"retirement_age"`
	YearsToRetirement          int              `yaml:"years_to_retirement,omitempty" json:"years_to_retirement,omitempty"`
	GrowthRateBeforeRetirement decimal.Decimal  `yaml:"growth_rate_before_retirement" json:"growth_rate_before_retirement"`
	GrowthRateDuringRetirement decimal.Decimal  `yaml:"growth_rate_during_retirement" json:"growth_rate_during_retirement"`
	InflationRate              decimal.Decimal  `yaml:"inflation_rate" json:"inflation_rate"`
	FilingStatus               FilingStatus     `yaml:"filing_status" json:"filing_status"`
	DebtInterestRate           *decimal.Decimal `yaml:"debt_interest_rate,omitempty" json:"debt_interest_rate,omitempty"`
	EnableBorrowing            bool             `yaml:"enable_borrowing" json:"enable_borrowing"`
	SocialSecurityStartAge     int              `yaml:"social_security_start_age,omitempty" json:"social_security_start_age,omitempty"`
	Strategy                   StrategyConfig   `yaml:"withdrawal_strategy" json:"withdrawal_strategy"`
}

var defaultDebtInterestRate = decimal.NewFromFloat(0.06)

// DefaultSocialSecurityStartAge applies when no start age is configured.
const DefaultSocialSecurityStartAge = 62

// DebtRate returns the borrowing rate, 6% unless configured.
func (s CalculatorSettings) DebtRate() decimal.Decimal {
	if s.DebtInterestRate == nil {
		return defaultDebtInterestRate
	}
	return *s.DebtInterestRate
}

// BenefitStartAge returns the Social Security claiming age.
func (s CalculatorSettings) BenefitStartAge() int {
	if s.SocialSecurityStartAge <= 0 {
		return DefaultSocialSecurityStartAge
	}
	return s.SocialSecurityStartAge
}

// GrowthRateFor returns the portfolio growth rate for a phase.
func (s CalculatorSettings) GrowthRateFor(phase Phase) decimal.Decimal {
	if phase == PhaseRetired {
		return s.GrowthRateDuringRetirement
	}
	return s.GrowthRateBeforeRetirement
}

// DefaultTerminalAge is the last simulated age when none is configured.
const DefaultTerminalAge = 100

// ProjectionInput carries everything a projection needs. Inputs are assumed to
// be validated by the caller.
type ProjectionInput struct {
	BirthYear              int
	Accounts               []Account
	Expenses               []Expense
	OtherIncome            []OtherIncome
	Settings               CalculatorSettings
	TerminalAge            int
	SpouseBirthYear        *int
	SpouseLifeExpectancy   *int
	IncludePlannerBenefit  bool
	IncludeSpouseBenefit   bool
	PlannerBenefitOverride *decimal.Decimal
	SpouseBenefitOverride  *decimal.Decimal
}

// LastAge returns the terminal age, defaulting to 100.
func (in ProjectionInput) LastAge() int {
	if in.TerminalAge <= 0 {
		return DefaultTerminalAge
	}
	return in.TerminalAge
}

// SpouseDetails describes the planner's spouse.
type SpouseDetails struct {
	BirthYear      int  `yaml:"birth_year" json:"birth_year"`
	LifeExpectancy *int `yaml:"life_expectancy,omitempty" json:"life_expectancy,omitempty"`
}

// BenefitSettings controls the Social Security estimate.
type BenefitSettings struct {
	IncludePlanner  *bool            `yaml:"include_planner,omitempty" json:"include_planner,omitempty"`
	IncludeSpouse   *bool            `yaml:"include_spouse,omitempty" json:"include_spouse,omitempty"`
	PlannerOverride *decimal.Decimal `yaml:"planner_override,omitempty" json:"planner_override,omitempty"`
	SpouseOverride  *decimal.Decimal `yaml:"spouse_override,omitempty" json:"spouse_override,omitempty"`
}

// MonteCarloSettings configures the Monte Carlo driver from a plan file.
type MonteCarloSettings struct {
	Simulations int   `yaml:"simulations,omitempty" json:"simulations,omitempty"`
	Seed        int64 `yaml:"seed,omitempty" json:"seed,omitempty"`
	Workers     int   `yaml:"workers,omitempty" json:"workers,omitempty"`
}

// Plan is the top-level plan file.
type Plan struct {
	Name        string             `yaml:"name" json:"name"`
	ScenarioID  string             `yaml:"scenario_id,omitempty" json:"scenario_id,omitempty"`
	BirthYear   int                `yaml:"birth_year" json:"birth_year"`
	Spouse      *SpouseDetails     `yaml:"spouse,omitempty" json:"spouse,omitempty"`
	Accounts    []Account          `yaml:"accounts" json:"accounts"`
	Expenses    []Expense          `yaml:"expenses" json:"expenses"`
	OtherIncome []OtherIncome      `yaml:"other_income,omitempty" json:"other_income,omitempty"`
	Settings    CalculatorSettings `yaml:"settings" json:"settings"`
	Benefits    BenefitSettings    `yaml:"benefits,omitempty" json:"benefits,omitempty"`
	TerminalAge int                `yaml:"terminal_age,omitempty" json:"terminal_age,omitempty"`
	MonteCarlo  MonteCarloSettings `yaml:"monte_carlo,omitempty" json:"monte_carlo,omitempty"`
}

// ProjectionInput flattens the plan into engine input.
func (p *Plan) ProjectionInput() ProjectionInput {
	in := ProjectionInput{
		BirthYear:              p.BirthYear,
		Accounts:               p.Accounts,
		Expenses:               p.Expenses,
		OtherIncome:            p.OtherIncome,
		Settings:               p.Settings,
		TerminalAge:            p.TerminalAge,
		IncludePlannerBenefit:  p.Benefits.IncludePlanner == nil || *p.Benefits.IncludePlanner,
		IncludeSpouseBenefit:   p.Spouse != nil && (p.Benefits.IncludeSpouse == nil || *p.Benefits.IncludeSpouse),
		PlannerBenefitOverride: p.Benefits.PlannerOverride,
		SpouseBenefitOverride:  p.Benefits.SpouseOverride,
	}
	if p.Spouse != nil {
		birth := p.Spouse.BirthYear
		in.SpouseBirthYear = &birth
		in.SpouseLifeExpectancy = p.Spouse.LifeExpectancy
	}
	return in
}
