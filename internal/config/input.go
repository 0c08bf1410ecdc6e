package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rpgo/drawdown/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrInvalidPlan is wrapped by every validation failure.
var ErrInvalidPlan = errors.New("invalid plan")

// Plan file bounds.
const (
	MinBirthYear            = 1900
	MaxAge                  = 120
	DefaultMonteCarloRuns   = 1000
	latestBenefitStartAge   = 70
	earliestBenefitStartAge = 62
)

// nowFunc supplies the current year when a plan leaves it out.
var nowFunc = time.Now

// InputParser handles parsing of plan files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a plan from a YAML (or JSON) file, applies defaults and
// validates it.
func (ip *InputParser) LoadFromFile(filename string) (*domain.Plan, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	plan, err := ip.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return plan, nil
}

// Parse decodes plan bytes, applies defaults and validates the result.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func (ip *InputParser) Parse(data []byte) (*domain.Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var plan domain.Plan
	if err := dec.Decode(&plan); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: plan file is empty", ErrInvalidPlan)
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ApplyDefaults(&plan); err != nil {
		return nil, err
	}
	if err := ip.ValidatePlan(&plan); err != nil {
		return nil, fmt.Errorf("plan validation failed: %w", err)
	}
	return &plan, nil
}

// ApplyDefaults fills the settings a plan may omit. It fails only when the
// strategy name cannot be resolved.
func (ip *InputParser) ApplyDefaults(plan *domain.Plan) error {
	s := &plan.Settings
	if s.CurrentYear == 0 {
		s.CurrentYear = nowFunc().Year()
	}
	if s.RetirementAge == 0 && s.YearsToRetirement > 0 && plan.BirthYear > 0 {
		s.RetirementAge = s.CurrentYear - plan.BirthYear + s.YearsToRetirement
	}
	if s.FilingStatus == "" {
		s.FilingStatus = domain.FilingStatusSingle
		if plan.Spouse != nil {
			s.FilingStatus = domain.FilingStatusMarriedFilingJointly
		}
	}

	st, err := domain.ParseStrategyType(string(s.Strategy.Type))
	if err != nil {
		return fmt.Errorf("%w: settings.withdrawal_strategy.type: %v", ErrInvalidPlan, err)
	}
	s.Strategy.Type = st
	if s.Strategy.Priority == "" {
		s.Strategy.Priority = domain.PriorityDefault
	}

	if plan.TerminalAge == 0 {
		plan.TerminalAge = domain.DefaultTerminalAge
	}
	if plan.MonteCarlo.Simulations == 0 {
		plan.MonteCarlo.Simulations = DefaultMonteCarloRuns
	}

	for i := range plan.Accounts {
		a := &plan.Accounts[i]
		if a.ID == "" {
			a.ID = fmt.Sprintf("%s-%d", a.Type, i+1)
		}
		if a.Owner == "" {
			a.Owner = domain.OwnerPlanner
		}
	}
	return nil
}

// ValidatePlan checks everything the calculation core assumes. Every error
// wraps ErrInvalidPlan and names the offending field.
func (ip *InputParser) ValidatePlan(plan *domain.Plan) error {
	s := plan.Settings
	if plan.BirthYear < MinBirthYear || plan.BirthYear > s.CurrentYear {
		return invalid("birth_year %d must be between %d and %d", plan.BirthYear, MinBirthYear, s.CurrentYear)
	}
	if err := ip.validateSettings(s); err != nil {
		return err
	}
	if plan.TerminalAge < s.CurrentYear-plan.BirthYear || plan.TerminalAge > MaxAge {
		return invalid("terminal_age %d must be between the current age %d and %d",
			plan.TerminalAge, s.CurrentYear-plan.BirthYear, MaxAge)
	}

	for i, a := range plan.Accounts {
		if err := validateAccount(a); err != nil {
			return fmt.Errorf("accounts[%d]: %w", i, err)
		}
	}
	for i, e := range plan.Expenses {
		if e.MonthlyBefore65.IsNegative() || e.MonthlyAfter65.IsNegative() {
			return fmt.Errorf("expenses[%d]: %w", i, invalid("monthly amounts cannot be negative"))
		}
	}
	for i, o := range plan.OtherIncome {
		if o.AnnualAmount.IsNegative() {
			return fmt.Errorf("other_income[%d]: %w", i, invalid("annual_amount cannot be negative"))
		}
		if o.StartYear != nil && o.EndYear != nil && *o.EndYear < *o.StartYear {
			return fmt.Errorf("other_income[%d]: %w", i, invalid("end_year %d is before start_year %d", *o.EndYear, *o.StartYear))
		}
	}

	if plan.Spouse != nil {
		if plan.Spouse.BirthYear < MinBirthYear || plan.Spouse.BirthYear > s.CurrentYear {
			return invalid("spouse.birth_year %d must be between %d and %d", plan.Spouse.BirthYear, MinBirthYear, s.CurrentYear)
		}
		if le := plan.Spouse.LifeExpectancy; le != nil && (*le <= 0 || *le > MaxAge) {
			return invalid("spouse.life_expectancy %d must be between 1 and %d", *le, MaxAge)
		}
	} else if plan.Benefits.IncludeSpouse != nil && *plan.Benefits.IncludeSpouse {
		return invalid("benefits.include_spouse requires a spouse")
	}
	if isNegative(plan.Benefits.PlannerOverride) || isNegative(plan.Benefits.SpouseOverride) {
		return invalid("benefit overrides cannot be negative")
	}

	if plan.MonteCarlo.Simulations < 0 || plan.MonteCarlo.Workers < 0 {
		return invalid("monte_carlo simulations and workers cannot be negative")
	}
	return nil
}

func (ip *InputParser) validateSettings(s domain.CalculatorSettings) error {
	if s.RetirementAge <= 0 || s.RetirementAge > MaxAge {
		return invalid("settings.retirement_age %d must be between 1 and %d", s.RetirementAge, MaxAge)
	}
	minusOne := decimal.NewFromInt(-1)
	if s.GrowthRateBeforeRetirement.LessThanOrEqual(minusOne) || s.GrowthRateDuringRetirement.LessThanOrEqual(minusOne) {
		return invalid("settings growth rates must be greater than -100%%")
	}
	if s.InflationRate.LessThanOrEqual(minusOne) {
		return invalid("settings.inflation_rate must be greater than -100%%")
	}
	if !knownFilingStatus(s.FilingStatus) {
		return invalid("settings.filing_status %q is not supported", s.FilingStatus)
	}
	if isNegative(s.DebtInterestRate) {
		return invalid("settings.debt_interest_rate cannot be negative")
	}
	if a := s.SocialSecurityStartAge; a != 0 && (a < earliestBenefitStartAge || a > latestBenefitStartAge) {
		return invalid("settings.social_security_start_age %d must be between %d and %d", a, earliestBenefitStartAge, latestBenefitStartAge)
	}
	return validateStrategy(s.Strategy)
}

func validateStrategy(c domain.StrategyConfig) error {
	for _, p := range []domain.GoalPriority{c.Priority, c.SecondaryPriority} {
		if p != "" && !knownPriority(p) {
			return invalid("settings.withdrawal_strategy priority %q is not supported", p)
		}
	}
	one := decimal.NewFromInt(1)
	if c.FixedPercentage != nil && (c.FixedPercentage.IsNegative() || c.FixedPercentage.GreaterThan(one)) {
		return invalid("settings.withdrawal_strategy.fixed_percentage must be between 0 and 1")
	}
	if isNegative(c.FixedDollarAmount) || isNegative(c.BracketThreshold) {
		return invalid("settings.withdrawal_strategy amounts cannot be negative")
	}
	for _, band := range []*decimal.Decimal{c.GuardrailCeiling, c.GuardrailFloor} {
		if band != nil && (band.IsNegative() || band.GreaterThan(one)) {
			return invalid("settings.withdrawal_strategy guardrails must be between 0 and 1")
		}
	}
	if c.Type == domain.StrategyFixedDollar && c.FixedDollarAmount == nil {
		return invalid("settings.withdrawal_strategy.fixed_dollar_amount is required for fixed_dollar")
	}
	return nil
}

func validateAccount(a domain.Account) error {
	if !a.Type.Valid() {
		return invalid("type %q is not a known account type", a.Type)
	}
	if a.Owner != domain.OwnerPlanner && a.Owner != domain.OwnerSpouse {
		return invalid("owner %q must be planner or spouse", a.Owner)
	}
	if a.Balance.IsNegative() {
		return invalid("balance cannot be negative")
	}
	if a.AnnualContribution.IsNegative() {
		return invalid("annual_contribution cannot be negative")
	}
	if a.CostBasis != nil {
		if a.Type != domain.AccountTypeTaxable {
			return invalid("cost_basis only applies to Taxable accounts")
		}
		if a.CostBasis.IsNegative() {
			return invalid("cost_basis cannot be negative")
		}
	}
	return nil
}

func knownFilingStatus(fs domain.FilingStatus) bool {
	for _, known := range domain.FilingStatuses {
		if fs == known {
			return true
		}
	}
	return false
}

func knownPriority(p domain.GoalPriority) bool {
	for _, known := range domain.GoalPriorities {
		if p == known {
			return true
		}
	}
	return false
}

func isNegative(d *decimal.Decimal) bool {
	return d != nil && d.IsNegative()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidPlan}, args...)...)
}
