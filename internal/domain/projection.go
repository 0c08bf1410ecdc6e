package domain

import (
	"github.com/shopspring/decimal"
)

// ProjectionDetail is one simulated year of the ledger. Rows are emitted once
// and never modified afterwards.
type ProjectionDetail struct {
	Year      int    `json:"year" csv:"year"`
	Age       int    `json:"age" csv:"age"`
	SpouseAge int    `json:"spouse_age,omitempty" csv:"spouse_age"`
	Phase     Phase  `json:"phase" csv:"phase"`
	LifeEvent string `json:"life_event,omitempty" csv:"life_event"`

	// Income
	SocialSecurity       decimal.Decimal `json:"social_security" csv:"social_security"`
	SpouseSocialSecurity decimal.Decimal `json:"spouse_social_security" csv:"spouse_social_security"`
	Distribution401k     decimal.Decimal `json:"distribution_401k" csv:"distribution_401k"`
	DistributionIRA      decimal.Decimal `json:"distribution_ira" csv:"distribution_ira"`
	DistributionRothIRA  decimal.Decimal `json:"distribution_roth_ira" csv:"distribution_roth_ira"`
	DistributionHSA      decimal.Decimal `json:"distribution_hsa" csv:"distribution_hsa"`
	DistributionTaxable  decimal.Decimal `json:"distribution_taxable" csv:"distribution_taxable"`
	DistributionOther    decimal.Decimal `json:"distribution_other" csv:"distribution_other"`
	OtherIncome          decimal.Decimal `json:"other_income" csv:"other_income"`
	TotalIncome          decimal.Decimal `json:"total_income" csv:"total_income"`

	// Required and special distributions
	RMDRequired            decimal.Decimal `json:"rmd_required" csv:"rmd_required"`
	CharitableDistribution decimal.Decimal `json:"charitable_distribution" csv:"charitable_distribution"`
	RothConversion         decimal.Decimal `json:"roth_conversion" csv:"roth_conversion"`

	// Taxes
	OrdinaryIncome  decimal.Decimal `json:"ordinary_income" csv:"ordinary_income"`
	TaxableIncome   decimal.Decimal `json:"taxable_income" csv:"taxable_income"`
	CapitalGains    decimal.Decimal `json:"capital_gains" csv:"capital_gains"`
	OrdinaryTax     decimal.Decimal `json:"ordinary_tax" csv:"ordinary_tax"`
	CapitalGainsTax decimal.Decimal `json:"capital_gains_tax" csv:"capital_gains_tax"`
	ConversionTax   decimal.Decimal `json:"conversion_tax" csv:"conversion_tax"`
	TaxOwed         decimal.Decimal `json:"tax_owed" csv:"tax_owed"`
	AfterTaxIncome  decimal.Decimal `json:"after_tax_income" csv:"after_tax_income"`

	GrossUpIterations int  `json:"gross_up_iterations" csv:"gross_up_iterations"`
	GrossUpConverged  bool `json:"gross_up_converged" csv:"gross_up_converged"`

	// Expenses and cash flow
	LivingExpenses      decimal.Decimal `json:"living_expenses" csv:"living_expenses"`
	// TotalExpenses is what the portfolio must fund; zero before retirement.
	TotalExpenses       decimal.Decimal `json:"total_expenses" csv:"total_expenses"`
	GapExcess           decimal.Decimal `json:"gap_excess" csv:"gap_excess"`
	CumulativeLiability decimal.Decimal `json:"cumulative_liability" csv:"cumulative_liability"`
	Reinvested          decimal.Decimal `json:"reinvested" csv:"reinvested"`

	// Debt
	DebtBalance       decimal.Decimal `json:"debt_balance" csv:"debt_balance"`
	DebtInterest      decimal.Decimal `json:"debt_interest" csv:"debt_interest"`
	DebtInterestPaid  decimal.Decimal `json:"debt_interest_paid" csv:"debt_interest_paid"`
	DebtPrincipalPaid decimal.Decimal `json:"debt_principal_paid" csv:"debt_principal_paid"`
	Borrowed          decimal.Decimal `json:"borrowed" csv:"borrowed"`

	// Ending balances
	Balance401k      decimal.Decimal `json:"balance_401k" csv:"balance_401k"`
	BalanceIRA       decimal.Decimal `json:"balance_ira" csv:"balance_ira"`
	BalanceRothIRA   decimal.Decimal `json:"balance_roth_ira" csv:"balance_roth_ira"`
	BalanceHSA       decimal.Decimal `json:"balance_hsa" csv:"balance_hsa"`
	BalanceTaxable   decimal.Decimal `json:"balance_taxable" csv:"balance_taxable"`
	BalanceOther     decimal.Decimal `json:"balance_other" csv:"balance_other"`
	TaxablePrincipal decimal.Decimal `json:"taxable_principal" csv:"taxable_principal"`
	TotalAssets      decimal.Decimal `json:"total_assets" csv:"total_assets"`
	NetWorth         decimal.Decimal `json:"net_worth" csv:"net_worth"`

	GrowthRate decimal.Decimal `json:"growth_rate" csv:"growth_rate"`
}

// Distributions returns the year's withdrawals keyed by category.
func (p ProjectionDetail) Distributions() AccountBalances {
	return AccountBalances{
		AccountType401k:    p.Distribution401k,
		AccountTypeIRA:     p.DistributionIRA,
		AccountTypeRothIRA: p.DistributionRothIRA,
		AccountTypeHSA:     p.DistributionHSA,
		AccountTypeTaxable: p.DistributionTaxable,
		AccountTypeOther:   p.DistributionOther,
	}
}

// EndingBalances returns the year-end balances keyed by category.
func (p ProjectionDetail) EndingBalances() AccountBalances {
	return AccountBalances{
		AccountType401k:    p.Balance401k,
		AccountTypeIRA:     p.BalanceIRA,
		AccountTypeRothIRA: p.BalanceRothIRA,
		AccountTypeHSA:     p.BalanceHSA,
		AccountTypeTaxable: p.BalanceTaxable,
		AccountTypeOther:   p.BalanceOther,
	}
}

// SetDistributions copies per-category withdrawals into the row.
func (p *ProjectionDetail) SetDistributions(d AccountBalances) {
	p.Distribution401k = d.Get(AccountType401k)
	p.DistributionIRA = d.Get(AccountTypeIRA)
	p.DistributionRothIRA = d.Get(AccountTypeRothIRA)
	p.DistributionHSA = d.Get(AccountTypeHSA)
	p.DistributionTaxable = d.Get(AccountTypeTaxable)
	p.DistributionOther = d.Get(AccountTypeOther)
}

// SetEndingBalances copies year-end balances into the row.
func (p *ProjectionDetail) SetEndingBalances(b AccountBalances) {
	p.Balance401k = b.Get(AccountType401k)
	p.BalanceIRA = b.Get(AccountTypeIRA)
	p.BalanceRothIRA = b.Get(AccountTypeRothIRA)
	p.BalanceHSA = b.Get(AccountTypeHSA)
	p.BalanceTaxable = b.Get(AccountTypeTaxable)
	p.BalanceOther = b.Get(AccountTypeOther)
}

// MonteCarloRun is the outcome of one perturbed projection.
type MonteCarloRun struct {
	Run                        int             `json:"run" csv:"run"`
	GrowthRateBeforeRetirement decimal.Decimal `json:"growth_rate_before_retirement" csv:"growth_rate_before_retirement"`
	GrowthRateDuringRetirement decimal.Decimal `json:"growth_rate_during_retirement" csv:"growth_rate_during_retirement"`
	FinalNetWorth              decimal.Decimal `json:"final_net_worth" csv:"final_net_worth"`
	MinNetWorth                decimal.Decimal `json:"min_net_worth" csv:"min_net_worth"`
	NegativeCashFlowYears      int             `json:"negative_cash_flow_years" csv:"negative_cash_flow_years"`
	Years                      int             `json:"years" csv:"years"`
	TotalTaxes                 decimal.Decimal `json:"total_taxes" csv:"total_taxes"`
	Success                    bool            `json:"success" csv:"success"`
}

// PercentileRanges holds final net worth percentiles.
type PercentileRanges struct {
	P25 decimal.Decimal `json:"p25"`
	P75 decimal.Decimal `json:"p75"`
	P90 decimal.Decimal `json:"p90"`
	P95 decimal.Decimal `json:"p95"`
}

// MonteCarloSummary aggregates all runs. SuccessRate is a fraction in [0, 1].
type MonteCarloSummary struct {
	NumSimulations            int              `json:"num_simulations"`
	Seed                      int64            `json:"seed"`
	SuccessRate               decimal.Decimal  `json:"success_rate"`
	MeanFinalNetWorth         decimal.Decimal  `json:"mean_final_net_worth"`
	MedianFinalNetWorth       decimal.Decimal  `json:"median_final_net_worth"`
	MinFinalNetWorth          decimal.Decimal  `json:"min_final_net_worth"`
	MaxFinalNetWorth          decimal.Decimal  `json:"max_final_net_worth"`
	MeanMinNetWorth           decimal.Decimal  `json:"mean_min_net_worth"`
	MeanNegativeCashFlowYears decimal.Decimal  `json:"mean_negative_cash_flow_years"`
	MeanTotalTaxes            decimal.Decimal  `json:"mean_total_taxes"`
	Percentiles               PercentileRanges `json:"percentiles"`
}

// MonteCarloResult is the Monte Carlo driver output.
type MonteCarloResult struct {
	Results []MonteCarloRun   `json:"results"`
	Summary MonteCarloSummary `json:"summary"`
}

// Report is what output formatters render: a deterministic ledger, a Monte
// Carlo result, or both.
type Report struct {
	PlanName    string             `json:"plan_name"`
	ScenarioID  string             `json:"scenario_id,omitempty"`
	Strategy    StrategyType       `json:"strategy"`
	Assumptions []string           `json:"assumptions,omitempty"`
	Projection  []ProjectionDetail `json:"projection,omitempty"`
	MonteCarlo  *MonteCarloResult  `json:"monte_carlo,omitempty"`
}
