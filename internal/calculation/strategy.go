package calculation

import (
	"github.com/rpgo/drawdown/internal/domain"
	"github.com/rpgo/drawdown/pkg/money"
	"github.com/shopspring/decimal"
)

// WithdrawalRequest is the year state a strategy decides from.
type WithdrawalRequest struct {
	Year                int
	Age                 int
	YearsIntoRetirement int
	YearsRemaining      int
	Need                decimal.Decimal // funding need left after guaranteed income and RMD
	Expenses            decimal.Decimal
	GuaranteedIncome    decimal.Decimal
	OrdinaryIncome      decimal.Decimal // taxable income already booked this year
	RMDApplies          bool
	RMDTaken            decimal.Decimal
	PortfolioValue      decimal.Decimal // start-of-year balances
	NetWorth            decimal.Decimal
	InflationRate       decimal.Decimal
	GrowthRate          decimal.Decimal
	FilingStatus        domain.FilingStatus

	history *strategyHistory
}

// strategyHistory is the per-projection memory amount-based strategies need.
type strategyHistory struct {
	retirementPortfolio decimal.Decimal
	captured            bool
	lastWithdrawal      decimal.Decimal
	withdrawn           bool
}

// WithdrawalStrategy decides and executes the year's discretionary withdrawals.
// Order-based strategies draw Need through an account order; amount-based
// strategies draw a target regardless of Need.
type WithdrawalStrategy interface {
	Type() domain.StrategyType
	AmountBased() bool
	Withdraw(req WithdrawalRequest, d *drawdown)
}

// rmdHandler lets a strategy take over how the RMD is satisfied.
type rmdHandler interface {
	satisfyRMD(rmd decimal.Decimal, d *drawdown)
}

// Strategy defaults.
var (
	DefaultFixedPercentage     = decimal.NewFromFloat(0.04)
	DefaultGuardrailRate       = decimal.NewFromFloat(0.05)
	DefaultGuardrailBand       = decimal.NewFromFloat(0.20)
	guardrailAdjustment        = decimal.NewFromFloat(0.10)
	fourPercent                = decimal.NewFromFloat(0.04)
	essentialExpenseShare      = decimal.NewFromFloat(0.70)
	rothConversionShare        = decimal.NewFromFloat(0.10)
	rothConversionCap          = decimal.NewFromInt(10000)
	rothConversionTaxRate      = decimal.NewFromFloat(0.15)
	qcdShare                   = decimal.NewFromFloat(0.50)
	qcdCap                     = decimal.NewFromInt(100000)
	defaultBracketToppingRate  = decimal.NewFromFloat(0.12)
	sequenceRiskProtectedYears = 20
)

// NewWithdrawalStrategy resolves a strategy configuration into its variant.
// This is the only place strategy types are matched.
func NewWithdrawalStrategy(cfg domain.StrategyConfig, status domain.FilingStatus) WithdrawalStrategy {
	switch cfg.Type {
	case domain.StrategyFourPercentRule:
		return FourPercentRule{}
	case domain.StrategyFixedPercentage:
		return FixedPercentage{Rate: valueOr(cfg.FixedPercentage, DefaultFixedPercentage)}
	case domain.StrategyFixedDollar:
		return FixedDollar{Amount: valueOr(cfg.FixedDollarAmount, decimal.Zero)}
	case domain.StrategySystematicWithdrawal:
		return SystematicWithdrawal{}
	case domain.StrategyGuardrails:
		return Guardrails{
			InitialRate: valueOr(cfg.FixedPercentage, DefaultGuardrailRate),
			Ceiling:     valueOr(cfg.GuardrailCeiling, DefaultGuardrailBand),
			Floor:       valueOr(cfg.GuardrailFloor, DefaultGuardrailBand),
		}
	case domain.StrategyProportional:
		return Proportional{}
	case domain.StrategyBracketTopping:
		return BracketTopping{Threshold: valueOr(cfg.BracketThreshold, BracketCeiling(defaultBracketToppingRate, status))}
	case domain.StrategyBucket:
		return Bucket{}
	case domain.StrategyFloorUpside:
		return FloorUpside{EssentialShare: essentialExpenseShare}
	case domain.StrategyRothConversionBridge:
		return RothConversionBridge{Share: rothConversionShare, Cap: rothConversionCap, TaxRate: rothConversionTaxRate}
	case domain.StrategyQCD:
		return QCD{Share: qcdShare, Cap: qcdCap}
	default:
		return GoalBased{Priority: cfg.Priority, Secondary: cfg.SecondaryPriority}
	}
}

func valueOr(v *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if v == nil {
		return fallback
	}
	return *v
}

// executeTarget draws what is left of a target after the RMD through the
// default order.
func executeTarget(target decimal.Decimal, req WithdrawalRequest, d *drawdown) {
	d.drawInOrder(defaultDrawOrder, money.NonNegative(target.Sub(req.RMDTaken)))
}

// retirementPortfolio returns the portfolio value captured in the first retired year.
func (r WithdrawalRequest) retirementPortfolio() decimal.Decimal {
	if r.history == nil || !r.history.captured {
		return r.PortfolioValue
	}
	return r.history.retirementPortfolio
}

// GoalBased draws need through an order chosen by the household's priority.
type GoalBased struct {
	Priority  domain.GoalPriority
	Secondary domain.GoalPriority
}

var priorityOrders = map[domain.GoalPriority][]domain.AccountType{
	domain.PriorityDefault:         defaultDrawOrder,
	domain.PriorityTaxOptimization: defaultDrawOrder,
	domain.PriorityLongevity: {
		domain.AccountTypeTaxable, domain.AccountTypeHSA, domain.AccountType401k,
		domain.AccountTypeIRA, domain.AccountTypeOther, domain.AccountTypeRothIRA,
	},
	domain.PriorityLegacy: {
		domain.AccountType401k, domain.AccountTypeIRA, domain.AccountTypeHSA,
		domain.AccountTypeOther, domain.AccountTypeRothIRA, domain.AccountTypeTaxable,
	},
	domain.PrioritySequenceRisk: {domain.AccountTypeTaxable, domain.AccountTypeRothIRA},
	domain.PriorityLiquidity:    {domain.AccountTypeTaxable, domain.AccountTypeRothIRA},
	domain.PriorityHealthcare:   {domain.AccountTypeHSA},
}

func (GoalBased) Type() domain.StrategyType { return domain.StrategyGoalBased }
func (GoalBased) AmountBased() bool         { return false }

// Order returns the full draw order for the year.
func (g GoalBased) Order(req WithdrawalRequest) []domain.AccountType {
	primary := g.Priority
	if primary == domain.PrioritySequenceRisk && req.YearsIntoRetirement >= sequenceRiskProtectedYears {
		primary = g.Secondary
	}
	order := mergeOrders(priorityOrders[primary], priorityOrders[g.Secondary], defaultDrawOrder)
	if req.RMDTaken.IsPositive() {
		order = mergeOrders([]domain.AccountType{domain.AccountTypeRothIRA}, order)
	}
	return order
}

func (g GoalBased) Withdraw(req WithdrawalRequest, d *drawdown) {
	d.drawInOrder(g.Order(req), req.Need)
}

// mergeOrders concatenates orders keeping the first occurrence of each category.
func mergeOrders(orders ...[]domain.AccountType) []domain.AccountType {
	seen := make(map[domain.AccountType]bool, len(domain.AccountTypes))
	merged := make([]domain.AccountType, 0, len(domain.AccountTypes))
	for _, order := range orders {
		for _, t := range order {
			if !seen[t] {
				seen[t] = true
				merged = append(merged, t)
			}
		}
	}
	return merged
}

// FourPercentRule withdraws 4% of the retirement-start portfolio, inflated yearly.
type FourPercentRule struct{}

func (FourPercentRule) Type() domain.StrategyType { return domain.StrategyFourPercentRule }
func (FourPercentRule) AmountBased() bool         { return true }

func (FourPercentRule) Target(req WithdrawalRequest) decimal.Decimal {
	initial := req.retirementPortfolio().Mul(fourPercent)
	return initial.Mul(money.Compound(req.InflationRate, req.YearsIntoRetirement))
}

func (s FourPercentRule) Withdraw(req WithdrawalRequest, d *drawdown) {
	executeTarget(s.Target(req), req, d)
}

// FixedPercentage withdraws a fixed share of the current portfolio.
type FixedPercentage struct {
	Rate decimal.Decimal
}

func (FixedPercentage) Type() domain.StrategyType { return domain.StrategyFixedPercentage }
func (FixedPercentage) AmountBased() bool         { return true }

func (s FixedPercentage) Target(req WithdrawalRequest) decimal.Decimal {
	return money.NonNegative(req.PortfolioValue.Mul(s.Rate))
}

func (s FixedPercentage) Withdraw(req WithdrawalRequest, d *drawdown) {
	executeTarget(s.Target(req), req, d)
}

// FixedDollar withdraws a constant nominal amount.
type FixedDollar struct {
	Amount decimal.Decimal
}

func (FixedDollar) Type() domain.StrategyType { return domain.StrategyFixedDollar }
func (FixedDollar) AmountBased() bool         { return true }

func (s FixedDollar) Target(WithdrawalRequest) decimal.Decimal { return money.NonNegative(s.Amount) }

func (s FixedDollar) Withdraw(req WithdrawalRequest, d *drawdown) {
	executeTarget(s.Target(req), req, d)
}

// SystematicWithdrawal spends only the expected growth of the portfolio.
type SystematicWithdrawal struct{}

func (SystematicWithdrawal) Type() domain.StrategyType { return domain.StrategySystematicWithdrawal }
func (SystematicWithdrawal) AmountBased() bool         { return true }

func (SystematicWithdrawal) Target(req WithdrawalRequest) decimal.Decimal {
	return money.NonNegative(req.PortfolioValue.Mul(req.GrowthRate))
}

func (s SystematicWithdrawal) Withdraw(req WithdrawalRequest, d *drawdown) {
	executeTarget(s.Target(req), req, d)
}

// Guardrails inflates last year's withdrawal and cuts or raises it by 10% when
// the current withdrawal rate leaves the band around the initial rate.
type Guardrails struct {
	InitialRate decimal.Decimal
	Ceiling     decimal.Decimal
	Floor       decimal.Decimal
}

func (Guardrails) Type() domain.StrategyType { return domain.StrategyGuardrails }
func (Guardrails) AmountBased() bool         { return true }

func (s Guardrails) Target(req WithdrawalRequest) decimal.Decimal {
	h := req.history
	if h == nil || !h.withdrawn {
		return req.retirementPortfolio().Mul(s.InitialRate)
	}
	withdrawal := money.Grow(h.lastWithdrawal, req.InflationRate)
	rate := money.SafeDiv(withdrawal, req.PortfolioValue)
	switch {
	case !req.PortfolioValue.IsPositive():
	case rate.GreaterThan(s.InitialRate.Mul(one.Add(s.Ceiling))):
		withdrawal = withdrawal.Mul(one.Sub(guardrailAdjustment))
	case rate.LessThan(s.InitialRate.Mul(one.Sub(s.Floor))):
		withdrawal = withdrawal.Mul(one.Add(guardrailAdjustment))
	}
	return withdrawal
}

func (s Guardrails) Withdraw(req WithdrawalRequest, d *drawdown) {
	target := s.Target(req)
	if req.history != nil {
		req.history.lastWithdrawal = target
		req.history.withdrawn = true
	}
	executeTarget(target, req, d)
}

// Proportional draws need from every category by balance share.
type Proportional struct{}

func (Proportional) Type() domain.StrategyType { return domain.StrategyProportional }
func (Proportional) AmountBased() bool         { return false }

func (Proportional) Withdraw(req WithdrawalRequest, d *drawdown) {
	d.drawProportional(domain.AccountTypes, req.Need)
}

// BracketTopping fills ordinary taxable income up to Threshold from 401k/IRA,
// even past need, before touching Taxable or Roth.
type BracketTopping struct {
	Threshold decimal.Decimal // taxable income after the standard deduction
}

func (BracketTopping) Type() domain.StrategyType { return domain.StrategyBracketTopping }
func (BracketTopping) AmountBased() bool         { return false }

var bracketToppingRemainder = []domain.AccountType{
	domain.AccountTypeTaxable, domain.AccountTypeRothIRA, domain.AccountTypeHSA,
	domain.AccountTypeOther, domain.AccountType401k, domain.AccountTypeIRA,
}

func (s BracketTopping) Withdraw(req WithdrawalRequest, d *drawdown) {
	room := s.Threshold.Add(StandardDeduction(req.FilingStatus)).Sub(req.OrdinaryIncome)
	filled := d.drawTraditional(room)
	d.drawInOrder(bracketToppingRemainder, req.Need.Sub(filled))
}

// Bucket draws by years into retirement: near-term cash from Taxable and HSA,
// mid-term from 401k/IRA, long-term from Roth.
type Bucket struct{}

func (Bucket) Type() domain.StrategyType { return domain.StrategyBucket }
func (Bucket) AmountBased() bool         { return false }

func (Bucket) Order(yearsIntoRetirement int) []domain.AccountType {
	var bucket []domain.AccountType
	switch {
	case yearsIntoRetirement < 3:
		bucket = []domain.AccountType{domain.AccountTypeTaxable, domain.AccountTypeHSA}
	case yearsIntoRetirement < 10:
		bucket = []domain.AccountType{domain.AccountType401k, domain.AccountTypeIRA}
	default:
		bucket = []domain.AccountType{domain.AccountTypeRothIRA}
	}
	return mergeOrders(bucket, defaultDrawOrder)
}

func (s Bucket) Withdraw(req WithdrawalRequest, d *drawdown) {
	d.drawInOrder(s.Order(req.YearsIntoRetirement), req.Need)
}

// FloorUpside funds an essential share of expenses from guaranteed income and
// tax-efficient accounts, and discretionary spending from Roth.
type FloorUpside struct {
	EssentialShare decimal.Decimal
}

func (FloorUpside) Type() domain.StrategyType { return domain.StrategyFloorUpside }
func (FloorUpside) AmountBased() bool         { return false }

var floorOrder = []domain.AccountType{
	domain.AccountTypeTaxable, domain.AccountType401k, domain.AccountTypeIRA,
	domain.AccountTypeHSA, domain.AccountTypeOther, domain.AccountTypeRothIRA,
}

func (s FloorUpside) Withdraw(req WithdrawalRequest, d *drawdown) {
	essential := req.Expenses.Mul(s.EssentialShare)
	floorNeed := decimal.Min(req.Need, money.NonNegative(essential.Sub(req.GuaranteedIncome)))
	unmet := d.drawInOrder(floorOrder, floorNeed)
	discretionary := req.Need.Sub(floorNeed).Add(unmet)
	d.drawInOrder(mergeOrders([]domain.AccountType{domain.AccountTypeRothIRA}, defaultDrawOrder), discretionary)
}

// RothConversionBridge draws need through the default order and, in retired
// years before RMDs begin, converts part of the traditional balance to Roth.
type RothConversionBridge struct {
	Share   decimal.Decimal
	Cap     decimal.Decimal
	TaxRate decimal.Decimal
}

func (RothConversionBridge) Type() domain.StrategyType { return domain.StrategyRothConversionBridge }
func (RothConversionBridge) AmountBased() bool         { return false }

func (s RothConversionBridge) Withdraw(req WithdrawalRequest, d *drawdown) {
	d.drawInOrder(defaultDrawOrder, req.Need)
	if req.Age >= RMDStartAge {
		return
	}
	amount := decimal.Min(d.balances.Traditional().Mul(s.Share), s.Cap)
	d.convertToRoth(amount, s.TaxRate)
}

// QCD sends part of the RMD to charity tax-free before taking the remainder as
// taxable income.
type QCD struct {
	Share decimal.Decimal
	Cap   decimal.Decimal
}

func (QCD) Type() domain.StrategyType { return domain.StrategyQCD }
func (QCD) AmountBased() bool         { return false }

func (s QCD) satisfyRMD(rmd decimal.Decimal, d *drawdown) {
	given := d.donate(decimal.Min(rmd.Mul(s.Share), s.Cap))
	d.drawTraditional(rmd.Sub(given))
}

func (QCD) Withdraw(req WithdrawalRequest, d *drawdown) {
	d.drawInOrder(defaultDrawOrder, req.Need)
}
