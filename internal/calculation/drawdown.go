package calculation

import (
	"github.com/rpgo/drawdown/internal/domain"
	"github.com/rpgo/drawdown/pkg/money"
	"github.com/shopspring/decimal"
)

// defaultDrawOrder defers ordinary income and keeps Roth for last.
var defaultDrawOrder = []domain.AccountType{
	domain.AccountTypeTaxable,
	domain.AccountType401k,
	domain.AccountTypeIRA,
	domain.AccountTypeHSA,
	domain.AccountTypeOther,
	domain.AccountTypeRothIRA,
}

// drawdown executes one year's withdrawals against the balances it was given
// and records what left each category.
type drawdown struct {
	balances      domain.AccountBalances
	basis         *domain.TaxableAccountBasis
	distributions domain.AccountBalances
	realizedGains decimal.Decimal
	charitable    decimal.Decimal
	converted     decimal.Decimal
	conversionTax decimal.Decimal
}

func newDrawdown(balances domain.AccountBalances, basis *domain.TaxableAccountBasis) *drawdown {
	return &drawdown{
		balances:      balances,
		basis:         basis,
		distributions: domain.NewAccountBalances(nil),
	}
}

// withdraw takes up to amount from one category.
func (d *drawdown) withdraw(t domain.AccountType, amount decimal.Decimal) decimal.Decimal {
	taken := d.balances.Withdraw(t, amount)
	if taken.IsZero() {
		return taken
	}
	if t == domain.AccountTypeTaxable {
		d.realizedGains = d.realizedGains.Add(d.basis.Withdraw(taken))
	}
	d.distributions.Add(t, taken)
	return taken
}

// drawInOrder exhausts each category in turn and returns the unmet remainder.
func (d *drawdown) drawInOrder(order []domain.AccountType, amount decimal.Decimal) decimal.Decimal {
	remaining := money.NonNegative(amount)
	for _, t := range order {
		if !remaining.IsPositive() {
			break
		}
		remaining = remaining.Sub(d.withdraw(t, remaining))
	}
	return remaining
}

// drawProportional splits amount across categories by balance share and
// returns the unmet remainder.
func (d *drawdown) drawProportional(types []domain.AccountType, amount decimal.Decimal) decimal.Decimal {
	amount = money.NonNegative(amount)
	pool := decimal.Zero
	for _, t := range types {
		pool = pool.Add(d.balances.Get(t))
	}
	if !pool.IsPositive() || !amount.IsPositive() {
		return amount
	}
	if amount.GreaterThanOrEqual(pool) {
		for _, t := range types {
			d.withdraw(t, d.balances.Get(t))
		}
		return amount.Sub(pool)
	}
	remaining := amount
	for i, t := range types {
		share := amount.Mul(money.SafeDiv(d.balances.Get(t), pool))
		if i == len(types)-1 {
			share = remaining
		}
		remaining = remaining.Sub(d.withdraw(t, share))
	}
	// Rounding can leave a sliver behind in an exhausted category.
	return d.drawInOrder(types, remaining)
}

var traditionalTypes = []domain.AccountType{domain.AccountType401k, domain.AccountTypeIRA}

// drawTraditional takes amount from 401k and IRA pro-rata by balance and
// returns what was actually taken.
func (d *drawdown) drawTraditional(amount decimal.Decimal) decimal.Decimal {
	amount = money.NonNegative(amount)
	return amount.Sub(d.drawProportional(traditionalTypes, amount))
}

// removeTraditional debits 401k and IRA pro-rata without recording a
// distribution. Used for conversions and charitable transfers.
func (d *drawdown) removeTraditional(amount decimal.Decimal) decimal.Decimal {
	pool := d.balances.Traditional()
	amount = decimal.Min(money.NonNegative(amount), pool)
	if !amount.IsPositive() {
		return decimal.Zero
	}
	from401k := amount.Mul(money.SafeDiv(d.balances.Get(domain.AccountType401k), pool))
	taken := d.balances.Withdraw(domain.AccountType401k, from401k)
	taken = taken.Add(d.balances.Withdraw(domain.AccountTypeIRA, amount.Sub(taken)))
	if taken.LessThan(amount) {
		taken = taken.Add(d.balances.Withdraw(domain.AccountType401k, amount.Sub(taken)))
	}
	return taken
}

// convertToRoth moves traditional money into Roth and books the flat tax.
func (d *drawdown) convertToRoth(amount, taxRate decimal.Decimal) decimal.Decimal {
	moved := d.removeTraditional(amount)
	d.balances.Add(domain.AccountTypeRothIRA, moved)
	d.converted = d.converted.Add(moved)
	d.conversionTax = d.conversionTax.Add(moved.Mul(taxRate))
	return moved
}

// donate sends traditional money straight to charity. It never becomes income.
func (d *drawdown) donate(amount decimal.Decimal) decimal.Decimal {
	given := d.removeTraditional(amount)
	d.charitable = d.charitable.Add(given)
	return given
}

// traditionalTaken is the year's taxable 401k and IRA distributions so far.
func (d *drawdown) traditionalTaken() decimal.Decimal {
	return d.distributions.Traditional()
}

// total is everything withdrawn for the household this year.
func (d *drawdown) total() decimal.Decimal {
	return d.distributions.Total()
}

// topUp covers an after-tax shortfall, preferring untaxed Roth, then Taxable
// grossed up by the gains rate on its gain share, then 401k/IRA grossed up by
// the marginal rate, then HSA and Other.
func (d *drawdown) topUp(shortfall, ordinaryIncome decimal.Decimal, status domain.FilingStatus) {
	remaining := money.NonNegative(shortfall)
	remaining = remaining.Sub(d.withdraw(domain.AccountTypeRothIRA, remaining))

	if remaining.IsPositive() && d.balances.Get(domain.AccountTypeTaxable).IsPositive() {
		effective := EstimateCapitalGainsRate(ordinaryIncome, status).Mul(d.basis.GainFraction())
		net := one.Sub(effective)
		taken := d.withdraw(domain.AccountTypeTaxable, money.SafeDiv(remaining, net))
		remaining = money.NonNegative(remaining.Sub(taken.Mul(net)))
	}

	if remaining.IsPositive() && d.balances.Traditional().IsPositive() {
		net := one.Sub(EstimateMarginalRate(ordinaryIncome, status))
		taken := d.drawTraditional(money.SafeDiv(remaining, net))
		remaining = money.NonNegative(remaining.Sub(taken.Mul(net)))
	}

	d.drawInOrder([]domain.AccountType{domain.AccountTypeHSA, domain.AccountTypeOther}, remaining)
}

var one = decimal.NewFromInt(1)
