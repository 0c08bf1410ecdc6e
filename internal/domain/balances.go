package domain

import (
	"github.com/rpgo/drawdown/pkg/money"
	"github.com/shopspring/decimal"
)

// AccountBalances holds one running total per account category. Balances are
// never negative: Withdraw clamps to what is available.
type AccountBalances map[AccountType]decimal.Decimal

// NewAccountBalances aggregates accounts into category totals.
func NewAccountBalances(accounts []Account) AccountBalances {
	b := make(AccountBalances, len(AccountTypes))
	for _, t := range AccountTypes {
		b[t] = decimal.Zero
	}
	for _, a := range accounts {
		b[a.Type] = b[a.Type].Add(money.NonNegative(a.Balance))
	}
	return b
}

// Get returns the balance of a category, zero when absent.
func (b AccountBalances) Get(t AccountType) decimal.Decimal {
	return b[t]
}

// Add credits a category. Negative amounts are ignored.
func (b AccountBalances) Add(t AccountType, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	b[t] = b[t].Add(amount)
}

// Withdraw debits up to amount from a category and returns what was taken.
func (b AccountBalances) Withdraw(t AccountType, amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	available := b[t]
	if !available.IsPositive() {
		return decimal.Zero
	}
	taken := decimal.Min(amount, available)
	b[t] = available.Sub(taken)
	return taken
}

// Total sums every category.
func (b AccountBalances) Total() decimal.Decimal {
	total := decimal.Zero
	for _, t := range AccountTypes {
		total = total.Add(b[t])
	}
	return total
}

// Traditional returns the combined 401k and IRA balance.
func (b AccountBalances) Traditional() decimal.Decimal {
	return b[AccountType401k].Add(b[AccountTypeIRA])
}

// Clone returns an independent copy.
func (b AccountBalances) Clone() AccountBalances {
	c := make(AccountBalances, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}

// Round rounds every category to cents.
func (b AccountBalances) Round() {
	for t, v := range b {
		b[t] = money.Cents(v)
	}
}

// TaxableAccountBasis separates already-taxed principal from market value in
// the Taxable category so only the gain share of a withdrawal is taxed.
type TaxableAccountBasis struct {
	Principal decimal.Decimal `json:"principal"`
	Total     decimal.Decimal `json:"total"`
}

// NewTaxableAccountBasis seeds the tracker from Taxable accounts. An account
// without a cost basis is treated as fully taxed.
func NewTaxableAccountBasis(accounts []Account) TaxableAccountBasis {
	var basis TaxableAccountBasis
	for _, a := range accounts {
		if a.Type != AccountTypeTaxable {
			continue
		}
		balance := money.NonNegative(a.Balance)
		principal := balance
		if a.CostBasis != nil {
			principal = decimal.Min(money.NonNegative(*a.CostBasis), balance)
		}
		basis.Total = basis.Total.Add(balance)
		basis.Principal = basis.Principal.Add(principal)
	}
	return basis
}

// GainFraction is the share of market value that is unrealized gain.
func (tb TaxableAccountBasis) GainFraction() decimal.Decimal {
	return money.NonNegative(money.SafeDiv(tb.Total.Sub(tb.Principal), tb.Total))
}

// Withdraw removes amount of market value and returns the realized gain.
// Principal shrinks in proportion to the share of the account withdrawn.
func (tb *TaxableAccountBasis) Withdraw(amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() || !tb.Total.IsPositive() {
		return decimal.Zero
	}
	amount = decimal.Min(amount, tb.Total)
	gain := amount.Mul(tb.GainFraction())
	share := money.SafeDiv(amount, tb.Total)
	tb.Principal = money.NonNegative(tb.Principal.Sub(tb.Principal.Mul(share)))
	tb.Total = tb.Total.Sub(amount)
	if tb.Principal.GreaterThan(tb.Total) {
		tb.Principal = tb.Total
	}
	return gain
}

// Deposit adds after-tax money, raising principal and market value alike.
func (tb *TaxableAccountBasis) Deposit(amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	tb.Principal = tb.Principal.Add(amount)
	tb.Total = tb.Total.Add(amount)
}

// MarkToMarket sets market value after growth. Principal is unchanged unless a
// loss pushes value below it, in which case the loss is absorbed by principal.
func (tb *TaxableAccountBasis) MarkToMarket(total decimal.Decimal) {
	tb.Total = money.NonNegative(total)
	if tb.Principal.GreaterThan(tb.Total) {
		tb.Principal = tb.Total
	}
}

// Round rounds both figures to cents.
func (tb *TaxableAccountBasis) Round() {
	tb.Principal = money.Cents(tb.Principal)
	tb.Total = money.Cents(tb.Total)
	if tb.Principal.GreaterThan(tb.Total) {
		tb.Principal = tb.Total
	}
}
