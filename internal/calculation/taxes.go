package calculation

import (
	"github.com/rpgo/drawdown/internal/domain"
	"github.com/shopspring/decimal"
)

// TAX CALCULATION ASSUMPTIONS:
//
// 1. Federal brackets and standard deductions are the 2024 tables for every
//    projection year. No inflation indexing.
// 2. Long-term capital gains are taxed on the gain amount alone with the
//    0/15/20% ladder. They are not stacked on top of ordinary income, which
//    understates tax for households with large ordinary income.
// 3. Social Security benefits are not taxed.
// 4. Roth conversions pay a flat conversion rate instead of entering the
//    ordinary ladder.

// TaxBracket is one rung of a progressive ladder. A zero Max marks the
// unbounded top bracket.
type TaxBracket struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Rate decimal.Decimal
}

// TaxTable groups the ladders and deduction for one filing status.
type TaxTable struct {
	StandardDeduction decimal.Decimal
	Ordinary          []TaxBracket
	CapitalGains      []TaxBracket
}

func ladder(bounds []int64, rates []float64) []TaxBracket {
	brackets := make([]TaxBracket, len(rates))
	lower := decimal.Zero
	for i, r := range rates {
		b := TaxBracket{Min: lower, Rate: decimal.NewFromFloat(r)}
		if i < len(bounds) {
			b.Max = decimal.NewFromInt(bounds[i])
			lower = b.Max
		}
		brackets[i] = b
	}
	return brackets
}

var (
	ordinaryRates     = []float64{0.10, 0.12, 0.22, 0.24, 0.32, 0.35, 0.37}
	capitalGainsRates = []float64{0, 0.15, 0.20}
)

var taxTables2024 = map[domain.FilingStatus]TaxTable{
	domain.FilingStatusSingle: {
		StandardDeduction: decimal.NewFromInt(14600),
		Ordinary:          ladder([]int64{11600, 47150, 100525, 191950, 243725, 609350}, ordinaryRates),
		CapitalGains:      ladder([]int64{47025, 518900}, capitalGainsRates),
	},
	domain.FilingStatusMarriedFilingJointly: {
		StandardDeduction: decimal.NewFromInt(29200),
		Ordinary:          ladder([]int64{23200, 94300, 201050, 383900, 487450, 731200}, ordinaryRates),
		CapitalGains:      ladder([]int64{94050, 583750}, capitalGainsRates),
	},
	domain.FilingStatusMarriedFilingSeparately: {
		StandardDeduction: decimal.NewFromInt(14600),
		Ordinary:          ladder([]int64{11600, 47150, 100525, 191950, 243725, 365600}, ordinaryRates),
		CapitalGains:      ladder([]int64{47025, 291850}, capitalGainsRates),
	},
	domain.FilingStatusHeadOfHousehold: {
		StandardDeduction: decimal.NewFromInt(21900),
		Ordinary:          ladder([]int64{16550, 63100, 100500, 191950, 243700, 609350}, ordinaryRates),
		CapitalGains:      ladder([]int64{63000, 551350}, capitalGainsRates),
	},
}

// TaxTableFor returns the 2024 table for a filing status, falling back to single.
func TaxTableFor(status domain.FilingStatus) TaxTable {
	if t, ok := taxTables2024[status]; ok {
		return t
	}
	return taxTables2024[domain.FilingStatusSingle]
}

// StandardDeduction returns the flat deduction for a filing status.
func StandardDeduction(status domain.FilingStatus) decimal.Decimal {
	return TaxTableFor(status).StandardDeduction
}

// ProgressiveTax applies the ordinary ladder to taxable income (after deduction).
func ProgressiveTax(taxableIncome decimal.Decimal, status domain.FilingStatus) decimal.Decimal {
	return bracketTax(taxableIncome, TaxTableFor(status).Ordinary)
}

// CapitalGainsTax applies the long-term gains ladder to the gain amount alone.
func CapitalGainsTax(gains decimal.Decimal, status domain.FilingStatus) decimal.Decimal {
	return bracketTax(gains, TaxTableFor(status).CapitalGains)
}

// EstimateMarginalRate reports the ordinary bracket rate that the next dollar
// of income would fall into. Used only to size gross-up withdrawals.
func EstimateMarginalRate(ordinaryIncome decimal.Decimal, status domain.FilingStatus) decimal.Decimal {
	t := TaxTableFor(status)
	return bracketRate(ordinaryIncome.Sub(t.StandardDeduction), t.Ordinary)
}

// EstimateCapitalGainsRate reports the gains tier for an ordinary income figure.
func EstimateCapitalGainsRate(ordinaryIncome decimal.Decimal, status domain.FilingStatus) decimal.Decimal {
	t := TaxTableFor(status)
	return bracketRate(ordinaryIncome.Sub(t.StandardDeduction), t.CapitalGains)
}

// BracketCeiling returns the upper bound of the ordinary bracket taxed at rate,
// or zero when no bracket has that rate.
func BracketCeiling(rate decimal.Decimal, status domain.FilingStatus) decimal.Decimal {
	for _, b := range TaxTableFor(status).Ordinary {
		if b.Rate.Equal(rate) {
			return b.Max
		}
	}
	return decimal.Zero
}

// bracketTax fills each bracket in turn and spills the rest into the next.
func bracketTax(amount decimal.Decimal, brackets []TaxBracket) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	tax := decimal.Zero
	for _, b := range brackets {
		if amount.LessThanOrEqual(b.Min) {
			break
		}
		upper := amount
		if !b.Max.IsZero() {
			upper = decimal.Min(amount, b.Max)
		}
		tax = tax.Add(upper.Sub(b.Min).Mul(b.Rate))
	}
	return tax
}

func bracketRate(amount decimal.Decimal, brackets []TaxBracket) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	for _, b := range brackets {
		if b.Max.IsZero() || amount.LessThan(b.Max) {
			return b.Rate
		}
	}
	return brackets[len(brackets)-1].Rate
}
