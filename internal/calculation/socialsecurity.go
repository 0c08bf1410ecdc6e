package calculation

import (
	"github.com/shopspring/decimal"
)

// Social Security is a placeholder model: a flat base benefit in today's
// dollars scaled by a linear claiming multiplier. The constants are settings,
// not actuarial facts.
const (
	EarliestClaimingAge = 62
	FullClaimingAge     = 67
)

var (
	PlannerBaseBenefit = decimal.NewFromInt(20000)
	SpouseBaseBenefit  = decimal.NewFromInt(15000)

	earliestClaimingMultiplier = decimal.NewFromFloat(0.70)
	claimingStepPerYear        = decimal.NewFromFloat(0.06)
)

// ClaimingMultiplier scales the base benefit from 0.70 at 62 to 1.00 at 67.
// Claiming later than 67 earns no extra credit.
func ClaimingMultiplier(startAge int) decimal.Decimal {
	if startAge <= EarliestClaimingAge {
		return earliestClaimingMultiplier
	}
	if startAge >= FullClaimingAge {
		return decimal.NewFromInt(1)
	}
	years := decimal.NewFromInt(int64(startAge - EarliestClaimingAge))
	return earliestClaimingMultiplier.Add(claimingStepPerYear.Mul(years))
}

// BenefitEstimate describes one person's benefit.
type BenefitEstimate struct {
	Base     decimal.Decimal
	Override *decimal.Decimal
	StartAge int
}

// AnnualBenefit returns the benefit paid at age, inflated by inflationMultiplier.
// An override replaces base times multiplier.
func (b BenefitEstimate) AnnualBenefit(age int, inflationMultiplier decimal.Decimal) decimal.Decimal {
	if age < b.StartAge {
		return decimal.Zero
	}
	annual := b.Base.Mul(ClaimingMultiplier(b.StartAge))
	if b.Override != nil {
		annual = *b.Override
	}
	if !annual.IsPositive() {
		return decimal.Zero
	}
	return annual.Mul(inflationMultiplier)
}
