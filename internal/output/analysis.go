package output

import (
	"github.com/rpgo/drawdown/internal/domain"
	"github.com/shopspring/decimal"
)

// LedgerAnalysis condenses a projection into the figures shown under the ledger.
type LedgerAnalysis struct {
	Years               int
	RetirementYear      int
	FirstRetiredIncome  decimal.Decimal
	FinalNetWorth       decimal.Decimal
	PeakNetWorth        decimal.Decimal
	PeakNetWorthYear    int
	TotalTaxes          decimal.Decimal
	ShortfallYears      int
	UnconvergedYears    int
	DepletionYear       int
	FinalDebt           decimal.Decimal
	FinalLiability      decimal.Decimal
	TotalRothConversion decimal.Decimal
	TotalCharitable     decimal.Decimal
}

// AnalyzeProjection summarizes a ledger. DepletionYear is the first year total
// assets reach zero, or 0 if they never do.
// Extracted from the console formatter for testability.
func AnalyzeProjection(rows []domain.ProjectionDetail) LedgerAnalysis {
	a := LedgerAnalysis{Years: len(rows)}
	if len(rows) == 0 {
		return a
	}
	for i, r := range rows {
		if r.Phase == domain.PhaseRetired && a.RetirementYear == 0 {
			a.RetirementYear = r.Year
			a.FirstRetiredIncome = r.AfterTaxIncome
		}
		if i == 0 || r.NetWorth.GreaterThan(a.PeakNetWorth) {
			a.PeakNetWorth = r.NetWorth
			a.PeakNetWorthYear = r.Year
		}
		a.TotalTaxes = a.TotalTaxes.Add(r.TaxOwed)
		a.TotalRothConversion = a.TotalRothConversion.Add(r.RothConversion)
		a.TotalCharitable = a.TotalCharitable.Add(r.CharitableDistribution)
		if r.GapExcess.IsNegative() {
			a.ShortfallYears++
		}
		if !r.GrossUpConverged {
			a.UnconvergedYears++
		}
		if a.DepletionYear == 0 && !r.TotalAssets.IsPositive() {
			a.DepletionYear = r.Year
		}
	}
	last := rows[len(rows)-1]
	a.FinalNetWorth = last.NetWorth
	a.FinalDebt = last.DebtBalance
	a.FinalLiability = last.CumulativeLiability
	return a
}
