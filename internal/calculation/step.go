package calculation

import (
	"strings"

	"github.com/rpgo/drawdown/internal/domain"
	"github.com/rpgo/drawdown/pkg/money"
	"github.com/shopspring/decimal"
)

// Gross-up loop bounds.
const (
	MaxGrossUpIterations = 10
)

// GrossUpTolerance is the largest after-tax shortfall the loop accepts as closed.
var GrossUpTolerance = decimal.NewFromInt(1)

// yearTaxes is the tax assessment of one pass of the gross-up loop.
type yearTaxes struct {
	ordinaryIncome  decimal.Decimal
	taxableIncome   decimal.Decimal
	capitalGains    decimal.Decimal
	ordinaryTax     decimal.Decimal
	capitalGainsTax decimal.Decimal
	conversionTax   decimal.Decimal
}

func (t yearTaxes) total() decimal.Decimal {
	return t.ordinaryTax.Add(t.capitalGainsTax).Add(t.conversionTax)
}

// assessTaxes taxes 401k/IRA distributions plus other income on the ordinary
// ladder and realized Taxable gains on the gains ladder.
func assessTaxes(d *drawdown, otherIncome decimal.Decimal, status domain.FilingStatus) yearTaxes {
	ordinary := d.traditionalTaken().Add(otherIncome)
	taxable := money.NonNegative(ordinary.Sub(StandardDeduction(status)))
	return yearTaxes{
		ordinaryIncome:  ordinary,
		taxableIncome:   taxable,
		capitalGains:    d.realizedGains,
		ordinaryTax:     ProgressiveTax(taxable, status),
		capitalGainsTax: CapitalGainsTax(d.realizedGains, status),
		conversionTax:   d.conversionTax,
	}
}

// settleTaxes runs the gross-up loop: assess taxes, and while after-tax income
// falls short of target by more than the tolerance, withdraw more. It stops
// after MaxGrossUpIterations top-ups or when the accounts are empty.
func settleTaxes(d *drawdown, guaranteed, otherIncome, target decimal.Decimal, status domain.FilingStatus, topUp bool) (yearTaxes, int, bool) {
	iterations := 0
	for {
		taxes := assessTaxes(d, otherIncome, status)
		afterTax := guaranteed.Add(d.total()).Sub(taxes.total())
		shortfall := target.Sub(afterTax)
		if !topUp || shortfall.LessThanOrEqual(GrossUpTolerance) {
			return taxes, iterations, true
		}
		if iterations >= MaxGrossUpIterations || !d.balances.Total().IsPositive() {
			return taxes, iterations, false
		}
		iterations++
		d.topUp(shortfall, taxes.ordinaryIncome, status)
	}
}

// debtResult is the outcome of the borrowing side-ledger for one year.
type debtResult struct {
	balance       decimal.Decimal
	interest      decimal.Decimal
	interestPaid  decimal.Decimal
	principalPaid decimal.Decimal
	borrowed      decimal.Decimal
}

// settleDebt accrues interest on the opening balance, borrows a negative gap,
// and otherwise pays interest then principal out of the surplus. Unpaid
// interest capitalizes.
func settleDebt(opening, rate, gap decimal.Decimal) debtResult {
	r := debtResult{interest: money.NonNegative(opening.Mul(rate))}
	if gap.IsNegative() {
		r.borrowed = gap.Neg()
		r.balance = opening.Add(r.interest).Add(r.borrowed)
		return r
	}
	r.interestPaid = decimal.Min(gap, r.interest)
	owed := opening.Add(r.interest).Sub(r.interestPaid)
	r.principalPaid = decimal.Min(gap.Sub(r.interestPaid), owed)
	r.balance = owed.Sub(r.principalPaid)
	return r
}

// step simulates one year for the projection and returns its ledger row.
func (p *projection) step(year, age int) domain.ProjectionDetail {
	s := p.in.Settings
	phase := domain.PhaseFor(age, s.RetirementAge)
	status := s.FilingStatus

	// 1-3: inflation, expenses, growth
	inflation := money.Compound(s.InflationRate, year-s.CurrentYear)
	living := money.Cents(p.livingExpenses(year, phase))
	growth := s.GrowthRateFor(phase)

	// 4-5: guaranteed income
	spouseAge := 0
	if p.in.SpouseBirthYear != nil {
		spouseAge = year - *p.in.SpouseBirthYear
	}
	benefit := decimal.Zero
	if p.in.IncludePlannerBenefit {
		benefit = money.Cents(p.planner.AnnualBenefit(age, inflation))
	}
	spouseBenefit := decimal.Zero
	if p.in.IncludeSpouseBenefit && p.spouseAlive(spouseAge) {
		spouseBenefit = money.Cents(p.spouse.AnnualBenefit(spouseAge, inflation))
	}
	other := money.Cents(p.otherIncome(year, inflation))
	guaranteed := benefit.Add(spouseBenefit).Add(other)

	portfolio := p.balances.Total()
	d := newDrawdown(p.balances, &p.basis)

	// 6: required minimum distribution from prior year-end balances
	rmd := decimal.Zero
	rmdApplies := age >= RMDStartAge && p.balances.Traditional().IsPositive()
	if rmdApplies {
		rmd = RequiredMinimumDistribution(p.balances.Traditional(), age)
		if h, ok := p.strategy.(rmdHandler); ok {
			h.satisfyRMD(rmd, d)
		} else {
			d.drawTraditional(rmd)
		}
	}

	// 7: strategy withdrawals
	target := decimal.Zero
	if phase == domain.PhaseRetired {
		target = living
		if !p.history.captured {
			p.history.retirementPortfolio = portfolio
			p.history.captured = true
		}
		req := WithdrawalRequest{
			Year:                year,
			Age:                 age,
			YearsIntoRetirement: year - p.retirementYear,
			YearsRemaining:      p.in.LastAge() - age,
			Need:                money.NonNegative(living.Sub(guaranteed).Sub(d.traditionalTaken())),
			Expenses:            living,
			GuaranteedIncome:    guaranteed,
			OrdinaryIncome:      other.Add(d.traditionalTaken()),
			RMDApplies:          rmdApplies,
			RMDTaken:            d.traditionalTaken(),
			PortfolioValue:      portfolio,
			NetWorth:            portfolio.Sub(p.debt),
			InflationRate:       s.InflationRate,
			GrowthRate:          growth,
			FilingStatus:        status,
			history:             &p.history,
		}
		p.strategy.Withdraw(req, d)
	}

	// 8: tax gross-up
	topUp := phase == domain.PhaseRetired && !p.strategy.AmountBased()
	taxes, iterations, converged := settleTaxes(d, guaranteed, other, target, status, topUp)
	if !converged {
		p.logger.Warnf("year %d: gross-up stopped after %d iterations with a shortfall", year, iterations)
	}
	taxOwed := money.Cents(taxes.total())
	totalIncome := guaranteed.Add(d.total())
	afterTax := totalIncome.Sub(taxOwed)
	gap := afterTax.Sub(target)

	// 9: borrowing
	var debt debtResult
	gapExcess := gap
	if s.EnableBorrowing {
		debt = settleDebt(p.debt, s.DebtRate(), gap)
		p.debt = money.Cents(debt.balance)
		if !gap.IsNegative() {
			gapExcess = gap.Sub(debt.interestPaid).Sub(debt.principalPaid)
		}
	} else if gap.IsNegative() {
		p.liability = p.liability.Add(gap.Neg())
	}

	// 10: reinvest surplus as after-tax money
	reinvested := decimal.Zero
	if gapExcess.IsPositive() {
		reinvested = gapExcess
		p.balances.Add(domain.AccountTypeTaxable, reinvested)
		p.basis.Deposit(reinvested)
	}

	// 11: growth; basis only tracks market value
	for _, t := range domain.AccountTypes {
		p.balances[t] = money.NonNegative(money.Grow(p.balances.Get(t), growth))
	}
	p.basis.MarkToMarket(p.balances.Get(domain.AccountTypeTaxable))

	// 12: contributions while working
	if phase == domain.PhasePreRetirement {
		for _, a := range p.in.Accounts {
			p.balances.Add(a.Type, a.AnnualContribution)
			if a.Type == domain.AccountTypeTaxable {
				p.basis.Deposit(a.AnnualContribution)
			}
		}
	}

	p.balances.Round()
	p.basis.Round()
	p.liability = money.Cents(p.liability)

	// 13: ledger row
	assets := p.balances.Total()
	row := domain.ProjectionDetail{
		Year:                   year,
		Age:                    age,
		SpouseAge:              spouseAge,
		Phase:                  phase,
		LifeEvent:              p.lifeEvents(age, spouseAge),
		SocialSecurity:         benefit,
		SpouseSocialSecurity:   spouseBenefit,
		OtherIncome:            other,
		TotalIncome:            money.Cents(totalIncome),
		RMDRequired:            rmd,
		CharitableDistribution: money.Cents(d.charitable),
		RothConversion:         money.Cents(d.converted),
		OrdinaryIncome:         money.Cents(taxes.ordinaryIncome),
		TaxableIncome:          money.Cents(taxes.taxableIncome),
		CapitalGains:           money.Cents(taxes.capitalGains),
		OrdinaryTax:            money.Cents(taxes.ordinaryTax),
		CapitalGainsTax:        money.Cents(taxes.capitalGainsTax),
		ConversionTax:          money.Cents(taxes.conversionTax),
		TaxOwed:                taxOwed,
		AfterTaxIncome:         money.Cents(afterTax),
		GrossUpIterations:      iterations,
		GrossUpConverged:       converged,
		LivingExpenses:         living,
		TotalExpenses:          target,
		GapExcess:              money.Cents(gapExcess),
		CumulativeLiability:    p.liability,
		Reinvested:             money.Cents(reinvested),
		DebtBalance:            p.debt,
		DebtInterest:           money.Cents(debt.interest),
		DebtInterestPaid:       money.Cents(debt.interestPaid),
		DebtPrincipalPaid:      money.Cents(debt.principalPaid),
		Borrowed:               money.Cents(debt.borrowed),
		TaxablePrincipal:       p.basis.Principal,
		TotalAssets:            assets,
		NetWorth:               assets.Sub(p.debt),
		GrowthRate:             growth,
	}
	distributions := d.distributions.Clone()
	distributions.Round()
	row.SetDistributions(distributions)
	row.SetEndingBalances(p.balances)

	p.logger.Debugf("year %d age %d %s: income %s tax %s gap %s net worth %s",
		year, age, phase, row.TotalIncome, row.TaxOwed, row.GapExcess, row.NetWorth)
	return row
}

// livingExpenses inflates the base expense from the start year until
// retirement, then carries the retirement-start baseline forward.
func (p *projection) livingExpenses(year int, phase domain.Phase) decimal.Decimal {
	s := p.in.Settings
	if phase == domain.PhasePreRetirement {
		return p.baseExpenses.Mul(money.Compound(s.InflationRate, year-s.CurrentYear))
	}
	baseline := p.baseExpenses.Mul(money.Compound(s.InflationRate, p.retirementYear-s.CurrentYear))
	return baseline.Mul(money.Compound(s.InflationRate, year-p.retirementYear))
}

func (p *projection) otherIncome(year int, inflation decimal.Decimal) decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(p.in.OtherIncome))
	for _, o := range p.in.OtherIncome {
		if !o.ActiveIn(year) {
			continue
		}
		amount := money.NonNegative(o.AnnualAmount)
		if o.InflationAdjusted {
			amount = amount.Mul(inflation)
		}
		amounts = append(amounts, amount)
	}
	return money.Sum(amounts...)
}

func (p *projection) spouseAlive(spouseAge int) bool {
	if p.in.SpouseBirthYear == nil {
		return false
	}
	return p.in.SpouseLifeExpectancy == nil || spouseAge <= *p.in.SpouseLifeExpectancy
}

func (p *projection) lifeEvents(age, spouseAge int) string {
	s := p.in.Settings
	var events []string
	if age == s.RetirementAge {
		events = append(events, "Retirement")
	}
	if p.in.IncludePlannerBenefit && age == s.BenefitStartAge() {
		events = append(events, "Social Security starts")
	}
	if age == RMDStartAge {
		events = append(events, "RMDs begin")
	}
	if p.in.SpouseBirthYear != nil {
		if p.in.IncludeSpouseBenefit && spouseAge == s.BenefitStartAge() && p.spouseAlive(spouseAge) {
			events = append(events, "Spouse Social Security starts")
		}
		if p.in.SpouseLifeExpectancy != nil && spouseAge == *p.in.SpouseLifeExpectancy+1 {
			events = append(events, "Spouse benefit ends")
		}
	}
	return strings.Join(events, "; ")
}
