package calculation

import (
	"testing"

	"github.com/rpgo/drawdown/internal/domain"
	"github.com/stretchr/testify/assert"
)

// drawdownWith builds a drawdown over the given balances. A non-empty
// principal sets the Taxable cost basis.
func drawdownWith(balances map[domain.AccountType]string, principal string) *drawdown {
	var accounts []domain.Account
	for t, b := range balances {
		a := account(t, b)
		if t == domain.AccountTypeTaxable && principal != "" {
			a.CostBasis = decPtr(principal)
		}
		accounts = append(accounts, a)
	}
	basis := domain.NewTaxableAccountBasis(accounts)
	return newDrawdown(domain.NewAccountBalances(accounts), &basis)
}

func TestDrawdown_FullTaxableWithdrawalTaxesOnlyGains(t *testing.T) {
	d := drawdownWith(map[domain.AccountType]string{domain.AccountTypeTaxable: "500000"}, "200000")

	taken := d.withdraw(domain.AccountTypeTaxable, dec("500000"))
	assertDecimalEqual(t, dec("500000"), taken, "taken")
	assertDecimalEqual(t, dec("300000"), d.realizedGains, "realized gains")

	taxes := assessTaxes(d, dec("0"), domain.FilingStatusSingle)
	assertDecimalEqual(t, dec("37946.25"), taxes.capitalGainsTax, "gains tax")
	assert.True(t, taxes.ordinaryTax.IsZero())
	assert.True(t, taxes.ordinaryIncome.IsZero())
	assert.True(t, d.basis.Principal.IsZero())
}

func TestDrawdown_FullyTaxedPrincipalHasNoGain(t *testing.T) {
	d := drawdownWith(map[domain.AccountType]string{domain.AccountTypeTaxable: "100000"}, "")

	d.withdraw(domain.AccountTypeTaxable, dec("40000"))
	assert.True(t, d.realizedGains.IsZero())
	assertDecimalEqual(t, dec("60000"), d.basis.Principal, "principal")
}

func TestDrawdown_DrawInOrder(t *testing.T) {
	d := drawdownWith(map[domain.AccountType]string{
		domain.AccountTypeTaxable: "1000",
		domain.AccountType401k:    "5000",
		domain.AccountTypeRothIRA: "5000",
	}, "")

	remaining := d.drawInOrder(defaultDrawOrder, dec("3000"))
	assert.True(t, remaining.IsZero())
	assertDecimalEqual(t, dec("1000"), d.distributions.Get(domain.AccountTypeTaxable), "taxable")
	assertDecimalEqual(t, dec("2000"), d.distributions.Get(domain.AccountType401k), "401k")
	assert.True(t, d.distributions.Get(domain.AccountTypeRothIRA).IsZero())

	remaining = d.drawInOrder(defaultDrawOrder, dec("20000"))
	assertDecimalEqual(t, dec("12000"), remaining, "unmet")
	assert.True(t, d.balances.Total().IsZero())
}

func TestDrawdown_DrawProportional(t *testing.T) {
	d := drawdownWith(map[domain.AccountType]string{
		domain.AccountType401k:    "300",
		domain.AccountTypeRothIRA: "100",
	}, "")

	remaining := d.drawProportional(domain.AccountTypes, dec("200"))
	assert.True(t, remaining.IsZero())
	assertDecimalEqual(t, dec("150"), d.distributions.Get(domain.AccountType401k), "401k")
	assertDecimalEqual(t, dec("50"), d.distributions.Get(domain.AccountTypeRothIRA), "roth")

	remaining = d.drawProportional(domain.AccountTypes, dec("500"))
	assertDecimalEqual(t, dec("300"), remaining, "unmet")
	assert.True(t, d.balances.Total().IsZero())
}

func TestDrawdown_RemoveTraditionalIsNotADistribution(t *testing.T) {
	d := drawdownWith(map[domain.AccountType]string{
		domain.AccountType401k: "300",
		domain.AccountTypeIRA:  "100",
	}, "")

	moved := d.convertToRoth(dec("200"), dec("0.15"))
	assertDecimalEqual(t, dec("200"), moved, "moved")
	assertDecimalEqual(t, dec("150"), d.balances.Get(domain.AccountType401k), "401k")
	assertDecimalEqual(t, dec("50"), d.balances.Get(domain.AccountTypeIRA), "ira")
	assertDecimalEqual(t, dec("200"), d.balances.Get(domain.AccountTypeRothIRA), "roth")
	assertDecimalEqual(t, dec("30"), d.conversionTax, "conversion tax")
	assert.True(t, d.traditionalTaken().IsZero())
	assert.True(t, d.total().IsZero())

	given := d.donate(dec("1000"))
	assertDecimalEqual(t, dec("200"), given, "capped at the traditional pool")
	assertDecimalEqual(t, dec("200"), d.charitable, "charitable")
}

func TestDrawdown_TopUp(t *testing.T) {
	t.Run("roth first then taxable principal", func(t *testing.T) {
		d := drawdownWith(map[domain.AccountType]string{
			domain.AccountTypeRothIRA: "5000",
			domain.AccountTypeTaxable: "10000",
			domain.AccountType401k:    "10000",
		}, "")
		d.topUp(dec("7000"), dec("0"), domain.FilingStatusSingle)
		assertDecimalEqual(t, dec("5000"), d.distributions.Get(domain.AccountTypeRothIRA), "roth")
		assertDecimalEqual(t, dec("2000"), d.distributions.Get(domain.AccountTypeTaxable), "taxable")
		assert.True(t, d.traditionalTaken().IsZero())
	})

	t.Run("taxable grossed up on its gain share", func(t *testing.T) {
		d := drawdownWith(map[domain.AccountType]string{domain.AccountTypeTaxable: "10000"}, "5000")
		d.topUp(dec("925"), dec("100000"), domain.FilingStatusSingle)
		assertDecimalEqual(t, dec("1000"), d.distributions.Get(domain.AccountTypeTaxable), "taxable")
		assertDecimalEqual(t, dec("500"), d.realizedGains, "gains")
	})

	t.Run("traditional grossed up by marginal rate", func(t *testing.T) {
		d := drawdownWith(map[domain.AccountType]string{domain.AccountType401k: "100000"}, "")
		d.topUp(dec("880"), dec("60000"), domain.FilingStatusSingle)
		assertDecimalEqual(t, dec("1000"), d.traditionalTaken(), "traditional")
	})

	t.Run("hsa and other last", func(t *testing.T) {
		d := drawdownWith(map[domain.AccountType]string{
			domain.AccountTypeHSA:   "300",
			domain.AccountTypeOther: "300",
		}, "")
		d.topUp(dec("500"), dec("0"), domain.FilingStatusSingle)
		assertDecimalEqual(t, dec("300"), d.distributions.Get(domain.AccountTypeHSA), "hsa")
		assertDecimalEqual(t, dec("200"), d.distributions.Get(domain.AccountTypeOther), "other")
	})
}

func TestSettleTaxes_AmountBasedSkipsTopUp(t *testing.T) {
	d := drawdownWith(map[domain.AccountType]string{domain.AccountType401k: "100000"}, "")
	d.drawTraditional(dec("40000"))

	taxes, iterations, converged := settleTaxes(d, dec("0"), dec("0"), dec("60000"), domain.FilingStatusSingle, false)
	assert.True(t, converged)
	assert.Zero(t, iterations)
	assertDecimalEqual(t, dec("2816"), taxes.total(), "tax")
	assertDecimalEqual(t, dec("40000"), d.total(), "withdrawn")
}

func TestSettleTaxes_GrossUpReachesTarget(t *testing.T) {
	d := drawdownWith(map[domain.AccountType]string{domain.AccountType401k: "1000000"}, "")
	d.drawTraditional(dec("84000"))

	taxes, iterations, converged := settleTaxes(d, dec("0"), dec("0"), dec("84000"), domain.FilingStatusSingle, true)
	assert.True(t, converged)
	assert.Equal(t, 1, iterations)
	afterTax := d.total().Sub(taxes.total())
	assert.True(t, dec("84000").Sub(afterTax).LessThanOrEqual(GrossUpTolerance), "after tax %s", afterTax)
}
