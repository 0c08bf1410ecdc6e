package calculation

import (
	"testing"

	"github.com/rpgo/drawdown/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	k401    = domain.AccountType401k
	ira     = domain.AccountTypeIRA
	roth    = domain.AccountTypeRothIRA
	hsa     = domain.AccountTypeHSA
	taxable = domain.AccountTypeTaxable
	other   = domain.AccountTypeOther
)

func TestNewWithdrawalStrategy_ResolvesEveryType(t *testing.T) {
	amountBased := map[domain.StrategyType]bool{
		domain.StrategyFourPercentRule:      true,
		domain.StrategyFixedPercentage:      true,
		domain.StrategyFixedDollar:          true,
		domain.StrategySystematicWithdrawal: true,
		domain.StrategyGuardrails:           true,
	}
	for _, st := range domain.StrategyTypes {
		t.Run(string(st), func(t *testing.T) {
			s := NewWithdrawalStrategy(domain.StrategyConfig{Type: st}, domain.FilingStatusSingle)
			require.NotNil(t, s)
			assert.Equal(t, st, s.Type())
			assert.Equal(t, amountBased[st], s.AmountBased())
		})
	}

	t.Run("unknown falls back to goal based", func(t *testing.T) {
		s := NewWithdrawalStrategy(domain.StrategyConfig{Type: "mystery"}, domain.FilingStatusSingle)
		assert.Equal(t, domain.StrategyGoalBased, s.Type())
	})
}

func TestNewWithdrawalStrategy_Parameters(t *testing.T) {
	bt := NewWithdrawalStrategy(domain.StrategyConfig{Type: domain.StrategyBracketTopping}, domain.FilingStatusMarriedFilingJointly)
	assertDecimalEqual(t, dec("94300"), bt.(BracketTopping).Threshold, "default threshold")

	bt = NewWithdrawalStrategy(domain.StrategyConfig{Type: domain.StrategyBracketTopping, BracketThreshold: decPtr("20000")}, domain.FilingStatusSingle)
	assertDecimalEqual(t, dec("20000"), bt.(BracketTopping).Threshold, "configured threshold")

	fp := NewWithdrawalStrategy(domain.StrategyConfig{Type: domain.StrategyFixedPercentage}, domain.FilingStatusSingle)
	assertDecimalEqual(t, dec("0.04"), fp.(FixedPercentage).Rate, "default rate")

	g := NewWithdrawalStrategy(domain.StrategyConfig{Type: domain.StrategyGuardrails, FixedPercentage: decPtr("0.06")}, domain.FilingStatusSingle)
	assertDecimalEqual(t, dec("0.06"), g.(Guardrails).InitialRate, "guardrail rate")
	assertDecimalEqual(t, dec("0.2"), g.(Guardrails).Ceiling, "guardrail ceiling")
}

func TestGoalBased_Order(t *testing.T) {
	tests := []struct {
		name      string
		priority  domain.GoalPriority
		secondary domain.GoalPriority
		years     int
		rmdTaken  string
		expected  []domain.AccountType
	}{
		{"default", domain.PriorityDefault, "", 0, "0", []domain.AccountType{taxable, k401, ira, hsa, other, roth}},
		{"longevity", domain.PriorityLongevity, "", 0, "0", []domain.AccountType{taxable, hsa, k401, ira, other, roth}},
		{"legacy", domain.PriorityLegacy, "", 0, "0", []domain.AccountType{k401, ira, hsa, other, roth, taxable}},
		{"sequence risk early", domain.PrioritySequenceRisk, domain.PriorityLegacy, 5, "0", []domain.AccountType{taxable, roth, k401, ira, hsa, other}},
		{"sequence risk late", domain.PrioritySequenceRisk, domain.PriorityLegacy, 25, "0", []domain.AccountType{k401, ira, hsa, other, roth, taxable}},
		{"healthcare", domain.PriorityHealthcare, "", 0, "0", []domain.AccountType{hsa, taxable, k401, ira, other, roth}},
		{"roth first after rmd", domain.PriorityDefault, "", 0, "100", []domain.AccountType{roth, taxable, k401, ira, hsa, other}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := GoalBased{Priority: tt.priority, Secondary: tt.secondary}
			order := g.Order(WithdrawalRequest{YearsIntoRetirement: tt.years, RMDTaken: dec(tt.rmdTaken)})
			assert.Equal(t, tt.expected, order)
		})
	}
}

func TestAmountTargets(t *testing.T) {
	h := &strategyHistory{retirementPortfolio: dec("1000000"), captured: true}

	four := FourPercentRule{}.Target(WithdrawalRequest{InflationRate: dec("0.03"), YearsIntoRetirement: 2, history: h})
	assertDecimalEqual(t, dec("42436"), four, "four percent rule")

	fixed := FixedPercentage{Rate: dec("0.05")}.Target(WithdrawalRequest{PortfolioValue: dec("500000")})
	assertDecimalEqual(t, dec("25000"), fixed, "fixed percentage")

	swp := SystematicWithdrawal{}.Target(WithdrawalRequest{PortfolioValue: dec("800000"), GrowthRate: dec("0.04")})
	assertDecimalEqual(t, dec("32000"), swp, "systematic withdrawal")

	dollar := FixedDollar{Amount: dec("-10")}.Target(WithdrawalRequest{})
	assert.True(t, dollar.IsZero())
}

func TestAmountBased_DrawsTargetLessRMD(t *testing.T) {
	d := drawdownWith(map[domain.AccountType]string{taxable: "100000"}, "")
	FixedDollar{Amount: dec("40000")}.Withdraw(WithdrawalRequest{RMDTaken: dec("30000")}, d)
	assertDecimalEqual(t, dec("10000"), d.distributions.Get(taxable), "taxable")

	d = drawdownWith(map[domain.AccountType]string{taxable: "100000"}, "")
	FixedDollar{Amount: dec("40000")}.Withdraw(WithdrawalRequest{RMDTaken: dec("50000")}, d)
	assert.True(t, d.total().IsZero())
}

func TestGuardrails(t *testing.T) {
	g := Guardrails{InitialRate: dec("0.05"), Ceiling: dec("0.2"), Floor: dec("0.2")}

	tests := []struct {
		name      string
		portfolio string
		expected  string
	}{
		{"within band keeps inflated withdrawal", "1000000", "51500"},
		{"above ceiling cuts", "700000", "46350"},
		{"below floor raises", "1500000", "56650"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &strategyHistory{retirementPortfolio: dec("1000000"), captured: true}
			d := drawdownWith(map[domain.AccountType]string{taxable: "2000000"}, "")
			g.Withdraw(WithdrawalRequest{PortfolioValue: dec("1000000"), history: h}, d)
			assertDecimalEqual(t, dec("50000"), d.distributions.Get(taxable), "first year")
			require.True(t, h.withdrawn)

			next := g.Target(WithdrawalRequest{PortfolioValue: dec(tt.portfolio), InflationRate: dec("0.03"), history: h})
			assertDecimalEqual(t, dec(tt.expected), next, "second year")
		})
	}
}

func TestProportional_Withdraw(t *testing.T) {
	d := drawdownWith(map[domain.AccountType]string{k401: "300", roth: "100"}, "")
	Proportional{}.Withdraw(WithdrawalRequest{Need: dec("200")}, d)
	assertDecimalEqual(t, dec("150"), d.distributions.Get(k401), "401k")
	assertDecimalEqual(t, dec("50"), d.distributions.Get(roth), "roth")
}

func TestBracketTopping_Withdraw(t *testing.T) {
	s := BracketTopping{Threshold: dec("47150")}
	tests := []struct {
		name     string
		ordinary string
		need     string
		trad     string
		taxable  string
	}{
		{"fills bracket past need", "20000", "10000", "41750", "0"},
		{"remaining need from taxable", "20000", "60000", "41750", "18250"},
		{"bracket already full", "80000", "10000", "0", "10000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := drawdownWith(map[domain.AccountType]string{k401: "100000", taxable: "50000"}, "")
			s.Withdraw(WithdrawalRequest{
				OrdinaryIncome: dec(tt.ordinary),
				Need:           dec(tt.need),
				FilingStatus:   domain.FilingStatusSingle,
			}, d)
			assertDecimalEqual(t, dec(tt.trad), d.traditionalTaken(), "traditional")
			assertDecimalEqual(t, dec(tt.taxable), d.distributions.Get(taxable), "taxable")
		})
	}
}

func TestBucket_Order(t *testing.T) {
	b := Bucket{}
	assert.Equal(t, []domain.AccountType{taxable, hsa, k401, ira, other, roth}, b.Order(0))
	assert.Equal(t, []domain.AccountType{k401, ira, taxable, hsa, other, roth}, b.Order(5))
	assert.Equal(t, []domain.AccountType{roth, taxable, k401, ira, hsa, other}, b.Order(12))
}

func TestFloorUpside_Withdraw(t *testing.T) {
	d := drawdownWith(map[domain.AccountType]string{taxable: "100000", roth: "100000"}, "")
	FloorUpside{EssentialShare: dec("0.7")}.Withdraw(WithdrawalRequest{
		Expenses:         dec("100000"),
		GuaranteedIncome: dec("30000"),
		Need:             dec("70000"),
	}, d)
	assertDecimalEqual(t, dec("40000"), d.distributions.Get(taxable), "floor")
	assertDecimalEqual(t, dec("30000"), d.distributions.Get(roth), "upside")
}

func TestRothConversionBridge_Withdraw(t *testing.T) {
	s := RothConversionBridge{Share: dec("0.1"), Cap: dec("10000"), TaxRate: dec("0.15")}

	d := drawdownWith(map[domain.AccountType]string{k401: "200000"}, "")
	s.Withdraw(WithdrawalRequest{Age: 66}, d)
	assertDecimalEqual(t, dec("10000"), d.converted, "capped conversion")
	assertDecimalEqual(t, dec("1500"), d.conversionTax, "conversion tax")
	assertDecimalEqual(t, dec("190000"), d.balances.Get(k401), "401k")
	assertDecimalEqual(t, dec("10000"), d.balances.Get(roth), "roth")
	assert.True(t, d.total().IsZero())

	d = drawdownWith(map[domain.AccountType]string{ira: "50000"}, "")
	s.Withdraw(WithdrawalRequest{Age: 70}, d)
	assertDecimalEqual(t, dec("5000"), d.converted, "share of balance")

	d = drawdownWith(map[domain.AccountType]string{k401: "200000"}, "")
	s.Withdraw(WithdrawalRequest{Age: 74}, d)
	assert.True(t, d.converted.IsZero())
}

func TestQCD_SatisfyRMD(t *testing.T) {
	q := QCD{Share: dec("0.5"), Cap: dec("100000")}

	d := drawdownWith(map[domain.AccountType]string{ira: "500000"}, "")
	q.satisfyRMD(dec("40000"), d)
	assertDecimalEqual(t, dec("20000"), d.charitable, "charitable")
	assertDecimalEqual(t, dec("20000"), d.traditionalTaken(), "taxable rmd")
	assertDecimalEqual(t, dec("460000"), d.balances.Get(ira), "ira")

	d = drawdownWith(map[domain.AccountType]string{ira: "1000000"}, "")
	q.satisfyRMD(dec("300000"), d)
	assertDecimalEqual(t, dec("100000"), d.charitable, "capped charitable")
	assertDecimalEqual(t, dec("200000"), d.traditionalTaken(), "taxable rmd")
}
