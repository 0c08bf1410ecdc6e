package calculation

import (
	"testing"

	"github.com/rpgo/drawdown/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// TestProgressiveTax checks the 2024 ordinary ladders
func TestProgressiveTax(t *testing.T) {
	tests := []struct {
		name     string
		taxable  decimal.Decimal
		status   domain.FilingStatus
		expected decimal.Decimal
	}{
		{"zero income", decimal.Zero, domain.FilingStatusSingle, decimal.Zero},
		{"negative income", decimal.NewFromInt(-500), domain.FilingStatusSingle, decimal.Zero},
		{"first bracket only", decimal.NewFromInt(10000), domain.FilingStatusSingle, decimal.NewFromInt(1000)},
		{"single spans three brackets", decimal.NewFromInt(50000), domain.FilingStatusSingle, decimal.NewFromInt(6053)},
		{"joint spans three brackets", decimal.NewFromInt(100000), domain.FilingStatusMarriedFilingJointly, decimal.NewFromInt(12106)},
		{"head of household first bracket", decimal.NewFromInt(16550), domain.FilingStatusHeadOfHousehold, decimal.NewFromInt(1655)},
		{"unknown status falls back to single", decimal.NewFromInt(50000), domain.FilingStatus("nope"), decimal.NewFromInt(6053)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProgressiveTax(tt.taxable, tt.status)
			assert.True(t, got.Equal(tt.expected), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestProgressiveTax_TopBracketUnbounded(t *testing.T) {
	low := ProgressiveTax(decimal.NewFromInt(1000000), domain.FilingStatusSingle)
	high := ProgressiveTax(decimal.NewFromInt(1100000), domain.FilingStatusSingle)
	assert.True(t, high.Sub(low).Equal(decimal.NewFromInt(37000)), "top bracket is 37%%: %s", high.Sub(low))
}

func TestCapitalGainsTax(t *testing.T) {
	tests := []struct {
		name     string
		gains    decimal.Decimal
		status   domain.FilingStatus
		expected decimal.Decimal
	}{
		{"no gains", decimal.Zero, domain.FilingStatusSingle, decimal.Zero},
		{"inside zero tier", decimal.NewFromInt(40000), domain.FilingStatusSingle, decimal.Zero},
		{"scenario C gain", decimal.NewFromInt(300000), domain.FilingStatusSingle, decimal.NewFromFloat(37946.25)},
		{"reaches 20 percent tier", decimal.NewFromInt(600000), domain.FilingStatusSingle, decimal.NewFromFloat(87001.25)},
		{"joint zero tier is wider", decimal.NewFromInt(94050), domain.FilingStatusMarriedFilingJointly, decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CapitalGainsTax(tt.gains, tt.status)
			assert.True(t, got.Equal(tt.expected), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestEstimateRates(t *testing.T) {
	single := domain.FilingStatusSingle

	assert.True(t, EstimateMarginalRate(decimal.NewFromInt(10000), single).IsZero(), "below the deduction the next dollar is free")
	assert.True(t, EstimateMarginalRate(decimal.NewFromInt(14600), single).Equal(decimal.NewFromFloat(0.10)))
	assert.True(t, EstimateMarginalRate(decimal.NewFromInt(100000), single).Equal(decimal.NewFromFloat(0.22)))
	assert.True(t, EstimateMarginalRate(decimal.NewFromInt(2000000), single).Equal(decimal.NewFromFloat(0.37)))

	assert.True(t, EstimateCapitalGainsRate(decimal.NewFromInt(50000), single).IsZero())
	assert.True(t, EstimateCapitalGainsRate(decimal.NewFromInt(100000), single).Equal(decimal.NewFromFloat(0.15)))
	assert.True(t, EstimateCapitalGainsRate(decimal.NewFromInt(900000), single).Equal(decimal.NewFromFloat(0.20)))
}

func TestStandardDeductionAndCeiling(t *testing.T) {
	assert.True(t, StandardDeduction(domain.FilingStatusMarriedFilingJointly).Equal(decimal.NewFromInt(29200)))
	assert.True(t, StandardDeduction(domain.FilingStatusHeadOfHousehold).Equal(decimal.NewFromInt(21900)))
	assert.True(t, BracketCeiling(decimal.NewFromFloat(0.12), domain.FilingStatusSingle).Equal(decimal.NewFromInt(47150)))
	assert.True(t, BracketCeiling(decimal.NewFromFloat(0.12), domain.FilingStatusMarriedFilingJointly).Equal(decimal.NewFromInt(94300)))
	assert.True(t, BracketCeiling(decimal.NewFromFloat(0.99), domain.FilingStatusSingle).IsZero())
}

func TestTaxTablesCoverEveryStatus(t *testing.T) {
	for _, status := range domain.FilingStatuses {
		table, ok := taxTables2024[status]
		assert.True(t, ok, "missing table for %s", status)
		assert.Len(t, table.Ordinary, 7)
		assert.Len(t, table.CapitalGains, 3)
		assert.True(t, table.Ordinary[len(table.Ordinary)-1].Max.IsZero(), "top bracket must be unbounded")
	}
}
