package calculation

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/rpgo/drawdown/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMonteCarlo_RequiresSimulations(t *testing.T) {
	_, err := RunMonteCarloSimulation(context.Background(), baseInput(), MonteCarloConfig{})
	assert.ErrorIs(t, err, ErrNoSimulations)
}

func TestMonteCarlo_SameSeedSameResultAcrossWorkers(t *testing.T) {
	defer goleak.VerifyNone(t)

	in := richInput(domain.StrategyGoalBased)
	serial, err := RunMonteCarloSimulation(context.Background(), in, MonteCarloConfig{NumSimulations: 40, Seed: 42, Workers: 1})
	require.NoError(t, err)
	parallel, err := RunMonteCarloSimulation(context.Background(), in, MonteCarloConfig{NumSimulations: 40, Seed: 42, Workers: 8})
	require.NoError(t, err)

	a, err := json.Marshal(serial)
	require.NoError(t, err)
	b, err := json.Marshal(parallel)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))

	require.Len(t, serial.Results, 40)
	assert.Equal(t, 40, serial.Summary.NumSimulations)
	assert.Equal(t, int64(42), serial.Summary.Seed)
	for i, r := range serial.Results {
		assert.Equal(t, i, r.Run)
		assert.False(t, r.GrowthRateBeforeRetirement.IsNegative())
		assert.False(t, r.GrowthRateDuringRetirement.IsNegative())
		assert.Equal(t, in.LastAge()-(in.Settings.CurrentYear-in.BirthYear)+1, r.Years)
	}
	assert.True(t, serial.Summary.SuccessRate.GreaterThanOrEqual(dec("0")))
	assert.True(t, serial.Summary.SuccessRate.LessThanOrEqual(dec("1")))
	assert.True(t, serial.Summary.MinFinalNetWorth.LessThanOrEqual(serial.Summary.MedianFinalNetWorth))
	assert.True(t, serial.Summary.MedianFinalNetWorth.LessThanOrEqual(serial.Summary.MaxFinalNetWorth))
}

func TestMonteCarlo_DifferentSeedsDiffer(t *testing.T) {
	in := richInput(domain.StrategyGoalBased)
	a, err := RunMonteCarloSimulation(context.Background(), in, MonteCarloConfig{NumSimulations: 5, Seed: 1})
	require.NoError(t, err)
	b, err := RunMonteCarloSimulation(context.Background(), in, MonteCarloConfig{NumSimulations: 5, Seed: 2})
	require.NoError(t, err)
	assert.False(t, a.Results[0].GrowthRateDuringRetirement.Equal(b.Results[0].GrowthRateDuringRetirement))
}

func TestMonteCarlo_ZeroSeedUsesSeedFunc(t *testing.T) {
	restore := SetSeedFunc(func() int64 { return 7 })
	defer restore()

	result, err := RunMonteCarloSimulation(context.Background(), baseInput(), MonteCarloConfig{NumSimulations: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.Summary.Seed)

	again, err := RunMonteCarloSimulation(context.Background(), baseInput(), MonteCarloConfig{NumSimulations: 3, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, result.Summary, again.Summary)
}

func TestMonteCarlo_CanceledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunMonteCarloSimulation(ctx, richInput(domain.StrategyGoalBased), MonteCarloConfig{NumSimulations: 20, Seed: 1, Workers: 4})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMonteCarlo_EngineUsesLogger(t *testing.T) {
	engine := NewCalculationEngine()
	engine.SetLogger(nil)
	result, err := engine.RunMonteCarloSimulation(context.Background(), baseInput(), MonteCarloConfig{NumSimulations: 2, Seed: 3})
	require.NoError(t, err)
	assert.Len(t, result.Results, 2)
}

func TestSummarize(t *testing.T) {
	runs := []domain.MonteCarloRun{
		{FinalNetWorth: dec("4"), MinNetWorth: dec("1"), NegativeCashFlowYears: 1, TotalTaxes: dec("10"), Success: true},
		{FinalNetWorth: dec("1"), MinNetWorth: dec("0"), NegativeCashFlowYears: 3, TotalTaxes: dec("20"), Success: false},
		{FinalNetWorth: dec("3"), MinNetWorth: dec("2"), NegativeCashFlowYears: 0, TotalTaxes: dec("30"), Success: true},
		{FinalNetWorth: dec("2"), MinNetWorth: dec("1"), NegativeCashFlowYears: 0, TotalTaxes: dec("40"), Success: true},
	}
	s := summarize(runs)

	assert.Equal(t, 4, s.NumSimulations)
	assertDecimalEqual(t, dec("0.75"), s.SuccessRate, "success rate")
	assertDecimalEqual(t, dec("2.5"), s.MeanFinalNetWorth, "mean")
	assertDecimalEqual(t, dec("2.5"), s.MedianFinalNetWorth, "median")
	assertDecimalEqual(t, dec("1"), s.MinFinalNetWorth, "min")
	assertDecimalEqual(t, dec("4"), s.MaxFinalNetWorth, "max")
	assertDecimalEqual(t, dec("1"), s.MeanMinNetWorth, "mean min")
	assertDecimalEqual(t, dec("1"), s.MeanNegativeCashFlowYears, "negative years")
	assertDecimalEqual(t, dec("25"), s.MeanTotalTaxes, "taxes")
	assertDecimalEqual(t, dec("2"), s.Percentiles.P25, "p25")
	assertDecimalEqual(t, dec("4"), s.Percentiles.P75, "p75")
	assertDecimalEqual(t, dec("4"), s.Percentiles.P95, "p95")

	assert.Equal(t, domain.MonteCarloSummary{}, summarize(nil))
}

func TestMedian(t *testing.T) {
	assert.True(t, median(nil).IsZero())
	assertDecimalEqual(t, dec("2"), median([]decimal.Decimal{dec("1"), dec("2"), dec("9")}), "odd")
	assertDecimalEqual(t, dec("5"), median([]decimal.Decimal{dec("1"), dec("9")}), "even")
}

func TestClassifyRun(t *testing.T) {
	draw := growthDraw{before: dec("0.05"), during: dec("0.04")}
	row := func(netWorth, gap string) domain.ProjectionDetail {
		return domain.ProjectionDetail{NetWorth: dec(netWorth), GapExcess: dec(gap), TaxOwed: dec("10")}
	}

	failed := classifyRun(3, draw, []domain.ProjectionDetail{row("100", "-1"), row("50", "0"), row("80", "0")})
	assert.Equal(t, 3, failed.Run)
	assert.Equal(t, 1, failed.NegativeCashFlowYears)
	assertDecimalEqual(t, dec("50"), failed.MinNetWorth, "min")
	assertDecimalEqual(t, dec("80"), failed.FinalNetWorth, "final")
	assertDecimalEqual(t, dec("30"), failed.TotalTaxes, "taxes")
	assert.False(t, failed.Success, "one negative year in three exceeds the limit")

	rows := make([]domain.ProjectionDetail, 10)
	for i := range rows {
		rows[i] = row("100", "0")
	}
	rows[4] = row("100", "-5")
	assert.True(t, classifyRun(0, draw, rows).Success)

	rows[9] = row("0", "0")
	assert.False(t, classifyRun(0, draw, rows).Success, "zero final net worth fails")
}

func TestPerturb(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	clamped := perturb(rng, dec("-5"), 0.01)
	assert.True(t, clamped.IsZero())
	assert.Equal(t, int32(-6), clamped.Exponent(), "clamped draws keep six places")

	for i := 0; i < 100; i++ {
		r := perturb(rng, dec("0.05"), PreRetirementGrowthStdDev)
		assert.False(t, r.IsNegative())
		assert.LessOrEqual(t, r.Exponent(), int32(0))
		assert.GreaterOrEqual(t, r.Exponent(), int32(-6))
	}
	assert.Equal(t, 0.0, boxMullerTransform(1, 0.25))
}
