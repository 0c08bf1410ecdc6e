package calculation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/rpgo/drawdown/internal/domain"
	"github.com/rpgo/drawdown/pkg/money"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Monte Carlo perturbation and success parameters.
const (
	PreRetirementGrowthStdDev = 0.15
	RetirementGrowthStdDev    = 0.12
	NegativeCashFlowYearLimit = 0.20
	DefaultMonteCarloWorkers  = 8
)

// ErrNoSimulations is returned when fewer than one run is requested.
var ErrNoSimulations = errors.New("number of simulations must be positive")

// MonteCarloConfig holds configuration for Monte Carlo simulations. A zero
// Seed asks the seed provider for one; Workers bounds parallel runs.
type MonteCarloConfig struct {
	NumSimulations int
	Seed           int64
	Workers        int
}

// growthDraw is one run's perturbed growth assumptions.
type growthDraw struct {
	before decimal.Decimal
	during decimal.Decimal
}

type monteCarloSimulator struct {
	logger Logger
}

func newMonteCarloSimulator(logger Logger) *monteCarloSimulator {
	if logger == nil {
		logger = NopLogger{}
	}
	return &monteCarloSimulator{logger: logger}
}

// RunMonteCarloSimulation runs perturbed projections without logging.
func RunMonteCarloSimulation(ctx context.Context, in domain.ProjectionInput, cfg MonteCarloConfig) (*domain.MonteCarloResult, error) {
	return newMonteCarloSimulator(NopLogger{}).run(ctx, in, cfg)
}

func (mcs *monteCarloSimulator) run(ctx context.Context, in domain.ProjectionInput, cfg MonteCarloConfig) (*domain.MonteCarloResult, error) {
	if cfg.NumSimulations <= 0 {
		return nil, ErrNoSimulations
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = seedFunc()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultMonteCarloWorkers
	}

	// Draw every run's rates up front from one seeded source so results do
	// not depend on scheduling.
	rng := rand.New(rand.NewSource(seed))
	draws := make([]growthDraw, cfg.NumSimulations)
	for i := range draws {
		draws[i] = growthDraw{
			before: perturb(rng, in.Settings.GrowthRateBeforeRetirement, PreRetirementGrowthStdDev),
			during: perturb(rng, in.Settings.GrowthRateDuringRetirement, RetirementGrowthStdDev),
		}
	}

	results := make([]domain.MonteCarloRun, cfg.NumSimulations)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range draws {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = mcs.runSingleSimulation(i, in, draws[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("monte carlo simulation: %w", err)
	}

	summary := summarize(results)
	summary.Seed = seed
	mcs.logger.Infof("monte carlo: %d runs, seed %d, success rate %s",
		summary.NumSimulations, seed, money.Percent(summary.SuccessRate))
	return &domain.MonteCarloResult{Results: results, Summary: summary}, nil
}

// runSingleSimulation runs one projection with its own balances and basis.
func (mcs *monteCarloSimulator) runSingleSimulation(index int, in domain.ProjectionInput, draw growthDraw) domain.MonteCarloRun {
	perturbed := in
	perturbed.Settings.GrowthRateBeforeRetirement = draw.before
	perturbed.Settings.GrowthRateDuringRetirement = draw.during
	rows := newProjection(perturbed, withPrefix(mcs.logger, "run %d", index)).run()
	return classifyRun(index, draw, rows)
}

// classifyRun reduces a ledger to the statistics the summary needs. A run
// succeeds when it ends with positive net worth and fewer than 20% of its
// years had negative cash flow.
func classifyRun(index int, draw growthDraw, rows []domain.ProjectionDetail) domain.MonteCarloRun {
	r := domain.MonteCarloRun{
		Run:                        index,
		GrowthRateBeforeRetirement: draw.before,
		GrowthRateDuringRetirement: draw.during,
		Years:                      len(rows),
	}
	for i, row := range rows {
		if i == 0 || row.NetWorth.LessThan(r.MinNetWorth) {
			r.MinNetWorth = row.NetWorth
		}
		if row.GapExcess.IsNegative() {
			r.NegativeCashFlowYears++
		}
		r.TotalTaxes = r.TotalTaxes.Add(row.TaxOwed)
	}
	if n := len(rows); n > 0 {
		r.FinalNetWorth = rows[n-1].NetWorth
	}
	limit := NegativeCashFlowYearLimit * float64(r.Years)
	r.Success = r.FinalNetWorth.IsPositive() && float64(r.NegativeCashFlowYears) < limit
	return r
}

// perturb draws a normal deviate around mean and clamps it at zero.
func perturb(rng *rand.Rand, mean decimal.Decimal, stdDev float64) decimal.Decimal {
	// 1 - Float64 keeps u1 in (0, 1] so the log is finite.
	z := boxMullerTransform(1-rng.Float64(), rng.Float64())
	return money.NonNegative(mean.Add(decimal.NewFromFloat(z * stdDev))).Round(6)
}

// boxMullerTransform implements Box-Muller transform for normal distribution
func boxMullerTransform(u1, u2 float64) float64 {
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// summarize aggregates run outcomes.
func summarize(runs []domain.MonteCarloRun) domain.MonteCarloSummary {
	n := len(runs)
	s := domain.MonteCarloSummary{NumSimulations: n}
	if n == 0 {
		return s
	}
	count := decimal.NewFromInt(int64(n))
	finals := make([]decimal.Decimal, n)
	successes := 0
	var sumFinal, sumMin, sumNegative, sumTaxes decimal.Decimal
	for i, r := range runs {
		finals[i] = r.FinalNetWorth
		if r.Success {
			successes++
		}
		sumFinal = sumFinal.Add(r.FinalNetWorth)
		sumMin = sumMin.Add(r.MinNetWorth)
		sumNegative = sumNegative.Add(decimal.NewFromInt(int64(r.NegativeCashFlowYears)))
		sumTaxes = sumTaxes.Add(r.TotalTaxes)
	}
	sort.Slice(finals, func(i, j int) bool { return finals[i].LessThan(finals[j]) })

	s.SuccessRate = decimal.NewFromInt(int64(successes)).Div(count).Round(4)
	s.MeanFinalNetWorth = money.Cents(sumFinal.Div(count))
	s.MedianFinalNetWorth = money.Cents(median(finals))
	s.MinFinalNetWorth = finals[0]
	s.MaxFinalNetWorth = finals[n-1]
	s.MeanMinNetWorth = money.Cents(sumMin.Div(count))
	s.MeanNegativeCashFlowYears = sumNegative.Div(count).Round(2)
	s.MeanTotalTaxes = money.Cents(sumTaxes.Div(count))
	s.Percentiles = domain.PercentileRanges{
		P25: finals[n*25/100],
		P75: finals[n*75/100],
		P90: finals[n*90/100],
		P95: finals[n*95/100],
	}
	return s
}

// median expects sorted values.
func median(sorted []decimal.Decimal) decimal.Decimal {
	n := len(sorted)
	if n == 0 {
		return decimal.Zero
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return sorted[n/2-1].Add(sorted[n/2]).Div(decimal.NewFromInt(2))
}
