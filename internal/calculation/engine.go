package calculation

import (
	"context"

	"github.com/rpgo/drawdown/internal/domain"
)

// CalculationEngine runs projections and Monte Carlo simulations with a shared
// logger.
type CalculationEngine struct {
	Logger Logger
}

// NewCalculationEngine creates an engine that logs nothing.
func NewCalculationEngine() *CalculationEngine {
	return &CalculationEngine{Logger: NopLogger{}}
}

// SetLogger sets the logger for the calculation engine. If nil is provided, a no-op logger is used.
func (ce *CalculationEngine) SetLogger(l Logger) {
	if l == nil {
		ce.Logger = NopLogger{}
		return
	}
	ce.Logger = l
}

// CalculateRetirementProjections runs one deterministic projection.
func (ce *CalculationEngine) CalculateRetirementProjections(in domain.ProjectionInput) []domain.ProjectionDetail {
	rows := newProjection(in, ce.Logger).run()
	if n := len(rows); n > 0 {
		ce.Logger.Infof("projected %d years (%d-%d), final net worth %s",
			n, rows[0].Year, rows[n-1].Year, rows[n-1].NetWorth.StringFixed(2))
	}
	return rows
}

// RunMonteCarloSimulation runs cfg.NumSimulations perturbed projections.
func (ce *CalculationEngine) RunMonteCarloSimulation(ctx context.Context, in domain.ProjectionInput, cfg MonteCarloConfig) (*domain.MonteCarloResult, error) {
	return newMonteCarloSimulator(ce.Logger).run(ctx, in, cfg)
}
