// Package store persists projection ledgers and Monte Carlo summaries in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpgo/drawdown/internal/domain"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

// ErrScenarioNotFound is returned when no ledger is stored under an id.
var ErrScenarioNotFound = errors.New("scenario not found")

var nowFunc = func() time.Time { return time.Now().UTC() }

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite-backed ledger store. Ledger rows are keyed by
// (scenario_id, year); saving a year again replaces it.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// ScenarioInfo describes one stored scenario.
type ScenarioInfo struct {
	ID          string
	PlanName    string
	Strategy    domain.StrategyType
	Years       int
	FirstYear   int
	LastYear    int
	HasSummary  bool
	UpdatedAt   time.Time
	FinalWealth decimal.Decimal
}

// NewScenarioID returns a fresh random scenario id.
func NewScenarioID() string {
	return uuid.NewString()
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: SQLite serializes writers and :memory: is per connection
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS scenarios (
			id         TEXT PRIMARY KEY,
			plan_name  TEXT NOT NULL,
			strategy   TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS projections (
			scenario_id TEXT NOT NULL,
			year        INTEGER NOT NULL,
			age         INTEGER NOT NULL,
			phase       TEXT NOT NULL,
			tax_owed    TEXT NOT NULL,
			gap_excess  TEXT NOT NULL,
			net_worth   TEXT NOT NULL,
			detail_json TEXT NOT NULL,
			PRIMARY KEY (scenario_id, year),
			FOREIGN KEY (scenario_id) REFERENCES scenarios(id)
		)`,
		`CREATE TABLE IF NOT EXISTS monte_carlo_summaries (
			scenario_id     TEXT PRIMARY KEY,
			num_simulations INTEGER NOT NULL,
			seed            INTEGER NOT NULL,
			success_rate    TEXT NOT NULL,
			summary_json    TEXT NOT NULL,
			updated_at      TEXT NOT NULL,
			FOREIGN KEY (scenario_id) REFERENCES scenarios(id)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// upsertScenario records the scenario header, keeping its creation time.
func upsertScenario(ctx context.Context, tx *sql.Tx, id, planName string, strategy domain.StrategyType) error {
	now := nowFunc().Format(timeLayout)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO scenarios (id, plan_name, strategy, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			plan_name  = excluded.plan_name,
			strategy   = excluded.strategy,
			updated_at = excluded.updated_at
	`, id, planName, string(strategy), now, now)
	if err != nil {
		return fmt.Errorf("failed to save scenario %s: %w", id, err)
	}
	return nil
}

// SaveProjection stores every ledger row of report under scenarioID. Years
// outside the new ledger are removed so a shorter re-run leaves no stale rows.
func (s *Store) SaveProjection(ctx context.Context, scenarioID string, report *domain.Report) error {
	if scenarioID == "" {
		return errors.New("scenario id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertScenario(ctx, tx, scenarioID, report.PlanName, report.Strategy); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO projections (scenario_id, year, age, phase, tax_owed, gap_excess, net_worth, detail_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scenario_id, year) DO UPDATE SET
			age         = excluded.age,
			phase       = excluded.phase,
			tax_owed    = excluded.tax_owed,
			gap_excess  = excluded.gap_excess,
			net_worth   = excluded.net_worth,
			detail_json = excluded.detail_json
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare ledger insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range report.Projection {
		detail, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to encode year %d: %w", row.Year, err)
		}
		if _, err := stmt.ExecContext(ctx, scenarioID, row.Year, row.Age, string(row.Phase),
			row.TaxOwed.String(), row.GapExcess.String(), row.NetWorth.String(), string(detail)); err != nil {
			return fmt.Errorf("failed to save year %d: %w", row.Year, err)
		}
	}

	prune, args := `DELETE FROM projections WHERE scenario_id = ?`, []any{scenarioID}
	if n := len(report.Projection); n > 0 {
		prune += ` AND (year < ? OR year > ?)`
		args = append(args, report.Projection[0].Year, report.Projection[n-1].Year)
	}
	if _, err := tx.ExecContext(ctx, prune, args...); err != nil {
		return fmt.Errorf("failed to prune ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger: %w", err)
	}
	return nil
}

// SaveMonteCarloSummary stores the aggregate Monte Carlo statistics of a scenario.
func (s *Store) SaveMonteCarloSummary(ctx context.Context, scenarioID, planName string, strategy domain.StrategyType, summary domain.MonteCarloSummary) error {
	if scenarioID == "" {
		return errors.New("scenario id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertScenario(ctx, tx, scenarioID, planName, strategy); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO monte_carlo_summaries (scenario_id, num_simulations, seed, success_rate, summary_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(scenario_id) DO UPDATE SET
			num_simulations = excluded.num_simulations,
			seed            = excluded.seed,
			success_rate    = excluded.success_rate,
			summary_json    = excluded.summary_json,
			updated_at      = excluded.updated_at
	`, scenarioID, summary.NumSimulations, summary.Seed, summary.SuccessRate.String(), string(encoded),
		nowFunc().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit summary: %w", err)
	}
	return nil
}

// LoadProjection returns the stored ledger of a scenario in year order, with
// its Monte Carlo summary attached when one was saved.
func (s *Store) LoadProjection(ctx context.Context, scenarioID string) (*domain.Report, error) {
	report := &domain.Report{ScenarioID: scenarioID}
	var strategy string
	err := s.db.QueryRowContext(ctx, `SELECT plan_name, strategy FROM scenarios WHERE id = ?`, scenarioID).
		Scan(&report.PlanName, &strategy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, scenarioID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario %s: %w", scenarioID, err)
	}
	report.Strategy = domain.StrategyType(strategy)

	rows, err := s.db.QueryContext(ctx, `SELECT detail_json FROM projections WHERE scenario_id = ? ORDER BY year`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var detail string
		if err := rows.Scan(&detail); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		var row domain.ProjectionDetail
		if err := json.Unmarshal([]byte(detail), &row); err != nil {
			return nil, fmt.Errorf("failed to decode ledger row: %w", err)
		}
		report.Projection = append(report.Projection, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	summary, err := s.LoadMonteCarloSummary(ctx, scenarioID)
	switch {
	case err == nil:
		report.MonteCarlo = &domain.MonteCarloResult{Summary: *summary}
	case !errors.Is(err, ErrScenarioNotFound):
		return nil, err
	}
	return report, nil
}

// LoadMonteCarloSummary returns the stored summary of a scenario.
func (s *Store) LoadMonteCarloSummary(ctx context.Context, scenarioID string) (*domain.MonteCarloSummary, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx, `SELECT summary_json FROM monte_carlo_summaries WHERE scenario_id = ?`, scenarioID).
		Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s has no Monte Carlo summary", ErrScenarioNotFound, scenarioID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}
	var summary domain.MonteCarloSummary
	if err := json.Unmarshal([]byte(encoded), &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	return &summary, nil
}

// ListScenarios returns every stored scenario, most recently updated first.
func (s *Store) ListScenarios(ctx context.Context) ([]ScenarioInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.plan_name, s.strategy, s.updated_at,
			COUNT(p.year), COALESCE(MIN(p.year), 0), COALESCE(MAX(p.year), 0),
			(SELECT net_worth FROM projections WHERE scenario_id = s.id ORDER BY year DESC LIMIT 1),
			EXISTS (SELECT 1 FROM monte_carlo_summaries m WHERE m.scenario_id = s.id)
		FROM scenarios s
		LEFT JOIN projections p ON p.scenario_id = s.id
		GROUP BY s.id
		ORDER BY s.updated_at DESC, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var out []ScenarioInfo
	for rows.Next() {
		var (
			info              ScenarioInfo
			strategy, updated string
			finalWealth       sql.NullString
			hasSummary        int
		)
		if err := rows.Scan(&info.ID, &info.PlanName, &strategy, &updated,
			&info.Years, &info.FirstYear, &info.LastYear, &finalWealth, &hasSummary); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		info.Strategy = domain.StrategyType(strategy)
		info.HasSummary = hasSummary == 1
		if info.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
			return nil, fmt.Errorf("scenario %s: bad timestamp %q: %w", info.ID, updated, err)
		}
		if finalWealth.Valid {
			if info.FinalWealth, err = decimal.NewFromString(finalWealth.String); err != nil {
				return nil, fmt.Errorf("scenario %s: bad net worth %q: %w", info.ID, finalWealth.String, err)
			}
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteScenario removes a scenario with its ledger and summary.
func (s *Store) DeleteScenario(ctx context.Context, scenarioID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM projections WHERE scenario_id = ?`,
		`DELETE FROM monte_carlo_summaries WHERE scenario_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, scenarioID); err != nil {
			return fmt.Errorf("failed to delete scenario %s: %w", scenarioID, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ?`, scenarioID)
	if err != nil {
		return fmt.Errorf("failed to delete scenario %s: %w", scenarioID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrScenarioNotFound, scenarioID)
	}
	return tx.Commit()
}
