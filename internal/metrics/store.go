package metrics

import (
	"database/sql"
	"fmt"
	"time"

	"mealplan-optimizer/internal/shared"
)

// SolveMetric records metadata for a single optimizer stage run.
type SolveMetric struct {
	Stage       string
	Status      string
	LatencyMS   int64
	Nodes       int
	Generations int
	Objective   float64
	HorizonDays int
	Timestamp   time.Time
}

// Store handles persistence of solve metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(m SolveMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO solve_metrics
			(stage, status, latency_ms, nodes, generations, objective, horizon_days, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Stage, m.Status, m.LatencyMS, m.Nodes, m.Generations, m.Objective, m.HorizonDays, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to insert solve metric: %w", err)
	}
	return nil
}

// RecordMeta records metrics directly from shared.SolveMeta.
func (s *Store) RecordMeta(horizonDays int, meta shared.SolveMeta) error {
	return s.Record(SolveMetric{
		Stage:       meta.Stage,
		Status:      meta.Status,
		LatencyMS:   meta.Latency.Milliseconds(),
		Nodes:       meta.Nodes,
		Generations: meta.Generations,
		Objective:   meta.Objective,
		HorizonDays: horizonDays,
		Timestamp:   time.Now().UTC(),
	})
}

// DailyUsage represents solve totals for a single day.
type DailyUsage struct {
	Date         string
	Solves       int
	ExactRuns    int
	GeneticRuns  int
	AvgLatencyMS float64
}

// GetDailyUsage retrieves usage for the last N days.
func (s *Store) GetDailyUsage(days int) ([]DailyUsage, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.db.Query(`
		SELECT date(timestamp) AS day,
		       COUNT(*),
		       SUM(CASE WHEN stage = 'exact' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN stage = 'genetic' THEN 1 ELSE 0 END),
		       AVG(latency_ms)
		FROM solve_metrics
		WHERE timestamp >= ?
		GROUP BY day
		ORDER BY day`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var u DailyUsage
		var avg sql.NullFloat64
		if err := rows.Scan(&u.Date, &u.Solves, &u.ExactRuns, &u.GeneticRuns, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage row: %w", err)
		}
		if avg.Valid {
			u.AvgLatencyMS = avg.Float64
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days and
// returns how many were deleted.
func (s *Store) Cleanup(olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	res, err := s.db.Exec(`DELETE FROM solve_metrics WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up solve metrics: %w", err)
	}
	return res.RowsAffected()
}
