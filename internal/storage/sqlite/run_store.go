package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/roadmatrix/internal/encoding"
	"github.com/banshee-data/roadmatrix/internal/environment"
	"github.com/banshee-data/roadmatrix/internal/planning/pipeline"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted planning cycle.
type Run struct {
	RunID          string          `json:"run_id"`
	CreatedAtNs    int64           `json:"created_at_ns"`
	ConfigJSON     json.RawMessage `json:"config,omitempty"`
	GridLength     int             `json:"grid_length"`
	GridWidth      int             `json:"grid_width"`
	VehicleWidth   int             `json:"vehicle_width"`
	TotalCost      float64         `json:"total_cost"`
	PieceCost      int             `json:"piece_cost"`
	TransitionCost float64         `json:"transition_cost"`
	DurationNs     int64           `json:"duration_ns"`

	Trajectory environment.Trajectory `json:"trajectory"`
}

// RunStore manages persistence for planner runs.
type RunStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema.
func Open(path string) (*RunStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if err := MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return NewRunStore(db), nil
}

// NewRunStore wraps an already-migrated database.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// DB returns the underlying database handle.
func (s *RunStore) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// InsertRun stores run. If run.RunID is empty a new UUID is generated; if
// run.CreatedAtNs is zero the current time is used.
func (s *RunStore) InsertRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAtNs == 0 {
		run.CreatedAtNs = time.Now().UnixNano()
	}

	blob := encoding.MarshalTrajectory(run.Trajectory)

	query := `
		INSERT INTO planner_runs (
			run_id, created_at_ns, config_json, grid_length, grid_width,
			vehicle_width, total_cost, piece_cost, transition_cost,
			point_count, trajectory, duration_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		run.RunID,
		run.CreatedAtNs,
		nullString(string(run.ConfigJSON)),
		run.GridLength,
		run.GridWidth,
		run.VehicleWidth,
		run.TotalCost,
		run.PieceCost,
		run.TransitionCost,
		run.Trajectory.Len(),
		blob,
		run.DurationNs,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const runColumns = `
	run_id, created_at_ns, config_json, grid_length, grid_width,
	vehicle_width, total_cost, piece_cost, transition_cost,
	trajectory, duration_ns
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var configJSON sql.NullString
	var blob []byte
	if err := row.Scan(
		&run.RunID,
		&run.CreatedAtNs,
		&configJSON,
		&run.GridLength,
		&run.GridWidth,
		&run.VehicleWidth,
		&run.TotalCost,
		&run.PieceCost,
		&run.TransitionCost,
		&blob,
		&run.DurationNs,
	); err != nil {
		return nil, err
	}
	if configJSON.Valid && configJSON.String != "" {
		run.ConfigJSON = json.RawMessage(configJSON.String)
	}
	traj, err := encoding.UnmarshalTrajectory(blob)
	if err != nil {
		return nil, fmt.Errorf("decode trajectory of run %s: %w", run.RunID, err)
	}
	run.Trajectory = traj
	return &run, nil
}

// GetRun retrieves a run by ID.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM planner_runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (s *RunStore) ListRuns(limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM planner_runs ORDER BY created_at_ns DESC, run_id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// HandleResult persists a successful planning cycle. It makes RunStore a
// pipeline.ResultSink.
func (s *RunStore) HandleResult(cfg pipeline.Config, res *pipeline.Result) error {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return s.InsertRun(RunFromResult(configJSON, cfg.VehicleWidth, res))
}

// RunFromResult builds an unsaved Run from a pipeline result.
func RunFromResult(configJSON []byte, vehicleWidth int, res *pipeline.Result) *Run {
	return &Run{
		CreatedAtNs:    res.PlanAt.UnixNano(),
		ConfigJSON:     configJSON,
		GridLength:     res.Matrix.Length(),
		GridWidth:      res.Matrix.Width(),
		VehicleWidth:   vehicleWidth,
		TotalCost:      res.Search.TotalCost,
		PieceCost:      res.Search.PieceCost,
		TransitionCost: res.Search.TransitionCost,
		DurationNs:     res.Duration.Nanoseconds(),
		Trajectory:     environment.Trajectory(res.Points),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
