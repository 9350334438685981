// Package api serves planning results over HTTP: a small JSON API for
// persisted runs and the latest cycle, plus tsweb debug pages (cost
// heatmap, plot, live SQL).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/banshee-data/roadmatrix/internal/environment"
	"github.com/banshee-data/roadmatrix/internal/httputil"
	"github.com/banshee-data/roadmatrix/internal/monitoring"
	"github.com/banshee-data/roadmatrix/internal/planning/pipeline"
	"github.com/banshee-data/roadmatrix/internal/storage/sqlite"
	"github.com/banshee-data/roadmatrix/internal/units"
	"github.com/banshee-data/roadmatrix/internal/version"
	"github.com/banshee-data/roadmatrix/internal/visualiser"
	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

var httpLogf = monitoring.Prefixed("http")

// Server exposes a Planner and, optionally, its RunStore.
type Server struct {
	planner *pipeline.Planner
	store   *sqlite.RunStore // may be nil
	units   string

	mu  sync.Mutex
	env *environment.Environment
}

// NewServer returns a Server. store may be nil, in which case the run
// endpoints answer 404. Velocities are reported in displayUnits.
func NewServer(planner *pipeline.Planner, store *sqlite.RunStore, displayUnits string) *Server {
	if !units.IsValid(displayUnits) {
		displayUnits = units.MPS
	}
	return &Server{planner: planner, store: store, units: displayUnits}
}

// SetEnvironment records the environment of the latest cycle so debug
// plots can draw its obstacles.
func (s *Server) SetEnvironment(env *environment.Environment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env = env
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		httpLogf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the JSON API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/plan/last", s.showLastPlan)
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.showRun)
	mux.HandleFunc("GET /api/version", s.showVersion)
	return mux
}

// AttachDebugRoutes mounts the planner debug pages, and the live SQL
// console when a store is configured, under /debug/.
func (s *Server) AttachDebugRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)
	debug.Handle("planner/last", "Latest planned trajectory (JSON)", http.HandlerFunc(s.showLastPlan))
	debug.Handle("planner/heatmap", "Cost heatmap of the latest cycle", http.HandlerFunc(s.showHeatmap))
	debug.Handle("planner/plot.png", "Plot of the latest cycle", http.HandlerFunc(s.showPlot))

	if s.store == nil {
		return nil
	}
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://runs.db", s.store.DB(), &tailsql.DBOptions{
		Label: "Planner runs",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
	return nil
}

// pointJSON is a trajectory point with velocity in display units.
type pointJSON struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	DirX     float64 `json:"dir_x"`
	DirY     float64 `json:"dir_y"`
	Velocity float64 `json:"velocity"`
	Offset   float64 `json:"offset"`
}

func (s *Server) pointsJSON(traj []environment.TrajectoryPoint) []pointJSON {
	out := make([]pointJSON, len(traj))
	for i, p := range traj {
		out[i] = pointJSON{
			X:        p.Position.X,
			Y:        p.Position.Y,
			DirX:     p.Direction.X,
			DirY:     p.Direction.Y,
			Velocity: units.ConvertSpeed(p.Velocity, s.units),
			Offset:   p.DistanceToMiddleLane,
		}
	}
	return out
}

type planJSON struct {
	PlannedAt      time.Time   `json:"planned_at"`
	DurationMs     float64     `json:"duration_ms"`
	GridLength     int         `json:"grid_length"`
	GridWidth      int         `json:"grid_width"`
	TotalCost      float64     `json:"total_cost"`
	PieceCost      int         `json:"piece_cost"`
	TransitionCost float64     `json:"transition_cost"`
	Units          string      `json:"units"`
	Points         []pointJSON `json:"points"`
}

func (s *Server) showLastPlan(w http.ResponseWriter, r *http.Request) {
	res := s.planner.Last()
	if res == nil {
		httputil.NotFound(w, "no planning cycle has completed yet")
		return
	}
	httputil.WriteJSONOK(w, planJSON{
		PlannedAt:      res.PlanAt.UTC(),
		DurationMs:     float64(res.Duration.Nanoseconds()) / 1e6,
		GridLength:     res.Matrix.Length(),
		GridWidth:      res.Matrix.Width(),
		TotalCost:      res.Search.TotalCost,
		PieceCost:      res.Search.PieceCost,
		TransitionCost: res.Search.TransitionCost,
		Units:          s.units,
		Points:         s.pointsJSON(res.Points),
	})
}

type runJSON struct {
	RunID          string          `json:"run_id"`
	CreatedAt      time.Time       `json:"created_at"`
	Config         json.RawMessage `json:"config,omitempty"`
	GridLength     int             `json:"grid_length"`
	GridWidth      int             `json:"grid_width"`
	VehicleWidth   int             `json:"vehicle_width"`
	TotalCost      float64         `json:"total_cost"`
	PieceCost      int             `json:"piece_cost"`
	TransitionCost float64         `json:"transition_cost"`
	PointCount     int             `json:"point_count"`
	Units          string          `json:"units,omitempty"`
	Points         []pointJSON     `json:"points,omitempty"`
}

func (s *Server) runJSON(run *sqlite.Run, withPoints bool) runJSON {
	out := runJSON{
		RunID:          run.RunID,
		CreatedAt:      time.Unix(0, run.CreatedAtNs).UTC(),
		GridLength:     run.GridLength,
		GridWidth:      run.GridWidth,
		VehicleWidth:   run.VehicleWidth,
		TotalCost:      run.TotalCost,
		PieceCost:      run.PieceCost,
		TransitionCost: run.TransitionCost,
		PointCount:     run.Trajectory.Len(),
	}
	if withPoints {
		out.Config = run.ConfigJSON
		out.Units = s.units
		out.Points = s.pointsJSON(run.Trajectory)
	}
	return out
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		httputil.NotFound(w, "run storage is not enabled")
		return
	}

	limit := 50 // default value
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	runs, err := s.store.ListRuns(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to list runs: %v", err))
		return
	}
	out := make([]runJSON, len(runs))
	for i, run := range runs {
		out[i] = s.runJSON(run, false)
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) showRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		httputil.NotFound(w, "run storage is not enabled")
		return
	}
	run, err := s.store.GetRun(r.PathValue("id"))
	if errors.Is(err, sqlite.ErrRunNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to get run: %v", err))
		return
	}
	httputil.WriteJSONOK(w, s.runJSON(run, true))
}

func (s *Server) lastScene() (visualiser.Scene, bool) {
	res := s.planner.Last()
	if res == nil {
		return visualiser.Scene{}, false
	}
	s.mu.Lock()
	env := s.env
	s.mu.Unlock()
	title := fmt.Sprintf("Plan at %s", res.PlanAt.UTC().Format(time.RFC3339))
	return visualiser.SceneFromResult(title, res, env), true
}

func (s *Server) showHeatmap(w http.ResponseWriter, r *http.Request) {
	scene, ok := s.lastScene()
	if !ok {
		httputil.NotFound(w, "no planning cycle has completed yet")
		return
	}
	httputil.WriteRendered(w, "text/html; charset=utf-8", func(out io.Writer) error {
		return visualiser.WriteHeatmapHTML(out, scene)
	})
}

func (s *Server) showPlot(w http.ResponseWriter, r *http.Request) {
	scene, ok := s.lastScene()
	if !ok {
		httputil.NotFound(w, "no planning cycle has completed yet")
		return
	}
	httputil.WriteRendered(w, "image/png", func(out io.Writer) error {
		return visualiser.WritePNG(out, scene)
	})
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}
