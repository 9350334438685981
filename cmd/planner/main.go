// Command planner runs planning cycles over an offline scenario, prints
// the chosen trajectory and optionally persists, renders or serves it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/banshee-data/roadmatrix/internal/api"
	"github.com/banshee-data/roadmatrix/internal/config"
	"github.com/banshee-data/roadmatrix/internal/environment"
	"github.com/banshee-data/roadmatrix/internal/fsutil"
	"github.com/banshee-data/roadmatrix/internal/planning/pipeline"
	"github.com/banshee-data/roadmatrix/internal/scenario"
	"github.com/banshee-data/roadmatrix/internal/security"
	"github.com/banshee-data/roadmatrix/internal/storage/sqlite"
	"github.com/banshee-data/roadmatrix/internal/units"
	"github.com/banshee-data/roadmatrix/internal/version"
	"github.com/banshee-data/roadmatrix/internal/visualiser"
)

var (
	configPath   = flag.String("config", "", "Planner config JSON (default: built-in defaults, or "+config.DefaultConfigPath+" if present)")
	scenarioPath = flag.String("scenario", "config/scenarios/obstacle.json", "Scenario to plan (.json, or .bin environment snapshot)")
	dbPath       = flag.String("db", "", "SQLite database to record runs in (empty disables persistence)")
	pngPath      = flag.String("png", "", "Write a plot of the planned cycle to this PNG file")
	htmlPath     = flag.String("html", "", "Write a cost heatmap of the planned cycle to this HTML file")
	saveEnv      = flag.String("save-env", "", "Write the scenario environment as a .bin snapshot")
	outDir       = flag.String("out-dir", "", "Write <scenario>.png and <scenario>.html into this directory")
	cycles       = flag.Int("cycles", 1, "Number of planning cycles to run")
	displayUnits = flag.String("units", units.MPS, "Velocity units for output (mps, mph, kmph, kph)")
	listen       = flag.String("listen", "", "Serve the API and debug pages on this address after planning")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// options mirrors the flags so run can be driven from tests.
type options struct {
	ConfigPath   string
	ScenarioPath string
	DBPath       string
	PNGPath      string
	HTMLPath     string
	SaveEnv      string
	OutDir       string
	Cycles       int
	Units        string
	Listen       string
}

func optionsFromFlags() options {
	return options{
		ConfigPath:   *configPath,
		ScenarioPath: *scenarioPath,
		DBPath:       *dbPath,
		PNGPath:      *pngPath,
		HTMLPath:     *htmlPath,
		SaveEnv:      *saveEnv,
		OutDir:       *outDir,
		Cycles:       *cycles,
		Units:        *displayUnits,
		Listen:       *listen,
	}
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("%s", version.String())
	if err := run(ctx, optionsFromFlags(), fsutil.OSFileSystem{}, os.Stdout); err != nil {
		log.Fatalf("planner: %v", err)
	}
}

// loadTuning resolves the planner config: an explicit path must load,
// otherwise the canonical defaults file is used when present.
func loadTuning(path string) (*config.PlannerConfig, error) {
	if path != "" {
		return config.LoadPlannerConfig(path)
	}
	if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		return config.LoadPlannerConfig(config.DefaultConfigPath)
	}
	return config.DefaultPlannerConfig(), nil
}

// outputPaths fills in render paths from OutDir and checks every output
// stays under the working or temp directory.
func (o *options) outputPaths(scenarioName string) error {
	if o.OutDir != "" {
		stem := filepath.Join(o.OutDir, security.SanitizeFilename(scenarioName))
		if o.PNGPath == "" {
			o.PNGPath = stem + ".png"
		}
		if o.HTMLPath == "" {
			o.HTMLPath = stem + ".html"
		}
	}
	for _, p := range []string{o.PNGPath, o.HTMLPath, o.SaveEnv} {
		if p == "" {
			continue
		}
		if err := security.ValidateExportPath(p); err != nil {
			return fmt.Errorf("invalid output path: %w", err)
		}
	}
	return nil
}

func run(ctx context.Context, opts options, fsys fsutil.FileSystem, out io.Writer) error {
	if !units.IsValid(opts.Units) {
		return fmt.Errorf("invalid units %q, valid: %s", opts.Units, units.GetValidUnitsString())
	}
	if opts.Cycles < 1 {
		return fmt.Errorf("cycles must be at least 1, got %d", opts.Cycles)
	}

	tuning, err := loadTuning(opts.ConfigPath)
	if err != nil {
		return err
	}
	cfg, err := pipeline.ConfigFromTuning(tuning)
	if err != nil {
		return err
	}

	sc, err := scenario.LoadFrom(fsys, opts.ScenarioPath)
	if err != nil {
		return err
	}
	if err := opts.outputPaths(sc.Name); err != nil {
		return err
	}
	if opts.SaveEnv != "" {
		if err := sc.WriteEnvironment(fsys, opts.SaveEnv); err != nil {
			return fmt.Errorf("failed to save environment: %w", err)
		}
		log.Printf("saved environment snapshot to %s", opts.SaveEnv)
	}

	var store *sqlite.RunStore
	var sinks []pipeline.ResultSink
	if opts.DBPath != "" {
		store, err = sqlite.Open(opts.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	planner := pipeline.New(cfg, sinks...)

	// Each cycle extends the same trajectory, as a controller would see it.
	var traj environment.Trajectory
	var res *pipeline.Result
	for i := 0; i < opts.Cycles; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err = planner.Plan(sc.Input(), &traj)
		if err != nil {
			return err
		}
	}
	printSummary(out, sc.Name, res, opts.Units)
	fmt.Fprintf(out, "trajectory holds %d points after %d cycles\n", traj.Len(), opts.Cycles)

	scene := visualiser.SceneFromResult(sc.Name, res, sc.Environment)
	if opts.PNGPath != "" {
		if err := render(fsys, opts.PNGPath, func(w io.Writer) error { return visualiser.WritePNG(w, scene) }); err != nil {
			return err
		}
		log.Printf("wrote plot to %s", opts.PNGPath)
	}
	if opts.HTMLPath != "" {
		if err := render(fsys, opts.HTMLPath, func(w io.Writer) error { return visualiser.WriteHeatmapHTML(w, scene) }); err != nil {
			return err
		}
		log.Printf("wrote heatmap to %s", opts.HTMLPath)
	}

	if opts.Listen == "" {
		return nil
	}
	server := api.NewServer(planner, store, opts.Units)
	server.SetEnvironment(sc.Environment)
	return serve(ctx, opts.Listen, server)
}

func render(fsys fsutil.FileSystem, path string, draw func(io.Writer) error) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := draw(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, name string, res *pipeline.Result, displayUnits string) {
	fmt.Fprintf(w, "scenario %q: %d steps x %d cells, cost %.2f (pieces %d, transitions %.2f) in %v\n",
		name, res.Matrix.Length(), res.Matrix.Width(),
		res.Search.TotalCost, res.Search.PieceCost, res.Search.TransitionCost, res.Duration)
	fmt.Fprintf(w, "%5s %9s %9s %9s %8s %s\n", "step", "x", "y", "offset", displayUnits, "side")
	for i, p := range res.Points {
		side := "left"
		switch {
		case p.IsRight():
			side = "right"
		case p.DistanceToMiddleLane == 0:
			side = "centre"
		}
		fmt.Fprintf(w, "%5d %9.3f %9.3f %9.3f %8.2f %s\n",
			i, p.Position.X, p.Position.Y, p.DistanceToMiddleLane,
			units.ConvertSpeed(p.Velocity, displayUnits), side)
	}
}

func serve(ctx context.Context, addr string, server *api.Server) error {
	mux := server.ServeMux()
	if err := server.AttachDebugRoutes(mux); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: api.LoggingMiddleware(mux),
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("serving planner API on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Printf("Graceful shutdown complete")
	return nil
}
