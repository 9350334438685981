package pipeline

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/banshee-data/roadmatrix/internal/config"
	"github.com/banshee-data/roadmatrix/internal/environment"
	"github.com/banshee-data/roadmatrix/internal/geom"
	"github.com/banshee-data/roadmatrix/internal/planning/l1grid"
	"github.com/banshee-data/roadmatrix/internal/planning/l2cost"
	"github.com/banshee-data/roadmatrix/internal/planning/l3pieces"
	"github.com/banshee-data/roadmatrix/internal/planning/l4search"
	"github.com/banshee-data/roadmatrix/internal/planning/l5trajectory"
	"github.com/banshee-data/roadmatrix/internal/testutil"
	"github.com/banshee-data/roadmatrix/internal/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func straightLine() geom.Polyline {
	return testutil.StraightLine(10, 1)
}

// scenarioConfig is lane width 2, two cells per lane, a two-cell vehicle.
func scenarioConfig(deviation float64) Config {
	return Config{
		Grid:         l1grid.GridConfig{LaneWidth: 2, CellsPerLane: 2},
		Cost:         l2cost.CostConfig{ObstacleBadness: 100, LaneDeviationWeight: deviation},
		VehicleWidth: 2,
		Value:        l3pieces.Sum,
		Search:       l4search.SearchConfig{TransitionPenalty: 1},
		Velocity:     l5trajectory.VelocityConfig{Cruise: 2, StraightCurve: 1.5, Curve: 1},
	}
}

func TestPlan_AllZeroCostStaysCentred(t *testing.T) {
	testutil.MuteLogs(t)
	p := New(scenarioConfig(0))

	var traj environment.Trajectory
	res, err := p.Plan(Input{Centerline: straightLine()}, &traj)
	require.NoError(t, err)

	require.Equal(t, 9, traj.Len())
	for x, piece := range res.Search.Pieces {
		assert.Zero(t, piece.CenterHalfCells, "step %d", x)
	}
	for i, pt := range traj {
		assert.InDelta(t, 0, pt.DistanceToMiddleLane, 1e-9, "point %d", i)
		assert.InDelta(t, float64(i), pt.Position.X, 1e-9)
		assert.Equal(t, 2.0, pt.Velocity)
	}
	assert.Equal(t, traj, environment.Trajectory(res.Points))
	assert.Same(t, res, p.Last())
}

func TestPlan_DetoursAndReturnsToCentre(t *testing.T) {
	testutil.MuteLogs(t)
	p := New(scenarioConfig(1))

	var traj environment.Trajectory
	res, err := p.Plan(Input{
		Centerline: straightLine(),
		Writers:    []l2cost.Writer{l2cost.Rect(3, 5, 1, 2, 100)},
	}, &traj)
	require.NoError(t, err)

	pieces := res.Search.Pieces
	for x := range pieces {
		if x >= 3 && x <= 5 {
			assert.NotZero(t, pieces[x].CenterHalfCells, "step %d should detour", x)
			assert.NotZero(t, traj[x].DistanceToMiddleLane)
		} else {
			assert.Zero(t, pieces[x].CenterHalfCells, "step %d should be centred", x)
		}
	}

	// Score the all-centred alternative on the same matrix.
	pm, err := l3pieces.Build(res.Matrix, 2, l3pieces.Sum)
	require.NoError(t, err)
	centred := make(l3pieces.Trajectory, pm.Length())
	for x := range pm {
		centred[x] = pm[x][1]
	}
	pc, tc := l4search.PathCost(centred, 1)
	assert.Less(t, res.Search.TotalCost, float64(pc)+tc)
}

func TestPlan_ObstacleFromEnvironment(t *testing.T) {
	testutil.MuteLogs(t)
	p := New(scenarioConfig(1))

	env := &environment.Environment{}
	env.Add(environment.NewObstacle([]r2.Vec{{X: 4.2, Y: 0.2}, {X: 4.8, Y: 0.8}}))

	var traj environment.Trajectory
	res, err := p.Plan(Input{Centerline: straightLine(), Environment: env}, &traj)
	require.NoError(t, err)

	assert.Equal(t, 100.0, res.Matrix.Cell(4, 1).Badness())
	// The obstacle sits left of centre at step 4, so the vehicle moves right.
	assert.True(t, traj[4].IsRight())
	assert.InDelta(t, -1, traj[4].Position.Y, 1e-9)
	assert.InDelta(t, 0, traj[3].DistanceToMiddleLane, 1e-9)
	assert.InDelta(t, 0, traj[5].DistanceToMiddleLane, 1e-9)
	assert.Equal(t, 12.0, res.Search.TotalCost)
}

func TestPlan_MiddleLaneFallback(t *testing.T) {
	testutil.MuteLogs(t)
	p := New(scenarioConfig(0))

	env := &environment.Environment{}
	env.Add(environment.Lane{Type: environment.LaneLeft, Points: geom.Polyline{{Y: 5}, {X: 9, Y: 5}}})
	env.Add(environment.Lane{Type: environment.LaneMiddle, Points: straightLine()})

	var traj environment.Trajectory
	_, err := p.Plan(Input{Environment: env}, &traj)
	require.NoError(t, err)
	assert.Equal(t, 9, traj.Len())
	assert.InDelta(t, 0, traj[0].Position.Y, 1e-9)
}

func TestPlan_RoadStateVelocity(t *testing.T) {
	testutil.MuteLogs(t)
	p := New(scenarioConfig(0))

	env := &environment.Environment{}
	env.Add(environment.RoadStates{States: []environment.RoadState{
		{Type: environment.RoadStateStraight, StartDistance: 0, EndDistance: 4, Probability: 0.9},
		{Type: environment.RoadStateCurve, StartDistance: 4.5, EndDistance: 9, Probability: 0.7, Curvature: 2},
	}})

	var traj environment.Trajectory
	_, err := p.Plan(Input{Centerline: straightLine(), Environment: env}, &traj)
	require.NoError(t, err)
	assert.Equal(t, 2.0, traj[0].Velocity)
	assert.Equal(t, 0.5, traj[6].Velocity)

	var fixed environment.Trajectory
	_, err = p.Plan(Input{Centerline: straightLine(), Environment: env, Velocity: l5trajectory.ConstantVelocity(7)}, &fixed)
	require.NoError(t, err)
	assert.Equal(t, 7.0, fixed[6].Velocity)
}

func TestPlan_Failures(t *testing.T) {
	testutil.MuteLogs(t)

	prior := environment.NewTrajectoryPoint()
	tests := []struct {
		name  string
		cfg   Config
		in    Input
		stage Stage
		kind  error
	}{
		{
			name:  "vehicle wider than road",
			cfg:   func() Config { c := scenarioConfig(0); c.VehicleWidth = 5; return c }(),
			in:    Input{Centerline: straightLine()},
			stage: StagePieces,
			kind:  ErrInfeasibleGrid,
		},
		{
			name:  "degenerate centerline",
			cfg:   scenarioConfig(0),
			in:    Input{Centerline: geom.Polyline{{X: 0}, {X: 0.5}}},
			stage: StageGrid,
			kind:  ErrEmptyGrid,
		},
		{
			name:  "no centerline",
			cfg:   scenarioConfig(0),
			in:    Input{},
			stage: StageGrid,
			kind:  ErrConfiguration,
		},
		{
			name:  "bad cells per lane",
			cfg:   func() Config { c := scenarioConfig(0); c.Grid.CellsPerLane = 0; return c }(),
			in:    Input{Centerline: straightLine()},
			stage: StageGrid,
			kind:  ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			traj := environment.Trajectory{prior}

			res, err := p.Plan(tt.in, &traj)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.kind)

			var pe *PlanError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.stage, pe.Stage)

			assert.Equal(t, environment.Trajectory{prior}, traj, "failed cycle must not append")
			assert.Nil(t, p.Last())
		})
	}

	_, err := New(scenarioConfig(0)).Plan(Input{Centerline: straightLine()}, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestPlan_StampsWithClock(t *testing.T) {
	testutil.MuteLogs(t)
	base := time.Date(2024, 5, 4, 9, 30, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(base)
	clock.Step = 2 * time.Millisecond

	p := New(scenarioConfig(0))
	p.SetClock(clock)
	var traj environment.Trajectory
	res, err := p.Plan(Input{Centerline: straightLine()}, &traj)
	require.NoError(t, err)
	assert.Equal(t, base, res.PlanAt)
	assert.Equal(t, 2*time.Millisecond, res.Duration)
}

type recordingSink struct {
	mu      sync.Mutex
	results []*Result
	err     error
}

func (s *recordingSink) HandleResult(_ Config, res *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, res)
	return s.err
}

func TestPlan_Sinks(t *testing.T) {
	logs := testutil.MuteLogs(t)
	ok := &recordingSink{}
	failing := &recordingSink{err: errors.New("disk full")}
	p := New(scenarioConfig(0), failing, ok)

	var traj environment.Trajectory
	res, err := p.Plan(Input{Centerline: straightLine()}, &traj)
	require.NoError(t, err, "sink errors do not fail the cycle")
	require.Len(t, ok.results, 1)
	assert.Same(t, res, ok.results[0])
	assert.Len(t, failing.results, 1)

	assert.True(t, logs.Contains("[planner] sink"), "sink failure should be logged: %v", logs.Lines())
	assert.True(t, logs.Contains("disk full"), "sink failure should be logged: %v", logs.Lines())
}

func TestPlan_ConcurrentCyclesAreIsolated(t *testing.T) {
	testutil.MuteLogs(t)
	p := New(scenarioConfig(1))

	const n = 8
	var wg sync.WaitGroup
	trajs := make([]environment.Trajectory, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = p.Plan(Input{
				Centerline: straightLine(),
				Writers:    []l2cost.Writer{l2cost.Rect(3, 5, 1, 2, 100)},
			}, &trajs[i])
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, trajs[0], trajs[i])
	}
}

func TestConfigFromTuning(t *testing.T) {
	cfg, err := ConfigFromTuning(nil)
	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg.Grid.LaneWidth)
	assert.Equal(t, 4, cfg.Grid.CellsPerLane)
	assert.Equal(t, 4, cfg.VehicleWidth)
	assert.Equal(t, config.AggregateSum, cfg.Aggregation)
	assert.NotNil(t, cfg.Value)
	assert.Equal(t, 2.0, cfg.Velocity.Cruise)

	bad := config.EmptyPlannerConfig()
	cpl := 0
	bad.CellsPerLane = &cpl
	_, err = ConfigFromTuning(bad)
	assert.ErrorIs(t, err, ErrConfiguration)

	assert.Equal(t, cfg.Grid, DefaultConfig().Grid)
}

func TestPlan_DefaultConfigEndToEnd(t *testing.T) {
	testutil.MuteLogs(t)
	p := New(DefaultConfig())

	var traj environment.Trajectory
	res, err := p.Plan(Input{Centerline: geom.Polyline{{X: 0}, {X: 4}}}, &traj)
	require.NoError(t, err)
	assert.Equal(t, 20, res.Matrix.Length())
	assert.Equal(t, 8, res.Matrix.Width())
	require.Len(t, traj, 20)
	// An even vehicle width on an even grid centres exactly.
	for i, pt := range traj {
		assert.InDelta(t, 0, pt.DistanceToMiddleLane, 1e-9, "point %d", i)
	}
}
