package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/roadmatrix/internal/environment"
	"github.com/banshee-data/roadmatrix/internal/geom"
	"github.com/banshee-data/roadmatrix/internal/monitoring"
	"github.com/banshee-data/roadmatrix/internal/planning/l1grid"
	"github.com/banshee-data/roadmatrix/internal/planning/l2cost"
	"github.com/banshee-data/roadmatrix/internal/planning/l3pieces"
	"github.com/banshee-data/roadmatrix/internal/planning/l4search"
	"github.com/banshee-data/roadmatrix/internal/planning/l5trajectory"
	"github.com/banshee-data/roadmatrix/internal/timeutil"
)

var plannerLogf = monitoring.Prefixed("planner")

// Input is everything one planning cycle consumes.
type Input struct {
	// Centerline to plan around. When empty the middle lane of
	// Environment is used.
	Centerline  geom.Polyline
	Environment *environment.Environment

	// Writers run after the built-in cost writers, in order.
	Writers []l2cost.Writer

	// Velocity overrides the road-state velocity policy when set.
	Velocity l5trajectory.VelocityFunc
}

// Result is the outcome of one successful planning cycle.
type Result struct {
	Matrix   *l1grid.RoadMatrix
	Search   l4search.Result
	Points   []environment.TrajectoryPoint // the points appended this cycle
	Duration time.Duration
	PlanAt   time.Time
}

// ResultSink receives every successful cycle, e.g. to persist or publish
// it. Sinks run while the planner lock is held and must not call back
// into the Planner.
type ResultSink interface {
	HandleResult(cfg Config, res *Result) error
}

// Planner runs planning cycles. A cycle is atomic: concurrent calls to
// Plan are serialised, so no two cycles share a road matrix.
type Planner struct {
	mu    sync.Mutex
	cfg   Config
	sinks []ResultSink
	last  *Result
	clock timeutil.Clock
}

// New returns a Planner using cfg. Sinks are called in order after each
// successful cycle.
func New(cfg Config, sinks ...ResultSink) *Planner {
	if cfg.Value == nil {
		cfg.Value = l3pieces.Sum
	}
	return &Planner{cfg: cfg, sinks: sinks, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock used to stamp and time cycles.
func (p *Planner) SetClock(c timeutil.Clock) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock = c
}

// Config returns the planner configuration.
func (p *Planner) Config() Config {
	return p.cfg
}

// Last returns the most recent successful result, or nil.
func (p *Planner) Last() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Plan runs one full cycle and extends traj with the planned points. On
// failure traj is left unchanged and the error is a *PlanError naming the
// failing stage. Sink errors are logged and do not fail the cycle.
func (p *Planner) Plan(in Input, traj *environment.Trajectory) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := p.clock.Now()
	if traj == nil {
		return nil, stageErr(StageReconstruct, fmt.Errorf("%w: nil trajectory", ErrConfiguration))
	}
	env := in.Environment
	if env == nil {
		env = &environment.Environment{}
	}

	line := in.Centerline
	if len(line) == 0 {
		if lane, ok := env.Lane(environment.LaneMiddle); ok {
			line = lane.Points
		}
	}

	m, err := l1grid.Build(line, p.cfg.Grid)
	if err != nil {
		return nil, stageErr(StageGrid, err)
	}

	writers := append(p.cfg.Cost.Writers(env.Obstacles()), in.Writers...)
	l2cost.Apply(m, writers...)

	pm, err := l3pieces.Build(m, p.cfg.VehicleWidth, p.cfg.Value)
	if err != nil {
		return nil, stageErr(StagePieces, err)
	}

	sr, err := l4search.Search(pm, p.cfg.Search)
	if err != nil {
		return nil, stageErr(StageSearch, err)
	}

	velocity := in.Velocity
	if velocity == nil {
		velocity = p.velocityFor(env.RoadStates())
	}
	before := traj.Len()
	if _, err := l5trajectory.Fill(m, sr.Pieces, traj, velocity); err != nil {
		return nil, stageErr(StageReconstruct, err)
	}

	res := &Result{
		Matrix:   m,
		Search:   sr,
		Points:   append([]environment.TrajectoryPoint(nil), (*traj)[before:]...),
		Duration: p.clock.Since(start),
		PlanAt:   start,
	}
	p.last = res

	plannerLogf("cycle grid=%dx%d pieces/step=%d cost=%.2f (pieces=%d transitions=%.2f) points=%d in %v",
		m.Length(), m.Width(), len(pm[0]), sr.TotalCost, sr.PieceCost, sr.TransitionCost, len(res.Points), res.Duration)

	for _, s := range p.sinks {
		if err := s.HandleResult(p.cfg, res); err != nil {
			plannerLogf("sink %T failed: %v", s, err)
		}
	}
	return res, nil
}

func (p *Planner) velocityFor(states environment.RoadStates) l5trajectory.VelocityFunc {
	if len(states.States) == 0 {
		return l5trajectory.ConstantVelocity(p.cfg.Velocity.Cruise)
	}
	return l5trajectory.RoadStateVelocity(states, p.cfg.Velocity)
}
