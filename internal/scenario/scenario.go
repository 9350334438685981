// Package scenario loads offline planning scenarios: a centerline, the
// environment around it and any extra cost regions, as consumed by
// cmd/planner and by tests.
package scenario

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/roadmatrix/internal/encoding"
	"github.com/banshee-data/roadmatrix/internal/environment"
	"github.com/banshee-data/roadmatrix/internal/fsutil"
	"github.com/banshee-data/roadmatrix/internal/geom"
	"github.com/banshee-data/roadmatrix/internal/planning/l2cost"
	"github.com/banshee-data/roadmatrix/internal/planning/pipeline"
	"gonum.org/v1/gonum/spatial/r2"
)

const maxFileSize = 4 * 1024 * 1024

// File is the on-disk JSON layout of a scenario. Points are [x, y] pairs
// in metres.
type File struct {
	Name       string         `json:"name"`
	Centerline [][2]float64   `json:"centerline,omitempty"`
	Lanes      []LaneJSON     `json:"lanes,omitempty"`
	Obstacles  [][][2]float64 `json:"obstacles,omitempty"` // points observed on each obstacle
	RoadStates []StateJSON    `json:"road_states,omitempty"`
	Blocks     []BlockJSON    `json:"blocks,omitempty"`
}

type LaneJSON struct {
	Type   string       `json:"type"` // "left", "middle" or "right"
	Points [][2]float64 `json:"points"`
}

type StateJSON struct {
	Type        string  `json:"type"` // "straight", "straight_curve", "curve" or "unknown"
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float64 `json:"probability"`
	Curvature   float64 `json:"curvature"`
}

// BlockJSON is a rectangular cost region in grid indices, both ends
// inclusive.
type BlockJSON struct {
	FromStep int     `json:"from_step"`
	ToStep   int     `json:"to_step"`
	FromCell int     `json:"from_cell"`
	ToCell   int     `json:"to_cell"`
	Badness  float64 `json:"badness"`
}

// Scenario is a decoded, ready-to-plan scenario.
type Scenario struct {
	Name        string
	Centerline  geom.Polyline
	Environment *environment.Environment
	Writers     []l2cost.Writer
}

// Input returns the pipeline input for one cycle over the scenario.
func (s *Scenario) Input() pipeline.Input {
	return pipeline.Input{
		Centerline:  s.Centerline,
		Environment: s.Environment,
		Writers:     s.Writers,
	}
}

// Load reads a scenario from path on the local filesystem.
func Load(path string) (*Scenario, error) {
	return LoadFrom(fsutil.OSFileSystem{}, path)
}

// LoadFrom reads a scenario from path in fsys. A .json file is decoded as
// File; a .bin file holds an encoded environment snapshot whose middle
// lane is the centerline.
func LoadFrom(fsys fsutil.FileSystem, path string) (*Scenario, error) {
	cleanPath := filepath.Clean(path)
	info, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("scenario too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}

	switch ext := filepath.Ext(cleanPath); ext {
	case ".json":
		return Parse(data)
	case ".bin":
		env, err := encoding.UnmarshalEnvironment(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode environment: %w", err)
		}
		name := filepath.Base(cleanPath)
		return &Scenario{Name: name[:len(name)-len(ext)], Environment: env}, nil
	default:
		return nil, fmt.Errorf("scenario must be .json or .bin, got %q", ext)
	}
}

// Parse decodes a JSON scenario.
func Parse(data []byte) (*Scenario, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse scenario JSON: %w", err)
	}
	return f.Scenario()
}

// Scenario converts the file layout into planner types.
func (f *File) Scenario() (*Scenario, error) {
	s := &Scenario{
		Name:        f.Name,
		Centerline:  toPolyline(f.Centerline),
		Environment: &environment.Environment{},
	}

	for i, l := range f.Lanes {
		t, err := parseLaneType(l.Type)
		if err != nil {
			return nil, fmt.Errorf("lane %d: %w", i, err)
		}
		s.Environment.Add(environment.Lane{Type: t, Points: toPolyline(l.Points)})
	}

	for i, pts := range f.Obstacles {
		if len(pts) == 0 {
			return nil, fmt.Errorf("obstacle %d: no points", i)
		}
		s.Environment.Add(environment.NewObstacle(toPolyline(pts)))
	}

	if len(f.RoadStates) > 0 {
		var rs environment.RoadStates
		for i, st := range f.RoadStates {
			t, err := parseStateType(st.Type)
			if err != nil {
				return nil, fmt.Errorf("road state %d: %w", i, err)
			}
			if st.End < st.Start {
				return nil, fmt.Errorf("road state %d: end %.2f before start %.2f", i, st.End, st.Start)
			}
			if st.Probability < 0 || st.Probability > 1 {
				return nil, fmt.Errorf("road state %d: probability %.2f outside [0, 1]", i, st.Probability)
			}
			rs.States = append(rs.States, environment.RoadState{
				Type:          t,
				StartDistance: st.Start,
				EndDistance:   st.End,
				Probability:   st.Probability,
				Curvature:     st.Curvature,
			})
		}
		s.Environment.Add(rs)
	}

	for i, b := range f.Blocks {
		if b.ToStep < b.FromStep || b.ToCell < b.FromCell {
			return nil, fmt.Errorf("block %d: empty range", i)
		}
		s.Writers = append(s.Writers, l2cost.Rect(b.FromStep, b.ToStep, b.FromCell, b.ToCell, b.Badness))
	}

	if len(s.Centerline) == 0 {
		if _, ok := s.Environment.Lane(environment.LaneMiddle); !ok {
			return nil, fmt.Errorf("scenario %q has neither a centerline nor a middle lane", f.Name)
		}
	}
	return s, nil
}

func toPolyline(pts [][2]float64) geom.Polyline {
	if len(pts) == 0 {
		return nil
	}
	pl := make(geom.Polyline, len(pts))
	for i, p := range pts {
		pl[i] = r2.Vec{X: p[0], Y: p[1]}
	}
	return pl
}

func parseLaneType(s string) (environment.LaneType, error) {
	for _, t := range []environment.LaneType{environment.LaneLeft, environment.LaneMiddle, environment.LaneRight} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown lane type %q", s)
}

func parseStateType(s string) (environment.RoadStateType, error) {
	for _, t := range []environment.RoadStateType{
		environment.RoadStateUnknown,
		environment.RoadStateStraight,
		environment.RoadStateStraightCurve,
		environment.RoadStateCurve,
	} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown road state type %q", s)
}

// WriteEnvironment stores the scenario environment, with the centerline
// as its middle lane, as an encoded snapshot loadable with LoadFrom.
func (s *Scenario) WriteEnvironment(fsys fsutil.FileSystem, path string) error {
	env := &environment.Environment{}
	if len(s.Centerline) > 0 {
		env.Add(environment.Lane{Type: environment.LaneMiddle, Points: s.Centerline})
	}
	if s.Environment != nil {
		for _, e := range s.Environment.Entities {
			if l, ok := e.(environment.Lane); ok && l.Type == environment.LaneMiddle && len(s.Centerline) > 0 {
				continue
			}
			env.Add(e)
		}
	}
	b, err := encoding.MarshalEnvironment(env)
	if err != nil {
		return err
	}
	return fsys.WriteFile(path, b, 0o644)
}
