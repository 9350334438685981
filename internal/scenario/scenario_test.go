package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/roadmatrix/internal/environment"
	"github.com/banshee-data/roadmatrix/internal/fsutil"
	"github.com/banshee-data/roadmatrix/internal/geom"
	"github.com/banshee-data/roadmatrix/internal/planning/pipeline"
	"github.com/banshee-data/roadmatrix/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

const sample = `{
  "name": "detour",
  "centerline": [[0, 0], [9, 0]],
  "lanes": [{"type": "left", "points": [[0, 2], [9, 2]]}],
  "obstacles": [[[4, 0.5], [5, 1.5]]],
  "road_states": [{"type": "curve", "start": 0, "end": 9, "probability": 0.6, "curvature": -0.5}],
  "blocks": [{"from_step": 3, "to_step": 5, "from_cell": 1, "to_cell": 2, "badness": 100}]
}`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "detour", s.Name)
	if diff := cmp.Diff(geom.Polyline{{X: 0}, {X: 9}}, s.Centerline); diff != "" {
		t.Errorf("centerline mismatch (-want +got):\n%s", diff)
	}

	left, ok := s.Environment.Lane(environment.LaneLeft)
	require.True(t, ok)
	assert.Len(t, left.Points, 2)

	obstacles := s.Environment.Obstacles()
	require.Len(t, obstacles, 1)
	assert.Equal(t, r2.Vec{X: 4.5, Y: 1}, obstacles[0].Position)

	state := s.Environment.RoadStates().MostProbableState()
	assert.Equal(t, environment.RoadStateCurve, state.Type)
	assert.Equal(t, -0.5, state.Curvature)

	assert.Len(t, s.Writers, 1)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"bad json", `{`},
		{"bad lane type", `{"centerline": [[0,0],[1,0]], "lanes": [{"type": "centre"}]}`},
		{"empty obstacle", `{"centerline": [[0,0],[1,0]], "obstacles": [[]]}`},
		{"bad state type", `{"centerline": [[0,0],[1,0]], "road_states": [{"type": "bendy"}]}`},
		{"reversed state", `{"centerline": [[0,0],[1,0]], "road_states": [{"type": "curve", "start": 5, "end": 1}]}`},
		{"probability", `{"centerline": [[0,0],[1,0]], "road_states": [{"type": "curve", "end": 1, "probability": 2}]}`},
		{"empty block", `{"centerline": [[0,0],[1,0]], "blocks": [{"from_step": 3, "to_step": 1}]}`},
		{"no centerline", `{"name": "nothing"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.json))
			assert.Error(t, err)
		})
	}
}

func TestParse_MiddleLaneOnly(t *testing.T) {
	s, err := Parse([]byte(`{"lanes": [{"type": "middle", "points": [[0, 0], [4, 0]]}]}`))
	require.NoError(t, err)
	assert.Empty(t, s.Centerline)
	_, ok := s.Environment.Lane(environment.LaneMiddle)
	assert.True(t, ok)
}

func TestLoad_RejectsExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestWriteEnvironmentRoundTrip(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("/scenarios/detour.json", []byte(sample), 0o644))

	s, err := LoadFrom(fsys, "/scenarios/detour.json")
	require.NoError(t, err)

	require.NoError(t, s.WriteEnvironment(fsys, "/scenarios/detour.bin"))

	back, err := LoadFrom(fsys, "/scenarios/detour.bin")
	require.NoError(t, err)
	assert.Equal(t, "detour", back.Name)
	assert.Empty(t, back.Writers)

	middle, ok := back.Environment.Lane(environment.LaneMiddle)
	require.True(t, ok)
	if diff := cmp.Diff(s.Centerline, middle.Points); diff != "" {
		t.Errorf("middle lane mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, s.Environment.Obstacles(), back.Environment.Obstacles())
}

func TestLoadFrom_TooLarge(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("big.json", make([]byte, maxFileSize+1), 0o644))
	_, err := LoadFrom(fsys, "big.json")
	assert.ErrorContains(t, err, "too large")
}

func TestBundledScenarioPlans(t *testing.T) {
	testutil.MuteLogs(t)
	s, err := Load(testutil.RepoPath(t, "config/scenarios/obstacle.json"))
	require.NoError(t, err)

	p := pipeline.New(pipeline.DefaultConfig())
	var traj environment.Trajectory
	res, err := p.Plan(s.Input(), &traj)
	require.NoError(t, err)
	require.NotEmpty(t, traj)

	// The obstacle sits left of centre, so the path passes it on the right.
	mid := res.Matrix.Length() / 2
	assert.True(t, traj[mid].IsRight(), "point %d: %+v", mid, traj[mid])
}
