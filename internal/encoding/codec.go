// Package encoding serialises environment entities into a compact,
// versioned wire format for persistence and transmission.
//
// Every encoded entity starts with a two-byte header, the format version
// followed by the entity kind, and continues with protobuf wire-format
// fields in a fixed order. Decoders skip unknown field numbers, so newer
// writers may append fields without a version bump; removing or
// renumbering a field requires a new Version.
package encoding

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/roadmatrix/internal/environment"
	"gonum.org/v1/gonum/spatial/r2"
	"google.golang.org/protobuf/encoding/protowire"
)

// Version is the current wire format version.
const Version byte = 1

var (
	// ErrUnsupportedVersion is returned for payloads written by an unknown
	// format version.
	ErrUnsupportedVersion = errors.New("unsupported encoding version")
	// ErrMalformed is returned for truncated or corrupt payloads.
	ErrMalformed = errors.New("malformed payload")
)

// Field numbers. They are part of the wire format; never reuse them.
const (
	// vector
	fieldVecX protowire.Number = 1
	fieldVecY protowire.Number = 2

	// TrajectoryPoint
	fieldPointPosition  protowire.Number = 1
	fieldPointDirection protowire.Number = 2
	fieldPointVelocity  protowire.Number = 3
	fieldPointDistance  protowire.Number = 4

	// Trajectory
	fieldTrajectoryPoint protowire.Number = 1

	// RoadState
	fieldStateType        protowire.Number = 1
	fieldStateStart       protowire.Number = 2
	fieldStateEnd         protowire.Number = 3
	fieldStateProbability protowire.Number = 4
	fieldStateCurvature   protowire.Number = 5

	// RoadStates
	fieldStatesState protowire.Number = 1

	// Obstacle
	fieldObstaclePosition protowire.Number = 1
	fieldObstacleCorner   protowire.Number = 2

	// Lane
	fieldLaneType  protowire.Number = 1
	fieldLanePoint protowire.Number = 2
)

// Marshal encodes e with the current Version header.
func Marshal(e environment.Entity) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("encoding: nil entity")
	}
	b := []byte{Version, byte(e.Kind())}
	switch v := e.(type) {
	case environment.Lane:
		return appendLane(b, v), nil
	case environment.Obstacle:
		return appendObstacle(b, v), nil
	case environment.Trajectory:
		return appendTrajectory(b, v), nil
	case environment.RoadStates:
		return appendRoadStates(b, v), nil
	default:
		return nil, fmt.Errorf("encoding: unsupported entity kind %v", e.Kind())
	}
}

// Unmarshal decodes a payload produced by Marshal.
func Unmarshal(b []byte) (environment.Entity, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("%w: %d byte header", ErrMalformed, len(b))
	}
	if b[0] != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, b[0])
	}
	body := b[2:]

	var (
		e   environment.Entity
		err error
	)
	switch environment.Kind(b[1]) {
	case environment.KindLane:
		e, err = consumeLane(body)
	case environment.KindObstacle:
		e, err = consumeObstacle(body)
	case environment.KindTrajectory:
		e, err = consumeTrajectory(body)
	case environment.KindRoadStates:
		e, err = consumeRoadStates(body)
	default:
		return nil, fmt.Errorf("%w: unknown entity kind %d", ErrMalformed, b[1])
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// MarshalTrajectory is Marshal for a Trajectory.
func MarshalTrajectory(t environment.Trajectory) []byte {
	b, _ := Marshal(t)
	return b
}

// UnmarshalTrajectory decodes a payload that must hold a Trajectory.
func UnmarshalTrajectory(b []byte) (environment.Trajectory, error) {
	e, err := Unmarshal(b)
	if err != nil {
		return nil, err
	}
	t, ok := e.(environment.Trajectory)
	if !ok {
		return nil, fmt.Errorf("%w: want trajectory, got %v", ErrMalformed, e.Kind())
	}
	return t, nil
}

// MarshalEnvironment encodes every entity of env as a sequence of
// length-prefixed Marshal payloads.
func MarshalEnvironment(env *environment.Environment) ([]byte, error) {
	var b []byte
	if env == nil {
		return b, nil
	}
	for i, e := range env.Entities {
		msg, err := Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("entity %d: %w", i, err)
		}
		b = protowire.AppendBytes(b, msg)
	}
	return b, nil
}

// UnmarshalEnvironment decodes a payload produced by MarshalEnvironment.
func UnmarshalEnvironment(b []byte) (*environment.Environment, error) {
	env := &environment.Environment{}
	for len(b) > 0 {
		msg, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: entity %d: %v", ErrMalformed, len(env.Entities), protowire.ParseError(n))
		}
		e, err := Unmarshal(msg)
		if err != nil {
			return nil, fmt.Errorf("entity %d: %w", len(env.Entities), err)
		}
		env.Add(e)
		b = b[n:]
	}
	return env, nil
}

// Encoders

func appendFloat(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendVarint(b []byte, num protowire.Number, v int) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v)))
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendVec(b []byte, num protowire.Number, v r2.Vec) []byte {
	var msg []byte
	msg = appendFloat(msg, fieldVecX, v.X)
	msg = appendFloat(msg, fieldVecY, v.Y)
	return appendMessage(b, num, msg)
}

func appendPoint(b []byte, p environment.TrajectoryPoint) []byte {
	b = appendVec(b, fieldPointPosition, p.Position)
	b = appendVec(b, fieldPointDirection, p.Direction)
	b = appendFloat(b, fieldPointVelocity, p.Velocity)
	return appendFloat(b, fieldPointDistance, p.DistanceToMiddleLane)
}

func appendTrajectory(b []byte, t environment.Trajectory) []byte {
	for _, p := range t {
		b = appendMessage(b, fieldTrajectoryPoint, appendPoint(nil, p))
	}
	return b
}

func appendRoadState(b []byte, s environment.RoadState) []byte {
	b = appendVarint(b, fieldStateType, int(s.Type))
	b = appendFloat(b, fieldStateStart, s.StartDistance)
	b = appendFloat(b, fieldStateEnd, s.EndDistance)
	b = appendFloat(b, fieldStateProbability, s.Probability)
	return appendFloat(b, fieldStateCurvature, s.Curvature)
}

func appendRoadStates(b []byte, rs environment.RoadStates) []byte {
	for _, s := range rs.States {
		b = appendMessage(b, fieldStatesState, appendRoadState(nil, s))
	}
	return b
}

func appendObstacle(b []byte, o environment.Obstacle) []byte {
	b = appendVec(b, fieldObstaclePosition, o.Position)
	for _, c := range o.Box.Corners {
		b = appendVec(b, fieldObstacleCorner, c)
	}
	return b
}

func appendLane(b []byte, l environment.Lane) []byte {
	b = appendVarint(b, fieldLaneType, int(l.Type))
	for _, p := range l.Points {
		b = appendVec(b, fieldLanePoint, p)
	}
	return b
}

// Decoders

// fieldFunc consumes the value of one field from b and returns the number
// of bytes read. Returning 0 skips the field as unknown.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func walk(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}

func wrongType(num protowire.Number, typ protowire.Type) error {
	return fmt.Errorf("%w: field %d has wire type %d", ErrMalformed, num, typ)
}

func consumeFloat(num protowire.Number, typ protowire.Type, b []byte, dst *float64) (int, error) {
	if typ != protowire.Fixed64Type {
		return 0, wrongType(num, typ)
	}
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
	}
	*dst = math.Float64frombits(v)
	return n, nil
}

func consumeInt(num protowire.Number, typ protowire.Type, b []byte, dst *int) (int, error) {
	if typ != protowire.VarintType {
		return 0, wrongType(num, typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
	}
	*dst = int(protowire.DecodeZigZag(v))
	return n, nil
}

// consumeMessage reads a length-delimited field and decodes it with fn.
func consumeMessage(num protowire.Number, typ protowire.Type, b []byte, fn func([]byte) error) (int, error) {
	if typ != protowire.BytesType {
		return 0, wrongType(num, typ)
	}
	msg, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
	}
	return n, fn(msg)
}

func consumeVec(num protowire.Number, typ protowire.Type, b []byte, dst *r2.Vec) (int, error) {
	return consumeMessage(num, typ, b, func(msg []byte) error {
		return walk(msg, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
			switch num {
			case fieldVecX:
				return consumeFloat(num, typ, b, &dst.X)
			case fieldVecY:
				return consumeFloat(num, typ, b, &dst.Y)
			}
			return 0, nil
		})
	})
}

func decodePoint(msg []byte) (environment.TrajectoryPoint, error) {
	var p environment.TrajectoryPoint
	err := walk(msg, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldPointPosition:
			return consumeVec(num, typ, b, &p.Position)
		case fieldPointDirection:
			return consumeVec(num, typ, b, &p.Direction)
		case fieldPointVelocity:
			return consumeFloat(num, typ, b, &p.Velocity)
		case fieldPointDistance:
			return consumeFloat(num, typ, b, &p.DistanceToMiddleLane)
		}
		return 0, nil
	})
	return p, err
}

func consumeTrajectory(body []byte) (environment.Trajectory, error) {
	t := environment.Trajectory{}
	err := walk(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldTrajectoryPoint {
			return 0, nil
		}
		return consumeMessage(num, typ, b, func(msg []byte) error {
			p, err := decodePoint(msg)
			if err != nil {
				return err
			}
			t.Append(p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func decodeRoadState(msg []byte) (environment.RoadState, error) {
	var s environment.RoadState
	err := walk(msg, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldStateType:
			var v int
			n, err := consumeInt(num, typ, b, &v)
			s.Type = environment.RoadStateType(v)
			return n, err
		case fieldStateStart:
			return consumeFloat(num, typ, b, &s.StartDistance)
		case fieldStateEnd:
			return consumeFloat(num, typ, b, &s.EndDistance)
		case fieldStateProbability:
			return consumeFloat(num, typ, b, &s.Probability)
		case fieldStateCurvature:
			return consumeFloat(num, typ, b, &s.Curvature)
		}
		return 0, nil
	})
	return s, err
}

func consumeRoadStates(body []byte) (environment.RoadStates, error) {
	var rs environment.RoadStates
	err := walk(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldStatesState {
			return 0, nil
		}
		return consumeMessage(num, typ, b, func(msg []byte) error {
			s, err := decodeRoadState(msg)
			if err != nil {
				return err
			}
			rs.States = append(rs.States, s)
			return nil
		})
	})
	return rs, err
}

func consumeObstacle(body []byte) (environment.Obstacle, error) {
	var o environment.Obstacle
	corners := 0
	err := walk(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldObstaclePosition:
			return consumeVec(num, typ, b, &o.Position)
		case fieldObstacleCorner:
			if corners == len(o.Box.Corners) {
				return 0, fmt.Errorf("%w: more than %d obstacle corners", ErrMalformed, len(o.Box.Corners))
			}
			corners++
			return consumeVec(num, typ, b, &o.Box.Corners[corners-1])
		}
		return 0, nil
	})
	return o, err
}

func consumeLane(body []byte) (environment.Lane, error) {
	var l environment.Lane
	err := walk(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldLaneType:
			var v int
			n, err := consumeInt(num, typ, b, &v)
			l.Type = environment.LaneType(v)
			return n, err
		case fieldLanePoint:
			var p r2.Vec
			n, err := consumeVec(num, typ, b, &p)
			l.Points = append(l.Points, p)
			return n, err
		}
		return 0, nil
	})
	return l, err
}
