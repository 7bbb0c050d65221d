// Package motion implements the camera motion sequencer.
//
// A Sequencer moves a camera from its current pose to a target pose over a
// fixed wall-clock duration, one frame at a time. Two paths are supported:
//
//	linear   position and look point are lerped between two poses
//	curved   position follows a quadratic Bezier through a lifted midpoint,
//	         the look point is lerped independently
//
// At most one Motion owns the camera. Starting a new one supersedes the
// in-flight Motion: it is resolved as OutcomeSuperseded and never writes the
// camera again.
package motion

import (
	"context"
	"errors"
	"time"

	"github.com/Mr-Dark-debug/terra/pkg/vecmath"
	"github.com/golang/geo/r3"
)

// Curved motion defaults.
const (
	DefaultCurveLift  = 1.2
	DefaultAuxYawStep = 0.005
)

// ErrSuperseded is returned by Wait when a newer motion took over the camera.
var ErrSuperseded = errors.New("motion superseded")

// ErrCancelled is returned by Wait when the motion was cancelled explicitly.
var ErrCancelled = errors.New("motion cancelled")

// Camera is the live camera the sequencer writes each frame.
type Camera interface {
	// Position returns the current camera position.
	Position() r3.Vector
	// Direction returns the unit vector the camera is looking along.
	Direction() r3.Vector
	// SetPosition moves the camera without changing its look target.
	SetPosition(p r3.Vector)
	// LookAt orients the camera toward the given world point.
	LookAt(p r3.Vector)
}

// Rotator is an auxiliary scene object spun while a curved motion runs.
type Rotator interface {
	RotateY(delta float64)
}

// Pose is a camera position plus the point it looks at.
type Pose struct {
	Position r3.Vector `json:"position"`
	LookAt   r3.Vector `json:"look_at"`
}

// Kind selects the interpolation strategy.
type Kind int

const (
	KindLinear Kind = iota
	KindCurved
)

func (k Kind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindCurved:
		return "curved"
	default:
		return "unknown"
	}
}

// Outcome is the terminal state of a Motion.
type Outcome int

const (
	OutcomeRunning Outcome = iota
	OutcomeCompleted
	OutcomeSuperseded
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRunning:
		return "running"
	case OutcomeCompleted:
		return "completed"
	case OutcomeSuperseded:
		return "superseded"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Request describes one camera move. It is built by the Move* calls and
// kept on the Motion for inspection.
type Request struct {
	Kind     Kind
	From     Pose
	To       Pose
	Duration time.Duration

	// Midpoint is the Bezier control point. Only set for KindCurved.
	Midpoint r3.Vector

	OnComplete func()
	Auxiliary  Rotator
}

// Motion is a running or finished camera move. Its fields are guarded by
// the owning Sequencer's mutex.
type Motion struct {
	id      uint64
	req     Request
	start   time.Time
	end     time.Time
	t       float64
	frames  int
	outcome Outcome
	done    chan struct{}
}

func newMotion(id uint64, req Request, start time.Time) *Motion {
	return &Motion{
		id:    id,
		req:   req,
		start: start,
		done:  make(chan struct{}),
	}
}

// ID returns the generation token of the motion. Ids increase strictly.
func (m *Motion) ID() uint64 { return m.id }

// Kind returns the interpolation strategy.
func (m *Motion) Kind() Kind { return m.req.Kind }

// Request returns a copy of the request the motion was started with.
func (m *Motion) Request() Request { return m.req }

// Done is closed once the motion completes, is superseded or is cancelled.
func (m *Motion) Done() <-chan struct{} { return m.done }

// Wait blocks until the motion finishes or ctx is done.
func (m *Motion) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-m.done:
	case <-ctx.Done():
		return OutcomeRunning, ctx.Err()
	}
	switch o := m.finalOutcome(); o {
	case OutcomeSuperseded:
		return o, ErrSuperseded
	case OutcomeCancelled:
		return o, ErrCancelled
	default:
		return o, nil
	}
}

// finalOutcome is only valid after done is closed; the close happens after
// the outcome write, which gives the read a happens-before edge.
func (m *Motion) finalOutcome() Outcome { return m.outcome }

// Progress evaluates the normalized progress of a motion of the given
// duration after elapsed wall-clock time: min(elapsed/duration, 1), floored
// at 0. Non-positive durations complete immediately.
func Progress(elapsed, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	t := float64(elapsed) / float64(duration)
	if t > 1 {
		return 1
	}
	return t
}

// CurveMidpoint is the Bezier control point used by curved moves: the linear
// midpoint of from and to, raised by lift on the Y axis.
func CurveMidpoint(from, to r3.Vector, lift float64) r3.Vector {
	mid := vecmath.Lerp(from, to, 0.5)
	mid.Y += lift
	return mid
}

// Sample returns the pose of the request at progress t.
func (r Request) Sample(t float64) Pose {
	look := vecmath.Lerp(r.From.LookAt, r.To.LookAt, t)
	switch r.Kind {
	case KindCurved:
		return Pose{
			Position: vecmath.QuadBezier(r.From.Position, r.Midpoint, r.To.Position, t),
			LookAt:   look,
		}
	default:
		return Pose{
			Position: vecmath.Lerp(r.From.Position, r.To.Position, t),
			LookAt:   look,
		}
	}
}

// Snapshot is a point-in-time copy of a motion's state.
type Snapshot struct {
	ID       uint64
	Kind     Kind
	Progress float64
	Frames   int
	Outcome  Outcome
	Started  time.Time
	Finished time.Time
}
