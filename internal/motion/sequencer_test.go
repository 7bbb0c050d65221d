package motion

import (
	"context"
	"testing"
	"time"

	"github.com/Mr-Dark-debug/terra/pkg/vecmath"
	"github.com/golang/geo/r3"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

type stubCamera struct {
	pos    r3.Vector
	target r3.Vector
	writes int
}

func (c *stubCamera) Position() r3.Vector     { return c.pos }
func (c *stubCamera) Direction() r3.Vector    { return c.target.Sub(c.pos).Normalize() }
func (c *stubCamera) SetPosition(p r3.Vector) { c.pos = p; c.writes++ }
func (c *stubCamera) LookAt(p r3.Vector)      { c.target = p }

type spinCounter struct {
	yaw   float64
	calls int
}

func (s *spinCounter) RotateY(delta float64) {
	s.yaw += delta
	s.calls++
}

var (
	frontPos  = vecmath.V(-1.595, 0.379, 2.255)
	frontLook = vecmath.V(2, -0.2, 0)
	orbitPos  = vecmath.V(-3, 1, 3)
	origin    = vecmath.V(0, 0, 0)
)

// fakeClock is the subset of clockwork's fake clock the tests drive.
type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

func newTestSequencer(t *testing.T, opts ...Option) (*Sequencer, *stubCamera, fakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	cam := &stubCamera{pos: frontPos, target: frontLook}
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewSequencer(cam, opts...), cam, clock
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name     string
		elapsed  time.Duration
		duration time.Duration
		want     float64
	}{
		{"start", 0, time.Second, 0},
		{"quarter", 250 * time.Millisecond, time.Second, 0.25},
		{"exact end", time.Second, time.Second, 1},
		{"overshoot clamps", 5 * time.Second, time.Second, 1},
		{"zero duration", 0, 0, 1},
		{"negative duration", 10 * time.Millisecond, -time.Second, 1},
		{"negative elapsed", -time.Millisecond, time.Second, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Progress(tt.elapsed, tt.duration), eps)
		})
	}
}

func TestMoveLinearSampleAtHalfway(t *testing.T) {
	seq, cam, clock := newTestSequencer(t)

	m := seq.MoveLinear(orbitPos, origin, 1500*time.Millisecond, nil)
	assert.True(t, vecmath.ApproxEqual(cam.pos, frontPos, eps), "first step is evaluated at t=0")

	clock.Advance(750 * time.Millisecond)
	require.True(t, seq.Step())

	assert.True(t, vecmath.ApproxEqual(cam.pos, vecmath.V(-2.2975, 0.6895, 2.6275), 1e-9),
		"got %v", cam.pos)
	assert.InDelta(t, 0.5, seq.Snapshot(m).Progress, eps)
}

func TestMoveLinearCapturesLookPointFromDirection(t *testing.T) {
	seq, _, _ := newTestSequencer(t)

	m := seq.MoveLinear(orbitPos, origin, time.Second, nil)
	req := m.Request()

	wantLook := frontPos.Add(frontLook.Sub(frontPos).Normalize())
	assert.True(t, vecmath.ApproxEqual(req.From.LookAt, wantLook, eps))
	assert.True(t, vecmath.ApproxEqual(req.From.Position, frontPos, eps))
	assert.Equal(t, KindLinear, m.Kind())
}

func TestMoveLinearReachesTargetAndCompletesOnce(t *testing.T) {
	seq, cam, clock := newTestSequencer(t)

	calls := 0
	m := seq.MoveLinear(orbitPos, origin, 1500*time.Millisecond, func() { calls++ })

	clock.Advance(1600 * time.Millisecond)
	assert.False(t, seq.Step())
	assert.False(t, seq.Step())

	assert.Equal(t, 1, calls)
	assert.True(t, vecmath.ApproxEqual(cam.pos, orbitPos, eps))
	assert.True(t, vecmath.ApproxEqual(cam.target, origin, eps))

	outcome, err := m.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)
}

func TestZeroDurationCompletesOnFirstEvaluation(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		seq, cam, _ := newTestSequencer(t)

		calls := 0
		m := seq.MoveLinear(orbitPos, origin, d, func() { calls++ })

		assert.Equal(t, 1, calls, "duration %v", d)
		assert.True(t, vecmath.ApproxEqual(cam.pos, orbitPos, eps))
		assert.Nil(t, seq.Active())
		assert.Equal(t, 1.0, seq.Snapshot(m).Progress)

		assert.False(t, seq.Step())
		assert.Equal(t, 1, calls)

		select {
		case <-m.Done():
		default:
			t.Fatal("zero-duration motion should be resolved immediately")
		}
	}
}

func TestProgressMonotonicAndClamped(t *testing.T) {
	seq, _, clock := newTestSequencer(t)
	m := seq.MoveLinear(orbitPos, origin, time.Second, nil)

	last := seq.Snapshot(m).Progress
	for i := 0; i < 30; i++ {
		clock.Advance(70 * time.Millisecond)
		seq.Step()
		p := seq.Snapshot(m).Progress
		assert.GreaterOrEqual(t, p, last)
		assert.LessOrEqual(t, p, 1.0)
		last = p
	}
	assert.Equal(t, 1.0, last)
	assert.Equal(t, OutcomeCompleted, seq.Snapshot(m).Outcome)
}

func TestNewMotionSupersedesInFlight(t *testing.T) {
	seq, cam, clock := newTestSequencer(t)

	firstCalls := 0
	first := seq.MoveLinear(orbitPos, origin, 1500*time.Millisecond, func() { firstCalls++ })

	clock.Advance(500 * time.Millisecond)
	seq.Step()

	secondCalls := 0
	second := seq.MoveLinear(frontPos, frontLook, 1500*time.Millisecond, func() { secondCalls++ })
	assert.Greater(t, second.ID(), first.ID())

	outcome, err := first.Wait(context.Background())
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Equal(t, OutcomeSuperseded, outcome)

	clock.Advance(2 * time.Second)
	assert.False(t, seq.Step())

	assert.Equal(t, 0, firstCalls, "superseded motion must not complete")
	assert.Equal(t, 1, secondCalls)
	assert.True(t, vecmath.ApproxEqual(cam.pos, frontPos, eps))
}

func TestCancel(t *testing.T) {
	seq, cam, clock := newTestSequencer(t)

	calls := 0
	m := seq.MoveLinear(orbitPos, origin, time.Second, func() { calls++ })
	clock.Advance(250 * time.Millisecond)
	seq.Step()
	held := cam.pos

	seq.Cancel()
	clock.Advance(time.Second)
	assert.False(t, seq.Step())

	_, err := m.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 0, calls)
	assert.Equal(t, held, cam.pos)
}

func TestWaitHonorsContext(t *testing.T) {
	seq, _, _ := newTestSequencer(t)
	m := seq.MoveLinear(orbitPos, origin, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := m.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeRunning, outcome)
}

func TestMoveCurvedFollowsBezier(t *testing.T) {
	seq, cam, clock := newTestSequencer(t)
	spin := &spinCounter{}

	from, to := frontPos, orbitPos
	mid := CurveMidpoint(from, to, DefaultCurveLift)
	assert.InDelta(t, (from.Y+to.Y)/2+1.2, mid.Y, eps)

	m := seq.MoveCurved(from, to, frontLook, origin, 1200*time.Millisecond, spin)
	assert.Equal(t, 0, cam.writes, "curved motion waits for the next frame")

	require.True(t, seq.Step())
	assert.True(t, vecmath.ApproxEqual(cam.pos, from, eps))

	clock.Advance(600 * time.Millisecond)
	require.True(t, seq.Step())
	want := from.Mul(0.25).Add(mid.Mul(0.5)).Add(to.Mul(0.25))
	assert.True(t, vecmath.ApproxEqual(cam.pos, want, eps), "got %v want %v", cam.pos, want)
	assert.True(t, vecmath.ApproxEqual(cam.target, vecmath.Lerp(frontLook, origin, 0.5), eps))

	clock.Advance(600 * time.Millisecond)
	assert.False(t, seq.Step())
	assert.True(t, vecmath.ApproxEqual(cam.pos, to, eps))
	assert.True(t, vecmath.ApproxEqual(cam.target, origin, eps))

	snap := seq.Snapshot(m)
	assert.Equal(t, 3, snap.Frames)
	assert.Equal(t, 3, spin.calls, "auxiliary object spins once per frame")
	assert.InDelta(t, 3*DefaultAuxYawStep, spin.yaw, eps)
}

func TestMoveCurvedWithoutAuxiliary(t *testing.T) {
	seq, cam, clock := newTestSequencer(t, WithCurveLift(0))

	seq.MoveCurved(frontPos, orbitPos, frontLook, origin, time.Second, nil)
	clock.Advance(500 * time.Millisecond)
	seq.Step()

	// With no lift the curve degenerates to the straight line.
	assert.True(t, vecmath.ApproxEqual(cam.pos, vecmath.Lerp(frontPos, orbitPos, 0.5), eps))
}

func TestListenerReceivesStartAndFinish(t *testing.T) {
	var events []Event
	seq, _, clock := newTestSequencer(t, WithListener(func(ev Event) { events = append(events, ev) }))

	seq.MoveCurved(frontPos, orbitPos, frontLook, origin, time.Second, nil)
	clock.Advance(300 * time.Millisecond)
	seq.Step()
	seq.MoveLinear(frontPos, frontLook, 0, nil)

	require.Len(t, events, 4)
	assert.Equal(t, OutcomeRunning, events[0].Outcome)
	assert.Equal(t, KindCurved, events[0].Kind)
	assert.Equal(t, OutcomeSuperseded, events[1].Outcome)
	assert.Equal(t, 1, events[1].Frames)
	assert.Equal(t, OutcomeRunning, events[2].Outcome)
	assert.Equal(t, KindLinear, events[2].Kind)
	assert.Equal(t, OutcomeCompleted, events[3].Outcome)
	assert.Equal(t, events[2].MotionID, events[3].MotionID)
}

func TestCompletionCallbackMayStartNewMotion(t *testing.T) {
	seq, cam, clock := newTestSequencer(t)

	seq.MoveLinear(orbitPos, origin, 100*time.Millisecond, func() {
		seq.MoveLinear(frontPos, frontLook, 100*time.Millisecond, nil)
	})
	clock.Advance(100 * time.Millisecond)
	assert.True(t, seq.Step(), "chained motion should be active")

	clock.Advance(100 * time.Millisecond)
	assert.False(t, seq.Step())
	assert.True(t, vecmath.ApproxEqual(cam.pos, frontPos, eps))
}
