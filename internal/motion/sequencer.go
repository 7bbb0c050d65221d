package motion

import (
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Event reports a motion starting or finishing. Finished events carry the
// terminal outcome; started events carry OutcomeRunning.
type Event struct {
	MotionID uint64
	Kind     Kind
	Outcome  Outcome
	From     Pose
	To       Pose
	Duration time.Duration
	Started  time.Time
	Finished time.Time
	Frames   int
}

// Listener receives motion events. Listeners run on the goroutine that
// drove the change and must not block.
type Listener func(Event)

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithClock sets the clock used to measure elapsed time.
func WithClock(c clockwork.Clock) Option {
	return func(s *Sequencer) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Sequencer) { s.log = l }
}

// WithCurveLift sets the vertical offset of the curved-path midpoint.
func WithCurveLift(lift float64) Option {
	return func(s *Sequencer) { s.curveLift = lift }
}

// WithAuxYawStep sets the per-frame yaw increment applied to the auxiliary
// object of a curved motion.
func WithAuxYawStep(step float64) Option {
	return func(s *Sequencer) { s.auxYawStep = step }
}

// WithListener registers a motion event listener.
func WithListener(l Listener) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.listeners = append(s.listeners, l)
		}
	}
}

// Sequencer drives camera motions frame by frame.
//
// The host calls Step once per display frame. Move* calls may come from any
// goroutine; camera writes happen under the sequencer's lock.
type Sequencer struct {
	mu sync.Mutex

	camera Camera
	clock  clockwork.Clock
	log    zerolog.Logger

	curveLift  float64
	auxYawStep float64
	listeners  []Listener

	active *Motion
	lastID uint64
}

// NewSequencer creates a sequencer that owns writes to camera.
func NewSequencer(camera Camera, opts ...Option) *Sequencer {
	s := &Sequencer{
		camera:     camera,
		clock:      clockwork.NewRealClock(),
		log:        zerolog.Nop(),
		curveLift:  DefaultCurveLift,
		auxYawStep: DefaultAuxYawStep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// effects collects work that must run after the lock is released.
type effects struct {
	events    []Event
	callbacks []func()
}

// MoveLinear moves the camera from its current pose to the target pose.
// The start look point is the camera position projected one unit along its
// current view direction. The first step is evaluated before returning, so
// a non-positive duration completes (and calls onComplete) immediately.
func (s *Sequencer) MoveLinear(targetPos, targetLook r3.Vector, duration time.Duration, onComplete func()) *Motion {
	s.mu.Lock()
	pos := s.camera.Position()
	req := Request{
		Kind: KindLinear,
		From: Pose{
			Position: pos,
			LookAt:   pos.Add(s.camera.Direction()),
		},
		To:         Pose{Position: targetPos, LookAt: targetLook},
		Duration:   duration,
		OnComplete: onComplete,
	}
	m, fx := s.startLocked(req)
	s.stepLocked(&fx)
	s.mu.Unlock()

	s.apply(fx)
	return m
}

// MoveCurved moves the camera along a quadratic Bezier from from to to
// through a midpoint lifted above the straight path. The look point is
// lerped from lookFrom to lookTo. If aux is non-nil it is spun about Y by a
// fixed step on every frame of the motion. The first step happens on the
// next call to Step.
func (s *Sequencer) MoveCurved(from, to, lookFrom, lookTo r3.Vector, duration time.Duration, aux Rotator) *Motion {
	s.mu.Lock()
	req := Request{
		Kind:      KindCurved,
		From:      Pose{Position: from, LookAt: lookFrom},
		To:        Pose{Position: to, LookAt: lookTo},
		Duration:  duration,
		Midpoint:  CurveMidpoint(from, to, s.curveLift),
		Auxiliary: aux,
	}
	m, fx := s.startLocked(req)
	s.mu.Unlock()

	s.apply(fx)
	return m
}

// Step advances the active motion by one frame and reports whether a motion
// is running afterwards, including one started by a completion callback.
func (s *Sequencer) Step() bool {
	var fx effects

	s.mu.Lock()
	s.stepLocked(&fx)
	s.mu.Unlock()

	s.apply(fx)
	return s.Busy()
}

// Cancel stops the active motion, if any, leaving the camera where it is.
func (s *Sequencer) Cancel() {
	var fx effects

	s.mu.Lock()
	if s.active != nil {
		s.finishLocked(s.active, OutcomeCancelled, &fx)
		s.active = nil
	}
	s.mu.Unlock()

	s.apply(fx)
}

// Active returns the motion currently owning the camera, or nil.
func (s *Sequencer) Active() *Motion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Busy reports whether a motion is running.
func (s *Sequencer) Busy() bool {
	return s.Active() != nil
}

// Snapshot returns a copy of m's current state.
func (s *Sequencer) Snapshot(m *Motion) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:       m.id,
		Kind:     m.req.Kind,
		Progress: m.t,
		Frames:   m.frames,
		Outcome:  m.outcome,
		Started:  m.start,
		Finished: m.end,
	}
}

func (s *Sequencer) startLocked(req Request) (*Motion, effects) {
	var fx effects

	if prev := s.active; prev != nil {
		s.finishLocked(prev, OutcomeSuperseded, &fx)
		s.log.Debug().
			Uint64("motion", prev.id).
			Float64("t", prev.t).
			Msg("motion superseded")
	}

	s.lastID++
	m := newMotion(s.lastID, req, s.clock.Now())
	s.active = m

	fx.events = append(fx.events, eventFor(m))
	s.log.Debug().
		Uint64("motion", m.id).
		Str("kind", req.Kind.String()).
		Dur("duration", req.Duration).
		Msg("motion started")
	return m, fx
}

func (s *Sequencer) stepLocked(fx *effects) {
	m := s.active
	if m == nil {
		return
	}

	t := Progress(s.clock.Since(m.start), m.req.Duration)
	if t < m.t {
		t = m.t
	}
	m.t = t
	m.frames++

	pose := m.req.Sample(t)
	s.camera.SetPosition(pose.Position)
	s.camera.LookAt(pose.LookAt)

	if m.req.Auxiliary != nil {
		m.req.Auxiliary.RotateY(s.auxYawStep)
	}

	if t >= 1 {
		s.finishLocked(m, OutcomeCompleted, fx)
		s.active = nil
		if m.req.OnComplete != nil {
			fx.callbacks = append(fx.callbacks, m.req.OnComplete)
		}
	}
}

func (s *Sequencer) finishLocked(m *Motion, outcome Outcome, fx *effects) {
	m.outcome = outcome
	m.end = s.clock.Now()
	close(m.done)
	fx.events = append(fx.events, eventFor(m))
}

// Subscribe registers an additional listener.
func (s *Sequencer) Subscribe(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

func (s *Sequencer) apply(fx effects) {
	if len(fx.events) > 0 {
		s.mu.Lock()
		listeners := s.listeners
		s.mu.Unlock()

		for _, ev := range fx.events {
			for _, l := range listeners {
				l(ev)
			}
		}
	}
	for _, cb := range fx.callbacks {
		cb()
	}
}

func eventFor(m *Motion) Event {
	return Event{
		MotionID: m.id,
		Kind:     m.req.Kind,
		Outcome:  m.outcome,
		From:     m.req.From,
		To:       m.req.To,
		Duration: m.req.Duration,
		Started:  m.start,
		Finished: m.end,
		Frames:   m.frames,
	}
}
