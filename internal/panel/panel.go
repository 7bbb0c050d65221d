// Package panel is the UI panel controller. It owns the visibility flags
// of the viewer's panels and asks the motion sequencer for the camera
// moves that go with each panel change.
//
// Panel changes fade out first. The host reports the end of the fade with
// TransitionEnd, passing the generation token of the transition it was
// started for; stale or repeated tokens are ignored, so each transition
// swaps the panel content exactly once.
package panel

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Mr-Dark-debug/terra/internal/motion"
	"github.com/golang/geo/r3"
	"github.com/rs/zerolog"
)

var (
	// ErrBusy is returned when a panel transition is already running.
	ErrBusy = errors.New("panel transition in progress")
	// ErrInvalidState is returned when an action does not apply to the
	// current panel state.
	ErrInvalidState = errors.New("action not valid in current panel state")
)

// State is the panel state machine's state.
type State int

const (
	StateFront State = iota
	StateTransitioningToLearn
	StateLearn
	StateTransitioningToFront
)

func (s State) String() string {
	switch s {
	case StateFront:
		return "front"
	case StateTransitioningToLearn:
		return "to-learn"
	case StateLearn:
		return "learn"
	case StateTransitioningToFront:
		return "to-front"
	default:
		return "unknown"
	}
}

// Content selects what the main panel shows.
type Content int

const (
	ContentFront Content = iota
	ContentLearn
)

func (c Content) String() string {
	if c == ContentLearn {
		return "learn"
	}
	return "front"
}

// Mover starts camera motions. *motion.Sequencer satisfies it.
type Mover interface {
	MoveLinear(targetPos, targetLook r3.Vector, duration time.Duration, onComplete func()) *motion.Motion
	MoveCurved(from, to, lookFrom, lookTo r3.Vector, duration time.Duration, aux motion.Rotator) *motion.Motion
}

// OrbitInput is the interactive orbit camera input.
type OrbitInput interface {
	Enable(target r3.Vector)
	Disable()
	Enabled() bool
	// Pose is the current pose of the camera the input drives.
	Pose() motion.Pose
}

// UIState is a snapshot of the panel flags.
type UIState struct {
	State             State
	Content           Content
	ControlsEnabled   bool
	PanelVisible      bool
	RightPanelVisible bool
	Fading            bool
}

// Transition is returned by the calls that start a fade. Gen must be
// passed back to TransitionEnd once the fade has finished.
type Transition struct {
	Gen    uint64
	From   State
	To     State
	Motion *motion.Motion
}

// Config holds the poses and timings the controller uses.
type Config struct {
	Front motion.Pose
	Orbit motion.Pose
	Learn motion.Pose

	ToggleDuration time.Duration
	CurveDuration  time.Duration

	// Spun while the curved moves run. May be nil.
	Earth motion.Rotator
}

// Controller implements the panel state machine.
type Controller struct {
	mu sync.Mutex

	mover Mover
	orbit OrbitInput
	cfg   Config
	log   zerolog.Logger

	ui        UIState
	gen       uint64
	pending   uint64
	toggleGen uint64
}

// NewController creates a controller in the front state with orbit input
// disabled.
func NewController(mover Mover, orbit OrbitInput, cfg Config, log zerolog.Logger) *Controller {
	return &Controller{
		mover: mover,
		orbit: orbit,
		cfg:   cfg,
		log:   log,
		ui: UIState{
			State:             StateFront,
			Content:           ContentFront,
			PanelVisible:      true,
			RightPanelVisible: true,
		},
	}
}

// State returns a snapshot of the UI flags.
func (c *Controller) State() UIState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ui
}

// ToggleControls switches orbit controls on or off. It is only valid in
// the front state.
//
// Turning controls on hides the main panel and flies the camera to the
// orbit pose; orbit input is enabled when that motion completes. Turning
// them off drops orbit input at once and flies back to the front pose.
func (c *Controller) ToggleControls() (*motion.Motion, error) {
	c.mu.Lock()
	if c.ui.State != StateFront {
		st := c.ui.State
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: toggle controls while %s", ErrInvalidState, st)
	}

	var (
		target     motion.Pose
		onComplete func()
	)
	if c.ui.ControlsEnabled {
		c.disableControlsLocked()
		target = c.cfg.Front
	} else {
		c.ui.ControlsEnabled = true
		c.ui.PanelVisible = false
		c.toggleGen++
		gen := c.toggleGen
		target = c.cfg.Orbit
		onComplete = func() { c.enableOrbit(gen) }
	}
	enabled := c.ui.ControlsEnabled
	c.mu.Unlock()

	c.log.Info().Bool("controls", enabled).Msg("toggle controls")
	return c.mover.MoveLinear(target.Position, target.LookAt, c.cfg.ToggleDuration, onComplete), nil
}

// OpenLearn starts the transition from the front panel to the learn panel:
// the fade begins and the camera curves toward the learn pose. Orbit
// controls are switched off first if they are on, and the curve then
// starts from wherever the camera is instead of the front pose.
func (c *Controller) OpenLearn() (Transition, error) {
	c.mu.Lock()
	switch c.ui.State {
	case StateFront:
	case StateTransitioningToLearn, StateTransitioningToFront:
		c.mu.Unlock()
		return Transition{}, fmt.Errorf("%w: open learn", ErrBusy)
	default:
		st := c.ui.State
		c.mu.Unlock()
		return Transition{}, fmt.Errorf("%w: open learn while %s", ErrInvalidState, st)
	}

	f := c.cfg.Front
	if c.ui.ControlsEnabled {
		f = c.orbit.Pose()
		c.disableControlsLocked()
	}
	tr := c.beginLocked(StateTransitioningToLearn)
	c.mu.Unlock()

	l := c.cfg.Learn
	tr.Motion = c.mover.MoveCurved(f.Position, l.Position, f.LookAt, l.LookAt, c.cfg.CurveDuration, c.cfg.Earth)
	c.log.Info().Uint64("gen", tr.Gen).Msg("open learn panel")
	return tr, nil
}

// CloseLearn starts the fade back to the front panel. The camera moves
// once the fade has finished.
func (c *Controller) CloseLearn() (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.ui.State {
	case StateLearn:
	case StateTransitioningToLearn, StateTransitioningToFront:
		return Transition{}, fmt.Errorf("%w: close learn", ErrBusy)
	default:
		return Transition{}, fmt.Errorf("%w: close learn while %s", ErrInvalidState, c.ui.State)
	}

	tr := c.beginLocked(StateTransitioningToFront)
	c.log.Info().Uint64("gen", tr.Gen).Msg("close learn panel")
	return tr, nil
}

// TransitionEnd reports the end of the fade started by transition gen. It
// swaps the panel content and returns true, or returns false if gen is not
// the pending transition. Ending a transition back to the front panel
// starts the reverse camera curve, which is returned.
func (c *Controller) TransitionEnd(gen uint64) (*motion.Motion, bool) {
	c.mu.Lock()
	if gen == 0 || gen != c.pending {
		pending := c.pending
		c.mu.Unlock()
		c.log.Debug().Uint64("gen", gen).Uint64("pending", pending).Msg("stale transition end ignored")
		return nil, false
	}
	c.pending = 0
	c.ui.Fading = false

	switch c.ui.State {
	case StateTransitioningToLearn:
		c.ui.State = StateLearn
		c.ui.Content = ContentLearn
		c.ui.RightPanelVisible = false
		c.mu.Unlock()
		return nil, true

	case StateTransitioningToFront:
		c.ui.State = StateFront
		c.ui.Content = ContentFront
		c.ui.RightPanelVisible = true
		c.mu.Unlock()

		f, l := c.cfg.Front, c.cfg.Learn
		m := c.mover.MoveCurved(l.Position, f.Position, l.LookAt, f.LookAt, c.cfg.CurveDuration, c.cfg.Earth)
		return m, true

	default:
		c.mu.Unlock()
		return nil, false
	}
}

func (c *Controller) beginLocked(to State) Transition {
	from := c.ui.State
	c.gen++
	c.pending = c.gen
	c.ui.State = to
	c.ui.Fading = true
	return Transition{Gen: c.gen, From: from, To: to}
}

func (c *Controller) disableControlsLocked() {
	c.orbit.Disable()
	c.ui.ControlsEnabled = false
	c.ui.PanelVisible = true
	c.toggleGen++
}

// enableOrbit runs when the fly-to-orbit motion completes. A later toggle
// bumps toggleGen, so a late callback cannot turn input back on.
func (c *Controller) enableOrbit(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.toggleGen || !c.ui.ControlsEnabled {
		return
	}
	c.orbit.Enable(c.cfg.Orbit.LookAt)
	c.log.Debug().Msg("orbit input enabled")
}
