package tui

import (
	"errors"
	"time"

	"github.com/Mr-Dark-debug/terra/internal/motion"
	"github.com/Mr-Dark-debug/terra/internal/panel"
	"github.com/Mr-Dark-debug/terra/internal/render"
	"github.com/Mr-Dark-debug/terra/internal/scene"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Input steps.
const (
	rotateStep    = 0.08 // radians per key press
	zoomStep      = 0.25
	dragYawRate   = 0.02 // radians per cell
	dragPitchRate = 0.04
	debugInterval = 2 * time.Second
)

// Options configures the viewer model.
type Options struct {
	FrameInterval time.Duration
	FadeDuration  time.Duration
	CellAspect    float64
	Clock         clockwork.Clock
	Logger        zerolog.Logger
}

// ────────────────────────────────────────────────────────────
// Model
// ────────────────────────────────────────────────────────────

// Model is the root BubbleTea model for the globe viewer.
// Scene state lives behind the pointers; the model keeps only
// terminal-side state.
type Model struct {
	sc       *scene.Scene
	seq      *motion.Sequencer
	ctrl     *panel.Controller
	renderer *render.Renderer

	clock         clockwork.Clock
	log           zerolog.Logger
	frameInterval time.Duration
	fadeDuration  time.Duration

	// Terminal
	width  int
	height int
	layout layout
	globe  string

	// Mouse drag
	dragging bool
	lastX    int
	lastY    int

	lastDebug time.Time

	// Status
	statusMsg string
	err       error
}

// NewModel creates the viewer model.
func NewModel(sc *scene.Scene, seq *motion.Sequencer, ctrl *panel.Controller, opts Options) Model {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = time.Second / 30
	}
	return Model{
		sc:            sc,
		seq:           seq,
		ctrl:          ctrl,
		renderer:      render.New(opts.CellAspect),
		clock:         opts.Clock,
		log:           opts.Logger,
		frameInterval: opts.FrameInterval,
		fadeDuration:  opts.FadeDuration,
		lastDebug:     opts.Clock.Now(),
	}
}

// ────────────────────────────────────────────────────────────
// Messages
// ────────────────────────────────────────────────────────────

// frameMsg is one display frame.
type frameMsg time.Time

// fadeEndMsg reports that the panel fade for transition gen finished.
type fadeEndMsg struct{ gen uint64 }

// ────────────────────────────────────────────────────────────
// Init
// ────────────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("Terra"), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Model) fadeEnd(gen uint64) tea.Cmd {
	return tea.Tick(m.fadeDuration, func(time.Time) tea.Msg {
		return fadeEndMsg{gen: gen}
	})
}

// ────────────────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.relayout()
		return m, nil

	case frameMsg:
		m.frame()
		return m, m.tick()

	case fadeEndMsg:
		if mo, ok := m.ctrl.TransitionEnd(msg.gen); ok {
			m.relayout()
			if mo != nil {
				m.log.Debug().Uint64("motion", mo.ID()).Msg("reverse curve started")
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}

	return m, nil
}

// frame advances the motion and the scene, then redraws the globe.
func (m *Model) frame() {
	now := m.clock.Now()
	m.seq.Step()
	m.sc.Tick(now)

	// Controller callbacks may have shown or hidden panels.
	m.relayout()
	var f *render.Frame
	if m.layout.globe > 0 && m.layout.height > 0 {
		f = m.renderer.Render(m.sc, m.layout.globe, m.layout.height)
		m.globe = f.String()
	} else {
		m.globe = ""
	}

	if now.Sub(m.lastDebug) >= debugInterval {
		m.lastDebug = now
		p, look := m.sc.Camera.Position(), m.sc.Camera.Target()
		ev := m.log.Debug().
			Floats64("camera_position", []float64{p.X, p.Y, p.Z}).
			Floats64("camera_target", []float64{look.X, look.Y, look.Z}).
			Int("scene_objects", m.sc.Children()).
			Int("stars", m.sc.Stars.Len())
		if f != nil {
			ev = ev.Float64("earth_coverage", f.Coverage(render.LayerEarth))
		}
		ev.Msg("frame stats")
	}
}

// relayout recomputes the column split and keeps the camera aspect in step
// with the globe viewport.
func (m *Model) relayout() {
	ui := m.ctrl.State()
	l := computeLayout(m.width, m.bodyHeight(), ui.PanelVisible, ui.PanelVisible && ui.RightPanelVisible)
	if l != m.layout {
		m.layout = l
		m.sc.Resize(m.renderer.Aspect(l.globe, l.height))
	}
}

func (m Model) bodyHeight() int {
	return m.height - 2 // header + footer
}

// handleKey routes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	ui := m.ctrl.State()

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "o":
		return m.toggleControls()

	case "enter":
		return m.openLearn()

	case "b", "esc":
		if ui.State == panel.StateFront && ui.ControlsEnabled {
			return m.toggleControls()
		}
		return m.closeLearn()
	}

	// With orbit controls on, hjkl steer the camera. Otherwise l opens
	// the learn panel.
	if !ui.ControlsEnabled {
		if key == "l" {
			return m.openLearn()
		}
		return m, nil
	}

	controls := m.sc.Controls
	switch key {
	case "left", "h":
		controls.Rotate(-rotateStep, 0)
	case "right", "l":
		controls.Rotate(rotateStep, 0)
	case "up", "k":
		controls.Rotate(0, rotateStep)
	case "down", "j":
		controls.Rotate(0, -rotateStep)
	case "+", "=":
		controls.Zoom(-zoomStep)
	case "-", "_":
		controls.Zoom(zoomStep)
	}
	return m, nil
}

// handleMouse maps clicks on the panels to their buttons, drags on the
// globe to orbit input and the wheel to zoom.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	ui := m.ctrl.State()
	controls := m.sc.Controls

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		controls.Zoom(-zoomStep)
		return m, nil
	case tea.MouseButtonWheelDown:
		controls.Zoom(zoomStep)
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		switch m.zoneAt(msg.X) {
		case zoneRight:
			return m.openLearn()
		case zoneLeft:
			if ui.Content == panel.ContentLearn {
				return m.closeLearn()
			}
			return m, nil
		}
		m.dragging = true
		m.lastX, m.lastY = msg.X, msg.Y

	case tea.MouseActionMotion:
		if m.dragging {
			dx, dy := msg.X-m.lastX, msg.Y-m.lastY
			controls.Rotate(-float64(dx)*dragYawRate, float64(dy)*dragPitchRate)
			m.lastX, m.lastY = msg.X, msg.Y
		}

	case tea.MouseActionRelease:
		m.dragging = false
	}
	return m, nil
}

type zone int

const (
	zoneGlobe zone = iota
	zoneLeft
	zoneRight
)

func (m Model) zoneAt(x int) zone {
	switch {
	case x < m.layout.left:
		return zoneLeft
	case m.layout.right > 0 && x >= m.width-m.layout.right:
		return zoneRight
	default:
		return zoneGlobe
	}
}

func (m Model) toggleControls() (tea.Model, tea.Cmd) {
	if _, err := m.ctrl.ToggleControls(); err != nil {
		return m.reject(err), nil
	}
	m.statusMsg = ""
	m.relayout()
	return m, nil
}

func (m Model) openLearn() (tea.Model, tea.Cmd) {
	tr, err := m.ctrl.OpenLearn()
	if err != nil {
		return m.reject(err), nil
	}
	m.statusMsg = ""
	m.relayout()
	return m, m.fadeEnd(tr.Gen)
}

func (m Model) closeLearn() (tea.Model, tea.Cmd) {
	tr, err := m.ctrl.CloseLearn()
	if err != nil {
		return m.reject(err), nil
	}
	m.statusMsg = ""
	return m, m.fadeEnd(tr.Gen)
}

// reject reports an action the panel state does not allow. These are
// expected during transitions and are shown, not treated as failures.
func (m Model) reject(err error) Model {
	switch {
	case errors.Is(err, panel.ErrBusy):
		m.statusMsg = "busy: wait for the transition to finish"
	case errors.Is(err, panel.ErrInvalidState):
		m.statusMsg = "not available here"
	default:
		m.err = err
	}
	m.log.Debug().Err(err).Msg("action rejected")
	return m
}

// ────────────────────────────────────────────────────────────
// View
// ────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	header := renderHeader(&m)
	footer := renderFooter(&m)

	ui := m.ctrl.State()
	l := m.layout
	var cols []string
	if l.left > 0 {
		cols = append(cols, renderLeftPanel(ui, l.left, l.height))
	}
	if l.globe > 0 {
		cols = append(cols, lipgloss.NewStyle().
			Width(l.globe).
			Height(l.height).
			Background(colorBg).
			Render(m.globe))
	}
	if l.right > 0 {
		cols = append(cols, renderRightPanel(ui, l.right, l.height))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
