package tui

import "github.com/charmbracelet/lipgloss"

// ────────────────────────────────────────────────────────────
// Color Palette: deep space
// ────────────────────────────────────────────────────────────
//
// All chrome colors are defined here. The globe itself is colored by
// the renderer from the scene textures.

var (
	// Base
	colorBg        = lipgloss.Color("#05070d")
	colorBgPanel   = lipgloss.Color("#0b1020")
	colorBgSurface = lipgloss.Color("#111a2e")

	// Text
	colorText      = lipgloss.Color("#e6edf3")
	colorTextDim   = lipgloss.Color("#8b949e")
	colorTextMuted = lipgloss.Color("#3a4250")

	// Accents
	colorCyan   = lipgloss.Color("#00d5ff")
	colorGreen  = lipgloss.Color("#3fb950")
	colorYellow = lipgloss.Color("#d29922")
	colorRed    = lipgloss.Color("#f85149")

	// Structural
	colorDivider = lipgloss.Color("#1f2a44")
)

// ────────────────────────────────────────────────────────────
// Component Styles
// ────────────────────────────────────────────────────────────

// Header bar
var (
	headerBarStyle = lipgloss.NewStyle().
			Background(colorBgSurface).
			Foreground(colorText).
			Padding(0, 1)

	headerBrandStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorCyan)

	headerSepStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	headerMetaStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)
)

// Side panels
var (
	panelStyle = lipgloss.NewStyle().
			Background(colorBgPanel).
			Padding(1, 2).
			Border(lipgloss.Border{Right: "│"}, false, true, false, false).
			BorderForeground(colorDivider)

	rightPanelStyle = lipgloss.NewStyle().
			Background(colorBgPanel).
			Padding(1, 2).
			Border(lipgloss.Border{Left: "│"}, false, false, false, true).
			BorderForeground(colorDivider)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	panelTextStyle = lipgloss.NewStyle().
			Foreground(colorText)

	panelDimStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	bulletStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	buttonStyle = lipgloss.NewStyle().
			Foreground(colorBg).
			Background(colorCyan).
			Bold(true).
			Padding(0, 1)

	// Applied over panel text while a fade runs.
	fadedStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)
)

// Footer / status bar
var (
	statusStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorBgSurface).
			Padding(0, 1)

	statusWarnStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Background(colorBgSurface).
			Padding(0, 1)

	statusErrStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Background(colorBgSurface).
			Padding(0, 1)

	hintKeyStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	hintDescStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)
)
