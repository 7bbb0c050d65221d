package tui

import (
	"fmt"
	"strings"

	"github.com/Mr-Dark-debug/terra/internal/panel"
	"github.com/charmbracelet/lipgloss"
)

// renderHeader produces the top bar:
//
//	TERRA  |  Tech Literacy Tips  |  front  |  orbit on  |  sun fixed
func renderHeader(m *Model) string {
	brand := headerBrandStyle.Render("TERRA")
	sep := headerSepStyle.Render(" │ ")

	ui := m.ctrl.State()
	parts := []string{
		brand,
		sep, headerMetaStyle.Render("Tech Literacy Tips"),
		sep, headerMetaStyle.Render(ui.State.String()),
	}
	if ui.ControlsEnabled {
		parts = append(parts, sep, headerMetaStyle.Render("orbit on"))
	}
	if m.seq.Busy() {
		parts = append(parts, sep, headerMetaStyle.Render("moving"))
	}
	parts = append(parts, sep, headerMetaStyle.Render("sun "+string(m.sc.Options().Sun)))

	return headerBarStyle.Width(m.width).MaxHeight(1).Render(strings.Join(parts, ""))
}

// renderFooter produces the bottom status bar with keyboard hints.
func renderFooter(m *Model) string {
	var left string
	switch {
	case m.err != nil:
		left = statusErrStyle.Render(m.err.Error())
	case m.statusMsg != "":
		left = statusWarnStyle.Render(m.statusMsg)
	default:
		left = statusStyle.Render(fmt.Sprintf("frame %d", m.sc.Frames()))
	}

	ui := m.ctrl.State()
	var hints []hint
	switch {
	case ui.ControlsEnabled:
		hints = []hint{
			{"←↑↓→/hjkl", "orbit"},
			{"+/-", "zoom"},
			{"b", "back"},
			{"enter", "learn"},
			{"q", "quit"},
		}
	case ui.Content == panel.ContentLearn:
		hints = []hint{
			{"b", "back"},
			{"q", "quit"},
		}
	default:
		hints = []hint{
			{"o", "explore"},
			{"l", "learn"},
			{"q", "quit"},
		}
	}
	right := renderHints(hints)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().
		Background(colorBgSurface).
		Width(m.width).
		MaxHeight(1).
		Render(bar)
}

type hint struct {
	key  string
	desc string
}

func renderHints(hints []hint) string {
	var parts []string
	for _, h := range hints {
		parts = append(parts,
			hintKeyStyle.Render(h.key)+" "+hintDescStyle.Render(h.desc))
	}
	return strings.Join(parts, hintDescStyle.Render("  "))
}
