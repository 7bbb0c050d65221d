package tui

import (
	"strings"

	"github.com/Mr-Dark-debug/terra/internal/panel"
	"github.com/charmbracelet/lipgloss"
)

// styler picks the faded style while a panel fade is running.
type styler bool

func (fading styler) of(s lipgloss.Style) lipgloss.Style {
	if fading {
		return fadedStyle
	}
	return s
}

// renderLeftPanel draws the main content panel: the welcome copy in the
// front state and the lesson link in the learn state.
func renderLeftPanel(ui panel.UIState, width, height int) string {
	inner := width - 1 - 4 // border + horizontal padding
	if inner <= 0 {
		return ""
	}
	st := styler(ui.Fading)

	var lines []string
	add := func(style lipgloss.Style, text string) {
		for _, l := range wrap(text, inner) {
			lines = append(lines, st.of(style).Render(l))
		}
	}

	switch ui.Content {
	case panel.ContentLearn:
		add(panelTitleStyle, learnTitle)
		lines = append(lines, "")
		add(panelTextStyle, "Lesson 1 video:")
		add(panelDimStyle, learnVideoURL)
		lines = append(lines, "")
		lines = append(lines, st.of(buttonStyle).Render("b Back"))

	default:
		add(panelTitleStyle, frontTitle)
		lines = append(lines, "")
		for _, b := range frontBullets {
			add(bulletStyle, "▸ "+b.title)
			add(panelDimStyle, b.body)
			lines = append(lines, "")
		}
		lines = append(lines, st.of(buttonStyle).Render("o Explore the globe"))
	}

	return panelStyle.
		Width(width - 1).
		Height(height).
		MaxHeight(height).
		Render(strings.Join(lines, "\n"))
}

// renderRightPanel draws the call-to-action panel shown next to the
// front content.
func renderRightPanel(ui panel.UIState, width, height int) string {
	inner := width - 1 - 4
	if inner <= 0 {
		return ""
	}
	st := styler(ui.Fading)

	var lines []string
	for _, l := range wrap(rightTitle, inner) {
		lines = append(lines, st.of(panelTitleStyle).Render(l))
	}
	lines = append(lines, "")
	for _, l := range wrap(rightBody, inner) {
		lines = append(lines, st.of(panelDimStyle).Render(l))
	}
	lines = append(lines, "")
	lines = append(lines, st.of(buttonStyle).Render(truncate("l Learn", inner)))

	return rightPanelStyle.
		Width(width - 1).
		Height(height).
		MaxHeight(height).
		Render(strings.Join(lines, "\n"))
}
