package tui

import (
	"strings"
)

// ────────────────────────────────────────────────────────────
// Layout
// ────────────────────────────────────────────────────────────

const (
	leftPanelWidth  = 40
	rightPanelWidth = 26
	compactWidth    = 60
)

// layout is the column split of the body area.
type layout struct {
	left   int
	globe  int
	right  int
	height int
}

// computeLayout splits width between the visible panels and the globe.
// Narrow terminals show only the globe.
func computeLayout(width, height int, showLeft, showRight bool) layout {
	l := layout{height: maxInt(height, 0)}
	if width < compactWidth {
		l.globe = maxInt(width, 0)
		return l
	}
	if showLeft {
		l.left = minInt(leftPanelWidth, width*40/100)
	}
	if showRight {
		l.right = minInt(rightPanelWidth, width*25/100)
	}
	l.globe = width - l.left - l.right
	return l
}

// ────────────────────────────────────────────────────────────
// String helpers
// ────────────────────────────────────────────────────────────

// wrap breaks s into lines of at most width runes at word boundaries.
// Words longer than width are cut.
func wrap(s string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	var cur []rune
	for _, word := range strings.Fields(s) {
		w := []rune(word)
		for len(w) > width {
			if len(cur) > 0 {
				lines = append(lines, string(cur))
				cur = cur[:0]
			}
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(cur) == 0:
			cur = append(cur, w...)
		case len(cur)+1+len(w) <= width:
			cur = append(cur, ' ')
			cur = append(cur, w...)
		default:
			lines = append(lines, string(cur))
			cur = append(cur[:0], w...)
		}
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines
}

// truncate cuts a string to maxLen and appends "..." if truncated.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// maxInt returns the larger of a and b.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// minInt returns the smaller of a and b.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
