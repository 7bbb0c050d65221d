package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

const halfBlock = "▀"

// Frame is a rendered image, two pixels per terminal cell vertically.
type Frame struct {
	Width  int
	Height int

	pixels []colorful.Color
	layers []Layer
}

func newFrame(w, h int) *Frame {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Frame{
		Width:  w,
		Height: h,
		pixels: make([]colorful.Color, w*h),
		layers: make([]Layer, w*h),
	}
}

func (f *Frame) set(x, y int, c colorful.Color, l Layer) {
	i := y*f.Width + x
	f.pixels[i] = c
	f.layers[i] = l
}

// At returns the pixel at (x, y).
func (f *Frame) At(x, y int) colorful.Color { return f.pixels[y*f.Width+x] }

// LayerAt returns what the pixel at (x, y) shows.
func (f *Frame) LayerAt(x, y int) Layer { return f.layers[y*f.Width+x] }

// Coverage returns the fraction of pixels showing the given layer.
func (f *Frame) Coverage(l Layer) float64 {
	if len(f.layers) == 0 {
		return 0
	}
	n := 0
	for _, got := range f.layers {
		if got == l {
			n++
		}
	}
	return float64(n) / float64(len(f.layers))
}

// Rows returns the number of terminal rows the frame occupies.
func (f *Frame) Rows() int { return (f.Height + 1) / 2 }

// String renders the frame as styled terminal lines. Runs of cells with
// the same colors share one style.
func (f *Frame) String() string {
	var b strings.Builder
	for row := 0; row < f.Rows(); row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		f.writeRow(&b, row)
	}
	return b.String()
}

func (f *Frame) writeRow(b *strings.Builder, row int) {
	top := row * 2
	bottom := top + 1

	var runFG, runBG string
	runLen := 0
	flush := func() {
		if runLen == 0 {
			return
		}
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color(runFG)).
			Background(lipgloss.Color(runBG))
		b.WriteString(style.Render(strings.Repeat(halfBlock, runLen)))
		runLen = 0
	}

	for x := 0; x < f.Width; x++ {
		fg := f.At(x, top).Clamped().Hex()
		bg := "#000000"
		if bottom < f.Height {
			bg = f.At(x, bottom).Clamped().Hex()
		}
		if runLen > 0 && (fg != runFG || bg != runBG) {
			flush()
		}
		runFG, runBG = fg, bg
		runLen++
	}
	flush()
}
