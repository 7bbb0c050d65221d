package render

import (
	"image"
	"image/color"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Mr-Dark-debug/terra/internal/scene"
	"github.com/Mr-Dark-debug/terra/pkg/vecmath"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScene(t *testing.T, stars int) *scene.Scene {
	t.Helper()
	opts := scene.DefaultOptions()
	opts.Stars = stars
	sc, err := scene.Bootstrap(opts, time.Now(), zerolog.Nop())
	require.NoError(t, err)
	return sc
}

func solid(name string, c color.RGBA) *scene.Texture {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return scene.NewTexture(name, img)
}

func brightness(c colorful.Color) float64 { return (c.R + c.G + c.B) / 3 }

func TestAspect(t *testing.T) {
	r := New(0)
	assert.Equal(t, 1.0, r.Aspect(40, 20))
	assert.Equal(t, 2.0, r.Aspect(80, 20))
	assert.Equal(t, 1.0, r.Aspect(0, 20))
	assert.Equal(t, 2.0, New(1).Aspect(40, 20))
}

func TestRenderEarthInCentre(t *testing.T) {
	sc := newScene(t, 0)
	sc.Camera.SetPosition(scene.OrbitPose.Position)
	sc.Camera.LookAt(scene.OrbitPose.LookAt)

	f := New(DefaultCellAspect).Render(sc, 40, 20)
	require.Equal(t, 40, f.Width)
	require.Equal(t, 40, f.Height)
	assert.Equal(t, 20, f.Rows())

	assert.Equal(t, LayerEarth, f.LayerAt(20, 20))
	assert.NotEqual(t, LayerEarth, f.LayerAt(0, 0))
	assert.NotEqual(t, LayerEarth, f.LayerAt(39, 39))

	// Angular radius asin(1/sqrt(19)) against a 22.5° half field of view.
	cov := f.Coverage(LayerEarth)
	assert.Greater(t, cov, 0.15)
	assert.Less(t, cov, 0.45)
	assert.Greater(t, f.Coverage(LayerAtmosphere), 0.0)
}

func TestRenderDayAndNightSides(t *testing.T) {
	sc := newScene(t, 0)
	sc.Day = solid("day", color.RGBA{R: 255, G: 255, B: 255, A: 255})
	sc.Night = solid("night", color.RGBA{A: 255})
	sc.CloudMap = solid("clouds", color.RGBA{A: 255})

	sun := sc.SunDirection()
	r := New(DefaultCellAspect)

	sc.Camera.SetPosition(sun.Mul(5))
	sc.Camera.LookAt(vecmath.V(0, 0, 0))
	day := r.Render(sc, 20, 10)
	require.Equal(t, LayerEarth, day.LayerAt(10, 10))

	sc.Camera.SetPosition(sun.Mul(-5))
	night := r.Render(sc, 20, 10)
	require.Equal(t, LayerEarth, night.LayerAt(10, 10))

	assert.Greater(t, brightness(day.At(10, 10)), 0.8)
	assert.Less(t, brightness(night.At(10, 10)), 0.3)
}

func TestRenderNightLights(t *testing.T) {
	sc := newScene(t, 0)
	sc.Day = solid("day", color.RGBA{A: 255})
	sc.Night = solid("night", color.RGBA{R: 255, G: 200, B: 100, A: 255})
	sc.CloudMap = solid("clouds", color.RGBA{A: 255})

	sc.Camera.SetPosition(sc.SunDirection().Mul(-5))
	sc.Camera.LookAt(vecmath.V(0, 0, 0))
	f := New(DefaultCellAspect).Render(sc, 20, 10)

	c := f.At(10, 10)
	assert.Greater(t, c.R, c.B)
	assert.Greater(t, c.R, 0.4)
}

func TestRenderStars(t *testing.T) {
	sc := newScene(t, 5000)
	sc.Camera.SetPosition(vecmath.V(0, 0, 5))
	sc.Camera.LookAt(vecmath.V(0, 0, 50))

	f := New(DefaultCellAspect).Render(sc, 60, 20)
	assert.Equal(t, 0.0, f.Coverage(LayerEarth))
	assert.Greater(t, f.Coverage(LayerStar), 0.0)
}

func TestStarsHiddenBehindEarth(t *testing.T) {
	sc := newScene(t, 0)
	sc.Stars.Stars = append(sc.Stars.Stars, scene.Star{Pos: vecmath.V(0, 0, -50), Size: 2})
	sc.Camera.SetPosition(vecmath.V(0, 0, 3))
	sc.Camera.LookAt(vecmath.V(0, 0, 0))

	f := New(DefaultCellAspect).Render(sc, 20, 10)
	assert.Equal(t, 0.0, f.Coverage(LayerStar))

	sc.Camera.SetPosition(vecmath.V(0, 0, -3))
	sc.Camera.LookAt(vecmath.V(0, 0, -50))
	f = New(DefaultCellAspect).Render(sc, 20, 10)
	assert.Greater(t, f.Coverage(LayerStar), 0.0)
}

func TestRaySphere(t *testing.T) {
	d, ok := raySphere(vecmath.V(0, 0, 5), vecmath.V(0, 0, -1), 1)
	require.True(t, ok)
	assert.InDelta(t, 4, d, 1e-12)

	_, ok = raySphere(vecmath.V(0, 0, 5), vecmath.V(0, 0, 1), 1)
	assert.False(t, ok)

	_, ok = raySphere(vecmath.V(0, 3, 5), vecmath.V(0, 0, -1), 1)
	assert.False(t, ok)

	// From inside the sphere the far side is hit.
	d, ok = raySphere(vecmath.V(0, 0, 0), vecmath.V(1, 0, 0), 2)
	require.True(t, ok)
	assert.InDelta(t, 2, d, 1e-12)
}

func TestNDCToPixel(t *testing.T) {
	px, py, ok := ndcToPixel(0, 0, 80, 48)
	assert.True(t, ok)
	assert.Equal(t, 40, px)
	assert.Equal(t, 24, py)

	px, py, ok = ndcToPixel(-1, 1, 80, 48)
	assert.True(t, ok)
	assert.Equal(t, 0, px)
	assert.Equal(t, 0, py)

	// Just inside the right and bottom edges the conversion rounds up to
	// the frame size.
	_, _, ok = ndcToPixel(math.Nextafter(1, 0), 0, 80, 48)
	assert.False(t, ok)
	_, _, ok = ndcToPixel(0, math.Nextafter(-1, 0), 80, 48)
	assert.False(t, ok)

	_, _, ok = ndcToPixel(1, 0, 80, 48)
	assert.False(t, ok)
	_, _, ok = ndcToPixel(0, 0, 0, 0)
	assert.False(t, ok)
}

func TestSphereUV(t *testing.T) {
	u, v := sphereUV(vecmath.V(1, 0, 0))
	assert.InDelta(t, 0.5, u, 1e-12)
	assert.InDelta(t, 0.5, v, 1e-12)

	_, v = sphereUV(vecmath.V(0, 1, 0))
	assert.InDelta(t, 0, v, 1e-12)

	u, _ = sphereUV(vecmath.V(0, 0, -1))
	assert.InDelta(t, 0.75, u, 1e-12)

	u, _ = sphereUV(vecmath.V(0, 0, 1))
	assert.InDelta(t, 0.25, u, 1e-12)
	assert.False(t, math.IsNaN(u))
}

func TestFrameString(t *testing.T) {
	sc := newScene(t, 100)
	f := New(DefaultCellAspect).Render(sc, 30, 8)

	lines := strings.Split(f.String(), "\n")
	require.Len(t, lines, 8)
	for _, line := range lines {
		assert.Equal(t, 30, lipgloss.Width(line))
		assert.Contains(t, line, halfBlock)
	}
}

func TestRenderEmptyViewport(t *testing.T) {
	sc := newScene(t, 0)
	f := New(DefaultCellAspect).Render(sc, 0, 0)
	assert.Equal(t, "", f.String())
	assert.Equal(t, 0.0, f.Coverage(LayerEarth))
}
