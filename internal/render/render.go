// Package render draws a scene into a grid of terminal cells.
//
// Each cell shows two vertically stacked pixels using the upper half block
// glyph, foreground for the top pixel and background for the bottom one.
// Pixels are shaded by casting one ray per pixel against the scene's
// spheres; stars are projected onto the grid afterwards.
package render

import (
	"math"

	"github.com/Mr-Dark-debug/terra/internal/scene"
	"github.com/Mr-Dark-debug/terra/pkg/vecmath"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultCellAspect is the width/height ratio of a terminal cell.
const DefaultCellAspect = 0.5

// Light scale mapping the sun intensity onto [0, 1] diffuse light.
const sunScale = 0.2

// Layer tells what a pixel shows.
type Layer uint8

const (
	LayerSky Layer = iota
	LayerStar
	LayerAtmosphere
	LayerEarth
)

// Renderer turns scenes into frames.
type Renderer struct {
	cellAspect float64
}

// New creates a renderer for cells of the given width/height ratio.
// Non-positive values use DefaultCellAspect.
func New(cellAspect float64) *Renderer {
	if cellAspect <= 0 {
		cellAspect = DefaultCellAspect
	}
	return &Renderer{cellAspect: cellAspect}
}

// Aspect returns the image aspect ratio of a cols x rows cell viewport.
func (r *Renderer) Aspect(cols, rows int) float64 {
	if cols <= 0 || rows <= 0 {
		return 1
	}
	return float64(cols) * r.cellAspect / float64(rows)
}

// Render draws sc into a cols x rows frame.
func (r *Renderer) Render(sc *scene.Scene, cols, rows int) *Frame {
	f := newFrame(cols, rows*2)
	if cols <= 0 || rows <= 0 {
		return f
	}

	cam := sc.Camera
	origin := cam.Position()
	forward, right, up := cam.Basis()
	tanHalf := cam.TanHalfFOV()
	aspect := r.Aspect(cols, rows)
	sun := sc.SunDirection()

	for py := 0; py < f.Height; py++ {
		ny := (1 - 2*(float64(py)+0.5)/float64(f.Height)) * tanHalf
		for px := 0; px < f.Width; px++ {
			nx := (2*(float64(px)+0.5)/float64(f.Width) - 1) * tanHalf * aspect
			dir := forward.Add(right.Mul(nx)).Add(up.Mul(ny)).Normalize()
			c, layer := r.shade(sc, origin, dir, sun)
			f.set(px, py, c, layer)
		}
	}

	r.drawStars(sc, f, origin, forward, right, up, tanHalf, aspect)
	return f
}

func (r *Renderer) shade(sc *scene.Scene, origin, dir, sun r3.Vector) (colorful.Color, Layer) {
	c := sc.Background.At(sphereUV(dir))
	layer := LayerSky

	if tEarth, ok := raySphere(origin, dir, sc.Earth.Radius); ok && tEarth > sc.Camera.Near {
		c = r.shadeEarth(sc, origin.Add(dir.Mul(tEarth)), sun)
		layer = LayerEarth
	}

	if tAtm, ok := raySphere(origin, dir, sc.Atmosphere.Radius); ok && tAtm > sc.Camera.Near {
		if layer == LayerSky {
			layer = LayerAtmosphere
		}
		// Thicker haze toward the limb.
		n := origin.Add(dir.Mul(tAtm)).Normalize()
		rim := 1 - math.Abs(n.Dot(dir))
		c = c.BlendRgb(sc.Atmosphere.Color, vecmath.Clamp01(sc.Atmosphere.Opacity*(1+3*rim)))
	}
	return c.Clamped(), layer
}

func (r *Renderer) shadeEarth(sc *scene.Scene, p, sun r3.Vector) colorful.Color {
	n := p.Normalize()
	diffuse := math.Max(0, n.Dot(sun))
	light := sc.Ambient.Intensity + diffuse*sc.Sun.Intensity*sunScale

	u, v := sphereUV(sc.Earth.ToLocal(n))
	day := sc.Day.At(u, v)
	c := scale(day, light)

	night := sc.Night.At(u, v)
	glow := sc.NightIntensity * (1 - vecmath.Clamp01(diffuse*4))
	c = add(c, scale(night, glow))

	// Clouds spin at their own rate, so they sample their own frame.
	cu, cv := sphereUV(sc.Clouds.ToLocal(n))
	density := sc.CloudMap.At(cu, cv).R * sc.Clouds.Opacity
	cloud := scale(colorful.Color{R: 1, G: 1, B: 1}, light)
	return c.BlendRgb(cloud, vecmath.Clamp01(density))
}

func (r *Renderer) drawStars(sc *scene.Scene, f *Frame, origin, forward, right, up r3.Vector, tanHalf, aspect float64) {
	for _, s := range sc.Stars.Stars {
		// Stars outside the sky sphere are hidden behind it.
		if s.Pos.Norm() > sc.Sky.Radius {
			continue
		}
		rel := s.Pos.Sub(origin)
		z := rel.Dot(forward)
		if z <= sc.Camera.Near || z >= sc.Camera.Far {
			continue
		}
		nx := rel.Dot(right) / (z * tanHalf * aspect)
		ny := rel.Dot(up) / (z * tanHalf)
		px, py, ok := ndcToPixel(nx, ny, f.Width, f.Height)
		if !ok || f.LayerAt(px, py) >= LayerAtmosphere {
			continue
		}
		b := vecmath.Clamp01(s.Size / (scene.MinStarSize + scene.StarSizeRange))
		f.set(px, py, add(f.At(px, py), colorful.Color{R: b, G: b, B: b}).Clamped(), LayerStar)
	}
}

// ndcToPixel maps normalized device coordinates to a pixel of a w by h
// frame. Points on or past the right and bottom edges are off screen.
func ndcToPixel(nx, ny float64, w, h int) (px, py int, ok bool) {
	if nx < -1 || nx >= 1 || ny <= -1 || ny > 1 {
		return 0, 0, false
	}
	px = int((nx + 1) / 2 * float64(w))
	py = int((1 - ny) / 2 * float64(h))
	if px < 0 || px >= w || py < 0 || py >= h {
		return 0, 0, false
	}
	return px, py, true
}

// raySphere returns the nearest positive distance along dir (unit) at which
// the ray from origin meets the origin-centred sphere of radius r.
func raySphere(origin, dir r3.Vector, r float64) (float64, bool) {
	b := origin.Dot(dir)
	c := origin.Dot(origin) - r*r
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	if t := -b - sq; t > 0 {
		return t, true
	}
	if t := -b + sq; t > 0 {
		return t, true
	}
	return 0, false
}

// sphereUV maps a direction in an object's frame to equirectangular
// texture coordinates. The frame has +Y north and longitude 0 along +X.
func sphereUV(d r3.Vector) (u, v float64) {
	ll := s2.LatLngFromPoint(s2.PointFromCoords(d.X, -d.Z, d.Y))
	u = (ll.Lng.Radians() + math.Pi) / (2 * math.Pi)
	v = (math.Pi/2 - ll.Lat.Radians()) / math.Pi
	return u, v
}

func scale(c colorful.Color, k float64) colorful.Color {
	return colorful.Color{R: c.R * k, G: c.G * k, B: c.B * k}
}

func add(a, b colorful.Color) colorful.Color {
	return colorful.Color{R: a.R + b.R, G: a.G + b.G, B: a.B + b.B}
}
