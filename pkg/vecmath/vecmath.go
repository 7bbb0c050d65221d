// Package vecmath provides the interpolation helpers Terra builds camera
// paths from. Vectors are r3.Vector from github.com/golang/geo so that the
// scene, the renderer and the motion sequencer share one representation.
package vecmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Up is the world up axis (+Y).
var Up = r3.Vector{X: 0, Y: 1, Z: 0}

// V is shorthand for r3.Vector{X: x, Y: y, Z: z}.
func V(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// Lerp returns (1-t)*a + t*b, evaluated component-wise.
func Lerp(a, b r3.Vector, t float64) r3.Vector {
	return r3.Vector{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

// QuadBezier evaluates the quadratic Bezier curve through control points
// p0, p1, p2 with Bernstein weights (1-t)², 2(1-t)t and t².
func QuadBezier(p0, p1, p2 r3.Vector, t float64) r3.Vector {
	u := 1 - t
	w0 := u * u
	w1 := 2 * u * t
	w2 := t * t
	return r3.Vector{
		X: w0*p0.X + w1*p1.X + w2*p2.X,
		Y: w0*p0.Y + w1*p1.Y + w2*p2.Y,
		Z: w0*p0.Z + w1*p1.Z + w2*p2.Z,
	}
}

// RotateY rotates v about the Y axis by angle radians (right-handed).
func RotateY(v r3.Vector, angle float64) r3.Vector {
	s, c := math.Sincos(angle)
	return r3.Vector{
		X: v.X*c + v.Z*s,
		Y: v.Y,
		Z: -v.X*s + v.Z*c,
	}
}

// ApproxEqual reports whether a and b differ by at most eps on every axis.
func ApproxEqual(a, b r3.Vector, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps &&
		math.Abs(a.Y-b.Y) <= eps &&
		math.Abs(a.Z-b.Z) <= eps
}

// Clamp01 restricts v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
