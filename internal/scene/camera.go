package scene

import (
	"math"

	"github.com/Mr-Dark-debug/terra/pkg/vecmath"
	"github.com/golang/geo/r3"
)

// Camera is a perspective camera. It satisfies motion.Camera.
type Camera struct {
	// FOV is the vertical field of view in degrees.
	FOV    float64
	Aspect float64
	Near   float64
	Far    float64

	position r3.Vector
	target   r3.Vector
}

// NewPerspectiveCamera creates a camera at the origin looking down -Z.
func NewPerspectiveCamera(fov, aspect, near, far float64) *Camera {
	return &Camera{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		target: vecmath.V(0, 0, -1),
	}
}

func (c *Camera) Position() r3.Vector     { return c.position }
func (c *Camera) SetPosition(p r3.Vector) { c.position = p }
func (c *Camera) LookAt(p r3.Vector)      { c.target = p }

// Target returns the point the camera is looking at.
func (c *Camera) Target() r3.Vector { return c.target }

// Direction returns the unit view direction. A camera whose target equals
// its position looks down -Z.
func (c *Camera) Direction() r3.Vector {
	d := c.target.Sub(c.position)
	if d.Norm() == 0 {
		return vecmath.V(0, 0, -1)
	}
	return d.Normalize()
}

// SetAspect updates the aspect ratio after a resize. Non-positive values
// are ignored.
func (c *Camera) SetAspect(aspect float64) {
	if aspect > 0 {
		c.Aspect = aspect
	}
}

// Basis returns the camera's orthonormal forward, right and up vectors.
func (c *Camera) Basis() (forward, right, up r3.Vector) {
	forward = c.Direction()
	right = forward.Cross(vecmath.Up)
	if right.Norm() < 1e-9 {
		// Looking straight up or down.
		right = vecmath.V(1, 0, 0)
	}
	right = right.Normalize()
	up = right.Cross(forward).Normalize()
	return forward, right, up
}

// TanHalfFOV returns tan(FOV/2), the half-height of the view plane at unit
// distance.
func (c *Camera) TanHalfFOV() float64 {
	return math.Tan(c.FOV * math.Pi / 360)
}
