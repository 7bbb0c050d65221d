package scene

import (
	"math"

	"github.com/Mr-Dark-debug/terra/internal/motion"
	"github.com/golang/geo/r3"
)

// Orbit control defaults.
const (
	DefaultDamping   = 0.1
	DefaultMinRadius = 1.3
	DefaultMaxRadius = 20.0
	maxPitch         = math.Pi/2 - 0.01
)

// OrbitControls rotates and zooms a camera around a target point. Input
// deltas are eased in over several frames when Damping is set.
type OrbitControls struct {
	Target r3.Vector
	Yaw    float64
	Pitch  float64
	Radius float64

	MinRadius float64
	MaxRadius float64
	Damping   float64

	camera  *Camera
	enabled bool

	yawDelta   float64
	pitchDelta float64
	zoomDelta  float64
}

// NewOrbitControls creates disabled controls for cam.
func NewOrbitControls(cam *Camera) *OrbitControls {
	return &OrbitControls{
		camera:    cam,
		MinRadius: DefaultMinRadius,
		MaxRadius: DefaultMaxRadius,
		Damping:   DefaultDamping,
	}
}

// Enable attaches the controls to target, starting from wherever the camera
// currently is.
func (c *OrbitControls) Enable(target r3.Vector) {
	c.Target = target
	off := c.camera.Position().Sub(target)
	c.Radius = off.Norm()
	if c.Radius > 0 {
		c.Pitch = math.Asin(off.Y / c.Radius)
		c.Yaw = math.Atan2(off.X, off.Z)
	}
	c.yawDelta, c.pitchDelta, c.zoomDelta = 0, 0, 0
	c.enabled = true
	c.Update()
}

// Disable detaches the controls. Pending input is dropped.
func (c *OrbitControls) Disable() {
	c.enabled = false
	c.yawDelta, c.pitchDelta, c.zoomDelta = 0, 0, 0
}

// Enabled reports whether the controls drive the camera.
func (c *OrbitControls) Enabled() bool { return c.enabled }

// Pose returns the camera's current position and look point.
func (c *OrbitControls) Pose() motion.Pose {
	return motion.Pose{Position: c.camera.Position(), LookAt: c.camera.Target()}
}

// Rotate queues a yaw/pitch change in radians.
func (c *OrbitControls) Rotate(deltaYaw, deltaPitch float64) {
	if !c.enabled {
		return
	}
	c.yawDelta += deltaYaw
	c.pitchDelta += deltaPitch
}

// Zoom queues a radius change.
func (c *OrbitControls) Zoom(delta float64) {
	if !c.enabled {
		return
	}
	c.zoomDelta += delta
}

// Update applies queued input and writes the camera. Call once per frame.
func (c *OrbitControls) Update() {
	if !c.enabled {
		return
	}

	f := c.Damping
	if f <= 0 || f > 1 {
		f = 1
	}
	c.Yaw += c.yawDelta * f
	c.Pitch += c.pitchDelta * f
	c.Radius += c.zoomDelta * f
	c.yawDelta *= 1 - f
	c.pitchDelta *= 1 - f
	c.zoomDelta *= 1 - f

	if c.Pitch > maxPitch {
		c.Pitch = maxPitch
	} else if c.Pitch < -maxPitch {
		c.Pitch = -maxPitch
	}
	if c.MinRadius > 0 && c.Radius < c.MinRadius {
		c.Radius = c.MinRadius
	}
	if c.MaxRadius > 0 && c.Radius > c.MaxRadius {
		c.Radius = c.MaxRadius
	}

	cp := math.Cos(c.Pitch)
	off := r3.Vector{
		X: c.Radius * cp * math.Sin(c.Yaw),
		Y: c.Radius * math.Sin(c.Pitch),
		Z: c.Radius * cp * math.Cos(c.Yaw),
	}
	c.camera.SetPosition(c.Target.Add(off))
	c.camera.LookAt(c.Target)
}
