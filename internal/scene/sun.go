package scene

import (
	"time"

	"github.com/golang/geo/r3"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
)

// SunMode selects how the sun direction is computed.
type SunMode string

const (
	// SunFixed keeps the sun at a fixed world position; the Earth turns
	// underneath it.
	SunFixed SunMode = "fixed"
	// SunRealtime places the sun where it is for the given UTC time, in the
	// Earth's own frame.
	SunRealtime SunMode = "realtime"
)

// SunDirectionECEF returns the unit vector from the Earth's centre toward
// the sun at t, in Earth-centred Earth-fixed coordinates (Z north, X through
// the prime meridian).
func SunDirectionECEF(t time.Time) r3.Vector {
	jd := julian.TimeToJD(t.UTC())

	ra, dec := solar.ApparentEquatorial(jd)

	x := dec.Cos() * ra.Cos()
	y := dec.Cos() * ra.Sin()
	z := dec.Sin()

	gmst := sidereal.Apparent(jd)
	cosG := gmst.Angle().Cos()
	sinG := gmst.Angle().Sin()

	return r3.Vector{
		X: x*cosG + y*sinG,
		Y: -x*sinG + y*cosG,
		Z: z,
	}.Normalize()
}

// ecefToLocal maps ECEF axes onto the scene's Earth frame, where +Y is
// north and longitude 90°E lies along -Z.
func ecefToLocal(v r3.Vector) r3.Vector {
	return r3.Vector{X: v.X, Y: v.Z, Z: -v.Y}
}
