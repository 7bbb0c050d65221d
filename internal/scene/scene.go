// Package scene builds the Earth scene: camera, Earth, cloud and
// atmosphere shells, sky, star field, lights and textures. It also owns the
// orbit controls the viewer hands to the user.
package scene

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/Mr-Dark-debug/terra/internal/motion"
	"github.com/Mr-Dark-debug/terra/pkg/vecmath"
	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"
)

// Named camera poses.
var (
	// FixedPose is the front view, looking past the Earth's limb.
	FixedPose = motion.Pose{Position: vecmath.V(-1.595, 0.379, 2.255), LookAt: vecmath.V(2, -0.2, 0)}
	// OrbitPose is where orbit controls take over.
	OrbitPose = motion.Pose{Position: vecmath.V(-3, 1, 3), LookAt: vecmath.V(0, 0, 0)}
	// LearnPose frames the whole globe behind the learn panel.
	LearnPose = motion.Pose{Position: vecmath.V(-3, 1, 3), LookAt: vecmath.V(0, 0, 0)}
)

// Radii of the scene's spheres.
const (
	EarthRadius      = 1.0
	CloudRadius      = 1.01
	AtmosphereRadius = 1.05
	SkyRadius        = 100.0
)

// ErrInvalidOptions is wrapped by every fatal configuration error.
var ErrInvalidOptions = errors.New("invalid scene options")

// AssetError describes a texture that could not be loaded. Recoverable
// asset errors are collected in Scene.Warnings; fatal ones abort Bootstrap.
type AssetError struct {
	Path  string
	Fatal bool
	Err   error
}

func (e *AssetError) Error() string {
	kind := "recoverable"
	if e.Fatal {
		kind = "fatal"
	}
	return fmt.Sprintf("%s asset error: %s: %v", kind, e.Path, e.Err)
}

func (e *AssetError) Unwrap() error { return e.Err }

// Options controls scene construction.
type Options struct {
	FOV    float64
	Aspect float64
	Near   float64
	Far    float64

	Stars      int
	StarSpread float64
	Seed       int64

	// Per-frame yaw increments in radians.
	EarthSpin float64
	CloudSpin float64

	// Texture paths. Empty paths use the built-in maps.
	DayTexture        string
	NightTexture      string
	CloudTexture      string
	BackgroundTexture string

	Sun SunMode
}

// DefaultOptions returns the stock scene.
func DefaultOptions() Options {
	return Options{
		FOV:        45,
		Aspect:     2,
		Near:       0.1,
		Far:        1000,
		Stars:      5000,
		StarSpread: 200,
		Seed:       1,
		EarthSpin:  0.0005,
		CloudSpin:  0.0006,
		Sun:        SunFixed,
	}
}

// Validate reports the first fatal problem with o.
func (o Options) Validate() error {
	switch {
	case o.FOV <= 0 || o.FOV >= 180:
		return fmt.Errorf("%w: fov %.2f out of (0, 180)", ErrInvalidOptions, o.FOV)
	case o.Aspect <= 0:
		return fmt.Errorf("%w: aspect %.2f must be positive", ErrInvalidOptions, o.Aspect)
	case o.Near <= 0 || o.Far <= o.Near:
		return fmt.Errorf("%w: clip range [%.2f, %.2f]", ErrInvalidOptions, o.Near, o.Far)
	case o.Stars < 0:
		return fmt.Errorf("%w: negative star count %d", ErrInvalidOptions, o.Stars)
	case o.StarSpread <= 0:
		return fmt.Errorf("%w: star spread %.2f must be positive", ErrInvalidOptions, o.StarSpread)
	case o.Sun != SunFixed && o.Sun != SunRealtime:
		return fmt.Errorf("%w: unknown sun mode %q", ErrInvalidOptions, o.Sun)
	}
	return nil
}

// Object is a sphere in the scene that can spin about its Y axis. It
// satisfies motion.Rotator.
type Object struct {
	Name    string
	Radius  float64
	Yaw     float64
	Opacity float64
	Color   colorful.Color
}

// RotateY adds delta radians to the object's yaw.
func (o *Object) RotateY(delta float64) { o.Yaw += delta }

// ToLocal maps a world-space direction into the object's frame.
func (o *Object) ToLocal(v r3.Vector) r3.Vector { return vecmath.RotateY(v, -o.Yaw) }

// DirectionalLight shines from Position toward the origin.
type DirectionalLight struct {
	Position  r3.Vector
	Intensity float64
	Color     colorful.Color
}

// AmbientLight lights everything evenly.
type AmbientLight struct {
	Intensity float64
	Color     colorful.Color
}

// Scene holds everything the renderer draws.
type Scene struct {
	Camera   *Camera
	Controls *OrbitControls

	Earth      *Object
	Clouds     *Object
	Atmosphere *Object
	Sky        *Object
	Stars      *StarField

	Sun     DirectionalLight
	Ambient AmbientLight

	Day            *Texture
	Night          *Texture
	CloudMap       *Texture
	Background     *Texture
	NightIntensity float64

	// Warnings lists the recoverable asset errors met during Bootstrap.
	Warnings []error

	opts     Options
	sunLocal r3.Vector
	frames   uint64
}

// Bootstrap builds the scene as of now. Missing or unreadable textures fall
// back to the built-in maps and are reported in Scene.Warnings; invalid
// options are fatal.
func Bootstrap(opts Options, now time.Time, log zerolog.Logger) (*Scene, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	day, night, clouds, err := builtinMaps(opts.Seed)
	if err != nil {
		return nil, &AssetError{Path: "assets/landmask.txt", Fatal: true, Err: err}
	}
	sc := &Scene{
		Camera:   NewPerspectiveCamera(opts.FOV, opts.Aspect, opts.Near, opts.Far),
		Earth:    &Object{Name: "earth", Radius: EarthRadius, Opacity: 1},
		Clouds:   &Object{Name: "clouds", Radius: CloudRadius, Opacity: 0.5},
		Sky:      &Object{Name: "sky", Radius: SkyRadius, Opacity: 1},
		Stars:    NewStarField(opts.Stars, opts.StarSpread, opts.Seed),
		Atmosphere: &Object{
			Name:    "atmosphere",
			Radius:  AtmosphereRadius,
			Opacity: 0.1,
			Color:   mustHex("#00D5FF"),
		},
		Sun: DirectionalLight{
			Position:  vecmath.V(30, 10, 30),
			Intensity: 5,
			Color:     colorful.Color{R: 1, G: 1, B: 1},
		},
		Ambient: AmbientLight{
			Intensity: 0.1,
			Color:     mustHex("#555555"),
		},
		Day:            day,
		Night:          night,
		CloudMap:       clouds,
		Background:     builtinSky(opts.Seed),
		NightIntensity: 0.6,
		opts:           opts,
	}
	sc.Controls = NewOrbitControls(sc.Camera)

	for _, slot := range []struct {
		name string
		path string
		dst  **Texture
	}{
		{"day", opts.DayTexture, &sc.Day},
		{"night", opts.NightTexture, &sc.Night},
		{"clouds", opts.CloudTexture, &sc.CloudMap},
		{"background", opts.BackgroundTexture, &sc.Background},
	} {
		if slot.path == "" {
			continue
		}
		tex, err := LoadTexture(slot.name, slot.path)
		if err != nil {
			aerr := &AssetError{Path: slot.path, Err: err}
			sc.Warnings = append(sc.Warnings, aerr)
			log.Warn().Err(err).Str("texture", slot.name).Msg("using built-in map")
			continue
		}
		*slot.dst = tex
	}

	sc.Camera.SetPosition(FixedPose.Position)
	sc.Camera.LookAt(FixedPose.LookAt)
	if opts.Sun == SunRealtime {
		sc.sunLocal = ecefToLocal(SunDirectionECEF(now))
	}

	log.Info().
		Int("stars", opts.Stars).
		Str("sun", string(opts.Sun)).
		Int("warnings", len(sc.Warnings)).
		Msg("scene ready")
	return sc, nil
}

// Tick advances the scene by one frame: the Earth and clouds spin, the
// stars twinkle and orbit controls apply pending input.
func (s *Scene) Tick(now time.Time) {
	s.frames++
	s.Earth.RotateY(s.opts.EarthSpin)
	s.Clouds.RotateY(s.opts.CloudSpin)
	s.Stars.Twinkle()
	s.Controls.Update()

	if s.opts.Sun == SunRealtime {
		s.sunLocal = ecefToLocal(SunDirectionECEF(now))
	}
}

// Frames returns the number of ticks so far.
func (s *Scene) Frames() uint64 { return s.frames }

// Resize updates the camera aspect ratio.
func (s *Scene) Resize(aspect float64) {
	s.Camera.SetAspect(aspect)
}

// Children returns the number of top-level scene objects: sky, Earth,
// clouds, atmosphere, star field, sun and ambient light.
func (s *Scene) Children() int { return 7 }

// SunDirection returns the unit vector toward the sun in world space.
//
// With a fixed sun this is the direction of the directional light. With a
// realtime sun the direction is fixed to the Earth's own frame and turns
// with it.
func (s *Scene) SunDirection() r3.Vector {
	if s.opts.Sun == SunRealtime {
		return vecmath.RotateY(s.sunLocal, s.Earth.Yaw)
	}
	return s.Sun.Position.Normalize()
}

// Options returns the options the scene was built with.
func (s *Scene) Options() Options { return s.opts }

func mustHex(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// builtinSky is a faint band of light across an otherwise black sky.
func builtinSky(seed int64) *Texture {
	const w, h = TextureWidth / 4, TextureHeight / 4
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			band := 1 - math.Abs(float64(y)/float64(h)-0.5)*6
			if band < 0 {
				band = 0
			}
			n := valueNoise(float64(x)/5, float64(y)/3, seed+7)
			g := uint8(band * n * 40)
			img.SetRGBA(x, y, color.RGBA{R: g, G: g, B: uint8(float64(g) * 1.2), A: 0xff})
		}
	}
	return NewTexture("background", img)
}
