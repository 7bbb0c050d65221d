package scene

import (
	_ "embed"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

// Texture resolution every map is resampled to.
const (
	TextureWidth  = 512
	TextureHeight = 256
)

//go:embed assets/landmask.txt
var landMaskText string

// Texture is an equirectangular map sampled by (u, v) in [0, 1]², with u
// running west to east from longitude -180° and v running north to south.
type Texture struct {
	Name string
	img  *image.RGBA
}

// NewTexture resamples src into a TextureWidth x TextureHeight texture.
func NewTexture(name string, src image.Image) *Texture {
	dst := image.NewRGBA(image.Rect(0, 0, TextureWidth, TextureHeight))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return &Texture{Name: name, img: dst}
}

// LoadTexture decodes a JPEG or PNG map from disk.
func LoadTexture(name, path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s texture: %w", name, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s texture: %w", name, err)
	}
	if b := img.Bounds(); b.Dx() < 2 || b.Dy() < 2 {
		return nil, fmt.Errorf("%s texture %s is %dx%d", name, format, b.Dx(), b.Dy())
	}
	return NewTexture(name, img), nil
}

// At samples the texture at (u, v). u wraps; v is clamped.
func (t *Texture) At(u, v float64) colorful.Color {
	u -= math.Floor(u)
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	x := int(u * float64(TextureWidth))
	y := int(v * float64(TextureHeight))
	if x >= TextureWidth {
		x = TextureWidth - 1
	}
	if y >= TextureHeight {
		y = TextureHeight - 1
	}
	c := t.img.RGBAAt(x, y)
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

// ────────────────────────────────────────────────────────────
// Built-in maps
// ────────────────────────────────────────────────────────────

var (
	oceanColor  = color.RGBA{R: 0x0b, G: 0x2e, B: 0x6b, A: 0xff}
	forestColor = color.RGBA{R: 0x3a, G: 0x7d, B: 0x44, A: 0xff}
	desertColor = color.RGBA{R: 0xc2, G: 0xa8, B: 0x78, A: 0xff}
	iceColor    = color.RGBA{R: 0xe8, G: 0xee, B: 0xf2, A: 0xff}
	cityColor   = color.RGBA{R: 0xff, G: 0xcc, B: 0x66, A: 0xff}
	black       = color.RGBA{A: 0xff}
)

// landMask parses the embedded land/sea grid.
func landMask() ([][]bool, error) {
	var rows [][]bool
	for _, line := range strings.Split(strings.TrimSpace(landMaskText), "\n") {
		line = strings.TrimSpace(line)
		row := make([]bool, len(line))
		for i, ch := range line {
			row[i] = ch == '#'
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("land mask row %d has %d columns, want %d", len(rows), len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("land mask is empty")
	}
	return rows, nil
}

// builtinMaps renders day, night and cloud maps from the land mask.
func builtinMaps(seed int64) (day, night, clouds *Texture, err error) {
	mask, err := landMask()
	if err != nil {
		return nil, nil, nil, err
	}
	h, w := len(mask), len(mask[0])

	dayImg := image.NewRGBA(image.Rect(0, 0, w, h))
	nightImg := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		lat := 90 - (float64(y)+0.5)*180/float64(h)
		for x := 0; x < w; x++ {
			if !mask[y][x] {
				dayImg.SetRGBA(x, y, oceanColor)
				nightImg.SetRGBA(x, y, black)
				continue
			}
			switch a := math.Abs(lat); {
			case a > 62:
				dayImg.SetRGBA(x, y, iceColor)
			case a > 15 && a < 35:
				dayImg.SetRGBA(x, y, desertColor)
			default:
				dayImg.SetRGBA(x, y, forestColor)
			}
			if math.Abs(lat) < 62 && hash2(x, y, seed)%3 == 0 {
				nightImg.SetRGBA(x, y, cityColor)
			} else {
				nightImg.SetRGBA(x, y, black)
			}
		}
	}

	cloudImg := image.NewRGBA(image.Rect(0, 0, TextureWidth/4, TextureHeight/4))
	cb := cloudImg.Bounds()
	for y := 0; y < cb.Dy(); y++ {
		for x := 0; x < cb.Dx(); x++ {
			n := valueNoise(float64(x)/6, float64(y)/4, seed)
			n = math.Max(0, (n-0.45)/0.55)
			g := uint8(n * 255)
			cloudImg.SetRGBA(x, y, color.RGBA{R: g, G: g, B: g, A: 0xff})
		}
	}

	return NewTexture("day", dayImg), NewTexture("night", nightImg), NewTexture("clouds", cloudImg), nil
}

// hash2 is a small integer hash of a lattice point.
func hash2(x, y int, seed int64) uint64 {
	h := uint64(seed) ^ uint64(x)*0x9e3779b97f4a7c15 ^ uint64(y)*0xc2b2ae3d27d4eb4f
	h ^= h >> 31
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	h *= 0x94d049bb133111eb
	h ^= h >> 31
	return h
}

// valueNoise is smoothly interpolated lattice noise in [0, 1].
func valueNoise(x, y float64, seed int64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)

	corner := func(dx, dy int) float64 {
		return float64(hash2(ix+dx, iy+dy, seed)%1024) / 1023
	}
	sx := fx * fx * (3 - 2*fx)
	sy := fy * fy * (3 - 2*fy)

	top := corner(0, 0) + (corner(1, 0)-corner(0, 0))*sx
	bottom := corner(0, 1) + (corner(1, 1)-corner(0, 1))*sx
	return top + (bottom-top)*sy
}
