package scene

import (
	"math/rand"

	"github.com/golang/geo/r3"
)

// Star is a single point of the star field.
type Star struct {
	Pos  r3.Vector
	Size float64
}

// StarField is a cloud of point stars spread uniformly through a cube
// centred on the origin. Sizes are re-rolled every frame so the field
// twinkles.
type StarField struct {
	Stars []Star
	rng   *rand.Rand
}

// Star size range.
const (
	MinStarSize   = 0.5
	StarSizeRange = 2.0
)

// NewStarField places n stars in [-spread/2, spread/2]³.
func NewStarField(n int, spread float64, seed int64) *StarField {
	rng := rand.New(rand.NewSource(seed))
	stars := make([]Star, n)
	for i := range stars {
		stars[i] = Star{
			Pos: r3.Vector{
				X: (rng.Float64() - 0.5) * spread,
				Y: (rng.Float64() - 0.5) * spread,
				Z: (rng.Float64() - 0.5) * spread,
			},
			Size: rng.Float64()*StarSizeRange + MinStarSize,
		}
	}
	return &StarField{Stars: stars, rng: rng}
}

// Twinkle assigns every star a fresh size in [MinStarSize, MinStarSize+StarSizeRange).
func (f *StarField) Twinkle() {
	for i := range f.Stars {
		f.Stars[i].Size = MinStarSize + f.rng.Float64()*StarSizeRange
	}
}

// Len returns the number of stars.
func (f *StarField) Len() int { return len(f.Stars) }
