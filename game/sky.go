package game

import (
	"math"
	"math/rand/v2"
)

type Nebula struct {
	Position Vec3    `json:"position"`
	Scale    float64 `json:"scale"`
	Rotation Vec3    `json:"rotation"`
}

type Star struct {
	Position Vec3 `json:"position"`
	IsLarge  bool `json:"isLarge"`
}

// StarField describes the star sphere compactly. Points expands it; the
// same field always gives the same stars.
type StarField struct {
	Seed        uint64  `json:"seed"`
	Count       int     `json:"count"`
	LargeCount  int     `json:"largeCount"`
	Radius      float64 `json:"radius"`
	LargeRadius float64 `json:"largeRadius"`
}

// Points returns Count small stars followed by LargeCount large ones,
// uniformly spread over their spheres.
func (f StarField) Points() []Star {
	rng := NewRand(f.Seed)
	out := make([]Star, 0, max(f.Count, 0)+max(f.LargeCount, 0))
	for range f.Count {
		out = append(out, Star{Position: onSphere(rng, f.Radius)})
	}
	for range f.LargeCount {
		out = append(out, Star{Position: onSphere(rng, f.LargeRadius), IsLarge: true})
	}
	return out
}

func onSphere(rng *rand.Rand, r float64) Vec3 {
	theta := rng.Float64() * 2 * math.Pi
	phi := math.Acos(rng.Float64()*2 - 1)
	return Vec3{
		X: r * math.Sin(phi) * math.Cos(theta),
		Y: r * math.Sin(phi) * math.Sin(theta),
		Z: r * math.Cos(phi),
	}
}

type Sky struct {
	Nebulas []Nebula
	Stars   StarField
}

// placeSky spaces nebulas evenly around a ring and seeds the star field.
func placeSky(rng *rand.Rand, p Params) Sky {
	sky := Sky{Stars: StarField{
		Seed:        rng.Uint64(),
		Count:       max(p.NumStars, 0),
		LargeCount:  max(p.NumLargeStars, 0),
		Radius:      StarRadius,
		LargeRadius: LargeStarRadius,
	}}
	for i := range max(p.NumNebulas, 0) {
		angle := float64(i) / float64(p.NumNebulas) * 2 * math.Pi
		sky.Nebulas = append(sky.Nebulas, Nebula{
			Position: Vec3{
				X: math.Cos(angle) * NebulaRingRadius,
				Y: uniform(rng, NebulaMinY, NebulaMaxY),
				Z: math.Sin(angle) * NebulaRingRadius,
			},
			Scale: uniform(rng, NebulaMinScale, NebulaMaxScale),
			Rotation: Vec3{
				X: rng.Float64() * math.Pi,
				Y: rng.Float64() * math.Pi,
				Z: rng.Float64() * math.Pi,
			},
		})
	}
	return sky
}

// Constants are the world parameters clients need to build the scene.
// Key names are the ones browser clients already read.
type Constants struct {
	PlayerHeight    float64 `json:"PLAYER_HEIGHT"`
	PlayerRadius    float64 `json:"PLAYER_RADIUS"`
	NumTowers       int     `json:"NUM_TOWERS"`
	MaxRadius       float64 `json:"MAX_RADIUS"`
	NumNebulas      int     `json:"NUM_NEBULAS"`
	NumStars        int     `json:"NUM_STARS"`
	NumLargeStars   int     `json:"NUM_LARGE_STARS"`
	StarRadius      float64 `json:"STAR_RADIUS"`
	LargeStarRadius float64 `json:"LARGE_STAR_RADIUS"`
	BridgeChance    float64 `json:"BRIDGE_CHANCE"`
}

func (p Params) Constants() Constants {
	return Constants{
		PlayerHeight:    PlayerHeight,
		PlayerRadius:    PlayerRadius,
		NumTowers:       p.NumTowers,
		MaxRadius:       p.MaxRadius,
		NumNebulas:      p.NumNebulas,
		NumStars:        p.NumStars,
		NumLargeStars:   p.NumLargeStars,
		StarRadius:      StarRadius,
		LargeStarRadius: LargeStarRadius,
		BridgeChance:    p.BridgeChance,
	}
}
