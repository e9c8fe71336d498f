package game

import (
	"fmt"
	"math"
	"math/rand/v2"
)

type Orb struct {
	ID       string  `json:"id"`
	Position Vec3    `json:"position"`
	Color    string  `json:"color"`
	Size     float64 `json:"size"`
}

func newOrb(rng *rand.Rand, seq int, pos Vec3) Orb {
	return Orb{
		ID:       OrbID(seq),
		Position: pos,
		Color:    fmt.Sprintf("#%06x", rng.IntN(0x1000000)),
		Size:     uniform(rng, OrbMinSize, OrbMaxSize),
	}
}

// Scatter creates n orbs around center with ids firstSeq..firstSeq+n-1.
// Each lands at a random angle and radius within DropRadius, with a small
// vertical jitter, never below DropMinHeight.
func Scatter(rng *rand.Rand, center Vec3, n, firstSeq int) []Orb {
	if n <= 0 {
		return nil
	}
	out := make([]Orb, 0, n)
	for i := range n {
		angle := rng.Float64() * 2 * math.Pi
		r := rng.Float64() * DropRadius
		pos := Vec3{
			X: center.X + math.Cos(angle)*r,
			Y: math.Max(DropMinHeight, center.Y+(rng.Float64()-0.5)*2*DropHeightJitter),
			Z: center.Z + math.Sin(angle)*r,
		}
		out = append(out, newOrb(rng, firstSeq+i, pos))
	}
	return out
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
