package game

import (
	"math"
	"math/rand/v2"
)

// Params sizes a generated world. DefaultParams matches the tuning
// constants; tests shrink it.
type Params struct {
	NumTowers    int
	MaxRadius    float64
	NumOrbs      int
	BridgeChance float64
	OrbClearance float64
	OrbRetries   int
	OrbMinHeight float64
	OrbMaxHeight float64

	NumNebulas    int
	NumStars      int
	NumLargeStars int

	// FirstOrbID is the sequence number of the first generated orb, so a
	// regenerated world never reuses ids handed out before.
	FirstOrbID int
}

func DefaultParams() Params {
	return Params{
		NumTowers:    NumTowers,
		MaxRadius:    MaxRadius,
		NumOrbs:      NumOrbs,
		BridgeChance: BridgeChance,
		OrbClearance: OrbClearance,
		OrbRetries:   OrbRetries,
		OrbMinHeight: OrbMinHeight,
		OrbMaxHeight: OrbMaxHeight,

		NumNebulas:    NumNebulas,
		NumStars:      NumStars,
		NumLargeStars: NumLargeStars,
	}
}

// Spacing is the grid cell size used for tower placement.
func (p Params) Spacing() float64 {
	side := p.gridSide()
	if side == 0 {
		return 0
	}
	return p.MaxRadius * 2 / float64(side)
}

// MaxBridgeDistance and MaxBridgeHeightDiff bound which tower pairs may be
// connected.
func (p Params) MaxBridgeDistance() float64 { return p.Spacing() * BridgeDistanceFactor }

func (p Params) MaxBridgeHeightDiff() float64 { return p.Spacing() * BridgeHeightFactor }

func (p Params) gridSide() int {
	if p.NumTowers <= 0 {
		return 0
	}
	return int(math.Ceil(math.Sqrt(float64(p.NumTowers))))
}

// NewRand returns a deterministic generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate builds a world from rng. The same seed and params always give
// the same world.
func Generate(rng *rand.Rand, p Params) *World {
	w := &World{Orbs: make(map[string]Orb, max(p.NumOrbs, 0)), Constants: p.Constants()}
	if side := p.gridSide(); side > 0 {
		spacing := p.Spacing()
		w.Towers = placeTowers(rng, p, side, spacing)
		w.Bridges = placeBridges(rng, p, w.Towers, side, spacing)
	}
	w.placeOrbs(rng, p)
	w.Sky = placeSky(rng, p)
	return w
}

// placeTowers fills the grid row by row. A clustered tower is placed near
// the previous tower in its row instead of in its own cell.
func placeTowers(rng *rand.Rand, p Params, side int, spacing float64) []Tower {
	towers := make([]Tower, 0, p.NumTowers)
	for i := 0; i < side && len(towers) < p.NumTowers; i++ {
		for j := 0; j < side && len(towers) < p.NumTowers; j++ {
			var x, z float64
			clustered := j > 0 && rng.Float64() < ClusterChance
			if clustered {
				x, z = nearby(rng, towers[len(towers)-1], spacing*ClusterSpacing)
			} else {
				x = jitter(rng, -p.MaxRadius+float64(i)*spacing, spacing)
				z = jitter(rng, -p.MaxRadius+float64(j)*spacing, spacing)
			}
			t := newTower(rng, clamp(x, p.MaxRadius), clamp(z, p.MaxRadius))
			t.clustered = clustered
			towers = append(towers, t)
		}
	}
	return towers
}

// nearby picks a point between a quarter of reach and reach from t.
func nearby(rng *rand.Rand, t Tower, reach float64) (float64, float64) {
	angle := rng.Float64() * 2 * math.Pi
	d := reach * (0.25 + 0.75*rng.Float64())
	return t.X + math.Cos(angle)*d, t.Z + math.Sin(angle)*d
}

// coarse offset in [0, cell/2) plus fine offset in [-cell/4, cell/4)
func jitter(rng *rand.Rand, origin, cell float64) float64 {
	return origin + rng.Float64()*cell*0.5 + (rng.Float64()-0.5)*cell*0.5
}

func clamp(v, r float64) float64 { return math.Max(-r, math.Min(r, v)) }

func newTower(rng *rand.Rand, x, z float64) Tower {
	t := Tower{X: x, Z: z}
	switch k := rng.Float64(); {
	case k < TowerCommonWeight:
		t.Type = TowerCommon
	case k < TowerCommonWeight+TowerMediumWeight:
		t.Type = TowerMedium
	default:
		t.Type = TowerRare
	}
	if rng.Float64() < TallChance {
		t.Height = uniform(rng, TallMinHeight, TallMaxHeight)
	} else {
		t.Height = uniform(rng, MinHeight, MaxHeight)
	}
	if rng.Float64() < FloatingChance {
		t.IsFloating = true
		t.BaseHeight = uniform(rng, FloatMinBase, FloatMaxBase)
	}
	return t
}

// placeBridges scans every pair once. Closer pairs are more likely to be
// joined; pairs whose grid cells already hold many bridge ends are less.
func placeBridges(rng *rand.Rand, p Params, towers []Tower, side int, spacing float64) []Bridge {
	maxDist := spacing * BridgeDistanceFactor
	maxDist2 := maxDist * maxDist
	maxDiff := spacing * BridgeHeightFactor

	cells := make([]int, len(towers))
	for i, t := range towers {
		cells[i] = cellIndex(t, p.MaxRadius, spacing, side)
	}
	crowd := make([]int, side*side)

	var bridges []Bridge
	for i := range towers {
		a := &towers[i]
		for j := i + 1; j < len(towers); j++ {
			b := &towers[j]
			dx, dz := b.X-a.X, b.Z-a.Z
			if dx > maxDist || dx < -maxDist || dz > maxDist || dz < -maxDist {
				continue
			}
			d2 := dx*dx + dz*dz
			if d2 > maxDist2 || math.Abs(a.Height-b.Height) > maxDiff {
				continue
			}
			d := math.Sqrt(d2)
			chance := p.BridgeChance * (2 - d/maxDist) /
				(1 + CrowdingPenalty*float64(crowd[cells[i]]+crowd[cells[j]]))
			if rng.Float64() >= chance {
				continue
			}
			h := math.Min(a.Height, b.Height) * (BridgeMinFraction + rng.Float64()*BridgeFractionRange)
			bridges = append(bridges, Bridge{
				From:     i,
				To:       j,
				Start:    Vec3{X: a.X, Y: h, Z: a.Z},
				End:      Vec3{X: b.X, Y: h, Z: b.Z},
				Mid:      Vec3{X: (a.X + b.X) / 2, Y: h, Z: (a.Z + b.Z) / 2},
				Height:   h,
				Distance: d,
				Angle:    math.Atan2(dz, dx),
			})
			crowd[cells[i]]++
			crowd[cells[j]]++
		}
	}
	return bridges
}

func cellIndex(t Tower, r, spacing float64, side int) int {
	cx := min(max(int((t.X+r)/spacing), 0), side-1)
	cz := min(max(int((t.Z+r)/spacing), 0), side-1)
	return cz*side + cx
}

func (w *World) placeOrbs(rng *rand.Rand, p Params) {
	clear2 := p.OrbClearance * p.OrbClearance
	retries := max(p.OrbRetries, 1)
	for n := 0; n < p.NumOrbs; n++ {
		var pos Vec3
		for attempt := 1; ; attempt++ {
			pos = Vec3{
				X: uniform(rng, -p.MaxRadius, p.MaxRadius),
				Y: uniform(rng, p.OrbMinHeight, p.OrbMaxHeight),
				Z: uniform(rng, -p.MaxRadius, p.MaxRadius),
			}
			if w.clearOfTowers(pos, clear2) {
				break
			}
			if attempt >= retries {
				w.ForcedOrbs++
				break
			}
		}
		o := newOrb(rng, p.FirstOrbID+n, pos)
		w.Orbs[o.ID] = o
	}
}

func (w *World) clearOfTowers(pos Vec3, clear2 float64) bool {
	for i := range w.Towers {
		dx, dz := w.Towers[i].X-pos.X, w.Towers[i].Z-pos.Z
		if dx*dx+dz*dz < clear2 {
			return false
		}
	}
	return true
}

// ClearOfTowers reports whether pos is at least clearance away from every
// tower footprint.
func (w *World) ClearOfTowers(pos Vec3, clearance float64) bool {
	return w.clearOfTowers(pos, clearance*clearance)
}
