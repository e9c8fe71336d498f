package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveShot(t *testing.T) {
	origin := Vec3{}
	forward := Vec3{Z: 1}

	tests := []struct {
		name    string
		dirs    []Vec3
		target  Vec3
		pellets int
	}{
		{"straight ahead", []Vec3{forward}, Vec3{Z: 50}, 1},
		{"out of range", []Vec3{forward}, Vec3{Z: ShotRange + 1}, 0},
		{"behind", []Vec3{forward}, Vec3{Z: -50}, 0},
		{"perpendicular", []Vec3{forward}, Vec3{X: 50}, 0},
		{"inside cone", []Vec3{forward}, Vec3{X: 20, Z: 50}, 1},
		{"several pellets", []Vec3{forward, {X: 0.1, Z: 1}, {X: -1}}, Vec3{Z: 30}, 2},
		{"zero direction", []Vec3{{}}, Vec3{Z: 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := ResolveShot(origin, tt.dirs, []Target{{ID: "v", Position: tt.target}})
			if tt.pellets == 0 {
				assert.Empty(t, hits)
				return
			}
			require.Len(t, hits, 1)
			assert.Equal(t, "v", hits[0].ID)
			assert.Equal(t, tt.pellets, hits[0].Pellets)
			assert.Equal(t, tt.pellets*PelletDamage, hits[0].Damage)
		})
	}
}

func TestResolveShotCapsPellets(t *testing.T) {
	dirs := make([]Vec3, MaxPellets*4)
	for i := range dirs {
		dirs[i] = Vec3{Z: 1}
	}
	hits := ResolveShot(Vec3{}, dirs, []Target{{ID: "v", Position: Vec3{Z: 5}}})
	require.Len(t, hits, 1)
	assert.Equal(t, MaxPellets, hits[0].Pellets)
}

func TestResolveShotOnlyHitsTargetsInCone(t *testing.T) {
	targets := []Target{
		{ID: "front", Position: Vec3{Z: 40}},
		{ID: "left", Position: Vec3{X: -40}},
		{ID: "far", Position: Vec3{Z: 400}},
	}
	hits := ResolveShot(Vec3{}, []Vec3{{Z: 1}}, targets)
	require.Len(t, hits, 1)
	assert.Equal(t, "front", hits[0].ID)
}

func TestAngleBetween(t *testing.T) {
	assert.InDelta(t, 0, AngleBetween(Vec3{X: 1}, Vec3{X: 5}), 1e-9)
	assert.InDelta(t, math.Pi/2, AngleBetween(Vec3{X: 1}, Vec3{Y: 1}), 1e-9)
	assert.InDelta(t, math.Pi, AngleBetween(Vec3{X: 1}, Vec3{X: -1}), 1e-9)
	assert.Equal(t, math.Pi, AngleBetween(Vec3{}, Vec3{X: 1}))
	assert.InDelta(t, Radians(45), AngleBetween(Vec3{X: 1}, Vec3{X: 1, Z: 1}), 1e-9)
}

func TestVecHelpers(t *testing.T) {
	a := Vec3{X: 3, Y: 7, Z: 4}
	assert.Equal(t, 5.0, a.PlanarDist(Vec3{Y: -100}))
	assert.InDelta(t, math.Sqrt(74), a.Len(), 1e-9)
	assert.Equal(t, Vec3{X: 6, Y: 14, Z: 8}, a.Add(a))
	assert.Equal(t, Vec3{}, a.Sub(a))
	assert.True(t, a.IsFinite())
	assert.False(t, Vec3{X: math.NaN()}.IsFinite())
	assert.False(t, Vec3{Z: math.Inf(1)}.IsFinite())
}
