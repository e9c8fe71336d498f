package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScatterPlacesOrbsAroundCenter(t *testing.T) {
	center := Vec3{X: 100, Y: 50, Z: -20}
	orbs := Scatter(NewRand(1), center, 5, 200)
	require.Len(t, orbs, 5)

	for i, o := range orbs {
		assert.Equal(t, OrbID(200+i), o.ID)
		assert.LessOrEqual(t, o.Position.PlanarDist(center), DropRadius)
		assert.InDelta(t, center.Y, o.Position.Y, DropHeightJitter)
	}
}

func TestScatterClampsHeight(t *testing.T) {
	orbs := Scatter(NewRand(2), Vec3{Y: -30}, 8, 0)
	for _, o := range orbs {
		assert.GreaterOrEqual(t, o.Position.Y, DropMinHeight)
	}
}

func TestScatterNothing(t *testing.T) {
	assert.Nil(t, Scatter(NewRand(3), Vec3{}, 0, 0))
	assert.Nil(t, Scatter(NewRand(3), Vec3{}, -2, 0))
}
