package game

// World layout.
const (
	NumTowers = 3000
	MaxRadius = 4800.0
	NumOrbs   = 200

	ClusterChance  = 0.25
	ClusterSpacing = 0.6 // max distance to the previous tower, in grid spacings

	TowerCommonWeight = 0.75
	TowerMediumWeight = 0.17 // rare takes the remaining 0.08

	TallChance     = 0.1
	TallMinHeight  = 450.0
	TallMaxHeight  = 700.0
	MinHeight      = 150.0
	MaxHeight      = 450.0
	FloatingChance = 0.15
	FloatMinBase   = 15.0
	FloatMaxBase   = 45.0
)

// Bridges.
const (
	BridgeChance         = 0.1
	BridgeDistanceFactor = 2.0 // max span, in grid spacings
	BridgeHeightFactor   = 1.5 // max height difference, in grid spacings
	BridgeMinFraction    = 0.3
	BridgeFractionRange  = 0.5
	CrowdingPenalty      = 0.5
)

// Orbs.
const (
	OrbClearance   = 30.0
	OrbRetries     = 50
	OrbMinHeight   = 20.0
	OrbMaxHeight   = 400.0
	OrbMinSize     = 0.8
	OrbMaxSize     = 1.6
	MaxOrbs        = 30 // per player
	RulerThreshold = 30

	DropRadius       = 15.0
	DropHeightJitter = 2.0
	DropMinHeight    = 2.0
)

// Sky. Stars are sent as a seed and expanded by the client.
const (
	NumNebulas       = 12
	NebulaRingRadius = 4500.0
	NebulaMinY       = -600.0
	NebulaMaxY       = 1800.0
	NebulaMinScale   = 4.0
	NebulaMaxScale   = 10.0

	NumStars        = 30000
	NumLargeStars   = 1000
	StarRadius      = 5400.0
	LargeStarRadius = 1800.0
)

// Player body, shared with clients through the world constants.
const (
	PlayerHeight = 10.0
	PlayerRadius = 2.0
)

// Combat.
const (
	ShotRange         = 100.0
	ShotConeHalfAngle = 45.0 // degrees
	PelletDamage      = 10
	MaxPellets        = 16
)

// Spawn pose for joins and resets.
var (
	SpawnPosition = Vec3{X: 0, Y: 10, Z: 0}
	SpawnRotation = Vec3{}
)
