package game

import (
	"slices"
	"strconv"
)

// Internal truth world state for one room

type TowerKind uint8

const (
	TowerCommon TowerKind = iota
	TowerMedium
	TowerRare
)

var towerKindNames = [...]string{"common", "medium", "rare"}

func (k TowerKind) String() string {
	if int(k) < len(towerKindNames) {
		return towerKindNames[k]
	}
	return "unknown"
}

func (k TowerKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

type Tower struct {
	Type       TowerKind `json:"type"`
	X          float64   `json:"x"`
	Z          float64   `json:"z"`
	Height     float64   `json:"height"`
	BaseHeight float64   `json:"baseHeight"`
	IsFloating bool      `json:"isFloating"`

	clustered bool
}

// Footprint is the tower's ground position.
func (t Tower) Footprint() Vec3 { return Vec3{X: t.X, Z: t.Z} }

type Bridge struct {
	From     int     `json:"from"` // tower indices
	To       int     `json:"to"`
	Start    Vec3    `json:"startPos"`
	End      Vec3    `json:"endPos"`
	Mid      Vec3    `json:"midPoint"`
	Height   float64 `json:"height"`
	Distance float64 `json:"distance"`
	Angle    float64 `json:"angle"`
}

type World struct {
	Towers  []Tower
	Bridges []Bridge
	Orbs    map[string]Orb
	Sky     Sky

	Constants Constants

	// ForcedOrbs counts orbs placed without tower clearance after the
	// retry budget ran out.
	ForcedOrbs int
}

// OrbList returns the orbs ordered by id sequence.
func (w *World) OrbList() []Orb {
	out := make([]Orb, 0, len(w.Orbs))
	for _, o := range w.Orbs {
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b Orb) int { return compareOrbIDs(a.ID, b.ID) })
	return out
}

// OrbID formats a sequence number as an orb id.
func OrbID(seq int) string { return strconv.Itoa(seq) }

// ids are decimal sequence numbers, so shorter sorts first
func compareOrbIDs(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
