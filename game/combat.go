package game

// Target is a player that a shot may hit.
type Target struct {
	ID       string
	Position Vec3
}

type Hit struct {
	ID      string
	Pellets int
	Damage  int
}

// ResolveShot tests every pellet direction against every target. A pellet
// hits when the target is within ShotRange of origin and the angle between
// the pellet and the line to the target is at most ShotConeHalfAngle.
// Directions past MaxPellets are ignored. Hits come back in target order.
func ResolveShot(origin Vec3, dirs []Vec3, targets []Target) []Hit {
	if len(dirs) > MaxPellets {
		dirs = dirs[:MaxPellets]
	}
	cone := Radians(ShotConeHalfAngle)
	var hits []Hit
	for _, t := range targets {
		to := t.Position.Sub(origin)
		if to.Len() > ShotRange {
			continue
		}
		n := 0
		for _, d := range dirs {
			if AngleBetween(d, to) <= cone {
				n++
			}
		}
		if n > 0 {
			hits = append(hits, Hit{ID: t.ID, Pellets: n, Damage: n * PelletDamage})
		}
	}
	return hits
}
