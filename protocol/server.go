package protocol

import (
	"encoding/json"

	"github.com/seventy-zero/ResetRule/game"
)

type RoomInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
}

type WorldData struct {
	Towers    []game.Tower   `json:"towers"`
	Bridges   []game.Bridge  `json:"bridges"`
	Orbs      []game.Orb     `json:"orbs"`
	Nebulas   []game.Nebula  `json:"nebulas"`
	StarField game.StarField `json:"starField"`
	Constants game.Constants `json:"constants"`
}

func NewWorldData(w *game.World) WorldData {
	wd := WorldData{
		Towers:    w.Towers,
		Bridges:   w.Bridges,
		Orbs:      w.OrbList(),
		Nebulas:   w.Sky.Nebulas,
		StarField: w.Sky.Stars,
		Constants: w.Constants,
	}
	if wd.Towers == nil {
		wd.Towers = []game.Tower{}
	}
	if wd.Bridges == nil {
		wd.Bridges = []game.Bridge{}
	}
	if wd.Nebulas == nil {
		wd.Nebulas = []game.Nebula{}
	}
	return wd
}

type PlayerSnapshot struct {
	Username string    `json:"username"`
	Position game.Vec3 `json:"position"`
	Rotation game.Vec3 `json:"rotation"`
	OrbCount int       `json:"orbCount"`
}

type PlayerList struct {
	Players []PlayerSnapshot `json:"players"`
	Ruler   string           `json:"ruler,omitempty"`
}

// PlayerPose is used for player_joined and relayed position updates.
type PlayerPose struct {
	Username string    `json:"username"`
	Position game.Vec3 `json:"position"`
	Rotation game.Vec3 `json:"rotation"`
}

type PlayerRef struct {
	Username string `json:"username"`
}

type OrbCollected struct {
	OrbID    string `json:"orbId"`
	Username string `json:"username"`
	OrbCount int    `json:"orbCount"`
}

type OrbsDropped struct {
	Username string     `json:"username"`
	Orbs     []game.Orb `json:"orbs"`
}

type ShotRelay struct {
	Username   string      `json:"username"`
	Position   game.Vec3   `json:"position"`
	Directions []game.Vec3 `json:"directions"`
}

type DamageNotice struct {
	VictimUsername   string `json:"victimUsername"`
	AttackerUsername string `json:"attackerUsername"`
	Damage           int    `json:"damage"`
}

type SignalRelay struct {
	From string          `json:"from"`
	Data json.RawMessage `json:"data"`
}

type Error struct {
	Message string `json:"message"`
}
