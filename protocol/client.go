package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/seventy-zero/ResetRule/game"
)

//input structs coming in from the client.

type Join struct {
	Username string `json:"username"`
}

type Position struct {
	Position game.Vec3 `json:"position"`
	Rotation game.Vec3 `json:"rotation"`
}

type CollectOrb struct {
	OrbID OrbRef `json:"orbId"`
}

type PlayerDied struct {
	Position game.Vec3 `json:"position"`
}

type ShotgunShot struct {
	Position   game.Vec3   `json:"position"`
	Directions []game.Vec3 `json:"directions"`
}

// PlayerDamaged is a client's own damage report. Hits are resolved on the
// server, so this is only logged.
type PlayerDamaged struct {
	VictimUsername string `json:"victimUsername"`
	Damage         int    `json:"damage"`
}

// Signal carries opaque WebRTC signaling. An empty Target goes to the
// whole room.
type Signal struct {
	Target string          `json:"target,omitempty"`
	Data   json.RawMessage `json:"data"`
}

// OrbRef is an orb id. Older clients send ids as numbers, so both JSON
// strings and integers are accepted.
type OrbRef string

func (r *OrbRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = OrbRef(s)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("orb id must be a string or integer: %s", b)
	}
	*r = OrbRef(strconv.FormatInt(n, 10))
	return nil
}
