package room

import (
	"github.com/seventy-zero/ResetRule/game"
	"github.com/seventy-zero/ResetRule/protocol"
)

// handle dispatches one client message. Bad payloads and unknown types are
// logged and dropped; nothing here is fatal to the connection.
func (r *Room) handle(id, typ string, raw []byte) {
	p, ok := r.players[id]
	if !ok {
		r.log.Debug().Str("player", id).Str("type", typ).Msg("message from player not in room")
		return
	}
	p.LastActivity = r.now()

	switch typ {
	case protocol.MsgPosition:
		if m, ok := decode[protocol.Position](r, p, typ, raw); ok {
			r.onPosition(p, m)
		}
	case protocol.MsgCollectOrb:
		if m, ok := decode[protocol.CollectOrb](r, p, typ, raw); ok {
			r.collectOrb(p, string(m.OrbID))
		}
	case protocol.MsgPlayerDied:
		if m, ok := decode[protocol.PlayerDied](r, p, typ, raw); ok {
			r.onPlayerDied(p, m)
		}
	case protocol.MsgShotgunShot:
		if m, ok := decode[protocol.ShotgunShot](r, p, typ, raw); ok {
			r.onShot(p, m)
		}
	case protocol.MsgPlayerDamaged:
		if m, ok := decode[protocol.PlayerDamaged](r, p, typ, raw); ok {
			r.log.Debug().Str("player", id).Str("victim", m.VictimUsername).Int("damage", m.Damage).
				Msg("ignoring client damage report")
		}
	case protocol.MsgClaimRuler:
		r.claimRuler(p)
	case protocol.MsgRequestWorld:
		r.sendTo(p, r.encode(protocol.MsgWorldData, protocol.NewWorldData(r.world)))
	case protocol.MsgResetGame:
		r.reset(p)
	case protocol.MsgSignal:
		if m, ok := decode[protocol.Signal](r, p, typ, raw); ok {
			r.onSignal(p, m)
		}
	case protocol.MsgJoin:
		r.log.Debug().Str("player", id).Msg("join from player already in room")
	default:
		r.log.Warn().Str("player", id).Str("type", typ).Msg("unknown message type")
	}
}

func decode[T any](r *Room, p *Player, typ string, raw []byte) (T, bool) {
	m, err := protocol.DecodePayload[T](raw)
	if err != nil {
		r.log.Warn().Err(err).Str("player", p.ID).Str("type", typ).Msg("bad payload")
		return m, false
	}
	return m, true
}

func (r *Room) onPosition(p *Player, m protocol.Position) {
	if !m.Position.IsFinite() || !m.Rotation.IsFinite() {
		r.log.Warn().Str("player", p.ID).Msg("non-finite pose")
		return
	}
	p.Position, p.Rotation = m.Position, m.Rotation
	r.broadcast(r.encode(protocol.MsgPosition, protocol.PlayerPose{
		Username: p.Username,
		Position: p.Position,
		Rotation: p.Rotation,
	}), p.ID)
}

// collectOrb gives orb id to p at most once. A missing orb was already
// taken; a player at the cap leaves the orb for someone else.
func (r *Room) collectOrb(p *Player, id string) bool {
	if _, ok := r.world.Orbs[id]; !ok {
		r.log.Debug().Str("player", p.ID).Str("orb", id).Msg("orb already gone")
		return false
	}
	if p.OrbCount >= r.settings.MaxOrbs {
		r.log.Debug().Str("player", p.ID).Str("orb", id).Int("count", p.OrbCount).Msg("orb cap reached")
		return false
	}
	delete(r.world.Orbs, id)
	p.OrbCount++
	r.broadcast(r.encode(protocol.MsgOrbCollected, protocol.OrbCollected{
		OrbID:    id,
		Username: p.Username,
		OrbCount: p.OrbCount,
	}), "")
	return true
}

func (r *Room) onPlayerDied(p *Player, m protocol.PlayerDied) {
	if m.Position.IsFinite() {
		p.Position = m.Position
	}
	r.dropOrbs(p, p.Position, "")
}

// dropOrbs scatters everything p holds around at under fresh ids and
// resets the count. A ruler with nothing left loses the title.
func (r *Room) dropOrbs(p *Player, at game.Vec3, exclude string) []game.Orb {
	if p.OrbCount == 0 {
		return nil
	}
	orbs := game.Scatter(r.rng, at, p.OrbCount, r.nextOrbSeq)
	r.nextOrbSeq += len(orbs)
	for _, o := range orbs {
		r.world.Orbs[o.ID] = o
	}
	p.OrbCount = 0
	r.broadcast(r.encode(protocol.MsgOrbsDropped, protocol.OrbsDropped{Username: p.Username, Orbs: orbs}), exclude)
	if r.ruler == p.ID {
		r.clearRuler(p, exclude)
	}
	r.log.Debug().Str("player", p.ID).Int("orbs", len(orbs)).Msg("orbs dropped")
	return orbs
}

func (r *Room) onShot(p *Player, m protocol.ShotgunShot) {
	if !m.Position.IsFinite() {
		r.log.Warn().Str("player", p.ID).Msg("non-finite shot origin")
		return
	}
	if len(m.Directions) > game.MaxPellets {
		m.Directions = m.Directions[:game.MaxPellets]
	}
	r.broadcast(r.encode(protocol.MsgShotgunShot, protocol.ShotRelay{
		Username:   p.Username,
		Position:   m.Position,
		Directions: m.Directions,
	}), p.ID)

	targets := make([]game.Target, 0, len(r.roster))
	for _, id := range r.roster {
		if id != p.ID {
			targets = append(targets, game.Target{ID: id, Position: r.players[id].Position})
		}
	}
	for _, h := range game.ResolveShot(m.Position, m.Directions, targets) {
		victim := r.players[h.ID]
		r.sendTo(victim, r.encode(protocol.MsgPlayerDamaged, protocol.DamageNotice{
			VictimUsername:   victim.Username,
			AttackerUsername: p.Username,
			Damage:           h.Damage,
		}))
		r.log.Debug().Str("attacker", p.ID).Str("victim", h.ID).Int("pellets", h.Pellets).Msg("shot hit")
	}
}

// claimRuler grants the title to the first player holding enough orbs.
func (r *Room) claimRuler(p *Player) bool {
	if r.ruler != "" {
		r.log.Debug().Str("player", p.ID).Str("ruler", r.ruler).Msg("ruler already claimed")
		return false
	}
	if p.OrbCount < r.settings.RulerThreshold {
		r.log.Debug().Str("player", p.ID).Int("count", p.OrbCount).Msg("not enough orbs to rule")
		return false
	}
	r.ruler = p.ID
	r.broadcast(r.encode(protocol.MsgRulerClaimed, protocol.PlayerRef{Username: p.Username}), "")
	r.log.Info().Str("player", p.ID).Str("username", p.Username).Msg("ruler claimed")
	return true
}

func (r *Room) clearRuler(p *Player, exclude string) {
	r.ruler = ""
	r.broadcast(r.encode(protocol.MsgRulerCleared, protocol.PlayerRef{Username: p.Username}), exclude)
}

// reset regenerates the world and puts every player back at spawn with no
// orbs.
func (r *Room) reset(by *Player) {
	r.generateWorld()
	for _, p := range r.players {
		p.OrbCount = 0
		p.Position = game.SpawnPosition
		p.Rotation = game.SpawnRotation
	}
	r.ruler = ""
	r.broadcast(r.encode(protocol.MsgWorldData, protocol.NewWorldData(r.world)), "")
	r.broadcast(r.encode(protocol.MsgGameReset, protocol.PlayerRef{Username: by.Username}), "")
	r.log.Info().Str("player", by.ID).Msg("game reset")
}

func (r *Room) onSignal(p *Player, m protocol.Signal) {
	b := r.encode(protocol.MsgSignal, protocol.SignalRelay{From: p.Username, Data: m.Data})
	if m.Target == "" {
		r.broadcast(b, p.ID)
		return
	}
	target := r.byUsername(m.Target)
	if target == nil || target.ID == p.ID {
		r.log.Debug().Str("player", p.ID).Str("target", m.Target).Msg("signal target not in room")
		return
	}
	r.sendTo(target, b)
}
