package room

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/seventy-zero/ResetRule/game"
	"github.com/seventy-zero/ResetRule/protocol"
)

var (
	ErrRoomFull        = errors.New("room is full")
	ErrUsernameTaken   = errors.New("username already taken in this room")
	ErrInvalidUsername = errors.New("invalid username")
	ErrAlreadyJoined   = errors.New("connection already joined")
	ErrRoomClosed      = errors.New("room closed")
	errInternal        = errors.New("internal error")
)

// Settings are the per-room limits.
type Settings struct {
	MaxPlayers     int
	MaxOrbs        int
	RulerThreshold int
	World          game.Params
}

func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:     20,
		MaxOrbs:        game.MaxOrbs,
		RulerThreshold: game.RulerThreshold,
		World:          game.DefaultParams(),
	}
}

type Player struct {
	ID           string
	Username     string
	Position     game.Vec3
	Rotation     game.Vec3
	OrbCount     int
	LastActivity time.Time

	conn Conn
}

// Room is one game session. All world and roster state is owned by the
// goroutine running Run; other goroutines talk to it through Inbox.
type Room struct {
	ID    string
	Name  string
	Inbox chan any

	settings Settings
	log      zerolog.Logger
	rng      *rand.Rand
	now      func() time.Time

	world      *game.World
	players    map[string]*Player
	roster     []string // join order
	nextOrbSeq int
	ruler      string
	failed     []string

	occupancy atomic.Int32
	quit      chan struct{}
	stopOnce  sync.Once
}

// New creates a room and generates its world from seed.
func New(id, name string, seed uint64, s Settings, log zerolog.Logger) *Room {
	r := &Room{
		ID:       id,
		Name:     name,
		Inbox:    make(chan any, 256),
		settings: s,
		log:      log.With().Str("room", id).Str("name", name).Logger(),
		rng:      game.NewRand(seed),
		now:      time.Now,
		players:  make(map[string]*Player),
		quit:     make(chan struct{}),
	}
	r.generateWorld()
	return r
}

func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// NumPlayers returns the current number of admitted players.
func (r *Room) NumPlayers() int {
	return int(r.occupancy.Load())
}

// Active is true while the room has players.
func (r *Room) Active() bool { return r.NumPlayers() > 0 }

func (r *Room) Info() protocol.RoomInfo {
	return protocol.RoomInfo{ID: r.ID, Name: r.Name, PlayerCount: r.NumPlayers(), MaxPlayers: r.settings.MaxPlayers}
}

func (r *Room) Run() {
	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.Inbox:
			r.safeHandle(cmd)
		}
	}
}

func (r *Room) safeHandle(cmd any) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Error().Interface("panic", v).Bytes("stack", debug.Stack()).
				Str("command", fmt.Sprintf("%T", cmd)).Msg("recovered room handler panic")
			r.abort(cmd)
		}
	}()
	r.handleCommand(cmd)
}

// abort unblocks whoever waits on cmd after a panic.
func (r *Room) abort(cmd any) {
	switch c := cmd.(type) {
	case Join:
		c.Reply <- JoinResult{Err: errInternal}
	case Leave:
		close(c.Done)
	case Sweep:
		c.Reply <- len(r.players)
	}
}

// handleCommand runs one command to completion. Replies go out last so a
// panic before them can still be answered by abort.
func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		res := r.admit(c.Conn, c.Username)
		r.flushFailed()
		c.Reply <- res
	case Message:
		r.handle(c.PlayerID, c.Type, c.Raw)
		r.flushFailed()
	case Leave:
		r.remove(c.PlayerID, c.Reason)
		r.flushFailed()
		close(c.Done)
	case Sweep:
		r.sweep(c.Now, c.IdleTimeout)
		r.flushFailed()
		c.Reply <- len(r.players)
	default:
		r.log.Warn().Str("command", fmt.Sprintf("%T", cmd)).Msg("unknown room command")
	}
}

func (r *Room) send(cmd any) bool {
	select {
	case r.Inbox <- cmd:
		return true
	case <-r.quit:
		return false
	}
}

// Join admits conn under username and waits for the result.
func (r *Room) Join(conn Conn, username string) (string, error) {
	reply := make(chan JoinResult, 1)
	if !r.send(Join{Conn: conn, Username: username, Reply: reply}) {
		return "", ErrRoomClosed
	}
	select {
	case res := <-reply:
		return res.PlayerID, res.Err
	case <-r.quit:
		return "", ErrRoomClosed
	}
}

// Deliver queues one inbound message from playerID.
func (r *Room) Deliver(playerID, typ string, raw []byte) {
	r.send(Message{PlayerID: playerID, Type: typ, Raw: raw})
}

// Leave removes playerID and returns once the room has finished cleanup.
// It is safe to call for players that were never admitted.
func (r *Room) Leave(playerID, reason string) {
	done := make(chan struct{})
	if !r.send(Leave{PlayerID: playerID, Reason: reason, Done: done}) {
		return
	}
	select {
	case <-done:
	case <-r.quit:
	}
}

// Sweep evicts players whose connection closed or who have been idle
// longer than idle, and returns how many remain.
func (r *Room) Sweep(now time.Time, idle time.Duration) int {
	reply := make(chan int, 1)
	if !r.send(Sweep{Now: now, IdleTimeout: idle, Reply: reply}) {
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-r.quit:
		return 0
	}
}

func (r *Room) admit(conn Conn, username string) JoinResult {
	name := strings.TrimSpace(username)
	if name == "" || utf8.RuneCountInString(name) > protocol.MaxUsernameLen {
		return JoinResult{Err: ErrInvalidUsername}
	}
	if len(r.players) >= r.settings.MaxPlayers {
		return JoinResult{Err: ErrRoomFull}
	}
	id := conn.ID()
	if _, ok := r.players[id]; ok {
		return JoinResult{Err: ErrAlreadyJoined}
	}
	if r.byUsername(name) != nil {
		return JoinResult{Err: fmt.Errorf("%w: %q", ErrUsernameTaken, name)}
	}

	p := &Player{
		ID:           id,
		Username:     name,
		Position:     game.SpawnPosition,
		Rotation:     game.SpawnRotation,
		LastActivity: r.now(),
		conn:         conn,
	}
	r.players[id] = p
	r.roster = append(r.roster, id)
	r.occupancy.Store(int32(len(r.players)))
	r.log.Info().Str("player", id).Str("username", name).Int("players", len(r.players)).Msg("player joined")

	r.sendTo(p, r.encode(protocol.MsgRoomInfo, r.roomInfo()))
	r.sendTo(p, r.encode(protocol.MsgWorldData, protocol.NewWorldData(r.world)))
	r.sendTo(p, r.encode(protocol.MsgPlayerList, r.playerList()))
	r.broadcast(r.encode(protocol.MsgPlayerJoined, protocol.PlayerPose{
		Username: p.Username,
		Position: p.Position,
		Rotation: p.Rotation,
	}), id)
	return JoinResult{PlayerID: id}
}

func (r *Room) roomInfo() protocol.RoomInfo {
	return protocol.RoomInfo{ID: r.ID, Name: r.Name, PlayerCount: len(r.players), MaxPlayers: r.settings.MaxPlayers}
}

func (r *Room) playerList() protocol.PlayerList {
	list := protocol.PlayerList{Players: make([]protocol.PlayerSnapshot, 0, len(r.roster))}
	for _, id := range r.roster {
		p := r.players[id]
		list.Players = append(list.Players, protocol.PlayerSnapshot{
			Username: p.Username,
			Position: p.Position,
			Rotation: p.Rotation,
			OrbCount: p.OrbCount,
		})
	}
	if ruler, ok := r.players[r.ruler]; ok {
		list.Ruler = ruler.Username
	}
	return list
}

func (r *Room) byUsername(name string) *Player {
	for _, p := range r.players {
		if strings.EqualFold(p.Username, name) {
			return p
		}
	}
	return nil
}

// remove drops the player's orbs where they were last seen, takes them off
// the roster and tells everyone else.
func (r *Room) remove(id, reason string) {
	p, ok := r.players[id]
	if !ok {
		return
	}
	r.dropOrbs(p, p.Position, id)
	if r.ruler == id {
		r.clearRuler(p, id)
	}
	delete(r.players, id)
	r.roster = slices.DeleteFunc(r.roster, func(s string) bool { return s == id })
	r.occupancy.Store(int32(len(r.players)))
	_ = p.conn.Close()

	r.broadcast(r.encode(protocol.MsgPlayerLeft, protocol.PlayerRef{Username: p.Username}), "")
	r.log.Info().Str("player", id).Str("username", p.Username).Str("reason", reason).
		Int("players", len(r.players)).Msg("player left")
	if len(r.players) == 0 {
		r.log.Info().Msg("room inactive")
	}
}

func (r *Room) sweep(now time.Time, idle time.Duration) {
	type eviction struct{ id, reason string }
	var out []eviction
	for _, id := range r.roster {
		p := r.players[id]
		select {
		case <-p.conn.Done():
			out = append(out, eviction{id, "connection closed"})
			continue
		default:
		}
		if idle > 0 && now.Sub(p.LastActivity) > idle {
			out = append(out, eviction{id, "idle timeout"})
		}
	}
	for _, e := range out {
		r.remove(e.id, e.reason)
	}
}

// broadcast sends b to every player except exclude. Failed recipients are
// removed once the current command finishes.
func (r *Room) broadcast(b []byte, exclude string) {
	if b == nil {
		return
	}
	for _, id := range r.roster {
		if id == exclude {
			continue
		}
		r.sendTo(r.players[id], b)
	}
}

func (r *Room) sendTo(p *Player, b []byte) {
	if b == nil {
		return
	}
	if err := p.conn.Send(b); err != nil {
		r.log.Warn().Err(err).Str("player", p.ID).Msg("send failed")
		r.failed = append(r.failed, p.ID)
	}
}

func (r *Room) flushFailed() {
	for len(r.failed) > 0 {
		id := r.failed[0]
		r.failed = r.failed[1:]
		r.remove(id, "send failed")
	}
}

func (r *Room) encode(t string, payload any) []byte {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		r.log.Error().Err(err).Str("type", t).Msg("encode failed")
		return nil
	}
	return b
}

// generateWorld replaces the world. Orb ids continue the room's sequence.
func (r *Room) generateWorld() {
	params := r.settings.World
	params.FirstOrbID = r.nextOrbSeq
	start := time.Now()
	r.world = game.Generate(r.rng, params)
	r.nextOrbSeq += max(params.NumOrbs, 0)

	ev := r.log.Debug()
	if r.world.ForcedOrbs > 0 {
		ev = r.log.Warn()
	}
	ev.Int("towers", len(r.world.Towers)).Int("bridges", len(r.world.Bridges)).
		Int("orbs", len(r.world.Orbs)).Int("forced_orbs", r.world.ForcedOrbs).
		Dur("took", time.Since(start)).Msg("world generated")
}
