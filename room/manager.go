package room

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/seventy-zero/ResetRule/protocol"
)

type Options struct {
	Settings      Settings
	Seed          uint64 // 0 picks a random seed
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// Manager is the room registry. Rooms are created on demand when every
// existing room is full, and removed by the periodic sweep once empty.
type Manager struct {
	mu      sync.Mutex
	rooms   []*Room // creation order
	seeds   *rand.Rand
	stopped bool

	opts  Options
	log   zerolog.Logger
	now   func() time.Time
	build func(id, name string, seed uint64) *Room
}

func NewManager(opts Options, log zerolog.Logger) *Manager {
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 10 * time.Second
	}
	m := &Manager{
		seeds: rand.New(rand.NewPCG(seed, ^seed)),
		opts:  opts,
		log:   log.With().Str("component", "rooms").Logger(),
		now:   time.Now,
	}
	m.build = func(id, name string, seed uint64) *Room {
		return New(id, name, seed, m.opts.Settings, m.log)
	}
	return m
}

// FindOrCreate returns the oldest room with a free slot, creating one if
// every room is full.
func (m *Manager) FindOrCreate() *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findOrCreateLocked()
}

func (m *Manager) openRoomLocked() *Room {
	for _, r := range m.rooms {
		if r.NumPlayers() < m.opts.Settings.MaxPlayers {
			return r
		}
	}
	return nil
}

// findOrCreateLocked is called with mu held. World generation is slow, so
// a new room is built with mu released; if another caller opened a room in
// the meantime, that one is used and the new one is dropped.
func (m *Manager) findOrCreateLocked() *Room {
	if r := m.openRoomLocked(); r != nil {
		return r
	}
	id, name, seed := uuid.NewString(), randomName(m.seeds), m.seeds.Uint64()

	m.mu.Unlock()
	fresh := m.build(id, name, seed)
	m.mu.Lock()

	if m.stopped {
		fresh.Stop()
		return fresh
	}
	if r := m.openRoomLocked(); r != nil {
		m.log.Debug().Str("room", id).Msg("discarding room built during a race")
		return r
	}
	m.rooms = append(m.rooms, fresh)
	go fresh.Run()
	m.log.Info().Str("room", fresh.ID).Str("name", fresh.Name).Int("rooms", len(m.rooms)).Msg("room created")
	return fresh
}

// Admit matches conn to a room and joins it there. The capacity check and
// the join happen under one lock, so concurrent joins never overfill a room.
func (m *Manager) Admit(conn Conn, username string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.findOrCreateLocked()
	if _, err := r.Join(conn, username); err != nil {
		return nil, err
	}
	return r, nil
}

// Run sweeps every SweepInterval until ctx is done, then stops all rooms.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.Stop()
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep evicts dead and idle players from every room and removes the rooms
// left empty. It returns how many rooms were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	kept := m.rooms[:0]
	removed := 0
	for _, r := range m.rooms {
		if r.Sweep(now, m.opts.IdleTimeout) > 0 {
			kept = append(kept, r)
			continue
		}
		r.Stop()
		removed++
		m.log.Info().Str("room", r.ID).Str("name", r.Name).Msg("room removed")
	}
	clear(m.rooms[len(kept):])
	m.rooms = kept
	return removed
}

// ListRooms returns all rooms with their player counts.
func (m *Manager) ListRooms() []protocol.RoomInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]protocol.RoomInfo, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.Info())
	}
	return out
}

func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		r.Stop()
	}
	m.rooms = nil
	m.stopped = true
	m.log.Info().Msg("room manager stopped")
}
