package network

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/seventy-zero/ResetRule/protocol"
	"github.com/seventy-zero/ResetRule/room"
)

// Matchmaker places a joining connection in a room.
type Matchmaker interface {
	Admit(conn room.Conn, username string) (*room.Room, error)
}

// Session binds one client to at most one room. The first join picks the
// room; everything after that is forwarded to it.
type Session struct {
	client *Client
	rooms  Matchmaker
	room   *room.Room
	log    zerolog.Logger
}

func NewSession(c *Client, rooms Matchmaker) *Session {
	return &Session{client: c, rooms: rooms, log: c.log}
}

// Serve reads until the client goes away, then removes the player from its
// room. It blocks until the room has finished cleanup.
func (s *Session) Serve() {
	go s.client.writePump()
	err := s.client.readPump(s.handle)

	if s.room != nil {
		s.room.Leave(s.client.ID(), "connection closed")
	}
	s.log.Info().AnErr("reason", err).Msg("session ended")
}

func (s *Session) handle(b []byte) {
	defer func() {
		if v := recover(); v != nil {
			s.log.Error().Interface("panic", v).Bytes("stack", debug.Stack()).Msg("recovered session panic")
		}
	}()

	select {
	case <-s.client.Done():
		return
	default:
	}

	typ, err := protocol.DecodeType(b)
	if err != nil {
		s.log.Warn().Err(err).Msg("dropping message")
		return
	}
	if s.room != nil {
		s.room.Deliver(s.client.ID(), typ, b)
		return
	}
	if typ != protocol.MsgJoin {
		s.log.Debug().Str("type", typ).Msg("message before join")
		return
	}
	s.join(b)
}

func (s *Session) join(b []byte) {
	m, err := protocol.DecodePayload[protocol.Join](b)
	if err != nil {
		s.reject(err)
		return
	}
	r, err := s.rooms.Admit(s.client, m.Username)
	if err != nil {
		s.reject(err)
		return
	}
	s.room = r
	s.log = s.log.With().Str("room", r.ID).Logger()
}

// reject tells the client why it was not admitted and closes it.
func (s *Session) reject(err error) {
	s.log.Info().Err(err).Msg("join rejected")
	msg := joinErrorMessage(err)
	if b, encErr := protocol.Encode(protocol.MsgError, protocol.Error{Message: msg}); encErr == nil {
		_ = s.client.Send(b)
	}
	_ = s.client.Close()
}

func joinErrorMessage(err error) string {
	switch {
	case errors.Is(err, room.ErrUsernameTaken):
		return "username already taken"
	case errors.Is(err, room.ErrInvalidUsername):
		return fmt.Sprintf("username must be 1-%d characters", protocol.MaxUsernameLen)
	case errors.Is(err, room.ErrRoomFull), errors.Is(err, room.ErrRoomClosed):
		return "no room available, try again"
	case errors.Is(err, protocol.ErrMalformed):
		return "malformed join"
	default:
		return "join failed"
	}
}
