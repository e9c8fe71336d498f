package network

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/seventy-zero/ResetRule/protocol"
)

// Lobby is what the HTTP layer needs from the room registry.
type Lobby interface {
	Matchmaker
	ListRooms() []protocol.RoomInfo
}

type Server struct {
	lobby    Lobby
	opts     ClientOptions
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*Client
	wg      sync.WaitGroup
}

func NewServer(lobby Lobby, opts ClientOptions, log zerolog.Logger) *Server {
	return &Server{
		lobby: lobby,
		opts:  opts,
		log:   log.With().Str("component", "network").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// browser clients are served from anywhere
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*Client),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.serveWS)
	mux.HandleFunc("GET /rooms", s.serveRooms)
	mux.HandleFunc("GET /healthz", s.serveHealth)
	return mux
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade failed")
		return
	}
	c := NewClient(ws, s.opts, s.log)
	if !s.track(c) {
		_ = ws.Close()
		return
	}
	defer s.untrack(c)

	c.log.Info().Str("remote", r.RemoteAddr).Msg("client connected")
	NewSession(c, s.lobby).Serve()
}

// track registers c unless the server is shutting down.
func (s *Server) track(c *Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients == nil {
		return false
	}
	s.clients[c.ID()] = c
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c *Client) {
	s.mu.Lock()
	delete(s.clients, c.ID())
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Server) serveRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.lobby.ListRooms())
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := len(s.clients)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"rooms":   len(s.lobby.ListRooms()),
		"clients": n,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Shutdown closes every open client and waits for their sessions to finish
// or for ctx to expire. New connections are refused afterwards.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, c := range s.clients {
		_ = c.Close()
	}
	s.clients = nil
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info().Msg("all sessions closed")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
