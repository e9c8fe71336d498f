package room

import "time"

// Conn is the room's view of a client socket. Send must not block.
type Conn interface {
	ID() string
	Send([]byte) error
	Close() error
	Done() <-chan struct{}
}

// Join: issued once after the join message is parsed
type Join struct {
	Conn     Conn
	Username string
	Reply    chan<- JoinResult
}

type JoinResult struct {
	PlayerID string
	Err      error
}

// Message: one inbound client message, already tagged with its type
type Message struct {
	PlayerID string
	Type     string
	Raw      []byte
}

// Leave: issued on disconnect. Done is closed once the player is gone.
type Leave struct {
	PlayerID string
	Reason   string
	Done     chan<- struct{}
}

// Sweep: evict closed and idle players. Reply gets the remaining count.
type Sweep struct {
	Now         time.Time
	IdleTimeout time.Duration
	Reply       chan<- int
}
