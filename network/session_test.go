package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seventy-zero/ResetRule/protocol"
	"github.com/seventy-zero/ResetRule/room"
)

type testServer struct {
	*httptest.Server
	srv   *Server
	rooms *room.Manager
}

func newTestServer(t *testing.T, maxPlayers int) *testServer {
	t.Helper()
	s := room.DefaultSettings()
	s.MaxPlayers = maxPlayers
	s.World.NumTowers = 49
	s.World.MaxRadius = 700
	s.World.NumOrbs = 20
	rooms := room.NewManager(room.Options{Settings: s, Seed: 3, IdleTimeout: time.Minute}, zerolog.Nop())
	srv := NewServer(rooms, DefaultClientOptions(), zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		ts.Close()
		rooms.Stop()
	})
	return &testServer{Server: ts, srv: srv, rooms: rooms}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, typ string, payload any) {
	t.Helper()
	b, err := protocol.Encode(typ, payload)
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, b))
}

func next(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, b, err := ws.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

// until reads messages until one of type typ arrives and returns it along
// with the types skipped on the way.
func until(t *testing.T, ws *websocket.Conn, typ string) (map[string]any, []string) {
	t.Helper()
	var skipped []string
	for {
		m := next(t, ws)
		if m["type"] == typ {
			return m, skipped
		}
		skipped = append(skipped, m["type"].(string))
	}
}

func join(t *testing.T, ts *testServer, name string) *websocket.Conn {
	t.Helper()
	ws := ts.dial(t)
	send(t, ws, protocol.MsgJoin, protocol.Join{Username: name})
	_, _ = until(t, ws, protocol.MsgPlayerList)
	return ws
}

func TestJoinReceivesRoomWorldAndRoster(t *testing.T) {
	ts := newTestServer(t, 20)
	ws := ts.dial(t)
	send(t, ws, protocol.MsgJoin, protocol.Join{Username: "Alice"})

	info := next(t, ws)
	assert.Equal(t, protocol.MsgRoomInfo, info["type"])
	assert.NotEmpty(t, info["id"])
	assert.EqualValues(t, 1, info["playerCount"])

	world := next(t, ws)
	assert.Equal(t, protocol.MsgWorldData, world["type"])
	assert.Len(t, world["towers"], 49)
	assert.Len(t, world["orbs"], 20)

	roster := next(t, ws)
	assert.Equal(t, protocol.MsgPlayerList, roster["type"])
	assert.Len(t, roster["players"], 1)
}

func TestSecondJoinerIsAnnounced(t *testing.T) {
	ts := newTestServer(t, 20)
	alice := join(t, ts, "Alice")
	join(t, ts, "Bob")

	m, _ := until(t, alice, protocol.MsgPlayerJoined)
	assert.Equal(t, "Bob", m["username"])
}

func TestDuplicateUsernameIsRejected(t *testing.T) {
	ts := newTestServer(t, 20)
	join(t, ts, "Alice")

	ws := ts.dial(t)
	send(t, ws, protocol.MsgJoin, protocol.Join{Username: "Alice"})
	m := next(t, ws)
	assert.Equal(t, protocol.MsgError, m["type"])
	assert.Equal(t, "username already taken", m["message"])

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := ws.ReadMessage()
	assert.Error(t, err, "server closes the socket after rejecting")
}

func TestMessagesBeforeJoinAreIgnored(t *testing.T) {
	ts := newTestServer(t, 20)
	ws := ts.dial(t)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	send(t, ws, protocol.MsgPosition, protocol.Position{})
	send(t, ws, protocol.MsgCollectOrb, map[string]any{"orbId": "1"})
	send(t, ws, protocol.MsgJoin, protocol.Join{Username: "Alice"})

	assert.Equal(t, protocol.MsgRoomInfo, next(t, ws)["type"])
}

func TestOrbCollectedOnce(t *testing.T) {
	ts := newTestServer(t, 20)
	alice := join(t, ts, "Alice")
	bob := join(t, ts, "Bob")

	send(t, alice, protocol.MsgCollectOrb, map[string]any{"orbId": "7"})
	m, _ := until(t, bob, protocol.MsgOrbCollected)
	assert.Equal(t, "7", m["orbId"])
	assert.Equal(t, "Alice", m["username"])

	send(t, bob, protocol.MsgCollectOrb, map[string]any{"orbId": "7"})
	send(t, bob, protocol.MsgRequestWorld, nil)
	world, skipped := until(t, bob, protocol.MsgWorldData)
	assert.NotContains(t, skipped, protocol.MsgOrbCollected)
	for _, o := range world["orbs"].([]any) {
		assert.NotEqual(t, "7", o.(map[string]any)["id"])
	}
}

func TestDisconnectDropsHeldOrbs(t *testing.T) {
	ts := newTestServer(t, 20)
	alice := join(t, ts, "Alice")
	bob := join(t, ts, "Bob")

	for _, id := range []string{"0", "1", "2", "3", "4"} {
		send(t, alice, protocol.MsgCollectOrb, map[string]any{"orbId": id})
		_, _ = until(t, bob, protocol.MsgOrbCollected)
	}
	require.NoError(t, alice.Close())

	dropped, _ := until(t, bob, protocol.MsgOrbsDropped)
	assert.Equal(t, "Alice", dropped["username"])
	assert.Len(t, dropped["orbs"], 5)

	left, _ := until(t, bob, protocol.MsgPlayerLeft)
	assert.Equal(t, "Alice", left["username"])
}

func TestFullRoomOpensAnother(t *testing.T) {
	ts := newTestServer(t, 1)
	a := ts.dial(t)
	send(t, a, protocol.MsgJoin, protocol.Join{Username: "Alice"})
	infoA := next(t, a)
	b := ts.dial(t)
	send(t, b, protocol.MsgJoin, protocol.Join{Username: "Alice"})
	infoB := next(t, b)

	assert.Equal(t, protocol.MsgRoomInfo, infoB["type"])
	assert.NotEqual(t, infoA["id"], infoB["id"])
}

func TestRoomsAndHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, 20)
	join(t, ts, "Alice")

	resp, err := http.Get(ts.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var rooms []protocol.RoomInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, 1, rooms[0].PlayerCount)
	assert.Equal(t, 20, rooms[0].MaxPlayers)

	health, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(health.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 1, body["rooms"])
	assert.EqualValues(t, 1, body["clients"])
}

func TestShutdownClosesClients(t *testing.T) {
	ts := newTestServer(t, 20)
	ws := join(t, ts, "Alice")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, ts.srv.Shutdown(ctx))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	assert.Equal(t, 0, ts.rooms.ListRooms()[0].PlayerCount)
}

func TestClientSendQueue(t *testing.T) {
	c := &Client{send: make(chan []byte, 1), done: make(chan struct{})}
	require.NoError(t, c.Send([]byte("a")))
	assert.ErrorIs(t, c.Send([]byte("b")), ErrSendQueueFull)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Send([]byte("c")), ErrClientClosed)
	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed")
	}
}
