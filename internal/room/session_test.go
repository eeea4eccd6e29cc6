package room

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Manish-keer19/meeting-app/internal/config"
	"github.com/Manish-keer19/meeting-app/internal/signaling"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptServer is a one-connection signaling server driven by the test body.
type scriptServer struct {
	*httptest.Server
	conns chan *websocket.Conn
}

func testSessionConfig() *config.Config {
	return &config.Config{STUNServer: "stun:stun.l.google.com:19302"}
}

func newScriptServer(t *testing.T) *scriptServer {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ss := &scriptServer{conns: make(chan *websocket.Conn, 1)}
	ss.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ss.conns <- conn
	}))
	t.Cleanup(ss.Close)
	return ss
}

func (ss *scriptServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ss.URL, "http")
}

func (ss *scriptServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-ss.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("client never connected")
		return nil
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) *signaling.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env signaling.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return &env
}

func writeEvent(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = data
	}
	require.NoError(t, conn.WriteJSON(&signaling.Envelope{Event: event, Payload: raw}))
}

func awaitStatus(t *testing.T, statuses <-chan Status, want Status) {
	t.Helper()
	for {
		select {
		case st := <-statuses:
			if st == want {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("status %s never arrived", want)
		}
	}
}

func TestSessionJoinEmitsRequest(t *testing.T) {
	ss := newScriptServer(t)
	channel := signaling.NewChannel(ss.wsURL())
	defer channel.Disconnect()

	session := NewSession(testSessionConfig(), channel, nil, "room-1", "Alice", nil)
	require.NoError(t, session.Join())

	conn := ss.accept(t)
	env := readEvent(t, conn)
	assert.Equal(t, signaling.EventJoinRoom, env.Event)

	var join signaling.JoinRoomPayload
	require.NoError(t, json.Unmarshal(env.Payload, &join))
	assert.Equal(t, "room-1", join.RoomID)
	assert.Equal(t, "Alice", join.UserName)
	assert.Equal(t, StatusConnecting, session.Status())
}

func TestSessionRejectionIsTerminal(t *testing.T) {
	ss := newScriptServer(t)
	channel := signaling.NewChannel(ss.wsURL())
	defer channel.Disconnect()

	session := NewSession(testSessionConfig(), channel, nil, "room-1", "Alice", nil)

	statuses := make(chan Status, 8)
	session.OnStatusChange = func(st Status) { statuses <- st }

	require.NoError(t, session.Join())
	conn := ss.accept(t)
	readEvent(t, conn) // join-room

	writeEvent(t, conn, signaling.EventWaitingForApproval, struct{}{})
	awaitStatus(t, statuses, StatusWaiting)

	writeEvent(t, conn, signaling.EventJoinRejected, struct{}{})
	awaitStatus(t, statuses, StatusRejected)

	assert.Equal(t, StatusRejected, session.Status())
	assert.Eventually(t, channel.IsClosed, 2*time.Second, 10*time.Millisecond)
}

func TestSessionFastPathJoin(t *testing.T) {
	ss := newScriptServer(t)
	channel := signaling.NewChannel(ss.wsURL())
	defer channel.Disconnect()

	session := NewSession(testSessionConfig(), channel, nil, "room-1", "Alice", nil)

	statuses := make(chan Status, 8)
	session.OnStatusChange = func(st Status) { statuses <- st }

	require.NoError(t, session.Join())
	conn := ss.accept(t)
	readEvent(t, conn) // join-room

	writeEvent(t, conn, signaling.EventExistingUsers, []signaling.UserInfo{})
	awaitStatus(t, statuses, StatusJoined)

	assert.Equal(t, StatusJoined, session.Status())
	assert.False(t, session.JoinedAt().IsZero())
	assert.Equal(t, 0, session.Roster().Len())
}

func TestSessionTracksRemoteRoster(t *testing.T) {
	ss := newScriptServer(t)
	channel := signaling.NewChannel(ss.wsURL())
	defer channel.Disconnect()

	session := NewSession(testSessionConfig(), channel, nil, "room-1", "Alice", nil)

	changes := make(chan struct{}, 16)
	session.OnRosterChange = func() { changes <- struct{}{} }

	require.NoError(t, session.Join())
	conn := ss.accept(t)
	readEvent(t, conn) // join-room

	writeEvent(t, conn, signaling.EventExistingUsers, []signaling.UserInfo{})
	writeEvent(t, conn, signaling.EventUserJoined, signaling.UserInfo{UserID: "u1", UserName: "Bob"})
	awaitChange(t, changes)
	require.Equal(t, 1, session.Roster().Len())

	writeEvent(t, conn, signaling.EventMediaStatusUpdate, signaling.MediaStatusPayload{
		UserID: "u1",
		Kind:   signaling.KindAudio,
		IsOn:   false,
	})
	awaitChange(t, changes)
	assert.False(t, session.Roster().Snapshot()[0].MicEnabled)

	writeEvent(t, conn, signaling.EventScreenShareStatus, signaling.ScreenSharePayload{
		UserID:    "u1",
		IsSharing: true,
	})
	awaitChange(t, changes)
	assert.True(t, session.Roster().Snapshot()[0].ScreenSharing)

	writeEvent(t, conn, signaling.EventUserLeft, signaling.UserInfo{UserID: "u1"})
	awaitChange(t, changes)
	assert.Equal(t, 0, session.Roster().Len())
}

func awaitChange(t *testing.T, changes <-chan struct{}) {
	t.Helper()
	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("roster change never arrived")
	}
}

func TestSessionDeduplicatesRosterSnapshot(t *testing.T) {
	ss := newScriptServer(t)
	channel := signaling.NewChannel(ss.wsURL())
	defer channel.Disconnect()

	session := NewSession(testSessionConfig(), channel, nil, "room-1", "Alice", nil)

	changes := make(chan struct{}, 16)
	session.OnRosterChange = func() { changes <- struct{}{} }

	require.NoError(t, session.Join())
	conn := ss.accept(t)
	readEvent(t, conn) // join-room

	// A snapshot repeating an entry must seed each participant once.
	writeEvent(t, conn, signaling.EventExistingUsers, []signaling.UserInfo{
		{UserID: "a", UserName: "Bob"},
		{UserID: "a", UserName: "Bob"},
		{UserID: "b", UserName: "Carol"},
	})
	awaitChange(t, changes)
	awaitChange(t, changes)

	require.Equal(t, 2, session.Roster().Len())
	snapshot := session.Roster().Snapshot()
	assert.Equal(t, "a", snapshot[0].ID)
	assert.Equal(t, "b", snapshot[1].ID)
	assert.Equal(t, 2, session.manager.Count())
}

func TestSessionScreenShareWithoutSource(t *testing.T) {
	ss := newScriptServer(t)
	channel := signaling.NewChannel(ss.wsURL())
	defer channel.Disconnect()

	session := NewSession(testSessionConfig(), channel, nil, "room-1", "Alice", nil)
	require.NoError(t, session.Join())
	conn := ss.accept(t)
	readEvent(t, conn) // join-room

	assert.Error(t, session.StartScreenShare())
	assert.False(t, session.Sharing())

	session.StopScreenShare() // never sharing, stays a no-op
	assert.False(t, session.Sharing())
}

func TestSessionToggleMicAnnounces(t *testing.T) {
	ss := newScriptServer(t)
	channel := signaling.NewChannel(ss.wsURL())
	defer channel.Disconnect()

	session := NewSession(testSessionConfig(), channel, nil, "room-1", "Alice", nil)
	require.NoError(t, session.Join())
	conn := ss.accept(t)
	readEvent(t, conn) // join-room

	assert.False(t, session.ToggleMic())
	env := readEvent(t, conn)
	assert.Equal(t, signaling.EventToggleMedia, env.Event)

	var status signaling.MediaStatusPayload
	require.NoError(t, json.Unmarshal(env.Payload, &status))
	assert.Equal(t, "room-1", status.RoomID)
	assert.Equal(t, signaling.KindAudio, status.Kind)
	assert.False(t, status.IsOn)

	assert.True(t, session.ToggleMic())
	env = readEvent(t, conn)
	require.NoError(t, json.Unmarshal(env.Payload, &status))
	assert.True(t, status.IsOn)
}

func TestSessionLeaveKeepsChannelOpen(t *testing.T) {
	ss := newScriptServer(t)
	channel := signaling.NewChannel(ss.wsURL())
	defer channel.Disconnect()

	session := NewSession(testSessionConfig(), channel, nil, "room-1", "Alice", nil)
	require.NoError(t, session.Join())
	conn := ss.accept(t)
	readEvent(t, conn) // join-room

	session.Leave()
	session.Leave() // second call is a no-op

	env := readEvent(t, conn)
	assert.Equal(t, signaling.EventLeaveRoom, env.Event)

	var roomID string
	require.NoError(t, json.Unmarshal(env.Payload, &roomID))
	assert.Equal(t, "room-1", roomID)
	assert.False(t, channel.IsClosed())
}
