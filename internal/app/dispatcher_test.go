package app_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/Tabletop/internal/app"
	"github.com/dkeye/Tabletop/internal/core"
	"github.com/dkeye/Tabletop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records every delivered frame.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	c.frames = append(c.frames, append(core.Frame(nil), f...))
	return nil
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// wire decodes the nth recorded frame into a loose map.
func (c *fakeConn) wire(t *testing.T, n int) map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.Greater(t, len(c.frames), n)
	var out map[string]any
	require.NoError(t, json.Unmarshal(c.frames[n], &out))
	return out
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func newDispatcher() *app.Dispatcher {
	reg := app.NewRegistry()
	return app.NewDispatcher(reg, core.NewRoomStore(), app.NewBroadcaster(reg))
}

func connect(t *testing.T, d *app.Dispatcher, pid domain.PlayerID, roomID domain.RoomID) *fakeConn {
	t.Helper()
	conn := &fakeConn{}
	d.Registry.Bind(pid, conn, nil)
	require.NoError(t, d.Connect(pid, roomID, ""))
	return conn
}

func TestConnectDeliversSnapshotToJoiner(t *testing.T) {
	d := newDispatcher()
	conn := connect(t, d, "P1", "R")

	msg := conn.wire(t, 0)
	assert.Equal(t, "PlayerJoined", msg["event"])
	assert.Equal(t, "P1", msg["playerID"])
	assert.Equal(t, "R", msg["roomID"])

	snap, ok := msg["snapshot"].(map[string]any)
	require.True(t, ok, "joiner must receive the full snapshot")
	assert.Equal(t, "P1", snap["hostPlayerID"])
	assert.Len(t, snap["members"], 1)

	roomID, ok := d.Registry.RoomOf("P1")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("R"), roomID)
}

func TestSecondJoinAnnouncementVsSnapshot(t *testing.T) {
	d := newDispatcher()
	c1 := connect(t, d, "P1", "R")
	c2 := connect(t, d, "P2", "R")

	// Existing member learns only the new identifier.
	announce := c1.wire(t, 1)
	assert.Equal(t, "PlayerJoined", announce["event"])
	assert.Equal(t, "P2", announce["playerID"])
	_, hasSnap := announce["snapshot"]
	assert.False(t, hasSnap)

	// The joiner bootstraps from the post-mutation state.
	boot := c2.wire(t, 0)
	snap, ok := boot["snapshot"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "P1", snap["hostPlayerID"])
	assert.Len(t, snap["members"], 2)
}

func TestDisconnectRunsLeaveAndHostElection(t *testing.T) {
	d := newDispatcher()
	connect(t, d, "P1", "R")
	c2 := connect(t, d, "P2", "R")

	d.Disconnect("P1")

	left := c2.wire(t, 1)
	assert.Equal(t, "PlayerLeft", left["event"])
	assert.Equal(t, "P1", left["playerID"])

	host := c2.wire(t, 2)
	assert.Equal(t, "HostChanged", host["event"])
	assert.Equal(t, "P2", host["newHostID"])

	_, bound := d.Registry.Conn("P1")
	assert.False(t, bound)
}

func TestLastDisconnectDestroysRoom(t *testing.T) {
	d := newDispatcher()
	connect(t, d, "P1", "R")

	d.Disconnect("P1")

	_, ok := d.Rooms.Get("R")
	assert.False(t, ok)
	assert.Equal(t, 0, d.Rooms.Count())
}

func TestEchoReachesEveryMemberIncludingOriginator(t *testing.T) {
	d := newDispatcher()
	c1 := connect(t, d, "P1", "R")
	c2 := connect(t, d, "P2", "R")

	d.HandleMessage("P1", []byte(`{"event":"GameObjectCreated","gameObjectType":"Counter","val":5}`))

	for _, conn := range []*fakeConn{c1, c2} {
		msg := conn.wire(t, conn.count()-1)
		assert.Equal(t, "GameObjectCreated", msg["event"])
		assert.Equal(t, "P1", msg["playerID"])
		assert.NotEmpty(t, msg["gameObjectID"], "server must mint the identifier")
	}
}

func TestRejectionGoesOnlyToOriginator(t *testing.T) {
	d := newDispatcher()
	c1 := connect(t, d, "P1", "R")
	c2 := connect(t, d, "P2", "R")
	before := c1.count()

	d.HandleMessage("P2", []byte(`{"event":"GameObjectDeleted","gameObjectID":"ghost"}`))

	msg := c2.wire(t, c2.count()-1)
	assert.Equal(t, "Error", msg["event"])
	assert.Equal(t, core.ErrObjectNotFound.Error(), msg["error"])
	assert.Equal(t, before, c1.count(), "no broadcast on rejection")
}

func TestMalformedFrameReportsError(t *testing.T) {
	d := newDispatcher()
	c1 := connect(t, d, "P1", "R")

	d.HandleMessage("P1", []byte(`{"event":"Shuffle"}`))

	msg := c1.wire(t, c1.count()-1)
	assert.Equal(t, "Error", msg["event"])
}

func TestAbortedBroadcastEvictsDeadMember(t *testing.T) {
	d := newDispatcher()
	c1 := connect(t, d, "P1", "R")
	c2 := connect(t, d, "P2", "R")

	// P2's socket dies without a clean disconnect.
	c2.Close()

	d.HandleMessage("P1", []byte(`{"event":"GameObjectCreated","gameObjectType":"Card","cardRefID":"ref-1"}`))

	// Survivor converges: the committed event, then P2's synthetic leave.
	created := c1.wire(t, 2)
	assert.Equal(t, "GameObjectCreated", created["event"])
	left := c1.wire(t, 3)
	assert.Equal(t, "PlayerLeft", left["event"])
	assert.Equal(t, "P2", left["playerID"])

	room, ok := d.Rooms.Get("R")
	require.True(t, ok)
	room.Lock()
	assert.Equal(t, 1, room.MemberCount())
	assert.False(t, room.HasMember("P2"))
	room.Unlock()

	_, inRoom := d.Registry.RoomOf("P2")
	assert.False(t, inRoom)
}

func TestJoinSwitchesRoomLeaveFirst(t *testing.T) {
	d := newDispatcher()
	conn := connect(t, d, "P1", "A")

	require.NoError(t, d.Connect("P1", "B", ""))

	// The old room emptied and died before the new join landed.
	_, ok := d.Rooms.Get("A")
	assert.False(t, ok)

	roomB, ok := d.Rooms.Get("B")
	require.True(t, ok)
	roomB.Lock()
	assert.True(t, roomB.HasMember("P1"))
	roomB.Unlock()

	roomID, _ := d.Registry.RoomOf("P1")
	assert.Equal(t, domain.RoomID("B"), roomID)

	// The leave echo had no recipients (the room emptied), so the frames
	// are the two join snapshots.
	require.Equal(t, 2, conn.count())
	last := conn.wire(t, conn.count()-1)
	assert.Equal(t, "PlayerJoined", last["event"])
	assert.Equal(t, "B", last["roomID"])
}

func TestRejectedJoinLeavesNoTrace(t *testing.T) {
	d := newDispatcher()
	connect(t, d, "P1", "R")
	lockEv := []byte(`{"event":"RoomLocked"}`)
	d.HandleMessage("P1", lockEv)

	conn := &fakeConn{}
	d.Registry.Bind("P2", conn, nil)
	err := d.Connect("P2", "R", "")
	assert.ErrorIs(t, err, core.ErrRoomLocked)

	msg := conn.wire(t, 0)
	assert.Equal(t, "Error", msg["event"])

	room, ok := d.Rooms.Get("R")
	require.True(t, ok)
	room.Lock()
	assert.Equal(t, 1, room.MemberCount())
	room.Unlock()
}
