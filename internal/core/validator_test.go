package core_test

import (
	"testing"

	"github.com/dkeye/Tabletop/internal/core"
	"github.com/dkeye/Tabletop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmitRejectsUnknownRoom(t *testing.T) {
	ev := &core.GameObjectDeleted{GameObjectID: "x"}
	ev.PlayerID = "P1"
	assert.ErrorIs(t, core.Admit(nil, ev), core.ErrRoomNotFound)
}

func TestAdmitRejectsNonMember(t *testing.T) {
	store := core.NewRoomStore()
	room := join(t, store, "R", "P1")

	ev := &core.GameObjectDeleted{GameObjectID: "x"}
	ev.RoomID, ev.PlayerID = "R", "stranger"
	assert.ErrorIs(t, core.Admit(room, ev), core.ErrNotAMember)
}

func TestAdmitJoin(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, store *core.RoomStore) *core.Room
		password string
		wantErr  error
	}{
		{
			name: "unknown room is the creation path",
			setup: func(t *testing.T, store *core.RoomStore) *core.Room {
				return nil
			},
		},
		{
			name: "open room admits",
			setup: func(t *testing.T, store *core.RoomStore) *core.Room {
				return join(t, store, "R", "P1")
			},
		},
		{
			name: "locked room rejects",
			setup: func(t *testing.T, store *core.RoomStore) *core.Room {
				room := join(t, store, "R", "P1")
				lock := &core.RoomLocked{}
				lock.RoomID, lock.PlayerID = "R", "P1"
				run(t, store, room, lock)
				return room
			},
			wantErr: core.ErrRoomLocked,
		},
		{
			name: "wrong password rejects",
			setup: func(t *testing.T, store *core.RoomStore) *core.Room {
				room := join(t, store, "R", "P1")
				pw := &core.RoomPasswordSet{PasswordHash: "right"}
				pw.RoomID, pw.PlayerID = "R", "P1"
				run(t, store, room, pw)
				return room
			},
			password: "wrong",
			wantErr:  core.ErrBadPassword,
		},
		{
			name: "matching password admits",
			setup: func(t *testing.T, store *core.RoomStore) *core.Room {
				room := join(t, store, "R", "P1")
				pw := &core.RoomPasswordSet{PasswordHash: "right"}
				pw.RoomID, pw.PlayerID = "R", "P1"
				run(t, store, room, pw)
				return room
			},
			password: "right",
		},
		{
			name: "full room rejects",
			setup: func(t *testing.T, store *core.RoomStore) *core.Room {
				room := join(t, store, "R", "P1")
				size := &core.RoomSizeChanged{NewSize: 1}
				size.RoomID, size.PlayerID = "R", "P1"
				run(t, store, room, size)
				return room
			},
			wantErr: core.ErrRoomFull,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := core.NewRoomStore()
			room := tt.setup(t, store)

			ev := &core.PlayerJoined{Password: tt.password}
			ev.RoomID, ev.PlayerID = "R", "P9"
			err := core.Admit(room, ev)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAdmitHostOnlyOperations(t *testing.T) {
	store := core.NewRoomStore()
	room := join(t, store, "R", "P1")
	join(t, store, "R", "P2")

	hostOnly := []core.Event{
		&core.HostChanged{NewHostID: "P1"},
		&core.RoomSizeChanged{NewSize: 4},
		&core.RoomLocked{},
		&core.RoomUnlocked{},
		&core.RoomPasswordSet{PasswordHash: "h"},
		&core.RoomPasswordCleared{},
	}
	for _, ev := range hostOnly {
		ev.Hdr().RoomID = "R"
		ev.Hdr().PlayerID = "P2"
		assert.ErrorIs(t, core.Admit(room, ev), core.ErrNotHost, string(ev.Kind()))

		ev.Hdr().PlayerID = "P1"
		assert.NoError(t, core.Admit(room, ev), string(ev.Kind()))
	}
}

func TestAdmitHostChangedRequiresMember(t *testing.T) {
	store := core.NewRoomStore()
	room := join(t, store, "R", "P1")

	ev := &core.HostChanged{NewHostID: "ghost"}
	ev.RoomID, ev.PlayerID = "R", "P1"
	assert.ErrorIs(t, core.Admit(room, ev), core.ErrNotAMember)
}

func TestAdmitRejectsWrongVariant(t *testing.T) {
	store := core.NewRoomStore()
	room := join(t, store, "R", "P1")

	counter := &core.GameObjectCreated{ObjectKind: domain.KindCounter, Val: 3}
	counter.RoomID, counter.PlayerID = "R", "P1"
	run(t, store, room, counter)

	ins := &core.DeckInsertedCard{GameObjectID: counter.GameObjectID, CardRefID: "x", Index: 0}
	ins.RoomID, ins.PlayerID = "R", "P1"
	assert.ErrorIs(t, core.Admit(room, ins), core.ErrKindMismatch)

	upd := &core.CounterUpdated{GameObjectID: counter.GameObjectID, Val: 4}
	upd.RoomID, upd.PlayerID = "R", "P1"
	assert.NoError(t, core.Admit(room, upd))
}

func TestAdmitDeckReorderedPermutation(t *testing.T) {
	tests := []struct {
		name    string
		indices []int
		ok      bool
	}{
		{name: "identity", indices: []int{0, 1, 2}, ok: true},
		{name: "rotation", indices: []int{2, 0, 1}, ok: true},
		{name: "duplicate index", indices: []int{0, 0, 1}},
		{name: "out of range", indices: []int{0, 1, 3}},
		{name: "negative", indices: []int{0, 1, -1}},
		{name: "too short", indices: []int{0, 1}},
		{name: "too long", indices: []int{0, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := core.NewRoomStore()
			room := join(t, store, "R", "P1")
			id := createDeck(t, store, room, "P1", []string{"a", "b", "c"})

			ev := &core.DeckReordered{GameObjectID: id, Indices: tt.indices}
			ev.RoomID, ev.PlayerID = "R", "P1"
			err := core.Admit(room, ev)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, core.ErrBadPermutation)
			}
		})
	}
}

func TestAdmitDoesNotMutate(t *testing.T) {
	store := core.NewRoomStore()
	room := join(t, store, "R", "P1")
	id := createDeck(t, store, room, "P1", []string{"a", "b"})

	ev := &core.DeckRemovedCard{GameObjectID: id, Index: 5}
	ev.RoomID, ev.PlayerID = "R", "P1"
	require.Error(t, core.Admit(room, ev))

	assert.Equal(t, []string{"a", "b"}, deckRefs(t, room, id))
	assert.Equal(t, 1, room.MemberCount())
}
