package core

import (
	"sort"
	"sync"

	"github.com/dkeye/Tabletop/internal/domain"
)

// Room is the authoritative state of one session. Every room is a logical
// single-writer: the dispatcher holds the room lock across
// admit -> apply -> deliver, so transitions never interleave and the applied
// order equals the validated order.
type Room struct {
	mu   sync.Mutex
	dead bool

	meta    domain.Room
	members map[domain.PlayerID]uint64 // playerID -> join sequence
	nextSeq uint64
	host    domain.PlayerID
	objects map[domain.GameObjectID]*domain.GameObject
}

func newRoom(id domain.RoomID) *Room {
	return &Room{
		meta:    *domain.NewRoom(id),
		members: make(map[domain.PlayerID]uint64),
		objects: make(map[domain.GameObjectID]*domain.GameObject),
	}
}

func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

// Dead reports whether the room was destroyed while the caller waited on the
// lock. A dead room must be dropped and re-resolved through the store.
func (r *Room) Dead() bool { return r.dead }

func (r *Room) ID() domain.RoomID     { return r.meta.ID }
func (r *Room) Meta() domain.Room     { return r.meta }
func (r *Room) Host() domain.PlayerID { return r.host }
func (r *Room) MemberCount() int      { return len(r.members) }
func (r *Room) ObjectCount() int      { return len(r.objects) }

func (r *Room) HasMember(pid domain.PlayerID) bool {
	_, ok := r.members[pid]
	return ok
}

// MemberIDs returns the membership in join order. Order matters only for
// deterministic iteration; the set itself is unordered.
func (r *Room) MemberIDs() []domain.PlayerID {
	out := make([]domain.PlayerID, 0, len(r.members))
	for pid := range r.members {
		out = append(out, pid)
	}
	sort.Slice(out, func(i, j int) bool {
		return r.members[out[i]] < r.members[out[j]]
	})
	return out
}

func (r *Room) addMember(pid domain.PlayerID) {
	r.nextSeq++
	r.members[pid] = r.nextSeq
	if len(r.members) == 1 {
		r.host = pid
	}
}

func (r *Room) removeMember(pid domain.PlayerID) {
	delete(r.members, pid)
}

// electHost picks the earliest still-present joiner. The explicit join
// sequence replaces any reliance on map iteration order.
func (r *Room) electHost() domain.PlayerID {
	var best domain.PlayerID
	var bestSeq uint64
	for pid, seq := range r.members {
		if best == "" || seq < bestSeq {
			best, bestSeq = pid, seq
		}
	}
	r.host = best
	return best
}

func (r *Room) Object(id domain.GameObjectID) (*domain.GameObject, bool) {
	o, ok := r.objects[id]
	return o, ok
}

func (r *Room) putObject(o *domain.GameObject) {
	r.objects[o.ID] = o
}

func (r *Room) deleteObject(id domain.GameObjectID) {
	delete(r.objects, id)
}

// MemberInfo is the membership view carried in snapshots.
type MemberInfo struct {
	PlayerID domain.PlayerID `json:"playerID"`
	IsHost   bool            `json:"isHost"`
}

// RoomSnapshot is the full authoritative state handed to a joining player.
type RoomSnapshot struct {
	RoomID       domain.RoomID        `json:"roomID"`
	Members      []MemberInfo         `json:"members"`
	HostPlayerID domain.PlayerID      `json:"hostPlayerID"`
	Size         int                  `json:"size"`
	IsLocked     bool                 `json:"isLocked"`
	HasPassword  bool                 `json:"hasPassword"`
	GameObjects  []*domain.GameObject `json:"gameObjects"`
}

// Snapshot copies the current state. Objects are cloned shallowly except for
// deck sequences, so the snapshot cannot alias live state.
func (r *Room) Snapshot() *RoomSnapshot {
	members := make([]MemberInfo, 0, len(r.members))
	for _, pid := range r.MemberIDs() {
		members = append(members, MemberInfo{PlayerID: pid, IsHost: pid == r.host})
	}
	objects := make([]*domain.GameObject, 0, len(r.objects))
	for _, o := range r.objects {
		dup := *o
		if o.DeckRefIDs != nil {
			dup.DeckRefIDs = append([]string(nil), o.DeckRefIDs...)
		}
		objects = append(objects, &dup)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].ID < objects[j].ID })
	return &RoomSnapshot{
		RoomID:       r.meta.ID,
		Members:      members,
		HostPlayerID: r.host,
		Size:         r.meta.Size,
		IsLocked:     r.meta.IsLocked,
		HasPassword:  r.meta.HasPassword(),
		GameObjects:  objects,
	}
}
