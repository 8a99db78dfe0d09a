package core

import (
	"sync"

	"github.com/dkeye/Tabletop/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomStore is the authoritative RoomID -> Room mapping. It owns every Room
// and GameObject value; nothing outside the state machine mutates them.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[domain.RoomID]*Room)}
}

func (s *RoomStore) Get(id domain.RoomID) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// GetOrCreate resolves a room, creating an empty one for an unknown
// identifier. Joining an unknown room is the only way rooms come to exist.
func (s *RoomStore) GetOrCreate(id domain.RoomID) *Room {
	s.mu.RLock()
	r, ok := s.rooms[id]
	s.mu.RUnlock()
	if ok {
		return r
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok = s.rooms[id]; ok {
		return r
	}
	r = newRoom(id)
	s.rooms[id] = r
	log.Info().Str("module", "core.store").Str("room", string(id)).Msg("room created")
	return r
}

// remove is called by the leave transition the instant a room empties.
// Caller holds the room lock; the dead flag tells waiters to re-resolve.
func (s *RoomStore) remove(r *Room) {
	r.dead = true
	s.mu.Lock()
	delete(s.rooms, r.meta.ID)
	s.mu.Unlock()
	log.Info().Str("module", "core.store").Str("room", string(r.meta.ID)).Msg("room destroyed")
}

// RoomInfo is the lobby listing view.
type RoomInfo struct {
	RoomID      domain.RoomID `json:"roomID"`
	MemberCount int           `json:"memberCount"`
	Size        int           `json:"size"`
	IsLocked    bool          `json:"isLocked"`
	HasPassword bool          `json:"hasPassword"`
}

func (s *RoomStore) List() []RoomInfo {
	s.mu.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.RUnlock()

	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		r.Lock()
		if !r.Dead() {
			out = append(out, RoomInfo{
				RoomID:      r.meta.ID,
				MemberCount: len(r.members),
				Size:        r.meta.Size,
				IsLocked:    r.meta.IsLocked,
				HasPassword: r.meta.HasPassword(),
			})
		}
		r.Unlock()
	}
	return out
}

func (s *RoomStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
