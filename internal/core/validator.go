package core

import "github.com/dkeye/Tabletop/internal/domain"

// Admit is the pure admission predicate: given current state and an incoming
// event it accepts or rejects without mutating anything. Predicates run in
// order and the first failure is the rejection reason. room is nil when the
// acting room identifier resolved to nothing; only a join survives that.
func Admit(room *Room, ev Event) error {
	if join, ok := ev.(*PlayerJoined); ok {
		return admitJoin(room, join)
	}
	if room == nil || room.Dead() {
		return ErrRoomNotFound
	}
	pid := ev.Hdr().PlayerID
	if !room.HasMember(pid) {
		return ErrNotAMember
	}

	switch e := ev.(type) {
	case *PlayerLeft:
		return nil

	case *HostChanged:
		if pid != room.host {
			return ErrNotHost
		}
		if !room.HasMember(e.NewHostID) {
			return ErrNotAMember
		}
		return nil

	case *RoomSizeChanged:
		if pid != room.host {
			return ErrNotHost
		}
		if e.NewSize < 1 {
			return ErrBadSize
		}
		return nil

	case *RoomLocked, *RoomUnlocked, *RoomPasswordSet, *RoomPasswordCleared:
		if pid != room.host {
			return ErrNotHost
		}
		return nil

	case *GameObjectCreated:
		switch e.ObjectKind {
		case domain.KindCard, domain.KindDeck, domain.KindCounter:
			return nil
		}
		return ErrKindMismatch

	case *GameObjectDeleted:
		_, err := resolveObject(room, e.GameObjectID, "")
		return err

	case *GameObjectMoved:
		_, err := resolveObject(room, e.GameObjectID, "")
		return err

	case *GameObjectRotated:
		_, err := resolveObject(room, e.GameObjectID, "")
		return err

	case *GameObjectFlipped:
		_, err := resolveObject(room, e.GameObjectID, "")
		return err

	case *GameObjectCopied:
		_, err := resolveObject(room, e.GameObjectID, "")
		return err

	case *DeckInsertedCard:
		// Insertion position is advisory, so the index is clamped by the
		// transition instead of rejected here.
		_, err := resolveObject(room, e.GameObjectID, domain.KindDeck)
		return err

	case *DeckRemovedCard:
		deck, err := resolveObject(room, e.GameObjectID, domain.KindDeck)
		if err != nil {
			return err
		}
		if e.Index < 0 || e.Index >= len(deck.DeckRefIDs) {
			return ErrIndexOutOfRange
		}
		return nil

	case *DeckReordered:
		deck, err := resolveObject(room, e.GameObjectID, domain.KindDeck)
		if err != nil {
			return err
		}
		if !isPermutation(e.Indices, len(deck.DeckRefIDs)) {
			return ErrBadPermutation
		}
		return nil

	case *CounterUpdated:
		_, err := resolveObject(room, e.GameObjectID, domain.KindCounter)
		return err
	}

	return ErrUnknownEvent
}

func admitJoin(room *Room, ev *PlayerJoined) error {
	if room == nil || room.Dead() {
		// Unknown room identifier: the join creates it.
		return nil
	}
	if room.meta.IsLocked {
		return ErrRoomLocked
	}
	if room.meta.HasPassword() && room.meta.PasswordHash != ev.Password {
		return ErrBadPassword
	}
	if len(room.members) >= room.meta.Size {
		return ErrRoomFull
	}
	return nil
}

func resolveObject(room *Room, id domain.GameObjectID, kind domain.GameObjectKind) (*domain.GameObject, error) {
	o, ok := room.Object(id)
	if !ok {
		return nil, ErrObjectNotFound
	}
	if kind != "" && o.Kind != kind {
		return nil, ErrKindMismatch
	}
	return o, nil
}

// isPermutation checks that indices is a bijection on [0, n).
func isPermutation(indices []int, n int) bool {
	if len(indices) != n {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range indices {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}
