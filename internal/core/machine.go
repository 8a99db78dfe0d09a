package core

import (
	"fmt"

	"github.com/dkeye/Tabletop/internal/domain"
	"github.com/rs/zerolog/log"
)

// Apply runs exactly one admitted transition against the room and returns
// the events to broadcast, in the order the store mutated. It is the only
// code that mutates room state. Admission failures never reach it, so a
// missing entry here is a broken invariant and panics; the dispatcher
// confines the damage to the affected room.
func Apply(store *RoomStore, room *Room, ev Event) []Event {
	switch e := ev.(type) {
	case *PlayerJoined:
		room.addMember(e.PlayerID)
		log.Info().Str("module", "core.machine").Str("room", string(room.ID())).
			Str("player", string(e.PlayerID)).Msg("player joined")
		return []Event{e}

	case *PlayerLeft:
		wasHost := room.host == e.PlayerID
		room.removeMember(e.PlayerID)
		log.Info().Str("module", "core.machine").Str("room", string(room.ID())).
			Str("player", string(e.PlayerID)).Msg("player left")
		if len(room.members) == 0 {
			store.remove(room)
			return []Event{e}
		}
		out := []Event{e}
		if wasHost {
			newHost := room.electHost()
			out = append(out, &HostChanged{
				Header:    Header{RoomID: room.ID()},
				NewHostID: newHost,
			})
		}
		return out

	case *HostChanged:
		room.host = e.NewHostID
		return []Event{e}

	case *RoomSizeChanged:
		room.meta.Size = e.NewSize
		return []Event{e}

	case *RoomLocked:
		room.meta.IsLocked = true
		return []Event{e}

	case *RoomUnlocked:
		room.meta.IsLocked = false
		return []Event{e}

	case *RoomPasswordSet:
		room.meta.PasswordHash = e.PasswordHash
		return []Event{e}

	case *RoomPasswordCleared:
		room.meta.PasswordHash = ""
		return []Event{e}

	case *GameObjectCreated:
		var o *domain.GameObject
		switch e.ObjectKind {
		case domain.KindCard:
			o = domain.NewCard(e.CardRefID)
		case domain.KindDeck:
			o = domain.NewDeck(e.DeckRefIDs)
		case domain.KindCounter:
			o = domain.NewCounter(e.Val)
		default:
			panic(fmt.Sprintf("create admitted with kind %q", e.ObjectKind))
		}
		// Default transform is (0,0), angle 0, face-down.
		if e.X != nil {
			o.X = *e.X
		}
		if e.Y != nil {
			o.Y = *e.Y
		}
		if e.Angle != nil {
			o.Angle = *e.Angle
		}
		if e.IsFaceUp != nil {
			o.IsFaceUp = *e.IsFaceUp
		}
		room.putObject(o)
		e.GameObjectID = o.ID
		return []Event{e}

	case *GameObjectDeleted:
		room.deleteObject(e.GameObjectID)
		return []Event{e}

	case *GameObjectMoved:
		o := mustObject(room, e.GameObjectID)
		o.X, o.Y = e.X, e.Y
		return []Event{e}

	case *GameObjectRotated:
		mustObject(room, e.GameObjectID).Angle = e.Angle
		return []Event{e}

	case *GameObjectFlipped:
		mustObject(room, e.GameObjectID).IsFaceUp = e.IsFaceUp
		return []Event{e}

	case *GameObjectCopied:
		dup := mustObject(room, e.GameObjectID).Clone()
		dup.X, dup.Y = e.X, e.Y
		if e.Angle != nil {
			dup.Angle = *e.Angle
		}
		room.putObject(dup)
		e.NewGameObjectID = dup.ID
		return []Event{e}

	case *DeckInsertedCard:
		deck := mustObject(room, e.GameObjectID)
		idx := clampIndex(e.Index, len(deck.DeckRefIDs))
		refs := append(deck.DeckRefIDs, "")
		copy(refs[idx+1:], refs[idx:])
		refs[idx] = e.CardRefID
		deck.DeckRefIDs = refs
		// Echo the effective position, not the advisory one.
		e.Index = idx
		return []Event{e}

	case *DeckRemovedCard:
		deck := mustObject(room, e.GameObjectID)
		e.CardRefID = deck.DeckRefIDs[e.Index]
		deck.DeckRefIDs = append(deck.DeckRefIDs[:e.Index], deck.DeckRefIDs[e.Index+1:]...)
		if len(deck.DeckRefIDs) == 0 {
			// Removing the last card deletes the deck itself.
			room.deleteObject(deck.ID)
			return []Event{e, &GameObjectDeleted{
				Header:       Header{RoomID: room.ID()},
				GameObjectID: deck.ID,
			}}
		}
		return []Event{e}

	case *DeckReordered:
		deck := mustObject(room, e.GameObjectID)
		// Scatter permutation: the element at i moves to Indices[i].
		next := make([]string, len(deck.DeckRefIDs))
		for i, target := range e.Indices {
			next[target] = deck.DeckRefIDs[i]
		}
		deck.DeckRefIDs = next
		return []Event{e}

	case *CounterUpdated:
		mustObject(room, e.GameObjectID).Val = e.Val
		return []Event{e}
	}

	panic(fmt.Sprintf("transition for unadmittable event %q", ev.Kind()))
}

func mustObject(room *Room, id domain.GameObjectID) *domain.GameObject {
	o, ok := room.Object(id)
	if !ok {
		panic(fmt.Sprintf("room %s lost object %s between admit and apply", room.ID(), id))
	}
	return o
}

// clampIndex pins an advisory insertion index to [0, n].
func clampIndex(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx > n {
		return n
	}
	return idx
}
