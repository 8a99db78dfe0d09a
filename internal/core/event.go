package core

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Tabletop/internal/domain"
)

type EventKind string

const (
	EvPlayerJoined        EventKind = "PlayerJoined"
	EvPlayerLeft          EventKind = "PlayerLeft"
	EvHostChanged         EventKind = "HostChanged"
	EvRoomSizeChanged     EventKind = "RoomSizeChanged"
	EvRoomLocked          EventKind = "RoomLocked"
	EvRoomUnlocked        EventKind = "RoomUnlocked"
	EvRoomPasswordSet     EventKind = "RoomPasswordSet"
	EvRoomPasswordCleared EventKind = "RoomPasswordCleared"
	EvGameObjectCreated   EventKind = "GameObjectCreated"
	EvGameObjectDeleted   EventKind = "GameObjectDeleted"
	EvGameObjectMoved     EventKind = "GameObjectMoved"
	EvGameObjectRotated   EventKind = "GameObjectRotated"
	EvGameObjectFlipped   EventKind = "GameObjectFlipped"
	EvGameObjectCopied    EventKind = "GameObjectCopied"
	EvDeckInsertedCard    EventKind = "DeckInsertedCard"
	EvDeckRemovedCard     EventKind = "DeckRemovedCard"
	EvDeckReordered       EventKind = "DeckReordered"
	EvCounterUpdated      EventKind = "CounterUpdated"
	EvError               EventKind = "Error"
)

// Header carries the discriminant and the sender identity. RoomID and
// PlayerID are attached by the dispatcher from the connection registry and
// never trusted from the wire.
type Header struct {
	Event    EventKind       `json:"event"`
	RoomID   domain.RoomID   `json:"roomID,omitempty"`
	PlayerID domain.PlayerID `json:"playerID,omitempty"`
}

func (h *Header) Hdr() *Header { return h }

// Event is the closed union of everything the state machine can be asked to
// do. Every variant embeds Header.
type Event interface {
	Kind() EventKind
	Hdr() *Header
}

type PlayerJoined struct {
	Header
	// Password comes from the connection URL, never from the payload,
	// and is never echoed.
	Password string `json:"-"`
	// Snapshot is filled per recipient: the joiner gets the full room
	// state, everyone else only the new player's identifier.
	Snapshot *RoomSnapshot `json:"snapshot,omitempty"`
}

type PlayerLeft struct {
	Header
}

type HostChanged struct {
	Header
	NewHostID domain.PlayerID `json:"newHostID"`
}

type RoomSizeChanged struct {
	Header
	NewSize int `json:"newSize"`
}

type RoomLocked struct{ Header }

type RoomUnlocked struct{ Header }

type RoomPasswordSet struct {
	Header
	PasswordHash string `json:"passwordHash"`
}

type RoomPasswordCleared struct{ Header }

type GameObjectCreated struct {
	Header
	ObjectKind domain.GameObjectKind `json:"gameObjectType"`
	CardRefID  string                `json:"cardRefID,omitempty"`
	DeckRefIDs []string              `json:"deckRefIDs,omitempty"`
	Val        float64               `json:"val,omitempty"`
	X          *float64              `json:"x,omitempty"`
	Y          *float64              `json:"y,omitempty"`
	Angle      *float64              `json:"angle,omitempty"`
	IsFaceUp   *bool                 `json:"isFaceUp,omitempty"`
	// GameObjectID is minted server-side and echoed; a client-supplied
	// value is overwritten.
	GameObjectID domain.GameObjectID `json:"gameObjectID,omitempty"`
}

type GameObjectDeleted struct {
	Header
	GameObjectID domain.GameObjectID `json:"gameObjectID"`
}

type GameObjectMoved struct {
	Header
	GameObjectID domain.GameObjectID `json:"gameObjectID"`
	X            float64             `json:"x"`
	Y            float64             `json:"y"`
}

type GameObjectRotated struct {
	Header
	GameObjectID domain.GameObjectID `json:"gameObjectID"`
	Angle        float64             `json:"angle"`
}

type GameObjectFlipped struct {
	Header
	GameObjectID domain.GameObjectID `json:"gameObjectID"`
	IsFaceUp     bool                `json:"isFaceUp"`
}

type GameObjectCopied struct {
	Header
	GameObjectID domain.GameObjectID `json:"gameObjectID"`
	X            float64             `json:"x"`
	Y            float64             `json:"y"`
	Angle        *float64            `json:"angle,omitempty"`
	// NewGameObjectID is minted server-side and echoed.
	NewGameObjectID domain.GameObjectID `json:"newGameObjectID,omitempty"`
}

type DeckInsertedCard struct {
	Header
	GameObjectID domain.GameObjectID `json:"gameObjectID"`
	CardRefID    string              `json:"cardRefID"`
	Index        int                 `json:"index"`
}

type DeckRemovedCard struct {
	Header
	GameObjectID domain.GameObjectID `json:"gameObjectID"`
	Index        int                 `json:"index"`
	// CardRefID is the removed reference, filled by the transition and
	// echoed so the client can spawn a standalone card from it.
	CardRefID string `json:"cardRefID,omitempty"`
}

type DeckReordered struct {
	Header
	GameObjectID domain.GameObjectID `json:"gameObjectID"`
	// Indices[i] is the new position of the element currently at i.
	Indices []int `json:"indices"`
}

type CounterUpdated struct {
	Header
	GameObjectID domain.GameObjectID `json:"gameObjectID"`
	Val          float64             `json:"val"`
}

// ErrorEvent is server-originated only: the admission verdict sent back to
// the originator of a rejected event.
type ErrorEvent struct {
	Header
	Reason string `json:"error"`
}

func (*PlayerJoined) Kind() EventKind        { return EvPlayerJoined }
func (*PlayerLeft) Kind() EventKind          { return EvPlayerLeft }
func (*HostChanged) Kind() EventKind         { return EvHostChanged }
func (*RoomSizeChanged) Kind() EventKind     { return EvRoomSizeChanged }
func (*RoomLocked) Kind() EventKind          { return EvRoomLocked }
func (*RoomUnlocked) Kind() EventKind        { return EvRoomUnlocked }
func (*RoomPasswordSet) Kind() EventKind     { return EvRoomPasswordSet }
func (*RoomPasswordCleared) Kind() EventKind { return EvRoomPasswordCleared }
func (*GameObjectCreated) Kind() EventKind   { return EvGameObjectCreated }
func (*GameObjectDeleted) Kind() EventKind   { return EvGameObjectDeleted }
func (*GameObjectMoved) Kind() EventKind     { return EvGameObjectMoved }
func (*GameObjectRotated) Kind() EventKind   { return EvGameObjectRotated }
func (*GameObjectFlipped) Kind() EventKind   { return EvGameObjectFlipped }
func (*GameObjectCopied) Kind() EventKind    { return EvGameObjectCopied }
func (*DeckInsertedCard) Kind() EventKind    { return EvDeckInsertedCard }
func (*DeckRemovedCard) Kind() EventKind     { return EvDeckRemovedCard }
func (*DeckReordered) Kind() EventKind       { return EvDeckReordered }
func (*CounterUpdated) Kind() EventKind      { return EvCounterUpdated }
func (*ErrorEvent) Kind() EventKind          { return EvError }

// DecodeEvent turns a wire frame into its typed variant. PlayerJoined and
// Error are server-originated and fall through to ErrUnknownEvent here.
func DecodeEvent(data []byte) (Event, error) {
	var env struct {
		Event EventKind `json:"event"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var ev Event
	switch env.Event {
	case EvPlayerLeft:
		ev = &PlayerLeft{}
	case EvHostChanged:
		ev = &HostChanged{}
	case EvRoomSizeChanged:
		ev = &RoomSizeChanged{}
	case EvRoomLocked:
		ev = &RoomLocked{}
	case EvRoomUnlocked:
		ev = &RoomUnlocked{}
	case EvRoomPasswordSet:
		ev = &RoomPasswordSet{}
	case EvRoomPasswordCleared:
		ev = &RoomPasswordCleared{}
	case EvGameObjectCreated:
		ev = &GameObjectCreated{}
	case EvGameObjectDeleted:
		ev = &GameObjectDeleted{}
	case EvGameObjectMoved:
		ev = &GameObjectMoved{}
	case EvGameObjectRotated:
		ev = &GameObjectRotated{}
	case EvGameObjectFlipped:
		ev = &GameObjectFlipped{}
	case EvGameObjectCopied:
		ev = &GameObjectCopied{}
	case EvDeckInsertedCard:
		ev = &DeckInsertedCard{}
	case EvDeckRemovedCard:
		ev = &DeckRemovedCard{}
	case EvDeckReordered:
		ev = &DeckReordered{}
	case EvCounterUpdated:
		ev = &CounterUpdated{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Event, err)
	}
	return ev, nil
}

// EncodeEvent writes the frame for broadcast. The discriminant always comes
// from the type, not from whatever the client put in the envelope.
func EncodeEvent(ev Event) (Frame, error) {
	ev.Hdr().Event = ev.Kind()
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Kind(), err)
	}
	return Frame(b), nil
}
