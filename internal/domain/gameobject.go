package domain

import "github.com/google/uuid"

type GameObjectID string

// GameObjectKind is the closed set of variants a room can hold.
type GameObjectKind string

const (
	KindCard    GameObjectKind = "Card"
	KindDeck    GameObjectKind = "Deck"
	KindCounter GameObjectKind = "Counter"
)

// GameObject is the tagged variant over Card, Deck and Counter. Kind decides
// which payload field is meaningful; the validator narrows by Kind before any
// transition touches a payload field.
type GameObject struct {
	ID       GameObjectID   `json:"gameObjectID"`
	Kind     GameObjectKind `json:"gameObjectType"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Angle    float64        `json:"angle"`
	IsFaceUp bool           `json:"isFaceUp"`

	CardRefID  string   `json:"cardRefID,omitempty"`  // Card: one catalog reference
	DeckRefIDs []string `json:"deckRefIDs,omitempty"` // Deck: draw order, front first
	Val        float64  `json:"val,omitempty"`        // Counter
}

func NewCard(ref string) *GameObject {
	return &GameObject{ID: newObjectID(), Kind: KindCard, CardRefID: ref}
}

func NewDeck(refs []string) *GameObject {
	owned := make([]string, len(refs))
	copy(owned, refs)
	return &GameObject{ID: newObjectID(), Kind: KindDeck, DeckRefIDs: owned}
}

func NewCounter(val float64) *GameObject {
	return &GameObject{ID: newObjectID(), Kind: KindCounter, Val: val}
}

// Clone copies the full object state under a fresh identifier.
func (o *GameObject) Clone() *GameObject {
	dup := *o
	dup.ID = newObjectID()
	if o.DeckRefIDs != nil {
		dup.DeckRefIDs = make([]string, len(o.DeckRefIDs))
		copy(dup.DeckRefIDs, o.DeckRefIDs)
	}
	return &dup
}

func newObjectID() GameObjectID {
	return GameObjectID(uuid.NewString())
}
