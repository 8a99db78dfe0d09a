package domain

type RoomID string

const DefaultRoomSize = 8

// Room holds the metadata half of a session. Membership and the game-object
// table live in the core room state; this stays a plain record.
type Room struct {
	ID           RoomID `json:"roomID"`
	Size         int    `json:"size"`
	IsLocked     bool   `json:"isLocked"`
	PasswordHash string `json:"-"` // empty means open
}

func NewRoom(id RoomID) *Room {
	return &Room{ID: id, Size: DefaultRoomSize}
}

func (r Room) HasPassword() bool {
	return r.PasswordHash != ""
}
