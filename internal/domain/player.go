// Package domain contains entity without logic, just meta-data
package domain

import "github.com/google/uuid"

type PlayerID string

// Player is one connected participant. The transport handle lives in the
// adapter; RoomID is mutated only by the join/leave transitions.
type Player struct {
	ID     PlayerID `json:"playerID"`
	RoomID RoomID   `json:"roomID,omitempty"`
}

// NewPlayer mints a fresh identifier for the lifetime of one connection.
func NewPlayer() *Player {
	return &Player{ID: PlayerID(uuid.NewString())}
}
