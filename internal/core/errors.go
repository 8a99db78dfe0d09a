package core

import (
	"errors"

	"github.com/dkeye/Tabletop/internal/domain"
)

// Admission rejections. No mutation has happened when one of these is
// returned; the dispatcher reports it to the originator and moves on.
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrNotAMember      = errors.New("player is not a member of the room")
	ErrRoomLocked      = errors.New("room is locked")
	ErrRoomFull        = errors.New("room is full")
	ErrBadPassword     = errors.New("wrong room password")
	ErrNotHost         = errors.New("operation is reserved for the host")
	ErrObjectNotFound  = errors.New("game object not found")
	ErrKindMismatch    = errors.New("game object has the wrong kind")
	ErrBadPermutation  = errors.New("indices are not a permutation of the deck")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrBadSize         = errors.New("room size must be positive")
	ErrUnknownEvent    = errors.New("unknown event")
)

// ErrDelivery means the mutation committed but at least one member could not
// be reached, so nobody (or not everybody) got the echo.
type ErrDelivery struct {
	Dead []domain.PlayerID
}

func (e *ErrDelivery) Error() string {
	return "broadcast aborted: unreachable members"
}
