package apperror

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomExists      = errors.New("room already exists")
	ErrRoomFull        = errors.New("room is full")
	ErrRoomNotActive   = errors.New("room is not active")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrInvalidCell     = errors.New("invalid cell index")
	ErrInvalidMark     = errors.New("invalid mark")
	ErrNotPermitted    = errors.New("action not permitted")
	ErrUnknownStatus   = errors.New("unknown room status")
	ErrNoAvailableMove = errors.New("no available moves")
)
