package rest

import (
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

type JoinRoomRequest struct {
	RoomID string `json:"room_id" binding:"required"`
}

type MoveRequest struct {
	RoomID string         `json:"room_id" binding:"required"`
	Mark   tictactoe.Mark `json:"mark" binding:"required"`
	Index  *int           `json:"index" binding:"required"`
}

// ResetRequest asks for a rematch. StartMark is optional.
type ResetRequest struct {
	RoomID    string         `json:"room_id" binding:"required"`
	Mark      tictactoe.Mark `json:"mark" binding:"required"`
	StartMark tictactoe.Mark `json:"start_mark"`
}

// MarkRequest is shared by ready and leave.
type MarkRequest struct {
	RoomID string         `json:"room_id" binding:"required"`
	Mark   tictactoe.Mark `json:"mark" binding:"required"`
}

type SeatResponse struct {
	RoomID string         `json:"room_id"`
	YouAre tictactoe.Mark `json:"you_are"`
}

type RoomStateResponse struct {
	RoomID      string          `json:"room_id"`
	Board       tictactoe.Board `json:"board"`
	CurrentTurn tictactoe.Mark  `json:"current_turn"`
	Status      string          `json:"status"`
	Winner      tictactoe.Mark  `json:"winner,omitempty"`
	Line        []int           `json:"line,omitempty"`
	LastWinner  tictactoe.Mark  `json:"last_winner,omitempty"`
	ReadyA      bool            `json:"ready_A"`
	ReadyB      bool            `json:"ready_B"`
	Version     int64           `json:"version"`
	Game        int             `json:"game"`
}

type MoveResponse struct {
	OK          bool            `json:"ok"`
	Board       tictactoe.Board `json:"board"`
	CurrentTurn tictactoe.Mark  `json:"current_turn"`
	Status      string          `json:"status"`
	Winner      tictactoe.Mark  `json:"winner,omitempty"`
	Line        []int           `json:"line,omitempty"`
	LastWinner  tictactoe.Mark  `json:"last_winner,omitempty"`
	Version     int64           `json:"version"`
	Game        int             `json:"game"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func toRoomState(room *entity.Room) RoomStateResponse {
	return RoomStateResponse{
		RoomID:      room.Code,
		Board:       room.Board,
		CurrentTurn: room.Turn,
		Status:      room.Status,
		Winner:      room.Winner,
		Line:        winningLine(room),
		LastWinner:  room.LastWinner,
		ReadyA:      room.Ready.A,
		ReadyB:      room.Ready.B,
		Version:     room.Version,
		Game:        room.Game,
	}
}

func toMoveResponse(room *entity.Room) MoveResponse {
	return MoveResponse{
		OK:          true,
		Board:       room.Board,
		CurrentTurn: room.Turn,
		Status:      room.Status,
		Winner:      room.Winner,
		Line:        winningLine(room),
		LastWinner:  room.LastWinner,
		Version:     room.Version,
		Game:        room.Game,
	}
}

func winningLine(room *entity.Room) []int {
	if !room.HasWinnerMark() {
		return nil
	}

	return room.Line[:]
}
