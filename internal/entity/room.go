package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

const (
	StatusWaiting  = "waiting_for_second_player"
	StatusActive   = "active"
	StatusFinished = "finished"
	StatusClosed   = "closed"

	// Draw shares the winner field with the two marks.
	Draw tictactoe.Mark = "draw"

	// DefaultStartMark opens the first game and every rematch after a draw.
	DefaultStartMark = tictactoe.MarkA
)

// Flags is a per-mark boolean pair.
type Flags struct {
	A bool `json:"A"`
	B bool `json:"B"`
}

func (that Flags) Get(mark tictactoe.Mark) bool {
	if mark == tictactoe.MarkB {
		return that.B
	}
	return that.A
}

func (that *Flags) Set(mark tictactoe.Mark, value bool) {
	if mark == tictactoe.MarkB {
		that.B = value
		return
	}
	that.A = value
}

func (that Flags) Count() int {
	count := 0
	if that.A {
		count++
	}
	if that.B {
		count++
	}
	return count
}

// Room is the authoritative aggregate of one room. It is a plain value, so a copy is a snapshot.
type Room struct {
	Code         string          `json:"code"`
	Board        tictactoe.Board `json:"board"`
	Turn         tictactoe.Mark  `json:"turn"`
	Status       string          `json:"status"`
	Participants Flags           `json:"participants"`
	Winner       tictactoe.Mark  `json:"winner,omitempty"`
	Line         [3]int          `json:"line"`
	LastWinner   tictactoe.Mark  `json:"last_winner,omitempty"`
	Ready        Flags           `json:"ready"`
	Version      int64           `json:"version"`
	Game         int             `json:"game"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewRoom creates a room held by its creator, who plays A.
func NewRoom(code string, now time.Time) *Room {
	room := &Room{
		Code:      code,
		Turn:      DefaultStartMark,
		Status:    StatusWaiting,
		Game:      1,
		CreatedAt: now,
	}
	room.Participants.Set(tictactoe.MarkA, true)
	room.bump(now)

	return room
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Room) IsActive() bool {
	return that.Status == StatusActive
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Room) IsClosed() bool {
	return that.Status == StatusClosed
}

// IsEmpty reports a room nobody holds anymore; the store deletes such rooms.
func (that *Room) IsEmpty() bool {
	return that.Participants.Count() == 0
}

// HasWinnerMark is true only for a finished game won by A or B.
func (that *Room) HasWinnerMark() bool {
	return that.IsFinished() && that.Winner.IsValid()
}

func (that *Room) ConfirmActive() error {
	switch that.Status {
	case StatusActive:
		return nil
	case StatusWaiting, StatusFinished, StatusClosed:
		return fmt.Errorf("%w: status %s", apperror.ErrRoomNotActive, that.Status)
	default:
		return fmt.Errorf("%w: %s", apperror.ErrUnknownStatus, that.Status)
	}
}

// Join seats the second participant as B and starts the game.
func (that *Room) Join(now time.Time) (tictactoe.Mark, error) {
	if that.Participants.Count() >= 2 {
		return tictactoe.Empty, apperror.ErrRoomFull
	}

	if !that.IsWaiting() {
		return tictactoe.Empty, fmt.Errorf("%w: status %s", apperror.ErrRoomNotActive, that.Status)
	}

	that.Participants.Set(tictactoe.MarkB, true)
	that.Status = StatusActive
	that.Turn = DefaultStartMark
	that.bump(now)

	return tictactoe.MarkB, nil
}

// Move applies one move. Winner and finished status are set in the same step.
func (that *Room) Move(mark tictactoe.Mark, index int, now time.Time) error {
	if err := that.ConfirmActive(); err != nil {
		return err
	}

	if !mark.IsValid() {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidMark, mark)
	}

	if index < 0 || index >= tictactoe.BoardSize {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, index)
	}

	if that.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	board, err := tictactoe.ApplyMove(that.Board, index, mark)
	if err != nil {
		return err
	}

	that.Board = board

	switch result := tictactoe.Evaluate(board); result.Outcome {
	case tictactoe.OutcomeWin:
		that.Winner = result.Mark
		that.Line = result.Line
		that.Status = StatusFinished
	case tictactoe.OutcomeDraw:
		that.Winner = Draw
		that.Status = StatusFinished
	default:
		that.Turn = tictactoe.Opponent(mark)
	}

	that.bump(now)

	return nil
}

// NextStartMark is who opens the next game: the winner, or A after a draw.
func (that *Room) NextStartMark() tictactoe.Mark {
	if that.Winner.IsValid() {
		return that.Winner
	}
	return DefaultStartMark
}

// Rematch starts a new game in the same room. Only the winner may ask, or either side after a draw.
func (that *Room) Rematch(mark, startMark tictactoe.Mark, now time.Time) error {
	if !mark.IsValid() {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidMark, mark)
	}

	if !that.IsFinished() {
		return fmt.Errorf("%w: rematch while %s", apperror.ErrNotPermitted, that.Status)
	}

	if that.Winner != Draw && that.Winner != mark {
		return fmt.Errorf("%w: only %s may start the rematch", apperror.ErrNotPermitted, that.Winner)
	}

	if startMark == tictactoe.Empty {
		startMark = that.NextStartMark()
	}

	if !startMark.IsValid() {
		return fmt.Errorf("%w: start mark %q", apperror.ErrInvalidMark, startMark)
	}

	that.LastWinner = that.Winner
	that.Board = tictactoe.Board{}
	that.Winner = tictactoe.Empty
	that.Line = [3]int{}
	that.Ready = Flags{}
	that.Turn = startMark
	that.Status = StatusActive
	that.Game++
	that.bump(now)

	return nil
}

// MarkReady records that the losing side is prepared for a rematch. It never starts a game.
func (that *Room) MarkReady(mark tictactoe.Mark, now time.Time) error {
	if !mark.IsValid() {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidMark, mark)
	}

	if !that.IsFinished() {
		return fmt.Errorf("%w: ready while %s", apperror.ErrNotPermitted, that.Status)
	}

	if that.Winner == mark {
		return fmt.Errorf("%w: the winner starts the rematch", apperror.ErrNotPermitted)
	}

	if that.Ready.Get(mark) {
		return nil
	}

	that.Ready.Set(mark, true)
	that.bump(now)

	return nil
}

// Leave removes a participant for good. The room is closed and cannot be joined again.
func (that *Room) Leave(mark tictactoe.Mark, now time.Time) error {
	if !mark.IsValid() {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidMark, mark)
	}

	if !that.Participants.Get(mark) {
		return fmt.Errorf("%w: %s already left", apperror.ErrNotPermitted, mark)
	}

	that.Participants.Set(mark, false)
	that.Status = StatusClosed
	that.bump(now)

	return nil
}

func (that *Room) bump(now time.Time) {
	that.Version++
	that.UpdatedAt = now
}
