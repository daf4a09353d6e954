// Package tictactoe holds the pure 3x3 board rules shared by the room server,
// the online client and the local play modes.
package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

type Mark string

const (
	Empty Mark = ""
	MarkA Mark = "A"
	MarkB Mark = "B"
)

const BoardSize = 9

// Board is indexed row by row, 0..8.
type Board [BoardSize]Mark

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeDraw
)

var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Result is the evaluation of a board. Mark and Line are set only for a win.
type Result struct {
	Outcome Outcome
	Mark    Mark
	Line    [3]int
}

func (that Result) IsTerminal() bool {
	return that.Outcome != OutcomeNone
}

func (that Mark) IsValid() bool {
	return that == MarkA || that == MarkB
}

// ParseMark accepts "A"/"B" in any case.
func ParseMark(raw string) (Mark, error) {
	switch raw {
	case "A", "a":
		return MarkA, nil
	case "B", "b":
		return MarkB, nil
	default:
		return Empty, fmt.Errorf("%w: %q", apperror.ErrInvalidMark, raw)
	}
}

func Opponent(mark Mark) Mark {
	if mark == MarkA {
		return MarkB
	}
	return MarkA
}

// ApplyMove returns a copy of board with mark placed at index.
func ApplyMove(board Board, index int, mark Mark) (Board, error) {
	if index < 0 || index >= BoardSize {
		return board, fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, index)
	}

	if !mark.IsValid() {
		return board, fmt.Errorf("%w: %q", apperror.ErrInvalidMark, mark)
	}

	if board[index] != Empty {
		return board, apperror.ErrCellOccupied
	}

	board[index] = mark

	return board, nil
}

// Evaluate checks win lines before fullness, so a full board with three in a row is a win.
func Evaluate(board Board) Result {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != Empty && a == b && b == c {
			return Result{Outcome: OutcomeWin, Mark: a, Line: combo}
		}
	}

	for _, cell := range board {
		if cell == Empty {
			return Result{Outcome: OutcomeNone}
		}
	}

	return Result{Outcome: OutcomeDraw}
}

func EmptyCells(board Board) []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range board {
		if cell == Empty {
			cells = append(cells, i)
		}
	}

	return cells
}
