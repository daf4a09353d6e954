package bot

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Normal Difficulty = "normal"
	Hard   Difficulty = "hard"
)

const winScore = 10

// smartChance is the share of moves taken from minimax; the rest are random legal cells.
var smartChance = map[Difficulty]float64{
	Easy:   0.60,
	Normal: 0.80,
	Hard:   0.90,
}

func ParseDifficulty(raw string) (Difficulty, error) {
	level := Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := smartChance[level]; !ok {
		return "", fmt.Errorf("unknown difficulty %q", raw)
	}

	return level, nil
}

type BotService interface {
	Suggest(board tictactoe.Board, mark tictactoe.Mark) (int, error)
}

type botService struct {
	difficulty Difficulty

	float func() float64
	intn  func(n int) int
}

func NewBotService(difficulty Difficulty) BotService {
	if _, ok := smartChance[difficulty]; !ok {
		difficulty = Easy
	}

	return &botService{
		difficulty: difficulty,
		float:      rand.Float64, //nolint: gosec // it's ok
		intn:       rand.Intn,    //nolint: gosec // it's ok
	}
}

// Suggest picks a cell for mark on a board that is not yet decided.
func (that *botService) Suggest(board tictactoe.Board, mark tictactoe.Mark) (int, error) {
	if !mark.IsValid() {
		return 0, fmt.Errorf("%w: %q", apperror.ErrInvalidMark, mark)
	}

	availableCells := tictactoe.EmptyCells(board)
	if len(availableCells) == 0 || tictactoe.Evaluate(board).IsTerminal() {
		return 0, apperror.ErrNoAvailableMove
	}

	if that.float() < smartChance[that.difficulty] {
		return bestMove(board, mark), nil
	}

	return availableCells[that.intn(len(availableCells))], nil
}

func bestMove(board tictactoe.Board, mark tictactoe.Mark) int {
	best, bestScore := -1, math.MinInt

	for _, cell := range tictactoe.EmptyCells(board) {
		board[cell] = mark
		score := -negamax(board, tictactoe.Opponent(mark))
		board[cell] = tictactoe.Empty

		if score > bestScore {
			best, bestScore = cell, score
		}
	}

	return best
}

// negamax scores board from the side of toMove. Faster wins score higher.
func negamax(board tictactoe.Board, toMove tictactoe.Mark) int {
	switch result := tictactoe.Evaluate(board); result.Outcome {
	case tictactoe.OutcomeWin:
		depth := len(tictactoe.EmptyCells(board))
		if result.Mark == toMove {
			return winScore + depth
		}
		return -winScore - depth
	case tictactoe.OutcomeDraw:
		return 0
	}

	best := math.MinInt

	for _, cell := range tictactoe.EmptyCells(board) {
		board[cell] = toMove
		score := -negamax(board, tictactoe.Opponent(toMove))
		board[cell] = tictactoe.Empty

		if score > best {
			best = score
		}
	}

	return best
}
