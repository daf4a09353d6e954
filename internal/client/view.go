package client

import (
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/rest"
)

// View is the participant's local copy of the room, replaced wholesale by server state.
type View struct {
	Board  tictactoe.Board
	Turn   tictactoe.Mark
	Status string
	Winner tictactoe.Mark
	Line   []int
	// LastWinner is the result of game Game-1, set once a rematch has started.
	LastWinner tictactoe.Mark
	ReadyA     bool
	ReadyB     bool
	Version    int64
	Game       int
}

// CanMove reports whether mark may send a move from this view.
func (that View) CanMove(mark tictactoe.Mark) bool {
	return that.Status == entity.StatusActive && that.Turn == mark
}

func (that View) ReadyOf(mark tictactoe.Mark) bool {
	if mark == tictactoe.MarkB {
		return that.ReadyB
	}
	return that.ReadyA
}

func (that View) IsDraw() bool {
	return that.Winner == entity.Draw
}

// Score counts finished games from one participant's side.
type Score struct {
	Wins   int
	Losses int
	Draws  int
}

func (that *Score) record(winner, mark tictactoe.Mark) {
	switch winner {
	case mark:
		that.Wins++
	case entity.Draw:
		that.Draws++
	default:
		that.Losses++
	}
}

func viewFromState(state rest.RoomStateResponse) View {
	return View{
		Board:      state.Board,
		Turn:       state.CurrentTurn,
		Status:     state.Status,
		Winner:     state.Winner,
		Line:       state.Line,
		LastWinner: state.LastWinner,
		ReadyA:     state.ReadyA,
		ReadyB:     state.ReadyB,
		Version:    state.Version,
		Game:       state.Game,
	}
}

// viewFromMove carries no ready flags; a move is only accepted while both are clear.
func viewFromMove(resp rest.MoveResponse) View {
	return View{
		Board:      resp.Board,
		Turn:       resp.CurrentTurn,
		Status:     resp.Status,
		Winner:     resp.Winner,
		Line:       resp.Line,
		LastWinner: resp.LastWinner,
		Version:    resp.Version,
		Game:       resp.Game,
	}
}
