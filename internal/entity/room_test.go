package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

const (
	a = tictactoe.MarkA
	b = tictactoe.MarkB
	e = tictactoe.Empty
)

func activeRoom(t *testing.T) *Room {
	t.Helper()

	room := NewRoom("ABC123", now)
	mark, err := room.Join(now)
	require.NoError(t, err)
	require.Equal(t, b, mark)

	return room
}

func play(t *testing.T, room *Room, moves ...int) {
	t.Helper()

	for _, index := range moves {
		require.NoError(t, room.Move(room.Turn, index, now))
	}
}

func TestNewRoom(t *testing.T) {
	// When: a room is created
	room := NewRoom("ABC123", now)

	// Then: the creator holds A and the room waits for a second player
	assert.Equal(t, "ABC123", room.Code)
	assert.Equal(t, StatusWaiting, room.Status)
	assert.Equal(t, a, room.Turn)
	assert.Equal(t, Flags{A: true}, room.Participants)
	assert.Equal(t, tictactoe.Board{}, room.Board)
	assert.Equal(t, 1, room.Game)
	assert.Equal(t, int64(1), room.Version)
}

func TestRoom_Join(t *testing.T) {
	t.Run("Joiner becomes B and the game starts with A", func(t *testing.T) {
		// Given: a waiting room
		room := NewRoom("ABC123", now)

		// When: a second participant joins
		mark, err := room.Join(now)

		// Then: they play B, the room is active and A moves first
		require.NoError(t, err)
		assert.Equal(t, b, mark)
		assert.Equal(t, StatusActive, room.Status)
		assert.Equal(t, a, room.Turn)
		assert.Equal(t, Flags{A: true, B: true}, room.Participants)
		assert.Equal(t, int64(2), room.Version)
	})

	t.Run("Third participant gets ErrRoomFull", func(t *testing.T) {
		room := activeRoom(t)
		before := *room

		_, err := room.Join(now)

		require.ErrorIs(t, err, apperror.ErrRoomFull)
		assert.Equal(t, before, *room)
	})

	t.Run("Closed room cannot be joined", func(t *testing.T) {
		room := activeRoom(t)
		require.NoError(t, room.Leave(b, now))
		before := *room

		_, err := room.Join(now)

		require.ErrorIs(t, err, apperror.ErrRoomNotActive)
		assert.Equal(t, before, *room)
	})
}

func TestRoom_Move(t *testing.T) {
	t.Run("Turn alternates after every accepted move", func(t *testing.T) {
		room := activeRoom(t)

		for _, index := range []int{4, 0, 8, 2} {
			mover := room.Turn
			require.NoError(t, room.Move(mover, index, now))
			assert.Equal(t, tictactoe.Opponent(mover), room.Turn)
		}
		assert.Equal(t, tictactoe.Board{b, e, b, e, a, e, e, e, a}, room.Board)
	})

	t.Run("Wrong mark is rejected without mutation", func(t *testing.T) {
		room := activeRoom(t)
		before := *room

		err := room.Move(b, 0, now)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, before, *room)
	})

	t.Run("Occupied cell is rejected without mutation", func(t *testing.T) {
		room := activeRoom(t)
		play(t, room, 0)
		before := *room

		err := room.Move(b, 0, now)

		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, before, *room)
	})

	t.Run("Move in a waiting room gets ErrRoomNotActive", func(t *testing.T) {
		room := NewRoom("ABC123", now)

		err := room.Move(a, 0, now)

		require.ErrorIs(t, err, apperror.ErrRoomNotActive)
		assert.Equal(t, int64(1), room.Version)
	})

	t.Run("Invalid index and mark", func(t *testing.T) {
		room := activeRoom(t)

		require.ErrorIs(t, room.Move(a, 9, now), apperror.ErrInvalidCell)
		require.ErrorIs(t, room.Move(a, -1, now), apperror.ErrInvalidCell)
		require.ErrorIs(t, room.Move("X", 0, now), apperror.ErrInvalidMark)
		assert.Equal(t, int64(2), room.Version)
	})

	t.Run("Winning move finishes the game atomically", func(t *testing.T) {
		// Given: A: 0, B: 4, A: 1, B: 3
		room := activeRoom(t)
		play(t, room, 0, 4, 1, 3)

		// When: A completes the top row
		require.NoError(t, room.Move(a, 2, now))

		// Then: finished, A wins on 0,1,2, turn stays with the winner
		assert.Equal(t, StatusFinished, room.Status)
		assert.Equal(t, a, room.Winner)
		assert.Equal(t, [3]int{0, 1, 2}, room.Line)
		assert.True(t, room.HasWinnerMark())

		// And: the game is over for both marks
		require.ErrorIs(t, room.Move(b, 5, now), apperror.ErrRoomNotActive)
	})

	t.Run("Last empty cell without a line is a draw", func(t *testing.T) {
		room := activeRoom(t)
		// ends as A,B,A / A,B,B / B,A,A
		play(t, room, 0, 4, 2, 1, 7, 5, 3, 6, 8)

		assert.Equal(t, StatusFinished, room.Status)
		assert.Equal(t, Draw, room.Winner)
		assert.False(t, room.HasWinnerMark())
	})
}

func TestRoom_Rematch(t *testing.T) {
	won := func(t *testing.T) *Room {
		t.Helper()
		room := activeRoom(t)
		play(t, room, 0, 4, 1, 3, 2)
		require.Equal(t, a, room.Winner)
		return room
	}

	t.Run("Loser cannot start a rematch", func(t *testing.T) {
		room := won(t)
		before := *room

		err := room.Rematch(b, b, now)

		require.ErrorIs(t, err, apperror.ErrNotPermitted)
		assert.Equal(t, before, *room)
	})

	t.Run("Winner starts a fresh game in the same room", func(t *testing.T) {
		room := won(t)
		room.Ready.Set(b, true)

		err := room.Rematch(a, a, now)

		require.NoError(t, err)
		assert.Equal(t, StatusActive, room.Status)
		assert.Equal(t, tictactoe.Board{}, room.Board)
		assert.Equal(t, a, room.Turn)
		assert.Equal(t, e, room.Winner)
		assert.Equal(t, Flags{}, room.Ready)
		assert.Equal(t, 2, room.Game)
		assert.Equal(t, a, room.LastWinner)
		assert.Equal(t, "ABC123", room.Code)
	})

	t.Run("Start mark defaults to the previous winner", func(t *testing.T) {
		room := activeRoom(t)
		// B wins on the middle column
		play(t, room, 0, 1, 2, 4, 5, 7)
		require.Equal(t, b, room.Winner)

		require.NoError(t, room.Rematch(b, e, now))

		assert.Equal(t, b, room.Turn)
	})

	t.Run("Either side may restart after a draw, A opens by default", func(t *testing.T) {
		room := activeRoom(t)
		play(t, room, 0, 4, 2, 1, 7, 5, 3, 6, 8)
		require.Equal(t, Draw, room.Winner)

		require.NoError(t, room.Rematch(b, e, now))

		assert.Equal(t, a, room.Turn)
		assert.Equal(t, StatusActive, room.Status)
	})

	t.Run("No rematch while the game is running", func(t *testing.T) {
		room := activeRoom(t)

		require.ErrorIs(t, room.Rematch(a, a, now), apperror.ErrNotPermitted)
	})
}

func TestRoom_Ready(t *testing.T) {
	room := activeRoom(t)
	play(t, room, 0, 4, 1, 3, 2)
	version := room.Version

	t.Run("Winner cannot send ready", func(t *testing.T) {
		require.ErrorIs(t, room.MarkReady(a, now), apperror.ErrNotPermitted)
		assert.Equal(t, version, room.Version)
	})

	t.Run("Loser ready is recorded without changing status", func(t *testing.T) {
		require.NoError(t, room.MarkReady(b, now))

		assert.True(t, room.Ready.B)
		assert.Equal(t, StatusFinished, room.Status)
		assert.Equal(t, version+1, room.Version)
	})

	t.Run("Repeated ready is accepted without a new version", func(t *testing.T) {
		require.NoError(t, room.MarkReady(b, now))

		assert.Equal(t, version+1, room.Version)
	})
}

func TestRoom_Leave(t *testing.T) {
	t.Run("Leaving an active room closes it", func(t *testing.T) {
		room := activeRoom(t)

		require.NoError(t, room.Leave(a, now))

		assert.Equal(t, StatusClosed, room.Status)
		assert.Equal(t, Flags{B: true}, room.Participants)
		assert.False(t, room.IsEmpty())
	})

	t.Run("Second departure empties the room", func(t *testing.T) {
		room := activeRoom(t)
		require.NoError(t, room.Leave(a, now))

		require.NoError(t, room.Leave(b, now))

		assert.True(t, room.IsEmpty())
	})

	t.Run("Leaving twice is not permitted", func(t *testing.T) {
		room := activeRoom(t)
		require.NoError(t, room.Leave(a, now))
		before := *room

		require.ErrorIs(t, room.Leave(a, now), apperror.ErrNotPermitted)
		assert.Equal(t, before, *room)
	})
}
