package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-rooms/testing/suite"
)

const (
	a = tictactoe.MarkA
	b = tictactoe.MarkB
	e = tictactoe.Empty
)

func newService(t *testing.T) (*roomService, *repository.MemoryRooms) {
	t.Helper()

	repo := repository.NewMemoryRooms(suite.NewLogger())
	svc, ok := NewRoomService(suite.NewLogger(), repo, 6).(*roomService)
	require.True(t, ok)

	return svc, repo
}

func startedRoom(ctx context.Context, t *testing.T, svc RoomService) string {
	t.Helper()

	room, mark, err := svc.CreateRoom(ctx)
	require.NoError(t, err)
	require.Equal(t, a, mark)

	_, mark, err = svc.JoinRoom(ctx, room.Code)
	require.NoError(t, err)
	require.Equal(t, b, mark)

	return room.Code
}

func TestRoomService_CreateRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Creator plays A and the room waits", func(t *testing.T) {
		svc, repo := newService(t)

		room, mark, err := svc.CreateRoom(ctx)

		require.NoError(t, err)
		assert.Equal(t, a, mark)
		assert.Len(t, room.Code, 6)
		assert.Equal(t, entity.StatusWaiting, room.Status)
		assert.Equal(t, 1, repo.Len())
	})

	t.Run("Code collision draws a new code", func(t *testing.T) {
		svc, repo := newService(t)
		require.NoError(t, repo.Create(ctx, entity.NewRoom("TAKEN0", time.Now())))

		codes := []string{"TAKEN0", "FRESH1"}
		svc.newCode = func(int) (string, error) {
			code := codes[0]
			codes = codes[1:]
			return code, nil
		}

		room, _, err := svc.CreateRoom(ctx)

		require.NoError(t, err)
		assert.Equal(t, "FRESH1", room.Code)
	})

	t.Run("Gives up when every code is taken", func(t *testing.T) {
		svc, repo := newService(t)
		require.NoError(t, repo.Create(ctx, entity.NewRoom("TAKEN0", time.Now())))
		svc.newCode = func(int) (string, error) { return "TAKEN0", nil }

		_, _, err := svc.CreateRoom(ctx)

		require.ErrorIs(t, err, apperror.ErrRoomExists)
	})

	t.Run("Generator failure is returned", func(t *testing.T) {
		svc, _ := newService(t)
		boom := errors.New("entropy exhausted")
		svc.newCode = func(int) (string, error) { return "", boom }

		_, _, err := svc.CreateRoom(ctx)

		require.ErrorIs(t, err, boom)
	})
}

func TestRoomService_JoinRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Code is matched case-insensitively", func(t *testing.T) {
		svc, _ := newService(t)
		svc.newCode = func(int) (string, error) { return "ABC123", nil }
		_, _, err := svc.CreateRoom(ctx)
		require.NoError(t, err)

		room, mark, err := svc.JoinRoom(ctx, "  abc123 ")

		require.NoError(t, err)
		assert.Equal(t, b, mark)
		assert.Equal(t, entity.StatusActive, room.Status)
	})

	t.Run("Third participant is refused", func(t *testing.T) {
		svc, _ := newService(t)
		code := startedRoom(ctx, t, svc)

		_, _, err := svc.JoinRoom(ctx, code)

		require.ErrorIs(t, err, apperror.ErrRoomFull)
	})

	t.Run("Unknown code", func(t *testing.T) {
		svc, _ := newService(t)

		_, _, err := svc.JoinRoom(ctx, "NOPE00")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestRoomService_FullRound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	// Given: A created a room and B joined
	code := startedRoom(ctx, t, svc)

	// When: A: 0, B: 4, A: 1, B: 3, A: 2
	var room *entity.Room
	var err error
	for i, index := range []int{0, 4, 1, 3, 2} {
		mark := a
		if i%2 == 1 {
			mark = b
		}
		room, err = svc.MakeMove(ctx, code, mark, index)
		require.NoError(t, err)
	}

	// Then: A wins on the top row and a poll agrees
	assert.Equal(t, entity.StatusFinished, room.Status)
	assert.Equal(t, a, room.Winner)
	assert.Equal(t, [3]int{0, 1, 2}, room.Line)

	polled, err := svc.GetRoom(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, room.Version, polled.Version)
	assert.Equal(t, tictactoe.Board{a, a, a, b, b, e, e, e, e}, polled.Board)

	// And: B is ready, but only A may start the rematch
	_, err = svc.Ready(ctx, code, b)
	require.NoError(t, err)

	_, err = svc.Rematch(ctx, code, b, e)
	require.ErrorIs(t, err, apperror.ErrNotPermitted)

	room, err = svc.Rematch(ctx, code, a, e)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, room.Status)
	assert.Equal(t, tictactoe.Board{}, room.Board)
	assert.Equal(t, a, room.Turn)
	assert.Equal(t, 2, room.Game)
	assert.Equal(t, entity.Flags{}, room.Ready)

	// And: B leaves, the room closes for A
	_, err = svc.Leave(ctx, code, b)
	require.NoError(t, err)

	polled, err = svc.GetRoom(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusClosed, polled.Status)
}

func TestRoomService_MakeMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Rejected move leaves the version unchanged", func(t *testing.T) {
		svc, _ := newService(t)
		code := startedRoom(ctx, t, svc)
		before, err := svc.GetRoom(ctx, code)
		require.NoError(t, err)

		_, err = svc.MakeMove(ctx, code, b, 0)
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)

		after, err := svc.GetRoom(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, before.Version, after.Version)
		assert.Equal(t, before.Board, after.Board)
	})

	t.Run("Repeated move for a filled cell", func(t *testing.T) {
		svc, _ := newService(t)
		code := startedRoom(ctx, t, svc)
		_, err := svc.MakeMove(ctx, code, a, 4)
		require.NoError(t, err)

		_, err = svc.MakeMove(ctx, code, b, 4)

		require.ErrorIs(t, err, apperror.ErrCellOccupied)
	})

	t.Run("Concurrent moves for the same cell", func(t *testing.T) {
		svc, _ := newService(t)
		code := startedRoom(ctx, t, svc)

		var wg sync.WaitGroup
		results := make([]error, 2)

		for i, mark := range []tictactoe.Mark{a, b} {
			wg.Add(1)
			go func(i int, mark tictactoe.Mark) {
				defer wg.Done()
				_, results[i] = svc.MakeMove(ctx, code, mark, 4)
			}(i, mark)
		}
		wg.Wait()

		require.NoError(t, results[0])
		require.Error(t, results[1])

		room, err := svc.GetRoom(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, a, room.Board[4])
		assert.Equal(t, b, room.Turn)
	})
}

func TestRoomService_Rematch(t *testing.T) {
	ctx := context.Background()

	t.Run("Closed room reports closed without an error", func(t *testing.T) {
		svc, _ := newService(t)
		code := startedRoom(ctx, t, svc)
		_, err := svc.Leave(ctx, code, b)
		require.NoError(t, err)

		room, err := svc.Rematch(ctx, code, a, e)

		require.NoError(t, err)
		assert.Equal(t, entity.StatusClosed, room.Status)
	})

	t.Run("Explicit start mark", func(t *testing.T) {
		svc, _ := newService(t)
		code := startedRoom(ctx, t, svc)
		for i, index := range []int{0, 4, 1, 3, 2} {
			mark := a
			if i%2 == 1 {
				mark = b
			}
			_, err := svc.MakeMove(ctx, code, mark, index)
			require.NoError(t, err)
		}

		room, err := svc.Rematch(ctx, code, a, b)

		require.NoError(t, err)
		assert.Equal(t, b, room.Turn)
	})
}

func TestRoomService_Leave(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	code := startedRoom(ctx, t, svc)

	// When: both participants leave
	_, err := svc.Leave(ctx, code, a)
	require.NoError(t, err)
	room, err := svc.Leave(ctx, code, b)
	require.NoError(t, err)

	// Then: the room is gone
	assert.True(t, room.IsEmpty())
	assert.Equal(t, 0, repo.Len())

	_, err = svc.GetRoom(ctx, code)
	require.ErrorIs(t, err, apperror.ErrRoomNotFound)
}
