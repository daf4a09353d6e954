package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

// maxCodeAttempts bounds retries on room code collisions.
const maxCodeAttempts = 8

type RoomService interface {
	CreateRoom(ctx context.Context) (*entity.Room, tictactoe.Mark, error)
	JoinRoom(ctx context.Context, code string) (*entity.Room, tictactoe.Mark, error)
	GetRoom(ctx context.Context, code string) (*entity.Room, error)

	MakeMove(ctx context.Context, code string, mark tictactoe.Mark, index int) (*entity.Room, error)
	Rematch(ctx context.Context, code string, mark, startMark tictactoe.Mark) (*entity.Room, error)
	Ready(ctx context.Context, code string, mark tictactoe.Mark) (*entity.Room, error)
	Leave(ctx context.Context, code string, mark tictactoe.Mark) (*entity.Room, error)
}

type roomRepo interface {
	Create(ctx context.Context, room *entity.Room) error
	GetByCode(ctx context.Context, code string) (*entity.Room, error)
	Update(ctx context.Context, code string, mutate repository.MutateFunc) (*entity.Room, error)
}

type roomService struct {
	logger *slog.Logger

	roomRepo   roomRepo
	codeLength int

	now     func() time.Time
	newCode func(length int) (string, error)
}

func NewRoomService(logger *slog.Logger, roomRepo roomRepo, codeLength int) RoomService {
	return &roomService{
		logger:     logger.With("component", "room-service"),
		roomRepo:   roomRepo,
		codeLength: codeLength,
		now:        time.Now,
		newCode:    pkg.GenerateRoomCode,
	}
}

func (that *roomService) CreateRoom(ctx context.Context) (*entity.Room, tictactoe.Mark, error) {
	log := that.logger.With("method", "CreateRoom")

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := that.newCode(that.codeLength)
		if err != nil {
			return nil, tictactoe.Empty, fmt.Errorf("error generating room code: %w", err)
		}

		room := entity.NewRoom(code, that.now())

		err = that.roomRepo.Create(ctx, room)
		if errors.Is(err, apperror.ErrRoomExists) {
			log.Warn("room code collision", "code", code, "attempt", attempt)
			continue
		}

		if err != nil {
			return nil, tictactoe.Empty, fmt.Errorf("failed to create room in storage: %w", err)
		}

		log.Info("room created", "code", code)

		return room, tictactoe.MarkA, nil
	}

	return nil, tictactoe.Empty, fmt.Errorf("%w: no free code after %d attempts", apperror.ErrRoomExists, maxCodeAttempts)
}

func (that *roomService) JoinRoom(ctx context.Context, code string) (*entity.Room, tictactoe.Mark, error) {
	code = pkg.NormalizeRoomCode(code)

	var mark tictactoe.Mark

	room, err := that.roomRepo.Update(ctx, code, func(room *entity.Room) error {
		joined, err := room.Join(that.now())
		if err != nil {
			return err
		}

		mark = joined
		return nil
	})
	if err != nil {
		return nil, tictactoe.Empty, fmt.Errorf("failed to join room %s: %w", code, err)
	}

	that.logger.Info("participant joined", "code", code, "mark", mark)

	return room, mark, nil
}

func (that *roomService) GetRoom(ctx context.Context, code string) (*entity.Room, error) {
	code = pkg.NormalizeRoomCode(code)

	room, err := that.roomRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve room %s: %w", code, err)
	}

	return room, nil
}

func (that *roomService) MakeMove(ctx context.Context, code string, mark tictactoe.Mark, index int) (*entity.Room, error) {
	code = pkg.NormalizeRoomCode(code)

	room, err := that.roomRepo.Update(ctx, code, func(room *entity.Room) error {
		return room.Move(mark, index, that.now())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to make move in room %s: %w", code, err)
	}

	if room.IsFinished() {
		that.logger.Info("game finished", "code", code, "game", room.Game, "winner", room.Winner)
	}

	return room, nil
}

// Rematch on a closed room is not an error: the closed snapshot tells the caller the opponent is gone.
func (that *roomService) Rematch(ctx context.Context, code string, mark, startMark tictactoe.Mark) (*entity.Room, error) {
	code = pkg.NormalizeRoomCode(code)

	room, err := that.roomRepo.Update(ctx, code, func(room *entity.Room) error {
		if room.IsClosed() {
			return nil
		}

		return room.Rematch(mark, startMark, that.now())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start rematch in room %s: %w", code, err)
	}

	if room.IsActive() {
		that.logger.Info("rematch started", "code", code, "game", room.Game, "turn", room.Turn)
	}

	return room, nil
}

func (that *roomService) Ready(ctx context.Context, code string, mark tictactoe.Mark) (*entity.Room, error) {
	code = pkg.NormalizeRoomCode(code)

	room, err := that.roomRepo.Update(ctx, code, func(room *entity.Room) error {
		return room.MarkReady(mark, that.now())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark ready in room %s: %w", code, err)
	}

	return room, nil
}

func (that *roomService) Leave(ctx context.Context, code string, mark tictactoe.Mark) (*entity.Room, error) {
	code = pkg.NormalizeRoomCode(code)

	room, err := that.roomRepo.Update(ctx, code, func(room *entity.Room) error {
		return room.Leave(mark, that.now())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to leave room %s: %w", code, err)
	}

	if room.IsEmpty() {
		that.logger.Info("room deleted", "code", code)
	} else {
		that.logger.Info("participant left", "code", code, "mark", mark)
	}

	return room, nil
}
