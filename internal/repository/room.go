package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	roomKeyPrefix = "room:"

	// maxTxRetries bounds optimistic retries when two writers race on one room key.
	maxTxRetries = 16
)

// MutateFunc changes a room in place. Returning an error discards every change.
type MutateFunc func(room *entity.Room) error

// RoomRepository owns the room aggregates. Update is serialized per room code and
// writes back only when the room version moved; a room left empty is deleted.
type RoomRepository interface {
	Create(ctx context.Context, room *entity.Room) error
	GetByCode(ctx context.Context, code string) (*entity.Room, error)
	Update(ctx context.Context, code string, mutate MutateFunc) (*entity.Room, error)
	DeleteByCode(ctx context.Context, code string) error
}

type dbRoom struct {
	client  *redis.Client
	idleTTL time.Duration
}

// NewRoomRepository - Redis backed rooms. Every read and write refreshes the key TTL,
// so idle rooms expire by themselves.
func NewRoomRepository(client *redis.Client, idleTTL time.Duration) RoomRepository {
	return &dbRoom{
		client:  client,
		idleTTL: idleTTL,
	}
}

func (that *dbRoom) Create(ctx context.Context, room *entity.Room) error {
	roomJSON, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("could not marshal room: %w", err)
	}

	created, err := that.client.SetNX(ctx, roomKey(room.Code), roomJSON, that.idleTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	if !created {
		return fmt.Errorf("%w: %s", apperror.ErrRoomExists, room.Code)
	}

	return nil
}

func (that *dbRoom) GetByCode(ctx context.Context, code string) (*entity.Room, error) {
	response, err := that.client.GetEx(ctx, roomKey(code), that.idleTTL).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room by code: %w", err)
	}

	return decodeRoom(response)
}

func (that *dbRoom) Update(ctx context.Context, code string, mutate MutateFunc) (*entity.Room, error) {
	key := roomKey(code)

	for range maxTxRetries {
		var result *entity.Room

		err := that.client.Watch(ctx, func(tx *redis.Tx) error {
			response, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return apperror.ErrRoomNotFound
			}

			if err != nil {
				return fmt.Errorf("failed to get room: %w", err)
			}

			room, err := decodeRoom(response)
			if err != nil {
				return err
			}

			version := room.Version
			if err = mutate(room); err != nil {
				return err
			}

			result = room
			if room.Version == version {
				return nil
			}

			roomJSON, err := json.Marshal(room)
			if err != nil {
				return fmt.Errorf("could not marshal room: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if room.IsEmpty() {
					pipe.Del(ctx, key)
					return nil
				}

				pipe.Set(ctx, key, roomJSON, that.idleTTL)
				return nil
			})

			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		if err != nil {
			return nil, err
		}

		return result, nil
	}

	return nil, fmt.Errorf("failed to update room %s: too many concurrent writers", code)
}

func (that *dbRoom) DeleteByCode(ctx context.Context, code string) error {
	deleted, err := that.client.Del(ctx, roomKey(code)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete room by code: %w", err)
	}

	if deleted == 0 {
		return apperror.ErrRoomNotFound
	}

	return nil
}

func roomKey(code string) string {
	return roomKeyPrefix + code
}

func decodeRoom(data []byte) (*entity.Room, error) {
	var room entity.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &room, nil
}
