package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// roomEntry guards one aggregate. Lock order is entry, then the map.
type roomEntry struct {
	mu       sync.Mutex
	room     entity.Room
	lastSeen time.Time
	deleted  bool
}

// MemoryRooms keeps rooms for the lifetime of the process. The map lock only
// guards lookup; every room is serialized by its own mutex.
type MemoryRooms struct {
	logger *slog.Logger

	mu    sync.RWMutex
	rooms map[string]*roomEntry

	now func() time.Time
}

func NewMemoryRooms(logger *slog.Logger) *MemoryRooms {
	return &MemoryRooms{
		logger: logger.With("component", "memory-rooms"),
		rooms:  make(map[string]*roomEntry),
		now:    time.Now,
	}
}

func (that *MemoryRooms) Create(_ context.Context, room *entity.Room) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.rooms[room.Code]; ok {
		return fmt.Errorf("%w: %s", apperror.ErrRoomExists, room.Code)
	}

	that.rooms[room.Code] = &roomEntry{
		room:     *room,
		lastSeen: that.now(),
	}

	return nil
}

func (that *MemoryRooms) GetByCode(_ context.Context, code string) (*entity.Room, error) {
	entry, ok := that.lookup(code)
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.deleted {
		return nil, apperror.ErrRoomNotFound
	}

	entry.lastSeen = that.now()
	snapshot := entry.room

	return &snapshot, nil
}

func (that *MemoryRooms) Update(_ context.Context, code string, mutate MutateFunc) (*entity.Room, error) {
	entry, ok := that.lookup(code)
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.deleted {
		return nil, apperror.ErrRoomNotFound
	}

	entry.lastSeen = that.now()

	working := entry.room
	if err := mutate(&working); err != nil {
		return nil, err
	}

	if working.Version == entry.room.Version {
		return &working, nil
	}

	entry.room = working

	if working.IsEmpty() {
		that.remove(code, entry)
	}

	snapshot := working

	return &snapshot, nil
}

func (that *MemoryRooms) DeleteByCode(_ context.Context, code string) error {
	entry, ok := that.lookup(code)
	if !ok {
		return apperror.ErrRoomNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.deleted {
		return apperror.ErrRoomNotFound
	}

	that.remove(code, entry)

	return nil
}

// Len - number of live rooms.
func (that *MemoryRooms) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}

// Sweep deletes rooms with no poll or write for longer than idle and returns how many went away.
func (that *MemoryRooms) Sweep(idle time.Duration) int {
	that.mu.RLock()
	candidates := make(map[string]*roomEntry, len(that.rooms))
	for code, entry := range that.rooms {
		candidates[code] = entry
	}
	that.mu.RUnlock()

	cutoff := that.now().Add(-idle)
	removed := 0

	for code, entry := range candidates {
		entry.mu.Lock()
		if !entry.deleted && entry.lastSeen.Before(cutoff) {
			that.remove(code, entry)
			removed++
		}
		entry.mu.Unlock()
	}

	return removed
}

// RunJanitor sweeps idle rooms every interval until ctx is done.
func (that *MemoryRooms) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	log := that.logger.With("method", "RunJanitor")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("janitor stopped")
			return
		case <-ticker.C:
			if removed := that.Sweep(idle); removed > 0 {
				log.Info("idle rooms removed", "count", removed)
			}
		}
	}
}

func (that *MemoryRooms) lookup(code string) (*roomEntry, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	entry, ok := that.rooms[code]
	return entry, ok
}

// remove must be called with entry.mu held.
func (that *MemoryRooms) remove(code string, entry *roomEntry) {
	entry.deleted = true

	that.mu.Lock()
	if that.rooms[code] == entry {
		delete(that.rooms, code)
	}
	that.mu.Unlock()
}
