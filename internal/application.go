package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/service"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/rest"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	roomRepo, closeStore, err := initRoomStore(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer closeStore()

	roomService := service.NewRoomService(logger, roomRepo, conf.Room.CodeLength)

	if conf.GinMode != "" {
		gin.SetMode(conf.GinMode)
	}
	router := rest.NewRouter(logger, rest.NewRoomHandler(logger, roomService))

	log.Info("Starting HTTP server", "port", conf.HTTPPort, "store", conf.Store)
	if err = rest.Start(ctx, conf.HTTPPort, router); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

func initRoomStore(ctx context.Context, logger *slog.Logger, conf *config.Config) (repository.RoomRepository, func(), error) {
	log := logger.With("component", "app")

	if conf.Store == config.StoreMemory {
		rooms := repository.NewMemoryRooms(logger)
		go rooms.RunJanitor(ctx, conf.Room.SweepInterval, conf.Room.IdleTimeout)

		return rooms, func() {}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString, conf.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeStore := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewRoomRepository(redisStorage, conf.Room.IdleTimeout), closeStore, nil
}
