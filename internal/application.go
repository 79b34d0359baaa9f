package application

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository/storage"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
	"github.com/rocketscienceinc/gomoku-backend/transport/rest"
	"github.com/rocketscienceinc/gomoku-backend/transport/websocket"
)

// RunApp - runs the application until ctx is canceled, SIGINT/SIGTERM arrives or a server fails.
func RunApp(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limits := usecase.Limits{
		DefaultBoardSize: conf.Game.DefaultBoardSize,
		MaxBoardSize:     conf.Game.MaxBoardSize,
		RemoveEmpty:      true,
	}

	var opts []usecase.Option

	if conf.Redis.Enabled {
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		gameRepo := repository.NewGameRepository(redisStorage.Connection, conf.Redis.SnapshotTTL)
		opts = append(opts, usecase.WithSnapshots(gameRepo))

		log.Info("mirroring game snapshots to redis", "addr", conf.Redis.GetRedisAddr(), "ttl", conf.Redis.SnapshotTTL)
	}

	gameUseCase := usecase.NewGameUseCase(logger, usecase.NewGameManager(), limits, opts...)

	restServer := rest.New(logger, gameUseCase, conf.CORS)
	wsServer := websocket.New(logger, gameUseCase, conf.CORS)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if err := restServer.Start(groupCtx, conf.HTTPPort); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if err := wsServer.Start(groupCtx, conf.SocketPort); err != nil {
			return fmt.Errorf("WebSocket server error: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("Application context canceled, shutting down")
		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}

	return nil
}
