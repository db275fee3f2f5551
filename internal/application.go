package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/config"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/repository"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/service"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/settlement"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-wager-backend/transport/rest"
	"github.com/rocketscienceinc/tictactoe-wager-backend/transport/websocket"
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

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	playerRepo := repository.NewPlayerRepository(redisStorage)
	gameRepo := repository.NewGameRepository(redisStorage)

	archiveRepo := repository.NewArchiveRepository(sqliteStorage.Connection)
	if err = archiveRepo.Init(ctx); err != nil {
		return fmt.Errorf("could not init archive storage: %w", err)
	}

	calculator := settlement.NewCalculator(settlement.Config{
		WinFeePercent:   conf.Treasury.WinFeePercent,
		DrawFeePercent:  conf.Treasury.DrawFeePercent,
		MinStakeForFees: conf.Treasury.MinStakeForFees,
	})

	playerService := service.NewPlayerService(playerRepo)
	gameService := service.NewGameService(gameRepo)
	botService := service.NewBotService()

	transferer := service.NewLoggingTransferer(logger)
	payoutService := service.NewPayoutService(logger, conf.Treasury.Wallet, transferer, archiveRepo)

	gamePlayService := service.NewGamePlayService(logger, playerService, gameService, botService, calculator, payoutService, archiveRepo)

	gameUseCase := usecase.NewGameUseCase(playerService, gameService, gamePlayService, archiveRepo, calculator, usecase.TreasuryStats{
		Wallet:          conf.Treasury.Wallet,
		WinFeePercent:   conf.Treasury.WinFeePercent,
		DrawFeePercent:  conf.Treasury.DrawFeePercent,
		MinStakeForFees: conf.Treasury.MinStakeForFees,
	})

	wsServer := websocket.New(logger, gameUseCase)
	restServer := rest.New(logger, gameUseCase, wsServer)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
