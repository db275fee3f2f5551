package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/repository"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/usecase"
)

type uGame interface {
	CreateGame(ctx context.Context, playerA string, stake int64, size int, gameType string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, wallet string) (*entity.Game, error)
	MakeTurn(ctx context.Context, gameID, wallet string, cell int) (*entity.Game, error)

	GetGame(ctx context.Context, id string) (*entity.Game, error)
	GetWaitingGames(ctx context.Context) ([]*entity.Game, error)

	GetPlayerHistory(ctx context.Context, wallet string) ([]*repository.ArchivedGame, *repository.PlayerStats, error)
	GetTreasuryStats(ctx context.Context) (*usecase.TreasuryStats, error)
	GetTreasuryProjections(ctx context.Context) (*usecase.TreasuryProjections, error)
}

// notifier fans match snapshots out to subscribed WebSocket clients.
type notifier interface {
	Broadcast(action string, game *entity.Game)
}

type Server struct {
	logger   *slog.Logger
	uGame    uGame
	notifier notifier

	echo *echo.Echo
}

func New(logger *slog.Logger, uGame uGame, notifier notifier) *Server {
	server := &Server{
		logger:   logger,
		uGame:    uGame,
		notifier: notifier,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/ping", server.handlePing)

	api := e.Group("/api")
	api.POST("/games", server.handleCreateGame)
	api.GET("/games/active", server.handleActiveGames)
	api.GET("/games/:id", server.handleGetGame)
	api.POST("/games/:id/join", server.handleJoinGame)
	api.POST("/games/:id/move", server.handleMakeMove)
	api.GET("/players/:wallet", server.handlePlayerHistory)
	api.GET("/treasury/stats", server.handleTreasuryStats)
	api.GET("/treasury/projections", server.handleTreasuryProjections)

	server.echo = e

	return server
}

// Start - starts the REST server and shuts it down when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := that.echo.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down REST server", "error", err)
		}
	}()

	if err := that.echo.Start(":" + port); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
