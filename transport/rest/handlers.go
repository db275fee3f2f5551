package rest

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/repository"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/tictactoe"
)

const (
	actionGameCreated  = "game:created"
	actionGameJoined   = "game:joined"
	actionGameTurn     = "game:turn"
	actionGameFinished = "game:finished"
)

type createGameRequest struct {
	PlayerA   string `json:"player1"`
	Stake     int64  `json:"bet_amount"`
	BoardSize int    `json:"board_size"`
	Type      string `json:"type"`
}

type joinGameRequest struct {
	PlayerB string `json:"player2"`
}

type makeMoveRequest struct {
	Player   string `json:"player"`
	Position int    `json:"position"`
}

type gameListItem struct {
	ID        string `json:"id"`
	PlayerA   string `json:"player1"`
	Stake     int64  `json:"bet_amount"`
	BoardSize int    `json:"board_size"`
	CreatedAt string `json:"created_at"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (that *Server) handlePing(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "pong")
}

func (that *Server) handleCreateGame(ctx echo.Context) error {
	var req createGameRequest
	if err := ctx.Bind(&req); err != nil {
		return that.respondError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if !ValidateWalletAddress(req.PlayerA) {
		return that.respondError(ctx, http.StatusBadRequest, "invalid wallet address")
	}

	if req.BoardSize == 0 {
		req.BoardSize = entity.BoardSize3x3
	}

	if req.Type == "" {
		req.Type = entity.PublicType
	}

	game, err := that.uGame.CreateGame(ctx.Request().Context(), req.PlayerA, req.Stake, req.BoardSize, req.Type)
	if err != nil {
		return that.respondAppError(ctx, err)
	}

	that.notifier.Broadcast(actionGameCreated, game)

	return ctx.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"game":    game,
		"message": "Game created successfully",
	})
}

func (that *Server) handleActiveGames(ctx echo.Context) error {
	games, err := that.uGame.GetWaitingGames(ctx.Request().Context())
	if err != nil {
		return that.respondAppError(ctx, err)
	}

	items := make([]gameListItem, 0, len(games))
	for _, game := range games {
		items = append(items, gameListItem{
			ID:        game.ID,
			PlayerA:   game.PlayerA,
			Stake:     game.Stake,
			BoardSize: game.Size,
			CreatedAt: game.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"games":   items,
	})
}

func (that *Server) handleGetGame(ctx echo.Context) error {
	id := ctx.Param("id")
	if !ValidateGameID(id) {
		return that.respondError(ctx, http.StatusBadRequest, "invalid game ID format")
	}

	game, err := that.uGame.GetGame(ctx.Request().Context(), id)
	if err != nil {
		return that.respondAppError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"game":    game,
	})
}

func (that *Server) handleJoinGame(ctx echo.Context) error {
	id := ctx.Param("id")
	if !ValidateGameID(id) {
		return that.respondError(ctx, http.StatusBadRequest, "invalid game ID format")
	}

	var req joinGameRequest
	if err := ctx.Bind(&req); err != nil {
		return that.respondError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if !ValidateWalletAddress(req.PlayerB) {
		return that.respondError(ctx, http.StatusBadRequest, "invalid wallet address")
	}

	game, err := that.uGame.JoinGame(ctx.Request().Context(), id, req.PlayerB)
	if err != nil {
		return that.respondAppError(ctx, err)
	}

	that.notifier.Broadcast(actionGameJoined, game)

	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"game":    game,
		"message": "Successfully joined game",
	})
}

func (that *Server) handleMakeMove(ctx echo.Context) error {
	id := ctx.Param("id")
	if !ValidateGameID(id) {
		return that.respondError(ctx, http.StatusBadRequest, "invalid game ID format")
	}

	var req makeMoveRequest
	if err := ctx.Bind(&req); err != nil {
		return that.respondError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if !ValidateWalletAddress(req.Player) {
		return that.respondError(ctx, http.StatusBadRequest, "invalid wallet address")
	}

	game, err := that.uGame.MakeTurn(ctx.Request().Context(), id, req.Player, req.Position)
	if err != nil {
		return that.respondAppError(ctx, err)
	}

	that.notifier.Broadcast(actionGameTurn, game)
	if game.IsFinished() {
		that.notifier.Broadcast(actionGameFinished, game)
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"game":    game,
	})
}

func (that *Server) handlePlayerHistory(ctx echo.Context) error {
	wallet := ctx.Param("wallet")
	if !ValidateWalletAddress(wallet) {
		return that.respondError(ctx, http.StatusBadRequest, "invalid wallet address")
	}

	games, stats, err := that.uGame.GetPlayerHistory(ctx.Request().Context(), wallet)
	if err != nil {
		return that.respondAppError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"games":   games,
		"stats":   stats,
	})
}

func (that *Server) handleTreasuryStats(ctx echo.Context) error {
	stats, err := that.uGame.GetTreasuryStats(ctx.Request().Context())
	if err != nil {
		return that.respondAppError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"treasury": stats,
	})
}

func (that *Server) handleTreasuryProjections(ctx echo.Context) error {
	projections, err := that.uGame.GetTreasuryProjections(ctx.Request().Context())
	if err != nil {
		return that.respondAppError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"projections": projections,
	})
}

// respondAppError maps domain failures onto HTTP statuses; anything
// unrecognized is a 500 with a generic message.
func (that *Server) respondAppError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrGameNotFound):
		return that.respondError(ctx, http.StatusNotFound, "game not found")
	case errors.Is(err, repository.ErrVersionConflict):
		return that.respondError(ctx, http.StatusConflict, "game was modified concurrently, retry")
	case errors.Is(err, apperror.ErrInvalidStake),
		errors.Is(err, apperror.ErrGameFull),
		errors.Is(err, apperror.ErrGameNotJoinable),
		errors.Is(err, apperror.ErrSelfJoin),
		errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrGameIsNotStarted),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrInvalidCell),
		errors.Is(err, tictactoe.ErrInvalidBoardSize):
		return that.respondError(ctx, http.StatusBadRequest, err.Error())
	default:
		that.logger.Error("request failed", "error", err)
		return that.respondError(ctx, http.StatusInternalServerError, "internal server error")
	}
}

func (that *Server) respondError(ctx echo.Context, status int, message string) error {
	return ctx.JSON(status, errorResponse{Success: false, Error: message})
}
