package service

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/tictactoe"
)

type GameService interface {
	CreateGame(ctx context.Context, playerA string, stake int64, size int, gameType string) (*entity.Game, error)
	UpdateGame(ctx context.Context, game *entity.Game) error
	DeleteGame(ctx context.Context, gameID string) error

	GetGameByID(ctx context.Context, id string) (*entity.Game, error)
	GetWaitingGames(ctx context.Context) ([]*entity.Game, error)
}

type gameRepo interface {
	Create(ctx context.Context, game *entity.Game) error
	Update(ctx context.Context, game *entity.Game) error

	GetByID(ctx context.Context, id string) (*entity.Game, error)
	GetWaitingGames(ctx context.Context) ([]*entity.Game, error)

	DeleteByID(ctx context.Context, id string) error
}

type gameService struct {
	gameRepo gameRepo
}

func NewGameService(gameRepo gameRepo) GameService {
	return &gameService{
		gameRepo: gameRepo,
	}
}

func (that *gameService) CreateGame(ctx context.Context, playerA string, stake int64, size int, gameType string) (*entity.Game, error) {
	game, err := tictactoe.CreateGame(pkg.GenerateGameID(), playerA, stake, size, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to build game: %w", err)
	}

	if err = that.gameRepo.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game in storage: %w", err)
	}

	return game, nil
}

func (that *gameService) GetGameByID(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve game from storage: %w", err)
	}
	return game, nil
}

func (that *gameService) GetWaitingGames(ctx context.Context) ([]*entity.Game, error) {
	games, err := that.gameRepo.GetWaitingGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve waiting games from storage: %w", err)
	}
	return games, nil
}

func (that *gameService) UpdateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.Update(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	return nil
}

func (that *gameService) DeleteGame(ctx context.Context, gameID string) error {
	if err := that.gameRepo.DeleteByID(ctx, gameID); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return nil
}
