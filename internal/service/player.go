package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/repository"
)

type PlayerService interface {
	GetOrCreatePlayer(ctx context.Context, wallet string) (*entity.Player, error)
	GetPlayerByWallet(ctx context.Context, wallet string) (*entity.Player, error)
	UpdatePlayer(ctx context.Context, player *entity.Player) error
}

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByWallet(ctx context.Context, wallet string) (*entity.Player, error)
}

type playerService struct {
	playerRepo playerRepo
}

func NewPlayerService(playerRepo playerRepo) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
	}
}

func (that *playerService) GetOrCreatePlayer(ctx context.Context, wallet string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByWallet(ctx, wallet)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		player = &entity.Player{Wallet: wallet}
		if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
			return nil, fmt.Errorf("failed to create player: %w", err)
		}

		return player, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get player by wallet: %w", err)
	}

	return player, nil
}

func (that *playerService) GetPlayerByWallet(ctx context.Context, wallet string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by wallet: %w", err)
	}

	return player, nil
}

func (that *playerService) UpdatePlayer(ctx context.Context, player *entity.Player) error {
	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}
