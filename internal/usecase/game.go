package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/repository"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/settlement"
)

type GameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, wallet string) (*entity.Player, error)

	CreateGame(ctx context.Context, playerA string, stake int64, size int, gameType string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, wallet string) (*entity.Game, error)
	MakeTurn(ctx context.Context, gameID, wallet string, cell int) (*entity.Game, error)

	GetGame(ctx context.Context, id string) (*entity.Game, error)
	GetGameByPlayer(ctx context.Context, wallet string) (*entity.Game, error)
	GetWaitingGames(ctx context.Context) ([]*entity.Game, error)

	GetPlayerHistory(ctx context.Context, wallet string) ([]*repository.ArchivedGame, *repository.PlayerStats, error)
	GetTreasuryStats(ctx context.Context) (*TreasuryStats, error)
	GetTreasuryProjections(ctx context.Context) (*TreasuryProjections, error)
}

// TreasuryStats is the public view of the fee policy and what it has earned.
type TreasuryStats struct {
	Wallet             string `json:"wallet"`
	WinFeePercent      int64  `json:"win_fee_percent"`
	DrawFeePercent     int64  `json:"draw_fee_percent"`
	MinStakeForFees    int64  `json:"min_stake_for_fees"`
	TotalFeesCollected int64  `json:"total_fees_collected"`
}

// TreasuryProjections estimates fees from the currently joinable lobby.
type TreasuryProjections struct {
	WaitingGamesWithStakes int   `json:"waiting_games_with_stakes"`
	TotalPotentialPot      int64 `json:"total_potential_pot"`
	PotentialFeesIfAllWin  int64 `json:"potential_fees_if_all_win"`
	PotentialFeesIfAllDraw int64 `json:"potential_fees_if_all_draw"`
}

type playerService interface {
	GetOrCreatePlayer(ctx context.Context, wallet string) (*entity.Player, error)
	GetPlayerByWallet(ctx context.Context, wallet string) (*entity.Player, error)
}

type gameService interface {
	GetGameByID(ctx context.Context, id string) (*entity.Game, error)
	GetWaitingGames(ctx context.Context) ([]*entity.Game, error)
}

type gamePlayService interface {
	CreateGame(ctx context.Context, playerA string, stake int64, size int, gameType string) (*entity.Game, error)
	JoinGameByID(ctx context.Context, gameID, playerB string) (*entity.Game, error)
	MakeTurn(ctx context.Context, gameID, wallet string, cell int) (*entity.Game, error)
}

type archiveRepo interface {
	GetByID(ctx context.Context, id string) (*repository.ArchivedGame, error)
	GetPlayerGames(ctx context.Context, wallet string) ([]*repository.ArchivedGame, error)
	GetPlayerStats(ctx context.Context, wallet string) (*repository.PlayerStats, error)
	GetTotalFeesCollected(ctx context.Context) (int64, error)
}

type gameUseCase struct {
	playerService   playerService
	gameService     gameService
	gamePlayService gamePlayService
	archive         archiveRepo

	calculator *settlement.Calculator
	treasury   TreasuryStats
}

func NewGameUseCase(
	playerService playerService,
	gameService gameService,
	gamePlayService gamePlayService,
	archive archiveRepo,
	calculator *settlement.Calculator,
	treasury TreasuryStats,
) GameUseCase {
	return &gameUseCase{
		playerService:   playerService,
		gameService:     gameService,
		gamePlayService: gamePlayService,
		archive:         archive,
		calculator:      calculator,
		treasury:        treasury,
	}
}

func (that *gameUseCase) GetOrCreatePlayer(ctx context.Context, wallet string) (*entity.Player, error) {
	player, err := that.playerService.GetOrCreatePlayer(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("could not get or create player: %w", err)
	}

	return player, nil
}

func (that *gameUseCase) CreateGame(ctx context.Context, playerA string, stake int64, size int, gameType string) (*entity.Game, error) {
	game, err := that.gamePlayService.CreateGame(ctx, playerA, stake, size, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) JoinGame(ctx context.Context, gameID, wallet string) (*entity.Game, error) {
	game, err := that.gamePlayService.JoinGameByID(ctx, gameID, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to join game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) MakeTurn(ctx context.Context, gameID, wallet string, cell int) (*entity.Game, error) {
	game, err := that.gamePlayService.MakeTurn(ctx, gameID, wallet, cell)
	if err != nil {
		return nil, fmt.Errorf("failed to make turn: %w", err)
	}

	return game, nil
}

// GetGame looks in live storage first and falls back to the archive so
// completed matches stay fetchable by ID.
func (that *gameUseCase) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameService.GetGameByID(ctx, id)
	if err == nil {
		return game, nil
	}

	if !errors.Is(err, repository.ErrGameNotFound) {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	archived, err := that.archive.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get archived game: %w", err)
	}

	return archived.AsGame(), nil
}

func (that *gameUseCase) GetGameByPlayer(ctx context.Context, wallet string) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	if player.GameID == "" {
		return nil, repository.ErrGameNotFound
	}

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) GetWaitingGames(ctx context.Context) ([]*entity.Game, error) {
	games, err := that.gameService.GetWaitingGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get waiting games: %w", err)
	}

	return games, nil
}

func (that *gameUseCase) GetPlayerHistory(ctx context.Context, wallet string) ([]*repository.ArchivedGame, *repository.PlayerStats, error) {
	games, err := that.archive.GetPlayerGames(ctx, wallet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get player games: %w", err)
	}

	stats, err := that.archive.GetPlayerStats(ctx, wallet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get player stats: %w", err)
	}

	return games, stats, nil
}

func (that *gameUseCase) GetTreasuryStats(ctx context.Context) (*TreasuryStats, error) {
	total, err := that.archive.GetTotalFeesCollected(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get collected fees: %w", err)
	}

	stats := that.treasury
	stats.TotalFeesCollected = total

	return &stats, nil
}

func (that *gameUseCase) GetTreasuryProjections(ctx context.Context) (*TreasuryProjections, error) {
	games, err := that.gameService.GetWaitingGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get waiting games: %w", err)
	}

	projections := &TreasuryProjections{}
	for _, game := range games {
		if game.Stake == 0 {
			continue
		}

		projections.WaitingGamesWithStakes++
		projections.TotalPotentialPot += game.Stake * 2
		projections.PotentialFeesIfAllWin += that.calculator.Fee(game.Stake, settlement.OutcomeWin)
		projections.PotentialFeesIfAllDraw += that.calculator.Fee(game.Stake, settlement.OutcomeDraw)
	}

	return projections, nil
}
