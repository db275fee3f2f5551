package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/settlement"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/tictactoe"
)

type GamePlayService interface {
	CreateGame(ctx context.Context, playerA string, stake int64, size int, gameType string) (*entity.Game, error)
	JoinGameByID(ctx context.Context, gameID, playerB string) (*entity.Game, error)
	MakeTurn(ctx context.Context, gameID, wallet string, cell int) (*entity.Game, error)
}

type gamePlayArchive interface {
	SaveCompletedGame(ctx context.Context, game *entity.Game, result settlement.Result) error
}

type gamePlayService struct {
	logger *slog.Logger

	playerService PlayerService
	gameService   GameService
	botService    BotService

	calculator *settlement.Calculator
	payout     PayoutService
	archive    gamePlayArchive
}

func NewGamePlayService(
	logger *slog.Logger,
	playerService PlayerService,
	gameService GameService,
	botService BotService,
	calculator *settlement.Calculator,
	payout PayoutService,
	archive gamePlayArchive,
) GamePlayService {
	return &gamePlayService{
		logger:        logger,
		playerService: playerService,
		gameService:   gameService,
		botService:    botService,
		calculator:    calculator,
		payout:        payout,
		archive:       archive,
	}
}

// CreateGame opens a new match for playerA. Practice games get a synthetic
// opponent seated immediately and must be stake free.
func (that *gamePlayService) CreateGame(ctx context.Context, playerA string, stake int64, size int, gameType string) (*entity.Game, error) {
	if gameType == entity.WithBotType && stake != 0 {
		return nil, fmt.Errorf("%w: practice games cannot carry a stake", apperror.ErrInvalidStake)
	}

	game, err := that.gameService.CreateGame(ctx, playerA, stake, size, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	player, err := that.playerService.GetOrCreatePlayer(ctx, playerA)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create player: %w", err)
	}

	player.GameID = game.ID
	if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	if game.IsWithBot() {
		bot := entity.NewBotPlayer(game.ID)
		if err = tictactoe.JoinGame(game, bot.Wallet); err != nil {
			return nil, fmt.Errorf("failed to seat bot: %w", err)
		}

		if err = that.gameService.UpdateGame(ctx, game); err != nil {
			return nil, fmt.Errorf("failed to update game with bot: %w", err)
		}
	}

	return game, nil
}

// JoinGameByID seats the second player. Rejoining a game the wallet already
// sits in is a no-op so clients can reconnect safely.
func (that *gamePlayService) JoinGameByID(ctx context.Context, gameID, playerB string) (*entity.Game, error) {
	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if game.PlayerB == playerB && playerB != "" {
		return game, nil
	}

	if err = tictactoe.JoinGame(game, playerB); err != nil {
		return nil, err
	}

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	player, err := that.playerService.GetOrCreatePlayer(ctx, playerB)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create player: %w", err)
	}

	player.GameID = game.ID
	if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	return game, nil
}

// MakeTurn applies one move. In practice games the bot answers within the
// same update. A finished match is settled, archived and removed from live
// storage before the snapshot is returned.
func (that *gamePlayService) MakeTurn(ctx context.Context, gameID, wallet string, cell int) (*entity.Game, error) {
	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if err = tictactoe.MakeTurn(game, wallet, cell); err != nil {
		return nil, err
	}

	if !game.IsFinished() && game.IsWithBot() {
		if err = that.botService.MakeTurn(game); err != nil {
			return nil, fmt.Errorf("bot failed to make turn: %w", err)
		}
	}

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	if game.IsFinished() {
		if err = that.finishGame(ctx, game); err != nil {
			return nil, fmt.Errorf("failed to finish game: %w", err)
		}
	}

	return game, nil
}

// finishGame settles and archives a completed match, then cleans up live
// state. Payout dispatch failures are logged, not returned: the dispatcher
// owns failure reporting and the ledger already records what was sent.
func (that *gamePlayService) finishGame(ctx context.Context, game *entity.Game) error {
	log := that.logger.With("method", "finishGame", "gameID", game.ID)

	outcome := settlement.OutcomeWin
	if game.Winner == entity.PlayerTie {
		outcome = settlement.OutcomeDraw
	}

	result := that.calculator.Payouts(game.Stake, outcome)

	if err := that.archive.SaveCompletedGame(ctx, game, result); err != nil {
		return fmt.Errorf("failed to archive game: %w", err)
	}

	if err := that.payout.Dispatch(ctx, game, result); err != nil {
		log.Error("failed to dispatch payouts", "error", err)
	}

	that.cleanupGame(ctx, game)

	log.Info("game finished", "winner", game.Winner, "stake", game.Stake, "fee", result.Fee)

	return nil
}

func (that *gamePlayService) cleanupGame(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "cleanupGame", "gameID", game.ID)

	if err := that.gameService.DeleteGame(ctx, game.ID); err != nil {
		log.Error("failed to delete game", "error", err)
	}

	for _, wallet := range []string{game.PlayerA, game.PlayerB} {
		if wallet == "" {
			continue
		}

		player, err := that.playerService.GetPlayerByWallet(ctx, wallet)
		if err != nil {
			continue
		}

		if player.GameID != game.ID {
			continue
		}

		player.GameID = ""
		if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
			log.Error("failed to update player", "wallet", wallet, "error", err)
		}
	}
}
