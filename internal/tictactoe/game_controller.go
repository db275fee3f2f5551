package tictactoe

import (
	"errors"
	"fmt"
	"math"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
)

var ErrInvalidBoardSize = errors.New("unsupported board size")

// MaxStake caps the stake so pot and fee arithmetic stay within int64 for
// any fee percent up to 100.
const MaxStake = math.MaxInt64 / 200

// CreateGame builds a new waiting match for playerA. The stake is held in the
// smallest currency unit and is immutable afterwards.
func CreateGame(id, playerA string, stake int64, size int, gameType string) (*entity.Game, error) {
	if stake < 0 || stake > MaxStake {
		return nil, fmt.Errorf("%w: %d", apperror.ErrInvalidStake, stake)
	}

	if size != entity.BoardSize3x3 && size != entity.BoardSize4x4 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBoardSize, size)
	}

	return entity.NewGame(id, playerA, stake, size, gameType), nil
}

// JoinGame seats playerB and starts the match.
func JoinGame(gameInstance *entity.Game, playerB string) error {
	if gameInstance.IsFinished() {
		return apperror.ErrGameNotJoinable
	}

	if gameInstance.PlayerB != "" {
		return apperror.ErrGameFull
	}

	if !gameInstance.IsWaiting() {
		return apperror.ErrGameNotJoinable
	}

	if gameInstance.PlayerA == playerB {
		return apperror.ErrSelfJoin
	}

	gameInstance.PlayerB = playerB
	gameInstance.Status = entity.StatusOngoing
	gameInstance.Touch()

	return nil
}

// MakeTurn validates and applies one move for the given wallet. On a terminal
// move it marks the game finished and records the winner; otherwise the turn
// passes to the other player.
func MakeTurn(gameInstance *entity.Game, wallet string, cell int) error {
	if gameInstance.IsFinished() {
		return apperror.ErrGameFinished
	}

	if err := validateMove(gameInstance, wallet, cell); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	gameInstance.Board[cell] = gameInstance.Turn
	updateGameStatus(gameInstance)
	gameInstance.Touch()

	return nil
}

// validateMove - checks if the move is valid.
func validateMove(gameInstance *entity.Game, wallet string, cell int) error {
	if !gameInstance.IsOngoing() || gameInstance.PlayerB == "" {
		return apperror.ErrGameIsNotStarted
	}

	if cell < 0 || cell >= len(gameInstance.Board) {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidCell, cell)
	}

	if gameInstance.MarkOf(wallet) != gameInstance.Turn {
		return apperror.ErrNotYourTurn
	}

	if gameInstance.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

// updateGameStatus - checks the game status after a move.
func updateGameStatus(gameInstance *entity.Game) {
	switch winner := gameInstance.DetermineGameResult(); winner {
	case entity.PlayerX, entity.PlayerO:
		gameInstance.Winner = winner
		gameInstance.Status = entity.StatusFinished
		gameInstance.Turn = ""
	case entity.PlayerTie:
		gameInstance.Winner = entity.PlayerTie
		gameInstance.Status = entity.StatusFinished
		gameInstance.Turn = ""
	default:
		gameInstance.Turn = toggleMark(gameInstance.Turn)
	}
}

func toggleMark(currentMark string) string {
	if currentMark == entity.PlayerX {
		return entity.PlayerO
	}
	return entity.PlayerX
}
