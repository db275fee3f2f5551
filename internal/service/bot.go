package service

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/tictactoe"
)

var (
	ErrNotABotGame      = errors.New("game has no bot player")
	ErrNoAvailableMoves = errors.New("no available moves")
)

type BotService interface {
	MakeTurn(game *entity.Game) error
}

type botService struct{}

func NewBotService() BotService {
	return &botService{}
}

// MakeTurn plays the synthetic opponent's move in a practice game. The bot
// always sits in the PlayerB seat.
func (that *botService) MakeTurn(game *entity.Game) error {
	if !game.IsWithBot() {
		return ErrNotABotGame
	}

	availableCells := make([]int, 0, len(game.Board))
	for i, cell := range game.Board {
		if cell == entity.EmptyCell {
			availableCells = append(availableCells, i)
		}
	}

	if len(availableCells) == 0 {
		return ErrNoAvailableMoves
	}

	chosenCell := availableCells[rand.Intn(len(availableCells))] //nolint: gosec // it's ok

	if err := tictactoe.MakeTurn(game, game.PlayerB, chosenCell); err != nil {
		return fmt.Errorf("bot failed to make turn: %w", err)
	}

	return nil
}
