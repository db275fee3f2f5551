package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameAlreadyExists = errors.New("game already exists")

	// ErrVersionConflict means another writer saved the game between this
	// writer's load and save; the caller must reload and revalidate.
	ErrVersionConflict = errors.New("game was modified concurrently")
)

const waitingGamesKey = "games:waiting"

type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	Update(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	GetWaitingGames(ctx context.Context) ([]*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func (that *dbGame) Create(ctx context.Context, game *entity.Game) error {
	game.Version = 1

	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	created, err := that.client.SetNX(ctx, gameKey(game.ID), gameJSON, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	if !created {
		return fmt.Errorf("%w: game id %s", ErrGameAlreadyExists, game.ID)
	}

	if game.IsWaiting() && game.IsPublic() {
		if err = that.client.SAdd(ctx, waitingGamesKey, game.ID).Err(); err != nil {
			return fmt.Errorf("failed to list game as waiting: %w", err)
		}
	}

	return nil
}

// Update saves the game only if nobody else saved it since it was loaded.
// The stored Version must still match the in-memory one; on success the
// version is bumped atomically with the write.
func (that *dbGame) Update(ctx context.Context, game *entity.Game) error {
	key := gameKey(game.ID)
	nextVersion := game.Version + 1

	txf := func(tx *redis.Tx) error {
		stored, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrGameNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get game: %w", err)
		}

		var current entity.Game
		if err = json.Unmarshal([]byte(stored), &current); err != nil {
			return fmt.Errorf("failed to unmarshal game: %w", err)
		}

		if current.Version != game.Version {
			return ErrVersionConflict
		}

		next := *game
		next.Version = nextVersion

		gameJSON, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("could not marshal game: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, gameJSON, 0)
			if !next.IsWaiting() {
				pipe.SRem(ctx, waitingGamesKey, next.ID)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to save game: %w", err)
		}

		return nil
	}

	err := that.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}

	game.Version = nextVersion

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return &entity.Game{}, ErrGameNotFound
	}

	if err != nil {
		return &entity.Game{}, fmt.Errorf("failed to get game by ID: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal([]byte(response), &existingGame); err != nil {
		return &entity.Game{}, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

// GetWaitingGames lists the joinable public lobby. Stale entries left by
// deleted games are pruned on the way.
func (that *dbGame) GetWaitingGames(ctx context.Context) ([]*entity.Game, error) {
	ids, err := that.client.SMembers(ctx, waitingGamesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting games: %w", err)
	}

	games := make([]*entity.Game, 0, len(ids))
	for _, id := range ids {
		game, err := that.GetByID(ctx, id)
		if errors.Is(err, ErrGameNotFound) {
			_ = that.client.SRem(ctx, waitingGamesKey, id).Err()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load waiting game %s: %w", id, err)
		}

		if game.IsWaiting() {
			games = append(games, game)
		}
	}

	return games, nil
}

func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, gameKey(id))
		pipe.SRem(ctx, waitingGamesKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete game by ID: %w", err)
	}

	return nil
}

func gameKey(id string) string {
	return "game:" + id
}
