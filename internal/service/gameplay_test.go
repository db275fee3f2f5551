package service

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/repository"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGameRepo keeps games in a map and mimics live storage behavior,
// including the version bump on update.
type fakeGameRepo struct {
	games map[string]*entity.Game
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{games: make(map[string]*entity.Game)}
}

func (that *fakeGameRepo) Create(_ context.Context, game *entity.Game) error {
	if _, ok := that.games[game.ID]; ok {
		return repository.ErrGameAlreadyExists
	}
	game.Version = 1
	copied := *game
	that.games[game.ID] = &copied
	return nil
}

func (that *fakeGameRepo) Update(_ context.Context, game *entity.Game) error {
	stored, ok := that.games[game.ID]
	if !ok {
		return repository.ErrGameNotFound
	}
	if stored.Version != game.Version {
		return repository.ErrVersionConflict
	}
	game.Version++
	copied := *game
	that.games[game.ID] = &copied
	return nil
}

func (that *fakeGameRepo) GetByID(_ context.Context, id string) (*entity.Game, error) {
	stored, ok := that.games[id]
	if !ok {
		return &entity.Game{}, repository.ErrGameNotFound
	}
	copied := *stored
	return &copied, nil
}

func (that *fakeGameRepo) GetWaitingGames(_ context.Context) ([]*entity.Game, error) {
	var games []*entity.Game
	for _, game := range that.games {
		if game.IsWaiting() && game.IsPublic() {
			copied := *game
			games = append(games, &copied)
		}
	}
	return games, nil
}

func (that *fakeGameRepo) DeleteByID(_ context.Context, id string) error {
	delete(that.games, id)
	return nil
}

type fakePlayerRepo struct {
	players map[string]*entity.Player
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: make(map[string]*entity.Player)}
}

func (that *fakePlayerRepo) CreateOrUpdate(_ context.Context, player *entity.Player) error {
	copied := *player
	that.players[player.Wallet] = &copied
	return nil
}

func (that *fakePlayerRepo) GetByWallet(_ context.Context, wallet string) (*entity.Player, error) {
	stored, ok := that.players[wallet]
	if !ok {
		return &entity.Player{}, repository.ErrPlayerNotFound
	}
	copied := *stored
	return &copied, nil
}

// fakeArchive records what was archived and which payouts were written.
type fakeArchive struct {
	saved   []*entity.Game
	results []settlement.Result
	payouts []*repository.PayoutRecord
}

func (that *fakeArchive) SaveCompletedGame(_ context.Context, game *entity.Game, result settlement.Result) error {
	copied := *game
	that.saved = append(that.saved, &copied)
	that.results = append(that.results, result)
	return nil
}

func (that *fakeArchive) SavePayout(_ context.Context, record *repository.PayoutRecord) error {
	that.payouts = append(that.payouts, record)
	return nil
}

type fakeTransferer struct {
	transfers []string
}

func (that *fakeTransferer) Transfer(_ context.Context, recipient string, _ int64) (string, error) {
	that.transfers = append(that.transfers, recipient)
	return "tx-" + recipient, nil
}

type gamePlayFixture struct {
	gamePlay GamePlayService
	gameRepo *fakeGameRepo
	players  *fakePlayerRepo
	archive  *fakeArchive
	treasury *fakeTransferer
}

func newGamePlayFixture(t *testing.T) *gamePlayFixture {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	gameRepo := newFakeGameRepo()
	playerRepo := newFakePlayerRepo()
	archive := &fakeArchive{}
	transferer := &fakeTransferer{}

	calculator := settlement.NewCalculator(settlement.Config{
		WinFeePercent:   3,
		DrawFeePercent:  1,
		MinStakeForFees: 100,
	})

	payout := NewPayoutService(logger, "treasury-wallet", transferer, archive)

	return &gamePlayFixture{
		gamePlay: NewGamePlayService(
			logger,
			NewPlayerService(playerRepo),
			NewGameService(gameRepo),
			NewBotService(),
			calculator,
			payout,
			archive,
		),
		gameRepo: gameRepo,
		players:  playerRepo,
		archive:  archive,
		treasury: transferer,
	}
}

func TestGamePlayService_CreateGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates a waiting game and binds the creator", func(t *testing.T) {
		// Given: an empty lobby
		fixture := newGamePlayFixture(t)

		// When: a staked public game is created
		game, err := fixture.gamePlay.CreateGame(ctx, "walletA", 500, entity.BoardSize3x3, entity.PublicType)

		// Then: the game waits for an opponent and the creator points at it
		require.NoError(t, err)
		require.Equal(t, entity.StatusWaiting, game.Status)

		player, err := fixture.players.GetByWallet(ctx, "walletA")
		require.NoError(t, err)
		assert.Equal(t, game.ID, player.GameID)
	})

	t.Run("Practice game seats the bot immediately", func(t *testing.T) {
		// Given: an empty lobby
		fixture := newGamePlayFixture(t)

		// When: a practice game is created
		game, err := fixture.gamePlay.CreateGame(ctx, "walletA", 0, entity.BoardSize3x3, entity.WithBotType)

		// Then: the bot takes the second seat and the game starts
		require.NoError(t, err)
		require.Equal(t, entity.StatusOngoing, game.Status)
		assert.Equal(t, "bot:"+game.ID, game.PlayerB)
	})

	t.Run("Practice game with a stake is rejected", func(t *testing.T) {
		// Given: an empty lobby
		fixture := newGamePlayFixture(t)

		// When: a practice game is created with a stake
		_, err := fixture.gamePlay.CreateGame(ctx, "walletA", 500, entity.BoardSize3x3, entity.WithBotType)

		// Then: an error ErrInvalidStake must be returned
		require.ErrorIs(t, err, apperror.ErrInvalidStake)
	})
}

func TestGamePlayService_JoinGameByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Join starts the game", func(t *testing.T) {
		// Given: a waiting game
		fixture := newGamePlayFixture(t)
		game, err := fixture.gamePlay.CreateGame(ctx, "walletA", 500, entity.BoardSize3x3, entity.PublicType)
		require.NoError(t, err)

		// When: a second wallet joins
		joined, err := fixture.gamePlay.JoinGameByID(ctx, game.ID, "walletB")

		// Then: the game is ongoing with both seats taken
		require.NoError(t, err)
		require.Equal(t, entity.StatusOngoing, joined.Status)
		require.Equal(t, "walletB", joined.PlayerB)

		player, err := fixture.players.GetByWallet(ctx, "walletB")
		require.NoError(t, err)
		assert.Equal(t, game.ID, player.GameID)
	})

	t.Run("Rejoin by the seated player is a no-op", func(t *testing.T) {
		// Given: a started game
		fixture := newGamePlayFixture(t)
		game, err := fixture.gamePlay.CreateGame(ctx, "walletA", 0, entity.BoardSize3x3, entity.PublicType)
		require.NoError(t, err)
		_, err = fixture.gamePlay.JoinGameByID(ctx, game.ID, "walletB")
		require.NoError(t, err)

		// When: the same wallet joins again
		rejoined, err := fixture.gamePlay.JoinGameByID(ctx, game.ID, "walletB")

		// Then: the game is returned unchanged
		require.NoError(t, err)
		assert.Equal(t, "walletB", rejoined.PlayerB)
		assert.Equal(t, entity.StatusOngoing, rejoined.Status)
	})

	t.Run("Third wallet cannot join", func(t *testing.T) {
		// Given: a started game
		fixture := newGamePlayFixture(t)
		game, err := fixture.gamePlay.CreateGame(ctx, "walletA", 0, entity.BoardSize3x3, entity.PublicType)
		require.NoError(t, err)
		_, err = fixture.gamePlay.JoinGameByID(ctx, game.ID, "walletB")
		require.NoError(t, err)

		// When: a third wallet tries to join
		_, err = fixture.gamePlay.JoinGameByID(ctx, game.ID, "walletC")

		// Then: an error ErrGameFull must be returned
		require.ErrorIs(t, err, apperror.ErrGameFull)
	})
}

func TestGamePlayService_MakeTurn(t *testing.T) {
	ctx := context.Background()

	startGame := func(t *testing.T, fixture *gamePlayFixture, stake int64) *entity.Game {
		t.Helper()

		game, err := fixture.gamePlay.CreateGame(ctx, "walletA", stake, entity.BoardSize3x3, entity.PublicType)
		require.NoError(t, err)
		_, err = fixture.gamePlay.JoinGameByID(ctx, game.ID, "walletB")
		require.NoError(t, err)

		return game
	}

	t.Run("Turn passes to the opponent", func(t *testing.T) {
		// Given: a started game
		fixture := newGamePlayFixture(t)
		game := startGame(t, fixture, 0)

		// When: player A makes the opening move
		updated, err := fixture.gamePlay.MakeTurn(ctx, game.ID, "walletA", 0)

		// Then: the cell holds X and O is to move
		require.NoError(t, err)
		require.Equal(t, entity.PlayerX, updated.Board[0])
		require.Equal(t, entity.PlayerO, updated.Turn)
	})

	t.Run("Winning move settles and archives the game", func(t *testing.T) {
		// Given: a started game with a stake
		fixture := newGamePlayFixture(t)
		game := startGame(t, fixture, 1_000_000_000)

		// When: the players trade moves until A wins
		for _, turn := range []struct {
			wallet string
			cell   int
		}{
			{"walletA", 0}, {"walletB", 3}, {"walletA", 1}, {"walletB", 4}, {"walletA", 2},
		} {
			_, err := fixture.gamePlay.MakeTurn(ctx, game.ID, turn.wallet, turn.cell)
			require.NoError(t, err)
		}

		// Then: the match is archived with its settlement
		require.Len(t, fixture.archive.saved, 1)
		require.Equal(t, entity.PlayerX, fixture.archive.saved[0].Winner)
		require.Equal(t, int64(60_000_000), fixture.archive.results[0].Fee)
		require.Equal(t, int64(1_940_000_000), fixture.archive.results[0].WinnerPayout)

		// Then: the fee and the winner payout were transferred in order
		require.Equal(t, []string{"treasury-wallet", "walletA"}, fixture.treasury.transfers)
		require.Len(t, fixture.archive.payouts, 2)

		// Then: live state is cleaned up
		_, err := fixture.gameRepo.GetByID(ctx, game.ID)
		require.ErrorIs(t, err, repository.ErrGameNotFound)

		player, err := fixture.players.GetByWallet(ctx, "walletA")
		require.NoError(t, err)
		assert.Empty(t, player.GameID)
	})

	t.Run("Draw refunds both players", func(t *testing.T) {
		// Given: a started game with a stake
		fixture := newGamePlayFixture(t)
		game := startGame(t, fixture, 1_000_000_000)

		// When: the players fill the board without a line
		for _, turn := range []struct {
			wallet string
			cell   int
		}{
			{"walletA", 0}, {"walletB", 1}, {"walletA", 2}, {"walletB", 4},
			{"walletA", 3}, {"walletB", 6}, {"walletA", 5}, {"walletB", 8}, {"walletA", 7},
		} {
			_, err := fixture.gamePlay.MakeTurn(ctx, game.ID, turn.wallet, turn.cell)
			require.NoError(t, err)
		}

		// Then: the draw was settled with a refund for each seat
		require.Len(t, fixture.archive.results, 1)
		result := fixture.archive.results[0]
		require.Equal(t, int64(20_000_000), result.Fee)
		require.Equal(t, int64(990_000_000), result.RefundA)
		require.Equal(t, int64(990_000_000), result.RefundB)
		assert.Equal(t, []string{"treasury-wallet", "walletA", "walletB"}, fixture.treasury.transfers)
	})

	t.Run("Free game settles without transfers", func(t *testing.T) {
		// Given: a started free game
		fixture := newGamePlayFixture(t)
		game := startGame(t, fixture, 0)

		// When: player A wins
		for _, turn := range []struct {
			wallet string
			cell   int
		}{
			{"walletA", 0}, {"walletB", 3}, {"walletA", 1}, {"walletB", 4}, {"walletA", 2},
		} {
			_, err := fixture.gamePlay.MakeTurn(ctx, game.ID, turn.wallet, turn.cell)
			require.NoError(t, err)
		}

		// Then: the match is archived but nothing was transferred
		require.Len(t, fixture.archive.saved, 1)
		assert.Empty(t, fixture.treasury.transfers)
		assert.Empty(t, fixture.archive.payouts)
	})

	t.Run("Bot answers within the same turn", func(t *testing.T) {
		// Given: a practice game
		fixture := newGamePlayFixture(t)
		game, err := fixture.gamePlay.CreateGame(ctx, "walletA", 0, entity.BoardSize3x3, entity.WithBotType)
		require.NoError(t, err)

		// When: the human makes a move
		updated, err := fixture.gamePlay.MakeTurn(ctx, game.ID, "walletA", 0)

		// Then: if the game continues, the bot has already answered and X is to move again
		require.NoError(t, err)
		if !updated.IsFinished() {
			marks := 0
			for _, cell := range updated.Board {
				if cell != entity.EmptyCell {
					marks++
				}
			}
			assert.Equal(t, 2, marks)
			assert.Equal(t, entity.PlayerX, updated.Turn)
		}
	})

	t.Run("Turn on an unknown game", func(t *testing.T) {
		// Given: an empty lobby
		fixture := newGamePlayFixture(t)

		// When: a move targets a game that does not exist
		_, err := fixture.gamePlay.MakeTurn(ctx, "ghost", "walletA", 0)

		// Then: an error ErrGameNotFound must be returned
		require.ErrorIs(t, err, repository.ErrGameNotFound)
	})
}
