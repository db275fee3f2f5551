package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errChainDown = errors.New("chain down")

type failingTransferer struct {
	failAfter int
	calls     int
}

func (that *failingTransferer) Transfer(_ context.Context, _ string, _ int64) (string, error) {
	that.calls++
	if that.calls > that.failAfter {
		return "", errChainDown
	}
	return "tx", nil
}

func newSettledGame(winner string, stake int64) *entity.Game {
	game := entity.NewGame("123", "walletA", stake, entity.BoardSize3x3, entity.PublicType)
	game.PlayerB = "walletB"
	game.Status = entity.StatusFinished
	game.Winner = winner

	return game
}

func TestPayoutService_Dispatch(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	t.Run("Win pays fee then winner", func(t *testing.T) {
		// Given: a settled win
		archive := &fakeArchive{}
		transferer := &fakeTransferer{}
		payout := NewPayoutService(logger, "treasury-wallet", transferer, archive)

		// When: the settlement is dispatched
		err := payout.Dispatch(ctx, newSettledGame(entity.PlayerX, 1_000_000_000), settlement.Result{
			Fee:          60_000_000,
			WinnerPayout: 1_940_000_000,
		})

		// Then: the fee lands before the payout and both hit the ledger
		require.NoError(t, err)
		require.Equal(t, []string{"treasury-wallet", "walletA"}, transferer.transfers)
		require.Len(t, archive.payouts, 2)
		assert.Equal(t, "fee", archive.payouts[0].Kind)
		assert.Equal(t, "payout", archive.payouts[1].Kind)
		assert.Equal(t, "tx-walletA", archive.payouts[1].TxRef)
	})

	t.Run("Draw refunds both seats", func(t *testing.T) {
		// Given: a settled draw
		archive := &fakeArchive{}
		transferer := &fakeTransferer{}
		payout := NewPayoutService(logger, "treasury-wallet", transferer, archive)

		// When: the settlement is dispatched
		err := payout.Dispatch(ctx, newSettledGame(entity.PlayerTie, 1_000_000_000), settlement.Result{
			Fee:     20_000_000,
			RefundA: 990_000_000,
			RefundB: 990_000_000,
		})

		// Then: the fee and both refunds go out
		require.NoError(t, err)
		require.Equal(t, []string{"treasury-wallet", "walletA", "walletB"}, transferer.transfers)
		require.Len(t, archive.payouts, 3)
	})

	t.Run("No treasury wallet skips the fee transfer", func(t *testing.T) {
		// Given: a deployment without a treasury wallet
		archive := &fakeArchive{}
		transferer := &fakeTransferer{}
		payout := NewPayoutService(logger, "", transferer, archive)

		// When: a settled win is dispatched
		err := payout.Dispatch(ctx, newSettledGame(entity.PlayerX, 1_000_000_000), settlement.Result{
			Fee:          60_000_000,
			WinnerPayout: 1_940_000_000,
		})

		// Then: only the winner payout goes out
		require.NoError(t, err)
		assert.Equal(t, []string{"walletA"}, transferer.transfers)
	})

	t.Run("Zero stake dispatches nothing", func(t *testing.T) {
		// Given: a free match
		archive := &fakeArchive{}
		transferer := &fakeTransferer{}
		payout := NewPayoutService(logger, "treasury-wallet", transferer, archive)

		// When: the settlement is dispatched
		err := payout.Dispatch(ctx, newSettledGame(entity.PlayerX, 0), settlement.Result{})

		// Then: nothing moves
		require.NoError(t, err)
		assert.Empty(t, transferer.transfers)
		assert.Empty(t, archive.payouts)
	})

	t.Run("Failed transfer stops the sequence but keeps earlier records", func(t *testing.T) {
		// Given: a transferer that dies after the fee
		archive := &fakeArchive{}
		transferer := &failingTransferer{failAfter: 1}
		payout := NewPayoutService(logger, "treasury-wallet", transferer, archive)

		// When: a settled win is dispatched
		err := payout.Dispatch(ctx, newSettledGame(entity.PlayerX, 1_000_000_000), settlement.Result{
			Fee:          60_000_000,
			WinnerPayout: 1_940_000_000,
		})

		// Then: the error surfaces and the ledger holds only the fee
		require.ErrorIs(t, err, errChainDown)
		require.Len(t, archive.payouts, 1)
		assert.Equal(t, "fee", archive.payouts[0].Kind)
	})
}
