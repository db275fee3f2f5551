package repository

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager-backend/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	playerRepo := NewPlayerRepository(st.Storage)

	// Given: a player with a wallet and a game
	player := &entity.Player{
		Wallet: "walletA",
		GameID: "123",
	}

	// When: CreateOrUpdate is called
	err := playerRepo.CreateOrUpdate(ctx, player)

	// Then: no error should be returned, and the player is stored
	require.NoError(t, err)

	retrievedPlayer, err := playerRepo.GetByWallet(ctx, player.Wallet)
	require.NoError(t, err)
	require.Equal(t, player.Wallet, retrievedPlayer.Wallet)
	require.Equal(t, player.GameID, retrievedPlayer.GameID)
}

func TestPlayerRepository_GetByWallet(t *testing.T) {
	t.Run("GetByWallet_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		playerRepo := NewPlayerRepository(st.Storage)

		// Given: a stored player
		player := &entity.Player{Wallet: "walletA"}
		require.NoError(t, playerRepo.CreateOrUpdate(ctx, player))

		// When: GetByWallet is called with the existing wallet
		retrievedPlayer, err := playerRepo.GetByWallet(ctx, player.Wallet)

		// Then: the retrieved player should match the saved player
		require.NoError(t, err)
		require.Equal(t, player.Wallet, retrievedPlayer.Wallet)
	})

	t.Run("GetByWallet_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		playerRepo := NewPlayerRepository(st.Storage)

		// When: GetByWallet is called with an unknown wallet
		retrievedPlayer, err := playerRepo.GetByWallet(ctx, "unknown")

		// Then: an ErrPlayerNotFound error should be returned
		require.ErrorIs(t, err, ErrPlayerNotFound)
		assert.Empty(t, retrievedPlayer.Wallet)
	})
}
