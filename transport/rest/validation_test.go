package rest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateWalletAddress(t *testing.T) {
	// Given: wallet addresses of various lengths
	// Then: only addresses between 32 and 44 characters pass
	assert.True(t, ValidateWalletAddress(strings.Repeat("A", 32)))
	assert.True(t, ValidateWalletAddress(strings.Repeat("A", 44)))
	assert.False(t, ValidateWalletAddress(strings.Repeat("A", 31)))
	assert.False(t, ValidateWalletAddress(strings.Repeat("A", 45)))
	assert.False(t, ValidateWalletAddress(""))
}

func TestValidateGameID(t *testing.T) {
	// Given: game IDs of various shapes
	// Then: only alphanumeric IDs with dashes and underscores pass
	assert.True(t, ValidateGameID("abc"))
	assert.True(t, ValidateGameID("550e8400-e29b-41d4-a716-446655440000"))
	assert.True(t, ValidateGameID("game_42"))
	assert.False(t, ValidateGameID("ab"))
	assert.False(t, ValidateGameID(strings.Repeat("a", 51)))
	assert.False(t, ValidateGameID("game 42"))
	assert.False(t, ValidateGameID("game/42"))
}
