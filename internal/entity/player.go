package entity

import "strings"

const botWalletPrefix = "bot:"

// Player ties a wallet address to the match it is currently playing.
type Player struct {
	Wallet string `json:"wallet"`
	GameID string `json:"game_id,omitempty"`
}

func NewBotPlayer(gameID string) *Player {
	return &Player{
		Wallet: botWalletPrefix + gameID,
		GameID: gameID,
	}
}

func (that *Player) IsBot() bool {
	return strings.HasPrefix(that.Wallet, botWalletPrefix)
}
