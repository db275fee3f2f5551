package entity

import (
	"time"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"

	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"

	EmptyCell = ""
)

const (
	PublicType  = "public"
	PrivateType = "private"
	WithBotType = "bot"
)

const (
	BoardSize3x3 = 3
	BoardSize4x4 = 4
)

var (
	winCombos3x3 = buildWinCombos(BoardSize3x3)
	winCombos4x4 = buildWinCombos(BoardSize4x4)
)

// Game is one match from creation to completion. PlayerA and PlayerB hold
// wallet addresses; PlayerA always plays X, PlayerB always plays O.
type Game struct {
	ID        string    `json:"id"`
	PlayerA   string    `json:"player1"`
	PlayerB   string    `json:"player2,omitempty"`
	Stake     int64     `json:"bet_amount"`
	Size      int       `json:"board_size"`
	Board     []string  `json:"board"`
	Turn      string    `json:"player_turn,omitempty"`
	Status    string    `json:"status"`
	Winner    string    `json:"winner,omitempty"`
	Type      string    `json:"type,omitempty"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewGame(id, playerA string, stake int64, size int, gameType string) *Game {
	now := time.Now().UTC()

	return &Game{
		ID:        id,
		PlayerA:   playerA,
		Stake:     stake,
		Size:      size,
		Board:     make([]string, size*size),
		Turn:      PlayerX,
		Status:    StatusWaiting,
		Type:      gameType,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// buildWinCombos lists every row, column and the two diagonals of a
// size*size board as cell indexes.
func buildWinCombos(size int) [][]int {
	combos := make([][]int, 0, 2*size+2)

	for row := 0; row < size; row++ {
		combo := make([]int, size)
		for col := 0; col < size; col++ {
			combo[col] = row*size + col
		}
		combos = append(combos, combo)
	}

	for col := 0; col < size; col++ {
		combo := make([]int, size)
		for row := 0; row < size; row++ {
			combo[row] = row*size + col
		}
		combos = append(combos, combo)
	}

	diagonal := make([]int, size)
	antiDiagonal := make([]int, size)
	for i := 0; i < size; i++ {
		diagonal[i] = i*size + i
		antiDiagonal[i] = i*size + (size - 1 - i)
	}

	return append(combos, diagonal, antiDiagonal)
}

func (that *Game) WinCombos() [][]int {
	if that.Size == BoardSize4x4 {
		return winCombos4x4
	}
	return winCombos3x3
}

// DetermineGameResult returns the winning mark, PlayerTie when the board is
// full without a winning line, or an empty string while the game continues.
func (that *Game) DetermineGameResult() string {
	for _, combo := range that.WinCombos() {
		first := that.Board[combo[0]]
		if first == EmptyCell {
			continue
		}

		won := true
		for _, cell := range combo[1:] {
			if that.Board[cell] != first {
				won = false
				break
			}
		}

		if won {
			return first
		}
	}

	for _, cell := range that.Board {
		if cell == EmptyCell {
			return ""
		}
	}

	return PlayerTie
}

// MarkOf returns the mark owned by the given wallet, or an empty string for
// a wallet that is not part of this game.
func (that *Game) MarkOf(wallet string) string {
	switch {
	case wallet != "" && wallet == that.PlayerA:
		return PlayerX
	case wallet != "" && wallet == that.PlayerB:
		return PlayerO
	default:
		return EmptyCell
	}
}

// WalletOfMark is the inverse of MarkOf.
func (that *Game) WalletOfMark(mark string) string {
	switch mark {
	case PlayerX:
		return that.PlayerA
	case PlayerO:
		return that.PlayerB
	default:
		return ""
	}
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) IsPublic() bool {
	return that.Type == PublicType
}

func (that *Game) IsWithBot() bool {
	return that.Type == WithBotType
}

func (that *Game) Touch() {
	that.UpdatedAt = time.Now().UTC()
}
