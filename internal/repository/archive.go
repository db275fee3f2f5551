package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/settlement"
)

// ArchivedGame is the durable record of a completed match. Live matches stay
// in redis; once finished they move here so history and stats survive.
type ArchivedGame struct {
	ID          string    `json:"id"`
	PlayerA     string    `json:"player1"`
	PlayerB     string    `json:"player2,omitempty"`
	Winner      string    `json:"winner"`
	Stake       int64     `json:"bet_amount"`
	Size        int       `json:"board_size"`
	Board       []string  `json:"board"`
	Fee         int64     `json:"fee"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// AsGame rebuilds the terminal match snapshot for callers that fetch a
// completed game by ID after it left live storage.
func (that *ArchivedGame) AsGame() *entity.Game {
	return &entity.Game{
		ID:        that.ID,
		PlayerA:   that.PlayerA,
		PlayerB:   that.PlayerB,
		Stake:     that.Stake,
		Size:      that.Size,
		Board:     that.Board,
		Status:    entity.StatusFinished,
		Winner:    that.Winner,
		CreatedAt: that.CreatedAt,
		UpdatedAt: that.CompletedAt,
	}
}

type PlayerStats struct {
	GamesPlayed   int64 `json:"games_played"`
	GamesWon      int64 `json:"games_won"`
	GamesLost     int64 `json:"games_lost"`
	GamesDraw     int64 `json:"games_draw"`
	TotalEarnings int64 `json:"total_earnings"`
}

// PayoutRecord is one value transfer issued while settling a match.
type PayoutRecord struct {
	GameID    string    `json:"game_id"`
	Recipient string    `json:"recipient"`
	Kind      string    `json:"kind"` // fee, payout or refund
	Amount    int64     `json:"amount"`
	TxRef     string    `json:"tx_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ArchiveRepository interface {
	Init(ctx context.Context) error
	SaveCompletedGame(ctx context.Context, game *entity.Game, result settlement.Result) error
	SavePayout(ctx context.Context, record *PayoutRecord) error
	GetByID(ctx context.Context, id string) (*ArchivedGame, error)
	GetPlayerGames(ctx context.Context, wallet string) ([]*ArchivedGame, error)
	GetPlayerStats(ctx context.Context, wallet string) (*PlayerStats, error)
	GetTotalFeesCollected(ctx context.Context) (int64, error)
}

type dbArchive struct {
	conn *sql.DB
}

func NewArchiveRepository(conn *sql.DB) ArchiveRepository {
	return &dbArchive{
		conn: conn,
	}
}

func (that *dbArchive) Init(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS games_archive (
			id TEXT PRIMARY KEY,
			player1 TEXT NOT NULL,
			player2 TEXT NOT NULL DEFAULT '',
			winner TEXT NOT NULL,
			stake INTEGER NOT NULL,
			board_size INTEGER NOT NULL,
			board TEXT NOT NULL DEFAULT '[]',
			fee INTEGER NOT NULL,
			winner_payout INTEGER NOT NULL,
			refund_player1 INTEGER NOT NULL,
			refund_player2 INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_archive_player1 ON games_archive(player1)`,
		`CREATE INDEX IF NOT EXISTS idx_games_archive_player2 ON games_archive(player2)`,
		`CREATE TABLE IF NOT EXISTS payouts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL,
			recipient TEXT NOT NULL,
			kind TEXT NOT NULL,
			amount INTEGER NOT NULL,
			tx_ref TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payouts_game_id ON payouts(game_id)`,
	}

	for _, query := range queries {
		if _, err := that.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("can't create archive schema: %w", err)
		}
	}

	return nil
}

func (that *dbArchive) SaveCompletedGame(ctx context.Context, game *entity.Game, result settlement.Result) error {
	boardJSON, err := json.Marshal(game.Board)
	if err != nil {
		return fmt.Errorf("could not marshal board: %w", err)
	}

	query := `INSERT INTO games_archive
		(id, player1, player2, winner, stake, board_size, board, fee, winner_payout, refund_player1, refund_player2, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = that.conn.ExecContext(ctx, query,
		game.ID, game.PlayerA, game.PlayerB, game.Winner, game.Stake, game.Size, string(boardJSON),
		result.Fee, result.WinnerPayout, result.RefundA, result.RefundB,
		game.CreatedAt, game.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to archive game: %w", err)
	}

	return nil
}

func (that *dbArchive) GetByID(ctx context.Context, id string) (*ArchivedGame, error) {
	query := `SELECT id, player1, player2, winner, stake, board_size, board, fee, created_at, completed_at
		FROM games_archive WHERE id = ?`

	game, err := scanArchivedGame(that.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archived game by ID: %w", err)
	}

	return game, nil
}

func (that *dbArchive) SavePayout(ctx context.Context, record *PayoutRecord) error {
	query := `INSERT INTO payouts (game_id, recipient, kind, amount, tx_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		record.GameID, record.Recipient, record.Kind, record.Amount, record.TxRef, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save payout record: %w", err)
	}

	return nil
}

func (that *dbArchive) GetPlayerGames(ctx context.Context, wallet string) ([]*ArchivedGame, error) {
	query := `SELECT id, player1, player2, winner, stake, board_size, board, fee, created_at, completed_at
		FROM games_archive
		WHERE player1 = ?1 OR player2 = ?1
		ORDER BY completed_at DESC`

	rows, err := that.conn.QueryContext(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to query player games: %w", err)
	}
	defer rows.Close()

	var games []*ArchivedGame
	for rows.Next() {
		game, err := scanArchivedGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan archived game: %w", err)
		}
		games = append(games, game)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate player games: %w", err)
	}

	return games, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArchivedGame(row rowScanner) (*ArchivedGame, error) {
	var game ArchivedGame
	var boardJSON string

	if err := row.Scan(
		&game.ID, &game.PlayerA, &game.PlayerB, &game.Winner,
		&game.Stake, &game.Size, &boardJSON, &game.Fee, &game.CreatedAt, &game.CompletedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(boardJSON), &game.Board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}

	return &game, nil
}

func (that *dbArchive) GetPlayerStats(ctx context.Context, wallet string) (*PlayerStats, error) {
	query := `SELECT
		COUNT(*),
		COALESCE(SUM(CASE
			WHEN winner = 'X' AND player1 = ?1 THEN 1
			WHEN winner = 'O' AND player2 = ?1 THEN 1
			ELSE 0 END), 0),
		COALESCE(SUM(CASE
			WHEN winner = 'X' AND player2 = ?1 THEN 1
			WHEN winner = 'O' AND player1 = ?1 THEN 1
			ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN winner = '-' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE
			WHEN winner = 'X' AND player1 = ?1 THEN winner_payout
			WHEN winner = 'O' AND player2 = ?1 THEN winner_payout
			WHEN winner = '-' AND player1 = ?1 THEN refund_player1
			WHEN winner = '-' AND player2 = ?1 THEN refund_player2
			ELSE 0 END), 0)
	FROM games_archive
	WHERE player1 = ?1 OR player2 = ?1`

	var stats PlayerStats
	err := that.conn.QueryRowContext(ctx, query, wallet).Scan(
		&stats.GamesPlayed, &stats.GamesWon, &stats.GamesLost, &stats.GamesDraw, &stats.TotalEarnings,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query player stats: %w", err)
	}

	return &stats, nil
}

func (that *dbArchive) GetTotalFeesCollected(ctx context.Context) (int64, error) {
	var total int64
	err := that.conn.QueryRowContext(ctx, `SELECT COALESCE(SUM(fee), 0) FROM games_archive`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to query collected fees: %w", err)
	}

	return total, nil
}
