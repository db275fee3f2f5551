package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/repository"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/settlement"
)

const (
	payoutKindFee    = "fee"
	payoutKindPayout = "payout"
	payoutKindRefund = "refund"
)

// Transferer moves value out of the custodial game wallet. Implementations
// own signing, confirmation waiting and retries; this service only sequences
// transfers and records them.
type Transferer interface {
	Transfer(ctx context.Context, recipient string, amount int64) (string, error)
}

type PayoutService interface {
	Dispatch(ctx context.Context, game *entity.Game, result settlement.Result) error
}

type payoutArchive interface {
	SavePayout(ctx context.Context, record *repository.PayoutRecord) error
}

type payoutService struct {
	logger *slog.Logger

	treasuryWallet string
	transferer     Transferer
	archive        payoutArchive
}

func NewPayoutService(logger *slog.Logger, treasuryWallet string, transferer Transferer, archive payoutArchive) PayoutService {
	return &payoutService{
		logger:         logger,
		treasuryWallet: treasuryWallet,
		transferer:     transferer,
		archive:        archive,
	}
}

// Dispatch pays out one settled match: treasury fee first, then the winner
// payout or the draw refunds. Every transfer is recorded in the payout ledger
// so an operator can reconcile after a partial failure.
func (that *payoutService) Dispatch(ctx context.Context, game *entity.Game, result settlement.Result) error {
	if game.Stake == 0 {
		return nil
	}

	log := that.logger.With("method", "Dispatch", "gameID", game.ID)

	if result.Fee > 0 && that.treasuryWallet != "" {
		if err := that.transfer(ctx, game.ID, that.treasuryWallet, payoutKindFee, result.Fee); err != nil {
			return fmt.Errorf("failed to send treasury fee: %w", err)
		}

		log.Info("treasury fee sent", "amount", result.Fee)
	}

	if result.WinnerPayout > 0 {
		winner := game.WalletOfMark(game.Winner)
		if err := that.transfer(ctx, game.ID, winner, payoutKindPayout, result.WinnerPayout); err != nil {
			return fmt.Errorf("failed to send winner payout: %w", err)
		}

		log.Info("winner payout sent", "winner", winner, "amount", result.WinnerPayout)
	}

	if result.RefundA > 0 {
		if err := that.transfer(ctx, game.ID, game.PlayerA, payoutKindRefund, result.RefundA); err != nil {
			return fmt.Errorf("failed to refund player1: %w", err)
		}
	}

	if result.RefundB > 0 {
		if err := that.transfer(ctx, game.ID, game.PlayerB, payoutKindRefund, result.RefundB); err != nil {
			return fmt.Errorf("failed to refund player2: %w", err)
		}
	}

	return nil
}

func (that *payoutService) transfer(ctx context.Context, gameID, recipient, kind string, amount int64) error {
	txRef, err := that.transferer.Transfer(ctx, recipient, amount)
	if err != nil {
		return fmt.Errorf("transfer failed: %w", err)
	}

	record := &repository.PayoutRecord{
		GameID:    gameID,
		Recipient: recipient,
		Kind:      kind,
		Amount:    amount,
		TxRef:     txRef,
		CreatedAt: time.Now().UTC(),
	}

	if err = that.archive.SavePayout(ctx, record); err != nil {
		return fmt.Errorf("failed to record payout: %w", err)
	}

	return nil
}

// loggingTransferer stands in when no chain client is configured; it only
// logs what would have been transferred.
type loggingTransferer struct {
	logger *slog.Logger
}

func NewLoggingTransferer(logger *slog.Logger) Transferer {
	return &loggingTransferer{logger: logger}
}

func (that *loggingTransferer) Transfer(_ context.Context, recipient string, amount int64) (string, error) {
	that.logger.Info("transfer requested", "recipient", recipient, "amount", amount)
	return "", nil
}
