// Package settlement converts a finished match's stake and outcome into a
// treasury fee and per-player payout amounts. All arithmetic is integer with
// truncating division; money never touches floating point here.
package settlement

// Outcome classifies how a match ended for settlement purposes.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeDraw Outcome = "draw"
)

// Config carries the treasury fee policy. Percent values are whole percents
// of the pot (stake * 2). Stakes below MinStakeForFees are fee free so the
// treasury never collects dust-sized transfers.
type Config struct {
	WinFeePercent   int64
	DrawFeePercent  int64
	MinStakeForFees int64
}

// Result holds the computed amounts for one match. WinnerPayout is set for
// decided matches; RefundA and RefundB for draws. A zero stake yields a zero
// Result.
type Result struct {
	Fee          int64 `json:"fee"`
	WinnerPayout int64 `json:"winner_payout,omitempty"`
	RefundA      int64 `json:"refund_player1,omitempty"`
	RefundB      int64 `json:"refund_player2,omitempty"`
}

type Calculator struct {
	conf Config
}

func NewCalculator(conf Config) *Calculator {
	return &Calculator{conf: conf}
}

// Fee returns the treasury cut for the given stake and outcome.
func (that *Calculator) Fee(stake int64, outcome Outcome) int64 {
	if stake < that.conf.MinStakeForFees {
		return 0
	}

	pot := stake * 2

	feePercent := that.conf.WinFeePercent
	if outcome == OutcomeDraw {
		feePercent = that.conf.DrawFeePercent
	}

	return pot * feePercent / 100
}

// Payouts computes the full settlement for one match.
//
// On a draw each player gets floor((pot-fee)/2); when pot-fee is odd the
// remaining smallest unit is neither refunded nor collected, matching the
// behavior the treasury has always reconciled against.
func (that *Calculator) Payouts(stake int64, outcome Outcome) Result {
	if stake == 0 {
		return Result{}
	}

	pot := stake * 2
	fee := that.Fee(stake, outcome)

	if outcome == OutcomeDraw {
		perPlayerRefund := (pot - fee) / 2

		return Result{
			Fee:     fee,
			RefundA: perPlayerRefund,
			RefundB: perPlayerRefund,
		}
	}

	return Result{
		Fee:          fee,
		WinnerPayout: pot - fee,
	}
}
