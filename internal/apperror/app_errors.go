package apperror

import "errors"

var (
	ErrInvalidStake = errors.New("stake is out of range")

	ErrGameFull         = errors.New("game is already full")
	ErrGameNotJoinable  = errors.New("game is not joinable")
	ErrSelfJoin         = errors.New("cannot join your own game")
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrInvalidCell      = errors.New("invalid cell index")
)
