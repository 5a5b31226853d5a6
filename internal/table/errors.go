package table

import "errors"

// Illegal-action errors. These reject a request before any mutation and are
// surfaced to the player as user-facing messages.
var (
	ErrNoTable           = errors.New("no game in progress for this channel")
	ErrTableExists       = errors.New("a game is already in progress for this channel")
	ErrNotInGame         = errors.New("you are not in this game")
	ErrAlreadyJoined     = errors.New("you have already joined this game")
	ErrNotYourTurn       = errors.New("it is not your turn")
	ErrWrongStage        = errors.New("that action is not legal in the current stage")
	ErrNotHost           = errors.New("only the game's creator can start it")
	ErrNotEnoughPlayers  = errors.New("at least two players are needed to start")
	ErrBetMismatch       = errors.New("join bet must match the creator's bet")
	ErrCannotCheck       = errors.New("cannot check, there is a bet to match")
	ErrRaiseTooSmall     = errors.New("raise must exceed the current bet")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrAlreadyDiscarded  = errors.New("you have already discarded this round")
	ErrInvalidDiscard    = errors.New("invalid discard selection")
	ErrFolded            = errors.New("you have folded")
	ErrInvalidBet        = errors.New("bet must be positive")
)
