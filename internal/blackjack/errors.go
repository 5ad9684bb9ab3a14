package blackjack

import "errors"

// ErrIllegalAction is wrapped by every rejection the engine returns.
var ErrIllegalAction = errors.New("blackjack: illegal action")

var (
	ErrWrongStatus   = illegal("game not active")
	ErrNotYourTurn   = illegal("not your turn")
	ErrNoSuchPlayer  = illegal("player not found")
	ErrHandConcluded = illegal("hand already finished")
	ErrCannotSplit   = illegal("cannot split - cards must be same rank")
	ErrAlreadySplit  = illegal("already split once - multiple splits not allowed")
	ErrNotSplit      = illegal("no split hands to switch to")
	ErrShoeEmpty     = illegal("no more cards")
	ErrSeatTaken     = illegal("game is full")
	ErrSelfPlay      = illegal("cannot play against yourself")
	ErrUnknownAction = illegal("unknown action")
	ErrNotFinished   = illegal("game is still in progress")
)

type illegalError struct{ msg string }

func illegal(msg string) error { return &illegalError{msg: msg} }

func (e *illegalError) Error() string { return "blackjack: " + e.msg }

func (e *illegalError) Unwrap() error { return ErrIllegalAction }
