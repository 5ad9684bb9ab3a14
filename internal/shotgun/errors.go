package shotgun

import "errors"

// ErrIllegalAction is wrapped by every rejection the engine returns.
var ErrIllegalAction = errors.New("shotgun: illegal action")

var (
	ErrWrongPhase    = illegal("action not allowed in this phase")
	ErrNotYourTurn   = illegal("not your turn")
	ErrNoSuchPlayer  = illegal("no such player")
	ErrNoSuchBonus   = illegal("no such bonus")
	ErrBonusUsed     = illegal("bonus already used")
	ErrSeatTaken     = illegal("seat already taken")
	ErrUnknownAction = illegal("unknown action")
	ErrNoSuchTarget  = illegal("no such target")
)

type illegalError struct{ msg string }

func illegal(msg string) error { return &illegalError{msg: msg} }

func (e *illegalError) Error() string { return "shotgun: " + e.msg }

func (e *illegalError) Unwrap() error { return ErrIllegalAction }
