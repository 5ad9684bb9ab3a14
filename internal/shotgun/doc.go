// Package shotgun implements the rules of the two-player shotgun elimination
// game.
//
// A match is a value of type State. It only changes through Engine.Apply,
// which takes the current state and an Action and returns the next state
// along with any Notices the presentation layer should show. Apply never
// mutates its input, so callers can keep the previous state around for
// diffing or rollback.
//
// # Basic Usage
//
//	eng := shotgun.New(randutil.New(42))
//	s := eng.NewMatch(
//	    shotgun.Seat{ID: "1", Name: "Alice"},
//	    shotgun.Seat{ID: "2", Name: "Bob"},
//	)
//	s, notices, err := eng.Apply(s, shotgun.Shoot{Player: 0, Target: shotgun.Opponent})
//
// # Rounds
//
// When the last shell of a round is fired the match enters RoundEnd. The
// engine does not schedule anything itself: the caller decides when to apply
// StartRound (the web client waits a couple of seconds so players can read
// the result).
//
// # Illegal actions
//
// Every rejected action returns an error wrapping ErrIllegalAction and the
// unchanged input state. Callers that prefer to ignore bad input can simply
// drop the error.
package shotgun
