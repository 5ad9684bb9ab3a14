package shotgun

import "fmt"

// View is the render-relevant summary of a State.
type View struct {
	Phase          Phase  `json:"phase"`
	Round          int    `json:"round"`
	MaxRounds      int    `json:"maxRounds"`
	CurrentPlayer  string `json:"currentPlayerName"`
	ShellsLeft     int    `json:"shellsLeft"`
	LiveLeft       int    `json:"liveLeft"`
	BlankLeft      int    `json:"blankLeft"`
	KnifeActive    bool   `json:"knifeActive"`
	Status         string `json:"status"`
	UnusedBonuses  [2]int `json:"unusedBonuses"`
	ShellsConsumed int    `json:"shellsConsumed"`
}

// View derives the display summary. Remaining counts are public information
// in the game; the order of the shells is not.
func (s State) View() View {
	var remaining []Shell
	if s.CurrentShell < len(s.Shells) {
		remaining = s.Shells[s.CurrentShell:]
	}
	live, blank := CountShells(remaining)
	return View{
		Phase:          s.Phase,
		Round:          s.Round,
		MaxRounds:      s.MaxRounds,
		CurrentPlayer:  s.CurrentPlayer().Name,
		ShellsLeft:     len(remaining),
		LiveLeft:       live,
		BlankLeft:      blank,
		KnifeActive:    s.KnifeActive,
		Status:         s.Status(),
		UnusedBonuses:  [2]int{s.Players[0].UnusedBonuses(), s.Players[1].UnusedBonuses()},
		ShellsConsumed: min(s.CurrentShell, len(s.Shells)),
	}
}

// Status is a one-line description of where the match stands.
func (s State) Status() string {
	switch s.Phase {
	case Setup:
		return "Setting up the table"
	case Waiting:
		return "Waiting for an opponent"
	case Playing:
		return fmt.Sprintf("%s's turn", s.CurrentPlayer().Name)
	case RoundEnd:
		return fmt.Sprintf("Round %d complete", s.Round)
	case Finished:
		if w, ok := s.WinnerPlayer(); ok {
			return fmt.Sprintf("%s wins", w.Name)
		}
		return "Draw"
	default:
		return s.Phase.String()
	}
}

// Redacted returns a copy safe to send to clients: the shell order beyond
// the cursor is hidden, consumed shells stay visible.
func (s State) Redacted() State {
	c := s.Clone()
	if c.CurrentShell < len(c.Shells) {
		c.Shells = c.Shells[:c.CurrentShell]
	}
	return c
}
