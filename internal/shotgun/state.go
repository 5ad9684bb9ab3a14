package shotgun

// MaxHealth is both the starting and the maximum health of a player.
const MaxHealth = 3

// DefaultMaxRounds is the number of rounds in a match unless configured.
const DefaultMaxRounds = 5

// NoWinner marks State.Winner while the match is undecided or drawn.
const NoWinner = -1

// Seat identifies a participant before the match starts.
type Seat struct {
	ID   string
	Name string
}

// Player is one side of the match.
type Player struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Health     int     `json:"health"`
	Bonuses    []Bonus `json:"bonuses"`
	Handcuffed bool    `json:"isHandcuffed"`
}

// Alive reports whether the player still has health left.
func (p Player) Alive() bool { return p.Health > 0 }

// UnusedBonuses counts items that can still be used.
func (p Player) UnusedBonuses() int {
	n := 0
	for _, b := range p.Bonuses {
		if !b.Used {
			n++
		}
	}
	return n
}

// State is the complete, serialisable state of a match.
type State struct {
	Players      [2]Player `json:"players"`
	Current      int       `json:"currentPlayer"`
	Shells       []Shell   `json:"shells"`
	CurrentShell int       `json:"currentShell"`
	KnifeActive  bool      `json:"knifeBonusActive"`
	Round        int       `json:"round"`
	MaxRounds    int       `json:"maxRounds"`
	Phase        Phase     `json:"gamePhase"`
	Winner       int       `json:"winner"`
	Draw         bool      `json:"draw"`
	LastAction   string    `json:"lastAction"`
}

// Clone returns a deep copy so the result can be modified freely.
func (s State) Clone() State {
	c := s
	c.Shells = append([]Shell(nil), s.Shells...)
	for i := range c.Players {
		c.Players[i].Bonuses = append([]Bonus(nil), s.Players[i].Bonuses...)
	}
	return c
}

// CurrentPlayer returns the player whose turn it is.
func (s State) CurrentPlayer() Player { return s.Players[s.Current] }

// OpponentOf returns the index of the other player.
func OpponentOf(idx int) int { return 1 - idx }

// ShellsLeft reports how many shells remain in the chamber.
func (s State) ShellsLeft() int {
	if s.CurrentShell >= len(s.Shells) {
		return 0
	}
	return len(s.Shells) - s.CurrentShell
}

// NextShell returns the shell under the cursor, if any.
func (s State) NextShell() (Shell, bool) {
	if s.CurrentShell >= len(s.Shells) {
		return Blank, false
	}
	return s.Shells[s.CurrentShell], true
}

// WinnerPlayer returns the winning player once the match has a winner.
func (s State) WinnerPlayer() (Player, bool) {
	if s.Phase != Finished || s.Winner == NoWinner {
		return Player{}, false
	}
	return s.Players[s.Winner], true
}

// IndexOf maps a player ID to its seat index.
func (s State) IndexOf(id string) (int, bool) {
	for i, p := range s.Players {
		if p.ID != "" && p.ID == id {
			return i, true
		}
	}
	return 0, false
}
