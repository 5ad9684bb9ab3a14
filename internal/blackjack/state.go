package blackjack

import "fmt"

// NoWinner marks State.Winner while the game is undecided or pushed.
const NoWinner = -1

// Status is the lifecycle stage of a game.
type Status uint8

const (
	Waiting Status = iota
	Playing
	Finished
)

var statusNames = [...]string{"waiting", "playing", "finished"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("blackjack: unknown status %q", b)
}

// Seat identifies a participant before the game starts.
type Seat struct {
	ID   string
	Name string
}

// Player is one side of the game. Hands[0] is the primary hand; Hands[1]
// exists only after a split.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"username"`
	Hands      []Hand `json:"hands"`
	ActiveHand int    `json:"active_hand"`
}

// Seated reports whether the seat has been taken.
func (p Player) Seated() bool { return p.ID != "" }

// HasSplit reports whether the player has split their hand.
func (p Player) HasSplit() bool { return len(p.Hands) > 1 }

// Done reports whether every hand of the player is finished.
func (p Player) Done() bool {
	if len(p.Hands) == 0 {
		return false
	}
	for _, h := range p.Hands {
		if !h.Done() {
			return false
		}
	}
	return true
}

// Active returns the hand receiving actions.
func (p Player) Active() Hand {
	if p.ActiveHand < len(p.Hands) {
		return p.Hands[p.ActiveHand]
	}
	return Hand{}
}

// Result is the score the player is judged on: the primary hand. A split
// hand is played out but never decides the game. ok is false on a bust.
func (p Player) Result() (score int, ok bool) {
	if len(p.Hands) == 0 {
		return 0, true
	}
	h := p.Hands[0]
	return h.Score(), !h.Bust()
}

func (p Player) clone() Player {
	hands := make([]Hand, len(p.Hands))
	for i, h := range p.Hands {
		hands[i] = h.clone()
	}
	p.Hands = hands
	return p
}

// State is the complete, serialisable state of a card game. Shoe order is
// secret; send View to clients instead.
type State struct {
	Players [2]Player `json:"players"`
	Turn    int       `json:"turn"`
	Status  Status    `json:"status"`
	Stake   float64   `json:"stake"`
	Shoe    Shoe      `json:"shoe"`
	Winner  int       `json:"winner"`
	Push    bool      `json:"push"`
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	for i := range c.Players {
		c.Players[i] = s.Players[i].clone()
	}
	c.Shoe = append(Shoe(nil), s.Shoe...)
	return c
}

// IndexOf maps a player ID to its seat.
func (s State) IndexOf(id string) (int, bool) {
	for i, p := range s.Players {
		if p.Seated() && p.ID == id {
			return i, true
		}
	}
	return 0, false
}

// WinnerPlayer returns the winner of a finished game.
func (s State) WinnerPlayer() (Player, bool) {
	if s.Status != Finished || s.Winner == NoWinner {
		return Player{}, false
	}
	return s.Players[s.Winner], true
}
