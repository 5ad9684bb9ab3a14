package blackjack

import (
	"fmt"

	"github.com/parlorgames/parlor/internal/randutil"
)

// Action is one of Join, Hit, Stand, Split or SwitchHand.
type Action interface {
	blackjackAction()
}

// Join seats the second player and deals the opening cards.
type Join struct{ Seat Seat }

// Hit deals one card to the player's active hand.
type Hit struct{ Player int }

// Stand finishes the player's active hand.
type Stand struct{ Player int }

// Split turns a pair into two hands.
type Split struct{ Player int }

// SwitchHand finishes the active split hand and moves to the next one.
type SwitchHand struct{ Player int }

func (Join) blackjackAction()       {}
func (Hit) blackjackAction()        {}
func (Stand) blackjackAction()      {}
func (Split) blackjackAction()      {}
func (SwitchHand) blackjackAction() {}

// EventKind classifies what happened during a transition.
type EventKind string

const (
	EventJoined       EventKind = "joined"
	EventCardDealt    EventKind = "card_dealt"
	EventSplit        EventKind = "split"
	EventBust         EventKind = "bust"
	EventStood        EventKind = "stood"
	EventHandSwitched EventKind = "hand_switched"
	EventTurnPassed   EventKind = "turn_passed"
	EventFinished     EventKind = "finished"
)

// Event describes one step of a transition for the presentation layer.
type Event struct {
	Kind    EventKind `json:"kind"`
	Player  int       `json:"player"`
	Hand    int       `json:"hand"`
	Cards   []Card    `json:"cards,omitempty"`
	Message string    `json:"message"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithDecks sets how many decks go into each shoe.
func WithDecks(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.decks = n
		}
	}
}

// Engine owns the random source used to build shoes.
type Engine struct {
	rng   randutil.Source
	decks int
}

// New returns an engine drawing from rng.
func New(rng randutil.Source, opts ...Option) *Engine {
	if rng == nil {
		panic("blackjack: rng is required")
	}
	e := &Engine{rng: rng, decks: DefaultDecks}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewGame opens a game for host with a freshly shuffled shoe.
func (e *Engine) NewGame(host Seat, stake float64) State {
	return NewGameWithShoe(host, stake, NewShoe(e.rng, e.decks))
}

// NewGameWithShoe opens a game dealing from shoe. Tests use it with
// StackedShoe.
func NewGameWithShoe(host Seat, stake float64, shoe Shoe) State {
	return State{
		Players: [2]Player{{ID: host.ID, Name: host.Name, Hands: []Hand{{}}}},
		Status:  Waiting,
		Stake:   stake,
		Shoe:    shoe,
		Winner:  NoWinner,
	}
}

// Rematch starts a new game between the same players with the same stake.
func (e *Engine) Rematch(prev State) (State, []Event, error) {
	if prev.Status != Finished {
		return prev, nil, ErrNotFinished
	}
	host := Seat{ID: prev.Players[0].ID, Name: prev.Players[0].Name}
	guest := Seat{ID: prev.Players[1].ID, Name: prev.Players[1].Name}
	return e.Apply(e.NewGame(host, prev.Stake), Join{Seat: guest})
}

// Apply performs a on s. On error the returned state is s unchanged.
func (e *Engine) Apply(s State, a Action) (State, []Event, error) {
	var (
		next   State
		events []Event
		err    error
	)
	switch a := a.(type) {
	case Join:
		next, events, err = join(s, a)
	case Hit:
		next, events, err = hit(s, a.Player)
	case Stand:
		next, events, err = stand(s, a.Player)
	case Split:
		next, events, err = split(s, a.Player)
	case SwitchHand:
		next, events, err = switchHand(s, a.Player)
	default:
		err = fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
	if err != nil {
		return s, nil, err
	}
	return next, events, nil
}

func join(s State, a Join) (State, []Event, error) {
	if s.Status != Waiting || s.Players[1].Seated() {
		return s, nil, ErrSeatTaken
	}
	if a.Seat.ID == "" {
		return s, nil, ErrNoSuchPlayer
	}
	if a.Seat.ID == s.Players[0].ID {
		return s, nil, ErrSelfPlay
	}
	if len(s.Shoe) < 2 {
		return s, nil, ErrShoeEmpty
	}

	next := s.Clone()
	next.Players[1] = Player{ID: a.Seat.ID, Name: a.Seat.Name}
	events := []Event{{Kind: EventJoined, Player: 1, Message: fmt.Sprintf("%s joined", a.Seat.Name)}}

	// One card each to open.
	for i := range next.Players {
		var card Card
		card, next.Shoe, _ = next.Shoe.Draw()
		next.Players[i].Hands = []Hand{{Cards: []Card{card}}}
		next.Players[i].ActiveHand = 0
		events = append(events, Event{Kind: EventCardDealt, Player: i, Cards: []Card{card}})
	}
	next.Status = Playing
	next.Turn = 0
	return next, events, nil
}

func checkTurn(s State, player int) error {
	if s.Status != Playing {
		return ErrWrongStatus
	}
	if player < 0 || player > 1 {
		return ErrNoSuchPlayer
	}
	if s.Turn != player {
		return ErrNotYourTurn
	}
	if s.Players[player].Active().Done() {
		return ErrHandConcluded
	}
	return nil
}

func hit(s State, player int) (State, []Event, error) {
	if err := checkTurn(s, player); err != nil {
		return s, nil, err
	}
	if len(s.Shoe) == 0 {
		return s, nil, ErrShoeEmpty
	}

	next := s.Clone()
	p := &next.Players[player]
	hand := &p.Hands[p.ActiveHand]

	var card Card
	card, next.Shoe, _ = next.Shoe.Draw()
	hand.Cards = append(hand.Cards, card)
	events := []Event{{Kind: EventCardDealt, Player: player, Hand: p.ActiveHand, Cards: []Card{card}}}

	if hand.Bust() {
		events = append(events, Event{
			Kind:    EventBust,
			Player:  player,
			Hand:    p.ActiveHand,
			Message: fmt.Sprintf("Bust! %s went over with %d", p.Name, hand.Score()),
		})
		return next, advance(&next, player, events), nil
	}

	// Split hands are played through before the opponent acts; otherwise
	// players alternate a card at a time.
	if !p.HasSplit() {
		events = passTurn(&next, player, events)
	}
	return next, events, nil
}

func stand(s State, player int) (State, []Event, error) {
	if err := checkTurn(s, player); err != nil {
		return s, nil, err
	}
	next := s.Clone()
	p := &next.Players[player]
	p.Hands[p.ActiveHand].Stood = true
	events := []Event{{
		Kind:    EventStood,
		Player:  player,
		Hand:    p.ActiveHand,
		Message: fmt.Sprintf("%s stands on %d", p.Name, p.Hands[p.ActiveHand].Score()),
	}}
	return next, advance(&next, player, events), nil
}

func split(s State, player int) (State, []Event, error) {
	if err := checkTurn(s, player); err != nil {
		return s, nil, err
	}
	p := s.Players[player]
	if p.HasSplit() {
		return s, nil, ErrAlreadySplit
	}
	if p.ActiveHand != 0 || !CanSplit(p.Hands[0].Cards) {
		return s, nil, ErrCannotSplit
	}
	if len(s.Shoe) < 2 {
		return s, nil, ErrShoeEmpty
	}

	next := s.Clone()
	np := &next.Players[player]
	pair := np.Hands[0].Cards

	var first, second Card
	first, next.Shoe, _ = next.Shoe.Draw()
	second, next.Shoe, _ = next.Shoe.Draw()
	np.Hands = []Hand{
		{Cards: []Card{pair[0], first}},
		{Cards: []Card{pair[1], second}},
	}
	np.ActiveHand = 0

	return next, []Event{{
		Kind:    EventSplit,
		Player:  player,
		Cards:   []Card{first, second},
		Message: fmt.Sprintf("%s split %s", np.Name, pair[0].Rank),
	}}, nil
}

func switchHand(s State, player int) (State, []Event, error) {
	if s.Status == Playing && player >= 0 && player <= 1 && !s.Players[player].HasSplit() {
		return s, nil, ErrNotSplit
	}
	if err := checkTurn(s, player); err != nil {
		return s, nil, err
	}
	next := s.Clone()
	p := &next.Players[player]
	p.Hands[p.ActiveHand].Stood = true
	events := []Event{{Kind: EventStood, Player: player, Hand: p.ActiveHand}}
	return next, advance(&next, player, events), nil
}

// advance moves to the player's next unfinished hand or ends their turn.
func advance(s *State, player int, events []Event) []Event {
	p := &s.Players[player]
	for h := p.ActiveHand + 1; h < len(p.Hands); h++ {
		if !p.Hands[h].Done() {
			p.ActiveHand = h
			return append(events, Event{
				Kind:    EventHandSwitched,
				Player:  player,
				Hand:    h,
				Message: fmt.Sprintf("%s plays hand %d", p.Name, h+1),
			})
		}
	}
	opp := 1 - player
	if s.Players[opp].Done() {
		return finish(s, events)
	}
	s.Turn = opp
	return append(events, Event{Kind: EventTurnPassed, Player: opp})
}

// passTurn hands the turn to the opponent unless they have already finished.
func passTurn(s *State, player int, events []Event) []Event {
	opp := 1 - player
	if s.Players[opp].Done() {
		return events
	}
	s.Turn = opp
	return append(events, Event{Kind: EventTurnPassed, Player: opp})
}

// finish resolves the game: a bust loses, both busting or equal scores push.
func finish(s *State, events []Event) []Event {
	s.Status = Finished
	a, aOK := s.Players[0].Result()
	b, bOK := s.Players[1].Result()

	s.Winner, s.Push = NoWinner, false
	switch {
	case !aOK && !bOK:
		s.Push = true
	case !aOK:
		s.Winner = 1
	case !bOK:
		s.Winner = 0
	case a > b:
		s.Winner = 0
	case b > a:
		s.Winner = 1
	default:
		s.Push = true
	}

	msg := fmt.Sprintf("Push! (%d vs %d)", a, b)
	if !aOK && !bOK {
		msg = "Push! Both players bust."
	} else if w, ok := s.WinnerPlayer(); ok {
		msg = fmt.Sprintf("%s wins!", w.Name)
	}
	return append(events, Event{Kind: EventFinished, Player: s.Winner, Message: msg})
}
