package blackjack

import (
	"fmt"
	"strings"

	"github.com/parlorgames/parlor/internal/randutil"
)

// Rank is a card rank. Values follow the Blackjack count except Ace, which
// Score treats specially.
type Rank uint8

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

var rankNames = map[Rank]string{
	Two: "2", Three: "3", Four: "4", Five: "5", Six: "6", Seven: "7", Eight: "8",
	Nine: "9", Ten: "10", Jack: "J", Queen: "Q", King: "K", Ace: "A",
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return fmt.Sprintf("rank(%d)", uint8(r))
}

// Value is the Blackjack count of the rank with aces high.
func (r Rank) Value() int {
	switch {
	case r == Ace:
		return 11
	case r >= Ten:
		return 10
	default:
		return int(r)
	}
}

// Suit is one of the four French suits.
type Suit uint8

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

var suitSymbols = [...]string{"♠", "♥", "♦", "♣"}

func (s Suit) String() string {
	if int(s) < len(suitSymbols) {
		return suitSymbols[s]
	}
	return fmt.Sprintf("suit(%d)", uint8(s))
}

// Card is an immutable rank and suit pair. Its text form is rank followed by
// the suit symbol, e.g. "10♠".
type Card struct {
	Rank Rank
	Suit Suit
}

func (c Card) String() string { return c.Rank.String() + c.Suit.String() }

func (c Card) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Card) UnmarshalText(b []byte) error {
	card, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// ParseCard reads the text form produced by Card.String.
func ParseCard(s string) (Card, error) {
	for i, sym := range suitSymbols {
		rank, ok := strings.CutSuffix(s, sym)
		if !ok {
			continue
		}
		for r, name := range rankNames {
			if name == rank {
				return Card{Rank: r, Suit: Suit(i)}, nil
			}
		}
		return Card{}, fmt.Errorf("blackjack: unknown rank in %q", s)
	}
	return Card{}, fmt.Errorf("blackjack: unknown suit in %q", s)
}

// MustParseCards is a test and fixture helper; it panics on bad input.
func MustParseCards(cards ...string) []Card {
	out := make([]Card, len(cards))
	for i, s := range cards {
		c, err := ParseCard(s)
		if err != nil {
			panic(err)
		}
		out[i] = c
	}
	return out
}

// DefaultDecks is the number of 52-card decks in a shoe.
const DefaultDecks = 6

// Shoe holds undealt cards. The next card dealt is the last element.
type Shoe []Card

// NewShoe builds a shoe of the given number of decks and shuffles it with
// Fisher-Yates.
func NewShoe(rng randutil.Source, decks int) Shoe {
	if decks <= 0 {
		decks = DefaultDecks
	}
	shoe := make(Shoe, 0, decks*52)
	for range decks {
		for r := Two; r <= Ace; r++ {
			for s := Spades; s <= Clubs; s++ {
				shoe = append(shoe, Card{Rank: r, Suit: s})
			}
		}
	}
	for i := len(shoe) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		shoe[i], shoe[j] = shoe[j], shoe[i]
	}
	return shoe
}

// StackedShoe returns a shoe that deals cards in the given order.
func StackedShoe(cards ...Card) Shoe {
	shoe := make(Shoe, len(cards))
	for i, c := range cards {
		shoe[len(cards)-1-i] = c
	}
	return shoe
}

// Draw removes the next card. The receiver is not modified; the remaining
// shoe is returned.
func (s Shoe) Draw() (Card, Shoe, bool) {
	if len(s) == 0 {
		return Card{}, s, false
	}
	return s[len(s)-1], s[:len(s)-1], true
}
