package blackjack

// Blackjack is the score ceiling; anything above it is a bust.
const Blackjack = 21

// Score returns the best total for cards: aces count 11 and are downgraded to
// 1 one at a time while the total exceeds 21.
func Score(cards []Card) int {
	total, _ := count(cards)
	return total
}

// Soft reports whether at least one ace is still counted as 11.
func Soft(cards []Card) bool {
	_, soft := count(cards)
	return soft > 0
}

// count returns the best total and the number of aces still worth 11.
func count(cards []Card) (total, softAces int) {
	for _, c := range cards {
		total += c.Rank.Value()
		if c.Rank == Ace {
			softAces++
		}
	}
	for total > Blackjack && softAces > 0 {
		total -= 10
		softAces--
	}
	return total, softAces
}

// CanSplit reports whether cards form a splittable pair.
func CanSplit(cards []Card) bool {
	return len(cards) == 2 && cards[0].Rank == cards[1].Rank
}

// Hand is one set of cards played to completion.
type Hand struct {
	Cards []Card `json:"cards"`
	Stood bool   `json:"stand"`
}

// Score is the Blackjack total of the hand.
func (h Hand) Score() int { return Score(h.Cards) }

// Bust reports whether the hand exceeded 21.
func (h Hand) Bust() bool { return h.Score() > Blackjack }

// Done reports whether the hand can take no more actions.
func (h Hand) Done() bool { return h.Stood || h.Bust() }

func (h Hand) clone() Hand {
	h.Cards = append([]Card(nil), h.Cards...)
	return h
}
