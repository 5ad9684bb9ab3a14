package blackjack

// HandView is a hand with its derived values.
type HandView struct {
	Cards []Card `json:"cards"`
	Score int    `json:"score"`
	Soft  bool   `json:"soft"`
	Bust  bool   `json:"bust"`
	Stood bool   `json:"stand"`
}

// PlayerView is what clients see of a player.
type PlayerView struct {
	ID         string     `json:"id"`
	Name       string     `json:"username"`
	Hands      []HandView `json:"hands"`
	ActiveHand int        `json:"active_hand"`
	Score      int        `json:"score"`
	Done       bool       `json:"done"`
	CanSplit   bool       `json:"can_split"`
}

// View is the client-facing projection of a State. It omits the shoe.
type View struct {
	Players   [2]PlayerView `json:"players"`
	Turn      int           `json:"turn"`
	TurnID    string        `json:"turn_id"`
	Status    Status        `json:"status"`
	Stake     float64       `json:"stake"`
	Winner    int           `json:"winner"`
	WinnerID  string        `json:"winner_id,omitempty"`
	Push      bool          `json:"push"`
	CardsLeft int           `json:"cards_left"`
}

// View derives the client-facing projection.
func (s State) View() View {
	v := View{
		Turn:      s.Turn,
		Status:    s.Status,
		Stake:     s.Stake,
		Winner:    s.Winner,
		Push:      s.Push,
		CardsLeft: len(s.Shoe),
	}
	if s.Status == Playing {
		v.TurnID = s.Players[s.Turn].ID
	}
	if w, ok := s.WinnerPlayer(); ok {
		v.WinnerID = w.ID
	}
	for i, p := range s.Players {
		pv := PlayerView{
			ID:         p.ID,
			Name:       p.Name,
			ActiveHand: p.ActiveHand,
			Score:      p.Active().Score(),
			Done:       p.Done(),
			CanSplit: s.Status == Playing && s.Turn == i && !p.HasSplit() &&
				len(p.Hands) == 1 && CanSplit(p.Hands[0].Cards),
		}
		for _, h := range p.Hands {
			pv.Hands = append(pv.Hands, HandView{
				Cards: append([]Card(nil), h.Cards...),
				Score: h.Score(),
				Soft:  Soft(h.Cards),
				Bust:  h.Bust(),
				Stood: h.Stood,
			})
		}
		v.Players[i] = pv
	}
	return v
}
