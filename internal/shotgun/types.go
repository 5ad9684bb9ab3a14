package shotgun

import "fmt"

// Shell is a single round of ammunition.
type Shell uint8

const (
	Blank Shell = iota
	Live
)

func (s Shell) String() string {
	if s == Live {
		return "live"
	}
	return "blank"
}

func (s Shell) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Shell) UnmarshalText(b []byte) error {
	switch string(b) {
	case "live":
		*s = Live
	case "blank":
		*s = Blank
	default:
		return fmt.Errorf("shotgun: unknown shell %q", b)
	}
	return nil
}

// BonusKind enumerates the consumable items. The set is closed; every switch
// over it must handle all five kinds.
type BonusKind uint8

const (
	MagnifyingGlass BonusKind = iota
	Beer
	Handcuffs
	Cigarettes
	Knife

	bonusKindCount
)

// BonusKinds lists every kind in draw order.
var BonusKinds = [bonusKindCount]BonusKind{MagnifyingGlass, Beer, Handcuffs, Cigarettes, Knife}

var bonusNames = [bonusKindCount]string{"magnifying", "beer", "handcuffs", "cigarettes", "knife"}

var bonusTitles = [bonusKindCount]string{"Magnifying Glass", "Beer", "Handcuffs", "Cigarettes", "Knife"}

func (k BonusKind) String() string {
	if k >= bonusKindCount {
		return fmt.Sprintf("bonus(%d)", uint8(k))
	}
	return bonusNames[k]
}

// Title is the display name of the item.
func (k BonusKind) Title() string {
	if k >= bonusKindCount {
		return k.String()
	}
	return bonusTitles[k]
}

func (k BonusKind) MarshalText() ([]byte, error) {
	if k >= bonusKindCount {
		return nil, fmt.Errorf("shotgun: invalid bonus kind %d", uint8(k))
	}
	return []byte(bonusNames[k]), nil
}

func (k *BonusKind) UnmarshalText(b []byte) error {
	for i, name := range bonusNames {
		if name == string(b) {
			*k = BonusKind(i)
			return nil
		}
	}
	return fmt.Errorf("shotgun: unknown bonus %q", b)
}

// Bonus is one item in a player's inventory. Used items stay in the list.
type Bonus struct {
	Kind BonusKind `json:"type"`
	Used bool      `json:"used"`
}

// Phase is the lifecycle stage of a match.
type Phase uint8

const (
	Setup Phase = iota
	Waiting
	Playing
	RoundEnd
	Finished
)

var phaseNames = [...]string{"setup", "waiting", "playing", "round-end", "finished"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("shotgun: unknown phase %q", b)
}

// Target selects who receives the shot.
type Target uint8

const (
	Self Target = iota
	Opponent
)

// Valid reports whether t is Self or Opponent.
func (t Target) Valid() bool { return t == Self || t == Opponent }

func (t Target) String() string {
	if t == Opponent {
		return "opponent"
	}
	return "self"
}

func (t Target) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Target) UnmarshalText(b []byte) error {
	switch string(b) {
	case "self":
		*t = Self
	case "opponent":
		*t = Opponent
	default:
		return fmt.Errorf("shotgun: unknown target %q", b)
	}
	return nil
}
