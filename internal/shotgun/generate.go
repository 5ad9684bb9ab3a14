package shotgun

import "github.com/parlorgames/parlor/internal/randutil"

// MaxBonuses caps how many items a player receives per round.
const MaxBonuses = 5

// ShellCountRange returns the inclusive bounds of the chamber size for a round.
func ShellCountRange(round int) (lo, hi int) {
	base := 3 + round
	return base, base + 3
}

// GenerateShells loads the chamber for a round: between 3+round and 6+round
// shells, at least one live and at least one blank, in uniformly random order.
func GenerateShells(rng randutil.Source, round int) []Shell {
	lo, _ := ShellCountRange(round)
	count := rng.IntN(4) + lo
	live := rng.IntN(count-1) + 1

	shells := make([]Shell, count)
	for i := range live {
		shells[i] = Live
	}

	// Fisher-Yates
	for i := len(shells) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		shells[i], shells[j] = shells[j], shells[i]
	}
	return shells
}

// GenerateBonuses draws a fresh inventory for a round. Later rounds grant
// more items, up to MaxBonuses. Duplicates are allowed.
func GenerateBonuses(rng randutil.Source, round int) []Bonus {
	count := min(2+rng.IntN(2)+round/2, MaxBonuses)
	bonuses := make([]Bonus, count)
	for i := range bonuses {
		bonuses[i] = Bonus{Kind: BonusKinds[rng.IntN(len(BonusKinds))]}
	}
	return bonuses
}

// CountShells tallies live and blank shells.
func CountShells(shells []Shell) (live, blank int) {
	for _, s := range shells {
		if s == Live {
			live++
		} else {
			blank++
		}
	}
	return live, blank
}
