package shotgun

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorgames/parlor/internal/randutil"
)

func TestGenerateShellsBounds(t *testing.T) {
	t.Parallel()

	for seed := int64(0); seed < 200; seed++ {
		rng := randutil.New(seed)
		for round := 1; round <= 5; round++ {
			shells := GenerateShells(rng, round)
			lo, hi := ShellCountRange(round)
			live, blank := CountShells(shells)

			require.GreaterOrEqual(t, len(shells), lo, "seed %d round %d", seed, round)
			require.LessOrEqual(t, len(shells), hi, "seed %d round %d", seed, round)
			require.GreaterOrEqual(t, live, 1)
			require.GreaterOrEqual(t, blank, 1)
			require.Equal(t, len(shells), live+blank)
		}
	}
}

func TestShellCountRangeGrowsWithRound(t *testing.T) {
	t.Parallel()

	lo, hi := ShellCountRange(1)
	assert.Equal(t, 4, lo)
	assert.Equal(t, 7, hi)

	lo, hi = ShellCountRange(3)
	assert.Equal(t, 6, lo)
	assert.Equal(t, 9, hi)
}

func TestGenerateShellsShuffleKeepsComposition(t *testing.T) {
	t.Parallel()

	// First draw picks the size (2 -> 6 shells in round 1), the second the
	// live count (1 -> 2 live). The rest drive the shuffle.
	rng := randutil.NewSequence(2, 1, 4, 0, 3, 1, 2)
	shells := GenerateShells(rng, 1)

	require.Len(t, shells, 6)
	live, blank := CountShells(shells)
	assert.Equal(t, 2, live)
	assert.Equal(t, 4, blank)
}

func TestGenerateShellsIsReproducible(t *testing.T) {
	t.Parallel()

	a := GenerateShells(randutil.New(99), 2)
	b := GenerateShells(randutil.New(99), 2)
	assert.Equal(t, a, b)
}

func TestGenerateBonuses(t *testing.T) {
	t.Parallel()

	t.Run("round one grants two or three", func(t *testing.T) {
		rng := randutil.New(5)
		for range 100 {
			n := len(GenerateBonuses(rng, 1))
			require.True(t, n == 2 || n == 3, "got %d", n)
		}
	})

	t.Run("later rounds are capped", func(t *testing.T) {
		rng := randutil.New(6)
		for range 100 {
			require.Len(t, GenerateBonuses(rng, 8), MaxBonuses)
		}
	})

	t.Run("fresh items are unused and valid", func(t *testing.T) {
		rng := randutil.New(7)
		for _, b := range GenerateBonuses(rng, 4) {
			assert.False(t, b.Used)
			assert.Less(t, b.Kind, bonusKindCount)
		}
	})

	t.Run("every kind can be drawn", func(t *testing.T) {
		rng := randutil.New(8)
		seen := map[BonusKind]bool{}
		for range 200 {
			for _, b := range GenerateBonuses(rng, 1) {
				seen[b.Kind] = true
			}
		}
		assert.Len(t, seen, len(BonusKinds))
	})
}
