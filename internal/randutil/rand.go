// Package randutil builds the random sources used by the game engines.
//
// Engines never reach for a global generator: every shuffle and bonus draw
// goes through a Source so tests can replay a match from a seed.
package randutil

import (
	rand "math/rand/v2"
	"sync"
	"time"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// Source is the subset of *rand.Rand the engines depend on.
type Source interface {
	IntN(n int) int
}

// New returns a *rand.Rand seeded deterministically from seed.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Seed returns *seed when set, otherwise a time-derived seed. The second
// result reports whether the seed was supplied by the caller.
func Seed(seed *int64) (int64, bool) {
	if seed != nil {
		return *seed, true
	}
	return time.Now().UnixNano(), false
}

// Locked serialises access to a shared generator. The server hands one
// Locked to every room so a single seed reproduces a whole run.
type Locked struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLocked wraps a seeded generator for concurrent use.
func NewLocked(seed int64) *Locked {
	return &Locked{rng: New(seed)}
}

// IntN implements Source.
func (l *Locked) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.IntN(n)
}

// Sequence replays a fixed list of values, wrapping each into [0,n).
// It exists for tests that need to force a specific draw.
type Sequence struct {
	values []int
	next   int
}

// NewSequence returns a Source that yields values in order and then repeats.
func NewSequence(values ...int) *Sequence {
	return &Sequence{values: values}
}

// IntN implements Source.
func (s *Sequence) IntN(n int) int {
	if len(s.values) == 0 || n <= 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	if v < 0 {
		v = -v
	}
	return v % n
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
