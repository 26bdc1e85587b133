package sim

import (
	"math/rand"
	"time"
)

// Rand is the randomness capability the engine draws from. *math/rand.Rand
// satisfies it; tests substitute a scripted source for determinism.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// NewRand builds a seeded source. Seed 0 means "seed from the wall clock",
// which is what the live service wants; replay/export pass an explicit seed
// for reproducible runs.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

var _ Rand = (*rand.Rand)(nil)
