// Package rng provides the seeded generators every deterministic component
// builds on. All arithmetic is fixed-width unsigned with wraparound so that
// two processes (or two implementations) given the same seed produce the
// same stream bit for bit.
package rng

// FNV-1a 32-bit parameters.
const (
	fnvBasis uint32 = 2166136261
	fnvPrime uint32 = 16777619
)

// Hash folds a seed string into a 32-bit value (FNV-1a). An empty string
// yields the basis constant, which is non-zero, so every seed produces a
// usable stream.
func Hash(seed string) uint32 {
	h := fnvBasis
	for i := 0; i < len(seed); i++ {
		h ^= uint32(seed[i])
		h *= fnvPrime
	}
	return h
}

// Source is a linear congruential generator over 2^32.
type Source struct {
	state uint32
}

// New returns a Source seeded with s. Seed 0 is replaced with 1; the LCG
// would otherwise emit a degenerate stream.
func New(s uint32) *Source {
	if s == 0 {
		s = 1
	}
	return &Source{state: s}
}

// Float64 advances the generator and returns a value in [0,1).
func (s *Source) Float64() float64 {
	s.state = s.state*1664525 + 1013904223
	return float64(s.state) / 4294967296.0
}

// ShuffleSource is the simpler LCG used for Fisher-Yates passes
// (s = (s*9301+49297) mod 233280).
type ShuffleSource struct {
	state uint32
}

// NewShuffle returns a ShuffleSource seeded with s.
func NewShuffle(s uint32) *ShuffleSource {
	return &ShuffleSource{state: s % 233280}
}

// Intn advances the generator and returns an index in [0,n).
func (s *ShuffleSource) Intn(n int) int {
	s.state = (s.state*9301 + 49297) % 233280
	return int(float64(s.state) / 233280.0 * float64(n))
}
