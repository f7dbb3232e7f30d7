package testutil

import (
	"math/rand"
	"sync"
)

// RNG is a seeded random source for reproducible operation sequences.
// It is safe for concurrent use.
type RNG struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewRNG returns an RNG seeded with seed.
func NewRNG(seed int64) *RNG {
	return &RNG{rand: rand.New(rand.NewSource(seed))}
}

// Intn returns a pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Ints returns n pseudo-random numbers in [0,limit) under one lock.
func (r *RNG) Ints(n, limit int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, n)
	for i := range out {
		out[i] = r.rand.Intn(limit)
	}
	return out
}
