// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package dice provides a seedable random source that is safe for concurrent
// use. Given the same seed, a Source produces the same sequence of values.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"

	"github.com/samber/oops"
)

// Source is a concurrency-safe PCG random source.
type Source struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New creates a Source seeded with seed.
func New(seed uint64) *Source {
	return &Source{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandom creates a Source from a cryptographically random seed and
// returns the seed so a run can be reproduced.
func NewRandom() (*Source, uint64, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, 0, err
	}
	return New(seed), seed, nil
}

// NewSeed generates a seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, oops.Code("DICE_SEED_FAILED").Wrapf(err, "read random seed")
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// IntN returns a uniform value in [0, n). It panics if n <= 0.
func (s *Source) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// Float64 returns a uniform value in [0.0, 1.0).
func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// Roll rolls one die with the given number of sides.
func (s *Source) Roll(sides int) int {
	return s.IntN(sides) + 1
}

// Pool rolls count dice with the given number of sides. A count below one
// yields an empty pool.
func (s *Source) Pool(count, sides int) []int {
	if count <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, count)
	for i := range out {
		out[i] = s.r.IntN(sides) + 1
	}
	return out
}
