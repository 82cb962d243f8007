package utils

import (
	"golang.org/x/exp/rand"
	"lukechampine.com/frand"
)

// Rand is the randomness used by policies and learners.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// NewRand returns a reproducible source seeded with seed.
func NewRand(seed uint64) Rand {
	return rand.New(rand.NewSource(seed))
}

// DefaultRand returns a fast unseeded source.
func DefaultRand() Rand {
	return frand.New()
}

// Choice returns a uniformly chosen element of items. Panics on an empty slice.
func Choice[T any](r Rand, items []T) T {
	if len(items) == 0 {
		panic("cannot choose from empty slice")
	}
	return items[r.Intn(len(items))]
}

func FindIndex[T comparable](slice []T, item T) int {
	for i, v := range slice {
		if v == item {
			return i
		}
	}
	return -1
}
