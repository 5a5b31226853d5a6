// Package randutil centralises how RNGs are seeded so every deck shuffle and
// game roll derives from a whitened seed, keeping low-entropy seeds (small
// integers, adjacent timestamps) from producing correlated sequences.
package randutil

import (
	"math/rand"
	"time"
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(int64(mix(uint64(seed)))))
}

// NewFromTime returns a *rand.Rand seeded from the current time.
func NewFromTime() *rand.Rand {
	return New(time.Now().UnixNano())
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
