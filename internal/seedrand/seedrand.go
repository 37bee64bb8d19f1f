// Package seedrand derives a deterministic pseudo-random fraction from a
// string seed. It backs vantage-date sampling, so the exact scheme is part of
// the persisted data contract: changing any step silently reshuffles every
// previously computed vantage date.
//
// The pinned scheme is:
//
//  1. hash the seed string with FNV-1a 64;
//  2. run the hash through one SplitMix64 finalization step;
//  3. take the top 53 bits and divide by 2^53, yielding a float64 in [0,1).
//
// Both primitives are fixed published constants, so the output is stable
// across architectures, Go versions, and dependency upgrades.
package seedrand

import "hash/fnv"

// Fraction returns the deterministic fraction in [0,1) for the given seed.
func Fraction(seed string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	return float64(splitmix64(h.Sum64())>>11) / (1 << 53)
}

// splitmix64 is the finalization mix of the SplitMix64 generator
// (Steele, Lea, Flood 2014).
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
