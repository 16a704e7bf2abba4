// Package klfm - RNG plumbing for the engine's stochastic decisions.
//
// Every random choice (initial partition shuffle, rebalance ordering,
// mutation, bucket tie-breaks) draws
// from its own engine-local generator, each seeded deterministically
// from Options.Seed via a SplitMix64-style mix. Two engines configured
// identically therefore make identical decisions regardless of wall
// time or scheduling.
package klfm

import "math/rand"

// Stream identifiers for the engine's generator substreams.
const (
	streamInitial uint64 = iota + 1
	streamCoarsen
	streamRebalance
	streamMutate
	streamBuckets
)

// deriveSeed mixes a parent seed and a stream identifier into a new
// 64-bit seed using the canonical SplitMix64 finalizer, giving
// decorrelated substreams from one configuration seed.
//
// Complexity: O(1).
func deriveSeed(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}

// rngFor returns a deterministic generator for the given substream.
// Seed zero is mapped to one so that the zero Options value still
// yields a fixed, documented stream.
func rngFor(seed int64, stream uint64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	return rand.New(rand.NewSource(deriveSeed(seed, stream)))
}
