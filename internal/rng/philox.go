// Package rng provides a counter-based pseudo-random stream: given a
// (threadID, seed) key and a counter, it regenerates the exact same random
// sequence on any rank, on any pass, with no state to checkpoint beyond the
// counter itself. This lets a restarted or redistributed sweep reproduce
// the same per-site random draws as the original run, which a classic
// seeded-and-stepped generator cannot offer once work is split across
// goroutines or machines.
//
// The generator is Philox4x32-10: ten rounds of a Threefry-style bijective
// mix over a 128-bit counter keyed by a 64-bit key, chosen for exactly this
// counter-based property rather than throughput.
package rng

import "math/bits"

const (
	mul0 = 0xD2511F53
	mul1 = 0xCD9E8D57
	weyl0 = 0x9E3779B9
	weyl1 = 0xBB67AE85
	rounds = 10
)

func mulhilo32(a, b uint32) (hi, lo uint32) {
	hi, lo = bits.Mul32(a, b)
	return hi, lo
}

func philox4x32_10(ctr [4]uint32, key [2]uint32) [4]uint32 {
	c := ctr
	k := key
	for i := 0; i < rounds; i++ {
		hi0, lo0 := mulhilo32(mul0, c[0])
		hi1, lo1 := mulhilo32(mul1, c[2])
		c = [4]uint32{hi1 ^ c[1] ^ k[0], lo1, hi0 ^ c[3] ^ k[1], lo0}
		k[0] += weyl0
		k[1] += weyl1
	}
	return c
}

// Stream is a single thread's random draw sequence: fixed key, a kernel-local
// counter that advances each time the cached block is exhausted, and a
// global counter supplied by the caller (and expected to be bumped once per
// kernel launch, exactly as the source's globalCounter contract requires).
type Stream struct {
	key          [2]uint32
	ctr          [4]uint32
	cachedHi     uint64
	cachedLo     uint64
	haveCached   bool
}

// NewStream builds a stream keyed on (threadID, seed) with the given
// kernel-invocation counter. Each goroutine/site gets its own threadID so
// that streams never collide.
func NewStream(threadID, seed int32, globalCounter uint32) *Stream {
	return &Stream{
		key: [2]uint32{uint32(threadID), uint32(seed)},
		ctr: [4]uint32{0, globalCounter, 0x12345678, 0xabcdef09},
	}
}

func (s *Stream) refill() {
	s.ctr[0]++
	res := philox4x32_10(s.ctr, s.key)
	s.cachedLo = uint64(res[0]) | uint64(res[1])<<32
	s.cachedHi = uint64(res[2]) | uint64(res[3])<<32
	s.haveCached = true
}

// Float64 returns the next uniform random double in the open interval
// (0,1), never touching either endpoint.
func (s *Stream) Float64() float64 {
	if !s.haveCached {
		s.refill()
		return u01OpenOpen64(s.cachedHi)
	}
	s.haveCached = false
	return u01OpenOpen64(s.cachedLo)
}

// u01OpenOpen64 maps a 64-bit integer to a double in the open interval
// (0,1) using the top 53 bits (the double mantissa width) offset by half a
// unit in the last place, so neither 0 nor 1 is ever reachable.
func u01OpenOpen64(x uint64) float64 {
	const scale = 1.0 / 9007199254740992.0 // 2^-53
	top53 := x >> 11
	return (float64(top53) + 0.5) * scale
}

// u01OpenOpen32 is the single-precision-width counterpart, mapping a 32-bit
// integer to an open-open (0,1) value using 24 mantissa bits.
func u01OpenOpen32(x uint32) float64 {
	const scale = 1.0 / 16777216.0 // 2^-24
	top24 := x >> 8
	return (float64(top24) + 0.5) * scale
}
