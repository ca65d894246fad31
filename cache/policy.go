// Package cache models a set-associative cache hierarchy: per-level
// lookup and replacement, write-back propagation across levels, and the
// stride prefetcher, FIFO replacement, and victim buffer enhancements.
package cache

import (
	"fmt"
	"math/bits"
)

// Policy is the static configuration of one cache level.
type Policy struct {
	// CacheSize is the total capacity in bytes.
	CacheSize int
	// BlockSize is the cache line size in bytes.
	BlockSize int
	// BlockNum is the number of blocks (CacheSize / BlockSize).
	BlockNum int
	// Associativity is the number of ways per set.
	Associativity int
	// HitLatency is the cycle cost of a hit at this level.
	HitLatency uint64
	// MissLatency is the cycle cost of a miss at this level.
	MissLatency uint64
}

// Validate checks the invariants a Policy must satisfy before a
// CacheLevel can be constructed from it. A violation is fatal at
// construction time; no cache is created.
func (p Policy) Validate() error {
	if !isPowerOfTwo(p.CacheSize) {
		return fmt.Errorf("cache: invalid cache size %d, must be a power of two", p.CacheSize)
	}
	if !isPowerOfTwo(p.BlockSize) {
		return fmt.Errorf("cache: invalid block size %d, must be a power of two", p.BlockSize)
	}
	if p.CacheSize%p.BlockSize != 0 {
		return fmt.Errorf("cache: cache size %d not a multiple of block size %d", p.CacheSize, p.BlockSize)
	}
	if p.BlockNum*p.BlockSize != p.CacheSize {
		return fmt.Errorf("cache: block num %d * block size %d != cache size %d", p.BlockNum, p.BlockSize, p.CacheSize)
	}
	if p.Associativity <= 0 || p.BlockNum%p.Associativity != 0 {
		return fmt.Errorf("cache: block num %d not a multiple of associativity %d", p.BlockNum, p.Associativity)
	}
	return nil
}

// NumSets returns the number of sets in the cache (BlockNum / Associativity).
func (p Policy) NumSets() int {
	return p.BlockNum / p.Associativity
}

// FullyAssociative reports whether the policy describes a single-set,
// fully-associative cache (associativity == block count).
func (p Policy) FullyAssociative() bool {
	return p.Associativity == p.BlockNum
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// log2 returns the base-2 logarithm of n, which must be a power of two.
func log2(n int) uint {
	return uint(bits.TrailingZeros(uint(n)))
}

// offsetBits returns the number of address bits consumed by the
// within-block byte offset.
func (p Policy) offsetBits() uint {
	return log2(p.BlockSize)
}

// setBits returns the number of address bits consumed by the set index.
func (p Policy) setBits() uint {
	return log2(p.NumSets())
}

// decompose splits addr into (tag, setID, offset): offset holds
// the low offsetBits bits, setID the next setBits bits, tag the rest,
// truncated to the remaining 32-offsetBits-setBits bits.
func (p Policy) decompose(addr uint64) (tag uint64, setID int, offset int) {
	ob := p.offsetBits()
	sb := p.setBits()
	offset = int(addr & (uint64(p.BlockSize) - 1))
	setID = int((addr >> ob) & (uint64(p.NumSets()) - 1))
	rest := addr >> (ob + sb)
	tagBits := uint(32) - uint(ob) - uint(sb)
	if tagBits < 64 {
		rest &= (uint64(1) << tagBits) - 1
	}
	tag = rest
	return
}

// blockBaseAddr reconstructs the block-aligned address a (tag, setID)
// pair identifies.
func (p Policy) blockBaseAddr(tag uint64, setID int) uint64 {
	ob := p.offsetBits()
	sb := p.setBits()
	return (tag << (ob + sb)) | (uint64(setID) << ob)
}
