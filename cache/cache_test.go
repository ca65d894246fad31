package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/archlab/cachesim/cache"
	"github.com/archlab/cachesim/memstore"
)

var _ = Describe("CacheLevel", func() {
	var backing *memstore.Store

	BeforeEach(func() {
		backing = memstore.New()
	})

	Describe("S1: basic hit/miss", func() {
		It("misses on first touch of each address, then hits on repeat", func() {
			policy := cache.Policy{CacheSize: 4, BlockSize: 1, BlockNum: 4, Associativity: 4, HitLatency: 1, MissLatency: 8}
			c, err := cache.New("L1", policy, cache.TechniqueNone, nil, backing)
			Expect(err).NotTo(HaveOccurred())

			c.Read(0)
			c.Read(1)
			c.Read(2)
			c.Read(3)
			c.Read(0)

			Expect(c.Stats().NumMiss).To(Equal(uint64(4)))
			Expect(c.Stats().NumHit).To(Equal(uint64(1)))
		})
	})

	Describe("S2: LRU eviction", func() {
		It("evicts the least recently used block on a conflict", func() {
			policy := cache.Policy{CacheSize: 4, BlockSize: 1, BlockNum: 4, Associativity: 2, HitLatency: 1, MissLatency: 8}
			c, err := cache.New("L1", policy, cache.TechniqueNone, nil, backing)
			Expect(err).NotTo(HaveOccurred())

			c.Read(0)
			c.Read(2)
			c.Read(4) // evicts address 0 (less recently used than 2)
			c.Read(0) // misses again

			Expect(c.Stats().NumMiss).To(Equal(uint64(4)))
			Expect(c.Stats().NumHit).To(Equal(uint64(0)))
		})
	})

	Describe("S3: write-back", func() {
		It("flushes a dirty block to the backing store on eviction", func() {
			policy := cache.Policy{CacheSize: 8, BlockSize: 4, BlockNum: 2, Associativity: 1, HitLatency: 1, MissLatency: 8}
			c, err := cache.New("L1", policy, cache.TechniqueNone, nil, backing)
			Expect(err).NotTo(HaveOccurred())

			c.Write(0, 0)
			c.Read(4)
			c.Read(8) // collides with set 0, evicting the dirty block at 0

			Expect(backing.ReadByte(0)).To(Equal(byte(0)))
		})
	})

	Describe("S4: FIFO vs LRU", func() {
		It("evicts in insertion order, not access order", func() {
			policy := cache.Policy{CacheSize: 192, BlockSize: 64, BlockNum: 3, Associativity: 3, HitLatency: 1, MissLatency: 8}
			c, err := cache.New("L1", policy, cache.TechniqueFIFO, nil, backing)
			Expect(err).NotTo(HaveOccurred())

			c.Read(0)
			c.Read(64)
			c.Read(128)
			c.Read(0) // hits, does not reorder FIFO
			Expect(c.Stats().NumHit).To(Equal(uint64(1)))

			c.Read(192) // evicts address 0 (front of FIFO)
			Expect(c.Contains(0)).To(BeFalse())
			Expect(c.Contains(64)).To(BeTrue())
			Expect(c.Contains(128)).To(BeTrue())
			Expect(c.Contains(192)).To(BeTrue())
		})
	})

	Describe("S5: victim buffer swap", func() {
		It("lifts an evicted line back into L1 on a victim-buffer hit", func() {
			l1Policy := cache.Policy{CacheSize: 128, BlockSize: 64, BlockNum: 2, Associativity: 2, HitLatency: 1, MissLatency: 8}
			victimPolicy := cache.Policy{CacheSize: 128, BlockSize: 64, BlockNum: 2, Associativity: 2, HitLatency: 1, MissLatency: 8}

			l1, err := cache.New("L1", l1Policy, cache.TechniqueVictim, nil, backing)
			Expect(err).NotTo(HaveOccurred())
			victim, err := cache.New("victim", victimPolicy, cache.TechniqueNone, nil, backing)
			Expect(err).NotTo(HaveOccurred())
			l1.SetVictim(victim)

			l1.Read(0)   // A
			l1.Read(64)  // B, fills the only set
			l1.Read(128) // C, evicts A (LRU) into the victim buffer

			missesBeforeSwap := l1.Stats().NumMiss
			hitsBeforeSwap := l1.Stats().NumHit

			l1.Read(0) // A is in the victim buffer: swap, counted as a hit

			Expect(l1.Stats().NumMiss).To(Equal(missesBeforeSwap))
			Expect(l1.Stats().NumHit).To(Equal(hitsBeforeSwap + 1))
			Expect(l1.Contains(0)).To(BeTrue())
		})
	})

	Describe("S6: prefetch arming", func() {
		It("arms after three matching strides and prefetches ahead", func() {
			policy := cache.Policy{CacheSize: 1024, BlockSize: 64, BlockNum: 16, Associativity: 16, HitLatency: 1, MissLatency: 8}
			c, err := cache.New("L1", policy, cache.TechniquePrefetch, nil, backing)
			Expect(err).NotTo(HaveOccurred())

			c.Read(0)
			c.Read(64)
			c.Read(128)
			c.Read(192)
			c.Read(256) // third consecutive matching stride: arms and prefetches 320

			Expect(c.Contains(320)).To(BeTrue())

			missesBefore := c.Stats().NumMiss
			c.Read(320) // should hit because of the prefetch
			Expect(c.Stats().NumMiss).To(Equal(missesBefore))
		})
	})

	Describe("policy validation", func() {
		It("rejects a non-power-of-two cache size", func() {
			policy := cache.Policy{CacheSize: 100, BlockSize: 4, BlockNum: 25, Associativity: 1}
			_, err := cache.New("L1", policy, cache.TechniqueNone, nil, backing)
			Expect(err).To(HaveOccurred())
		})

		It("rejects FIFO on a non-fully-associative cache", func() {
			policy := cache.Policy{CacheSize: 64, BlockSize: 4, BlockNum: 16, Associativity: 4, HitLatency: 1, MissLatency: 8}
			_, err := cache.New("L1", policy, cache.TechniqueFIFO, nil, backing)
			Expect(err).To(HaveOccurred())
		})
	})
})
