package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Technique selects an optional enhancement applied to a CacheLevel.
type Technique int

const (
	// TechniqueNone runs the level with plain LRU replacement.
	TechniqueNone Technique = iota
	// TechniquePrefetch enables the stride hardware prefetcher.
	TechniquePrefetch
	// TechniqueFIFO reconfigures the level to fully-associative FIFO
	// replacement.
	TechniqueFIFO
	// TechniqueVictim attaches a victim buffer to the level.
	TechniqueVictim
)

func (t Technique) String() string {
	switch t {
	case TechniquePrefetch:
		return "prefetch"
	case TechniqueFIFO:
		return "fifo"
	case TechniqueVictim:
		return "victim"
	default:
		return "none"
	}
}

// BackingStore is the demand-paged memory the bottom of the hierarchy
// reads from and writes to. Every level holds a reference to it (not
// just the lowest), since the stride prefetcher needs to ensure a page
// exists before speculatively loading from it.
type BackingStore interface {
	// PageExists reports whether the page containing addr has been
	// touched before.
	PageExists(addr uint64) bool
	// AddPage creates the page containing addr, zero-filled.
	AddPage(addr uint64)
	// ReadByte reads one uncached byte.
	ReadByte(addr uint64) byte
	// WriteByte writes one uncached byte.
	WriteByte(addr uint64, val byte)
}

// CacheLevel is a set-associative cache: a Policy, a directory of
// valid/dirty/tag/way state (backed by akita's mem/cache directory),
// a parallel byte store, and per-level statistics.
type CacheLevel struct {
	// Name identifies the level for reporting (e.g. "L1", "victim").
	Name string

	policy    Policy
	technique Technique

	dir    *akitacache.DirectoryImpl
	finder akitacache.VictimFinder
	fifo   *fifoQueue

	dataStore [][]byte
	lastRef   map[*akitacache.Block]uint64
	refCount  uint64

	stats Statistics

	lower   *CacheLevel
	victim  *CacheLevel
	backing BackingStore

	pf prefetcher
}

// New constructs a CacheLevel. lower is the next level toward memory
// (nil at the bottom of the hierarchy, in which case backing is used
// directly); backing is always required, since every level may need to
// ensure a page exists for the prefetcher.
func New(name string, policy Policy, technique Technique, lower *CacheLevel, backing BackingStore) (*CacheLevel, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if technique == TechniqueFIFO && !policy.FullyAssociative() {
		return nil, fmt.Errorf(
			"cache %s: FIFO technique requires a fully-associative cache (associativity %d, %d blocks)",
			name, policy.Associativity, policy.BlockNum)
	}
	if backing == nil {
		return nil, fmt.Errorf("cache %s: backing store is required", name)
	}

	c := &CacheLevel{
		Name:      name,
		policy:    policy,
		technique: technique,
		lower:     lower,
		backing:   backing,
		lastRef:   make(map[*akitacache.Block]uint64),
	}

	if technique == TechniqueFIFO {
		c.fifo = &fifoQueue{}
		c.finder = newFIFOFinder(c.fifo)
	} else {
		c.finder = newLastRefFinder(c)
	}

	c.dir = akitacache.NewDirectory(policy.NumSets(), policy.Associativity, policy.BlockSize, c.finder)

	c.dataStore = make([][]byte, policy.BlockNum)
	for i := range c.dataStore {
		c.dataStore[i] = make([]byte, policy.BlockSize)
	}

	return c, nil
}

// SetVictim attaches a fully-associative victim buffer to this level.
// Only meaningful when technique is TechniqueVictim.
func (c *CacheLevel) SetVictim(v *CacheLevel) {
	c.victim = v
}

// Policy returns the level's configuration.
func (c *CacheLevel) Policy() Policy {
	return c.policy
}

// Stats returns a snapshot of the level's statistics.
func (c *CacheLevel) Stats() Statistics {
	return c.stats
}

// lastReferenceOf implements referenceTracker for lastRefFinder.
func (c *CacheLevel) lastReferenceOf(b *akitacache.Block) uint64 {
	return c.lastRef[b]
}

func (c *CacheLevel) blockIndex(b *akitacache.Block) int {
	return b.SetID*c.policy.Associativity + b.WayID
}

func (c *CacheLevel) lookupInSet(set *akitacache.Set, tag uint64) *akitacache.Block {
	for _, b := range set.Blocks {
		if b.IsValid && b.Tag == tag {
			return b
		}
	}
	return nil
}

// Contains reports whether addr is resident with a valid, matching tag.
func (c *CacheLevel) Contains(addr uint64) bool {
	tag, setID, _ := c.policy.decompose(addr)
	return c.lookupInSet(&c.dir.GetSets()[setID], tag) != nil
}

// Read performs a user read: increments statistics, advances the
// reference counter, and resolves the byte at addr.
func (c *CacheLevel) Read(addr uint64) byte {
	return c.getByte(addr, true)
}

// Write performs a user write: write-allocate + write-back.
func (c *CacheLevel) Write(addr uint64, val byte) {
	c.setByte(addr, val, true)
}

// getByte is the internal read entry point, used both externally and
// recursively when a higher level fills from this one. count controls
// whether hit/miss and cycle statistics are updated.
func (c *CacheLevel) getByte(addr uint64, count bool) byte {
	if count {
		c.stats.NumRead++
		c.refCount++
	}

	if c.technique == TechniquePrefetch {
		c.handlePrefetch(addr)
	}

	tag, setID, offset := c.policy.decompose(addr)
	set := &c.dir.GetSets()[setID]

	if block := c.lookupInSet(set, tag); block != nil {
		c.lastRef[block] = c.refCount
		if count {
			c.stats.NumHit++
			c.stats.TotalCycles += c.policy.HitLatency
		}
		return c.dataStore[c.blockIndex(block)][offset]
	}

	if c.technique == TechniqueVictim && c.victim != nil {
		if vb := c.victim.lookupVictim(addr); vb != nil {
			return c.swapFromVictim(addr, vb, count, false, 0)
		}
	}

	if count {
		c.stats.NumMiss++
		c.stats.TotalCycles += c.policy.MissLatency
	}

	c.loadBlockFromLowerLevel(addr)
	tag, setID, offset = c.policy.decompose(addr)
	block := c.lookupInSet(&c.dir.GetSets()[setID], tag)
	c.lastRef[block] = c.refCount
	return c.dataStore[c.blockIndex(block)][offset]
}

// setByte is the internal write entry point. Writebacks never call
// setByte downward with count=true: they bypass statistics.
func (c *CacheLevel) setByte(addr uint64, val byte, count bool) {
	if count {
		c.stats.NumWrite++
		c.refCount++
	}

	if c.technique == TechniquePrefetch {
		c.handlePrefetch(addr)
	}

	tag, setID, offset := c.policy.decompose(addr)
	set := &c.dir.GetSets()[setID]

	if block := c.lookupInSet(set, tag); block != nil {
		block.IsDirty = true
		c.lastRef[block] = c.refCount
		c.dataStore[c.blockIndex(block)][offset] = val
		if count {
			c.stats.NumHit++
			c.stats.TotalCycles += c.policy.HitLatency
		}
		return
	}

	if c.technique == TechniqueVictim && c.victim != nil {
		if vb := c.victim.lookupVictim(addr); vb != nil {
			c.swapFromVictim(addr, vb, count, true, val)
			return
		}
	}

	if count {
		c.stats.NumMiss++
		c.stats.TotalCycles += c.policy.MissLatency
	}

	c.loadBlockFromLowerLevel(addr)
	tag, setID, offset = c.policy.decompose(addr)
	block := c.lookupInSet(&c.dir.GetSets()[setID], tag)
	block.IsDirty = true
	c.lastRef[block] = c.refCount
	c.dataStore[c.blockIndex(block)][offset] = val
}

// lookupVictim looks a block up by address without touching statistics,
// used by L1 to consult its attached victim buffer.
func (c *CacheLevel) lookupVictim(addr uint64) *akitacache.Block {
	tag, setID, _ := c.policy.decompose(addr)
	return c.lookupInSet(&c.dir.GetSets()[setID], tag)
}

// swapFromVictim lifts a block found resident in the victim buffer back
// into this level, swapping it with the current replacement candidate in
// the requested set.
func (c *CacheLevel) swapFromVictim(addr uint64, vb *akitacache.Block, count, isWrite bool, val byte) byte {
	victimData := make([]byte, c.policy.BlockSize)
	copy(victimData, c.victim.dataStore[c.victim.blockIndex(vb)])
	victimDirty := vb.IsDirty
	vb.IsValid = false

	tag, setID, offset := c.policy.decompose(addr)
	set := &c.dir.GetSets()[setID]
	r := c.finder.FindVictim(set)

	if r.IsValid {
		rData := make([]byte, c.policy.BlockSize)
		copy(rData, c.dataStore[c.blockIndex(r)])
		c.victim.insertBlock(c.policy.blockBaseAddr(r.Tag, r.SetID), rData, r.IsDirty)
	}

	r.Tag = tag
	r.SetID = setID
	r.IsValid = true
	r.IsDirty = isWrite || victimDirty
	copy(c.dataStore[c.blockIndex(r)], victimData)
	if isWrite {
		c.dataStore[c.blockIndex(r)][offset] = val
	}
	c.lastRef[r] = c.refCount

	if count {
		c.stats.NumHit++
		c.stats.TotalCycles += c.victim.policy.HitLatency + c.policy.HitLatency
	}

	if isWrite {
		return val
	}
	return victimData[offset]
}

// insertBlock installs the block based at addr (data/dirty) directly into
// this (fully associative, single-set) victim buffer, evicting a resident per its
// own replacement policy (always lastRefFinder — see Hierarchy, which
// never attaches a victim buffer with any other technique). Dirty
// evictees are always written back to the common lower level.
func (c *CacheLevel) insertBlock(addr uint64, data []byte, dirty bool) {
	tag, _, _ := c.policy.decompose(addr)
	c.refCount++
	set := &c.dir.GetSets()[0]
	victim := c.finder.FindVictim(set)

	if victim.IsValid && victim.IsDirty {
		evictAddr := c.policy.blockBaseAddr(victim.Tag, 0)
		c.writeBytesToLower(evictAddr, c.dataStore[c.blockIndex(victim)])
	}

	victim.Tag = tag
	victim.SetID = 0
	victim.IsValid = true
	victim.IsDirty = dirty
	copy(c.dataStore[c.blockIndex(victim)], data)
	c.lastRef[victim] = c.refCount
}

// loadBlockFromLowerLevel fetches a full block containing addr from the
// lower level (or the backing store, at the bottom of the hierarchy),
// evicts the chosen replacement, and installs the new block.
func (c *CacheLevel) loadBlockFromLowerLevel(addr uint64) {
	blockBase := addr &^ (uint64(c.policy.BlockSize) - 1)
	data := make([]byte, c.policy.BlockSize)
	for i := 0; i < c.policy.BlockSize; i++ {
		a := blockBase + uint64(i)
		first := i == 0
		if c.lower == nil {
			if !c.backing.PageExists(a) {
				c.backing.AddPage(a)
			}
			data[i] = c.backing.ReadByte(a)
		} else {
			data[i] = c.lower.getByte(a, first)
		}
	}

	tag, setID, _ := c.policy.decompose(addr)
	set := &c.dir.GetSets()[setID]
	r := c.finder.FindVictim(set)

	if c.technique == TechniqueFIFO {
		c.fifo.push(r)
	}

	if r.IsValid {
		if c.technique == TechniqueVictim && c.victim != nil {
			rData := make([]byte, c.policy.BlockSize)
			copy(rData, c.dataStore[c.blockIndex(r)])
			c.victim.insertBlock(c.policy.blockBaseAddr(r.Tag, r.SetID), rData, r.IsDirty)
		} else if r.IsDirty {
			rAddr := c.policy.blockBaseAddr(r.Tag, r.SetID)
			c.writeBytesToLower(rAddr, c.dataStore[c.blockIndex(r)])
			c.stats.TotalCycles += c.policy.MissLatency
		}
	}

	r.Tag = tag
	r.SetID = setID
	r.IsValid = true
	r.IsDirty = false
	copy(c.dataStore[c.blockIndex(r)], data)
	c.lastRef[r] = c.refCount
}

// writeBytesToLower pushes data down to the lower level (or backing
// store) as ordinary, uncounted stores.
func (c *CacheLevel) writeBytesToLower(addr uint64, data []byte) {
	for i, b := range data {
		a := addr + uint64(i)
		if c.lower == nil {
			c.backing.WriteByte(a, b)
		} else {
			c.lower.setByte(a, b, false)
		}
	}
}

// Describe returns a human-readable policy/state dump, restoring the
// original implementation's printInfo. It never mutates statistics.
func (c *CacheLevel) Describe(verbose bool) string {
	s := fmt.Sprintf(
		"---------- %s Cache Info -----------\nCache Size: %d bytes\nBlock Size: %d bytes\nBlock Num: %d\nAssociativity: %d\nHit Latency: %d\nMiss Latency: %d\n",
		c.Name, c.policy.CacheSize, c.policy.BlockSize, c.policy.BlockNum, c.policy.Associativity,
		c.policy.HitLatency, c.policy.MissLatency)
	if !verbose {
		return s
	}
	for _, set := range c.dir.GetSets() {
		for _, b := range set.Blocks {
			valid := "invalid"
			if b.IsValid {
				valid = "valid"
			}
			dirty := "clean"
			if b.IsDirty {
				dirty = "dirty"
			}
			s += fmt.Sprintf("  block set=%d way=%d tag=0x%x %s %s (last ref %d)\n",
				b.SetID, b.WayID, b.Tag, valid, dirty, c.lastRef[b])
		}
	}
	return s
}
