package cache

// prefetcher holds the stride-detector state for one cache level. Three
// consecutive strides that each equal the stride before them arm it;
// three consecutive strides that each differ from the one before disarm it.
type prefetcher struct {
	prevAddr   uint64
	prevStride uint64
	sameStreak int
	diffStreak int
	on         bool
}

// handlePrefetch runs the stride detector for addr and issues speculative
// loads as needed. Called before lookup on every access when the level's
// technique is TechniquePrefetch.
func (c *CacheLevel) handlePrefetch(addr uint64) {
	p := &c.pf

	stride := addr - p.prevAddr
	if stride == p.prevStride {
		p.sameStreak++
		p.diffStreak = 0
	} else {
		p.sameStreak = 0
		p.diffStreak++
	}
	p.prevAddr = addr
	p.prevStride = stride

	if !p.on && p.sameStreak >= 3 {
		p.on = true
	}
	if p.on && p.diffStreak >= 3 {
		p.on = false
	}
	if p.on {
		c.prefetch(addr + stride)
	}
}

// prefetch ensures the target page exists in the backing store, then
// loads the containing block into this level if it is not already
// resident. It never touches this access's hit/miss counters, though the
// recursive load it triggers adds the usual miss_latency at whatever
// level actually misses.
func (c *CacheLevel) prefetch(addr uint64) {
	if !c.backing.PageExists(addr) {
		c.backing.AddPage(addr)
	}
	if c.Contains(addr) {
		return
	}
	c.loadBlockFromLowerLevel(addr)
}
