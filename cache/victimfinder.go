package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// referenceTracker is the subset of CacheLevel bookkeeping a victim finder
// needs in order to pick a replacement, without giving it write access to
// the rest of the level.
type referenceTracker interface {
	lastReferenceOf(b *akitacache.Block) uint64
}

// lastRefFinder implements exact LRU-by-reference-counter replacement,
// grounded on the shape of ramiab12-perceptron-cache-replacement's
// LRUVictimFinder (check for an empty way first, then delegate) but
// using the level's monotone last_ref counter instead of PseudoLRU bits,
// since exact LRU requires the block with the minimum last_ref, not an
// approximation of it.
type lastRefFinder struct {
	tracker referenceTracker
}

func newLastRefFinder(t referenceTracker) *lastRefFinder {
	return &lastRefFinder{tracker: t}
}

// FindVictim returns the lowest-index invalid block if one exists,
// otherwise the block with the smallest last_ref in the set (ties
// broken by lowest way index, since set.Blocks is way-ordered).
func (f *lastRefFinder) FindVictim(set *akitacache.Set) *akitacache.Block {
	for _, b := range set.Blocks {
		if !b.IsValid {
			return b
		}
	}

	victim := set.Blocks[0]
	min := f.tracker.lastReferenceOf(victim)
	for _, b := range set.Blocks[1:] {
		ref := f.tracker.lastReferenceOf(b)
		if ref < min {
			victim, min = b, ref
		}
	}
	return victim
}

// fifoQueue is the FIFO eviction order for a fully-associative cache. A
// single queue per cache suffices because FIFO is only enabled when the
// cache has exactly one set.
type fifoQueue struct {
	order []*akitacache.Block
}

func (q *fifoQueue) push(b *akitacache.Block) {
	q.order = append(q.order, b)
}

// pop removes and returns the oldest-enqueued block still at the front
// of the queue. It is a precondition that every block
// returned here was enqueued exactly once by a prior install.
func (q *fifoQueue) pop() *akitacache.Block {
	b := q.order[0]
	q.order = q.order[1:]
	return b
}

// fifoFinder implements FIFO replacement: the oldest-installed block in
// the (single) set is evicted, unless an invalid block is available.
type fifoFinder struct {
	queue *fifoQueue
}

func newFIFOFinder(q *fifoQueue) *fifoFinder {
	return &fifoFinder{queue: q}
}

func (f *fifoFinder) FindVictim(set *akitacache.Set) *akitacache.Block {
	for _, b := range set.Blocks {
		if !b.IsValid {
			return b
		}
	}
	return f.queue.pop()
}
