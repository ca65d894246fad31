package cache

// Statistics holds the monotone per-level counters. The only permitted
// retraction is a victim-buffer swap, which
// decrements NumMiss and increments NumHit together in the same step
// (implemented in CacheLevel by never having incremented NumMiss for
// that access in the first place, which nets to the same totals).
type Statistics struct {
	NumRead     uint64
	NumWrite    uint64
	NumHit      uint64
	NumMiss     uint64
	TotalCycles uint64
}

// MissRate returns NumMiss / (NumHit + NumMiss) as a fraction in [0, 1],
// or 0 if there have been no accesses yet.
func (s Statistics) MissRate() float64 {
	total := s.NumHit + s.NumMiss
	if total == 0 {
		return 0
	}
	return float64(s.NumMiss) / float64(total)
}
