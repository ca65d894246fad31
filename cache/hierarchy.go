package cache

import (
	"fmt"
	"io"
)

// Op selects the kind of access Hierarchy.Access performs.
type Op byte

const (
	// OpRead is a load.
	OpRead Op = 'r'
	// OpWrite is a store.
	OpWrite Op = 'w'
)

// Hierarchy composes a chain of cache levels (L1 -> L2 -> L3 -> backing
// store), optionally with a victim buffer attached to L1, and exposes
// the single Access entry point the trace driver calls.
type Hierarchy struct {
	levels  []*CacheLevel // L1 first
	victim  *CacheLevel   // nil unless TechniqueVictim
	backing BackingStore
}

// LevelConfig describes one level of the hierarchy to build.
type LevelConfig struct {
	Name   string
	Policy Policy
}

// NewHierarchy assembles a hierarchy from top (L1) to bottom, wiring
// each level's lower pointer to the next and the last level's lower to
// nil (so it falls through to backing). technique applies to L1 only,
// technique applies to L1 only. victimPolicy is used only when technique is
// TechniqueVictim.
func NewHierarchy(levelCfgs []LevelConfig, technique Technique, victimPolicy Policy, backing BackingStore) (*Hierarchy, error) {
	if len(levelCfgs) == 0 {
		return nil, fmt.Errorf("cache: hierarchy needs at least one level")
	}

	l1Policy := levelCfgs[0].Policy
	if technique == TechniqueFIFO {
		l1Policy.Associativity = l1Policy.BlockNum
	}

	levels := make([]*CacheLevel, len(levelCfgs))
	var lower *CacheLevel
	for i := len(levelCfgs) - 1; i >= 1; i-- {
		lvl, err := New(levelCfgs[i].Name, levelCfgs[i].Policy, TechniqueNone, lower, backing)
		if err != nil {
			return nil, err
		}
		levels[i] = lvl
		lower = lvl
	}

	l1, err := New(levelCfgs[0].Name, l1Policy, technique, lower, backing)
	if err != nil {
		return nil, err
	}
	levels[0] = l1

	h := &Hierarchy{levels: levels, backing: backing}

	if technique == TechniqueVictim {
		v, err := New("victim", victimPolicy, TechniqueNone, lower, backing)
		if err != nil {
			return nil, err
		}
		h.victim = v
		l1.SetVictim(v)
	}

	return h, nil
}

// L1 returns the top-level cache.
func (h *Hierarchy) L1() *CacheLevel {
	return h.levels[0]
}

// Levels returns every level in the hierarchy, L1 first.
func (h *Hierarchy) Levels() []*CacheLevel {
	return h.levels
}

// Victim returns the attached victim buffer, or nil if none is attached.
func (h *Hierarchy) Victim() *CacheLevel {
	return h.victim
}

// Access performs one trace access (a read or a write; the value written
// is not modeled, only its placement).
func (h *Hierarchy) Access(op Op, addr uint64) error {
	switch op {
	case OpRead:
		h.levels[0].Read(addr)
	case OpWrite:
		h.levels[0].Write(addr, 0)
	default:
		return fmt.Errorf("cache: illegal memory access operation %q", op)
	}
	return nil
}

// PrintStatistics writes the recursive, human-readable statistics report
// restoring the original implementation's printStatistics: L1, then the
// victim buffer if attached, then each lower level in turn down to the
// last level before memory.
func (h *Hierarchy) PrintStatistics(w io.Writer) {
	printLevelStatistics(w, h.levels[0])
	if h.victim != nil {
		printLevelStatistics(w, h.victim)
	}
	for _, lvl := range h.levels[1:] {
		printLevelStatistics(w, lvl)
	}
}

func printLevelStatistics(w io.Writer, lvl *CacheLevel) {
	s := lvl.Stats()
	fmt.Fprintf(w, "-------- %s STATISTICS ----------\n", lvl.Name)
	fmt.Fprintf(w, "Num Read: %d\n", s.NumRead)
	fmt.Fprintf(w, "Num Write: %d\n", s.NumWrite)
	fmt.Fprintf(w, "Num Hit: %d\n", s.NumHit)
	fmt.Fprintf(w, "Num Miss: %d\n", s.NumMiss)
	fmt.Fprintf(w, "Miss Rate: %.2f%%\n", s.MissRate()*100)
	fmt.Fprintf(w, "Total Cycles: %d\n", s.TotalCycles)
}

// SplitHierarchy is the split I/D variant: two equal-size caches sharing the
// backing store, selected per access by a type tag ('I' or 'D'). Writes
// to the instruction cache are no-ops: no statistics, no cycle cost.
type SplitHierarchy struct {
	ICache *CacheLevel
	DCache *CacheLevel
}

// NewSplitHierarchy builds the split I/D variant from a single policy
// shared by both caches.
func NewSplitHierarchy(policy Policy, backing BackingStore) (*SplitHierarchy, error) {
	i, err := New("I", policy, TechniqueNone, nil, backing)
	if err != nil {
		return nil, err
	}
	d, err := New("D", policy, TechniqueNone, nil, backing)
	if err != nil {
		return nil, err
	}
	return &SplitHierarchy{ICache: i, DCache: d}, nil
}

// Access routes a split-trace access to the right cache. Writes to the
// instruction cache are silently dropped.
func (h *SplitHierarchy) Access(op Op, addr uint64, kind byte) error {
	switch kind {
	case 'I':
		if op == OpRead {
			h.ICache.Read(addr)
		}
		// writes to the instruction cache are no-ops
		return nil
	case 'D':
		switch op {
		case OpRead:
			h.DCache.Read(addr)
		case OpWrite:
			h.DCache.Write(addr, 0)
		default:
			return fmt.Errorf("cache: illegal memory access operation %q", op)
		}
		return nil
	default:
		return fmt.Errorf("cache: unknown split trace type %q", kind)
	}
}
