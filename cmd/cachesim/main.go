// Package main provides the entry point for cachesim, a trace-driven
// simulator of a multi-level set-associative cache hierarchy.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/archlab/cachesim/cache"
	"github.com/archlab/cachesim/memstore"
	"github.com/archlab/cachesim/report"
	"github.com/archlab/cachesim/simconfig"
	"github.com/archlab/cachesim/trace"
)

var (
	prefetch   = flag.Bool("p", false, "enable the stride hardware prefetcher on L1")
	fifo       = flag.Bool("f", false, "use FIFO replacement on a fully-associative L1")
	victim     = flag.Bool("v", false, "attach a victim buffer to L1")
	split      = flag.Bool("split", false, "simulate the split I/D single-level variant")
	configPath = flag.String("config", "", "path to a simconfig JSON file (defaults to the reference configuration)")
	verbose    = flag.Bool("verbose", false, "print a human-readable statistics report in addition to the CSV")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: cachesim [options] <trace-file>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := checkTechniqueFlags(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tracePath := flag.Arg(0)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	var exitCode int
	if *split {
		exitCode = runSplit(tracePath)
	} else {
		exitCode = runMultiLevel(cfg, tracePath)
	}
	os.Exit(exitCode)
}

func checkTechniqueFlags() error {
	n := 0
	if *prefetch {
		n++
	}
	if *fifo {
		n++
	}
	if *victim {
		n++
	}
	if n > 1 {
		return fmt.Errorf("-p, -f, and -v are mutually exclusive")
	}
	return nil
}

func loadConfig() (*simconfig.Config, error) {
	if *configPath != "" {
		return simconfig.Load(*configPath)
	}
	return simconfig.Default(), nil
}

func technique() cache.Technique {
	switch {
	case *prefetch:
		return cache.TechniquePrefetch
	case *fifo:
		return cache.TechniqueFIFO
	case *victim:
		return cache.TechniqueVictim
	default:
		return cache.TechniqueNone
	}
}

func runMultiLevel(cfg *simconfig.Config, tracePath string) int {
	backing := memstore.New()
	levelCfgs := []cache.LevelConfig{
		{Name: "L1", Policy: cfg.L1.Policy()},
		{Name: "L2", Policy: cfg.L2.Policy()},
		{Name: "L3", Policy: cfg.L3.Policy()},
	}

	h, err := cache.NewHierarchy(levelCfgs, technique(), cfg.Victim.Policy(), backing)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building cache hierarchy: %v\n", err)
		return 1
	}

	r, err := trace.OpenMultiLevel(tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening trace: %v\n", err)
		return 1
	}
	defer r.Close()

	for {
		a, err := r.Next()
		if err != nil {
			if err != io.EOF {
				fmt.Fprintf(os.Stderr, "Error reading trace: %v\n", err)
				return 1
			}
			break
		}
		if err := h.Access(cache.Op(a.Op), a.Addr); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if *verbose {
		h.PrintStatistics(os.Stdout)
		for _, lvl := range h.Levels() {
			fmt.Println(lvl.Describe(true))
		}
		if v := h.Victim(); v != nil {
			fmt.Println(v.Describe(true))
		}
	}

	levels := h.Levels()
	rows := []report.LevelStat{{Name: levels[0].Name, Stats: levels[0].Stats()}}
	if v := h.Victim(); v != nil {
		rows = append(rows, report.LevelStat{Name: v.Name, Stats: v.Stats()})
	}
	for _, lvl := range levels[1:] {
		rows = append(rows, report.LevelStat{Name: lvl.Name, Stats: lvl.Stats()})
	}

	out := strings.TrimSuffix(tracePath, suffixOf(tracePath)) + "_multi_level.csv"
	f, err := os.Create(out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		return 1
	}
	defer f.Close()

	if err := report.WriteMultiLevel(f, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
		return 1
	}

	return 0
}

// runSplit simulates the two single-level configurations, unified then
// split, each over its own fresh backing store and its own pass over
// the trace file, and writes one combined row per configuration.
func runSplit(tracePath string) int {
	unified, err := cache.New("unified", simconfig.DefaultUnifiedPolicy(), cache.TechniqueNone, nil, memstore.New())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building unified cache: %v\n", err)
		return 1
	}

	ur, err := trace.OpenSplit(tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening trace: %v\n", err)
		return 1
	}

	for {
		a, err := ur.NextUnified()
		if err != nil {
			if err != io.EOF {
				fmt.Fprintf(os.Stderr, "Error reading trace: %v\n", err)
				ur.Close()
				return 1
			}
			break
		}
		switch cache.Op(a.Op) {
		case cache.OpRead:
			unified.Read(a.Addr)
		case cache.OpWrite:
			unified.Write(a.Addr, 0)
		}
	}
	ur.Close()

	if *verbose {
		fmt.Println(unified.Describe(true))
	}

	h, err := cache.NewSplitHierarchy(simconfig.DefaultSplitPolicy(), memstore.New())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building split cache: %v\n", err)
		return 1
	}

	sr, err := trace.OpenSplit(tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening trace: %v\n", err)
		return 1
	}
	defer sr.Close()

	for {
		a, err := sr.Next()
		if errors.Is(err, trace.ErrSkip) {
			fmt.Fprintf(os.Stderr, "Skipping malformed trace record: %v\n", err)
			continue
		}
		if err != nil {
			if err != io.EOF {
				fmt.Fprintf(os.Stderr, "Error reading trace: %v\n", err)
				return 1
			}
			break
		}
		if err := h.Access(cache.Op(a.Op), a.Addr, a.Kind); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if *verbose {
		fmt.Println(h.ICache.Describe(true))
		fmt.Println(h.DCache.Describe(true))
	}

	rows := []report.SingleLevelRow{
		singleLevelRow(unified),
		combinedSplitRow(h),
	}

	out := strings.TrimSuffix(tracePath, suffixOf(tracePath)) + ".csv"
	f, err := os.Create(out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		return 1
	}
	defer f.Close()

	if err := report.WriteSingleLevel(f, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
		return 1
	}

	return 0
}

func singleLevelRow(c *cache.CacheLevel) report.SingleLevelRow {
	p := c.Policy()
	s := c.Stats()
	return report.SingleLevelRow{
		CacheSize:     p.CacheSize,
		BlockSize:     p.BlockSize,
		Associativity: p.Associativity,
		MissRate:      s.MissRate(),
		TotalCycles:   s.TotalCycles,
	}
}

// combinedSplitRow merges the I and D caches' statistics into the single
// row the original implementation reports for the split configuration:
// hits and misses summed, total cycles taken as the max of the two
// (they run in parallel), and cache size doubled to cover both halves.
func combinedSplitRow(h *cache.SplitHierarchy) report.SingleLevelRow {
	ip, is := h.ICache.Policy(), h.ICache.Stats()
	dp, ds := h.DCache.Policy(), h.DCache.Stats()

	hits := is.NumHit + ds.NumHit
	misses := is.NumMiss + ds.NumMiss
	missRate := 0.0
	if total := hits + misses; total > 0 {
		missRate = float64(misses) / float64(total)
	}
	cycles := is.TotalCycles
	if ds.TotalCycles > cycles {
		cycles = ds.TotalCycles
	}

	return report.SingleLevelRow{
		CacheSize:     ip.CacheSize + dp.CacheSize,
		BlockSize:     ip.BlockSize,
		Associativity: ip.Associativity,
		MissRate:      missRate,
		TotalCycles:   cycles,
	}
}

// suffixOf returns the filename extension of a trace path (including the
// leading dot), or "" if it has none, so output files replace rather than
// append to an existing extension.
func suffixOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 || strings.ContainsRune(path[i:], '/') || strings.ContainsRune(path[i:], os.PathSeparator) {
		return ""
	}
	return path[i:]
}
