package cachebench

import (
	"bytes"
	"strings"
	"testing"

	"github.com/archlab/cachesim/cache"
)

func TestRunAllCoversEveryWorkloadAndTechnique(t *testing.T) {
	workloads := DefaultWorkloads()
	techniques := []cache.Technique{cache.TechniqueNone, cache.TechniquePrefetch, cache.TechniqueFIFO, cache.TechniqueVictim}

	results, err := RunAll(workloads, techniques)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}

	if len(results) != len(workloads)*len(techniques) {
		t.Fatalf("expected %d results, got %d", len(workloads)*len(techniques), len(results))
	}

	for _, r := range results {
		if r.Stats.NumRead == 0 {
			t.Errorf("%s/%s: expected some reads to be recorded", r.Workload, r.Technique)
		}
		if r.Stats.NumHit+r.Stats.NumMiss != r.Stats.NumRead {
			t.Errorf("%s/%s: hits+misses = %d, want %d", r.Workload, r.Technique,
				r.Stats.NumHit+r.Stats.NumMiss, r.Stats.NumRead)
		}
	}
}

func TestSequentialScanMissesEveryBlock(t *testing.T) {
	// A sequential scan at exactly the block size touches every block
	// once: every access is a miss, since nothing is ever revisited.
	w := SequentialScan(64, 64)
	results, err := RunAll([]Workload{w}, []cache.Technique{cache.TechniqueNone})
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if results[0].Stats.NumMiss != 64 {
		t.Errorf("expected all 64 accesses to miss, got %d misses", results[0].Stats.NumMiss)
	}
}

func TestPrintResultsAndCSV(t *testing.T) {
	results := []Result{
		{Workload: "sequential_scan", Technique: "none", Stats: cache.Statistics{NumRead: 10, NumHit: 8, NumMiss: 2, TotalCycles: 100}},
	}

	var human bytes.Buffer
	PrintResults(&human, results)
	if !strings.Contains(human.String(), "sequential_scan") {
		t.Errorf("expected human-readable output to mention the workload, got %q", human.String())
	}

	var csv bytes.Buffer
	PrintCSV(&csv, results)
	lines := strings.Split(strings.TrimSpace(csv.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected a header and one row, got %q", csv.String())
	}
	if lines[1] != "sequential_scan,none,8,2,20.00,100" {
		t.Errorf("unexpected CSV row: %q", lines[1])
	}
}
