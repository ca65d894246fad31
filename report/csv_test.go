package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/archlab/cachesim/cache"
	"github.com/archlab/cachesim/report"
)

func TestWriteMultiLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	rows := []report.LevelStat{
		{Name: "L1", Stats: cache.Statistics{NumRead: 3, NumWrite: 1, NumHit: 2, NumMiss: 2, TotalCycles: 42}},
	}
	if err := report.WriteMultiLevel(buf, rows); err != nil {
		t.Fatalf("WriteMultiLevel: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "Level,NumReads,NumWrites,NumHits,NumMisses,MissRate,TotalCycles" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "L1,3,1,2,2,50.00,42" {
		t.Fatalf("unexpected row: %q", lines[1])
	}
}

func TestWriteMultiLevelZeroDenominator(t *testing.T) {
	buf := &bytes.Buffer{}
	rows := []report.LevelStat{{Name: "L2", Stats: cache.Statistics{}}}
	if err := report.WriteMultiLevel(buf, rows); err != nil {
		t.Fatalf("WriteMultiLevel: %v", err)
	}
	if !strings.Contains(buf.String(), "L2,0,0,0,0,0.00,0") {
		t.Fatalf("expected a zero miss rate row, got %q", buf.String())
	}
}

func TestWriteSingleLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	rows := []report.SingleLevelRow{
		{CacheSize: 1024, BlockSize: 64, Associativity: 4, MissRate: 0.25, TotalCycles: 1000},
	}
	if err := report.WriteSingleLevel(buf, rows); err != nil {
		t.Fatalf("WriteSingleLevel: %v", err)
	}
	if !strings.Contains(buf.String(), "1024,64,4,25.00,1000") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
