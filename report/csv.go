// Package report writes the hierarchy's CSV outputs: one row per cache
// level for a multi-level run, one row per simulated configuration
// (unified, split) for a split run. Plain
// fmt.Fprintf, not encoding/csv or a third-party CSV library.
package report

import (
	"fmt"
	"io"

	"github.com/archlab/cachesim/cache"
)

// LevelStat is one row of the multi-level CSV report.
type LevelStat struct {
	Name  string
	Stats cache.Statistics
}

// WriteMultiLevel writes the "Level,NumReads,NumWrites,NumHits,NumMisses,
// MissRate,TotalCycles" report, one row per level in the order given.
func WriteMultiLevel(w io.Writer, rows []LevelStat) error {
	if _, err := fmt.Fprintln(w, "Level,NumReads,NumWrites,NumHits,NumMisses,MissRate,TotalCycles"); err != nil {
		return err
	}
	for _, row := range rows {
		s := row.Stats
		_, err := fmt.Fprintf(w, "%s,%d,%d,%d,%d,%.2f,%d\n",
			row.Name, s.NumRead, s.NumWrite, s.NumHit, s.NumMiss, s.MissRate()*100, s.TotalCycles)
		if err != nil {
			return err
		}
	}
	return nil
}

// SingleLevelRow is one row of the single-level CSV report: one
// configuration simulated (unified or split).
type SingleLevelRow struct {
	CacheSize     int
	BlockSize     int
	Associativity int
	MissRate      float64 // fraction in [0, 1]
	TotalCycles   uint64
}

// WriteSingleLevel writes the "cacheSize,blockSize,associativity,
// missRate,totalCycles" report.
func WriteSingleLevel(w io.Writer, rows []SingleLevelRow) error {
	if _, err := fmt.Fprintln(w, "cacheSize,blockSize,associativity,missRate,totalCycles"); err != nil {
		return err
	}
	for _, row := range rows {
		_, err := fmt.Fprintf(w, "%d,%d,%d,%.2f,%d\n",
			row.CacheSize, row.BlockSize, row.Associativity, row.MissRate*100, row.TotalCycles)
		if err != nil {
			return err
		}
	}
	return nil
}
