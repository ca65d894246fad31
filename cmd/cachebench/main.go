// Command cachebench runs the cache hierarchy benchmark harness.
//
// Usage:
//
//	go run ./cmd/cachebench [flags]
//
// Flags:
//
//	-csv  Output results in CSV format (default: human-readable)
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/archlab/cachesim/cache"
	"github.com/archlab/cachesim/cachebench"
)

func main() {
	csvOutput := flag.Bool("csv", false, "output results in CSV format")
	flag.Parse()

	workloads := cachebench.DefaultWorkloads()
	techniques := []cache.Technique{
		cache.TechniqueNone,
		cache.TechniquePrefetch,
		cache.TechniqueFIFO,
		cache.TechniqueVictim,
	}

	results, err := cachebench.RunAll(workloads, techniques)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running benchmarks: %v\n", err)
		os.Exit(1)
	}

	if *csvOutput {
		cachebench.PrintCSV(os.Stdout, results)
	} else {
		cachebench.PrintResults(os.Stdout, results)
	}
}
