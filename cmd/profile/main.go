// Package main provides a profiling wrapper that replays a trace or a
// built-in workload through the cache to find hot spots in the policies.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/replsim/benchmarks"
	"github.com/sarchlab/replsim/timing/cache"
	"github.com/sarchlab/replsim/timing/replacement"
	"github.com/sarchlab/replsim/trace"
)

var (
	policyName = flag.String("policy", "perceptron", "Replacement policy to profile")
	workload   = flag.String("workload", "thrashing_loop", "Built-in workload to replay when no trace is given")
	repeat     = flag.Int("repeat", 10, "Number of times to replay the records")
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	duration   = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	maxRecords = flag.Int("max-records", 0, "max records to replay per pass (0 = unlimited)")
)

func main() {
	flag.Parse()

	kind, err := replacement.ParseKind(*policyName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	config := benchmarks.BenchmarkCacheConfig()
	config.Policy = kind

	records, source, err := loadRecords(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading records: %v\n", err)
		os.Exit(1)
	}
	if *maxRecords > 0 && len(records) > *maxRecords {
		records = records[:*maxRecords]
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	fmt.Printf("Source: %s (%d records x %d)\n", source, len(records), *repeat)
	fmt.Printf("Policy: %s\n", kind)

	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
		os.Exit(2)
	}()

	c, err := cache.New(config, cache.NewMemoryBacking(cache.NewSparseMemory()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating cache: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	for i := 0; i < *repeat; i++ {
		benchmarks.Replay(c, records)
	}
	elapsed := time.Since(start)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	stats := c.Stats()
	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Accesses: %d\n", stats.Accesses())
	fmt.Printf("Hit rate: %.2f%%\n", stats.HitRate()*100)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if stats.Accesses() > 0 {
		fmt.Printf("Accesses/second: %.0f\n", float64(stats.Accesses())/elapsed.Seconds())
	}
}

// loadRecords reads the trace named on the command line, or generates the
// selected built-in workload.
func loadRecords(config cache.Config) ([]trace.Record, string, error) {
	if flag.NArg() > 0 {
		records, err := trace.Load(flag.Arg(0))
		return records, flag.Arg(0), err
	}

	for _, w := range benchmarks.GetWorkloads(config) {
		if w.Name == *workload {
			return w.Generate(), w.Name, nil
		}
	}
	return nil, "", fmt.Errorf("unknown workload %q", *workload)
}
