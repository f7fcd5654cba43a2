// Package main provides replsim, which streams a memory access trace through
// a simulated cache and reports cache and replacement policy statistics.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/replsim/timing/cache"
	"github.com/sarchlab/replsim/timing/replacement"
	"github.com/sarchlab/replsim/trace"
)

var (
	policyName = flag.String("policy", "", "Replacement policy: lru, random, srrip or perceptron (overrides -config)")
	configPath = flag.String("config", "", "Path to cache configuration JSON file")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: replsim [options] <trace>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	config, err := loadConfig(*configPath, *policyName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading cache config: %v\n", err)
		os.Exit(1)
	}

	tracePath := flag.Arg(0)
	f, err := os.Open(tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening trace: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()

	if *verbose {
		fmt.Printf("Trace: %s\n", tracePath)
		fmt.Printf("Cache: %d KB, %d-way, %dB lines, %d sets\n",
			config.Size/1024, config.Associativity, config.BlockSize, config.NumSets())
		fmt.Printf("Policy: %s\n", config.Policy)
	}

	if err := simulate(f, config, *verbose, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig starts from the default LLC configuration or a JSON file and
// applies the -policy override.
func loadConfig(path, policy string) (cache.Config, error) {
	config := cache.DefaultLLCConfig()
	if path != "" {
		loaded, err := cache.LoadConfig(path)
		if err != nil {
			return cache.Config{}, err
		}
		config = *loaded
	}

	if policy != "" {
		kind, err := replacement.ParseKind(policy)
		if err != nil {
			return cache.Config{}, err
		}
		config.Policy = kind
	}

	return config, config.Validate()
}

// simulate replays every record read from r and writes a report to out.
// verbose adds a summary of the learned predictor state.
func simulate(r io.Reader, config cache.Config, verbose bool, out io.Writer) error {
	c, err := cache.New(config, cache.NewMemoryBacking(cache.NewSparseMemory()))
	if err != nil {
		return err
	}

	reader := trace.NewReader(r)
	var cycles uint64
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading trace: %w", err)
		}

		var result cache.AccessResult
		if rec.Write {
			result = c.Write(rec.PC, rec.Addr, 8, rec.Addr)
		} else {
			result = c.Read(rec.PC, rec.Addr, 8)
		}
		cycles += result.Latency
	}

	stats := c.Stats()
	_, _ = fmt.Fprintf(out, "=== Cache Statistics ===\n")
	_, _ = fmt.Fprintf(out, "  Trace lines: %d\n", reader.Line())
	_, _ = fmt.Fprintf(out, "  Accesses:   %d (reads %d, writes %d)\n", stats.Accesses(), stats.Reads, stats.Writes)
	_, _ = fmt.Fprintf(out, "  Hits:       %d (%.2f%%)\n", stats.Hits, stats.HitRate()*100)
	_, _ = fmt.Fprintf(out, "  Misses:     %d (%.2f%%)\n", stats.Misses, stats.MissRate()*100)
	_, _ = fmt.Fprintf(out, "  Bypasses:   %d\n", stats.Bypasses)
	_, _ = fmt.Fprintf(out, "  Evictions:  %d\n", stats.Evictions)
	_, _ = fmt.Fprintf(out, "  Writebacks: %d\n", stats.Writebacks)
	_, _ = fmt.Fprintf(out, "  Cycles:     %d\n", cycles)
	_, _ = fmt.Fprintln(out)

	replacement.FormatStats(out, c.Policy().Kind(), c.Policy().Stats())

	if p, ok := c.Policy().(*replacement.Perceptron); ok && verbose {
		dumpPredictor(out, p)
	}

	return nil
}

// dumpPredictor prints, per weight table, how many entries have moved off
// zero and the extremes reached.
func dumpPredictor(out io.Writer, p *replacement.Perceptron) {
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintf(out, "=== Predictor Weights ===\n")
	for table := 0; table < replacement.NumFeatures; table++ {
		trained := 0
		lo, hi := int32(0), int32(0)
		for i := 0; i < replacement.TableSize; i++ {
			w := p.Weight(table, uint8(i))
			if w != 0 {
				trained++
			}
			lo = min(lo, w)
			hi = max(hi, w)
		}
		_, _ = fmt.Fprintf(out, "  Table %d: %3d trained, min %3d, max %3d\n", table, trained, lo, hi)
	}

	h := p.History()
	_, _ = fmt.Fprintf(out, "  PC history: 0x%x 0x%x 0x%x 0x%x\n", h[0], h[1], h[2], h[3])
}
