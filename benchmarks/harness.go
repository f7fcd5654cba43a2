// Package benchmarks runs synthetic access workloads against every
// replacement policy and reports hit rates.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/replsim/timing/cache"
	"github.com/sarchlab/replsim/timing/replacement"
	"github.com/sarchlab/replsim/trace"
)

// AccessSize is the number of bytes each replayed access touches.
const AccessSize = 8

// Result holds the outcome of one workload run under one policy.
type Result struct {
	// Workload identifies the access pattern
	Workload string `json:"workload"`

	// Policy is the replacement policy used
	Policy replacement.Kind `json:"policy"`

	Accesses uint64  `json:"accesses"`
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	HitRate  float64 `json:"hit_rate"`

	// Bypasses counts misses that were not installed
	Bypasses uint64 `json:"bypasses"`

	// DeadVictims counts victims chosen because they were predicted dead
	DeadVictims uint64 `json:"dead_victims,omitempty"`

	// SamplerMispredictions counts sampler evictions that trained the
	// predictor
	SamplerMispredictions uint64 `json:"sampler_mispredictions,omitempty"`

	// WallTime is the actual time taken to replay the workload
	WallTime time.Duration `json:"wall_time_ns"`
}

// Workload is a deterministic synthetic access pattern.
type Workload struct {
	// Name identifies the workload
	Name string

	// Description explains what the workload stresses
	Description string

	// Generate produces the access sequence. It must return the same
	// sequence on every call.
	Generate func() []trace.Record
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Cache is the cache geometry; its Policy field is overridden per run.
	Cache cache.Config

	// Policies lists the policies every workload is run against.
	Policies []replacement.Kind

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose prints one line per run as it completes
	Verbose bool
}

// BenchmarkCacheConfig returns the cache the default workloads are sized
// for: 256KB, 16-way, 64B lines (256 sets, a sampler set every 4 sets).
func BenchmarkCacheConfig() cache.Config {
	config := cache.DefaultLLCConfig()
	config.Size = 256 * 1024
	return config
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Cache:    BenchmarkCacheConfig(),
		Policies: replacement.Kinds(),
		Output:   os.Stdout,
		Verbose:  false,
	}
}

// Harness replays workloads and reports results.
type Harness struct {
	config    HarnessConfig
	workloads []Workload
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{
		config:    config,
		workloads: []Workload{},
	}
}

// AddWorkload adds a workload to the harness.
func (h *Harness) AddWorkload(w Workload) {
	h.workloads = append(h.workloads, w)
}

// AddWorkloads adds multiple workloads to the harness.
func (h *Harness) AddWorkloads(workloads []Workload) {
	h.workloads = append(h.workloads, workloads...)
}

// RunAll runs every workload under every policy, workload-major.
func (h *Harness) RunAll() ([]Result, error) {
	results := make([]Result, 0, len(h.workloads)*len(h.config.Policies))

	for _, w := range h.workloads {
		records := w.Generate()
		for _, kind := range h.config.Policies {
			result, err := h.run(w.Name, records, kind)
			if err != nil {
				return nil, fmt.Errorf("workload %s, policy %s: %w", w.Name, kind, err)
			}
			if h.config.Verbose {
				_, _ = fmt.Fprintf(h.config.Output, "  %-16s %-10s hit rate %6.2f%%\n",
					result.Workload, result.Policy, result.HitRate*100)
			}
			results = append(results, result)
		}
	}

	return results, nil
}

// run replays records on a fresh cache using the given policy.
func (h *Harness) run(name string, records []trace.Record, kind replacement.Kind) (Result, error) {
	config := h.config.Cache
	config.Policy = kind

	c, err := cache.New(config, cache.NewMemoryBacking(cache.NewSparseMemory()))
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	Replay(c, records)
	wallTime := time.Since(start)

	stats := c.Stats()
	pstats := c.Policy().Stats()

	return Result{
		Workload:              name,
		Policy:                kind,
		Accesses:              stats.Accesses(),
		Hits:                  stats.Hits,
		Misses:                stats.Misses,
		HitRate:               stats.HitRate(),
		Bypasses:              stats.Bypasses,
		DeadVictims:           pstats.DeadVictims,
		SamplerMispredictions: pstats.SamplerMispredictions,
		WallTime:              wallTime,
	}, nil
}

// Replay issues every record to c. Stores write the access address as data.
func Replay(c *cache.Cache, records []trace.Record) {
	for _, rec := range records {
		if rec.Write {
			c.Write(rec.PC, rec.Addr, AccessSize, rec.Addr)
		} else {
			c.Read(rec.PC, rec.Addr, AccessSize)
		}
	}
}

// PrintResults outputs results as a workload-by-policy hit rate table.
func (h *Harness) PrintResults(results []Result) {
	out := h.config.Output

	_, _ = fmt.Fprintln(out, "=== Replacement Policy Benchmark Results ===")
	_, _ = fmt.Fprintf(out, "Cache: %d KB, %d-way, %dB lines\n",
		h.config.Cache.Size/1024, h.config.Cache.Associativity, h.config.Cache.BlockSize)
	_, _ = fmt.Fprintln(out, "")

	_, _ = fmt.Fprintf(out, "%-16s", "workload")
	for _, kind := range h.config.Policies {
		_, _ = fmt.Fprintf(out, " %11s", kind)
	}
	_, _ = fmt.Fprintln(out, "")

	byWorkload := make(map[string]map[replacement.Kind]Result)
	var order []string
	for _, r := range results {
		if _, ok := byWorkload[r.Workload]; !ok {
			byWorkload[r.Workload] = make(map[replacement.Kind]Result)
			order = append(order, r.Workload)
		}
		byWorkload[r.Workload][r.Policy] = r
	}

	for _, name := range order {
		_, _ = fmt.Fprintf(out, "%-16s", name)
		for _, kind := range h.config.Policies {
			r, ok := byWorkload[name][kind]
			if !ok {
				_, _ = fmt.Fprintf(out, " %11s", "-")
				continue
			}
			_, _ = fmt.Fprintf(out, " %10.2f%%", r.HitRate*100)
		}
		_, _ = fmt.Fprintln(out, "")
	}

	for _, r := range results {
		if r.Bypasses > 0 || r.DeadVictims > 0 {
			_, _ = fmt.Fprintf(out, "\n%s/%s: bypasses=%d dead_victims=%d sampler_mispredictions=%d",
				r.Workload, r.Policy, r.Bypasses, r.DeadVictims, r.SamplerMispredictions)
		}
	}
	_, _ = fmt.Fprintln(out, "")
}

// PrintCSV outputs results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output,
		"workload,policy,accesses,hits,misses,hit_rate,bypasses,dead_victims,sampler_mispredictions,wall_time_ns")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%d,%d,%d,%.4f,%d,%d,%d,%d\n",
			r.Workload,
			r.Policy,
			r.Accesses,
			r.Hits,
			r.Misses,
			r.HitRate,
			r.Bypasses,
			r.DeadVictims,
			r.SamplerMispredictions,
			r.WallTime.Nanoseconds(),
		)
	}
}

// Report is the JSON output format for benchmark results.
type Report struct {
	Metadata ReportMetadata `json:"metadata"`
	Results  []Result       `json:"results"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Cache is the configuration shared by all runs
	Cache cache.Config `json:"cache"`

	// TotalWallTime is the total wall clock time for all runs
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []Result) error {
	var total time.Duration
	for _, r := range results {
		total += r.WallTime
	}

	report := Report{
		Metadata: ReportMetadata{
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			Cache:         h.config.Cache,
			TotalWallTime: total,
		},
		Results: results,
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
