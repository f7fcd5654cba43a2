package benchmarks

import (
	"math/rand/v2"

	"github.com/sarchlab/replsim/timing/cache"
	"github.com/sarchlab/replsim/trace"
)

// Seed makes the randomized workloads reproducible.
const Seed = 42

// Distinct code addresses so the predictor can tell access streams apart.
const (
	loopPC   = 0x400
	streamPC = 0x4a8
	hotPC    = 0x7f30
	coldPC   = 0x7f80
	storePC  = 0x500
)

// Base addresses of the regions each workload touches.
const (
	loopBase   = 0x1000_0000
	streamBase = 0x4000_0000
	coldBase   = 0x8000_0000
)

// GetWorkloads returns the standard workloads sized against config.
// Each workload targets a specific replacement behavior.
func GetWorkloads(config cache.Config) []Workload {
	lines := config.Size / config.BlockSize
	block := uint64(config.BlockSize)

	return []Workload{
		sequentialStream(lines, block),
		fittingLoop(lines, block),
		thrashingLoop(lines, block),
		loopWithScan(lines, block),
		randomAccess(lines, block),
		hotCold(lines, block),
	}
}

// 1. Sequential stream - every block touched once, nothing to reuse
func sequentialStream(lines int, block uint64) Workload {
	return Workload{
		Name:        "stream",
		Description: "one pass over 4x the cache capacity",
		Generate: func() []trace.Record {
			records := make([]trace.Record, 0, 4*lines)
			for i := 0; i < 4*lines; i++ {
				records = append(records, trace.Record{
					PC:   streamPC,
					Addr: streamBase + uint64(i)*block,
				})
			}
			return records
		},
	}
}

// 2. Fitting loop - working set of half the cache, every policy should hit
func fittingLoop(lines int, block uint64) Workload {
	return Workload{
		Name:        "fitting_loop",
		Description: "8 passes over half the cache capacity",
		Generate: func() []trace.Record {
			return loop(lines/2, 8, block)
		},
	}
}

// 3. Thrashing loop - cyclic working set larger than the cache, the LRU
// worst case
func thrashingLoop(lines int, block uint64) Workload {
	return Workload{
		Name:        "thrashing_loop",
		Description: "8 passes over 1.5x the cache capacity",
		Generate: func() []trace.Record {
			return loop(lines+lines/2, 8, block)
		},
	}
}

// 4. Loop with scan - a reused working set polluted by a one-touch stream
// from a different instruction
func loopWithScan(lines int, block uint64) Workload {
	return Workload{
		Name:        "loop_scan",
		Description: "half-capacity loop interleaved with a streaming scan",
		Generate: func() []trace.Record {
			hot := lines / 2
			var records []trace.Record
			next := uint64(0)
			for pass := 0; pass < 8; pass++ {
				for i := 0; i < hot; i++ {
					records = append(records, trace.Record{
						PC:   loopPC,
						Addr: loopBase + uint64(i)*block,
					})
					// Two scan blocks per loop block.
					for j := 0; j < 2; j++ {
						records = append(records, trace.Record{
							PC:   streamPC,
							Addr: streamBase + next*block,
						})
						next++
					}
				}
			}
			return records
		},
	}
}

// 5. Random - uniform over twice the cache capacity, a quarter stores
func randomAccess(lines int, block uint64) Workload {
	return Workload{
		Name:        "random",
		Description: "uniform random blocks over 2x the cache capacity",
		Generate: func() []trace.Record {
			rng := rand.New(rand.NewPCG(Seed, 1))
			n := 8 * lines
			records := make([]trace.Record, 0, n)
			for i := 0; i < n; i++ {
				write := rng.IntN(4) == 0
				pc := uint64(loopPC)
				if write {
					pc = storePC
				}
				records = append(records, trace.Record{
					PC:    pc,
					Addr:  loopBase + uint64(rng.IntN(2*lines))*block,
					Write: write,
				})
			}
			return records
		},
	}
}

// 6. Hot/cold - 90% of accesses to a quarter-capacity hot set, the rest to
// a cold region 8x the cache
func hotCold(lines int, block uint64) Workload {
	return Workload{
		Name:        "hot_cold",
		Description: "90% hot quarter-capacity set, 10% cold 8x-capacity region",
		Generate: func() []trace.Record {
			rng := rand.New(rand.NewPCG(Seed, 2))
			n := 8 * lines
			records := make([]trace.Record, 0, n)
			for i := 0; i < n; i++ {
				if rng.IntN(10) == 0 {
					records = append(records, trace.Record{
						PC:   coldPC,
						Addr: coldBase + uint64(rng.IntN(8*lines))*block,
					})
					continue
				}
				records = append(records, trace.Record{
					PC:   hotPC,
					Addr: loopBase + uint64(rng.IntN(lines/4))*block,
				})
			}
			return records
		},
	}
}

// loop walks n consecutive blocks passes times from one instruction.
func loop(n, passes int, block uint64) []trace.Record {
	records := make([]trace.Record, 0, n*passes)
	for pass := 0; pass < passes; pass++ {
		for i := 0; i < n; i++ {
			records = append(records, trace.Record{
				PC:   loopPC,
				Addr: loopBase + uint64(i)*block,
			})
		}
	}
	return records
}
