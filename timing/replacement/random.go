package replacement

import (
	"math/rand/v2"
)

// Random evicts a uniformly chosen way. The generator is seeded from the
// config so runs are reproducible.
type Random struct {
	geometry

	rng   *rand.Rand
	stats Stats
}

func newRandom(cfg Config) *Random {
	return &Random{
		geometry: geometry{numSets: cfg.NumSets, assoc: cfg.Associativity},
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
}

// Kind returns KindRandom.
func (r *Random) Kind() Kind { return KindRandom }

func (r *Random) sealed() {}

// Stats returns the policy counters.
func (r *Random) Stats() Stats { return r.stats }

// Victim returns a random way.
func (r *Random) Victim(set int, lines []Line, _ Request) int {
	r.checkSet(set)
	r.checkLines(lines)
	r.stats.Victims++
	return r.rng.IntN(r.assoc)
}

// Update only counts the access; random replacement keeps no recency state.
func (r *Random) Update(set, way int, _ Line, _ Request, hit bool) {
	r.checkSet(set)
	r.checkWay(way)

	r.stats.Updates++
	if hit {
		r.stats.Hits++
	} else {
		r.stats.Misses++
	}
}
