package replacement

import (
	"github.com/secnot/orderedmap"
)

// LRU evicts the least recently used way of a set. Each set keeps its ways in
// an ordered map from least to most recently used.
type LRU struct {
	geometry

	order []*orderedmap.OrderedMap
	stats Stats
}

func newLRU(cfg Config) *LRU {
	l := &LRU{
		geometry: geometry{numSets: cfg.NumSets, assoc: cfg.Associativity},
		order:    make([]*orderedmap.OrderedMap, cfg.NumSets),
	}

	for set := range l.order {
		m := orderedmap.NewOrderedMap()
		// The highest way starts as the least recently used.
		for way := cfg.Associativity - 1; way >= 0; way-- {
			m.Set(way, struct{}{})
		}
		l.order[set] = m
	}

	return l
}

// Kind returns KindLRU.
func (l *LRU) Kind() Kind { return KindLRU }

func (l *LRU) sealed() {}

// Stats returns the policy counters.
func (l *LRU) Stats() Stats { return l.stats }

// Victim returns the least recently used way.
func (l *LRU) Victim(set int, lines []Line, _ Request) int {
	l.checkSet(set)
	l.checkLines(lines)
	l.stats.Victims++

	way, _, ok := l.order[set].GetFirst()
	if !ok {
		panic("replacement: empty LRU order")
	}
	return way.(int)
}

// Update marks way as the most recently used.
func (l *LRU) Update(set, way int, _ Line, _ Request, hit bool) {
	l.checkSet(set)
	l.checkWay(way)

	l.stats.Updates++
	if hit {
		l.stats.Hits++
	} else {
		l.stats.Misses++
	}

	l.order[set].MoveLast(way)
}
