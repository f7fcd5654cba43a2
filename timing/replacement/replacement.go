// Package replacement provides victim-selection and bypass policies for a
// set-associative cache.
//
// A host cache asks its Policy for a victim on every miss in a full set and
// reports every hit or fill back through Update. The learned Perceptron
// policy predicts per-line reuse from hashed program-counter and tag
// features; LRU, Random and SRRIP are simpler baselines sharing the same
// contract.
package replacement

import (
	"fmt"
)

// Bypass is returned by Victim when the incoming block should not be
// installed. The host must skip the matching Update call.
const Bypass = -1

// AccessType tags the kind of access that reached the cache. Policies in
// this package accept it but do not act on it.
type AccessType uint8

// Access types reported by the host cache.
const (
	AccessLoad AccessType = iota
	AccessStore
	AccessIFetch
	AccessPrefetch
	AccessWriteback
)

// String returns a short name for the access type.
func (t AccessType) String() string {
	switch t {
	case AccessLoad:
		return "load"
	case AccessStore:
		return "store"
	case AccessIFetch:
		return "ifetch"
	case AccessPrefetch:
		return "prefetch"
	case AccessWriteback:
		return "writeback"
	}
	return fmt.Sprintf("AccessType(%d)", uint8(t))
}

// Line is the host's read-only view of one resident cache line.
type Line struct {
	// Tag is the block tag (address with offset and index bits removed).
	Tag uint64
	// Valid reports whether the line holds a block.
	Valid bool
	// Dirty reports whether the line must be written back on eviction.
	Dirty bool
}

// Request carries the context of the access being served.
type Request struct {
	// ThreadID is the issuing hardware thread.
	ThreadID uint32
	// PC is the program counter of the instruction making the access.
	PC uint64
	// Addr is the physical address accessed.
	Addr uint64
	// Type is the access type.
	Type AccessType
}

// Policy selects victims and learns from access outcomes for one cache
// instance. Implementations are not safe for concurrent use.
type Policy interface {
	// Victim returns the way to evict from set, or Bypass. lines must hold
	// exactly one entry per way.
	Victim(set int, lines []Line, req Request) int

	// Update records a hit on, or a fill into, the given way. line is the
	// line's content after the access.
	Update(set, way int, line Line, req Request, hit bool)

	// Stats returns the counters accumulated so far.
	Stats() Stats

	// Kind identifies the policy variant.
	Kind() Kind

	// sealed keeps the set of variants closed to this package.
	sealed()
}

// New creates the policy selected by cfg.Policy. Geometry is fixed for the
// lifetime of the returned policy.
func New(cfg Config) (Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Policy {
	case KindLRU:
		return newLRU(cfg), nil
	case KindRandom:
		return newRandom(cfg), nil
	case KindSRRIP:
		return newSRRIP(cfg), nil
	case KindPerceptron:
		return newPerceptron(cfg), nil
	}

	return nil, fmt.Errorf("unknown replacement policy %q", cfg.Policy)
}

// geometry is the per-instance set/way shape shared by every variant.
type geometry struct {
	numSets int
	assoc   int
}

func (g geometry) checkSet(set int) {
	if set < 0 || set >= g.numSets {
		panic(fmt.Sprintf("replacement: set %d out of range [0, %d)", set, g.numSets))
	}
}

func (g geometry) checkWay(way int) {
	if way < 0 || way >= g.assoc {
		panic(fmt.Sprintf("replacement: way %d out of range [0, %d)", way, g.assoc))
	}
}

func (g geometry) checkLines(lines []Line) {
	if len(lines) != g.assoc {
		panic(fmt.Sprintf("replacement: got %d lines for a %d-way set", len(lines), g.assoc))
	}
}

// lineIndex flattens (set, way) into the per-line state buffers.
func (g geometry) lineIndex(set, way int) int {
	return set*g.assoc + way
}
