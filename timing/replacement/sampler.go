package replacement

// PartialTagBits is the number of low tag bits a sampler entry keeps.
const PartialTagBits = 15

const partialTagMask = 1<<PartialTagBits - 1

// SamplerEntry is the training record of one sampler way.
type SamplerEntry struct {
	// PartialTag is the low PartialTagBits bits of the resident tag.
	PartialTag uint16
	// Features are the table indices computed when the block was filled.
	Features FeatureVector
	// Score is the predictor output computed when the block was filled.
	Score int32
	// Valid reports whether the entry was ever filled.
	Valid bool
	// LRUPosition is 0 for the most recently used way and ways-1 for the
	// least recently used one.
	LRUPosition int
}

// sampler tracks a fixed number of fully instrumented sets. Entries live in
// one flat buffer indexed by samplerSet*ways + way.
type sampler struct {
	sets    int
	ways    int
	entries []SamplerEntry
}

func newSampler(sets, ways int) *sampler {
	s := &sampler{
		sets:    sets,
		ways:    ways,
		entries: make([]SamplerEntry, sets*ways),
	}

	for set := 0; set < sets; set++ {
		for way := 0; way < ways; way++ {
			s.entry(set, way).LRUPosition = way
		}
	}

	return s
}

func (s *sampler) entry(set, way int) *SamplerEntry {
	return &s.entries[set*s.ways+way]
}

// victim returns the way at the bottom of the set's LRU stack.
func (s *sampler) victim(set int) int {
	for way := 0; way < s.ways; way++ {
		if s.entry(set, way).LRUPosition == s.ways-1 {
			return way
		}
	}
	return 0
}

// touch moves way to the top of the LRU stack.
func (s *sampler) touch(set, way int) {
	current := s.entry(set, way).LRUPosition
	for w := 0; w < s.ways; w++ {
		e := s.entry(set, w)
		if e.LRUPosition < current {
			e.LRUPosition++
		}
	}
	s.entry(set, way).LRUPosition = 0
}

// fill records the training context of a newly installed block.
func (s *sampler) fill(set, way int, tag uint64, f FeatureVector, score int32) {
	e := s.entry(set, way)
	e.PartialTag = uint16(tag & partialTagMask)
	e.Features = f
	e.Score = score
	e.Valid = true
}

// trainOnEviction strengthens the "dead" prediction for the evicted way when
// its fill-time score was not confidently dead or the real line was still
// predicted to be reused. It reports whether training happened.
func (s *sampler) trainOnEviction(set, way int, predictedReuse bool, w *WeightTables, theta int32) bool {
	e := s.entry(set, way)
	if e.Score < theta || predictedReuse {
		w.Train(e.Features, true)
		return true
	}
	return false
}

// trainOnHit strengthens the "reused" prediction for a way that was hit
// unless its fill-time score already said so confidently.
func (s *sampler) trainOnHit(set, way int, w *WeightTables, theta int32) bool {
	e := s.entry(set, way)
	if e.Score > -theta {
		w.Train(e.Features, false)
		return true
	}
	return false
}
