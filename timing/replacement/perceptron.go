package replacement

// Perceptron is a reuse predictor policy. Hashed PC-history and tag features
// index six weight tables; the summed weights predict whether a block will
// be referenced again before eviction. A fixed stride of sampler sets
// carries per-way training records that supply the labels, every other set
// keeps only a reuse bit per line and a pseudo-LRU tree as fallback.
type Perceptron struct {
	geometry

	config  Config
	params  PerceptronConfig
	stride  int
	weights WeightTables
	history History
	sampler *sampler
	plru    *pseudoLRU

	// reuse holds one predicted-reuse bit per line, indexed by lineIndex.
	reuse []bool

	stats Stats
}

func newPerceptron(cfg Config) *Perceptron {
	return &Perceptron{
		geometry: geometry{numSets: cfg.NumSets, assoc: cfg.Associativity},
		config:   cfg,
		params:   cfg.Perceptron,
		stride:   cfg.NumSets / cfg.Perceptron.SamplerSets,
		sampler:  newSampler(cfg.Perceptron.SamplerSets, cfg.Associativity),
		plru:     newPseudoLRU(cfg.NumSets, cfg.Associativity),
		reuse:    make([]bool, cfg.NumSets*cfg.Associativity),
	}
}

// Kind returns KindPerceptron.
func (p *Perceptron) Kind() Kind { return KindPerceptron }

func (p *Perceptron) sealed() {}

// Stats returns the policy counters.
func (p *Perceptron) Stats() Stats { return p.stats }

// IsSamplerSet reports whether set carries sampler training state.
func (p *Perceptron) IsSamplerSet(set int) bool {
	return set%p.stride == 0
}

func (p *Perceptron) samplerSet(set int) int {
	return set / p.stride
}

// Victim picks the way to evict from set, or returns Bypass.
//
// Sampler sets always evict their LRU way and train on the evicted record.
// Other sets bypass blocks predicted dead on arrival, then evict the first
// line predicted dead, then fall back to pseudo-LRU.
func (p *Perceptron) Victim(set int, lines []Line, req Request) int {
	p.checkSet(set)
	p.checkLines(lines)
	p.stats.Victims++

	if p.IsSamplerSet(set) {
		s := p.samplerSet(set)
		way := p.sampler.victim(s)
		predictedReuse := p.reuse[p.lineIndex(set, way)]
		if p.sampler.trainOnEviction(s, way, predictedReuse, &p.weights, p.params.Theta) {
			p.stats.SamplerMispredictions++
		}
		return way
	}

	tag := p.config.Tag(req.Addr)
	if p.shouldBypass(req.PC, tag) {
		// No Update follows a bypass, so the history advances here.
		p.history.Push(req.PC)
		p.stats.Bypasses++
		return Bypass
	}

	for way := 0; way < p.assoc; way++ {
		if !p.reuse[p.lineIndex(set, way)] {
			p.stats.DeadVictims++
			return way
		}
	}

	p.stats.FallbackVictims++
	return p.plru.victim(set)
}

// Update trains the sampler (for sampler sets), refreshes recency and
// recomputes the reuse bit of the touched line.
func (p *Perceptron) Update(set, way int, line Line, req Request, hit bool) {
	p.checkSet(set)
	p.checkWay(way)

	p.stats.Updates++
	if hit {
		p.stats.Hits++
	} else {
		p.stats.Misses++
	}

	p.history.Push(req.PC)

	if p.IsSamplerSet(set) {
		s := p.samplerSet(set)
		if hit {
			if p.sampler.trainOnHit(s, way, &p.weights, p.params.Theta) {
				p.stats.SamplerReuseTraining++
			}
		} else {
			f := Features(req.PC, line.Tag, p.history)
			p.sampler.fill(s, way, line.Tag, f, p.weights.Score(f))
		}
		p.sampler.touch(s, way)
	} else {
		p.plru.touch(set, way)
	}

	p.reuse[p.lineIndex(set, way)] = p.PredictReuse(line.Tag)
}

// PredictReuse evaluates the reuse-bit formula for tag against the current
// PC history. The most recent PC stands in for the access PC.
func (p *Perceptron) PredictReuse(tag uint64) bool {
	pc := p.history[0]
	return p.weights.Score(Features(pc, tag, p.history)) < p.params.TauReplace
}

// shouldBypass scores the incoming block as if pc had already been pushed
// onto the history.
func (p *Perceptron) shouldBypass(pc, tag uint64) bool {
	f := Features(pc, tag, p.history.Pushed(pc))
	return p.weights.Score(f) > p.params.TauBypass
}

// Score sums the weights addressed by f.
func (p *Perceptron) Score(f FeatureVector) int32 {
	return p.weights.Score(f)
}

// Weight returns one weight-table entry.
func (p *Perceptron) Weight(table int, index uint8) int32 {
	return p.weights.Weight(table, index)
}

// ReuseBit returns the stored reuse prediction of a line.
func (p *Perceptron) ReuseBit(set, way int) bool {
	p.checkSet(set)
	p.checkWay(way)
	return p.reuse[p.lineIndex(set, way)]
}

// History returns the recent-PC history, most recent first.
func (p *Perceptron) History() History {
	return p.history
}

// SamplerEntry returns the training record mirroring (set, way). ok is false
// when set is not a sampler set.
func (p *Perceptron) SamplerEntry(set, way int) (entry SamplerEntry, ok bool) {
	p.checkSet(set)
	p.checkWay(way)
	if !p.IsSamplerSet(set) {
		return SamplerEntry{}, false
	}
	return *p.sampler.entry(p.samplerSet(set), way), true
}
