package replacement

// SRRIP is static re-reference interval prediction with hit priority. Every
// line carries an RRPV counter: fills insert at the "long" interval, hits
// step toward "near", and the victim is the first line at the "distant"
// interval.
type SRRIP struct {
	geometry

	distant uint8
	long    uint8
	rrpv    []uint8
	stats   Stats
}

func newSRRIP(cfg Config) *SRRIP {
	distant := uint8(1<<cfg.SRRIP.RRPVBits - 1)

	s := &SRRIP{
		geometry: geometry{numSets: cfg.NumSets, assoc: cfg.Associativity},
		distant:  distant,
		rrpv:     make([]uint8, cfg.NumSets*cfg.Associativity),
	}
	if distant > 0 {
		s.long = distant - 1
	}
	for i := range s.rrpv {
		s.rrpv[i] = distant
	}

	return s
}

// Kind returns KindSRRIP.
func (s *SRRIP) Kind() Kind { return KindSRRIP }

func (s *SRRIP) sealed() {}

// Stats returns the policy counters.
func (s *SRRIP) Stats() Stats { return s.stats }

// Victim returns the first way at the distant RRPV, aging the set until one
// exists.
func (s *SRRIP) Victim(set int, lines []Line, _ Request) int {
	s.checkSet(set)
	s.checkLines(lines)
	s.stats.Victims++

	for {
		for way := 0; way < s.assoc; way++ {
			if s.rrpv[s.lineIndex(set, way)] == s.distant {
				return way
			}
		}
		for way := 0; way < s.assoc; way++ {
			if idx := s.lineIndex(set, way); s.rrpv[idx] < s.distant {
				s.rrpv[idx]++
			}
		}
	}
}

// Update inserts fills at the long interval and promotes hits.
func (s *SRRIP) Update(set, way int, _ Line, _ Request, hit bool) {
	s.checkSet(set)
	s.checkWay(way)

	s.stats.Updates++
	idx := s.lineIndex(set, way)
	if hit {
		s.stats.Hits++
		if s.rrpv[idx] > 0 {
			s.rrpv[idx]--
		}
		return
	}

	s.stats.Misses++
	s.rrpv[idx] = s.long
}

// RRPV returns the re-reference prediction value of a line.
func (s *SRRIP) RRPV(set, way int) uint8 {
	s.checkSet(set)
	s.checkWay(way)
	return s.rrpv[s.lineIndex(set, way)]
}
