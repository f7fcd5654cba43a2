package replacement

import (
	"fmt"
	"io"
)

// Stats holds replacement policy counters.
type Stats struct {
	// Victims is the number of victim queries answered (bypasses included).
	Victims uint64
	// Updates is the number of state updates received.
	Updates uint64
	// Hits is the number of updates reporting a hit.
	Hits uint64
	// Misses is the number of updates reporting a fill.
	Misses uint64
	// DeadVictims counts victims chosen because they were predicted dead.
	DeadVictims uint64
	// Bypasses counts victim queries answered with Bypass.
	Bypasses uint64
	// FallbackVictims counts victims taken from the recency fallback.
	FallbackVictims uint64
	// SamplerMispredictions counts sampler evictions that trained the
	// predictor toward "dead".
	SamplerMispredictions uint64
	// SamplerReuseTraining counts sampler hits that trained the predictor
	// toward "reused".
	SamplerReuseTraining uint64
}

// BypassRate returns the share of victim queries that bypassed, as a
// percentage.
func (s Stats) BypassRate() float64 {
	if s.Victims == 0 {
		return 0
	}
	return float64(s.Bypasses) / float64(s.Victims) * 100
}

// DeadVictimRate returns the share of victim queries answered with a
// predicted-dead line, as a percentage.
func (s Stats) DeadVictimRate() float64 {
	if s.Victims == 0 {
		return 0
	}
	return float64(s.DeadVictims) / float64(s.Victims) * 100
}

// FormatStats writes a human-readable policy report.
func FormatStats(w io.Writer, kind Kind, s Stats) {
	_, _ = fmt.Fprintf(w, "=== Replacement Policy Statistics (%s) ===\n", kind)
	_, _ = fmt.Fprintf(w, "  Victim queries:          %d\n", s.Victims)
	_, _ = fmt.Fprintf(w, "  Updates:                 %d (hits %d, fills %d)\n",
		s.Updates, s.Hits, s.Misses)

	if kind != KindPerceptron {
		return
	}

	_, _ = fmt.Fprintf(w, "  Predicted-dead victims:  %d (%.1f%%)\n", s.DeadVictims, s.DeadVictimRate())
	_, _ = fmt.Fprintf(w, "  Pseudo-LRU fallbacks:    %d\n", s.FallbackVictims)
	_, _ = fmt.Fprintf(w, "  Bypasses:                %d (%.1f%%)\n", s.Bypasses, s.BypassRate())
	_, _ = fmt.Fprintf(w, "  Sampler mispredictions:  %d\n", s.SamplerMispredictions)
	_, _ = fmt.Fprintf(w, "  Sampler reuse training:  %d\n", s.SamplerReuseTraining)
}
