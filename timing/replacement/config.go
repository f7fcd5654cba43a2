package replacement

import (
	"fmt"
	"math/bits"
	"strings"
)

// Kind identifies a replacement policy variant.
type Kind uint8

// Supported policy variants.
const (
	KindLRU Kind = iota
	KindRandom
	KindSRRIP
	KindPerceptron
)

var kindNames = map[Kind]string{
	KindLRU:        "lru",
	KindRandom:     "random",
	KindSRRIP:      "srrip",
	KindPerceptron: "perceptron",
}

// Kinds lists every supported variant in declaration order.
func Kinds() []Kind {
	return []Kind{KindLRU, KindRandom, KindSRRIP, KindPerceptron}
}

// String returns the lowercase policy name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind converts a policy name such as "perceptron" to a Kind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown replacement policy %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown replacement policy %d", uint8(k))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// PerceptronConfig holds the tunable thresholds of the reuse predictor.
type PerceptronConfig struct {
	// SamplerSets is the number of sets that carry training metadata.
	// Must divide the number of cache sets. Default: 64.
	SamplerSets int `json:"sampler_sets"`

	// Theta is the training threshold. Default: 68.
	Theta int32 `json:"theta"`

	// TauBypass is the score above which an incoming block is not
	// installed. Default: 3.
	TauBypass int32 `json:"tau_bypass"`

	// TauReplace is the score at or above which a resident line is
	// predicted dead. Default: 124.
	TauReplace int32 `json:"tau_replace"`
}

// DefaultPerceptronConfig returns the published predictor parameters.
func DefaultPerceptronConfig() PerceptronConfig {
	return PerceptronConfig{
		SamplerSets: 64,
		Theta:       68,
		TauBypass:   3,
		TauReplace:  124,
	}
}

// SRRIPConfig holds SRRIP parameters.
type SRRIPConfig struct {
	// RRPVBits is the width of each line's re-reference prediction value.
	// Default: 2.
	RRPVBits uint `json:"rrpv_bits"`
}

// Config describes one policy instance.
type Config struct {
	// Policy selects the variant.
	Policy Kind `json:"policy"`

	// NumSets is the number of sets in the cache. Must be a power of 2.
	NumSets int `json:"num_sets"`

	// Associativity is the number of ways per set.
	Associativity int `json:"associativity"`

	// BlockSize in bytes, used to derive tags. Must be a power of 2.
	BlockSize int `json:"block_size"`

	// Seed drives the Random variant.
	Seed uint64 `json:"seed"`

	Perceptron PerceptronConfig `json:"perceptron"`
	SRRIP      SRRIPConfig      `json:"srrip"`
}

// DefaultConfig returns a perceptron configuration for a 4MB, 16-way cache
// with 64B blocks.
func DefaultConfig() Config {
	return Config{
		Policy:        KindPerceptron,
		NumSets:       4096,
		Associativity: 16,
		BlockSize:     64,
		Seed:          1,
		Perceptron:    DefaultPerceptronConfig(),
		SRRIP:         SRRIPConfig{RRPVBits: 2},
	}
}

// Validate checks the geometry and the parameters of the selected variant.
func (c Config) Validate() error {
	if c.NumSets <= 0 {
		return fmt.Errorf("num_sets must be > 0")
	}
	if !isPowerOfTwo(c.NumSets) {
		return fmt.Errorf("num_sets (%d) must be a power of 2", c.NumSets)
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be > 0")
	}
	if c.BlockSize <= 0 || !isPowerOfTwo(c.BlockSize) {
		return fmt.Errorf("block_size (%d) must be a positive power of 2", c.BlockSize)
	}

	switch c.Policy {
	case KindPerceptron:
		p := c.Perceptron
		if p.SamplerSets <= 0 {
			return fmt.Errorf("perceptron.sampler_sets must be > 0")
		}
		if c.NumSets%p.SamplerSets != 0 {
			return fmt.Errorf("num_sets (%d) must be a multiple of perceptron.sampler_sets (%d)",
				c.NumSets, p.SamplerSets)
		}
		if p.Theta < 0 {
			return fmt.Errorf("perceptron.theta must be >= 0")
		}
	case KindSRRIP:
		if c.SRRIP.RRPVBits == 0 || c.SRRIP.RRPVBits > 8 {
			return fmt.Errorf("srrip.rrpv_bits (%d) must be in [1, 8]", c.SRRIP.RRPVBits)
		}
	case KindLRU, KindRandom:
	default:
		return fmt.Errorf("unknown replacement policy %d", uint8(c.Policy))
	}

	return nil
}

// Tag strips the block offset and set index bits from addr.
func (c Config) Tag(addr uint64) uint64 {
	return addr >> (log2(c.BlockSize) + log2(c.NumSets))
}

// SetIndex returns the set addr maps to.
func (c Config) SetIndex(addr uint64) int {
	return int((addr >> log2(c.BlockSize)) & uint64(c.NumSets-1))
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func log2(n int) uint {
	return uint(bits.Len(uint(n)) - 1)
}
