package cache

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/replsim/timing/replacement"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes.
	Size int `json:"size"`

	// Associativity (number of ways).
	Associativity int `json:"associativity"`

	// BlockSize in bytes (cache line size).
	BlockSize int `json:"block_size"`

	// HitLatency in cycles.
	HitLatency uint64 `json:"hit_latency"`

	// MissLatency in cycles, including the backing store access. Bypassed
	// accesses are charged the same latency.
	MissLatency uint64 `json:"miss_latency"`

	// Policy selects the replacement policy.
	Policy replacement.Kind `json:"policy"`

	// Seed drives the random policy.
	Seed uint64 `json:"seed"`

	Perceptron replacement.PerceptronConfig `json:"perceptron"`
	SRRIP      replacement.SRRIPConfig      `json:"srrip"`
}

// DefaultL1DConfig returns an L1 data cache configuration.
// 128KB, 8-way, 64B lines, 3-cycle hit.
func DefaultL1DConfig() Config {
	return Config{
		Size:          128 * 1024,
		Associativity: 8,
		BlockSize:     64,
		HitLatency:    3,
		MissLatency:   12,
		Policy:        replacement.KindLRU,
		Seed:          1,
		Perceptron:    replacement.DefaultPerceptronConfig(),
		SRRIP:         replacement.SRRIPConfig{RRPVBits: 2},
	}
}

// DefaultL2Config returns a shared L2 configuration.
// 16MB, 16-way, 128B lines. The set count must stay a power of two, so
// this rounds the 24MB M2 L2 down.
func DefaultL2Config() Config {
	return Config{
		Size:          16 * 1024 * 1024,
		Associativity: 16,
		BlockSize:     128,
		HitLatency:    12,
		MissLatency:   150,
		Policy:        replacement.KindSRRIP,
		Seed:          1,
		Perceptron:    replacement.DefaultPerceptronConfig(),
		SRRIP:         replacement.SRRIPConfig{RRPVBits: 2},
	}
}

// DefaultLLCConfig returns a last-level cache driven by the perceptron
// predictor: 4MB, 16-way, 64B lines (4096 sets, 64 sampler sets).
func DefaultLLCConfig() Config {
	return Config{
		Size:          4 * 1024 * 1024,
		Associativity: 16,
		BlockSize:     64,
		HitLatency:    30,
		MissLatency:   150,
		Policy:        replacement.KindPerceptron,
		Seed:          1,
		Perceptron:    replacement.DefaultPerceptronConfig(),
		SRRIP:         replacement.SRRIPConfig{RRPVBits: 2},
	}
}

// NumSets returns the number of sets implied by the geometry.
func (c *Config) NumSets() int {
	if c.Associativity <= 0 || c.BlockSize <= 0 {
		return 0
	}
	return c.Size / (c.Associativity * c.BlockSize)
}

// ReplacementConfig returns the policy configuration for this cache.
func (c *Config) ReplacementConfig() replacement.Config {
	return replacement.Config{
		Policy:        c.Policy,
		NumSets:       c.NumSets(),
		Associativity: c.Associativity,
		BlockSize:     c.BlockSize,
		Seed:          c.Seed,
		Perceptron:    c.Perceptron,
		SRRIP:         c.SRRIP,
	}
}

// LoadConfig loads a cache configuration from a JSON file. Fields missing
// from the file keep their DefaultLLCConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache config file: %w", err)
	}

	config := DefaultLLCConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse cache config: %w", err)
	}

	return &config, nil
}

// SaveConfig saves the cache configuration to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration describes a buildable cache.
func (c *Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("size must be > 0")
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be > 0")
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block_size must be > 0")
	}
	if c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("size (%d) must be a multiple of associativity * block_size (%d)",
			c.Size, c.Associativity*c.BlockSize)
	}
	if c.HitLatency == 0 {
		return fmt.Errorf("hit_latency must be > 0")
	}
	if c.MissLatency < c.HitLatency {
		return fmt.Errorf("miss_latency must be >= hit_latency")
	}

	rc := c.ReplacementConfig()
	if err := rc.Validate(); err != nil {
		return fmt.Errorf("invalid replacement config: %w", err)
	}

	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
