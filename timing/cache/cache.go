// Package cache provides a set-associative cache model built on Akita cache
// components, with a pluggable replacement policy deciding victims and
// bypasses.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/replsim/timing/replacement"
)

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Bypassed is true if the policy chose not to install the block and the
	// access went straight to the backing store.
	Bypassed bool
	// Latency is the number of cycles this access takes.
	Latency uint64
	// Data is the data read (for load operations).
	Data uint64
	// Evicted is true if a valid block was replaced.
	Evicted bool
	// EvictedAddr is the address of the evicted block (if Evicted is true).
	EvictedAddr uint64
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
	// Bypasses counts misses served without installing the block. They are
	// also counted as misses.
	Bypasses uint64
}

// Accesses returns the number of reads and writes.
func (s Statistics) Accesses() uint64 {
	return s.Reads + s.Writes
}

// HitRate returns the fraction of accesses that hit, in [0, 1].
func (s Statistics) HitRate() float64 {
	if s.Accesses() == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Accesses())
}

// MissRate returns the fraction of accesses that missed, in [0, 1].
func (s Statistics) MissRate() float64 {
	if s.Accesses() == 0 {
		return 0
	}
	return float64(s.Misses) / float64(s.Accesses())
}

// BackingStore interface for the next level in the memory hierarchy.
type BackingStore interface {
	// Read fetches data from the backing store.
	Read(addr uint64, size int) []byte
	// Write stores data to the backing store.
	Write(addr uint64, data []byte)
}

// Cache is a write-back, write-allocate cache. An Akita directory tracks
// tags and line state; the replacement policy sees every hit and fill and
// picks victims once a set is full.
type Cache struct {
	config  Config
	rconfig replacement.Config
	policy  replacement.Policy
	victims *PolicyVictimFinder
	backing BackingStore
	stats   Statistics

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage - indexed by (setID * associativity + wayID)
	dataStore [][]byte
}

// New creates a new cache with the given configuration. backing may be nil,
// in which case missing blocks read as zero and writebacks are dropped.
func New(config Config, backing BackingStore) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache config: %w", err)
	}

	rconfig := config.ReplacementConfig()
	policy, err := replacement.New(rconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create replacement policy: %w", err)
	}

	numSets := rconfig.NumSets
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	victims := NewPolicyVictimFinder(policy, rconfig)

	return &Cache{
		config:  config,
		rconfig: rconfig,
		policy:  policy,
		victims: victims,
		backing: backing,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			victims,
		),
		dataStore: dataStore,
	}, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Policy returns the replacement policy in use.
func (c *Cache) Policy() replacement.Policy {
	return c.policy
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics. Policy counters are left alone.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// blockIndex computes the index into dataStore for a block.
func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr uint64) uint64 {
	return (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
}

func (c *Cache) lineOf(block *akitacache.Block) replacement.Line {
	return replacement.Line{
		Tag:   c.rconfig.Tag(block.Tag),
		Valid: block.IsValid,
		Dirty: block.IsDirty,
	}
}

// touch reports a hit or a fill to the directory and the policy.
// This cache only issues loads and stores; the other access types exist for
// hosts that model instruction fetch, prefetch or writeback traffic.
func (c *Cache) touch(block *akitacache.Block, req replacement.Request, hit bool) {
	c.directory.Visit(block)
	c.policy.Update(block.SetID, block.WayID, c.lineOf(block), req, hit)
}

// Read performs a cache read issued by the instruction at pc.
func (c *Cache) Read(pc, addr uint64, size int) AccessResult {
	c.stats.Reads++
	req := replacement.Request{PC: pc, Addr: addr, Type: replacement.AccessLoad}

	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.touch(block, req, true)

		offset := addr % uint64(c.config.BlockSize)
		blockData := c.dataStore[c.blockIndex(block)]

		return AccessResult{
			Hit:     true,
			Latency: c.config.HitLatency,
			Data:    extractData(blockData, offset, size),
		}
	}

	c.stats.Misses++
	return c.handleMiss(req, size, false, 0)
}

// Write performs a cache write issued by the instruction at pc.
// Uses write-allocate policy: on miss, fetch the block first, then write.
func (c *Cache) Write(pc, addr uint64, size int, data uint64) AccessResult {
	c.stats.Writes++
	req := replacement.Request{PC: pc, Addr: addr, Type: replacement.AccessStore}

	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		c.stats.Hits++

		offset := addr % uint64(c.config.BlockSize)
		blockData := c.dataStore[c.blockIndex(block)]
		storeData(blockData, offset, size, data)
		block.IsDirty = true

		c.touch(block, req, true)

		return AccessResult{
			Hit:     true,
			Latency: c.config.HitLatency,
		}
	}

	c.stats.Misses++
	return c.handleMiss(req, size, true, data)
}

// handleMiss finds a way for the missing block, or serves the access from
// the backing store when the policy bypasses it.
func (c *Cache) handleMiss(
	req replacement.Request,
	size int,
	isWrite bool,
	writeData uint64,
) AccessResult {
	result := AccessResult{
		Hit:     false,
		Latency: c.config.MissLatency,
	}

	blockAddr := c.blockAddr(req.Addr)

	c.victims.SetRequest(req)
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		c.stats.Bypasses++
		result.Bypassed = true
		if isWrite {
			c.writeThrough(req.Addr, size, writeData)
		} else {
			result.Data = c.readThrough(req.Addr, size)
		}
		return result
	}

	victimData := c.dataStore[c.blockIndex(victim)]

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = victim.Tag // Tag stores block-aligned address

		if victim.IsDirty && c.backing != nil {
			c.stats.Writebacks++
			c.backing.Write(victim.Tag, victimData)
		}
	}

	if c.backing != nil {
		copy(victimData, c.backing.Read(blockAddr, c.config.BlockSize))
	} else {
		clear(victimData)
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false

	offset := req.Addr % uint64(c.config.BlockSize)
	if isWrite {
		storeData(victimData, offset, size, writeData)
		victim.IsDirty = true
	} else {
		result.Data = extractData(victimData, offset, size)
	}

	c.touch(victim, req, false)

	return result
}

func (c *Cache) readThrough(addr uint64, size int) uint64 {
	if c.backing == nil {
		return 0
	}
	return extractData(c.backing.Read(addr, size), 0, size)
}

func (c *Cache) writeThrough(addr uint64, size int, value uint64) {
	if c.backing == nil {
		return
	}
	data := make([]byte, size)
	storeData(data, 0, size, value)
	c.backing.Write(addr, data)
}

// Contains reports whether the block holding addr is resident.
func (c *Cache) Contains(addr uint64) bool {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	return block != nil && block.IsValid
}

// Invalidate marks a cache line as invalid without writing it back.
func (c *Cache) Invalidate(addr uint64) {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush writes back all dirty blocks and invalidates them.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty && c.backing != nil {
				blockData := c.dataStore[c.blockIndex(block)]
				c.backing.Write(block.Tag, blockData)
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all cache lines without writeback, clears statistics
// and replaces the policy with a fresh instance.
func (c *Cache) Reset() {
	policy, err := replacement.New(c.rconfig)
	if err != nil {
		// The config was validated in New.
		panic(fmt.Sprintf("cache: rebuilding policy: %v", err))
	}

	c.policy = policy
	c.victims.policy = policy
	c.directory.Reset()
	c.stats = Statistics{}
}

// extractData extracts a little-endian value of the given size.
func extractData(data []byte, offset uint64, size int) uint64 {
	if data == nil || int(offset)+size > len(data) {
		return 0
	}

	var result uint64
	for i := 0; i < size; i++ {
		result |= uint64(data[int(offset)+i]) << (i * 8)
	}
	return result
}

// storeData stores a little-endian value of the given size.
func storeData(data []byte, offset uint64, size int, value uint64) {
	if data == nil || int(offset)+size > len(data) {
		return
	}

	for i := 0; i < size; i++ {
		data[int(offset)+i] = byte(value >> (i * 8))
	}
}
