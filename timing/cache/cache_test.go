package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/replsim/timing/cache"
	"github.com/sarchlab/replsim/timing/replacement"
)

// 4KB, 4-way, 64B lines: 16 sets, so addresses 1KB apart share a set.
func smallConfig(kind replacement.Kind) cache.Config {
	config := cache.DefaultL1DConfig()
	config.Size = 4 * 1024
	config.Associativity = 4
	config.BlockSize = 64
	config.HitLatency = 1
	config.MissLatency = 10
	config.Policy = kind
	config.Perceptron.SamplerSets = 4
	return config
}

var _ = Describe("Cache", func() {
	var (
		c       *cache.Cache
		memory  *cache.SparseMemory
		backing *cache.MemoryBacking
	)

	const pc = uint64(0x400)

	BeforeEach(func() {
		memory = cache.NewSparseMemory()
		backing = cache.NewMemoryBacking(memory)

		var err error
		c, err = cache.New(smallConfig(replacement.KindLRU), backing)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			memory.Write64(0x1000, 0xDEADBEEF)

			result := c.Read(pc, 0x1000, 8)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Bypassed).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(10)))
			Expect(result.Data).To(Equal(uint64(0xDEADBEEF)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("should hit on cached data", func() {
			memory.Write64(0x1000, 0xCAFEBABE)

			c.Read(pc, 0x1000, 8)

			result := c.Read(pc, 0x1000, 8)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(1)))
			Expect(result.Data).To(Equal(uint64(0xCAFEBABE)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(2)))
			Expect(stats.HitRate()).To(BeNumerically("~", 0.5))
			Expect(stats.MissRate()).To(BeNumerically("~", 0.5))
		})

		It("should hit on different addresses in same cache line", func() {
			memory.Write32(0x1000, 0x11111111)
			memory.Write32(0x1004, 0x22222222)

			c.Read(pc, 0x1000, 4)

			result := c.Read(pc, 0x1004, 4)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Data).To(Equal(uint64(0x22222222)))
		})
	})

	Describe("Write operations", func() {
		It("should write-allocate on miss", func() {
			result := c.Write(pc, 0x1000, 8, 0x12345678)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(10)))
			Expect(c.Contains(0x1000)).To(BeTrue())

			readResult := c.Read(pc, 0x1000, 8)
			Expect(readResult.Hit).To(BeTrue())
			Expect(readResult.Data).To(Equal(uint64(0x12345678)))
		})

		It("should hit on cached data", func() {
			c.Write(pc, 0x1000, 8, 0x11111111)

			result := c.Write(pc, 0x1000, 8, 0x22222222)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(1)))

			readResult := c.Read(pc, 0x1000, 8)
			Expect(readResult.Data).To(Equal(uint64(0x22222222)))
		})
	})

	Describe("Eviction", func() {
		BeforeEach(func() {
			c.Write(pc, 0x0000, 8, 0x11111111)
			c.Write(pc, 0x0400, 8, 0x22222222)
			c.Write(pc, 0x0800, 8, 0x33333333)
			c.Write(pc, 0x0C00, 8, 0x44444444)
		})

		It("should fill empty ways without asking the policy", func() {
			Expect(c.Policy().Stats().Victims).To(Equal(uint64(0)))
			Expect(c.Policy().Stats().Misses).To(Equal(uint64(4)))
			Expect(c.Stats().Evictions).To(Equal(uint64(0)))
		})

		It("should evict when the set is full", func() {
			Expect(c.Read(pc, 0x0000, 8).Hit).To(BeTrue())
			Expect(c.Read(pc, 0x0400, 8).Hit).To(BeTrue())
			Expect(c.Read(pc, 0x0800, 8).Hit).To(BeTrue())
			Expect(c.Read(pc, 0x0C00, 8).Hit).To(BeTrue())

			result := c.Write(pc, 0x1000, 8, 0x55555555)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Evicted).To(BeTrue())
			Expect(result.EvictedAddr).To(Equal(uint64(0x0000)))

			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
			Expect(c.Policy().Stats().Victims).To(Equal(uint64(1)))
		})

		It("should follow the policy's choice of victim", func() {
			c.Read(pc, 0x0000, 8)
			c.Read(pc, 0x0800, 8)
			c.Read(pc, 0x0C00, 8)

			result := c.Read(pc, 0x1000, 8)
			Expect(result.EvictedAddr).To(Equal(uint64(0x0400)))
			Expect(c.Contains(0x0400)).To(BeFalse())
			Expect(c.Contains(0x0000)).To(BeTrue())
		})

		It("should writeback dirty evicted blocks", func() {
			c.Read(pc, 0x0400, 8)
			c.Read(pc, 0x0800, 8)
			c.Read(pc, 0x0C00, 8)

			c.Write(pc, 0x1000, 8, 0x55555555)

			Expect(memory.Read64(0x0000)).To(Equal(uint64(0x11111111)))
			Expect(c.Stats().Writebacks).To(Equal(uint64(1)))
		})

		It("should refill an invalidated way before evicting", func() {
			c.Invalidate(0x0800)
			Expect(c.Contains(0x0800)).To(BeFalse())

			result := c.Read(pc, 0x1000, 8)
			Expect(result.Evicted).To(BeFalse())
			Expect(c.Contains(0x1000)).To(BeTrue())
			Expect(c.Policy().Stats().Victims).To(Equal(uint64(0)))

			// Invalidation drops dirty data.
			Expect(memory.Read64(0x0800)).To(Equal(uint64(0)))
		})
	})

	Describe("Flush", func() {
		It("should write back all dirty blocks", func() {
			c.Write(pc, 0x0000, 8, 0x11111111)
			c.Write(pc, 0x1000, 8, 0x22222222)

			Expect(memory.Read64(0x0000)).To(Equal(uint64(0)))
			Expect(memory.Read64(0x1000)).To(Equal(uint64(0)))

			c.Flush()

			Expect(memory.Read64(0x0000)).To(Equal(uint64(0x11111111)))
			Expect(memory.Read64(0x1000)).To(Equal(uint64(0x22222222)))
			Expect(c.Stats().Writebacks).To(Equal(uint64(2)))
			Expect(c.Contains(0x0000)).To(BeFalse())
		})
	})

	Describe("Reset", func() {
		It("should drop lines, statistics and policy state", func() {
			c.Write(pc, 0x0000, 8, 0x11111111)
			old := c.Policy()

			c.Reset()

			Expect(c.Contains(0x0000)).To(BeFalse())
			Expect(c.Stats()).To(Equal(cache.Statistics{}))
			Expect(c.Policy()).NotTo(BeIdenticalTo(old))
			Expect(c.Policy().Stats()).To(Equal(replacement.Stats{}))
			Expect(memory.Read64(0x0000)).To(Equal(uint64(0)))
		})
	})

	Describe("Without a backing store", func() {
		It("should read zeros and drop writebacks", func() {
			nc, err := cache.New(smallConfig(replacement.KindLRU), nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(nc.Read(pc, 0x2000, 8).Data).To(Equal(uint64(0)))
			nc.Write(pc, 0x2000, 8, 7)
			nc.Flush()
			Expect(nc.Stats().Writebacks).To(Equal(uint64(0)))
		})
	})

	Describe("Perceptron bypass", func() {
		const (
			streamPC = uint64(0x4a8)
			otherPC  = uint64(0x7f30)
			baseTag  = uint64(0x155)
		)

		// set 1 of the 16-set geometry
		target := baseTag<<10 | 1<<6

		BeforeEach(func() {
			var err error
			c, err = cache.New(smallConfig(replacement.KindPerceptron), backing)
			Expect(err).NotTo(HaveOccurred())

			// Stream one PC through sampler set 0 until its blocks are
			// learned dead.
			for k := uint64(0); k < 64; k++ {
				c.Read(streamPC, (baseTag+k<<15)<<10, 8)
			}
			for i := uint64(0); i < 4; i++ {
				c.Read(otherPC, (0x999+i)<<10|1<<6, 8)
			}
		})

		It("should serve reads from the backing store without installing", func() {
			memory.Write64(target, 0xFEEDFACE)

			result := c.Read(streamPC, target, 8)
			Expect(result.Bypassed).To(BeTrue())
			Expect(result.Hit).To(BeFalse())
			Expect(result.Evicted).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(10)))
			Expect(result.Data).To(Equal(uint64(0xFEEDFACE)))
			Expect(c.Contains(target)).To(BeFalse())

			Expect(c.Stats().Bypasses).To(Equal(uint64(1)))
			Expect(c.Policy().Stats().Bypasses).To(Equal(uint64(1)))
		})

		It("should write bypassed stores straight to the backing store", func() {
			updates := c.Policy().Stats().Updates

			result := c.Write(streamPC, target+8, 8, 0xABCD)
			Expect(result.Bypassed).To(BeTrue())
			Expect(memory.Read64(target + 8)).To(Equal(uint64(0xABCD)))
			Expect(c.Policy().Stats().Updates).To(Equal(updates))

			Expect(c.Read(streamPC, target+8, 8).Data).To(Equal(uint64(0xABCD)))
			Expect(c.Stats().Bypasses).To(Equal(uint64(2)))
		})
	})
})
