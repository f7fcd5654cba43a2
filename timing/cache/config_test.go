package cache_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/replsim/timing/cache"
	"github.com/sarchlab/replsim/timing/replacement"
)

var _ = Describe("Config", func() {
	Describe("Default configurations", func() {
		It("should create L1D config", func() {
			config := cache.DefaultL1DConfig()
			Expect(config.Size).To(Equal(128 * 1024))
			Expect(config.Associativity).To(Equal(8))
			Expect(config.BlockSize).To(Equal(64))
			Expect(config.Validate()).To(Succeed())
		})

		It("should create L2 config", func() {
			config := cache.DefaultL2Config()
			Expect(config.NumSets()).To(Equal(8192))
			Expect(config.Validate()).To(Succeed())
		})

		It("should create a perceptron LLC config", func() {
			config := cache.DefaultLLCConfig()
			Expect(config.Policy).To(Equal(replacement.KindPerceptron))
			Expect(config.NumSets()).To(Equal(4096))

			rc := config.ReplacementConfig()
			Expect(rc.NumSets).To(Equal(4096))
			Expect(rc.Associativity).To(Equal(16))
			Expect(rc.Perceptron).To(Equal(replacement.DefaultPerceptronConfig()))
			Expect(config.Validate()).To(Succeed())
		})
	})

	Describe("Validate", func() {
		var config cache.Config

		BeforeEach(func() {
			config = cache.DefaultLLCConfig()
		})

		It("should reject a size that does not divide into sets", func() {
			config.Size = 4*1024*1024 + 64
			Expect(config.Validate()).To(MatchError(ContainSubstring("multiple of")))
		})

		It("should reject a miss latency below the hit latency", func() {
			config.MissLatency = 1
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject a bad replacement geometry", func() {
			config.Perceptron.SamplerSets = 3
			Expect(config.Validate()).To(MatchError(ContainSubstring("invalid replacement config")))

			_, err := cache.New(config, nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Load and save", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should round-trip through JSON", func() {
			config := cache.DefaultL2Config()
			config.Seed = 99
			path := filepath.Join(dir, "l2.json")

			Expect(config.SaveConfig(path)).To(Succeed())

			loaded, err := cache.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(*loaded).To(Equal(config))
		})

		It("should keep defaults for missing fields", func() {
			path := filepath.Join(dir, "partial.json")
			data := []byte(`{"policy": "lru", "associativity": 8}`)
			Expect(os.WriteFile(path, data, 0644)).To(Succeed())

			loaded, err := cache.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Policy).To(Equal(replacement.KindLRU))
			Expect(loaded.Associativity).To(Equal(8))
			Expect(loaded.Size).To(Equal(cache.DefaultLLCConfig().Size))
		})

		It("should report unknown policies", func() {
			path := filepath.Join(dir, "bad.json")
			Expect(os.WriteFile(path, []byte(`{"policy": "mru"}`), 0644)).To(Succeed())

			_, err := cache.LoadConfig(path)
			Expect(err).To(MatchError(ContainSubstring("failed to parse cache config")))
		})

		It("should report missing files", func() {
			_, err := cache.LoadConfig(filepath.Join(dir, "missing.json"))
			Expect(err).To(HaveOccurred())
		})
	})

	It("should clone independently", func() {
		config := cache.DefaultLLCConfig()
		clone := config.Clone()
		clone.Perceptron.Theta = 1
		Expect(config.Perceptron.Theta).To(Equal(int32(68)))
	})
})
