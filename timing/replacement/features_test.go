package replacement_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/replsim/timing/replacement"
)

var _ = Describe("Features", func() {
	Describe("History", func() {
		It("should keep the most recent PC first", func() {
			var h replacement.History
			h.Push(0x10)
			h.Push(0x20)
			h.Push(0x30)
			Expect(h).To(Equal(replacement.History{0x30, 0x20, 0x10, 0}))

			h.Push(0x40)
			h.Push(0x50)
			Expect(h).To(Equal(replacement.History{0x50, 0x40, 0x30, 0x20}))
		})

		It("should not modify the receiver when building a pushed copy", func() {
			h := replacement.History{1, 2, 3, 4}
			pushed := h.Pushed(9)
			Expect(pushed).To(Equal(replacement.History{9, 1, 2, 3}))
			Expect(h).To(Equal(replacement.History{1, 2, 3, 4}))
		})
	})

	It("should hash PC windows with history and tag windows", func() {
		h := replacement.History{0x100, 0, 0, 0}
		f := replacement.Features(0x100, 0x1234, h)

		Expect(f).To(Equal(replacement.FeatureVector{
			0x40, // (0x100>>2) ^ 0x00
			0x00,
			0x00,
			0x00,
			0x23, // (0x1234>>4) & 0xff
			0x24, // (0x1234>>7) & 0xff
		}))
	})

	It("should mix the low PC byte into every index", func() {
		h := replacement.History{0xff, 0, 0, 0}
		f := replacement.Features(0xff, 0, h)
		Expect(f).To(Equal(replacement.FeatureVector{0x3f ^ 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}))
	})

	It("should be pure for identical inputs", func() {
		h := replacement.History{0x4008, 0x4004, 0x4000, 0x3ffc}
		first := replacement.Features(0x4008, 0xabcdef, h)
		for i := 0; i < 10; i++ {
			Expect(replacement.Features(0x4008, 0xabcdef, h)).To(Equal(first))
		}
		Expect(h).To(Equal(replacement.History{0x4008, 0x4004, 0x4000, 0x3ffc}))
	})
})
