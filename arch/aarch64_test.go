package arch_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/isasem/arch"
	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
)

var _ = Describe("AArch64 catalog", func() {
	c := arch.AArch64()

	It("should hold every architectural location", func() {
		Expect(c.Arch()).To(Equal("aarch64"))
		Expect(c.Len()).To(Equal(arch.NumGPRs + arch.NumVRegs + len(arch.Flags) + 3))
	})

	It("should type registers, flags and memory", func() {
		x30, ok := c.Lookup("X30")
		Expect(ok).To(BeTrue())
		Expect(types.Equal(x30.Type, types.BV(64))).To(BeTrue())

		_, ok = c.Lookup("X31")
		Expect(ok).To(BeFalse())

		z, ok := c.Lookup("PSTATE_Z")
		Expect(ok).To(BeTrue())
		Expect(types.Equal(z.Type, types.BV(1))).To(BeTrue())

		v, ok := c.Lookup("V31")
		Expect(ok).To(BeTrue())
		Expect(types.Equal(v.Type, types.BV(128))).To(BeTrue())

		mem, ok := c.Lookup(arch.MemoryName)
		Expect(ok).To(BeTrue())
		Expect(mem.Type.String()).To(Equal("array[bv64]bv8"))
	})

	It("should only use names the solver accepts after normalization", func() {
		for _, l := range c.Locations() {
			_, err := theory.NormalizeSymbol(l.Name)
			Expect(err).NotTo(HaveOccurred(), l.Name)
		}
	})

	It("should look up catalogs by name", func() {
		a, err := arch.Lookup("arm64")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Len()).To(Equal(c.Len()))

		_, err = arch.Lookup("ppc")
		Expect(err).To(HaveOccurred())
	})
})
