package sig_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/isasem/sig"
	"github.com/sarchlab/isasem/types"
)

var _ = Describe("Catalog", func() {
	It("should keep declaration order and support lookup", func() {
		c, err := sig.NewCatalog("toy",
			sig.GlobalLocation{Name: "R0", Type: types.BV(32)},
			sig.GlobalLocation{Name: "FLAG", Type: types.BV(1)},
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Arch()).To(Equal("toy"))
		Expect(c.Len()).To(Equal(2))
		Expect(c.Locations()[0].Name).To(Equal("R0"))
		Expect(c.Locations()[1].Name).To(Equal("FLAG"))

		l, ok := c.Lookup("FLAG")
		Expect(ok).To(BeTrue())
		Expect(types.Equal(l.Type, types.BV(1))).To(BeTrue())

		_, ok = c.Lookup("R9")
		Expect(ok).To(BeFalse())
	})

	It("should reject duplicate names", func() {
		_, err := sig.NewCatalog("toy",
			sig.GlobalLocation{Name: "R0", Type: types.BV(32)},
			sig.GlobalLocation{Name: "R0", Type: types.BV(64)},
		)
		var de *sig.DuplicateLocationError
		Expect(errors.As(err, &de)).To(BeTrue())
		Expect(de.Name).To(Equal("R0"))
	})

	It("should not be mutated through returned slices", func() {
		c, _ := sig.NewCatalog("toy", sig.GlobalLocation{Name: "R0", Type: types.BV(32)})
		locs := c.Locations()
		locs[0].Name = "changed"
		Expect(c.Locations()[0].Name).To(Equal("R0"))
	})

	It("should fingerprint the ordered locations and their types", func() {
		r0 := sig.GlobalLocation{Name: "R0", Type: types.BV(32)}
		r1 := sig.GlobalLocation{Name: "R1", Type: types.BV(32)}
		a, _ := sig.NewCatalog("toy", r0, r1)
		b, _ := sig.NewCatalog("toy", r0, r1)
		swapped, _ := sig.NewCatalog("toy", r1, r0)
		narrow, _ := sig.NewCatalog("toy", r0, sig.GlobalLocation{Name: "R1", Type: types.BV(8)})
		other, _ := sig.NewCatalog("other", r0, r1)

		Expect(a.Fingerprint()).To(Equal(b.Fingerprint()))
		Expect(a.Fingerprint()).NotTo(Equal(swapped.Fingerprint()))
		Expect(a.Fingerprint()).NotTo(Equal(narrow.Fingerprint()))
		Expect(a.Fingerprint()).NotTo(Equal(other.Fingerprint()))
	})
})

var _ = Describe("Signatures", func() {
	args := []sig.Arg{
		{Name: "a", Type: types.SurfaceBV{Width: 32}},
		{Name: "b", Type: types.SurfaceBool{}},
	}

	Describe("FunctionSignature", func() {
		It("should expose its fields", func() {
			s, err := sig.NewFunctionSignature("add", args, types.BV(32))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Name()).To(Equal("add"))
			Expect(s.Kind()).To(Equal(sig.KindFunction))
			Expect(s.Args()).To(Equal(args))
			Expect(types.Equal(s.Return(), types.BV(32))).To(BeTrue())
			Expect(s.String()).To(Equal("function add(a bv32, b bool) bv32"))
		})

		It("should reject duplicate argument names", func() {
			_, err := sig.NewFunctionSignature("f", []sig.Arg{
				{Name: "a", Type: types.SurfaceBool{}},
				{Name: "a", Type: types.SurfaceBool{}},
			}, types.Bool)
			Expect(err).To(HaveOccurred())
		})

		It("should accept arguments with no base image", func() {
			_, err := sig.NewFunctionSignature("f", []sig.Arg{
				{Name: "s", Type: types.SurfaceString{}},
			}, types.Bool)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("ProcedureSignature", func() {
		footprint := []sig.GlobalLocation{
			{Name: "X0", Type: types.BV(64)},
			{Name: "PSTATE_Z", Type: types.BV(1)},
		}

		It("should keep the footprint order", func() {
			s, err := sig.NewProcedureSignature("cmp", args, footprint)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Kind()).To(Equal(sig.KindProcedure))
			Expect(s.Footprint()).To(Equal(footprint))
			Expect(types.Equal(s.FootprintStruct(), types.Struct(types.BV(64), types.BV(1)))).To(BeTrue())
		})

		It("should allow an empty footprint", func() {
			s, err := sig.NewProcedureSignature("nop", nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.FootprintStruct().Fields).To(BeEmpty())
		})

		It("should reject a location written twice", func() {
			_, err := sig.NewProcedureSignature("p", nil, []sig.GlobalLocation{footprint[0], footprint[0]})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Equal and Compare", func() {
		It("should compare shapes", func() {
			a, _ := sig.NewFunctionSignature("f", args, types.BV(32))
			b, _ := sig.NewFunctionSignature("f", args, types.BV(32))
			c, _ := sig.NewFunctionSignature("f", args, types.BV(16))
			p, _ := sig.NewProcedureSignature("f", args, nil)

			Expect(sig.Equal(a, b)).To(BeTrue())
			Expect(sig.Equal(a, c)).To(BeFalse())
			Expect(sig.Equal(a, p)).To(BeFalse())
			Expect(sig.Compare(a, p)).To(Equal(-1))
			Expect(sig.Compare(p, a)).To(Equal(1))
			Expect(sig.Compare(a, b)).To(Equal(0))
		})
	})
})
