package types_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/isasem/types"
)

var _ = Describe("Type Bridge", func() {
	supported := []types.BaseType{
		types.Bool,
		types.Integer,
		types.BV(1),
		types.BV(32),
		types.BV(128),
		types.Array(types.BV(8), types.BV(64)),
		types.Array(types.Bool, types.BV(4), types.Integer),
		types.Struct(),
		types.Struct(types.BV(1), types.Bool, types.Array(types.BV(32), types.BV(5))),
	}

	Describe("Embed and Project", func() {
		It("should round trip every supported base type", func() {
			for _, t := range supported {
				back, err := types.Project(types.Embed(t))
				Expect(err).NotTo(HaveOccurred())
				Expect(types.Equal(back, t)).To(BeTrue(), "round trip of %s", t)
			}
		})

		It("should round trip every representable surface type", func() {
			for _, t := range supported {
				s := types.Embed(t)
				b, err := types.Project(s)
				Expect(err).NotTo(HaveOccurred())
				Expect(types.SurfaceEqual(types.Embed(b), s)).To(BeTrue())
			}
		})

		It("should preserve order when projecting lists", func() {
			in := []types.SurfaceType{types.SurfaceBV{Width: 8}, types.SurfaceBool{}, types.SurfaceInteger{}}
			out, err := types.ProjectAll(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(3))
			Expect(types.Equal(out[0], types.BV(8))).To(BeTrue())
			Expect(types.Equal(out[1], types.Bool)).To(BeTrue())
			Expect(types.Equal(out[2], types.Integer)).To(BeTrue())
		})

		It("should preserve order when embedding lists", func() {
			out := types.EmbedAll([]types.BaseType{types.Integer, types.BV(3)})
			Expect(out).To(Equal([]types.SurfaceType{types.SurfaceInteger{}, types.SurfaceBV{Width: 3}}))
		})
	})

	Describe("Project failures", func() {
		DescribeTable("non-representable surface types",
			func(t types.SurfaceType) {
				_, err := types.Project(t)
				var nre *types.NotRepresentableError
				Expect(errors.As(err, &nre)).To(BeTrue())
				Expect(types.SurfaceEqual(nre.Type, t)).To(BeTrue())
				Expect(types.IsRepresentable(t)).To(BeFalse())
			},
			Entry("unit", types.SurfaceUnit{}),
			Entry("string", types.SurfaceString{}),
			Entry("float", types.SurfaceFloat{Bits: 64}),
			Entry("vector", types.SurfaceVector{Elem: types.SurfaceBV{Width: 8}}),
			Entry("intrinsic", types.SurfaceIntrinsic{Name: "Opaque"}),
			Entry("aggregate struct", types.SurfaceStruct{Fields: []types.SurfaceType{types.SurfaceBool{}}}),
		)

		It("should stop a list projection at the first bad element", func() {
			_, err := types.ProjectAll([]types.SurfaceType{types.SurfaceBool{}, types.SurfaceString{}})
			Expect(err).To(MatchError(ContainSubstring("string")))
		})
	})

	Describe("Equal", func() {
		It("should compare bitvector widths", func() {
			Expect(types.Equal(types.BV(32), types.BV(32))).To(BeTrue())
			Expect(types.Equal(types.BV(32), types.BV(64))).To(BeFalse())
		})

		It("should distinguish kinds", func() {
			Expect(types.Equal(types.Bool, types.Integer)).To(BeFalse())
			Expect(types.Equal(types.Struct(types.Bool), types.Array(types.Bool, types.Bool))).To(BeFalse())
		})

		It("should compare struct fields positionally", func() {
			a := types.Struct(types.BV(1), types.BV(2))
			b := types.Struct(types.BV(2), types.BV(1))
			Expect(types.Equal(a, b)).To(BeFalse())
		})
	})

	Describe("Validate", func() {
		It("should reject zero-width bitvectors", func() {
			Expect(types.Validate(types.BV(0))).To(HaveOccurred())
		})

		It("should reject index-less arrays", func() {
			Expect(types.Validate(types.ArrayType{Elem: types.Bool})).To(HaveOccurred())
		})

		It("should accept nested well-formed types", func() {
			Expect(types.Validate(types.Struct(types.Array(types.BV(8), types.BV(64))))).To(Succeed())
		})
	})
})
