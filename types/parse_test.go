package types_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/isasem/types"
)

var _ = Describe("Parse", func() {
	DescribeTable("textual round trip",
		func(text string) {
			t, err := types.Parse(text)
			Expect(err).NotTo(HaveOccurred())
			Expect(t.String()).To(Equal(text))
		},
		Entry("bool", "bool"),
		Entry("int", "int"),
		Entry("bitvector", "bv32"),
		Entry("array", "array[bv64]bv8"),
		Entry("multi-index array", "array[bv4,int]bool"),
		Entry("symbolic struct", "struct{bv1,bv32}"),
		Entry("empty struct", "struct{}"),
		Entry("aggregate", "record{bv32,struct{bool}}"),
		Entry("unit", "unit"),
		Entry("float", "float64"),
		Entry("vector", "vector{bv8}"),
		Entry("intrinsic", "intrinsic:FPCRType"),
	)

	It("should ignore whitespace", func() {
		t, err := types.Parse(" array[ bv32 ] bv8 ")
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(types.SurfaceArray{Index: []types.BaseType{types.BV(32)}, Elem: types.BV(8)}))
	})

	It("should reject unknown names", func() {
		_, err := types.Parse("quux")
		Expect(err).To(MatchError(ContainSubstring("unknown type")))
	})

	It("should reject zero widths", func() {
		_, err := types.Parse("bv0")
		Expect(err).To(HaveOccurred())
	})

	It("should reject trailing input", func() {
		_, err := types.Parse("bv8}")
		Expect(err).To(MatchError(ContainSubstring("trailing")))
	})

	It("should reject non-representable array elements", func() {
		_, err := types.Parse("array[bv8]string")
		Expect(err).To(HaveOccurred())
	})

	Describe("ParseBase", func() {
		It("should parse representable types", func() {
			t, err := types.ParseBase("bv16")
			Expect(err).NotTo(HaveOccurred())
			Expect(types.Equal(t, types.BV(16))).To(BeTrue())
		})

		It("should reject aggregate types", func() {
			_, err := types.ParseBase("record{bool}")
			Expect(err).To(HaveOccurred())
		})
	})
})
