package theory_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
)

var _ = Describe("Builder", func() {
	var b *theory.Builder

	BeforeEach(func() {
		b = theory.NewBuilder()
	})

	Describe("FreshBoundVar", func() {
		It("should normalize a leading underscore", func() {
			v, err := b.FreshBoundVar("_flag", types.BV(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Name()).To(Equal("U_flag"))
		})

		It("should reject names no normalization can fix", func() {
			_, err := b.FreshBoundVar("bad name!", types.Bool)
			var ie *theory.InvalidSymbolNameError
			Expect(errors.As(err, &ie)).To(BeTrue())
			Expect(ie.Name).To(Equal("bad name!"))
		})

		It("should reject reserved words", func() {
			_, err := b.FreshBoundVar("forall", types.Bool)
			Expect(err).To(HaveOccurred())
		})

		It("should give every variable a distinct identity and name", func() {
			a, err := b.FreshBoundVar("r", types.BV(8))
			Expect(err).NotTo(HaveOccurred())
			c, err := b.FreshBoundVar("r", types.BV(8))
			Expect(err).NotTo(HaveOccurred())
			Expect(a.ID()).NotTo(Equal(c.ID()))
			Expect(a.Name()).To(Equal("r"))
			Expect(c.Name()).To(Equal("r_1"))
		})
	})

	Describe("DefineFunction", func() {
		It("should bind parameters in declared order", func() {
			x, _ := b.FreshBoundVar("x", types.BV(8))
			y, _ := b.FreshBoundVar("y", types.BV(8))
			body := theory.MustApp(theory.OpBVSub, []theory.Expr{theory.Ref(y), theory.Ref(x)})

			f, err := b.DefineFunction("sub", []*theory.BoundVar{x, y}, body)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.IsDefined()).To(BeTrue())
			Expect(f.Params()).To(Equal([]*theory.BoundVar{x, y}))
			Expect(types.EqualAll(f.ArgTypes(), []types.BaseType{types.BV(8), types.BV(8)})).To(BeTrue())
			Expect(types.Equal(f.Return(), types.BV(8))).To(BeTrue())
		})

		It("should refuse open bodies", func() {
			x, _ := b.FreshBoundVar("x", types.BV(8))
			y, _ := b.FreshBoundVar("y", types.BV(8))
			body := theory.MustApp(theory.OpBVAdd, []theory.Expr{theory.Ref(x), theory.Ref(y)})

			_, err := b.DefineFunction("f", []*theory.BoundVar{x}, body)
			var oe *theory.OpenTermError
			Expect(errors.As(err, &oe)).To(BeTrue())
			Expect(oe.Free).To(Equal([]string{"y"}))
		})
	})

	Describe("Apply", func() {
		It("should type check arguments", func() {
			f, err := b.UninterpretedFunction("uf_decompose", []types.BaseType{types.BV(32)}, types.BV(5))
			Expect(err).NotTo(HaveOccurred())
			Expect(f.IsDefined()).To(BeFalse())
			Expect(f.Params()).To(BeNil())

			_, err = f.Apply(theory.True)
			Expect(err).To(HaveOccurred())

			c, err := f.Apply(theory.BVUint64(32, 3))
			Expect(err).NotTo(HaveOccurred())
			Expect(types.Equal(c.Type(), types.BV(5))).To(BeTrue())
			Expect(c.String()).To(Equal("(uf_decompose (_ bv3 32))"))
		})
	})
})
