package theory_test

import (
	"errors"
	"math/big"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
)

var _ = Describe("Operators", func() {
	var (
		b    *theory.Builder
		x, y theory.Expr
		p    theory.Expr
	)

	BeforeEach(func() {
		b = theory.NewBuilder()
		xv, err := b.FreshBoundVar("x", types.BV(32))
		Expect(err).NotTo(HaveOccurred())
		yv, err := b.FreshBoundVar("y", types.BV(32))
		Expect(err).NotTo(HaveOccurred())
		pv, err := b.FreshBoundVar("p", types.Bool)
		Expect(err).NotTo(HaveOccurred())
		x, y, p = theory.Ref(xv), theory.Ref(yv), theory.Ref(pv)
	})

	It("should type bitvector arithmetic", func() {
		e, err := theory.NewApp(theory.OpBVAdd, []theory.Expr{x, y})
		Expect(err).NotTo(HaveOccurred())
		Expect(types.Equal(e.Type(), types.BV(32))).To(BeTrue())
		Expect(e.String()).To(Equal("(bvadd x y)"))
	})

	It("should reject mismatched widths", func() {
		_, err := theory.NewApp(theory.OpBVAdd, []theory.Expr{x, theory.BVUint64(8, 1)})
		var te *theory.TypeError
		Expect(errors.As(err, &te)).To(BeTrue())
		Expect(te.Op).To(Equal("bvadd"))
	})

	It("should type extract and extensions by their indices", func() {
		lo, err := theory.NewApp(theory.OpBVExtract, []theory.Expr{x}, 0, 8)
		Expect(err).NotTo(HaveOccurred())
		Expect(types.Equal(lo.Type(), types.BV(8))).To(BeTrue())
		Expect(lo.String()).To(Equal("(extract[0,8] x)"))

		wide, err := theory.NewApp(theory.OpBVSext, []theory.Expr{x}, 64)
		Expect(err).NotTo(HaveOccurred())
		Expect(types.Equal(wide.Type(), types.BV(64))).To(BeTrue())

		_, err = theory.NewApp(theory.OpBVExtract, []theory.Expr{x}, 30, 8)
		Expect(err).To(HaveOccurred())
		_, err = theory.NewApp(theory.OpBVZext, []theory.Expr{x}, 16)
		Expect(err).To(HaveOccurred())
	})

	It("should type concat as the sum of widths", func() {
		e, err := theory.NewApp(theory.OpBVConcat, []theory.Expr{x, theory.BVUint64(1, 1)})
		Expect(err).NotTo(HaveOccurred())
		Expect(types.Equal(e.Type(), types.BV(33))).To(BeTrue())
	})

	It("should type array select and store", func() {
		mv, err := b.FreshBoundVar("mem", types.Array(types.BV(8), types.BV(32)))
		Expect(err).NotTo(HaveOccurred())
		m := theory.Ref(mv)

		r, err := theory.NewApp(theory.OpSelect, []theory.Expr{m, x})
		Expect(err).NotTo(HaveOccurred())
		Expect(types.Equal(r.Type(), types.BV(8))).To(BeTrue())

		w, err := theory.NewApp(theory.OpStore, []theory.Expr{m, x, theory.BVUint64(8, 7)})
		Expect(err).NotTo(HaveOccurred())
		Expect(types.Equal(w.Type(), m.Type())).To(BeTrue())

		_, err = theory.NewApp(theory.OpStore, []theory.Expr{m, x, y})
		Expect(err).To(HaveOccurred())
	})

	It("should type struct construction and projection", func() {
		s, err := theory.NewApp(theory.OpMkStruct, []theory.Expr{x, p})
		Expect(err).NotTo(HaveOccurred())
		Expect(types.Equal(s.Type(), types.Struct(types.BV(32), types.Bool))).To(BeTrue())

		f, err := theory.NewApp(theory.OpField, []theory.Expr{s}, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(types.Equal(f.Type(), types.Bool)).To(BeTrue())

		_, err = theory.NewApp(theory.OpField, []theory.Expr{s}, 2)
		Expect(err).To(HaveOccurred())
	})

	Describe("simplification", func() {
		It("should fold literals in connectives", func() {
			Expect(theory.MustApp(theory.OpAnd, []theory.Expr{theory.True, p})).To(BeIdenticalTo(p))
			Expect(theory.MustApp(theory.OpAnd, []theory.Expr{theory.False, p})).To(Equal(theory.False))
			Expect(theory.MustApp(theory.OpOr, []theory.Expr{theory.True, p})).To(Equal(theory.True))
			Expect(theory.MustApp(theory.OpNot, []theory.Expr{theory.False})).To(Equal(theory.True))
		})

		It("should remove double negation", func() {
			n := theory.MustApp(theory.OpNot, []theory.Expr{p})
			Expect(theory.MustApp(theory.OpNot, []theory.Expr{n})).To(BeIdenticalTo(p))
		})

		It("should pick the branch of a literal condition", func() {
			e, err := theory.Ite(theory.True, x, y)
			Expect(err).NotTo(HaveOccurred())
			Expect(e).To(BeIdenticalTo(x))

			e, err = theory.Ite(p, x, x)
			Expect(err).NotTo(HaveOccurred())
			Expect(e).To(BeIdenticalTo(x))
		})

		It("should decide equality of identical terms and distinct literals", func() {
			e, err := theory.Eq(x, x)
			Expect(err).NotTo(HaveOccurred())
			Expect(e).To(Equal(theory.True))

			e, err = theory.Eq(theory.BVUint64(4, 1), theory.BVUint64(4, 2))
			Expect(err).NotTo(HaveOccurred())
			Expect(e).To(Equal(theory.False))
		})
	})

	It("should parse operator names", func() {
		op, ok := theory.ParseOp("bvlshr")
		Expect(ok).To(BeTrue())
		Expect(op).To(Equal(theory.OpBVLshr))
		Expect(op.String()).To(Equal("bvlshr"))

		_, ok = theory.ParseOp("frobnicate")
		Expect(ok).To(BeFalse())
	})

	It("should reduce bitvector literals modulo their width", func() {
		Expect(theory.BV(8, big.NewInt(-1)).Value.Int64()).To(Equal(int64(255)))
		Expect(theory.BVUint64(4, 17).Value.Int64()).To(Equal(int64(1)))
		Expect(theory.BVUint64(4, 17).String()).To(Equal("(_ bv1 4)"))
	})
})
