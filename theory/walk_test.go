package theory_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
)

var _ = Describe("Walking terms", func() {
	var (
		b       *theory.Builder
		x, y, q *theory.BoundVar
	)

	BeforeEach(func() {
		b = theory.NewBuilder()
		x, _ = b.FreshBoundVar("x", types.BV(8))
		y, _ = b.FreshBoundVar("y", types.BV(8))
		q, _ = b.FreshBoundVar("q", types.BV(8))
	})

	It("should list free variables in first-occurrence order", func() {
		sum := theory.MustApp(theory.OpBVAdd, []theory.Expr{theory.Ref(y), theory.Ref(x)})
		e := theory.MustApp(theory.OpBVMul, []theory.Expr{sum, theory.Ref(y)})
		Expect(theory.FreeVars(e)).To(Equal([]*theory.BoundVar{y, x}))
	})

	It("should not report quantified variables", func() {
		eq, err := theory.Eq(theory.Ref(q), theory.Ref(x))
		Expect(err).NotTo(HaveOccurred())
		all, err := theory.Forall(q, eq)
		Expect(err).NotTo(HaveOccurred())
		Expect(theory.FreeVars(all)).To(Equal([]*theory.BoundVar{x}))
	})

	It("should compare terms structurally", func() {
		a := theory.MustApp(theory.OpBVAdd, []theory.Expr{theory.Ref(x), theory.BVUint64(8, 1)})
		c := theory.MustApp(theory.OpBVAdd, []theory.Expr{theory.Ref(x), theory.BVUint64(8, 1)})
		d := theory.MustApp(theory.OpBVAdd, []theory.Expr{theory.Ref(y), theory.BVUint64(8, 1)})
		Expect(theory.Identical(a, c)).To(BeTrue())
		Expect(theory.Identical(a, d)).To(BeFalse())
	})
})
