package solver_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/isasem/solver"
	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
)

var _ = Describe("GiniSession", func() {
	var (
		s    *solver.GiniSession
		p, q theory.Expr
		x    theory.Expr
	)

	BeforeEach(func() {
		s = solver.NewGini()
		b := theory.NewBuilder()
		pv, _ := b.FreshBoundVar("p", types.Bool)
		qv, _ := b.FreshBoundVar("q", types.Bool)
		xv, _ := b.FreshBoundVar("x", types.BV(8))
		p, q, x = theory.Ref(pv), theory.Ref(qv), theory.Ref(xv)
	})

	AfterEach(func() {
		Expect(s.Close()).To(Succeed())
	})

	It("should decide propositional queries exactly", func() {
		notP, _ := theory.Not(p)

		res, err := s.Check([]theory.Expr{p, q})
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(solver.Sat))

		res, err = s.Check([]theory.Expr{p, notP})
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(solver.Unsat))
	})

	It("should handle implication and boolean equality", func() {
		imp := theory.MustApp(theory.OpImplies, []theory.Expr{p, q})
		notQ, _ := theory.Not(q)
		res, err := s.Check([]theory.Expr{imp, p, notQ})
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(solver.Unsat))

		eq, _ := theory.Eq(p, q)
		res, err = s.Check([]theory.Expr{eq, p, q})
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(solver.Sat))
	})

	It("should prove contradictions over abstracted atoms", func() {
		lt := theory.MustApp(theory.OpBVUlt, []theory.Expr{x, theory.BVUint64(8, 4)})
		notLt, _ := theory.Not(lt)

		res, err := s.Check([]theory.Expr{lt, notLt})
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(solver.Unsat))
	})

	It("should not claim satisfiability over abstracted atoms", func() {
		lt := theory.MustApp(theory.OpBVUlt, []theory.Expr{x, theory.BVUint64(8, 4)})
		res, err := s.Check([]theory.Expr{lt})
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(solver.Unknown))
	})

	It("should reject non-boolean conditions", func() {
		_, err := s.Check([]theory.Expr{x})
		Expect(err).To(HaveOccurred())
	})

	It("should write every query to its log", func() {
		var buf bytes.Buffer
		s.SetLog(&buf)
		_, err := s.Check([]theory.Expr{p})
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(Equal("(check-sat-assuming (p)) ; sat\n"))
	})
})

var _ = Describe("New", func() {
	It("should open sessions for known backends", func() {
		for _, name := range []string{solver.BackendGini, solver.BackendNone} {
			f, err := solver.New(name)
			Expect(err).NotTo(HaveOccurred())
			sess, err := f()
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.Close()).To(Succeed())
		}
	})

	It("should answer unknown from the null backend", func() {
		f, _ := solver.New(solver.BackendNone)
		sess, _ := f()
		res, err := sess.Check([]theory.Expr{theory.False})
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(solver.Unknown))
	})

	It("should reject unknown backends", func() {
		_, err := solver.New("cvc9")
		Expect(err).To(HaveOccurred())
	})
})
