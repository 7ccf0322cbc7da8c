package batch_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/isasem/batch"
	"github.com/sarchlab/isasem/extract"
	"github.com/sarchlab/isasem/formula"
	"github.com/sarchlab/isasem/loader"
	"github.com/sarchlab/isasem/report"
)

func load(name string) *loader.Architecture {
	a, err := loader.Load(filepath.Join("..", "loader", "testdata", name))
	Expect(err).NotTo(HaveOccurred())
	return a
}

var _ = Describe("Runner", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("should extract every routine and keep input order", func() {
		a := load("aarch64.yaml")
		ext := extract.New(a.Catalog, extract.WithMaxSteps(10000))
		runner := batch.NewRunner(ext, batch.WithWorkers(4))

		out, err := runner.Run(ctx, a.Routines)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Results).To(HaveLen(len(a.Routines)))
		for i, r := range out.Results {
			Expect(r.Name()).To(Equal(a.Routines[i].Signature.Name()))
		}
		Expect(out.Succeeded).To(Equal(6))
		Expect(out.Failed).To(Equal(2))

		byName := map[string]batch.Result{}
		for _, r := range out.Results {
			byName[r.Name()] = r
		}
		Expect(byName["LSL64"].Formula).To(BeAssignableToTypeOf(&formula.FunctionFormula{}))
		Expect(byName["SetZ"].Formula).To(BeAssignableToTypeOf(&formula.ProcedureFormula{}))
		Expect(byName["Unallocated"].Category).To(Equal(extract.CategoryExecution))
		Expect(byName["DescribeOp"].Category).To(Equal(extract.CategoryAllocation))
		Expect(byName["DescribeOp"].Formula).To(BeNil())
	})

	It("should record outcomes in the report store", func() {
		a := load("aarch64.yaml")
		store, err := report.Open(":memory:")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)

		ext := extract.New(a.Catalog)
		runner := batch.NewRunner(ext, batch.WithWorkers(2), batch.WithReport(store, "ci", "tester"))
		out, err := runner.Run(ctx, a.Routines)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Batch).NotTo(BeNil())

		sum, err := store.Summary(ctx, out.Batch.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Successes).To(Equal(6))
		Expect(sum.ByCategory).To(Equal(map[string]int{"execution": 1, "allocation": 1}))
		Expect(sum.Batch.Host).To(Equal("ci"))

		fails, err := store.Failures(ctx, out.Batch.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(fails).To(HaveLen(2))
		Expect(fails[1].Routine).To(Equal("Unallocated"))
		Expect(fails[1].Trace).To(Equal([]string{"entry: UNDEFINED"}))
	})

	It("should report progress once per routine", func() {
		a := load("toy.yaml")
		ext := extract.New(a.Catalog, extract.WithMaxSteps(100))

		var calls, totals []int
		runner := batch.NewRunner(ext, batch.WithWorkers(3),
			batch.WithProgress(func(done, total int, _ *batch.Result) {
				calls = append(calls, done)
				totals = append(totals, total)
			}))
		out, err := runner.Run(ctx, a.Routines)
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal([]int{1, 2, 3, 4}))
		Expect(totals).To(Equal([]int{4, 4, 4, 4}))
		Expect(out.Results[2].Category).To(Equal(extract.CategoryExecution))
		Expect(out.Failed).To(Equal(1))
	})

	It("should stop on a cancelled context", func() {
		a := load("toy.yaml")
		ext := extract.New(a.Catalog, extract.WithMaxSteps(100))
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := batch.NewRunner(ext).Run(cctx, a.Routines)
		Expect(err).To(MatchError(context.Canceled))
	})
})
