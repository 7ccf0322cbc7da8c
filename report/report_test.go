package report_test

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/isasem/report"
)

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		store *report.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		store, err = report.Open(":memory:")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)
	})

	It("should record a batch", func() {
		b, err := store.BeginBatch(ctx, "aarch64", "builder", "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(b.ID).NotTo(Equal(uuid.Nil))

		got, err := store.Batch(ctx, b.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Arch).To(Equal("aarch64"))
		Expect(got.Host).To(Equal("builder"))
		Expect(got.User).To(Equal("alice"))
		Expect(got.SubmittedAt.Equal(b.SubmittedAt)).To(BeTrue())
	})

	It("should summarize outcomes", func() {
		b, err := store.BeginBatch(ctx, "aarch64", "h", "u")
		Expect(err).NotTo(HaveOccurred())

		Expect(store.RecordSuccess(ctx, b, "LSL64", "function", 3)).To(Succeed())
		Expect(store.RecordSuccess(ctx, b, "SetZ", "procedure", 5)).To(Succeed())
		Expect(store.RecordSuccess(ctx, b, "ADD", "procedure", 2)).To(Succeed())
		Expect(store.RecordFailure(ctx, b, "Unallocated", "execution", "aborted", []string{"entry: UNDEFINED"})).To(Succeed())

		sum, err := store.Summary(ctx, b.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Successes).To(Equal(3))
		Expect(sum.Failures).To(Equal(1))
		Expect(sum.ByKind).To(Equal(map[string]int{"function": 1, "procedure": 2}))
		Expect(sum.ByCategory).To(Equal(map[string]int{"execution": 1}))
	})

	It("should keep failure traces in order", func() {
		b, err := store.BeginBatch(ctx, "aarch64", "h", "u")
		Expect(err).NotTo(HaveOccurred())

		trace := []string{"branch on p, then: t: a", "branch on p, else: e: b"}
		Expect(store.RecordFailure(ctx, b, "Never", "execution", "aborted", trace)).To(Succeed())
		Expect(store.RecordFailure(ctx, b, "Describe", "allocation", "cannot allocate", nil)).To(Succeed())

		fails, err := store.Failures(ctx, b.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(fails).To(HaveLen(2))
		Expect(fails[0].Routine).To(Equal("Describe"))
		Expect(fails[0].Trace).To(BeEmpty())
		Expect(fails[1].Routine).To(Equal("Never"))
		Expect(fails[1].Trace).To(Equal(trace))
	})

	It("should share routines across batches of one architecture", func() {
		b1, err := store.BeginBatch(ctx, "aarch64", "h", "u")
		Expect(err).NotTo(HaveOccurred())
		b2, err := store.BeginBatch(ctx, "aarch64", "h", "u")
		Expect(err).NotTo(HaveOccurred())

		Expect(store.RecordSuccess(ctx, b1, "LSL64", "function", 3)).To(Succeed())
		Expect(store.RecordSuccess(ctx, b2, "LSL64", "function", 3)).To(Succeed())

		s1, err := store.Summary(ctx, b1.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(s1.Successes).To(Equal(1))

		batches, err := store.Batches(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(batches).To(HaveLen(2))
	})

	It("should reject unknown batches", func() {
		_, err := store.Summary(ctx, uuid.New())
		Expect(errors.Is(err, report.ErrUnknownBatch)).To(BeTrue())

		err = store.RecordSuccess(ctx, &report.Batch{ID: uuid.New()}, "x", "function", 0)
		Expect(errors.Is(err, report.ErrUnknownBatch)).To(BeTrue())
	})

	It("should persist to a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "report.db")
		s, err := report.Open(path)
		Expect(err).NotTo(HaveOccurred())
		b, err := s.BeginBatch(ctx, "toy", "h", "u")
		Expect(err).NotTo(HaveOccurred())
		Expect(s.RecordSuccess(ctx, b, "id", "function", 1)).To(Succeed())
		Expect(s.Close()).To(Succeed())

		s, err = report.Open(path)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = s.Close() }()
		sum, err := s.Summary(ctx, b.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Successes).To(Equal(1))
	})
})
