package cmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/isasem/cmd"
	"github.com/sarchlab/isasem/report"
)

var toy = filepath.Join("..", "loader", "testdata", "toy.yaml")

func run(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	root := cmd.NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

var _ = Describe("Commands", func() {
	Describe("catalog", func() {
		It("should list the built-in AArch64 locations by default", func() {
			out, err := run("catalog")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HavePrefix("aarch64 ("))
			Expect(out).To(ContainSubstring("X30"))
			Expect(out).To(ContainSubstring("PSTATE_N"))
			Expect(out).NotTo(ContainSubstring("\x1b["))
		})

		It("should list the catalog of an architecture file", func() {
			out, err := run("catalog", "--file", toy)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HavePrefix("toy (4 locations)"))
			Expect(out).To(ContainSubstring("mem"))
			Expect(out).To(ContainSubstring("array[bv32]bv8"))
		})

		It("should reject a name together with a file", func() {
			_, err := run("catalog", "--file", toy, "aarch64")
			Expect(err).To(MatchError(ContainSubstring("not both")))
		})

		It("should reject an unknown architecture", func() {
			_, err := run("catalog", "mips")
			Expect(err).To(MatchError(ContainSubstring("mips")))
		})
	})

	Describe("extract", func() {
		It("should print function and procedure formulas", func() {
			out, err := run("extract", toy, "id", "setFlag", "nop")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("function id(x bv32) bv32"))
			Expect(out).To(ContainSubstring("(x bv32) -> bv32"))
			Expect(out).To(ContainSubstring("= x\n"))
			Expect(out).To(ContainSubstring("procedure setFlag() writes {_flag:bool}"))
			Expect(out).To(ContainSubstring("_flag := "))
			Expect(out).To(ContainSubstring("procedure nop() writes {}"))
		})

		It("should report failed routines with their category", func() {
			out, err := run("extract", toy, "spin")
			Expect(err).To(MatchError("1 of 1 routines failed"))
			Expect(out).To(ContainSubstring("FAIL spin [execution]"))
		})

		It("should reject an unknown routine", func() {
			_, err := run("extract", toy, "missing")
			Expect(err).To(MatchError(ContainSubstring("has no routine missing")))
		})

		It("should report a missing architecture file", func() {
			_, err := run("extract", "no-such.yaml")
			Expect(err).To(MatchError(ContainSubstring("failed to read architecture file")))
		})
	})

	Describe("config", func() {
		It("should reject an invalid configuration", func() {
			path := filepath.Join(GinkgoT().TempDir(), "config.json")
			Expect(os.WriteFile(path, []byte(`{"workers": 0}`), 0644)).To(Succeed())

			_, err := run("--config", path, "catalog")
			Expect(err).To(MatchError(ContainSubstring("invalid config")))
		})

		It("should write solver queries to the configured log", func() {
			dir := GinkgoT().TempDir()
			logPath := filepath.Join(dir, "solver.log")
			path := filepath.Join(dir, "config.json")
			Expect(os.WriteFile(path, []byte(`{"solver_log": "`+logPath+`"}`), 0644)).To(Succeed())

			_, err := run("--config", path, "extract", toy, "id")
			Expect(err).NotTo(HaveOccurred())
			_, err = os.Stat(logPath)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("batch and report", func() {
		var db string

		BeforeEach(func() {
			db = filepath.Join(GinkgoT().TempDir(), "report.db")
		})

		It("should extract all routines and record the batch", func() {
			out, err := run("batch", "-j", "2", "--report", db, toy)
			Expect(err).To(MatchError("1 of 4 routines failed"))
			Expect(out).To(ContainSubstring("ok   id"))
			Expect(out).To(ContainSubstring("FAIL spin [execution]"))
			Expect(out).To(ContainSubstring("3 succeeded, 1 failed"))

			store, err := report.Open(db)
			Expect(err).NotTo(HaveOccurred())
			batches, err := store.Batches(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Close()).To(Succeed())
			Expect(batches).To(HaveLen(1))
			id := batches[0].ID.String()
			Expect(out).To(ContainSubstring("batch " + id))

			out, err = run("report", "list", "--db", db)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring(id))
			Expect(out).To(ContainSubstring("toy"))

			out, err = run("report", "summary", id, "--db", db)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("3 succeeded, 1 failed"))
			Expect(out).To(ContainSubstring("execution  1"))

			out, err = run("report", "failures", id, "--db", db)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("FAIL spin [execution]"))
		})

		It("should succeed when every routine extracts", func() {
			out, err := run("batch", "--report", db, toy, "id", "nop")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("2 succeeded, 0 failed"))
		})

		It("should reject a malformed batch id", func() {
			_, err := run("report", "summary", "nope", "--db", db)
			Expect(err).To(MatchError(ContainSubstring("invalid batch id")))
		})

		It("should require a report database", func() {
			_, err := run("report", "list")
			Expect(err).To(MatchError(ContainSubstring("no report database")))
		})
	})
})
