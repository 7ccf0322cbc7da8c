package loader_test

import (
	"errors"
	"io/fs"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/isasem/arch"
	"github.com/sarchlab/isasem/loader"
	"github.com/sarchlab/isasem/sig"
	"github.com/sarchlab/isasem/sim"
	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
)

var _ = Describe("Loader", func() {
	Context("with declared globals", func() {
		var a *loader.Architecture

		BeforeEach(func() {
			var err error
			a, err = loader.Load(filepath.Join("testdata", "toy.yaml"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should build the catalog in declaration order", func() {
			Expect(a.Name).To(Equal("toy"))
			Expect(a.Catalog.Arch()).To(Equal("toy"))
			locs := a.Catalog.Locations()
			Expect(locs).To(HaveLen(4))
			Expect(locs[2].Name).To(Equal("_flag"))
			Expect(types.Equal(locs[3].Type, types.Array(types.BV(8), types.BV(32)))).To(BeTrue())
		})

		It("should read function signatures and bodies", func() {
			r, ok := a.Routine("id")
			Expect(ok).To(BeTrue())
			fs, ok := r.Signature.(*sig.FunctionSignature)
			Expect(ok).To(BeTrue())
			Expect(types.Equal(fs.Return(), types.BV(32))).To(BeTrue())
			Expect(fs.Args()).To(Equal([]sig.Arg{{Name: "x", Type: types.SurfaceBV{Width: 32}}}))

			Expect(r.Body.Params).To(Equal([]types.SurfaceType{types.SurfaceBV{Width: 32}}))
			Expect(types.SurfaceEqual(r.Body.Return, types.SurfaceBV{Width: 32})).To(BeTrue())
			Expect(r.Body.Blocks[0].Term).To(Equal(&sim.Return{Value: &sim.ArgRef{Index: 0}}))
		})

		It("should resolve footprints against the catalog", func() {
			r, ok := a.Routine("setFlag")
			Expect(ok).To(BeTrue())
			ps, ok := r.Signature.(*sig.ProcedureSignature)
			Expect(ok).To(BeTrue())
			Expect(ps.Footprint()).To(Equal([]sig.GlobalLocation{{Name: "_flag", Type: types.Bool}}))
			Expect(types.SurfaceEqual(r.Body.Return,
				types.SurfaceStruct{Fields: []types.SurfaceType{types.SurfaceBool{}}})).To(BeTrue())
		})

		It("should read an empty struct", func() {
			r, ok := a.Routine("nop")
			Expect(ok).To(BeTrue())
			Expect(r.Body.Blocks[0].Term).To(Equal(&sim.Return{Value: &sim.MakeStruct{Fields: []sim.Term{}}}))
		})

		It("should keep routines in file order", func() {
			var names []string
			for _, r := range a.Routines {
				names = append(names, r.Signature.Name())
			}
			Expect(names).To(Equal([]string{"id", "setFlag", "spin", "nop"}))
		})
	})

	Context("without declared globals", func() {
		It("should use the built-in catalog", func() {
			a, err := loader.Load(filepath.Join("testdata", "aarch64.yaml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Catalog.Len()).To(Equal(arch.AArch64().Len()))
			Expect(a.Routines).To(HaveLen(8))
		})

		It("should read literals, operators and calls", func() {
			a, err := loader.Load(filepath.Join("testdata", "aarch64.yaml"))
			Expect(err).NotTo(HaveOccurred())

			r, _ := a.Routine("LSL64")
			ret := r.Body.Blocks[0].Term.(*sim.Return).Value.(*sim.OpTerm)
			Expect(ret.Op).To(Equal(theory.OpBVShl))
			Expect(ret.Args[1].(*sim.OpTerm).Indices).To(Equal([]int{64}))

			r, _ = a.Routine("SetZ")
			br := r.Body.Blocks[0].Term.(*sim.Branch)
			Expect(br.Then).To(Equal("zero"))
			lit := br.Cond.(*sim.OpTerm).Args[1].(*sim.Lit)
			Expect(lit.Expr.String()).To(Equal("(_ bv0 64)"))

			r, _ = a.Routine("DecodeLogicalImm")
			st := r.Body.Blocks[0].Term.(*sim.Return).Value.(*sim.MakeStruct)
			call := st.Fields[0].(*sim.CallTerm)
			Expect(call.Name).To(Equal("uf_decodeBitMasks__64"))
			Expect(types.Equal(call.Returns, types.BV(64))).To(BeTrue())

			r, _ = a.Routine("CheckedShift")
			as := r.Body.Blocks[0].Stmts[0].(*sim.Assert)
			Expect(as.Message).To(Equal("shift out of range"))
		})
	})

	Context("with malformed input", func() {
		DescribeTable("Parse errors",
			func(src, msg string) {
				_, err := loader.Parse([]byte(src))
				Expect(err).To(MatchError(ContainSubstring(msg)))
			},
			Entry("no arch", "routines: []", "no arch"),
			Entry("unknown arch", "arch: mips", "no built-in catalog"),
			Entry("bad global type", "arch: t\nglobals: [{name: a, type: bv0}]", "global a"),
			Entry("duplicate routine", `
arch: t
globals: [{name: a, type: bv8}]
routines:
  - {name: f, returns: bv8, body: {blocks: [{label: e, return: {global: a}}]}}
  - {name: f, returns: bv8, body: {blocks: [{label: e, return: {global: a}}]}}
`, "declared twice"),
			Entry("unknown kind", `
arch: t
globals: [{name: a, type: bv8}]
routines:
  - {name: f, kind: macro, body: {blocks: [{label: e, fail: x}]}}
`, "unknown routine kind"),
			Entry("unknown footprint", `
arch: t
globals: [{name: a, type: bv8}]
routines:
  - {name: p, footprint: [b], body: {blocks: [{label: e, fail: x}]}}
`, "not in the catalog"),
			Entry("two terminators", `
arch: t
globals: [{name: a, type: bv8}]
routines:
  - {name: f, returns: bv8, body: {blocks: [{label: e, jump: e, fail: x}]}}
`, "exactly one"),
			Entry("unknown operator", `
arch: t
globals: [{name: a, type: bv8}]
routines:
  - {name: f, returns: bv8, body: {blocks: [{label: e, return: {op: frob}}]}}
`, "unknown operator"),
			Entry("dangling jump", `
arch: t
globals: [{name: a, type: bv8}]
routines:
  - {name: f, returns: bv8, body: {blocks: [{label: e, jump: nowhere}]}}
`, "unknown label"),
			Entry("bad literal", `
arch: t
globals: [{name: a, type: bv8}]
routines:
  - {name: f, returns: bv8, body: {blocks: [{label: e, return: {bv: zz, width: 8}}]}}
`, "invalid number"),
		)

		It("should keep unknown footprint locations that carry a type", func() {
			a, err := loader.Parse([]byte(`
arch: t
globals: [{name: a, type: bv8}]
routines:
  - {name: p, footprint: ["b:bv8"], body: {blocks: [{label: e, fail: x}]}}
`))
			Expect(err).NotTo(HaveOccurred())
			ps := a.Routines[0].Signature.(*sig.ProcedureSignature)
			Expect(ps.Footprint()[0].Name).To(Equal("b"))
		})

		It("should report a missing file", func() {
			_, err := loader.Load(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
			Expect(err).To(MatchError(ContainSubstring("failed to read architecture file")))
			Expect(errors.Is(err, fs.ErrNotExist)).To(BeTrue())
		})
	})
})
