// Package arch provides the global-location catalogs of supported
// architectures.
package arch

import (
	"fmt"

	"github.com/sarchlab/isasem/sig"
	"github.com/sarchlab/isasem/types"
)

// AArch64Name is the catalog name of the ARM64 architecture.
const AArch64Name = "aarch64"

// NumGPRs is the number of general-purpose registers, X0-X30. Encoding 31
// names either the zero register or SP and has no location of its own.
const NumGPRs = 31

// NumVRegs is the number of SIMD registers, V0-V31.
const NumVRegs = 32

// MemoryName is the location holding byte-addressed memory. Its leading
// underscore is normalized before the symbol reaches the solver.
const MemoryName = "__Memory"

// GPR returns the location name of an X register.
func GPR(n int) string { return fmt.Sprintf("X%d", n) }

// VReg returns the location name of a SIMD register.
func VReg(n int) string { return fmt.Sprintf("V%d", n) }

// Flags lists the PSTATE condition flags.
var Flags = []string{"PSTATE_N", "PSTATE_Z", "PSTATE_C", "PSTATE_V"}

// AArch64Locations lists every ARM64 global location in catalog order.
func AArch64Locations() []sig.GlobalLocation {
	locs := make([]sig.GlobalLocation, 0, NumGPRs+NumVRegs+len(Flags)+3)
	for i := 0; i < NumGPRs; i++ {
		locs = append(locs, sig.GlobalLocation{Name: GPR(i), Type: types.BV(64)})
	}
	locs = append(locs,
		sig.GlobalLocation{Name: "SP", Type: types.BV(64)},
		sig.GlobalLocation{Name: "PC", Type: types.BV(64)},
	)
	for _, f := range Flags {
		locs = append(locs, sig.GlobalLocation{Name: f, Type: types.BV(1)})
	}
	for i := 0; i < NumVRegs; i++ {
		locs = append(locs, sig.GlobalLocation{Name: VReg(i), Type: types.BV(128)})
	}
	locs = append(locs, sig.GlobalLocation{
		Name: MemoryName,
		Type: types.Array(types.BV(8), types.BV(64)),
	})
	return locs
}

// AArch64 returns the ARM64 catalog.
func AArch64() *sig.Catalog {
	c, err := sig.NewCatalog(AArch64Name, AArch64Locations()...)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the built-in catalog for an architecture name.
func Lookup(name string) (*sig.Catalog, error) {
	switch name {
	case AArch64Name, "arm64":
		return AArch64(), nil
	default:
		return nil, fmt.Errorf("no built-in catalog for architecture %q", name)
	}
}
