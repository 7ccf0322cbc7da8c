package types

import (
	"fmt"
	"strings"
)

// SurfaceType is a type of the control-flow representation.
type SurfaceType interface {
	String() string
	surfaceType()
}

// SurfaceBool is the engine's boolean type.
type SurfaceBool struct{}

// SurfaceInteger is the engine's arbitrary-precision integer type.
type SurfaceInteger struct{}

// SurfaceBV is the engine's fixed-width bitvector type.
type SurfaceBV struct {
	Width int
}

// SurfaceArray is a symbolic array. Its index and element types are base
// types, so it always has a base image.
type SurfaceArray struct {
	Index []BaseType
	Elem  BaseType
}

// SurfaceSymStruct is a symbolic struct whose fields are base types.
type SurfaceSymStruct struct {
	Fields []BaseType
}

// SurfaceStruct is the engine's aggregate struct of surface values. The
// theory has no single term for it, so it has no base image.
type SurfaceStruct struct {
	Fields []SurfaceType
}

// SurfaceUnit is the engine's unit type.
type SurfaceUnit struct{}

// SurfaceString is the engine's string type.
type SurfaceString struct{}

// SurfaceFloat is an IEEE floating point type.
type SurfaceFloat struct {
	Bits int
}

// SurfaceVector is an engine-level vector of surface values.
type SurfaceVector struct {
	Elem SurfaceType
}

// SurfaceIntrinsic is an opaque, named engine type.
type SurfaceIntrinsic struct {
	Name string
}

func (SurfaceBool) surfaceType()      {}
func (SurfaceInteger) surfaceType()   {}
func (SurfaceBV) surfaceType()        {}
func (SurfaceArray) surfaceType()     {}
func (SurfaceSymStruct) surfaceType() {}
func (SurfaceStruct) surfaceType()    {}
func (SurfaceUnit) surfaceType()      {}
func (SurfaceString) surfaceType()    {}
func (SurfaceFloat) surfaceType()     {}
func (SurfaceVector) surfaceType()    {}
func (SurfaceIntrinsic) surfaceType() {}

func (SurfaceBool) String() string    { return "bool" }
func (SurfaceInteger) String() string { return "int" }
func (t SurfaceBV) String() string    { return fmt.Sprintf("bv%d", t.Width) }

func (t SurfaceArray) String() string {
	return "array[" + joinBase(t.Index) + "]" + t.Elem.String()
}

func (t SurfaceSymStruct) String() string {
	return "struct{" + joinBase(t.Fields) + "}"
}

func (t SurfaceStruct) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.String()
	}
	return "record{" + strings.Join(parts, ",") + "}"
}

func (SurfaceUnit) String() string        { return "unit" }
func (SurfaceString) String() string      { return "string" }
func (t SurfaceFloat) String() string     { return fmt.Sprintf("float%d", t.Bits) }
func (t SurfaceVector) String() string    { return "vector{" + t.Elem.String() + "}" }
func (t SurfaceIntrinsic) String() string { return "intrinsic:" + t.Name }

// SurfaceEqual reports whether two surface types are structurally identical.
func SurfaceEqual(a, b SurfaceType) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch a := a.(type) {
	case SurfaceBool:
		_, ok := b.(SurfaceBool)
		return ok
	case SurfaceInteger:
		_, ok := b.(SurfaceInteger)
		return ok
	case SurfaceBV:
		o, ok := b.(SurfaceBV)
		return ok && a.Width == o.Width
	case SurfaceArray:
		o, ok := b.(SurfaceArray)
		return ok && EqualAll(a.Index, o.Index) && Equal(a.Elem, o.Elem)
	case SurfaceSymStruct:
		o, ok := b.(SurfaceSymStruct)
		return ok && EqualAll(a.Fields, o.Fields)
	case SurfaceStruct:
		o, ok := b.(SurfaceStruct)
		if !ok || len(a.Fields) != len(o.Fields) {
			return false
		}
		for i := range a.Fields {
			if !SurfaceEqual(a.Fields[i], o.Fields[i]) {
				return false
			}
		}
		return true
	case SurfaceUnit:
		_, ok := b.(SurfaceUnit)
		return ok
	case SurfaceString:
		_, ok := b.(SurfaceString)
		return ok
	case SurfaceFloat:
		o, ok := b.(SurfaceFloat)
		return ok && a.Bits == o.Bits
	case SurfaceVector:
		o, ok := b.(SurfaceVector)
		return ok && SurfaceEqual(a.Elem, o.Elem)
	case SurfaceIntrinsic:
		o, ok := b.(SurfaceIntrinsic)
		return ok && a.Name == o.Name
	default:
		return false
	}
}
