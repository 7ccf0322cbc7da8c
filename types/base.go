// Package types provides the two type universes used during extraction and
// the bridge between them.
//
// Base types belong to the logical theory (what the solver understands).
// Surface types belong to the control-flow representation executed by the
// engine. Every base type has a surface image (Embed); only some surface
// types have a base image (Project).
package types

import (
	"fmt"
	"strings"
)

// Kind identifies the shape of a base type.
type Kind int

const (
	// KindBool is the boolean sort.
	KindBool Kind = iota
	// KindInteger is the arbitrary-precision integer sort.
	KindInteger
	// KindBV is the fixed-width bitvector sort.
	KindBV
	// KindArray is the symbolic array sort.
	KindArray
	// KindStruct is the symbolic struct (tuple) sort.
	KindStruct
)

var kindNames = [...]string{
	KindBool:    "bool",
	KindInteger: "int",
	KindBV:      "bv",
	KindArray:   "array",
	KindStruct:  "struct",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind<%d>", int(k))
}

// BaseType is a type of the logical theory.
type BaseType interface {
	Kind() Kind
	String() string
	baseType()
}

// BoolType is the boolean base type.
type BoolType struct{}

// IntegerType is the arbitrary-precision integer base type.
type IntegerType struct{}

// BVType is a bitvector base type of a fixed, positive width.
type BVType struct {
	Width int
}

// ArrayType is a symbolic array indexed by one or more base types.
type ArrayType struct {
	Index []BaseType
	Elem  BaseType
}

// StructType is a symbolic struct with positional fields.
type StructType struct {
	Fields []BaseType
}

func (BoolType) baseType()    {}
func (IntegerType) baseType() {}
func (BVType) baseType()      {}
func (ArrayType) baseType()   {}
func (StructType) baseType()  {}

// Kind implements BaseType.
func (BoolType) Kind() Kind { return KindBool }

// Kind implements BaseType.
func (IntegerType) Kind() Kind { return KindInteger }

// Kind implements BaseType.
func (BVType) Kind() Kind { return KindBV }

// Kind implements BaseType.
func (ArrayType) Kind() Kind { return KindArray }

// Kind implements BaseType.
func (StructType) Kind() Kind { return KindStruct }

func (BoolType) String() string    { return "bool" }
func (IntegerType) String() string { return "int" }
func (t BVType) String() string    { return fmt.Sprintf("bv%d", t.Width) }

func (t ArrayType) String() string {
	return "array[" + joinBase(t.Index) + "]" + t.Elem.String()
}

func (t StructType) String() string {
	return "struct{" + joinBase(t.Fields) + "}"
}

// Commonly used base types.
var (
	Bool    BaseType = BoolType{}
	Integer BaseType = IntegerType{}
)

// BV returns the bitvector type of the given width.
func BV(width int) BaseType {
	return BVType{Width: width}
}

// Array returns the array type from the given index types to elem.
func Array(elem BaseType, index ...BaseType) BaseType {
	return ArrayType{Index: append([]BaseType(nil), index...), Elem: elem}
}

// Struct returns the symbolic struct type with the given fields.
func Struct(fields ...BaseType) BaseType {
	return StructType{Fields: append([]BaseType(nil), fields...)}
}

// Equal reports whether two base types are structurally identical.
func Equal(a, b BaseType) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch a := a.(type) {
	case BoolType:
		_, ok := b.(BoolType)
		return ok
	case IntegerType:
		_, ok := b.(IntegerType)
		return ok
	case BVType:
		o, ok := b.(BVType)
		return ok && a.Width == o.Width
	case ArrayType:
		o, ok := b.(ArrayType)
		return ok && EqualAll(a.Index, o.Index) && Equal(a.Elem, o.Elem)
	case StructType:
		o, ok := b.(StructType)
		return ok && EqualAll(a.Fields, o.Fields)
	default:
		return false
	}
}

// EqualAll reports whether two type lists are pointwise equal.
func EqualAll(a, b []BaseType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Validate checks that a base type is well formed: bitvector widths are
// positive and arrays have at least one index.
func Validate(t BaseType) error {
	switch t := t.(type) {
	case nil:
		return fmt.Errorf("missing base type")
	case BoolType, IntegerType:
		return nil
	case BVType:
		if t.Width <= 0 {
			return fmt.Errorf("bitvector width must be > 0, got %d", t.Width)
		}
		return nil
	case ArrayType:
		if len(t.Index) == 0 {
			return fmt.Errorf("array type must have at least one index")
		}
		for _, idx := range t.Index {
			if err := Validate(idx); err != nil {
				return err
			}
		}
		return Validate(t.Elem)
	case StructType:
		for _, f := range t.Fields {
			if err := Validate(f); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown base type %T", t)
	}
}

func joinBase(ts []BaseType) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}
