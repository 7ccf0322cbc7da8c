// Package sim is a symbolic execution engine for control-flow bodies of ISA
// pseudocode. It runs a body on symbolic arguments and a symbolic global
// store and reports the terminal result.
package sim

import (
	"fmt"
	"strings"

	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
)

// Value is a runtime value of the engine.
type Value interface {
	Type() types.SurfaceType
	String() string
	value()
}

func (BaseValue) value()   {}
func (StructValue) value() {}
func (UnitValue) value()   {}

// BaseValue wraps a theory term.
type BaseValue struct {
	Expr theory.Expr
}

// Type returns the embedding of the term's base type.
func (v BaseValue) Type() types.SurfaceType { return types.Embed(v.Expr.Type()) }

func (v BaseValue) String() string { return v.Expr.String() }

// StructValue is an engine aggregate of values.
type StructValue struct {
	Fields []Value
}

// Type returns the aggregate's surface type.
func (v StructValue) Type() types.SurfaceType {
	fields := make([]types.SurfaceType, len(v.Fields))
	for i, f := range v.Fields {
		fields[i] = f.Type()
	}
	return types.SurfaceStruct{Fields: fields}
}

func (v StructValue) String() string {
	parts := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		parts[i] = f.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// UnitValue is the only value of the unit type.
type UnitValue struct{}

// Type implements Value.
func (UnitValue) Type() types.SurfaceType { return types.SurfaceUnit{} }

func (UnitValue) String() string { return "()" }

// mergeValues returns the value that is t when cond holds and e otherwise.
func mergeValues(cond theory.Expr, t, e Value) (Value, error) {
	switch t := t.(type) {
	case BaseValue:
		o, ok := e.(BaseValue)
		if !ok {
			return nil, fmt.Errorf("cannot merge %s with %s", t.Type(), e.Type())
		}
		x, err := theory.Ite(cond, t.Expr, o.Expr)
		if err != nil {
			return nil, err
		}
		return BaseValue{Expr: x}, nil
	case StructValue:
		o, ok := e.(StructValue)
		if !ok || len(o.Fields) != len(t.Fields) {
			return nil, fmt.Errorf("cannot merge %s with %s", t.Type(), e.Type())
		}
		fields := make([]Value, len(t.Fields))
		for i := range t.Fields {
			f, err := mergeValues(cond, t.Fields[i], o.Fields[i])
			if err != nil {
				return nil, err
			}
			fields[i] = f
		}
		return StructValue{Fields: fields}, nil
	case UnitValue:
		if _, ok := e.(UnitValue); !ok {
			return nil, fmt.Errorf("cannot merge unit with %s", e.Type())
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown value %T", t)
	}
}
