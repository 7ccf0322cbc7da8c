package sig

import (
	"fmt"
	"strings"

	"github.com/sarchlab/isasem/types"
)

// Kind distinguishes functions from procedures.
type Kind int

// Routine kinds.
const (
	KindFunction Kind = iota
	KindProcedure
)

func (k Kind) String() string {
	if k == KindProcedure {
		return "procedure"
	}
	return "function"
}

// Arg describes one declared argument.
type Arg struct {
	Name string
	Type types.SurfaceType
}

// Signature is the immutable description of a routine.
type Signature interface {
	Name() string
	Kind() Kind
	Args() []Arg
	String() string
}

// FunctionSignature describes a pure routine with a single base-typed
// result.
type FunctionSignature struct {
	name string
	args []Arg
	ret  types.BaseType
}

// NewFunctionSignature builds a function signature.
func NewFunctionSignature(name string, args []Arg, ret types.BaseType) (*FunctionSignature, error) {
	if err := checkArgs(name, args); err != nil {
		return nil, err
	}
	if err := types.Validate(ret); err != nil {
		return nil, fmt.Errorf("function %s: return type: %w", name, err)
	}
	return &FunctionSignature{name: name, args: append([]Arg(nil), args...), ret: ret}, nil
}

// Name implements Signature.
func (s *FunctionSignature) Name() string { return s.name }

// Kind implements Signature.
func (s *FunctionSignature) Kind() Kind { return KindFunction }

// Args implements Signature.
func (s *FunctionSignature) Args() []Arg { return append([]Arg(nil), s.args...) }

// Return returns the declared result type.
func (s *FunctionSignature) Return() types.BaseType { return s.ret }

func (s *FunctionSignature) String() string {
	return fmt.Sprintf("function %s(%s) %s", s.name, formatArgs(s.args), s.ret)
}

// ProcedureSignature describes a routine that updates global locations.
// Its footprint order is the order of the fields of the value the body
// returns.
type ProcedureSignature struct {
	name      string
	args      []Arg
	footprint []GlobalLocation
}

// NewProcedureSignature builds a procedure signature.
func NewProcedureSignature(name string, args []Arg, footprint []GlobalLocation) (*ProcedureSignature, error) {
	if err := checkArgs(name, args); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(footprint))
	for _, l := range footprint {
		if seen[l.Name] {
			return nil, fmt.Errorf("procedure %s: %w", name, &DuplicateLocationError{Name: l.Name})
		}
		seen[l.Name] = true
		if err := types.Validate(l.Type); err != nil {
			return nil, fmt.Errorf("procedure %s: footprint %s: %w", name, l.Name, err)
		}
	}
	return &ProcedureSignature{
		name:      name,
		args:      append([]Arg(nil), args...),
		footprint: append([]GlobalLocation(nil), footprint...),
	}, nil
}

// Name implements Signature.
func (s *ProcedureSignature) Name() string { return s.name }

// Kind implements Signature.
func (s *ProcedureSignature) Kind() Kind { return KindProcedure }

// Args implements Signature.
func (s *ProcedureSignature) Args() []Arg { return append([]Arg(nil), s.args...) }

// Footprint returns the assigned locations in declared order.
func (s *ProcedureSignature) Footprint() []GlobalLocation {
	return append([]GlobalLocation(nil), s.footprint...)
}

// FootprintStruct returns the struct type of the footprint's values.
func (s *ProcedureSignature) FootprintStruct() types.StructType {
	fields := make([]types.BaseType, len(s.footprint))
	for i, l := range s.footprint {
		fields[i] = l.Type
	}
	return types.StructType{Fields: fields}
}

func (s *ProcedureSignature) String() string {
	locs := make([]string, len(s.footprint))
	for i, l := range s.footprint {
		locs[i] = l.String()
	}
	return fmt.Sprintf("procedure %s(%s) writes {%s}", s.name, formatArgs(s.args), strings.Join(locs, ", "))
}

// Equal reports whether two signatures describe the same routine shape.
func Equal(a, b Signature) bool {
	if a.Name() != b.Name() || a.Kind() != b.Kind() {
		return false
	}
	aa, ba := a.Args(), b.Args()
	if len(aa) != len(ba) {
		return false
	}
	for i := range aa {
		if aa[i].Name != ba[i].Name || !types.SurfaceEqual(aa[i].Type, ba[i].Type) {
			return false
		}
	}

	switch a := a.(type) {
	case *FunctionSignature:
		return types.Equal(a.ret, b.(*FunctionSignature).ret)
	case *ProcedureSignature:
		o := b.(*ProcedureSignature)
		if len(a.footprint) != len(o.footprint) {
			return false
		}
		for i := range a.footprint {
			if a.footprint[i].Name != o.footprint[i].Name ||
				!types.Equal(a.footprint[i].Type, o.footprint[i].Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare orders signatures by name, functions before procedures.
func Compare(a, b Signature) int {
	switch {
	case a.Name() < b.Name():
		return -1
	case a.Name() > b.Name():
		return 1
	case a.Kind() < b.Kind():
		return -1
	case a.Kind() > b.Kind():
		return 1
	default:
		return 0
	}
}

func checkArgs(name string, args []Arg) error {
	if name == "" {
		return fmt.Errorf("routine name is empty")
	}
	seen := make(map[string]bool, len(args))
	for _, a := range args {
		if a.Type == nil {
			return fmt.Errorf("%s: argument %q has no type", name, a.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("%s: argument %q declared twice", name, a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

func formatArgs(args []Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Name + " " + a.Type.String()
	}
	return strings.Join(parts, ", ")
}
