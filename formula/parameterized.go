package formula

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-set/v3"

	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
)

// ParamKind distinguishes operand parameters from location parameters.
type ParamKind int

// Parameter kinds.
const (
	ParamOperand ParamKind = iota
	ParamLocation
)

// Parameter is an input or output of a parameterized formula: either an
// operand slot or a global location.
type Parameter struct {
	Kind     ParamKind
	Index    int
	Location string
}

// Operand returns the parameter of operand slot i.
func Operand(i int) Parameter {
	return Parameter{Kind: ParamOperand, Index: i}
}

// Location returns the parameter of a global location.
func Location(name string) Parameter {
	return Parameter{Kind: ParamLocation, Location: name}
}

func (p Parameter) String() string {
	if p.Kind == ParamOperand {
		return fmt.Sprintf("op%d", p.Index)
	}
	return p.Location
}

// Less orders operands by index before locations by name.
func (p Parameter) Less(o Parameter) bool {
	if p.Kind != o.Kind {
		return p.Kind < o.Kind
	}
	if p.Kind == ParamOperand {
		return p.Index < o.Index
	}
	return p.Location < o.Location
}

// Def redefines a parameter.
type Def struct {
	Param Parameter
	Expr  theory.Expr
}

// ParameterizedFormula describes the effect of a routine on operands and
// global locations. Parameters without a def are left unchanged.
type ParameterizedFormula struct {
	// Uses is the set of parameters the defs read.
	Uses *set.Set[Parameter]

	// OperandVars has one variable per operand slot.
	OperandVars []*theory.BoundVar

	// LiteralVars maps global location names to their variables.
	LiteralVars map[string]*theory.BoundVar

	// Defs lists the redefined parameters in order.
	Defs []Def
}

// Def returns the expression redefining p.
func (f *ParameterizedFormula) Def(p Parameter) (theory.Expr, bool) {
	for _, d := range f.Defs {
		if d.Param == p {
			return d.Expr, true
		}
	}
	return nil, false
}

// SortedUses returns the used parameters in a stable order.
func (f *ParameterizedFormula) SortedUses() []Parameter {
	if f.Uses == nil {
		return nil
	}
	out := f.Uses.Slice()
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// SortedLocations returns the literal location names in order.
func (f *ParameterizedFormula) SortedLocations() []string {
	out := make([]string, 0, len(f.LiteralVars))
	for name := range f.LiteralVars {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (f *ParameterizedFormula) paramVar(p Parameter) (*theory.BoundVar, error) {
	switch p.Kind {
	case ParamOperand:
		if p.Index < 0 || p.Index >= len(f.OperandVars) {
			return nil, fmt.Errorf("operand %d out of range", p.Index)
		}
		return f.OperandVars[p.Index], nil
	case ParamLocation:
		v, ok := f.LiteralVars[p.Location]
		if !ok {
			return nil, fmt.Errorf("location %s has no variable", p.Location)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown parameter kind %d", p.Kind)
	}
}

// Validate checks the rules the textual serializer relies on: identifiers
// are valid, defs are unique and typed like their parameter, and defs only
// mention operand and literal variables.
func (f *ParameterizedFormula) Validate() error {
	bound := make(map[*theory.BoundVar]bool, len(f.OperandVars)+len(f.LiteralVars))
	for i, v := range f.OperandVars {
		if v == nil {
			return fmt.Errorf("operand %d has no variable", i)
		}
		if !theory.IsValidSymbol(v.Name()) {
			return &theory.InvalidSymbolNameError{Name: v.Name()}
		}
		bound[v] = true
	}
	for _, name := range f.SortedLocations() {
		v := f.LiteralVars[name]
		if v == nil {
			return fmt.Errorf("location %s has no variable", name)
		}
		if !theory.IsValidSymbol(v.Name()) {
			return &theory.InvalidSymbolNameError{Name: v.Name()}
		}
		bound[v] = true
	}

	if f.Uses != nil {
		for _, p := range f.SortedUses() {
			if _, err := f.paramVar(p); err != nil {
				return fmt.Errorf("use of %s: %w", p, err)
			}
		}
	}

	seen := make(map[Parameter]bool, len(f.Defs))
	for _, d := range f.Defs {
		if seen[d.Param] {
			return fmt.Errorf("%s defined twice", d.Param)
		}
		seen[d.Param] = true

		v, err := f.paramVar(d.Param)
		if err != nil {
			return fmt.Errorf("def of %s: %w", d.Param, err)
		}
		if d.Expr == nil {
			return fmt.Errorf("def of %s is empty", d.Param)
		}
		if !types.Equal(v.Type(), d.Expr.Type()) {
			return fmt.Errorf("def of %s has type %s, want %s", d.Param, d.Expr.Type(), v.Type())
		}
		for _, fv := range theory.FreeVars(d.Expr) {
			if !bound[fv] {
				return fmt.Errorf("def of %s mentions unbound %s", d.Param, fv.Name())
			}
		}
	}
	return nil
}

// ComputeUses returns the parameters whose variables occur in some def.
func (f *ParameterizedFormula) ComputeUses() *set.Set[Parameter] {
	byVar := make(map[*theory.BoundVar]Parameter, len(f.OperandVars)+len(f.LiteralVars))
	for i, v := range f.OperandVars {
		byVar[v] = Operand(i)
	}
	for name, v := range f.LiteralVars {
		byVar[v] = Location(name)
	}

	uses := set.New[Parameter](0)
	for _, d := range f.Defs {
		for _, v := range theory.FreeVars(d.Expr) {
			if p, ok := byVar[v]; ok {
				uses.Insert(p)
			}
		}
	}
	return uses
}

// ProcedureFormula is the parameterized formula of a procedure.
type ProcedureFormula struct {
	Name string
	ParameterizedFormula
}

// RoutineName implements Formula.
func (f *ProcedureFormula) RoutineName() string { return f.Name }
