// Package formula holds the closed formulas produced by extraction and the
// packaging of defined functions into named libraries.
package formula

import (
	"fmt"

	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
)

// Formula is an extracted routine semantics.
type Formula interface {
	RoutineName() string
	Validate() error
}

// Definedness records where a function is defined.
type Definedness int

// EverywhereDefined is the only marking produced; domains are not analyzed.
const EverywhereDefined Definedness = iota

func (d Definedness) String() string { return "everywhere" }

// FunctionFormula is the closed definition of a pure routine.
type FunctionFormula struct {
	// Name is the routine name.
	Name string

	// ArgTypes are the argument types in signature order.
	ArgTypes []types.BaseType

	// ArgVars are the argument variables, parallel to ArgTypes.
	ArgVars []*theory.BoundVar

	// Return is the result type.
	Return types.BaseType

	// Definition is the defining term over ArgVars.
	Definition theory.Expr

	// Function is the defined function binding ArgVars in Definition.
	Function *theory.Function

	// Defined is the function's definedness marking.
	Defined Definedness
}

// OpaqueFunctionError reports a function with no recoverable parameters.
type OpaqueFunctionError struct {
	Name string
}

func (e *OpaqueFunctionError) Error() string {
	return fmt.Sprintf("function %s is uninterpreted and cannot be exposed", e.Name)
}

// FromFunction recovers the formula of a transparently defined function.
func FromFunction(name string, fn *theory.Function) (*FunctionFormula, error) {
	if fn == nil || !fn.IsDefined() {
		n := name
		if fn != nil && n == "" {
			n = fn.Name()
		}
		return nil, &OpaqueFunctionError{Name: n}
	}
	f := &FunctionFormula{
		Name:       name,
		ArgTypes:   fn.ArgTypes(),
		ArgVars:    fn.Params(),
		Return:     fn.Return(),
		Definition: fn.Body(),
		Function:   fn,
		Defined:    EverywhereDefined,
	}
	return f, f.Validate()
}

// RoutineName implements Formula.
func (f *FunctionFormula) RoutineName() string { return f.Name }

// Validate checks that the formula is closed over its arguments and that
// its shape is consistent.
func (f *FunctionFormula) Validate() error {
	if len(f.ArgTypes) != len(f.ArgVars) {
		return fmt.Errorf("function %s: %d argument types for %d variables", f.Name, len(f.ArgTypes), len(f.ArgVars))
	}
	bound := make(map[*theory.BoundVar]bool, len(f.ArgVars))
	for i, v := range f.ArgVars {
		if !types.Equal(v.Type(), f.ArgTypes[i]) {
			return fmt.Errorf("function %s: argument %d variable has type %s, want %s", f.Name, i, v.Type(), f.ArgTypes[i])
		}
		if !theory.IsValidSymbol(v.Name()) {
			return fmt.Errorf("function %s: %w", f.Name, &theory.InvalidSymbolNameError{Name: v.Name()})
		}
		bound[v] = true
	}
	if f.Definition == nil {
		return fmt.Errorf("function %s has no definition", f.Name)
	}
	if !types.Equal(f.Definition.Type(), f.Return) {
		return fmt.Errorf("function %s: definition has type %s, want %s", f.Name, f.Definition.Type(), f.Return)
	}
	for _, v := range theory.FreeVars(f.Definition) {
		if !bound[v] {
			return fmt.Errorf("function %s: definition mentions unbound %s", f.Name, v.Name())
		}
	}
	return nil
}
