package theory

import (
	"fmt"
	"strings"

	"github.com/sarchlab/isasem/types"
)

// Function is a named function of the theory. A defined function carries its
// own parameters and a closed body; an uninterpreted one has neither.
type Function struct {
	name     string
	argTypes []types.BaseType
	ret      types.BaseType
	params   []*BoundVar
	body     Expr
}

// Name returns the function's symbol.
func (f *Function) Name() string { return f.name }

// ArgTypes returns the argument types in declaration order.
func (f *Function) ArgTypes() []types.BaseType {
	return append([]types.BaseType(nil), f.argTypes...)
}

// Return returns the result type.
func (f *Function) Return() types.BaseType { return f.ret }

// Params returns the parameters of a defined function, or nil.
func (f *Function) Params() []*BoundVar {
	if f.params == nil {
		return nil
	}
	return append([]*BoundVar(nil), f.params...)
}

// Body returns the defining term, or nil for an uninterpreted function.
func (f *Function) Body() Expr { return f.body }

// IsDefined reports whether f is transparently defined.
func (f *Function) IsDefined() bool { return f.body != nil }

// Apply builds the application of f to args.
func (f *Function) Apply(args ...Expr) (Expr, error) {
	if len(args) != len(f.argTypes) {
		return nil, &TypeError{
			Op:      f.name,
			Message: fmt.Sprintf("expected %d arguments, got %d", len(f.argTypes), len(args)),
		}
	}
	for i, a := range args {
		if a == nil || !types.Equal(a.Type(), f.argTypes[i]) {
			return nil, &TypeError{
				Op:      f.name,
				Message: fmt.Sprintf("argument %d must be %s", i, f.argTypes[i]),
			}
		}
	}
	return &Call{Fn: f, Args: append([]Expr(nil), args...)}, nil
}

// OpenTermError reports a function body that mentions variables other than
// the function's parameters.
type OpenTermError struct {
	Function string
	Free     []string
}

func (e *OpenTermError) Error() string {
	return fmt.Sprintf("definition of %s is not closed: free %s",
		e.Function, strings.Join(e.Free, ", "))
}

// Builder allocates variables and functions for one extraction. It is not
// safe for concurrent use; each call owns its builder.
type Builder struct {
	nextID uint64
	names  map[string]int
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{names: make(map[string]int)}
}

// FreshBoundVar allocates a new variable of type t. The name is normalized;
// a name already handed out gets a numeric suffix.
func (b *Builder) FreshBoundVar(name string, t types.BaseType) (*BoundVar, error) {
	n, err := NormalizeSymbol(name)
	if err != nil {
		return nil, err
	}
	if err := types.Validate(t); err != nil {
		return nil, err
	}

	b.nextID++
	return &BoundVar{id: b.nextID, name: b.unique(n), typ: t}, nil
}

func (b *Builder) unique(n string) string {
	count := b.names[n]
	b.names[n] = count + 1
	if count == 0 {
		return n
	}
	candidate := fmt.Sprintf("%s_%d", n, count)
	for b.names[candidate] > 0 {
		count++
		candidate = fmt.Sprintf("%s_%d", n, count)
	}
	b.names[candidate] = 1
	return candidate
}

// DefineFunction binds params in body. The body may not mention any other
// variable.
func (b *Builder) DefineFunction(name string, params []*BoundVar, body Expr) (*Function, error) {
	n, err := NormalizeSymbol(name)
	if err != nil {
		return nil, err
	}

	bound := make(map[*BoundVar]bool, len(params))
	argTypes := make([]types.BaseType, len(params))
	for i, p := range params {
		bound[p] = true
		argTypes[i] = p.typ
	}

	var free []string
	for _, v := range FreeVars(body) {
		if !bound[v] {
			free = append(free, v.name)
		}
	}
	if len(free) > 0 {
		return nil, &OpenTermError{Function: n, Free: free}
	}

	return &Function{
		name:     n,
		argTypes: argTypes,
		ret:      body.Type(),
		params:   append([]*BoundVar{}, params...),
		body:     body,
	}, nil
}

// UninterpretedFunction declares a function with no definition.
func (b *Builder) UninterpretedFunction(
	name string,
	argTypes []types.BaseType,
	ret types.BaseType,
) (*Function, error) {
	n, err := NormalizeSymbol(name)
	if err != nil {
		return nil, err
	}
	return &Function{
		name:     n,
		argTypes: append([]types.BaseType(nil), argTypes...),
		ret:      ret,
	}, nil
}
