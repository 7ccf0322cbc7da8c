package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/isasem/formula"
	"github.com/sarchlab/isasem/sig"
	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
	"github.com/sarchlab/isasem/uninterp"
)

// CannotAllocateFreshError reports an argument or location whose type has
// no fresh-value form.
type CannotAllocateFreshError struct {
	Name string
	Type types.SurfaceType
	Err  error
}

func (e *CannotAllocateFreshError) Error() string {
	return fmt.Sprintf("cannot allocate fresh value for %s of type %s", e.Name, e.Type)
}

func (e *CannotAllocateFreshError) Unwrap() error { return e.Err }

// UnknownLocationError reports a footprint location missing from the
// catalog.
type UnknownLocationError struct {
	Name string
}

func (e *UnknownLocationError) Error() string {
	return fmt.Sprintf("location %s is not in the catalog", e.Name)
}

// LocationTypeError reports a footprint location declared with a type
// other than its catalog type.
type LocationTypeError struct {
	Name     string
	Declared types.BaseType
	Catalog  types.BaseType
}

func (e *LocationTypeError) Error() string {
	return fmt.Sprintf("footprint location %s declared %s, catalog has %s", e.Name, e.Declared, e.Catalog)
}

// SimulationTimeoutError reports a run that exhausted its budget.
type SimulationTimeoutError struct {
	Signature sig.Signature
	Steps     int
}

func (e *SimulationTimeoutError) Error() string {
	return fmt.Sprintf("simulation of %s timed out after %d steps", e.Signature.Name(), e.Steps)
}

// SimulationAbortError reports a run in which no path returned.
type SimulationAbortError struct {
	Signature sig.Signature
	Trace     []string
}

func (e *SimulationAbortError) Error() string {
	return fmt.Sprintf("simulation of %s aborted: %s", e.Signature.Name(), strings.Join(e.Trace, "; "))
}

// NonBaseTypeReturnError reports a function result whose type has no base
// image.
type NonBaseTypeReturnError struct {
	Signature sig.Signature
	Type      types.SurfaceType
}

func (e *NonBaseTypeReturnError) Error() string {
	return fmt.Sprintf("%s returns %s, which is not a base type", e.Signature.Name(), e.Type)
}

// UnexpectedReturnTypeError reports a function result of the wrong type.
type UnexpectedReturnTypeError struct {
	Signature sig.Signature
	Expected  types.BaseType
	Actual    types.BaseType
}

func (e *UnexpectedReturnTypeError) Error() string {
	return fmt.Sprintf("%s returns %s, declared %s", e.Signature.Name(), e.Actual, e.Expected)
}

// ProcedureShapeError reports a procedure result that does not match the
// declared footprint.
type ProcedureShapeError struct {
	Signature *sig.ProcedureSignature
	Expected  types.StructType
	Actual    types.SurfaceType
}

func (e *ProcedureShapeError) Error() string {
	return fmt.Sprintf("%s returns %s, footprint is %s", e.Signature.Name(), e.Actual, e.Expected)
}

// OpenDefinitionError reports a function result that depends on global
// state or other variables besides its arguments.
type OpenDefinitionError struct {
	Signature sig.Signature
	Free      []string
}

func (e *OpenDefinitionError) Error() string {
	return fmt.Sprintf("%s is not closed over its arguments: reads %s",
		e.Signature.Name(), strings.Join(e.Free, ", "))
}

// Category groups failures for reporting.
type Category string

// Failure categories.
const (
	CategoryAllocation Category = "allocation"
	CategoryExecution  Category = "execution"
	CategoryShape      Category = "shape"
	CategoryRewrite    Category = "rewrite"
	CategoryInternal   Category = "internal"
)

// Classify returns the category of err.
func Classify(err error) Category {
	var (
		allocErr   *CannotAllocateFreshError
		nameErr    *theory.InvalidSymbolNameError
		locErr     *UnknownLocationError
		locTypeErr *LocationTypeError
		timeoutErr *SimulationTimeoutError
		abortErr   *SimulationAbortError
		nonBaseErr *NonBaseTypeReturnError
		retErr     *UnexpectedReturnTypeError
		shapeErr   *ProcedureShapeError
		openErr    *OpenDefinitionError
		formErr    *uninterp.UnsupportedFormError
		ruleErr    *uninterp.RuleTypeError
		opaqueErr  *formula.OpaqueFunctionError
	)
	switch {
	case errors.As(err, &allocErr), errors.As(err, &nameErr),
		errors.As(err, &locErr), errors.As(err, &locTypeErr):
		return CategoryAllocation
	case errors.As(err, &timeoutErr), errors.As(err, &abortErr):
		return CategoryExecution
	case errors.As(err, &nonBaseErr), errors.As(err, &retErr),
		errors.As(err, &shapeErr), errors.As(err, &openErr), errors.As(err, &opaqueErr):
		return CategoryShape
	case errors.As(err, &formErr), errors.As(err, &ruleErr):
		return CategoryRewrite
	default:
		return CategoryInternal
	}
}
