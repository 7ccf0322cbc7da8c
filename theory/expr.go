// Package theory provides the logical terms that extracted formulas are made
// of, and the builder that allocates fresh variables and defines closed
// functions over them.
package theory

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/sarchlab/isasem/types"
)

// Expr is a term of the theory. Every term has exactly one base type.
type Expr interface {
	Type() types.BaseType
	String() string
	expr()
}

func (*VarExpr) expr()       {}
func (*BVLit) expr()         {}
func (*IntLit) expr()        {}
func (*BoolLit) expr()       {}
func (*App) expr()           {}
func (*Call) expr()          {}
func (*Quantifier) expr()    {}
func (*ArrayFromFn) expr()   {}
func (*MapOverArrays) expr() {}

// BoundVar is a variable that can be bound as a function parameter or by a
// quantifier. It is never asserted equal to anything.
type BoundVar struct {
	id   uint64
	name string
	typ  types.BaseType
}

// ID returns the identifier that distinguishes this variable from any other
// variable allocated by the same builder.
func (v *BoundVar) ID() uint64 { return v.id }

// Name returns the normalized symbol name.
func (v *BoundVar) Name() string { return v.name }

// Type returns the variable's base type.
func (v *BoundVar) Type() types.BaseType { return v.typ }

func (v *BoundVar) String() string { return v.name }

// VarExpr is the term that refers to a bound variable. During execution it
// plays the role of a fresh constant; once the execution is over, binding the
// variable turns any term over it into a closed definition.
type VarExpr struct {
	Var *BoundVar
}

// Ref returns the term that refers to v.
func Ref(v *BoundVar) *VarExpr {
	return &VarExpr{Var: v}
}

// Type implements Expr.
func (e *VarExpr) Type() types.BaseType { return e.Var.typ }

func (e *VarExpr) String() string { return e.Var.name }

// BVLit is a bitvector literal. Value is always in [0, 2^Width).
type BVLit struct {
	Width int
	Value *big.Int
}

// BV returns the bitvector literal of the given width holding v mod 2^width.
func BV(width int, v *big.Int) *BVLit {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
	val := new(big.Int).Mod(v, mod)
	return &BVLit{Width: width, Value: val}
}

// BVUint64 returns the bitvector literal of the given width holding v.
func BVUint64(width int, v uint64) *BVLit {
	return BV(width, new(big.Int).SetUint64(v))
}

// Type implements Expr.
func (e *BVLit) Type() types.BaseType { return types.BV(e.Width) }

func (e *BVLit) String() string {
	return fmt.Sprintf("(_ bv%s %d)", e.Value.String(), e.Width)
}

// IntLit is an integer literal.
type IntLit struct {
	Value *big.Int
}

// Int returns the integer literal v.
func Int(v *big.Int) *IntLit {
	return &IntLit{Value: new(big.Int).Set(v)}
}

// IntInt64 returns the integer literal v.
func IntInt64(v int64) *IntLit {
	return &IntLit{Value: big.NewInt(v)}
}

// Type implements Expr.
func (e *IntLit) Type() types.BaseType { return types.Integer }

func (e *IntLit) String() string { return e.Value.String() }

// BoolLit is a boolean literal.
type BoolLit struct {
	Value bool
}

// Boolean literals.
var (
	True  = &BoolLit{Value: true}
	False = &BoolLit{Value: false}
)

// Bool returns the literal for b.
func Bool(b bool) *BoolLit {
	if b {
		return True
	}
	return False
}

// Type implements Expr.
func (e *BoolLit) Type() types.BaseType { return types.Bool }

func (e *BoolLit) String() string {
	if e.Value {
		return "true"
	}
	return "false"
}

// App applies a built-in operator. Use NewApp to build one; it checks the
// operand types.
type App struct {
	Op      Op
	Args    []Expr
	Indices []int
	typ     types.BaseType
}

// Type implements Expr.
func (e *App) Type() types.BaseType { return e.typ }

func (e *App) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(e.Op.String())
	if len(e.Indices) > 0 {
		sb.WriteString("[")
		for i, idx := range e.Indices {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "%d", idx)
		}
		sb.WriteString("]")
	}
	for _, a := range e.Args {
		sb.WriteString(" ")
		sb.WriteString(a.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// Call applies a defined or uninterpreted function.
type Call struct {
	Fn   *Function
	Args []Expr
}

// Type implements Expr.
func (e *Call) Type() types.BaseType { return e.Fn.ret }

func (e *Call) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(e.Fn.name)
	for _, a := range e.Args {
		sb.WriteString(" ")
		sb.WriteString(a.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// Quantifier is a universally or existentially quantified boolean term.
type Quantifier struct {
	Universal bool
	Var       *BoundVar
	Body      Expr
}

// Forall returns the universal quantification of body over v.
func Forall(v *BoundVar, body Expr) (*Quantifier, error) {
	return newQuantifier(true, v, body)
}

// Exists returns the existential quantification of body over v.
func Exists(v *BoundVar, body Expr) (*Quantifier, error) {
	return newQuantifier(false, v, body)
}

func newQuantifier(universal bool, v *BoundVar, body Expr) (*Quantifier, error) {
	if !types.Equal(body.Type(), types.Bool) {
		return nil, &TypeError{Op: "quantifier", Message: "body must be bool, got " + body.Type().String()}
	}
	return &Quantifier{Universal: universal, Var: v, Body: body}, nil
}

// Type implements Expr.
func (e *Quantifier) Type() types.BaseType { return types.Bool }

func (e *Quantifier) String() string {
	q := "exists"
	if e.Universal {
		q = "forall"
	}
	return fmt.Sprintf("(%s ((%s %s)) %s)", q, e.Var.name, e.Var.typ, e.Body)
}

// ArrayFromFn is the array whose entry at every index is the value of Fn at
// that index.
type ArrayFromFn struct {
	Fn *Function
}

// Type implements Expr.
func (e *ArrayFromFn) Type() types.BaseType {
	return types.Array(e.Fn.ret, e.Fn.argTypes...)
}

func (e *ArrayFromFn) String() string {
	return fmt.Sprintf("(array-from-fn %s)", e.Fn.name)
}

// MapOverArrays applies Fn pointwise across one or more arrays sharing an
// index type.
type MapOverArrays struct {
	Fn     *Function
	Arrays []Expr
	index  []types.BaseType
}

// MapArrays builds the pointwise map of fn over arrays.
func MapArrays(fn *Function, arrays ...Expr) (*MapOverArrays, error) {
	if len(arrays) == 0 || len(arrays) != len(fn.argTypes) {
		return nil, &TypeError{Op: "map-arrays", Message: "one array per function argument is required"}
	}
	var index []types.BaseType
	for i, a := range arrays {
		at, ok := a.Type().(types.ArrayType)
		if !ok || !types.Equal(at.Elem, fn.argTypes[i]) {
			return nil, &TypeError{Op: "map-arrays", Message: fmt.Sprintf("argument %d has type %s", i, a.Type())}
		}
		if index == nil {
			index = at.Index
		} else if !types.EqualAll(index, at.Index) {
			return nil, &TypeError{Op: "map-arrays", Message: "arrays must share an index type"}
		}
	}
	return &MapOverArrays{Fn: fn, Arrays: append([]Expr(nil), arrays...), index: index}, nil
}

// Type implements Expr.
func (e *MapOverArrays) Type() types.BaseType {
	return types.Array(e.Fn.ret, e.index...)
}

func (e *MapOverArrays) String() string {
	parts := make([]string, len(e.Arrays))
	for i, a := range e.Arrays {
		parts[i] = a.String()
	}
	return fmt.Sprintf("(map-arrays %s %s)", e.Fn.name, strings.Join(parts, " "))
}

// TypeError reports an ill-typed term construction.
type TypeError struct {
	Op      string
	Message string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("ill-typed %s: %s", e.Op, e.Message)
}
