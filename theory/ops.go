package theory

import (
	"fmt"

	"github.com/sarchlab/isasem/types"
)

// Op is a built-in operator of the theory.
type Op int

// Operators.
const (
	OpInvalid Op = iota

	// Boolean connectives. OpEq and OpIte are polymorphic.
	OpNot
	OpAnd
	OpOr
	OpXor
	OpImplies
	OpEq
	OpIte

	// Bitvector arithmetic and logic.
	OpBVAdd
	OpBVSub
	OpBVMul
	OpBVUDiv
	OpBVURem
	OpBVSDiv
	OpBVSRem
	OpBVAnd
	OpBVOr
	OpBVXor
	OpBVNot
	OpBVNeg
	OpBVShl
	OpBVLshr
	OpBVAshr

	// Bitvector comparisons.
	OpBVUlt
	OpBVUle
	OpBVSlt
	OpBVSle

	// Bitvector structure. Extract takes indices [lo, width]; the
	// extensions take the result width.
	OpBVConcat
	OpBVExtract
	OpBVZext
	OpBVSext

	// Integer arithmetic and comparisons.
	OpIntAdd
	OpIntSub
	OpIntMul
	OpIntDiv
	OpIntMod
	OpIntNeg
	OpIntLt
	OpIntLe

	// Conversions. IntToBV takes the result width.
	OpBVToInt
	OpSBVToInt
	OpIntToBV

	// Arrays and symbolic structs. Field takes the field index.
	OpSelect
	OpStore
	OpMkStruct
	OpField

	opCount
)

var opNames = [...]string{
	OpNot:       "not",
	OpAnd:       "and",
	OpOr:        "or",
	OpXor:       "xor",
	OpImplies:   "=>",
	OpEq:        "=",
	OpIte:       "ite",
	OpBVAdd:     "bvadd",
	OpBVSub:     "bvsub",
	OpBVMul:     "bvmul",
	OpBVUDiv:    "bvudiv",
	OpBVURem:    "bvurem",
	OpBVSDiv:    "bvsdiv",
	OpBVSRem:    "bvsrem",
	OpBVAnd:     "bvand",
	OpBVOr:      "bvor",
	OpBVXor:     "bvxor",
	OpBVNot:     "bvnot",
	OpBVNeg:     "bvneg",
	OpBVShl:     "bvshl",
	OpBVLshr:    "bvlshr",
	OpBVAshr:    "bvashr",
	OpBVUlt:     "bvult",
	OpBVUle:     "bvule",
	OpBVSlt:     "bvslt",
	OpBVSle:     "bvsle",
	OpBVConcat:  "concat",
	OpBVExtract: "extract",
	OpBVZext:    "zero_extend",
	OpBVSext:    "sign_extend",
	OpIntAdd:    "+",
	OpIntSub:    "-",
	OpIntMul:    "*",
	OpIntDiv:    "div",
	OpIntMod:    "mod",
	OpIntNeg:    "neg",
	OpIntLt:     "<",
	OpIntLe:     "<=",
	OpBVToInt:   "bv2nat",
	OpSBVToInt:  "sbv2int",
	OpIntToBV:   "int2bv",
	OpSelect:    "select",
	OpStore:     "store",
	OpMkStruct:  "struct",
	OpField:     "field",
}

var opsByName = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		if name != "" {
			m[name] = Op(op)
		}
	}
	return m
}()

// String returns the operator's name.
func (op Op) String() string {
	if op > OpInvalid && op < opCount && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("Op<%d>", int(op))
}

// ParseOp looks up an operator by name.
func ParseOp(name string) (Op, bool) {
	op, ok := opsByName[name]
	return op, ok
}

// NewApp applies op to args, checking operand types. Trivial boolean
// identities are simplified away, so the result is not always an *App.
func NewApp(op Op, args []Expr, indices ...int) (Expr, error) {
	typ, err := resultType(op, args, indices)
	if err != nil {
		return nil, err
	}

	if e := simplify(op, args); e != nil {
		return e, nil
	}

	return &App{
		Op:      op,
		Args:    append([]Expr(nil), args...),
		Indices: append([]int(nil), indices...),
		typ:     typ,
	}, nil
}

// MustApp is NewApp for terms that are well typed by construction.
func MustApp(op Op, args []Expr, indices ...int) Expr {
	e, err := NewApp(op, args, indices...)
	if err != nil {
		panic(err)
	}
	return e
}

// Ite returns the if-then-else of c over t and e.
func Ite(c, t, e Expr) (Expr, error) {
	return NewApp(OpIte, []Expr{c, t, e})
}

// Eq returns the equality of a and b.
func Eq(a, b Expr) (Expr, error) {
	return NewApp(OpEq, []Expr{a, b})
}

// Not returns the negation of a.
func Not(a Expr) (Expr, error) {
	return NewApp(OpNot, []Expr{a})
}

// And returns the conjunction of args.
func And(args ...Expr) (Expr, error) {
	return NewApp(OpAnd, args)
}

func resultType(op Op, args []Expr, indices []int) (types.BaseType, error) {
	fail := func(format string, a ...interface{}) (types.BaseType, error) {
		return nil, &TypeError{Op: op.String(), Message: fmt.Sprintf(format, a...)}
	}
	arity := func(n int) error {
		if len(args) != n {
			return &TypeError{Op: op.String(), Message: fmt.Sprintf("expected %d operands, got %d", n, len(args))}
		}
		return nil
	}
	for i, a := range args {
		if a == nil {
			return fail("operand %d is missing", i)
		}
	}

	switch op {
	case OpNot:
		if err := arity(1); err != nil {
			return nil, err
		}
		if !isBool(args[0]) {
			return fail("operand must be bool")
		}
		return types.Bool, nil

	case OpAnd, OpOr, OpXor:
		if len(args) == 0 {
			return fail("expected at least one operand")
		}
		for i, a := range args {
			if !isBool(a) {
				return fail("operand %d must be bool, got %s", i, a.Type())
			}
		}
		return types.Bool, nil

	case OpImplies:
		if err := arity(2); err != nil {
			return nil, err
		}
		if !isBool(args[0]) || !isBool(args[1]) {
			return fail("operands must be bool")
		}
		return types.Bool, nil

	case OpEq:
		if err := arity(2); err != nil {
			return nil, err
		}
		if !types.Equal(args[0].Type(), args[1].Type()) {
			return fail("operand types differ: %s vs %s", args[0].Type(), args[1].Type())
		}
		return types.Bool, nil

	case OpIte:
		if err := arity(3); err != nil {
			return nil, err
		}
		if !isBool(args[0]) {
			return fail("condition must be bool")
		}
		if !types.Equal(args[1].Type(), args[2].Type()) {
			return fail("branch types differ: %s vs %s", args[1].Type(), args[2].Type())
		}
		return args[1].Type(), nil

	case OpBVAdd, OpBVSub, OpBVMul, OpBVUDiv, OpBVURem, OpBVSDiv, OpBVSRem,
		OpBVAnd, OpBVOr, OpBVXor, OpBVShl, OpBVLshr, OpBVAshr:
		if err := arity(2); err != nil {
			return nil, err
		}
		w, ok := sameBVWidth(args[0], args[1])
		if !ok {
			return fail("operands must be bitvectors of one width, got %s and %s", args[0].Type(), args[1].Type())
		}
		return types.BV(w), nil

	case OpBVNot, OpBVNeg:
		if err := arity(1); err != nil {
			return nil, err
		}
		if _, ok := bvWidth(args[0]); !ok {
			return fail("operand must be a bitvector")
		}
		return args[0].Type(), nil

	case OpBVUlt, OpBVUle, OpBVSlt, OpBVSle:
		if err := arity(2); err != nil {
			return nil, err
		}
		if _, ok := sameBVWidth(args[0], args[1]); !ok {
			return fail("operands must be bitvectors of one width")
		}
		return types.Bool, nil

	case OpBVConcat:
		if len(args) < 2 {
			return fail("expected at least two operands")
		}
		total := 0
		for i, a := range args {
			w, ok := bvWidth(a)
			if !ok {
				return fail("operand %d must be a bitvector", i)
			}
			total += w
		}
		return types.BV(total), nil

	case OpBVExtract:
		if err := arity(1); err != nil {
			return nil, err
		}
		w, ok := bvWidth(args[0])
		if !ok {
			return fail("operand must be a bitvector")
		}
		if len(indices) != 2 || indices[0] < 0 || indices[1] <= 0 || indices[0]+indices[1] > w {
			return fail("indices [lo, width] out of range for bv%d: %v", w, indices)
		}
		return types.BV(indices[1]), nil

	case OpBVZext, OpBVSext:
		if err := arity(1); err != nil {
			return nil, err
		}
		w, ok := bvWidth(args[0])
		if !ok {
			return fail("operand must be a bitvector")
		}
		if len(indices) != 1 || indices[0] < w {
			return fail("result width must be at least %d: %v", w, indices)
		}
		return types.BV(indices[0]), nil

	case OpIntAdd, OpIntSub, OpIntMul, OpIntDiv, OpIntMod:
		if err := arity(2); err != nil {
			return nil, err
		}
		if !isInt(args[0]) || !isInt(args[1]) {
			return fail("operands must be int")
		}
		return types.Integer, nil

	case OpIntNeg:
		if err := arity(1); err != nil {
			return nil, err
		}
		if !isInt(args[0]) {
			return fail("operand must be int")
		}
		return types.Integer, nil

	case OpIntLt, OpIntLe:
		if err := arity(2); err != nil {
			return nil, err
		}
		if !isInt(args[0]) || !isInt(args[1]) {
			return fail("operands must be int")
		}
		return types.Bool, nil

	case OpBVToInt, OpSBVToInt:
		if err := arity(1); err != nil {
			return nil, err
		}
		if _, ok := bvWidth(args[0]); !ok {
			return fail("operand must be a bitvector")
		}
		return types.Integer, nil

	case OpIntToBV:
		if err := arity(1); err != nil {
			return nil, err
		}
		if !isInt(args[0]) {
			return fail("operand must be int")
		}
		if len(indices) != 1 || indices[0] <= 0 {
			return fail("result width required")
		}
		return types.BV(indices[0]), nil

	case OpSelect:
		if len(args) < 2 {
			return fail("expected an array and indices")
		}
		at, ok := args[0].Type().(types.ArrayType)
		if !ok {
			return fail("first operand must be an array, got %s", args[0].Type())
		}
		if err := checkIndices(op, at, args[1:]); err != nil {
			return nil, err
		}
		return at.Elem, nil

	case OpStore:
		if len(args) < 3 {
			return fail("expected an array, indices and a value")
		}
		at, ok := args[0].Type().(types.ArrayType)
		if !ok {
			return fail("first operand must be an array, got %s", args[0].Type())
		}
		if err := checkIndices(op, at, args[1:len(args)-1]); err != nil {
			return nil, err
		}
		if !types.Equal(args[len(args)-1].Type(), at.Elem) {
			return fail("stored value must be %s", at.Elem)
		}
		return at, nil

	case OpMkStruct:
		fields := make([]types.BaseType, len(args))
		for i, a := range args {
			fields[i] = a.Type()
		}
		return types.Struct(fields...), nil

	case OpField:
		if err := arity(1); err != nil {
			return nil, err
		}
		st, ok := args[0].Type().(types.StructType)
		if !ok {
			return fail("operand must be a struct")
		}
		if len(indices) != 1 || indices[0] < 0 || indices[0] >= len(st.Fields) {
			return fail("field index out of range: %v", indices)
		}
		return st.Fields[indices[0]], nil

	default:
		return fail("unknown operator")
	}
}

func checkIndices(op Op, at types.ArrayType, idx []Expr) error {
	if len(idx) != len(at.Index) {
		return &TypeError{Op: op.String(), Message: fmt.Sprintf("expected %d indices, got %d", len(at.Index), len(idx))}
	}
	for i := range idx {
		if !types.Equal(idx[i].Type(), at.Index[i]) {
			return &TypeError{Op: op.String(), Message: fmt.Sprintf("index %d must be %s", i, at.Index[i])}
		}
	}
	return nil
}

// simplify applies boolean identities. It returns nil when no identity
// applies.
func simplify(op Op, args []Expr) Expr {
	switch op {
	case OpNot:
		if b, ok := args[0].(*BoolLit); ok {
			return Bool(!b.Value)
		}
		if inner, ok := args[0].(*App); ok && inner.Op == OpNot {
			return inner.Args[0]
		}

	case OpAnd, OpOr:
		absorbing := op == OpOr
		var rest []Expr
		for _, a := range args {
			if b, ok := a.(*BoolLit); ok {
				if b.Value == absorbing {
					return Bool(absorbing)
				}
				continue
			}
			rest = append(rest, a)
		}
		switch len(rest) {
		case 0:
			return Bool(!absorbing)
		case 1:
			return rest[0]
		}
		if len(rest) != len(args) {
			return &App{Op: op, Args: rest, typ: types.Bool}
		}

	case OpIte:
		if c, ok := args[0].(*BoolLit); ok {
			if c.Value {
				return args[1]
			}
			return args[2]
		}
		if Identical(args[1], args[2]) {
			return args[1]
		}
		if isBool(args[1]) {
			t, tok := args[1].(*BoolLit)
			e, eok := args[2].(*BoolLit)
			if tok && eok && t.Value && !e.Value {
				return args[0]
			}
		}

	case OpEq:
		if Identical(args[0], args[1]) {
			return True
		}
		if isLiteral(args[0]) && isLiteral(args[1]) {
			return False
		}
	}
	return nil
}

func isLiteral(e Expr) bool {
	switch e.(type) {
	case *BVLit, *IntLit, *BoolLit:
		return true
	}
	return false
}

func isBool(e Expr) bool {
	_, ok := e.Type().(types.BoolType)
	return ok
}

func isInt(e Expr) bool {
	_, ok := e.Type().(types.IntegerType)
	return ok
}

func bvWidth(e Expr) (int, bool) {
	t, ok := e.Type().(types.BVType)
	return t.Width, ok
}

func sameBVWidth(a, b Expr) (int, bool) {
	wa, ok := bvWidth(a)
	if !ok {
		return 0, false
	}
	wb, ok := bvWidth(b)
	return wa, ok && wa == wb
}
