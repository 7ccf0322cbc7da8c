// Package uninterp eliminates placeholder uninterpreted functions from
// formulas by replacing their applications with terms built by rules.
package uninterp

import (
	"fmt"
	"strings"

	"github.com/sarchlab/isasem/formula"
	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
)

// Prefix starts the name of every placeholder function.
const Prefix = "uf_"

// instanceSep separates a rule key from an instantiation suffix. Rule keys
// must not contain it.
const instanceSep = "__"

// Bindings maps location or literal names to variables a rule introduced.
type Bindings map[string]*theory.BoundVar

// Rule builds the replacement of one placeholder application from the
// formula's operands, the rewritten arguments and the expected result type.
type Rule func(operands []*theory.BoundVar, args []theory.Expr, ret types.BaseType) (theory.Expr, Bindings, error)

// Rules maps rule keys to rules.
type Rules map[string]Rule

// UnsupportedFormError reports a term form the rewriter does not handle.
type UnsupportedFormError struct {
	Form string
}

func (e *UnsupportedFormError) Error() string {
	return fmt.Sprintf("cannot rewrite %s", e.Form)
}

// RuleTypeError reports a rule whose replacement has the wrong type.
type RuleTypeError struct {
	Key      string
	Expected types.BaseType
	Actual   types.BaseType
}

func (e *RuleTypeError) Error() string {
	return fmt.Sprintf("rule %s produced %s, want %s", e.Key, e.Actual, e.Expected)
}

// RuleKey derives the rule key of a function name: Prefix is stripped and
// the name is cut at the first "__", so differently suffixed instances of
// one placeholder share a key. A rule name containing "__" can never match.
func RuleKey(name string) string {
	key := strings.TrimPrefix(name, Prefix)
	if i := strings.Index(key, instanceSep); i > 0 {
		key = key[:i]
	}
	return key
}

// Rewrite replaces every placeholder application in e that has a rule.
// Subterms are rewritten first. Bindings from all applied rules are merged;
// the first binding of a name wins.
func Rewrite(e theory.Expr, operands []*theory.BoundVar, rules Rules) (theory.Expr, Bindings, error) {
	r := &rewriter{
		operands: operands,
		rules:    rules,
		memo:     make(map[theory.Expr]theory.Expr),
		bindings: make(Bindings),
	}
	out, err := r.rewrite(e)
	if err != nil {
		return nil, nil, err
	}
	return out, r.bindings, nil
}

type rewriter struct {
	operands []*theory.BoundVar
	rules    Rules
	memo     map[theory.Expr]theory.Expr
	bindings Bindings
}

func (r *rewriter) rewrite(e theory.Expr) (theory.Expr, error) {
	if out, ok := r.memo[e]; ok {
		return out, nil
	}
	out, err := r.rebuild(e)
	if err != nil {
		return nil, err
	}
	r.memo[e] = out
	return out, nil
}

func (r *rewriter) rebuild(e theory.Expr) (theory.Expr, error) {
	switch e := e.(type) {
	case *theory.VarExpr, *theory.BVLit, *theory.IntLit, *theory.BoolLit:
		return e, nil

	case *theory.App:
		args, changed, err := r.rewriteAll(e.Args)
		if err != nil || !changed {
			return e, err
		}
		return theory.NewApp(e.Op, args, e.Indices...)

	case *theory.Call:
		args, changed, err := r.rewriteAll(e.Args)
		if err != nil {
			return nil, err
		}
		key := RuleKey(e.Fn.Name())
		if rule, ok := r.rules[key]; ok {
			return r.apply(key, rule, args, e.Type())
		}
		if !changed {
			return e, nil
		}
		return e.Fn.Apply(args...)

	case *theory.MapOverArrays:
		return nil, &UnsupportedFormError{Form: "array map"}

	case *theory.Quantifier:
		return nil, &UnsupportedFormError{Form: "quantifier"}

	case *theory.ArrayFromFn:
		return nil, &UnsupportedFormError{Form: "array comprehension"}

	default:
		return nil, &UnsupportedFormError{Form: fmt.Sprintf("%T", e)}
	}
}

func (r *rewriter) apply(key string, rule Rule, args []theory.Expr, ret types.BaseType) (theory.Expr, error) {
	out, binds, err := rule(r.operands, args, ret)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", key, err)
	}
	if out == nil || !types.Equal(out.Type(), ret) {
		var actual types.BaseType
		if out != nil {
			actual = out.Type()
		}
		return nil, &RuleTypeError{Key: key, Expected: ret, Actual: actual}
	}
	for name, v := range binds {
		if _, ok := r.bindings[name]; !ok {
			r.bindings[name] = v
		}
	}
	return out, nil
}

func (r *rewriter) rewriteAll(es []theory.Expr) ([]theory.Expr, bool, error) {
	out := make([]theory.Expr, len(es))
	changed := false
	for i, c := range es {
		n, err := r.rewrite(c)
		if err != nil {
			return nil, false, err
		}
		out[i] = n
		changed = changed || n != c
	}
	return out, changed, nil
}

// RewriteFormula rewrites every def of f. Variables bound by rules join the
// literal variables unless the name is already bound, and every parameter
// the rewritten defs read joins the used set. f is not modified.
func RewriteFormula(f *formula.ParameterizedFormula, rules Rules) (*formula.ParameterizedFormula, error) {
	r := &rewriter{
		operands: f.OperandVars,
		rules:    rules,
		memo:     make(map[theory.Expr]theory.Expr),
		bindings: make(Bindings),
	}

	out := &formula.ParameterizedFormula{
		OperandVars: append([]*theory.BoundVar(nil), f.OperandVars...),
		LiteralVars: make(map[string]*theory.BoundVar, len(f.LiteralVars)),
		Defs:        make([]formula.Def, len(f.Defs)),
	}
	for name, v := range f.LiteralVars {
		out.LiteralVars[name] = v
	}
	for i, d := range f.Defs {
		e, err := r.rewrite(d.Expr)
		if err != nil {
			return nil, fmt.Errorf("def of %s: %w", d.Param, err)
		}
		out.Defs[i] = formula.Def{Param: d.Param, Expr: e}
	}
	for name, v := range r.bindings {
		if _, ok := out.LiteralVars[name]; !ok {
			out.LiteralVars[name] = v
		}
	}

	out.Uses = out.ComputeUses()
	for _, p := range f.SortedUses() {
		out.Uses.Insert(p)
	}
	return out, nil
}
