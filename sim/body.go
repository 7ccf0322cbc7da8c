package sim

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
)

// Body is the control-flow representation of a routine. Execution starts at
// the first block.
type Body struct {
	Name   string
	Params []types.SurfaceType
	Return types.SurfaceType
	Blocks []*Block
}

// Block is a labelled straight-line sequence of statements ending in a
// terminator.
type Block struct {
	Label string
	Stmts []Stmt
	Term  Terminator
}

// Stmt is a statement.
type Stmt interface {
	fmt.Stringer
	stmt()
}

// Assign binds a local variable.
type Assign struct {
	Local string
	Value Term
}

// WriteGlobal updates a global location.
type WriteGlobal struct {
	Global string
	Value  Term
}

// Assert restricts execution to states where Cond holds. A path whose
// condition is known false aborts.
type Assert struct {
	Cond    Term
	Message string
}

func (*Assign) stmt()      {}
func (*WriteGlobal) stmt() {}
func (*Assert) stmt()      {}

func (s *Assign) String() string      { return fmt.Sprintf("set %s = %s", s.Local, s.Value) }
func (s *WriteGlobal) String() string { return fmt.Sprintf("write @%s = %s", s.Global, s.Value) }
func (s *Assert) String() string      { return fmt.Sprintf("assert %s %q", s.Cond, s.Message) }

// Terminator ends a block.
type Terminator interface {
	fmt.Stringer
	terminator()
}

// Jump continues at Target.
type Jump struct {
	Target string
}

// Branch continues at Then when Cond holds and at Else otherwise.
type Branch struct {
	Cond Term
	Then string
	Else string
}

// Return ends execution with a value.
type Return struct {
	Value Term
}

// Fail aborts the current path.
type Fail struct {
	Message string
}

func (*Jump) terminator()   {}
func (*Branch) terminator() {}
func (*Return) terminator() {}
func (*Fail) terminator()   {}

func (t *Jump) String() string   { return "jump " + t.Target }
func (t *Branch) String() string { return fmt.Sprintf("branch %s %s %s", t.Cond, t.Then, t.Else) }
func (t *Return) String() string { return fmt.Sprintf("return %s", t.Value) }
func (t *Fail) String() string   { return fmt.Sprintf("fail %q", t.Message) }

// Term is an expression of the body.
type Term interface {
	fmt.Stringer
	term()
}

// ArgRef reads the argument at Index.
type ArgRef struct {
	Index int
}

// LocalRef reads a local variable.
type LocalRef struct {
	Name string
}

// GlobalRef reads a global location.
type GlobalRef struct {
	Name string
}

// Lit is a constant.
type Lit struct {
	Expr theory.Expr
}

// OpTerm applies a theory operator.
type OpTerm struct {
	Op      theory.Op
	Args    []Term
	Indices []int
}

// MakeStruct builds an engine aggregate.
type MakeStruct struct {
	Fields []Term
}

// GetField projects a field out of an aggregate or a symbolic struct.
type GetField struct {
	Of    Term
	Index int
}

// CallTerm applies an uninterpreted function. Calls with the same name
// within one run share a function.
type CallTerm struct {
	Name    string
	Args    []Term
	Returns types.BaseType
}

func (*ArgRef) term()     {}
func (*LocalRef) term()   {}
func (*GlobalRef) term()  {}
func (*Lit) term()        {}
func (*OpTerm) term()     {}
func (*MakeStruct) term() {}
func (*GetField) term()   {}
func (*CallTerm) term()   {}

func (t *ArgRef) String() string    { return fmt.Sprintf("arg%d", t.Index) }
func (t *LocalRef) String() string  { return "%" + t.Name }
func (t *GlobalRef) String() string { return "@" + t.Name }
func (t *Lit) String() string       { return t.Expr.String() }

func (t *OpTerm) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(t.Op.String())
	if len(t.Indices) > 0 {
		idx := make([]string, len(t.Indices))
		for i, n := range t.Indices {
			idx[i] = fmt.Sprint(n)
		}
		sb.WriteString("[" + strings.Join(idx, ",") + "]")
	}
	for _, a := range t.Args {
		sb.WriteString(" ")
		sb.WriteString(a.String())
	}
	sb.WriteString(")")
	return sb.String()
}

func (t *MakeStruct) String() string { return "{" + joinTerms(t.Fields, " ") + "}" }

func (t *GetField) String() string { return fmt.Sprintf("%s.%d", t.Of, t.Index) }

func (t *CallTerm) String() string {
	return fmt.Sprintf("%s(%s):%s", t.Name, joinTerms(t.Args, ", "), t.Returns)
}

func joinTerms(ts []Term, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}

// Validate checks that labels are unique, that every jump target exists and
// that every block is terminated.
func (b *Body) Validate() error {
	if len(b.Blocks) == 0 {
		return fmt.Errorf("body %s has no blocks", b.Name)
	}
	if b.Return == nil {
		return fmt.Errorf("body %s has no return type", b.Name)
	}

	labels := make(map[string]bool, len(b.Blocks))
	for _, blk := range b.Blocks {
		if blk.Label == "" {
			return fmt.Errorf("body %s: block with empty label", b.Name)
		}
		if labels[blk.Label] {
			return fmt.Errorf("body %s: label %q defined twice", b.Name, blk.Label)
		}
		labels[blk.Label] = true
	}

	for _, blk := range b.Blocks {
		var targets []string
		switch t := blk.Term.(type) {
		case *Jump:
			targets = []string{t.Target}
		case *Branch:
			targets = []string{t.Then, t.Else}
		case *Return, *Fail:
		case nil:
			return fmt.Errorf("body %s: block %q is not terminated", b.Name, blk.Label)
		}
		for _, tgt := range targets {
			if !labels[tgt] {
				return fmt.Errorf("body %s: block %q jumps to unknown label %q", b.Name, blk.Label, tgt)
			}
		}
	}
	return nil
}

func (b *Body) block(label string) *Block {
	for _, blk := range b.Blocks {
		if blk.Label == label {
			return blk
		}
	}
	return nil
}

// String renders the body in a stable textual form.
func (b *Body) String() string {
	var sb strings.Builder
	params := make([]string, len(b.Params))
	for i, p := range b.Params {
		params[i] = p.String()
	}
	ret := "?"
	if b.Return != nil {
		ret = b.Return.String()
	}
	fmt.Fprintf(&sb, "body %s(%s) %s\n", b.Name, strings.Join(params, ", "), ret)
	for _, blk := range b.Blocks {
		fmt.Fprintf(&sb, "%s:\n", blk.Label)
		for _, s := range blk.Stmts {
			fmt.Fprintf(&sb, "  %s\n", s)
		}
		if blk.Term != nil {
			fmt.Fprintf(&sb, "  %s\n", blk.Term)
		}
	}
	return sb.String()
}

// Fingerprint identifies the body's content.
func (b *Body) Fingerprint() string {
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
