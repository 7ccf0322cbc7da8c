package loader

import (
	"fmt"
	"math/big"

	"github.com/sarchlab/isasem/sim"
	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
)

func buildBody(name string, params []types.SurfaceType, defaultRet types.SurfaceType, bn *bodyNode) (*sim.Body, error) {
	ret := defaultRet
	if bn.Return != "" {
		t, err := types.Parse(bn.Return)
		if err != nil {
			return nil, fmt.Errorf("body return type: %w", err)
		}
		ret = t
	}

	body := &sim.Body{Name: name, Params: params, Return: ret}
	for i := range bn.Blocks {
		blk, err := buildBlock(&bn.Blocks[i])
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", bn.Blocks[i].Label, err)
		}
		body.Blocks = append(body.Blocks, blk)
	}
	if err := body.Validate(); err != nil {
		return nil, err
	}
	return body, nil
}

func buildBlock(bn *blockNode) (*sim.Block, error) {
	blk := &sim.Block{Label: bn.Label}
	for i := range bn.Stmts {
		s, err := buildStmt(&bn.Stmts[i])
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		blk.Stmts = append(blk.Stmts, s)
	}

	terms := 0
	if bn.Jump != "" {
		terms++
		blk.Term = &sim.Jump{Target: bn.Jump}
	}
	if bn.Branch != nil {
		terms++
		cond, err := buildTerm(&bn.Branch.Cond)
		if err != nil {
			return nil, fmt.Errorf("branch condition: %w", err)
		}
		blk.Term = &sim.Branch{Cond: cond, Then: bn.Branch.Then, Else: bn.Branch.Else}
	}
	if bn.Return != nil {
		terms++
		v, err := buildTerm(bn.Return)
		if err != nil {
			return nil, fmt.Errorf("return: %w", err)
		}
		blk.Term = &sim.Return{Value: v}
	}
	if bn.Fail != nil {
		terms++
		blk.Term = &sim.Fail{Message: *bn.Fail}
	}
	if terms != 1 {
		return nil, fmt.Errorf("block needs exactly one of jump, branch, return or fail, has %d", terms)
	}
	return blk, nil
}

func buildStmt(sn *stmtNode) (sim.Stmt, error) {
	switch {
	case sn.Set != "":
		v, err := valueOf(sn)
		if err != nil {
			return nil, err
		}
		return &sim.Assign{Local: sn.Set, Value: v}, nil
	case sn.Write != "":
		v, err := valueOf(sn)
		if err != nil {
			return nil, err
		}
		return &sim.WriteGlobal{Global: sn.Write, Value: v}, nil
	case sn.Assert != nil:
		c, err := buildTerm(sn.Assert)
		if err != nil {
			return nil, err
		}
		return &sim.Assert{Cond: c, Message: sn.Message}, nil
	default:
		return nil, fmt.Errorf("statement needs one of set, write or assert")
	}
}

func valueOf(sn *stmtNode) (sim.Term, error) {
	if sn.Value == nil {
		return nil, fmt.Errorf("statement has no value")
	}
	return buildTerm(sn.Value)
}

func buildTerm(tn *termNode) (sim.Term, error) {
	switch {
	case tn.Arg != nil:
		return &sim.ArgRef{Index: *tn.Arg}, nil

	case tn.Local != "":
		return &sim.LocalRef{Name: tn.Local}, nil

	case tn.Global != "":
		return &sim.GlobalRef{Name: tn.Global}, nil

	case tn.BV != nil:
		if tn.Width <= 0 {
			return nil, fmt.Errorf("bitvector literal %s needs a positive width", *tn.BV)
		}
		v, err := parseNumber(*tn.BV)
		if err != nil {
			return nil, err
		}
		return &sim.Lit{Expr: theory.BV(tn.Width, v)}, nil

	case tn.Int != nil:
		v, err := parseNumber(*tn.Int)
		if err != nil {
			return nil, err
		}
		return &sim.Lit{Expr: theory.Int(v)}, nil

	case tn.Bool != nil:
		return &sim.Lit{Expr: theory.Bool(*tn.Bool)}, nil

	case tn.Op != "":
		op, ok := theory.ParseOp(tn.Op)
		if !ok {
			return nil, fmt.Errorf("unknown operator %q", tn.Op)
		}
		args, err := buildTerms(tn.Args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tn.Op, err)
		}
		return &sim.OpTerm{Op: op, Args: args, Indices: tn.Indices}, nil

	case tn.Struct != nil:
		fields, err := buildTerms(tn.Struct)
		if err != nil {
			return nil, fmt.Errorf("struct: %w", err)
		}
		return &sim.MakeStruct{Fields: fields}, nil

	case tn.Field != nil:
		if tn.Of == nil {
			return nil, fmt.Errorf("field %d has no operand", *tn.Field)
		}
		of, err := buildTerm(tn.Of)
		if err != nil {
			return nil, err
		}
		return &sim.GetField{Of: of, Index: *tn.Field}, nil

	case tn.Call != "":
		ret, err := types.ParseBase(tn.Returns)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", tn.Call, err)
		}
		args, err := buildTerms(tn.Args)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", tn.Call, err)
		}
		return &sim.CallTerm{Name: tn.Call, Args: args, Returns: ret}, nil

	default:
		return nil, fmt.Errorf("empty term")
	}
}

func buildTerms(tns []termNode) ([]sim.Term, error) {
	out := make([]sim.Term, len(tns))
	for i := range tns {
		t, err := buildTerm(&tns[i])
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// parseNumber accepts decimal, 0x, 0o and 0b literals with an optional sign.
func parseNumber(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
