package theory

// Children returns the direct subterms of e. Function bodies are closed and
// are not considered subterms of the terms that apply them.
func Children(e Expr) []Expr {
	switch e := e.(type) {
	case *App:
		return e.Args
	case *Call:
		return e.Args
	case *Quantifier:
		return []Expr{e.Body}
	case *MapOverArrays:
		return e.Arrays
	default:
		return nil
	}
}

// FreeVars returns the variables occurring free in e, in order of first
// occurrence.
func FreeVars(e Expr) []*BoundVar {
	w := &freeWalker{seen: make(map[*BoundVar]bool), visited: make(map[Expr]bool)}
	w.walk(e, nil)
	return w.out
}

type freeWalker struct {
	seen    map[*BoundVar]bool
	visited map[Expr]bool
	out     []*BoundVar
}

func (w *freeWalker) walk(e Expr, scope map[*BoundVar]bool) {
	if scope == nil {
		// Terms under no binder contribute the same variables wherever
		// they appear, so each one is walked once.
		if w.visited[e] {
			return
		}
		w.visited[e] = true
	}

	switch e := e.(type) {
	case *VarExpr:
		if !scope[e.Var] && !w.seen[e.Var] {
			w.seen[e.Var] = true
			w.out = append(w.out, e.Var)
		}
	case *Quantifier:
		inner := make(map[*BoundVar]bool, len(scope)+1)
		for v := range scope {
			inner[v] = true
		}
		inner[e.Var] = true
		w.walk(e.Body, inner)
	default:
		for _, c := range Children(e) {
			w.walk(c, scope)
		}
	}
}

// Identical reports whether a and b are the same term.
func Identical(a, b Expr) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	switch a := a.(type) {
	case *VarExpr:
		o, ok := b.(*VarExpr)
		return ok && a.Var == o.Var
	case *BVLit:
		o, ok := b.(*BVLit)
		return ok && a.Width == o.Width && a.Value.Cmp(o.Value) == 0
	case *IntLit:
		o, ok := b.(*IntLit)
		return ok && a.Value.Cmp(o.Value) == 0
	case *BoolLit:
		o, ok := b.(*BoolLit)
		return ok && a.Value == o.Value
	case *App:
		o, ok := b.(*App)
		if !ok || a.Op != o.Op || len(a.Indices) != len(o.Indices) {
			return false
		}
		for i := range a.Indices {
			if a.Indices[i] != o.Indices[i] {
				return false
			}
		}
		return identicalAll(a.Args, o.Args)
	case *Call:
		o, ok := b.(*Call)
		return ok && a.Fn == o.Fn && identicalAll(a.Args, o.Args)
	case *Quantifier:
		o, ok := b.(*Quantifier)
		return ok && a.Universal == o.Universal && a.Var == o.Var && Identical(a.Body, o.Body)
	case *ArrayFromFn:
		o, ok := b.(*ArrayFromFn)
		return ok && a.Fn == o.Fn
	case *MapOverArrays:
		o, ok := b.(*MapOverArrays)
		return ok && a.Fn == o.Fn && identicalAll(a.Arrays, o.Arrays)
	default:
		return false
	}
}

func identicalAll(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Identical(a[i], b[i]) {
			return false
		}
	}
	return true
}
