package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/sarchlab/isasem/batch"
	"github.com/sarchlab/isasem/formula"
	"github.com/sarchlab/isasem/report"
	"github.com/sarchlab/isasem/sig"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type printer struct {
	w io.Writer

	errorStyle *color.Color
	okStyle    *color.Color
	nameStyle  *color.Color
	dimStyle   *color.Color
}

func newPrinter(w io.Writer) *printer {
	p := &printer{
		w:          w,
		errorStyle: color.New(color.FgRed, color.Bold),
		okStyle:    color.New(color.FgGreen, color.Bold),
		nameStyle:  color.New(color.FgCyan, color.Bold),
		dimStyle:   color.New(color.FgBlue),
	}
	styles := []*color.Color{p.errorStyle, p.okStyle, p.nameStyle, p.dimStyle}
	for _, s := range styles {
		if isTerminal(w) {
			s.EnableColor()
		} else {
			s.DisableColor()
		}
	}
	return p
}

func (p *printer) errorf(format string, a ...any) {
	fmt.Fprintln(p.w, p.errorStyle.Sprint("error: ")+fmt.Sprintf(format, a...))
}

// formula writes a readable rendering of an extracted formula.
func (p *printer) formula(s sig.Signature, f formula.Formula) {
	fmt.Fprintln(p.w, p.nameStyle.Sprint(s.Name())+" "+p.dimStyle.Sprint(s.String()))
	switch f := f.(type) {
	case *formula.FunctionFormula:
		params := make([]string, len(f.ArgVars))
		for i, v := range f.ArgVars {
			params[i] = v.Name() + " " + f.ArgTypes[i].String()
		}
		fmt.Fprintf(p.w, "  (%s) -> %s\n", strings.Join(params, ", "), f.Return)
		fmt.Fprintf(p.w, "  = %s\n", f.Definition)
	case *formula.ProcedureFormula:
		if uses := f.SortedUses(); len(uses) > 0 {
			names := make([]string, len(uses))
			for i, u := range uses {
				names[i] = u.String()
			}
			fmt.Fprintf(p.w, "  uses %s\n", strings.Join(names, ", "))
		}
		for _, d := range f.Defs {
			fmt.Fprintf(p.w, "  %s := %s\n", d.Param, d.Expr)
		}
	}
}

// failure writes a routine failure with its category and abort trace.
func (p *printer) failure(name, category, message string, trace []string) {
	fmt.Fprintln(p.w, p.errorStyle.Sprint("FAIL ")+p.nameStyle.Sprint(name)+
		p.dimStyle.Sprintf(" [%s]", category))
	fmt.Fprintf(p.w, "  %s\n", message)
	for _, line := range trace {
		fmt.Fprintf(p.w, "  | %s\n", line)
	}
}

// outcome writes the per-routine status lines and totals of a batch.
func (p *printer) outcome(out *batch.Outcome) {
	for i := range out.Results {
		r := &out.Results[i]
		if r.Failed() {
			p.failure(r.Name(), string(r.Category), r.Err.Error(), abortTrace(r.Err))
			continue
		}
		status := "ok"
		if r.Report.Cached {
			status = "cached"
		}
		fmt.Fprintln(p.w, p.okStyle.Sprint("ok   ")+p.nameStyle.Sprint(r.Name())+
			p.dimStyle.Sprintf(" [%s, %d steps]", status, r.Report.Steps))
	}
	p.totals(out.Succeeded, out.Failed)
	if out.Batch != nil {
		fmt.Fprintf(p.w, "batch %s\n", out.Batch.ID)
	}
}

func (p *printer) totals(succeeded, failed int) {
	line := p.okStyle.Sprintf("%d succeeded", succeeded) + ", "
	if failed > 0 {
		line += p.errorStyle.Sprintf("%d failed", failed)
	} else {
		line += fmt.Sprintf("%d failed", failed)
	}
	fmt.Fprintln(p.w, line)
}

func (p *printer) catalog(c *sig.Catalog) {
	fmt.Fprintln(p.w, p.nameStyle.Sprint(c.Arch())+p.dimStyle.Sprintf(" (%d locations)", c.Len()))
	for _, l := range c.Locations() {
		fmt.Fprintf(p.w, "  %-12s %s\n", l.Name, l.Type)
	}
}

func (p *printer) batches(bs []report.Batch) {
	for _, b := range bs {
		fmt.Fprintf(p.w, "%s  %s  %-10s %s@%s\n",
			p.nameStyle.Sprint(b.ID), b.SubmittedAt.Format("2006-01-02 15:04:05"), b.Arch, b.User, b.Host)
	}
}

func (p *printer) summary(s *report.Summary) {
	fmt.Fprintf(p.w, "batch %s (%s)\n", p.nameStyle.Sprint(s.Batch.ID), s.Batch.Arch)
	p.totals(s.Successes, s.Failures)
	for _, k := range sortedKeys(s.ByKind) {
		fmt.Fprintf(p.w, "  %-10s %d\n", k, s.ByKind[k])
	}
	for _, k := range sortedKeys(s.ByCategory) {
		fmt.Fprintf(p.w, "  %-10s %d\n", k, s.ByCategory[k])
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
