package sim

import (
	"fmt"
	"time"

	"github.com/sarchlab/isasem/theory"
)

// Result is the terminal result of a run.
type Result interface {
	result()
}

func (*TotalResult) result()   {}
func (*PartialResult) result() {}
func (*TimeoutResult) result() {}
func (*AbortedResult) result() {}

// TotalResult is a run in which every path returned.
type TotalResult struct {
	Value Value
	Store *Store
	Steps int
}

// PartialResult is a run that returned on some paths only. Value and Store
// are definite where Condition holds.
type PartialResult struct {
	Value     Value
	Store     *Store
	Condition theory.Expr
	Aborted   []AbortReason
	Steps     int
}

// TimeoutResult is a run that exhausted its step or time budget.
type TimeoutResult struct {
	Steps   int
	Elapsed time.Duration
}

// AbortedResult is a run in which no path returned.
type AbortedResult struct {
	Reason AbortReason
	Steps  int
}

// AbortReason explains why paths aborted.
type AbortReason interface {
	Explain() []string
}

// AbortedExec is a single path that aborted.
type AbortedExec struct {
	Block   string
	Message string
}

// Explain implements AbortReason.
func (a *AbortedExec) Explain() []string {
	return []string{fmt.Sprintf("%s: %s", a.Block, a.Message)}
}

// AbortedBranch is a symbolic branch on which both sides aborted.
type AbortedBranch struct {
	Cond theory.Expr
	Then AbortReason
	Else AbortReason
}

// Explain implements AbortReason. Each side's lines are prefixed with the
// branch point.
func (a *AbortedBranch) Explain() []string {
	var out []string
	for _, l := range a.Then.Explain() {
		out = append(out, fmt.Sprintf("branch on %s, then: %s", a.Cond, l))
	}
	for _, l := range a.Else.Explain() {
		out = append(out, fmt.Sprintf("branch on %s, else: %s", a.Cond, l))
	}
	return out
}
