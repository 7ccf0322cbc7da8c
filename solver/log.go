package solver

import (
	"io"
	"sync"
)

// syncLog serializes writes so that several sessions can share one log
// destination. Each query is logged with a single write.
type syncLog struct {
	mu sync.Mutex
	w  io.Writer
}

// SharedLog wraps w for use by concurrent sessions. io.Discard and nil are
// returned as io.Discard.
func SharedLog(w io.Writer) io.Writer {
	if w == nil || w == io.Discard {
		return io.Discard
	}
	if _, ok := w.(*syncLog); ok {
		return w
	}
	return &syncLog{w: w}
}

func (l *syncLog) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
