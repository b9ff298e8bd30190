package mailbox

import (
	"fmt"
	"sync"
	"time"
)

// traceEvent is one recorded tx/rx decision, timestamped for later replay.
type traceEvent struct {
	at  time.Time
	txt string
}

// Tracer is a human-readable trace of tx/rx decisions, independent of real
// I/O so it stays reachable from tests. Modeled on rfm69/dbgbuf.go's
// mutex-guarded event buffer.
type Tracer struct {
	mu  sync.Mutex
	buf []traceEvent
}

// NewTracer returns an empty tracer.
func NewTracer() *Tracer {
	return &Tracer{}
}

func (t *Tracer) push(txt string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, traceEvent{at: time.Now(), txt: txt})
}

func (t *Tracer) tracef(format string, args ...interface{}) {
	t.push(fmt.Sprintf(format, args...))
}

// Dump renders every recorded event as one line, relative to the first
// event's timestamp, then clears the buffer.
func (t *Tracer) Dump() []string {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.buf) == 0 {
		return nil
	}
	t0 := t.buf[0].at
	lines := make([]string, len(t.buf))
	for i, ev := range t.buf {
		lines[i] = fmt.Sprintf("%.6fs: %s", ev.at.Sub(t0).Seconds(), ev.txt)
	}
	t.buf = nil
	return lines
}
