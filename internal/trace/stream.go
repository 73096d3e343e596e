package trace

import (
	"bufio"
	"io"
	"sync"
)

// StreamTracer writes every accepted event to its output as it arrives.
// Output opened from a path is buffered and owned by the tracer; writers
// handed in by the caller are written through and never closed.
type StreamTracer struct {
	mu     sync.Mutex
	w      io.Writer
	buf    *bufio.Writer // nil when writing through
	closer io.Closer     // nil unless the tracer opened the file
	level  Level
	format Format
	wrote  bool // an event is already in the chrome array
}

// NewStreamTracer writes through to w.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	st := &StreamTracer{w: w, level: level, format: format}
	st.header()
	return st
}

// newFileStream buffers writes to f and closes it on Close.
func newFileStream(f io.WriteCloser, level Level, format Format) *StreamTracer {
	buf := bufio.NewWriterSize(f, 64<<10)
	st := &StreamTracer{w: buf, buf: buf, closer: f, level: level, format: format}
	st.header()
	return st
}

func (t *StreamTracer) header() {
	if t.format == FormatChrome {
		_, _ = io.WriteString(t.w, "{\"traceEvents\":[\n")
	}
}

// Emit formats ev and writes it. Write errors are dropped so a broken trace
// sink never changes program behavior. Faults are flushed immediately.
func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.Allows(ev) {
		return
	}
	ev.Seq = NextSeq()
	data := FormatEvent(ev, t.format)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.format == FormatChrome {
		if t.wrote {
			_, _ = io.WriteString(t.w, ",\n")
		}
		t.wrote = true
	}
	_, _ = t.w.Write(data)
	if ev.Kind == KindFault && t.buf != nil {
		_ = t.buf.Flush()
	}
}

// Flush pushes buffered events to the file.
func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.buf != nil {
		return t.buf.Flush()
	}
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close terminates a chrome document, flushes, and closes an owned file.
func (t *StreamTracer) Close() error {
	t.mu.Lock()
	if t.format == FormatChrome {
		_, _ = io.WriteString(t.w, "\n]}\n")
	}
	t.mu.Unlock()

	if err := t.Flush(); err != nil {
		return err
	}
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// Level returns the configured level.
func (t *StreamTracer) Level() Level {
	return t.level
}

// Enabled reports whether any event can pass.
func (t *StreamTracer) Enabled() bool {
	return t.level > LevelOff
}
