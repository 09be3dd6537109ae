package vesper

import (
	"fmt"
	"strings"
)

// Frame is one link in the chain of evaluation frames the surrounding
// interpreter maintains while executing bodies. Frames may be pooled and
// reused by the evaluator, so nothing in the runtime retains a live *Frame
// beyond the call that observed it; exceptions snapshot positions instead.
type Frame struct {
	// Name is the name of the executing body, usually a member name.
	Name string
	// Source is the source label, or empty if the frame has no associated
	// source position.
	Source string
	// Line is the line within Source.
	Line int

	prev *Frame
}

// FrameInfo is a snapshotted frame position. Unlike a Frame, a FrameInfo
// stays valid forever.
type FrameInfo struct {
	Name   string
	Source string
	Line   int
}

// String formats the frame position for diagnostics.
func (f FrameInfo) String() string {
	return fmt.Sprintf("%s\t%s:%d", f.Name, f.Source, f.Line)
}

// PushFrame enters an evaluation frame on this task's chain.
func (r *Runtime) PushFrame(name, source string, line int) {
	r.frame = &Frame{Name: name, Source: source, Line: line, prev: r.frame}
}

// PopFrame leaves the innermost evaluation frame.
func (r *Runtime) PopFrame() {
	if r.frame != nil {
		r.frame = r.frame.prev
	}
}

// snapshotFrames walks the frame chain outward from the throw site and
// copies each position. The copy is taken before any frame can be reused,
// which is the only moment the chain is known to be valid.
func snapshotFrames(f *Frame) []FrameInfo {
	var raw []FrameInfo
	for ; f != nil; f = f.prev {
		raw = append(raw, FrameInfo{Name: f.Name, Source: f.Source, Line: f.Line})
	}
	return raw
}

// renderTrace filters snapshotted positions into the user-visible trace:
// frames without a source position are skipped, and consecutive frames at
// the same (source, line) collapse into one entry.
func renderTrace(raw []FrameInfo) []FrameInfo {
	trace := make([]FrameInfo, 0, len(raw))
	for _, f := range raw {
		if f.Source == "" {
			continue
		}
		if n := len(trace); n > 0 && trace[n-1].Source == f.Source && trace[n-1].Line == f.Line {
			continue
		}
		trace = append(trace, f)
	}
	return trace
}

// FormatTrace renders a trace one frame per line, innermost first.
func FormatTrace(trace []FrameInfo) string {
	w := strings.Builder{}
	for _, f := range trace {
		fmt.Fprintf(&w, "\t%s\n", f)
	}
	return w.String()
}
