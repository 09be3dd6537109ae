package vesper

import (
	"fmt"
	"sync"
)

// DefinitionError is raised synchronously while declaring classes and
// members: duplicate immutable members, static collisions, or a hierarchy
// that cannot be linearized. Definition errors are never deferred.
type DefinitionError struct {
	// Class is the name of the class being defined.
	Class string
	// Reason describes the fault.
	Reason string
}

// Error returns the error message.
func (e *DefinitionError) Error() string {
	return fmt.Sprintf("definition of %s: %s", e.Class, e.Reason)
}

// Exception is a Vesper exception value. It carries a message, optional
// extra data, and a stack trace whose frame positions were snapshotted at
// construction. Exceptions propagate as ordinary values paired with
// ExceptionStop.
type Exception struct {
	Base
	// Class is the exception's class, rooted at the runtime's Exception
	// class.
	Class *Class
	// Message is the error message.
	Message string
	// Data is optional extra data attached at raise time, or nil.
	Data Value

	// raw is the frame position snapshot taken at construction.
	raw []FrameInfo
	// once guards the single rendering of the trace.
	once sync.Once
	// trace is the rendered trace. Once computed it is never regenerated:
	// the frame chain it came from may no longer exist, and a deserialized
	// exception has no chain at all.
	trace []FrameInfo
}

// NewException creates an exception of the given class, snapshotting the
// current frame chain.
func (r *Runtime) NewException(class *Class, message string) *Exception {
	if class == nil {
		class = r.state.excRoot
	}
	return &Exception{Class: class, Message: message, raw: snapshotFrames(r.frame)}
}

// Trace returns the exception's stack trace, innermost frame first. The
// trace is computed at most once and the identical slice is returned on
// every subsequent call.
func (e *Exception) Trace() []FrameInfo {
	e.once.Do(func() {
		if e.trace == nil {
			e.trace = renderTrace(e.raw)
		}
	})
	return e.trace
}

// restoreTrace installs a previously serialized trace. The snapshot is
// consumed so the trace can never be regenerated from a later, unrelated
// frame chain.
func (e *Exception) restoreTrace(trace []FrameInfo) {
	e.trace = trace
	e.once.Do(func() {})
}

// Error returns the error message, making *Exception usable as a Go error
// at the host boundary.
func (e *Exception) Error() string {
	return fmt.Sprintf("%s: %s", e.Class.Name, e.Message)
}

// String renders the class name, message, and first frame, which is the
// minimum a top-level caller must be able to show.
func (e *Exception) String() string {
	if t := e.Trace(); len(t) > 0 {
		return fmt.Sprintf("%s: %s\n\tat %s", e.Class.Name, e.Message, t[0])
	}
	return fmt.Sprintf("%s: %s", e.Class.Name, e.Message)
}

// VesperType returns the exception's class name.
func (e *Exception) VesperType() string {
	return e.Class.Name
}

// Compare orders exceptions structurally: same class and equal message.
func (e *Exception) Compare(r *Runtime, other Value) (Ordering, Value, Stop) {
	o, ok := other.(*Exception)
	if !ok || o.Class != e.Class {
		return Incomparable, nil, NoStop
	}
	switch {
	case e.Message < o.Message:
		return OrderLess, nil, NoStop
	case e.Message > o.Message:
		return OrderGreater, nil, NoStop
	}
	return OrderEqual, nil, NoStop
}

// GetField exposes the exception's message, data, and trace as members.
func (e *Exception) GetField(r *Runtime, name string) (Value, Stop) {
	switch name {
	case "message":
		return NewStr(e.Message), NoStop
	case "data":
		if e.Data == nil {
			return r.Nil, NoStop
		}
		return e.Data, NoStop
	case "stackTrace":
		return NewStr(FormatTrace(e.Trace())), NoStop
	}
	return r.RaiseNamedf("SymbolNotFound", "exception has no member %s", name)
}

// IsA reports whether the exception's class is the given class or inherits
// from it. Handlers use this to match raised exceptions.
func (e *Exception) IsA(class *Class) bool {
	return e.Class.Inherits(class)
}

// ExceptionClass returns the exception class with the given name, creating
// and registering it on first use. The registry is shared by all forks and
// is only ever updated inside its lock, since construction can be requested
// concurrently. Every class returned here descends from the runtime's
// Exception root.
func (r *Runtime) ExceptionClass(name string) *Class {
	st := r.state
	st.excMu.Lock()
	defer st.excMu.Unlock()
	if c, ok := st.excs[name]; ok {
		return c
	}
	c := mustClass(name, st.excRoot)
	st.excs[name] = c
	return c
}

// ExceptionRoot returns the shared ancestor of all exception classes.
func (r *Runtime) ExceptionRoot() *Class {
	return r.state.excRoot
}

// Raise begins propagating the exception.
func (r *Runtime) Raise(e *Exception) (Value, Stop) {
	return e, ExceptionStop
}

// RaiseExceptionf raises an exception of the root class with a formatted
// message.
func (r *Runtime) RaiseExceptionf(format string, args ...interface{}) (Value, Stop) {
	return r.Raise(r.NewException(nil, fmt.Sprintf(format, args...)))
}

// RaiseNamedf raises an exception of the named class, resolving the class
// through the registry, with a formatted message.
func (r *Runtime) RaiseNamedf(name, format string, args ...interface{}) (Value, Stop) {
	return r.Raise(r.NewException(r.ExceptionClass(name), fmt.Sprintf(format, args...)))
}

// GoError converts a Go error to a raised exception. An *Exception passes
// through unchanged, keeping its original trace.
func (r *Runtime) GoError(err error) (Value, Stop) {
	if e, ok := err.(*Exception); ok {
		return r.Raise(e)
	}
	return r.RaiseExceptionf("%s", err.Error())
}
