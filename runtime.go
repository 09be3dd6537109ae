package vesper

import (
	"fmt"
	"sync"
)

// Runtime is an execution context for the Vesper object runtime. The zero
// value is not usable; obtain one with NewRuntime. A Runtime is owned by a
// single interpreter task: flow producers and other independently scheduled
// tasks each run against a Fork, which shares all class and exception state
// but keeps its own evaluation frame chain.
type Runtime struct {
	// Nil is the runtime's nil value.
	Nil Value
	// True and False are the runtime's boolean singletons.
	True  Value
	False Value

	// state is shared by every fork of this runtime.
	state *state
	// frame is the innermost evaluation frame of this task.
	frame *Frame
}

// state is the part of a runtime shared between forks: the root type, the
// exception registry, the class registry, and the dispatch cache.
type state struct {
	// rootType is the single shared root type checked as a last resort
	// during member resolution.
	rootType *Class

	// excRoot is the ancestor of every exception class.
	excRoot *Class
	// excMu guards excs. Exception classes may be requested concurrently,
	// so the registry is updated only inside this lock.
	excMu sync.Mutex
	excs  map[string]*Class

	// classMu guards classes, the name registry used by the codec.
	classMu sync.Mutex
	classes map[string]*Class

	// lookupMu guards lookups, the dispatch cache.
	lookupMu sync.Mutex
	lookups  map[lookupKey]*Member
}

// lookupKey identifies a cached dispatch lookup. The layout version in the
// key is what invalidates stale entries.
type lookupKey struct {
	class  uintptr
	layout uint64
	name   string
}

// wellKnownExceptions is the fixed catalogue of exception classes
// registered when a fresh runtime starts.
var wellKnownExceptions = []string{
	"IllegalArgument",
	"IllegalState",
	"IndexOutOfBounds",
	"NullReference",
	"SymbolNotFound",
	"AccessDenied",
	"DefinitionError",
	"OperatorNotImplemented",
	"SerializationError",
}

// NewRuntime prepares a new runtime. The root type, the exception root, and
// the well-known exception catalogue are installed before it returns.
func NewRuntime() *Runtime {
	st := &state{
		excs:    map[string]*Class{},
		classes: map[string]*Class{},
		lookups: map[lookupKey]*Member{},
	}
	r := &Runtime{
		Nil:   nilValue{},
		True:  Bool(true),
		False: Bool(false),
		state: st,
	}
	st.rootType = mustClass("Any")
	st.excRoot = mustClass("Exception")
	st.excs["Exception"] = st.excRoot
	r.initRootType()
	for _, name := range wellKnownExceptions {
		r.ExceptionClass(name)
	}
	return r
}

// Fork derives a runtime for an independently scheduled task. The fork
// shares classes, exceptions, and caches with r but has its own frame
// chain.
func (r *Runtime) Fork() *Runtime {
	return &Runtime{Nil: r.Nil, True: r.True, False: r.False, state: r.state}
}

// RootType returns the runtime's shared root type.
func (r *Runtime) RootType() *Class {
	return r.state.rootType
}

// initRootType installs the universal operations every value responds to.
func (r *Runtime) initRootType() {
	root := r.state.rootType
	asString := &Fn{
		Name: "asString",
		Body: BodyFunc(func(r *Runtime, s *Scope) (Value, Stop) {
			recv := s.Receiver()
			if recv == nil {
				return NewStr("nil"), NoStop
			}
			if str, ok := recv.(*Str); ok {
				return str, NoStop
			}
			return NewStr(fmt.Sprintf("%s_%p", recv.VesperType(), recv)), NoStop
		}),
	}
	typeName := &Fn{
		Name: "typeName",
		Body: BodyFunc(func(r *Runtime, s *Scope) (Value, Stop) {
			recv := s.Receiver()
			if recv == nil {
				return NewStr("Nil"), NoStop
			}
			return NewStr(recv.VesperType()), NoStop
		}),
	}
	root.members["asString"] = &Member{Value: asString, Kind: FunKind, Declarer: root}
	root.members["typeName"] = &Member{Value: typeName, Kind: FunKind, Declarer: root}
}

// Bool converts a Go bool to the runtime's boolean singletons.
func (r *Runtime) Bool(c bool) Value {
	if c {
		return r.True
	}
	return r.False
}

// RegisterClass adds a class to the runtime's name registry so the codec
// can resolve it during deserialization. Registering a second class under
// an existing name is a definition error.
func (r *Runtime) RegisterClass(c *Class) error {
	st := r.state
	st.classMu.Lock()
	defer st.classMu.Unlock()
	if _, ok := st.classes[c.Name]; ok {
		return &DefinitionError{Class: c.Name, Reason: "a class with this name is already registered"}
	}
	st.classes[c.Name] = c
	return nil
}

// ClassNamed returns the registered class with the given name, or nil.
func (r *Runtime) ClassNamed(name string) *Class {
	st := r.state
	st.classMu.Lock()
	defer st.classMu.Unlock()
	return st.classes[name]
}

// cachedLookup consults the dispatch cache.
func (st *state) cachedLookup(key lookupKey) (*Member, bool) {
	st.lookupMu.Lock()
	m, ok := st.lookups[key]
	st.lookupMu.Unlock()
	return m, ok
}

// storeLookup records a dispatch result, including misses.
func (st *state) storeLookup(key lookupKey, m *Member) {
	st.lookupMu.Lock()
	st.lookups[key] = m
	st.lookupMu.Unlock()
}

// dropLookups flushes the dispatch cache. Declarations are rare after load,
// so rebuilding the cache is cheaper than tracking per-class dependents.
func (st *state) dropLookups() {
	st.lookupMu.Lock()
	st.lookups = map[lookupKey]*Member{}
	st.lookupMu.Unlock()
}

// nilValue is the type of the runtime's nil.
type nilValue struct {
	Base
}

// VesperType returns "Nil".
func (nilValue) VesperType() string {
	return "Nil"
}

// Compare orders nil equal to nil and incomparable to everything else.
func (nilValue) Compare(r *Runtime, other Value) (Ordering, Value, Stop) {
	if _, ok := other.(nilValue); ok {
		return OrderEqual, nil, NoStop
	}
	return Incomparable, nil, NoStop
}

// Encode writes nil as an empty list.
func (nilValue) Encode(r *Runtime, enc Encoder) error {
	return enc.EncodeList(0)
}
