package vesper

import "sync"

// Body is an executable unit supplied by the surrounding interpreter. The
// runtime invokes bodies for method and property calls, field initializers,
// constructors, and flow producers. Execute evaluates the body against the
// given scope and returns its result together with the control flow status.
type Body interface {
	Execute(r *Runtime, s *Scope) (Value, Stop)
}

// BodyFunc adapts a Go function to the Body contract. Hosts embedding the
// runtime use this to define members in Go.
type BodyFunc func(r *Runtime, s *Scope) (Value, Stop)

// Execute calls f.
func (f BodyFunc) Execute(r *Runtime, s *Scope) (Value, Stop) {
	return f(r, s)
}

// Param is one constructor parameter. The declaration order of a class's
// parameters is its constructor metadata.
type Param struct {
	// Name is the parameter name. Construction binds it into the instance
	// environment both plainly and qualified by the declaring class.
	Name string
	// Default is the value used when no argument is supplied, or nil if the
	// parameter is required.
	Default Value
	// Transient parameters produce transient constructor fields.
	Transient bool
}

// Scope is a lexical environment: a parent chain of variable bindings with
// an optional invocation receiver. Scopes are safe for use from the single
// interpreter task that owns them plus any flow producers that captured
// them, so bindings are guarded by a lock.
type Scope struct {
	parent   *Scope
	receiver Value

	mu   sync.Mutex
	vars map[string]Value
}

// NewScope creates a scope with no parent and no receiver.
func NewScope() *Scope {
	return &Scope{vars: map[string]Value{}}
}

// Child creates a scope nested in s. If receiver is non-nil it overrides the
// parent chain's receiver for the new scope and everything nested in it.
func (s *Scope) Child(receiver Value) *Scope {
	return &Scope{parent: s, receiver: receiver, vars: map[string]Value{}}
}

// Receiver returns the innermost invocation receiver, or nil if no scope in
// the chain has one.
func (s *Scope) Receiver() Value {
	for c := s; c != nil; c = c.parent {
		if c.receiver != nil {
			return c.receiver
		}
	}
	return nil
}

// Define creates or replaces a binding in this scope directly. By-value
// types are copied into the binding.
func (s *Scope) Define(name string, v Value) {
	s.mu.Lock()
	s.vars[name] = PassCopy(v)
	s.mu.Unlock()
}

// Lookup finds a binding along the parent chain.
func (s *Scope) Lookup(name string) (Value, bool) {
	for c := s; c != nil; c = c.parent {
		c.mu.Lock()
		v, ok := c.vars[name]
		c.mu.Unlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// Assign rebinds a name in the innermost scope that already defines it.
// It reports whether any scope in the chain had the binding.
func (s *Scope) Assign(name string, v Value) bool {
	for c := s; c != nil; c = c.parent {
		c.mu.Lock()
		if _, ok := c.vars[name]; ok {
			c.vars[name] = PassCopy(v)
			c.mu.Unlock()
			return true
		}
		c.mu.Unlock()
	}
	return false
}

// Snapshot returns a scope with the same visible bindings that no longer
// shares storage with s's own frame. Captured environments are snapshotted
// so they remain valid after the call frame that created them is reused or
// discarded; bindings in parent scopes stay shared, which is what closures
// over outer variables require.
func (s *Scope) Snapshot() *Scope {
	c := &Scope{parent: s.parent, receiver: s.receiver, vars: make(map[string]Value, len(s.vars))}
	s.mu.Lock()
	for name, v := range s.vars {
		c.vars[name] = v
	}
	s.mu.Unlock()
	return c
}
