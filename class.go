package vesper

import (
	"sync"
	"sync/atomic"
)

// classCounter is the global counter for class IDs. All accesses must be
// atomic.
var classCounter uintptr

// nextClass increments the class counter and returns its value as a unique,
// stable ID for a new class.
func nextClass() uintptr {
	return atomic.AddUintptr(&classCounter, 1)
}

// Class is a Vesper class descriptor: a named type with ordered direct
// parents, a member table, a static table, and constructor metadata. The
// parent list is fixed when the class is built, which is what makes the
// memoized linearization safe; the member table may keep growing, and each
// growth bumps the layout version so cached dispatch lookups die.
//
// A Class is itself a value: calling it constructs an instance, and its
// fields are the static members.
type Class struct {
	Base
	// Name is the class name.
	Name string
	// Parents is the ordered list of direct parents. It must not be
	// modified after the class is built.
	Parents []*Class

	// id is the class's unique ID.
	id uintptr
	// layout is the monotonic layout version, bumped on every member or
	// static declaration. Accessed atomically.
	layout uint64
	// lineage is the memoized C3 linearization, starting with the class
	// itself. Computed once when the class is built.
	lineage []*Class

	// mu guards the member and static tables.
	mu      sync.Mutex
	members Members
	statics Members

	// params is the ordered constructor parameter list.
	params []Param
	// ctor is the constructor body, or nil.
	ctor Body
	// inits is the list of field initializers in declaration order.
	inits []fieldInit
}

// fieldInit pairs a declared field with the body that produces its initial
// value during construction.
type fieldInit struct {
	name string
	body Body
}

// NewClass builds a class from its name and ordered direct parents. The
// linearization is computed here; an inconsistent hierarchy is a definition
// error and no class is created. Register the class with the runtime if
// instances of it will be deserialized.
func NewClass(name string, parents ...*Class) (*Class, error) {
	c := &Class{
		Name:    name,
		Parents: parents,
		id:      nextClass(),
		members: Members{},
		statics: Members{},
	}
	lin, err := linearize(c)
	if err != nil {
		return nil, err
	}
	c.lineage = lin
	return c, nil
}

// mustClass builds a class and panics on a definition error. For runtime
// bootstrap only.
func mustClass(name string, parents ...*Class) *Class {
	c, err := NewClass(name, parents...)
	if err != nil {
		panic(err)
	}
	return c
}

// ID returns the class's unique, stable ID.
func (c *Class) ID() uintptr {
	return c.id
}

// Layout returns the class's current layout version.
func (c *Class) Layout() uint64 {
	return atomic.LoadUint64(&c.layout)
}

// Lineage returns the memoized linearized ancestor order, beginning with
// the class itself. The caller must not modify the result.
func (c *Class) Lineage() []*Class {
	return c.lineage
}

// Inherits reports whether c is other or has other among its ancestors.
func (c *Class) Inherits(other *Class) bool {
	for _, a := range c.lineage {
		if a == other {
			return true
		}
	}
	return false
}

// DeclareMember declares a member on the class. Redeclaring a name that the
// class or any ancestor holds immutably is a definition error; redeclaring
// a mutable member replaces or shadows it, which is how subclass overrides
// of overridable members work. Every declaration bumps the layout version.
func (c *Class) DeclareMember(r *Runtime, name string, m *Member) error {
	for _, a := range c.lineage[1:] {
		if old := a.ownMember(name); old != nil && !old.Mutable && old.Kind != FunKind {
			return &DefinitionError{Class: c.Name, Reason: "member " + name + " is declared immutable by " + a.Name}
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.members[name]; ok && !old.Mutable {
		return &DefinitionError{Class: c.Name, Reason: "member " + name + " is already declared immutable"}
	}
	m.Declarer = c
	c.members[name] = m
	c.bumpLayout(r)
	return nil
}

// DeclareField declares a field member whose per-instance value is produced
// by init during construction. init may be nil when the member's declared
// value suffices.
func (c *Class) DeclareField(r *Runtime, name string, m *Member, init Body) error {
	if m.Kind != FieldKind && m.Kind != ConstructorFieldKind {
		m.Kind = FieldKind
	}
	if err := c.DeclareMember(r, name, m); err != nil {
		return err
	}
	if init != nil {
		c.mu.Lock()
		c.inits = append(c.inits, fieldInit{name: name, body: init})
		c.mu.Unlock()
	}
	return nil
}

// DeclareStatic declares a static (class-scope) member. Any name collision
// in the static table is a definition error. Static members are shared by
// the declaring class and all its subclasses.
func (c *Class) DeclareStatic(r *Runtime, name string, m *Member) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.statics[name]; ok {
		return &DefinitionError{Class: c.Name, Reason: "static member " + name + " is already declared"}
	}
	m.Declarer = c
	c.statics[name] = m
	c.bumpLayout(r)
	return nil
}

// SetConstructor installs the class's constructor metadata and body. body
// may be nil for classes whose construction is parameter binding and field
// initializers alone.
func (c *Class) SetConstructor(params []Param, body Body) {
	c.params = params
	c.ctor = body
}

// Params returns the class's ordered constructor parameter list.
func (c *Class) Params() []Param {
	return c.params
}

// bumpLayout increments the layout version. Called with c.mu held.
func (c *Class) bumpLayout(r *Runtime) {
	atomic.AddUint64(&c.layout, 1)
	if r != nil {
		r.state.dropLookups()
	}
}

// ownMember returns the class's own member or static of the given name,
// checking the member table first.
func (c *Class) ownMember(name string) *Member {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.members[name]; ok {
		return m
	}
	if m, ok := c.statics[name]; ok {
		return m
	}
	return nil
}

// GetInstanceMemberOrNull resolves a member name against the linearized
// ancestor order: for each class in order, its member table and then its
// static table; if nothing matches anywhere, the runtime's root type is
// checked as a last resort. Results are cached by (class ID, layout
// version, name).
func (r *Runtime) GetInstanceMemberOrNull(c *Class, name string) *Member {
	key := lookupKey{class: c.id, layout: c.Layout(), name: name}
	if m, ok := r.state.cachedLookup(key); ok {
		return m
	}
	m := r.lookupMember(c, name)
	r.state.storeLookup(key, m)
	return m
}

func (r *Runtime) lookupMember(c *Class, name string) *Member {
	for _, a := range c.lineage {
		if m := a.ownMember(name); m != nil {
			return m
		}
	}
	if root := r.state.rootType; root != nil && root != c {
		return root.ownMember(name)
	}
	return nil
}

// FindDeclaringClassOf returns the class in c's linearized order that
// actually defines the named member, or nil. Qualified and base-class
// access resolve through this.
func (r *Runtime) FindDeclaringClassOf(c *Class, name string) *Class {
	for _, a := range c.lineage {
		if a.ownMember(name) != nil {
			return a
		}
	}
	return nil
}

// VesperType returns "Class".
func (c *Class) VesperType() string {
	return "Class"
}

// Compare orders classes by identity.
func (c *Class) Compare(r *Runtime, other Value) (Ordering, Value, Stop) {
	o, ok := other.(*Class)
	if !ok {
		return Incomparable, nil, NoStop
	}
	switch {
	case c.id < o.id:
		return OrderLess, nil, NoStop
	case c.id > o.id:
		return OrderGreater, nil, NoStop
	}
	return OrderEqual, nil, NoStop
}

// GetField reads a static member of the class.
func (c *Class) GetField(r *Runtime, name string) (Value, Stop) {
	c.mu.Lock()
	m, ok := c.statics[name]
	c.mu.Unlock()
	if !ok {
		for _, a := range c.lineage[1:] {
			a.mu.Lock()
			m, ok = a.statics[name]
			a.mu.Unlock()
			if ok {
				break
			}
		}
	}
	if !ok {
		return r.RaiseNamedf("SymbolNotFound", "class %s has no static member %s", c.Name, name)
	}
	if m.Visibility != Public {
		return r.RaiseNamedf("AccessDenied", "static member %s of %s is not public", name, c.Name)
	}
	return m.Value, NoStop
}

// SetField writes a static member of the class. Statics are shared cells,
// so a write through a subclass resolves through the lineage the same way
// reads do and lands in the declaring class's cell.
func (c *Class) SetField(r *Runtime, name string, v Value) (Value, Stop) {
	var m *Member
	var ok bool
	for _, a := range c.lineage {
		a.mu.Lock()
		m, ok = a.statics[name]
		a.mu.Unlock()
		if ok {
			break
		}
	}
	if !ok {
		return r.RaiseNamedf("SymbolNotFound", "class %s has no static member %s", c.Name, name)
	}
	if !m.Mutable {
		return r.RaiseNamedf("IllegalState", "static member %s of %s is immutable", name, c.Name)
	}
	m.Value = PassCopy(v)
	return v, NoStop
}

// Call constructs an instance of the class.
func (c *Class) Call(r *Runtime, args []Value) (Value, Stop) {
	return r.Construct(c, args)
}

// Invoke calls a static function member of the class.
func (c *Class) Invoke(r *Runtime, name string, args []Value) (Value, Stop) {
	f, stop := c.GetField(r, name)
	if stop != NoStop {
		return f, stop
	}
	return f.Call(r, args)
}

// Encode writes the class reference as its name.
func (c *Class) Encode(r *Runtime, enc Encoder) error {
	return enc.EncodeString(c.Name)
}
