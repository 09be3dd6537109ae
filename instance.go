package vesper

import (
	"sort"
	"sync"

	"github.com/zephyrtronium/contains"
)

// Instance is a class-bound value holding a flattened environment of
// inherited members. The environment is pre-populated at construction with
// every inherited member reference, so dispatch never re-walks the class
// hierarchy at call time. Constructor parameters appear in the environment
// twice: under their plain name and under a name qualified by the declaring
// class ("Class::name"), which is what keeps qualified and base-class
// access consistent across diamond paths.
type Instance struct {
	Base
	// Class is the instance's class descriptor.
	Class *Class

	mu  sync.Mutex
	env map[string]*Member
}

// Qualify returns the qualified environment name for a member of a class.
func Qualify(c *Class, name string) string {
	return c.Name + "::" + name
}

// Construct instantiates a class: it creates the instance, seeds its
// environment, and runs the construction protocol so that every class in
// the hierarchy initializes exactly once, parents strictly in declared
// order.
func (r *Runtime) Construct(c *Class, args []Value) (Value, Stop) {
	inst := newShell(c)
	s := NewScope().Child(inst)
	visited := contains.Set{}
	if exc, stop := r.initClass(inst, s, c, args, &visited, true); stop != NoStop {
		return exc, stop
	}
	return inst, NoStop
}

// newShell creates an instance with its environment seeded but no
// initialization run. For each class in linearized order, the class's own
// member table is copied in without overwriting, and then its static table
// is linked in without overwriting. Static cells are aliased rather than
// copied: class-scope members are intentionally shared by the declaring
// class and all its subclasses.
func newShell(c *Class) *Instance {
	inst := &Instance{Class: c, env: map[string]*Member{}}
	for _, a := range c.lineage {
		a.mu.Lock()
		for name, m := range a.members {
			if _, ok := inst.env[name]; !ok {
				inst.env[name] = m.copied()
			}
		}
		for name, m := range a.statics {
			if _, ok := inst.env[name]; !ok {
				inst.env[name] = m
			}
		}
		a.mu.Unlock()
	}
	return inst
}

// initClass initializes one class of an instance under construction,
// recursively initializing its parents first. The visited set removes
// diamond duplicates: a class reached through several subclass paths runs
// its initializers and constructor only on the first arrival.
func (r *Runtime) initClass(inst *Instance, s *Scope, c *Class, args []Value, visited *contains.Set, runCtors bool) (Value, Stop) {
	if !visited.Add(c.id) {
		return nil, NoStop
	}
	r.bindParams(inst, c, args)
	for _, p := range c.Parents {
		pargs := r.parentArgs(inst, p)
		if exc, stop := r.initClass(inst, s, p, pargs, visited, runCtors); stop != NoStop {
			return exc, stop
		}
	}
	// A parent's initialization may have shadowed this class's plain
	// parameter bindings; rebinding here guarantees the class sees its own
	// arguments while its body runs.
	r.bindParams(inst, c, args)
	if !runCtors {
		return nil, NoStop
	}
	for _, fi := range c.inits {
		v, stop := fi.body.Execute(r, s)
		if stop != NoStop {
			return v, stop
		}
		inst.defineField(c, fi.name, v)
	}
	if c.ctor != nil {
		if v, stop := c.ctor.Execute(r, s); stop != NoStop {
			return v, stop
		}
	}
	return nil, NoStop
}

// bindParams binds a class's constructor parameters into the instance
// environment, both plainly and qualified by the declaring class. The two
// bindings are separate cells so that another class's plain binding cannot
// disturb the qualified one.
func (r *Runtime) bindParams(inst *Instance, c *Class, args []Value) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	for i, p := range c.params {
		var v Value
		switch {
		case i < len(args) && args[i] != nil:
			v = args[i]
		case p.Default != nil:
			v = p.Default
		default:
			v = r.Nil
		}
		plain := &Member{Value: PassCopy(v), Mutable: true, Declarer: c, Kind: ConstructorFieldKind, Transient: p.Transient}
		inst.env[p.Name] = plain
		inst.env[Qualify(c, p.Name)] = plain.copied()
	}
}

// parentArgs assembles the argument slice a parent's own constructor
// metadata requires, resolving each parameter name against the instance
// environment as it stands at the parent call and falling back to the
// parameter's default.
func (r *Runtime) parentArgs(inst *Instance, p *Class) []Value {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	args := make([]Value, len(p.params))
	for i, pp := range p.params {
		if m, ok := inst.env[pp.Name]; ok {
			args[i] = m.Value
		} else if pp.Default != nil {
			args[i] = pp.Default
		} else {
			args[i] = r.Nil
		}
	}
	return args
}

// defineField installs a field produced by an initializer, taking its
// attributes from the declaring class's member table.
func (inst *Instance) defineField(c *Class, name string, v Value) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	m, ok := inst.env[name]
	if !ok {
		m = &Member{Mutable: true, Declarer: c, Kind: FieldKind}
		inst.env[name] = m
	}
	m.Value = PassCopy(v)
}

// GetLocal returns the environment cell for a name, without visibility
// checks. Receiver-side code uses this for restricted members.
func (inst *Instance) GetLocal(name string) (*Member, bool) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	m, ok := inst.env[name]
	return m, ok
}

// resolve finds the member cell for a name: the flattened environment
// first, then the class lookup for members declared after this instance
// was built, then the runtime's root type.
func (inst *Instance) resolve(r *Runtime, name string) *Member {
	inst.mu.Lock()
	m, ok := inst.env[name]
	inst.mu.Unlock()
	if ok {
		return m
	}
	return r.GetInstanceMemberOrNull(inst.Class, name)
}

// VesperType returns the instance's class name.
func (inst *Instance) VesperType() string {
	return inst.Class.Name
}

// Compare orders instances of the same class structurally over their
// comparison-classified members, visiting member names in sorted order.
// Instances of different classes are incomparable.
func (inst *Instance) Compare(r *Runtime, other Value) (Ordering, Value, Stop) {
	o, ok := other.(*Instance)
	if !ok || o.Class != inst.Class {
		return Incomparable, nil, NoStop
	}
	for _, name := range inst.comparableNames() {
		a, _ := inst.GetLocal(name)
		b, ok := o.GetLocal(name)
		if !ok {
			return Incomparable, nil, NoStop
		}
		// A declared field with no initializer holds no value yet; it
		// reads as nil, so it compares as nil too.
		av, bv := a.Value, b.Value
		if av == nil {
			av = r.Nil
		}
		if bv == nil {
			bv = r.Nil
		}
		c, exc, stop := av.Compare(r, bv)
		if stop != NoStop {
			return Incomparable, exc, stop
		}
		if c != OrderEqual {
			return c, nil, NoStop
		}
	}
	return OrderEqual, nil, NoStop
}

// comparableNames returns the sorted names of the environment members that
// participate in structural comparison. Qualified aliases are skipped so a
// constructor field is not visited twice.
func (inst *Instance) comparableNames() []string {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	names := make([]string, 0, len(inst.env))
	for name, m := range inst.env {
		if m.comparable() && !isQualified(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// serializableNames returns the sorted names of the environment members
// that participate in default serialization, skipping qualified aliases.
func (inst *Instance) serializableNames() []string {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	names := make([]string, 0, len(inst.env))
	for name, m := range inst.env {
		if m.serializable() && !isQualified(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// restoreMember installs a deserialized state member, re-establishing the
// qualified alias when the declaring class is known.
func (inst *Instance) restoreMember(r *Runtime, name, declarer string, v Value) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	m, ok := inst.env[name]
	if !ok {
		m = &Member{Mutable: true, Kind: FieldKind}
		inst.env[name] = m
	}
	m.Value = PassCopy(v)
	if declarer == "" {
		return
	}
	for _, a := range inst.Class.lineage {
		if a.Name == declarer {
			m.Declarer = a
			if m.Kind == ConstructorFieldKind {
				inst.env[Qualify(a, name)] = m.copied()
			}
			break
		}
	}
}

func isQualified(name string) bool {
	for i := 0; i+1 < len(name); i++ {
		if name[i] == ':' && name[i+1] == ':' {
			return true
		}
	}
	return false
}

// GetField reads a member of the instance, enforcing visibility. Property
// accessors (zero-parameter property Fns) are invoked with the instance as
// receiver; plain function members are returned unactivated.
func (inst *Instance) GetField(r *Runtime, name string) (Value, Stop) {
	m := inst.resolve(r, name)
	if m == nil {
		return r.RaiseNamedf("SymbolNotFound", "%s has no member %s", inst.Class.Name, name)
	}
	if m.Visibility != Public {
		return r.RaiseNamedf("AccessDenied", "member %s of %s is not public", name, inst.Class.Name)
	}
	if fn, ok := m.Value.(*Fn); ok && fn.Property {
		return fn.Activate(r, inst, nil)
	}
	if m.Value == nil {
		return r.Nil, NoStop
	}
	return m.Value, NoStop
}

// SetField writes a member of the instance, enforcing visibility and
// mutability.
func (inst *Instance) SetField(r *Runtime, name string, v Value) (Value, Stop) {
	m := inst.resolve(r, name)
	if m == nil {
		return r.RaiseNamedf("SymbolNotFound", "%s has no member %s", inst.Class.Name, name)
	}
	if m.Visibility != Public {
		return r.RaiseNamedf("AccessDenied", "member %s of %s is not public", name, inst.Class.Name)
	}
	if !m.Mutable {
		return r.RaiseNamedf("IllegalState", "member %s of %s is immutable", name, inst.Class.Name)
	}
	inst.mu.Lock()
	if _, ok := inst.env[name]; !ok {
		// Declared on the class after this instance was built; give the
		// instance its own cell.
		m = m.copied()
		inst.env[name] = m
	}
	m.Value = PassCopy(v)
	inst.mu.Unlock()
	return v, NoStop
}

// Invoke calls a function member of the instance with the instance bound as
// receiver.
func (inst *Instance) Invoke(r *Runtime, name string, args []Value) (Value, Stop) {
	m := inst.resolve(r, name)
	if m == nil {
		return r.RaiseNamedf("SymbolNotFound", "%s does not respond to %s", inst.Class.Name, name)
	}
	if m.Visibility != Public {
		return r.RaiseNamedf("AccessDenied", "member %s of %s is not public", name, inst.Class.Name)
	}
	fn, ok := m.Value.(*Fn)
	if !ok {
		return r.RaiseNamedf("IllegalState", "member %s of %s is not callable", name, inst.Class.Name)
	}
	return fn.Activate(r, inst, args)
}

// Encode writes the instance through the codec boundary.
func (inst *Instance) Encode(r *Runtime, enc Encoder) error {
	return r.EncodeInstance(enc, inst)
}
