package vesper

// Fn is a function value: a body together with the lexical environment it
// captured and the positional parameter names it binds. Methods, property
// accessors, and lambdas are all Fns; the difference is only in how they
// come to be invoked.
type Fn struct {
	Base
	// Name is the function's name, used in evaluation frames. Lambdas may
	// leave it empty.
	Name string
	// Params is the ordered list of positional parameter names.
	Params []string
	// Body is the executable body.
	Body Body
	// Env is the captured lexical environment, or nil for functions that
	// close over nothing.
	Env *Scope
	// Property marks a zero-parameter accessor: reading the member invokes
	// the function with the instance as receiver instead of returning it.
	Property bool
	// Source and Line locate the declaration for stack traces.
	Source string
	Line   int
}

// VesperType returns "Fun".
func (f *Fn) VesperType() string {
	return "Fun"
}

// Call invokes the function with no receiver.
func (f *Fn) Call(r *Runtime, args []Value) (Value, Stop) {
	return f.Activate(r, nil, args)
}

// Activate invokes the function with the given receiver bound. Missing
// arguments bind to nil; a body that wants stricter arity raises
// IllegalArgument itself. A ReturnStop from the body terminates here, so
// early returns never leak past the call boundary.
func (f *Fn) Activate(r *Runtime, receiver Value, args []Value) (Value, Stop) {
	parent := f.Env
	if parent == nil {
		parent = NewScope()
	}
	s := parent.Child(receiver)
	if receiver != nil {
		s.Define("self", receiver)
	}
	for i, p := range f.Params {
		if i < len(args) {
			s.Define(p, args[i])
		} else {
			s.Define(p, r.Nil)
		}
	}
	r.PushFrame(f.Name, f.Source, f.Line)
	v, stop := f.Body.Execute(r, s)
	r.PopFrame()
	if stop == ReturnStop {
		stop = NoStop
	}
	return v, stop
}
