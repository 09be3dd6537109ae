package vesper

// Ordering is the result of comparing two values.
type Ordering int

// Comparison results. Incomparable is distinguished from the three orderings
// so that values without a mutual order never satisfy any ordered relation.
const (
	OrderLess    Ordering = -1
	OrderEqual   Ordering = 0
	OrderGreater Ordering = 1
	Incomparable Ordering = 2
)

// String returns a string representation of the Ordering.
func (o Ordering) String() string {
	switch o {
	case OrderLess:
		return "less"
	case OrderEqual:
		return "equal"
	case OrderGreater:
		return "greater"
	case Incomparable:
		return "incomparable"
	}
	return "Ordering(?)"
}

// Passing describes how a value moves into a new variable binding.
type Passing int

const (
	// PassByRef values are shared; mutation is visible through all aliases.
	// This is the default for every type.
	PassByRef Passing = iota
	// PassByVal values are duplicated whenever stored into a new binding.
	// Primitive numerics declare this.
	PassByVal
)

// Value is any Vesper runtime datum. The capability set is uniform: every
// value can be compared, operated on, indexed, read and written as a record,
// invoked, and serialized. Types implement the capabilities they support by
// embedding Base and overriding the relevant methods; the Base defaults
// raise the appropriate runtime exceptions.
type Value interface {
	// VesperType returns the name of the value's type.
	VesperType() string
	// Passing reports whether the value binds by reference or by copy.
	Passing() Passing
	// Compare orders the value against another. Incomparable is returned
	// when no mutual order exists. A user-defined comparison may raise, in
	// which case the exception and its Stop are returned.
	Compare(r *Runtime, other Value) (Ordering, Value, Stop)
	// Operate applies a binary operator such as "+" to the value.
	Operate(r *Runtime, op string, operand Value) (Value, Stop)
	// GetIndex retrieves an element by key.
	GetIndex(r *Runtime, key Value) (Value, Stop)
	// SetIndex stores an element by key.
	SetIndex(r *Runtime, key, element Value) (Value, Stop)
	// GetField reads a named member of the value.
	GetField(r *Runtime, name string) (Value, Stop)
	// SetField writes a named member of the value.
	SetField(r *Runtime, name string, v Value) (Value, Stop)
	// Call invokes the value itself, as a function.
	Call(r *Runtime, args []Value) (Value, Stop)
	// Invoke calls a named method on the value.
	Invoke(r *Runtime, name string, args []Value) (Value, Stop)
	// Encode writes the value through the codec boundary.
	Encode(r *Runtime, enc Encoder) error
}

// Copier is implemented by values that bind by copy. PassCopy uses it to
// duplicate the value at each new binding.
type Copier interface {
	Copy() Value
}

// PassCopy prepares a value for storage into a new variable binding,
// duplicating it if its type declares by-value passing.
func PassCopy(v Value) Value {
	if v == nil {
		return nil
	}
	if v.Passing() == PassByVal {
		if c, ok := v.(Copier); ok {
			return c.Copy()
		}
	}
	return v
}

// Base supplies the default behavior of the value capability set. Every
// capability a type does not override fails with the exception the contract
// prescribes: operators are not implemented, indexing and invocation are
// illegal, and unknown fields are resolution errors.
type Base struct{}

// Passing returns PassByRef.
func (Base) Passing() Passing {
	return PassByRef
}

// Compare returns Incomparable.
func (Base) Compare(r *Runtime, other Value) (Ordering, Value, Stop) {
	return Incomparable, nil, NoStop
}

// Operate raises an OperatorNotImplemented exception.
func (Base) Operate(r *Runtime, op string, operand Value) (Value, Stop) {
	return r.RaiseNamedf("OperatorNotImplemented", "operator %s is not implemented", op)
}

// GetIndex raises an IllegalState exception.
func (Base) GetIndex(r *Runtime, key Value) (Value, Stop) {
	return r.RaiseNamedf("IllegalState", "value does not support indexed access")
}

// SetIndex raises an IllegalState exception.
func (Base) SetIndex(r *Runtime, key, element Value) (Value, Stop) {
	return r.RaiseNamedf("IllegalState", "value does not support indexed assignment")
}

// GetField raises a SymbolNotFound exception.
func (Base) GetField(r *Runtime, name string) (Value, Stop) {
	return r.RaiseNamedf("SymbolNotFound", "no member named %s", name)
}

// SetField raises a SymbolNotFound exception.
func (Base) SetField(r *Runtime, name string, v Value) (Value, Stop) {
	return r.RaiseNamedf("SymbolNotFound", "no member named %s", name)
}

// Call raises an IllegalState exception.
func (Base) Call(r *Runtime, args []Value) (Value, Stop) {
	return r.RaiseNamedf("IllegalState", "value is not callable")
}

// Invoke raises a SymbolNotFound exception.
func (Base) Invoke(r *Runtime, name string, args []Value) (Value, Stop) {
	return r.RaiseNamedf("SymbolNotFound", "no method named %s", name)
}

// Encode reports that the value has no serialized form.
func (Base) Encode(r *Runtime, enc Encoder) error {
	return errNotSerializable
}

// Equal reports whether x and y compare equal under x's comparison. Raised
// exceptions and incomparability both report false.
func Equal(r *Runtime, x, y Value) bool {
	if x == nil || y == nil {
		return x == y
	}
	o, _, stop := x.Compare(r, y)
	return stop == NoStop && o == OrderEqual
}
