package vesper

// Bool is the boolean value type.
type Bool bool

// VesperType returns "Bool".
func (Bool) VesperType() string {
	return "Bool"
}

// Passing returns PassByVal; booleans copy into new bindings.
func (Bool) Passing() Passing {
	return PassByVal
}

// Copy returns the receiver.
func (b Bool) Copy() Value {
	return b
}

// Compare orders false before true.
func (b Bool) Compare(r *Runtime, other Value) (Ordering, Value, Stop) {
	o, ok := other.(Bool)
	if !ok {
		return Incomparable, nil, NoStop
	}
	switch {
	case b == o:
		return OrderEqual, nil, NoStop
	case !bool(b):
		return OrderLess, nil, NoStop
	}
	return OrderGreater, nil, NoStop
}

// Operate implements "and", "or", and "not".
func (b Bool) Operate(r *Runtime, op string, operand Value) (Value, Stop) {
	switch op {
	case "and":
		o, ok := operand.(Bool)
		if !ok {
			return r.RaiseNamedf("IllegalArgument", "and requires a Bool operand")
		}
		return r.Bool(bool(b) && bool(o)), NoStop
	case "or":
		o, ok := operand.(Bool)
		if !ok {
			return r.RaiseNamedf("IllegalArgument", "or requires a Bool operand")
		}
		return r.Bool(bool(b) || bool(o)), NoStop
	case "not":
		return r.Bool(!bool(b)), NoStop
	}
	return r.RaiseNamedf("OperatorNotImplemented", "operator %s is not implemented for Bool", op)
}

// GetIndex raises an IllegalState exception.
func (Bool) GetIndex(r *Runtime, key Value) (Value, Stop) {
	return Base{}.GetIndex(r, key)
}

// SetIndex raises an IllegalState exception.
func (Bool) SetIndex(r *Runtime, key, element Value) (Value, Stop) {
	return Base{}.SetIndex(r, key, element)
}

// GetField raises a SymbolNotFound exception.
func (Bool) GetField(r *Runtime, name string) (Value, Stop) {
	return Base{}.GetField(r, name)
}

// SetField raises a SymbolNotFound exception.
func (Bool) SetField(r *Runtime, name string, v Value) (Value, Stop) {
	return Base{}.SetField(r, name, v)
}

// Call raises an IllegalState exception.
func (Bool) Call(r *Runtime, args []Value) (Value, Stop) {
	return Base{}.Call(r, args)
}

// Invoke raises a SymbolNotFound exception.
func (Bool) Invoke(r *Runtime, name string, args []Value) (Value, Stop) {
	return Base{}.Invoke(r, name, args)
}

// Encode writes the boolean as an integer.
func (b Bool) Encode(r *Runtime, enc Encoder) error {
	if b {
		return enc.EncodeInt(1)
	}
	return enc.EncodeInt(0)
}
