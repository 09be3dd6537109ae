package vesper

import "math"

// Number is the numeric value type. Numbers bind by value: storing one into
// a new variable binding stores a duplicate, so no two bindings alias.
type Number struct {
	Base
	// Value is the numeric value.
	Value float64
}

// NewNumber creates a Number.
func NewNumber(v float64) *Number {
	return &Number{Value: v}
}

// VesperType returns "Number".
func (*Number) VesperType() string {
	return "Number"
}

// Passing returns PassByVal.
func (*Number) Passing() Passing {
	return PassByVal
}

// Copy duplicates the number for a new binding.
func (n *Number) Copy() Value {
	return &Number{Value: n.Value}
}

// Compare orders numbers numerically. NaN is incomparable to everything.
func (n *Number) Compare(r *Runtime, other Value) (Ordering, Value, Stop) {
	o, ok := other.(*Number)
	if !ok || math.IsNaN(n.Value) || math.IsNaN(o.Value) {
		return Incomparable, nil, NoStop
	}
	switch {
	case n.Value < o.Value:
		return OrderLess, nil, NoStop
	case n.Value > o.Value:
		return OrderGreater, nil, NoStop
	}
	return OrderEqual, nil, NoStop
}

// Operate implements the arithmetic operators.
func (n *Number) Operate(r *Runtime, op string, operand Value) (Value, Stop) {
	o, ok := operand.(*Number)
	if !ok {
		return r.RaiseNamedf("IllegalArgument", "operator %s requires a Number operand", op)
	}
	switch op {
	case "+":
		return NewNumber(n.Value + o.Value), NoStop
	case "-":
		return NewNumber(n.Value - o.Value), NoStop
	case "*":
		return NewNumber(n.Value * o.Value), NoStop
	case "/":
		if o.Value == 0 {
			return r.RaiseNamedf("IllegalArgument", "division by zero")
		}
		return NewNumber(n.Value / o.Value), NoStop
	case "%":
		if o.Value == 0 {
			return r.RaiseNamedf("IllegalArgument", "division by zero")
		}
		return NewNumber(math.Mod(n.Value, o.Value)), NoStop
	}
	return r.RaiseNamedf("OperatorNotImplemented", "operator %s is not implemented for Number", op)
}

// Encode writes the number's bit pattern as an integer.
func (n *Number) Encode(r *Runtime, enc Encoder) error {
	return enc.EncodeInt(int64(math.Float64bits(n.Value)))
}

// decodeNumber recovers a Number from its serialized bit pattern.
func decodeNumber(bits int64) *Number {
	return NewNumber(math.Float64frombits(uint64(bits)))
}
