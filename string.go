package vesper

import "golang.org/x/text/unicode/norm"

// Str is the string value type. Strings are immutable; comparison uses NFC
// normalization so canonically equivalent strings compare equal.
type Str struct {
	Base
	// Value is the string contents.
	Value string
}

// NewStr creates a Str.
func NewStr(s string) *Str {
	return &Str{Value: s}
}

// VesperType returns "Str".
func (*Str) VesperType() string {
	return "Str"
}

// String returns the string contents.
func (s *Str) String() string {
	return s.Value
}

// Compare orders strings lexically over their NFC normal forms.
func (s *Str) Compare(r *Runtime, other Value) (Ordering, Value, Stop) {
	o, ok := other.(*Str)
	if !ok {
		return Incomparable, nil, NoStop
	}
	a, b := norm.NFC.String(s.Value), norm.NFC.String(o.Value)
	switch {
	case a < b:
		return OrderLess, nil, NoStop
	case a > b:
		return OrderGreater, nil, NoStop
	}
	return OrderEqual, nil, NoStop
}

// Operate implements "+" as concatenation.
func (s *Str) Operate(r *Runtime, op string, operand Value) (Value, Stop) {
	if op != "+" {
		return r.RaiseNamedf("OperatorNotImplemented", "operator %s is not implemented for Str", op)
	}
	o, ok := operand.(*Str)
	if !ok {
		return r.RaiseNamedf("IllegalArgument", "operator + requires a Str operand")
	}
	return NewStr(s.Value + o.Value), NoStop
}

// GetIndex returns the rune at a numeric index as a one-rune Str.
func (s *Str) GetIndex(r *Runtime, key Value) (Value, Stop) {
	k, ok := key.(*Number)
	if !ok {
		return r.RaiseNamedf("IllegalArgument", "string index must be a Number")
	}
	runes := []rune(s.Value)
	i := int(k.Value)
	if i < 0 || i >= len(runes) {
		return r.RaiseNamedf("IndexOutOfBounds", "index %d out of bounds for length %d", i, len(runes))
	}
	return NewStr(string(runes[i])), NoStop
}

// Encode writes the string contents.
func (s *Str) Encode(r *Runtime, enc Encoder) error {
	return enc.EncodeString(s.Value)
}
