package vesper

import "sync"

// List is the ordered collection value type. Lists bind by reference, so
// mutation is visible through every alias.
type List struct {
	Base
	mu sync.Mutex
	// elems is the element storage, guarded by mu.
	elems []Value
}

// NewList creates a List of the given elements.
func NewList(elems ...Value) *List {
	return &List{elems: elems}
}

// VesperType returns "List".
func (*List) VesperType() string {
	return "List"
}

// Len returns the number of elements.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.elems)
}

// Append adds elements at the end.
func (l *List) Append(elems ...Value) {
	l.mu.Lock()
	l.elems = append(l.elems, elems...)
	l.mu.Unlock()
}

// At returns the element at i, or nil if out of bounds.
func (l *List) At(i int) Value {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.elems) {
		return nil
	}
	return l.elems[i]
}

// Compare orders lists elementwise, shorter lists first on a tie.
func (l *List) Compare(r *Runtime, other Value) (Ordering, Value, Stop) {
	o, ok := other.(*List)
	if !ok {
		return Incomparable, nil, NoStop
	}
	a, b := l.snapshot(), o.snapshot()
	for i := 0; i < len(a) && i < len(b); i++ {
		c, exc, stop := a[i].Compare(r, b[i])
		if stop != NoStop {
			return Incomparable, exc, stop
		}
		if c != OrderEqual {
			return c, nil, NoStop
		}
	}
	switch {
	case len(a) < len(b):
		return OrderLess, nil, NoStop
	case len(a) > len(b):
		return OrderGreater, nil, NoStop
	}
	return OrderEqual, nil, NoStop
}

// GetIndex returns the element at a numeric index.
func (l *List) GetIndex(r *Runtime, key Value) (Value, Stop) {
	k, ok := key.(*Number)
	if !ok {
		return r.RaiseNamedf("IllegalArgument", "list index must be a Number")
	}
	i := int(k.Value)
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.elems) {
		return r.RaiseNamedf("IndexOutOfBounds", "index %d out of bounds for length %d", i, len(l.elems))
	}
	return l.elems[i], NoStop
}

// SetIndex replaces the element at a numeric index.
func (l *List) SetIndex(r *Runtime, key, element Value) (Value, Stop) {
	k, ok := key.(*Number)
	if !ok {
		return r.RaiseNamedf("IllegalArgument", "list index must be a Number")
	}
	i := int(k.Value)
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.elems) {
		return r.RaiseNamedf("IndexOutOfBounds", "index %d out of bounds for length %d", i, len(l.elems))
	}
	l.elems[i] = PassCopy(element)
	return element, NoStop
}

// Iterate returns an iterator over a snapshot of the list's elements.
func (l *List) Iterate(r *Runtime) Iterator {
	return &listIterator{elems: l.snapshot()}
}

// Encode writes the list as a counted sequence of its elements.
func (l *List) Encode(r *Runtime, enc Encoder) error {
	elems := l.snapshot()
	if err := enc.EncodeList(len(elems)); err != nil {
		return err
	}
	for _, v := range elems {
		if err := r.EncodeValue(enc, v); err != nil {
			return err
		}
	}
	return nil
}

func (l *List) snapshot() []Value {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Value(nil), l.elems...)
}

// listIterator walks a snapshot of a list.
type listIterator struct {
	elems     []Value
	i         int
	cancelled bool
}

func (it *listIterator) HasNext(r *Runtime) (bool, Value, Stop) {
	if it.cancelled {
		exc, stop := r.RaiseNamedf("IllegalState", "iteration has been cancelled")
		return false, exc, stop
	}
	return it.i < len(it.elems), nil, NoStop
}

func (it *listIterator) Next(r *Runtime) (Value, Stop) {
	if it.cancelled {
		return r.RaiseNamedf("IllegalState", "iteration has been cancelled")
	}
	if it.i >= len(it.elems) {
		return r.RaiseNamedf("IllegalState", "next called with no next element")
	}
	v := it.elems[it.i]
	it.i++
	return v, NoStop
}

func (it *listIterator) CancelIteration(r *Runtime) (Value, Stop) {
	it.cancelled = true
	return r.Nil, NoStop
}
