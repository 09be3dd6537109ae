package vesper

// Iterator is the minimal iteration protocol every iterable exposes. The
// flow subsystem and the generic collection operations consume it.
//
// HasNext reports whether another element is available, blocking if the
// source must produce one first. Next returns the element HasNext promised;
// calling it without a preceding true HasNext is an illegal state.
// CancelIteration abandons the iteration; it is idempotent, and any later
// HasNext or Next fails.
type Iterator interface {
	HasNext(r *Runtime) (bool, Value, Stop)
	Next(r *Runtime) (Value, Stop)
	CancelIteration(r *Runtime) (Value, Stop)
}

// Iterable is any value that can produce an iterator over itself.
type Iterable interface {
	Iterate(r *Runtime) Iterator
}

// Collect drains an iterator into a slice. Internal control signals end
// the collection here and never escape; on any other failure the iteration
// is cancelled and the failure propagates.
func Collect(r *Runtime, it Iterator) ([]Value, Value, Stop) {
	var vs []Value
	for {
		ok, exc, stop := it.HasNext(r)
		if stop != NoStop {
			if stop.internal() {
				return vs, nil, NoStop
			}
			it.CancelIteration(r)
			return nil, exc, stop
		}
		if !ok {
			return vs, nil, NoStop
		}
		v, stop := it.Next(r)
		if stop != NoStop {
			if stop.internal() {
				return vs, nil, NoStop
			}
			it.CancelIteration(r)
			return nil, v, stop
		}
		vs = append(vs, v)
	}
}

// Take consumes up to n elements, then cancels the iteration. Taking fewer
// than the source can produce is the ordinary way a consumer applies
// backpressure and then walks away.
func Take(r *Runtime, it Iterator, n int) ([]Value, Value, Stop) {
	var vs []Value
	for len(vs) < n {
		ok, exc, stop := it.HasNext(r)
		if stop != NoStop {
			if stop.internal() {
				return vs, nil, NoStop
			}
			it.CancelIteration(r)
			return nil, exc, stop
		}
		if !ok {
			return vs, nil, NoStop
		}
		v, stop := it.Next(r)
		if stop != NoStop {
			if stop.internal() {
				return vs, nil, NoStop
			}
			it.CancelIteration(r)
			return nil, v, stop
		}
		vs = append(vs, v)
	}
	it.CancelIteration(r)
	return vs, nil, NoStop
}
