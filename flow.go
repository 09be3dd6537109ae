package vesper

import "sync"

// Flow is a cold, restartable asynchronous sequence: a producer body plus
// the environment it captured. A Flow is inert until iterated; each
// iteration starts an independent run of the producer with no shared
// run-state. The captured environment itself is shared between runs, so a
// producer that mutates closed-over bindings observes those mutations
// across runs.
type Flow struct {
	Base
	// Producer is the producer procedure. It runs as an independently
	// scheduled task with the producer handle bound as its receiver, and it
	// emits values by invoking "emit" on that handle.
	Producer Body
	// Env is the captured environment, or nil.
	Env *Scope
}

// NewFlow creates a cold flow.
func NewFlow(producer Body, env *Scope) *Flow {
	return &Flow{Producer: producer, Env: env}
}

// VesperType returns "Flow".
func (*Flow) VesperType() string {
	return "Flow"
}

// Iterate returns a fresh iterator over the flow. No work happens until the
// iterator's first HasNext.
func (f *Flow) Iterate(r *Runtime) Iterator {
	return &FlowIterator{flow: f}
}

// Invoke exposes "iterate" to dynamic dispatch.
func (f *Flow) Invoke(r *Runtime, name string, args []Value) (Value, Stop) {
	if name == "iterate" {
		return &flowIteratorValue{it: f.Iterate(r).(*FlowIterator)}, NoStop
	}
	return Base{}.Invoke(r, name, args)
}

// FlowIterator is one run of a flow: a rendezvous channel, a pending-result
// cache, and a cancellation flag. Values arrive in emission order; the
// zero-capacity channel means the producer cannot run ahead of the
// consumer.
type FlowIterator struct {
	flow *Flow

	mu         sync.Mutex
	started    bool
	cancelled  bool
	done       bool
	pending    Value
	hasPending bool

	ch   chan Value
	quit chan struct{}
	stop sync.Once
}

// HasNext reports whether the producer has another value, starting the
// channel and producer task on first call and blocking until the producer
// emits or ends. The outcome of a pending receive is cached until consumed
// by Next.
func (it *FlowIterator) HasNext(r *Runtime) (bool, Value, Stop) {
	it.mu.Lock()
	if it.cancelled {
		it.mu.Unlock()
		exc, stop := r.RaiseNamedf("IllegalState", "flow iteration has been cancelled")
		return false, exc, stop
	}
	if it.hasPending {
		it.mu.Unlock()
		return true, nil, NoStop
	}
	if it.done {
		it.mu.Unlock()
		return false, nil, NoStop
	}
	if !it.started {
		it.started = true
		it.ch = make(chan Value)
		it.quit = make(chan struct{})
		go it.run(r.Fork())
	}
	it.mu.Unlock()

	v, ok := <-it.ch

	it.mu.Lock()
	defer it.mu.Unlock()
	if it.cancelled {
		exc, stop := r.RaiseNamedf("IllegalState", "flow iteration has been cancelled")
		return false, exc, stop
	}
	if !ok {
		it.done = true
		return false, nil, NoStop
	}
	it.pending = v
	it.hasPending = true
	return true, nil, NoStop
}

// Next returns the value the last HasNext promised. Calling Next without a
// preceding true HasNext is an illegal state.
func (it *FlowIterator) Next(r *Runtime) (Value, Stop) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.cancelled {
		return r.RaiseNamedf("IllegalState", "flow iteration has been cancelled")
	}
	if !it.hasPending {
		return r.RaiseNamedf("IllegalState", "next called without hasNext")
	}
	v := it.pending
	it.pending = nil
	it.hasPending = false
	return v, NoStop
}

// CancelIteration abandons the run. It is idempotent; it sets the permanent
// cancellation flag and cancels the channel so a blocked producer unblocks
// and terminates. Any later HasNext or Next fails.
func (it *FlowIterator) CancelIteration(r *Runtime) (Value, Stop) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.cancelled {
		return r.Nil, NoStop
	}
	it.cancelled = true
	it.pending = nil
	it.hasPending = false
	if it.started {
		it.halt()
	}
	return r.Nil, NoStop
}

// halt cancels the channel exactly once.
func (it *FlowIterator) halt() {
	it.stop.Do(func() { close(it.quit) })
}

// run executes the producer against the captured environment. This is the
// fixed boundary that absorbs the internal uncollected signal, and with it
// every other failure: whatever the producer's fate, the run simply ends
// and the channel closes. Nothing propagates to the consumer beyond the
// close.
func (it *FlowIterator) run(r *Runtime) {
	defer func() {
		it.halt()
		close(it.ch)
	}()
	env := it.flow.Env
	if env == nil {
		env = NewScope()
	}
	s := env.Child(&producerHandle{it: it})
	it.flow.Producer.Execute(r, s)
}

// emit hands a value to the consumer, blocking until the rendezvous channel
// accepts it or the channel has been cancelled, in which case the internal
// uncollected signal is returned.
func (it *FlowIterator) emit(r *Runtime, v Value) (Value, Stop) {
	select {
	case <-it.quit:
		return nil, UncollectedStop
	default:
	}
	select {
	case it.ch <- v:
		return r.Nil, NoStop
	case <-it.quit:
		return nil, UncollectedStop
	}
}

// producerHandle is the receiver bound into a producer's scope. Its one
// operation is emit.
type producerHandle struct {
	Base
	it *FlowIterator
}

// VesperType returns "FlowProducer".
func (*producerHandle) VesperType() string {
	return "FlowProducer"
}

// Invoke exposes "emit".
func (p *producerHandle) Invoke(r *Runtime, name string, args []Value) (Value, Stop) {
	if name != "emit" {
		return Base{}.Invoke(r, name, args)
	}
	if len(args) != 1 {
		return r.RaiseNamedf("IllegalArgument", "emit requires one argument")
	}
	return p.it.emit(r, args[0])
}

// Emit invokes emit on the producer handle bound into s. Producer bodies
// written in Go use this to hand values to their consumer.
func Emit(r *Runtime, s *Scope, v Value) (Value, Stop) {
	recv := s.Receiver()
	p, ok := recv.(*producerHandle)
	if !ok {
		return r.RaiseNamedf("IllegalState", "emit outside a flow producer")
	}
	return p.it.emit(r, v)
}

// flowIteratorValue adapts a FlowIterator to the value contract for
// dynamic dispatch.
type flowIteratorValue struct {
	Base
	it *FlowIterator
}

// VesperType returns "FlowIterator".
func (*flowIteratorValue) VesperType() string {
	return "FlowIterator"
}

// Invoke exposes hasNext, next, and cancelIteration.
func (v *flowIteratorValue) Invoke(r *Runtime, name string, args []Value) (Value, Stop) {
	switch name {
	case "hasNext":
		ok, exc, stop := v.it.HasNext(r)
		if stop != NoStop {
			return exc, stop
		}
		return r.Bool(ok), NoStop
	case "next":
		return v.it.Next(r)
	case "cancelIteration":
		return v.it.CancelIteration(r)
	}
	return Base{}.Invoke(r, name, args)
}
