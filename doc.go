/*
Package vesper implements the object and type runtime of the Vesper
programming language.

Vesper is a dynamic, class-based scripting language designed to be embedded
in Go programs. This package is the heart of the interpreter: it defines how
classes are declared and their multiple-inheritance hierarchies linearized,
how instances are constructed and their members resolved, how exceptions are
represented and diagnosed, and how cold asynchronous flows are scheduled.

The package deliberately does not contain a lexer, parser, or evaluator.
Executable code reaches the runtime through the Body contract, an
execute-against-a-scope unit which the surrounding interpreter supplies for
method bodies, field initializers, constructors, and flow producers. A host
program can embed the runtime directly by providing Body values written in
Go; see BodyFunc.

Classes

A class is built once from its name, its ordered direct parents, and its
member declarations. The ancestor order used for dispatch is the C3
linearization of the parent graph, computed when the class is built and
memoized; a hierarchy that cannot be linearized is a definition error and
the class is never created. Member lookup walks the linearized order and
falls back to the runtime's root type, so every value responds to the
universal operations such as default string conversion.

Instances

Instantiating a class runs the diamond-safe construction protocol: the
instance environment is seeded with every inherited function member, then
each class in the hierarchy is initialized exactly once, parents strictly in
declared order, with constructor parameters bound both plainly and
qualified by the declaring class. Deserialization reuses the same protocol
with constructors disabled.

Flows

A Flow is a cold asynchronous sequence: a producer body plus the scope it
captured. Iterating a flow starts the producer as an independent task which
hands values to the consumer over a rendezvous channel, giving backpressure
for free. Cancelling the iterator unblocks the producer through an internal
control signal that is never visible to user code.
*/
package vesper
