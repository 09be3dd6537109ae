package vesper

import "fmt"

// Stop represents the reason for flow control.
type Stop int

// Control flow reasons.
const (
	// NoStop indicates normal execution.
	NoStop Stop = iota
	// ContinueStop should be interpreted by loops as a signal to restart the
	// loop immediately.
	ContinueStop
	// BreakStop should be interpreted by loops as a signal to exit the loop.
	BreakStop
	// ReturnStop should be interpreted by loops and bodies as a signal to
	// exit.
	ReturnStop
	// ExceptionStop carries a raised exception toward the nearest handler.
	ExceptionStop

	// FinishedStop indicates that an iterator has no more elements. It is
	// absorbed by the iterator protocol and never observed by user code.
	FinishedStop
	// UncollectedStop tells a flow producer that its consumer is gone. It is
	// absorbed by the producer run loop and never observed by user code.
	UncollectedStop
)

var stopNames = [...]string{"normal", "continue", "break", "return", "exception", "finished", "uncollected"}

// String returns a string representation of the Stop.
func (s Stop) String() string {
	if s < NoStop || s > UncollectedStop {
		return fmt.Sprintf("Stop(%d)", s)
	}
	return stopNames[s]
}

// Err returns nil if s is NoStop and an error value otherwise.
func (s Stop) Err() error {
	if s == NoStop {
		return nil
	}
	return stopError(s)
}

type stopError Stop

func (err stopError) Error() string {
	return Stop(err).String()
}

// internal reports whether the stop is one of the internal control signals
// that must never cross its fixed boundary.
func (s Stop) internal() bool {
	return s == FinishedStop || s == UncollectedStop
}
