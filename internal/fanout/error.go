package fanout

import "fmt"

// PanicError wraps a recovered panic from a task so it surfaces as a
// structured error value instead of crashing the fan-out.
type PanicError struct {
	Recovered any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("fanout: task panicked: %v", e.Recovered)
}
