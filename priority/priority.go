// Package priority lowers the scheduling priority of the running process so
// long conversions stay out of the way of interactive work.
package priority

import "errors"

var ErrUnsupported = errors.New("lowering process priority is not supported on this platform")

// Reducer lowers the priority of the current process.
type Reducer interface {
	Lower() error
}

// ReducerFunc adapts a plain function to Reducer.
type ReducerFunc func() error

func (f ReducerFunc) Lower() error { return f() }

// Niceness is the unix nice value applied by the platform reducer.
const Niceness = 10

// Default returns the reducer for the host platform.
func Default() Reducer {
	return ReducerFunc(lower)
}
