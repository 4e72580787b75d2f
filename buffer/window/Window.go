// Package window implements the fixed-capacity transition window used
// by forward-view λ-return algorithms. Transitions are pushed at the
// front (most recent first) and released from the back, so the oldest
// transition is always released first.
package window

import (
	"errors"
	"fmt"

	"github.com/samuelfneumann/forwardsarsa/timestep"
)

// ErrFull is returned when pushing onto a window holding K transitions
var ErrFull = errors.New("window full")

// ErrEmpty is returned when popping from a window with no transitions
var ErrEmpty = errors.New("window empty")

// WindowError implements errors unique to a transition window
type WindowError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *WindowError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *WindowError) Unwrap() error {
	return e.Err
}

// Window is a ring buffer of transitions with a capacity fixed at
// construction. The backing array is allocated once and never resized.
type Window struct {
	entries []timestep.Transition
	oldest  int // Index of the back of the window
	length  int
}

// New returns a new Window which can hold capacity transitions
func New(capacity int) (*Window, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new: capacity must be positive \n\thave(%v)",
			capacity)
	}

	return &Window{entries: make([]timestep.Transition, capacity)}, nil
}

// Cap returns the capacity of the window
func (w *Window) Cap() int {
	return len(w.entries)
}

// Len returns the number of transitions in the window
func (w *Window) Len() int {
	return w.length
}

// Full returns whether the window holds Cap() transitions
func (w *Window) Full() bool {
	return w.length == len(w.entries)
}

// PushFront adds the most recent transition to the window
func (w *Window) PushFront(t timestep.Transition) error {
	if w.Full() {
		return &WindowError{Op: "pushfront", Err: ErrFull}
	}

	w.entries[w.index(w.length)] = t
	w.length++
	return nil
}

// PopBack removes and returns the oldest transition in the window
func (w *Window) PopBack() (timestep.Transition, error) {
	if w.length == 0 {
		return timestep.Transition{}, &WindowError{Op: "popback", Err: ErrEmpty}
	}

	t := w.entries[w.oldest]
	w.entries[w.oldest] = timestep.Transition{}
	w.oldest = w.index(1)
	w.length--
	return t, nil
}

// At returns the i-th most recent transition, where At(0) is the
// transition most recently pushed and At(Len()-1) is the oldest.
func (w *Window) At(i int) timestep.Transition {
	if i < 0 || i >= w.length {
		panic(fmt.Sprintf("at: index %v out of range [0, %v)", i, w.length))
	}
	return w.entries[w.index(w.length-1-i)]
}

// Reset removes all transitions from the window
func (w *Window) Reset() {
	for i := range w.entries {
		w.entries[i] = timestep.Transition{}
	}
	w.oldest = 0
	w.length = 0
}

// index returns the position in the backing array of the transition
// offset places newer than the oldest
func (w *Window) index(offset int) int {
	return (w.oldest + offset) % len(w.entries)
}
