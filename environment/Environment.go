// Package environment outlines the interfaces that scheduling
// environments must implement to be controlled by an agent
package environment

import (
	"gonum.org/v1/gonum/mat"
)

// Action identifies the task that should be started next. The special
// action Wait starts nothing and lets simulated time advance.
type Action int

// Wait is the "do nothing" action
const Wait Action = -1

// IsWait returns whether the action is the wait action
func (a Action) IsWait() bool {
	return a == Wait
}

// Durations maps the tasks which may be started at a decision point to
// the time each would take if it were started now
type Durations map[Action]float64

// Encoder converts a state and a candidate action into the input
// representation consumed by a function approximator
type Encoder interface {
	Encode(state mat.Vector, a Action) mat.Vector

	// Features returns the length of encoded vectors
	Features() int
}

// Environment implements a simulated scheduling problem. An episode
// starts with Reset() and finishes when IsFinished() returns true.
//
// Actions() must never be empty while the episode is unfinished. Doing
// so is a violation of the environment contract which agents report as
// an error rather than recover from.
type Environment interface {
	Encoder

	Reset() error
	IsFinished() bool

	// State returns the current state and the durations of the tasks
	// which may be started in that state
	State() (mat.Vector, Durations)

	// Actions returns the legal actions in the current state
	Actions() []Action

	// Next takes an action and returns the scheduling time it consumed
	Next(a Action, d Durations) (float64, error)
}
