// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either a
// first environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// TimeStep packages together a single transition of a scheduling
// episode. Elapsed is the total scheduling time consumed since the
// start of the episode, and Number is the count of environment
// transitions taken so far.
type TimeStep struct {
	stepType StepType
	Reward   float64
	Elapsed  float64
	Number   int
}

// New returns a new TimeStep
func New(t StepType, reward, elapsed float64, n int) TimeStep {
	return TimeStep{t, reward, elapsed, n}
}

// First returns whether a TimeStep is the first in an episode
func (t *TimeStep) First() bool {
	return t.stepType == First
}

// Mid returns whether a TimeStep is a middle step in an episode
func (t *TimeStep) Mid() bool {
	return t.stepType == Mid
}

// Last returns whether a TimeStep is the last step in an episode
func (t *TimeStep) Last() bool {
	return t.stepType == Last
}

// Type returns the StepType of the TimeStep
func (t TimeStep) Type() StepType {
	return t.stepType
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.4f  |  Elapsed: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.stepType, t.Reward, t.Elapsed, t.Number)
}

// Transition is a single entry of the forward-view transition window:
// the approximator input for the state-action pair that was taken, and
// ρ = r + γ(1-λ)·q(S', A'), the part of the λ-return that must be
// removed when the running target is shifted one step forward.
type Transition struct {
	Input mat.Vector
	Rho   float64
}

// NewTransition returns a new Transition
func NewTransition(input mat.Vector, rho float64) Transition {
	return Transition{Input: input, Rho: rho}
}

// Episode summarises a finished episode
type Episode struct {
	Number   int     // Index of the episode over the whole run
	Project  string  // Name of the environment the episode was run on
	Steps    int     // Environment transitions taken
	Makespan float64 // Total scheduling time
	Reward   float64 // Terminal reward, 1 / Makespan
	Epsilon  float64 // Exploration rate used during the episode
	Fits     int     // Successful approximator updates
	Skipped  int     // Updates rejected by the approximator
}

func (e Episode) String() string {
	str := "Episode %v (%v) | Steps: %v  |  Makespan: %.2f  |  " +
		"Epsilon: %.4f  |  Fits: %v  |  Skipped: %v"

	return fmt.Sprintf(str, e.Number, e.Project, e.Steps, e.Makespan,
		e.Epsilon, e.Fits, e.Skipped)
}
