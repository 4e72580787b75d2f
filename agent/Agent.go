// Package agent defines the interfaces shared by the agents and the
// function approximators they train
package agent

import (
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/forwardsarsa/environment"
	"github.com/samuelfneumann/forwardsarsa/timestep"
)

// Approximator is a differentiable model of action values.
//
// Predict never changes the parameters of the model. Fit performs a
// single learning update moving the prediction for x towards y, and is
// the only way parameters change. An error from Fit reports that the
// model rejected the (x, y) pair; the model must be left unchanged in
// that case.
type Approximator interface {
	Predict(x mat.Vector) (float64, error)
	Fit(x mat.Vector, y float64) error
}

// Selection is the outcome of choosing an action: the action, the
// durations of the decision point it was chosen at, the approximator
// input encoding the state-action pair, and its predicted value.
type Selection struct {
	Value     float64
	Action    environment.Action
	Durations environment.Durations
	Input     mat.Vector
}

// Policy chooses actions in the current state of an environment
type Policy interface {
	Select(env environment.Environment) (Selection, error)
}

// EGreedyPolicy is a Policy whose exploration rate can be set and
// retrieved
type EGreedyPolicy interface {
	Policy
	SetEpsilon(float64)
	Epsilon() float64
}

// Learner trains an Approximator from whole episodes of interaction
type Learner interface {
	// RunEpisode runs a single episode to termination using the
	// exploration rate epsilon. The number parameter is the index of the
	// episode over the whole run.
	RunEpisode(env environment.Environment, epsilon float64,
		number int) (timestep.Episode, error)
}
