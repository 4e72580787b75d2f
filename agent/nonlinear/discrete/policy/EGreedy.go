// Package policy implements action selection over discrete scheduling
// actions using a (possibly nonlinear) function approximator of action
// values.
package policy

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/forwardsarsa/agent"
	"github.com/samuelfneumann/forwardsarsa/environment"
)

// ErrNoActions is returned when an environment offers no legal action
var ErrNoActions = errors.New("environment returned no legal actions")

// EGreedy implements an ε-greedy policy. With probability ε an action
// is chosen uniformly at random from the legal actions, otherwise every
// legal action is evaluated and the one of highest predicted value is
// chosen. When several actions share the highest value, the first in
// the order returned by the environment is chosen.
//
// When exactly one action is legal it is taken without drawing from the
// random source, so the random stream only advances at real decisions.
type EGreedy struct {
	approx  agent.Approximator
	epsilon float64
	rng     *rand.Rand
}

// NewEGreedy returns a new EGreedy policy selecting actions with values
// predicted by approx, using source for all random draws
func NewEGreedy(epsilon float64, approx agent.Approximator,
	source rand.Source) (*EGreedy, error) {
	if approx == nil {
		return nil, fmt.Errorf("newegreedy: approximator cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("newegreedy: random source cannot be nil")
	}
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("newegreedy: epsilon must be in [0, 1] "+
			"\n\thave(%v)", epsilon)
	}

	return &EGreedy{
		approx:  approx,
		epsilon: epsilon,
		rng:     rand.New(source),
	}, nil
}

// SetEpsilon sets the value for epsilon in the epsilon greedy policy.
func (e *EGreedy) SetEpsilon(ε float64) {
	e.epsilon = ε
}

// Epsilon gets the value of epsilon for the policy.
func (e *EGreedy) Epsilon() float64 {
	return e.epsilon
}

// Select selects an action in the current state of env
func (e *EGreedy) Select(env environment.Environment) (agent.Selection, error) {
	state, durations := env.State()
	actions := env.Actions()

	switch {
	case len(actions) == 0:
		return agent.Selection{}, ErrNoActions

	case len(actions) == 1:
		return e.evaluate(env, state, durations, actions[0])

	case e.rng.Float64() < e.epsilon:
		action := actions[e.rng.Intn(len(actions))]
		return e.evaluate(env, state, durations, action)
	}

	return e.greedy(env, state, durations, actions)
}

// evaluate predicts the value of a single action
func (e *EGreedy) evaluate(env environment.Environment, state mat.Vector,
	durations environment.Durations,
	action environment.Action) (agent.Selection, error) {
	input := env.Encode(state, action)
	value, err := e.approx.Predict(input)
	if err != nil {
		return agent.Selection{}, fmt.Errorf("select: could not predict "+
			"value of action %v: %w", action, err)
	}

	return agent.Selection{
		Value:     value,
		Action:    action,
		Durations: durations,
		Input:     input,
	}, nil
}

// greedy evaluates all actions and selects the first of maximal value
func (e *EGreedy) greedy(env environment.Environment, state mat.Vector,
	durations environment.Durations,
	actions []environment.Action) (agent.Selection, error) {
	values := make([]float64, len(actions))
	inputs := make([]mat.Vector, len(actions))

	for i, action := range actions {
		inputs[i] = env.Encode(state, action)

		var err error
		values[i], err = e.approx.Predict(inputs[i])
		if err != nil {
			return agent.Selection{}, fmt.Errorf("select: could not "+
				"predict value of action %v: %w", action, err)
		}
	}

	// floats.MaxIdx returns the first index on ties
	best := floats.MaxIdx(values)

	return agent.Selection{
		Value:     values[best],
		Action:    actions[best],
		Durations: durations,
		Input:     inputs[best],
	}, nil
}
