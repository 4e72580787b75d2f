// Package solver describes Gorgonia Solvers by name so that they can be
// given in YAML configuration files.
package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
	RMSProp Type = "RMSProp"
)

// Config describes a Gorgonia Solver. Epsilon, Beta1 and Beta2 are only
// read by Adam, and Epsilon and Rho only by RMSProp. Zero values of these
// select Gorgonia's defaults.
type Config struct {
	Type     Type    `yaml:"type" validate:"required,oneof=Adam Vanilla RMSProp"`
	StepSize float64 `yaml:"step_size" validate:"gt=0"`
	Clip     float64 `yaml:"clip" validate:"gte=0"` // 0 if no clipping
	Epsilon  float64 `yaml:"epsilon" validate:"gte=0"`
	Beta1    float64 `yaml:"beta1" validate:"gte=0,lt=1"`
	Beta2    float64 `yaml:"beta2" validate:"gte=0,lt=1"`
	Rho      float64 `yaml:"rho" validate:"gte=0,lt=1"`
}

// DefaultAdam returns an Adam configuration with the default
// hyperparameters and the given step size
func DefaultAdam(stepSize float64) Config {
	return Config{
		Type:     Adam,
		StepSize: stepSize,
		Epsilon:  1e-8,
		Beta1:    0.9,
		Beta2:    0.999,
	}
}

// Create returns a new Gorgonia Solver as described by the Config. Each
// Fit is a single sample, so the batch size is always 1.
func (c Config) Create() (G.Solver, error) {
	if c.StepSize <= 0 {
		return nil, fmt.Errorf("create: step size must be positive "+
			"\n\thave(%v)", c.StepSize)
	}

	opts := []G.SolverOpt{
		G.WithLearnRate(c.StepSize),
		G.WithBatchSize(1),
	}
	if c.Clip > 0 {
		opts = append(opts, G.WithClip(c.Clip))
	}

	switch c.Type {
	case Vanilla:
		return G.NewVanillaSolver(opts...), nil

	case Adam:
		if c.Epsilon > 0 {
			opts = append(opts, G.WithEps(c.Epsilon))
		}
		if c.Beta1 > 0 {
			opts = append(opts, G.WithBeta1(c.Beta1))
		}
		if c.Beta2 > 0 {
			opts = append(opts, G.WithBeta2(c.Beta2))
		}
		return G.NewAdamSolver(opts...), nil

	case RMSProp:
		if c.Epsilon > 0 {
			opts = append(opts, G.WithEps(c.Epsilon))
		}
		if c.Rho > 0 {
			opts = append(opts, G.WithRho(c.Rho))
		}
		return G.NewRMSPropSolver(opts...), nil

	default:
		return nil, fmt.Errorf("create: unknown solver type %q", c.Type)
	}
}

// String implements the fmt.Stringer interface
func (c Config) String() string {
	return fmt.Sprintf("{%v Solver: step size %v}", c.Type, c.StepSize)
}
