// Package initwfn describes Gorgonia weight initializers by name so that
// they can be given in YAML configuration files.
package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Gaussian Type = "Gaussian"
	Uniform  Type = "Uniform"
	Zeroes   Type = "Zeroes"
	Ones     Type = "Ones"
	Constant Type = "Constant"
)

// Config describes a weight initializer. Only the fields used by Type
// are read: Gain for the Glorot and He initializers, Mean and StdDev for
// Gaussian, Low and High for Uniform and Value for Constant.
type Config struct {
	Type   Type    `yaml:"type" validate:"required"`
	Gain   float64 `yaml:"gain"`
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
	Low    float64 `yaml:"low"`
	High   float64 `yaml:"high"`
	Value  float64 `yaml:"value"`
}

// DefaultConfig returns the Glorot Uniform initializer with unit gain
func DefaultConfig() Config {
	return Config{Type: GlorotU, Gain: 1.0}
}

// Create returns the Gorgonia InitWFn described by the Config
func (c Config) Create() (G.InitWFn, error) {
	switch c.Type {
	case GlorotU, GlorotN, HeU, HeN:
		if c.Gain <= 0 {
			return nil, fmt.Errorf("create: %v gain must be positive "+
				"\n\thave(%v)", c.Type, c.Gain)
		}
	case Gaussian:
		if c.StdDev <= 0 {
			return nil, fmt.Errorf("create: gaussian standard deviation "+
				"must be positive \n\thave(%v)", c.StdDev)
		}
	case Uniform:
		if c.Low >= c.High {
			return nil, fmt.Errorf("create: uniform bounds must satisfy "+
				"low < high \n\thave(%v, %v)", c.Low, c.High)
		}
	}

	switch c.Type {
	case GlorotU:
		return G.GlorotU(c.Gain), nil
	case GlorotN:
		return G.GlorotN(c.Gain), nil
	case HeU:
		return G.HeU(c.Gain), nil
	case HeN:
		return G.HeN(c.Gain), nil
	case Gaussian:
		return G.Gaussian(c.Mean, c.StdDev), nil
	case Uniform:
		return G.Uniform(c.Low, c.High), nil
	case Zeroes:
		return G.Zeroes(), nil
	case Ones:
		return G.Ones(), nil
	case Constant:
		return G.ValuesOf(c.Value), nil
	default:
		return nil, fmt.Errorf("create: unknown initializer type %q", c.Type)
	}
}

// String implements the fmt.Stringer interface
func (c Config) String() string {
	return fmt.Sprintf("{%v InitWFn}", c.Type)
}
