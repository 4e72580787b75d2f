package forwardsarsa

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned for hyperparameters from which no window
// length can be derived
var ErrInvalidConfig = errors.New("invalid configuration")

// maxWindow bounds the window length, beyond which the per-episode
// window allocation is unreasonable
const maxWindow = 1 << 20

// Config represents a configuration for the ForwardSarsa agent
type Config struct {
	Lambda  float64 `yaml:"lambda" validate:"gte=0,lte=1"`  // Trace decay λ
	Gamma   float64 `yaml:"gamma" validate:"gte=0,lte=1"`   // Discount γ
	Eta     float64 `yaml:"eta" validate:"gt=0,lt=1"`       // Truncation tolerance η
	Epsilon float64 `yaml:"epsilon" validate:"gte=0,lte=1"` // Initial exploration rate

	// MaxSteps bounds the number of transitions in an episode. Zero
	// disables the bound.
	MaxSteps int `yaml:"max_steps" validate:"gte=0"`

	// MaxConsecutiveSkips aborts training after this many consecutive
	// updates were rejected by the approximator. Zero never aborts.
	MaxConsecutiveSkips int `yaml:"max_consecutive_skips" validate:"gte=0"`

	Seed uint64 `yaml:"seed"`
}

// DefaultConfig returns the default hyperparameters λ = 0.8, γ = 0.95,
// η = 0.01 and ε = 1
func DefaultConfig() Config {
	return Config{
		Lambda:  0.8,
		Gamma:   0.95,
		Eta:     0.01,
		Epsilon: 1.0,
	}
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	names := []string{"lambda", "gamma", "eta", "epsilon"}
	for i, value := range []float64{c.Lambda, c.Gamma, c.Eta, c.Epsilon} {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("%w: %v must be finite", ErrInvalidConfig,
				names[i])
		}
	}

	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("%w: epsilon must be in [0, 1] \n\thave(%v)",
			ErrInvalidConfig, c.Epsilon)
	}
	if c.Lambda < 0 || c.Lambda > 1 {
		return fmt.Errorf("%w: lambda must be in [0, 1] \n\thave(%v)",
			ErrInvalidConfig, c.Lambda)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("%w: gamma must be in [0, 1] \n\thave(%v)",
			ErrInvalidConfig, c.Gamma)
	}
	if decay := c.Gamma * c.Lambda; decay <= 0 || decay >= 1 {
		return fmt.Errorf("%w: gamma·lambda must be in (0, 1) \n\thave(%v)",
			ErrInvalidConfig, decay)
	}
	if c.Eta <= 0 || c.Eta >= 1 {
		return fmt.Errorf("%w: eta must be in (0, 1) \n\thave(%v)",
			ErrInvalidConfig, c.Eta)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("%w: max steps cannot be negative",
			ErrInvalidConfig)
	}
	if c.MaxConsecutiveSkips < 0 {
		return fmt.Errorf("%w: max consecutive skips cannot be negative",
			ErrInvalidConfig)
	}

	_, _, err := c.Window()
	return err
}

// Window returns the window length K, the smallest number of steps such
// that the λ-return terms ignored beyond K steps weigh less than η, and
// c_final = (γλ)^(K-1), the weight of the last term of a K-step return.
func (c Config) Window() (k int, cFinal float64, err error) {
	decay := c.Gamma * c.Lambda
	if decay <= 0 || decay >= 1 || c.Eta <= 0 {
		return 0, 0, fmt.Errorf("%w: window length undefined for "+
			"gamma·lambda = %v and eta = %v", ErrInvalidConfig, decay, c.Eta)
	}

	length := math.Ceil(math.Log(c.Eta) / math.Log(decay))
	if math.IsNaN(length) || length < 1 || length > maxWindow {
		return 0, 0, fmt.Errorf("%w: window length must be in [1, %v] "+
			"\n\thave(%v)", ErrInvalidConfig, maxWindow, length)
	}

	k = int(length)
	return k, math.Pow(decay, float64(k-1)), nil
}
