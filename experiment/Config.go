package experiment

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/samuelfneumann/forwardsarsa/agent/nonlinear/discrete/forwardsarsa"
	"github.com/samuelfneumann/forwardsarsa/network"
)

var validate = validator.New()

// Config represents a configuration of a training run
type Config struct {
	// Episodes is the number of episodes run on each project
	Episodes int `yaml:"episodes" validate:"gt=0"`

	// Projects are the project definition files cycled through in
	// order. Relative paths are relative to the configuration file.
	Projects []string `yaml:"projects" validate:"required,min=1,dive,required"`

	Agent      forwardsarsa.Config `yaml:"agent"`
	Network    network.Config      `yaml:"network"`
	Checkpoint CheckpointConfig    `yaml:"checkpoint"`
	Output     OutputConfig        `yaml:"output"`
}

// CheckpointConfig configures saving of the network during training
type CheckpointConfig struct {
	Dir      string `yaml:"dir"`
	Name     string `yaml:"name" validate:"required_with=Dir"`
	Interval int    `yaml:"interval" validate:"gte=0"` // Cycles, 0 disables
}

// OutputConfig configures the data saved at the end of training. Empty
// fields are not saved.
type OutputConfig struct {
	Makespans string `yaml:"makespans"`
	Lengths   string `yaml:"lengths"`
	Chart     string `yaml:"chart"`
}

// DefaultConfig returns a Config with the default hyperparameters and
// network, and no projects
func DefaultConfig() Config {
	return Config{
		Episodes: 100,
		Agent:    forwardsarsa.DefaultConfig(),
		Network:  network.DefaultConfig(),
		Checkpoint: CheckpointConfig{
			Name:     "model",
			Interval: 1,
		},
	}
}

// LoadConfig reads a YAML Config from filename. Omitted fields keep the
// values of DefaultConfig.
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, fmt.Errorf("loadconfig: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("loadconfig: could not parse %v: %w",
			filename, err)
	}

	dir := filepath.Dir(filename)
	for i, project := range config.Projects {
		if project != "" && !filepath.IsAbs(project) {
			config.Projects[i] = filepath.Join(dir, project)
		}
	}

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("loadconfig: %w", err)
	}
	return config, nil
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", forwardsarsa.ErrInvalidConfig, err)
	}
	if len(c.Network.HiddenSizes) != len(c.Network.Activations) {
		return fmt.Errorf("%w: %v hidden layers but %v activations",
			forwardsarsa.ErrInvalidConfig, len(c.Network.HiddenSizes),
			len(c.Network.Activations))
	}
	return c.Agent.Validate()
}
