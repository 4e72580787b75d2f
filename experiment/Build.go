package experiment

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/samuelfneumann/forwardsarsa/agent/nonlinear/discrete/forwardsarsa"
	"github.com/samuelfneumann/forwardsarsa/environment/scheduling"
	"github.com/samuelfneumann/forwardsarsa/experiment/checkpointer"
	"github.com/samuelfneumann/forwardsarsa/experiment/tracker"
	"github.com/samuelfneumann/forwardsarsa/network"
)

// Build creates the projects, network, agent and Trainer described by
// config. Metrics are registered with reg, which may be nil.
func Build(config Config, logger *slog.Logger,
	reg prometheus.Registerer) (*Trainer, *network.Regressor, error) {
	if err := config.Validate(); err != nil {
		return nil, nil, fmt.Errorf("build: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	projects := make([]Project, len(config.Projects))
	for i, filename := range config.Projects {
		p, err := scheduling.Load(filename, config.Agent.Seed+uint64(i)+1)
		if err != nil {
			return nil, nil, fmt.Errorf("build: %w", err)
		}
		if i > 0 && p.Features() != projects[0].Features() {
			return nil, nil, fmt.Errorf("build: project %v has %v features "+
				"but %v has %v", p.Name(), p.Features(), projects[0].Name(),
				projects[0].Features())
		}
		projects[i] = p
	}

	net, err := network.NewRegressor(projects[0].Features(), config.Network)
	if err != nil {
		return nil, nil, fmt.Errorf("build: %w", err)
	}

	learner, err := forwardsarsa.New(net, config.Agent,
		forwardsarsa.NewMetrics(reg), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build: %w", err)
	}
	logger.Info("created agent", "k", learner.K(), "c_final",
		learner.CFinal(), "features", net.Features())

	trainer, err := NewTrainer(learner, projects, config.Episodes,
		config.Agent.Epsilon, WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("build: %w", err)
	}

	if config.Checkpoint.Dir != "" && config.Checkpoint.Interval > 0 {
		dir := filepath.Join(config.Checkpoint.Dir, trainer.RunID())
		c, err := checkpointer.NewNStep(config.Checkpoint.Interval, net,
			checkpointer.FilenameEnumerator(dir, config.Checkpoint.Name,
				".gob"))
		if err != nil {
			return nil, nil, fmt.Errorf("build: %w", err)
		}
		trainer.checkpointers = append(trainer.checkpointers, c)
	}

	if config.Output.Makespans != "" {
		trainer.trackers = append(trainer.trackers,
			tracker.NewMakespan(config.Output.Makespans))
	}
	if config.Output.Lengths != "" {
		trainer.trackers = append(trainer.trackers,
			tracker.NewEpisodeLength(config.Output.Lengths))
	}
	if config.Output.Chart != "" {
		trainer.trackers = append(trainer.trackers,
			tracker.NewChart("Forward Sarsa(λ)", config.Output.Chart))
	}

	return trainer, net, nil
}
