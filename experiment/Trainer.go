// Package experiment implements functionality for running a training
// run over a collection of projects
package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/samuelfneumann/forwardsarsa/agent"
	"github.com/samuelfneumann/forwardsarsa/agent/nonlinear/discrete/forwardsarsa"
	"github.com/samuelfneumann/forwardsarsa/environment"
	"github.com/samuelfneumann/forwardsarsa/experiment/checkpointer"
	"github.com/samuelfneumann/forwardsarsa/experiment/tracker"
	"github.com/samuelfneumann/forwardsarsa/timestep"
)

// Project is an Environment with a name used in logs, trackers and
// checkpoint filenames
type Project interface {
	environment.Environment
	Name() string
}

// Trainer runs a Learner for a number of episodes on each of a list of
// projects, visiting the projects in order. One pass over all projects
// is a cycle.
//
// The exploration rate of episode n of N = episodes · len(projects) is
// ε₀ · exp(-ln(20) · n / N), so that it decays to 5% of ε₀ over the run.
type Trainer struct {
	learner  agent.Learner
	projects []Project
	episodes int
	epsilon  float64

	checkpointers []checkpointer.Checkpointer
	trackers      []tracker.Tracker

	runID  string
	logger *slog.Logger
}

// Option configures a Trainer
type Option func(*Trainer)

// WithCheckpointer adds a Checkpointer called at the end of every cycle
func WithCheckpointer(c checkpointer.Checkpointer) Option {
	return func(t *Trainer) {
		t.checkpointers = append(t.checkpointers, c)
	}
}

// WithTracker adds a Tracker receiving every finished episode
func WithTracker(tr tracker.Tracker) Option {
	return func(t *Trainer) {
		t.trackers = append(t.trackers, tr)
	}
}

// WithLogger sets the logger, slog.Default() if not given
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trainer) {
		t.logger = logger
	}
}

// WithRunID sets the run id attached to every log line. A random UUID
// is used if not given.
func WithRunID(id string) Option {
	return func(t *Trainer) {
		t.runID = id
	}
}

// NewTrainer returns a new Trainer running episodes episodes on each
// project, starting from the exploration rate epsilon
func NewTrainer(learner agent.Learner, projects []Project, episodes int,
	epsilon float64, opts ...Option) (*Trainer, error) {
	if learner == nil {
		return nil, fmt.Errorf("newtrainer: learner cannot be nil")
	}
	if len(projects) == 0 {
		return nil, fmt.Errorf("newtrainer: at least one project required")
	}
	if episodes < 1 {
		return nil, fmt.Errorf("newtrainer: episodes must be positive "+
			"\n\thave(%v)", episodes)
	}
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("newtrainer: %w: epsilon must be in [0, 1] "+
			"\n\thave(%v)", forwardsarsa.ErrInvalidConfig, epsilon)
	}

	t := &Trainer{
		learner:  learner,
		projects: projects,
		episodes: episodes,
		epsilon:  epsilon,
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.runID == "" {
		t.runID = uuid.NewString()
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	t.logger = t.logger.With("run", t.runID)

	return t, nil
}

// RunID returns the id of the run
func (t *Trainer) RunID() string {
	return t.runID
}

// Episodes returns the total number of episodes in the run
func (t *Trainer) Episodes() int {
	return t.episodes * len(t.projects)
}

// Run runs all episodes of the run. The context is checked between
// episodes; a cancelled run returns the context's error after saving
// the data tracked so far.
func (t *Trainer) Run(ctx context.Context) error {
	total := t.Episodes()
	makespans := make([]float64, 0, len(t.projects))

	t.logger.Info("starting training", "projects", len(t.projects),
		"episodes", total, "epsilon", t.epsilon)

	var runErr error
	for n := 0; n < total; n++ {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("run: stopped before episode %v: %w", n, err)
			break
		}

		project := t.projects[n%len(t.projects)]
		epsilon := forwardsarsa.EpsilonAt(t.epsilon, n, total)

		episode, err := t.learner.RunEpisode(project, epsilon, n)
		if err != nil {
			runErr = fmt.Errorf("run: episode %v on %v: %w", n,
				project.Name(), err)
			break
		}
		episode.Project = project.Name()
		t.track(episode)
		makespans = append(makespans, episode.Makespan)

		if (n+1)%len(t.projects) == 0 {
			cycle := (n + 1) / len(t.projects)
			t.logger.Info("cycle finished", "episode", cycle, "epsilon",
				epsilon, "makespan", stat.Mean(makespans, nil))
			makespans = makespans[:0]

			if err := t.checkpoint(cycle); err != nil {
				runErr = err
				break
			}
		}
	}

	if err := t.save(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// track sends a finished episode to every Tracker
func (t *Trainer) track(e timestep.Episode) {
	t.logger.Debug("episode finished", "episode", e.Number, "project",
		e.Project, "steps", e.Steps, "makespan", e.Makespan, "skipped",
		e.Skipped)

	for _, tr := range t.trackers {
		tr.Track(e)
	}
}

// checkpoint runs every Checkpointer at the end of a cycle
func (t *Trainer) checkpoint(cycle int) error {
	for _, c := range t.checkpointers {
		path, err := c.Checkpoint(cycle)
		if err != nil {
			return fmt.Errorf("run: cycle %v: %w", cycle, err)
		}
		if path != "" {
			t.logger.Debug("checkpoint written", "path", path)
		}
	}
	return nil
}

// save saves the data of every Tracker
func (t *Trainer) save() error {
	for _, tr := range t.trackers {
		if err := tr.Save(); err != nil {
			return fmt.Errorf("run: could not save tracked data: %w", err)
		}
	}
	return nil
}
