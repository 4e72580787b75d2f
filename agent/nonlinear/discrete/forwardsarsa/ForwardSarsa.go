// Package forwardsarsa implements the Forward Sarsa(λ) algorithm, an
// on-policy control algorithm for training large nonlinear action-value
// approximators with multi-step λ-returns.
//
// Rather than keeping an eligibility trace over the parameters of the
// approximator, the algorithm keeps the last K transitions in a window
// and computes the K-bounded forward-view λ-return of the oldest one,
// where K is the smallest horizon whose truncation error is below a
// tolerance η. Each transition is released to the approximator exactly
// once: either K steps after it entered the window, or when the window
// is drained at the end of the episode.
//
// See van Seijen, H. (2016). Effective multi-step temporal-difference
// learning for non-linear function approximation.
package forwardsarsa

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/forwardsarsa/agent"
	"github.com/samuelfneumann/forwardsarsa/agent/nonlinear/discrete/policy"
	"github.com/samuelfneumann/forwardsarsa/buffer/window"
	"github.com/samuelfneumann/forwardsarsa/environment"
	"github.com/samuelfneumann/forwardsarsa/timestep"
)

var (
	// ErrNoActions is returned when the environment offers no action
	// in an unfinished episode
	ErrNoActions = policy.ErrNoActions

	// ErrStepLimit is returned when an episode exceeds MaxSteps
	ErrStepLimit = errors.New("episode exceeded step limit")

	// ErrTooManySkips is returned when MaxConsecutiveSkips consecutive
	// updates were rejected by the approximator
	ErrTooManySkips = errors.New("too many consecutive skipped updates")

	// ErrZeroMakespan is returned when an episode finishes without
	// consuming scheduling time, leaving the terminal reward undefined
	ErrZeroMakespan = errors.New("episode finished with zero makespan")
)

// FitStatus describes the outcome of a single learning update
type FitStatus int

const (
	Fitted FitStatus = iota
	Skipped
)

func (f FitStatus) String() string {
	if f == Skipped {
		return "Skipped"
	}
	return "Fitted"
}

// FitResult is the outcome of a learning update. Err holds the reason
// an update was Skipped.
type FitResult struct {
	Status FitStatus
	Err    error
}

// ForwardSarsa implements the Forward Sarsa(λ) algorithm with an
// ε-greedy behaviour policy.
//
// All per-episode state (the window, the accumulator and the step and
// time counters) is reset at the start of each episode. Only the
// approximator's parameters persist between episodes, and the
// exploration rate is supplied by the caller for every episode.
type ForwardSarsa struct {
	approx agent.Approximator
	policy agent.EGreedyPolicy

	gamma  float64
	lambda float64
	k      int
	cFinal float64

	window *window.Window
	acc    *Accumulator

	maxSteps            int
	maxConsecutiveSkips int

	// Per-episode update counts
	fits        int
	skipped     int
	consecutive int

	metrics *Metrics
	logger  *slog.Logger
}

// New creates a new ForwardSarsa agent training approx. A nil metrics
// creates unregistered metrics, and a nil logger uses slog.Default().
func New(approx agent.Approximator, config Config, metrics *Metrics,
	logger *slog.Logger) (*ForwardSarsa, error) {
	if approx == nil {
		return nil, fmt.Errorf("new: approximator cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	k, cFinal, err := config.Window()
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	behaviour, err := policy.NewEGreedy(config.Epsilon, approx,
		rand.NewSource(config.Seed))
	if err != nil {
		return nil, fmt.Errorf("new: invalid behaviour policy: %w", err)
	}

	w, err := window.New(k)
	if err != nil {
		return nil, fmt.Errorf("new: could not create window: %w", err)
	}

	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ForwardSarsa{
		approx:              approx,
		policy:              behaviour,
		gamma:               config.Gamma,
		lambda:              config.Lambda,
		k:                   k,
		cFinal:              cFinal,
		window:              w,
		acc:                 NewAccumulator(k, config.Gamma*config.Lambda, cFinal),
		maxSteps:            config.MaxSteps,
		maxConsecutiveSkips: config.MaxConsecutiveSkips,
		metrics:             metrics,
		logger:              logger,
	}, nil
}

// K returns the length of the transition window
func (f *ForwardSarsa) K() int {
	return f.k
}

// CFinal returns the weight of the last term of a K-step return
func (f *ForwardSarsa) CFinal() float64 {
	return f.cFinal
}

// Policy returns the behaviour policy
func (f *ForwardSarsa) Policy() agent.EGreedyPolicy {
	return f.policy
}

// RunEpisode resets env and runs a single episode to termination,
// choosing actions ε-greedily with ε = epsilon.
//
// The reward is 0 on every transition except the last, where it is
// 1 / t for the makespan t of the episode. Every transition of the
// episode is used for exactly one update of the approximator.
func (f *ForwardSarsa) RunEpisode(env environment.Environment,
	epsilon float64, number int) (timestep.Episode, error) {
	episode := timestep.Episode{Number: number, Epsilon: epsilon}

	if err := env.Reset(); err != nil {
		return episode, fmt.Errorf("runepisode: could not reset "+
			"environment: %w", err)
	}
	f.policy.SetEpsilon(epsilon)
	f.window.Reset()
	f.fits, f.skipped, f.consecutive = 0, 0, 0

	if env.IsFinished() {
		return episode, nil
	}

	current, err := f.policy.Select(env)
	if err != nil {
		return episode, fmt.Errorf("runepisode: %w", err)
	}
	f.acc.Reset(current.Value)

	elapsed := 0.0
	for n := 1; ; n++ {
		if f.maxSteps > 0 && n > f.maxSteps {
			return episode, fmt.Errorf("runepisode: %w (%v)", ErrStepLimit,
				f.maxSteps)
		}

		dt, err := env.Next(current.Action, current.Durations)
		if err != nil {
			return episode, fmt.Errorf("runepisode: could not take "+
				"action %v: %w", current.Action, err)
		}
		elapsed += dt

		// On-policy lookahead: the next action is selected now and then
		// executed on the following step
		var next agent.Selection
		step := timestep.New(timestep.Mid, 0, elapsed, n)
		if env.IsFinished() {
			if elapsed <= 0 {
				return episode, fmt.Errorf("runepisode: %w", ErrZeroMakespan)
			}
			step = timestep.New(timestep.Last, 1/elapsed, elapsed, n)
		} else if next, err = f.policy.Select(env); err != nil {
			return episode, fmt.Errorf("runepisode: %w", err)
		}

		if err := f.observe(current, step.Reward, next.Value); err != nil {
			return episode, fmt.Errorf("runepisode: %w", err)
		}

		if step.Last() {
			episode.Steps = step.Number
			episode.Makespan = step.Elapsed
			episode.Reward = step.Reward
			break
		}
		current = next
	}

	// Drain the transitions whose K-step return was cut short by the
	// end of the episode
	f.acc.Flush()
	for f.window.Len() > 0 {
		if err := f.release(); err != nil {
			return episode, fmt.Errorf("runepisode: %w", err)
		}
	}

	episode.Fits = f.fits
	episode.Skipped = f.skipped

	f.metrics.Episodes.Inc()
	f.metrics.Epsilon.Set(epsilon)
	f.metrics.Makespan.Observe(episode.Makespan)

	return episode, nil
}

// observe records the transition taken from the state-action pair of
// sel, receiving reward and arriving at a state-action pair of value
// vNext (0 at termination)
func (f *ForwardSarsa) observe(sel agent.Selection, reward,
	vNext float64) error {
	delta := reward + f.gamma*vNext - sel.Value
	rho := reward + f.gamma*(1-f.lambda)*vNext

	if err := f.window.PushFront(timestep.NewTransition(sel.Input,
		rho)); err != nil {
		return err
	}

	if f.acc.Observe(delta, vNext) {
		return f.release()
	}
	return nil
}

// release updates the approximator on the oldest transition in the
// window with the current target, then shifts the target to the next
// oldest transition
func (f *ForwardSarsa) release() error {
	t, err := f.window.PopBack()
	if err != nil {
		return err
	}

	target := f.acc.Target()
	result := f.fit(t, target)
	f.acc.Shift(t.Rho)

	switch result.Status {
	case Fitted:
		f.fits++
		f.consecutive = 0
		f.metrics.Fits.Inc()

	case Skipped:
		f.skipped++
		f.consecutive++
		f.metrics.Skips.Inc()
		f.logger.Warn("skipped update", "error", result.Err, "target",
			target, "features", t.Input.Len(), "consecutive", f.consecutive)

		if f.maxConsecutiveSkips > 0 &&
			f.consecutive >= f.maxConsecutiveSkips {
			return fmt.Errorf("%w: %v: %v", ErrTooManySkips, f.consecutive,
				result.Err)
		}
	}
	return nil
}

// fit performs the learning update for a single transition
func (f *ForwardSarsa) fit(t timestep.Transition, target float64) FitResult {
	if err := f.approx.Fit(t.Input, target); err != nil {
		return FitResult{Status: Skipped, Err: err}
	}
	return FitResult{Status: Fitted}
}
