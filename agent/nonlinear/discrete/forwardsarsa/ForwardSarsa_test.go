package forwardsarsa

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/forwardsarsa/environment"
)

// chainEnv is an episode of a fixed number of transitions, each taking
// dt scheduling time. States are encoded by their position in the chain.
type chainEnv struct {
	length  int
	actions int // Number of legal task actions, 1 offers only Wait
	dt      float64
	pos     int
}

func (c *chainEnv) Reset() error     { c.pos = 0; return nil }
func (c *chainEnv) IsFinished() bool { return c.pos >= c.length }
func (c *chainEnv) Features() int    { return 2 }

func (c *chainEnv) State() (mat.Vector, environment.Durations) {
	return mat.NewVecDense(1, []float64{float64(c.pos)}),
		environment.Durations{}
}

func (c *chainEnv) Actions() []environment.Action {
	if c.actions == 1 {
		return []environment.Action{environment.Wait}
	}
	actions := make([]environment.Action, c.actions)
	for i := range actions {
		actions[i] = environment.Action(i)
	}
	return actions
}

func (c *chainEnv) Next(environment.Action, environment.Durations) (float64,
	error) {
	c.pos++
	return c.dt, nil
}

func (c *chainEnv) Encode(state mat.Vector, a environment.Action) mat.Vector {
	return mat.NewVecDense(2, []float64{state.AtVec(0), float64(a)})
}

type fitCall struct {
	pos    int
	target float64
}

// fixedApprox predicts a fixed function of the encoding and records
// every update without learning from it
type fixedApprox struct {
	fits      []fitCall
	fitErr    error
	onPredict func()
}

func value(pos int, a environment.Action) float64 {
	return 0.5*math.Sin(float64(pos)+1) + 0.1*float64(a)
}

func (f *fixedApprox) Predict(x mat.Vector) (float64, error) {
	if f.onPredict != nil {
		f.onPredict()
	}
	return value(int(x.AtVec(0)), environment.Action(x.AtVec(1))), nil
}

func (f *fixedApprox) Fit(x mat.Vector, y float64) error {
	if f.fitErr != nil {
		return f.fitErr
	}
	f.fits = append(f.fits, fitCall{pos: int(x.AtVec(0)), target: y})
	return nil
}

// configWithWindow returns a Config whose window length is k
func configWithWindow(k int) Config {
	config := DefaultConfig()
	config.Gamma = 0.9
	config.Lambda = 0.8
	config.Eta = math.Pow(config.Gamma*config.Lambda, float64(k)-0.5)
	return config
}

// closedForm computes the K-bounded λ-return of every state of a single
// action chain from scratch
func closedForm(length int, dt, gamma, lambda float64, k int) []float64 {
	values := make([]float64, length+1)
	for t := 0; t < length; t++ {
		values[t] = value(t, environment.Wait)
	}

	deltas := make([]float64, length)
	for t := range deltas {
		reward := 0.0
		if t == length-1 {
			reward = 1 / (float64(length) * dt)
		}
		deltas[t] = reward + gamma*values[t+1] - values[t]
	}

	targets := make([]float64, length)
	for t := range targets {
		g, c := values[t], 1.0
		for j := 0; j < k && t+j < length; j++ {
			g += c * deltas[t+j]
			c *= gamma * lambda
		}
		targets[t] = g
	}
	return targets
}

func TestRunEpisodeMatchesClosedForm(t *testing.T) {
	for _, k := range []int{1, 2, 3, 5, 17} {
		for _, length := range []int{1, 2, k - 1, k, k + 1, 3*k + 2} {
			if length < 1 {
				continue
			}
			t.Run(fmt.Sprintf("K=%v/T=%v", k, length), func(t *testing.T) {
				config := configWithWindow(k)
				approx := &fixedApprox{}
				f, err := New(approx, config, nil, nil)
				require.NoError(t, err)
				require.Equal(t, k, f.K())

				env := &chainEnv{length: length, actions: 1, dt: 2}
				episode, err := f.RunEpisode(env, 0.5, 0)
				require.NoError(t, err)

				assert.Equal(t, length, episode.Steps)
				assert.Equal(t, length, episode.Fits)
				assert.InDelta(t, 2*float64(length), episode.Makespan, 1e-12)
				assert.InDelta(t, 1/(2*float64(length)), episode.Reward, 1e-12)

				want := closedForm(length, 2, config.Gamma, config.Lambda, k)
				require.Len(t, approx.fits, length)
				for i, fit := range approx.fits {
					assert.Equal(t, i, fit.pos, "transitions released in order")
					assert.InDelta(t, want[i], fit.target, 1e-9, "target %v", i)
				}
			})
		}
	}
}

func TestRunEpisodeWindowBound(t *testing.T) {
	config := configWithWindow(4)
	approx := &fixedApprox{}
	f, err := New(approx, config, nil, nil)
	require.NoError(t, err)

	checks := 0
	approx.onPredict = func() {
		checks++
		assert.LessOrEqual(t, f.window.Len(), f.K())
	}

	env := &chainEnv{length: 23, actions: 3, dt: 1}
	for episode := 0; episode < 5; episode++ {
		result, err := f.RunEpisode(env, EpsilonAt(1, episode, 5), episode)
		require.NoError(t, err)

		assert.Zero(t, f.window.Len())
		assert.Equal(t, result.Steps, result.Fits)
	}
	assert.Positive(t, checks)
	assert.Len(t, approx.fits, 5*23)
}

func TestRunEpisodeSkipsRejectedUpdates(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	approx := &fixedApprox{fitErr: errors.New("shape mismatch")}

	f, err := New(approx, configWithWindow(3), metrics, nil)
	require.NoError(t, err)

	episode, err := f.RunEpisode(&chainEnv{length: 7, actions: 2, dt: 1}, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 7, episode.Skipped)
	assert.Zero(t, episode.Fits)
	assert.Equal(t, 7.0, testutil.ToFloat64(metrics.Skips))
	assert.Zero(t, testutil.ToFloat64(metrics.Fits))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Episodes))
	assert.Zero(t, f.window.Len())
}

func TestRunEpisodeAbortsAfterConsecutiveSkips(t *testing.T) {
	config := configWithWindow(2)
	config.MaxConsecutiveSkips = 3
	fitErr := errors.New("shape mismatch")

	f, err := New(&fixedApprox{fitErr: fitErr}, config, nil, nil)
	require.NoError(t, err)

	_, err = f.RunEpisode(&chainEnv{length: 10, actions: 1, dt: 1}, 0, 0)
	assert.ErrorIs(t, err, ErrTooManySkips)
}

func TestRunEpisodeContractViolations(t *testing.T) {
	t.Run("no actions", func(t *testing.T) {
		f, err := New(&fixedApprox{}, DefaultConfig(), nil, nil)
		require.NoError(t, err)

		_, err = f.RunEpisode(&chainEnv{length: 3, actions: 0, dt: 1}, 0, 0)
		assert.ErrorIs(t, err, ErrNoActions)
	})

	t.Run("step limit", func(t *testing.T) {
		config := DefaultConfig()
		config.MaxSteps = 3
		f, err := New(&fixedApprox{}, config, nil, nil)
		require.NoError(t, err)

		_, err = f.RunEpisode(&chainEnv{length: 4, actions: 1, dt: 1}, 0, 0)
		assert.ErrorIs(t, err, ErrStepLimit)

		_, err = f.RunEpisode(&chainEnv{length: 3, actions: 1, dt: 1}, 0, 0)
		assert.NoError(t, err)
	})

	t.Run("zero makespan", func(t *testing.T) {
		f, err := New(&fixedApprox{}, DefaultConfig(), nil, nil)
		require.NoError(t, err)

		_, err = f.RunEpisode(&chainEnv{length: 3, actions: 1, dt: 0}, 0, 0)
		assert.ErrorIs(t, err, ErrZeroMakespan)
	})

	t.Run("finished at reset", func(t *testing.T) {
		approx := &fixedApprox{}
		f, err := New(approx, DefaultConfig(), nil, nil)
		require.NoError(t, err)

		episode, err := f.RunEpisode(&chainEnv{length: 0, actions: 1}, 0, 0)
		require.NoError(t, err)
		assert.Zero(t, episode.Steps)
		assert.Empty(t, approx.fits)
	})
}

func TestRunEpisodeSetsEpsilon(t *testing.T) {
	f, err := New(&fixedApprox{}, DefaultConfig(), nil, nil)
	require.NoError(t, err)

	episode, err := f.RunEpisode(&chainEnv{length: 2, actions: 2, dt: 1},
		0.3, 4)
	require.NoError(t, err)
	assert.Equal(t, 0.3, f.Policy().Epsilon())
	assert.Equal(t, 0.3, episode.Epsilon)
	assert.Equal(t, 4, episode.Number)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.Lambda = 0

	_, err := New(&fixedApprox{}, config, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(nil, DefaultConfig(), nil, nil)
	assert.Error(t, err)
}

func BenchmarkRunEpisode(b *testing.B) {
	f, err := New(&fixedApprox{}, DefaultConfig(), nil, nil)
	if err != nil {
		b.Fatal(err)
	}
	env := &chainEnv{length: 100, actions: 4, dt: 1}

	for i := 0; i < b.N; i++ {
		if _, err := f.RunEpisode(env, 0.1, i); err != nil {
			b.Fatal(err)
		}
	}
}
