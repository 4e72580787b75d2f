package network

import (
	"bytes"
	"encoding/gob"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/forwardsarsa/initwfn"
	"github.com/samuelfneumann/forwardsarsa/solver"
)

func testConfig() Config {
	return Config{
		HiddenSizes: []int{8},
		Activations: []string{"tanh"},
		Init:        initwfn.Config{Type: initwfn.GlorotU, Gain: 1},
		Solver:      solver.Config{Type: solver.Vanilla, StepSize: 0.01},
	}
}

func TestRegressorFitMovesPrediction(t *testing.T) {
	r, err := NewRegressor(3, testConfig())
	require.NoError(t, err)

	x := mat.NewVecDense(3, []float64{1, 0.5, -0.25})
	const target = 2.0

	before, err := r.Predict(x)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		require.NoError(t, r.Fit(x, target))
	}

	after, err := r.Predict(x)
	require.NoError(t, err)
	assert.Less(t, math.Abs(after-target), math.Abs(before-target)/10)
}

func TestRegressorSolvers(t *testing.T) {
	for _, s := range []solver.Config{
		solver.DefaultAdam(1e-2),
		{Type: solver.RMSProp, StepSize: 1e-2, Clip: 5},
		{Type: solver.Vanilla, StepSize: 1e-2},
	} {
		t.Run(string(s.Type), func(t *testing.T) {
			config := testConfig()
			config.Solver = s
			r, err := NewRegressor(2, config)
			require.NoError(t, err)

			x := mat.NewVecDense(2, []float64{0.3, -0.7})
			before, err := r.Predict(x)
			require.NoError(t, err)
			require.NoError(t, r.Fit(x, before+1))

			after, err := r.Predict(x)
			require.NoError(t, err)
			assert.Greater(t, after, before)
		})
	}
}

func TestRegressorRejectsBadInput(t *testing.T) {
	r, err := NewRegressor(2, testConfig())
	require.NoError(t, err)

	_, err = r.Predict(mat.NewVecDense(3, nil))
	assert.ErrorIs(t, err, ErrInputSize)

	err = r.Fit(mat.NewVecDense(1, nil), 1)
	assert.ErrorIs(t, err, ErrInputSize)

	err = r.Fit(mat.NewVecDense(2, []float64{math.NaN(), 0}), 1)
	assert.ErrorIs(t, err, ErrNonFinite)

	err = r.Fit(mat.NewVecDense(2, nil), math.Inf(1))
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestRegressorGobRoundTrip(t *testing.T) {
	r, err := NewRegressor(4, testConfig())
	require.NoError(t, err)

	x := mat.NewVecDense(4, []float64{0.1, 0.2, 0.3, 0.4})
	for i := 0; i < 10; i++ {
		require.NoError(t, r.Fit(x, 1))
	}
	want, err := r.Predict(x)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(r))

	var decoded Regressor
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))
	assert.Equal(t, 4, decoded.Features())

	got, err := decoded.Predict(x)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
}

func TestRegressorConcurrentUse(t *testing.T) {
	r, err := NewRegressor(2, testConfig())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			x := mat.NewVecDense(2, []float64{float64(i), 1})
			for j := 0; j < 20; j++ {
				assert.NoError(t, r.Fit(x, 0.5))
				_, err := r.Predict(x)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()
}

func TestNewRegressorInvalidConfig(t *testing.T) {
	config := testConfig()
	config.Activations = []string{"softsign"}
	_, err := NewRegressor(2, config)
	assert.Error(t, err)

	config = testConfig()
	config.Activations = nil
	_, err = NewRegressor(2, config)
	assert.Error(t, err)

	config = testConfig()
	config.Solver.StepSize = 0
	_, err = NewRegressor(2, config)
	assert.Error(t, err)

	_, err = NewRegressor(0, testConfig())
	assert.Error(t, err)
}

func TestParseActivation(t *testing.T) {
	for _, name := range []string{"relu", "tanh", "sigmoid", "identity"} {
		act, err := ParseActivation(name)
		require.NoError(t, err)
		assert.Equal(t, name, act.String())
	}

	_, err := ParseActivation("nil")
	assert.Error(t, err)
}

func BenchmarkRegressorFit(b *testing.B) {
	r, err := NewRegressor(32, DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	x := mat.NewVecDense(32, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := r.Fit(x, 1); err != nil {
			b.Fatal(err)
		}
	}
}
