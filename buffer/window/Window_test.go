package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/forwardsarsa/timestep"
)

func transition(rho float64) timestep.Transition {
	return timestep.NewTransition(mat.NewVecDense(1, []float64{rho}), rho)
}

func TestWindowFifo(t *testing.T) {
	w, err := New(3)
	require.NoError(t, err)
	assert.Equal(t, 3, w.Cap())

	for i := 0; i < 3; i++ {
		require.NoError(t, w.PushFront(transition(float64(i))))
	}
	assert.True(t, w.Full())

	err = w.PushFront(transition(3))
	assert.ErrorIs(t, err, ErrFull)
	assert.Equal(t, 3, w.Len())

	// Newest first
	assert.Equal(t, 2.0, w.At(0).Rho)
	assert.Equal(t, 0.0, w.At(2).Rho)

	for i := 0; i < 3; i++ {
		tr, err := w.PopBack()
		require.NoError(t, err)
		assert.Equal(t, float64(i), tr.Rho)
	}

	_, err = w.PopBack()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestWindowWrapsAround(t *testing.T) {
	w, err := New(4)
	require.NoError(t, err)

	// Interleave pushes and pops so that the ring wraps several times,
	// releasing transitions in the order they were pushed
	next, released := 0, 0
	for round := 0; round < 25; round++ {
		for w.Len() < w.Cap() {
			require.NoError(t, w.PushFront(transition(float64(next))))
			next++
		}
		for i := 0; i < 1+round%3; i++ {
			tr, err := w.PopBack()
			require.NoError(t, err)
			assert.Equal(t, float64(released), tr.Rho)
			released++
		}
		assert.LessOrEqual(t, w.Len(), w.Cap())
	}

	for w.Len() > 0 {
		tr, err := w.PopBack()
		require.NoError(t, err)
		assert.Equal(t, float64(released), tr.Rho)
		released++
	}
	assert.Equal(t, next, released)
}

func TestWindowReset(t *testing.T) {
	w, err := New(2)
	require.NoError(t, err)
	require.NoError(t, w.PushFront(transition(1)))
	require.NoError(t, w.PushFront(transition(2)))

	w.Reset()
	assert.Zero(t, w.Len())
	require.NoError(t, w.PushFront(transition(3)))
	tr, err := w.PopBack()
	require.NoError(t, err)
	assert.Equal(t, 3.0, tr.Rho)
}

func TestWindowCapacity(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)

	w, err := New(1)
	require.NoError(t, err)
	require.NoError(t, w.PushFront(transition(1)))
	assert.ErrorIs(t, w.PushFront(transition(2)), ErrFull)
}

func BenchmarkWindowPushPop(b *testing.B) {
	w, _ := New(17)
	t := transition(1)

	for i := 0; i < b.N; i++ {
		if w.Full() {
			w.PopBack()
		}
		w.PushFront(t)
	}
}
