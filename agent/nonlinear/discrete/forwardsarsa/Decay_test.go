package forwardsarsa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecay(t *testing.T) {
	const episodes = 500

	epsilon := 1.0
	for i := 0; i < episodes; i++ {
		assert.InDelta(t, EpsilonAt(1, i, episodes), epsilon, 1e-12)

		next := Decay(epsilon, episodes)
		assert.Less(t, next, epsilon)
		epsilon = next
	}

	assert.InDelta(t, 0.05, epsilon, 1e-9)
	assert.InDelta(t, 0.05, EpsilonAt(1, episodes, episodes), 1e-12)
}

func TestDecayWithoutEpisodes(t *testing.T) {
	assert.Equal(t, 0.3, Decay(0.3, 0))
	assert.Equal(t, 0.3, EpsilonAt(0.3, 10, 0))
	assert.Equal(t, 0.0, Decay(0, 100))
}
