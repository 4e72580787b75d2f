package forwardsarsa

import "math"

// decayRate is ln(20): decaying by exp(-ln(20) / N) per episode for N
// episodes leaves 5% of the initial exploration rate
var decayRate = math.Log(20)

// Decay returns ε after a single episode of a run of the given total
// number of episodes
func Decay(epsilon float64, episodes int) float64 {
	if episodes <= 0 {
		return epsilon
	}
	return epsilon * math.Exp(-decayRate/float64(episodes))
}

// EpsilonAt returns the exploration rate used in episode index episode
// (counting from 0) of a run of the given total number of episodes.
// EpsilonAt(ε, n, N) equals n applications of Decay to ε.
func EpsilonAt(initial float64, episode, episodes int) float64 {
	if episodes <= 0 {
		return initial
	}
	return initial * math.Exp(-decayRate*float64(episode)/float64(episodes))
}
