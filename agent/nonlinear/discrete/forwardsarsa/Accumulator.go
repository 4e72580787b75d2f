package forwardsarsa

// Phase is the phase of an Accumulator within an episode
type Phase int

const (
	// Accumulating means no K-step cycle has completed yet in the
	// episode, so no target can be released
	Accumulating Phase = iota

	// Released means at least one K-step cycle has completed and a
	// target is released for the oldest windowed transition every step
	Released
)

func (p Phase) String() string {
	if p == Released {
		return "Released"
	}
	return "Accumulating"
}

// Accumulator maintains the K-bounded forward-view λ-return of the
// oldest transition in the window.
//
// Two partial sums are kept. The sync sum is built from scratch over
// each cycle of K steps: it starts at the value of the state-action
// pair entering the cycle and accumulates c·δ with c = (γλ)^i. At the
// end of a cycle the sync sum becomes the released target and a new
// sync sum is started. In between, the released target is completed
// with c_final·δ and shifted forward one transition after each release
// with (target - ρ) / γλ. Recomputing from scratch every K steps keeps
// the error of these shifts from compounding.
type Accumulator struct {
	k      int
	decay  float64 // γλ
	cFinal float64 // (γλ)^(K-1)

	i      int     // Steps since the last recompute, 0..K-1
	c      float64 // (γλ)^i
	sync   float64 // In-progress sum of the current cycle
	target float64 // Target released for the oldest transition
	phase  Phase
}

// NewAccumulator returns a new Accumulator for a window of length k
// with trace decay γλ = decay
func NewAccumulator(k int, decay, cFinal float64) *Accumulator {
	a := &Accumulator{k: k, decay: decay, cFinal: cFinal}
	a.Reset(0)
	return a
}

// Reset starts a new episode whose first state-action pair has value v
func (a *Accumulator) Reset(v float64) {
	a.i = 0
	a.c = 1
	a.sync = v
	a.target = 0
	a.phase = Accumulating
}

// Observe folds the TD error δ of the latest transition into the
// return. The vNext parameter is the value of the next state-action
// pair, 0 if the transition was terminal. Observe returns whether the
// oldest windowed transition must be released with Target().
func (a *Accumulator) Observe(delta, vNext float64) bool {
	if a.i == a.k-1 {
		a.target = a.sync
		a.sync = vNext
		a.i = 0
		a.c = 1
		a.phase = Released
	} else {
		a.sync += a.c * delta
		a.i++
		a.c *= a.decay
	}

	if a.phase == Released {
		a.target += a.cFinal * delta
		return true
	}
	return false
}

// Target returns the target for the oldest windowed transition
func (a *Accumulator) Target() float64 {
	return a.target
}

// Shift moves the target from the released transition to the next
// oldest one, given the ρ of the released transition. With K = 1 every
// target is recomputed from scratch so no shift is needed.
func (a *Accumulator) Shift(rho float64) {
	if a.k != 1 {
		a.target = (a.target - rho) / a.decay
	}
}

// Flush prepares the target for draining the window at the end of an
// episode. If no cycle completed, the in-progress sum already is the
// full return of the oldest transition.
func (a *Accumulator) Flush() {
	if a.phase == Accumulating {
		a.target = a.sync
	}
}

// Phase returns the current phase
func (a *Accumulator) Phase() Phase {
	return a.phase
}

// Steps returns the number of steps since the last recompute
func (a *Accumulator) Steps() int {
	return a.i
}
