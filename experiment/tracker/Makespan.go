package tracker

import "github.com/samuelfneumann/forwardsarsa/timestep"

// Makespan tracks and saves the makespan of each episode in an
// experiment, in the order the episodes finished.
type Makespan struct {
	makespans []float64
	filename  string
}

// NewMakespan returns a new Makespan tracker which will save its data
// at the specified location filename
func NewMakespan(filename string) *Makespan {
	return &Makespan{filename: filename}
}

// Track caches the makespan of a finished episode
func (m *Makespan) Track(e timestep.Episode) {
	m.makespans = append(m.makespans, e.Makespan)
}

// Data returns the makespans tracked so far
func (m *Makespan) Data() []float64 {
	return m.makespans
}

// Save saves the data tracked by the Makespan Tracker to disk
func (m *Makespan) Save() error {
	return save(m.filename, m.makespans)
}
