package tracker

import "github.com/samuelfneumann/forwardsarsa/timestep"

// EpisodeLength tracks and saves the number of decisions taken in each
// episode of an experiment.
type EpisodeLength struct {
	episodeLengths []int
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength tracker which will save
// its data at the specified location filename
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{filename: filename}
}

// Track caches the length of a finished episode
func (e *EpisodeLength) Track(ep timestep.Episode) {
	e.episodeLengths = append(e.episodeLengths, ep.Steps)
}

// Save saves the data tracked by the EpisodeLength Tracker to disk.
func (e *EpisodeLength) Save() error {
	return save(e.filename, e.episodeLengths)
}
