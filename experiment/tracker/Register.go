package tracker

import "github.com/samuelfneumann/forwardsarsa/timestep"

// registeredTracker registers a project with some Tracker so that the
// Tracker tracks data from episodes of the registered project only.
// registeredTracker itself is a Tracker.
//
// This is useful when training cycles through many projects but the
// learning curve of a single one is needed.
type registeredTracker struct {
	Tracker
	project string
}

// Register registers a new Tracker with a project, to track data from
// episodes run on that project only.
//
// Note: the underlying concrete type of the registered Tracker is
// lost when registering a project with a Tracker.
func Register(t Tracker, project string) Tracker {
	return &registeredTracker{t, project}
}

// Track calls Track() on the embedded Tracker if the episode was run on
// the registered project
func (r *registeredTracker) Track(e timestep.Episode) {
	if e.Project == r.project {
		r.Tracker.Track(e)
	}
}
