// Package scheduling implements a resource-constrained project
// scheduling environment. An agent repeatedly decides which eligible
// task to start next, or to wait for a running task to complete, until
// every task of the project has been completed. The total scheduling
// time of an episode is the makespan of the project.
package scheduling

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samuelfneumann/forwardsarsa/environment"
)

// featuresPerTask is the number of observation features describing each
// task: done, running, fraction of the running time remaining, eligible
const featuresPerTask = 4

// completionTolerance determines when two finish times are considered
// equal
const completionTolerance = 1e-9

type status int

const (
	pending status = iota
	running
	done
)

// Project is a scheduling environment over a fixed set of tasks and
// renewable resources
type Project struct {
	name        string
	tasks       []Task
	capacity    []float64
	variability float64
	rng         distuv.Uniform

	status    []status
	assigned  []float64 // Duration each started task was given
	finish    []float64 // Absolute finish time of each started task
	inUse     []float64
	now       float64
	completed int

	// durations caches the sampled durations at the current decision
	// point so that repeated calls to State() agree
	durations environment.Durations
}

// New creates a new Project from a Definition. Task durations are
// sampled as mean·U(1-v, 1+v) where v is the Definition's variability,
// using a random source seeded with seed.
func New(def Definition, seed uint64) (*Project, error) {
	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	tasks := make([]Task, len(def.Tasks))
	copy(tasks, def.Tasks)

	p := &Project{
		name:        def.Name,
		tasks:       tasks,
		capacity:    append([]float64(nil), def.Capacity...),
		variability: def.Variability,
		rng: distuv.Uniform{
			Min: 1 - def.Variability,
			Max: 1 + def.Variability,
			Src: rand.NewSource(seed),
		},
	}

	if err := p.Reset(); err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the name of the project
func (p *Project) Name() string {
	return p.name
}

// Len returns the number of tasks in the project
func (p *Project) Len() int {
	return len(p.tasks)
}

// Now returns the scheduling time elapsed in the current episode
func (p *Project) Now() float64 {
	return p.now
}

// Reset restarts the project so that no task has been started
func (p *Project) Reset() error {
	n := len(p.tasks)
	p.status = make([]status, n)
	p.assigned = make([]float64, n)
	p.finish = make([]float64, n)
	p.inUse = make([]float64, len(p.capacity))
	p.now = 0
	p.completed = 0
	p.durations = nil

	return nil
}

// IsFinished returns whether every task has been completed
func (p *Project) IsFinished() bool {
	return p.completed == len(p.tasks)
}

// State returns the current observation along with the durations that
// each currently eligible task would take if started now
func (p *Project) State() (mat.Vector, environment.Durations) {
	obs := mat.NewVecDense(p.observationSize(), nil)

	for i := range p.tasks {
		base := i * featuresPerTask
		switch p.status[i] {
		case done:
			obs.SetVec(base, 1.0)
		case running:
			obs.SetVec(base+1, 1.0)
			obs.SetVec(base+2, (p.finish[i]-p.now)/p.assigned[i])
		default:
			if p.eligible(i) {
				obs.SetVec(base+3, 1.0)
			}
		}
	}

	offset := len(p.tasks) * featuresPerTask
	for r := range p.capacity {
		obs.SetVec(offset+r, p.inUse[r]/p.capacity[r])
	}

	if p.durations == nil {
		p.durations = p.sampleDurations()
	}

	return obs, p.durations
}

// sampleDurations samples a duration for each eligible task
func (p *Project) sampleDurations() environment.Durations {
	durations := make(environment.Durations)
	for i, task := range p.tasks {
		if p.status[i] != pending || !p.eligible(i) {
			continue
		}

		duration := task.Duration
		if p.variability > 0 {
			duration *= p.rng.Rand()
		}
		durations[environment.Action(i)] = duration
	}
	return durations
}

// Actions returns the eligible tasks in ascending order, followed by the
// wait action if any task is currently running
func (p *Project) Actions() []environment.Action {
	actions := make([]environment.Action, 0, len(p.tasks)+1)
	anyRunning := false

	for i := range p.tasks {
		switch p.status[i] {
		case running:
			anyRunning = true
		case pending:
			if p.eligible(i) {
				actions = append(actions, environment.Action(i))
			}
		}
	}

	if anyRunning {
		actions = append(actions, environment.Wait)
	}
	return actions
}

// Next takes an action in the environment. Starting a task consumes no
// scheduling time. Waiting advances the clock to the next task
// completion, and the time advanced is returned.
func (p *Project) Next(a environment.Action, d environment.Durations) (float64,
	error) {
	if p.IsFinished() {
		return 0, fmt.Errorf("next: project %q is already finished", p.name)
	}

	if a.IsWait() {
		return p.advance()
	}

	i := int(a)
	if i < 0 || i >= len(p.tasks) {
		return 0, fmt.Errorf("next: no such task %v", i)
	}
	if p.status[i] != pending || !p.eligible(i) {
		return 0, fmt.Errorf("next: task %v cannot be started", i)
	}

	duration, ok := d[a]
	if !ok || duration <= 0 {
		duration = p.tasks[i].Duration
	}

	p.status[i] = running
	p.assigned[i] = duration
	p.finish[i] = p.now + duration
	for r, demand := range p.tasks[i].Demands {
		p.inUse[r] += demand
	}
	p.durations = nil

	return 0, nil
}

// advance moves the clock to the earliest finish time of all running
// tasks and completes every task finishing at that time
func (p *Project) advance() (float64, error) {
	earliest := math.Inf(1)
	for i := range p.tasks {
		if p.status[i] == running && p.finish[i] < earliest {
			earliest = p.finish[i]
		}
	}
	if math.IsInf(earliest, 1) {
		return 0, fmt.Errorf("next: cannot wait when no task is running")
	}

	for i, task := range p.tasks {
		if p.status[i] != running || p.finish[i] > earliest+completionTolerance {
			continue
		}
		p.status[i] = done
		p.completed++
		for r, demand := range task.Demands {
			p.inUse[r] -= demand
		}
	}

	elapsed := earliest - p.now
	p.now = earliest
	p.durations = nil

	return elapsed, nil
}

// eligible returns whether task i has all predecessors completed and
// fits in the currently free resources
func (p *Project) eligible(i int) bool {
	for _, pred := range p.tasks[i].Predecessors {
		if p.status[pred] != done {
			return false
		}
	}
	for r, demand := range p.tasks[i].Demands {
		if p.inUse[r]+demand > p.capacity[r]+completionTolerance {
			return false
		}
	}
	return true
}

// observationSize returns the length of observation vectors
func (p *Project) observationSize() int {
	return len(p.tasks)*featuresPerTask + len(p.capacity)
}

// Features returns the length of the vectors produced by Encode()
func (p *Project) Features() int {
	return p.observationSize() + len(p.tasks) + 1
}

// Encode appends a one-hot encoding of the action to the state. The
// last position of the one-hot block represents the wait action.
func (p *Project) Encode(state mat.Vector, a environment.Action) mat.Vector {
	if state.Len() != p.observationSize() {
		panic(fmt.Sprintf("encode: invalid state size \n\twant(%v) "+
			"\n\thave(%v)", p.observationSize(), state.Len()))
	}

	encoded := mat.NewVecDense(p.Features(), nil)
	for i := 0; i < state.Len(); i++ {
		encoded.SetVec(i, state.AtVec(i))
	}

	index := len(p.tasks)
	if !a.IsWait() {
		index = int(a)
	}
	encoded.SetVec(p.observationSize()+index, 1.0)

	return encoded
}
