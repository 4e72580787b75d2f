package scheduling

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Task is a single activity of a project. Predecessors are indices into
// the task list of the project, and Demands has one entry per project
// resource.
type Task struct {
	Name         string    `yaml:"name"`
	Duration     float64   `yaml:"duration"`
	Predecessors []int     `yaml:"predecessors"`
	Demands      []float64 `yaml:"demands"`
}

// Definition describes a project as stored on disk
type Definition struct {
	Name        string    `yaml:"name"`
	Capacity    []float64 `yaml:"capacity"`
	Variability float64   `yaml:"variability"`
	Tasks       []Task    `yaml:"tasks"`
}

// Load reads a project Definition from a YAML file and constructs the
// Project it describes
func Load(filename string, seed uint64) (*Project, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("load: could not read project file: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("load: could not decode project %v: %w",
			filename, err)
	}
	if def.Name == "" {
		def.Name = filename
	}

	return New(def, seed)
}

// validate checks that a Definition describes a project which can
// always be scheduled to completion
func (d Definition) validate() error {
	if len(d.Tasks) == 0 {
		return fmt.Errorf("project %q has no tasks", d.Name)
	}
	if d.Variability < 0 || d.Variability >= 1 {
		return fmt.Errorf("variability must be in [0, 1) \n\thave(%v)",
			d.Variability)
	}
	for r, c := range d.Capacity {
		if c <= 0 {
			return fmt.Errorf("capacity of resource %v must be positive "+
				"\n\thave(%v)", r, c)
		}
	}

	for i, task := range d.Tasks {
		if task.Duration <= 0 {
			return fmt.Errorf("task %v: duration must be positive "+
				"\n\thave(%v)", i, task.Duration)
		}
		if len(task.Demands) != len(d.Capacity) {
			return fmt.Errorf("task %v: invalid number of demands "+
				"\n\twant(%v) \n\thave(%v)", i, len(d.Capacity),
				len(task.Demands))
		}
		for r, demand := range task.Demands {
			if demand < 0 || demand > d.Capacity[r] {
				return fmt.Errorf("task %v: demand %v for resource %v "+
					"outside [0, %v]", i, demand, r, d.Capacity[r])
			}
		}
		for _, p := range task.Predecessors {
			if p < 0 || p >= len(d.Tasks) || p == i {
				return fmt.Errorf("task %v: invalid predecessor %v", i, p)
			}
		}
	}

	return d.checkAcyclic()
}

// checkAcyclic ensures the precedence graph has a topological order
func (d Definition) checkAcyclic() error {
	indegree := make([]int, len(d.Tasks))
	successors := make([][]int, len(d.Tasks))
	for i, task := range d.Tasks {
		for _, p := range task.Predecessors {
			successors[p] = append(successors[p], i)
			indegree[i]++
		}
	}

	queue := make([]int, 0, len(d.Tasks))
	for i, deg := range indegree {
		if deg == 0 {
			queue = append(queue, i)
		}
	}

	visited := 0
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		visited++

		for _, s := range successors[next] {
			indegree[s]--
			if indegree[s] == 0 {
				queue = append(queue, s)
			}
		}
	}

	if visited != len(d.Tasks) {
		return fmt.Errorf("precedence relations of project %q contain a "+
			"cycle", d.Name)
	}
	return nil
}
