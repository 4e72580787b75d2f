package tracker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/samuelfneumann/forwardsarsa/timestep"
)

// Chart renders the learning curve of each project as an HTML line
// chart of makespan against the number of episodes run on the project
type Chart struct {
	title    string
	filename string

	projects  []string // In order of first appearance
	makespans map[string][]float64
}

// NewChart returns a new Chart which will render to filename
func NewChart(title, filename string) *Chart {
	return &Chart{
		title:     title,
		filename:  filename,
		makespans: make(map[string][]float64),
	}
}

// Track adds the makespan of a finished episode to the series of its
// project
func (c *Chart) Track(e timestep.Episode) {
	if _, ok := c.makespans[e.Project]; !ok {
		c.projects = append(c.projects, e.Project)
	}
	c.makespans[e.Project] = append(c.makespans[e.Project], e.Makespan)
}

// line builds the line chart of all tracked series
func (c *Chart) line() *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    c.title,
			Subtitle: "makespan per episode",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "episode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "makespan"}),
	)

	length := 0
	for _, series := range c.makespans {
		length = max(length, len(series))
	}
	episodes := make([]string, length)
	for i := range episodes {
		episodes[i] = fmt.Sprintf("%d", i)
	}
	line.SetXAxis(episodes)

	for _, project := range c.projects {
		items := make([]opts.LineData, 0, len(c.makespans[project]))
		for _, m := range c.makespans[project] {
			items = append(items, opts.LineData{Value: m})
		}
		line.AddSeries(project, items)
	}
	return line
}

// Save renders the chart to disk
func (c *Chart) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.filename), 0o755); err != nil {
		return fmt.Errorf("save: could not create directory: %w", err)
	}

	file, err := os.Create(c.filename)
	if err != nil {
		return fmt.Errorf("save: could not create chart file: %w", err)
	}
	defer file.Close()

	page := components.NewPage()
	page.AddCharts(c.line())
	if err := page.Render(file); err != nil {
		return fmt.Errorf("save: could not render chart: %w", err)
	}
	return file.Close()
}
