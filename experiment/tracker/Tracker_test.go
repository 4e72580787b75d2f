package tracker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/forwardsarsa/timestep"
)

func episodes() []timestep.Episode {
	return []timestep.Episode{
		{Number: 0, Project: "house", Steps: 8, Makespan: 9},
		{Number: 1, Project: "bridge", Steps: 12, Makespan: 20},
		{Number: 2, Project: "house", Steps: 8, Makespan: 7},
		{Number: 3, Project: "bridge", Steps: 11, Makespan: 18},
	}
}

func TestMakespanSaveLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "makespan.bin")
	m := NewMakespan(filename)
	for _, e := range episodes() {
		m.Track(e)
	}
	require.NoError(t, m.Save())

	data, err := LoadData[float64](filename)
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 20, 7, 18}, data)
	assert.Equal(t, data, m.Data())
}

func TestEpisodeLengthSaveLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "lengths.bin")
	e := NewEpisodeLength(filename)
	for _, ep := range episodes() {
		e.Track(ep)
	}
	require.NoError(t, e.Save())

	data, err := LoadData[int](filename)
	require.NoError(t, err)
	assert.Equal(t, []int{8, 12, 8, 11}, data)
}

func TestRegister(t *testing.T) {
	m := NewMakespan(filepath.Join(t.TempDir(), "house.bin"))
	registered := Register(m, "house")
	for _, e := range episodes() {
		registered.Track(e)
	}
	assert.Equal(t, []float64{9, 7}, m.Data())
	assert.NoError(t, registered.Save())
}

func TestChartRenders(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "charts", "curve.html")
	c := NewChart("training", filename)
	for _, e := range episodes() {
		c.Track(e)
	}
	require.NoError(t, c.Save())

	html, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(html), "house"))
	assert.True(t, strings.Contains(string(html), "bridge"))
}

func TestLoadDataMissing(t *testing.T) {
	_, err := LoadData[float64](filepath.Join(t.TempDir(), "none.bin"))
	assert.Error(t, err)
}
