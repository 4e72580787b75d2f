package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
)

func TestCreate(t *testing.T) {
	tests := []struct {
		config Config
		want   G.Solver
	}{
		{DefaultAdam(1e-3), &G.AdamSolver{}},
		{Config{Type: Vanilla, StepSize: 0.1, Clip: 1}, &G.VanillaSolver{}},
		{Config{Type: RMSProp, StepSize: 0.01, Rho: 0.9}, &G.RMSPropSolver{}},
	}

	for _, test := range tests {
		t.Run(string(test.config.Type), func(t *testing.T) {
			s, err := test.config.Create()
			require.NoError(t, err)
			assert.IsType(t, test.want, s)
		})
	}
}

func TestCreateInvalid(t *testing.T) {
	_, err := Config{Type: "Momentum", StepSize: 0.1}.Create()
	assert.Error(t, err)

	_, err = Config{Type: Adam}.Create()
	assert.Error(t, err)
}
