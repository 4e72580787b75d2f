// Package network implements the neural network function approximators
// used to estimate action values.
package network

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"sync"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/forwardsarsa/initwfn"
	"github.com/samuelfneumann/forwardsarsa/solver"
)

var (
	// ErrInputSize is returned when an input does not have the number of
	// features the network was built for
	ErrInputSize = errors.New("invalid input size")

	// ErrNonFinite is returned when an input, target or prediction is
	// NaN or infinite
	ErrNonFinite = errors.New("non-finite value")
)

// Config describes the architecture and training of a Regressor
type Config struct {
	HiddenSizes []int          `yaml:"hidden_sizes" validate:"dive,gt=0"`
	Activations []string       `yaml:"activations" validate:"dive,oneof=relu tanh sigmoid identity"`
	Init        initwfn.Config `yaml:"init"`
	Solver      solver.Config  `yaml:"solver"`
}

// DefaultConfig returns a network with two hidden ReLU layers of 64
// units trained with Adam
func DefaultConfig() Config {
	return Config{
		HiddenSizes: []int{64, 64},
		Activations: []string{"relu", "relu"},
		Init:        initwfn.DefaultConfig(),
		Solver:      solver.DefaultAdam(1e-3),
	}
}

// Regressor is an MLP predicting a single value from a feature vector,
// trained online one sample at a time on the squared error.
//
// Two copies of the network are kept: one on a training graph with
// gradients, and a forward-only copy used for predictions whose weights
// are refreshed after every update. Calls to Predict and Fit are
// serialised, so a Regressor may be shared between goroutines.
type Regressor struct {
	mu sync.Mutex

	config   Config
	features int

	trainNet *mlp
	trainVM  G.VM
	target   *G.Node
	solver   G.Solver

	predNet *mlp
	predVM  G.VM
}

// NewRegressor returns a new Regressor taking inputs with the given
// number of features
func NewRegressor(features int, config Config) (*Regressor, error) {
	activations := make([]*Activation, len(config.Activations))
	for i, name := range config.Activations {
		act, err := ParseActivation(name)
		if err != nil {
			return nil, fmt.Errorf("newregressor: %v", err)
		}
		activations[i] = act
	}
	biases := make([]bool, len(config.HiddenSizes))
	for i := range biases {
		biases[i] = true
	}

	init, err := config.Init.Create()
	if err != nil {
		return nil, fmt.Errorf("newregressor: %v", err)
	}
	s, err := config.Solver.Create()
	if err != nil {
		return nil, fmt.Errorf("newregressor: %v", err)
	}

	// Training graph
	gTrain := G.NewGraph()
	trainNet, err := newMLP(gTrain, features, config.HiddenSizes, biases,
		activations, init)
	if err != nil {
		return nil, fmt.Errorf("newregressor: could not create training "+
			"network: %v", err)
	}

	target := G.NewMatrix(gTrain, tensor.Float64, G.WithShape(1, 1),
		G.WithName("target"), G.WithInit(G.Zeroes()))
	losses := G.Must(G.Sub(trainNet.prediction, target))
	losses = G.Must(G.Square(losses))
	cost := G.Must(G.Mean(losses))

	if _, err := G.Grad(cost, trainNet.learnables...); err != nil {
		return nil, fmt.Errorf("newregressor: could not compute "+
			"gradient: %v", err)
	}
	trainVM := G.NewTapeMachine(gTrain,
		G.BindDualValues(trainNet.learnables...))

	// Prediction graph
	gPred := G.NewGraph()
	predNet, err := newMLP(gPred, features, config.HiddenSizes, biases,
		activations, G.Zeroes())
	if err != nil {
		return nil, fmt.Errorf("newregressor: could not create prediction "+
			"network: %v", err)
	}
	if err := predNet.set(trainNet); err != nil {
		return nil, fmt.Errorf("newregressor: %v", err)
	}

	return &Regressor{
		config:   config,
		features: features,
		trainNet: trainNet,
		trainVM:  trainVM,
		target:   target,
		solver:   s,
		predNet:  predNet,
		predVM:   G.NewTapeMachine(gPred),
	}, nil
}

// Features returns the number of features in an input
func (r *Regressor) Features() int {
	return r.features
}

// Predict returns the prediction of the network for input x
func (r *Regressor) Predict(x mat.Vector) (float64, error) {
	input, err := r.inputData(x)
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.predNet.setInput(input); err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	defer r.predVM.Reset()
	if err := r.predVM.RunAll(); err != nil {
		return 0, fmt.Errorf("predict: could not run forward pass: %v", err)
	}

	pred, err := r.predNet.output()
	if err != nil {
		return 0, fmt.Errorf("predict: %v", err)
	}
	if math.IsNaN(pred) || math.IsInf(pred, 0) {
		return 0, fmt.Errorf("predict: %w: prediction %v", ErrNonFinite, pred)
	}
	return pred, nil
}

// Fit takes a single gradient step moving the prediction for input x
// towards y
func (r *Regressor) Fit(x mat.Vector, y float64) error {
	input, err := r.inputData(x)
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return fmt.Errorf("fit: %w: target %v", ErrNonFinite, y)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.trainNet.setInput(input); err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	targetTensor := tensor.New(
		tensor.WithBacking([]float64{y}),
		tensor.WithShape(1, 1),
	)
	if err := G.Let(r.target, targetTensor); err != nil {
		return fmt.Errorf("fit: could not set target: %v", err)
	}

	defer r.trainVM.Reset()
	if err := r.trainVM.RunAll(); err != nil {
		return fmt.Errorf("fit: could not run training pass: %v", err)
	}
	if err := r.solver.Step(r.trainNet.model()); err != nil {
		return fmt.Errorf("fit: could not step solver: %v", err)
	}

	return r.predNet.set(r.trainNet)
}

// inputData copies x into a new slice, checking its size and values
func (r *Regressor) inputData(x mat.Vector) ([]float64, error) {
	if x == nil || x.Len() != r.features {
		length := 0
		if x != nil {
			length = x.Len()
		}
		return nil, fmt.Errorf("%w \n\twant(%v) \n\thave(%v)", ErrInputSize,
			r.features, length)
	}

	data := mat.Col(nil, 0, x)
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: feature %v is %v", ErrNonFinite, i, v)
		}
	}
	return data, nil
}

// regressorState is the gob representation of a Regressor. Solver state
// such as Adam's moment estimates is not saved.
type regressorState struct {
	Features    int
	HiddenSizes []int
	Activations []string
	Init        initwfn.Config
	Solver      solver.Config
	Weights     [][]float64
}

// GobEncode implements the gob.GobEncoder interface
func (r *Regressor) GobEncode() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	weights, err := r.trainNet.weights()
	if err != nil {
		return nil, fmt.Errorf("gobencode: %v", err)
	}

	state := regressorState{
		Features:    r.features,
		HiddenSizes: r.config.HiddenSizes,
		Activations: r.config.Activations,
		Init:        r.config.Init,
		Solver:      r.config.Solver,
		Weights:     weights,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode regressor: %v",
			err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (r *Regressor) GobDecode(in []byte) error {
	var state regressorState
	if err := gob.NewDecoder(bytes.NewReader(in)).Decode(&state); err != nil {
		return fmt.Errorf("gobdecode: could not decode regressor: %v", err)
	}

	config := Config{
		HiddenSizes: state.HiddenSizes,
		Activations: state.Activations,
		Init:        state.Init,
		Solver:      state.Solver,
	}
	decoded, err := NewRegressor(state.Features, config)
	if err != nil {
		return fmt.Errorf("gobdecode: %v", err)
	}
	if err := decoded.trainNet.setWeights(state.Weights); err != nil {
		return fmt.Errorf("gobdecode: %v", err)
	}
	if err := decoded.predNet.set(decoded.trainNet); err != nil {
		return fmt.Errorf("gobdecode: %v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.config = decoded.config
	r.features = decoded.features
	r.trainNet = decoded.trainNet
	r.trainVM = decoded.trainVM
	r.target = decoded.target
	r.solver = decoded.solver
	r.predNet = decoded.predNet
	r.predVM = decoded.predVM
	return nil
}
