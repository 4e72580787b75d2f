package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a multi-layered perceptron with a single output node
// and a batch size of 1
type mlp struct {
	g        *G.ExprGraph
	layers   []*fcLayer
	input    *G.Node
	features int

	learnables G.Nodes

	prediction *G.Node
	predVal    G.Value
}

// newMLP creates a new MLP on the graph g with len(hiddenSizes) hidden
// layers followed by a linear output layer with a bias unit.
//
// For index i, hiddenSizes[i] is the number of nodes in hidden layer i,
// biases[i] is true if hidden layer i has a bias unit, and
// activations[i] is its activation function.
func newMLP(g *G.ExprGraph, features int, hiddenSizes []int, biases []bool,
	activations []*Activation, init G.InitWFn) (*mlp, error) {
	if features < 1 {
		return nil, fmt.Errorf("newmlp: features must be positive "+
			"\n\thave(%v)", features)
	}

	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "newmlp: invalid number of activations\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	// Ensure one bias bool per layer
	if len(hiddenSizes) != len(biases) {
		msg := "newmlp: invalid number of biases\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(1, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	layers := make([]*fcLayer, 0, len(hiddenSizes)+1)
	in := features
	for i, out := range hiddenSizes {
		if out < 1 {
			return nil, fmt.Errorf("newmlp: hidden layer %v must have "+
				"positive size \n\thave(%v)", i, out)
		}
		layers = append(layers, newFCLayer(g, in, out, biases[i],
			activations[i], init, fmt.Sprintf("L%v", i)))
		in = out
	}
	layers = append(layers, newFCLayer(g, in, 1, true, Identity(), init,
		"Output"))

	net := &mlp{
		g:        g,
		layers:   layers,
		input:    input,
		features: features,
	}

	for _, l := range layers {
		net.learnables = append(net.learnables, l.learnables()...)
	}

	if err := net.fwd(); err != nil {
		return nil, fmt.Errorf("newmlp: could not compute forward pass: %v",
			err)
	}
	return net, nil
}

// fwd performs the forward pass of the MLP on its input node
func (m *mlp) fwd() error {
	pred := m.input
	var err error
	for i, l := range m.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "fwd: could not compute forward pass of layer %v: %v"
			return fmt.Errorf(msg, i, err)
		}
	}

	m.prediction = pred
	G.Read(m.prediction, &m.predVal)
	return nil
}

// setInput sets the value of the input node before running the forward
// pass
func (m *mlp) setInput(input []float64) error {
	if len(input) != m.features {
		return fmt.Errorf("setinput: %w \n\twant(%v) \n\thave(%v)",
			ErrInputSize, m.features, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(m.input.Shape()...),
	)
	return G.Let(m.input, inputTensor)
}

// output returns the scalar prediction of the last forward pass
func (m *mlp) output() (float64, error) {
	if m.predVal == nil {
		return 0, fmt.Errorf("output: forward pass has not been run")
	}

	switch data := m.predVal.Data().(type) {
	case []float64:
		if len(data) != 1 {
			return 0, fmt.Errorf("output: expected a single prediction "+
				"\n\thave(%v)", len(data))
		}
		return data[0], nil
	case float64:
		return data, nil
	default:
		return 0, fmt.Errorf("output: unexpected prediction type %T", data)
	}
}

// model returns the learnables nodes with their gradients
func (m *mlp) model() []G.ValueGrad {
	model := make([]G.ValueGrad, len(m.learnables))
	for i, node := range m.learnables {
		model[i] = node
	}
	return model
}

// weights returns a copy of the values of all learnable nodes
func (m *mlp) weights() ([][]float64, error) {
	out := make([][]float64, len(m.learnables))
	for i, node := range m.learnables {
		data, err := nodeData(node)
		if err != nil {
			return nil, fmt.Errorf("weights: %v", err)
		}
		out[i] = append([]float64(nil), data...)
	}
	return out, nil
}

// setWeights copies weights into the learnable nodes in place, keeping
// the values bound to the graph
func (m *mlp) setWeights(weights [][]float64) error {
	if len(weights) != len(m.learnables) {
		return fmt.Errorf("setweights: invalid number of weight tensors "+
			"\n\twant(%v) \n\thave(%v)", len(m.learnables), len(weights))
	}

	for i, node := range m.learnables {
		data, err := nodeData(node)
		if err != nil {
			return fmt.Errorf("setweights: %v", err)
		}
		if len(data) != len(weights[i]) {
			return fmt.Errorf("setweights: invalid size for %v "+
				"\n\twant(%v) \n\thave(%v)", node.Name(), len(data),
				len(weights[i]))
		}
		copy(data, weights[i])
	}
	return nil
}

// set copies the weights of source into m in place
func (m *mlp) set(source *mlp) error {
	if len(source.learnables) != len(m.learnables) {
		return fmt.Errorf("set: networks have different architectures")
	}

	for i, node := range m.learnables {
		dst, err := nodeData(node)
		if err != nil {
			return fmt.Errorf("set: %v", err)
		}
		src, err := nodeData(source.learnables[i])
		if err != nil {
			return fmt.Errorf("set: %v", err)
		}
		copy(dst, src)
	}
	return nil
}

// nodeData returns the backing data of the value of a node
func nodeData(node *G.Node) ([]float64, error) {
	if node.Value() == nil {
		return nil, fmt.Errorf("node %v has no value", node.Name())
	}
	data, ok := node.Value().Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("node %v does not hold float64 tensor",
			node.Name())
	}
	return data, nil
}
