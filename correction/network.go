package correction

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"heatsink/thermal"
)

// LayerSizes 输入 7 维特征，三个 tanh 隐藏层，线性输出
var LayerSizes = []int{thermal.FeatureCount, 64, 64, 32, 1}

// Layer is one affine map, W is out×in.
type Layer struct {
	W *mat.Dense
	B *mat.VecDense
}

type Network struct {
	Layers []Layer
}

// NewNetwork draws weights and biases uniformly in ±1/sqrt(fan_in).
func NewNetwork(rng *rand.Rand) *Network {
	n := &Network{Layers: make([]Layer, len(LayerSizes)-1)}
	for i := range n.Layers {
		in, out := LayerSizes[i], LayerSizes[i+1]
		bound := 1 / math.Sqrt(float64(in))
		w := make([]float64, out*in)
		for j := range w {
			w[j] = (2*rng.Float64() - 1) * bound
		}
		b := make([]float64, out)
		for j := range b {
			b[j] = (2*rng.Float64() - 1) * bound
		}
		n.Layers[i] = Layer{W: mat.NewDense(out, in, w), B: mat.NewVecDense(out, b)}
	}
	return n
}

func (n *Network) checkShape() error {
	if len(n.Layers) != len(LayerSizes)-1 {
		return fmt.Errorf("expected %d layers, got %d", len(LayerSizes)-1, len(n.Layers))
	}
	for i, l := range n.Layers {
		if l.W == nil || l.B == nil {
			return fmt.Errorf("layer %d is missing parameters", i)
		}
		r, c := l.W.Dims()
		if r != LayerSizes[i+1] || c != LayerSizes[i] {
			return fmt.Errorf("layer %d weight is %dx%d, want %dx%d", i, r, c, LayerSizes[i+1], LayerSizes[i])
		}
		if l.B.Len() != LayerSizes[i+1] {
			return fmt.Errorf("layer %d bias has %d entries, want %d", i, l.B.Len(), LayerSizes[i+1])
		}
		if !finiteMatrix(l.W) || !finiteMatrix(l.B) {
			return fmt.Errorf("layer %d has non-finite parameters", i)
		}
	}
	return nil
}

// outputBound is the largest |logit| the last layer can produce given that
// every hidden activation lies in [-1, 1].
func (n *Network) outputBound() float64 {
	last := n.Layers[len(n.Layers)-1]
	bound := math.Abs(last.B.AtVec(0))
	_, c := last.W.Dims()
	for j := 0; j < c; j++ {
		bound += math.Abs(last.W.At(0, j))
	}
	return bound
}

// Logit runs the network on one normalized feature vector.
func (n *Network) Logit(x []float64) float64 {
	v := mat.NewVecDense(len(x), append([]float64(nil), x...))
	for i, l := range n.Layers {
		z := mat.NewVecDense(l.B.Len(), nil)
		z.MulVec(l.W, v)
		z.AddVec(z, l.B)
		if i < len(n.Layers)-1 {
			for j := 0; j < z.Len(); j++ {
				z.SetVec(j, math.Tanh(z.AtVec(j)))
			}
		}
		v = z
	}
	return v.AtVec(0)
}

func finiteMatrix(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
