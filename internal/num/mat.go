package num

import (
	"fmt"
	"math/rand"
)

// Mat is a dense row-major float64 matrix carrying its own gradient buffer.
// Parameter matrices have D == their feature width; activations flowing
// through the graph are column vectors (D == 1).
type Mat struct {
	N  int // rows
	D  int // cols
	W  []float64
	Dw []float64
}

func NewMat(n, d int) *Mat {
	if n < 0 || d < 0 {
		panic(fmt.Sprintf("num: invalid matrix shape %dx%d", n, d))
	}
	return &Mat{
		N:  n,
		D:  d,
		W:  make([]float64, n*d),
		Dw: make([]float64, n*d),
	}
}

// NewRandMat fills a matrix with Gaussian noise scaled by stddev. The rng is
// passed in so runs are reproducible from a single seed.
func NewRandMat(n, d int, stddev float64, rng *rand.Rand) *Mat {
	m := NewMat(n, d)
	for i := range m.W {
		m.W[i] = rng.NormFloat64() * stddev
	}
	return m
}

func (m *Mat) Get(row, col int) float64 {
	return m.W[row*m.D+col]
}

func (m *Mat) Set(row, col int, v float64) {
	m.W[row*m.D+col] = v
}

func (m *Mat) ZeroGrad() {
	for i := range m.Dw {
		m.Dw[i] = 0
	}
}

// Clone copies weights only; the clone starts with zero gradients.
func (m *Mat) Clone() *Mat {
	c := NewMat(m.N, m.D)
	copy(c.W, m.W)
	return c
}
