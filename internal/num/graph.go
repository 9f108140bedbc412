package num

import (
	"fmt"
	"math"

	"github.com/23skdu/longbow-fletch/internal/device"
)

// Graph records forward operations and their backward closures. Calling
// Backward replays the tape in reverse, accumulating gradients into each
// participating Mat. A graph built with needsGrad=false records nothing and
// is safe for inference.
type Graph struct {
	needsGrad bool
	tape      []func()
	dev       *device.Context
}

func NewGraph(dev *device.Context, needsGrad bool) *Graph {
	if dev == nil {
		dev = device.Detect()
	}
	return &Graph{needsGrad: needsGrad, dev: dev}
}

func (g *Graph) Backward() {
	for i := len(g.tape) - 1; i >= 0; i-- {
		g.tape[i]()
	}
}

func (g *Graph) push(f func()) {
	if g.needsGrad {
		g.tape = append(g.tape, f)
	}
}

// Add returns m1 + m2 element-wise.
func (g *Graph) Add(m1, m2 *Mat) *Mat {
	if m1.N != m2.N || m1.D != m2.D {
		panic(fmt.Sprintf("num: Add shape mismatch %dx%d vs %dx%d", m1.N, m1.D, m2.N, m2.D))
	}
	out := NewMat(m1.N, m1.D)
	for i := range m1.W {
		out.W[i] = m1.W[i] + m2.W[i]
	}
	g.push(func() {
		for i := range m1.W {
			m1.Dw[i] += out.Dw[i]
			m2.Dw[i] += out.Dw[i]
		}
	})
	return out
}

// Mul returns the matrix product m1 * m2. Forward work is split across the
// device workers by output row; backward stays serial since both operand
// gradient buffers are shared across rows.
func (g *Graph) Mul(m1, m2 *Mat) *Mat {
	if m1.D != m2.N {
		panic(fmt.Sprintf("num: Mul shape mismatch %dx%d vs %dx%d", m1.N, m1.D, m2.N, m2.D))
	}
	n, k, d := m1.N, m1.D, m2.D
	out := NewMat(n, d)
	g.dev.ParallelFor(n, func(start, end int) {
		for row := start; row < end; row++ {
			for col := 0; col < d; col++ {
				sum := 0.0
				for l := 0; l < k; l++ {
					sum += m1.W[row*k+l] * m2.W[l*d+col]
				}
				out.W[row*d+col] = sum
			}
		}
	})
	g.push(func() {
		for row := 0; row < n; row++ {
			for col := 0; col < d; col++ {
				grad := out.Dw[row*d+col]
				if grad == 0 {
					continue
				}
				for l := 0; l < k; l++ {
					m1.Dw[row*k+l] += m2.W[l*d+col] * grad
					m2.Dw[l*d+col] += m1.W[row*k+l] * grad
				}
			}
		}
	})
	return out
}

// Eltmul returns m1 ∘ m2 (Hadamard product).
func (g *Graph) Eltmul(m1, m2 *Mat) *Mat {
	if m1.N != m2.N || m1.D != m2.D {
		panic(fmt.Sprintf("num: Eltmul shape mismatch %dx%d vs %dx%d", m1.N, m1.D, m2.N, m2.D))
	}
	out := NewMat(m1.N, m1.D)
	for i := range m1.W {
		out.W[i] = m1.W[i] * m2.W[i]
	}
	g.push(func() {
		for i := range m1.W {
			m1.Dw[i] += m2.W[i] * out.Dw[i]
			m2.Dw[i] += m1.W[i] * out.Dw[i]
		}
	})
	return out
}

// Tanh applies tanh element-wise.
func (g *Graph) Tanh(m *Mat) *Mat {
	out := NewMat(m.N, m.D)
	for i := range m.W {
		out.W[i] = math.Tanh(m.W[i])
	}
	g.push(func() {
		for i := range m.W {
			m.Dw[i] += (1.0 - out.W[i]*out.W[i]) * out.Dw[i]
		}
	})
	return out
}

// Sigmoid applies the logistic function element-wise.
func (g *Graph) Sigmoid(m *Mat) *Mat {
	out := NewMat(m.N, m.D)
	for i := range m.W {
		out.W[i] = 1.0 / (1.0 + math.Exp(-m.W[i]))
	}
	g.push(func() {
		for i := range m.W {
			m.Dw[i] += out.W[i] * (1.0 - out.W[i]) * out.Dw[i]
		}
	})
	return out
}

// Lookup extracts row id of an embedding table as a column vector.
func (g *Graph) Lookup(table *Mat, id int) *Mat {
	if id < 0 || id >= table.N {
		panic(fmt.Sprintf("num: Lookup id %d out of range for %d rows", id, table.N))
	}
	d := table.D
	out := NewMat(d, 1)
	copy(out.W, table.W[id*d:(id+1)*d])
	g.push(func() {
		for i := 0; i < d; i++ {
			table.Dw[id*d+i] += out.Dw[i]
		}
	})
	return out
}

// SoftmaxCrossEntropy computes -log(softmax(logits)[target]) for a logits
// column vector and seeds the backward pass with the fused softmax +
// cross-entropy gradient (probs minus one-hot). It returns the loss and the
// probability the model assigned to the target.
func (g *Graph) SoftmaxCrossEntropy(logits *Mat, target int) (float64, float64) {
	if logits.D != 1 {
		panic(fmt.Sprintf("num: SoftmaxCrossEntropy expects a column vector, got %dx%d", logits.N, logits.D))
	}
	if target < 0 || target >= logits.N {
		panic(fmt.Sprintf("num: target %d out of range for %d logits", target, logits.N))
	}
	probs := Softmax(logits.W)
	p := probs[target]
	loss := -math.Log(p + 1e-12)
	g.push(func() {
		for i := range probs {
			d := probs[i]
			if i == target {
				d -= 1.0
			}
			logits.Dw[i] += d
		}
	})
	return loss, p
}

// Softmax returns the normalized exponential of x as a fresh slice.
// Max-subtraction keeps the exponentials finite for large logits.
func Softmax(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	max := x[0]
	for _, v := range x {
		if v > max {
			max = v
		}
	}
	sum := 0.0
	for i, v := range x {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	if sum > 0 {
		inv := 1.0 / sum
		for i := range out {
			out[i] *= inv
		}
	}
	return out
}

// ArgMax returns the index of the largest value.
func ArgMax(x []float64) int {
	if len(x) == 0 {
		panic("num: ArgMax of empty slice")
	}
	maxIdx := 0
	maxVal := x[0]
	for i, v := range x {
		if v > maxVal {
			maxVal = v
			maxIdx = i
		}
	}
	return maxIdx
}
