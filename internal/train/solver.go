package train

import (
	"math"

	"github.com/23skdu/longbow-fletch/internal/model"
)

// Solver implements Adam with bias correction and elementwise gradient
// clipping. Moments are keyed by parameter name so the update is stable
// across calls regardless of slice identity.
type Solver struct {
	LR    float64
	Beta1 float64
	Beta2 float64
	Eps   float64
	Clip  float64 // absolute per-element gradient clamp, 0 disables

	t int
	m map[string][]float64
	v map[string][]float64
}

func NewSolver(lr, clip float64) *Solver {
	return &Solver{
		LR:    lr,
		Beta1: 0.9,
		Beta2: 0.999,
		Eps:   1e-8,
		Clip:  clip,
		m:     make(map[string][]float64),
		v:     make(map[string][]float64),
	}
}

// Step applies one Adam update to every parameter and zeroes the gradients,
// so callers never carry stale gradient state into the next batch.
func (s *Solver) Step(params []model.Param) {
	s.t++
	t := float64(s.t)
	lrT := s.LR * math.Sqrt(1.0-math.Pow(s.Beta2, t)) / (1.0 - math.Pow(s.Beta1, t))

	for _, p := range params {
		mK, ok := s.m[p.Name]
		if !ok || len(mK) != len(p.M.W) {
			mK = make([]float64, len(p.M.W))
			s.m[p.Name] = mK
		}
		vK, ok := s.v[p.Name]
		if !ok || len(vK) != len(p.M.W) {
			vK = make([]float64, len(p.M.W))
			s.v[p.Name] = vK
		}

		for i := range p.M.W {
			grad := p.M.Dw[i]
			if math.IsNaN(grad) || math.IsInf(grad, 0) {
				grad = 0
			}
			if s.Clip > 0 {
				if grad > s.Clip {
					grad = s.Clip
				} else if grad < -s.Clip {
					grad = -s.Clip
				}
			}

			mK[i] = s.Beta1*mK[i] + (1.0-s.Beta1)*grad
			vK[i] = s.Beta2*vK[i] + (1.0-s.Beta2)*grad*grad

			p.M.W[i] -= lrT * mK[i] / (math.Sqrt(vK[i]) + s.Eps)
		}
		p.M.ZeroGrad()
	}
}

// Steps reports how many updates have been applied.
func (s *Solver) Steps() int {
	return s.t
}

// GradNorm returns the L2 norm over every parameter gradient, before any
// clipping. Read it after Backward and before the solver step zeroes the
// gradients.
func GradNorm(params []model.Param) float64 {
	sum := 0.0
	for _, p := range params {
		for _, g := range p.M.Dw {
			sum += g * g
		}
	}
	return math.Sqrt(sum)
}
