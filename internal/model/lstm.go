package model

import (
	"math/rand"

	"github.com/23skdu/longbow-fletch/internal/num"
)

const initScale = 0.08

// LSTM is a character-level sequence model: embedding table, one LSTM layer
// processed strictly left to right, and a linear projection back to
// vocabulary-size logits at every position.
type LSTM struct {
	VocabSize int
	EmbedDim  int
	HiddenDim int

	embed *num.Mat // [vocab x embed]

	wix, wih, bi *num.Mat // input gate
	wfx, wfh, bf *num.Mat // forget gate
	wox, woh, bo *num.Mat // output gate
	wcx, wch, bc *num.Mat // cell candidate

	wout, bout *num.Mat // projection to logits
}

// Param pairs a parameter matrix with a stable name for the solver.
type Param struct {
	Name string
	M    *num.Mat
}

// New builds a randomly initialized model. All randomness flows through the
// supplied rng so a fixed seed reproduces the exact same weights.
func New(vocabSize, embedDim, hiddenDim int, rng *rand.Rand) *LSTM {
	m := &LSTM{
		VocabSize: vocabSize,
		EmbedDim:  embedDim,
		HiddenDim: hiddenDim,

		embed: num.NewRandMat(vocabSize, embedDim, initScale, rng),

		wix: num.NewRandMat(hiddenDim, embedDim, initScale, rng),
		wih: num.NewRandMat(hiddenDim, hiddenDim, initScale, rng),
		bi:  num.NewMat(hiddenDim, 1),

		wfx: num.NewRandMat(hiddenDim, embedDim, initScale, rng),
		wfh: num.NewRandMat(hiddenDim, hiddenDim, initScale, rng),
		bf:  num.NewMat(hiddenDim, 1),

		wox: num.NewRandMat(hiddenDim, embedDim, initScale, rng),
		woh: num.NewRandMat(hiddenDim, hiddenDim, initScale, rng),
		bo:  num.NewMat(hiddenDim, 1),

		wcx: num.NewRandMat(hiddenDim, embedDim, initScale, rng),
		wch: num.NewRandMat(hiddenDim, hiddenDim, initScale, rng),
		bc:  num.NewMat(hiddenDim, 1),

		wout: num.NewRandMat(vocabSize, hiddenDim, initScale, rng),
		bout: num.NewMat(vocabSize, 1),
	}

	// Positive forget-gate bias keeps early training from forgetting
	// everything before the gates have learned anything.
	for i := range m.bf.W {
		m.bf.W[i] = 1.0
	}
	return m
}

// State carries the hidden and cell vectors between steps.
type State struct {
	H *num.Mat
	C *num.Mat
}

// NewState returns the zero state a sequence starts from.
func (m *LSTM) NewState() *State {
	return &State{
		H: num.NewMat(m.HiddenDim, 1),
		C: num.NewMat(m.HiddenDim, 1),
	}
}

// Step advances the recurrence by one character and returns the logits
// column for the next-character distribution plus the successor state.
func (m *LSTM) Step(g *num.Graph, id int, st *State) (*num.Mat, *State) {
	x := g.Lookup(m.embed, id)

	igate := g.Sigmoid(g.Add(g.Add(g.Mul(m.wix, x), g.Mul(m.wih, st.H)), m.bi))
	fgate := g.Sigmoid(g.Add(g.Add(g.Mul(m.wfx, x), g.Mul(m.wfh, st.H)), m.bf))
	ogate := g.Sigmoid(g.Add(g.Add(g.Mul(m.wox, x), g.Mul(m.woh, st.H)), m.bo))
	cand := g.Tanh(g.Add(g.Add(g.Mul(m.wcx, x), g.Mul(m.wch, st.H)), m.bc))

	c := g.Add(g.Eltmul(fgate, st.C), g.Eltmul(igate, cand))
	h := g.Eltmul(ogate, g.Tanh(c))

	logits := g.Add(g.Mul(m.wout, h), m.bout)
	return logits, &State{H: h, C: c}
}

// Forward runs the full sequence and returns one logits column per input
// position: output t is the distribution over the character at position t+1.
func (m *LSTM) Forward(g *num.Graph, ids []int) []*num.Mat {
	st := m.NewState()
	logits := make([]*num.Mat, len(ids))
	for t, id := range ids {
		logits[t], st = m.Step(g, id, st)
	}
	return logits
}

// Params returns every trainable matrix in a stable order.
func (m *LSTM) Params() []Param {
	return []Param{
		{"embed", m.embed},
		{"wix", m.wix}, {"wih", m.wih}, {"bi", m.bi},
		{"wfx", m.wfx}, {"wfh", m.wfh}, {"bf", m.bf},
		{"wox", m.wox}, {"woh", m.woh}, {"bo", m.bo},
		{"wcx", m.wcx}, {"wch", m.wch}, {"bc", m.bc},
		{"wout", m.wout}, {"bout", m.bout},
	}
}

// NumParams counts scalar parameters.
func (m *LSTM) NumParams() int {
	total := 0
	for _, p := range m.Params() {
		total += len(p.M.W)
	}
	return total
}
