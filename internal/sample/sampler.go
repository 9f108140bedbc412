package sample

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/23skdu/longbow-fletch/internal/device"
	"github.com/23skdu/longbow-fletch/internal/logger"
	"github.com/23skdu/longbow-fletch/internal/model"
	"github.com/23skdu/longbow-fletch/internal/num"
	"github.com/23skdu/longbow-fletch/internal/vocab"
)

// Sampler generates text one character at a time by feeding the model its
// own output. Draws come from a seeded source so runs are reproducible.
type Sampler struct {
	Model  *model.LSTM
	Vocab  *vocab.Table
	Dev    *device.Context
	MaxLen int
	Debug  bool // log every draw

	rng *rand.Rand
	log *logger.Logger
}

func New(m *model.LSTM, v *vocab.Table, dev *device.Context, maxLen int, seed int64) *Sampler {
	return &Sampler{
		Model:  m,
		Vocab:  v,
		Dev:    dev,
		MaxLen: maxLen,
		rng:    rand.New(rand.NewSource(seed)),
		log:    logger.Log.Component("sample"),
	}
}

// Reshape applies temperature to a probability distribution: each probability
// is raised to 1/temperature and the result renormalized. Values below 1
// sharpen the distribution toward its mode, values above 1 flatten it, and 1
// returns the distribution unchanged. Temperature 0 is the caller's argmax
// case and must not reach here.
func Reshape(probs []float64, temperature float64) []float64 {
	out := make([]float64, len(probs))
	if temperature == 1 {
		copy(out, probs)
		return out
	}
	// Work in log space: p^(1/T) spans hundreds of orders of magnitude at
	// low temperatures and underflows float64 when computed directly.
	inv := 1.0 / temperature
	max := math.Inf(-1)
	for i, p := range probs {
		out[i] = math.Log(p) * inv
		if out[i] > max {
			max = out[i]
		}
	}
	sum := 0.0
	for i := range out {
		out[i] = math.Exp(out[i] - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// draw picks an index from a normalized distribution.
func (s *Sampler) draw(probs []float64) int {
	r := s.rng.Float64()
	cum := 0.0
	for i, p := range probs {
		cum += p
		if r < cum {
			return i
		}
	}
	return len(probs) - 1
}

// Generate continues prefix with up to maxNew model-chosen characters.
// Generation stops early when the model emits either sentinel. With
// temperature 0 every step takes the most likely character; otherwise the
// next character is drawn from the temperature-reshaped distribution.
// Unknown characters in the prefix are an error.
func (s *Sampler) Generate(prefix string, maxNew int, temperature float64) (string, error) {
	if temperature < 0 {
		return "", fmt.Errorf("sample: temperature %v must be non-negative", temperature)
	}

	ids, err := s.Vocab.Encode(prefix, s.MaxLen, false)
	if err != nil {
		return "", fmt.Errorf("sample: encode prefix: %w", err)
	}
	if maxNew <= 0 {
		return prefix, nil
	}

	g := num.NewGraph(s.Dev, false)
	st := s.Model.NewState()
	var logits *num.Mat
	for _, id := range ids {
		logits, st = s.Model.Step(g, id, st)
	}

	var b strings.Builder
	b.WriteString(prefix)
	for i := 0; i < maxNew; i++ {
		probs := num.Softmax(logits.W)

		var next int
		if temperature == 0 {
			next = num.ArgMax(probs)
		} else {
			next = s.draw(Reshape(probs, temperature))
		}
		if s.Debug {
			s.log.Debug("drew character", "step", i, "id", next, "prob", probs[next])
		}
		// Either sentinel ends generation: a begin sentinel mid-stream
		// carries no character and would only burn budget.
		if next == s.Vocab.EndID() || next == s.Vocab.BeginID() {
			break
		}
		if r, ok := s.Vocab.Char(next); ok {
			b.WriteRune(r)
		}
		logits, st = s.Model.Step(g, next, st)
	}
	return b.String(), nil
}
