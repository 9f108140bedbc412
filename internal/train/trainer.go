package train

import (
	"context"
	"math/rand"
	"time"

	"github.com/23skdu/longbow-fletch/internal/dataset"
	"github.com/23skdu/longbow-fletch/internal/device"
	"github.com/23skdu/longbow-fletch/internal/logger"
	"github.com/23skdu/longbow-fletch/internal/model"
	"github.com/23skdu/longbow-fletch/internal/num"
)

// Sink receives one metrics snapshot per epoch. Append records the values,
// Render flushes them to whatever surface the sink fronts (log line,
// Prometheus gauges, history buffer).
type Sink interface {
	Append(metrics map[string]float64)
	Render()
}

// nopSink keeps Trainer usable without an observer.
type nopSink struct{}

func (nopSink) Append(map[string]float64) {}
func (nopSink) Render()                   {}

// Trainer drives the epoch loop over encoded sequences.
type Trainer struct {
	Model          *model.LSTM
	Solver         *Solver
	Dev            *device.Context
	Sink           Sink
	Epochs         int
	BatchSize      int
	DebugGradients bool // log the gradient norm of every mini-batch

	rng *rand.Rand
	log *logger.Logger
}

func NewTrainer(m *model.LSTM, s *Solver, dev *device.Context, sink Sink, epochs, batchSize int, seed int64) *Trainer {
	if sink == nil {
		sink = nopSink{}
	}
	return &Trainer{
		Model:     m,
		Solver:    s,
		Dev:       dev,
		Sink:      sink,
		Epochs:    epochs,
		BatchSize: batchSize,
		rng:       rand.New(rand.NewSource(seed)),
		log:       logger.Log.Component("train"),
	}
}

// sequenceLoss runs one encoded sequence through the model and returns the
// mean per-position cross-entropy plus the count of correctly predicted
// positions. When g carries a tape, Backward accumulates the gradient of the
// summed per-position losses onto the parameters.
func (t *Trainer) sequenceLoss(g *num.Graph, ids []int) (meanLoss float64, correct, positions int) {
	if len(ids) < 2 {
		return 0, 0, 0
	}
	st := t.Model.NewState()
	var total float64
	for i := 0; i < len(ids)-1; i++ {
		var logits *num.Mat
		logits, st = t.Model.Step(g, ids[i], st)
		loss, _ := g.SoftmaxCrossEntropy(logits, ids[i+1])
		total += loss
		// Softmax is monotone, so the raw logits decide the prediction.
		if num.ArgMax(logits.W) == ids[i+1] {
			correct++
		}
	}
	positions = len(ids) - 1
	return total / float64(positions), correct, positions
}

// runEpoch covers one pass over seqs. When update is true each mini-batch is
// followed by a backward pass and an Adam step; otherwise the graph records
// no tape and parameters stay fixed.
func (t *Trainer) runEpoch(ctx context.Context, seqs [][]int, update bool) (avgLoss, accuracy float64, err error) {
	if len(seqs) == 0 {
		return 0, 0, nil
	}

	var rng *rand.Rand
	if update {
		rng = t.rng
	}
	batches := dataset.Batches(seqs, t.BatchSize, rng)

	var lossSum float64
	var correct, positions int
	for bi, batch := range batches {
		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		default:
		}

		g := num.NewGraph(t.Dev, update)
		for _, ids := range batch {
			l, c, p := t.sequenceLoss(g, ids)
			lossSum += l
			correct += c
			positions += p
		}
		if update {
			g.Backward()
			if t.DebugGradients {
				t.log.Debug("batch gradients", "batch", bi, "norm", GradNorm(t.Model.Params()))
			}
			t.Solver.Step(t.Model.Params())
		}
	}

	avgLoss = lossSum / float64(len(seqs))
	if positions > 0 {
		accuracy = float64(correct) / float64(positions)
	}
	return avgLoss, accuracy, nil
}

// Run executes the configured number of epochs over the train split,
// validating after each one. With Epochs == 0 the parameters are never
// touched. Cancellation is honoured between mini-batches.
func (t *Trainer) Run(ctx context.Context, trainSet, valSet [][]int) error {
	t.log.Info("training started",
		"epochs", t.Epochs,
		"train_sequences", len(trainSet),
		"val_sequences", len(valSet),
		"batch_size", t.BatchSize,
		"parameters", t.Model.NumParams())

	for epoch := 1; epoch <= t.Epochs; epoch++ {
		start := time.Now()

		trainLoss, trainAcc, err := t.runEpoch(ctx, trainSet, true)
		if err != nil {
			return err
		}
		valLoss, valAcc, err := t.runEpoch(ctx, valSet, false)
		if err != nil {
			return err
		}

		t.Sink.Append(map[string]float64{
			"epoch":        float64(epoch),
			"loss":         trainLoss,
			"accuracy":     trainAcc,
			"val_loss":     valLoss,
			"val_accuracy": valAcc,
			"duration_ms":  float64(time.Since(start).Milliseconds()),
		})
		t.Sink.Render()
	}
	return nil
}
