package metrics

import (
	"github.com/23skdu/longbow-fletch/internal/logger"
)

// EpochSink receives per-epoch training metrics, mirrors them into the
// Prometheus collectors, and keeps every snapshot for later export.
type EpochSink struct {
	log     *logger.Logger
	history []map[string]float64
	pending map[string]float64
}

func NewEpochSink() *EpochSink {
	return &EpochSink{log: logger.Log.Component("train")}
}

// Append records one epoch snapshot.
func (s *EpochSink) Append(m map[string]float64) {
	snap := make(map[string]float64, len(m))
	for k, v := range m {
		snap[k] = v
	}
	s.history = append(s.history, snap)
	s.pending = snap

	EpochsTotal.Inc()
	if v, ok := snap["duration_ms"]; ok {
		EpochDuration.Observe(v / 1000.0)
	}
	if v, ok := snap["loss"]; ok {
		TrainLoss.Set(v)
	}
	if v, ok := snap["accuracy"]; ok {
		TrainAccuracy.Set(v)
	}
	if v, ok := snap["val_loss"]; ok {
		ValLoss.Set(v)
	}
	if v, ok := snap["val_accuracy"]; ok {
		ValAccuracy.Set(v)
	}
}

// Render emits the most recent snapshot as a single log line.
func (s *EpochSink) Render() {
	if s.pending == nil {
		return
	}
	s.log.Info("epoch complete",
		"epoch", int(s.pending["epoch"]),
		"loss", s.pending["loss"],
		"accuracy", s.pending["accuracy"],
		"val_loss", s.pending["val_loss"],
		"val_accuracy", s.pending["val_accuracy"],
		"duration_ms", s.pending["duration_ms"])
	s.pending = nil
}

// History returns every appended snapshot in epoch order.
func (s *EpochSink) History() []map[string]float64 {
	return s.history
}
