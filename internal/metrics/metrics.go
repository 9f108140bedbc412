package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EpochsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "train_epochs_total",
		Help: "The total number of completed training epochs",
	})

	EpochDuration = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "train_epoch_duration_seconds",
		Help: "Duration of training epochs",
	})

	TrainLoss = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "train_loss",
		Help: "Mean cross-entropy loss over the training split for the last epoch",
	})

	TrainAccuracy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "train_accuracy",
		Help: "Next-character prediction accuracy over the training split",
	})

	ValLoss = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "val_loss",
		Help: "Mean cross-entropy loss over the validation split for the last epoch",
	})

	ValAccuracy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "val_accuracy",
		Help: "Next-character prediction accuracy over the validation split",
	})

	CorpusLines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "corpus_lines",
		Help: "Number of command lines in the training corpus",
	})

	CorpusChars = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "corpus_chars",
		Help: "Total characters in the training corpus",
	})

	VocabSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vocab_size",
		Help: "Vocabulary size including the two sentinel IDs",
	})

	ModelParameters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "model_parameters",
		Help: "Number of trainable model parameters",
	})

	EncodeDroppedChars = promauto.NewCounter(prometheus.CounterOpts{
		Name: "encode_dropped_chars_total",
		Help: "Characters dropped during encoding because they were not in the vocabulary",
	})

	GeneratedChars = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sample_generated_chars_total",
		Help: "The total number of characters generated by sampling",
	})

	SampleDuration = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "sample_duration_seconds",
		Help: "Duration of sampling calls",
	})

	SampleTemperature = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sample_temperature",
		Help:    "Temperature values used for sampling",
		Buckets: []float64{0, 0.1, 0.25, 0.5, 0.7, 1.0, 1.5, 2.0},
	})
)

// RecordCorpus records corpus-level gauges after loading and parsing.
func RecordCorpus(lines, chars int) {
	CorpusLines.Set(float64(lines))
	CorpusChars.Set(float64(chars))
}

// RecordModel records vocabulary and parameter counts once at startup.
func RecordModel(vocabSize, parameters int) {
	VocabSize.Set(float64(vocabSize))
	ModelParameters.Set(float64(parameters))
}

// RecordEncodeDropped counts characters lost to lossy encoding.
func RecordEncodeDropped(n int) {
	if n > 0 {
		EncodeDroppedChars.Add(float64(n))
	}
}

// RecordSample records one sampling call.
func RecordSample(generated int, temperature float64, duration time.Duration) {
	GeneratedChars.Add(float64(generated))
	SampleTemperature.Observe(temperature)
	SampleDuration.Observe(duration.Seconds())
}
