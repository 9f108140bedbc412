package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/23skdu/longbow-fletch/internal/config"
	"github.com/23skdu/longbow-fletch/internal/corpus"
	"github.com/23skdu/longbow-fletch/internal/dataset"
	"github.com/23skdu/longbow-fletch/internal/device"
	"github.com/23skdu/longbow-fletch/internal/history"
	"github.com/23skdu/longbow-fletch/internal/logger"
	"github.com/23skdu/longbow-fletch/internal/metrics"
	"github.com/23skdu/longbow-fletch/internal/model"
	"github.com/23skdu/longbow-fletch/internal/sample"
	"github.com/23skdu/longbow-fletch/internal/train"
	"github.com/23skdu/longbow-fletch/internal/vocab"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	corpusURL   = flag.String("corpus-url", "", "URL to fetch the command history corpus from")
	corpusFile  = flag.String("corpus-file", "", "Path to a local corpus file (takes precedence over -corpus-url)")
	cachePath   = flag.String("cache", "", "SQLite file to cache the parsed corpus in (used as fallback when fetching fails)")
	historyPath = flag.String("history", "", "Write per-epoch metrics to this file in Arrow IPC stream format")
	metricsAddr = flag.String("metrics", ":9090", "Address to serve Prometheus metrics")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat   = flag.String("log-format", "console", "Log format (console, json)")

	maxLen      = flag.Int("max-len", 0, "Fixed encoded sequence width (0 = default)")
	valFraction = flag.Float64("val-fraction", -1, "Fraction of lines held out for validation (-1 = default)")
	embedDim    = flag.Int("embed-dim", 0, "Character embedding dimension (0 = default)")
	hiddenDim   = flag.Int("hidden-dim", 0, "LSTM hidden state dimension (0 = default)")
	epochs      = flag.Int("epochs", -1, "Training epochs (-1 = default)")
	batchSize   = flag.Int("batch", 0, "Mini-batch size (0 = default)")
	learnRate   = flag.Float64("lr", 0, "Adam learning rate (0 = default)")
	seed        = flag.Int64("seed", 0, "Random seed (0 = default)")

	temperature = flag.Float64("temperature", -1, "Sampling temperature, 0 for greedy (-1 = default)")
	maxNew      = flag.Int("max-new", -1, "Maximum characters to generate per sample (-1 = default)")
	numSamples  = flag.Int("samples", 5, "Number of lines to generate after training")
	prefix      = flag.String("prefix", "", "Prefix to continue when sampling")
	workers     = flag.Int("workers", 0, "Worker goroutines for matrix kernels (0 = all CPUs)")

	debugGradients = flag.Bool("debug-gradients", false, "Log the gradient norm of every mini-batch")
	debugSampling  = flag.Bool("debug-sampling", false, "Log every character draw while sampling")
)

func buildConfig() config.Config {
	cfg := config.Default()
	if *maxLen > 0 {
		cfg.MaxLen = *maxLen
	}
	if *valFraction >= 0 {
		cfg.ValFraction = *valFraction
	}
	if *embedDim > 0 {
		cfg.EmbedDim = *embedDim
	}
	if *hiddenDim > 0 {
		cfg.HiddenDim = *hiddenDim
	}
	if *epochs >= 0 {
		cfg.Epochs = *epochs
	}
	if *batchSize > 0 {
		cfg.BatchSize = *batchSize
	}
	if *learnRate > 0 {
		cfg.LearnRate = *learnRate
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *temperature >= 0 {
		cfg.Temperature = *temperature
	}
	if *maxNew >= 0 {
		cfg.MaxNewChars = *maxNew
	}
	cfg.DebugGradients = *debugGradients
	cfg.DebugSampling = *debugSampling
	return cfg
}

// loadCorpus returns the parsed lines, preferring a local file, then the
// network, then the cache. A successful fetch refreshes the cache.
func loadCorpus(ctx context.Context, log *logger.Logger) ([]string, error) {
	var store *corpus.Store
	if *cachePath != "" {
		var err error
		store, err = corpus.OpenStore(*cachePath)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		defer store.Close()
	}

	if *corpusFile != "" {
		raw, err := corpus.ReadFile(*corpusFile)
		if err != nil {
			return nil, err
		}
		lines := corpus.Parse(raw)
		if store != nil {
			if err := store.SaveLines(*corpusFile, lines); err != nil {
				log.Warn("caching corpus failed", "error", err)
			}
		}
		return lines, nil
	}

	if *corpusURL == "" {
		return nil, fmt.Errorf("one of -corpus-file or -corpus-url is required")
	}

	raw, err := corpus.Fetch(ctx, *corpusURL)
	if err != nil {
		if store != nil {
			log.Warn("fetch failed, trying cache", "error", err)
			lines, cacheErr := store.LoadLines(*corpusURL)
			if cacheErr == nil && len(lines) > 0 {
				log.Info("corpus loaded from cache", "lines", len(lines))
				return lines, nil
			}
		}
		return nil, err
	}
	lines := corpus.Parse(raw)
	if store != nil {
		if err := store.SaveLines(*corpusURL, lines); err != nil {
			log.Warn("caching corpus failed", "error", err)
		}
	}
	return lines, nil
}

func main() {
	flag.Parse()
	logger.Setup(*logLevel, *logFormat)
	log := logger.Log.Component("fletch")

	cfg := buildConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		log.Info("metrics serving", "addr", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
			log.Error("metrics server error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lines, err := loadCorpus(ctx, log)
	if err != nil {
		log.Fatal("loading corpus failed", "error", err)
	}
	if len(lines) == 0 {
		log.Fatal("corpus is empty")
	}

	sum := corpus.Stats(lines)
	metrics.RecordCorpus(sum.Lines, sum.Chars)
	log.Info("corpus loaded",
		"lines", sum.Lines,
		"chars", sum.Chars,
		"distinct_chars", sum.DistinctChars,
		"mean_len", sum.MeanLen,
		"p90_len", sum.P90Len,
		"max_len", sum.MaxLen)

	vt := vocab.Build(lines)
	dev := device.NewContext(*workers)
	rng := rand.New(rand.NewSource(cfg.Seed))
	m := model.New(vt.Size(), cfg.EmbedDim, cfg.HiddenDim, rng)
	metrics.RecordModel(vt.Size(), m.NumParams())
	log.Info("model initialized",
		"vocab_size", vt.Size(),
		"embed_dim", cfg.EmbedDim,
		"hidden_dim", cfg.HiddenDim,
		"parameters", m.NumParams(),
		"device", dev.Name(),
		"workers", dev.Workers())

	sequences := make([][]int, 0, len(lines))
	dropped := 0
	for _, line := range lines {
		ids, d, err := vt.EncodeLossy(line, cfg.MaxLen, true)
		if err != nil {
			log.Fatal("encoding corpus failed", "error", err)
		}
		dropped += d
		sequences = append(sequences, ids)
	}
	metrics.RecordEncodeDropped(dropped)
	if dropped > 0 {
		log.Warn("characters dropped during encoding", "count", dropped)
	}

	trainSet, valSet := dataset.Split(sequences, cfg.ValFraction, cfg.Seed)
	log.Info("dataset split", "train", len(trainSet), "val", len(valSet))

	sink := metrics.NewEpochSink()
	trainer := train.NewTrainer(m, train.NewSolver(cfg.LearnRate, cfg.GradClip), dev, sink, cfg.Epochs, cfg.BatchSize, cfg.Seed)
	trainer.DebugGradients = cfg.DebugGradients
	if err := trainer.Run(ctx, trainSet, valSet); err != nil {
		if ctx.Err() != nil {
			log.Warn("training interrupted", "error", err)
			os.Exit(1)
		}
		log.Fatal("training failed", "error", err)
	}

	if *historyPath != "" {
		if err := history.WriteFile(*historyPath, sink.History()); err != nil {
			log.Error("writing history failed", "error", err)
		} else {
			log.Info("history written", "path", *historyPath, "epochs", len(sink.History()))
		}
	}

	sampler := sample.New(m, vt, dev, cfg.MaxLen, cfg.Seed)
	sampler.Debug = cfg.DebugSampling
	for i := 0; i < *numSamples; i++ {
		start := time.Now()
		out, err := sampler.Generate(*prefix, cfg.MaxNewChars, cfg.Temperature)
		if err != nil {
			log.Error("sampling failed", "error", err)
			break
		}
		metrics.RecordSample(len(out)-len(*prefix), cfg.Temperature, time.Since(start))
		fmt.Println(out)
	}
}
