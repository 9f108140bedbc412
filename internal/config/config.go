package config

import (
	"fmt"
)

// Config holds the hyperparameters of a generator run. Every component takes
// its slice of this struct explicitly; there is no package-level state.
type Config struct {
	// Data shape
	MaxLen      int     // fixed width of encoded lines, begin sentinel included
	ValFraction float64 // fraction of lines held out for validation

	// Model shape
	EmbedDim  int
	HiddenDim int

	// Optimization
	Epochs       int
	BatchSize    int
	LearnRate    float64
	GradClip     float64 // absolute per-element clip, 0 disables
	Seed         int64

	// Generation
	Temperature float64
	MaxNewChars int

	// Debug toggles
	DebugGradients bool
	DebugSampling  bool
}

func (c *Config) Validate() error {
	if c.MaxLen < 2 {
		return fmt.Errorf("invalid max_len: %d (must be >= 2 for begin sentinel plus content)", c.MaxLen)
	}
	if c.ValFraction < 0 || c.ValFraction >= 1 {
		return fmt.Errorf("invalid val_fraction: %f (must be in [0, 1))", c.ValFraction)
	}
	if c.EmbedDim <= 0 {
		return fmt.Errorf("invalid embed_dim: %d (must be positive)", c.EmbedDim)
	}
	if c.HiddenDim <= 0 {
		return fmt.Errorf("invalid hidden_dim: %d (must be positive)", c.HiddenDim)
	}
	if c.Epochs < 0 {
		return fmt.Errorf("invalid epochs: %d (must be non-negative)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("invalid batch_size: %d (must be positive)", c.BatchSize)
	}
	if c.LearnRate <= 0 {
		return fmt.Errorf("invalid learn_rate: %f (must be positive)", c.LearnRate)
	}
	if c.GradClip < 0 {
		return fmt.Errorf("invalid grad_clip: %f (must be non-negative)", c.GradClip)
	}
	if c.Temperature < 0 {
		return fmt.Errorf("invalid temperature: %f (must be non-negative)", c.Temperature)
	}
	if c.MaxNewChars < 0 {
		return fmt.Errorf("invalid max_new_chars: %d (must be non-negative)", c.MaxNewChars)
	}
	return nil
}

func Default() Config {
	return Config{
		MaxLen:      64,
		ValFraction: 0.1,
		EmbedDim:    32,
		HiddenDim:   128,
		Epochs:      30,
		BatchSize:   32,
		LearnRate:   1e-3,
		GradClip:    5.0,
		Seed:        42,
		Temperature: 0.7,
		MaxNewChars: 80,
	}
}
