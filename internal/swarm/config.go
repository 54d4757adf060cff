package swarm

import (
	"fmt"
	"math"

	"github.com/banshee-data/gridswarm/internal/config"
)

// Config provides a configuration builder for a Swarm. It allows setting
// parameters with defaults and validation before the swarm is allocated.
type Config struct {
	Dims         []int   // cells per axis (default: [8, 8])
	Limits       []Limit // domain per axis (default: [0, 2π] each)
	LearningRate float64 // alpha (default: 0.1)
	Momentum     float64 // rho (default: 0.7071)
}

// DefaultConfig returns a Config loaded from the canonical tuning defaults
// file (config/tuning.defaults.json).
// Panics if the file cannot be found, intended for tests and binaries
// that have already validated config availability.
func DefaultConfig() *Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) *Config {
	lims := cfg.GetLimits()
	limits := make([]Limit, len(lims))
	for i, l := range lims {
		limits[i] = Limit{Low: l[0], High: l[1]}
	}
	return &Config{
		Dims:         cfg.GetDims(),
		Limits:       limits,
		LearningRate: cfg.GetLearningRate(),
		Momentum:     cfg.GetMomentum(),
	}
}

// Validate checks the grid shape and hyperparameters.
// Every returned error wraps ErrInvalidGridConfig.
func (c *Config) Validate() error {
	if _, err := NewGrid(c.Dims, c.Limits); err != nil {
		return err
	}
	if !(c.LearningRate > 0) || math.IsInf(c.LearningRate, 0) {
		return fmt.Errorf("%w: LearningRate must be positive and finite, got %f", ErrInvalidGridConfig, c.LearningRate)
	}
	if !(c.Momentum >= 0 && c.Momentum < 1) {
		return fmt.Errorf("%w: Momentum must be in [0, 1), got %f", ErrInvalidGridConfig, c.Momentum)
	}
	return nil
}

// New validates the config and allocates a zeroed Swarm.
func (c *Config) New() (*Swarm, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return NewSwarm(c.Dims, c.Limits, c.LearningRate, c.Momentum)
}

// WithDims sets the grid shape.
func (c *Config) WithDims(dims ...int) *Config {
	c.Dims = append([]int(nil), dims...)
	return c
}

// WithLimits sets the domain limits.
func (c *Config) WithLimits(limits ...Limit) *Config {
	c.Limits = append([]Limit(nil), limits...)
	return c
}

// WithLearningRate sets alpha.
func (c *Config) WithLearningRate(alpha float64) *Config {
	c.LearningRate = alpha
	return c
}

// WithMomentum sets rho.
func (c *Config) WithMomentum(rho float64) *Config {
	c.Momentum = rho
	return c
}
