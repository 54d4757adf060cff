package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the tuning defaults file shipped with the
// repository. It must match DefaultTuningConfig field for field; the binary
// uses the in-code copy so it runs from any directory.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for a swarm and its
// training run. Every field is optional; the Get* methods supply defaults
// for anything omitted, so partial files are safe.
type TuningConfig struct {
	// Grid shape and domain
	Dims   []int        `json:"dims,omitempty"`
	Limits [][2]float64 `json:"limits,omitempty"` // [[low, high], ...] per axis

	// Learner hyperparameters
	LearningRate *float64 `json:"learning_rate,omitempty"`
	Momentum     *float64 `json:"momentum,omitempty"`

	// Training driver
	BatchSize   *int     `json:"batch_size,omitempty"`
	Batches     *int     `json:"batches,omitempty"`
	NoiseStdDev *float64 `json:"noise_stddev,omitempty"`
	Seed        *uint64  `json:"seed,omitempty"`

	// Visualisation
	PlotResolution *int `json:"plot_resolution,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields unset.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a fully populated TuningConfig matching the
// built-in defaults: an 8x8 grid over [0, 2π]², alpha 0.1, rho 0.7071,
// 100 batches of 100 noisy samples.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		Dims:           defaultDims(),
		Limits:         defaultLimits(),
		LearningRate:   ptrFloat64(defaultLearningRate),
		Momentum:       ptrFloat64(defaultMomentum),
		BatchSize:      ptrInt(defaultBatchSize),
		Batches:        ptrInt(defaultBatches),
		NoiseStdDev:    ptrFloat64(defaultNoiseStdDev),
		Seed:           ptrUint64(defaultSeed),
		PlotResolution: ptrInt(defaultPlotResolution),
	}
}

const (
	defaultLearningRate   = 0.1
	defaultMomentum       = 0.7071
	defaultBatchSize      = 100
	defaultBatches        = 100
	defaultNoiseStdDev    = 0.1
	defaultSeed           = 1
	defaultPlotResolution = 100
)

func defaultDims() []int { return []int{8, 8} }

func defaultLimits() [][2]float64 {
	return [][2]float64{{0, 2 * math.Pi}, {0, 2 * math.Pi}}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,       // from cmd/gridswarm/
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
// Cross-field grid checks (dims vs limits) happen here so a bad file is
// rejected at load time rather than when the swarm is built.
func (c *TuningConfig) Validate() error {
	if c.Dims != nil {
		if len(c.Dims) == 0 {
			return fmt.Errorf("dims must not be empty")
		}
		for i, d := range c.Dims {
			if d < 1 {
				return fmt.Errorf("dims[%d] must be positive, got %d", i, d)
			}
		}
	}

	if c.Limits != nil {
		for i, l := range c.Limits {
			if !(l[0] < l[1]) {
				return fmt.Errorf("limits[%d] low must be below high, got [%g, %g]", i, l[0], l[1])
			}
		}
	}

	if len(c.GetDims()) != len(c.GetLimits()) {
		return fmt.Errorf("dims and limits must have the same length, got %d and %d", len(c.GetDims()), len(c.GetLimits()))
	}

	if c.LearningRate != nil && !(*c.LearningRate > 0) {
		return fmt.Errorf("learning_rate must be positive, got %f", *c.LearningRate)
	}

	if c.Momentum != nil {
		if *c.Momentum < 0 || *c.Momentum >= 1 {
			return fmt.Errorf("momentum must be in [0, 1), got %f", *c.Momentum)
		}
	}

	if c.BatchSize != nil && *c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive, got %d", *c.BatchSize)
	}

	if c.Batches != nil && *c.Batches < 0 {
		return fmt.Errorf("batches must be non-negative, got %d", *c.Batches)
	}

	if c.NoiseStdDev != nil && *c.NoiseStdDev < 0 {
		return fmt.Errorf("noise_stddev must be non-negative, got %f", *c.NoiseStdDev)
	}

	if c.PlotResolution != nil && *c.PlotResolution < 2 {
		return fmt.Errorf("plot_resolution must be at least 2, got %d", *c.PlotResolution)
	}

	return nil
}

// GetDims returns a copy of dims or the default 8x8 shape.
func (c *TuningConfig) GetDims() []int {
	if c.Dims == nil {
		return defaultDims()
	}
	return append([]int(nil), c.Dims...)
}

// GetLimits returns a copy of limits or the default [0, 2π] per default axis.
func (c *TuningConfig) GetLimits() [][2]float64 {
	if c.Limits == nil {
		return defaultLimits()
	}
	return append([][2]float64(nil), c.Limits...)
}

// GetLearningRate returns the learning_rate value or the default.
func (c *TuningConfig) GetLearningRate() float64 {
	if c.LearningRate == nil {
		return defaultLearningRate
	}
	return *c.LearningRate
}

// GetMomentum returns the momentum value or the default.
func (c *TuningConfig) GetMomentum() float64 {
	if c.Momentum == nil {
		return defaultMomentum
	}
	return *c.Momentum
}

// GetBatchSize returns the batch_size value or the default.
func (c *TuningConfig) GetBatchSize() int {
	if c.BatchSize == nil {
		return defaultBatchSize
	}
	return *c.BatchSize
}

// GetBatches returns the batches value or the default.
func (c *TuningConfig) GetBatches() int {
	if c.Batches == nil {
		return defaultBatches
	}
	return *c.Batches
}

// GetNoiseStdDev returns the noise_stddev value or the default.
func (c *TuningConfig) GetNoiseStdDev() float64 {
	if c.NoiseStdDev == nil {
		return defaultNoiseStdDev
	}
	return *c.NoiseStdDev
}

// GetSeed returns the seed value or the default.
func (c *TuningConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return defaultSeed
	}
	return *c.Seed
}

// GetPlotResolution returns the plot_resolution value or the default.
func (c *TuningConfig) GetPlotResolution() int {
	if c.PlotResolution == nil {
		return defaultPlotResolution
	}
	return *c.PlotResolution
}
