package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	if diff := cmp.Diff([]int{8, 8}, cfg.Dims); diff != "" {
		t.Errorf("Dims mismatch (-want +got):\n%s", diff)
	}
	if cfg.LearningRate == nil || *cfg.LearningRate != 0.1 {
		t.Errorf("Expected LearningRate 0.1, got %v", cfg.LearningRate)
	}
	if cfg.Momentum == nil || *cfg.Momentum != 0.7071 {
		t.Errorf("Expected Momentum 0.7071, got %v", cfg.Momentum)
	}
	if cfg.GetBatchSize() != 100 {
		t.Errorf("GetBatchSize() = %d, want 100", cfg.GetBatchSize())
	}
	if cfg.GetBatches() != 100 {
		t.Errorf("GetBatches() = %d, want 100", cfg.GetBatches())
	}
	if cfg.GetNoiseStdDev() != 0.1 {
		t.Errorf("GetNoiseStdDev() = %f, want 0.1", cfg.GetNoiseStdDev())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestEmptyConfigUsesDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()

	if diff := cmp.Diff(DefaultTuningConfig().GetLimits(), cfg.GetLimits()); diff != "" {
		t.Errorf("GetLimits() mismatch (-want +got):\n%s", diff)
	}
	if cfg.GetLearningRate() != 0.1 {
		t.Errorf("GetLearningRate() = %f, want 0.1", cfg.GetLearningRate())
	}
	if cfg.GetMomentum() != 0.7071 {
		t.Errorf("GetMomentum() = %f, want 0.7071", cfg.GetMomentum())
	}
	if cfg.GetSeed() != 1 {
		t.Errorf("GetSeed() = %d, want 1", cfg.GetSeed())
	}
	if cfg.GetPlotResolution() != 100 {
		t.Errorf("GetPlotResolution() = %d, want 100", cfg.GetPlotResolution())
	}
}

func TestGetDimsReturnsCopy(t *testing.T) {
	cfg := &TuningConfig{Dims: []int{4, 5}, Limits: [][2]float64{{0, 1}, {0, 1}}}
	dims := cfg.GetDims()
	dims[0] = 99
	if cfg.Dims[0] != 4 {
		t.Errorf("GetDims leaked internal slice: Dims[0] = %d", cfg.Dims[0])
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "dims": [4, 3, 2],
  "limits": [[-1, 1], [0, 10], [5, 6]],
  "learning_rate": 0.05,
  "batch_size": 50
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if diff := cmp.Diff([]int{4, 3, 2}, cfg.GetDims()); diff != "" {
		t.Errorf("dims mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][2]float64{{-1, 1}, {0, 10}, {5, 6}}, cfg.GetLimits()); diff != "" {
		t.Errorf("limits mismatch (-want +got):\n%s", diff)
	}
	if cfg.GetLearningRate() != 0.05 {
		t.Errorf("GetLearningRate() = %f, want 0.05", cfg.GetLearningRate())
	}
	if cfg.GetBatchSize() != 50 {
		t.Errorf("GetBatchSize() = %d, want 50", cfg.GetBatchSize())
	}
	// Omitted fields fall back to defaults.
	if cfg.GetMomentum() != 0.7071 {
		t.Errorf("GetMomentum() = %f, want default 0.7071", cfg.GetMomentum())
	}
}

func TestLoadTuningConfigMissing(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadTuningConfigWrongExtension(t *testing.T) {
	_, err := LoadTuningConfig("config.yaml")
	if err == nil || !strings.Contains(err.Error(), ".json") {
		t.Errorf("Expected extension error, got %v", err)
	}
}

func TestLoadTuningConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	invalidJSON := `{
  "learning_rate": "fast"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestLoadTuningConfigRejectsInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad_values.json")

	if err := os.WriteFile(configPath, []byte(`{"momentum": 1.5}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	limits := cfg.GetLimits()
	if len(limits) != 2 || math.Abs(limits[0][1]-2*math.Pi) > 1e-12 {
		t.Errorf("defaults file limits = %v, want [0, 2π] per axis", limits)
	}
}

func TestDefaultsFileMatchesBuiltInDefaults(t *testing.T) {
	if diff := cmp.Diff(DefaultTuningConfig(), MustLoadDefaultConfig()); diff != "" {
		t.Errorf("%s drifted from DefaultTuningConfig (-code +file):\n%s", DefaultConfigPath, diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     DefaultTuningConfig(),
			wantErr: false,
		},
		{
			name:    "empty config is valid",
			cfg:     &TuningConfig{},
			wantErr: false,
		},
		{
			name:    "empty dims",
			cfg:     &TuningConfig{Dims: []int{}, Limits: [][2]float64{}},
			wantErr: true,
		},
		{
			name:    "zero dim",
			cfg:     &TuningConfig{Dims: []int{8, 0}},
			wantErr: true,
		},
		{
			name:    "inverted limits",
			cfg:     &TuningConfig{Limits: [][2]float64{{0, 1}, {2, 1}}},
			wantErr: true,
		},
		{
			name:    "dims and limits length mismatch",
			cfg:     &TuningConfig{Dims: []int{8, 8, 8}},
			wantErr: true,
		},
		{
			name:    "zero learning rate",
			cfg:     &TuningConfig{LearningRate: ptrFloat64(0)},
			wantErr: true,
		},
		{
			name:    "negative momentum",
			cfg:     &TuningConfig{Momentum: ptrFloat64(-0.1)},
			wantErr: true,
		},
		{
			name:    "momentum of one",
			cfg:     &TuningConfig{Momentum: ptrFloat64(1)},
			wantErr: true,
		},
		{
			name:    "zero batch size",
			cfg:     &TuningConfig{BatchSize: ptrInt(0)},
			wantErr: true,
		},
		{
			name:    "negative batches",
			cfg:     &TuningConfig{Batches: ptrInt(-1)},
			wantErr: true,
		},
		{
			name:    "negative noise",
			cfg:     &TuningConfig{NoiseStdDev: ptrFloat64(-0.5)},
			wantErr: true,
		},
		{
			name:    "plot resolution too small",
			cfg:     &TuningConfig{PlotResolution: ptrInt(1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
