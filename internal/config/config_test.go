package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paveg/kairos/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultValues(t *testing.T) {
	cfg := config.NewConfig()

	assert.Equal(t, 1000, cfg.ParallelThreshold)
	assert.Equal(t, 0, cfg.WorkerPoolSize) // 0 means auto-detect
	assert.Equal(t, 4096, cfg.BatchSize)
	assert.False(t, cfg.VerboseLogging)
	assert.False(t, cfg.MetricsCollection)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name          string
		config        config.Config
		expectedError string
	}{
		{
			name:   "valid config",
			config: config.Config{ParallelThreshold: 500, WorkerPoolSize: 4, BatchSize: 100},
		},
		{
			name:          "negative parallel threshold",
			config:        config.Config{ParallelThreshold: -1, BatchSize: 100},
			expectedError: "ParallelThreshold must be positive, got -1",
		},
		{
			name:          "negative worker pool size",
			config:        config.Config{ParallelThreshold: 1000, WorkerPoolSize: -1, BatchSize: 100},
			expectedError: "WorkerPoolSize must be non-negative, got -1",
		},
		{
			name:          "zero batch size",
			config:        config.Config{ParallelThreshold: 1000},
			expectedError: "BatchSize must be positive, got 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.expectedError)
			}
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := config.Config{WorkerPoolSize: 3, VerboseLogging: true}.WithDefaults()

	assert.Equal(t, config.DefaultParallelThreshold, cfg.ParallelThreshold)
	assert.Equal(t, config.DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, 3, cfg.WorkerPoolSize)
	assert.True(t, cfg.VerboseLogging)
}

func TestConfig_GlobalConfig(t *testing.T) {
	original := config.GetGlobalConfig()
	defer config.SetGlobalConfig(original)

	custom := config.Config{ParallelThreshold: 7, BatchSize: 9}
	config.SetGlobalConfig(custom)
	assert.Equal(t, custom, config.GetGlobalConfig())
}

func TestConfig_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	tests := []struct {
		name     string
		file     string
		content  string
		expected config.Config
		errMsg   string
	}{
		{
			name:     "yaml",
			file:     "kairos.yaml",
			content:  "parallel_threshold: 10\nworker_pool_size: 2\nverbose_logging: true\n",
			expected: config.Config{ParallelThreshold: 10, WorkerPoolSize: 2, BatchSize: config.DefaultBatchSize, VerboseLogging: true},
		},
		{
			name:     "json",
			file:     "kairos.json",
			content:  `{"batch_size": 64, "metrics_collection": true}`,
			expected: config.Config{ParallelThreshold: config.DefaultParallelThreshold, BatchSize: 64, MetricsCollection: true},
		},
		{
			name:    "unsupported extension",
			file:    "kairos.toml",
			content: "batch_size = 1",
			errMsg:  "unsupported config file format: .toml",
		},
		{
			name:    "invalid values",
			file:    "bad.yml",
			content: "worker_pool_size: -4\n",
			errMsg:  "WorkerPoolSize must be non-negative",
		},
		{
			name:    "malformed yaml",
			file:    "broken.yaml",
			content: "parallel_threshold: [\n",
			errMsg:  "parsing config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadFromFile(write(tt.file, tt.content))
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg)
		})
	}

	_, err := config.LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("KAIROS_PARALLEL_THRESHOLD", "250")
	t.Setenv("KAIROS_WORKER_POOL_SIZE", "3")
	t.Setenv("KAIROS_BATCH_SIZE", "not-a-number")
	t.Setenv("KAIROS_VERBOSE_LOGGING", "true")

	cfg := config.LoadFromEnv()
	assert.Equal(t, 250, cfg.ParallelThreshold)
	assert.Equal(t, 3, cfg.WorkerPoolSize)
	assert.Equal(t, config.DefaultBatchSize, cfg.BatchSize)
	assert.True(t, cfg.VerboseLogging)
	assert.False(t, cfg.MetricsCollection)
}
