// Package config holds the tunables of the batch executor: when to evaluate
// batches concurrently, how many workers to use and how large CSV batches
// are. Values come from defaults, a JSON or YAML file, or KAIROS_*
// environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config represents the executor configuration
type Config struct {
	ParallelThreshold int  `json:"parallel_threshold" yaml:"parallel_threshold"` // Minimum total rows to evaluate batches concurrently
	WorkerPoolSize    int  `json:"worker_pool_size" yaml:"worker_pool_size"`     // Number of worker goroutines (0 = auto-detect)
	BatchSize         int  `json:"batch_size" yaml:"batch_size"`                 // Rows per record when reading input
	VerboseLogging    bool `json:"verbose_logging" yaml:"verbose_logging"`       // Enable debug logging
	MetricsCollection bool `json:"metrics_collection" yaml:"metrics_collection"` // Enable metrics collection
}

// Default configuration values
const (
	DefaultParallelThreshold = 1000
	DefaultBatchSize         = 4096
)

const envPrefix = "KAIROS_"

var (
	globalConfig = NewConfig()
	configMutex  sync.RWMutex
)

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		ParallelThreshold: DefaultParallelThreshold,
		WorkerPoolSize:    0,
		BatchSize:         DefaultBatchSize,
	}
}

// Validate returns an error if any field is out of range
func (c *Config) Validate() error {
	if c.ParallelThreshold <= 0 {
		return fmt.Errorf("ParallelThreshold must be positive, got %d", c.ParallelThreshold)
	}
	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("BatchSize must be positive, got %d", c.BatchSize)
	}
	return nil
}

// WithDefaults returns a copy with zero numeric fields replaced by defaults.
// Boolean fields are left alone so an explicit false survives.
func (c Config) WithDefaults() Config {
	defaults := NewConfig()
	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = defaults.ParallelThreshold
	}
	if c.BatchSize == 0 {
		c.BatchSize = defaults.BatchSize
	}
	return c
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// GetGlobalConfig returns the current global configuration
func GetGlobalConfig() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// LoadFromFile loads configuration from a .json, .yaml or .yml file
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", filename, err)
	}
	return config, nil
}

// LoadFromEnv overlays KAIROS_* environment variables on the defaults.
// Unparseable values are ignored.
func LoadFromEnv() Config {
	config := NewConfig()

	ints := map[string]*int{
		"PARALLEL_THRESHOLD": &config.ParallelThreshold,
		"WORKER_POOL_SIZE":   &config.WorkerPoolSize,
		"BATCH_SIZE":         &config.BatchSize,
	}
	for name, field := range ints {
		if parsed, err := strconv.Atoi(os.Getenv(envPrefix + name)); err == nil {
			*field = parsed
		}
	}

	bools := map[string]*bool{
		"VERBOSE_LOGGING":    &config.VerboseLogging,
		"METRICS_COLLECTION": &config.MetricsCollection,
	}
	for name, field := range bools {
		if parsed, err := strconv.ParseBool(os.Getenv(envPrefix + name)); err == nil {
			*field = parsed
		}
	}

	return config
}
