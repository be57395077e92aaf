package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/agentperf/agentperf/internal/cache"
	"github.com/agentperf/agentperf/internal/executor"
	"github.com/agentperf/agentperf/internal/memory"
	"github.com/agentperf/agentperf/internal/metrics"
	s3store "github.com/agentperf/agentperf/internal/storage/s3"
)

// Store backend names.
const (
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// Configuration represents the complete application configuration.
type Configuration struct {
	Global    GlobalConfig          `yaml:"global"`
	Cache     cache.ManagerConfig   `yaml:"cache"`
	Executor  executor.Config       `yaml:"executor"`
	Profiler  ProfilerConfig        `yaml:"profiler"`
	Optimizer OptimizerConfig       `yaml:"optimizer"`
	Prefetch  memory.PrefetchConfig `yaml:"prefetch"`
	Metrics   metrics.Config        `yaml:"metrics"`
	Store     StoreConfig           `yaml:"store"`
}

// GlobalConfig represents global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level"`
}

// ProfilerConfig represents profiler settings.
type ProfilerConfig struct {
	Enabled bool `yaml:"enabled"`
}

// OptimizerConfig represents tool optimizer settings.
type OptimizerConfig struct {
	// WarningThreshold is the identical-call count at which the
	// redundant-call detector warns.
	WarningThreshold int `yaml:"warning_threshold"`
}

// StoreConfig selects and configures the backing record store.
type StoreConfig struct {
	Backend string         `yaml:"backend"`
	S3      s3store.Config `yaml:"s3"`
}

// NewDefault returns a configuration with sensible defaults.
func NewDefault() *Configuration {
	return &Configuration{
		Global: GlobalConfig{
			LogLevel: "INFO",
		},
		Cache:    *cache.DefaultManagerConfig(),
		Executor: executor.Config{
			MaxWorkers:     4,
			DefaultTimeout: 30 * time.Second,
		},
		Profiler: ProfilerConfig{
			Enabled: true,
		},
		Optimizer: OptimizerConfig{
			WarningThreshold: 3,
		},
		Prefetch: *memory.DefaultPrefetchConfig(),
		Metrics:  *metrics.DefaultConfig(),
		Store: StoreConfig{
			Backend: BackendMemory,
			S3:      *s3store.NewDefaultConfig(),
		},
	}
}

// LoadFromFile loads configuration from a YAML file.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv loads configuration overrides from environment variables.
func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv("AGENTPERF_LOG_LEVEL"); val != "" {
		c.Global.LogLevel = val
	}

	if val := os.Getenv("AGENTPERF_MAX_WORKERS"); val != "" {
		if workers, err := strconv.Atoi(val); err == nil {
			c.Executor.MaxWorkers = workers
		}
	}
	if val := os.Getenv("AGENTPERF_DEFAULT_TIMEOUT"); val != "" {
		if timeout, err := time.ParseDuration(val); err == nil {
			c.Executor.DefaultTimeout = timeout
		}
	}

	if val := os.Getenv("AGENTPERF_PROFILER_ENABLED"); val != "" {
		c.Profiler.Enabled = strings.ToLower(val) == "true"
	}

	if val := os.Getenv("AGENTPERF_WARNING_THRESHOLD"); val != "" {
		if threshold, err := strconv.Atoi(val); err == nil {
			c.Optimizer.WarningThreshold = threshold
		}
	}

	if val := os.Getenv("AGENTPERF_METRICS_ENABLED"); val != "" {
		c.Metrics.Enabled = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("AGENTPERF_METRICS_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Metrics.Port = port
		}
	}

	if val := os.Getenv("AGENTPERF_STORE_BACKEND"); val != "" {
		c.Store.Backend = val
	}
	if val := os.Getenv("AGENTPERF_S3_BUCKET"); val != "" {
		c.Store.S3.Bucket = val
	}
	if val := os.Getenv("AGENTPERF_S3_REGION"); val != "" {
		c.Store.S3.Region = val
	}
	if val := os.Getenv("AGENTPERF_S3_ENDPOINT"); val != "" {
		c.Store.S3.Endpoint = val
	}

	return nil
}

// SaveToFile saves the configuration to a YAML file.
func (c *Configuration) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Configuration) Validate() error {
	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	logLevelValid := false
	for _, level := range validLogLevels {
		if strings.ToUpper(c.Global.LogLevel) == level {
			logLevelValid = true
			break
		}
	}
	if !logLevelValid {
		return fmt.Errorf("invalid log_level: %s (must be one of: %s)",
			c.Global.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Executor.MaxWorkers <= 0 {
		return fmt.Errorf("max_workers must be greater than 0")
	}
	if c.Executor.DefaultTimeout < 0 {
		return fmt.Errorf("default_timeout cannot be negative")
	}

	for name, nsCfg := range map[string]cache.TimedConfig{
		cache.NamespaceProfile:     c.Cache.Profile,
		cache.NamespaceGoals:       c.Cache.Goals,
		cache.NamespaceTool:        c.Cache.Tool,
		cache.NamespaceCalculation: c.Cache.Calculation,
	} {
		if nsCfg.MaxEntries < 0 {
			return fmt.Errorf("cache.%s.max_entries cannot be negative", name)
		}
		if nsCfg.DefaultTTL < 0 {
			return fmt.Errorf("cache.%s.default_ttl cannot be negative", name)
		}
		if nsCfg.EvictFraction < 0 || nsCfg.EvictFraction > 1 {
			return fmt.Errorf("cache.%s.evict_fraction must be in [0, 1]", name)
		}
	}

	if c.Optimizer.WarningThreshold < 0 {
		return fmt.Errorf("warning_threshold cannot be negative")
	}

	if c.Prefetch.MaxItems < 0 {
		return fmt.Errorf("prefetch.max_items cannot be negative")
	}
	if c.Prefetch.Rate < 0 {
		return fmt.Errorf("prefetch.rate cannot be negative")
	}

	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port must be in (0, 65535]")
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendS3:
		if err := c.Store.S3.Validate(); err != nil {
			return fmt.Errorf("invalid S3 store config: %w", err)
		}
	default:
		return fmt.Errorf("unknown store backend: %s", c.Store.Backend)
	}

	return nil
}
