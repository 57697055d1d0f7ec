// Package cfg loads service configuration from a YAML file with environment
// variable overrides. CONFIG_FILE selects the YAML source; without it every
// setting comes from the environment with sane defaults.
package cfg

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"exoscan/internal/common"
)

// Settings is the resolved service configuration.
type Settings struct {
	ModelPath      string
	DataPath       string
	APIPort        int
	MetricsPort    int
	BatchWorkers   int
	MaxBatchSize   int
	RequestTimeout time.Duration
	AllowedOrigins []string
	LogLevel       string
}

// ConfigFile mirrors the YAML layout.
type ConfigFile struct {
	Model struct {
		Path string `yaml:"path"`
	} `yaml:"model"`

	Batch struct {
		Workers int `yaml:"workers"`
		MaxSize int `yaml:"maxSize"`
	} `yaml:"batch"`

	Server struct {
		APIPort        int      `yaml:"apiPort"`
		MetricsPort    int      `yaml:"metricsPort"`
		RequestTimeout string   `yaml:"requestTimeout"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	System struct {
		DataPath string `yaml:"dataPath"`
		LogLevel string `yaml:"logLevel"`
	} `yaml:"system"`
}

// Load resolves settings from the YAML file named by CONFIG_FILE, falling
// back to environment variables, then validates the result.
func Load() (Settings, error) {
	var s Settings
	var err error
	if path := os.Getenv(common.EnvConfigFile); path != "" {
		s, err = loadFromYAML(path)
	} else {
		s, err = loadFromEnv()
	}
	if err != nil {
		return Settings{}, err
	}
	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func loadFromEnv() (Settings, error) {
	s := defaults()

	if v := os.Getenv(common.EnvModelPath); v != "" {
		s.ModelPath = v
	}
	if v := os.Getenv(common.EnvDataPath); v != "" {
		s.DataPath = v
	}
	s.APIPort = envInt(common.EnvAPIPort, s.APIPort)
	s.MetricsPort = envInt(common.EnvMetricsPort, s.MetricsPort)
	s.BatchWorkers = envInt(common.EnvBatchWorkers, s.BatchWorkers)
	s.MaxBatchSize = envInt(common.EnvMaxBatchSize, s.MaxBatchSize)
	if v := os.Getenv(common.EnvRequestTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			s.RequestTimeout = d
		}
	}
	if v := os.Getenv(common.EnvAllowedOrigins); v != "" {
		s.AllowedOrigins = splitOrigins(v)
	}
	if v := os.Getenv(common.EnvLogLevel); v != "" {
		s.LogLevel = v
	}
	return s, nil
}

func defaults() Settings {
	timeout, _ := time.ParseDuration(common.DefaultRequestTimeout)
	return Settings{
		ModelPath:      common.DefaultModelPath,
		DataPath:       "",
		APIPort:        common.DefaultAPIPort,
		MetricsPort:    common.DefaultMetricsPort,
		BatchWorkers:   runtime.NumCPU(),
		MaxBatchSize:   common.DefaultMaxBatchSize,
		RequestTimeout: timeout,
		AllowedOrigins: []string{common.DefaultDashboardOrigin, common.DefaultDevServerOrigin},
		LogLevel:       common.DefaultLogLevel,
	}
}

func (s Settings) validate() error {
	if s.ModelPath == "" {
		return fmt.Errorf("model path must not be empty")
	}
	if s.APIPort < common.MinPort || s.APIPort > common.MaxPort {
		return fmt.Errorf("invalid API port %d", s.APIPort)
	}
	if s.MetricsPort < common.MinPort || s.MetricsPort > common.MaxPort {
		return fmt.Errorf("invalid metrics port %d", s.MetricsPort)
	}
	if s.APIPort == s.MetricsPort {
		return fmt.Errorf("API and metrics ports must differ")
	}
	if s.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be positive, got %d", s.MaxBatchSize)
	}
	if s.BatchWorkers <= 0 {
		return fmt.Errorf("batch workers must be positive, got %d", s.BatchWorkers)
	}
	return nil
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitOrigins(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
