package cfg

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"exoscan/internal/common"
)

// loadFromYAML reads the YAML config and layers environment overrides on
// top, so a deployment can pin most settings in the file and still tweak a
// port or the model path per instance.
func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var file ConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Settings{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	s := defaults()
	if file.Model.Path != "" {
		s.ModelPath = file.Model.Path
	}
	if file.System.DataPath != "" {
		s.DataPath = file.System.DataPath
	}
	if file.System.LogLevel != "" {
		s.LogLevel = file.System.LogLevel
	}
	if file.Server.APIPort != 0 {
		s.APIPort = file.Server.APIPort
	}
	if file.Server.MetricsPort != 0 {
		s.MetricsPort = file.Server.MetricsPort
	}
	if len(file.Server.AllowedOrigins) > 0 {
		s.AllowedOrigins = file.Server.AllowedOrigins
	}
	if file.Server.RequestTimeout != "" {
		if d, err := time.ParseDuration(file.Server.RequestTimeout); err == nil {
			s.RequestTimeout = d
		}
	}
	if file.Batch.Workers != 0 {
		s.BatchWorkers = file.Batch.Workers
	}
	if file.Batch.MaxSize != 0 {
		s.MaxBatchSize = file.Batch.MaxSize
	}

	// Environment always wins over the file.
	if v := os.Getenv(common.EnvModelPath); v != "" {
		s.ModelPath = v
	}
	s.APIPort = envInt(common.EnvAPIPort, s.APIPort)
	s.MetricsPort = envInt(common.EnvMetricsPort, s.MetricsPort)

	return s, nil
}
