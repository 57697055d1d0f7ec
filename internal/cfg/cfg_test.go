package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "EXOSCAN_MODEL_PATH", "EXOSCAN_DATA_PATH",
		"EXOSCAN_API_PORT", "EXOSCAN_METRICS_PORT", "EXOSCAN_BATCH_WORKERS",
		"EXOSCAN_MAX_BATCH_SIZE", "EXOSCAN_REQUEST_TIMEOUT",
		"EXOSCAN_ALLOWED_ORIGINS", "EXOSCAN_LOG_LEVEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, s Settings)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			validate: func(t *testing.T, s Settings) {
				if s.ModelPath != "trained_models" {
					t.Errorf("expected default model path, got %s", s.ModelPath)
				}
				if s.APIPort != 8000 {
					t.Errorf("expected default API port 8000, got %d", s.APIPort)
				}
				if s.MaxBatchSize != 10000 {
					t.Errorf("expected default max batch size 10000, got %d", s.MaxBatchSize)
				}
				if s.RequestTimeout != 300*time.Second {
					t.Errorf("expected default timeout 300s, got %v", s.RequestTimeout)
				}
			},
		},
		{
			name: "custom settings",
			envVars: map[string]string{
				"EXOSCAN_MODEL_PATH":      "/models/v2",
				"EXOSCAN_API_PORT":        "9000",
				"EXOSCAN_BATCH_WORKERS":   "4",
				"EXOSCAN_ALLOWED_ORIGINS": "http://a.example, http://b.example",
			},
			validate: func(t *testing.T, s Settings) {
				if s.ModelPath != "/models/v2" {
					t.Errorf("expected model path override, got %s", s.ModelPath)
				}
				if s.APIPort != 9000 {
					t.Errorf("expected API port 9000, got %d", s.APIPort)
				}
				if s.BatchWorkers != 4 {
					t.Errorf("expected 4 workers, got %d", s.BatchWorkers)
				}
				if len(s.AllowedOrigins) != 2 || s.AllowedOrigins[1] != "http://b.example" {
					t.Errorf("origins not parsed: %v", s.AllowedOrigins)
				}
			},
		},
		{
			name: "invalid port rejected",
			envVars: map[string]string{
				"EXOSCAN_API_PORT": "99999",
			},
			wantErr: true,
		},
		{
			name: "api and metrics ports must differ",
			envVars: map[string]string{
				"EXOSCAN_API_PORT":     "9090",
				"EXOSCAN_METRICS_PORT": "9090",
			},
			wantErr: true,
		},
		{
			name: "negative batch size rejected",
			envVars: map[string]string{
				"EXOSCAN_MAX_BATCH_SIZE": "-1",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			s, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.validate(t, s)
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)

	yaml := `
model:
  path: /opt/models/current
batch:
  workers: 8
  maxSize: 500
server:
  apiPort: 8080
  metricsPort: 9100
  requestTimeout: 45s
  allowedOrigins:
    - http://dashboard.local
system:
  dataPath: /var/lib/exoscan
  logLevel: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	s, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ModelPath != "/opt/models/current" {
		t.Errorf("model path: got %s", s.ModelPath)
	}
	if s.BatchWorkers != 8 || s.MaxBatchSize != 500 {
		t.Errorf("batch settings: got %d workers, %d max", s.BatchWorkers, s.MaxBatchSize)
	}
	if s.APIPort != 8080 || s.MetricsPort != 9100 {
		t.Errorf("ports: got %d/%d", s.APIPort, s.MetricsPort)
	}
	if s.RequestTimeout != 45*time.Second {
		t.Errorf("timeout: got %v", s.RequestTimeout)
	}
	if len(s.AllowedOrigins) != 1 || s.AllowedOrigins[0] != "http://dashboard.local" {
		t.Errorf("origins: got %v", s.AllowedOrigins)
	}
	if s.DataPath != "/var/lib/exoscan" || s.LogLevel != "debug" {
		t.Errorf("system settings: got %s / %s", s.DataPath, s.LogLevel)
	}
}

func TestLoadFromYAML_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	yaml := "model:\n  path: /opt/models/file\nserver:\n  apiPort: 8080\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("EXOSCAN_MODEL_PATH", "/opt/models/env")
	t.Setenv("EXOSCAN_API_PORT", "8081")

	s, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ModelPath != "/opt/models/env" {
		t.Errorf("env should override file, got %s", s.ModelPath)
	}
	if s.APIPort != 8081 {
		t.Errorf("env should override file port, got %d", s.APIPort)
	}
}

func TestLoadFromYAML_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
