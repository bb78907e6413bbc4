package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeConfig writes config content to a temp file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
clock:
  host: "192.168.1.50"
  name: "Kitchen Clock"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8090
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Clock.Host != "192.168.1.50" {
		t.Errorf("Clock.Host = %q, want %q", cfg.Clock.Host, "192.168.1.50")
	}

	if cfg.Clock.Name != "Kitchen Clock" {
		t.Errorf("Clock.Name = %q, want %q", cfg.Clock.Name, "Kitchen Clock")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := `
clock:
  host: "wordclock.local"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Clock.RequestTimeout != 5 {
		t.Errorf("Clock.RequestTimeout = %d, want 5", cfg.Clock.RequestTimeout)
	}
	if cfg.Clock.ReconnectDelay != 5 {
		t.Errorf("Clock.ReconnectDelay = %d, want 5", cfg.Clock.ReconnectDelay)
	}
	if cfg.API.Port != 8090 {
		t.Errorf("API.Port = %d, want 8090", cfg.API.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
clock:
  host: ""
database:
  path: "/tmp/test.db"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for empty clock.host, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
clock:
  host: "from-file.local"
`
	t.Setenv("WORDCLOCK_CLOCK_HOST", "from-env.local")
	t.Setenv("WORDCLOCK_MQTT_HOST", "broker-env.local")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Clock.Host != "from-env.local" {
		t.Errorf("Clock.Host = %q, want env override %q", cfg.Clock.Host, "from-env.local")
	}
	if cfg.MQTT.Broker.Host != "broker-env.local" {
		t.Errorf("MQTT.Broker.Host = %q, want env override %q", cfg.MQTT.Broker.Host, "broker-env.local")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) { c.Clock.Host = "wordclock.local" },
			wantErr: false,
		},
		{
			name:    "missing clock host",
			mutate:  func(c *Config) { c.Clock.Host = "" },
			wantErr: true,
		},
		{
			name: "zero reconnect delay",
			mutate: func(c *Config) {
				c.Clock.Host = "wordclock.local"
				c.Clock.ReconnectDelay = 0
			},
			wantErr: true,
		},
		{
			name: "invalid qos",
			mutate: func(c *Config) {
				c.Clock.Host = "wordclock.local"
				c.MQTT.QoS = 3
			},
			wantErr: true,
		},
		{
			name: "invalid api port",
			mutate: func(c *Config) {
				c.Clock.Host = "wordclock.local"
				c.API.Port = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_DurationHelpers(t *testing.T) {
	cfg := defaultConfig()
	cfg.Clock.RequestTimeout = 7
	cfg.Clock.ReconnectDelay = 3

	if got := cfg.GetRequestTimeout(); got != 7*time.Second {
		t.Errorf("GetRequestTimeout() = %v, want 7s", got)
	}
	if got := cfg.GetReconnectDelay(); got != 3*time.Second {
		t.Errorf("GetReconnectDelay() = %v, want 3s", got)
	}
}
