package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	content := `{
	// This is a JSONC comment
	"gateway": {
		"host": "0.0.0.0",
		"port": 9999
	},
	"store": {
		"path": "${{ .Env.BUS_DB_PATH }}"
	}
}`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BUS_DB_PATH", "/data/bus.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Gateway.Port)
	}
	if cfg.Store.Path != "/data/bus.db" {
		t.Errorf("expected store path /data/bus.db, got %s", cfg.Store.Path)
	}
}

func TestLoadDefaults(t *testing.T) {
	content := `{}`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Host != "127.0.0.1" {
		t.Errorf("expected default host 127.0.0.1, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 39765 {
		t.Errorf("expected default port 39765, got %d", cfg.Gateway.Port)
	}
	if cfg.Events.SubscriberQueueSize != 256 {
		t.Errorf("expected default subscriber_queue_size 256, got %d", cfg.Events.SubscriberQueueSize)
	}
}

func TestLoadDefaults_Wait(t *testing.T) {
	content := `{}`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Wait.DefaultTimeoutSeconds != 300 {
		t.Errorf("expected default_timeout_seconds 300, got %d", cfg.Wait.DefaultTimeoutSeconds)
	}
	if cfg.Wait.MaxTimeoutSeconds != 600 {
		t.Errorf("expected max_timeout_seconds 600, got %d", cfg.Wait.MaxTimeoutSeconds)
	}
	if cfg.Wait.SafetyNetPollSeconds != 1 {
		t.Errorf("expected safety_net_poll_seconds 1, got %d", cfg.Wait.SafetyNetPollSeconds)
	}
}

func TestLoadDefaults_Presence(t *testing.T) {
	content := `{}`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Presence.HeartbeatTimeoutSeconds != 30 {
		t.Errorf("expected heartbeat_timeout_seconds 30, got %d", cfg.Presence.HeartbeatTimeoutSeconds)
	}
	if cfg.Presence.SweepIntervalSeconds != 1 {
		t.Errorf("expected sweep_interval_seconds 1, got %d", cfg.Presence.SweepIntervalSeconds)
	}
}

func TestLoadDefaults_UploadsRetentionDisabledByDefault(t *testing.T) {
	content := `{}`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Uploads.RetentionHours != 0 {
		t.Errorf("expected retention_hours 0 (disabled), got %d", cfg.Uploads.RetentionHours)
	}
	if cfg.Uploads.MaxTotalBytes != 0 {
		t.Errorf("expected max_total_bytes 0 (unbounded), got %d", cfg.Uploads.MaxTotalBytes)
	}
	if cfg.Uploads.Dir == "" {
		t.Error("expected a default uploads dir to be set")
	}
}

func TestExpandEnvTemplates(t *testing.T) {
	t.Setenv("TEST_KEY", "my-secret")
	result := expandEnvTemplates(`{"key": "${{ .Env.TEST_KEY }}"}`)
	expected := `{"key": "my-secret"}`
	if result != expected {
		t.Errorf("expected %s, got %s", expected, result)
	}
}
