package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDataPath_Default(t *testing.T) {
	t.Setenv("AGENTBUS_PATH", "")

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}

	got := DataPath()
	want := filepath.Join(home, ".agentbus")
	if got != want {
		t.Errorf("DataPath() = %q, want %q", got, want)
	}
}

func TestDataPath_EnvOverride(t *testing.T) {
	t.Setenv("AGENTBUS_PATH", "/tmp/custom-agentbus")

	got := DataPath()
	want := "/tmp/custom-agentbus"
	if got != want {
		t.Errorf("DataPath() = %q, want %q", got, want)
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("AGENTBUS_PATH", "/tmp/test-agentbus")

	got := ConfigPath()
	want := "/tmp/test-agentbus/config.jsonc"
	if got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
}

func TestDotenvPath(t *testing.T) {
	t.Setenv("AGENTBUS_PATH", "/tmp/test-agentbus")

	got := DotenvPath()
	want := "/tmp/test-agentbus/.env"
	if got != want {
		t.Errorf("DotenvPath() = %q, want %q", got, want)
	}
}

func TestStorePath(t *testing.T) {
	t.Setenv("AGENTBUS_PATH", "/tmp/test-agentbus")

	got := StorePath()
	want := "/tmp/test-agentbus/bus.db"
	if got != want {
		t.Errorf("StorePath() = %q, want %q", got, want)
	}
}

func TestUploadsPath(t *testing.T) {
	t.Setenv("AGENTBUS_PATH", "/tmp/test-agentbus")

	got := UploadsPath()
	want := "/tmp/test-agentbus/uploads"
	if got != want {
		t.Errorf("UploadsPath() = %q, want %q", got, want)
	}
}

func TestCatalogPath(t *testing.T) {
	t.Setenv("AGENTBUS_PATH", "/tmp/test-agentbus")

	got := CatalogPath()
	want := "/tmp/test-agentbus/agents.yaml"
	if got != want {
		t.Errorf("CatalogPath() = %q, want %q", got, want)
	}
}
