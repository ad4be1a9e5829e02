package config

import (
	"os"
	"path/filepath"
)

// DataPath returns the root directory for the agent bus's data.
// It uses $AGENTBUS_PATH if set, otherwise defaults to ~/.agentbus.
func DataPath() string {
	if v := os.Getenv("AGENTBUS_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".agentbus")
	}
	return filepath.Join(home, ".agentbus")
}

// ConfigPath returns the path to the main config file.
func ConfigPath() string {
	return filepath.Join(DataPath(), "config.jsonc")
}

// DotenvPath returns the path to the .env file.
func DotenvPath() string {
	return filepath.Join(DataPath(), ".env")
}

// StorePath returns the default path to the sqlite database file.
func StorePath() string {
	return filepath.Join(DataPath(), "bus.db")
}

// UploadsPath returns the default directory image uploads are written under.
func UploadsPath() string {
	return filepath.Join(DataPath(), "uploads")
}

// CatalogPath returns the default path to the available-agent catalog.
func CatalogPath() string {
	return filepath.Join(DataPath(), "agents.yaml")
}
