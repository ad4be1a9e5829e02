package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/marcozac/go-jsonc"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a JSONC config file, strips comments, expands ${{ .Env.VAR }} templates,
// unmarshals it into Config, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variable templates (before stripping, since templates are in strings)
	expanded := expandEnvTemplates(string(data))

	// Strip JSONC comments and unmarshal
	var cfg Config
	if err := jsonc.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Host == "" {
		cfg.Gateway.Host = "127.0.0.1"
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 39765
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = StorePath()
	}

	if cfg.Events.SubscriberQueueSize == 0 {
		cfg.Events.SubscriberQueueSize = 256
	}

	if cfg.Wait.DefaultTimeoutSeconds == 0 {
		cfg.Wait.DefaultTimeoutSeconds = 300
	}
	if cfg.Wait.MaxTimeoutSeconds == 0 {
		cfg.Wait.MaxTimeoutSeconds = 600
	}
	if cfg.Wait.SafetyNetPollSeconds == 0 {
		cfg.Wait.SafetyNetPollSeconds = 1
	}

	if cfg.Presence.HeartbeatTimeoutSeconds == 0 {
		cfg.Presence.HeartbeatTimeoutSeconds = 30
	}
	if cfg.Presence.SweepIntervalSeconds == 0 {
		cfg.Presence.SweepIntervalSeconds = 1
	}

	if cfg.Uploads.Dir == "" {
		cfg.Uploads.Dir = UploadsPath()
	}
	// RetentionHours and MaxTotalBytes are left at their zero value; no component reads them.

	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = CatalogPath()
	}
}
