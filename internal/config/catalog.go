package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CatalogEntry is one invitable agent as declared in the catalog file.
type CatalogEntry struct {
	Name           string `yaml:"name"`
	DisplayName    string `yaml:"display_name"`
	Description    string `yaml:"description"`
	InvokeCommand  string `yaml:"invoke_command"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Enabled        bool   `yaml:"enabled"`
}

// Catalog is the declarative list of agents that can be invited to a thread.
type Catalog struct {
	Agents []CatalogEntry `yaml:"agents"`
}

// LoadCatalog reads the YAML agent catalog file. A missing file yields an
// empty catalog rather than an error, since the catalog is optional — a bus
// with no declared invitable agents is still a valid bus.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Catalog{}, nil
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}

	for i, a := range cat.Agents {
		if a.TimeoutSeconds == 0 {
			cat.Agents[i].TimeoutSeconds = 60
		}
	}

	return &cat, nil
}

// Find returns the catalog entry with the given name, or false if absent.
func (c *Catalog) Find(name string) (CatalogEntry, bool) {
	for _, a := range c.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return CatalogEntry{}, false
}
