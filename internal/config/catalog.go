package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// InstanceConfig represents a single physical unit of a resource type.
type InstanceConfig struct {
	ID             int64  `yaml:"id"`
	EquipmentClass string `yaml:"equipment_class"`
}

// ResourceTypeConfig represents one bookable resource type.
type ResourceTypeConfig struct {
	Key       string           `yaml:"key"`
	Label     string           `yaml:"label"`
	Instances []InstanceConfig `yaml:"instances,omitempty"`
}

// CatalogConfig is the root configuration for catalog.yaml.
type CatalogConfig struct {
	Types []ResourceTypeConfig `yaml:"types"`
}

// LoadCatalogConfig loads and validates the resource catalog from YAML file.
func LoadCatalogConfig(path string) (*CatalogConfig, error) {
	if path == "" {
		path = "configs/catalog.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog config: %w", err)
	}

	var cfg CatalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse catalog config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate catalog config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *CatalogConfig) Validate() error {
	if len(c.Types) == 0 {
		return fmt.Errorf("no resource types defined")
	}

	keys := make(map[string]bool)
	instanceIDs := make(map[int64]bool)

	for i, t := range c.Types {
		if t.Key == "" {
			return fmt.Errorf("types[%d]: key is required", i)
		}
		if keys[t.Key] {
			return fmt.Errorf("types[%d]: duplicate key '%s'", i, t.Key)
		}
		keys[t.Key] = true

		for j, inst := range t.Instances {
			if inst.ID <= 0 {
				return fmt.Errorf("types[%d].instances[%d]: id must be positive, got %d", i, j, inst.ID)
			}
			if instanceIDs[inst.ID] {
				return fmt.Errorf("types[%d].instances[%d]: duplicate id %d", i, j, inst.ID)
			}
			instanceIDs[inst.ID] = true
		}
	}

	return nil
}

// applyDefaults fills labels left empty in the file.
func (c *CatalogConfig) applyDefaults() {
	for i := range c.Types {
		if c.Types[i].Label == "" {
			c.Types[i].Label = c.Types[i].Key
		}
	}
}

// GetTypeByKey returns resource type config by key.
func (c *CatalogConfig) GetTypeByKey(key string) *ResourceTypeConfig {
	for i := range c.Types {
		if c.Types[i].Key == key {
			return &c.Types[i]
		}
	}
	return nil
}

// String returns a summary of the configuration.
func (c *CatalogConfig) String() string {
	instances := 0
	for _, t := range c.Types {
		instances += len(t.Instances)
	}
	return fmt.Sprintf("CatalogConfig: %d types, %d instances", len(c.Types), instances)
}
