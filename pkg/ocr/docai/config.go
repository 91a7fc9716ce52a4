package docai

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the Document AI processor coordinates.
type Config struct {
	ProjectID   string `yaml:"project_id"`
	Location    string `yaml:"location"`
	ProcessorID string `yaml:"processor_id"`
}

// LoadConfig reads a YAML file with Document AI settings:
//
//	project_id: "your-gcp-project-id"
//	location: "us"
//	processor_id: "your-processor-id"
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate reports the first missing field.
func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	if c.Location == "" {
		return fmt.Errorf("location is required")
	}
	if c.ProcessorID == "" {
		return fmt.Errorf("processor_id is required")
	}
	return nil
}
