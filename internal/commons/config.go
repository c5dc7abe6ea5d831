package commons

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"swiftparcel/internal/config"
)

// LoadConfig reads a YAML config file. Deployments that mount a config file
// use this; everything else falls back to config.Load and env vars.
func LoadConfig(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}
