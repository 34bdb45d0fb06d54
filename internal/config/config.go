// Package config handles loading default conversion settings from a file.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds defaults that CLI flags override.
type Config struct {
	Columns         string `yaml:"columns,omitempty"`
	ConvertOptions  string `yaml:"convert_options,omitempty"`
	OutputDirectory string `yaml:"output_directory,omitempty"`
	Strategy        string `yaml:"strategy,omitempty"`
	OGR2OGR         string `yaml:"ogr2ogr,omitempty"`
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Resolve loads the configuration file, treating a missing file as empty
// defaults when the path was not explicitly requested by the user.
func Resolve(path string, explicit bool) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	return cfg, nil
}
