package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// ProjectConfig is the optional dvload.yaml placed next to the source data.
// Every field can be overridden by environment variables and CLI flags.
type ProjectConfig struct {
	Connection   ConnectionConfig `yaml:"connection"`
	BatchSize    int              `yaml:"batch_size,omitempty"`
	SamplePrefix string           `yaml:"sample_prefix,omitempty"`
	GrantRole    string           `yaml:"grant_role,omitempty"`
	Timeout      string           `yaml:"timeout,omitempty"`
}

const ConfigFileName = "dvload.yaml"

// Load reads dvload.yaml from the source directory.
// Returns ErrConfigNotFound when the file is absent.
func Load(sourcePath string) (*ProjectConfig, error) {
	configPath := filepath.Join(sourcePath, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
