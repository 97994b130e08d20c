package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	EventStats EventStatsConfig `yaml:"eventstats"`
}

// EventStatsConfig is the project configuration.
type EventStatsConfig struct {
	Source   SourceConfig   `yaml:"source"`
	Geo      GeoConfig      `yaml:"geo"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SourceConfig locates the gzipped tab-separated event log. A local file
// takes precedence over a URL.
type SourceConfig struct {
	URL     string        `yaml:"url"`
	File    string        `yaml:"file"`
	Timeout time.Duration `yaml:"timeout"`
}

// GeoConfig locates the MaxMind city database.
type GeoConfig struct {
	DBPath string `yaml:"db_path"`
}

// PipelineConfig controls the enrichment worker pool.
type PipelineConfig struct {
	Workers int `yaml:"workers"`
}

// DatabaseConfig locates the SQLite events database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig controls the query API listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
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
