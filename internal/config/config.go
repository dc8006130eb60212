package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/svipsc/ranking/internal/models"
)

// Source kinds
const (
	SourceDir    = "dir"
	SourceHTTP   = "http"
	SourceSQLite = "sqlite"
)

// Config holds server and publish settings
type Config struct {
	Port    string        `yaml:"port"`
	Verbose bool          `yaml:"verbose"`
	Data    DataConfig    `yaml:"data"`
	CORS    CORSConfig    `yaml:"cors"`
	Publish PublishConfig `yaml:"publish"`

	// Divisions overrides the built-in division list when non-empty
	Divisions []models.Division `yaml:"divisions"`
}

// DataConfig selects where ranking files are read from
type DataConfig struct {
	Source  string `yaml:"source"`   // dir, http, sqlite
	Dir     string `yaml:"dir"`      // for dir; also served under /data/
	BaseURL string `yaml:"base_url"` // for http
	DBPath  string `yaml:"db_path"`  // for sqlite
	Timeout string `yaml:"timeout"`  // http client timeout, empty = none
}

// CORSConfig configures the JSON API
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// PublishConfig configures the publish tool
type PublishConfig struct {
	ResultsDir    string `yaml:"results_dir"`
	KeepSnapshots int    `yaml:"keep_snapshots"`
}

// DefaultConfig returns the settings used when no file is present
func DefaultConfig() *Config {
	return &Config{
		Port: "8080",
		Data: DataConfig{
			Source: SourceDir,
			Dir:    "docs/data",
			DBPath: "./ranking.db",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:*"},
		},
		Publish: PublishConfig{
			ResultsDir:    "results",
			KeepSnapshots: 5,
		},
	}
}

// Load reads a YAML config file. A missing file yields the defaults.
// Environment variables override both. Callers apply flags, then Validate.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		c.Data.Source = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("DATA_URL"); v != "" {
		c.Data.BaseURL = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Data.DBPath = v
	}
}

// Validate checks the source selection
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceDir:
		if c.Data.Dir == "" {
			return fmt.Errorf("data.dir is required for source %q", c.Data.Source)
		}
	case SourceHTTP:
		if c.Data.BaseURL == "" {
			return fmt.Errorf("data.base_url is required for source %q", c.Data.Source)
		}
	case SourceSQLite:
		if c.Data.DBPath == "" {
			return fmt.Errorf("data.db_path is required for source %q", c.Data.Source)
		}
	default:
		return fmt.Errorf("unknown data source %q", c.Data.Source)
	}
	if _, err := c.HTTPTimeout(); err != nil {
		return err
	}
	return nil
}

// HTTPTimeout parses data.timeout; zero means no timeout
func (c *Config) HTTPTimeout() (time.Duration, error) {
	if c.Data.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Data.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid data.timeout: %w", err)
	}
	return d, nil
}

// Registry builds the division registry
func (c *Config) Registry() *models.Registry {
	if len(c.Divisions) > 0 {
		return models.NewRegistry(c.Divisions...)
	}
	return models.DefaultRegistry()
}
