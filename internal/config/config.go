package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath    = "BOXOFFICE_CONFIG"
	EnvDatabaseURL   = "DATABASE_URL"
	EnvLogLevel      = "BOXOFFICE_LOG_LEVEL"
	EnvMetricsListen = "BOXOFFICE_METRICS_LISTEN"
)

var searchLocations = []string{"boxoffice.yaml", "boxoffice.yml", ".boxoffice.yaml", ".boxoffice.yml"}

// Config represents the boxoffice.yaml configuration structure
type Config struct {
	Database struct {
		URL              string        `yaml:"url"`
		MaxOpenConns     int           `yaml:"max_open_conns"`
		MaxIdleConns     int           `yaml:"max_idle_conns"`
		ConnMaxLifetime  time.Duration `yaml:"conn_max_lifetime"`
		StatementTimeout time.Duration `yaml:"statement_timeout"`
	} `yaml:"database"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Worker struct {
		DeactivateInterval time.Duration `yaml:"deactivate_interval"`
	} `yaml:"worker"`

	Metrics struct {
		Listen    string `yaml:"listen"`
		Namespace string `yaml:"namespace"`
	} `yaml:"metrics"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads .env, the config file and the environment, in that order of
// increasing precedence. A missing config file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return cfg, nil
}

// Path resolves which config file Load would read, or "" when none exists.
func Path() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}

	for _, loc := range searchLocations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

func loadFile(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvMetricsListen); v != "" {
		c.Metrics.Listen = v
	}
}

func (c *Config) applyDefaults() {
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 10 * time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Worker.DeactivateInterval == 0 {
		c.Worker.DeactivateInterval = time.Hour
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "boxoffice"
	}
}

// Validate reports settings that cannot be used as given.
func (c *Config) Validate() error {
	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database connection limits must not be negative")
	}
	if c.Database.StatementTimeout < 0 {
		return fmt.Errorf("database.statement_timeout must not be negative")
	}
	if c.Worker.DeactivateInterval < time.Second {
		return fmt.Errorf("worker.deactivate_interval must be at least 1s, got %s", c.Worker.DeactivateInterval)
	}
	return nil
}
