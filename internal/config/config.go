package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all antideriv configuration.
type Config struct {
	// HTTP service
	Server ServerConfig `yaml:"server"`

	// Reconstruction engine
	Engine EngineConfig `yaml:"engine"`

	// Plot rendering and sampling
	Plot PlotConfig `yaml:"plot"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64  `yaml:"max_body_bytes"`
}

// EngineConfig bounds the expensive reconstruction stages.
type EngineConfig struct {
	IntegrateTimeout string `yaml:"integrate_timeout"`
	SolveTimeout     string `yaml:"solve_timeout"`
	RootTimeout      string `yaml:"root_timeout"`
}

// PlotConfig sets defaults for sampling and PNG output.
type PlotConfig struct {
	XMin     float64 `yaml:"x_min"`
	XMax     float64 `yaml:"x_max"`
	Points   int     `yaml:"points"`
	WidthIn  float64 `yaml:"width_in"`
	HeightIn float64 `yaml:"height_in"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     "10s",
			WriteTimeout:    "30s",
			ShutdownTimeout: "5s",
			MaxBodyBytes:    1 << 20,
		},
		Engine: EngineConfig{
			IntegrateTimeout: "5s",
			SolveTimeout:     "5s",
			RootTimeout:      "5s",
		},
		Plot: PlotConfig{
			XMin:     -5,
			XMax:     5,
			Points:   600,
			WidthIn:  6,
			HeightIn: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("ANTIDERIV_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("ANTIDERIV_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if d := os.Getenv("ANTIDERIV_INTEGRATE_TIMEOUT"); d != "" {
		c.Engine.IntegrateTimeout = d
	}
	if d := os.Getenv("ANTIDERIV_SOLVE_TIMEOUT"); d != "" {
		c.Engine.SolveTimeout = d
	}
	if d := os.Getenv("ANTIDERIV_ROOT_TIMEOUT"); d != "" {
		c.Engine.RootTimeout = d
	}
	if n := os.Getenv("ANTIDERIV_POINTS"); n != "" {
		if v, err := strconv.Atoi(n); err == nil {
			c.Plot.Points = v
		}
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// GetIntegrateTimeout returns the antidifferentiation timeout.
func (c *Config) GetIntegrateTimeout() time.Duration {
	return parseDuration(c.Engine.IntegrateTimeout, 5*time.Second)
}

// GetSolveTimeout returns the constraint solve timeout.
func (c *Config) GetSolveTimeout() time.Duration {
	return parseDuration(c.Engine.SolveTimeout, 5*time.Second)
}

// GetRootTimeout returns the timeout applied to each root search.
func (c *Config) GetRootTimeout() time.Duration {
	return parseDuration(c.Engine.RootTimeout, 5*time.Second)
}

// GetReadTimeout returns the HTTP read timeout.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 10*time.Second)
}

// GetWriteTimeout returns the HTTP write timeout.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 30*time.Second)
}

// GetShutdownTimeout returns the graceful shutdown timeout.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 5*time.Second)
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address not configured (set server.addr or ANTIDERIV_ADDR)")
	}
	if !(c.Plot.XMax > c.Plot.XMin) {
		return fmt.Errorf("plot.x_max (%v) must exceed plot.x_min (%v)", c.Plot.XMax, c.Plot.XMin)
	}
	if c.Plot.Points < 2 {
		return fmt.Errorf("plot.points must be at least 2, got %d", c.Plot.Points)
	}
	validLevel := false
	for _, l := range ValidLogLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}
	return nil
}
