package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "antideriv.yaml")
	data := []byte(`
server:
  addr: ":9090"
engine:
  solve_timeout: 250ms
plot:
  x_min: -2
  x_max: 3
  points: 100
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.GetSolveTimeout())
	assert.Equal(t, 5*time.Second, cfg.GetRootTimeout(), "unset keys keep defaults")
	assert.Equal(t, -2.0, cfg.Plot.XMin)
	assert.Equal(t, 100, cfg.Plot.Points)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [\n"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "antideriv.yaml")
	cfg := DefaultConfig()
	cfg.Plot.Points = 42
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.Plot.Points)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ANTIDERIV_ADDR", "127.0.0.1:7000")
	t.Setenv("ANTIDERIV_LOG_LEVEL", "warn")
	t.Setenv("ANTIDERIV_SOLVE_TIMEOUT", "2s")
	t.Setenv("ANTIDERIV_ROOT_TIMEOUT", "")
	t.Setenv("ANTIDERIV_INTEGRATE_TIMEOUT", "750ms")
	t.Setenv("ANTIDERIV_POINTS", "not-a-number")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 2*time.Second, cfg.GetSolveTimeout())
	assert.Equal(t, 5*time.Second, cfg.GetRootTimeout())
	assert.Equal(t, 750*time.Millisecond, cfg.GetIntegrateTimeout())
	assert.Equal(t, 600, cfg.Plot.Points, "unparseable override ignored")
}

func TestDurationFallbacks(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 5*time.Second, cfg.GetIntegrateTimeout())
	assert.Equal(t, 5*time.Second, cfg.GetSolveTimeout())
	assert.Equal(t, 10*time.Second, cfg.GetReadTimeout())
	assert.Equal(t, 30*time.Second, cfg.GetWriteTimeout())
	assert.Equal(t, 5*time.Second, cfg.GetShutdownTimeout())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"inverted interval", func(c *Config) { c.Plot.XMin, c.Plot.XMax = 1, -1 }},
		{"too few points", func(c *Config) { c.Plot.Points = 1 }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
