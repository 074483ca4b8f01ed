package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPassesValidation(t *testing.T) {
	cfg := Default()
	assert.NoError(t, validate(cfg))
}

func TestValidateRejectsBadFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty_data_root", func(c *Config) { c.Data.Root = "" }},
		{"empty_data_archive", func(c *Config) { c.Data.Archive = "" }},
		{"non_positive_sample_rate", func(c *Config) { c.SDR.SampleRate = 0 }},
		{"elevation_below_zero", func(c *Config) { c.Station.MinElevation = -1 }},
		{"elevation_above_ninety", func(c *Config) { c.Station.MinElevation = 91 }},
		{"tle_refresh_below_one", func(c *Config) { c.Predict.TLERefreshHours = 0 }},
		{"lookahead_below_one", func(c *Config) { c.Predict.LookaheadHours = 0 }},
		{"non_positive_cap_gb", func(c *Config) { c.Capture.CapGB = 0 }},
		{"non_positive_capture_sample_rate", func(c *Config) { c.Capture.SampleRateHz = 0 }},
		{"non_positive_rotator_baud", func(c *Config) { c.Rotator.Baud = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, validate(cfg))
		})
	}
}

func TestLoadRoundTripsTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Data.Root = filepath.Join(dir, "data")
	cfg.Data.Archive = filepath.Join(dir, "data", "archive")
	cfg.Control.Bind = ":9999"

	b, err := toml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", loaded.Control.Bind)
	assert.Equal(t, cfg.Data.Root, loaded.Data.Root)

	// Load must also have created the data directories.
	_, err = os.Stat(loaded.Data.Archive)
	assert.NoError(t, err)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[capture]\ncap_gb = 0\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestFindConfigFileRespectsEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	t.Setenv("GROUNDCTL_CONFIG", path)
	assert.Equal(t, path, FindConfigFile())
}
