// Package config handles loading, defaulting, and validation of the ground
// station controller's TOML configuration file. Every section maps to a
// typed struct so the rest of the codebase gets strong typing without
// manual key lookups.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration, mirroring the TOML sections.
type Config struct {
	Data    DataConfig    `toml:"data"    json:"data"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
	Server  ServerConfig  `toml:"server"  json:"server"`
	Control ControlConfig `toml:"control" json:"control"`
	Station StationConfig `toml:"station" json:"station"`
	SDR     SDRConfig     `toml:"sdr"     json:"sdr"`
	Predict PredictConfig `toml:"predict" json:"predict"`
	Rotator RotatorConfig `toml:"rotator" json:"rotator"`
	Capture CaptureConfig `toml:"capture" json:"capture"`
}

type DataConfig struct {
	Root    string `toml:"root"    json:"root"`
	Archive string `toml:"archive" json:"archive"`
}

type LoggingConfig struct {
	Level string `toml:"level" json:"level"`
}

type ServerConfig struct {
	Bind string `toml:"bind" json:"bind"`
}

// ControlConfig binds the length-prefixed TCP control protocol server.
type ControlConfig struct {
	Bind string `toml:"bind" json:"bind"`
}

// RotatorConfig configures the az/el rotator's serial link and
// slew-rate-aware pointing guard.
type RotatorConfig struct {
	Port                string  `toml:"port"                    json:"port"`
	Baud                int     `toml:"baud"                    json:"baud"`
	MaxAzimuthDegPerS   float64 `toml:"max_azimuth_deg_per_s"   json:"max_azimuth_deg_per_s"`
	MaxElevationDegPerS float64 `toml:"max_elevation_deg_per_s" json:"max_elevation_deg_per_s"`
}

// CaptureConfig tunes the producer/consumer capture pipeline and the
// admission-control storage cap.
type CaptureConfig struct {
	SampleRateHz int     `toml:"sample_rate_hz" json:"sample_rate_hz"`
	CapGB        float64 `toml:"cap_gb"         json:"cap_gb"`
}

type StationConfig struct {
	Latitude     float64 `toml:"latitude"      json:"latitude"`
	Longitude    float64 `toml:"longitude"     json:"longitude"`
	Altitude     float64 `toml:"altitude"      json:"altitude"`
	MinElevation float64 `toml:"min_elevation" json:"min_elevation"`
	UseGPSD      bool    `toml:"use_gpsd"      json:"use_gpsd"`
	GPSDHost     string  `toml:"gpsd_host"     json:"gpsd_host"`
}

type SDRConfig struct {
	DeviceIndex   int     `toml:"device_index"   json:"device_index"`
	Gain          float64 `toml:"gain"           json:"gain"`
	PPMCorrection int     `toml:"ppm_correction" json:"ppm_correction"`
	SampleRate    int     `toml:"sample_rate"    json:"sample_rate"`
}

type PredictConfig struct {
	TLEURL          string `toml:"tle_url"           json:"tle_url"`
	TLERefreshHours int    `toml:"tle_refresh_hours" json:"tle_refresh_hours"`
	LookaheadHours  int    `toml:"lookahead_hours"   json:"lookahead_hours"`
}

// DefaultConfigDir returns the XDG-compliant config directory for the
// controller. It respects $XDG_CONFIG_HOME and falls back to
// ~/.config/groundctl.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "groundctl")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "groundctl")
}

// DefaultDataDir returns the XDG-compliant data directory for the
// controller. It respects $XDG_DATA_HOME and falls back to
// ~/.local/share/groundctl.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "groundctl")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "groundctl")
}

// FindConfigFile searches for a config file in standard locations:
//  1. $GROUNDCTL_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/groundctl/config.toml
//  3. ~/.config/groundctl/config.toml
//  4. /etc/groundctl/groundctl.toml (system-wide)
//  5. configs/example.toml (bundled fallback)
//
// Returns the path to the first file found, or empty string if none exist.
// An empty return means the caller should use Default() directly.
func FindConfigFile() string {
	if env := os.Getenv("GROUNDCTL_CONFIG"); env != "" {
		if _, err := os.Stat(env); err == nil {
			return env
		}
	}

	xdgPath := filepath.Join(DefaultConfigDir(), "config.toml")
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}

	legacyPath := "/etc/groundctl/groundctl.toml"
	if _, err := os.Stat(legacyPath); err == nil {
		return legacyPath
	}

	if _, err := os.Stat("configs/example.toml"); err == nil {
		return "configs/example.toml"
	}

	return ""
}

// ProfileInfo describes a config profile discovered in the config directory.
type ProfileInfo struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
}

// ListProfiles scans a directory for .toml files and returns them as profiles.
func ListProfiles(configDir string) ([]ProfileInfo, error) {
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var profiles []ProfileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".toml")
		profiles = append(profiles, ProfileInfo{
			Name:    name,
			Path:    filepath.Join(configDir, e.Name()),
			ModTime: info.ModTime(),
		})
	}
	return profiles, nil
}

// Default returns a Config populated with sane defaults. Values here are
// used whenever the TOML file omits a field.
func Default() Config {
	dataDir := DefaultDataDir()
	return Config{
		Data: DataConfig{
			Root:    dataDir,
			Archive: filepath.Join(dataDir, "archive"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Bind: "0.0.0.0:8080",
		},
		Control: ControlConfig{
			Bind: fmt.Sprintf(":%d", 22325),
		},
		Station: StationConfig{
			Latitude:     0.0,
			Longitude:    0.0,
			Altitude:     0.0,
			MinElevation: 10,
			UseGPSD:      false,
			GPSDHost:     "localhost:2947",
		},
		SDR: SDRConfig{
			DeviceIndex:   0,
			Gain:          40.0,
			PPMCorrection: 0,
			SampleRate:    48000,
		},
		Predict: PredictConfig{
			TLEURL:          "https://celestrak.org/NORAD/elements/gp.php?GROUP=noaa&FORMAT=tle",
			TLERefreshHours: 24,
			LookaheadHours:  24,
		},
		Rotator: RotatorConfig{
			Port:                "/dev/ttyUSB0",
			Baud:                9600,
			MaxAzimuthDegPerS:   6.0,
			MaxElevationDegPerS: 3.0,
		},
		Capture: CaptureConfig{
			SampleRateHz: 2_000_000,
			CapGB:        120,
		},
	}
}

// Load reads the TOML file at path, layers it on top of the defaults, and
// validates the result. Data directories are created automatically if they
// don't exist.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	// Expand ~ in path fields so users can write "~/.local/share/..." in TOML.
	cfg.Data.Root = expandHome(cfg.Data.Root)
	cfg.Data.Archive = expandHome(cfg.Data.Archive)

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, ensureDirs(cfg)
}

// EnsureDirectories creates the XDG config dir and data directories.
// Called by the daemon on startup regardless of whether a config file was found.
func EnsureDirectories(cfg Config) error {
	if err := os.MkdirAll(DefaultConfigDir(), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return ensureDirs(cfg)
}

func ensureDirs(cfg Config) error {
	if err := os.MkdirAll(cfg.Data.Root, 0o755); err != nil {
		return fmt.Errorf("create data root: %w", err)
	}
	if err := os.MkdirAll(cfg.Data.Archive, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	return nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

func validate(cfg Config) error {
	if cfg.Data.Root == "" {
		return errors.New("data.root must not be empty")
	}
	if cfg.Data.Archive == "" {
		return errors.New("data.archive must not be empty")
	}
	if cfg.SDR.SampleRate <= 0 {
		return errors.New("sdr.sample_rate must be > 0")
	}
	if cfg.Station.MinElevation < 0 || cfg.Station.MinElevation > 90 {
		return errors.New("station.min_elevation must be between 0 and 90")
	}
	if cfg.Predict.TLERefreshHours < 1 {
		return errors.New("predict.tle_refresh_hours must be >= 1")
	}
	if cfg.Predict.LookaheadHours < 1 {
		return errors.New("predict.lookahead_hours must be >= 1")
	}
	if cfg.Capture.CapGB <= 0 {
		return errors.New("capture.cap_gb must be > 0")
	}
	if cfg.Capture.SampleRateHz <= 0 {
		return errors.New("capture.sample_rate_hz must be > 0")
	}
	if cfg.Rotator.Baud <= 0 {
		return errors.New("rotator.baud must be > 0")
	}
	return nil
}
