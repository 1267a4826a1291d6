package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Defaults used by DefaultConfig and Normalize.
const (
	DefaultListen        = "127.0.0.1:8080"
	DefaultDataFile      = "./var/board.json"
	DefaultAutosave      = "*/5 * * * *"
	DefaultWeekStart     = "monday"
	DefaultPixelsPerHour = 32
	DefaultSnapMinutes   = 15
	DefaultLogLevel      = "info"
	DefaultCaptureWidth  = 1200
	DefaultCaptureHeight = 1600
)

// Environment overrides, applied by ApplyEnv after the file is read.
const (
	EnvConfigPath = "KPLANNING_CONFIG"
	EnvListen     = "KPLANNING_LISTEN"
	EnvLogLevel   = "KPLANNING_LOG_LEVEL"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the board and API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CaptureConfig sizes the headless browser viewport for board snapshots.
type CaptureConfig struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the board and API.
	Listen string `yaml:"listen" json:"listen"`

	// DataFile is the JSON snapshot the board is loaded from and saved to.
	DataFile string `yaml:"data_file" json:"data_file"`

	// Autosave is a standard 5-field cron expression. The board is written
	// to DataFile on each tick when it changed since the last save.
	Autosave string `yaml:"autosave" json:"autosave"`

	// WeekStart is "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// PixelsPerHour is the vertical scale of the day timeline.
	PixelsPerHour int `yaml:"pixels_per_hour" json:"pixels_per_hour"`

	// SnapMinutes is the drag/resize snapping granularity.
	SnapMinutes int `yaml:"snap_minutes" json:"snap_minutes"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        DefaultListen,
		DataFile:      DefaultDataFile,
		Autosave:      DefaultAutosave,
		WeekStart:     DefaultWeekStart,
		PixelsPerHour: DefaultPixelsPerHour,
		SnapMinutes:   DefaultSnapMinutes,
		LogLevel:      DefaultLogLevel,
		Capture:       CaptureConfig{Width: DefaultCaptureWidth, Height: DefaultCaptureHeight},
	}
}

// Normalize fills in missing or invalid values so partially-filled
// configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.DataFile == "" {
		c.DataFile = DefaultDataFile
	}

	c.Autosave = strings.TrimSpace(c.Autosave)
	if _, err := cron.ParseStandard(c.Autosave); c.Autosave == "" || err != nil {
		c.Autosave = DefaultAutosave
	}

	switch strings.ToLower(c.WeekStart) {
	case "monday", "sunday":
		c.WeekStart = strings.ToLower(c.WeekStart)
	default:
		c.WeekStart = DefaultWeekStart
	}

	if c.PixelsPerHour <= 0 {
		c.PixelsPerHour = DefaultPixelsPerHour
	}
	if c.SnapMinutes <= 0 {
		c.SnapMinutes = DefaultSnapMinutes
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = DefaultLogLevel
	}

	if c.Capture.Width <= 0 {
		c.Capture.Width = DefaultCaptureWidth
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = DefaultCaptureHeight
	}

	if c.BasicAuth != nil && c.BasicAuth.Username == "" {
		c.BasicAuth = nil
	}
}

// PixelsPerMinute derives the timeline scale used by layout and drag.
func (c *Config) PixelsPerMinute() float64 {
	return float64(c.PixelsPerHour) / 60
}

// ApplyEnv overrides fields from KPLANNING_* environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvListen)); v != "" {
		c.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	c.Normalize()
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there with
// 0600 permissions and returned. Otherwise the YAML is read and
// normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can still run.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config: path is empty")
	}
	if cfg == nil {
		return errors.New("config: nil config")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".kplanning-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience wrapper around the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
