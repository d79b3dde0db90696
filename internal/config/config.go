package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	appLog "groupsched/internal/log"
	"groupsched/internal/model"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used for calendar invite anchoring and
	// ICS import (e.g. "Europe/Berlin"). Empty means the system local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls which weekday is shown first in the Web UI grid.
	// Supported values:
	//   - "monday" (default)
	//   - "sunday"
	// Grid files always index days Monday=0..Sunday=6 regardless.
	WeekStart string `yaml:"week_start" json:"week_start"`

	// DayStartHour / DayEndHour define the daily slot window. EndHour is
	// exclusive; the defaults 9/20 give hourly slots 09:00..19:00.
	DayStartHour int `yaml:"day_start_hour" json:"day_start_hour"`
	DayEndHour   int `yaml:"day_end_hour" json:"day_end_hour"`

	// EventMinutes is the default duration of exported calendar events.
	EventMinutes int `yaml:"event_minutes" json:"event_minutes"`

	// RefreshCron is a cron-style schedule string (e.g. "*/5 * * * *")
	// used by serve mode to rescan WatchDir for schedule files.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// WatchDir, if non-empty, is a directory of exported schedule files that
	// serve mode loads into the workspace on every refresh tick.
	WatchDir string `yaml:"watch_dir" json:"watch_dir"`

	// WorkspacePath is the SQLite database holding loaded schedules between
	// CLI invocations. Empty means a per-user default location.
	WorkspacePath string `yaml:"workspace" json:"workspace"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        "127.0.0.1:8080",
		Timezone:      "",
		WeekStart:     "monday",
		DayStartHour:  model.DefaultWindow.StartHour,
		DayEndHour:    model.DefaultWindow.EndHour,
		EventMinutes:  60,
		RefreshCron:   "*/5 * * * *",
		WatchDir:      "",
		WorkspacePath: "",
		BasicAuth:     nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	// WeekStart default & validation.
	switch c.WeekStart {
	case "monday", "sunday":
		// ok
	case "":
		c.WeekStart = "monday"
	default:
		// Unknown value; fall back to monday to avoid surprising layouts.
		c.WeekStart = "monday"
	}
	if !c.Window().Valid() {
		c.DayStartHour = model.DefaultWindow.StartHour
		c.DayEndHour = model.DefaultWindow.EndHour
	}
	if c.EventMinutes <= 0 {
		c.EventMinutes = 60
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/5 * * * *"
	}
}

// Window returns the configured slot window.
func (c *Config) Window() model.Window {
	return model.Window{StartHour: c.DayStartHour, EndHour: c.DayEndHour}
}

// Location resolves the configured timezone, falling back to the system
// local zone on an empty or invalid name.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// ResolveWorkspacePath returns the effective workspace database path,
// defaulting to <user config dir>/groupsched/workspace.db.
func (c *Config) ResolveWorkspacePath() (string, error) {
	if c.WorkspacePath != "" {
		return c.WorkspacePath, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "groupsched", "workspace.db"), nil
}

// DefaultPath returns the default config file location,
// <user config dir>/groupsched/config.yaml, or a relative fallback when the
// user config dir cannot be determined.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "groupsched.yaml"
	}
	return filepath.Join(base, "groupsched", "config.yaml")
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
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

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".groupsched-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
