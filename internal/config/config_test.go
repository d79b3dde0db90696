package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupsched/internal/model"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "monday", cfg.WeekStart)
	assert.Equal(t, model.DefaultWindow, cfg.Window())
	assert.Equal(t, 60, cfg.EventMinutes)

	// The default file must now exist with 0600 perms.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `listen: "0.0.0.0:9000"
timezone: "Europe/Berlin"
week_start: "sunday"
day_start_hour: 8
day_end_hour: 18
event_minutes: 30
refresh: "*/10 * * * *"
watch_dir: "/tmp/schedules"
basic_auth:
  username: "org"
  password: "secret"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, "sunday", cfg.WeekStart)
	assert.Equal(t, model.Window{StartHour: 8, EndHour: 18}, cfg.Window())
	assert.Equal(t, 30, cfg.EventMinutes)
	assert.Equal(t, "*/10 * * * *", cfg.RefreshCron)
	assert.Equal(t, "/tmp/schedules", cfg.WatchDir)
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "org", cfg.BasicAuth.Username)
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
}

func TestNormalizeRepairsBadValues(t *testing.T) {
	cfg := &Config{
		WeekStart:    "wednesday",
		DayStartHour: 15,
		DayEndHour:   10,
		EventMinutes: -5,
	}
	cfg.Normalize()

	assert.Equal(t, "monday", cfg.WeekStart)
	assert.Equal(t, model.DefaultWindow, cfg.Window())
	assert.Equal(t, 60, cfg.EventMinutes)
	assert.Equal(t, "*/5 * * * *", cfg.RefreshCron)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.WatchDir = "/data/schedules"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.WatchDir, loaded.WatchDir)
	assert.Equal(t, cfg.Listen, loaded.Listen)
}
