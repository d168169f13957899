package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/tally/internal/domain"
)

func TestLoadFrom_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	assert.Equal(t, "fixed", cfg.Reports.IdleMode)
	assert.Equal(t, "09:00", cfg.Reports.WorkStart)
	assert.Equal(t, "17:00", cfg.Reports.WorkEnd)
	assert.Equal(t, domain.DefaultReportPageSize, cfg.Reports.DefaultPageSize)
	assert.True(t, cfg.Notifications.Enabled)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".tally"), cfg.Storage.DataDir)
	assert.Equal(t, filepath.Join(home, ".tally", "tally.db"), GetDBPath(cfg))
}

func TestLoadFrom_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[storage]
data_dir = "` + filepath.ToSlash(dir) + `"

[reports]
timezone = "Europe/Berlin"
idle_mode = "auto"
work_start = "08:30"
work_end = "18:00"
idle_grace_min = 15
default_page_size = 25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(dir), cfg.Storage.DataDir)
	assert.Equal(t, "auto", cfg.Reports.IdleMode)
	assert.Equal(t, 15, cfg.Reports.IdleGraceMin)
	assert.Equal(t, 25, cfg.Reports.DefaultPageSize)

	loc, err := cfg.Reports.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
	// Unset sections keep their defaults.
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("TALLY_REPORTS_TIMEZONE", "America/New_York")
	t.Setenv("TALLY_REPORTS_IDLE_GRACE_MIN", "5")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", cfg.Reports.Timezone)
	assert.Equal(t, 5, cfg.Reports.IdleGraceMin)
}

func TestLoadFrom_RejectsInvalidReports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[reports]\nidle_mode = \"sometimes\"\n"), 0644))

	_, err := LoadFrom(path)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Reports.IdleMode = "clocked"
	cfg.Reports.IdleGraceMin = 10
	cfg.Logging.File = true

	require.NoError(t, SaveTo(path, cfg))
	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestReportsConfig_Validate(t *testing.T) {
	valid := DefaultConfig().Reports

	tests := []struct {
		name   string
		mutate func(*ReportsConfig)
		ok     bool
	}{
		{"defaults", func(*ReportsConfig) {}, true},
		{"zone", func(r *ReportsConfig) { r.Timezone = "Asia/Tokyo" }, true},
		{"unknown zone", func(r *ReportsConfig) { r.Timezone = "Mars/Olympus" }, false},
		{"unknown mode", func(r *ReportsConfig) { r.IdleMode = "lazy" }, false},
		{"bad start", func(r *ReportsConfig) { r.WorkStart = "9am" }, false},
		{"bad end", func(r *ReportsConfig) { r.WorkEnd = "24:30" }, false},
		{"negative grace", func(r *ReportsConfig) { r.IdleGraceMin = -1 }, false},
		{"page size too big", func(r *ReportsConfig) { r.DefaultPageSize = 101 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrValidation)
			}
		})
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	cfg.Storage.DataDir = t.TempDir()
	require.NoError(t, SaveTo(path, cfg))

	var grace atomic.Int64
	require.NoError(t, Watch(path, func(c *Config) {
		grace.Store(int64(c.Reports.IdleGraceMin))
	}, nil))

	cfg.Reports.IdleGraceMin = 42
	require.NoError(t, SaveTo(path, cfg))

	assert.Eventually(t, func() bool { return grace.Load() == 42 }, 5*time.Second, 20*time.Millisecond)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TALLY_REPORTS_WORK_END=19:00\n"), 0644))
	t.Cleanup(func() { _ = os.Unsetenv("TALLY_REPORTS_WORK_END") })

	require.NoError(t, LoadDotEnv(envFile))
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))

	cfg, err := LoadFrom(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, "19:00", cfg.Reports.WorkEnd)
}
