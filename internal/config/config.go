// Package config provides configuration management for tally.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/timecalc"
)

// EnvPrefix prefixes environment overrides, e.g. TALLY_REPORTS_TIMEZONE.
const EnvPrefix = "TALLY"

const defaultDataDir = "~/.tally"

// Config holds all configuration for the tally application.
type Config struct {
	Storage       StorageConfig      `mapstructure:"storage"`
	Reports       ReportsConfig      `mapstructure:"reports"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	MCP           MCPConfig          `mapstructure:"mcp"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// ReportsConfig holds the local-day and idle/active settings of reports.
type ReportsConfig struct {
	Timezone        string `mapstructure:"timezone"`
	IdleMode        string `mapstructure:"idle_mode"`
	WorkStart       string `mapstructure:"work_start"`
	WorkEnd         string `mapstructure:"work_end"`
	IdleGraceMin    int    `mapstructure:"idle_grace_min"`
	DefaultPageSize int    `mapstructure:"default_page_size"`
}

// Location resolves the configured IANA zone; empty means local time.
func (r ReportsConfig) Location() (*time.Location, error) {
	return timecalc.LoadLocation(r.Timezone)
}

// Validate checks every reports setting.
func (r ReportsConfig) Validate() error {
	if _, err := r.Location(); err != nil {
		return err
	}
	if _, err := domain.ParseIdleMode(r.IdleMode); err != nil {
		return err
	}
	if _, _, err := timecalc.ParseClock(r.WorkStart); err != nil {
		return domain.Invalid("work_start", "%v", err)
	}
	if _, _, err := timecalc.ParseClock(r.WorkEnd); err != nil {
		return domain.Invalid("work_end", "%v", err)
	}
	if r.IdleGraceMin < 0 {
		return domain.Invalid("idle_grace_min", "cannot be negative")
	}
	if r.DefaultPageSize < 1 || r.DefaultPageSize > domain.MaxReportPageSize {
		return domain.Invalid("default_page_size", "must be between 1 and %d", domain.MaxReportPageSize)
	}
	return nil
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Sound   bool `mapstructure:"sound"`
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   bool   `mapstructure:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir: defaultDataDir,
		},
		Reports: ReportsConfig{
			Timezone:        "",
			IdleMode:        string(domain.IdleModeFixed),
			WorkStart:       "09:00",
			WorkEnd:         "17:00",
			IdleGraceMin:    0,
			DefaultPageSize: domain.DefaultReportPageSize,
		},
		Notifications: NotificationConfig{
			Enabled: true,
			Sound:   true,
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
			File:   false,
		},
	}
}

// Load loads .env overrides and then the config file, creating it with
// defaults when missing.
func Load() (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadDotEnv exports the variables of an env file without overriding ones
// already set. A missing file is fine.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadFrom loads the configuration from configPath. TALLY_* environment
// variables override file values.
func LoadFrom(configPath string) (*Config, error) {
	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	// If config file doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveTo(configPath, DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return decode(v)
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	dir, err := expandHome(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.Storage.DataDir = dir

	if err := cfg.Reports.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reports config: %w", err)
	}
	return &cfg, nil
}

// expandHome resolves a leading ~ and the empty default.
func expandHome(dir string) (string, error) {
	if dir == "" {
		dir = defaultDataDir
	}
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(dir, "~")), nil
}

// Save saves the configuration to the default config file.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return SaveTo(configPath, cfg)
}

// SaveTo writes the configuration to configPath.
func SaveTo(configPath string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")

	// Set all values
	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("reports.timezone", cfg.Reports.Timezone)
	v.Set("reports.idle_mode", cfg.Reports.IdleMode)
	v.Set("reports.work_start", cfg.Reports.WorkStart)
	v.Set("reports.work_end", cfg.Reports.WorkEnd)
	v.Set("reports.idle_grace_min", cfg.Reports.IdleGraceMin)
	v.Set("reports.default_page_size", cfg.Reports.DefaultPageSize)
	v.Set("notifications.enabled", cfg.Notifications.Enabled)
	v.Set("notifications.sound", cfg.Notifications.Sound)
	v.Set("mcp.enabled", cfg.MCP.Enabled)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.format", cfg.Logging.Format)
	v.Set("logging.file", cfg.Logging.File)

	return v.WriteConfigAs(configPath)
}

// Watch calls onChange with the reloaded configuration whenever the file at
// configPath is written. Reloads that fail to parse or validate are passed to
// onError and otherwise ignored.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tally", "config.toml"), nil
}

// GetDBPath returns the path to the database file.
func GetDBPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "tally.db")
}

// GetLogPath returns the path of the JSON log file.
func GetLogPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "tally.log")
}

// setDefaults sets default values for viper. Every key needs a default for
// AutomaticEnv to reach it through Unmarshal.
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("storage.data_dir", defaults.Storage.DataDir)
	v.SetDefault("reports.timezone", defaults.Reports.Timezone)
	v.SetDefault("reports.idle_mode", defaults.Reports.IdleMode)
	v.SetDefault("reports.work_start", defaults.Reports.WorkStart)
	v.SetDefault("reports.work_end", defaults.Reports.WorkEnd)
	v.SetDefault("reports.idle_grace_min", defaults.Reports.IdleGraceMin)
	v.SetDefault("reports.default_page_size", defaults.Reports.DefaultPageSize)
	v.SetDefault("notifications.enabled", defaults.Notifications.Enabled)
	v.SetDefault("notifications.sound", defaults.Notifications.Sound)
	v.SetDefault("mcp.enabled", defaults.MCP.Enabled)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.file", defaults.Logging.File)
}
