package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// TempoConfig holds credentials for the Tempo planning API.
type TempoConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIToken string `mapstructure:"api_token"`
	UserID   string `mapstructure:"user_id"`
}

// JiraConfig holds credentials for the Jira issue tracker.
type JiraConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Email    string `mapstructure:"email"`
	APIToken string `mapstructure:"api_token"`
}

// CalendarConfig points at the calendar file the sync writes to.
type CalendarConfig struct {
	Path string `mapstructure:"path"`
}

// SyncConfig controls the reconciliation window and schedule. When Cron is
// set it takes precedence over Interval as the tick source.
type SyncConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	Cron         string        `mapstructure:"cron"`
	LookbackDays int           `mapstructure:"lookback_days"`
	HorizonDays  int           `mapstructure:"horizon_days"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Tempo    TempoConfig    `mapstructure:"tempo"`
	Jira     JiraConfig     `mapstructure:"jira"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Log      LogConfig      `mapstructure:"log"`
}

// DefaultPath returns the platform config file location,
// e.g. ~/.config/tempocal/config.yaml on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tempocal", "config.yaml"), nil
}

func defaults() map[string]any {
	return map[string]any{
		"tempo.base_url":     "https://api.tempo.io/4",
		"tempo.api_token":    "",
		"tempo.user_id":      "",
		"jira.base_url":      "",
		"jira.email":         "",
		"jira.api_token":     "",
		"calendar.path":      "",
		"sync.interval":      15 * time.Minute,
		"sync.cron":          "",
		"sync.lookback_days": 7,
		"sync.horizon_days":  365,
		"log.level":          "info",
		"log.format":         "console",
	}
}

// New builds a viper instance bound to the given config file with all
// defaults registered and TEMPOCAL_* environment overrides enabled.
func New(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix("TEMPOCAL")
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path into a Config. A missing file is not an
// error; defaults and environment overrides still apply. The returned viper
// instance can be used for watching and for targeted key writes.
func Load(path string) (*Config, *viper.Viper, error) {
	v := New(path)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Normalize fills zero values with defaults so partially filled config files
// behave correctly.
func (c *Config) Normalize() {
	if c.Tempo.BaseURL == "" {
		c.Tempo.BaseURL = "https://api.tempo.io/4"
	}
	if c.Sync.Interval <= 0 {
		c.Sync.Interval = 15 * time.Minute
	}
	if c.Sync.LookbackDays <= 0 {
		c.Sync.LookbackDays = 7
	}
	if c.Sync.HorizonDays <= 0 {
		c.Sync.HorizonDays = 365
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Calendar.Path == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.Calendar.Path = filepath.Join(dir, "tempocal", "tempocal.ics")
		}
	}
}

// Validate reports the first missing setting required for a sync pass.
func (c *Config) Validate() error {
	switch {
	case c.Tempo.UserID == "":
		return fmt.Errorf("tempo.user_id is not set")
	case c.Tempo.APIToken == "":
		return fmt.Errorf("tempo.api_token is not set")
	case c.Jira.BaseURL == "":
		return fmt.Errorf("jira.base_url is not set")
	case c.Jira.Email == "":
		return fmt.Errorf("jira.email is not set")
	case c.Jira.APIToken == "":
		return fmt.Errorf("jira.api_token is not set")
	case c.Calendar.Path == "":
		return fmt.Errorf("calendar.path is not set")
	}
	return nil
}

// CredentialsChanged reports whether any remote identity or credential
// differs between the two configs. A credential change invalidates the
// current sync cadence and should trigger an immediate pass.
func CredentialsChanged(old, new *Config) bool {
	return old.Tempo.UserID != new.Tempo.UserID ||
		old.Tempo.APIToken != new.Tempo.APIToken ||
		old.Jira.Email != new.Jira.Email ||
		old.Jira.APIToken != new.Jira.APIToken
}
