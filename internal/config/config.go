package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ReminderConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Time     string   `mapstructure:"time"`     // "17:00"
	Workdays []string `mapstructure:"workdays"` // ["Mon","Tue","Wed","Thu","Fri"]
	Holidays []string `mapstructure:"holidays"` // ["2025-01-26", "2025-08-15"]
	Timezone string   `mapstructure:"timezone"` // e.g. "Asia/Kolkata" (optional)
}

type TrackerConfig struct {
	MaxHistory       int     `mapstructure:"max_history"`       // completions kept per tracker
	SpreadMultiplier float64 `mapstructure:"spread_multiplier"` // early/late bound width
	PageSize         int     `mapstructure:"page_size"`         // rows per page, capped at 26 tags
}

type Config struct {
	Theme    string         `mapstructure:"theme"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

func Default() Config {
	return Config{
		Theme: "default",
		Tracker: TrackerConfig{
			MaxHistory:       12,
			SpreadMultiplier: 1.5,
			PageSize:         26,
		},
		Reminder: ReminderConfig{
			Enabled:  true,
			Time:     "17:00",
			Workdays: []string{"Mon", "Tue", "Wed", "Thu", "Fri"},
			Holidays: []string{},
			Timezone: "",
		},
	}
}

func xdgConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".config", "cadence")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func Load() (Config, error) {
	cfg := Default()

	path, err := xdgConfigPath()
	if err != nil {
		return cfg, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	// defaults
	v.SetDefault("theme", cfg.Theme)
	v.SetDefault("tracker.max_history", cfg.Tracker.MaxHistory)
	v.SetDefault("tracker.spread_multiplier", cfg.Tracker.SpreadMultiplier)
	v.SetDefault("tracker.page_size", cfg.Tracker.PageSize)
	v.SetDefault("reminder.enabled", cfg.Reminder.Enabled)
	v.SetDefault("reminder.time", cfg.Reminder.Time)
	v.SetDefault("reminder.workdays", cfg.Reminder.Workdays)
	v.SetDefault("reminder.holidays", cfg.Reminder.Holidays)
	v.SetDefault("reminder.timezone", cfg.Reminder.Timezone)

	_ = v.ReadInConfig() // ok if missing
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config unmarshal: %w", err)
	}

	// normalize workdays to three-letter abbreviations
	days := cfg.Reminder.Workdays[:0]
	for _, d := range cfg.Reminder.Workdays {
		d = strings.TrimSpace(d)
		if len(d) < 3 {
			continue
		}
		days = append(days, strings.Title(strings.ToLower(d[:3])))
	}
	cfg.Reminder.Workdays = days
	// tags run a-z, so a page can never show more than 26 rows
	if cfg.Tracker.PageSize < 1 || cfg.Tracker.PageSize > 26 {
		cfg.Tracker.PageSize = 26
	}
	if cfg.Tracker.MaxHistory < 2 {
		cfg.Tracker.MaxHistory = 12
	}
	if cfg.Tracker.SpreadMultiplier <= 0 {
		cfg.Tracker.SpreadMultiplier = 1.5
	}
	return cfg, nil
}

func (c Config) Location() *time.Location {
	if tz := strings.TrimSpace(c.Reminder.Timezone); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.Local
}
