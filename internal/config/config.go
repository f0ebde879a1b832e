// Package config reads the bot's settings from FITBOT_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/julianstephens/fitbot/internal/constants"
	"github.com/julianstephens/fitbot/internal/scheduler"
	"github.com/julianstephens/fitbot/internal/storage"
)

// Duration parses "10s", "5m" or a bare number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalEnvironment(data string) error {
	v, err := parseDuration(data)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func parseDuration(s string) (time.Duration, error) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration must be like 10s, 5m or a number of seconds: %w", err)
	}
	return d, nil
}

type Config struct {
	Token string `env:"FITBOT_TOKEN" env-default:""`
	DB    string `env:"FITBOT_DB" env-default:"~/.config/fitbot/fitbot.db"`
	Debug bool   `env:"FITBOT_DEBUG" env-default:"false"`

	LogJSON bool `env:"FITBOT_LOG_JSON" env-default:"false"`

	Timezone        string `env:"FITBOT_TZ" env-default:"Local"`
	SnapshotWeekday string `env:"FITBOT_SNAPSHOT_WEEKDAY" env-default:"monday"`
	SnapshotTime    string `env:"FITBOT_SNAPSHOT_TIME" env-default:"00:00"`
	SnapshotBackup  bool   `env:"FITBOT_SNAPSHOT_BACKUP" env-default:"false"`

	RedisURL   string   `env:"FITBOT_REDIS_URL" env-default:""`
	SessionTTL Duration `env:"FITBOT_SESSION_TTL" env-default:"24h"`

	HealthAddr    string   `env:"FITBOT_HEALTH_ADDR" env-default:""`
	ShutdownGrace Duration `env:"FITBOT_SHUTDOWN_GRACE" env-default:"30s"`
}

// Load reads the environment, expands ~ in the sqlite path and validates
// the schedule fields.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	return cfg, cfg.Normalize()
}

// Normalize expands paths and checks the fields that can be checked without
// I/O. Call it again after applying flag overrides.
func (c *Config) Normalize() error {
	if c.DB == "" {
		c.DB = constants.DefaultConfigPath
	}
	if storage.Kind(c.DB) == storage.KindSQLite {
		p, err := ExpandHome(c.DB)
		if err != nil {
			return err
		}
		c.DB = p
	}
	if _, err := c.Schedule(); err != nil {
		return err
	}
	if c.SessionTTL.Duration() <= 0 {
		return fmt.Errorf("FITBOT_SESSION_TTL must be positive")
	}
	if c.ShutdownGrace.Duration() <= 0 {
		return fmt.Errorf("FITBOT_SHUTDOWN_GRACE must be positive")
	}
	return nil
}

// Location resolves Timezone. "Local" and "" mean the process timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("FITBOT_TZ: %w", err)
	}
	return loc, nil
}

// Schedule is the weekly snapshot boundary.
func (c Config) Schedule() (scheduler.Schedule, error) {
	loc, err := c.Location()
	if err != nil {
		return scheduler.Schedule{}, err
	}
	s, err := scheduler.ParseSchedule(c.SnapshotWeekday, c.SnapshotTime, loc)
	if err != nil {
		return scheduler.Schedule{}, fmt.Errorf("snapshot schedule: %w", err)
	}
	return s, nil
}

// Dir is where logs, backups and the instance lock live: the directory of
// the sqlite file, or ~/.config/fitbot for other backends.
func (c Config) Dir() string {
	if storage.Kind(c.DB) == storage.KindSQLite {
		return filepath.Dir(c.DB)
	}
	p, err := ExpandHome(filepath.Dir(constants.DefaultConfigPath))
	if err != nil {
		return "."
	}
	return p
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
