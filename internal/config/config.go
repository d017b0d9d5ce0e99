package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// Config holds everything botdash reads from config.toml.
type Config struct {
	APIBase        string
	Token          string
	RequestTimeout time.Duration

	StaleTime     time.Duration
	GCTime        time.Duration
	RetryAttempts int
	RetryBase     time.Duration

	StatusInterval time.Duration
	GuildsInterval time.Duration
	ServerInterval time.Duration

	LogFile  string
	LogLevel zerolog.Level
}

const (
	defaultConfigPath     = "~/.config/botdash/config.toml"
	defaultLogFile        = "~/.local/state/botdash/botdash.log"
	defaultAPIBase        = "http://127.0.0.1:3001"
	defaultRequestTimeout = 5 * time.Second
	defaultStaleTime      = 10 * time.Second
	defaultGCTime         = 5 * time.Minute
	defaultRetryAttempts  = 2
	defaultRetryBase      = time.Second
	defaultStatusInterval = 30 * time.Second
	defaultGuildsInterval = 5 * time.Minute
)

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBase:        defaultAPIBase,
		RequestTimeout: defaultRequestTimeout,
		StaleTime:      defaultStaleTime,
		GCTime:         defaultGCTime,
		RetryAttempts:  defaultRetryAttempts,
		RetryBase:      defaultRetryBase,
		StatusInterval: defaultStatusInterval,
		GuildsInterval: defaultGuildsInterval,
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       zerolog.InfoLevel,
	}
}

type rawConfig struct {
	APIBase        string `toml:"api_base"`
	Token          string `toml:"token"`
	RequestTimeout string `toml:"request_timeout"`
	StaleTime      string `toml:"stale_time"`
	GCTime         string `toml:"gc_time"`
	RetryAttempts  *int   `toml:"retry_attempts"`
	RetryBase      string `toml:"retry_base"`
	StatusInterval string `toml:"status_interval"`
	GuildsInterval string `toml:"guilds_interval"`
	ServerInterval string `toml:"server_interval"`
	LogFile        string `toml:"log_file"`
	LogLevel       string `toml:"log_level"`
}

// Load reads the config at path, falling back to defaults when the file is
// missing. Empty fields keep their defaults; malformed values are errors.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBase); v != "" {
		cfg.APIBase = v
	}
	cfg.Token = strings.TrimSpace(raw.Token)
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		level, err := zerolog.ParseLevel(strings.ToLower(v))
		if err != nil {
			return Config{}, fmt.Errorf("log_level: %w", err)
		}
		cfg.LogLevel = level
	}
	if raw.RetryAttempts != nil {
		if *raw.RetryAttempts < 0 {
			return Config{}, fmt.Errorf("retry_attempts must not be negative")
		}
		cfg.RetryAttempts = *raw.RetryAttempts
	}

	durations := []struct {
		name  string
		value string
		dest  *time.Duration
	}{
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
		{"stale_time", raw.StaleTime, &cfg.StaleTime},
		{"gc_time", raw.GCTime, &cfg.GCTime},
		{"retry_base", raw.RetryBase, &cfg.RetryBase},
		{"status_interval", raw.StatusInterval, &cfg.StatusInterval},
		{"guilds_interval", raw.GuildsInterval, &cfg.GuildsInterval},
		{"server_interval", raw.ServerInterval, &cfg.ServerInterval},
	}
	for _, d := range durations {
		if err := parseDuration(d.name, d.value, d.dest); err != nil {
			return Config{}, err
		}
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("request_timeout must be positive")
	}

	return cfg, nil
}

func parseDuration(name, value string, dest *time.Duration) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if d < 0 {
		return fmt.Errorf("%s must not be negative", name)
	}
	*dest = d
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath trims path, expands a leading ~ to the home directory and makes
// the result absolute.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
