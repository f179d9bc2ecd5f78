package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// Current version of the config file.
const CurrentConfigVersion = 1

// envPrefix is stripped from environment variables before they are mapped
// onto config keys: VOXGUARD_POSTGRESQL_HOST -> postgresql.host.
const envPrefix = "VOXGUARD_"

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Discord    Discord    `koanf:"discord"`
	Voice      Voice      `koanf:"voice"`
	Worker     Worker     `koanf:"worker"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log files to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Enable pprof debugging.
	EnablePprof bool `koanf:"enable_pprof"`
	// pprof server port.
	PprofPort int `koanf:"pprof_port"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Discord contains Discord bot configuration.
type Discord struct {
	// Discord bot token for authentication.
	Token string `koanf:"token"`
	// Request timeout for REST calls in milliseconds.
	RequestTimeout int `koanf:"request_timeout"`
}

// Voice contains the tunables for ephemeral voice channel handling.
type Voice struct {
	// Minutes a fresh channel has to run /rename or /retag before the
	// sweeper applies defaults.
	ConfigDeadlineMinutes int `koanf:"config_deadline_minutes"`
	// Grace period in minutes added on top of the deadline.
	DeadlineGraceMinutes int `koanf:"deadline_grace_minutes"`
	// Cooldown between rename/retag uses in minutes.
	CommandCooldownMinutes int `koanf:"command_cooldown_minutes"`
	// Spam sliding window length in seconds.
	SpamWindowSeconds int `koanf:"spam_window_seconds"`
	// Join/leave cycles within the window before a warning prompt.
	SpamPromptThreshold int `koanf:"spam_prompt_threshold"`
	// Join/leave cycles within the window before a timeout infraction.
	SpamInfractionThreshold int `koanf:"spam_infraction_threshold"`
	// Days without infractions before the timeout level resets.
	SpamDecayDays int `koanf:"spam_decay_days"`
}

// Worker contains background worker configuration.
type Worker struct {
	// Deadline sweep interval in seconds.
	SweepIntervalSeconds int `koanf:"sweep_interval_seconds"`
	// Spam decay check interval in minutes.
	DecayIntervalMinutes int `koanf:"decay_interval_minutes"`
	// Maximum channels processed concurrently per sweep.
	SweepConcurrency int `koanf:"sweep_concurrency"`
}

// defaultConfig returns a Config with the built-in defaults. These are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Debug: Debug{
			LogLevel:      "info",
			MaxLogsToKeep: 10,
			EnablePprof:   false,
			PprofPort:     6060,
		},
		PostgreSQL: PostgreSQL{
			Host:         "localhost",
			Port:         5432,
			User:         "voxguard",
			DBName:       "voxguard",
			MaxOpenConns: 16,
			MaxIdleConns: 8,
			MaxLifetime:  10,
			MaxIdleTime:  5,
		},
		Redis: Redis{
			Host: "localhost",
			Port: 6379,
		},
		Discord: Discord{
			RequestTimeout: 5000,
		},
		Voice: Voice{
			ConfigDeadlineMinutes:   5,
			DeadlineGraceMinutes:    5,
			CommandCooldownMinutes:  30,
			SpamWindowSeconds:       60,
			SpamPromptThreshold:     5,
			SpamInfractionThreshold: 10,
			SpamDecayDays:           30,
		},
		Worker: Worker{
			SweepIntervalSeconds: 30,
			DecayIntervalMinutes: 60,
			SweepConcurrency:     8,
		},
	}
}

// LoadConfig loads the configuration with ENV > file > defaults
// precedence. Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	// Load built-in defaults first
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// List search paths
	configPaths := []string{
		".voxguard",
		homeDir + "/.voxguard/config",
		"/etc/voxguard/config",
		"/app/config",
		"config",
		".",
	}

	var usedConfigPath string

	for _, path := range configPaths {
		configPath := path + "/config.toml"
		if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
			usedConfigPath = path
			break
		}
	}

	if usedConfigPath == "" {
		return nil, "", fmt.Errorf("%w: config.toml", ErrConfigFileNotFound)
	}

	// Environment variables take highest priority:
	// VOXGUARD_POSTGRESQL_MAX_OPEN_CONNS -> postgresql.max_open_conns.
	// Config keys are always section.key, so only the first underscore
	// separates the section.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.Replace(key, "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, "", fmt.Errorf("failed to load environment variables: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion(config.Version, CurrentConfigVersion); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: config.toml", ErrConfigVersionMissing)
	}

	if current != expected {
		return fmt.Errorf("%w: config.toml (got: %d, expected: %d)",
			ErrConfigVersionMismatch, current, expected)
	}

	return nil
}
