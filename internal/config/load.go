package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. LAZYCARD_DATABASE_PATH overrides database.path.
const EnvPrefix = "LAZYCARD"

// DefaultDataDir returns the directory holding the database, backups and
// optional config file when nothing else is configured.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".lazycard"
	}
	return filepath.Join(home, ".lazycard")
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// A non-empty configFile must exist; otherwise config.yaml is looked up in
// the working directory and the data directory and skipped when absent.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(configFile string) (*Config, error) {
	// A missing .env file is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	dataDir := DefaultDataDir()
	if dir := os.Getenv(EnvPrefix + "_DATA_DIR"); dir != "" {
		dataDir = dir
	}
	setDefaults(v, dataDir)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(dataDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate runs struct validation over a Config.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", filepath.Join(dataDir, "lazycard.db"))
	v.SetDefault("database.url", "")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("scheduler.initial_easiness", 2.5)
	v.SetDefault("scheduler.min_easiness", 1.3)
	v.SetDefault("scheduler.min_interval_days", 1.0)
	v.SetDefault("scheduler.max_interval_days", 36500.0)
	v.SetDefault("scheduler.success_quality", 4)
	v.SetDefault("scheduler.failure_penalty", 0.2)

	v.SetDefault("session.shuffle", true)
	v.SetDefault("session.idle_timeout", "1h")

	v.SetDefault("backup.dir", filepath.Join(dataDir, "backups"))
	v.SetDefault("backup.format", "json")
	v.SetDefault("backup.interval_hours", 24)
	v.SetDefault("backup.keep", 10)

	v.SetDefault("dispatcher.workers", 4)
	v.SetDefault("dispatcher.queue_size", 64)
}
