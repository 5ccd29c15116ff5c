package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Log        LogConfig        `mapstructure:"log" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler" validate:"required"`
	Session    SessionConfig    `mapstructure:"session"`
	Backup     BackupConfig     `mapstructure:"backup" validate:"required"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher" validate:"required"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// DatabaseConfig selects the storage backend. SQLite is the default and
// only needs a file path; postgres needs a connection URL.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`
	Path   string `mapstructure:"path" validate:"required_if=Driver sqlite"`
	URL    string `mapstructure:"url" validate:"required_if=Driver postgres"`
}

// ServerConfig contains the local HTTP API settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host" validate:"required"`
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// SchedulerConfig carries the tunable constants of the review scheduler.
type SchedulerConfig struct {
	InitialEasiness float64 `mapstructure:"initial_easiness" validate:"gtefield=MinEasiness"`
	MinEasiness     float64 `mapstructure:"min_easiness" validate:"gte=1"`
	MinIntervalDays float64 `mapstructure:"min_interval_days" validate:"gt=0"`
	MaxIntervalDays float64 `mapstructure:"max_interval_days" validate:"gtefield=MinIntervalDays,lte=73000"`
	SuccessQuality  int     `mapstructure:"success_quality" validate:"gte=3,lte=5"`
	FailurePenalty  float64 `mapstructure:"failure_penalty" validate:"gt=0"`
}

// SessionConfig controls review sessions.
type SessionConfig struct {
	Shuffle     bool          `mapstructure:"shuffle"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"gte=0"`
}

// BackupConfig controls backup export and the periodic backup job.
// An IntervalHours of zero disables periodic backups.
type BackupConfig struct {
	Dir           string `mapstructure:"dir" validate:"required"`
	Format        string `mapstructure:"format" validate:"required,oneof=json yaml"`
	IntervalHours int    `mapstructure:"interval_hours" validate:"gte=0"`
	Keep          int    `mapstructure:"keep" validate:"gte=1"`
}

// DispatcherConfig sizes the background review commit workers.
type DispatcherConfig struct {
	Workers   int `mapstructure:"workers" validate:"gt=0,lte=256"`
	QueueSize int `mapstructure:"queue_size" validate:"gt=0"`
}
