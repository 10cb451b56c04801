// Package config defines all configuration structures for ProtFlow.  No I/O
// or parsing logic lives here, only plain data types and validation.
package config

import (
	"time"

	"github.com/turtacn/protflow/internal/infrastructure/database/postgres"
	"github.com/turtacn/protflow/internal/infrastructure/database/redis"
	"github.com/turtacn/protflow/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/protflow/internal/infrastructure/storage/minio"
	"github.com/turtacn/protflow/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Pipeline sections
// ─────────────────────────────────────────────────────────────────────────────

// ToolsConfig locates the external programs.  Empty paths fall back to PATH
// lookup of the conventional executable name.
type ToolsConfig struct {
	ObabelPath   string        `mapstructure:"obabel_path"`
	VinaPath     string        `mapstructure:"vina_path"`
	JavaPath     string        `mapstructure:"java_path"`
	P2RankJar    string        `mapstructure:"p2rank_jar"`
	P2RankDir    string        `mapstructure:"p2rank_dir"`
	CondaPath    string        `mapstructure:"conda_path"`
	CondaEnv     string        `mapstructure:"conda_env"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// PocketConfig holds pocket detection options.
type PocketConfig struct {
	Threads        int           `mapstructure:"threads"`
	Visualizations int           `mapstructure:"visualizations"`
	TopN           int           `mapstructure:"top_n"`
	StructureGlob  string        `mapstructure:"structure_glob"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// LigandConfig holds ligand preparation options.
type LigandConfig struct {
	PH             float64       `mapstructure:"ph"`
	Name           string        `mapstructure:"name"`
	SkipValidation bool          `mapstructure:"skip_validation"`
	StepTimeout    time.Duration `mapstructure:"step_timeout"`
}

// DockingConfig holds box and engine options.
type DockingConfig struct {
	BoxSize         float64       `mapstructure:"box_size"`
	Exhaustiveness  int           `mapstructure:"exhaustiveness"`
	NumModes        int           `mapstructure:"num_modes"`
	Parallel        bool          `mapstructure:"parallel"`
	MaxWorkers      int           `mapstructure:"max_workers"`
	ForceReceptor   bool          `mapstructure:"force_receptor"`
	TaskTimeout     time.Duration `mapstructure:"task_timeout"`
	ReceptorTimeout time.Duration `mapstructure:"receptor_timeout"`
}

// PathsConfig names the working directories.
type PathsConfig struct {
	StructureDir string `mapstructure:"structure_dir"`
	WorkDir      string `mapstructure:"work_dir"`
	ResultsDir   string `mapstructure:"results_dir"`
}

// PredictionConfig drives the optional structure prediction stage.
type PredictionConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	FASTA        string        `mapstructure:"fasta"`
	Command      string        `mapstructure:"command"`
	Args         []string      `mapstructure:"args"`
	Timeout      time.Duration `mapstructure:"timeout"`
	SkipExisting bool          `mapstructure:"skip_existing"`
	MinLen       int           `mapstructure:"min_len"`
	MaxLen       int           `mapstructure:"max_len"`
	Limit        int           `mapstructure:"limit"`
	SortByLength bool          `mapstructure:"sort_by_length"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Ambient sections
// ─────────────────────────────────────────────────────────────────────────────

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// MetricsConfig controls the Prometheus registry.
type MetricsConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Namespace       string `mapstructure:"namespace"`
	EnableGoMetrics bool   `mapstructure:"enable_go_metrics"`
}

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig enables the cross-process receptor lock.
type RedisConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	LockTTL           time.Duration `mapstructure:"lock_ttl"`
	LockWait          time.Duration `mapstructure:"lock_wait"`
	LockRetryDelay    time.Duration `mapstructure:"lock_retry_delay"`
	redis.RedisConfig `mapstructure:",squash"`
}

// PostgresConfig enables the result store.
type PostgresConfig struct {
	Enabled                 bool `mapstructure:"enabled"`
	postgres.PostgresConfig `mapstructure:",squash"`
}

// MinIOConfig enables the artifact archive.
type MinIOConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	minio.MinIOConfig `mapstructure:",squash"`
}

// KafkaConfig enables stage events.
type KafkaConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Topic                string `mapstructure:"topic"`
	kafka.ProducerConfig `mapstructure:",squash"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Tools      ToolsConfig      `mapstructure:"tools"`
	Pocket     PocketConfig     `mapstructure:"pocket"`
	Ligand     LigandConfig     `mapstructure:"ligand"`
	Docking    DockingConfig    `mapstructure:"docking"`
	Paths      PathsConfig      `mapstructure:"paths"`
	Prediction PredictionConfig `mapstructure:"prediction"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate checks numeric ranges and the settings of enabled sinks.  It
// returns the first violation as an ErrCodeValidation error naming the key.
func (c *Config) Validate() error {
	switch {
	case c.Pocket.Threads < 1:
		return errors.NewValidationError("pocket.threads", "must be >= 1")
	case c.Pocket.Visualizations < 0:
		return errors.NewValidationError("pocket.visualizations", "must be >= 0")
	case c.Pocket.TopN < 1:
		return errors.NewValidationError("pocket.top_n", "must be >= 1")
	case c.Pocket.StructureGlob == "":
		return errors.NewValidationError("pocket.structure_glob", "is required")
	}

	if c.Ligand.PH <= 0 || c.Ligand.PH > 14 {
		return errors.NewValidationError("ligand.ph", "must be within (0, 14]")
	}

	switch {
	case c.Docking.BoxSize <= 0:
		return errors.NewValidationError("docking.box_size", "must be > 0")
	case c.Docking.Exhaustiveness < 1:
		return errors.NewValidationError("docking.exhaustiveness", "must be > 0")
	case c.Docking.NumModes < 1:
		return errors.NewValidationError("docking.num_modes", "must be >= 1")
	case c.Docking.MaxWorkers < 1:
		return errors.NewValidationError("docking.max_workers", "must be >= 1")
	}

	if c.Prediction.Enabled {
		if c.Prediction.MinLen < 0 || c.Prediction.MaxLen < c.Prediction.MinLen {
			return errors.NewValidationError("prediction.max_len", "must be >= prediction.min_len >= 0")
		}
		if c.Prediction.FASTA == "" {
			return errors.NewValidationError("prediction.fasta", "is required when prediction is enabled")
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.NewValidationError("log.level", "expected debug|info|warn|error, got "+c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errors.NewValidationError("log.format", "expected json|console, got "+c.Log.Format)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.NewValidationError("server.port", "out of range [1, 65535]")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return errors.NewValidationError("server.mode", "expected debug|release|test, got "+c.Server.Mode)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" && len(c.Redis.ClusterAddrs) == 0 && len(c.Redis.SentinelAddrs) == 0 {
		return errors.NewValidationError("redis.addr", "is required when redis is enabled")
	}
	if c.Postgres.Enabled {
		if c.Postgres.Host == "" {
			return errors.NewValidationError("postgres.host", "is required when postgres is enabled")
		}
		if c.Postgres.Database == "" {
			return errors.NewValidationError("postgres.database", "is required when postgres is enabled")
		}
	}
	if c.MinIO.Enabled && c.MinIO.Endpoint == "" {
		return errors.NewValidationError("minio.endpoint", "is required when minio is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.NewValidationError("kafka.brokers", "must contain at least one broker when kafka is enabled")
	}
	return nil
}

//Personal.AI order the ending
