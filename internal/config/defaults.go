package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultProbeTimeout = 5 * time.Second

	DefaultPocketThreads  = 1
	DefaultPocketTopN     = 1
	DefaultStructureGlob  = "*.pdb"
	DefaultPocketTimeout  = 300 * time.Second
	DefaultLigandPH       = 7.4
	DefaultLigandName     = "ligand"
	DefaultStepTimeout    = 60 * time.Second
	DefaultBoxSize        = 20.0
	DefaultExhaustiveness = 8
	DefaultNumModes       = 9
	DefaultMaxWorkers     = 4
	DefaultTaskTimeout    = 600 * time.Second
	DefaultReceptorTimout = 60 * time.Second

	DefaultStructureDir = "structures"
	DefaultWorkDir      = "work"
	DefaultResultsDir   = "results"

	DefaultSeqMinLen = 50
	DefaultSeqMaxLen = 1200
	DefaultSeqLimit  = 10

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	DefaultMetricsNamespace = "protflow"

	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultRedisAddr     = "localhost:6379"
	DefaultPostgresHost  = "localhost"
	DefaultPostgresPort  = 5432
	DefaultPostgresDB    = "protflow"
	DefaultMinIOEndpoint = "localhost:9000"
	DefaultKafkaBroker   = "localhost:9092"
	DefaultKafkaTopic    = "protflow.stage.completed"
)

// defaultValues lists every key with its default.  The loader registers them
// with viper so environment overrides resolve for keys absent from the file.
func defaultValues() map[string]interface{} {
	return map[string]interface{}{
		"tools.obabel_path":   "",
		"tools.vina_path":     "",
		"tools.java_path":     "",
		"tools.p2rank_jar":    "",
		"tools.p2rank_dir":    "",
		"tools.conda_path":    "",
		"tools.conda_env":     "",
		"tools.probe_timeout": DefaultProbeTimeout,

		"pocket.threads":        DefaultPocketThreads,
		"pocket.visualizations": 0,
		"pocket.top_n":          DefaultPocketTopN,
		"pocket.structure_glob": DefaultStructureGlob,
		"pocket.timeout":        DefaultPocketTimeout,

		"ligand.ph":              DefaultLigandPH,
		"ligand.name":            DefaultLigandName,
		"ligand.skip_validation": false,
		"ligand.step_timeout":    DefaultStepTimeout,

		"docking.box_size":         DefaultBoxSize,
		"docking.exhaustiveness":   DefaultExhaustiveness,
		"docking.num_modes":        DefaultNumModes,
		"docking.parallel":         false,
		"docking.max_workers":      DefaultMaxWorkers,
		"docking.force_receptor":   false,
		"docking.task_timeout":     DefaultTaskTimeout,
		"docking.receptor_timeout": DefaultReceptorTimout,

		"paths.structure_dir": DefaultStructureDir,
		"paths.work_dir":      DefaultWorkDir,
		"paths.results_dir":   DefaultResultsDir,

		"prediction.enabled":        false,
		"prediction.fasta":          "",
		"prediction.command":        "",
		"prediction.timeout":        30 * time.Minute,
		"prediction.skip_existing":  true,
		"prediction.min_len":        DefaultSeqMinLen,
		"prediction.max_len":        DefaultSeqMaxLen,
		"prediction.limit":          DefaultSeqLimit,
		"prediction.sort_by_length": true,

		"log.level":  DefaultLogLevel,
		"log.format": DefaultLogFormat,

		"metrics.enabled":           true,
		"metrics.namespace":         DefaultMetricsNamespace,
		"metrics.enable_go_metrics": true,

		"server.host":             DefaultServerHost,
		"server.port":             DefaultServerPort,
		"server.mode":             DefaultServerMode,
		"server.read_timeout":     15 * time.Second,
		"server.write_timeout":    15 * time.Second,
		"server.shutdown_timeout": 10 * time.Second,

		"redis.enabled":          false,
		"redis.mode":             "standalone",
		"redis.addr":             DefaultRedisAddr,
		"redis.password":         "",
		"redis.db":               0,
		"redis.key_prefix":       "protflow",
		"redis.lock_ttl":         2 * time.Minute,
		"redis.lock_wait":        90 * time.Second,
		"redis.lock_retry_delay": 200 * time.Millisecond,

		"postgres.enabled":          false,
		"postgres.host":             DefaultPostgresHost,
		"postgres.port":             DefaultPostgresPort,
		"postgres.database":         DefaultPostgresDB,
		"postgres.username":         "",
		"postgres.password":         "",
		"postgres.ssl_mode":         "disable",
		"postgres.migrate_on_start": true,

		"minio.enabled":           false,
		"minio.endpoint":          DefaultMinIOEndpoint,
		"minio.access_key_id":     "",
		"minio.secret_access_key": "",
		"minio.use_ssl":           false,
		"minio.bucket":            "protflow-artifacts",
		"minio.prefix":            "",

		"kafka.enabled": false,
		"kafka.brokers": []string{DefaultKafkaBroker},
		"kafka.topic":   DefaultKafkaTopic,
		"kafka.acks":    "one",
	}
}

// ApplyDefaults fills zero-value fields in cfg.  Explicit values always win.
// Booleans are left alone since false cannot be told apart from unset.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Tools ─────────────────────────────────────────────────────────────────
	if cfg.Tools.ProbeTimeout == 0 {
		cfg.Tools.ProbeTimeout = DefaultProbeTimeout
	}

	// ── Pocket ────────────────────────────────────────────────────────────────
	if cfg.Pocket.Threads == 0 {
		cfg.Pocket.Threads = DefaultPocketThreads
	}
	if cfg.Pocket.TopN == 0 {
		cfg.Pocket.TopN = DefaultPocketTopN
	}
	if cfg.Pocket.StructureGlob == "" {
		cfg.Pocket.StructureGlob = DefaultStructureGlob
	}
	if cfg.Pocket.Timeout == 0 {
		cfg.Pocket.Timeout = DefaultPocketTimeout
	}

	// ── Ligand ────────────────────────────────────────────────────────────────
	if cfg.Ligand.Name == "" {
		cfg.Ligand.Name = DefaultLigandName
	}
	if cfg.Ligand.StepTimeout == 0 {
		cfg.Ligand.StepTimeout = DefaultStepTimeout
	}

	// ── Docking ───────────────────────────────────────────────────────────────
	if cfg.Docking.BoxSize == 0 {
		cfg.Docking.BoxSize = DefaultBoxSize
	}
	if cfg.Docking.Exhaustiveness == 0 {
		cfg.Docking.Exhaustiveness = DefaultExhaustiveness
	}
	if cfg.Docking.NumModes == 0 {
		cfg.Docking.NumModes = DefaultNumModes
	}
	if cfg.Docking.MaxWorkers == 0 {
		cfg.Docking.MaxWorkers = DefaultMaxWorkers
	}
	if cfg.Docking.TaskTimeout == 0 {
		cfg.Docking.TaskTimeout = DefaultTaskTimeout
	}
	if cfg.Docking.ReceptorTimeout == 0 {
		cfg.Docking.ReceptorTimeout = DefaultReceptorTimout
	}

	// ── Paths ─────────────────────────────────────────────────────────────────
	if cfg.Paths.StructureDir == "" {
		cfg.Paths.StructureDir = DefaultStructureDir
	}
	if cfg.Paths.WorkDir == "" {
		cfg.Paths.WorkDir = DefaultWorkDir
	}
	if cfg.Paths.ResultsDir == "" {
		cfg.Paths.ResultsDir = DefaultResultsDir
	}

	// ── Prediction ────────────────────────────────────────────────────────────
	if cfg.Prediction.MinLen == 0 {
		cfg.Prediction.MinLen = DefaultSeqMinLen
	}
	if cfg.Prediction.MaxLen == 0 {
		cfg.Prediction.MaxLen = DefaultSeqMaxLen
	}
	if cfg.Prediction.Timeout == 0 {
		cfg.Prediction.Timeout = 30 * time.Minute
	}

	// ── Log / Metrics / Server ────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	// ── Sinks ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = DefaultPostgresHost
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Postgres.Database == "" {
		cfg.Postgres.Database = DefaultPostgresDB
	}
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableGoMetrics = true
	cfg.Prediction.SkipExisting = true
	cfg.Prediction.SortByLength = true
	cfg.Prediction.Limit = DefaultSeqLimit
	cfg.Postgres.MigrateOnStart = true
	cfg.Ligand.PH = DefaultLigandPH
	ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
