package cli

import (
	"context"
	"time"

	"github.com/turtacn/protflow/internal/application/docking"
	"github.com/turtacn/protflow/internal/application/ligand"
	"github.com/turtacn/protflow/internal/application/pipeline"
	"github.com/turtacn/protflow/internal/application/pocket"
	"github.com/turtacn/protflow/internal/application/prediction"
	"github.com/turtacn/protflow/internal/application/sequence"
	domain "github.com/turtacn/protflow/internal/domain/docking"
	"github.com/turtacn/protflow/internal/config"
	"github.com/turtacn/protflow/internal/infrastructure/database/postgres"
	"github.com/turtacn/protflow/internal/infrastructure/database/redis"
	"github.com/turtacn/protflow/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/protflow/internal/infrastructure/storage/minio"
	"github.com/turtacn/protflow/internal/infrastructure/toolprobe"
)

// ─────────────────────────────────────────────────────────────────────────────
// Tools
// ─────────────────────────────────────────────────────────────────────────────

// Toolchain is the probed set of external programs.
type Toolchain struct {
	Obabel toolprobe.Availability
	Vina   toolprobe.Availability
	P2Rank toolprobe.Availability
}

// All returns the availabilities in catalog order.
func (t Toolchain) All() []toolprobe.Availability {
	return []toolprobe.Availability{t.Obabel, t.Vina, t.P2Rank}
}

func catalogOptions(cfg config.ToolsConfig) toolprobe.CatalogOptions {
	return toolprobe.CatalogOptions{
		ObabelPath: cfg.ObabelPath,
		VinaPath:   cfg.VinaPath,
		JavaPath:   cfg.JavaPath,
		P2RankJar:  cfg.P2RankJar,
		P2RankDir:  cfg.P2RankDir,
		CondaPath:  cfg.CondaPath,
		CondaEnv:   cfg.CondaEnv,
	}
}

// probeTools resolves obabel, vina and p2rank and publishes their
// availability gauges.
func (cc *CLIContext) probeTools(ctx context.Context) Toolchain {
	prober := toolprobe.NewProber(cc.Runner, cc.Logger,
		toolprobe.WithTimeout(cc.Config.Tools.ProbeTimeout),
		toolprobe.WithLookPath(cc.LookPath),
	)
	found := prober.ProbeAll(ctx, toolprobe.Catalog(catalogOptions(cc.Config.Tools)))
	tc := Toolchain{
		Obabel: found[toolprobe.ToolObabel],
		Vina:   found[toolprobe.ToolVina],
		P2Rank: found[toolprobe.ToolP2Rank],
	}
	for _, a := range tc.All() {
		cc.Metrics.SetToolAvailable(a.Tool, a.Available)
		if !a.Available {
			cc.Logger.Warn("tool unavailable", logging.String("tool", a.Tool), logging.String("reason", a.Reason))
		}
	}
	return tc
}

// ─────────────────────────────────────────────────────────────────────────────
// Settings
// ─────────────────────────────────────────────────────────────────────────────

func pocketOptions(cfg *config.Config) pocket.Options {
	return pocket.Options{
		Threads:        cfg.Pocket.Threads,
		Visualizations: cfg.Pocket.Visualizations,
		TopN:           cfg.Pocket.TopN,
		Glob:           cfg.Pocket.StructureGlob,
	}
}

func ligandOptions(cfg *config.Config) ligand.Options {
	return ligand.Options{Name: cfg.Ligand.Name, PH: cfg.Ligand.PH, Validate: !cfg.Ligand.SkipValidation}
}

func dockingParams(cfg *config.Config) docking.Params {
	return docking.Params{
		BoxParams: domain.BoxParams{
			BoxSize:        cfg.Docking.BoxSize,
			Exhaustiveness: cfg.Docking.Exhaustiveness,
			NumModes:       cfg.Docking.NumModes,
		},
		Parallel:      cfg.Docking.Parallel,
		MaxWorkers:    cfg.Docking.MaxWorkers,
		ForceReceptor: cfg.Docking.ForceReceptor,
	}
}

// pipelineSettings maps the configuration onto a run.
func pipelineSettings(cfg *config.Config, ligandSource string) pipeline.Settings {
	return pipeline.Settings{
		StructureDir: cfg.Paths.StructureDir,
		WorkDir:      cfg.Paths.WorkDir,
		ResultsDir:   cfg.Paths.ResultsDir,
		LigandSource: ligandSource,
		Ligand:       ligandOptions(cfg),
		Pocket:       pocketOptions(cfg),
		Docking:      dockingParams(cfg),
		Predict: pipeline.PredictSettings{
			FASTA: cfg.Prediction.FASTA,
			Filter: sequence.FilterOptions{
				MinLen:       cfg.Prediction.MinLen,
				MaxLen:       cfg.Prediction.MaxLen,
				Limit:        cfg.Prediction.Limit,
				SortByLength: cfg.Prediction.SortByLength,
			},
			Options: prediction.Options{SkipExisting: cfg.Prediction.SkipExisting},
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Sinks
// ─────────────────────────────────────────────────────────────────────────────

// sinks holds the optional delivery targets enabled in configuration.
type sinks struct {
	locker    *redis.ReceptorLocker
	artifacts *minio.ArtifactPublisher
	events    *kafka.EventPublisher
	store     *postgres.ResultRepository

	closers []func()
}

func (s *sinks) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// openSinks connects every enabled sink.  A sink that cannot be reached is
// logged and left out; it never stops the run.
func openSinks(ctx context.Context, cfg *config.Config, logger logging.Logger) *sinks {
	s := &sinks{}

	if cfg.Redis.Enabled {
		rc := cfg.Redis.RedisConfig
		if client, err := redis.NewClient(&rc, logger); err != nil {
			sinkUnavailable(logger, "redis", err)
		} else {
			s.locker = redis.NewReceptorLocker(client, logger,
				redis.WithLockTTL(cfg.Redis.LockTTL),
				redis.WithLockWait(cfg.Redis.LockWait),
				redis.WithRetryDelay(cfg.Redis.LockRetryDelay),
			)
			s.closers = append(s.closers, func() { _ = client.Close() })
		}
	}

	if cfg.MinIO.Enabled {
		mc := cfg.MinIO.MinIOConfig
		if client, err := minio.NewMinIOClient(&mc, logger); err != nil {
			sinkUnavailable(logger, "minio", err)
		} else {
			s.artifacts = minio.NewArtifactPublisher(client, logger)
			s.closers = append(s.closers, func() { _ = client.Close() })
		}
	}

	if cfg.Kafka.Enabled {
		if producer, err := kafka.NewProducer(cfg.Kafka.ProducerConfig, logger); err != nil {
			sinkUnavailable(logger, "kafka", err)
		} else {
			s.events = kafka.NewEventPublisher(producer, cfg.Kafka.Topic, logger)
			s.closers = append(s.closers, func() { _ = s.events.Close() })
		}
	}

	if cfg.Postgres.Enabled {
		if conn, err := openStore(ctx, cfg, logger); err != nil {
			sinkUnavailable(logger, "postgres", err)
		} else {
			s.store = postgres.NewResultRepository(conn.Pool(), logger)
			s.closers = append(s.closers, conn.Close)
		}
	}
	return s
}

// openStore connects to PostgreSQL and applies migrations when configured.
func openStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (*postgres.Connection, error) {
	conn, err := postgres.NewConnection(ctx, cfg.Postgres.PostgresConfig, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Postgres.MigrateOnStart {
		if err := postgres.RunMigrations(conn.DSN()); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

func sinkUnavailable(logger logging.Logger, sink string, err error) {
	logger.Warn("sink unavailable, continuing without it", logging.String("sink", sink), logging.Err(err))
}

// ─────────────────────────────────────────────────────────────────────────────
// Pipeline
// ─────────────────────────────────────────────────────────────────────────────

// newPipeline assembles a pipeline.Runner from the probed tools and the
// enabled sinks.  The caller closes the returned sinks.
func (cc *CLIContext) newPipeline(ctx context.Context, tc Toolchain) (*pipeline.Runner, *sinks) {
	cfg := cc.Config
	s := openSinks(ctx, cfg, cc.Logger)

	detector := pocket.NewDetector(cc.Runner, tc.P2Rank, cc.Logger,
		pocket.WithMetrics(cc.Metrics),
		pocket.WithTimeout(cfg.Pocket.Timeout),
	)
	preparer := ligand.NewPreparer(cc.Runner, tc.Obabel, cc.Logger)

	execOpts := []docking.ExecutorOption{
		docking.WithMetrics(cc.Metrics),
		docking.WithTimeouts(cfg.Docking.TaskTimeout, cfg.Docking.ReceptorTimeout),
	}
	if s.locker != nil {
		execOpts = append(execOpts, docking.WithReceptorLocker(s.locker))
	}
	executor := docking.NewExecutor(cc.Runner, tc.Vina, tc.Obabel, cc.Logger, execOpts...)

	opts := []pipeline.Option{pipeline.WithMetrics(cc.Metrics)}
	if cfg.Prediction.Enabled {
		loader := prediction.CommandLoader(cc.Runner, cfg.Prediction.Command, cfg.Prediction.Args, cfg.Prediction.Timeout)
		opts = append(opts, pipeline.WithModelCache(prediction.NewModelCache(loader, cc.Logger)))
	}
	if s.artifacts != nil {
		opts = append(opts, pipeline.WithArtifactSink(s.artifacts))
	}
	if s.events != nil {
		opts = append(opts, pipeline.WithEventSink(s.events))
	}
	if s.store != nil {
		opts = append(opts, pipeline.WithResultStore(s.store))
	}
	return pipeline.NewRunner(detector, preparer, executor, cc.Logger, opts...), s
}

// runStages probes the tools and executes the selected stages.
func (cc *CLIContext) runStages(ctx context.Context, ligandSource string, stages pipeline.Stages) (*pipeline.Report, error) {
	tc := cc.probeTools(ctx)
	runner, s := cc.newPipeline(ctx, tc)
	defer s.Close()

	start := time.Now()
	report, err := runner.Run(ctx, pipelineSettings(cc.Config, ligandSource), stages)
	if err != nil {
		return report, err
	}
	cc.Logger.Info("run finished",
		logging.String("run_id", report.Run.ID),
		logging.Duration("duration", time.Since(start)),
		logging.Int("stages", len(report.Stages)),
	)
	return report, nil
}

//Personal.AI order the ending
