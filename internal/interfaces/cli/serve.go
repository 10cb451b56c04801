package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/protflow/internal/config"
	"github.com/turtacn/protflow/internal/infrastructure/database/postgres"
	"github.com/turtacn/protflow/internal/infrastructure/database/redis"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/protflow/internal/infrastructure/storage/minio"
	apihttp "github.com/turtacn/protflow/internal/interfaces/http"
	"github.com/turtacn/protflow/internal/interfaces/http/handlers"
	"github.com/turtacn/protflow/internal/interfaces/http/middleware"
	"github.com/turtacn/protflow/pkg/errors"
)

// statusAPI bundles what serve starts and stops.
type statusAPI struct {
	server  *apihttp.Server
	closers []func()
}

func (a *statusAPI) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildStatusAPI wires the router over the results directory, with readiness
// checks for every enabled sink and run lookups when PostgreSQL is enabled.
func (cc *CLIContext) buildStatusAPI(ctx context.Context) *statusAPI {
	cfg := cc.Config
	api := &statusAPI{}

	var checkers []handlers.HealthChecker
	var runs handlers.RunReader

	if cfg.Postgres.Enabled {
		if conn, err := openStore(ctx, cfg, cc.Logger); err != nil {
			sinkUnavailable(cc.Logger, "postgres", err)
		} else {
			runs = postgres.NewResultRepository(conn.Pool(), cc.Logger)
			checkers = append(checkers, handlers.NewChecker("postgres", conn.HealthCheck))
			api.closers = append(api.closers, conn.Close)
		}
	}
	if cfg.Redis.Enabled {
		rc := cfg.Redis.RedisConfig
		if client, err := redis.NewClient(&rc, cc.Logger); err != nil {
			sinkUnavailable(cc.Logger, "redis", err)
		} else {
			checkers = append(checkers, handlers.NewChecker("redis", client.Ping))
			api.closers = append(api.closers, func() { _ = client.Close() })
		}
	}
	if cfg.MinIO.Enabled {
		mc := cfg.MinIO.MinIOConfig
		if client, err := minio.NewMinIOClient(&mc, cc.Logger); err != nil {
			sinkUnavailable(cc.Logger, "minio", err)
		} else {
			checkers = append(checkers, handlers.NewChecker("minio", minioCheck(client)))
			api.closers = append(api.closers, func() { _ = client.Close() })
		}
	}

	router := apihttp.NewRouter(apihttp.RouterConfig{
		Mode:             cfg.Server.Mode,
		HealthHandler:    handlers.NewHealthHandler(Version, checkers...),
		ResultsHandler:   handlers.NewResultsHandler(cfg.Paths.ResultsDir, runs, cc.Logger),
		Logging:          middleware.DefaultLoggingConfig(),
		Logger:           cc.Logger,
		MetricsCollector: cc.Collector,
		Metrics:          cc.Metrics,
	})

	api.server = apihttp.NewServer(apihttp.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router, cc.Logger)
	return api
}

func minioCheck(c *minio.MinIOClient) func(context.Context) error {
	return func(ctx context.Context) error {
		st, err := c.HealthCheck(ctx)
		if err != nil {
			return err
		}
		if !st.Healthy {
			return errors.New(errors.ErrCodeStorageError, st.Error)
		}
		return nil
	}
}

// watchConfig applies log level changes from the config file while serving.
func (cc *CLIContext) watchConfig() {
	if cc.ConfigPath == "" {
		return
	}
	err := config.Watch(cc.ConfigPath, func(next *config.Config) {
		if logging.SetLevel(cc.Logger, next.Log.Level) {
			cc.Logger.Info("log level updated", logging.String("level", next.Log.Level))
		}
	}, func(err error) {
		cc.Logger.Warn("ignoring invalid config change", logging.Err(err))
	})
	if err != nil {
		cc.Logger.Warn("config watch disabled", logging.Err(err))
	}
}

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health probes, metrics and the persisted result tables over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cc.Config.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cc.Config.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			api := cc.buildStatusAPI(ctx)
			defer api.close()
			cc.watchConfig()

			errCh := make(chan error, 1)
			go func() { errCh <- api.server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				cc.Logger.Info("shutdown signal received")
				return api.server.Shutdown(context.Background())
			}
		},
	}
	cmd.Flags().StringVar(&host, "host", config.DefaultServerHost, "listen host")
	cmd.Flags().IntVar(&port, "port", config.DefaultServerPort, "listen port")
	return cmd
}

//Personal.AI order the ending
