package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/gpsurvey-insight/internal/application/dashboard"
	"github.com/turtacn/gpsurvey-insight/internal/application/submission"
	"github.com/turtacn/gpsurvey-insight/internal/domain/survey"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/database/memory"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/prometheus"
	apihttp "github.com/turtacn/gpsurvey-insight/internal/interfaces/http"
	"github.com/turtacn/gpsurvey-insight/internal/interfaces/http/handlers"
	"github.com/turtacn/gpsurvey-insight/internal/interfaces/http/middleware"
)

// newServeCmd runs the HTTP API over an in-memory store, seeded from --input
// or --server when given. Writes are kept until the process exits.
func newServeCmd() *cobra.Command {
	src := &sourceOptions{}
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API from an in-memory copy of the records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			records := []survey.SurveyRecord{}
			if src.Input != "" || src.Server != "" {
				loadCtx, cancel := cliCtx.withTimeout(cmd.Context())
				records, err = src.load(loadCtx, cmd, cliCtx)
				cancel()
				if err != nil {
					return err
				}
			}

			router, err := newOfflineRouter(cliCtx, memory.NewSurveyRepository(records...))
			if err != nil {
				return err
			}
			serverCfg := cliCtx.Config.Server
			if port > 0 {
				serverCfg.Port = port
			}
			server := apihttp.NewServer(serverCfg, router, cliCtx.Logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()
			cliCtx.Logger.Info("serving survey records",
				logging.String("addr", server.Addr()),
				logging.Int("records", len(records)))

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			return server.Stop(context.Background())
		},
	}
	src.bind(cmd)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default: server.port)")
	return cmd
}

// newOfflineRouter wires the API route tree over repo without Redis, Kafka
// or object storage.
func newOfflineRouter(cliCtx *CLIContext, repo *memory.SurveyRepository) (http.Handler, error) {
	logger := cliCtx.Logger
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: cliCtx.Config.Metrics.Namespace,
		Subsystem: "cli",
	}, logger)
	if err != nil {
		return nil, err
	}
	metrics := prometheus.NewAppMetrics(collector)

	dash := dashboard.NewService(repo, logger, dashboard.Config{
		FiscalStartYear: cliCtx.Config.Engine.FiscalStartYear,
	}, dashboard.WithMetrics(metrics))
	subs := submission.NewService(repo, logger, submission.Config{Source: "gpsurvey-cli"},
		submission.WithInvalidator(dash),
		submission.WithMetrics(metrics))

	var cors *middleware.CORSConfig
	if origins := cliCtx.Config.Server.CORSOrigins; len(origins) > 0 {
		c := middleware.DefaultCORSConfig()
		c.AllowedOrigins = origins
		cors = &c
	}

	return apihttp.NewRouter(apihttp.RouterConfig{
		DashboardHandler: handlers.NewDashboardHandler(dash, logger),
		SurveyHandler:    handlers.NewSurveyHandler(subs, repo, logger),
		HealthHandler:    handlers.NewHealthHandler(Version, logger, metrics),
		CORS:             cors,
		Logging:          middleware.DefaultLoggingConfig(),
		Logger:           logger,
		MetricsCollector: collector,
		Metrics:          metrics,
	}), nil
}

//Personal.AI order the ending
