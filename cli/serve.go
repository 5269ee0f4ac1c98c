package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"predictdemo/db"
	qhttp "predictdemo/http"
	"predictdemo/monitoring"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction demos over HTTP",
	RunE:  runServe,
}

var servePort int

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides http.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Model cache invalidation on artifact changes
	if a.cfg.Cache.Watch {
		if err := a.cache.Watch(); err != nil {
			logger.Warn("artifact watch disabled", zap.Error(err))
		}
	}

	// 2. Metrics and run event feed
	metrics := monitoring.NewRunMetrics(nil)
	go metrics.Collector().Run(ctx, 10*time.Second)
	hub := monitoring.NewHub(logger.Named("ws"))
	go hub.Run(ctx)
	a.service.AddObserver(metrics)
	a.service.AddObserver(hub)

	deps := qhttp.Deps{
		Catalogue: a.catalogue,
		Service:   a.service,
		Metrics:   metrics,
		Hub:       hub,
		Logger:    logger,
	}

	// 3. Optional run journal
	if path := a.cfg.History.Path; path != "" {
		history, err := db.Open(path, logger.Named("history"))
		if err != nil {
			return err
		}
		defer history.Close()
		a.service.AddObserver(history)
		deps.History = history
		logger.Info("run history enabled", zap.String("path", path))
	}

	// 4. HTTP server
	config := qhttp.ServerConfig{Port: a.cfg.Http.Port, Timeout: a.cfg.Http.Timeout}
	if servePort != 0 {
		config.Port = servePort
	}
	server, err := qhttp.NewServer(config, deps)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 5. Graceful shutdown
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	if err := server.Stop(); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
	return nil
}

