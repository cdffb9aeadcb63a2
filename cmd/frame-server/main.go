package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"lazyframe/pkg/config"
	"lazyframe/pkg/engine"
	"lazyframe/pkg/metadata"
	"lazyframe/pkg/service"
)

const version = "0.1.0"

func main() {
	app := kingpin.New("frame-server", "HTTP server for lazily materialized column frames.")
	configFile := app.Flag("config.file", "YAML configuration file.").String()
	listenAddress := app.Flag("listen-address", "Address to listen on. Overrides the config file.").String()
	dataDir := app.Flag("data-dir", "Directory for table files and the metastore. Overrides the config file.").String()
	logLevel := app.Flag("log.level", "Log level (debug, info, warn, error). Overrides the config file.").Enum("debug", "info", "warn", "error")
	app.Version(version)
	app.HelpFlag.Short('h')
	kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		app.FatalIfError(err, "loading config")
	}
	if *listenAddress != "" {
		cfg.ListenAddress = *listenAddress
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	app.FatalIfError(cfg.Validate(), "invalid config")

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = level.NewFilter(logger, cfg.LevelFilter())
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	if err := run(cfg, logger); err != nil {
		level.Error(logger).Log("msg", "server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger log.Logger) error {
	encoderLevel, err := cfg.EncoderLevel()
	if err != nil {
		return err
	}

	metastore, err := metadata.NewMetastore(cfg.DataDir)
	if err != nil {
		return err
	}
	session, err := engine.NewSession(metastore, cfg.DataDir, encoderLevel)
	if err != nil {
		return err
	}
	level.Info(logger).Log("msg", "metastore loaded", "data_dir", cfg.DataDir, "tables", len(metastore.GetTables()))

	frames := service.NewFramesAPIService(session, cfg.PreviewRowLimit)
	tables := service.NewTablesAPIService(metastore, session)
	router := service.NewRouter(logger,
		service.NewFramesAPIController(frames, logger),
		service.NewTablesAPIController(tables, logger),
		service.NewSystemAPIController(service.NewSystemAPIService(version, frames, tables), logger),
	)

	srv := &http.Server{Addr: cfg.ListenAddress, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		level.Info(logger).Log("msg", "listening", "addr", cfg.ListenAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	level.Info(logger).Log("msg", "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return metastore.Save()
}
