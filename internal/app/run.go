package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"weatherday/internal/config"
	"weatherday/internal/db"
	"weatherday/internal/httpapi"
	"weatherday/internal/logging"
	"weatherday/internal/migrate"
	weather "weatherday/internal/modules/weather"
	weatherservice "weatherday/internal/modules/weather/service"
	weatherviews "weatherday/internal/modules/weather/views"
	"weatherday/internal/mqtt"
	"weatherday/internal/scheduler"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"sqlitePath", cfg.Path,
		"maxOpenConns", cfg.MaxOpenConns,
		"logSQL", cfg.LogSQL,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
		"observationsCSV", cfg.ObservationsCSV,
		"rainfallCSV", cfg.RainfallCSV,
		"importInterval", cfg.ImportInterval.String(),
	)

	dbConn, err := db.Open(ctx, cfg, logging.Component(logger, "db"))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(ctx, dbConn, logging.Component(logger, "migrate")); err != nil {
		return err
	}
	logger.Info("database ready")

	if err := weatherviews.LoadTemplates(); err != nil {
		return err
	}

	// The handler must be set before Connect so the OnConnect subscription
	// sees it; the broker may deliver queued messages right after CONNACK.
	var (
		broker *mqtt.Client
		deps   = weather.Deps{Config: cfg, Logger: logger}
		status httpapi.ConnectionStatus
	)
	if cfg.MQTTBroker != "" {
		broker = mqtt.NewClient(cfg, logging.Component(logger, "mqtt"))
		deps.Subscriber = broker
		deps.Publisher = broker
		status = broker
	}

	mux := httpapi.NewMux(dbConn, status)
	svc := weather.RegisterFeature(mux, dbConn, deps)

	if broker != nil {
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = broker.Connect(connectCtx)
		connectCancel()
		if err != nil {
			// Stored days stay available over HTTP without a broker.
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	}

	sched, err := startImports(ctx, cfg, svc, logger)
	if err != nil {
		return err
	}

	srv := httpapi.NewServer(cfg, mux, logging.Component(logger, "http"))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sched != nil {
		logger.Info("scheduler stopping")
		sched.Stop()
	}
	if broker != nil {
		logger.Info("mqtt disconnecting")
		broker.Disconnect()
	}

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// startImports schedules periodic imports, or runs a single import in the
// background when no interval is configured.
func startImports(ctx context.Context, cfg config.Config, svc *weatherservice.Service, logger *slog.Logger) (*scheduler.Scheduler, error) {
	if cfg.ObservationsCSV == "" && cfg.RainfallCSV == "" {
		logger.Info("no import sources configured; serving live readings only")
		return nil, nil
	}
	if cfg.ImportInterval > 0 {
		sched := scheduler.New(svc, cfg.ImportInterval, 0, cfg.StationTimezone, logging.Component(logger, "scheduler"))
		if err := sched.Start(); err != nil {
			return nil, err
		}
		return sched, nil
	}
	go func() {
		run, err := svc.ImportFiles(ctx)
		if err != nil {
			logger.Error("initial import failed", "import_id", run.ID, "error", err)
			return
		}
		logger.Info("initial import completed", "import_id", run.ID, "days", run.Days, "readings", run.Readings)
	}()
	return nil, nil
}
