// Package logging builds the process logger: colored tint output for dev
// builds, JSON lines for released ones.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"weatherday/internal/config"
)

func New(cfg config.Config, version string, appName string) *slog.Logger {
	return NewWithWriter(os.Stdout, cfg, version, appName)
}

func NewWithWriter(w io.Writer, cfg config.Config, version string, appName string) *slog.Logger {
	if version == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			AddSource:  true,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.AppEnv == "prod",
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"station", stationAttr(cfg),
	)
}

// Component tags a logger with the subsystem emitting the record.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", name)
}

func stationAttr(cfg config.Config) slog.Value {
	zone := "UTC"
	if cfg.StationTimezone != nil {
		zone = cfg.StationTimezone.String()
	}
	return slog.GroupValue(
		slog.Float64("lat", cfg.StationLatitude),
		slog.Float64("lon", cfg.StationLongitude),
		slog.String("tz", zone),
	)
}
