package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"weatherday/internal/modules/weather/repository"
	"weatherday/internal/modules/weather/service"
	"weatherday/internal/modules/weather/summary"
	"weatherday/internal/modules/weather/types"
)

// WeatherService is the part of service.Service the HTTP layer reads from.
type WeatherService interface {
	ListDays(ctx context.Context, f repository.DateFilter) ([]summary.Summary, error)
	GetDay(ctx context.Context, date string) (service.Day, error)
	ComputeWindow(ctx context.Context, date string, hour, minute int) (types.MorningWindow, error)
	Winds(ctx context.Context) ([]types.WindObservation, error)
	Imports(ctx context.Context, limit int) ([]types.ImportRun, error)
	ImportFiles(ctx context.Context) (types.ImportRun, error)
}

type WeatherController interface {
	RegisterRoutes(mux *http.ServeMux)
}

// importInterval is the minimum spacing of manual import triggers.
const importInterval = 10 * time.Second

type weatherControllerImpl struct {
	service       WeatherService
	logger        *slog.Logger
	importLimiter *rate.Limiter
}

func NewWeatherController(svc WeatherService, logger *slog.Logger) WeatherController {
	if logger == nil {
		logger = slog.Default()
	}
	return &weatherControllerImpl{
		service:       svc,
		logger:        logger,
		importLimiter: rate.NewLimiter(rate.Every(importInterval), 1),
	}
}

func (c *weatherControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDaysPage)
	mux.HandleFunc("GET /days/{date}", c.handleDayPage)

	mux.HandleFunc("GET /api/days", c.handleDays)
	mux.HandleFunc("GET /api/days/{date}", c.handleDay)
	mux.HandleFunc("GET /api/days/{date}/window", c.handleWindow)
	mux.HandleFunc("GET /api/winds", c.handleWinds)
	mux.HandleFunc("GET /api/imports", c.handleImports)
	mux.HandleFunc("POST /api/import", c.handleImport)
}
