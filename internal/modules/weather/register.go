package weather

import (
	"database/sql"
	"log/slog"
	"net/http"

	"weatherday/internal/config"
	"weatherday/internal/logging"
	"weatherday/internal/modules/weather/controller"
	"weatherday/internal/modules/weather/repository"
	"weatherday/internal/modules/weather/service"
	"weatherday/internal/mqtt"
	"weatherday/internal/sun"
)

// Deps are the shared pieces the weather feature plugs into.
type Deps struct {
	Config config.Config
	Logger *slog.Logger
	// Subscriber and Publisher are optional.
	Subscriber mqtt.MQTTSubscriber
	Publisher  service.MorningPublisher
	// Provider defaults to the astronomical calculator.
	Provider sun.Provider
}

// RegisterFeature wires repository, service and controller onto mux and
// returns the service so the caller can schedule imports.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, deps Deps) *service.Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Provider == nil {
		deps.Provider = sun.Calculator{}
	}
	location := sun.Location{
		Latitude:  deps.Config.StationLatitude,
		Longitude: deps.Config.StationLongitude,
		Zone:      deps.Config.StationTimezone,
	}

	weatherRepository := repository.NewRepository(db)
	weatherService := service.NewService(
		weatherRepository,
		deps.Provider,
		location,
		logging.Component(deps.Logger, "weather"),
		service.Options{
			ObservationsCSV: deps.Config.ObservationsCSV,
			RainfallCSV:     deps.Config.RainfallCSV,
			Publisher:       deps.Publisher,
		},
	)
	if deps.Subscriber != nil {
		weatherService.Register(deps.Subscriber)
	}

	weatherController := controller.NewWeatherController(weatherService, logging.Component(deps.Logger, "http"))
	weatherController.RegisterRoutes(mux)
	return weatherService
}
