package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Hanko bird observatory, the station the FMI series comes from.
const (
	defaultLatitude  = 59.81021528
	defaultLongitude = 22.89485922
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	Driver          string
	DSN             string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool

	MQTTBroker       string
	MQTTPort         int
	MQTTClientID     string
	MQTTTopic        string
	MQTTPublishTopic string

	StationLatitude  float64
	StationLongitude float64
	StationTimezone  *time.Location

	// ObservationsCSV and RainfallCSV are FMI exports imported at startup.
	// Empty disables the import.
	ObservationsCSV string
	RainfallCSV     string
	// ImportInterval re-runs the import periodically; 0 imports once.
	ImportInterval time.Duration
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	maxOpenConns, err := envInt("DB_MAX_OPEN_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := envInt("DB_MAX_IDLE_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := envDuration("DB_CONN_MAX_LIFETIME", 0)
	if err != nil {
		return Config{}, err
	}
	logSQL, err := envBool("DB_LOG_SQL", false)
	if err != nil {
		return Config{}, err
	}

	mqttPort, err := envInt("MQTT_PORT", 1883)
	if err != nil {
		return Config{}, err
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %d (allowed: 1-65535)", mqttPort)
	}

	lat, err := envFloat("STATION_LATITUDE", defaultLatitude)
	if err != nil {
		return Config{}, err
	}
	if lat < -90 || lat > 90 {
		return Config{}, fmt.Errorf("invalid STATION_LATITUDE %v (allowed: -90..90)", lat)
	}
	lon, err := envFloat("STATION_LONGITUDE", defaultLongitude)
	if err != nil {
		return Config{}, err
	}
	if lon < -180 || lon > 180 {
		return Config{}, fmt.Errorf("invalid STATION_LONGITUDE %v (allowed: -180..180)", lon)
	}
	tzName := envOr("STATION_TIMEZONE", "UTC")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("invalid STATION_TIMEZONE %q: %w", tzName, err)
	}

	importInterval, err := envDuration("IMPORT_INTERVAL", 0)
	if err != nil {
		return Config{}, err
	}
	if importInterval < 0 {
		return Config{}, fmt.Errorf("invalid IMPORT_INTERVAL %s (must not be negative)", importInterval)
	}

	return Config{
		AppEnv:   appEnv,
		LogLevel: level,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		Driver:          envOr("DB_DRIVER", "sqlite3"),
		DSN:             strings.TrimSpace(os.Getenv("DB_DSN")),
		Path:            envOr("SQLITE_PATH", "../dev/sqlite/app.db"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		LogSQL:          logSQL,

		MQTTBroker:       envOr("MQTT_BROKER", "localhost"),
		MQTTPort:         mqttPort,
		MQTTClientID:     envOr("MQTT_CLIENT_ID", "weatherday-server"),
		MQTTTopic:        envOr("MQTT_TOPIC", "stations/+/readings"),
		MQTTPublishTopic: envOr("MQTT_PUBLISH_TOPIC", "weatherday/morning"),

		StationLatitude:  lat,
		StationLongitude: lon,
		StationTimezone:  tz,

		ObservationsCSV: strings.TrimSpace(os.Getenv("OBSERVATIONS_CSV")),
		RainfallCSV:     strings.TrimSpace(os.Getenv("RAINFALL_CSV")),
		ImportInterval:  importInterval,
	}, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func envFloat(key string, def float64) (float64, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func envBool(key string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
