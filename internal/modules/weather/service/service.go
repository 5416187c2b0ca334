package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"weatherday/internal/modules/weather/aggregator"
	"weatherday/internal/modules/weather/repository"
	"weatherday/internal/modules/weather/types"
	"weatherday/internal/modules/weather/window"
	"weatherday/internal/sun"
)

// MorningPublisher announces a freshly computed morning window.
type MorningPublisher interface {
	PublishMorningWindow(ctx context.Context, w types.MorningWindow) error
}

type Options struct {
	ObservationsCSV string
	RainfallCSV     string
	// Publisher is optional; nil disables publishing.
	Publisher MorningPublisher
	// Workers bounds the per-day window fan-out of an import. Default 4.
	Workers int
}

// Service owns ingestion. Live readings and imports are serialized through
// one mutex; window computation runs on record copies.
type Service struct {
	repository repository.WeatherRepository
	provider   sun.Provider
	location   sun.Location
	logger     *slog.Logger
	opts       Options

	mu   sync.Mutex
	live *aggregator.Aggregator
}

func NewService(repo repository.WeatherRepository, provider sun.Provider, location sun.Location, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Publisher != nil {
		opts.Publisher = newBreakerPublisher(opts.Publisher, logger)
	}
	s := &Service{
		repository: repo,
		provider:   provider,
		location:   location,
		logger:     logger,
		opts:       opts,
	}
	s.live = s.newAggregator()
	return s
}

func (s *Service) newAggregator() *aggregator.Aggregator {
	return aggregator.New(s.provider, s.location, s.logger)
}

// dayResult is everything derived for one date after ingestion.
type dayResult struct {
	record  types.DailyRecord
	day     *types.DayLength
	morning *types.MorningWindow
}

// evaluate derives the sunrise-anchored morning window of rec when the day
// length is known. It touches no shared state.
func (s *Service) evaluate(rec types.DailyRecord, day *types.DayLength) dayResult {
	res := dayResult{record: rec, day: day}
	if day == nil {
		return res
	}
	w, err := window.Compute(&rec, day.SunriseHour, day.SunriseMinute)
	if errors.Is(err, window.ErrInvalidStart) {
		s.logger.Debug("sunrise outside morning window range; window skipped",
			"date", rec.Date,
			"sunrise_hour", day.SunriseHour,
			"sunrise_minute", day.SunriseMinute,
		)
		return res
	}
	if err != nil {
		s.logger.Warn("morning window failed", "date", rec.Date, "error", err)
		return res
	}
	res.morning = &w
	return res
}

// dayLength asks agg for date's sunrise and sunset; polar days yield nil.
func (s *Service) dayLength(agg *aggregator.Aggregator, date string) *types.DayLength {
	d, err := agg.DayLength(date)
	if err != nil {
		s.logger.Warn("no sunrise/sunset for date", "date", date, "error", err)
		return nil
	}
	return &d
}

// persist stores one evaluated day and publishes its window.
func (s *Service) persist(ctx context.Context, res dayResult) error {
	if err := s.repository.SaveRecord(ctx, res.record, res.day); err != nil {
		return err
	}
	if res.morning == nil {
		return nil
	}
	if err := s.repository.SaveMorningWindow(ctx, *res.morning); err != nil {
		return err
	}
	if s.opts.Publisher != nil {
		if err := s.opts.Publisher.PublishMorningWindow(ctx, *res.morning); err != nil {
			s.logger.Warn("publish morning window failed", "date", res.record.Date, "error", err)
		}
	}
	return nil
}

// IngestReading folds one live reading into its day, then stores the day and
// its recomputed morning window. A day already persisted is continued.
func (s *Service) IngestReading(ctx context.Context, r types.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.restore(ctx, s.live, r.Date); err != nil {
		return err
	}
	if err := s.live.Ingest(r); err != nil {
		return err
	}
	rec, _ := s.live.Record(r.Date)
	res := s.evaluate(rec, s.dayLength(s.live, r.Date))
	if err := s.persist(ctx, res); err != nil {
		return fmt.Errorf("persist %s: %w", r.Date, err)
	}
	if err := s.repository.SaveWinds(ctx, s.live.Winds()); err != nil {
		return fmt.Errorf("save winds: %w", err)
	}
	return nil
}

func (s *Service) restore(ctx context.Context, agg *aggregator.Aggregator, date string) error {
	if agg.Has(date) {
		return nil
	}
	rec, _, err := s.repository.GetRecord(ctx, date)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore %s: %w", date, err)
	}
	agg.Restore(rec)
	return nil
}
