package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"weatherday/internal/fmi"
	"weatherday/internal/modules/weather/aggregator"
	"weatherday/internal/modules/weather/types"
)

var ErrNoSources = errors.New("no import sources configured")

// ImportFiles reads the configured FMI exports into a fresh aggregator and
// replaces the stored days they cover. Readings that fail validation are
// logged and skipped; a file that cannot be parsed fails the import.
func (s *Service) ImportFiles(ctx context.Context) (types.ImportRun, error) {
	if s.opts.ObservationsCSV == "" && s.opts.RainfallCSV == "" {
		return types.ImportRun{}, ErrNoSources
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.repository.StartImport(ctx, "csv")
	if err != nil {
		return types.ImportRun{}, err
	}
	logger := s.logger.With("import_id", run.ID)
	logger.Info("import started", "observations", s.opts.ObservationsCSV, "rainfall", s.opts.RainfallCSV)

	runErr := s.runImport(ctx, &run)
	if runErr != nil {
		run.Error = runErr.Error()
		logger.Error("import failed", "error", runErr)
	}
	if err := s.repository.FinishImport(ctx, run); err != nil {
		logger.Error("record import run failed", "error", err)
		if runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return run, runErr
	}

	// Cached live records are stale now; reload them from storage on demand.
	s.live = s.newAggregator()
	logger.Info("import finished",
		"readings", run.Readings,
		"rainfall_days", run.RainfallDays,
		"days", run.Days,
	)
	return run, nil
}

func (s *Service) runImport(ctx context.Context, run *types.ImportRun) error {
	agg := s.newAggregator()

	if path := s.opts.ObservationsCSV; path != "" {
		readings, err := fmi.ReadObservationsFile(path)
		if err != nil {
			return err
		}
		for _, r := range readings {
			if err := agg.Ingest(r); err != nil {
				s.logger.Warn("reading skipped", "date", r.Date, "hour", r.Hour, "error", err)
				continue
			}
			run.Readings++
		}
	}

	if path := s.opts.RainfallCSV; path != "" {
		days, err := fmi.ReadRainfallFile(path)
		if err != nil {
			return err
		}
		for _, d := range days {
			if err := agg.IngestRainfall(d); err != nil {
				s.logger.Warn("rainfall skipped", "date", d.Date, "error", err)
				continue
			}
			run.RainfallDays++
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	results := s.recompute(agg)
	for _, res := range results {
		if err := s.persist(ctx, res); err != nil {
			s.logger.Error("persist day failed", "date", res.record.Date, "error", err)
			continue
		}
		run.Days++
	}
	if err := s.repository.SaveWinds(ctx, agg.Winds()); err != nil {
		return fmt.Errorf("save winds: %w", err)
	}
	return nil
}

// recompute evaluates every day of agg. Day lengths are resolved up front
// since the aggregator is not safe for concurrent use; windows are computed
// by a bounded set of workers, one record copy each.
func (s *Service) recompute(agg *aggregator.Aggregator) []dayResult {
	dates := agg.Dates()
	records := make([]types.DailyRecord, len(dates))
	days := make([]*types.DayLength, len(dates))
	for i, d := range dates {
		records[i], _ = agg.Record(d)
		days[i] = s.dayLength(agg, d)
	}

	results := make([]dayResult, len(dates))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.evaluate(records[i], days[i])
			}
		}()
	}
	for i := range dates {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}
