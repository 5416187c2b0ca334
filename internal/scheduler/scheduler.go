// Package scheduler re-runs the CSV import on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"weatherday/internal/modules/weather/types"
)

var ErrInvalidInterval = errors.New("import interval must be positive")

// Importer is the job the scheduler runs.
type Importer interface {
	ImportFiles(ctx context.Context) (types.ImportRun, error)
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	importer  Importer
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New builds a scheduler running importer every interval. Each run gets at
// most timeout; zero means interval.
func New(importer Importer, interval, timeout time.Duration, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = interval
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		importer:  importer,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the import. The first run happens immediately.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return ErrInvalidInterval
	}
	if _, err := s.scheduler.Every(s.interval).Do(s.run); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.logger.Info("import scheduled", "interval", s.interval.String())
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Info("scheduler: running import job")
	run, err := s.importer.ImportFiles(ctx)
	if err != nil {
		s.logger.Error("scheduler: import failed", "import_id", run.ID, "error", err)
		return
	}
	s.logger.Info("scheduler: import completed", "import_id", run.ID, "days", run.Days)
}

// Stop cancels future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
