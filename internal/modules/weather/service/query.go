package service

import (
	"context"
	"errors"
	"fmt"

	"weatherday/internal/modules/weather/repository"
	"weatherday/internal/modules/weather/summary"
	"weatherday/internal/modules/weather/types"
	"weatherday/internal/modules/weather/window"
)

// Day is the stored state of one date.
type Day struct {
	Record    types.DailyRecord    `json:"record"`
	DayLength *types.DayLength     `json:"day_length,omitempty"`
	Morning   *types.MorningWindow `json:"morning_window,omitempty"`
	Summary   summary.Summary      `json:"summary"`
}

func (s *Service) GetDay(ctx context.Context, date string) (Day, error) {
	rec, day, err := s.repository.GetRecord(ctx, date)
	if err != nil {
		return Day{}, err
	}
	var morning *types.MorningWindow
	w, err := s.repository.GetMorningWindow(ctx, date)
	switch {
	case err == nil:
		morning = &w
	case !errors.Is(err, repository.ErrNotFound):
		return Day{}, err
	}
	sum, err := summary.Of(&rec, day, morning)
	if err != nil {
		return Day{}, err
	}
	return Day{Record: rec, DayLength: day, Morning: morning, Summary: sum}, nil
}

// ListDays summarizes the stored days matching f in date order.
func (s *Service) ListDays(ctx context.Context, f repository.DateFilter) ([]summary.Summary, error) {
	dates, err := s.repository.ListDates(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]summary.Summary, 0, len(dates))
	for _, d := range dates {
		day, err := s.GetDay(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("day %s: %w", d, err)
		}
		out = append(out, day.Summary)
	}
	return out, nil
}

// ComputeWindow evaluates the morning window of a stored day at an arbitrary
// start. It returns window.ErrInvalidStart for starts outside 00:00..08:00.
func (s *Service) ComputeWindow(ctx context.Context, date string, hour, minute int) (types.MorningWindow, error) {
	rec, _, err := s.repository.GetRecord(ctx, date)
	if err != nil {
		return types.MorningWindow{}, err
	}
	w, err := window.Compute(&rec, hour, minute)
	if err != nil {
		return types.MorningWindow{}, err
	}
	if w.Winds == nil {
		w.Winds = []types.WindObservation{}
	}
	return w, nil
}

func (s *Service) Winds(ctx context.Context) ([]types.WindObservation, error) {
	return s.repository.GetWinds(ctx)
}

func (s *Service) Imports(ctx context.Context, limit int) ([]types.ImportRun, error) {
	return s.repository.ListImports(ctx, limit)
}
