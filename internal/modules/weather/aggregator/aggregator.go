// Package aggregator folds station readings into per-day records.
package aggregator

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-playground/validator/v10"

	"weatherday/internal/modules/weather/period"
	"weatherday/internal/modules/weather/types"
	"weatherday/internal/modules/weather/wind"
	"weatherday/internal/sun"
)

// Aggregator owns the daily records of one run. It is not safe for
// concurrent use; the last reading ingested for a (date, slot) wins.
type Aggregator struct {
	provider sun.Provider
	location sun.Location
	logger   *slog.Logger
	validate *validator.Validate

	records    map[string]*types.DailyRecord
	dayLengths map[string]types.DayLength
	winds      *wind.Registry
}

func New(provider sun.Provider, location sun.Location, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		provider:   provider,
		location:   location,
		logger:     logger,
		validate:   validator.New(),
		records:    make(map[string]*types.DailyRecord),
		dayLengths: make(map[string]types.DayLength),
		winds:      wind.NewRegistry(),
	}
}

// Ingest adds one reading to its day's record: running sums, the period wind
// list and the 3-hour slot the reading falls in.
func (a *Aggregator) Ingest(r types.Reading) error {
	if err := a.validate.Struct(r); err != nil {
		return fmt.Errorf("invalid reading %s %02d:00: %w", r.Date, r.Hour, err)
	}

	var w *types.WindObservation
	if r.WindDegrees != nil {
		dir, err := wind.BinDegrees(*r.WindDegrees)
		if err != nil {
			return fmt.Errorf("reading %s %02d:00: %w", r.Date, r.Hour, err)
		}
		if r.WindSpeed != nil {
			w = &types.WindObservation{Speed: *r.WindSpeed, Direction: dir}
		}
	}

	dayLength, err := a.DayLength(r.Date)
	if err != nil {
		return err
	}
	p := period.ClassifyDay(r.Hour, dayLength)

	rec := a.record(r.Date)
	if r.Pressure != nil {
		rec.PressureSum += *r.Pressure
		rec.PressureCount++
	}
	if r.Humidity != nil {
		rec.HumiditySum += *r.Humidity
		rec.HumidityCount++
	}
	if r.CloudCover != nil {
		rec.CloudCoverSum += *r.CloudCover
		rec.CloudCoverCount++
	}
	if r.Temperature != nil && p == types.Day {
		rec.TemperatureDaySum += *r.Temperature
		rec.TemperatureDayCount++
	}

	if w != nil {
		a.winds.Add(*w)
	}
	switch p {
	case types.PreSunrise:
		rec.WindsPreSunrise = append(rec.WindsPreSunrise, w)
	case types.PostSunset:
		rec.WindsPostSunset = append(rec.WindsPostSunset, w)
	default:
		rec.WindsDay = append(rec.WindsDay, w)
	}

	rec.Slots[r.Hour/3] = types.ConcurrentObservation{
		Temperature: copyFloat(r.Temperature),
		Pressure:    copyFloat(r.Pressure),
		CloudCover:  copyInt(r.CloudCover),
		Humidity:    copyInt(r.Humidity),
		Wind:        w,
	}

	a.logger.Debug("reading ingested",
		"date", r.Date,
		"hour", r.Hour,
		"period", p.String(),
		"slot", r.Hour/3,
	)
	return nil
}

// IngestRainfall sets the day's rainfall, creating the record if needed.
// A nil amount leaves any earlier value in place.
func (a *Aggregator) IngestRainfall(rf types.Rainfall) error {
	if err := a.validate.Struct(rf); err != nil {
		return fmt.Errorf("invalid rainfall %s: %w", rf.Date, err)
	}
	rec := a.record(rf.Date)
	if rf.MM != nil {
		rec.Rainfall = types.Float64(*rf.MM)
	}
	return nil
}

// DayLength returns the sunrise and sunset for date, cached per date.
func (a *Aggregator) DayLength(date string) (types.DayLength, error) {
	if d, ok := a.dayLengths[date]; ok {
		return d, nil
	}
	t, err := sun.ParseDate(date, a.location.Zone)
	if err != nil {
		return types.DayLength{}, err
	}
	d, err := a.provider.SunriseSunset(t, a.location)
	if err != nil {
		return types.DayLength{}, fmt.Errorf("sunrise for %s: %w", date, err)
	}
	a.dayLengths[date] = d
	return d, nil
}

// Record returns a copy of the day's record.
func (a *Aggregator) Record(date string) (types.DailyRecord, bool) {
	rec, ok := a.records[date]
	if !ok {
		return types.DailyRecord{}, false
	}
	return rec.Clone(), true
}

// Dates lists the days seen so far in ascending order.
func (a *Aggregator) Dates() []string {
	out := make([]string, 0, len(a.records))
	for d := range a.records {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Winds returns the distinct wind observations of the run in first-seen order.
func (a *Aggregator) Winds() []types.WindObservation {
	return a.winds.All()
}

func (a *Aggregator) Len() int { return len(a.records) }

// Has reports whether a record exists for date.
func (a *Aggregator) Has(date string) bool {
	_, ok := a.records[date]
	return ok
}

// Restore seeds the aggregator with a previously persisted record so later
// readings for that day continue its sums. An existing record is kept and
// false is returned.
func (a *Aggregator) Restore(rec types.DailyRecord) bool {
	if _, ok := a.records[rec.Date]; ok {
		return false
	}
	c := rec.Clone()
	a.records[rec.Date] = &c
	return true
}

func (a *Aggregator) record(date string) *types.DailyRecord {
	rec, ok := a.records[date]
	if !ok {
		rec = types.NewDailyRecord(date)
		a.records[date] = rec
	}
	return rec
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return types.Float64(*v)
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	return types.Int(*v)
}
