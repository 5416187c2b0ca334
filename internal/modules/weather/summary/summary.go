// Package summary derives the published per-day weather figures from a
// daily record and its morning window.
package summary

import (
	"fmt"
	"math"
	"time"

	"weatherday/internal/modules/weather/types"
)

// UnknownWind names a period with no wind observations.
const UnknownWind = "windUnknown"

type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
)

// Summary holds rounded daily means. Nil means no data for the quantity.
type Summary struct {
	Date       string `json:"date"`
	WeekOfYear int    `json:"week_of_year"`
	Month      int    `json:"month"`
	Season     Season `json:"season"`
	Sunrise    string `json:"sunrise,omitempty"`
	Sunset     string `json:"sunset,omitempty"`

	StandardTemperature *float64 `json:"standard_temperature_c"`
	StandardCloudCover  *float64 `json:"standard_cloud_cover_okta"`
	StandardWinds       []string `json:"standard_winds"`

	TemperatureDay *float64 `json:"temperature_day_c"`
	Humidity       *float64 `json:"humidity_pct"`
	Pressure       *float64 `json:"pressure_hpa"`
	CloudCover     *float64 `json:"cloud_cover_okta"`
	Rainfall       *float64 `json:"rainfall_mm"`

	WindsPreSunrise []string `json:"winds_pre_sunrise"`
	WindsDay        []string `json:"winds_day"`
	WindsPostSunset []string `json:"winds_post_sunset"`
}

// Of summarizes rec. day is nil when sunrise and sunset are unknown and
// morning is nil when no window was computed.
func Of(rec *types.DailyRecord, day *types.DayLength, morning *types.MorningWindow) (Summary, error) {
	date, err := time.Parse(time.DateOnly, rec.Date)
	if err != nil {
		return Summary{}, fmt.Errorf("summary date %q: %w", rec.Date, err)
	}
	_, week := date.ISOWeek()

	s := Summary{
		Date:       rec.Date,
		WeekOfYear: week,
		Month:      int(date.Month()),
		Season:     SeasonOf(date.Month()),

		TemperatureDay: mean(rec.TemperatureDaySum, rec.TemperatureDayCount),
		Humidity:       mean(float64(rec.HumiditySum), rec.HumidityCount),
		Pressure:       mean(rec.PressureSum, rec.PressureCount),
		CloudCover:     mean(float64(rec.CloudCoverSum), rec.CloudCoverCount),
		Rainfall:       roundPtr(rec.Rainfall),

		WindsPreSunrise: periodKeys(rec.WindsPreSunrise),
		WindsDay:        periodKeys(rec.WindsDay),
		WindsPostSunset: periodKeys(rec.WindsPostSunset),
		StandardWinds:   []string{},
	}

	if day != nil {
		s.Sunrise = clock(day.SunriseHour, day.SunriseMinute)
		s.Sunset = clock(day.SunsetHour, day.SunsetMinute)
	}
	if morning != nil {
		s.StandardTemperature = roundPtr(morning.Temperature)
		s.StandardCloudCover = roundPtr(morning.CloudCover)
		for _, w := range morning.Winds {
			s.StandardWinds = append(s.StandardWinds, w.Key())
		}
	}
	return s, nil
}

func SeasonOf(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return Winter
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	default:
		return Autumn
	}
}

// round is half-up, so -2.5 rounds to -2.
func round(v float64) float64 {
	return math.Floor(v + 0.5)
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return types.Float64(round(*v))
}

func mean(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	return types.Float64(round(sum / float64(n)))
}

func clock(h, m int) string {
	return fmt.Sprintf("%02d:%02d:00", h, m)
}

// periodKeys skips placeholder entries; an empty period reports UnknownWind.
func periodKeys(ws []*types.WindObservation) []string {
	if len(ws) == 0 {
		return []string{UnknownWind}
	}
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		if w != nil {
			out = append(out, w.Key())
		}
	}
	return out
}
