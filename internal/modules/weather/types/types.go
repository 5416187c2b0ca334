package types

import (
	"fmt"
	"strconv"
	"time"
)

// SlotCount is the number of 3-hour observation instants in a day (00:00 .. 21:00).
const SlotCount = 8

type WindDirection string

const (
	North     WindDirection = "N"
	NorthEast WindDirection = "NE"
	East      WindDirection = "E"
	SouthEast WindDirection = "SE"
	South     WindDirection = "S"
	SouthWest WindDirection = "SW"
	West      WindDirection = "W"
	NorthWest WindDirection = "NW"
)

// WindDirections lists the eight compass labels in clockwise order.
var WindDirections = []WindDirection{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

// WindObservation is comparable; two observations are equal iff speed and direction match.
type WindObservation struct {
	Speed     int           `json:"speed"`
	Direction WindDirection `json:"direction"`
}

// Key names the observation the way downstream consumers identify it, e.g. "windN7".
func (w WindObservation) Key() string {
	return "wind" + string(w.Direction) + strconv.Itoa(w.Speed)
}

func (w WindObservation) String() string {
	return fmt.Sprintf("%s %d", w.Direction, w.Speed)
}

type Period int

const (
	PreSunrise Period = iota
	Day
	PostSunset
)

func (p Period) String() string {
	switch p {
	case PreSunrise:
		return "pre_sunrise"
	case Day:
		return "day"
	case PostSunset:
		return "post_sunset"
	default:
		return "unknown"
	}
}

// ConcurrentObservation holds the values measured at one 3-hour instant.
type ConcurrentObservation struct {
	Temperature *float64         `json:"temperature_c,omitempty"`
	Pressure    *float64         `json:"pressure_hpa,omitempty"`
	CloudCover  *int             `json:"cloud_cover_okta,omitempty"`
	Humidity    *int             `json:"humidity_pct,omitempty"`
	Wind        *WindObservation `json:"wind,omitempty"`
}

// IsEmpty reports whether no quantity was recorded for the instant.
func (o ConcurrentObservation) IsEmpty() bool {
	return o.Temperature == nil && o.Pressure == nil && o.CloudCover == nil && o.Humidity == nil && o.Wind == nil
}

// DailyRecord accumulates one calendar day of station readings.
type DailyRecord struct {
	Date string `json:"date"`

	TemperatureDaySum   float64 `json:"temperature_day_sum"`
	TemperatureDayCount int     `json:"temperature_day_count"`
	PressureSum         float64 `json:"pressure_sum"`
	PressureCount       int     `json:"pressure_count"`
	HumiditySum         int     `json:"humidity_sum"`
	HumidityCount       int     `json:"humidity_count"`
	CloudCoverSum       int     `json:"cloud_cover_sum"`
	CloudCoverCount     int     `json:"cloud_cover_count"`

	Rainfall *float64 `json:"rainfall_mm,omitempty"`

	// Nil entries mark readings without a usable wind, keeping positions aligned with readings.
	WindsPreSunrise []*WindObservation `json:"winds_pre_sunrise"`
	WindsDay        []*WindObservation `json:"winds_day"`
	WindsPostSunset []*WindObservation `json:"winds_post_sunset"`

	Slots [SlotCount]ConcurrentObservation `json:"slots"`
}

func NewDailyRecord(date string) *DailyRecord {
	return &DailyRecord{
		Date:            date,
		WindsPreSunrise: []*WindObservation{},
		WindsDay:        []*WindObservation{},
		WindsPostSunset: []*WindObservation{},
	}
}

// Clone returns a deep copy that shares no pointers with r.
func (r *DailyRecord) Clone() DailyRecord {
	out := *r
	if r.Rainfall != nil {
		out.Rainfall = Float64(*r.Rainfall)
	}
	out.WindsPreSunrise = cloneWinds(r.WindsPreSunrise)
	out.WindsDay = cloneWinds(r.WindsDay)
	out.WindsPostSunset = cloneWinds(r.WindsPostSunset)
	for i, s := range r.Slots {
		out.Slots[i] = ConcurrentObservation{}
		if s.Temperature != nil {
			out.Slots[i].Temperature = Float64(*s.Temperature)
		}
		if s.Pressure != nil {
			out.Slots[i].Pressure = Float64(*s.Pressure)
		}
		if s.CloudCover != nil {
			out.Slots[i].CloudCover = Int(*s.CloudCover)
		}
		if s.Humidity != nil {
			out.Slots[i].Humidity = Int(*s.Humidity)
		}
		if s.Wind != nil {
			w := *s.Wind
			out.Slots[i].Wind = &w
		}
	}
	return out
}

// Winds returns the period list a reading of period p is appended to.
func (r *DailyRecord) Winds(p Period) []*WindObservation {
	switch p {
	case PreSunrise:
		return r.WindsPreSunrise
	case PostSunset:
		return r.WindsPostSunset
	default:
		return r.WindsDay
	}
}

func cloneWinds(in []*WindObservation) []*WindObservation {
	out := make([]*WindObservation, len(in))
	for i, w := range in {
		if w != nil {
			c := *w
			out[i] = &c
		}
	}
	return out
}

// MorningWindow is the time-weighted average over the standardized observation window.
type MorningWindow struct {
	Date        string            `json:"date,omitempty"`
	StartHour   int               `json:"start_hour"`
	StartMinute int               `json:"start_minute"`
	Temperature *float64          `json:"temperature_c"`
	Pressure    *float64          `json:"pressure_hpa"`
	CloudCover  *float64          `json:"cloud_cover_okta"`
	Humidity    *float64          `json:"humidity_pct"`
	Winds       []WindObservation `json:"winds"`
}

// DayLength is sunrise and sunset in the station's civil time zone, truncated to minutes.
type DayLength struct {
	SunriseHour   int `json:"sunrise_hour"`
	SunriseMinute int `json:"sunrise_minute"`
	SunsetHour    int `json:"sunset_hour"`
	SunsetMinute  int `json:"sunset_minute"`
}

// Reading is one tri-hourly station reading. Nil fields were absent in the source.
type Reading struct {
	StationID   string   `json:"station_id,omitempty"`
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
	Hour        int      `json:"hour" validate:"min=0,max=23"`
	Temperature *float64 `json:"temperature_c,omitempty"`
	Pressure    *float64 `json:"pressure_hpa,omitempty" validate:"omitempty,gt=0"`
	Humidity    *int     `json:"humidity_pct,omitempty" validate:"omitempty,min=0,max=100"`
	CloudCover  *int     `json:"cloud_cover_okta,omitempty" validate:"omitempty,min=0,max=9"`
	WindDegrees *int     `json:"wind_dir_deg,omitempty" validate:"omitempty,min=0,max=360"`
	WindSpeed   *int     `json:"wind_speed_ms,omitempty" validate:"omitempty,min=0"`
}

// Rainfall is one day of the separate daily rainfall series.
type Rainfall struct {
	Date string   `json:"date" validate:"required,datetime=2006-01-02"`
	MM   *float64 `json:"rainfall_mm,omitempty"`
}

func Float64(v float64) *float64 { return &v }

func Int(v int) *int { return &v }

// ImportRun records one pass over the configured CSV sources.
type ImportRun struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Readings     int        `json:"readings"`
	RainfallDays int        `json:"rainfall_days"`
	Days         int        `json:"days"`
	Error        string     `json:"error,omitempty"`
}
