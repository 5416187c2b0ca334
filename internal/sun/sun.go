// Package sun supplies sunrise and sunset times for the station location.
package sun

import (
	"errors"
	"fmt"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"weatherday/internal/modules/weather/types"
)

var ErrNoSunrise = errors.New("sun does not rise or set on this date")

type Location struct {
	Latitude  float64
	Longitude float64
	// Zone is the civil time zone sunrise and sunset are reported in.
	Zone *time.Location
}

type Provider interface {
	SunriseSunset(date time.Time, loc Location) (types.DayLength, error)
}

// Calculator computes sunrise and sunset astronomically.
type Calculator struct{}

func (Calculator) SunriseSunset(date time.Time, loc Location) (types.DayLength, error) {
	zone := loc.Zone
	if zone == nil {
		zone = time.UTC
	}
	rise, set := sunrise.SunriseSunset(loc.Latitude, loc.Longitude, date.Year(), date.Month(), date.Day())
	if rise.IsZero() || set.IsZero() {
		return types.DayLength{}, fmt.Errorf("%w: %s at %.4f,%.4f", ErrNoSunrise, date.Format(time.DateOnly), loc.Latitude, loc.Longitude)
	}
	rise = rise.In(zone)
	set = set.In(zone)
	return types.DayLength{
		SunriseHour:   rise.Hour(),
		SunriseMinute: rise.Minute(),
		SunsetHour:    set.Hour(),
		SunsetMinute:  set.Minute(),
	}, nil
}

// Fixed returns the same day length for every date.
type Fixed types.DayLength

func (f Fixed) SunriseSunset(time.Time, Location) (types.DayLength, error) {
	return types.DayLength(f), nil
}

// ParseDate parses an ISO calendar date in the station zone.
func ParseDate(date string, zone *time.Location) (time.Time, error) {
	if zone == nil {
		zone = time.UTC
	}
	t, err := time.ParseInLocation(time.DateOnly, date, zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return t, nil
}
