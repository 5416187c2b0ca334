// Package fmi reads the semicolon separated observation and rainfall exports
// of the Finnish Meteorological Institute station series.
package fmi

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"weatherday/internal/modules/weather/types"
)

const (
	ObservationHeaderLines = 16
	RainfallHeaderLines    = 8
)

// Observation columns.
const (
	colYear = iota
	colMonth
	colDay
	colHour
	colTemperature
	colHumidity
	colWindDirection
	colWindSpeed
	_
	colPressure
	colCloudCover
)

const colRainfall = 3

var ErrMissingField = errors.New("missing field")

// ParseError reports a malformed data line.
type ParseError struct {
	File  string
	Line  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %v", e.File, e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReadObservationsFile opens path and reads it with ReadObservations.
func ReadObservationsFile(path string) ([]types.Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open observations: %w", err)
	}
	defer f.Close()
	return ReadObservations(f, path)
}

// ReadRainfallFile opens path and reads it with ReadRainfall.
func ReadRainfallFile(path string) ([]types.Rainfall, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rainfall: %w", err)
	}
	defer f.Close()
	return ReadRainfall(f, path)
}

// ReadObservations parses the tri-hourly observation export. Empty fields
// are absent values; the first error stops the read.
func ReadObservations(r io.Reader, name string) ([]types.Reading, error) {
	var out []types.Reading
	err := scan(r, name, ObservationHeaderLines, func(l *line) error {
		date, err := l.date()
		if err != nil {
			return err
		}
		hour, err := l.int(colHour, "hour")
		if err != nil {
			return err
		}
		if hour == nil {
			return l.fail("hour", ErrMissingField)
		}
		rd := types.Reading{Date: date, Hour: *hour}
		if rd.Temperature, err = l.float(colTemperature, "temperature"); err != nil {
			return err
		}
		if rd.Humidity, err = l.int(colHumidity, "humidity"); err != nil {
			return err
		}
		if rd.WindDegrees, err = l.int(colWindDirection, "wind direction"); err != nil {
			return err
		}
		if rd.WindSpeed, err = l.int(colWindSpeed, "wind speed"); err != nil {
			return err
		}
		if rd.Pressure, err = l.float(colPressure, "pressure"); err != nil {
			return err
		}
		if rd.CloudCover, err = l.int(colCloudCover, "cloud cover"); err != nil {
			return err
		}
		out = append(out, rd)
		return nil
	})
	return out, err
}

// ReadRainfall parses the daily rainfall export.
func ReadRainfall(r io.Reader, name string) ([]types.Rainfall, error) {
	var out []types.Rainfall
	err := scan(r, name, RainfallHeaderLines, func(l *line) error {
		date, err := l.date()
		if err != nil {
			return err
		}
		mm, err := l.float(colRainfall, "rainfall")
		if err != nil {
			return err
		}
		out = append(out, types.Rainfall{Date: date, MM: mm})
		return nil
	})
	return out, err
}

type line struct {
	file   string
	number int
	fields []string
}

func scan(r io.Reader, name string, header int, fn func(*line) error) error {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		if n <= header {
			continue
		}
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if err := fn(&line{file: name, number: n, fields: strings.Split(text, ";")}); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	return nil
}

func (l *line) fail(field string, err error) error {
	return &ParseError{File: l.file, Line: l.number, Field: field, Err: err}
}

func (l *line) field(i int) string {
	if i >= len(l.fields) {
		return ""
	}
	return strings.TrimSpace(l.fields[i])
}

// date builds the ISO day key, zero padding single-digit month and day.
func (l *line) date() (string, error) {
	parts := [3]int{}
	for i, name := range []string{"year", "month", "day"} {
		v, err := l.int(colYear+i, name)
		if err != nil {
			return "", err
		}
		if v == nil {
			return "", l.fail(name, ErrMissingField)
		}
		parts[i] = *v
	}
	return fmt.Sprintf("%04d-%02d-%02d", parts[0], parts[1], parts[2]), nil
}

func (l *line) int(i int, name string) (*int, error) {
	s := l.field(i)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, l.fail(name, err)
	}
	return &v, nil
}

func (l *line) float(i int, name string) (*float64, error) {
	s := l.field(i)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, l.fail(name, err)
	}
	return &v, nil
}
