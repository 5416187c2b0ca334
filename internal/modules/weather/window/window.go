// Package window computes the standardized morning observation: a
// time-weighted average over a 4-hour window reconstructed from the day's
// 3-hourly slots by piecewise-linear interpolation.
package window

import (
	"errors"
	"fmt"
	"math"

	"weatherday/internal/modules/weather/types"
	"weatherday/internal/modules/weather/wind"
)

const (
	// DefaultMinutes is the length of the standardized observation window.
	DefaultMinutes = 240

	slotMinutes  = 180
	maxStartHour = 8
)

var ErrInvalidStart = errors.New("invalid window start")

// slotRule says when an absolute slot must hold a value for a quantity to be
// averaged. hour is the elapsed start hour index0*3 + minutesIntoSlot/60.
type slotRule struct {
	slot     int
	required func(index0, hour int) bool
}

// Slots 0 and 1 only matter for windows starting in them; later slots are
// needed once the window reaches them.
var eligibilityRules = []slotRule{
	{slot: 0, required: func(index0, _ int) bool { return index0 == 0 }},
	{slot: 1, required: func(index0, _ int) bool { return index0 <= 1 }},
	{slot: 2, required: func(_, _ int) bool { return true }},
	{slot: 3, required: func(_, hour int) bool { return hour >= 2 }},
	{slot: 4, required: func(_, hour int) bool { return hour >= 5 }},
}

func requiredSlots(index0, minutesIntoSlot int) []int {
	hour := index0*3 + minutesIntoSlot/60
	var out []int
	for _, r := range eligibilityRules {
		if r.required(index0, hour) {
			out = append(out, r.slot)
		}
	}
	return out
}

// Anchor converts a window start into the first slot index and the minutes
// elapsed since that slot's instant.
func Anchor(startHour, startMinute int) (index0, minutesIntoSlot int) {
	return startHour / 3, (startHour%3)*60 + startMinute
}

func validateStart(startHour, startMinute int) error {
	if startHour < 0 || startHour > maxStartHour {
		return fmt.Errorf("%w: hour %d outside 0..%d", ErrInvalidStart, startHour, maxStartHour)
	}
	if startMinute < 0 || startMinute > 59 {
		return fmt.Errorf("%w: minute %d outside 0..59", ErrInvalidStart, startMinute)
	}
	if startHour == maxStartHour && startMinute != 0 {
		return fmt.Errorf("%w: %02d:%02d is past the latest start %02d:00", ErrInvalidStart, startHour, startMinute, maxStartHour)
	}
	return nil
}

// Compute averages temperature, pressure, cloud cover and humidity over the
// 4 hours starting at startHour:startMinute and collects the distinct winds
// observed inside the window. A quantity without enough slots stays nil.
func Compute(rec *types.DailyRecord, startHour, startMinute int) (types.MorningWindow, error) {
	if err := validateStart(startHour, startMinute); err != nil {
		return types.MorningWindow{}, err
	}
	index0, into := Anchor(startHour, startMinute)

	out := types.MorningWindow{
		Date:        rec.Date,
		StartHour:   startHour,
		StartMinute: startMinute,
	}
	out.Temperature = average(column(rec, func(o types.ConcurrentObservation) *float64 { return o.Temperature }), index0, into)
	out.Pressure = average(column(rec, func(o types.ConcurrentObservation) *float64 { return o.Pressure }), index0, into)
	out.CloudCover = average(column(rec, func(o types.ConcurrentObservation) *float64 { return intToFloat(o.CloudCover) }), index0, into)
	out.Humidity = average(column(rec, func(o types.ConcurrentObservation) *float64 { return intToFloat(o.Humidity) }), index0, into)
	out.Winds = winds(rec, index0, into)
	return out, nil
}

func column(rec *types.DailyRecord, get func(types.ConcurrentObservation) *float64) [types.SlotCount]*float64 {
	var out [types.SlotCount]*float64
	for i, s := range rec.Slots {
		out[i] = get(s)
	}
	return out
}

func intToFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	return types.Float64(float64(*v))
}

func average(values [types.SlotCount]*float64, index0, minutesIntoSlot int) *float64 {
	m, ok := eligible(values, index0, minutesIntoSlot)
	if !ok {
		return nil
	}
	return types.Float64(Integrate(m, minutesIntoSlot, DefaultMinutes))
}

// eligible returns the measurements from index0 onward that the window
// interpolates between, or false when a required slot is missing.
func eligible(values [types.SlotCount]*float64, index0, minutesIntoSlot int) ([]float64, bool) {
	for _, slot := range requiredSlots(index0, minutesIntoSlot) {
		if values[slot] == nil {
			return nil, false
		}
	}

	n := 3
	if minutesIntoSlot > 2*60 {
		n = 4
	}
	out := make([]float64, 0, n)
	for i := index0; i < index0+n; i++ {
		if values[i] == nil {
			return nil, false
		}
		out = append(out, *values[i])
	}
	return out, true
}

// Integrate returns the mean of the piecewise-linear curve through m (one
// value every 180 minutes, m[0] at minute 0) over windowMinutes starting
// minutesIntoSlot minutes after m[0]. The curve must cover the window;
// otherwise the result is NaN.
func Integrate(m []float64, minutesIntoSlot, windowMinutes int) float64 {
	start := float64(minutesIntoSlot)
	end := start + float64(windowMinutes)
	if windowMinutes <= 0 || len(m) < 2 || end > float64((len(m)-1)*slotMinutes) {
		return math.NaN()
	}

	var area float64
	for i := 0; i+1 < len(m); i++ {
		segStart := float64(i * slotMinutes)
		lo := math.Max(start, segStart)
		hi := math.Min(end, segStart+slotMinutes)
		if hi <= lo {
			continue
		}
		a := interpolate(m[i], m[i+1], lo-segStart)
		b := interpolate(m[i], m[i+1], hi-segStart)
		area += (a + b) / 2 * (hi - lo)
	}
	return area / float64(windowMinutes)
}

func interpolate(from, to, minutes float64) float64 {
	return from + (to-from)/slotMinutes*minutes
}

func winds(rec *types.DailyRecord, index0, minutesIntoSlot int) []types.WindObservation {
	var ws []types.WindObservation
	add := func(slot int) {
		if w := rec.Slots[slot].Wind; w != nil {
			ws = append(ws, *w)
		}
	}
	if minutesIntoSlot == 0 {
		add(index0)
	}
	add(index0 + 1)
	if minutesIntoSlot >= 2*60 {
		add(index0 + 2)
	}
	return wind.Dedupe(ws)
}
