package aggregator

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"weatherday/internal/modules/weather/types"
	"weatherday/internal/modules/weather/wind"
	"weatherday/internal/modules/weather/window"
	"weatherday/internal/sun"
)

const date = "2014-05-01"

// Sunrise 04:10 and sunset exactly at 19:00.
var fixedDay = sun.Fixed{SunriseHour: 4, SunriseMinute: 10, SunsetHour: 19, SunsetMinute: 0}

func newTestAggregator() *Aggregator {
	return New(fixedDay, sun.Location{}, nil)
}

func reading(hour int, temp, pres float64, humidity, clouds, deg, speed int) types.Reading {
	return types.Reading{
		Date:        date,
		Hour:        hour,
		Temperature: types.Float64(temp),
		Pressure:    types.Float64(pres),
		Humidity:    types.Int(humidity),
		CloudCover:  types.Int(clouds),
		WindDegrees: types.Int(deg),
		WindSpeed:   types.Int(speed),
	}
}

func TestIngest_SumsAndPeriods(t *testing.T) {
	a := newTestAggregator()
	readings := []types.Reading{
		reading(0, 1, 1000, 90, 8, 0, 3),
		reading(3, 2, 1001, 85, 7, 90, 4),
		reading(6, 5, 1002, 80, 6, 180, 5),
		reading(12, 11, 1003, 60, 4, 270, 6),
		reading(18, 8, 1004, 70, 2, 350, 7),
		reading(21, 4, 1005, 75, 1, 350, 7),
	}
	for _, r := range readings {
		if err := a.Ingest(r); err != nil {
			t.Fatalf("Ingest(%02d:00): %v", r.Hour, err)
		}
	}

	rec, ok := a.Record(date)
	if !ok {
		t.Fatal("Record: not found")
	}
	if rec.TemperatureDayCount != 3 || rec.TemperatureDaySum != 24 {
		t.Errorf("temperature day = %v/%d; want 24/3", rec.TemperatureDaySum, rec.TemperatureDayCount)
	}
	if rec.PressureCount != 6 || rec.PressureSum != 6015 {
		t.Errorf("pressure = %v/%d; want 6015/6", rec.PressureSum, rec.PressureCount)
	}
	if rec.HumidityCount != 6 || rec.HumiditySum != 460 {
		t.Errorf("humidity = %d/%d; want 460/6", rec.HumiditySum, rec.HumidityCount)
	}
	if rec.CloudCoverCount != 6 || rec.CloudCoverSum != 28 {
		t.Errorf("cloud cover = %d/%d; want 28/6", rec.CloudCoverSum, rec.CloudCoverCount)
	}
	if len(rec.WindsPreSunrise) != 2 || len(rec.WindsDay) != 3 || len(rec.WindsPostSunset) != 1 {
		t.Errorf("wind periods = %d/%d/%d; want 2/3/1",
			len(rec.WindsPreSunrise), len(rec.WindsDay), len(rec.WindsPostSunset))
	}
	if got := rec.WindsPostSunset[0]; got == nil || got.Key() != "windN7" {
		t.Errorf("post-sunset wind = %v; want N 7", got)
	}

	if rec.Slots[4].Temperature == nil || *rec.Slots[4].Temperature != 11 {
		t.Errorf("slot 4 temperature = %v; want 11", rec.Slots[4].Temperature)
	}
	for _, i := range []int{3, 5} {
		if !rec.Slots[i].IsEmpty() {
			t.Errorf("slot %d = %+v; want empty", i, rec.Slots[i])
		}
	}

	wantWinds := []types.WindObservation{
		{Speed: 3, Direction: types.North},
		{Speed: 4, Direction: types.East},
		{Speed: 5, Direction: types.South},
		{Speed: 6, Direction: types.West},
		{Speed: 7, Direction: types.North},
	}
	if got := a.Winds(); !reflect.DeepEqual(got, wantWinds) {
		t.Errorf("Winds() = %v; want %v", got, wantWinds)
	}
}

func TestIngest_SunsetOnTheHour(t *testing.T) {
	a := New(sun.Fixed{SunriseHour: 3, SunsetHour: 18, SunsetMinute: 0}, sun.Location{}, nil)
	if err := a.Ingest(reading(18, 10, 1000, 50, 1, 90, 2)); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	rec, _ := a.Record(date)
	if rec.TemperatureDayCount != 0 || len(rec.WindsPostSunset) != 1 {
		t.Errorf("18:00 with sunset 18:00 counted as day: %+v", rec)
	}

	b := New(sun.Fixed{SunriseHour: 3, SunsetHour: 18, SunsetMinute: 20}, sun.Location{}, nil)
	if err := b.Ingest(reading(18, 10, 1000, 50, 1, 90, 2)); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	rec, _ = b.Record(date)
	if rec.TemperatureDayCount != 1 || len(rec.WindsDay) != 1 {
		t.Errorf("18:00 with sunset 18:20 not counted as day: %+v", rec)
	}
}

func TestIngest_SameReadingTwice(t *testing.T) {
	once := newTestAggregator()
	twice := newTestAggregator()
	r := reading(12, 11, 1003, 60, 4, 270, 6)

	if err := once.Ingest(r); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := twice.Ingest(r); err != nil {
			t.Fatalf("Ingest #%d: %v", i+1, err)
		}
	}

	a, _ := once.Record(date)
	b, _ := twice.Record(date)
	if !reflect.DeepEqual(a.Slots, b.Slots) {
		t.Errorf("slots differ after duplicate ingest:\n once  %+v\n twice %+v", a.Slots, b.Slots)
	}
	if b.PressureSum != 2*a.PressureSum || b.PressureCount != 2*a.PressureCount {
		t.Errorf("pressure = %v/%d; want doubled %v/%d", b.PressureSum, b.PressureCount, a.PressureSum, a.PressureCount)
	}
	if b.TemperatureDaySum != 2*a.TemperatureDaySum || b.TemperatureDayCount != 2 {
		t.Errorf("temperature = %v/%d; want doubled", b.TemperatureDaySum, b.TemperatureDayCount)
	}
	if len(b.WindsDay) != 2 {
		t.Errorf("day winds = %d; want 2", len(b.WindsDay))
	}
}

func TestIngest_LastWriteWinsForSlot(t *testing.T) {
	a := newTestAggregator()
	if err := a.Ingest(reading(6, 5, 1000, 80, 6, 180, 5)); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	// 07:00 maps to the same 06:00 slot and carries no wind or humidity.
	if err := a.Ingest(types.Reading{Date: date, Hour: 7, Temperature: types.Float64(6)}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	rec, _ := a.Record(date)
	slot := rec.Slots[2]
	if slot.Temperature == nil || *slot.Temperature != 6 {
		t.Errorf("slot temperature = %v; want 6", slot.Temperature)
	}
	if slot.Humidity != nil || slot.Wind != nil || slot.Pressure != nil {
		t.Errorf("slot = %+v; want only temperature", slot)
	}
	if len(rec.WindsDay) != 2 || rec.WindsDay[1] != nil {
		t.Errorf("day winds = %v; want [S 5, <nil>]", rec.WindsDay)
	}
}

func TestIngest_WindNeedsSpeedAndDirection(t *testing.T) {
	a := newTestAggregator()
	r := types.Reading{Date: date, Hour: 9, WindDegrees: types.Int(90)}
	if err := a.Ingest(r); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	r = types.Reading{Date: date, Hour: 12, WindSpeed: types.Int(4)}
	if err := a.Ingest(r); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	rec, _ := a.Record(date)
	if len(rec.WindsDay) != 2 || rec.WindsDay[0] != nil || rec.WindsDay[1] != nil {
		t.Errorf("day winds = %v; want two nil placeholders", rec.WindsDay)
	}
	if len(a.Winds()) != 0 {
		t.Errorf("Winds() = %v; want empty", a.Winds())
	}
}

func TestIngest_InvalidInputLeavesRecordUntouched(t *testing.T) {
	a := newTestAggregator()

	err := a.Ingest(reading(9, 1, 1000, 50, 1, 45, 3))
	if !errors.Is(err, wind.ErrUnknownDegrees) {
		t.Fatalf("Ingest(45°) error = %v; want ErrUnknownDegrees", err)
	}
	if err := a.Ingest(types.Reading{Date: date, Hour: 24}); err == nil {
		t.Fatal("Ingest(hour 24) error = nil; want non-nil")
	}
	if err := a.Ingest(types.Reading{Date: "2014-5-1", Hour: 3}); err == nil {
		t.Fatal("Ingest(bad date) error = nil; want non-nil")
	}
	if err := a.Ingest(types.Reading{Date: date, Hour: 3, Humidity: types.Int(120)}); err == nil {
		t.Fatal("Ingest(humidity 120) error = nil; want non-nil")
	}
	if a.Len() != 0 {
		t.Errorf("Len() = %d after rejected readings; want 0", a.Len())
	}
}

func TestIngestRainfall(t *testing.T) {
	a := newTestAggregator()
	if err := a.IngestRainfall(types.Rainfall{Date: "2014-05-02", MM: types.Float64(3.4)}); err != nil {
		t.Fatalf("IngestRainfall: %v", err)
	}
	if err := a.IngestRainfall(types.Rainfall{Date: "2014-05-03"}); err != nil {
		t.Fatalf("IngestRainfall: %v", err)
	}

	rec, ok := a.Record("2014-05-02")
	if !ok || rec.Rainfall == nil || *rec.Rainfall != 3.4 {
		t.Errorf("2014-05-02 rainfall = %v; want 3.4", rec.Rainfall)
	}
	rec, ok = a.Record("2014-05-03")
	if !ok || rec.Rainfall != nil {
		t.Errorf("2014-05-03 rainfall = %v, found %v; want nil, true", rec.Rainfall, ok)
	}
	if got := a.Dates(); !reflect.DeepEqual(got, []string{"2014-05-02", "2014-05-03"}) {
		t.Errorf("Dates() = %v", got)
	}
}

func TestRecord_ReturnsCopy(t *testing.T) {
	a := newTestAggregator()
	if err := a.Ingest(reading(3, 2, 1001, 85, 7, 90, 4)); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	rec, _ := a.Record(date)
	*rec.Slots[1].Temperature = 99
	rec.Slots[1].Wind.Speed = 99

	again, _ := a.Record(date)
	if *again.Slots[1].Temperature != 2 || again.Slots[1].Wind.Speed != 4 {
		t.Errorf("Record copy aliased internal state: %+v", again.Slots[1])
	}
}

func TestIngestThenWindow(t *testing.T) {
	a := newTestAggregator()
	temps := []float64{3, 0, 0, 5, 10}
	for i, temp := range temps {
		r := types.Reading{
			Date:        date,
			Hour:        i * 3,
			Temperature: types.Float64(temp),
			Pressure:    types.Float64(1000),
			CloudCover:  types.Int(5),
			Humidity:    types.Int(80),
			WindDegrees: types.Int(0),
			WindSpeed:   types.Int(7),
		}
		if err := a.Ingest(r); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}

	rec, _ := a.Record(date)
	got, err := window.Compute(&rec, 2, 0)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got.Temperature == nil || math.Abs(*got.Temperature-0.125) > 1e-9 {
		t.Errorf("temperature = %v; want 0.125", got.Temperature)
	}
	if got.Humidity == nil || *got.Humidity != 80 {
		t.Errorf("humidity = %v; want 80", got.Humidity)
	}
	if len(got.Winds) != 1 || got.Winds[0].Key() != "windN7" {
		t.Errorf("winds = %v; want [N 7]", got.Winds)
	}
}

func TestRestore_ContinuesPersistedRecord(t *testing.T) {
	a := newTestAggregator()
	stored := types.NewDailyRecord(date)
	stored.PressureSum, stored.PressureCount = 1000, 1
	stored.Slots[0] = types.ConcurrentObservation{Pressure: types.Float64(1000)}

	if !a.Restore(*stored) {
		t.Fatal("Restore = false; want true for a new date")
	}
	if a.Restore(*types.NewDailyRecord(date)) {
		t.Fatal("Restore = true; want false for an existing date")
	}
	if !a.Has(date) || a.Has("2014-05-02") {
		t.Fatalf("Has mismatch")
	}

	stored.PressureSum = 0
	if err := a.Ingest(reading(3, 1, 1010, 80, 5, 90, 2)); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	rec, _ := a.Record(date)
	if rec.PressureSum != 2010 || rec.PressureCount != 2 {
		t.Errorf("pressure = %v/%d; want 2010/2", rec.PressureSum, rec.PressureCount)
	}
	if rec.Slots[0].Pressure == nil || *rec.Slots[0].Pressure != 1000 {
		t.Errorf("restored slot 0 = %+v", rec.Slots[0])
	}
}
