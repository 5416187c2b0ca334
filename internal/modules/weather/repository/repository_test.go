package repository

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"weatherday/internal/migrate"
	"weatherday/internal/modules/weather/types"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("close db: %v", closeErr)
		}
	})
	if err := migrate.Run(context.Background(), db, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func sampleRecord() types.DailyRecord {
	rec := types.NewDailyRecord("2014-03-24")
	rec.TemperatureDaySum, rec.TemperatureDayCount = 7.5, 3
	rec.PressureSum, rec.PressureCount = 3003, 3
	rec.HumiditySum, rec.HumidityCount = 240, 3
	rec.CloudCoverSum, rec.CloudCoverCount = 15, 3
	rec.Rainfall = types.Float64(1.2)

	n7 := &types.WindObservation{Speed: 7, Direction: types.North}
	rec.WindsPreSunrise = []*types.WindObservation{n7, nil}
	rec.WindsDay = []*types.WindObservation{{Speed: 3, Direction: types.East}}
	rec.Slots[0] = types.ConcurrentObservation{Temperature: types.Float64(3), Pressure: types.Float64(1000), CloudCover: types.Int(5), Humidity: types.Int(80), Wind: n7}
	rec.Slots[2] = types.ConcurrentObservation{Temperature: types.Float64(-1.5)}
	return *rec
}

func TestNewRepository(t *testing.T) {
	if repo := NewRepository(setupTestDB(t)); repo == nil {
		t.Fatal("NewRepository returned nil")
	}
}

func TestSaveRecord_RoundTrip(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()
	rec := sampleRecord()
	day := &types.DayLength{SunriseHour: 4, SunriseMinute: 10, SunsetHour: 16, SunsetMinute: 44}

	if err := repo.SaveRecord(ctx, rec, day); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	got, gotDay, err := repo.GetRecord(ctx, rec.Date)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("GetRecord = %+v\nwant %+v", got, rec)
	}
	if gotDay == nil || *gotDay != *day {
		t.Errorf("day length = %v, want %v", gotDay, day)
	}
}

func TestSaveRecord_ReplacesSlotsAndWinds(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()
	rec := sampleRecord()
	if err := repo.SaveRecord(ctx, rec, nil); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	rec.Slots[0] = types.ConcurrentObservation{}
	rec.WindsPreSunrise = []*types.WindObservation{}
	rec.Rainfall = nil
	if err := repo.SaveRecord(ctx, rec, nil); err != nil {
		t.Fatalf("SaveRecord (second): %v", err)
	}

	got, day, err := repo.GetRecord(ctx, rec.Date)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if !got.Slots[0].IsEmpty() {
		t.Errorf("slot 0 = %+v, want empty", got.Slots[0])
	}
	if len(got.WindsPreSunrise) != 0 || got.Rainfall != nil {
		t.Errorf("pre-sunrise winds = %v rainfall = %v", got.WindsPreSunrise, got.Rainfall)
	}
	if day != nil {
		t.Errorf("day length = %+v, want nil", day)
	}
}

func TestGetRecord_NotFound(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	_, _, err := repo.GetRecord(context.Background(), "2014-01-01")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetRecord err = %v, want ErrNotFound", err)
	}
}

func TestListDates(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()
	for _, d := range []string{"2014-03-25", "2014-03-23", "2014-03-24"} {
		if err := repo.SaveRecord(ctx, *types.NewDailyRecord(d), nil); err != nil {
			t.Fatalf("SaveRecord %s: %v", d, err)
		}
	}

	tests := []struct {
		name string
		f    DateFilter
		want []string
	}{
		{name: "all", want: []string{"2014-03-23", "2014-03-24", "2014-03-25"}},
		{name: "from", f: DateFilter{From: "2014-03-24"}, want: []string{"2014-03-24", "2014-03-25"}},
		{name: "to", f: DateFilter{To: "2014-03-23"}, want: []string{"2014-03-23"}},
		{name: "page", f: DateFilter{Limit: 1, Offset: 1}, want: []string{"2014-03-24"}},
		{name: "empty range", f: DateFilter{From: "2015-01-01"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListDates(ctx, tt.f)
			if err != nil {
				t.Fatalf("ListDates: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ListDates = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMorningWindow_RoundTrip(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()
	if err := repo.SaveRecord(ctx, sampleRecord(), nil); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	w := types.MorningWindow{
		Date: "2014-03-24", StartHour: 4, StartMinute: 10,
		Temperature: types.Float64(0.125),
		Pressure:    types.Float64(1000),
		Winds:       []types.WindObservation{{Speed: 7, Direction: types.North}},
	}
	if err := repo.SaveMorningWindow(ctx, w); err != nil {
		t.Fatalf("SaveMorningWindow: %v", err)
	}
	got, err := repo.GetMorningWindow(ctx, w.Date)
	if err != nil {
		t.Fatalf("GetMorningWindow: %v", err)
	}
	if !reflect.DeepEqual(got, w) {
		t.Errorf("GetMorningWindow = %+v, want %+v", got, w)
	}

	w.Winds = nil
	w.Temperature = nil
	if err := repo.SaveMorningWindow(ctx, w); err != nil {
		t.Fatalf("SaveMorningWindow (overwrite): %v", err)
	}
	got, err = repo.GetMorningWindow(ctx, w.Date)
	if err != nil {
		t.Fatalf("GetMorningWindow: %v", err)
	}
	if got.Temperature != nil || got.Winds == nil || len(got.Winds) != 0 {
		t.Errorf("overwritten window = %+v", got)
	}

	if _, err := repo.GetMorningWindow(ctx, "2014-03-25"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMorningWindow(missing) err = %v, want ErrNotFound", err)
	}
}

func TestWinds_FirstSeenOrder(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()
	n7 := types.WindObservation{Speed: 7, Direction: types.North}
	e3 := types.WindObservation{Speed: 3, Direction: types.East}
	sw1 := types.WindObservation{Speed: 1, Direction: types.SouthWest}

	if err := repo.SaveWinds(ctx, []types.WindObservation{n7, e3}); err != nil {
		t.Fatalf("SaveWinds: %v", err)
	}
	if err := repo.SaveWinds(ctx, []types.WindObservation{e3, sw1, n7}); err != nil {
		t.Fatalf("SaveWinds: %v", err)
	}
	got, err := repo.GetWinds(ctx)
	if err != nil {
		t.Fatalf("GetWinds: %v", err)
	}
	want := []types.WindObservation{n7, e3, sw1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetWinds = %v, want %v", got, want)
	}
}

func TestImportRuns(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db).(*repositoryImpl)
	ctx := context.Background()

	clock := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	first, err := repo.StartImport(ctx, "csv")
	if err != nil {
		t.Fatalf("StartImport: %v", err)
	}
	if first.ID == "" || !first.StartedAt.Equal(clock) {
		t.Fatalf("run = %+v", first)
	}

	clock = clock.Add(time.Minute)
	first.Readings, first.RainfallDays, first.Days = 10, 2, 3
	if err := repo.FinishImport(ctx, first); err != nil {
		t.Fatalf("FinishImport: %v", err)
	}

	second, err := repo.StartImport(ctx, "csv")
	if err != nil {
		t.Fatalf("StartImport: %v", err)
	}
	second.Error = "open observations: no such file"
	if err := repo.FinishImport(ctx, second); err != nil {
		t.Fatalf("FinishImport: %v", err)
	}

	runs, err := repo.ListImports(ctx, 10)
	if err != nil {
		t.Fatalf("ListImports: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListImports len = %d, want 2", len(runs))
	}
	if runs[0].ID != second.ID || runs[0].Error == "" {
		t.Errorf("latest run = %+v, want %s with error", runs[0], second.ID)
	}
	if runs[1].Readings != 10 || runs[1].Days != 3 || runs[1].FinishedAt == nil || !runs[1].FinishedAt.Equal(clock) {
		t.Errorf("first run = %+v", runs[1])
	}

	if err := repo.FinishImport(ctx, types.ImportRun{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("FinishImport(missing) err = %v, want ErrNotFound", err)
	}
}
