package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"weatherday/internal/modules/weather/types"
)

//go:embed sql/upsert-record.sql
var upsertRecordSQL string

//go:embed sql/get-record.sql
var getRecordSQL string

//go:embed sql/list-dates.sql
var listDatesSQL string

//go:embed sql/delete-slots.sql
var deleteSlotsSQL string

//go:embed sql/insert-slot.sql
var insertSlotSQL string

//go:embed sql/get-slots.sql
var getSlotsSQL string

//go:embed sql/delete-period-winds.sql
var deletePeriodWindsSQL string

//go:embed sql/insert-period-wind.sql
var insertPeriodWindSQL string

//go:embed sql/get-period-winds.sql
var getPeriodWindsSQL string

//go:embed sql/upsert-morning-window.sql
var upsertMorningWindowSQL string

//go:embed sql/get-morning-window.sql
var getMorningWindowSQL string

//go:embed sql/upsert-wind.sql
var upsertWindSQL string

//go:embed sql/get-winds.sql
var getWindsSQL string

//go:embed sql/insert-import-run.sql
var insertImportRunSQL string

//go:embed sql/finish-import-run.sql
var finishImportRunSQL string

//go:embed sql/list-import-runs.sql
var listImportRunsSQL string

var ErrNotFound = errors.New("not found")

// Fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DateFilter bounds ListDates. Empty From/To are open ends.
type DateFilter struct {
	From   string
	To     string
	Limit  int
	Offset int
}

type WeatherRepository interface {
	SaveRecord(ctx context.Context, rec types.DailyRecord, day *types.DayLength) error
	GetRecord(ctx context.Context, date string) (types.DailyRecord, *types.DayLength, error)
	ListDates(ctx context.Context, f DateFilter) ([]string, error)

	SaveMorningWindow(ctx context.Context, w types.MorningWindow) error
	GetMorningWindow(ctx context.Context, date string) (types.MorningWindow, error)

	SaveWinds(ctx context.Context, ws []types.WindObservation) error
	GetWinds(ctx context.Context) ([]types.WindObservation, error)

	StartImport(ctx context.Context, source string) (types.ImportRun, error)
	FinishImport(ctx context.Context, run types.ImportRun) error
	ListImports(ctx context.Context, limit int) ([]types.ImportRun, error)
}

type repositoryImpl struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) WeatherRepository {
	return &repositoryImpl{db: db, now: time.Now}
}

// SaveRecord replaces the stored copy of rec, its slots and period winds.
// day is nil when sunrise and sunset are unknown for the date.
func (r *repositoryImpl) SaveRecord(ctx context.Context, rec types.DailyRecord, day *types.DayLength) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var sunriseH, sunriseM, sunsetH, sunsetM any
	if day != nil {
		sunriseH, sunriseM, sunsetH, sunsetM = day.SunriseHour, day.SunriseMinute, day.SunsetHour, day.SunsetMinute
	}
	if _, err := tx.ExecContext(ctx, upsertRecordSQL,
		rec.Date,
		rec.TemperatureDaySum, rec.TemperatureDayCount,
		rec.PressureSum, rec.PressureCount,
		rec.HumiditySum, rec.HumidityCount,
		rec.CloudCoverSum, rec.CloudCoverCount,
		nullable(rec.Rainfall),
		sunriseH, sunriseM, sunsetH, sunsetM,
	); err != nil {
		return fmt.Errorf("upsert record %s: %w", rec.Date, err)
	}

	if _, err := tx.ExecContext(ctx, deleteSlotsSQL, rec.Date); err != nil {
		return fmt.Errorf("delete slots %s: %w", rec.Date, err)
	}
	for i, s := range rec.Slots {
		if s.IsEmpty() {
			continue
		}
		dir, speed := windColumns(s.Wind)
		if _, err := tx.ExecContext(ctx, insertSlotSQL,
			rec.Date, i,
			nullable(s.Temperature), nullable(s.Pressure),
			nullable(s.CloudCover), nullable(s.Humidity),
			dir, speed,
		); err != nil {
			return fmt.Errorf("insert slot %s/%d: %w", rec.Date, i, err)
		}
	}

	if _, err := tx.ExecContext(ctx, deletePeriodWindsSQL, rec.Date); err != nil {
		return fmt.Errorf("delete period winds %s: %w", rec.Date, err)
	}
	for _, p := range []types.Period{types.PreSunrise, types.Day, types.PostSunset} {
		for pos, w := range rec.Winds(p) {
			dir, speed := windColumns(w)
			if _, err := tx.ExecContext(ctx, insertPeriodWindSQL, rec.Date, p.String(), pos, dir, speed); err != nil {
				return fmt.Errorf("insert %s wind %s/%d: %w", p, rec.Date, pos, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record %s: %w", rec.Date, err)
	}
	return nil
}

func (r *repositoryImpl) GetRecord(ctx context.Context, date string) (types.DailyRecord, *types.DayLength, error) {
	rec := types.NewDailyRecord(date)
	var (
		rainfall                             sql.NullFloat64
		sunriseH, sunriseM, sunsetH, sunsetM sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, getRecordSQL, date).Scan(
		&rec.Date,
		&rec.TemperatureDaySum, &rec.TemperatureDayCount,
		&rec.PressureSum, &rec.PressureCount,
		&rec.HumiditySum, &rec.HumidityCount,
		&rec.CloudCoverSum, &rec.CloudCoverCount,
		&rainfall,
		&sunriseH, &sunriseM, &sunsetH, &sunsetM,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return types.DailyRecord{}, nil, fmt.Errorf("record %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return types.DailyRecord{}, nil, fmt.Errorf("get record %s: %w", date, err)
	}
	if rainfall.Valid {
		rec.Rainfall = types.Float64(rainfall.Float64)
	}

	if err := r.loadSlots(ctx, rec); err != nil {
		return types.DailyRecord{}, nil, err
	}
	if err := r.loadPeriodWinds(ctx, rec); err != nil {
		return types.DailyRecord{}, nil, err
	}

	var day *types.DayLength
	if sunriseH.Valid && sunriseM.Valid && sunsetH.Valid && sunsetM.Valid {
		day = &types.DayLength{
			SunriseHour:   int(sunriseH.Int64),
			SunriseMinute: int(sunriseM.Int64),
			SunsetHour:    int(sunsetH.Int64),
			SunsetMinute:  int(sunsetM.Int64),
		}
	}
	return *rec, day, nil
}

func (r *repositoryImpl) loadSlots(ctx context.Context, rec *types.DailyRecord) error {
	rows, err := r.db.QueryContext(ctx, getSlotsSQL, rec.Date)
	if err != nil {
		return fmt.Errorf("get slots %s: %w", rec.Date, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close slot rows", "error", err)
		}
	}()
	for rows.Next() {
		var (
			slot         int
			temp, pres   sql.NullFloat64
			cloud, humid sql.NullInt64
			dir          sql.NullString
			speed        sql.NullInt64
		)
		if err := rows.Scan(&slot, &temp, &pres, &cloud, &humid, &dir, &speed); err != nil {
			return err
		}
		if slot < 0 || slot >= types.SlotCount {
			return fmt.Errorf("slot %d out of range for %s", slot, rec.Date)
		}
		rec.Slots[slot] = types.ConcurrentObservation{
			Temperature: floatPtr(temp),
			Pressure:    floatPtr(pres),
			CloudCover:  intPtr(cloud),
			Humidity:    intPtr(humid),
			Wind:        windFromColumns(dir, speed),
		}
	}
	return rows.Err()
}

func (r *repositoryImpl) loadPeriodWinds(ctx context.Context, rec *types.DailyRecord) error {
	rows, err := r.db.QueryContext(ctx, getPeriodWindsSQL, rec.Date)
	if err != nil {
		return fmt.Errorf("get period winds %s: %w", rec.Date, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close period wind rows", "error", err)
		}
	}()
	for rows.Next() {
		var (
			period string
			dir    sql.NullString
			speed  sql.NullInt64
		)
		if err := rows.Scan(&period, &dir, &speed); err != nil {
			return err
		}
		w := windFromColumns(dir, speed)
		switch period {
		case types.PreSunrise.String():
			rec.WindsPreSunrise = append(rec.WindsPreSunrise, w)
		case types.Day.String():
			rec.WindsDay = append(rec.WindsDay, w)
		case types.PostSunset.String():
			rec.WindsPostSunset = append(rec.WindsPostSunset, w)
		default:
			return fmt.Errorf("unknown period %q for %s", period, rec.Date)
		}
	}
	return rows.Err()
}

func (r *repositoryImpl) ListDates(ctx context.Context, f DateFilter) ([]string, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, listDatesSQL, f.From, f.From, f.To, f.To, limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list dates: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close date rows", "error", err)
		}
	}()
	out := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) SaveMorningWindow(ctx context.Context, w types.MorningWindow) error {
	winds := w.Winds
	if winds == nil {
		winds = []types.WindObservation{}
	}
	encoded, err := json.Marshal(winds)
	if err != nil {
		return fmt.Errorf("encode winds: %w", err)
	}
	_, err = r.db.ExecContext(ctx, upsertMorningWindowSQL,
		w.Date, w.StartHour, w.StartMinute,
		nullable(w.Temperature), nullable(w.Pressure), nullable(w.CloudCover), nullable(w.Humidity),
		string(encoded),
	)
	if err != nil {
		return fmt.Errorf("upsert morning window %s: %w", w.Date, err)
	}
	return nil
}

func (r *repositoryImpl) GetMorningWindow(ctx context.Context, date string) (types.MorningWindow, error) {
	var (
		w                        types.MorningWindow
		temp, pres, cloud, humid sql.NullFloat64
		winds                    string
	)
	err := r.db.QueryRowContext(ctx, getMorningWindowSQL, date).Scan(
		&w.Date, &w.StartHour, &w.StartMinute, &temp, &pres, &cloud, &humid, &winds,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return types.MorningWindow{}, fmt.Errorf("morning window %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return types.MorningWindow{}, fmt.Errorf("get morning window %s: %w", date, err)
	}
	w.Temperature = floatPtr(temp)
	w.Pressure = floatPtr(pres)
	w.CloudCover = floatPtr(cloud)
	w.Humidity = floatPtr(humid)
	if err := json.Unmarshal([]byte(winds), &w.Winds); err != nil {
		return types.MorningWindow{}, fmt.Errorf("decode winds %s: %w", date, err)
	}
	return w, nil
}

// SaveWinds adds the observations not stored yet, keeping first-seen order.
func (r *repositoryImpl) SaveWinds(ctx context.Context, ws []types.WindObservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save winds: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, w := range ws {
		if _, err := tx.ExecContext(ctx, upsertWindSQL, string(w.Direction), w.Speed); err != nil {
			return fmt.Errorf("upsert wind %s: %w", w, err)
		}
	}
	return tx.Commit()
}

func (r *repositoryImpl) GetWinds(ctx context.Context) ([]types.WindObservation, error) {
	rows, err := r.db.QueryContext(ctx, getWindsSQL)
	if err != nil {
		return nil, fmt.Errorf("get winds: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close wind rows", "error", err)
		}
	}()
	out := []types.WindObservation{}
	for rows.Next() {
		var (
			dir   string
			speed int
		)
		if err := rows.Scan(&dir, &speed); err != nil {
			return nil, err
		}
		out = append(out, types.WindObservation{Speed: speed, Direction: types.WindDirection(dir)})
	}
	return out, rows.Err()
}

func (r *repositoryImpl) StartImport(ctx context.Context, source string) (types.ImportRun, error) {
	run := types.ImportRun{
		ID:        uuid.NewString(),
		Source:    source,
		StartedAt: r.now().UTC(),
	}
	if _, err := r.db.ExecContext(ctx, insertImportRunSQL, run.ID, run.Source, run.StartedAt.Format(timeLayout)); err != nil {
		return types.ImportRun{}, fmt.Errorf("insert import run: %w", err)
	}
	return run, nil
}

// FinishImport stamps run as finished now and stores its counters.
func (r *repositoryImpl) FinishImport(ctx context.Context, run types.ImportRun) error {
	finished := r.now().UTC()
	var errText any
	if run.Error != "" {
		errText = run.Error
	}
	res, err := r.db.ExecContext(ctx, finishImportRunSQL,
		finished.Format(timeLayout), run.Readings, run.RainfallDays, run.Days, errText, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish import run %s: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("import run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

func (r *repositoryImpl) ListImports(ctx context.Context, limit int) ([]types.ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, listImportRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close import run rows", "error", err)
		}
	}()
	out := []types.ImportRun{}
	for rows.Next() {
		var (
			run      types.ImportRun
			started  string
			finished sql.NullString
			errText  sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Source, &started, &finished, &run.Readings, &run.RainfallDays, &run.Days, &errText); err != nil {
			return nil, err
		}
		if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", started, err)
		}
		if finished.Valid {
			t, err := time.Parse(timeLayout, finished.String)
			if err != nil {
				return nil, fmt.Errorf("parse finished_at %q: %w", finished.String, err)
			}
			run.FinishedAt = &t
		}
		run.Error = errText.String
		out = append(out, run)
	}
	return out, rows.Err()
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func windColumns(w *types.WindObservation) (any, any) {
	if w == nil {
		return nil, nil
	}
	return string(w.Direction), w.Speed
}

func windFromColumns(dir sql.NullString, speed sql.NullInt64) *types.WindObservation {
	if !dir.Valid || !speed.Valid {
		return nil
	}
	return &types.WindObservation{Speed: int(speed.Int64), Direction: types.WindDirection(dir.String)}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return types.Float64(v.Float64)
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return types.Int(int(v.Int64))
}
