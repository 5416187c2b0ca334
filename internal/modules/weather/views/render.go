package views

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strconv"

	"weatherday/internal/modules/weather/summary"
	"weatherday/internal/modules/weather/types"
)

//go:embed templates
var viewsFS embed.FS

var pagesTmpl *template.Template

var errNotLoaded = errors.New("templates not loaded: call views.LoadTemplates during startup")

var funcs = template.FuncMap{
	"num":  formatFloat,
	"inum": formatInt,
}

// loadTemplatesFromFS parses the page and partial templates under dir.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	t, err := template.New("pages").Funcs(funcs).ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	pagesTmpl = t
	return nil
}

// LoadTemplates parses the embedded templates. The server must not start
// when it fails.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

type DaysData struct {
	Days []summary.Summary
}

func RenderDays(w io.Writer, data *DaysData) error {
	if pagesTmpl == nil {
		return errNotLoaded
	}
	return pagesTmpl.ExecuteTemplate(w, "days.html", data)
}

// SlotRow is one 3-hour observation instant of the day page.
type SlotRow struct {
	Time string
	Obs  types.ConcurrentObservation
}

type DayData struct {
	Summary summary.Summary
	Morning *types.MorningWindow
	Slots   []SlotRow
}

// NewDayData lays out the eight slots of rec for the day page.
func NewDayData(sum summary.Summary, rec types.DailyRecord, morning *types.MorningWindow) *DayData {
	d := &DayData{Summary: sum, Morning: morning, Slots: make([]SlotRow, 0, types.SlotCount)}
	for i, obs := range rec.Slots {
		d.Slots = append(d.Slots, SlotRow{Time: fmt.Sprintf("%02d:00", i*3), Obs: obs})
	}
	return d
}

func RenderDay(w io.Writer, data *DayData) error {
	if pagesTmpl == nil {
		return errNotLoaded
	}
	return pagesTmpl.ExecuteTemplate(w, "day.html", data)
}

func formatFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
