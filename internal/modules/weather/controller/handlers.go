package controller

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"weatherday/internal/modules/weather/repository"
	"weatherday/internal/modules/weather/service"
	"weatherday/internal/modules/weather/views"
	"weatherday/internal/modules/weather/window"
	"weatherday/internal/utils"
)

func (c *weatherControllerImpl) handleDaysPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	f, err := parseDaysQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	days, err := c.service.ListDays(r.Context(), f)
	if err != nil {
		c.logger.Error("days page: list days failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load days")
		return
	}
	err = utils.WriteHTML(w, func(out io.Writer) error {
		return views.RenderDays(out, &views.DaysData{Days: days})
	})
	if err != nil {
		c.logger.Error("days template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
	}
}

func (c *weatherControllerImpl) handleDayPage(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.PathValue("date"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, ok := c.getDay(w, r, date)
	if !ok {
		return
	}
	err = utils.WriteHTML(w, func(out io.Writer) error {
		return views.RenderDay(out, views.NewDayData(day.Summary, day.Record, day.Morning))
	})
	if err != nil {
		c.logger.Error("day template render failed", "date", date, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
	}
}

func (c *weatherControllerImpl) handleDays(w http.ResponseWriter, r *http.Request) {
	f, err := parseDaysQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	days, err := c.service.ListDays(r.Context(), f)
	if err != nil {
		c.logger.Error("list days failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, days)
}

func (c *weatherControllerImpl) handleDay(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.PathValue("date"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, ok := c.getDay(w, r, date)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, day)
}

// getDay writes the error response itself and reports whether day is usable.
func (c *weatherControllerImpl) getDay(w http.ResponseWriter, r *http.Request, date string) (service.Day, bool) {
	day, err := c.service.GetDay(r.Context(), date)
	if errors.Is(err, repository.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, "no record for "+date)
		return service.Day{}, false
	}
	if err != nil {
		c.logger.Error("get day failed", "date", date, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return service.Day{}, false
	}
	return day, true
}

func (c *weatherControllerImpl) handleWindow(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.PathValue("date"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	hour, minute, err := parseWindowQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	mw, err := c.service.ComputeWindow(r.Context(), date, hour, minute)
	switch {
	case errors.Is(err, window.ErrInvalidStart):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "no record for "+date)
	case err != nil:
		c.logger.Error("compute window failed", "date", date, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
	default:
		utils.WriteJSON(w, http.StatusOK, mw)
	}
}

func (c *weatherControllerImpl) handleWinds(w http.ResponseWriter, r *http.Request) {
	winds, err := c.service.Winds(r.Context())
	if err != nil {
		c.logger.Error("list winds failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	type windItem struct {
		Key       string `json:"key"`
		Speed     int    `json:"speed"`
		Direction string `json:"direction"`
	}
	out := make([]windItem, 0, len(winds))
	for _, wo := range winds {
		out = append(out, windItem{Key: wo.Key(), Speed: wo.Speed, Direction: string(wo.Direction)})
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (c *weatherControllerImpl) handleImports(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, defaultImportsLimit)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	runs, err := c.service.Imports(r.Context(), limit)
	if err != nil {
		c.logger.Error("list imports failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, runs)
}

func (c *weatherControllerImpl) handleImport(w http.ResponseWriter, r *http.Request) {
	if !c.importLimiter.Allow() {
		w.Header().Set("Retry-After", strconv.Itoa(int(importInterval.Seconds())))
		utils.WriteError(w, http.StatusTooManyRequests, "import requested too recently")
		return
	}
	run, err := c.service.ImportFiles(r.Context())
	if errors.Is(err, service.ErrNoSources) {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		if run.ID == "" {
			utils.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, run)
		return
	}
	utils.WriteJSON(w, http.StatusOK, run)
}
