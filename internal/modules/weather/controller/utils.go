package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"weatherday/internal/modules/weather/repository"
)

const (
	dateLayout          = "2006-01-02"
	defaultDaysLimit    = 100
	defaultImportsLimit = 20
	maxLimit            = 1000
)

func parseDate(s string) (string, error) {
	if s == "" {
		return "", errors.New("missing date")
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", errors.New("invalid date (expected YYYY-MM-DD)")
	}
	return s, nil
}

func parseDaysQuery(r *http.Request) (repository.DateFilter, error) {
	q := r.URL.Query()
	var f repository.DateFilter

	if s := q.Get("from"); s != "" {
		if _, err := time.Parse(dateLayout, s); err != nil {
			return repository.DateFilter{}, errors.New("invalid 'from' (expected YYYY-MM-DD)")
		}
		f.From = s
	}
	if s := q.Get("to"); s != "" {
		if _, err := time.Parse(dateLayout, s); err != nil {
			return repository.DateFilter{}, errors.New("invalid 'to' (expected YYYY-MM-DD)")
		}
		f.To = s
	}
	// ISO dates order lexically.
	if f.From != "" && f.To != "" && f.From > f.To {
		return repository.DateFilter{}, errors.New("'from' must be <= 'to'")
	}

	limit, err := parseLimit(r, defaultDaysLimit)
	if err != nil {
		return repository.DateFilter{}, err
	}
	f.Limit = limit

	if s := q.Get("offset"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil {
			return repository.DateFilter{}, errors.New("invalid 'offset' (expected integer)")
		}
		if n < 0 {
			return repository.DateFilter{}, errors.New("'offset' must be >= 0")
		}
		f.Offset = n
	}
	return f, nil
}

func parseLimit(r *http.Request, def int) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid 'limit' (expected integer)")
	}
	if n <= 0 {
		return 0, errors.New("'limit' must be > 0")
	}
	if n > maxLimit {
		return 0, errors.New("'limit' must be <= 1000")
	}
	return n, nil
}

// parseWindowQuery reads hour (required) and minute (default 0). Range
// checks are left to the window package.
func parseWindowQuery(r *http.Request) (hour, minute int, err error) {
	q := r.URL.Query()
	s := q.Get("hour")
	if s == "" {
		return 0, 0, errors.New("missing 'hour'")
	}
	hour, err = strconv.Atoi(s)
	if err != nil {
		return 0, 0, errors.New("invalid 'hour' (expected integer)")
	}
	if s := q.Get("minute"); s != "" {
		minute, err = strconv.Atoi(s)
		if err != nil {
			return 0, 0, errors.New("invalid 'minute' (expected integer)")
		}
	}
	return hour, minute, nil
}
