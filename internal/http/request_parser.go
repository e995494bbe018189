package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

const (
	// HeaderUserID selects the acting user until real authentication exists.
	HeaderUserID = "X-User-ID"

	defaultSeriesWindow = 6
	maxBodyBytes        = 1 << 20
)

// requestError marks input the server could not parse; it renders as 400.
type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *requestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// UserIDFromRequest returns the trimmed X-User-ID header or fallback.
func UserIDFromRequest(r *http.Request, fallback string) string {
	if id := strings.TrimSpace(r.Header.Get(HeaderUserID)); id != "" {
		return id
	}
	return fallback
}

// ParseMonthParams reads year and month, defaulting each to now. Values that
// are not integers are a 400; out-of-range months are ErrInvalidPeriod.
func ParseMonthParams(query url.Values, now time.Time) (core.Period, error) {
	year, err := intParam(query, "year", now.Year())
	if err != nil {
		return core.Period{}, err
	}
	month, err := intParam(query, "month", int(now.Month()))
	if err != nil {
		return core.Period{}, err
	}
	p := core.Period{Year: year, Month: time.Month(month)}
	if err := p.Validate(); err != nil {
		return core.Period{}, err
	}
	return p, nil
}

// ParseWindow reads the series window, defaulting to six months.
func ParseWindow(query url.Values) (int, error) {
	return intParam(query, "window", defaultSeriesWindow)
}

// ParseTransactionQuery reads the list filters of GET /api/transactions.
func ParseTransactionQuery(query url.Values) (services.TransactionQuery, error) {
	var q services.TransactionQuery

	if v := strings.TrimSpace(query.Get("type")); v != "" {
		typ, err := core.ParseTransactionType(v)
		if err != nil {
			return q, &requestError{msg: "invalid type filter", err: err}
		}
		q.Filter.Type = typ
	}
	q.Filter.CategoryID = strings.TrimSpace(query.Get("category"))

	var err error
	if q.Filter.From, err = dateParam(query, "from"); err != nil {
		return q, err
	}
	if q.Filter.To, err = dateParam(query, "to"); err != nil {
		return q, err
	}
	if !q.Filter.From.IsZero() && !q.Filter.To.IsZero() && q.Filter.To.Before(q.Filter.From.Time) {
		return q, badRequest("to must not be before from")
	}

	q.Search = strings.TrimSpace(query.Get("q"))
	if q.Limit, err = intParam(query, "limit", 0); err != nil {
		return q, err
	}
	if q.Limit < 0 {
		return q, badRequest("limit must not be negative")
	}
	return q, nil
}

func intParam(query url.Values, name string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("%s must be an integer", name)
	}
	return n, nil
}

func dateParam(query url.Values, name string) (core.Date, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, &requestError{msg: name + " must be YYYY-MM-DD", err: err}
	}
	return d, nil
}

// decodeJSON reads exactly one JSON value of at most maxBodyBytes into dst,
// rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return badRequest("request body too large")
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		default:
			return &requestError{msg: "malformed JSON body", err: err}
		}
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// sanitizeInput trims s and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
