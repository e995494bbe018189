package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		query   url.Values
		want    core.Period
		wantErr int
	}{
		{"defaults to now", url.Values{}, core.NewPeriod(2025, time.March), 0},
		{"explicit", url.Values{"year": {"2024"}, "month": {"12"}}, core.NewPeriod(2024, time.December), 0},
		{"month only", url.Values{"month": {" 1 "}}, core.NewPeriod(2025, time.January), 0},
		{"not a number", url.Values{"month": {"jan"}}, core.Period{}, http.StatusBadRequest},
		{"out of range", url.Values{"month": {"13"}}, core.Period{}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthParams(tt.query, now)
			if tt.wantErr != 0 {
				if err == nil || StatusForError(err) != tt.wantErr {
					t.Fatalf("err = %v (status %d), want status %d", err, StatusForError(err), tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("got %v, %v; want %v", got, err, tt.want)
			}
		})
	}
}

func TestParseWindow(t *testing.T) {
	if w, err := ParseWindow(url.Values{}); err != nil || w != 6 {
		t.Fatalf("default window = %d, %v", w, err)
	}
	if w, err := ParseWindow(url.Values{"window": {"12"}}); err != nil || w != 12 {
		t.Fatalf("window = %d, %v", w, err)
	}
	if _, err := ParseWindow(url.Values{"window": {"x"}}); StatusForError(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-integer window, got %v", err)
	}
}

func TestParseTransactionQuery(t *testing.T) {
	q, err := ParseTransactionQuery(url.Values{
		"type":     {"Expense"},
		"category": {"3"},
		"from":     {"2025-01-01"},
		"to":       {"2025-01-31"},
		"q":        {" rent "},
		"limit":    {"5"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Filter.Type != core.Expense || q.Filter.CategoryID != "3" || q.Search != "rent" || q.Limit != 5 {
		t.Fatalf("unexpected query: %+v", q)
	}
	if q.Filter.From != core.NewDate(2025, time.January, 1) || q.Filter.To != core.NewDate(2025, time.January, 31) {
		t.Fatalf("unexpected range: %+v", q.Filter)
	}

	bad := []url.Values{
		{"type": {"transfer"}},
		{"from": {"01/02/2025"}},
		{"from": {"2025-02-01"}, "to": {"2025-01-01"}},
		{"limit": {"-1"}},
	}
	for _, v := range bad {
		if _, err := ParseTransactionQuery(v); StatusForError(err) != http.StatusBadRequest {
			t.Errorf("%v: expected 400, got %v", v, err)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid", `{"name":"x"}`, false},
		{"empty", ``, true},
		{"unknown field", `{"name":"x","extra":1}`, true},
		{"two objects", `{"name":"x"}{"name":"y"}`, true},
		{"too large", `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.payload))
			var dst body
			err := decodeJSON(httptest.NewRecorder(), r, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			var reqErr *requestError
			if err != nil && !errors.As(err, &reqErr) {
				t.Fatalf("decode errors must be request errors, got %T", err)
			}
		})
	}
}

func TestUserIDFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := UserIDFromRequest(r, "1"); got != "1" {
		t.Fatalf("fallback = %q", got)
	}
	r.Header.Set(HeaderUserID, " 42 ")
	if got := UserIDFromRequest(r, "1"); got != "42" {
		t.Fatalf("header = %q", got)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Lunch\x00 at\tcafe \x07"); got != "Lunch at\tcafe" {
		t.Fatalf("sanitizeInput = %q", got)
	}
}
