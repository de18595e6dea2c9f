package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/radieske/bet-tracker/internal/archiver/repository"
)

type fakeReports struct {
	since time.Time
	rows  []repository.MonthRow
}

func (f *fakeReports) MonthlyProfit(_ context.Context, since time.Time) ([]repository.MonthRow, error) {
	f.since = since
	return f.rows, nil
}

func TestMonthlyReport(t *testing.T) {
	rep := &fakeReports{rows: []repository.MonthRow{{Month: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Settled: 4, Profit: 2.5}}}
	api := &API{Reports: rep, Now: func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }}

	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports/monthly", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !rep.since.Equal(time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("default since = %v", rep.since)
	}
	var rows []repository.MonthRow
	_ = json.NewDecoder(rec.Body).Decode(&rows)
	if len(rows) != 1 || rows[0].Profit != 2.5 {
		t.Fatalf("rows = %+v", rows)
	}

	rec = httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports/monthly?since=2024-01", nil))
	if !rep.since.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("since = %v", rep.since)
	}

	rec = httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports/monthly?since=march", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
