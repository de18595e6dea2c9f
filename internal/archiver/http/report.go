package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/bet-tracker/internal/archiver/repository"
)

// Reports lê o histórico agregado.
type Reports interface {
	MonthlyProfit(ctx context.Context, since time.Time) ([]repository.MonthRow, error)
}

// API expõe os relatórios do histórico de liquidações.
type API struct {
	Reports Reports
	Now     func() time.Time
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/reports/monthly", a.monthly) // ?since=YYYY-MM (padrão: últimos 12 meses)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) monthly(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	since := now().UTC().AddDate(-1, 0, 0)
	if s := r.URL.Query().Get("since"); s != "" {
		t, err := time.Parse("2006-01", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "since must be YYYY-MM"})
			return
		}
		since = t
	}

	rows, err := a.Reports.MonthlyProfit(r.Context(), since)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = []repository.MonthRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}
