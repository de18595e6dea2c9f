package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/bet-tracker/internal/analyst"
	"github.com/radieske/bet-tracker/internal/ledger"
	"github.com/radieske/bet-tracker/internal/tracker"
)

func (a *API) listBets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Tracker.List())
}

func (a *API) trackBet(w http.ResponseWriter, r *http.Request) {
	var in tracker.Input
	if err := decode(r, &in); err != nil {
		a.writeError(w, err)
		return
	}
	rec, err := a.Tracker.Track(r.Context(), in)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) importAcca(w http.ResponseWriter, r *http.Request) {
	var acc analyst.Accumulator
	if err := decode(r, &acc); err != nil {
		a.writeError(w, err)
		return
	}
	recs, err := a.Tracker.ImportAccumulator(r.Context(), acc)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recs)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (a *API) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	rec, err := a.Tracker.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) verifyBet(w http.ResponseWriter, r *http.Request) {
	res, err := a.Tracker.AutoVerify(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) verifyPending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Tracker.CheckAllPending(r.Context()))
}

func (a *API) deleteBet(w http.ResponseWriter, r *http.Request) {
	if err := a.Tracker.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Tracker.Stats())
}

func (a *API) dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Tracker.Dashboard())
}

// dateParam lê ?date=YYYY-MM-DD; vazio => hoje no fuso do tracker.
func (a *API) dateParam(r *http.Request) (string, error) {
	d := r.URL.Query().Get("date")
	if d == "" {
		loc := a.Tracker.Loc
		if loc == nil {
			loc = time.UTC
		}
		return a.Tracker.Now().In(loc).Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", d); err != nil {
		return "", &ledger.ValidationError{Err: errors.New("date must be YYYY-MM-DD")}
	}
	return d, nil
}

func (a *API) dailyFixtures(w http.ResponseWriter, r *http.Request) {
	date, err := a.dateParam(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	res, err := a.Analyst.DailyFixtures(r.Context(), date)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) liveFixtures(w http.ResponseWriter, r *http.Request) {
	res, err := a.Analyst.LiveFixtures(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type analysisRequest struct {
	HomeTeam string `json:"homeTeam"`
	AwayTeam string `json:"awayTeam"`
	League   string `json:"league"`
	Detailed bool   `json:"detailed"`
}

type quickAnalysis struct {
	Analysis string `json:"analysis"`
}

func (a *API) analysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	if req.HomeTeam == "" || req.AwayTeam == "" {
		a.writeError(w, &ledger.ValidationError{Err: tracker.ErrMissingTeam})
		return
	}
	if !req.Detailed {
		text, err := a.Analyst.QuickAnalysis(r.Context(), req.HomeTeam, req.AwayTeam, req.League)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, quickAnalysis{Analysis: text})
		return
	}
	res, err := a.Analyst.DetailedAnalysis(r.Context(), req.HomeTeam, req.AwayTeam, req.League)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if res == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) liveAnalysis(w http.ResponseWriter, r *http.Request) {
	var f analyst.Fixture
	if err := decode(r, &f); err != nil {
		a.writeError(w, err)
		return
	}
	res, err := a.Analyst.LiveAnalysis(r.Context(), f)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if res == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) betOfTheDay(w http.ResponseWriter, r *http.Request) {
	date, err := a.dateParam(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	acc, err := a.Analyst.BetOfTheDay(r.Context(), date)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if acc == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}
