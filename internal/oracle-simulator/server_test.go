package oraclesim

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/radieske/bet-tracker/internal/ledger"
	"github.com/radieske/bet-tracker/internal/oracle"
	"github.com/radieske/bet-tracker/internal/oracle-simulator/dto"
)

func newServer() *Server {
	s := New(nil)
	s.Now = func() time.Time { return time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC) }
	return s
}

func TestResult(t *testing.T) {
	s := newServer()
	past := dto.VerifyReq{HomeTeam: "Arsenal", AwayTeam: "Chelsea", MatchDate: "2024-03-01", Market: "Home Win"}

	first := s.Result(past)
	if first.Status == dto.StatusPending {
		t.Fatalf("past match should be final, got %+v", first)
	}
	if again := s.Result(past); again != first {
		t.Fatalf("result not stable: %+v vs %+v", first, again)
	}

	future := s.Result(dto.VerifyReq{HomeTeam: "Arsenal", AwayTeam: "Chelsea", MatchDate: "2024-03-20"})
	if future.Status != dto.StatusPending || future.Score != "0-0" {
		t.Fatalf("future = %+v", future)
	}
	live := s.Result(dto.VerifyReq{HomeTeam: "Arsenal", AwayTeam: "Chelsea", MatchDate: "2024-03-10"})
	if live.Status != dto.StatusPending {
		t.Fatalf("today = %+v", live)
	}
}

func TestMarketWins(t *testing.T) {
	tests := []struct {
		market     string
		home, away int
		want       bool
	}{
		{"Home Win", 2, 1, true},
		{"Match Winner", 0, 1, false},
		{"Away Win", 0, 1, true},
		{"Draw", 1, 1, true},
		{"Over 2.5 Goals", 2, 1, true},
		{"Under 2.5 Goals", 2, 1, false},
		{"BTTS", 1, 0, false},
		{"Both Teams To Score", 1, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.market, func(t *testing.T) {
			if got := marketWins(tt.market, tt.home, tt.away); got != tt.want {
				t.Fatalf("marketWins(%q, %d, %d) = %v", tt.market, tt.home, tt.away, got)
			}
		})
	}
}

func TestSupplierClientAgainstSimulator(t *testing.T) {
	s := newServer()
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()
	c := oracle.NewSupplierClient(srv.URL + "/")

	rec := ledger.BetRecord{ID: "b1", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Market: "Home Win", MatchDate: "2024-03-01"}
	v, err := c.Verify(context.Background(), oracle.RequestFor(rec))
	if err != nil || v == nil {
		t.Fatalf("got %+v %v", v, err)
	}
	want := s.Result(dto.VerifyReq{HomeTeam: "Arsenal", AwayTeam: "Chelsea", Market: "Home Win", MatchDate: "2024-03-01"})
	if string(v.Status) != want.Status || v.Score != want.Score {
		t.Fatalf("verdict %+v, want %+v", v, want)
	}

	s.UnknownPct = 100
	if v, err := c.Verify(context.Background(), oracle.RequestFor(rec)); v != nil || err != nil {
		t.Fatalf("expected inconclusive, got %+v %v", v, err)
	}

	s.FailPct = 100
	if _, err := c.Verify(context.Background(), oracle.RequestFor(rec)); !errors.Is(err, oracle.ErrCommunication) {
		t.Fatalf("expected ErrCommunication, got %v", err)
	}
}

func TestVerifyHandlerRejects(t *testing.T) {
	h := newServer().Routes()
	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"get", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"bad json", http.MethodPost, "{", http.StatusBadRequest},
		{"missing team", http.MethodPost, `{"homeTeam":"A"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/oracle/verify", strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
