// Package oraclesim simula um fornecedor de resultados para o backend "supplier" do oráculo.
// O resultado de um jogo é derivado das equipes e da data, então consultas repetidas concordam.
package oraclesim

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker/internal/oracle-simulator/dto"
)

// Server responde POST /oracle/verify.
type Server struct {
	Log *zap.Logger
	Now func() time.Time

	// FailPct é a chance (0-100) de responder 503, para exercitar o caminho de erro.
	FailPct int
	// UnknownPct é a chance (0-100) de não saber o resultado (204).
	UnknownPct int

	mu  sync.Mutex
	rnd *rand.Rand

	OnVerify func(result string) // métricas
}

func New(log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		Log: log,
		Now: time.Now,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oracle/verify", s.verifyHandler)
	return mux
}

func (s *Server) verifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var req dto.VerifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HomeTeam == "" || req.AwayTeam == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	switch {
	case s.roll(s.FailPct):
		s.observe("failure")
		http.Error(w, "supplier unavailable", http.StatusServiceUnavailable)
		return
	case s.roll(s.UnknownPct):
		s.observe("unknown")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := s.Result(req)
	s.observe(resp.Status)
	s.Log.Debug("verify",
		zap.String("betId", req.BetID),
		zap.String("match", req.HomeTeam+" vs "+req.AwayTeam),
		zap.String("status", resp.Status),
	)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Result decide o desfecho de uma aposta: jogo futuro => PENDING; jogo de hoje => PENDING com placar parcial;
// jogo passado => placar final e WON/LOST (ou VOID) conforme o mercado.
func (s *Server) Result(req dto.VerifyReq) dto.VerifyResp {
	today := s.Now().UTC().Format("2006-01-02")
	date := req.MatchDate
	if date == "" {
		date = today
	}

	home, away, void := scoreFor(req)
	switch {
	case date > today:
		return dto.VerifyResp{Status: dto.StatusPending, Score: "0-0", Reasoning: "Match has not started yet."}
	case date == today:
		return dto.VerifyResp{Status: dto.StatusPending, Score: fmt.Sprintf("%d-%d", home/2, away/2), Reasoning: "Match in progress."}
	case void:
		return dto.VerifyResp{Status: dto.StatusVoid, Score: "0-0", Reasoning: "Match postponed."}
	}

	score := fmt.Sprintf("%d-%d", home, away)
	status := dto.StatusLost
	if marketWins(req.Market, home, away) {
		status = dto.StatusWon
	}
	return dto.VerifyResp{Status: status, Score: score, Reasoning: "FT " + score}
}

// scoreFor gera um placar estável a partir do jogo.
func scoreFor(req dto.VerifyReq) (home, away int, void bool) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(req.HomeTeam + "|" + req.AwayTeam + "|" + req.MatchDate)))
	v := h.Sum64()
	return int(v % 4), int((v >> 8) % 4), (v>>16)%25 == 0
}

// marketWins cobre os mercados mais comuns; o resto cai no vencedor da partida.
func marketWins(market string, home, away int) bool {
	m := strings.ToLower(market)
	switch {
	case strings.Contains(m, "over 2.5"):
		return home+away > 2
	case strings.Contains(m, "under 2.5"):
		return home+away < 3
	case strings.Contains(m, "btts") || strings.Contains(m, "both teams"):
		return home > 0 && away > 0
	case strings.Contains(m, "draw"):
		return home == away
	case strings.Contains(m, "away"):
		return away > home
	default:
		return home > away
	}
}

func (s *Server) roll(pct int) bool {
	if pct <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(1))
	}
	return s.rnd.Intn(100) < pct
}

func (s *Server) observe(result string) {
	if s.OnVerify != nil {
		s.OnVerify(result)
	}
}
