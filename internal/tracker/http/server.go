package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/radieske/bet-tracker/internal/analyst"
	"github.com/radieske/bet-tracker/internal/ledger"
	"github.com/radieske/bet-tracker/internal/oracle"
	"github.com/radieske/bet-tracker/internal/tracker"
)

// API expõe o tracker e o analista via REST, mais o WebSocket de notificações.
type API struct {
	Tracker     *tracker.Tracker
	Analyst     *analyst.Analyst
	WS          http.HandlerFunc // opcional
	Log         *zap.Logger
	CORSOrigins []string
}

// Router monta as rotas públicas.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(a.log()))
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if a.WS != nil {
		r.Get("/ws", a.WS) // fora do timeout: conexão longa
	}

	r.Group(func(r chi.Router) {
		// consultas com busca web podem passar de um minuto
		r.Use(chimiddleware.Timeout(2 * time.Minute))

		r.Get("/v1/bets", a.listBets)                      // Lista o ledger
		r.Post("/v1/bets", a.trackBet)                     // Registra aposta
		r.Post("/v1/bets/accumulator", a.importAcca)       // Importa acumulador
		r.Post("/v1/bets/verify-pending", a.verifyPending) // Verifica todas as pendentes
		r.Patch("/v1/bets/{id}/status", a.setStatus)       // Liquidação manual
		r.Post("/v1/bets/{id}/verify", a.verifyBet)        // Verificação via oráculo
		r.Delete("/v1/bets/{id}", a.deleteBet)             // Remove aposta

		r.Get("/v1/stats", a.stats)
		r.Get("/v1/stats/dashboard", a.dashboard)

		r.Get("/v1/fixtures", a.dailyFixtures)
		r.Get("/v1/fixtures/live", a.liveFixtures)
		r.Post("/v1/analysis", a.analysis)
		r.Post("/v1/analysis/live", a.liveAnalysis)
		r.Get("/v1/bet-of-the-day", a.betOfTheDay)
	})
	return r
}

func (a *API) log() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError traduz os erros de domínio em status HTTP.
func (a *API) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrDuplicateID):
		status = http.StatusConflict
	case ledger.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, oracle.ErrCommunication), errors.Is(err, analyst.ErrUpstream):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		a.log().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &ledger.ValidationError{Err: errors.New("bad json")}
	}
	return nil
}

// requestLogger registra método, rota, status e latência de cada requisição.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
