package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	oraclesim "github.com/radieske/bet-tracker/internal/oracle-simulator"
	"github.com/radieske/bet-tracker/internal/shared/config"
	"github.com/radieske/bet-tracker/internal/shared/logger"
	"github.com/radieske/bet-tracker/internal/shared/metrics"
)

// Métricas Prometheus das respostas simuladas
var verifyResults = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "oracle_sim_verifications_total",
	Help: "Respostas do simulador por resultado",
}, []string{"result"})

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "oracle-simulator"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(verifyResults)

	s := oraclesim.New(log)
	s.FailPct = pct("ORACLE_SIM_FAIL_PCT", 5)
	s.UnknownPct = pct("ORACLE_SIM_UNKNOWN_PCT", 10)
	s.OnVerify = func(result string) { verifyResults.WithLabelValues(result).Inc() }

	// ==== MUX DE MÉTRICAS (/healthz, /metrics)
	metrics.StartMetricsServer(cfg.MetricsPort, metrics.Checks{
		"self": func(context.Context) error { return nil },
	}, log)

	// Servidor público (/oracle/verify)
	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("oracle simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/oracle/verify"),
		zap.Int("fail_pct", s.FailPct),
		zap.Int("unknown_pct", s.UnknownPct),
	)
	srv := &http.Server{Addr: publicAddr, Handler: s.Routes(), ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}

func pct(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n >= 0 && n <= 100 {
		return n
	}
	return def
}
