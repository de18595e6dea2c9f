package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/bet-tracker/internal/analyst"
	"github.com/radieske/bet-tracker/internal/gemini"
	"github.com/radieske/bet-tracker/internal/ledger"
	"github.com/radieske/bet-tracker/internal/oracle"
	sharedcache "github.com/radieske/bet-tracker/internal/shared/cache"
	"github.com/radieske/bet-tracker/internal/shared/config"
	"github.com/radieske/bet-tracker/internal/shared/kafka"
	"github.com/radieske/bet-tracker/internal/shared/logger"
	"github.com/radieske/bet-tracker/internal/shared/metrics"
	"github.com/radieske/bet-tracker/internal/tracker"
	httpapi "github.com/radieske/bet-tracker/internal/tracker/http"
	"github.com/radieske/bet-tracker/internal/tracker/notify"
	"github.com/radieske/bet-tracker/internal/tracker/producer"
	"github.com/radieske/bet-tracker/internal/tracker/ws"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "tracker-service"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Redis: ledger, cache de fixtures e pub/sub de notificações
	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Métricas Prometheus
	persisted := prometheus.NewCounter(prometheus.CounterOpts{Name: "tracker_ledger_writes_total", Help: "gravações do ledger"})
	persistErr := prometheus.NewCounter(prometheus.CounterOpts{Name: "tracker_ledger_write_errors_total", Help: "falhas ao gravar o ledger"})
	corrupt := prometheus.NewCounter(prometheus.CounterOpts{Name: "tracker_ledger_corrupt_total", Help: "blobs corrompidos descartados no boot"})
	ledgerSize := prometheus.NewGauge(prometheus.GaugeOpts{Name: "tracker_ledger_records", Help: "apostas no ledger"})
	verifyBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "tracker_verifications_total", Help: "verificações por desfecho"}, []string{"outcome"})
	settledBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "tracker_settlements_total", Help: "liquidações por status"}, []string{"status"})
	wsConns := prometheus.NewGauge(prometheus.GaugeOpts{Name: "tracker_ws_connections", Help: "clientes WebSocket conectados"})
	prometheus.MustRegister(persisted, persistErr, corrupt, ledgerSize, verifyBy, settledBy, wsConns)

	// Ledger
	store := ledger.NewStore(ledger.NewRedisKV(redisClient), cfg.LedgerKey, log)
	store.OnPersist = func(size int) {
		persisted.Inc()
		ledgerSize.Set(float64(size))
	}
	store.OnPersistError = func(error) { persistErr.Inc() }
	store.OnCorrupt = func() { corrupt.Inc() }
	if err := store.Init(ctx); err != nil {
		log.Fatal("ledger init", zap.Error(err))
	}
	ledgerSize.Set(float64(store.Len()))
	log.Info("ledger loaded", zap.String("key", cfg.LedgerKey), zap.Int("records", store.Len()))

	// Oráculo + analista
	gen, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal("gemini client", zap.Error(err))
	}
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set: analysis disabled, gemini verification is inconclusive")
	}
	var orc oracle.Oracle
	switch cfg.OracleBackend {
	case "supplier":
		orc = oracle.NewSupplierClient(cfg.OracleURL)
	default:
		orc = oracle.NewGeminiVerifier(gen)
	}
	log.Info("oracle backend", zap.String("backend", cfg.OracleBackend))

	an := analyst.New(gen, analyst.NewRedisCache(redisClient, cfg.FixturesTTL), log)
	an.Live = analyst.NewLiveCache(30 * time.Second)

	// Kafka: bet_settled (+ ledger_changed opcional)
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()
	var changedWriter *kafka.Writer
	if cfg.TopicLedgerChanged != "" {
		changedWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicLedgerChanged)
		defer changedWriter.Close()
	}

	tr := tracker.New(store, orc, log)
	tr.Loc = cfg.Location()
	tr.BatchLimit = cfg.VerifyLimit
	tr.Notify = notify.NewRedisNotifier(redisClient, cfg.RedisPubSubChannel)
	tr.Events = producer.NewKafkaPublisher(settledWriter, changedWriter)
	tr.OnVerify = func(outcome string) { verifyBy.WithLabelValues(outcome).Inc() }
	tr.OnSettled = func(status string) { settledBy.WithLabelValues(status).Inc() }

	// WebSocket: Redis Pub/Sub -> hub -> clientes
	hub := ws.NewHub(originAllowed(cfg.CORSOrigins), log)
	hub.OnConnect = wsConns.Inc
	hub.OnDisconnect = wsConns.Dec
	ws.StartRedisSubscriber(ctx, redisClient, cfg.RedisPubSubChannel, hub, log)

	// Verificação periódica das pendentes
	go tr.RunScheduler(ctx, cfg.VerifyInterval)

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, metrics.Checks{
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}, log)

	api := &httpapi.API{
		Tracker:     tr,
		Analyst:     an,
		WS:          hub.HandleWS,
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
	}
	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		_ = apiSrv.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	log.Info("tracker-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api", zap.Error(err))
	}
	log.Info("tracker-service stopped")
}

// originAllowed libera o WebSocket para as mesmas origens do CORS; "*" libera tudo.
func originAllowed(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed["*"] || allowed[origin]
	}
}
