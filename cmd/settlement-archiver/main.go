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

	"github.com/radieske/bet-tracker/internal/archiver/consumer"
	httpapi "github.com/radieske/bet-tracker/internal/archiver/http"
	"github.com/radieske/bet-tracker/internal/archiver/repository"
	"github.com/radieske/bet-tracker/internal/shared/config"
	"github.com/radieske/bet-tracker/internal/shared/db"
	"github.com/radieske/bet-tracker/internal/shared/kafka"
	"github.com/radieske/bet-tracker/internal/shared/logger"
	"github.com/radieske/bet-tracker/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "settlement-archiver"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres: histórico de liquidações
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	repo := repository.NewPostgresRepo(pg)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("ensure schema", zap.Error(err))
	}

	// Kafka consumer (consumer group settlement-archiver) + DLQ
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetSettled, "settlement-archiver")
	defer reader.Close()

	var dlq consumer.Writer
	if cfg.TopicBetSettledDLQ != "" {
		w := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettledDLQ)
		defer w.Close()
		dlq = w
	}

	// Métricas Prometheus do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "archiver_messages_consumed_total", Help: "mensagens consumidas"})
	persist := prometheus.NewCounter(prometheus.CounterOpts{Name: "archiver_db_writes_total", Help: "liquidações gravadas"})
	dups := prometheus.NewCounter(prometheus.CounterOpts{Name: "archiver_duplicates_total", Help: "eventos repetidos ignorados"})
	dead := prometheus.NewCounter(prometheus.CounterOpts{Name: "archiver_dlq_total", Help: "mensagens enviadas à DLQ"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "archiver_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, persist, dups, dead, errorsBy)

	proc := &consumer.Processor{
		Log:         log,
		Reader:      reader,
		Repo:        repo,
		DLQ:         dlq,
		Retries:     3,
		Backoff:     300 * time.Millisecond,
		OnConsumed:  consumed.Inc,
		OnPersist:   persist.Inc,
		OnDuplicate: dups.Inc,
		OnDLQ:       dead.Inc,
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, metrics.Checks{
		"postgres": pg.PingContext,
	}, log)

	// Relatórios
	api := &httpapi.API{Reports: repo}
	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("reports listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("reports server", zap.Error(err))
		}
	}()

	log.Info("settlement-archiver started",
		zap.String("consume", cfg.TopicBetSettled),
		zap.String("dlq", cfg.TopicBetSettledDLQ),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("settlement-archiver stopped")
}
