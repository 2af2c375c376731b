package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	jwttoken "cardscan/internal/jwt_token"
	"cardscan/internal/platform/config"
	"cardscan/internal/platform/httpserver"
	"cardscan/internal/platform/logger"
	"cardscan/internal/platform/metrics"
	"cardscan/internal/platform/postgres"
	platformredis "cardscan/internal/platform/redis"
	"cardscan/internal/scan/handler"
	scanmetrics "cardscan/internal/scan/metrics"
	"cardscan/internal/scan/sequencer"
	"cardscan/internal/scan/service"
	scanmemory "cardscan/internal/scan/store/memory"
	scanpostgres "cardscan/internal/scan/store/postgres"
	scanredis "cardscan/internal/scan/store/redis"
	"cardscan/internal/scan/tuning"
	httptransport "cardscan/internal/transport/http"
	"cardscan/pkg/platform/audit"
	"cardscan/pkg/platform/audit/consumer"
	"cardscan/pkg/platform/audit/publisher"
	auditkafka "cardscan/pkg/platform/audit/store/kafka"
	auditmemory "cardscan/pkg/platform/audit/store/memory"
	auditpostgres "cardscan/pkg/platform/audit/store/postgres"
	authmw "cardscan/pkg/platform/middleware/auth"
)

const (
	auditBuffer     = 1024
	shutdownTimeout = 10 * time.Second
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Scan logic lives in internal/scan.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(log)

	srv := httpserver.New(cfg.Server.Addr, app.router)
	go func() {
		log.Info("starting cardscan", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

type application struct {
	router  http.Handler
	closers []func() error
}

func (a *application) close(log *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn("close failed", "error", err)
		}
	}
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*application, error) {
	app := &application{}
	checks := map[string]httptransport.HealthCheck{}

	engineCfg, err := tuning.EngineConfig(cfg.Scan.TuningFile, sequencer.Config{StrictIDPrefix: cfg.Scan.StrictIDPrefix})
	if err != nil {
		return nil, err
	}
	engine := sequencer.NewEngine(engineCfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(reg)

	memStore := scanmemory.NewInMemoryStore()
	var sessions service.SessionStore = memStore
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		sessions = scanredis.NewSessionStore(redisClient.Client)
		checks["redis"] = redisClient.Health
		app.closers = append(app.closers, redisClient.Close)
		log.Info("session store: redis")
	} else if cfg.Scan.CleanupInterval > 0 {
		go func() {
			err := memStore.StartCleanup(ctx, cfg.Scan.CleanupInterval, func(deleted int) {
				if deleted > 0 {
					log.Debug("expired scan sessions removed", "count", deleted)
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error("session cleanup stopped", "error", err)
			}
		}()
		log.Info("session store: memory", "cleanup_interval", cfg.Scan.CleanupInterval)
	} else {
		log.Info("session store: memory")
	}

	var results service.ResultStore = memStore
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		app.close(log)
		return nil, err
	}
	if db != nil {
		app.closers = append(app.closers, db.Close)
		resultStore := scanpostgres.NewResultStore(db)
		if err := resultStore.EnsureSchema(ctx); err != nil {
			app.close(log)
			return nil, err
		}
		results = resultStore
		checks["postgres"] = db.PingContext
		log.Info("result store: postgres")
	}

	var auditStore audit.Store = auditmemory.NewInMemoryStore()
	var auditTable *auditpostgres.Store
	if db != nil {
		auditTable = auditpostgres.New(db)
		if err := auditTable.EnsureSchema(ctx); err != nil {
			app.close(log)
			return nil, err
		}
		auditStore = auditTable
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			app.close(log)
			return nil, err
		}
		app.closers = append(app.closers, func() error { sink.Close(); return nil })
		checks["kafka"] = sink.Ping
		auditStore = sink
		log.Info("audit sink: kafka", "topic", cfg.Kafka.AuditTopic)

		if auditTable != nil {
			if err := startAuditConsumer(ctx, app, cfg.Kafka, auditTable, log); err != nil {
				app.close(log)
				return nil, err
			}
		}
	}
	auditPublisher := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(auditBuffer),
		publisher.WithLogger(log),
		publisher.WithOpsSampler(publisher.NewSampler(cfg.Audit.OpsSampleRate)),
		publisher.WithOpsCircuitBreaker(publisher.NewCircuitBreaker(cfg.Audit.BreakerThreshold, cfg.Audit.BreakerCooldown)),
		publisher.WithMetrics(publisher.NewMetrics(reg)),
	)
	// Registered after the sinks so it drains before they close.
	app.closers = append(app.closers, auditPublisher.Close)

	svc := service.New(engine, sessions,
		service.WithLogger(log),
		service.WithMetrics(scanmetrics.New(reg)),
		service.WithAuditPublisher(auditPublisher),
		service.WithResultStore(results),
		service.WithSessionTTL(cfg.Scan.SessionTTL),
	)

	var validator authmw.JWTValidator
	if cfg.Server.JWTSigningKey != "" {
		validator = jwttoken.NewJWTServiceAdapter(
			jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience),
		)
	} else {
		log.Warn("JWT_SIGNING_KEY not set; scan API is unauthenticated")
	}

	app.router = httptransport.NewRouter(httptransport.RouterConfig{
		Logger:   log,
		API:      []httptransport.Routes{handler.New(svc, log)},
		Latency:  httpMetrics,
		Gatherer: reg,
		Auth:     validator,
		Checks:   checks,
	})
	return app, nil
}

// startAuditConsumer materializes the audit topic into the Postgres table.
func startAuditConsumer(ctx context.Context, app *application, cfg config.KafkaConfig, table *auditpostgres.Store, log *slog.Logger) error {
	router := consumer.NewRouter(log, nil)
	router.Register(audit.CategoryCompliance, consumer.NewComplianceHandler(table, log))
	router.Register(audit.CategoryOperations, consumer.NewOpsHandler(table, log))

	c, err := consumer.New(cfg.Brokers, cfg.AuditTopic, cfg.AuditGroup, router, log)
	if err != nil {
		return err
	}
	app.closers = append(app.closers, func() error { c.Close(); return nil })
	go func() {
		if err := c.Run(ctx); err != nil {
			log.Error("audit consumer stopped", "error", err)
		}
	}()
	log.Info("audit consumer started", "group", cfg.AuditGroup)
	return nil
}
