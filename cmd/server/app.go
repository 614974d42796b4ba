package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"compliance/internal/admin"
	"compliance/internal/admin/adapters"
	identityhandler "compliance/internal/identity/handler"
	identitymetrics "compliance/internal/identity/metrics"
	"compliance/internal/identity/models"
	"compliance/internal/identity/saidnumber"
	"compliance/internal/identity/service"
	"compliance/internal/identity/store/resultcache"
	"compliance/internal/identity/store/verification"
	"compliance/internal/platform/auth"
	"compliance/internal/platform/config"
	"compliance/internal/platform/database"
	"compliance/internal/platform/httpserver"
	"compliance/internal/platform/kafka/consumer"
	"compliance/internal/platform/kafka/outbox"
	"compliance/internal/platform/kafka/producer"
	"compliance/internal/platform/metrics"
	"compliance/internal/platform/migrations"
	platformredis "compliance/internal/platform/redis"
	"compliance/internal/platform/secrets"
	ratelimitmetrics "compliance/internal/ratelimit/metrics"
	ratelimitmw "compliance/internal/ratelimit/middleware"
	ratelimitservice "compliance/internal/ratelimit/service"
	"compliance/internal/ratelimit/store/bucket"
	httptransport "compliance/internal/transport/http"
	"compliance/pkg/platform/audit"
	auditconsumer "compliance/pkg/platform/audit/consumer"
	"compliance/pkg/platform/audit/publishers/compliance"
	"compliance/pkg/platform/audit/publishers/ops"
	"compliance/pkg/platform/audit/publishers/security"
	auditmemory "compliance/pkg/platform/audit/store/memory"
	auditpostgres "compliance/pkg/platform/audit/store/postgres"
	"compliance/pkg/platform/circuit"
	adminmw "compliance/pkg/platform/middleware/admin"
)

const (
	auditTopicPartitions  = 3
	auditTopicReplication = 1
)

// app holds every long-lived component started by serve.
type app struct {
	logger   *slog.Logger
	cfg      *config.Config
	server   *http.Server
	relay    *outbox.Relay
	consumer *consumer.Consumer
	router   *auditconsumer.Router
	closers  []func() error
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("shutdown step failed", "error", err)
		}
	}
}

// run blocks until ctx is cancelled or a component fails.
func (a *app) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, a.server, a.cfg.Server.ShutdownTimeout, a.logger)
	})
	if a.relay != nil {
		g.Go(func() error { return a.relay.Run(gctx) })
	}
	if a.consumer != nil {
		g.Go(func() error { return a.consumer.Run(gctx, a.router) })
	}
	return g.Wait()
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) (a *app, err error) {
	a = &app{logger: logger, cfg: cfg}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	reg := prometheus.DefaultRegisterer
	httpMetrics := metrics.New()
	httpMetrics.SetBuildInfo(version)

	var (
		db        *sql.DB
		store     service.VerificationStore = verification.NewInMemoryStore()
		pgAudit   *auditpostgres.Store
		auditSink audit.Store = auditmemory.NewInMemoryStore()
		inTx      service.TxRunner
		probes    []httptransport.Probe
	)
	if cfg.Database.URL != "" {
		db, err = database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.onClose(db.Close)
		if migrate {
			if err := migrations.Up(ctx, db, logger); err != nil {
				return nil, err
			}
		}
		pg := verification.NewPostgres(db)
		store = pg
		pgAudit = auditpostgres.New(db)
		auditSink = pgAudit
		inTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return database.RunInTx(ctx, db, fn)
		}
		probes = append(probes, httptransport.Probe{Name: "database", Check: pg.Ping})
		logger.Info("using postgres persistence")
	} else {
		logger.Warn("database.url not set, verifications and audit events are kept in memory")
	}

	securityPublisher := security.New(auditSink,
		security.WithLogger(logger),
		security.WithMetrics(security.NewMetrics(reg)),
	)
	a.onClose(securityPublisher.Close)
	compliancePublisher := compliance.New(auditSink,
		compliance.WithLogger(logger),
		compliance.WithMetrics(compliance.NewMetrics(reg)),
	)
	a.onClose(compliancePublisher.Close)
	opsTracker := ops.New(auditSink,
		ops.WithLogger(logger),
		ops.WithMetrics(ops.NewMetrics(reg)),
	)

	var (
		cache       service.ResultCache = resultcache.NewInMemoryCache()
		adminRoutes httptransport.Registrar
	)
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		a.onClose(redisClient.Close)
		breaker := circuit.New("result-cache")
		guarded := resultcache.NewGuarded(
			resultcache.NewRedisCache(redisClient.Client),
			resultcache.NewInMemoryCache(),
			resultcache.WithLogger(logger),
			resultcache.WithBreaker(breaker),
		)
		cache = guarded
		adminRoutes = admin.New(adapters.NewBreakerAdapter(breaker.Name(), guarded), securityPublisher, logger)
		probes = append(probes, httptransport.Probe{Name: "redis", Check: redisClient.Health})
	}

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(identitymetrics.New(reg)),
		service.WithValidator(saidnumber.New(cfg.Identity.ValidatorOptions()...)),
		service.WithResultCache(cache, cfg.Identity.CacheTTL),
		service.WithOpsTracker(opsTracker),
		service.WithBatchLimits(cfg.Identity.BatchLimit, cfg.Identity.BatchConcurrency),
	}
	if inTx != nil {
		opts = append(opts, service.WithTxRunner(inTx))
	}
	svc, err := service.New(store, compliancePublisher, models.NewSubjectHasher(cfg.Identity.SubjectHashKey), opts...)
	if err != nil {
		return nil, err
	}

	if cfg.Kafka.Enabled() {
		if pgAudit == nil {
			return nil, errors.New("kafka.brokers requires database.url: the outbox lives in postgres")
		}
		probe, err := a.startAuditPipeline(ctx, pgAudit, inTx)
		if err != nil {
			return nil, err
		}
		probes = append(probes, probe)
	}

	jwt := auth.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	deps := httptransport.Deps{
		Logger:         logger,
		API:            []httptransport.Registrar{identityhandler.New(svc, logger)},
		AuthValidator:  auth.NewMiddlewareAdapter(jwt),
		AuthFailures:   securityPublisher,
		Latency:        httpMetrics,
		MetricsHandler: metrics.Handler(),
		Probes:         probes,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	if cfg.RateLimit.Enabled {
		deps.RateLimit, err = buildRateLimit(cfg.RateLimit, redisClient, securityPublisher, logger, reg)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("rate limiting disabled")
	}
	if verifier := adminVerifier(cfg.Server); verifier != nil && adminRoutes != nil {
		deps.Admin = adminRoutes
		deps.AdminVerifier = verifier
		deps.AdminDenials = securityPublisher
	}
	a.server = httpserver.New(cfg.Server, httptransport.NewRouter(deps))
	return a, nil
}

// startAuditPipeline wires the outbox relay and the consumer that
// materialises audit events into their category tables.
func (a *app) startAuditPipeline(ctx context.Context, store *auditpostgres.Store, inTx service.TxRunner) (httptransport.Probe, error) {
	kcfg := a.cfg.Kafka
	brokers := kcfg.BrokerList()

	prod, err := producer.New(brokers, producer.WithLogger(a.logger))
	if err != nil {
		return httptransport.Probe{}, err
	}
	a.onClose(func() error { prod.Close(); return nil })
	if err := prod.EnsureTopics(ctx, auditTopicPartitions, auditTopicReplication, kcfg.AuditTopic); err != nil {
		return httptransport.Probe{}, fmt.Errorf("ensure audit topic: %w", err)
	}

	a.relay = outbox.NewRelay(store, prod, outbox.TxRunner(inTx), kcfg.AuditTopic,
		outbox.WithLogger(a.logger),
		outbox.WithInterval(kcfg.OutboxPollInterval),
		outbox.WithBatchSize(kcfg.OutboxBatchSize),
		outbox.WithMetrics(outbox.NewMetrics(prometheus.DefaultRegisterer)),
	)

	a.consumer, err = consumer.New(brokers, kcfg.ConsumerGroup, []string{kcfg.AuditTopic},
		consumer.WithLogger(a.logger),
	)
	if err != nil {
		return httptransport.Probe{}, err
	}
	a.router = auditconsumer.NewRouter(a.logger, nil)
	a.router.Register(audit.CategoryCompliance, auditconsumer.NewComplianceHandler(store, a.logger))
	a.router.Register(audit.CategorySecurity, auditconsumer.NewSecurityHandler(store, a.logger))
	a.router.Register(audit.CategoryOperations, auditconsumer.NewOpsHandler(store, a.logger))

	return httptransport.Probe{Name: "kafka", Check: prod.Ping}, nil
}

// buildRateLimit counts buckets in Redis when available. A Redis outage
// trips a breaker that moves counting to process memory until Redis recovers.
func buildRateLimit(cfg config.RateLimitConfig, redisClient *platformredis.Client, publisher *security.Publisher, logger *slog.Logger, reg prometheus.Registerer) (func(http.Handler) http.Handler, error) {
	m := ratelimitmetrics.New(reg)
	newLimiter := func(store ratelimitservice.BucketStore) (*ratelimitservice.Service, error) {
		return ratelimitservice.New(store, cfg.Limits(),
			ratelimitservice.WithLogger(logger),
			ratelimitservice.WithAuditPublisher(publisher),
			ratelimitservice.WithMetrics(m),
		)
	}

	memoryLimiter, err := newLimiter(bucket.NewInMemoryBucketStore())
	if err != nil {
		return nil, err
	}
	if redisClient == nil {
		return ratelimitmw.New(memoryLimiter, logger, ratelimitmw.WithMetrics(m)).RateLimitAuthenticated(nil), nil
	}

	redisLimiter, err := newLimiter(bucket.NewRedisBucketStore(redisClient.Client))
	if err != nil {
		return nil, err
	}
	mw := ratelimitmw.New(redisLimiter, logger,
		ratelimitmw.WithMetrics(m),
		ratelimitmw.WithFallback(memoryLimiter, circuit.New("ratelimit-store")),
	)
	return mw.RateLimitAuthenticated(nil), nil
}

// adminVerifier prefers the bcrypt hash over the plain token. Nil disables admin routes.
func adminVerifier(cfg config.ServerConfig) adminmw.Verifier {
	switch {
	case cfg.AdminTokenHash != "":
		return secrets.MatchesHash(cfg.AdminTokenHash)
	case cfg.AdminToken != "":
		return adminmw.EqualTo(cfg.AdminToken)
	default:
		return nil
	}
}
