// Package app is the composition root: it turns a Config into a running
// server with its background workers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"medplant/internal/entity/handler"
	"medplant/internal/entity/models"
	"medplant/internal/entity/policy"
	"medplant/internal/entity/store"
	"medplant/internal/pipeline"
	"medplant/internal/platform/config"
	"medplant/internal/platform/httpserver"
	"medplant/internal/platform/metrics"
	"medplant/internal/platform/middleware"
	"medplant/internal/platform/postgres"
	platformredis "medplant/internal/platform/redis"
	rlmetrics "medplant/internal/ratelimit/metrics"
	rlservice "medplant/internal/ratelimit/service"
	"medplant/internal/ratelimit/store/bucket"
	"medplant/internal/ratelimit/store/fallback"
	rlredis "medplant/internal/ratelimit/store/redis"
	"medplant/internal/screen"
	"medplant/internal/security"
	"medplant/internal/tenant"
	tenantmetrics "medplant/internal/tenant/metrics"
	httptransport "medplant/internal/transport/http"
	"medplant/pkg/platform/audit"
	"medplant/pkg/platform/audit/queue"
	auditmem "medplant/pkg/platform/audit/store/memory"
	auditpg "medplant/pkg/platform/audit/store/postgres"
	"medplant/pkg/platform/circuit"
	authmw "medplant/pkg/platform/middleware/auth"
	"medplant/pkg/validator"
)

// auditStore is a sink that can also be queried by operators.
type auditStore interface {
	audit.Sink
	httptransport.AuditReader
}

// App owns every long-lived resource.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler http.Handler
	tokens  *authmw.JWTService

	db       *postgres.DB
	redis    *platformredis.Client
	recorder *audit.Recorder
	queue    *queue.Client
	worker   *queue.Worker
	sweeper  *rlservice.Sweeper
}

// New connects to the configured backends and builds the router. With no
// database URL the repositories and audit sink are in memory; with no Redis
// URL rate windows are per-process and audit writes go straight to the sink.
// With Redis, windows fall back to process memory while Redis is unreachable.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{
		cfg:    cfg,
		logger: logger,
		tokens: authmw.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer),
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	reg := metrics.New()
	var health []httptransport.HealthCheck

	if cfg.UsesPostgres() {
		if a.db, err = postgres.Open(ctx, cfg.Database); err != nil {
			return nil, err
		}
		health = append(health, httptransport.HealthCheck{Name: "postgres", Check: a.db.Health})
	}
	if cfg.UsesRedis() {
		if a.redis, err = platformredis.New(ctx, cfg.Redis); err != nil {
			return nil, err
		}
		health = append(health, httptransport.HealthCheck{Name: "redis", Check: a.redis.Health})
	}

	limiter, err := a.buildLimiter(rlmetrics.New(reg))
	if err != nil {
		return nil, err
	}

	sink := a.buildAuditSink()
	a.recorder = a.buildRecorder(sink, audit.NewMetrics(reg))

	users := newRepository(a.db, store.SystemUserTable, policy.SystemUser(cfg.RateLimit.Rules, cfg.Auth.BcryptCost).Uniques)
	scope, err := tenant.NewScope(a.userDirectory(users), cfg.Auth.AdminRoles, logger, tenantmetrics.New(reg))
	if err != nil {
		return nil, err
	}

	deps := pipeline.Deps{
		Sanitizer: security.NewSanitizer(),
		Scanner:   security.NewScanner(),
		Validator: validator.New(),
		Limiter:   limiter,
		Scope:     scope,
		Audit:     a.recorder,
		Logger:    logger,
		Metrics:   pipeline.NewMetrics(reg),
	}
	entities, screens, err := a.buildEntities(deps, users)
	if err != nil {
		return nil, err
	}

	a.handler = httptransport.NewRouter(httptransport.Deps{
		Logger:     logger,
		Tokens:     a.tokens,
		Resolve:    middleware.ResolveWith(scope),
		Entities:   entities,
		Screens:    screens,
		Audit:      sink,
		AdminToken: cfg.Auth.AdminToken,
		Metrics:    reg.Handler(),
		Health:     health,
	})
	return a, nil
}

// Handler is the full HTTP surface.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Tokens issues and validates access tokens with the configured key.
func (a *App) Tokens() *authmw.JWTService {
	return a.tokens
}

// Run serves HTTP and runs the audit worker and window sweeper until ctx is
// cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	srv := httpserver.New(a.cfg.Server, a.handler)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, a.cfg.Server.ShutdownTimeout, a.logger)
	})
	if a.worker != nil {
		g.Go(func() error {
			return a.worker.Run(gctx)
		})
	}
	if a.sweeper != nil {
		g.Go(func() error {
			a.sweeper.Start()
			<-gctx.Done()
			a.sweeper.Stop()
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close flushes buffered audit entries and releases connections.
func (a *App) Close() {
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			a.logger.Warn("failed to close audit queue client", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis client", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

func (a *App) buildLimiter(m *rlmetrics.Metrics) (*rlservice.Limiter, error) {
	opts := []rlservice.Option{rlservice.WithLogger(a.logger), rlservice.WithMetrics(m)}

	local := bucket.NewInMemoryBucketStore()
	sweeper, err := rlservice.NewSweeper(local, a.cfg.RateLimit.SweepSchedule, a.logger, m)
	if err != nil {
		return nil, fmt.Errorf("schedule rate window sweep: %w", err)
	}
	a.sweeper = sweeper

	if a.redis == nil {
		return rlservice.New(local, opts...)
	}
	shared, err := rlredis.New(a.redis.Client)
	if err != nil {
		return nil, err
	}
	windows := fallback.New(shared, local,
		fallback.WithLogger(a.logger),
		fallback.WithBreaker(circuit.New("ratelimit_store",
			circuit.WithFailureThreshold(a.cfg.RateLimit.BreakerThreshold),
			circuit.WithCooldown(a.cfg.RateLimit.BreakerCooldown),
		)),
	)
	return rlservice.New(windows, opts...)
}

func (a *App) buildAuditSink() auditStore {
	if a.db != nil {
		return auditpg.New(a.db.Pool)
	}
	return auditmem.NewInMemoryStore()
}

func (a *App) buildRecorder(sink audit.Sink, m *audit.Metrics) *audit.Recorder {
	cfg := a.cfg.Audit
	opts := []audit.Option{
		audit.WithLogger(a.logger),
		audit.WithFallbackLogger(a.logger.With("log_type", "audit", "fallback", true)),
		audit.WithTimeout(cfg.Timeout),
		audit.WithAsyncBuffer(cfg.AsyncBuffer),
		audit.WithMetrics(m),
		audit.WithBreaker(circuit.New("audit_sink",
			circuit.WithFailureThreshold(cfg.BreakerThreshold),
			circuit.WithCooldown(cfg.BreakerCooldown),
		)),
	}
	if a.redis != nil {
		opt := a.redis.AsynqOpt()
		a.queue = queue.NewClient(opt, a.logger)
		a.worker = queue.NewWorker(opt, cfg.WorkerConcurrency, sink, a.logger)
		opts = append(opts, audit.WithQueue(a.queue))
	}
	return audit.NewRecorder(sink, opts...)
}

func (a *App) userDirectory(users pipeline.Repository[*models.SystemUser]) tenant.UserTenantLookup {
	if mem, ok := users.(*store.MemoryRepository[*models.SystemUser]); ok {
		return store.NewMemoryUserDirectory(mem)
	}
	return store.NewPostgresUserDirectory(a.db.SQL)
}

func (a *App) buildEntities(deps pipeline.Deps, users pipeline.Repository[*models.SystemUser]) ([]httptransport.EntityRoutes, *screen.Registry, error) {
	rules := a.cfg.RateLimit.Rules
	b := &entityBuilder{deps: deps, logger: a.logger, screens: screen.NewRegistry()}

	b.add("departments", withRepo(a.db, store.DepartmentTable, policy.Department(rules)))
	b.add("employees", withRepo(a.db, store.EmployeeTable, policy.Employee(rules)))
	b.add("dependents", withRepo(a.db, store.DependentTable, policy.Dependent(rules)))
	b.add("medicines", withRepo(a.db, store.MedicineTable, policy.Medicine(rules)))
	b.add("diagnoses", withRepo(a.db, store.DiagnosisTable, policy.Diagnosis(rules)))
	b.add("ambulances", withRepo(a.db, store.AmbulanceTable, policy.Ambulance(rules)))
	b.add("immunizations", withRepo(a.db, store.ImmunizationTable, policy.Immunization(rules)))
	b.add("medical-exams", withRepo(a.db, store.MedicalExamTable, policy.MedicalExam(rules)))
	b.add("users", entityFactoryFor(policy.SystemUser(rules, a.cfg.Auth.BcryptCost), users))
	b.add("roles", withRepo(a.db, store.RoleTable, policy.Role(rules)))

	if b.err != nil {
		return nil, nil, b.err
	}
	return b.routes, b.screens, nil
}

// entityBuilder collects routes and screens, keeping the first error.
type entityBuilder struct {
	deps    pipeline.Deps
	logger  *slog.Logger
	screens *screen.Registry
	routes  []httptransport.EntityRoutes
	err     error
}

// entityFactory defers pipeline construction until the shared deps are known.
type entityFactory func(deps pipeline.Deps, logger *slog.Logger) (handler httptransport.Registrar, entityType string, err error)

func (b *entityBuilder) add(path string, build entityFactory) {
	if b.err != nil {
		return
	}
	h, entityType, err := build(b.deps, b.logger)
	if err != nil {
		b.err = fmt.Errorf("build %s pipeline: %w", path, err)
		return
	}
	if err := b.screens.Register(screen.Screen{Name: path, EntityType: entityType, Path: "/api/" + path}); err != nil {
		b.err = err
		return
	}
	b.routes = append(b.routes, httptransport.EntityRoutes{Path: path, Handler: h})
}

func entityFactoryFor[E pipeline.Entity](pol pipeline.Policy[E], repo pipeline.Repository[E]) entityFactory {
	return func(deps pipeline.Deps, logger *slog.Logger) (httptransport.Registrar, string, error) {
		p, err := pipeline.New(pol, repo, deps)
		if err != nil {
			return nil, "", err
		}
		return handler.ForPipeline(p, logger), pol.EntityType, nil
	}
}

func withRepo[E pipeline.Entity](db *postgres.DB, table store.Table[E], pol pipeline.Policy[E]) entityFactory {
	return entityFactoryFor(pol, newRepository(db, table, pol.Uniques))
}

func newRepository[E pipeline.Entity](db *postgres.DB, table store.Table[E], uniques []pipeline.UniqueRule[E]) pipeline.Repository[E] {
	if db != nil {
		return store.NewPostgresRepository(db.SQL, table)
	}
	return store.NewMemoryRepository(uniques)
}
