package app

import (
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/stitchbook/stitchbook/internal/auth"
	"github.com/stitchbook/stitchbook/internal/ledger"
	ledgerhttp "github.com/stitchbook/stitchbook/internal/ledger/http"
	"github.com/stitchbook/stitchbook/internal/observability"
	"github.com/stitchbook/stitchbook/internal/rbac"
	"github.com/stitchbook/stitchbook/internal/reports"
	reportshttp "github.com/stitchbook/stitchbook/internal/reports/http"
	"github.com/stitchbook/stitchbook/internal/shared"
	"github.com/stitchbook/stitchbook/internal/users"
	"github.com/stitchbook/stitchbook/jobs"
)

// Deps are the process level resources the services are built on.
type Deps struct {
	Config    *Config
	Logger    *slog.Logger
	Redis     *redis.Client
	Ledger    ledger.Repository
	Users     users.RepositoryPort
	Metrics   *observability.Metrics
	Inspector *asynq.Inspector
	Ready     func(r *http.Request) error
}

// Services bundles the domain services shared by the API, the worker and
// the CLI.
type Services struct {
	Ledger  *ledger.Service
	Reports *reports.Service
	Cache   *reports.Cache
	Users   *users.Service
	Auth    *auth.Service
	RBAC    *rbac.Service
}

// NewServices wires the domain services. Committed ledger mutations fan out
// to the report cache and the mutation counter.
func NewServices(deps Deps) *Services {
	cfg := deps.Config
	ledgerSvc := ledger.NewService(deps.Ledger, ledger.Config{
		Policy:   cfg.LedgerPolicy(),
		Location: cfg.Location(),
		Logger:   deps.Logger,
	})
	cache := reports.NewCache(deps.Redis, cfg.ReportsCacheTTL)
	reportsSvc := reports.NewService(ledgerSvc, reports.Config{
		Initial: cfg.InitialBalance(),
		Cache:   cache,
		Logger:  deps.Logger,
	})
	ledgerSvc.AddHook(reportsSvc)
	if deps.Metrics != nil {
		ledgerSvc.AddHook(deps.Metrics)
	}

	userSvc := users.NewService(deps.Users, deps.Logger, cfg.BcryptCost)
	return &Services{
		Ledger:  ledgerSvc,
		Reports: reportsSvc,
		Cache:   cache,
		Users:   userSvc,
		Auth:    auth.NewService(deps.Users),
		RBAC:    rbac.NewService(userSvc),
	}
}

// NewAPI builds the HTTP handler tree over svc.
func NewAPI(deps Deps, svc *Services) http.Handler {
	cfg := deps.Config
	logger := deps.Logger
	sessions := shared.NewSessionManager(deps.Redis, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrf := shared.NewCSRFManager(cfg.CSRFSecret)
	idempotency := shared.NewIdempotencyStore(deps.Redis, cfg.IdempotencyTTL)
	guard := rbac.Middleware{Service: svc.RBAC, Logger: logger}

	return NewRouter(RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessions,
		CSRFManager:        csrf,
		RBACMiddleware:     guard,
		AuthHandler:        auth.NewHandler(logger, svc.Auth, sessions, csrf, guard, cfg.LoginRateLimit),
		UsersHandler:       users.NewHandler(logger, svc.Users, guard),
		LedgerHandler:      ledgerhttp.NewHandler(logger, svc.Ledger, idempotency, guard),
		ReportsHandler:     reportshttp.NewHandler(logger, svc.Reports, guard),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, svc.RBAC, guard),
		JobHandler:         jobs.NewHandler(deps.Inspector, logger),
		Metrics:            deps.Metrics,
		Ready:              deps.Ready,
	})
}
