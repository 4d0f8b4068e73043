package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/surigaorunners/racereg/internal/auth"
	"github.com/surigaorunners/racereg/internal/cache"
	"github.com/surigaorunners/racereg/internal/clock"
	"github.com/surigaorunners/racereg/internal/config"
	"github.com/surigaorunners/racereg/internal/domain/runner"
	"github.com/surigaorunners/racereg/internal/http/handlers"
	"github.com/surigaorunners/racereg/internal/http/middlewares"
	"github.com/surigaorunners/racereg/internal/observability"
	"github.com/surigaorunners/racereg/internal/repo/postgres"
	"github.com/surigaorunners/racereg/internal/storage"
)

type Deps struct {
	Cfg       config.Config
	Log       *slog.Logger
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	Prom      *observability.Prom
	PromReg   *prometheus.Registry
	Files     *storage.Store
	JWT       *auth.Manager
	Clock     clock.Clock
	PingRedis func() error
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("racereg-api"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSAllowedOrigins))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	// repositories
	eventsRepo := postgres.NewEventsRepo(d.Pool, d.Prom)
	distancesRepo := postgres.NewDistancesRepo(d.Pool, d.Prom)
	runnersRepo := postgres.NewRunnersRepo(d.Pool, d.Prom)
	usersRepo := postgres.NewUsersRepo(d.Pool, d.Prom)
	refreshRepo := postgres.NewRefreshTokensRepo(d.Pool, d.Prom)
	jobsRepo := postgres.NewJobsRepo(d.Pool, d.Prom)

	registrationFlow := postgres.NewRegistrationFlow(runnersRepo, jobsRepo)
	verificationFlow := postgres.NewVerificationFlow(runnersRepo, jobsRepo)

	eventCache := cache.NewEventCache(d.Redis, 30*time.Second)

	// handlers
	pingDB := func() error {
		if d.Pool == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		return d.Pool.Ping(ctx)
	}

	healthHandler := handlers.NewHealthHandler(pingDB, d.PingRedis)
	authHandler := handlers.NewAuthHandler(usersRepo, d.JWT, refreshRepo, d.Cfg)
	eventsHandler := handlers.NewEventsHandler(eventsRepo, d.Clock, eventCache, d.Files)
	distancesHandler := handlers.NewDistancesHandler(distancesRepo, d.Clock, eventCache)
	registrationsHandler := handlers.NewRegistrationsHandler(eventsRepo, &registrationStore{runnersRepo, registrationFlow}, d.Files, d.Clock, d.Prom)
	runnersHandler := handlers.NewRunnersHandler(runnersRepo, verificationFlow, eventsRepo)
	exportHandler := handlers.NewExportHandler(runnersRepo, eventsRepo, d.Clock)
	statsHandler := handlers.NewStatsHandler(runnersRepo)
	adminJobsHandler := handlers.NewAdminJobsHandler(jobsRepo)

	authMW := middlewares.NewAuthMiddleware(d.JWT)

	// probes and metrics
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)
	if d.PromReg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.PromReg, promhttp.HandlerOpts{})))
	}

	// uploaded posters and receipts
	if d.Files != nil {
		r.Static("/media", d.Files.Root())
	}

	// public surface
	r.GET("/events", eventsHandler.ListEvents)
	r.GET("/events/:id", eventsHandler.GetEventByID)
	r.GET("/distances", distancesHandler.ListByEvent)

	registerLimiter := middlewares.NewRateLimiter(10, time.Minute)
	r.POST("/register",
		middlewares.MaxBodyBytes(8<<20),
		registerLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		registrationsHandler.Register,
	)

	// auth surface
	loginLimiter := middlewares.NewRateLimiter(20, time.Minute)
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// staff surface
	admin := r.Group("/admin", authMW.RequireAuth(), authMW.RequireRole(d.Cfg.AdminRole))
	{
		admin.POST("/events", eventsHandler.CreateEvent)
		admin.PUT("/events/:id", eventsHandler.UpdateEvent)
		admin.DELETE("/events/:id", eventsHandler.DeleteEvent)
		admin.POST("/events/:id/poster", middlewares.MaxBodyBytes(8<<20), eventsHandler.UploadPoster)

		admin.POST("/distances", distancesHandler.CreateDistance)
		admin.PUT("/distances/:id", distancesHandler.UpdateDistance)
		admin.DELETE("/distances/:id", distancesHandler.DeleteDistance)

		admin.GET("/runners", runnersHandler.ListRunners)
		// staff enter walk-in registrants through the same form and rules
		admin.POST("/runners", middlewares.MaxBodyBytes(8<<20), registrationsHandler.Register)
		admin.GET("/runners/export", exportHandler.Export)
		admin.GET("/runners/:id", runnersHandler.GetRunner)
		admin.PUT("/runners/:id", runnersHandler.UpdateRunner)
		admin.DELETE("/runners/:id", runnersHandler.DeleteRunner)
		admin.PATCH("/runners/:id/verify", runnersHandler.VerifyRunner)
		admin.POST("/runners/:id/bib", runnersHandler.AssignBib)

		admin.GET("/stats", statsHandler.Stats)

		admin.GET("/jobs", adminJobsHandler.ListJobs)
		admin.GET("/jobs/:id", adminJobsHandler.GetJob)
		admin.POST("/jobs/:id/retry", adminJobsHandler.RetryJob)
		admin.POST("/jobs/retry-failed", adminJobsHandler.RetryFailedJobs)
		admin.POST("/jobs/requeue-stale", adminJobsHandler.RequeueStale)
	}

	return r
}

// registrationStore pairs the read side of the runners repo with the
// transactional create-plus-ack flow behind one interface.
type registrationStore struct {
	*postgres.RunnersRepo
	flow *postgres.RegistrationFlow
}

func (s *registrationStore) CreateWithAck(ctx context.Context, r runner.Runner) (runner.Runner, error) {
	return s.flow.CreateWithAck(ctx, r)
}
