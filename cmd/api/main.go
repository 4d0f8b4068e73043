package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/surigaorunners/racereg/internal/auth"
	"github.com/surigaorunners/racereg/internal/config"
	"github.com/surigaorunners/racereg/internal/db"
	httpx "github.com/surigaorunners/racereg/internal/http"
	"github.com/surigaorunners/racereg/internal/observability"
	"github.com/surigaorunners/racereg/internal/queue/redisclient"
	"github.com/surigaorunners/racereg/internal/storage"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	// tracing is optional; without an endpoint spans are dropped
	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(context.Background(), "racereg-api", cfg.OTLPEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdown(ctx)
			}()
		}
	}

	pool, err := db.NewPool(cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	promReg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(promReg)

	seedCtx, cancelSeed := config.WithTimeout(5 * time.Second)
	if err := db.EnsureAdminUser(seedCtx, pool, prom, cfg); err != nil {
		log.Error("admin seed failed", "err", err)
	}
	cancelSeed()

	files, err := storage.New(cfg.MediaDir)
	if err != nil {
		log.Error("media dir init failed", "err", err)
		os.Exit(1)
	}

	jwtManager := auth.NewManager(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
	)

	deps := httpx.Deps{
		Cfg:     cfg,
		Log:     log,
		Pool:    pool,
		Prom:    prom,
		PromReg: promReg,
		Files:   files,
		JWT:     jwtManager,
	}

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rc.Close()

		deps.Redis = rc.Raw()
		deps.PingRedis = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()
			return rc.Ping(ctx)
		}
	}

	router := httpx.NewRouter(deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
