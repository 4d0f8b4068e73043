package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/surigaorunners/racereg/internal/config"
	"github.com/surigaorunners/racereg/internal/db"
	"github.com/surigaorunners/racereg/internal/notifications"
	"github.com/surigaorunners/racereg/internal/observability"
	"github.com/surigaorunners/racereg/internal/queue/worker"
	"github.com/surigaorunners/racereg/internal/repo/postgres"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	promReg := prometheus.NewRegistry()
	prom := observability.NewProm(promReg)

	jobsRepo := postgres.NewJobsRepo(pool, prom)
	runnersRepo := postgres.NewRunnersRepo(pool, prom)

	var notifier notifications.Notifier
	if cfg.MailProvider == "ses" {
		notifier = notifications.NewSESNotifier(notifications.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretKey,
			FromAddress:     cfg.MailFromAddress,
			FromName:        cfg.MailFromName,
		})
	} else {
		notifier = notifications.NewLogNotifier()
	}

	protected := notifications.NewProtectedNotifier(notifier, notifications.ProtectedNotifierConfig{
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		HalfOpenMaxCalls: 2,
	})

	w := worker.New(worker.Config{
		PollInterval: cfg.WorkerPollInterval,
	}, jobsRepo, runnersRepo, protected, log, prom)

	// stale locks from crashed workers go back to pending
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rctx, cancel := config.WithTimeout(5 * time.Second)
				n, err := jobsRepo.RequeueStaleProcessing(rctx, 2*time.Minute)
				cancel()
				if err != nil {
					log.Error("requeue stale", "error", err)
				} else if n > 0 {
					log.Info("requeued stale jobs", "count", n)
				}
			}
		}
	}()

	// probes on a side port
	probes := &http.Server{
		Addr:              ":9091",
		Handler:           w.HealthHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := probes.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("probe server failed", "err", err)
		}
	}()

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = probes.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}
