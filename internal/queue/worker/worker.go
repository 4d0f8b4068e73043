package worker

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/surigaorunners/racereg/internal/domain/job"
	"github.com/surigaorunners/racereg/internal/domain/runner"
	"github.com/surigaorunners/racereg/internal/notifications"
	"github.com/surigaorunners/racereg/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, reason string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, reason string) error
}

type RunnerDetails interface {
	GetDetail(ctx context.Context, id string) (runner.Detail, error)
}

type Config struct {
	PollInterval time.Duration
	WorkerID     string
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	runners  RunnerDetails
	notifier notifications.Notifier
	log      *slog.Logger
	prom     *observability.Prom

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo JobsRepository, runners RunnerDetails, notifier notifications.Notifier, log *slog.Logger, prom *observability.Prom) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.WorkerID == "" {
		host, _ := os.Hostname()
		cfg.WorkerID = fmt.Sprintf("%s-%d", host, os.Getpid())
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		runners:  runners,
		notifier: notifier,
		log:      log,
		prom:     prom,
	}
}

// Run polls until the context is cancelled. Each tick drains every
// claimable job so a burst of verifications does not wait one poll
// interval per email.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.log.Info("worker started", "worker_id", w.cfg.WorkerID, "poll_interval", w.cfg.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker received shutdown signal")
			return nil

		case <-ticker.C:
			for {
				processed, err := w.ProcessOne(ctx)
				if err != nil {
					w.log.Error("process job", "error", err)
					break
				}
				if !processed {
					break
				}
			}
		}
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

// HealthHandler serves the worker's liveness and readiness probes on
// a side port, separate from the API.
func (w *Worker) HealthHandler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	r.GET("/readyz", func(c *gin.Context) {
		w.readyMu.RLock()
		ready := w.ready
		w.readyMu.RUnlock()

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	return r
}
