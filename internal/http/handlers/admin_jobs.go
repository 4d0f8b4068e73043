package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/surigaorunners/racereg/internal/config"
	"github.com/surigaorunners/racereg/internal/domain/job"
	"github.com/surigaorunners/racereg/internal/repo/postgres"
	"github.com/surigaorunners/racereg/internal/utils"
)

type JobAdminStore interface {
	ListCursor(ctx context.Context, status *string, limit int, afterUpdatedAt time.Time, afterID string) ([]job.Job, *string, bool, error)
	GetByID(ctx context.Context, id string) (job.Job, error)
	Retry(ctx context.Context, id string) error
	RetryManyFailed(ctx context.Context, limit int) (int64, error)
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

// AdminJobsHandler is the ops window into the notification queue.
type AdminJobsHandler struct {
	jobs JobAdminStore
}

func NewAdminJobsHandler(jobs JobAdminStore) *AdminJobsHandler {
	return &AdminJobsHandler{jobs: jobs}
}

func (h *AdminJobsHandler) ListJobs(ctx *gin.Context) {
	var status *string
	if v := ctx.Query("status"); v != "" {
		switch job.Status(v) {
		case job.StatusPending, job.StatusProcessing, job.StatusDone, job.StatusFailed:
			status = &v
		default:
			RespondBadRequest(ctx, "Invalid status filter", nil)
			return
		}
	}

	limit := defaultPageSize
	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			RespondBadRequest(ctx, "Invalid limit", nil)
			return
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		limit = n
	}

	// DESC keyset starts from "the future" when no cursor is given
	afterUpdatedAt := time.Now().UTC().Add(24 * time.Hour)
	afterID := "ffffffff-ffff-ffff-ffff-ffffffffffff"
	if raw := ctx.Query("cursor"); raw != "" {
		cur, err := utils.DecodeJobCursor(raw)
		if err != nil {
			RespondBadRequest(ctx, "Invalid cursor", nil)
			return
		}
		afterUpdatedAt = cur.UpdatedAt
		afterID = cur.ID
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	items, nextCursor, hasMore, err := h.jobs.ListCursor(cctx, status, limit, afterUpdatedAt, afterID)
	if err != nil {
		RespondInternal(ctx, "Could not list jobs")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":      items,
		"count":      len(items),
		"nextCursor": nextCursor,
		"hasMore":    hasMore,
	})
}

func (h *AdminJobsHandler) GetJob(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Job not found")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	j, err := h.jobs.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			RespondNotFound(ctx, "Job not found")
			return
		}
		RespondInternal(ctx, "Could not fetch job")
		return
	}

	ctx.JSON(http.StatusOK, j)
}

func (h *AdminJobsHandler) RetryJob(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Job not found")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.jobs.Retry(cctx, id); err != nil {
		switch {
		case errors.Is(err, job.ErrJobNotFound):
			RespondNotFound(ctx, "Job not found")
		case errors.Is(err, postgres.ErrJobNotFailed):
			RespondConflict(ctx, "job_not_failed", "Only failed jobs can be retried.")
		default:
			RespondInternal(ctx, "Could not retry job")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "requeued"})
}

func (h *AdminJobsHandler) RetryFailedJobs(ctx *gin.Context) {
	limit := 50
	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			RespondBadRequest(ctx, "Invalid limit", nil)
			return
		}
		limit = n
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	n, err := h.jobs.RetryManyFailed(cctx, limit)
	if err != nil {
		RespondInternal(ctx, "Could not requeue failed jobs")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"requeued": n})
}

func (h *AdminJobsHandler) RequeueStale(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	n, err := h.jobs.RequeueStaleProcessing(cctx, 2*time.Minute)
	if err != nil {
		RespondInternal(ctx, "Could not requeue stale jobs")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"requeued": n})
}
