package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/surigaorunners/racereg/internal/config"
	"github.com/surigaorunners/racereg/internal/domain/runner"
	"github.com/surigaorunners/racereg/internal/reports"
	"github.com/surigaorunners/racereg/internal/utils"
)

type RunnerAdminStore interface {
	ListCursor(ctx context.Context, c reports.Criteria, limit int, afterCreatedAt time.Time, afterID string) ([]runner.Runner, *string, bool, error)
	GetDetail(ctx context.Context, id string) (runner.Detail, error)
	Update(ctx context.Context, r runner.Runner) error
	Delete(ctx context.Context, id string) error
	AllocateBib(ctx context.Context, id string) (string, error)
}

type RunnerVerifier interface {
	SetVerified(ctx context.Context, id string, verified bool) (runner.Runner, bool, error)
}

// RunnersHandler is the staff-facing runner administration surface.
type RunnersHandler struct {
	runners  RunnerAdminStore
	verifier RunnerVerifier
	events   EventGetter
}

func NewRunnersHandler(runners RunnerAdminStore, verifier RunnerVerifier, events EventGetter) *RunnersHandler {
	return &RunnersHandler{runners: runners, verifier: verifier, events: events}
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// parseCriteria reads the shared filter params. Invalid values are
// rejected rather than silently ignored so a typo in a saved link
// doesn't quietly widen an export.
func parseCriteria(ctx *gin.Context) (reports.Criteria, bool) {
	var c reports.Criteria

	if v := ctx.Query("event_id"); v != "" {
		if !utils.IsUUID(v) {
			RespondBadRequest(ctx, "Invalid event_id filter", nil)
			return c, false
		}
		c.EventID = &v
	}
	if v := ctx.Query("distance_id"); v != "" {
		if !utils.IsUUID(v) {
			RespondBadRequest(ctx, "Invalid distance_id filter", nil)
			return c, false
		}
		c.DistanceID = &v
	}
	if v := ctx.Query("shirt_size"); v != "" {
		size := runner.ShirtSize(strings.ToUpper(v))
		if !size.Valid() {
			RespondBadRequest(ctx, "Invalid shirt_size filter", nil)
			return c, false
		}
		c.ShirtSize = &size
	}
	if v := ctx.Query("gender"); v != "" {
		g := runner.Gender(strings.ToUpper(v))
		if !g.Valid() {
			RespondBadRequest(ctx, "Invalid gender filter", nil)
			return c, false
		}
		c.Gender = &g
	}
	if v := ctx.Query("verified"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			RespondBadRequest(ctx, "Invalid verified filter", nil)
			return c, false
		}
		c.Verified = &b
	}
	if v := ctx.Query("age_category"); v != "" {
		cat := reports.AgeCategory(v)
		if !cat.Valid() {
			RespondBadRequest(ctx, "Invalid age_category filter", nil)
			return c, false
		}
		c.AgeCategory = &cat
	}

	return c, true
}

func (h *RunnersHandler) ListRunners(ctx *gin.Context) {
	c, ok := parseCriteria(ctx)
	if !ok {
		return
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

	afterCreatedAt := time.Time{}
	afterID := ""
	if raw := ctx.Query("cursor"); raw != "" {
		cur, err := utils.DecodeRunnerCursor(raw)
		if err != nil {
			RespondBadRequest(ctx, "Invalid cursor", nil)
			return
		}
		afterCreatedAt = cur.CreatedAt
		afterID = cur.ID
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	items, nextCursor, hasMore, err := h.runners.ListCursor(cctx, c, limit, afterCreatedAt, afterID)
	if err != nil {
		RespondInternal(ctx, "Could not list runners")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":      items,
		"count":      len(items),
		"nextCursor": nextCursor,
		"hasMore":    hasMore,
	})
}

func (h *RunnersHandler) GetRunner(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Runner not found")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	d, err := h.runners.GetDetail(cctx, id)
	if err != nil {
		if errors.Is(err, runner.ErrNotFound) {
			RespondNotFound(ctx, "Runner not found")
			return
		}
		RespondInternal(ctx, "Could not fetch runner")
		return
	}

	ctx.JSON(http.StatusOK, d)
}

func (h *RunnersHandler) UpdateRunner(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Runner not found")
		return
	}

	var req runner.UpdateRunnerRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	d, err := h.runners.GetDetail(cctx, id)
	if err != nil {
		if errors.Is(err, runner.ErrNotFound) {
			RespondNotFound(ctx, "Runner not found")
			return
		}
		RespondInternal(ctx, "Could not update runner")
		return
	}

	// a moved runner still has to land on a distance of the same event
	if req.DistanceID != d.DistanceID {
		ev, err := h.events.GetByID(cctx, d.EventID)
		if err != nil {
			RespondInternal(ctx, "Could not update runner")
			return
		}
		if !eventHasDistance(ev, req.DistanceID) {
			RespondValidation(ctx, "distance_not_in_event", "Selected distance does not belong to this event.")
			return
		}
	}

	updated := d.Runner
	updated.DistanceID = req.DistanceID
	updated.FirstName = strings.TrimSpace(req.FirstName)
	updated.LastName = strings.TrimSpace(req.LastName)
	updated.Email = strings.ToLower(strings.TrimSpace(req.Email))
	updated.ContactNumber = strings.TrimSpace(req.ContactNumber)
	updated.Age = req.Age
	updated.Gender = runner.Gender(req.Gender)
	updated.ShirtSize = runner.ShirtSize(req.ShirtSize)
	updated.EmergencyContactName = req.EmergencyContactName
	updated.EmergencyContactNumber = req.EmergencyContactNumber

	if err := h.runners.Update(cctx, updated); err != nil {
		if errors.Is(err, runner.ErrNotFound) {
			RespondNotFound(ctx, "Runner not found")
			return
		}
		if errors.Is(err, runner.ErrDuplicateEmail) {
			RespondConflict(ctx, "duplicate_email", "This email is already registered for this event.")
			return
		}
		RespondInternal(ctx, "Could not update runner")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *RunnersHandler) DeleteRunner(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Runner not found")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.runners.Delete(cctx, id); err != nil {
		if errors.Is(err, runner.ErrNotFound) {
			RespondNotFound(ctx, "Runner not found")
			return
		}
		RespondInternal(ctx, "Could not delete runner")
		return
	}

	ctx.Status(http.StatusNoContent)
}

type VerifyRequest struct {
	IsVerified *bool `json:"isVerified" binding:"required"`
}

// VerifyRunner flips the payment verification flag. The confirmation
// email fires only when the flag goes false to true; re-saving an
// already verified runner is a no-op.
func (h *RunnersHandler) VerifyRunner(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Runner not found")
		return
	}

	var req VerifyRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	r, changed, err := h.verifier.SetVerified(cctx, id, *req.IsVerified)
	if err != nil {
		if errors.Is(err, runner.ErrNotFound) {
			RespondNotFound(ctx, "Runner not found")
			return
		}
		RespondInternal(ctx, "Could not update verification")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"runner":  r,
		"changed": changed,
	})
}

// AssignBib allocates the next free bib number for the runner's
// distance.
func (h *RunnersHandler) AssignBib(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Runner not found")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	assigned, err := h.runners.AllocateBib(cctx, id)
	if err != nil {
		switch {
		case errors.Is(err, runner.ErrNotFound):
			RespondNotFound(ctx, "Runner not found")
		case errors.Is(err, runner.ErrAlreadyHasBib):
			RespondConflict(ctx, "bib_already_assigned", "Runner already has a bib number.")
		default:
			RespondInternal(ctx, "Could not assign bib number")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":        id,
		"bibNumber": assigned,
	})
}
