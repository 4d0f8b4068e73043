package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/surigaorunners/racereg/internal/cache"
	"github.com/surigaorunners/racereg/internal/clock"
	"github.com/surigaorunners/racereg/internal/config"
	"github.com/surigaorunners/racereg/internal/domain/distance"
	"github.com/surigaorunners/racereg/internal/domain/event"
	"github.com/surigaorunners/racereg/internal/utils"
)

type DistanceStore interface {
	Create(ctx context.Context, d distance.Distance) (distance.Distance, error)
	GetByID(ctx context.Context, id string) (distance.Distance, error)
	ListByEvent(ctx context.Context, eventID string) ([]distance.Distance, error)
	Update(ctx context.Context, d distance.Distance) error
	Delete(ctx context.Context, id string) error
}

type DistancesHandler struct {
	repo  DistanceStore
	clk   clock.Clock
	cache *cache.EventCache
}

func NewDistancesHandler(repo DistanceStore, clk clock.Clock, eventCache *cache.EventCache) *DistancesHandler {
	return &DistancesHandler{repo: repo, clk: clk, cache: eventCache}
}

// ListByEvent backs the dependent distance dropdown on the public
// form. An unknown or empty event id yields an empty list, never an
// error: the form resets its options instead of breaking.
func (h *DistancesHandler) ListByEvent(ctx *gin.Context) {
	eventID := ctx.Query("event_id")

	if eventID == "" || !utils.IsUUID(eventID) {
		ctx.JSON(http.StatusOK, gin.H{"items": []distance.Distance{}, "count": 0})
		return
	}

	if h.cache != nil {
		if raw, ok := h.cache.Get(ctx.Request.Context(), "distances:"+eventID); ok {
			ctx.Data(http.StatusOK, "application/json", raw)
			return
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	ds, err := h.repo.ListByEvent(cctx, eventID)
	if err != nil {
		// same contract under storage trouble: empty options
		ctx.JSON(http.StatusOK, gin.H{"items": []distance.Distance{}, "count": 0})
		return
	}

	body := gin.H{"items": ds, "count": len(ds)}

	if h.cache != nil {
		if raw, err := json.Marshal(body); err == nil {
			h.cache.Set(ctx.Request.Context(), "distances:"+eventID, raw)
		}
	}

	ctx.JSON(http.StatusOK, body)
}

// Admin surface

func (h *DistancesHandler) CreateDistance(ctx *gin.Context) {
	var req distance.CreateDistanceRequest

	if !BindJSON(ctx, &req) {
		return
	}

	label, err := distance.NormalizeLabel(req.Label)
	if err != nil {
		RespondValidation(ctx, "invalid_label", "Distance label must contain a numeric part.")
		return
	}

	now := h.clk.Now()
	d := distance.Distance{
		ID:        uuid.NewString(),
		EventID:   req.EventID,
		Label:     label,
		Fee:       req.Fee,
		CreatedAt: now,
		UpdatedAt: now,
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	created, err := h.repo.Create(cctx, d)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not create distance")
		return
	}

	h.invalidate(ctx, created.EventID)
	ctx.JSON(http.StatusCreated, created)
}

func (h *DistancesHandler) UpdateDistance(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Distance not found")
		return
	}

	var req distance.UpdateDistanceRequest
	if !BindJSON(ctx, &req) {
		return
	}

	label, err := distance.NormalizeLabel(req.Label)
	if err != nil {
		RespondValidation(ctx, "invalid_label", "Distance label must contain a numeric part.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	d, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, distance.ErrNotFound) {
			RespondNotFound(ctx, "Distance not found")
			return
		}
		RespondInternal(ctx, "Could not update distance")
		return
	}

	d.Label = label
	d.Fee = req.Fee
	d.UpdatedAt = h.clk.Now()

	if err := h.repo.Update(cctx, d); err != nil {
		if errors.Is(err, distance.ErrNotFound) {
			RespondNotFound(ctx, "Distance not found")
			return
		}
		RespondInternal(ctx, "Could not update distance")
		return
	}

	h.invalidate(ctx, d.EventID)
	ctx.JSON(http.StatusOK, d)
}

func (h *DistancesHandler) DeleteDistance(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Distance not found")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	d, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, distance.ErrNotFound) {
			RespondNotFound(ctx, "Distance not found")
			return
		}
		RespondInternal(ctx, "Could not delete distance")
		return
	}

	if err := h.repo.Delete(cctx, id); err != nil {
		if errors.Is(err, distance.ErrNotFound) {
			RespondNotFound(ctx, "Distance not found")
			return
		}
		RespondInternal(ctx, "Could not delete distance")
		return
	}

	h.invalidate(ctx, d.EventID)
	ctx.Status(http.StatusNoContent)
}

func (h *DistancesHandler) invalidate(ctx *gin.Context, eventID string) {
	if h.cache == nil {
		return
	}
	h.cache.Invalidate(ctx.Request.Context(),
		"distances:"+eventID, "event:"+eventID, "events:all", "events:upcoming")
}
