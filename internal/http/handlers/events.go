package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/surigaorunners/racereg/internal/cache"
	"github.com/surigaorunners/racereg/internal/clock"
	"github.com/surigaorunners/racereg/internal/config"
	"github.com/surigaorunners/racereg/internal/domain/event"
	"github.com/surigaorunners/racereg/internal/storage"
	"github.com/surigaorunners/racereg/internal/utils"
)

type EventStore interface {
	Create(ctx context.Context, ev event.Event) (event.Event, error)
	GetByID(ctx context.Context, id string) (event.Event, error)
	List(ctx context.Context, upcomingOnly bool, today time.Time) ([]event.Event, error)
	Update(ctx context.Context, ev event.Event) error
	Delete(ctx context.Context, id string) error
}

type EventsHandler struct {
	repo  EventStore
	clk   clock.Clock
	cache *cache.EventCache
	files *storage.Store
}

func NewEventsHandler(repo EventStore, clk clock.Clock, eventCache *cache.EventCache, files *storage.Store) *EventsHandler {
	return &EventsHandler{repo: repo, clk: clk, cache: eventCache, files: files}
}

const maxPosterSize = 5 * 1024 * 1024

// ListEvents is the public listing. It shows events on or after today,
// which is what the registration form needs. ?all=true widens it to the
// full history for the admin console.
func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	upcoming := ctx.Query("all") != "true"

	cacheKey := "events:all"
	if upcoming {
		cacheKey = "events:upcoming"
	}

	if h.cache != nil {
		if raw, ok := h.cache.Get(ctx.Request.Context(), cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", raw)
			return
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	events, err := h.repo.List(cctx, upcoming, clock.Today(h.clk))
	if err != nil {
		RespondInternal(ctx, "Could not list events")
		return
	}

	body := gin.H{
		"items": events,
		"count": len(events),
	}

	if h.cache != nil {
		if raw, err := json.Marshal(body); err == nil {
			h.cache.Set(ctx.Request.Context(), cacheKey, raw)
		}
	}

	ctx.JSON(http.StatusOK, body)
}

func (h *EventsHandler) GetEventByID(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Event not found")
		return
	}

	if h.cache != nil {
		if raw, ok := h.cache.Get(ctx.Request.Context(), "event:"+id); ok {
			ctx.Data(http.StatusOK, "application/json", raw)
			return
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	ev, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not fetch event")
		return
	}

	if h.cache != nil {
		if raw, err := json.Marshal(ev); err == nil {
			h.cache.Set(ctx.Request.Context(), "event:"+id, raw)
		}
	}

	ctx.JSON(http.StatusOK, ev)
}

// Admin surface

func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	var req event.CreateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	ev, err := event.NewFromCreateRequest(req, h.clk.Now())
	if err != nil {
		RespondBadRequest(ctx, "Invalid date", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	created, err := h.repo.Create(cctx, ev)
	if err != nil {
		RespondInternal(ctx, "Could not create event")
		return
	}

	h.invalidateListings(ctx.Request.Context(), created.ID)
	ctx.JSON(http.StatusCreated, created)
}

func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Event not found")
		return
	}

	var req event.UpdateEventRequest
	if !BindJSON(ctx, &req) {
		return
	}

	date, deadline, err := event.ParseUpdateRequest(req)
	if err != nil {
		RespondBadRequest(ctx, "Invalid date", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	ev, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not update event")
		return
	}

	ev.Name = req.Name
	ev.Date = date
	ev.Description = req.Description
	ev.RegistrationDeadline = deadline
	ev.UpdatedAt = h.clk.Now()

	if err := h.repo.Update(cctx, ev); err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not update event")
		return
	}

	h.invalidateListings(ctx.Request.Context(), id)
	ctx.JSON(http.StatusOK, ev)
}

func (h *EventsHandler) DeleteEvent(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Event not found")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.repo.Delete(cctx, id); err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not delete event")
		return
	}

	h.invalidateListings(ctx.Request.Context(), id)
	ctx.Status(http.StatusNoContent)
}

// UploadPoster replaces the event poster image.
func (h *EventsHandler) UploadPoster(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Event not found")
		return
	}

	fh, err := ctx.FormFile("poster")
	if err != nil {
		RespondBadRequest(ctx, "Poster file is required", nil)
		return
	}
	if fh.Size > maxPosterSize {
		RespondValidation(ctx, "file_too_large", "Poster must be 5 MB or smaller.")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	ev, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not upload poster")
		return
	}

	path, err := h.files.Save("posters", fh)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedExtension) {
			RespondValidation(ctx, "invalid_poster", "Poster must be an image file.")
			return
		}
		RespondInternal(ctx, "Could not upload poster")
		return
	}

	old := ev.PosterPath
	ev.PosterPath = path
	ev.UpdatedAt = h.clk.Now()

	if err := h.repo.Update(cctx, ev); err != nil {
		_ = h.files.Remove(path)
		RespondInternal(ctx, "Could not upload poster")
		return
	}

	if old != "" {
		_ = h.files.Remove(old)
	}

	h.invalidateListings(ctx.Request.Context(), id)
	ctx.JSON(http.StatusOK, ev)
}

func (h *EventsHandler) invalidateListings(ctx context.Context, eventID string) {
	if h.cache == nil {
		return
	}
	h.cache.Invalidate(ctx, "events:all", "events:upcoming", "event:"+eventID, "distances:"+eventID)
}
