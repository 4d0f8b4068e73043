package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/surigaorunners/racereg/internal/config"
	"github.com/surigaorunners/racereg/internal/reports"
)

// StatsHandler serves the admin dashboard aggregates over the same
// criteria vocabulary as the export.
type StatsHandler struct {
	runners RunnerFilterer
}

func NewStatsHandler(runners RunnerFilterer) *StatsHandler {
	return &StatsHandler{runners: runners}
}

func (h *StatsHandler) Stats(ctx *gin.Context) {
	c, ok := parseCriteria(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	details, err := h.runners.Filter(cctx, c)
	if err != nil {
		RespondInternal(ctx, "Could not compute stats")
		return
	}

	ctx.JSON(http.StatusOK, reports.ComputeStats(details))
}
