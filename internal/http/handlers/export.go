package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/surigaorunners/racereg/internal/clock"
	"github.com/surigaorunners/racereg/internal/config"
	"github.com/surigaorunners/racereg/internal/domain/event"
	"github.com/surigaorunners/racereg/internal/domain/runner"
	"github.com/surigaorunners/racereg/internal/reports"
)

type RunnerFilterer interface {
	Filter(ctx context.Context, c reports.Criteria) ([]runner.Detail, error)
}

// ExportHandler renders the filtered runner list as a spreadsheet.
type ExportHandler struct {
	runners RunnerFilterer
	events  EventLister
	clk     clock.Clock
}

type EventLister interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	List(ctx context.Context, upcomingOnly bool, today time.Time) ([]event.Event, error)
}

func NewExportHandler(runners RunnerFilterer, events EventLister, clk clock.Clock) *ExportHandler {
	return &ExportHandler{runners: runners, events: events, clk: clk}
}

// Export streams the workbook for the given criteria. With no criteria
// at all it instead returns the available filter options as JSON, so
// the admin UI can populate its form without a separate endpoint.
func (h *ExportHandler) Export(ctx *gin.Context) {
	c, ok := parseCriteria(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if c.Empty() {
		h.respondFilterOptions(ctx, cctx)
		return
	}

	details, err := h.runners.Filter(cctx, c)
	if err != nil {
		RespondInternal(ctx, "Could not export runners")
		return
	}

	x := reports.Export{
		Criteria:    c,
		Rows:        make([]reports.Row, 0, len(details)),
		GeneratedAt: h.clk.Now(),
	}

	for _, d := range details {
		x.Rows = append(x.Rows, reports.Row{
			ID:            d.ID,
			FirstName:     d.FirstName,
			LastName:      d.LastName,
			Email:         d.Email,
			DistanceLabel: d.DistanceLabel,
			Age:           d.Age,
			Gender:        d.Gender.Display(),
			ShirtSize:     string(d.ShirtSize),
		})
	}

	// display context for the summary line and the filename
	if len(details) > 0 {
		if c.EventID != nil {
			x.Summary.EventName = details[0].EventName
			x.Summary.EventDate = details[0].EventDate
			x.EventName = details[0].EventName
		}
		if c.DistanceID != nil {
			x.Summary.DistanceLabel = details[0].DistanceLabel
		}
	} else if c.EventID != nil {
		// no matches: still resolve the event for the header
		if name, date, ok := h.lookupEvent(cctx, *c.EventID); ok {
			x.Summary.EventName = name
			x.Summary.EventDate = date
			x.EventName = name
		}
	}

	body, err := reports.BuildWorkbook(x)
	if err != nil {
		RespondInternal(ctx, "Could not build workbook")
		return
	}

	filename := reports.Filename(x.EventName, x.GeneratedAt)
	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.Data(http.StatusOK, reports.ContentType(), body)
}

func (h *ExportHandler) lookupEvent(cctx context.Context, id string) (string, time.Time, bool) {
	ev, err := h.events.GetByID(cctx, id)
	if err != nil {
		return "", time.Time{}, false
	}
	return ev.Name, ev.Date, true
}

// Only upcoming events are offered as filter choices; past events are
// reached by id through the export criteria directly.
func (h *ExportHandler) respondFilterOptions(ctx *gin.Context, cctx context.Context) {
	events, err := h.events.List(cctx, true, clock.Today(h.clk))
	if err != nil {
		RespondInternal(ctx, "Could not load filter options")
		return
	}

	ageCategories := make([]gin.H, 0, len(reports.AgeCategories))
	for _, cat := range reports.AgeCategories {
		ageCategories = append(ageCategories, gin.H{
			"value":   string(cat),
			"display": cat.Display(),
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"events":        events,
		"shirtSizes":    runner.ShirtSizes,
		"genders":       []runner.Gender{runner.GenderMale, runner.GenderFemale},
		"ageCategories": ageCategories,
	})
}
