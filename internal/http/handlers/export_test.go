package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/surigaorunners/racereg/internal/clock"
	"github.com/surigaorunners/racereg/internal/domain/event"
	"github.com/surigaorunners/racereg/internal/domain/runner"
	"github.com/surigaorunners/racereg/internal/http/handlers"
	"github.com/surigaorunners/racereg/internal/reports"
)

type fakeFilterer struct {
	filterFn func(ctx context.Context, c reports.Criteria) ([]runner.Detail, error)
}

func (f *fakeFilterer) Filter(ctx context.Context, c reports.Criteria) ([]runner.Detail, error) {
	if f.filterFn != nil {
		return f.filterFn(ctx, c)
	}
	return nil, nil
}

type fakeEventLister struct {
	getFn  func(ctx context.Context, id string) (event.Event, error)
	listFn func(ctx context.Context, upcomingOnly bool, today time.Time) ([]event.Event, error)
}

func (f *fakeEventLister) GetByID(ctx context.Context, id string) (event.Event, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return event.Event{}, event.ErrNotFound
}

func (f *fakeEventLister) List(ctx context.Context, upcomingOnly bool, today time.Time) ([]event.Event, error) {
	if f.listFn != nil {
		return f.listFn(ctx, upcomingOnly, today)
	}
	return nil, nil
}

// Without criteria the endpoint serves the filter form options, and
// only upcoming events are offered as choices.
func TestExport_NoCriteriaReturnsOptions(t *testing.T) {
	var gotUpcoming bool
	var gotToday time.Time
	events := &fakeEventLister{
		listFn: func(ctx context.Context, upcomingOnly bool, today time.Time) ([]event.Event, error) {
			gotUpcoming = upcomingOnly
			gotToday = today
			return []event.Event{{ID: newUUID(), Name: "City Run"}}, nil
		},
	}

	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	h := handlers.NewExportHandler(&fakeFilterer{}, events, clock.Fixed{T: now})
	r := setupRouter(http.MethodGet, "/admin/runners/export", h.Export)

	req := httptest.NewRequest(http.MethodGet, "/admin/runners/export", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !gotUpcoming {
		t.Fatalf("options listing not scoped to upcoming events")
	}
	if !gotToday.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("today = %v", gotToday)
	}

	var resp struct {
		Events        []event.Event      `json:"events"`
		ShirtSizes    []runner.ShirtSize `json:"shirtSizes"`
		Genders       []runner.Gender    `json:"genders"`
		AgeCategories []struct {
			Value   string `json:"value"`
			Display string `json:"display"`
		} `json:"ageCategories"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(resp.Events) != 1 || len(resp.ShirtSizes) != 6 || len(resp.Genders) != 2 || len(resp.AgeCategories) != 6 {
		t.Fatalf("options = %+v", resp)
	}
}

func TestExport_WithCriteriaReturnsWorkbook(t *testing.T) {
	eventID := newUUID()
	eventDate := time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC)

	filterer := &fakeFilterer{
		filterFn: func(ctx context.Context, c reports.Criteria) ([]runner.Detail, error) {
			if c.EventID == nil || *c.EventID != eventID {
				t.Fatalf("criteria not passed through: %+v", c)
			}
			return []runner.Detail{
				{
					Runner: runner.Runner{
						ID: "r1", FirstName: "Ana", LastName: "Reyes",
						Email: "ana@example.com", Age: 28,
						Gender: runner.GenderFemale, ShirtSize: runner.SizeM,
					},
					EventName:     "Surigao City Run",
					EventDate:     eventDate,
					DistanceLabel: "10",
				},
			}, nil
		},
	}

	h := handlers.NewExportHandler(filterer, &fakeEventLister{}, clock.Fixed{T: eventDate})
	r := setupRouter(http.MethodGet, "/admin/runners/export", h.Export)

	req := httptest.NewRequest(http.MethodGet, "/admin/runners/export?event_id="+eventID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != reports.ContentType() {
		t.Fatalf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd == "" {
		t.Fatalf("missing content disposition")
	}

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	name, _ := f.GetCellValue("Runners", "A5")
	if name != "Reyes, Ana" {
		t.Fatalf("first row = %q", name)
	}
}

// An export with no matching runners still resolves the event by id
// for the summary line, past events included.
func TestExport_EmptyResultResolvesEventHeader(t *testing.T) {
	eventID := newUUID()
	eventDate := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	filterer := &fakeFilterer{
		filterFn: func(ctx context.Context, c reports.Criteria) ([]runner.Detail, error) {
			return []runner.Detail{}, nil
		},
	}
	events := &fakeEventLister{
		getFn: func(ctx context.Context, id string) (event.Event, error) {
			if id != eventID {
				return event.Event{}, event.ErrNotFound
			}
			return event.Event{ID: eventID, Name: "Old Run", Date: eventDate}, nil
		},
	}

	h := handlers.NewExportHandler(filterer, events, clock.Fixed{T: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)})
	r := setupRouter(http.MethodGet, "/admin/runners/export", h.Export)

	req := httptest.NewRequest(http.MethodGet, "/admin/runners/export?event_id="+eventID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", w.Code, w.Body.String())
	}

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	summary, _ := f.GetCellValue("Runners", "A2")
	if !strings.Contains(summary, "Old Run") {
		t.Fatalf("summary = %q, event name not resolved", summary)
	}
}

func TestExport_BadFilterRejected(t *testing.T) {
	h := handlers.NewExportHandler(&fakeFilterer{}, &fakeEventLister{}, clock.Real{})
	r := setupRouter(http.MethodGet, "/admin/runners/export", h.Export)

	req := httptest.NewRequest(http.MethodGet, "/admin/runners/export?age_category=18_25", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestStats(t *testing.T) {
	filterer := &fakeFilterer{
		filterFn: func(ctx context.Context, c reports.Criteria) ([]runner.Detail, error) {
			return []runner.Detail{
				{Runner: runner.Runner{Age: 25, Gender: runner.GenderFemale, ShirtSize: runner.SizeM, IsVerified: true}, DistanceLabel: "10"},
				{Runner: runner.Runner{Age: 42, Gender: runner.GenderMale, ShirtSize: runner.SizeL}, DistanceLabel: "5"},
			}, nil
		},
	}

	h := handlers.NewStatsHandler(filterer)
	r := setupRouter(http.MethodGet, "/admin/stats", h.Stats)

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var s reports.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Total != 2 || s.Verified != 1 || s.ByDistance["10 KM"] != 1 {
		t.Fatalf("stats = %+v", s)
	}
}
