package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/surigaorunners/racereg/internal/clock"
	"github.com/surigaorunners/racereg/internal/domain/distance"
	"github.com/surigaorunners/racereg/internal/domain/event"
	"github.com/surigaorunners/racereg/internal/http/handlers"
)

type fakeDistanceStore struct {
	createFn func(ctx context.Context, d distance.Distance) (distance.Distance, error)
	getFn    func(ctx context.Context, id string) (distance.Distance, error)
	listFn   func(ctx context.Context, eventID string) ([]distance.Distance, error)
	updateFn func(ctx context.Context, d distance.Distance) error
	deleteFn func(ctx context.Context, id string) error
}

func (f *fakeDistanceStore) Create(ctx context.Context, d distance.Distance) (distance.Distance, error) {
	if f.createFn != nil {
		return f.createFn(ctx, d)
	}
	return d, nil
}

func (f *fakeDistanceStore) GetByID(ctx context.Context, id string) (distance.Distance, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return distance.Distance{}, distance.ErrNotFound
}

func (f *fakeDistanceStore) ListByEvent(ctx context.Context, eventID string) ([]distance.Distance, error) {
	if f.listFn != nil {
		return f.listFn(ctx, eventID)
	}
	return []distance.Distance{}, nil
}

func (f *fakeDistanceStore) Update(ctx context.Context, d distance.Distance) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, d)
	}
	return nil
}

func (f *fakeDistanceStore) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

type listBody struct {
	Items []distance.Distance `json:"items"`
	Count int                 `json:"count"`
}

// The dropdown endpoint returns an empty list for every failure mode,
// never an error status.
func TestListDistancesByEvent_NeverErrors(t *testing.T) {
	eventID := newUUID()

	tests := []struct {
		name      string
		query     string
		repoSetUp func(*fakeDistanceStore)
		wantCount int
	}{
		{
			name:  "known_event",
			query: "?event_id=" + eventID,
			repoSetUp: func(f *fakeDistanceStore) {
				f.listFn = func(ctx context.Context, eid string) ([]distance.Distance, error) {
					return []distance.Distance{
						{ID: newUUID(), EventID: eid, Label: "5"},
						{ID: newUUID(), EventID: eid, Label: "10"},
					}, nil
				}
			},
			wantCount: 2,
		},
		{
			name:      "missing_event_id",
			query:     "",
			wantCount: 0,
		},
		{
			name:      "malformed_event_id",
			query:     "?event_id=not-a-uuid",
			wantCount: 0,
		},
		{
			name:  "repo_error",
			query: "?event_id=" + eventID,
			repoSetUp: func(f *fakeDistanceStore) {
				f.listFn = func(ctx context.Context, eid string) ([]distance.Distance, error) {
					return nil, errors.New("db down")
				}
			},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeDistanceStore{}
			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewDistancesHandler(repo, clock.Real{}, nil)
			r := setupRouter(http.MethodGet, "/distances", h.ListByEvent)

			req := httptest.NewRequest(http.MethodGet, "/distances"+tt.query, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
			}

			var body listBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Count != tt.wantCount || len(body.Items) != tt.wantCount {
				t.Fatalf("count = %d items = %d, want %d", body.Count, len(body.Items), tt.wantCount)
			}
		})
	}
}

func TestCreateDistance(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	eventID := newUUID()

	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakeDistanceStore)
		wantStatusCode int
		wantLabel      string
	}{
		{
			name:           "label_normalized",
			body:           `{"eventId":"` + eventID + `","label":"21 km"}`,
			wantStatusCode: http.StatusCreated,
			wantLabel:      "21",
		},
		{
			name:           "non_numeric_label",
			body:           `{"eventId":"` + eventID + `","label":"fun run"}`,
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown_event",
			body: `{"eventId":"` + eventID + `","label":"5"}`,
			repoSetUp: func(f *fakeDistanceStore) {
				f.createFn = func(ctx context.Context, d distance.Distance) (distance.Distance, error) {
					return distance.Distance{}, event.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "missing_label",
			body:           `{"eventId":"` + eventID + `"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeDistanceStore{}
			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewDistancesHandler(repo, clock.Fixed{T: now}, nil)
			r := setupRouter(http.MethodPost, "/admin/distances", h.CreateDistance)

			req := httptest.NewRequest(http.MethodPost, "/admin/distances", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantLabel != "" {
				var created distance.Distance
				if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if created.Label != tt.wantLabel {
					t.Fatalf("label = %q, want %q", created.Label, tt.wantLabel)
				}
			}
		})
	}
}

// Fee is optional: a body without it stores a NULL fee, it must not be
// coerced to zero or rejected.
func TestCreateDistance_FeeOptional(t *testing.T) {
	eventID := newUUID()

	var stored distance.Distance
	repo := &fakeDistanceStore{
		createFn: func(ctx context.Context, d distance.Distance) (distance.Distance, error) {
			stored = d
			return d, nil
		},
	}

	h := handlers.NewDistancesHandler(repo, clock.Real{}, nil)
	r := setupRouter(http.MethodPost, "/admin/distances", h.CreateDistance)

	req := httptest.NewRequest(http.MethodPost, "/admin/distances",
		strings.NewReader(`{"eventId":"`+eventID+`","label":"10"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body=%s", w.Code, w.Body.String())
	}
	if stored.Fee != nil {
		t.Fatalf("fee = %v, want nil", *stored.Fee)
	}
}
