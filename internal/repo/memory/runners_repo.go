package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/surigaorunners/racereg/internal/bib"
	"github.com/surigaorunners/racereg/internal/domain/distance"
	"github.com/surigaorunners/racereg/internal/domain/event"
	"github.com/surigaorunners/racereg/internal/domain/runner"
	"github.com/surigaorunners/racereg/internal/reports"
	"github.com/surigaorunners/racereg/internal/utils"
)

// RunnersRepo is the in-memory twin of the postgres runner store, used
// by handler tests. It mirrors the same error mapping and the same
// criteria semantics.
type RunnersRepo struct {
	mu        sync.RWMutex
	items     map[string]runner.Runner
	events    map[string]event.Event
	distances map[string]distance.Distance
}

func NewRunnersRepo() *RunnersRepo {
	return &RunnersRepo{
		items:     make(map[string]runner.Runner),
		events:    make(map[string]event.Event),
		distances: make(map[string]distance.Distance),
	}
}

// SeedEvent registers event and distance context so Filter and
// GetDetail can resolve names and labels.
func (r *RunnersRepo) SeedEvent(ev event.Event) {
	r.mu.Lock()
	r.events[ev.ID] = ev
	for _, d := range ev.Distances {
		r.distances[d.ID] = d
	}
	r.mu.Unlock()
}

func (r *RunnersRepo) Create(ctx context.Context, rn runner.Runner) (runner.Runner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.EventID == rn.EventID && strings.EqualFold(existing.Email, rn.Email) {
			return runner.Runner{}, runner.ErrDuplicateEmail
		}
	}

	r.items[rn.ID] = rn
	return rn, nil
}

func (r *RunnersRepo) ListByEvent(ctx context.Context, eventID string) ([]runner.Runner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]runner.Runner, 0)
	for _, rn := range r.items {
		if rn.EventID == eventID {
			out = append(out, rn)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *RunnersRepo) GetByID(ctx context.Context, id string) (runner.Runner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rn, ok := r.items[id]
	if !ok {
		return runner.Runner{}, runner.ErrNotFound
	}
	return rn, nil
}

func (r *RunnersRepo) GetDetail(ctx context.Context, id string) (runner.Detail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rn, ok := r.items[id]
	if !ok {
		return runner.Detail{}, runner.ErrNotFound
	}
	return r.detailLocked(rn), nil
}

func (r *RunnersRepo) detailLocked(rn runner.Runner) runner.Detail {
	d := runner.Detail{Runner: rn}
	if ev, ok := r.events[rn.EventID]; ok {
		d.EventName = ev.Name
		d.EventDate = ev.Date
	}
	if dist, ok := r.distances[rn.DistanceID]; ok {
		d.DistanceLabel = dist.Label
	}
	return d
}

func (r *RunnersRepo) Update(ctx context.Context, rn runner.Runner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[rn.ID]; !ok {
		return runner.ErrNotFound
	}
	r.items[rn.ID] = rn
	return nil
}

func (r *RunnersRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return runner.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// DeleteDistance removes a distance and every runner registered on it,
// the same cascade the schema applies.
func (r *RunnersRepo) DeleteDistance(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.distances[id]; !ok {
		return distance.ErrNotFound
	}
	delete(r.distances, id)
	for rid, rn := range r.items {
		if rn.DistanceID == id {
			delete(r.items, rid)
		}
	}
	return nil
}

// SetVerified flips the flag and reports whether it changed, matching
// the edge-triggered contract of the postgres repo.
func (r *RunnersRepo) SetVerified(ctx context.Context, id string, verified bool) (runner.Runner, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn, ok := r.items[id]
	if !ok {
		return runner.Runner{}, false, runner.ErrNotFound
	}
	if rn.IsVerified == verified {
		return rn, false, nil
	}

	rn.IsVerified = verified
	r.items[id] = rn
	return rn, true, nil
}

func (r *RunnersRepo) AllocateBib(ctx context.Context, runnerID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn, ok := r.items[runnerID]
	if !ok {
		return "", runner.ErrNotFound
	}
	if rn.BibNumber != nil {
		return "", runner.ErrAlreadyHasBib
	}

	dist, ok := r.distances[rn.DistanceID]
	if !ok {
		return "", distance.ErrNotFound
	}

	var existing []string
	for _, other := range r.items {
		if other.DistanceID == rn.DistanceID && other.BibNumber != nil {
			existing = append(existing, *other.BibNumber)
		}
	}

	assigned := bib.Next(dist.Label, existing)
	rn.BibNumber = &assigned
	r.items[runnerID] = rn
	return assigned, nil
}

func (r *RunnersRepo) Filter(ctx context.Context, c reports.Criteria) ([]runner.Detail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]runner.Detail, 0)
	for _, rn := range r.items {
		if c.Matches(rn) {
			out = append(out, r.detailLocked(rn))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i].LastName), strings.ToLower(out[j].LastName)
		if li != lj {
			return li < lj
		}
		fi, fj := strings.ToLower(out[i].FirstName), strings.ToLower(out[j].FirstName)
		if fi != fj {
			return fi < fj
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *RunnersRepo) ListCursor(
	ctx context.Context,
	c reports.Criteria,
	limit int,
	afterCreatedAt time.Time,
	afterID string,
) ([]runner.Runner, *string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]runner.Runner, 0)
	for _, rn := range r.items {
		if !c.Matches(rn) {
			continue
		}
		if rn.CreatedAt.Before(afterCreatedAt) {
			continue
		}
		if rn.CreatedAt.Equal(afterCreatedAt) && rn.ID <= afterID {
			continue
		}
		matched = append(matched, rn)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	hasMore := len(matched) > limit
	if hasMore {
		matched = matched[:limit]
		last := matched[len(matched)-1]
		cur, err := utils.EncodeRunnerCursor(last.CreatedAt, last.ID)
		if err != nil {
			return nil, nil, false, err
		}
		return matched, &cur, true, nil
	}

	return matched, nil, false, nil
}
