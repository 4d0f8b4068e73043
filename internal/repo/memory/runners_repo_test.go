package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/surigaorunners/racereg/internal/domain/distance"
	"github.com/surigaorunners/racereg/internal/domain/event"
	"github.com/surigaorunners/racereg/internal/domain/runner"
)

func seededRepo(t *testing.T) (*RunnersRepo, event.Event) {
	t.Helper()

	ev := event.Event{
		ID:   uuid.NewString(),
		Name: "Surigao City Run",
		Date: time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC),
	}
	ev.Distances = []distance.Distance{
		{ID: uuid.NewString(), EventID: ev.ID, Label: "10"},
		{ID: uuid.NewString(), EventID: ev.ID, Label: "5"},
	}

	repo := NewRunnersRepo()
	repo.SeedEvent(ev)
	return repo, ev
}

func addRunnerOn(t *testing.T, repo *RunnersRepo, ev event.Event, distanceID, email string) runner.Runner {
	t.Helper()

	rn := runner.Runner{
		ID:            uuid.NewString(),
		EventID:       ev.ID,
		DistanceID:    distanceID,
		FirstName:     "Ana",
		LastName:      "Reyes",
		Email:         email,
		ContactNumber: "09171234567",
		Age:           28,
		Gender:        runner.GenderFemale,
		ShirtSize:     runner.SizeM,
		CreatedAt:     time.Now().UTC(),
	}
	created, err := repo.Create(context.Background(), rn)
	if err != nil {
		t.Fatalf("create runner: %v", err)
	}
	return created
}

func TestDeleteDistance_CascadesToRunners(t *testing.T) {
	repo, ev := seededRepo(t)
	tenK, fiveK := ev.Distances[0], ev.Distances[1]

	onTen := addRunnerOn(t, repo, ev, tenK.ID, "ana@example.com")
	onFive := addRunnerOn(t, repo, ev, fiveK.ID, "ben@example.com")

	if err := repo.DeleteDistance(context.Background(), tenK.ID); err != nil {
		t.Fatalf("delete distance: %v", err)
	}

	if _, err := repo.GetByID(context.Background(), onTen.ID); !errors.Is(err, runner.ErrNotFound) {
		t.Fatalf("runner on deleted distance still present, err = %v", err)
	}
	if _, err := repo.GetByID(context.Background(), onFive.ID); err != nil {
		t.Fatalf("runner on surviving distance gone: %v", err)
	}

	if err := repo.DeleteDistance(context.Background(), tenK.ID); !errors.Is(err, distance.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestAllocateBib_ConcurrentAllocationsAreDistinct(t *testing.T) {
	repo, ev := seededRepo(t)
	tenK := ev.Distances[0]

	const n = 16
	ids := make([]string, n)
	for i := range ids {
		rn := addRunnerOn(t, repo, ev, tenK.ID, fmt.Sprintf("runner%d@example.com", i))
		ids[i] = rn.ID
	}

	bibs := make([]string, n)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			assigned, err := repo.AllocateBib(context.Background(), id)
			if err != nil {
				t.Errorf("allocate for %s: %v", id, err)
				return
			}
			bibs[i] = assigned
		}(i, id)
	}
	wg.Wait()

	sort.Strings(bibs)
	for i, b := range bibs {
		want := fmt.Sprintf("%s - %04d", tenK.Label, i+1)
		if b != want {
			t.Fatalf("bibs[%d] = %q, want %q", i, b, want)
		}
	}
}
