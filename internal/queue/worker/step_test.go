package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/surigaorunners/racereg/internal/domain/job"
	"github.com/surigaorunners/racereg/internal/domain/runner"
	"github.com/surigaorunners/racereg/internal/jobs"
	"github.com/surigaorunners/racereg/internal/notifications"
	"github.com/surigaorunners/racereg/internal/observability"
)

type fakeJobsRepo struct {
	queue []job.Job

	done        []string
	failed      map[string]string
	rescheduled map[string]time.Time
}

func newFakeJobsRepo(js ...job.Job) *fakeJobsRepo {
	return &fakeJobsRepo{
		queue:       js,
		failed:      make(map[string]string),
		rescheduled: make(map[string]time.Time),
	}
}

func (f *fakeJobsRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	if len(f.queue) == 0 {
		return job.Job{}, job.ErrJobNotFound
	}
	j := f.queue[0]
	f.queue = f.queue[1:]
	return j, nil
}

func (f *fakeJobsRepo) MarkDone(ctx context.Context, id string) error {
	f.done = append(f.done, id)
	return nil
}

func (f *fakeJobsRepo) MarkFailed(ctx context.Context, id, reason string) error {
	f.failed[id] = reason
	return nil
}

func (f *fakeJobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, reason string) error {
	f.rescheduled[id] = runAt
	return nil
}

type fakeRunnerDetails struct {
	details map[string]runner.Detail
}

func (f *fakeRunnerDetails) GetDetail(ctx context.Context, id string) (runner.Detail, error) {
	d, ok := f.details[id]
	if !ok {
		return runner.Detail{}, runner.ErrNotFound
	}
	return d, nil
}

type recordNotifier struct {
	confirmed []notifications.VerificationConfirmedInput
	received  []notifications.RegistrationReceivedInput
	err       error
}

func (r *recordNotifier) SendRegistrationReceived(ctx context.Context, in notifications.RegistrationReceivedInput) error {
	if r.err != nil {
		return r.err
	}
	r.received = append(r.received, in)
	return nil
}

func (r *recordNotifier) SendVerificationConfirmed(ctx context.Context, in notifications.VerificationConfirmedInput) error {
	if r.err != nil {
		return r.err
	}
	r.confirmed = append(r.confirmed, in)
	return nil
}

func testWorker(repo *fakeJobsRepo, runners *fakeRunnerDetails, notifier notifications.Notifier) *Worker {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	prom := observability.NewProm(prometheus.NewRegistry())

	return New(Config{WorkerID: "test-worker"}, repo, runners, notifier, log, prom)
}

func verificationJob(t *testing.T, id, runnerID string) job.Job {
	t.Helper()

	raw, err := jobs.VerificationConfirmedPayload{RunnerID: runnerID, RequestedAt: time.Now()}.JSON()
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	return job.Job{ID: id, Type: jobs.TypeVerificationConfirmed, Payload: raw, MaxAttempts: 5}
}

func TestProcessOne_SendsConfirmation(t *testing.T) {
	runnerID := "11111111-1111-1111-1111-111111111111"

	repo := newFakeJobsRepo(verificationJob(t, "j1", runnerID))
	runners := &fakeRunnerDetails{details: map[string]runner.Detail{
		runnerID: {
			Runner:        runner.Runner{ID: runnerID, Email: "ana@example.com", FirstName: "Ana", IsVerified: true},
			EventName:     "City Run",
			DistanceLabel: "10",
		},
	}}
	notifier := &recordNotifier{}

	w := testWorker(repo, runners, notifier)

	processed, err := w.ProcessOne(context.Background())
	if err != nil || !processed {
		t.Fatalf("ProcessOne = (%v, %v)", processed, err)
	}

	if len(notifier.confirmed) != 1 || notifier.confirmed[0].Email != "ana@example.com" {
		t.Fatalf("confirmations = %+v", notifier.confirmed)
	}
	if len(repo.done) != 1 || repo.done[0] != "j1" {
		t.Fatalf("done = %v", repo.done)
	}
}

func TestProcessOne_EmptyQueue(t *testing.T) {
	w := testWorker(newFakeJobsRepo(), &fakeRunnerDetails{}, &recordNotifier{})

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if processed {
		t.Fatalf("expected no claimable job")
	}
}

// A runner un-verified after enqueue must not receive a confirmation,
// and the job completes instead of retrying forever.
func TestProcessOne_SkipsUnverifiedRunner(t *testing.T) {
	runnerID := "22222222-2222-2222-2222-222222222222"

	repo := newFakeJobsRepo(verificationJob(t, "j1", runnerID))
	runners := &fakeRunnerDetails{details: map[string]runner.Detail{
		runnerID: {Runner: runner.Runner{ID: runnerID, IsVerified: false}},
	}}
	notifier := &recordNotifier{}

	w := testWorker(repo, runners, notifier)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("error: %v", err)
	}

	if len(notifier.confirmed) != 0 {
		t.Fatalf("unexpected confirmation sent")
	}
	if len(repo.done) != 1 {
		t.Fatalf("job not marked done: %+v", repo)
	}
}

func TestProcessOne_PermanentFailures(t *testing.T) {
	tests := []struct {
		name string
		j    job.Job
	}{
		{
			name: "runner_deleted",
			j:    verificationJob(t, "j1", "33333333-3333-3333-3333-333333333333"),
		},
		{
			name: "malformed_payload",
			j:    job.Job{ID: "j1", Type: jobs.TypeVerificationConfirmed, Payload: []byte(`{`), MaxAttempts: 5},
		},
		{
			name: "unknown_type",
			j:    job.Job{ID: "j1", Type: "email.spam", Payload: []byte(`{}`), MaxAttempts: 5},
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeJobsRepo(tt.j)
			w := testWorker(repo, &fakeRunnerDetails{}, &recordNotifier{})

			if _, err := w.ProcessOne(context.Background()); err != nil {
				t.Fatalf("error: %v", err)
			}

			if _, ok := repo.failed["j1"]; !ok {
				t.Fatalf("expected permanent failure, repo=%+v", repo)
			}
			if len(repo.rescheduled) != 0 {
				t.Fatalf("permanent failure must not reschedule")
			}
		})
	}
}

func TestProcessOne_TransientFailureReschedules(t *testing.T) {
	runnerID := "44444444-4444-4444-4444-444444444444"

	j := verificationJob(t, "j1", runnerID)
	j.Attempts = 1

	repo := newFakeJobsRepo(j)
	runners := &fakeRunnerDetails{details: map[string]runner.Detail{
		runnerID: {Runner: runner.Runner{ID: runnerID, IsVerified: true}},
	}}
	notifier := &recordNotifier{err: errors.New("smtp timeout")}

	w := testWorker(repo, runners, notifier)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("error: %v", err)
	}

	runAt, ok := repo.rescheduled["j1"]
	if !ok {
		t.Fatalf("expected reschedule, repo=%+v", repo)
	}
	if !runAt.After(time.Now()) {
		t.Fatalf("runAt %v not in the future", runAt)
	}
}

// Retry budget exhausted: transient error becomes a permanent failure.
func TestProcessOne_ExhaustedAttemptsFail(t *testing.T) {
	runnerID := "55555555-5555-5555-5555-555555555555"

	j := verificationJob(t, "j1", runnerID)
	j.Attempts = 4
	j.MaxAttempts = 5

	repo := newFakeJobsRepo(j)
	runners := &fakeRunnerDetails{details: map[string]runner.Detail{
		runnerID: {Runner: runner.Runner{ID: runnerID, IsVerified: true}},
	}}

	w := testWorker(repo, runners, &recordNotifier{err: errors.New("smtp timeout")})

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("error: %v", err)
	}

	if _, ok := repo.failed["j1"]; !ok {
		t.Fatalf("expected MarkFailed after last attempt, repo=%+v", repo)
	}
}
