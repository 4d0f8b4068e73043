package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/surigaorunners/racereg/internal/domain/job"
	"github.com/surigaorunners/racereg/internal/domain/runner"
	"github.com/surigaorunners/racereg/internal/jobs"
	"github.com/surigaorunners/racereg/internal/notifications"
)

// ProcessOne claims and executes a single job. It returns false when
// the queue had nothing claimable.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("claim next: %w", err)
	}

	w.prom.JobsInFlight.Inc()
	start := time.Now()

	execErr := w.execute(ctx, j)

	result := "done"
	if execErr != nil {
		result = "retry"
		if j.Attempts+1 >= j.MaxAttempts || isPermanent(execErr) {
			result = "failed"
		}
	}
	w.prom.JobDuration.WithLabelValues(j.Type, result).Observe(time.Since(start).Seconds())
	w.prom.JobResults.WithLabelValues(j.Type, result).Inc()
	w.prom.JobsInFlight.Dec()

	if execErr != nil {
		w.handleFailure(ctx, j, execErr)
		return true, nil
	}

	if err := w.repo.MarkDone(ctx, j.ID); err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, fmt.Errorf("mark done: %w", err)
	}

	w.log.Info("job done", "job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts)
	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	payload, err := jobs.DecodePayload(j)
	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case jobs.VerificationConfirmedPayload:
		detail, err := w.runners.GetDetail(ctx, p.RunnerID)
		if err != nil {
			return fmt.Errorf("load runner %s: %w", p.RunnerID, err)
		}
		// verification may have been revoked between enqueue and send
		if !detail.IsVerified {
			w.log.Warn("skipping confirmation for unverified runner", "job_id", j.ID, "runner_id", p.RunnerID)
			return nil
		}
		return w.notifier.SendVerificationConfirmed(ctx, notifications.VerificationConfirmedInput{
			Email:         detail.Email,
			FirstName:     detail.FirstName,
			EventName:     detail.EventName,
			DistanceLabel: detail.DistanceLabel,
			EventDate:     detail.EventDate,
		})

	case jobs.RegistrationReceivedPayload:
		detail, err := w.runners.GetDetail(ctx, p.RunnerID)
		if err != nil {
			return fmt.Errorf("load runner %s: %w", p.RunnerID, err)
		}
		return w.notifier.SendRegistrationReceived(ctx, notifications.RegistrationReceivedInput{
			Email:         detail.Email,
			FirstName:     detail.FirstName,
			EventName:     detail.EventName,
			DistanceLabel: detail.DistanceLabel,
			EventDate:     detail.EventDate,
		})

	default:
		return jobs.ErrInvalidJobType
	}
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, execErr error) {
	attempt := j.Attempts + 1

	if attempt >= j.MaxAttempts || isPermanent(execErr) {
		w.log.Error("job failed permanently",
			"job_id", j.ID, "job_type", j.Type, "attempt", attempt, "error", execErr)
		if err := w.repo.MarkFailed(ctx, j.ID, execErr.Error()); err != nil {
			w.log.Error("mark failed", "job_id", j.ID, "error", err)
		}
		return
	}

	delay := ExponentialBackoff(attempt)
	runAt := time.Now().Add(delay)

	w.log.Warn("job failed, rescheduling",
		"job_id", j.ID, "job_type", j.Type, "attempt", attempt, "delay", delay.String(), "error", execErr)
	if err := w.repo.Reschedule(ctx, j.ID, runAt, execErr.Error()); err != nil {
		w.log.Error("reschedule", "job_id", j.ID, "error", err)
	}
}

// isPermanent marks errors that retrying cannot fix: a deleted runner
// or a malformed payload.
func isPermanent(err error) bool {
	return errors.Is(err, runner.ErrNotFound) ||
		errors.Is(err, jobs.ErrInvalidJobType) ||
		errors.Is(err, jobs.ErrInvalidJobPayload)
}
