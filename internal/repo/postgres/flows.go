package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/surigaorunners/racereg/internal/domain/job"
	"github.com/surigaorunners/racereg/internal/domain/runner"
	"github.com/surigaorunners/racereg/internal/jobs"
)

// RegistrationFlow commits a new runner and the acknowledgement email
// job in one transaction: the ack can never reference a runner that
// rolled back, and an accepted runner always gets an ack enqueued.
type RegistrationFlow struct {
	runners *RunnersRepo
	jobs    *JobsRepo
}

func NewRegistrationFlow(runners *RunnersRepo, jobsRepo *JobsRepo) *RegistrationFlow {
	return &RegistrationFlow{runners: runners, jobs: jobsRepo}
}

func (f *RegistrationFlow) CreateWithAck(ctx context.Context, r runner.Runner) (created runner.Runner, err error) {
	tx, err := f.runners.BeginTx(ctx)
	if err != nil {
		return
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	created, err = f.runners.CreateTx(ctx, tx, r)
	if err != nil {
		return
	}

	if err = f.enqueueTx(ctx, tx, jobs.TypeRegistrationReceived, created.ID); err != nil {
		return
	}

	err = tx.Commit(ctx)
	return
}

// VerificationFlow flips the verification flag and enqueues the
// confirmation email only on a false-to-true transition, inside one
// transaction.
type VerificationFlow struct {
	runners *RunnersRepo
	jobs    *JobsRepo
}

func NewVerificationFlow(runners *RunnersRepo, jobsRepo *JobsRepo) *VerificationFlow {
	return &VerificationFlow{runners: runners, jobs: jobsRepo}
}

func (f *VerificationFlow) SetVerified(ctx context.Context, id string, verified bool) (r runner.Runner, changed bool, err error) {
	tx, err := f.runners.BeginTx(ctx)
	if err != nil {
		return
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	r, changed, err = f.runners.SetVerifiedTx(ctx, tx, id, verified)
	if err != nil {
		return
	}

	if changed && r.IsVerified {
		if err = f.enqueueTx(ctx, tx, jobs.TypeVerificationConfirmed, r.ID); err != nil {
			return
		}
	}

	err = tx.Commit(ctx)
	return
}

func (f *RegistrationFlow) enqueueTx(ctx context.Context, tx pgx.Tx, jobType, runnerID string) error {
	return enqueueNotification(ctx, tx, f.jobs, jobType, runnerID)
}

func (f *VerificationFlow) enqueueTx(ctx context.Context, tx pgx.Tx, jobType, runnerID string) error {
	return enqueueNotification(ctx, tx, f.jobs, jobType, runnerID)
}

func enqueueNotification(ctx context.Context, tx pgx.Tx, jobsRepo *JobsRepo, jobType, runnerID string) error {
	now := time.Now().UTC()

	var payload []byte
	var err error
	var key *string

	switch jobType {
	case jobs.TypeVerificationConfirmed:
		// no idempotency key: a runner unverified and re-verified later
		// is told again
		payload, err = jobs.VerificationConfirmedPayload{RunnerID: runnerID, RequestedAt: now}.JSON()
	default:
		payload, err = jobs.RegistrationReceivedPayload{RunnerID: runnerID, RequestedAt: now}.JSON()
		// exactly one acknowledgement per runner, ever
		k := jobType + ":" + runnerID
		key = &k
	}
	if err != nil {
		return err
	}

	_, err = jobsRepo.CreateTx(ctx, tx, job.CreateRequest{
		Type:           jobType,
		Payload:        payload,
		IdempotencyKey: key,
	})
	if err != nil && IsUniqueViolation(err) {
		return nil
	}
	return err
}
