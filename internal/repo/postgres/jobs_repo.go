package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surigaorunners/racereg/internal/domain/job"
	"github.com/surigaorunners/racereg/internal/observability"
	"github.com/surigaorunners/racereg/internal/utils"
)

var ErrJobNotFailed = errors.New("job is not failed")

type JobsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewJobsRepo(pool *pgxpool.Pool, prom *observability.Prom) *JobsRepo {
	return &JobsRepo{pool: pool, prom: prom}
}

func (r *JobsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const jobColumns = `id, type, payload, status, attempts, max_attempts,
	run_at, locked_at, locked_by, last_error, idempotency_key,
	created_at, updated_at`

func scanJob(row pgx.Row) (job.Job, error) {
	var j job.Job
	var status string

	err := row.Scan(
		&j.ID, &j.Type, &j.Payload, &status,
		&j.Attempts, &j.MaxAttempts,
		&j.RunAt, &j.LockedAt, &j.LockedBy,
		&j.LastError, &j.IdempotencyKey,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return job.Job{}, err
	}

	j.Status = job.Status(status)
	return j, nil
}

func (r *JobsRepo) Create(ctx context.Context, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)
	op := "jobs.create"

	err := r.observe(op, func() error {
		_, e := r.pool.Exec(ctx, `
		INSERT INTO jobs(
			id, type, payload, status, attempts, max_attempts,
			run_at, locked_at, locked_by, last_error, idempotency_key,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, j.ID, j.Type, j.Payload, string(j.Status), j.Attempts, j.MaxAttempts,
			j.RunAt, j.LockedAt, j.LockedBy, j.LastError, j.IdempotencyKey,
			j.CreatedAt, j.UpdatedAt)
		return e
	})

	if err != nil {
		return job.Job{}, err
	}
	return j, nil
}

// CreateTx enqueues inside the caller's transaction, so a verification
// flip and its confirmation email commit or roll back together.
func (r *JobsRepo) CreateTx(ctx context.Context, tx pgx.Tx, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)
	op := "jobs.create_tx"

	err := r.observe(op, func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO jobs(
			id, type, payload, status, attempts, max_attempts,
			run_at, locked_at, locked_by, last_error, idempotency_key,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, j.ID, j.Type, j.Payload, string(j.Status), j.Attempts, j.MaxAttempts,
			j.RunAt, j.LockedAt, j.LockedBy, j.LastError, j.IdempotencyKey,
			j.CreatedAt, j.UpdatedAt)
		return e
	})

	if err != nil {
		return job.Job{}, err
	}
	return j, nil
}

// ClaimNext claims one runnable job with the SKIP LOCKED pattern so
// workers never block on each other.
func (r *JobsRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	var j job.Job
	op := "jobs.claim_next"

	err := r.observe(op, func() error {
		var e error
		j, e = scanJob(r.pool.QueryRow(ctx, `
		WITH next AS (
			SELECT id
			FROM jobs
			WHERE status = 'pending'
			  AND run_at <= NOW()
			  AND attempts < max_attempts
			ORDER BY run_at ASC, created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		UPDATE jobs
		SET status = 'processing',
		    locked_at = NOW(),
		    locked_by = $1,
		    updated_at = NOW()
		WHERE id = (SELECT id FROM next)
		RETURNING `+jobColumns, workerID))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrJobNotFound
		}
		return job.Job{}, err
	}
	return j, nil
}

func (r *JobsRepo) MarkDone(ctx context.Context, id string) error {
	var tag pgconn.CommandTag
	op := "jobs.mark_done"

	err := r.observe(op, func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'done',
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`, id)
		return e
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

func (r *JobsRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	var tag pgconn.CommandTag
	op := "jobs.mark_failed"

	err := r.observe(op, func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'failed',
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = $2,
		    updated_at = NOW()
		WHERE id = $1
	`, id, errMsg)
		return e
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

func (r *JobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	var tag pgconn.CommandTag
	op := "jobs.reschedule"

	err := r.observe(op, func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'pending',
		    attempts = attempts + 1,
		    run_at = $2,
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = $3,
		    updated_at = NOW()
		WHERE id = $1
	`, id, runAt, errMsg)
		return e
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

// RequeueStaleProcessing returns jobs whose worker died mid-flight to
// the pending pool once their lock has aged past lockTTL.
func (r *JobsRepo) RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error) {
	secs := int64(lockTTL.Seconds())
	if secs <= 0 {
		secs = 30
	}

	var n int64
	op := "jobs.requeue_stale"

	err := r.observe(op, func() error {
		tag, e := r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'pending',
		    locked_at = NULL,
		    locked_by = NULL,
		    updated_at = NOW()
		WHERE status = 'processing'
		  AND locked_at IS NOT NULL
		  AND locked_at < NOW() - ($1 * INTERVAL '1 second')
	`, secs)
		if e != nil {
			return e
		}
		n = tag.RowsAffected()
		return nil
	})

	return n, err
}

// Admin ops endpoints

func (r *JobsRepo) GetByID(ctx context.Context, id string) (job.Job, error) {
	var j job.Job
	op := "jobs.admin.get_by_id"

	err := r.observe(op, func() error {
		var e error
		j, e = scanJob(r.pool.QueryRow(ctx,
			`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrJobNotFound
		}
		return job.Job{}, err
	}
	return j, nil
}

func (r *JobsRepo) ListCursor(
	ctx context.Context,
	status *string,
	limit int,
	afterUpdatedAt time.Time,
	afterID string,
) (items []job.Job, nextCursor *string, hasMore bool, err error) {
	op := "jobs.admin.list_cursor"

	var (
		conds   []string
		args    []any
		argsPos = 1
	)

	if status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPos))
		args = append(args, *status)
		argsPos++
	}

	// DESC keyset: fetch rows older than the cursor
	conds = append(conds, fmt.Sprintf("(updated_at, id) < ($%d, $%d)", argsPos, argsPos+1))
	args = append(args, afterUpdatedAt, afterID)
	argsPos += 2

	q := `SELECT ` + jobColumns + ` FROM jobs WHERE ` + strings.Join(conds, " AND ")
	q += fmt.Sprintf(" ORDER BY updated_at DESC, id DESC LIMIT $%d", argsPos)
	args = append(args, limit+1)

	var rows pgx.Rows
	err = r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, q, args...)
		return qerr
	})
	if err != nil {
		return nil, nil, false, err
	}
	defer rows.Close()

	out := make([]job.Job, 0, limit)

	for rows.Next() {
		var j job.Job
		var st string

		if scanErr := rows.Scan(
			&j.ID, &j.Type, &j.Payload, &st,
			&j.Attempts, &j.MaxAttempts,
			&j.RunAt, &j.LockedAt, &j.LockedBy,
			&j.LastError, &j.IdempotencyKey,
			&j.CreatedAt, &j.UpdatedAt,
		); scanErr != nil {
			return nil, nil, false, scanErr
		}
		j.Status = job.Status(st)
		out = append(out, j)
	}
	if rows.Err() != nil {
		return nil, nil, false, rows.Err()
	}

	if len(out) > limit {
		hasMore = true
		out = out[:limit]
		last := out[len(out)-1]

		cur, encErr := utils.EncodeJobCursor(last.UpdatedAt, last.ID)
		if encErr != nil {
			return nil, nil, false, encErr
		}
		nextCursor = &cur
	}

	return out, nextCursor, hasMore, nil
}

func (r *JobsRepo) Retry(ctx context.Context, id string) error {
	var status string
	op := "jobs.admin.retry.check_status"

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1`, id).Scan(&status)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.ErrJobNotFound
		}
		return err
	}

	if status != string(job.StatusFailed) {
		return ErrJobNotFailed
	}

	return r.observe("jobs.admin.retry.requeue", func() error {
		_, e := r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'pending',
		    run_at = NOW(),
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`, id)
		return e
	})
}

func (r *JobsRepo) RetryManyFailed(ctx context.Context, limit int) (int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	var tag pgconn.CommandTag
	op := "jobs.admin.retry_many_failed"

	err := r.observe(op, func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `
		WITH picked AS (
			SELECT id
			FROM jobs
			WHERE status = 'failed'
			ORDER BY updated_at DESC
			LIMIT $1
		)
		UPDATE jobs
		SET status = 'pending',
		    run_at = NOW(),
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE id IN (SELECT id FROM picked)
	`, limit)
		return e
	})

	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
