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

	"github.com/surigaorunners/racereg/internal/bib"
	"github.com/surigaorunners/racereg/internal/domain/distance"
	"github.com/surigaorunners/racereg/internal/domain/runner"
	"github.com/surigaorunners/racereg/internal/observability"
	"github.com/surigaorunners/racereg/internal/reports"
	"github.com/surigaorunners/racereg/internal/utils"
)

type RunnersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRunnersRepo(pool *pgxpool.Pool, prom *observability.Prom) *RunnersRepo {
	return &RunnersRepo{pool: pool, prom: prom}
}

func (repo *RunnersRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (repo *RunnersRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return repo.pool.BeginTx(ctx, pgx.TxOptions{})
}

const runnerColumns = `id, event_id, distance_id, first_name, last_name, email,
	contact_number, age, gender, shirt_size,
	emergency_contact_name, emergency_contact_number,
	proof_of_payment_path, is_verified, bib_number, created_at`

func scanRunner(row pgx.Row) (runner.Runner, error) {
	var r runner.Runner
	var gender, shirtSize string

	err := row.Scan(
		&r.ID, &r.EventID, &r.DistanceID, &r.FirstName, &r.LastName, &r.Email,
		&r.ContactNumber, &r.Age, &gender, &shirtSize,
		&r.EmergencyContactName, &r.EmergencyContactNumber,
		&r.ProofOfPaymentPath, &r.IsVerified, &r.BibNumber, &r.CreatedAt,
	)
	if err != nil {
		return runner.Runner{}, err
	}

	r.Gender = runner.Gender(gender)
	r.ShirtSize = runner.ShirtSize(shirtSize)
	return r, nil
}

// CreateTx inserts inside the caller's transaction. The unique index
// on (event_id, lower(email)) is the race backstop behind the
// in-process duplicate check.
func (repo *RunnersRepo) CreateTx(ctx context.Context, tx pgx.Tx, r runner.Runner) (runner.Runner, error) {
	op := "runners.create_tx"

	err := repo.observe(op, func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO runners (
			id, event_id, distance_id, first_name, last_name, email,
			contact_number, age, gender, shirt_size,
			emergency_contact_name, emergency_contact_number,
			proof_of_payment_path, is_verified, bib_number, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`, r.ID, r.EventID, r.DistanceID, r.FirstName, r.LastName, r.Email,
			r.ContactNumber, r.Age, string(r.Gender), string(r.ShirtSize),
			r.EmergencyContactName, r.EmergencyContactNumber,
			r.ProofOfPaymentPath, r.IsVerified, r.BibNumber, r.CreatedAt)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "runners_event_email_uniq" {
			return runner.Runner{}, runner.ErrDuplicateEmail
		}
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return runner.Runner{}, runner.ErrDistanceNotInEvent
		}
		return runner.Runner{}, err
	}
	return r, nil
}

func (repo *RunnersRepo) Create(ctx context.Context, r runner.Runner) (created runner.Runner, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	created, err = repo.CreateTx(ctx, tx, r)
	if err != nil {
		return
	}

	err = tx.Commit(ctx)
	return
}

// ListByEvent loads every registrant of one event; the registration
// validator scans these for duplicate emails and identity conflicts.
func (repo *RunnersRepo) ListByEvent(ctx context.Context, eventID string) (runners []runner.Runner, err error) {
	var rows pgx.Rows

	err = repo.observe("runners.list_by_event", func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx, `
		SELECT `+runnerColumns+`
		FROM runners
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC
	`, eventID)
		return qerr
	})
	if err != nil {
		return
	}
	defer rows.Close()

	runners = make([]runner.Runner, 0)

	for rows.Next() {
		r, e := scanRunner(rows)
		if e != nil {
			err = e
			return
		}
		runners = append(runners, r)
	}
	err = rows.Err()
	return
}

func (repo *RunnersRepo) GetByID(ctx context.Context, id string) (runner.Runner, error) {
	var r runner.Runner
	op := "runners.get_by_id"

	err := repo.observe(op, func() error {
		var e error
		r, e = scanRunner(repo.pool.QueryRow(ctx,
			`SELECT `+runnerColumns+` FROM runners WHERE id = $1`, id))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return runner.Runner{}, runner.ErrNotFound
		}
		return runner.Runner{}, err
	}
	return r, nil
}

// GetDetail joins the runner with its event and distance; the worker
// uses it to build notification emails at send time.
func (repo *RunnersRepo) GetDetail(ctx context.Context, id string) (d runner.Detail, err error) {
	var gender, shirtSize string

	err = repo.observe("runners.get_detail", func() error {
		return repo.pool.QueryRow(ctx, `
		SELECT r.id, r.event_id, r.distance_id, r.first_name, r.last_name, r.email,
		       r.contact_number, r.age, r.gender, r.shirt_size,
		       r.emergency_contact_name, r.emergency_contact_number,
		       r.proof_of_payment_path, r.is_verified, r.bib_number, r.created_at,
		       e.name, e.date, d.label
		FROM runners r
		JOIN events e ON e.id = r.event_id
		JOIN distances d ON d.id = r.distance_id
		WHERE r.id = $1
	`, id).Scan(
			&d.ID, &d.EventID, &d.DistanceID, &d.FirstName, &d.LastName, &d.Email,
			&d.ContactNumber, &d.Age, &gender, &shirtSize,
			&d.EmergencyContactName, &d.EmergencyContactNumber,
			&d.ProofOfPaymentPath, &d.IsVerified, &d.BibNumber, &d.CreatedAt,
			&d.EventName, &d.EventDate, &d.DistanceLabel,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = runner.ErrNotFound
		}
		return
	}

	d.Gender = runner.Gender(gender)
	d.ShirtSize = runner.ShirtSize(shirtSize)
	return
}

func (repo *RunnersRepo) Update(ctx context.Context, r runner.Runner) (err error) {
	var tag pgconn.CommandTag

	err = repo.observe("runners.update", func() error {
		var e error
		tag, e = repo.pool.Exec(ctx, `
		UPDATE runners
		SET distance_id = $2,
		    first_name = $3,
		    last_name = $4,
		    email = $5,
		    contact_number = $6,
		    age = $7,
		    gender = $8,
		    shirt_size = $9,
		    emergency_contact_name = $10,
		    emergency_contact_number = $11,
		    proof_of_payment_path = $12
		WHERE id = $1
	`, r.ID, r.DistanceID, r.FirstName, r.LastName, r.Email,
			r.ContactNumber, r.Age, string(r.Gender), string(r.ShirtSize),
			r.EmergencyContactName, r.EmergencyContactNumber, r.ProofOfPaymentPath)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "runners_event_email_uniq" {
			return runner.ErrDuplicateEmail
		}
		return
	}
	if tag.RowsAffected() == 0 {
		err = runner.ErrNotFound
	}
	return
}

func (repo *RunnersRepo) Delete(ctx context.Context, id string) (err error) {
	var tag pgconn.CommandTag

	err = repo.observe("runners.delete", func() error {
		var e error
		tag, e = repo.pool.Exec(ctx, `DELETE FROM runners WHERE id = $1`, id)
		return e
	})

	if err != nil {
		return
	}
	if tag.RowsAffected() == 0 {
		err = runner.ErrNotFound
	}
	return
}

// SetVerifiedTx flips the verification flag under a row lock and
// reports whether the value actually changed. Callers enqueue the
// confirmation email in the same transaction only on a false→true
// flip, so re-saving a verified runner never re-sends.
func (repo *RunnersRepo) SetVerifiedTx(ctx context.Context, tx pgx.Tx, id string, verified bool) (r runner.Runner, changed bool, err error) {
	err = repo.observe("runners.set_verified.lock", func() error {
		var e error
		r, e = scanRunner(tx.QueryRow(ctx,
			`SELECT `+runnerColumns+` FROM runners WHERE id = $1 FOR UPDATE`, id))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = runner.ErrNotFound
		}
		return
	}

	if r.IsVerified == verified {
		return r, false, nil
	}

	err = repo.observe("runners.set_verified.update", func() error {
		_, e := tx.Exec(ctx, `UPDATE runners SET is_verified = $2 WHERE id = $1`, id, verified)
		return e
	})
	if err != nil {
		return
	}

	r.IsVerified = verified
	return r, true, nil
}

// AllocateBib assigns the next free bib for the runner's distance.
// The distance row is locked first so two staff members assigning
// concurrently serialize on it and cannot mint the same number.
func (repo *RunnersRepo) AllocateBib(ctx context.Context, runnerID string) (assigned string, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var r runner.Runner
	err = repo.observe("runners.allocate_bib.lock_runner", func() error {
		var e error
		r, e = scanRunner(tx.QueryRow(ctx,
			`SELECT `+runnerColumns+` FROM runners WHERE id = $1 FOR UPDATE`, runnerID))
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = runner.ErrNotFound
		}
		return
	}

	if r.BibNumber != nil {
		err = runner.ErrAlreadyHasBib
		return
	}

	var label string
	err = repo.observe("runners.allocate_bib.lock_distance", func() error {
		return tx.QueryRow(ctx,
			`SELECT label FROM distances WHERE id = $1 FOR UPDATE`, r.DistanceID).Scan(&label)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = distance.ErrNotFound
		}
		return
	}

	var existing []string
	err = repo.observe("runners.allocate_bib.existing", func() error {
		rows, e := tx.Query(ctx, `
		SELECT bib_number FROM runners
		WHERE distance_id = $1 AND bib_number IS NOT NULL
	`, r.DistanceID)
		if e != nil {
			return e
		}
		defer rows.Close()

		for rows.Next() {
			var b string
			if e := rows.Scan(&b); e != nil {
				return e
			}
			existing = append(existing, b)
		}
		return rows.Err()
	})
	if err != nil {
		return
	}

	assigned = bib.Next(label, existing)

	err = repo.observe("runners.allocate_bib.update", func() error {
		_, e := tx.Exec(ctx, `UPDATE runners SET bib_number = $2 WHERE id = $1`, runnerID, assigned)
		return e
	})
	if err != nil {
		return
	}

	err = tx.Commit(ctx)
	return
}

// criteriaSQL renders a reports.Criteria as WHERE conditions. Must
// agree with reports.Criteria.Matches.
func criteriaSQL(c reports.Criteria, startPos int) (conds []string, args []any, nextPos int) {
	pos := startPos

	add := func(cond string, vals ...any) {
		conds = append(conds, cond)
		args = append(args, vals...)
		pos += len(vals)
	}

	if c.EventID != nil {
		add(fmt.Sprintf("r.event_id = $%d", pos), *c.EventID)
	}
	if c.DistanceID != nil {
		add(fmt.Sprintf("r.distance_id = $%d", pos), *c.DistanceID)
	}
	if c.ShirtSize != nil {
		add(fmt.Sprintf("r.shirt_size = $%d", pos), string(*c.ShirtSize))
	}
	if c.Gender != nil {
		add(fmt.Sprintf("r.gender = $%d", pos), string(*c.Gender))
	}
	if c.Verified != nil {
		add(fmt.Sprintf("r.is_verified = $%d", pos), *c.Verified)
	}
	if c.AgeCategory != nil {
		if low, high, ok := c.AgeCategory.Bounds(); ok {
			add(fmt.Sprintf("r.age BETWEEN $%d AND $%d", pos, pos+1), low, high)
		}
	}

	return conds, args, pos
}

// Filter loads every runner matching the criteria with event and
// distance context attached, for the exporter and the stats view.
func (repo *RunnersRepo) Filter(ctx context.Context, c reports.Criteria) (details []runner.Detail, err error) {
	q := `
		SELECT r.id, r.event_id, r.distance_id, r.first_name, r.last_name, r.email,
		       r.contact_number, r.age, r.gender, r.shirt_size,
		       r.emergency_contact_name, r.emergency_contact_number,
		       r.proof_of_payment_path, r.is_verified, r.bib_number, r.created_at,
		       e.name, e.date, d.label
		FROM runners r
		JOIN events e ON e.id = r.event_id
		JOIN distances d ON d.id = r.distance_id
	`

	conds, args, _ := criteriaSQL(c, 1)
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY r.last_name ASC, r.first_name ASC, r.id ASC"

	var rows pgx.Rows
	err = repo.observe("runners.filter", func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx, q, args...)
		return qerr
	})
	if err != nil {
		return
	}
	defer rows.Close()

	details = make([]runner.Detail, 0)

	for rows.Next() {
		var d runner.Detail
		var gender, shirtSize string

		if e := rows.Scan(
			&d.ID, &d.EventID, &d.DistanceID, &d.FirstName, &d.LastName, &d.Email,
			&d.ContactNumber, &d.Age, &gender, &shirtSize,
			&d.EmergencyContactName, &d.EmergencyContactNumber,
			&d.ProofOfPaymentPath, &d.IsVerified, &d.BibNumber, &d.CreatedAt,
			&d.EventName, &d.EventDate, &d.DistanceLabel,
		); e != nil {
			err = e
			return
		}
		d.Gender = runner.Gender(gender)
		d.ShirtSize = runner.ShirtSize(shirtSize)
		details = append(details, d)
	}
	err = rows.Err()
	return
}

// ListCursor pages the admin runner table: same criteria as Filter,
// keyset on (created_at, id).
func (repo *RunnersRepo) ListCursor(
	ctx context.Context,
	c reports.Criteria,
	limit int,
	afterCreatedAt time.Time,
	afterID string,
) (items []runner.Runner, nextCursor *string, hasMore bool, err error) {
	op := "runners.list_cursor"

	conds, args, pos := criteriaSQL(c, 1)

	conds = append(conds, fmt.Sprintf("(r.created_at, r.id) > ($%d, $%d)", pos, pos+1))
	args = append(args, afterCreatedAt, afterID)
	pos += 2

	q := `
		SELECT r.id, r.event_id, r.distance_id, r.first_name, r.last_name, r.email,
		       r.contact_number, r.age, r.gender, r.shirt_size,
		       r.emergency_contact_name, r.emergency_contact_number,
		       r.proof_of_payment_path, r.is_verified, r.bib_number, r.created_at
		FROM runners r
	`
	q += " WHERE " + strings.Join(conds, " AND ")
	q += fmt.Sprintf(" ORDER BY r.created_at ASC, r.id ASC LIMIT $%d", pos)
	args = append(args, limit+1)

	var rows pgx.Rows
	err = repo.observe(op, func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx, q, args...)
		return qerr
	})
	if err != nil {
		return nil, nil, false, err
	}
	defer rows.Close()

	out := make([]runner.Runner, 0, limit)

	for rows.Next() {
		r, scanErr := scanRunner(rows)
		if scanErr != nil {
			return nil, nil, false, scanErr
		}
		out = append(out, r)
	}
	if rows.Err() != nil {
		return nil, nil, false, rows.Err()
	}

	if len(out) > limit {
		hasMore = true
		out = out[:limit]
		last := out[len(out)-1]

		cur, encErr := utils.EncodeRunnerCursor(last.CreatedAt, last.ID)
		if encErr != nil {
			return nil, nil, false, encErr
		}
		nextCursor = &cur
	}

	return out, nextCursor, hasMore, nil
}
