package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surigaorunners/racereg/internal/domain/distance"
	"github.com/surigaorunners/racereg/internal/domain/event"
	"github.com/surigaorunners/racereg/internal/observability"
)

type DistancesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewDistancesRepo(pool *pgxpool.Pool, prom *observability.Prom) *DistancesRepo {
	return &DistancesRepo{pool: pool, prom: prom}
}

func (repo *DistancesRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (repo *DistancesRepo) Create(ctx context.Context, d distance.Distance) (distance.Distance, error) {
	err := repo.observe("distances.create", func() error {
		_, e := repo.pool.Exec(ctx, `
		INSERT INTO distances (id, event_id, label, fee, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, d.ID, d.EventID, d.Label, d.Fee, d.CreatedAt, d.UpdatedAt)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return distance.Distance{}, event.ErrNotFound
		}
		return distance.Distance{}, err
	}
	return d, nil
}

func (repo *DistancesRepo) GetByID(ctx context.Context, id string) (d distance.Distance, err error) {
	err = repo.observe("distances.get_by_id", func() error {
		return repo.pool.QueryRow(ctx, `
		SELECT id, event_id, label, fee, created_at, updated_at
		FROM distances
		WHERE id = $1
	`, id).Scan(&d.ID, &d.EventID, &d.Label, &d.Fee, &d.CreatedAt, &d.UpdatedAt)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		err = distance.ErrNotFound
	}
	return
}

// ListByEvent returns the distance choices for one event, ordered by
// numeric label. The public form calls this whenever the event
// selection changes.
func (repo *DistancesRepo) ListByEvent(ctx context.Context, eventID string) (ds []distance.Distance, err error) {
	var rows pgx.Rows

	err = repo.observe("distances.list_by_event", func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx, `
		SELECT id, event_id, label, fee, created_at, updated_at
		FROM distances
		WHERE event_id = $1
		ORDER BY label::int ASC, id ASC
	`, eventID)
		return qerr
	})
	if err != nil {
		return
	}
	defer rows.Close()

	// empty is a valid answer: events can exist without distances yet
	ds = make([]distance.Distance, 0)

	for rows.Next() {
		var d distance.Distance
		if e := rows.Scan(&d.ID, &d.EventID, &d.Label, &d.Fee, &d.CreatedAt, &d.UpdatedAt); e != nil {
			err = e
			return
		}
		ds = append(ds, d)
	}
	err = rows.Err()
	return
}

func (repo *DistancesRepo) Update(ctx context.Context, d distance.Distance) (err error) {
	var tag pgconn.CommandTag

	err = repo.observe("distances.update", func() error {
		var e error
		tag, e = repo.pool.Exec(ctx, `
		UPDATE distances
		SET label = $2,
		    fee = $3,
		    updated_at = $4
		WHERE id = $1
	`, d.ID, d.Label, d.Fee, d.UpdatedAt)
		return e
	})

	if err != nil {
		return
	}
	if tag.RowsAffected() == 0 {
		err = distance.ErrNotFound
	}
	return
}

func (repo *DistancesRepo) Delete(ctx context.Context, id string) (err error) {
	var tag pgconn.CommandTag

	err = repo.observe("distances.delete", func() error {
		var e error
		tag, e = repo.pool.Exec(ctx, `DELETE FROM distances WHERE id = $1`, id)
		return e
	})

	if err != nil {
		return
	}
	if tag.RowsAffected() == 0 {
		err = distance.ErrNotFound
	}
	return
}
