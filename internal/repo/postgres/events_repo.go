package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surigaorunners/racereg/internal/domain/distance"
	"github.com/surigaorunners/racereg/internal/domain/event"
	"github.com/surigaorunners/racereg/internal/observability"
)

type EventsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewEventsRepo(pool *pgxpool.Pool, prom *observability.Prom) *EventsRepo {
	return &EventsRepo{pool: pool, prom: prom}
}

func (repo *EventsRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (repo *EventsRepo) Create(ctx context.Context, ev event.Event) (event.Event, error) {
	op := "events.create"

	err := repo.observe(op, func() error {
		_, e := repo.pool.Exec(ctx, `
		INSERT INTO events (id, name, date, description, poster_path, registration_deadline, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, ev.ID, ev.Name, ev.Date, ev.Description, ev.PosterPath, ev.RegistrationDeadline, ev.CreatedAt, ev.UpdatedAt)
		return e
	})

	if err != nil {
		return event.Event{}, err
	}
	return ev, nil
}

func (repo *EventsRepo) GetByID(ctx context.Context, id string) (ev event.Event, err error) {
	err = repo.observe("events.get_by_id", func() error {
		return repo.pool.QueryRow(ctx, `
		SELECT id, name, date, description, poster_path, registration_deadline, created_at, updated_at
		FROM events
		WHERE id = $1
	`, id).Scan(&ev.ID, &ev.Name, &ev.Date, &ev.Description, &ev.PosterPath,
			&ev.RegistrationDeadline, &ev.CreatedAt, &ev.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = event.ErrNotFound
		}
		return
	}

	ev.Distances, err = repo.distancesFor(ctx, id)
	return
}

// List returns events ordered by date. When upcomingOnly is set only
// events on or after today are returned, which is what the public
// registration form shows.
func (repo *EventsRepo) List(ctx context.Context, upcomingOnly bool, today time.Time) (events []event.Event, err error) {
	q := `
		SELECT id, name, date, description, poster_path, registration_deadline, created_at, updated_at
		FROM events
	`
	args := []any{}
	if upcomingOnly {
		q += ` WHERE date >= $1`
		args = append(args, today)
	}
	q += ` ORDER BY date ASC, id ASC`

	var rows pgx.Rows
	err = repo.observe("events.list", func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx, q, args...)
		return qerr
	})
	if err != nil {
		return
	}
	defer rows.Close()

	events = make([]event.Event, 0)
	ids := make([]string, 0)

	for rows.Next() {
		var ev event.Event
		if e := rows.Scan(&ev.ID, &ev.Name, &ev.Date, &ev.Description, &ev.PosterPath,
			&ev.RegistrationDeadline, &ev.CreatedAt, &ev.UpdatedAt); e != nil {
			err = e
			return
		}
		events = append(events, ev)
		ids = append(ids, ev.ID)
	}
	if e := rows.Err(); e != nil {
		err = e
		return
	}

	if len(ids) == 0 {
		return
	}

	// one query for all distance lists, grouped in memory
	byEvent, err := repo.distancesForMany(ctx, ids)
	if err != nil {
		return
	}
	for i := range events {
		events[i].Distances = byEvent[events[i].ID]
	}
	return
}

func (repo *EventsRepo) Update(ctx context.Context, ev event.Event) (err error) {
	var tag pgconn.CommandTag

	err = repo.observe("events.update", func() error {
		var e error
		tag, e = repo.pool.Exec(ctx, `
		UPDATE events
		SET name = $2,
		    date = $3,
		    description = $4,
		    poster_path = $5,
		    registration_deadline = $6,
		    updated_at = $7
		WHERE id = $1
	`, ev.ID, ev.Name, ev.Date, ev.Description, ev.PosterPath, ev.RegistrationDeadline, ev.UpdatedAt)
		return e
	})

	if err != nil {
		return
	}
	if tag.RowsAffected() == 0 {
		err = event.ErrNotFound
	}
	return
}

// Delete cascades to distances and runners via FK constraints.
func (repo *EventsRepo) Delete(ctx context.Context, id string) (err error) {
	var tag pgconn.CommandTag

	err = repo.observe("events.delete", func() error {
		var e error
		tag, e = repo.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		return e
	})

	if err != nil {
		return
	}
	if tag.RowsAffected() == 0 {
		err = event.ErrNotFound
	}
	return
}

func (repo *EventsRepo) distancesFor(ctx context.Context, eventID string) ([]distance.Distance, error) {
	byEvent, err := repo.distancesForMany(ctx, []string{eventID})
	if err != nil {
		return nil, err
	}
	return byEvent[eventID], nil
}

func (repo *EventsRepo) distancesForMany(ctx context.Context, eventIDs []string) (map[string][]distance.Distance, error) {
	var rows pgx.Rows
	err := repo.observe("events.distances_for", func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx, `
		SELECT id, event_id, label, fee, created_at, updated_at
		FROM distances
		WHERE event_id = ANY($1)
		ORDER BY label::int ASC, id ASC
	`, eventIDs)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]distance.Distance, len(eventIDs))

	for rows.Next() {
		var d distance.Distance
		if e := rows.Scan(&d.ID, &d.EventID, &d.Label, &d.Fee, &d.CreatedAt, &d.UpdatedAt); e != nil {
			return nil, e
		}
		out[d.EventID] = append(out[d.EventID], d)
	}
	return out, rows.Err()
}
