package event

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/surigaorunners/racereg/internal/domain/distance"
)

const DateLayout = "2006-01-02"

// Event is the aggregate root: it owns its distances, and runners hang
// off event+distance. Deleting an event cascades all the way down.
type Event struct {
	ID                   string              `json:"id"`
	Name                 string              `json:"name"`
	Date                 time.Time           `json:"date"`
	Description          string              `json:"description,omitempty"`
	PosterPath           string              `json:"posterPath,omitempty"`
	RegistrationDeadline *time.Time          `json:"registrationDeadline,omitempty"`
	Distances            []distance.Distance `json:"distances,omitempty"`
	CreatedAt            time.Time           `json:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt"`
}

var ErrNotFound = errors.New("event not found")

// IsUpcoming reports whether the event is still selectable for
// registration and filter forms (date >= today).
func (e Event) IsUpcoming(today time.Time) bool {
	return !e.Date.Before(today)
}

// RegistrationOpen is strict on the far side only: registering on the
// deadline day itself is still allowed.
func (e Event) RegistrationOpen(today time.Time) bool {
	if e.RegistrationDeadline == nil {
		return true
	}
	return !today.After(*e.RegistrationDeadline)
}

// dates travel as "YYYY-MM-DD" strings on the wire
type CreateEventRequest struct {
	Name                 string `json:"name" binding:"required,min=3,max=120"`
	Date                 string `json:"date" binding:"required,datetime=2006-01-02"`
	Description          string `json:"description" binding:"omitempty,max=2000"`
	RegistrationDeadline string `json:"registrationDeadline" binding:"omitempty,datetime=2006-01-02"`
}

// full update payload, same shape as create
type UpdateEventRequest struct {
	Name                 string `json:"name" binding:"required,min=3,max=120"`
	Date                 string `json:"date" binding:"required,datetime=2006-01-02"`
	Description          string `json:"description" binding:"omitempty,max=2000"`
	RegistrationDeadline string `json:"registrationDeadline" binding:"omitempty,datetime=2006-01-02"`
}

// NewFromCreateRequest builds an Event from the validated DTO.
func NewFromCreateRequest(req CreateEventRequest, now time.Time) (Event, error) {
	date, err := time.Parse(DateLayout, req.Date)

	if err != nil {
		return Event{}, err
	}

	var deadline *time.Time

	if req.RegistrationDeadline != "" {
		d, err := time.Parse(DateLayout, req.RegistrationDeadline)

		if err != nil {
			return Event{}, err
		}
		deadline = &d
	}

	return Event{
		ID:                   uuid.NewString(),
		Name:                 req.Name,
		Date:                 date,
		Description:          req.Description,
		RegistrationDeadline: deadline,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// ParseUpdateRequest resolves the date strings of an update payload.
func ParseUpdateRequest(req UpdateEventRequest) (date time.Time, deadline *time.Time, err error) {
	date, err = time.Parse(DateLayout, req.Date)

	if err != nil {
		return
	}

	if req.RegistrationDeadline != "" {
		var d time.Time
		d, err = time.Parse(DateLayout, req.RegistrationDeadline)

		if err != nil {
			return
		}
		deadline = &d
	}

	return
}
