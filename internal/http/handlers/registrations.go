package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/surigaorunners/racereg/internal/clock"
	"github.com/surigaorunners/racereg/internal/config"
	"github.com/surigaorunners/racereg/internal/domain/event"
	"github.com/surigaorunners/racereg/internal/domain/runner"
	"github.com/surigaorunners/racereg/internal/observability"
	"github.com/surigaorunners/racereg/internal/registration"
	"github.com/surigaorunners/racereg/internal/storage"
	"github.com/surigaorunners/racereg/internal/utils"
)

type EventGetter interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
}

type RegistrationCreator interface {
	ListByEvent(ctx context.Context, eventID string) ([]runner.Runner, error)
	CreateWithAck(ctx context.Context, r runner.Runner) (runner.Runner, error)
}

// RegistrationsHandler owns the public registration endpoint.
type RegistrationsHandler struct {
	events  EventGetter
	runners RegistrationCreator
	files   *storage.Store
	clk     clock.Clock
	prom    *observability.Prom
}

func NewRegistrationsHandler(events EventGetter, runners RegistrationCreator, files *storage.Store, clk clock.Clock, prom *observability.Prom) *RegistrationsHandler {
	return &RegistrationsHandler{
		events:  events,
		runners: runners,
		files:   files,
		clk:     clk,
		prom:    prom,
	}
}

func (h *RegistrationsHandler) countOutcome(outcome string) {
	if h.prom != nil {
		h.prom.RegistrationsTotal.WithLabelValues(outcome).Inc()
	}
}

// Register accepts the public multipart form. Validation runs in a
// fixed order so the registrant always sees the most fundamental
// problem first: closed event, duplicate email, bad contact number,
// bad proof, identity conflict.
func (h *RegistrationsHandler) Register(ctx *gin.Context) {
	var req runner.CreateRunnerRequest

	if !BindForm(ctx, &req) {
		h.countOutcome("invalid_form")
		return
	}

	if !utils.IsUUID(req.EventID) || !utils.IsUUID(req.DistanceID) {
		h.countOutcome("invalid_form")
		RespondBadRequest(ctx, "Invalid event or distance id", nil)
		return
	}

	fh, err := ctx.FormFile("proof_of_payment")
	if err != nil {
		h.countOutcome("invalid_proof")
		RespondValidation(ctx, "invalid_proof_of_payment", "Proof of payment image is required.")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	ev, err := h.events.GetByID(cctx, req.EventID)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			h.countOutcome("event_not_found")
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not process registration")
		return
	}

	// the distance must belong to the selected event
	if !eventHasDistance(ev, req.DistanceID) {
		h.countOutcome("distance_mismatch")
		RespondValidation(ctx, "distance_not_in_event", "Selected distance does not belong to this event.")
		return
	}

	existing, err := h.runners.ListByEvent(cctx, req.EventID)
	if err != nil {
		RespondInternal(ctx, "Could not process registration")
		return
	}

	sub := registration.Submission{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		ContactNumber: req.ContactNumber,
		Age:           req.Age,
		Proof: registration.Proof{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		},
	}
	sub.Normalize()

	if err := registration.Validate(clock.Today(h.clk), ev, existing, sub); err != nil {
		h.respondValidationError(ctx, err)
		return
	}

	proofPath, err := h.files.Save("receipts", fh)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedExtension) {
			h.countOutcome("invalid_proof")
			RespondValidation(ctx, "invalid_proof_of_payment", "Proof of payment must be an image file.")
			return
		}
		RespondInternal(ctx, "Could not store proof of payment")
		return
	}

	// carry the normalized values into the stored record
	req.FirstName = sub.FirstName
	req.LastName = sub.LastName
	req.Email = sub.Email
	req.ContactNumber = sub.ContactNumber

	r := runner.NewFromCreateRequest(req, proofPath, h.clk.Now())

	created, err := h.runners.CreateWithAck(cctx, r)
	if err != nil {
		_ = h.files.Remove(proofPath)
		if errors.Is(err, runner.ErrDuplicateEmail) {
			// lost the race to a concurrent submission with the same email
			h.countOutcome("duplicate_email")
			RespondConflict(ctx, "duplicate_email", "This email is already registered for this event.")
			return
		}
		if errors.Is(err, runner.ErrDistanceNotInEvent) {
			h.countOutcome("distance_mismatch")
			RespondValidation(ctx, "distance_not_in_event", "Selected distance does not belong to this event.")
			return
		}
		RespondInternal(ctx, "Could not process registration")
		return
	}

	h.countOutcome("accepted")
	ctx.JSON(http.StatusCreated, created)
}

func (h *RegistrationsHandler) respondValidationError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, runner.ErrRegistrationClosed):
		h.countOutcome("registration_closed")
		RespondValidation(ctx, "registration_closed", "Registration for this event has closed.")
	case errors.Is(err, runner.ErrDuplicateEmail):
		h.countOutcome("duplicate_email")
		RespondConflict(ctx, "duplicate_email", "This email is already registered for this event.")
	case errors.Is(err, runner.ErrInvalidContactNumber):
		h.countOutcome("invalid_contact")
		RespondValidation(ctx, "invalid_contact_number", "Contact number must be 09XXXXXXXXX or +639XXXXXXXXX.")
	case errors.Is(err, runner.ErrInvalidProofOfPayment):
		h.countOutcome("invalid_proof")
		RespondValidation(ctx, "invalid_proof_of_payment", "Proof of payment must be an image up to 5 MB.")
	case errors.Is(err, runner.ErrIdentityConflict):
		h.countOutcome("identity_conflict")
		RespondConflict(ctx, "identity_conflict", "This name is already registered for this event under a different email.")
	default:
		RespondInternal(ctx, "Could not process registration")
	}
}

func eventHasDistance(ev event.Event, distanceID string) bool {
	for _, d := range ev.Distances {
		if d.ID == distanceID {
			return true
		}
	}
	return false
}
