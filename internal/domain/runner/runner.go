package runner

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Display returns the human-readable label used in exports.
func (g Gender) Display() string {
	switch g {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	default:
		return string(g)
	}
}

type ShirtSize string

const (
	SizeXS  ShirtSize = "XS"
	SizeS   ShirtSize = "S"
	SizeM   ShirtSize = "M"
	SizeL   ShirtSize = "L"
	SizeXL  ShirtSize = "XL"
	SizeXXL ShirtSize = "XXL"
)

var ShirtSizes = []ShirtSize{SizeXS, SizeS, SizeM, SizeL, SizeXL, SizeXXL}

func (s ShirtSize) Valid() bool {
	for _, size := range ShirtSizes {
		if s == size {
			return true
		}
	}
	return false
}

// Runner is a registrant for one distance of one event.
type Runner struct {
	ID                     string    `json:"id"`
	EventID                string    `json:"eventId"`
	DistanceID             string    `json:"distanceId"`
	FirstName              string    `json:"firstName"`
	LastName               string    `json:"lastName"`
	Email                  string    `json:"email"`
	ContactNumber          string    `json:"contactNumber"`
	Age                    int       `json:"age"`
	Gender                 Gender    `json:"gender"`
	ShirtSize              ShirtSize `json:"shirtSize"`
	EmergencyContactName   string    `json:"emergencyContactName,omitempty"`
	EmergencyContactNumber string    `json:"emergencyContactNumber,omitempty"`
	ProofOfPaymentPath     string    `json:"proofOfPaymentPath,omitempty"`
	IsVerified             bool      `json:"isVerified"`
	BibNumber              *string   `json:"bibNumber,omitempty"`
	CreatedAt              time.Time `json:"createdAt"`
}

// Detail is a Runner joined with its event and distance, loaded when a
// notification needs the event name, date and distance label.
type Detail struct {
	Runner
	EventName     string    `json:"eventName"`
	EventDate     time.Time `json:"eventDate"`
	DistanceLabel string    `json:"distanceLabel"`
}

// FullName renders "Last, First", the export sort key order.
func (r Runner) FullName() string {
	return r.LastName + ", " + r.FirstName
}

var (
	ErrNotFound = errors.New("runner not found")

	// validation rejections, surfaced per field by the handlers
	ErrRegistrationClosed     = errors.New("registration deadline has passed")
	ErrDuplicateEmail         = errors.New("email already registered for this event")
	ErrInvalidContactNumber   = errors.New("invalid contact number")
	ErrInvalidProofOfPayment  = errors.New("invalid proof of payment")
	ErrIdentityConflict       = errors.New("name already registered for this event under a different email")
	ErrDistanceNotInEvent     = errors.New("distance does not belong to the selected event")
	ErrAlreadyHasBib          = errors.New("runner already has a bib number")
)

// CreateRunnerRequest is bound from the multipart registration form;
// the proof-of-payment file arrives separately as a file part.
type CreateRunnerRequest struct {
	EventID                string `form:"event_id" binding:"required"`
	DistanceID             string `form:"distance_id" binding:"required"`
	FirstName              string `form:"first_name" binding:"required,max=100"`
	LastName               string `form:"last_name" binding:"required,max=100"`
	Email                  string `form:"email" binding:"required,email"`
	ContactNumber          string `form:"contact_number" binding:"required,max=15"`
	Age                    int    `form:"age" binding:"gte=0,lte=120"`
	Gender                 string `form:"gender" binding:"required,oneof=M F"`
	ShirtSize              string `form:"shirt_size" binding:"required,oneof=XS S M L XL XXL"`
	EmergencyContactName   string `form:"emergency_contact_name" binding:"omitempty,max=100"`
	EmergencyContactNumber string `form:"emergency_contact_number" binding:"omitempty,max=15"`
}

type UpdateRunnerRequest struct {
	DistanceID             string `json:"distanceId" binding:"required"`
	FirstName              string `json:"firstName" binding:"required,max=100"`
	LastName               string `json:"lastName" binding:"required,max=100"`
	Email                  string `json:"email" binding:"required,email"`
	ContactNumber          string `json:"contactNumber" binding:"required,max=15"`
	Age                    int    `json:"age" binding:"gte=0,lte=120"`
	Gender                 string `json:"gender" binding:"required,oneof=M F"`
	ShirtSize              string `json:"shirtSize" binding:"required,oneof=XS S M L XL XXL"`
	EmergencyContactName   string `json:"emergencyContactName" binding:"omitempty,max=100"`
	EmergencyContactNumber string `json:"emergencyContactNumber" binding:"omitempty,max=15"`
}

// NewFromCreateRequest builds a Runner from a validated, normalized DTO.
func NewFromCreateRequest(req CreateRunnerRequest, proofPath string, now time.Time) Runner {
	return Runner{
		ID:                     uuid.NewString(),
		EventID:                req.EventID,
		DistanceID:             req.DistanceID,
		FirstName:              req.FirstName,
		LastName:               req.LastName,
		Email:                  req.Email,
		ContactNumber:          req.ContactNumber,
		Age:                    req.Age,
		Gender:                 Gender(req.Gender),
		ShirtSize:              ShirtSize(req.ShirtSize),
		EmergencyContactName:   req.EmergencyContactName,
		EmergencyContactNumber: req.EmergencyContactNumber,
		ProofOfPaymentPath:     proofPath,
		IsVerified:             false,
		CreatedAt:              now,
	}
}
