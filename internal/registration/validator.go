package registration

import (
	"regexp"
	"strings"
	"time"

	"github.com/surigaorunners/racereg/internal/domain/event"
	"github.com/surigaorunners/racereg/internal/domain/runner"
)

// MaxProofSize caps the proof-of-payment upload at 5 MiB.
const MaxProofSize = 5 * 1024 * 1024

// 09XXXXXXXXX or +639XXXXXXXXX (PH mobile)
var contactNumberRe = regexp.MustCompile(`^(09\d{9}|\+639\d{9})$`)

// Proof describes the uploaded proof-of-payment file. Only the
// metadata matters here; the bytes are persisted by the caller.
type Proof struct {
	Filename    string
	ContentType string
	Size        int64
}

// Submission is a candidate runner record before acceptance.
type Submission struct {
	FirstName     string
	LastName      string
	Email         string
	ContactNumber string
	Age           int
	Proof         Proof
}

// Normalize trims whitespace and lowercases the email in place. Run it
// before Validate so the duplicate checks compare like with like.
func (s *Submission) Normalize() {
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.ContactNumber = strings.TrimSpace(s.ContactNumber)
}

// Validate applies the registration business rules in order and
// returns the first rejection. It is pure: persistence and
// notifications happen in the caller. existing is the set of runners
// already registered for the same event.
func Validate(today time.Time, ev event.Event, existing []runner.Runner, sub Submission) error {
	if !ev.RegistrationOpen(today) {
		return runner.ErrRegistrationClosed
	}

	for _, r := range existing {
		if strings.EqualFold(r.Email, sub.Email) {
			return runner.ErrDuplicateEmail
		}
	}

	if !contactNumberRe.MatchString(sub.ContactNumber) {
		return runner.ErrInvalidContactNumber
	}

	if err := validateProof(sub.Proof); err != nil {
		return err
	}

	// Same full name with a different email smells like the same
	// person re-registering; reject for manual resolution.
	for _, r := range existing {
		if strings.EqualFold(r.FirstName, sub.FirstName) && strings.EqualFold(r.LastName, sub.LastName) {
			if !strings.EqualFold(r.Email, sub.Email) {
				return runner.ErrIdentityConflict
			}
		}
	}

	return nil
}

func validateProof(p Proof) error {
	if p.Filename == "" || p.Size <= 0 {
		return runner.ErrInvalidProofOfPayment
	}

	if !strings.HasPrefix(p.ContentType, "image/") {
		return runner.ErrInvalidProofOfPayment
	}

	if p.Size > MaxProofSize {
		return runner.ErrInvalidProofOfPayment
	}

	return nil
}
