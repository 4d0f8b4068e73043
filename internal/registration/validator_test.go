package registration

import (
	"errors"
	"testing"
	"time"

	"github.com/surigaorunners/racereg/internal/domain/event"
	"github.com/surigaorunners/racereg/internal/domain/runner"
)

func validProof() Proof {
	return Proof{Filename: "gcash.png", ContentType: "image/png", Size: 120_000}
}

func validSubmission() Submission {
	return Submission{
		FirstName:     "Ana",
		LastName:      "Reyes",
		Email:         "ana@example.com",
		ContactNumber: "09171234567",
		Age:           28,
		Proof:         validProof(),
	}
}

func TestNormalize(t *testing.T) {
	s := Submission{
		FirstName:     "  Ana ",
		LastName:      " Reyes ",
		Email:         "  Ana@Example.COM ",
		ContactNumber: " 09171234567 ",
	}
	s.Normalize()

	if s.FirstName != "Ana" || s.LastName != "Reyes" {
		t.Fatalf("names not trimmed: %+v", s)
	}
	if s.Email != "ana@example.com" {
		t.Fatalf("email = %q", s.Email)
	}
	if s.ContactNumber != "09171234567" {
		t.Fatalf("contact = %q", s.ContactNumber)
	}
}

func TestValidate(t *testing.T) {
	today := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	deadline := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	openEvent := event.Event{ID: "e1", Name: "City Run", RegistrationDeadline: &deadline}

	existing := []runner.Runner{
		{FirstName: "Maria", LastName: "Santos", Email: "maria@example.com"},
	}

	tests := []struct {
		name     string
		today    time.Time
		existing []runner.Runner
		mutate   func(*Submission)
		wantErr  error
	}{
		{
			name:   "accepted",
			today:  today,
			mutate: func(s *Submission) {},
		},
		{
			name:    "deadline_day_still_open",
			today:   deadline,
			mutate:  func(s *Submission) {},
			wantErr: nil,
		},
		{
			name:    "closed_after_deadline",
			today:   deadline.AddDate(0, 0, 1),
			mutate:  func(s *Submission) {},
			wantErr: runner.ErrRegistrationClosed,
		},
		{
			name:     "duplicate_email_case_insensitive",
			today:    today,
			existing: existing,
			mutate:   func(s *Submission) { s.Email = "MARIA@example.com" },
			wantErr:  runner.ErrDuplicateEmail,
		},
		{
			name:    "bad_contact_number",
			today:   today,
			mutate:  func(s *Submission) { s.ContactNumber = "12345" },
			wantErr: runner.ErrInvalidContactNumber,
		},
		{
			name:   "plus639_contact_accepted",
			today:  today,
			mutate: func(s *Submission) { s.ContactNumber = "+639171234567" },
		},
		{
			name:    "proof_not_an_image",
			today:   today,
			mutate:  func(s *Submission) { s.Proof.ContentType = "application/pdf" },
			wantErr: runner.ErrInvalidProofOfPayment,
		},
		{
			name:    "proof_too_large",
			today:   today,
			mutate:  func(s *Submission) { s.Proof.Size = MaxProofSize + 1 },
			wantErr: runner.ErrInvalidProofOfPayment,
		},
		{
			name:    "proof_missing",
			today:   today,
			mutate:  func(s *Submission) { s.Proof = Proof{} },
			wantErr: runner.ErrInvalidProofOfPayment,
		},
		{
			name:     "identity_conflict_different_email",
			today:    today,
			existing: existing,
			mutate: func(s *Submission) {
				s.FirstName = "maria"
				s.LastName = "SANTOS"
				s.Email = "other@example.com"
			},
			wantErr: runner.ErrIdentityConflict,
		},
		{
			// the duplicate-email check fires before the identity check
			name:     "duplicate_email_wins_over_identity",
			today:    today,
			existing: existing,
			mutate: func(s *Submission) {
				s.FirstName = "Maria"
				s.LastName = "Santos"
				s.Email = "maria@example.com"
			},
			wantErr: runner.ErrDuplicateEmail,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.mutate(&sub)
			sub.Normalize()

			err := Validate(tt.today, openEvent, tt.existing, sub)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_NoDeadlineAlwaysOpen(t *testing.T) {
	sub := validSubmission()

	err := Validate(time.Now().AddDate(10, 0, 0), event.Event{ID: "e1"}, nil, sub)
	if err != nil {
		t.Fatalf("expected open registration, got %v", err)
	}
}
