package jobs

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/surigaorunners/racereg/internal/domain/job"
)

func TestDecodePayload_Verification(t *testing.T) {
	p := VerificationConfirmedPayload{
		RunnerID:    "r1",
		RequestedAt: time.Now().UTC(),
	}

	raw, err := p.JSON()
	if err != nil {
		t.Fatalf("JSON error: %v", err)
	}

	decoded, err := DecodePayload(job.Job{Type: TypeVerificationConfirmed, Payload: raw})
	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}

	got, ok := decoded.(VerificationConfirmedPayload)
	if !ok {
		t.Fatalf("expected VerificationConfirmedPayload, got %T", decoded)
	}
	if got.RunnerID != "r1" {
		t.Fatalf("runnerId = %q", got.RunnerID)
	}
}

func TestDecodePayload_Registration(t *testing.T) {
	raw, _ := RegistrationReceivedPayload{RunnerID: "r2"}.JSON()

	decoded, err := DecodePayload(job.Job{Type: TypeRegistrationReceived, Payload: raw})
	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}
	if _, ok := decoded.(RegistrationReceivedPayload); !ok {
		t.Fatalf("expected RegistrationReceivedPayload, got %T", decoded)
	}
}

func TestDecodePayload_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		j       job.Job
		wantErr error
	}{
		{
			name:    "unknown_type",
			j:       job.Job{Type: "email.spam", Payload: json.RawMessage(`{}`)},
			wantErr: ErrInvalidJobType,
		},
		{
			name:    "empty_payload",
			j:       job.Job{Type: TypeVerificationConfirmed},
			wantErr: ErrInvalidJobPayload,
		},
		{
			name:    "malformed_json",
			j:       job.Job{Type: TypeVerificationConfirmed, Payload: json.RawMessage(`{`)},
			wantErr: ErrInvalidJobPayload,
		},
		{
			name:    "missing_runner_id",
			j:       job.Job{Type: TypeRegistrationReceived, Payload: json.RawMessage(`{"runnerId":"  "}`)},
			wantErr: ErrInvalidJobPayload,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload(tt.j)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsValidType(t *testing.T) {
	if !IsValidType(TypeVerificationConfirmed) || !IsValidType(TypeRegistrationReceived) {
		t.Fatalf("known types should be valid")
	}
	if IsValidType("something.else") {
		t.Fatalf("unknown type should be invalid")
	}
}
