package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/surigaorunners/racereg/internal/domain/job"
)

// Payloads stay minimal and ID-based; the worker loads runner, event
// and distance details from the DB at send time so stale denormalized
// copies never reach an inbox.

type VerificationConfirmedPayload struct {
	RunnerID    string    `json:"runnerId"`
	RequestedAt time.Time `json:"requestedAt"`
}

func (p VerificationConfirmedPayload) JSON() (json.RawMessage, error) {
	b, err := json.Marshal(p)

	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

type RegistrationReceivedPayload struct {
	RunnerID    string    `json:"runnerId"`
	RequestedAt time.Time `json:"requestedAt"`
}

func (p RegistrationReceivedPayload) JSON() (json.RawMessage, error) {
	b, err := json.Marshal(p)

	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// DecodePayload unmarshals j.Payload into the typed payload struct
// for its job type.
func DecodePayload(j job.Job) (any, error) {
	if !IsValidType(j.Type) {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	switch j.Type {
	case TypeVerificationConfirmed:
		var p VerificationConfirmedPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		if strings.TrimSpace(p.RunnerID) == "" {
			return nil, ErrInvalidJobPayload
		}
		return p, nil

	case TypeRegistrationReceived:
		var p RegistrationReceivedPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		if strings.TrimSpace(p.RunnerID) == "" {
			return nil, ErrInvalidJobPayload
		}
		return p, nil

	default:
		return nil, ErrInvalidJobType
	}
}
