package jobs

import "errors"

const (
	// payment proof verified by staff; tell the runner they're in
	TypeVerificationConfirmed = "runner.verification"
	// public submission accepted; acknowledge receipt
	TypeRegistrationReceived = "registration.received"
)

var (
	ErrInvalidJobType    = errors.New("invalid job type")
	ErrInvalidJobPayload = errors.New("invalid job payload")
)

func IsValidType(t string) bool {
	switch t {
	case TypeVerificationConfirmed, TypeRegistrationReceived:
		return true
	default:
		return false
	}
}
