package notifications

import (
	"context"
	"time"
)

// RegistrationReceivedInput acknowledges a new submission while the
// proof of payment is still awaiting staff review.
type RegistrationReceivedInput struct {
	Email         string
	FirstName     string
	EventName     string
	DistanceLabel string
	EventDate     time.Time
}

// VerificationConfirmedInput tells a runner their payment was
// verified and their slot is confirmed.
type VerificationConfirmedInput struct {
	Email         string
	FirstName     string
	EventName     string
	DistanceLabel string
	EventDate     time.Time
}

type Notifier interface {
	SendRegistrationReceived(ctx context.Context, input RegistrationReceivedInput) error
	SendVerificationConfirmed(ctx context.Context, input VerificationConfirmedInput) error
}
