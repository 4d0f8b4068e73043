package notifications

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// LogNotifier is the dev/test notifier: it logs instead of sending.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) SendRegistrationReceived(ctx context.Context, in RegistrationReceivedInput) error {
	if err := simulate(ctx); err != nil {
		return err
	}

	log.Printf("notification.registration_received email=%s name=%s event=%s distance=%s",
		in.Email, in.FirstName, in.EventName, in.DistanceLabel,
	)
	return nil
}

func (n *LogNotifier) SendVerificationConfirmed(ctx context.Context, in VerificationConfirmedInput) error {
	if err := simulate(ctx); err != nil {
		return err
	}

	log.Printf("notification.verification_confirmed email=%s name=%s event=%s distance=%s",
		in.Email, in.FirstName, in.EventName, in.DistanceLabel,
	)
	return nil
}

func simulate(ctx context.Context) error {
	// Optional: simulate slow provider
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Optional: simulate provider outage
	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	return nil
}
