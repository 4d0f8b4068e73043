package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyNotifier struct {
	err   error
	calls int
}

func (f *flakyNotifier) SendRegistrationReceived(ctx context.Context, input RegistrationReceivedInput) error {
	f.calls++
	return f.err
}

func (f *flakyNotifier) SendVerificationConfirmed(ctx context.Context, input VerificationConfirmedInput) error {
	f.calls++
	return f.err
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("smtp down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 3,
		Cooldown:         time.Hour,
	})

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := n.SendRegistrationReceived(ctx, RegistrationReceivedInput{}); err == nil {
			t.Fatalf("expected inner error on call %d", i+1)
		}
	}

	// circuit now open, inner must not be reached
	err := n.SendRegistrationReceived(ctx, RegistrationReceivedInput{})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("inner called %d times, want 3", inner.calls)
	}
}

func TestProtectedNotifier_HalfOpenRecovers(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("smtp down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 1,
		Cooldown:         10 * time.Millisecond,
	})

	ctx := context.Background()

	if err := n.SendVerificationConfirmed(ctx, VerificationConfirmedInput{}); err == nil {
		t.Fatalf("expected failure to open circuit")
	}

	time.Sleep(20 * time.Millisecond)

	// provider back up, half-open trial succeeds and closes the circuit
	inner.err = nil
	if err := n.SendVerificationConfirmed(ctx, VerificationConfirmedInput{}); err != nil {
		t.Fatalf("half-open trial failed: %v", err)
	}
	if err := n.SendVerificationConfirmed(ctx, VerificationConfirmedInput{}); err != nil {
		t.Fatalf("closed circuit rejected call: %v", err)
	}
}

func TestProtectedNotifier_HalfOpenFailureReopens(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("smtp down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 1,
		Cooldown:         10 * time.Millisecond,
	})

	ctx := context.Background()

	_ = n.SendRegistrationReceived(ctx, RegistrationReceivedInput{})

	time.Sleep(20 * time.Millisecond)

	// trial fails, circuit reopens without waiting for the threshold
	if err := n.SendRegistrationReceived(ctx, RegistrationReceivedInput{}); err == nil {
		t.Fatalf("expected trial failure")
	}
	if err := n.SendRegistrationReceived(ctx, RegistrationReceivedInput{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestProtectedNotifier_TimeoutApplied(t *testing.T) {
	slow := &slowNotifier{}
	n := NewProtectedNotifier(slow, ProtectedNotifierConfig{Timeout: 10 * time.Millisecond})

	err := n.SendRegistrationReceived(context.Background(), RegistrationReceivedInput{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

type slowNotifier struct{}

func (s *slowNotifier) SendRegistrationReceived(ctx context.Context, input RegistrationReceivedInput) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s *slowNotifier) SendVerificationConfirmed(ctx context.Context, input VerificationConfirmedInput) error {
	<-ctx.Done()
	return ctx.Err()
}
