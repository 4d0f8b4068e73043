package worker

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoff returns the delay before retry number attempt.
// attempt=1 => ~4s, attempt=2 => ~8s, capped at 5 minutes.
func ExponentialBackoff(attempt int) time.Duration {
	base := 2 * time.Second
	capDelay := 5 * time.Minute

	multiple := math.Pow(2, float64(attempt))
	delay := time.Duration(float64(base) * multiple)

	if delay > capDelay || delay <= 0 {
		delay = capDelay
	}

	// small jitter (0-250ms) to avoid thundering herd
	delay += time.Duration(rand.Intn(250)) * time.Millisecond
	return delay
}
