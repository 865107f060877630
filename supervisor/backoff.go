package supervisor

import (
	"math"
	"time"
)

// Backoff describes how long WaitForConnection pauses between attempts.
type Backoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Delay returns the pause after attempt N (1-based). A zero InitialDelay
// disables pausing.
func (b Backoff) Delay(attempt int) time.Duration {
	if b.InitialDelay <= 0 {
		return 0
	}
	if attempt <= 1 {
		return b.InitialDelay
	}
	if b.Multiplier < 1.0 {
		b.Multiplier = 1.0
	}
	delay := float64(b.InitialDelay) * math.Pow(b.Multiplier, float64(attempt-1))
	if b.MaxDelay > 0 && delay > float64(b.MaxDelay) {
		delay = float64(b.MaxDelay)
	}
	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}
