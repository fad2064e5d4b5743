package analyzer

import (
	"fmt"
	"time"
)

// Cooldown rate-limits manual refreshes. It is a plain value: Allow returns
// the updated copy and the caller decides where to keep it.
type Cooldown struct {
	Last     time.Time
	Interval time.Duration
}

// NewCooldown returns a cooldown that allows the first refresh immediately.
func NewCooldown(interval time.Duration) Cooldown {
	return Cooldown{Interval: interval}
}

// Remaining is how long the caller must still wait at now.
func (c Cooldown) Remaining(now time.Time) time.Duration {
	if c.Last.IsZero() {
		return 0
	}
	if left := c.Interval - now.Sub(c.Last); left > 0 {
		return left
	}
	return 0
}

// Allow stamps now as the latest refresh, or reports how long to wait.
// The stamp happens before any work runs, so a failed refresh still counts.
func (c Cooldown) Allow(now time.Time) (Cooldown, error) {
	if left := c.Remaining(now); left > 0 {
		return c, &CooldownError{Remaining: left, Interval: c.Interval}
	}
	c.Last = now
	return c, nil
}

// CooldownError is returned when a refresh is requested too early.
type CooldownError struct {
	Remaining time.Duration
	Interval  time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active: wait %ds", WaitSeconds(e.Remaining))
}

// WaitSeconds rounds a remaining duration up to whole seconds.
func WaitSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
