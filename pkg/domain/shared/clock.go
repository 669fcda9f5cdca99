package shared

import "time"

// Clock abstracts time for components whose decisions depend on "now".
// Entitlement and grace-period logic is a state machine over time, so it
// takes a Clock instead of calling time.Now directly.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the real time.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	Time time.Time
}

// Now implements Clock.
func (c FixedClock) Now() time.Time {
	return c.Time
}
