package clock

import "time"

// Clock abstracts the time source so grace-period and paid-until math can
// be tested against an arbitrary "now".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Fixed returns a clock pinned to the given instant.
func Fixed(at time.Time) Clock { return fixedClock{at: at} }

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }
