package loop

import "time"

// VTimeInMs defines the time in the message timeline in the unit of
// millisecond.
type VTimeInMs int64

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInMs
}

// An UptimeClock is a TimeTeller that reads the host monotonic clock. The
// reading starts from zero when the clock is created and is never advanced by
// anything other than real elapsed time.
type UptimeClock struct {
	start time.Time
}

// NewUptimeClock creates an UptimeClock that starts counting now.
func NewUptimeClock() *UptimeClock {
	return &UptimeClock{start: time.Now()}
}

// CurrentTime returns the number of milliseconds elapsed since the clock was
// created.
func (c *UptimeClock) CurrentTime() VTimeInMs {
	return VTimeInMs(time.Since(c.start) / time.Millisecond)
}
