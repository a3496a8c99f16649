package timeline

import (
	"log"
	"math"
	"time"
)

// Unit defines the granularity of a timeline. One timeline tick lasts for
// one Unit of wall time.
type Unit time.Duration

// Common timeline units.
const (
	Nanosecond  Unit = Unit(time.Nanosecond)
	Microsecond Unit = Unit(time.Microsecond)
	Millisecond Unit = Unit(time.Millisecond)
	Second      Unit = Unit(time.Second)
)

// Period returns the wall-clock duration of one tick.
func (u Unit) Period() time.Duration {
	if u <= 0 {
		log.Panic("timeline unit must be positive")
	}
	return time.Duration(u)
}

// Ticks converts a wall-clock duration to a number of ticks, rounding half
// away from zero.
func (u Unit) Ticks(d time.Duration) int64 {
	return int64(math.Round(float64(d) / float64(u.Period())))
}

// Duration converts a number of ticks to a wall-clock duration.
func (u Unit) Duration(ticks int64) time.Duration {
	return time.Duration(ticks) * u.Period()
}

func (u Unit) String() string {
	return time.Duration(u).String()
}
