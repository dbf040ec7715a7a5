package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts time so billing dates and overdue sweeps can be tested.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

var Module = fx.Module("clock",
	fx.Provide(func() Clock { return SystemClock{} }),
)

// Today truncates the clock's current instant to midnight UTC.
func Today(c Clock) time.Time {
	return DateOf(c.Now())
}

// DateOf returns t's calendar day at midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
